// Package checkpoint saves collection progress per post so an interrupted
// run can resume paging where it stopped.
//
// A checkpoint tracks:
//   - The GraphQL end cursor of the last page merged
//   - Passes completed and the collection size after the last pass
//   - Whether the source reported that no more pages remain
//
// Checkpoints are stored in platform-specific data directories:
//   - Linux: $XDG_DATA_HOME/igcomments/checkpoints/ or ~/.local/share/igcomments/checkpoints/
//   - macOS: ~/Library/Application Support/igcomments/checkpoints/
//   - Windows: %APPDATA%/igcomments/checkpoints/
//
// Files are written atomically and carry a version number.
package checkpoint
