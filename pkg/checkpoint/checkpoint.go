package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"igcomments/pkg/logger"
	"igcomments/pkg/storage"
)

const currentVersion = 1

// Checkpoint records how far collection of one post has progressed
type Checkpoint struct {
	Shortcode       string    `json:"shortcode"`
	EndCursor       string    `json:"end_cursor"`
	PassesCompleted int       `json:"passes_completed"`
	TotalComments   int       `json:"total_comments"`
	Done            bool      `json:"done"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Version         int       `json:"version"`
}

// Manager handles checkpoint operations for a single post
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a checkpoint manager under the platform data directory
func NewManager(shortcode string, log logger.Logger) (*Manager, error) {
	dataDir, err := DataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	return NewManagerAt(filepath.Join(dataDir, "checkpoints"), shortcode, log)
}

// NewManagerAt creates a checkpoint manager storing its file in dir
func NewManagerAt(dir, shortcode string, log logger.Logger) (*Manager, error) {
	if shortcode == "" {
		return nil, fmt.Errorf("checkpoint requires a shortcode")
	}
	if log == nil {
		log = logger.GetLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &Manager{
		checkpointPath: filepath.Join(dir, shortcode+".checkpoint.json"),
		logger:         log,
	}, nil
}

// Path returns the checkpoint file path
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Create writes a fresh checkpoint for shortcode
func (m *Manager) Create(shortcode string) (*Checkpoint, error) {
	now := time.Now()
	cp := &Checkpoint{
		Shortcode: shortcode,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   currentVersion,
	}

	if err := m.Save(cp); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"shortcode": shortcode,
		"path":      m.checkpointPath,
	})
	return cp, nil
}

// Load reads the checkpoint; it returns nil, nil when none exists
func (m *Manager) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if cp.Version > currentVersion {
		return nil, fmt.Errorf("checkpoint version %d is newer than supported version %d", cp.Version, currentVersion)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"shortcode":      cp.Shortcode,
		"passes":         cp.PassesCompleted,
		"total_comments": cp.TotalComments,
		"last_cursor":    cp.EndCursor,
		"updated_at":     cp.UpdatedAt,
	})
	return &cp, nil
}

// Save writes the checkpoint atomically
func (m *Manager) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()

	if err := storage.WriteJSONAtomic(m.checkpointPath, cp); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"shortcode":      cp.Shortcode,
		"passes":         cp.PassesCompleted,
		"total_comments": cp.TotalComments,
		"last_cursor":    cp.EndCursor,
	})
	return nil
}

// UpdateProgress records the outcome of one pass
func (m *Manager) UpdateProgress(cp *Checkpoint, endCursor string, total int, done bool) error {
	return m.AdvanceProgress(cp, endCursor, total, done, 1)
}

// AdvanceProgress records the outcome of passes completed since the last
// update
func (m *Manager) AdvanceProgress(cp *Checkpoint, endCursor string, total int, done bool, passes int) error {
	cp.EndCursor = endCursor
	cp.PassesCompleted += passes
	cp.TotalComments = total
	cp.Done = done
	return m.Save(cp)
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// DataDirectory returns the igcomments data directory for the current OS
func DataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "igcomments")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "igcomments")
	default:
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "igcomments")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "igcomments")
		}
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
