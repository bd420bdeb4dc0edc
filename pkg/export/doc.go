// Package export turns a comment collection into five-column rows
// (Username, Comment, Timestamp, Likes, Verified) and writes them to a
// terminal table, a CSV file or a Google Sheets range.
package export
