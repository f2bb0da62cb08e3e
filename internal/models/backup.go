package models

import "time"

// BackupItem is the pre-mutation state of one content item
type BackupItem struct {
	ID      int    `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

// BackupSnapshot is a point-in-time capture of content items written to a
// local JSON artifact before a destructive bulk operation. Snapshots are
// retained indefinitely; rollback is a manual step.
type BackupSnapshot struct {
	File      string       `json:"file"`
	Site      string       `json:"site"`
	Count     int          `json:"count"`
	CreatedAt time.Time    `json:"created_at"`
	Items     []BackupItem `json:"items,omitempty"`
}
