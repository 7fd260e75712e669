// Package models defines the domain types for Raido.
package models

import "time"

// Session represents one session record discovered on disk.
type Session struct {
	Filename     string    `json:"filename"`
	ShortID      string    `json:"shortId"`
	Date         string    `json:"date"`
	SessionPath  string    `json:"sessionPath"`
	Size         int64     `json:"size"`
	HasContent   bool      `json:"hasContent"`
	ModifiedTime time.Time `json:"modifiedTime"`

	// Populated only when content is requested.
	Content  string           `json:"content,omitempty"`
	Metadata *SessionMetadata `json:"metadata,omitempty"`
	Stats    *SessionStats    `json:"stats,omitempty"`
}

// SessionMetadata holds the labeled fields extracted from a session body.
// Absent sections yield zero values; extraction never fails.
type SessionMetadata struct {
	Title       string   `json:"title,omitempty"`
	Date        string   `json:"date,omitempty"`
	Started     string   `json:"started,omitempty"`
	LastUpdated string   `json:"lastUpdated,omitempty"`
	Completed   []string `json:"completed"`
	InProgress  []string `json:"inProgress"`
	Notes       string   `json:"notes,omitempty"`
	Context     string   `json:"context,omitempty"`
}

// SessionStats are derived counts, computed on demand and never persisted.
type SessionStats struct {
	TotalItems      int  `json:"totalItems"`
	CompletedItems  int  `json:"completedItems"`
	InProgressItems int  `json:"inProgressItems"`
	LineCount       int  `json:"lineCount"`
	HasNotes        bool `json:"hasNotes"`
	HasContext      bool `json:"hasContext"`
}
