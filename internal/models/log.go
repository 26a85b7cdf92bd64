package models

import "time"

// LogKind classifies an activity log entry
type LogKind string

const (
	LogKindInfo    LogKind = "info"
	LogKindSuccess LogKind = "success"
	LogKindError   LogKind = "error"
	LogKindPending LogKind = "pending"
)

// Settles reports whether an entry of this kind retires outstanding pending entries
func (k LogKind) Settles() bool {
	return k == LogKindInfo || k == LogKindSuccess || k == LogKindError
}

// Valid reports whether k is a known kind
func (k LogKind) Valid() bool {
	return k.Settles() || k == LogKindPending
}

// LogEntry is one line of operation narration shown to the user
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      LogKind   `json:"kind"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
}
