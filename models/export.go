package models

import "time"

// ExportRecord is the per-conversation ledger entry. TurnCount is the
// authoritative low-water mark for delta computation; it is never validated
// against the live destination document.
type ExportRecord struct {
	ConversationID string    `yaml:"conversation_id"`
	Title          string    `yaml:"title"`
	ExportedAt     time.Time `yaml:"exported_at"`
	TurnCount      int       `yaml:"turn_count"`
	PageID         string    `yaml:"page_id"`
	ContainerID    string    `yaml:"container_id"`
}

// Status is the coarse phase of an export run.
type Status string

const (
	StatusStarting    Status = "starting"
	StatusSummarizing Status = "summarizing"
	StatusCreating    Status = "creating"
	StatusError       Status = "error"
)

// Progress is a point-in-time snapshot of the active export run.
// UpdatedAt lets observers judge whether an abandoned run left the
// snapshot behind.
type Progress struct {
	Status    Status    `yaml:"status"`
	Current   int       `yaml:"current"`
	Total     int       `yaml:"total"`
	Message   string    `yaml:"message"`
	UpdatedAt time.Time `yaml:"updated_at"`
}
