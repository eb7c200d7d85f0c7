package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Status is the lifecycle state of a call record.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

var statusSet = map[Status]struct{}{
	StatusPending: {},
	StatusDone:    {},
	StatusError:   {},
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether no further automatic transition applies.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// CallRecord tracks one audio artifact from ingestion through processing.
//
// AudioLocation is set at creation and never mutated afterward. Transcript
// and Summary are only written together with the transition out of pending.
type CallRecord struct {
	ID            int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SourceRef     string         `gorm:"column:source_ref;type:text;index" json:"source_ref"`
	FromParty     string         `gorm:"column:from_party;type:text" json:"from_party,omitempty"`
	ToParty       string         `gorm:"column:to_party;type:text" json:"to_party,omitempty"`
	AudioLocation string         `gorm:"column:audio_location;type:text" json:"audio_location"`
	Transcript    string         `gorm:"column:transcript;type:text" json:"transcript,omitempty"`
	Summary       string         `gorm:"column:summary;type:text" json:"summary,omitempty"`
	Status        Status         `gorm:"column:status;type:text;index" json:"status"`
	Metadata      datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (CallRecord) TableName() string { return "call_records" }
