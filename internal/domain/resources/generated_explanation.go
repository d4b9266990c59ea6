package resources

import (
	"time"

	"github.com/google/uuid"
)

// GeneratedExplanation is versioned explanation content per syllabus topic.
// Version 1 is the system canonical instance and never has an owner; versions
// two and up are tenant-personalized. Exactly one row per (topic_id, version).
type GeneratedExplanation struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID uuid.UUID `gorm:"type:uuid;not null;index:idx_explanation_topic_version,unique,priority:1" json:"topic_id"`
	Version int       `gorm:"column:version;not null;index:idx_explanation_topic_version,unique,priority:2" json:"version"`

	OwnerID *uuid.UUID `gorm:"type:uuid;column:owner_id;index" json:"owner_id,omitempty"`

	Content string `gorm:"column:content;type:text;not null" json:"content"`

	// Signature hashes content plus last-modified time; the cache manager
	// compares it to detect staleness.
	Signature string `gorm:"column:signature;not null;index" json:"signature"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (GeneratedExplanation) TableName() string { return "generated_explanation" }

const CanonicalVersion = 1
