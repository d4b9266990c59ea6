package resources

import (
	"time"

	"github.com/google/uuid"
)

type LinkOrigin string

const (
	LinkOriginAuto       LinkOrigin = "auto"
	LinkOriginModeration LinkOrigin = "moderation"
)

// TopicResourceLink relates a syllabus topic to a Resource with a relevance
// score in [0,1]. ContributionWeight is recorded after the resource is
// actually consumed by generation.
type TopicResourceLink struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID    uuid.UUID `gorm:"type:uuid;not null;index:idx_topic_resource,unique,priority:1" json:"topic_id"`
	ResourceID uuid.UUID `gorm:"type:uuid;not null;index:idx_topic_resource,unique,priority:2;index" json:"resource_id"`

	RelevanceScore     float64    `gorm:"column:relevance_score;not null" json:"relevance_score"`
	ContributionWeight *float64   `gorm:"column:contribution_weight" json:"contribution_weight,omitempty"`
	Origin             LinkOrigin `gorm:"column:origin;not null" json:"origin"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (TopicResourceLink) TableName() string { return "topic_resource_link" }
