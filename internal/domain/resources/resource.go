package resources

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ResourceType string

const (
	TypeSyllabus             ResourceType = "syllabus"
	TypePastPaper            ResourceType = "past_paper"
	TypeMarkScheme           ResourceType = "mark_scheme"
	TypeTextbookExcerpt      ResourceType = "textbook_excerpt"
	TypeUserUpload           ResourceType = "user_upload"
	TypeVideo                ResourceType = "video"
	TypeGeneratedExplanation ResourceType = "generated_explanation"
)

type Visibility string

const (
	VisibilityPublic        Visibility = "public"
	VisibilityPrivate       Visibility = "private"
	VisibilityPendingReview Visibility = "pending_review"
)

type RemoteSyncStatus string

const (
	RemoteSyncNotQueued RemoteSyncStatus = "not_queued"
	RemoteSyncPending   RemoteSyncStatus = "pending"
	RemoteSyncSucceeded RemoteSyncStatus = "succeeded"
	RemoteSyncFailed    RemoteSyncStatus = "failed"
)

// Resource is one physical artifact. The row is the source of truth; the
// local file and the remote backup object are both rebuildable from it.
type Resource struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ResourceType ResourceType `gorm:"column:resource_type;not null;index" json:"resource_type"`
	Visibility   Visibility   `gorm:"column:visibility;not null;index" json:"visibility"`

	// OwnerID is nil for system/official content.
	OwnerID *uuid.UUID `gorm:"type:uuid;column:owner_id;index:idx_resource_owner_signature,unique,priority:1" json:"owner_id,omitempty"`

	// Signature is the hex SHA-256 of the raw bytes. Unique per owner so an
	// exact duplicate submission by the same tenant is rejected, not re-stored.
	Signature string `gorm:"column:signature;not null;index:idx_resource_owner_signature,unique,priority:2;index" json:"signature"`

	LocalPath        string           `gorm:"column:local_path;not null" json:"local_path"`
	RemoteKey        string           `gorm:"column:remote_key" json:"remote_key,omitempty"`
	RemoteSyncStatus RemoteSyncStatus `gorm:"column:remote_sync_status;not null;index" json:"remote_sync_status"`

	ExtractedText string `gorm:"column:extracted_text;type:text" json:"extracted_text,omitempty"`
	SizeBytes     int64  `gorm:"column:size_bytes;not null" json:"size_bytes"`

	// CatalogID identifies official content within the external catalog so the
	// differential sync can match entries without re-hashing downloads.
	CatalogID string `gorm:"column:catalog_id;index" json:"catalog_id,omitempty"`

	// Metadata shape varies by resource type (page ranges, source URL, video
	// timestamps). Validated at the ingestion boundary per type.
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Resource) TableName() string { return "resource" }

// Valid reports whether t is one of the declared resource types.
func (t ResourceType) Valid() bool {
	switch t {
	case TypeSyllabus, TypePastPaper, TypeMarkScheme, TypeTextbookExcerpt,
		TypeUserUpload, TypeVideo, TypeGeneratedExplanation:
		return true
	}
	return false
}

// IsDocument reports whether the type carries extractable text.
func (t ResourceType) IsDocument() bool {
	switch t {
	case TypeSyllabus, TypePastPaper, TypeMarkScheme, TypeTextbookExcerpt, TypeUserUpload:
		return true
	}
	return false
}

// TypePriority orders resource types for relevance tie-breaking. Lower wins.
func TypePriority(t ResourceType) int {
	switch t {
	case TypeSyllabus:
		return 0
	case TypeMarkScheme:
		return 1
	case TypePastPaper:
		return 2
	case TypeTextbookExcerpt:
		return 3
	case TypeUserUpload:
		return 4
	default:
		return 5
	}
}
