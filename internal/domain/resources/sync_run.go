package resources

import (
	"time"

	"github.com/google/uuid"
)

type SyncStatus string

const (
	// SyncStatusIdle is never persisted; it is the synthetic status reported
	// before the first run of a source.
	SyncStatusIdle      SyncStatus = "idle"
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusSucceeded SyncStatus = "succeeded"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncRun records one execution of the differential catalog sync. The most
// recent row backs the sync-status endpoint.
type SyncRun struct {
	ID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Source string     `gorm:"column:source;not null;index" json:"source"`
	Status SyncStatus `gorm:"column:status;not null;index" json:"status"`

	Downloaded int `gorm:"column:downloaded;not null" json:"downloaded"`
	Skipped    int `gorm:"column:skipped;not null" json:"skipped"`
	Failed     int `gorm:"column:failed;not null" json:"failed"`

	Error      string     `gorm:"column:error" json:"error,omitempty"`
	StartedAt  time.Time  `gorm:"column:started_at;not null;index" json:"started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

func (SyncRun) TableName() string { return "sync_run" }
