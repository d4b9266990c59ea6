package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	JobTypeRemoteBackup   = "remote_backup"
	JobTypeTextExtraction = "text_extraction"

	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// JobRun is the durable record of one background job. Workers claim queued
// rows by flipping status inside a transaction; retries, batch re-queues and
// the status endpoints all read these rows rather than a queue API.
type JobRun struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JobType    string    `gorm:"column:job_type;not null;index" json:"job_type"`
	ResourceID uuid.UUID `gorm:"type:uuid;column:resource_id;not null;index" json:"resource_id"`

	Status   string `gorm:"column:status;not null;index" json:"status"`
	Attempts int    `gorm:"column:attempts;not null" json:"attempts"`
	Error    string `gorm:"column:error" json:"error,omitempty"`

	Payload datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	Result  datatypes.JSON `gorm:"column:result;type:jsonb" json:"result"`

	LockedAt  *time.Time `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (JobRun) TableName() string { return "job_run" }
