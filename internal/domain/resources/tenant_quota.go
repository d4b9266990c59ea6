package resources

import (
	"time"

	"github.com/google/uuid"
)

// TenantQuota counts a tenant's non-deleted, not-yet-approved uploads.
// Approval releases the consumed slot permanently; approved resources stop
// counting against the tenant once public.
type TenantQuota struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"tenant_id"`
	Used      int       `gorm:"column:used;not null" json:"used"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (TenantQuota) TableName() string { return "tenant_quota" }
