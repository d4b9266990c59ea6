package domain

import (
	"github.com/studyarc/resourcebank-backend/internal/domain/jobs"
	"github.com/studyarc/resourcebank-backend/internal/domain/resources"
)

// Root aliases so callers can import a single `types` package.

type (
	Resource             = resources.Resource
	GeneratedExplanation = resources.GeneratedExplanation
	TopicResourceLink    = resources.TopicResourceLink
	TenantQuota          = resources.TenantQuota
	SyncRun              = resources.SyncRun
	JobRun               = jobs.JobRun

	ResourceType     = resources.ResourceType
	Visibility       = resources.Visibility
	RemoteSyncStatus = resources.RemoteSyncStatus
	SyncStatus       = resources.SyncStatus
	LinkOrigin       = resources.LinkOrigin
)

const (
	TypeSyllabus             = resources.TypeSyllabus
	TypePastPaper            = resources.TypePastPaper
	TypeMarkScheme           = resources.TypeMarkScheme
	TypeTextbookExcerpt      = resources.TypeTextbookExcerpt
	TypeUserUpload           = resources.TypeUserUpload
	TypeVideo                = resources.TypeVideo
	TypeGeneratedExplanation = resources.TypeGeneratedExplanation

	VisibilityPublic        = resources.VisibilityPublic
	VisibilityPrivate       = resources.VisibilityPrivate
	VisibilityPendingReview = resources.VisibilityPendingReview

	RemoteSyncNotQueued = resources.RemoteSyncNotQueued
	RemoteSyncPending   = resources.RemoteSyncPending
	RemoteSyncSucceeded = resources.RemoteSyncSucceeded
	RemoteSyncFailed    = resources.RemoteSyncFailed

	SyncStatusIdle      = resources.SyncStatusIdle
	SyncStatusRunning   = resources.SyncStatusRunning
	SyncStatusSucceeded = resources.SyncStatusSucceeded
	SyncStatusFailed    = resources.SyncStatusFailed

	LinkOriginAuto       = resources.LinkOriginAuto
	LinkOriginModeration = resources.LinkOriginModeration

	CanonicalVersion = resources.CanonicalVersion

	JobTypeRemoteBackup   = jobs.JobTypeRemoteBackup
	JobTypeTextExtraction = jobs.JobTypeTextExtraction
	JobStatusQueued       = jobs.JobStatusQueued
	JobStatusRunning      = jobs.JobStatusRunning
	JobStatusSucceeded    = jobs.JobStatusSucceeded
	JobStatusFailed       = jobs.JobStatusFailed
)

var (
	ErrDuplicateResource = resources.ErrDuplicateResource
	ErrQuotaExceeded     = resources.ErrQuotaExceeded
	ErrUnsafeContent     = resources.ErrUnsafeContent
	ErrNotFound          = resources.ErrNotFound
	ErrNotPending        = resources.ErrNotPending
	ErrSyncRunning       = resources.ErrSyncRunning
	ErrInvalidMetadata   = resources.ErrInvalidMetadata
)

// TypePriority re-export for relevance ordering.
func TypePriority(t ResourceType) int { return resources.TypePriority(t) }
