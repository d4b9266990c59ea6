package resources

import "errors"

var (
	// ErrDuplicateResource: same owner already stored byte-identical content.
	ErrDuplicateResource = errors.New("duplicate resource")
	// ErrQuotaExceeded: tenant is at the upload limit.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrUnsafeContent: virus scan flagged the bytes.
	ErrUnsafeContent = errors.New("unsafe content")
	// ErrNotFound covers missing or not-visible resources.
	ErrNotFound = errors.New("resource not found")
	// ErrNotPending: moderation action on a resource outside pending_review.
	ErrNotPending = errors.New("resource is not pending review")
	// ErrSyncRunning: a differential sync run already holds the lock.
	ErrSyncRunning = errors.New("sync already running")
	// ErrInvalidMetadata: metadata does not validate for the resource type.
	ErrInvalidMetadata = errors.New("invalid metadata for resource type")
)
