package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/http/response"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
	"github.com/studyarc/resourcebank-backend/internal/services"
)

type SyncHandler struct {
	log    *logger.Logger
	sync   services.SyncService
	backup services.BackupService
}

func NewSyncHandler(log *logger.Logger, sync services.SyncService, backup services.BackupService) *SyncHandler {
	return &SyncHandler{
		log:    log.With("handler", "SyncHandler"),
		sync:   sync,
		backup: backup,
	}
}

// POST /api/admin/sync/trigger
func (h *SyncHandler) Trigger(c *gin.Context) {
	run, err := h.sync.Trigger(c.Request.Context())
	if err != nil && errors.Is(err, types.ErrSyncRunning) {
		response.RespondDomainError(c, err)
		return
	}
	// A run that executed but hit entry failures still returns its counters.
	if run == nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sync_run": run})
}

// GET /api/admin/sync/status
func (h *SyncHandler) Status(c *gin.Context) {
	run, err := h.sync.Status(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sync_run": run})
}

// POST /api/admin/backups/retry
func (h *SyncHandler) RetryFailedBackups(c *gin.Context) {
	count, err := h.backup.BatchRetry(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"requeued": count})
}
