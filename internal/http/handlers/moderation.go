package handlers

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyarc/resourcebank-backend/internal/http/response"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
	"github.com/studyarc/resourcebank-backend/internal/services"
)

type ModerationHandler struct {
	log        *logger.Logger
	moderation services.ModerationService
}

func NewModerationHandler(log *logger.Logger, moderation services.ModerationService) *ModerationHandler {
	return &ModerationHandler{
		log:        log.With("handler", "ModerationHandler"),
		moderation: moderation,
	}
}

// GET /api/admin/pending
func (h *ModerationHandler) ListPending(c *gin.Context) {
	results, err := h.moderation.ListPending(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"resources": results})
}

// POST /api/admin/resources/:id/approve
func (h *ModerationHandler) Approve(c *gin.Context) {
	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_resource_id", err)
		return
	}
	var body struct {
		MetadataEdits map[string]any `json:"metadata_edits"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}
	resource, err := h.moderation.Approve(c.Request.Context(), resourceID, body.MetadataEdits)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"resource": resource})
}

// POST /api/admin/resources/:id/reject
func (h *ModerationHandler) Reject(c *gin.Context) {
	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_resource_id", err)
		return
	}
	if err := h.moderation.Reject(c.Request.Context(), resourceID); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/admin/resources/:id/preview
func (h *ModerationHandler) Preview(c *gin.Context) {
	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_resource_id", err)
		return
	}
	maxPages := 3
	if v := c.Query("pages"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxPages = n
		}
	}
	pages, err := h.moderation.Preview(c.Request.Context(), resourceID, maxPages)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	encoded := make([]string, len(pages))
	for i, p := range pages {
		encoded[i] = base64.StdEncoding.EncodeToString(p)
	}
	response.RespondOK(c, gin.H{"pages": encoded})
}
