package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/http/response"
	"github.com/studyarc/resourcebank-backend/internal/platform/ctxutil"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
	"github.com/studyarc/resourcebank-backend/internal/services"
)

type TopicHandler struct {
	log          *logger.Logger
	relevance    services.RelevanceService
	explanations services.ExplanationService
	cache        services.CacheService
}

func NewTopicHandler(
	log *logger.Logger,
	relevance services.RelevanceService,
	explanations services.ExplanationService,
	cache services.CacheService,
) *TopicHandler {
	return &TopicHandler{
		log:          log.With("handler", "TopicHandler"),
		relevance:    relevance,
		explanations: explanations,
		cache:        cache,
	}
}

// GET /api/topics/:id/resources
func (h *TopicHandler) SelectResources(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_topic_id", err)
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	results, err := h.relevance.SelectForTopic(c.Request.Context(), rd.TenantID, topicID, limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"resources": results})
}

// POST /api/topics/:id/links
func (h *TopicHandler) LinkResource(c *gin.Context) {
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_topic_id", err)
		return
	}
	var body struct {
		ResourceID uuid.UUID `json:"resource_id" binding:"required"`
		Score      float64   `json:"score"`
		Origin     string    `json:"origin"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	origin := types.LinkOrigin(body.Origin)
	if origin != types.LinkOriginModeration {
		origin = types.LinkOriginAuto
	}
	if err := h.relevance.LinkResource(c.Request.Context(), topicID, body.ResourceID, body.Score, origin); err != nil {
		response.RespondError(c, http.StatusBadRequest, "link_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/topics/:id/contributions
func (h *TopicHandler) RecordContribution(c *gin.Context) {
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_topic_id", err)
		return
	}
	var body struct {
		ResourceID uuid.UUID `json:"resource_id" binding:"required"`
		Weight     float64   `json:"weight"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.relevance.RecordContribution(c.Request.Context(), topicID, body.ResourceID, body.Weight); err != nil {
		response.RespondError(c, http.StatusBadRequest, "contribution_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /api/topics/:id/explanations
func (h *TopicHandler) UpsertExplanation(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_topic_id", err)
		return
	}
	var body struct {
		Version int    `json:"version"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	var e *types.GeneratedExplanation
	if body.Version <= types.CanonicalVersion {
		if !rd.IsAdmin {
			response.RespondError(c, http.StatusForbidden, "forbidden", nil)
			return
		}
		e, err = h.explanations.UpsertCanonical(c.Request.Context(), topicID, body.Content)
	} else {
		e, err = h.explanations.UpsertPersonalized(c.Request.Context(), topicID, rd.TenantID, body.Version, body.Content)
	}
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"explanation": e})
}

// GET /api/topics/:id/explanations/:version
func (h *TopicHandler) GetExplanation(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_topic_id", err)
		return
	}
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < types.CanonicalVersion {
		response.RespondError(c, http.StatusBadRequest, "invalid_version", err)
		return
	}
	data, err := h.cache.ReadExplanation(c.Request.Context(), topicID, version, rd.TenantID, rd.IsAdmin)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", data)
}
