package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyarc/resourcebank-backend/internal/data/repos"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/http/response"
	"github.com/studyarc/resourcebank-backend/internal/platform/ctxutil"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
	"github.com/studyarc/resourcebank-backend/internal/services"
)

const maxUploadBytes = 64 << 20

type ResourceHandler struct {
	log *logger.Logger

	ingestion services.IngestionService
	cache     services.CacheService
	jobs      services.JobService
	resources repos.ResourceRepo
}

func NewResourceHandler(
	log *logger.Logger,
	ingestion services.IngestionService,
	cache services.CacheService,
	jobs services.JobService,
	resources repos.ResourceRepo,
) *ResourceHandler {
	return &ResourceHandler{
		log:       log.With("handler", "ResourceHandler"),
		ingestion: ingestion,
		cache:     cache,
		jobs:      jobs,
		resources: resources,
	}
}

// POST /api/resources/upload
func (h *ResourceHandler) Upload(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}

	resourceType := types.ResourceType(strings.TrimSpace(c.PostForm("resource_type")))
	if resourceType == "" {
		resourceType = types.TypeUserUpload
	}

	metadata := map[string]any{}
	if raw := c.PostForm("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_metadata_json", err)
			return
		}
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "read_file_failed", err)
		return
	}
	if _, ok := metadata["mime_type"]; !ok && header.Header.Get("Content-Type") != "" {
		metadata["mime_type"] = header.Header.Get("Content-Type")
	}

	tenantID := rd.TenantID
	resource, err := h.ingestion.Submit(c.Request.Context(), services.SubmitInput{
		Data:         data,
		ResourceType: resourceType,
		OwnerID:      &tenantID,
		Metadata:     metadata,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"resource": resource})
}

// GET /api/resources/:id
func (h *ResourceHandler) GetMetadata(c *gin.Context) {
	resource, ok := h.loadVisible(c)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{"resource": resource})
}

// GET /api/resources/:id/content
func (h *ResourceHandler) GetContent(c *gin.Context) {
	resource, ok := h.loadVisible(c)
	if !ok {
		return
	}
	data, err := h.cache.Read(c.Request.Context(), resource.ID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	contentType := "application/octet-stream"
	if mt := mimeFromMetadata(resource.Metadata); mt != "" {
		contentType = mt
	}
	c.Data(http.StatusOK, contentType, data)
}

// GET /api/resources
func (h *ResourceHandler) List(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	results, err := h.resources.ListVisibleToTenant(dbctx.New(c.Request.Context()), rd.TenantID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"resources": results})
}

// GET /api/resources/:id/jobs
func (h *ResourceHandler) ListJobs(c *gin.Context) {
	resource, ok := h.loadVisible(c)
	if !ok {
		return
	}
	jobs, err := h.jobs.ListByResource(dbctx.New(c.Request.Context()), resource.ID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"jobs": jobs})
}

// DELETE /api/resources/:id
func (h *ResourceHandler) Delete(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_resource_id", err)
		return
	}
	if err := h.ingestion.DeleteOwnUpload(c.Request.Context(), rd.TenantID, resourceID); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// loadVisible resolves :id and enforces tenant visibility. A resource another
// tenant owns looks exactly like one that does not exist.
func (h *ResourceHandler) loadVisible(c *gin.Context) (*types.Resource, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return nil, false
	}
	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_resource_id", err)
		return nil, false
	}
	resource, err := h.resources.GetByID(dbctx.New(c.Request.Context()), resourceID)
	if err != nil {
		response.RespondDomainError(c, err)
		return nil, false
	}
	if resource == nil || !visibleTo(resource, rd) {
		response.RespondError(c, http.StatusNotFound, "not_found", types.ErrNotFound)
		return nil, false
	}
	return resource, true
}

func visibleTo(r *types.Resource, rd *ctxutil.RequestData) bool {
	if r.Visibility == types.VisibilityPublic {
		return true
	}
	if rd.IsAdmin {
		return true
	}
	return r.OwnerID != nil && *r.OwnerID == rd.TenantID
}

func mimeFromMetadata(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	s, _ := m["mime_type"].(string)
	return s
}
