package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondDomainError maps the shared sentinel errors onto HTTP statuses so
// handlers stay thin.
func RespondDomainError(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		RespondError(c, ae.Status, ae.Code, ae)
		return
	}
	switch {
	case errors.Is(err, types.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, types.ErrDuplicateResource):
		RespondError(c, http.StatusConflict, "duplicate_resource", err)
	case errors.Is(err, types.ErrQuotaExceeded):
		RespondError(c, http.StatusForbidden, "quota_exceeded", err)
	case errors.Is(err, types.ErrUnsafeContent):
		RespondError(c, http.StatusUnprocessableEntity, "unsafe_content", err)
	case errors.Is(err, types.ErrNotPending):
		RespondError(c, http.StatusConflict, "not_pending", err)
	case errors.Is(err, types.ErrSyncRunning):
		RespondError(c, http.StatusConflict, "sync_already_running", err)
	case errors.Is(err, types.ErrInvalidMetadata):
		RespondError(c, http.StatusBadRequest, "invalid_metadata", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
