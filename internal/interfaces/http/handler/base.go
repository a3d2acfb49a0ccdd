package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sellerproof/backend/internal/domain/mirror"
	"github.com/sellerproof/backend/internal/interfaces/http/dto"
)

// BaseHandler provides shared response helpers for HTTP handlers
type BaseHandler struct{}

// Success sends a 200 response with the standard envelope
func (h *BaseHandler) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with pagination metadata
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data interface{}, total int64, page, perPage int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, perPage))
}

// Error sends an error response; the status is derived from the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message))
}

// BadRequest sends a 400 error response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 error response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeUnauthorized, message)
}

// HandleError maps domain errors onto the response envelope
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mirror.ErrAccountNotFound), errors.Is(err, mirror.ErrListingNotFound):
		h.Error(c, dto.ErrCodeNotFound, err.Error())
	case errors.Is(err, mirror.ErrSyncInvalidRequest):
		h.Error(c, dto.ErrCodeValidation, err.Error())
	case errors.Is(err, mirror.ErrTokenRefreshFailed), errors.Is(err, mirror.ErrPlatformRequestFailed):
		h.Error(c, dto.ErrCodeUpstream, err.Error())
	default:
		h.Error(c, dto.ErrCodeInternal, "An internal error occurred")
	}
}

// requireUser resolves the acting user from the userId query parameter or
// the X-User-ID header. Responds 401 and returns false when absent or
// malformed.
func (h *BaseHandler) requireUser(c *gin.Context) (int64, bool) {
	raw := c.Query("userId")
	if raw == "" {
		raw = c.GetHeader("X-User-ID")
	}
	if raw == "" {
		h.Unauthorized(c, "User identity is required")
		return 0, false
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		h.Unauthorized(c, "User identity is invalid")
		return 0, false
	}
	return userID, true
}
