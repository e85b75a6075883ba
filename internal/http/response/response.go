// Package response defines the JSON envelope every endpoint returns:
// {"success": bool, "data": ..., "error": "..."}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	errs "github.com/yungbote/fieldlog-backend/internal/pkg/errors"
)

type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

func Error(c *gin.Context, status int, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, Envelope{Success: false, Error: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Envelope{Success: false, Error: msg})
}

// FromError maps tagged error kinds onto HTTP statuses. Untagged errors are
// treated as internal.
func FromError(c *gin.Context, err error) {
	kind, ok := errs.KindOf(err)
	if !ok {
		Error(c, http.StatusInternalServerError, err)
		return
	}
	switch kind {
	case errs.KindValidation:
		Error(c, http.StatusBadRequest, err)
	case errs.KindMissingPrecondition:
		Error(c, http.StatusConflict, err)
	case errs.KindTransient:
		Error(c, http.StatusServiceUnavailable, err)
	default:
		Error(c, http.StatusInternalServerError, err)
	}
}
