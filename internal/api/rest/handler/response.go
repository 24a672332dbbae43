package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/videotube-server/internal/apierrors"
	"github.com/dtroode/videotube-server/internal/logger"
	"github.com/dtroode/videotube-server/internal/model"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(c *gin.Context, code int, data any, message string) {
	c.JSON(code, Response{
		StatusCode: code,
		Data:       data,
		Message:    message,
		Success:    code < http.StatusBadRequest,
	})
}

// handleError writes err as an envelope. Errors without a client-facing
// status are reported as a generic internal error.
func handleError(c *gin.Context, log *logger.Logger, err error) {
	apiErr, ok := apierrors.As(err)
	switch {
	case ok:
	case errors.Is(err, model.ErrNotFound):
		apiErr = apierrors.New(http.StatusNotFound, "not found")
	default:
		apiErr = apierrors.NewErrInternalServerError(err)
	}

	if apiErr.HTTPCode >= http.StatusInternalServerError {
		log.Error("request failed",
			"path", c.FullPath(),
			"error", err.Error())
	}

	_ = c.Error(err)
	c.Abort()
	respond(c, apiErr.HTTPCode, nil, apiErr.Message)
}

// WriteError is handleError for middleware outside this package.
func WriteError(c *gin.Context, log *logger.Logger, err error) {
	handleError(c, log, err)
}
