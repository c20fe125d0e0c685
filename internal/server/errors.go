package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/silenos/silenos-server-go/internal/session"
	"go.uber.org/zap"
)

// statusFor maps session errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNotSeated):
		return http.StatusForbidden
	case errors.Is(err, session.ErrGameNotWaiting),
		errors.Is(err, session.ErrGameNotActive),
		errors.Is(err, session.ErrOwnGame),
		errors.Is(err, session.ErrConcurrentWrite):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoDeck),
		errors.Is(err, session.ErrInvalidDeck):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrNoCatalog):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Internal errors are logged and hidden
// from the caller.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("internal error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
