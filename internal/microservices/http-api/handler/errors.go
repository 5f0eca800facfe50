package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"bookhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// requestTimeout bounds the work done for a single request.
const requestTimeout = 5 * time.Second

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		// also catches ErrUnknownBook
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTransient):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...}. Internal errors are logged and hidden.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "path", c.FullPath(), "status", status, "error", err)
		if status == http.StatusServiceUnavailable {
			c.Header("Retry-After", "1")
		}
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// currentUser returns the authenticated user id set by the auth middleware.
func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return "", false
	}
	return userID, true
}
