package handler

import (
	"hwops-backend/internal/apperr"
	"hwops-backend/internal/logging"
	"hwops-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondErr writes the taxonomy-mapped error response. Internal errors keep
// their cause out of the payload and go to the log instead.
func respondErr(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if apperr.KindOf(err) == apperr.KindInternal {
		logging.WithModule("http").WithError(err).Error("request failed")
		msg = "internal error"
	}
	c.JSON(status, response.Error(status, msg))
}

// actorID returns the authenticated user id set by the auth middleware.
func actorID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// actorRole returns the authenticated user role set by the auth middleware.
func actorRole(c *gin.Context) string {
	if v, ok := c.Get("userRole"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
