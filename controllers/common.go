package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"document-portal-gateway/services"
)

// Package-level collaborators, set once at startup. Mirrors the config.DB
// pattern: handlers stay free functions.
var (
	client   *services.PortalClient
	gate     *services.SessionGate
	notifier *services.StatusNotifier
	display  *time.Location
)

// Setup wires the controllers to their collaborators. Must run before the
// router starts serving.
func Setup(c *services.PortalClient, g *services.SessionGate, n *services.StatusNotifier, loc *time.Location) {
	client = c
	gate = g
	notifier = n
	display = loc
	if display == nil {
		display = time.Local
	}
}

// respondUpstreamError maps the service error taxonomy onto HTTP answers.
// Unauthorized means the session is already gone (the 401 hook ran); the
// client reacts by returning to the login view.
func respondUpstreamError(c *gin.Context, err error) {
	var apiErr *services.APIError

	switch {
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired. Please log in again."})
	case services.IsPrecondition(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case services.IsUnreachable(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Cannot connect to the document portal. Please try again later."})
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		c.JSON(apiErr.StatusCode, gin.H{"error": apiErr.Message})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// today returns the current calendar day in the display time zone.
func today() string {
	return time.Now().In(display).Format("2006-01-02")
}
