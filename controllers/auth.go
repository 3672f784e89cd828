package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"document-portal-gateway/middleware"
	"document-portal-gateway/utils"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates against the upstream portal and opens a gateway
// session. The response carries the session id as the bearer token for all
// further calls; the upstream access token stays server-side.
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter both username and password"})
		return
	}

	session, user, err := gate.Login(c.Request.Context(), utils.SanitizeInput(req.Username), req.Password)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   session.ID,
		"user":    user,
		"message": "Login successful",
	})
}

// Logout destroys the current session.
func Logout(c *gin.Context) {
	session := middleware.SessionFrom(c)
	if session != nil {
		if err := gate.Logout(session.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end session"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me revalidates the session against the upstream current-user lookup.
// Clients call this once on boot to restore a persisted session; any failure
// leaves the caller anonymous with the stored session gone.
func Me(c *gin.Context) {
	session := middleware.SessionFrom(c)

	user, _, err := gate.Restore(c.Request.Context(), session.ID)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"loading": gate.Loading(),
	})
}
