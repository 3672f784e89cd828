package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"document-portal-gateway/config"
	"document-portal-gateway/middleware"
	"document-portal-gateway/models"
)

// Persisted UI preferences keep small bits of screen state (the last open
// admin tab, the remembered sort order) across browsers. Only the keys
// documented on models.PreferenceKeys are accepted.

// GetPreference returns one preference for the current account; an unset
// preference reads as an empty value, not an error.
func GetPreference(c *gin.Context) {
	key := c.Param("key")
	if !models.PreferenceKeys[key] {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown preference key"})
		return
	}

	username := middleware.IdentityFrom(c).Username

	var pref models.Preference
	err := config.DB.Where("username = ? AND pref_key = ?", username, key).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"key": key, "value": ""})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load preference"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": pref.Value})
}

type PreferenceRequest struct {
	Value string `json:"value"`
}

// PutPreference stores one preference for the current account.
func PutPreference(c *gin.Context) {
	key := c.Param("key")
	if !models.PreferenceKeys[key] {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown preference key"})
		return
	}

	var req PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Value is required"})
		return
	}

	pref := models.Preference{
		Username:  middleware.IdentityFrom(c).Username,
		Key:       key,
		Value:     req.Value,
		UpdatedAt: time.Now(),
	}
	if err := config.DB.Save(&pref).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save preference"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}
