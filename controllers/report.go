package controllers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"document-portal-gateway/middleware"
	"document-portal-gateway/models"
	"document-portal-gateway/services"
	"document-portal-gateway/utils"
)

// DailyReport serves the per-uploader aggregate for one calendar day,
// defaulting to today. Admin-authored uploads never appear in the report.
func DailyReport(c *gin.Context) {
	date := c.DefaultQuery("date", today())
	if !utils.ValidDay(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD"})
		return
	}

	query := url.Values{}
	query.Set("date", date)
	records, err := client.ListFiles(c.Request.Context(), middleware.TokenFrom(c), query)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	// The upstream date filter is authoritative for the fetch; role exclusion
	// is ours.
	regular := make([]models.FileRecord, 0, len(records))
	for _, rec := range records {
		if rec.UploaderRole == models.RoleAdmin {
			continue
		}
		regular = append(regular, rec)
	}

	report := services.BuildDailyReport(regular, display)

	c.JSON(http.StatusOK, gin.H{
		"date":            date,
		"uploaders":       report,
		"total_uploaders": len(report),
		"total_files":     len(regular),
	})
}
