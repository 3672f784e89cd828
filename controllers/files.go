// controllers/files.go - File listing, upload and mutation handlers

package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"document-portal-gateway/middleware"
	"document-portal-gateway/models"
	"document-portal-gateway/services"
	"document-portal-gateway/utils"
)

// parseViewParams reads the shared filter/sort/page query parameters. Every
// listing screen goes through here so the parameter names stay uniform.
func parseViewParams(c *gin.Context, defaultDate string) services.ViewParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPageSize)))
	if limit < 1 || limit > 100 {
		limit = services.DefaultPageSize
	}

	sortBy := c.DefaultQuery("sort", services.SortDateDesc)
	if !services.ValidSortKey(sortBy) {
		sortBy = services.SortDateDesc
	}

	status := c.Query("status")
	if status != "" && !models.ValidStatus(status) {
		status = ""
	}

	// A malformed date falls back to the screen's default rather than
	// clearing the filter, so garbage input can never widen the admin view
	// past its today default.
	date := c.DefaultQuery("date", defaultDate)
	if date != "" && !utils.ValidDay(date) {
		date = defaultDate
	}

	return services.ViewParams{
		Search:   utils.SanitizeInput(c.Query("search")),
		Uploader: utils.SanitizeInput(c.Query("uploader")),
		Date:     date,
		Status:   status,
		Sort:     sortBy,
		Page:     page,
		PageSize: limit,
	}
}

func respondView(c *gin.Context, result services.FileViewResult, params services.ViewParams, policy services.ViewPolicy) {
	c.JSON(http.StatusOK, gin.H{
		"files": result.Page,
		"pagination": gin.H{
			"current_page": params.Page,
			"per_page":     params.PageSize,
			"total_count":  result.TotalCount,
			"total_pages":  result.TotalPages,
			"has_next":     params.Page < result.TotalPages,
			"has_prev":     params.Page > 1 && result.TotalCount > 0,
		},
		"policy": gin.H{
			"can_edit_status": policy.CanEditStatus,
		},
		"filters": gin.H{
			"search":   params.Search,
			"uploader": params.Uploader,
			"date":     params.Date,
			"status":   params.Status,
			"sort":     params.Sort,
		},
	})
}

// MyFilesView serves the caller's own uploads, the "My Uploaded Files"
// screen for both roles. No uploader filter, no status editor.
func MyFilesView(c *gin.Context) {
	records, err := client.MyFiles(c.Request.Context(), middleware.TokenFrom(c))
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	params := parseViewParams(c, "")
	params.Uploader = "" // own files only; the uploader filter is meaningless here
	policy := services.ViewPolicy{}

	result := services.ApplyFileView(records, params, policy, display)
	respondView(c, result, params, policy)
}

// AllFilesView serves the admin "Users' Uploaded Files" screen: every
// regular-user upload, admin uploads excluded, status editable. The date
// filter defaults to today, matching the screen's initial state; an explicit
// empty date parameter lifts it.
func AllFilesView(c *gin.Context) {
	records, err := client.ListFiles(c.Request.Context(), middleware.TokenFrom(c), nil)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	params := parseViewParams(c, today())
	policy := services.ViewPolicy{
		ExcludeRole:   models.RoleAdmin,
		CanEditStatus: true,
	}

	result := services.ApplyFileView(records, params, policy, display)
	respondView(c, result, params, policy)
}

// Upload accepts a multipart batch: one metadata set plus any number of
// "file" parts, sent upstream sequentially in form order. The cheque-amount
// precondition is checked before the first byte leaves the gateway.
func Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}

	headers := form.File["file"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please select files to upload"})
		return
	}

	uploadedAt := c.PostForm("uploaded_at")
	if uploadedAt == "" {
		uploadedAt = today()
	}
	meta := services.UploadMetadata{
		Heading:      utils.SanitizeInput(c.PostForm("heading")),
		Description:  utils.SanitizeInput(c.PostForm("description")),
		UploadedAt:   uploadedAt,
		DocumentType: c.PostForm("document_type"),
		Amount:       c.PostForm("amount"),
	}

	files := make([]services.BatchFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		defer f.Close()
		files = append(files, services.BatchFile{Filename: h.Filename, Content: f})
	}

	batch, err := services.RunUploadBatch(c.Request.Context(), client, middleware.TokenFrom(c), meta, files)
	if err != nil && batch == nil {
		respondUpstreamError(c, err)
		return
	}
	if err != nil {
		// Unauthorized mid-batch: report the partial outcome with the 401.
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Session expired. Please log in again.",
			"batch": batch,
		})
		return
	}

	status := http.StatusCreated
	if batch.Aborted {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"message": uploadSummary(batch),
		"batch":   batch,
	})
}

func uploadSummary(batch *services.BatchResult) string {
	if batch.Succeeded == batch.Total {
		return "Files uploaded successfully!"
	}
	return strconv.Itoa(batch.Succeeded) + " of " + strconv.Itoa(batch.Total) + " files uploaded"
}

type FileUpdateRequest struct {
	Heading      string `json:"heading"`
	Description  string `json:"description"`
	UploadedAt   string `json:"uploaded_at"`
	DocumentType string `json:"document_type"`
	Amount       string `json:"amount"`
}

// UpdateFile edits a file's metadata through the upstream, with the same
// local preconditions as upload.
func UpdateFile(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file id"})
		return
	}

	var req FileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meta := services.UploadMetadata{
		DocumentType: req.DocumentType,
		Amount:       req.Amount,
	}
	if err := services.ValidateUploadMetadata(meta); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := services.FileUpdate{
		Heading:      utils.SanitizeInput(req.Heading),
		Description:  utils.SanitizeInput(req.Description),
		UploadedAt:   req.UploadedAt,
		DocumentType: req.DocumentType,
	}
	if req.DocumentType == models.DocTypeCheque {
		patch.Amount = req.Amount
	}

	file, err := client.UpdateFile(c.Request.Context(), middleware.TokenFrom(c), id, patch)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": file, "message": "File updated successfully"})
}

// DeleteFile removes a file through the upstream.
func DeleteFile(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file id"})
		return
	}

	if err := client.DeleteFile(c.Request.Context(), middleware.TokenFrom(c), id); err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus changes a file's verification status. Admin only, enforced by
// the route's role gate; the uploader gets a best-effort email afterwards.
func UpdateStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file id"})
		return
	}

	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}
	if !models.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be pending, verified or rejected"})
		return
	}

	token := middleware.TokenFrom(c)
	file, err := client.UpdateFileStatus(c.Request.Context(), token, id, req.Status)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	if notifier != nil {
		// The request context dies with this handler; the notification gets
		// its own.
		go notifier.NotifyStatusChange(context.Background(), token, file, req.Status)
	}

	log.Printf("File %d status changed to %s by %s", id, req.Status, middleware.IdentityFrom(c).Username)
	c.JSON(http.StatusOK, gin.H{"file": file, "message": "Status updated successfully"})
}

// Stats proxies the upstream aggregate counters untouched.
func Stats(c *gin.Context) {
	stats, err := client.FileStats(c.Request.Context(), middleware.TokenFrom(c))
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
