package services

import (
	"context"
	"errors"
	"io"
	"log"
	"strconv"

	"github.com/google/uuid"

	"document-portal-gateway/models"
)

// BatchFile is one file of a batch; the metadata is batch-wide.
type BatchFile struct {
	Filename string
	Content  io.Reader
}

// UploadResult is the outcome of one file in a batch.
type UploadResult struct {
	Filename string             `json:"filename"`
	File     *models.FileRecord `json:"file,omitempty"`
	Error    string             `json:"error,omitempty"`
	Skipped  bool               `json:"skipped,omitempty"`
}

// BatchResult reports a whole batch, so callers can say "3 of 5 succeeded"
// instead of collapsing the batch into a single pass/fail.
type BatchResult struct {
	BatchID   string         `json:"batch_id"`
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Aborted   bool           `json:"aborted"`
	Results   []UploadResult `json:"results"`
}

// ValidateUploadMetadata runs the local preconditions checked before any
// network call. A cheque without a positive decimal amount never leaves the
// gateway.
func ValidateUploadMetadata(meta UploadMetadata) error {
	if meta.DocumentType != "" && !models.ValidDocumentType(meta.DocumentType) {
		return &PreconditionError{Field: "document_type", Message: "Unknown document type"}
	}
	if meta.DocumentType == models.DocTypeCheque {
		if meta.Amount == "" {
			return &PreconditionError{Field: "amount", Message: "Amount is required for cheque documents"}
		}
		amount, err := strconv.ParseFloat(meta.Amount, 64)
		if err != nil || amount < 0 {
			return &PreconditionError{Field: "amount", Message: "Amount must be a non-negative number"}
		}
	}
	if meta.DocumentType != models.DocTypeCheque && meta.Amount != "" {
		// The upload form clears the amount when the type changes away from
		// cheque; the gateway enforces the same rule.
		return &PreconditionError{Field: "amount", Message: "Amount is only accepted for cheque documents"}
	}
	return nil
}

// RunUploadBatch sends the batch sequentially, in order, one request at a
// time. The first failure aborts the remaining files without rolling back
// already-succeeded uploads, and the per-item results record exactly what
// happened to each file. Cancellation mid-batch is not supported; an issued
// request always runs to completion or error.
func RunUploadBatch(ctx context.Context, client *PortalClient, token string, meta UploadMetadata, files []BatchFile) (*BatchResult, error) {
	if err := ValidateUploadMetadata(meta); err != nil {
		return nil, err
	}

	batch := &BatchResult{
		BatchID: uuid.NewString(),
		Total:   len(files),
		Results: make([]UploadResult, 0, len(files)),
	}

	for i, f := range files {
		if batch.Aborted {
			batch.Results = append(batch.Results, UploadResult{Filename: f.Filename, Skipped: true})
			continue
		}

		record, err := client.UploadFile(ctx, token, f.Filename, f.Content, meta)
		if err != nil {
			log.Printf("Upload batch %s: file %d/%d (%s) failed: %v", batch.BatchID, i+1, batch.Total, f.Filename, err)
			batch.Aborted = true
			batch.Results = append(batch.Results, UploadResult{Filename: f.Filename, Error: uploadErrorMessage(err)})
			// A 401 still needs to bubble so the caller drops the session.
			if errors.Is(err, ErrUnauthorized) {
				return batch, err
			}
			continue
		}
		batch.Succeeded++
		batch.Results = append(batch.Results, UploadResult{Filename: f.Filename, File: record})
	}

	return batch, nil
}

func uploadErrorMessage(err error) string {
	switch {
	case IsUnreachable(err):
		return "Cannot connect to server. Please make sure the portal API is reachable."
	case IsValidationError(err), IsServerError(err):
		return err.Error()
	default:
		return "Upload failed"
	}
}
