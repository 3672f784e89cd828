package models

import (
	"fmt"
	"strings"
	"time"
)

// Role of a portal account. The upstream only knows these two.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Verification status of an uploaded file. An absent status is treated as
// StatusPending everywhere; it is never a distinct fourth state.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusRejected = "rejected"
)

// Document types accepted by the upload form.
const (
	DocTypeExpenseBill   = "expense_bill"
	DocTypeCheque        = "cheque"
	DocTypePurchaseBill  = "purchase_bill"
	DocTypeLegalDocument = "legal_document"
	DocTypeOtherBill     = "other_bill"
)

// DocumentTypes lists the accepted document_type values in form order.
var DocumentTypes = []string{
	DocTypeExpenseBill,
	DocTypeCheque,
	DocTypePurchaseBill,
	DocTypeLegalDocument,
	DocTypeOtherBill,
}

// ValidStatus reports whether s is one of the three known statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusVerified || s == StatusRejected
}

// ValidDocumentType reports whether t is an accepted document type.
func ValidDocumentType(t string) bool {
	for _, known := range DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// FileRecord is one uploaded document as served by the upstream portal API.
// Field names follow the upstream wire format exactly.
type FileRecord struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Heading         string `json:"heading,omitempty"`
	Description     string `json:"description,omitempty"`
	DocumentType    string `json:"document_type,omitempty"`
	Amount          string `json:"amount,omitempty"`
	UploadedAt      string `json:"uploaded_at"`
	UploaderName    string `json:"user_username,omitempty"`
	UploaderRole    string `json:"user_role,omitempty"`
	Status          string `json:"status,omitempty"`
	FileURL         string `json:"file_url,omitempty"`
	FileType        string `json:"file_type,omitempty"`
	FileSize        int64  `json:"file_size,omitempty"`
	FileSizeDisplay string `json:"file_size_display,omitempty"`
}

// EffectiveStatus returns the record's status, defaulting to pending.
func (f *FileRecord) EffectiveStatus() string {
	if f.Status == "" {
		return StatusPending
	}
	return f.Status
}

// DisplayName returns the heading, falling back to the original filename.
func (f *FileRecord) DisplayName() string {
	if f.Heading != "" {
		return f.Heading
	}
	return f.Name
}

// uploadedAtLayouts are tried in order when parsing uploaded_at. The upstream
// usually sends RFC 3339, but date-only values appear on records whose upload
// date was edited by hand.
var uploadedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UploadTime parses uploaded_at. Zone-less values are read as wall-clock
// times in loc; values carrying an offset keep it. ok is false when the value
// is missing or unparsable; such records are excluded from date-filtered
// views and sort after all dated records under date sorts.
func (f *FileRecord) UploadTime(loc *time.Location) (t time.Time, ok bool) {
	raw := strings.TrimSpace(f.UploadedAt)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range uploadedAtLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// UploadDay returns the record's calendar day ("2006-01-02") in loc, which
// must be the same zone used for display. A zone-less timestamp already is a
// loc wall-clock time, so its day never shifts. ok is false for unparsable
// dates.
func (f *FileRecord) UploadDay(loc *time.Location) (string, bool) {
	t, ok := f.UploadTime(loc)
	if !ok {
		return "", false
	}
	return t.In(loc).Format("2006-01-02"), true
}

// SizeDisplay returns the upstream's pre-formatted size when present,
// otherwise a local B/KB/MB rendering.
func (f *FileRecord) SizeDisplay() string {
	if f.FileSizeDisplay != "" {
		return f.FileSizeDisplay
	}
	return FormatFileSize(f.FileSize)
}

// FormatFileSize renders a byte count the way the portal UI does.
func FormatFileSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.2f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.2f MB", float64(bytes)/(1024*1024))
	}
}
