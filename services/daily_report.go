package services

import (
	"time"

	"document-portal-gateway/models"
)

// UnknownUploader buckets records whose uploader username is missing.
const UnknownUploader = "Unknown"

// StatusCounts is the per-status breakdown of one uploader's day.
type StatusCounts struct {
	Pending  int `json:"pending"`
	Verified int `json:"verified"`
	Rejected int `json:"rejected"`
}

// UploaderActivity summarizes one uploader's activity on the report day.
type UploaderActivity struct {
	Username     string              `json:"username"`
	Count        int                 `json:"count"`
	LatestUpload string              `json:"latest_upload,omitempty"`
	StatusCounts StatusCounts        `json:"status_counts"`
	Files        []models.FileRecord `json:"files"`
}

// BuildDailyReport groups records by uploader for the daily summary table.
// The caller hands in records already restricted to one calendar day and
// stripped of admin-authored uploads; the aggregator groups whatever it is
// given. Buckets appear in first-appearance order. Empty input yields an
// empty report, rendered as "no uploads this day". loc is the display zone
// used to read zone-less timestamps when picking the latest upload.
func BuildDailyReport(records []models.FileRecord, loc *time.Location) []UploaderActivity {
	report := []UploaderActivity{}
	index := make(map[string]int)

	for _, rec := range records {
		username := rec.UploaderName
		if username == "" {
			username = UnknownUploader
		}

		i, seen := index[username]
		if !seen {
			i = len(report)
			index[username] = i
			report = append(report, UploaderActivity{Username: username})
		}

		entry := &report[i]
		entry.Count++
		entry.Files = append(entry.Files, rec)

		switch rec.EffectiveStatus() {
		case models.StatusVerified:
			entry.StatusCounts.Verified++
		case models.StatusRejected:
			entry.StatusCounts.Rejected++
		default:
			entry.StatusCounts.Pending++
		}

		if t, ok := rec.UploadTime(loc); ok {
			latest, hadLatest := entryLatest(entry, loc)
			if !hadLatest || t.After(latest) {
				entry.LatestUpload = rec.UploadedAt
			}
		}
	}

	return report
}

// entryLatest re-parses the stored latest_upload value. Keeping the raw
// upstream string in the entry means the JSON answer round-trips the
// timestamp untouched.
func entryLatest(entry *UploaderActivity, loc *time.Location) (time.Time, bool) {
	rec := models.FileRecord{UploadedAt: entry.LatestUpload}
	return rec.UploadTime(loc)
}
