package services

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"document-portal-gateway/models"
)

// DefaultPageSize is the fixed page size of every listing screen.
const DefaultPageSize = 10

// Sort keys accepted by the listing screens.
const (
	SortDateDesc = "date-desc"
	SortDateAsc  = "date-asc"
	SortNameAsc  = "name-asc"
	SortNameDesc = "name-desc"
	SortUserAsc  = "user-asc"
	SortUserDesc = "user-desc"
)

// ValidSortKey reports whether key is one of the accepted sort keys.
func ValidSortKey(key string) bool {
	switch key {
	case SortDateDesc, SortDateAsc, SortNameAsc, SortNameDesc, SortUserAsc, SortUserDesc:
		return true
	}
	return false
}

// ViewParams are the filter/sort/page selections of one listing screen. They
// live for a single request; "clear filters" is just a request without them.
type ViewParams struct {
	Search   string // substring of name, heading or uploader, any match
	Uploader string // substring of uploader username only
	Date     string // exact calendar day, "2006-01-02"
	Status   string // effective status match; "" keeps everything
	Sort     string // one of the Sort* keys; defaults to SortDateDesc
	Page     int    // 1-indexed
	PageSize int    // defaults to DefaultPageSize
}

// ViewPolicy is the per-screen policy object. ExcludeRole hides uploads by
// that role (the users'-files screen drops admin uploads); CanEditStatus is
// echoed to the client so only admin screens render the status editor.
type ViewPolicy struct {
	ExcludeRole   string
	CanEditStatus bool
}

// FileViewResult is one page of a filtered, sorted collection plus the
// pagination metadata the screens need.
type FileViewResult struct {
	Page       []models.FileRecord
	TotalCount int
	TotalPages int
}

// ApplyFileView runs the shared filter/sort/paginate pipeline. It is a pure
// function of its inputs; all three listing screens and the report CLI go
// through here rather than keeping their own copies of the logic. loc is the
// display time zone used for calendar-day comparisons.
func ApplyFileView(records []models.FileRecord, params ViewParams, policy ViewPolicy, loc *time.Location) FileViewResult {
	filtered := make([]models.FileRecord, 0, len(records))
	for _, rec := range records {
		if policy.ExcludeRole != "" && rec.UploaderRole == policy.ExcludeRole {
			continue
		}
		if !matchesSearch(&rec, params.Search) {
			continue
		}
		if !matchesUploader(&rec, params.Uploader) {
			continue
		}
		if !matchesDate(&rec, params.Date, loc) {
			continue
		}
		if !matchesStatus(&rec, params.Status) {
			continue
		}
		filtered = append(filtered, rec)
	}

	sortRecords(filtered, params.Sort, loc)

	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := params.Page
	if page < 1 {
		page = 1
	}

	totalCount := len(filtered)
	totalPages := (totalCount + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start >= totalCount {
		// A page past the end is an empty page, not an error; callers clamp
		// back to page 1 when filters change.
		return FileViewResult{Page: []models.FileRecord{}, TotalCount: totalCount, TotalPages: totalPages}
	}
	end := start + pageSize
	if end > totalCount {
		end = totalCount
	}

	return FileViewResult{Page: filtered[start:end], TotalCount: totalCount, TotalPages: totalPages}
}

func matchesSearch(rec *models.FileRecord, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return containsFold(rec.Name, q) || containsFold(rec.Heading, q) || containsFold(rec.UploaderName, q)
}

func matchesUploader(rec *models.FileRecord, filter string) bool {
	if filter == "" {
		return true
	}
	return containsFold(rec.UploaderName, strings.ToLower(filter))
}

// containsFold expects needle already lower-cased; empty haystacks never match.
func containsFold(haystack, needle string) bool {
	if haystack == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), needle)
}

func matchesDate(rec *models.FileRecord, day string, loc *time.Location) bool {
	if day == "" {
		return true
	}
	recDay, ok := rec.UploadDay(loc)
	if !ok {
		// Unparsable upload dates never match a date filter.
		return false
	}
	return recDay == day
}

func matchesStatus(rec *models.FileRecord, status string) bool {
	if status == "" {
		return true
	}
	return rec.EffectiveStatus() == status
}

// sortRecords sorts in place, stably. Records whose uploaded_at does not
// parse sort after every dated record under both date orders, keeping their
// relative input order.
func sortRecords(records []models.FileRecord, key string, loc *time.Location) {
	switch key {
	case SortDateAsc, SortDateDesc:
		type dated struct {
			rec    models.FileRecord
			t      time.Time
			parsed bool
		}
		keyed := make([]dated, len(records))
		for i := range records {
			keyed[i].rec = records[i]
			keyed[i].t, keyed[i].parsed = records[i].UploadTime(loc)
		}
		asc := key == SortDateAsc
		sort.SliceStable(keyed, func(i, j int) bool {
			if keyed[i].parsed != keyed[j].parsed {
				return keyed[i].parsed
			}
			if !keyed[i].parsed {
				return false
			}
			if asc {
				return keyed[i].t.Before(keyed[j].t)
			}
			return keyed[i].t.After(keyed[j].t)
		})
		for i := range keyed {
			records[i] = keyed[i].rec
		}
	case SortNameAsc, SortNameDesc:
		cl := collate.New(language.Und)
		asc := key == SortNameAsc
		sort.SliceStable(records, func(i, j int) bool {
			cmp := cl.CompareString(records[i].Name, records[j].Name)
			if asc {
				return cmp < 0
			}
			return cmp > 0
		})
	case SortUserAsc, SortUserDesc:
		cl := collate.New(language.Und)
		asc := key == SortUserAsc
		sort.SliceStable(records, func(i, j int) bool {
			cmp := cl.CompareString(records[i].UploaderName, records[j].UploaderName)
			if asc {
				return cmp < 0
			}
			return cmp > 0
		})
	default:
		// Unknown keys leave the upstream order untouched.
	}
}
