package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"document-portal-gateway/middleware"
	"document-portal-gateway/models"
	"document-portal-gateway/services"
)

type mapStore struct {
	sessions map[string]*models.Session
}

func (s *mapStore) Get(id string) (*models.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (s *mapStore) Put(session *models.Session) error {
	s.sessions[session.ID] = session
	return nil
}

func (s *mapStore) Delete(id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *mapStore) DeleteByToken(token string) error {
	for id, session := range s.sessions {
		if session.AccessToken == token {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *mapStore) DeleteExpired(time.Time) error { return nil }

const upstreamFiles = `[
	{"id": 1, "name": "rent.pdf", "heading": "January rent", "user_username": "shop_alpha", "user_role": "user", "uploaded_at": "2024-01-05T09:00:00Z", "status": "verified"},
	{"id": 2, "name": "cheque.jpg", "heading": "Supplier cheque", "user_username": "shop_beta", "user_role": "user", "uploaded_at": "2024-01-05T11:00:00Z"},
	{"id": 3, "name": "audit.pdf", "heading": "Internal audit", "user_username": "head_office", "user_role": "admin", "uploaded_at": "2024-01-05T08:00:00Z"}
]`

// newGatewayRouter wires a router against a scripted upstream and a single
// logged-in admin session with bearer id "sess-admin".
func newGatewayRouter(t *testing.T, upstream http.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	store := &mapStore{sessions: make(map[string]*models.Session)}
	store.Put(&models.Session{
		ID:          "sess-admin",
		AccessToken: "admin-tok",
		Username:    "head_office",
		Role:        models.RoleAdmin,
		ExpiresAt:   time.Now().Add(time.Hour),
	})

	portalClient := services.NewPortalClient(server.URL, nil)
	sessionGate := services.NewSessionGate(portalClient, store, time.Hour)
	Setup(portalClient, sessionGate, nil, time.UTC)

	router := gin.New()
	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware(sessionGate))
	protected.GET("/files/view", MyFilesView)
	protected.GET("/files/all/view", AllFilesView)
	protected.PATCH("/files/:id/status", UpdateStatus)
	return router
}

func getJSON(t *testing.T, router *gin.Engine, method, target, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer sess-admin")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("response is not JSON: %v (body %s)", err, w.Body.String())
	}
	return w.Code, decoded
}

func TestAllFilesViewExcludesAdminUploads(t *testing.T) {
	router := newGatewayRouter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/" {
			t.Errorf("upstream path = %q, want /files/", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(upstreamFiles))
	})

	code, body := getJSON(t, router, http.MethodGet, "/api/v1/files/all/view?date=2024-01-05", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, body %v", code, body)
	}

	files := body["files"].([]interface{})
	if len(files) != 2 {
		t.Fatalf("%d files in view, want 2 after dropping the admin upload", len(files))
	}
	for _, f := range files {
		if f.(map[string]interface{})["user_role"] == "admin" {
			t.Fatal("admin upload leaked into the all-files view")
		}
	}

	policy := body["policy"].(map[string]interface{})
	if policy["can_edit_status"] != true {
		t.Fatal("all-files view must allow status editing")
	}

	pagination := body["pagination"].(map[string]interface{})
	if pagination["total_count"].(float64) != 2 {
		t.Fatalf("total_count = %v, want 2", pagination["total_count"])
	}
}

func TestMyFilesViewHitsMyFilesEndpoint(t *testing.T) {
	router := newGatewayRouter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/my_files/" {
			t.Errorf("upstream path = %q, want /files/my_files/", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(upstreamFiles))
	})

	code, body := getJSON(t, router, http.MethodGet, "/api/v1/files/view", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, body %v", code, body)
	}

	// Own files are never date-filtered by default and the role exclusion
	// does not apply.
	files := body["files"].([]interface{})
	if len(files) != 3 {
		t.Fatalf("%d files in view, want all 3", len(files))
	}
	policy := body["policy"].(map[string]interface{})
	if policy["can_edit_status"] != false {
		t.Fatal("own-files view must not expose the status editor")
	}
}

func TestMyFilesViewStatusFilterCountsAbsentAsPending(t *testing.T) {
	router := newGatewayRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(upstreamFiles))
	})

	code, body := getJSON(t, router, http.MethodGet, "/api/v1/files/view?status=pending", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}

	files := body["files"].([]interface{})
	// Records 2 and 3 have no status field and count as pending.
	if len(files) != 2 {
		t.Fatalf("%d pending files, want 2", len(files))
	}
}

func TestAllFilesViewMalformedDateKeepsTodayDefault(t *testing.T) {
	router := newGatewayRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(upstreamFiles))
	})

	code, body := getJSON(t, router, http.MethodGet, "/api/v1/files/all/view?date=not-a-day", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}

	// Garbage must not widen the view to every day; the filter snaps back to
	// today, which none of the fixture records (all 2024-01-05) match.
	today := time.Now().In(time.UTC).Format("2006-01-02")
	filters := body["filters"].(map[string]interface{})
	if filters["date"] != today {
		t.Fatalf("filter date = %v, want today %s", filters["date"], today)
	}
	if files := body["files"].([]interface{}); len(files) != 0 {
		t.Fatalf("%d files in view, want 0 for today", len(files))
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	router := newGatewayRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid status must not reach the upstream")
	})

	code, body := getJSON(t, router, http.MethodPatch, "/api/v1/files/7/status", `{"status": "archived"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %v)", code, body)
	}
}

func TestUpdateStatusProxiesToUpstream(t *testing.T) {
	router := newGatewayRouter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/7/update_status/" {
			t.Errorf("upstream path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 7, "name": "cheque.jpg", "uploaded_at": "2024-01-05", "status": "verified"}`))
	})

	code, body := getJSON(t, router, http.MethodPatch, "/api/v1/files/7/status", `{"status": "verified"}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d, body %v", code, body)
	}
	file := body["file"].(map[string]interface{})
	if file["status"] != "verified" {
		t.Fatalf("file status = %v", file["status"])
	}
}

func TestViewSessionExpiredAnswer(t *testing.T) {
	router := newGatewayRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	code, body := getJSON(t, router, http.MethodGet, "/api/v1/files/view", "")
	if code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", code)
	}
	if body["error"] != "Session expired. Please log in again." {
		t.Fatalf("error = %v", body["error"])
	}
}
