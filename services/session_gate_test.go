package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"document-portal-gateway/models"
)

// memorySessionStore keeps sessions in a map so the gate can be tested
// without the sqlite file.
type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[string]models.Session)}
}

func (s *memorySessionStore) Get(id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (s *memorySessionStore) Put(session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *memorySessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *memorySessionStore) DeleteByToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if session.AccessToken == token {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *memorySessionStore) DeleteExpired(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *memorySessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func newTestGate(t *testing.T, handler http.HandlerFunc) (*SessionGate, *memorySessionStore) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	store := newMemorySessionStore()
	gate := NewSessionGate(NewPortalClient(server.URL, nil), store, time.Hour)
	return gate, store
}

func loginHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login/":
			w.Write([]byte(`{"tokens": {"access": "upstream-token"}, "user": {"username": "shop_alpha", "role": "user"}}`))
		case "/auth/me/":
			w.Write([]byte(`{"username": "shop_alpha", "role": "user"}`))
		default:
			t.Errorf("unexpected upstream call: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestSessionGateLoginOpensSession(t *testing.T) {
	gate, store := newTestGate(t, loginHandler(t))

	session, user, err := gate.Login(context.Background(), "shop_alpha", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.ID == "" {
		t.Fatal("session has no id")
	}
	if session.ID == session.AccessToken {
		t.Fatal("session id must not be the upstream token")
	}
	if user.Username != "shop_alpha" {
		t.Fatalf("user = %q", user.Username)
	}
	if store.count() != 1 {
		t.Fatalf("store holds %d sessions, want 1", store.count())
	}

	resolved, err := gate.Resolve(session.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.AccessToken != "upstream-token" {
		t.Fatalf("resolved token = %q", resolved.AccessToken)
	}
}

func TestSessionGateResolveUnknownSession(t *testing.T) {
	gate, _ := newTestGate(t, loginHandler(t))

	if _, err := gate.Resolve("no-such-session"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
	if _, err := gate.Resolve(""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("empty id error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionGateResolveDropsExpiredSession(t *testing.T) {
	gate, store := newTestGate(t, loginHandler(t))

	store.Put(&models.Session{
		ID:          "expired",
		AccessToken: "tok",
		ExpiresAt:   time.Now().Add(-time.Minute),
	})

	if _, err := gate.Resolve("expired"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
	if store.count() != 0 {
		t.Fatal("expired session left in the store")
	}
}

func TestSessionGateRestoreClearsLoadingOnFailure(t *testing.T) {
	gate, _ := newTestGate(t, loginHandler(t))

	if !gate.Loading() {
		t.Fatal("gate should start in the loading state")
	}

	_, _, err := gate.Restore(context.Background(), "no-such-session")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
	if gate.Loading() {
		t.Fatal("loading flag still set after a failed restore")
	}
}

func TestSessionGateRestoreRevalidatesAgainstUpstream(t *testing.T) {
	gate, _ := newTestGate(t, loginHandler(t))

	session, _, err := gate.Login(context.Background(), "shop_alpha", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	user, restored, err := gate.Restore(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if user.Username != "shop_alpha" {
		t.Fatalf("user = %q", user.Username)
	}
	if restored.ID != session.ID {
		t.Fatalf("restored session id = %q, want %q", restored.ID, session.ID)
	}
	if gate.Loading() {
		t.Fatal("loading flag still set after a successful restore")
	}
}

func TestSessionGateUpstream401KillsSession(t *testing.T) {
	loggedIn := true
	gate, store := newTestGate(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login/":
			w.Write([]byte(`{"tokens": {"access": "upstream-token"}, "user": {"username": "shop_alpha", "role": "user"}}`))
		case "/auth/me/":
			if !loggedIn {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"username": "shop_alpha", "role": "user"}`))
		}
	})

	session, _, err := gate.Login(context.Background(), "shop_alpha", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// The upstream revokes the token; the next restore must both fail and
	// remove the stored session.
	loggedIn = false
	if _, _, err := gate.Restore(context.Background(), session.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if store.count() != 0 {
		t.Fatal("session survived an upstream 401")
	}
	if _, err := gate.Resolve(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound after invalidation", err)
	}
}

func TestSessionGateLogout(t *testing.T) {
	gate, store := newTestGate(t, loginHandler(t))

	session, _, err := gate.Login(context.Background(), "shop_alpha", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := gate.Logout(session.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if store.count() != 0 {
		t.Fatal("session survived logout")
	}
}

func TestSessionGateAuthorize(t *testing.T) {
	gate, _ := newTestGate(t, loginHandler(t))

	admin := &models.Identity{Username: "boss", Role: models.RoleAdmin}
	user := &models.Identity{Username: "shop_alpha", Role: models.RoleUser}

	tests := []struct {
		name     string
		identity *models.Identity
		role     string
		want     bool
	}{
		{"anonymous denied", nil, "", false},
		{"anonymous denied for role", nil, models.RoleAdmin, false},
		{"any identity when no role required", user, "", true},
		{"admin for admin route", admin, models.RoleAdmin, true},
		{"user for admin route", user, models.RoleAdmin, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate.Authorize(tt.identity, tt.role); got != tt.want {
				t.Fatalf("Authorize = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSessionGateExpiryCappedByTokenClaim(t *testing.T) {
	// exp claim of 1700000000 (2023-11-14) is long past, so it must win over
	// the gate's one hour TTL. Header and claims are unsigned; the gate only
	// peeks at the claim.
	token := "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." +
		"eyJleHAiOjE3MDAwMDAwMDB9." +
		"x"

	gate, _ := newTestGate(t, loginHandler(t))
	expires := gate.expiry(token, time.Now())

	want := time.Unix(1700000000, 0)
	if !expires.Equal(want) {
		t.Fatalf("expiry = %v, want %v", expires, want)
	}
}
