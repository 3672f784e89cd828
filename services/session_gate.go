package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"document-portal-gateway/models"
)

// SessionGate owns the session lifecycle: login opens a session against the
// upstream, restore revalidates a persisted one, logout and the global 401
// policy tear them down. Role checks for every protected route go through
// Authorize, so role strings are compared in exactly one place.
type SessionGate struct {
	client *PortalClient
	store  SessionStore
	ttl    time.Duration

	mu      sync.Mutex
	loading bool
}

func NewSessionGate(client *PortalClient, store SessionStore, ttl time.Duration) *SessionGate {
	gate := &SessionGate{
		client:  client,
		store:   store,
		ttl:     ttl,
		loading: true,
	}
	client.SetUnauthorizedHook(gate.invalidateToken)
	return gate
}

// Loading reports whether the gate is still bootstrapping. It starts true
// and drops after the first Restore completes, success or failure.
func (g *SessionGate) Loading() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loading
}

func (g *SessionGate) setLoading(v bool) {
	g.mu.Lock()
	g.loading = v
	g.mu.Unlock()
}

// Login authenticates against the upstream and opens a gateway session.
// The gate never sees the password again after this call returns.
func (g *SessionGate) Login(ctx context.Context, username, password string) (*models.Session, *models.PortalUser, error) {
	resp, err := g.client.Login(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}
	if resp.Tokens.Access == "" {
		return nil, nil, fmt.Errorf("login response missing access token")
	}

	now := time.Now()
	session := &models.Session{
		ID:          uuid.NewString(),
		AccessToken: resp.Tokens.Access,
		Username:    resp.User.Username,
		Role:        resp.User.Role,
		CreatedAt:   now,
		ExpiresAt:   g.expiry(resp.Tokens.Access, now),
	}
	if err := g.store.Put(session); err != nil {
		return nil, nil, fmt.Errorf("persist session: %w", err)
	}
	return session, &resp.User, nil
}

// Resolve returns the live session for an id without an upstream round trip.
// Missing or expired sessions yield ErrSessionNotFound; expired rows are
// deleted on the way out.
func (g *SessionGate) Resolve(sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	session, err := g.store.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Expired(time.Now()) {
		if err := g.store.Delete(session.ID); err != nil {
			log.Printf("Warning: failed to delete expired session: %v", err)
		}
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Restore revalidates a persisted session against the upstream current-user
// lookup. On any failure, 401 included, the stored session is dropped and the
// caller is anonymous. The loading flag clears when Restore returns, whatever
// the outcome.
func (g *SessionGate) Restore(ctx context.Context, sessionID string) (*models.PortalUser, *models.Session, error) {
	defer g.setLoading(false)

	session, err := g.Resolve(sessionID)
	if err != nil {
		return nil, nil, err
	}

	user, err := g.client.CurrentUser(ctx, session.AccessToken)
	if err != nil {
		// The 401 hook already removed the row in the unauthorized case;
		// deleting again is a no-op. Other failures also clear the session,
		// so a broken token never survives a failed lookup.
		if delErr := g.store.Delete(session.ID); delErr != nil {
			log.Printf("Warning: failed to delete session after restore failure: %v", delErr)
		}
		return nil, nil, err
	}

	// Refresh the identity snapshot; roles can change between visits.
	session.Username = user.Username
	session.Role = user.Role
	if err := g.store.Put(session); err != nil {
		log.Printf("Warning: failed to refresh session snapshot: %v", err)
	}
	return user, session, nil
}

// Logout destroys the session. The upstream token is simply forgotten; the
// upstream has no revocation endpoint.
func (g *SessionGate) Logout(sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return g.store.Delete(sessionID)
}

// Authorize implements the role gate: true when an identity is present and
// either no role is required or the roles match.
func (g *SessionGate) Authorize(identity *models.Identity, requiredRole string) bool {
	if identity == nil {
		return false
	}
	return requiredRole == "" || identity.Role == requiredRole
}

// invalidateToken is the global 401 side effect: any unauthorized answer from
// the upstream kills every session carrying that token, so the next request
// with that session lands back on the login flow.
func (g *SessionGate) invalidateToken(token string) {
	if err := g.store.DeleteByToken(token); err != nil {
		log.Printf("Warning: failed to invalidate sessions after 401: %v", err)
	}
}

// SweepExpired removes sessions past their expiry. main runs this on a slow
// ticker so the sqlite file does not accumulate stale rows.
func (g *SessionGate) SweepExpired() {
	if err := g.store.DeleteExpired(time.Now()); err != nil {
		log.Printf("Warning: session sweep failed: %v", err)
	}
}

// expiry caps the session lifetime at the gate's TTL, tightened by the
// token's own exp claim when one can be read. The claim is peeked without
// signature verification; the upstream remains the authority and will answer
// 401 regardless.
func (g *SessionGate) expiry(token string, now time.Time) time.Time {
	expires := now.Add(g.ttl)

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && exp.Time.Before(expires) {
			expires = exp.Time
		}
	}
	return expires
}
