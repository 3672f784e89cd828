package models

import (
	"time"
)

// Session is one browser session held by the gateway. The upstream access
// token never leaves the server; clients only ever see the session ID.
type Session struct {
	ID          string    `gorm:"primaryKey;column:id" json:"id"`
	AccessToken string    `gorm:"column:access_token" json:"-"`
	Username    string    `gorm:"column:username" json:"username"`
	Role        string    `gorm:"column:role" json:"role"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at" json:"expires_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Identity returns the principal snapshot stored on the session.
func (s *Session) Identity() Identity {
	return Identity{Username: s.Username, Role: s.Role}
}

// Preference is one persisted UI preference, scoped per account, so a user's
// last screen state follows them across browsers.
//
// Documented keys:
//
//	admin_active_tab: last open admin dashboard tab (users | upload | files)
//	files_sort_order: last sort key on the users'-files screen
type Preference struct {
	Username  string    `gorm:"primaryKey;column:username" json:"username"`
	Key       string    `gorm:"primaryKey;column:pref_key" json:"key"`
	Value     string    `gorm:"column:pref_value" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// PreferenceKeys lists the keys the gateway will persist. Anything else is
// rejected so the store stays a documented key-value surface, not a dumping
// ground for view state.
var PreferenceKeys = map[string]bool{
	"admin_active_tab": true,
	"files_sort_order": true,
}

func (Session) TableName() string {
	return "sessions"
}

func (Preference) TableName() string {
	return "preferences"
}
