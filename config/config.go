package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// PortalAPIURL returns the base URL of the upstream document portal REST API,
// without a trailing slash.
func PortalAPIURL() string {
	url := os.Getenv("PORTAL_API_URL")
	if url == "" {
		url = "http://localhost:8000/api"
	}
	return strings.TrimRight(url, "/")
}

// ServerPort returns the port the gateway listens on.
func ServerPort() string {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	return port
}

// SessionDBPath returns the sqlite file holding sessions and UI preferences.
func SessionDBPath() string {
	path := os.Getenv("SESSION_DB_PATH")
	if path == "" {
		path = "./portal-gateway.db"
	}
	return path
}

// SessionTTL returns how long an idle session stays valid.
func SessionTTL() time.Duration {
	hours, err := strconv.Atoi(os.Getenv("SESSION_TTL_HOURS"))
	if err != nil || hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// DisplayLocation returns the time zone used for calendar-day normalization.
// Date filters and the daily report group by day in this zone.
func DisplayLocation() *time.Location {
	name := os.Getenv("DISPLAY_TIMEZONE")
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// CORSAllowedOrigins returns the browser origins allowed to call the gateway.
func CORSAllowedOrigins() []string {
	raw := os.Getenv("CORS_ALLOWED_ORIGINS")
	if raw == "" {
		return []string{"http://localhost:5173"}
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
