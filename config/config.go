// ABOUTME: Environment-driven configuration with .env support
// ABOUTME: Paths default to XDG data locations; intervals are durations
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

type Config struct {
	// ListenAddr is where the lead service binds.
	ListenAddr string
	// ServiceDBPath is the service-side SQLite database.
	ServiceDBPath string
	// RemoteURL is the lead service base URL the agent talks to.
	RemoteURL string
	// DataDir holds the agent's mirror database.
	DataDir string

	LeadRefreshInterval  time.Duration
	NotificationInterval time.Duration
	ReminderInterval     time.Duration
}

// Load reads configuration from the environment, after sourcing a .env file
// when one exists.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:           getenvDefault("STATELY_LISTEN_ADDR", ":8080"),
		ServiceDBPath:        getenvDefault("STATELY_SERVICE_DB", filepath.Join(xdg.DataHome, "stately", "service.db")),
		RemoteURL:            getenvDefault("STATELY_REMOTE_URL", "http://localhost:8080"),
		DataDir:              getenvDefault("STATELY_DATA_DIR", filepath.Join(xdg.DataHome, "stately", "mirror")),
		LeadRefreshInterval:  getenvDuration("STATELY_LEAD_REFRESH_INTERVAL", 30*time.Second),
		NotificationInterval: getenvDuration("STATELY_NOTIFICATION_INTERVAL", 5*time.Second),
		ReminderInterval:     getenvDuration("STATELY_REMINDER_INTERVAL", 10*time.Second),
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
