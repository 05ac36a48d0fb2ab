// ABOUTME: Service-side database connection management and schema
// ABOUTME: Opens SQLite with WAL mode and initializes the lead service tables
package store

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	// Single connection avoids sqlite "database is locked" errors
	db.SetMaxOpenConns(1)

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// InitSchema creates the service tables. Idempotent.
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		mobile TEXT NOT NULL,
		email TEXT,
		status TEXT NOT NULL DEFAULT 'New',
		assigned_salesperson_id TEXT,
		lead_date TIMESTAMP,
		last_activity_date TIMESTAMP,
		next_follow_up_date TIMESTAMP,
		contact_date TIMESTAMP,
		visit_status TEXT NOT NULL DEFAULT 'No',
		visit_date TIMESTAMP,
		temperature TEXT,
		mode_of_enquiry TEXT NOT NULL DEFAULT 'Website',
		source TEXT NOT NULL DEFAULT 'website',
		project TEXT,
		remarks TEXT,
		last_remark TEXT,
		booked_project TEXT,
		booked_unit_id TEXT,
		booked_unit_number TEXT,
		is_read INTEGER NOT NULL DEFAULT 0,
		missed_visits_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_leads_mobile ON leads(mobile);
	CREATE INDEX IF NOT EXISTS idx_leads_assigned ON leads(assigned_salesperson_id);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		avatar_url TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
	`
	_, err := db.Exec(schema)
	return err
}
