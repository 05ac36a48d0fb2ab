// ABOUTME: User database operations for the lead service
// ABOUTME: Lists users and syncs local user lists into canonical identifiers
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/harperreed/stately/models"
)

func ListUsers(db *sql.DB) ([]models.User, error) {
	rows, err := db.Query(`SELECT id, name, role, avatar_url FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var avatar sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &u.Role, &avatar); err != nil {
			return nil, err
		}
		u.AvatarURL = avatar.String
		users = append(users, u)
	}
	return users, rows.Err()
}

func UserExists(db *sql.DB, id string) (bool, error) {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE id = ?`, id).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// SyncUsers upserts a pushed user list. Users are matched by name; a user the
// service has never seen gets a freshly minted identifier when the pushed one
// follows the local pattern, so locally-created users end up with canonical
// ids the client discovers on the follow-up list call.
func SyncUsers(db *sql.DB, users []models.User) (int, error) {
	synced := 0
	for _, u := range users {
		var existingID string
		err := db.QueryRow(`SELECT id FROM users WHERE name = ?`, u.Name).Scan(&existingID)
		switch {
		case err == sql.ErrNoRows:
			id := u.ID
			if models.IsLocalUserID(id) || id == "" {
				id = uuid.New().String()
			}
			if _, err := db.Exec(`
				INSERT INTO users (id, name, role, avatar_url) VALUES (?, ?, ?, ?)
			`, id, u.Name, string(u.Role), u.AvatarURL); err != nil {
				return synced, fmt.Errorf("failed to insert user: %w", err)
			}
			synced++
		case err != nil:
			return synced, fmt.Errorf("failed to look up user: %w", err)
		default:
			if _, err := db.Exec(`
				UPDATE users SET role = ?, avatar_url = ? WHERE id = ?
			`, string(u.Role), u.AvatarURL, existingID); err != nil {
				return synced, fmt.Errorf("failed to update user: %w", err)
			}
			synced++
		}
	}
	return synced, nil
}
