// ABOUTME: Notification database operations for the lead service
// ABOUTME: Creation on assignment, polling by user, mark-read and delete
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/stately/models"
)

func CreateNotification(db *sql.DB, userID, title, message string) error {
	_, err := db.Exec(`
		INSERT INTO notifications (id, user_id, title, message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.New().String(), userID, title, message, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first, optionally
// limited to those created after lastChecked.
func ListNotifications(db *sql.DB, userID string, lastChecked time.Time) ([]models.Notification, error) {
	query := `SELECT id, user_id, title, message, is_read, created_at FROM notifications WHERE user_id = ?`
	args := []interface{}{userID}
	if !lastChecked.IsZero() {
		query += ` AND created_at > ?`
		args = append(args, lastChecked)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifs []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

func MarkNotificationRead(db *sql.DB, id string) error {
	_, err := db.Exec(`UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func DeleteNotification(db *sql.DB, id string) error {
	_, err := db.Exec(`DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}
