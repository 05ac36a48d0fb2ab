// ABOUTME: Tests for the service-side SQLite store
// ABOUTME: Covers identifier minting, tri-state updates, and user sync
package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/stately/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateLeadMintsServiceIdentifier(t *testing.T) {
	db := openTestDB(t)

	created, err := CreateLead(db, models.Lead{
		ID: "lead-1710000000000", Name: "Vikram", Mobile: "9810001001",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	// The locally-minted identifier never reaches the database.
	assert.NotEqual(t, "lead-1710000000000", created.ID)
	assert.False(t, models.IsLocalLeadID(created.ID))
	require.NotNil(t, created.Status)
	assert.Equal(t, models.StatusNew, *created.Status)
	require.NotNil(t, created.ModeOfEnquiry)
	assert.Equal(t, "Website", *created.ModeOfEnquiry)
}

func TestUpdateLeadTriStateAssignment(t *testing.T) {
	db := openTestDB(t)

	assignee := "uuid-abc"
	created, err := CreateLead(db, models.Lead{
		Name: "Vikram", Mobile: "111", AssignedSalespersonID: &assignee,
	})
	require.NoError(t, err)

	// Key absent: assignment untouched.
	status := string(models.StatusContacted)
	updated, err := UpdateLead(db, created.ID, LeadPatch{Status: &status})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedSalespersonID)
	assert.Equal(t, "uuid-abc", *updated.AssignedSalespersonID)

	// Explicit null: assignment cleared.
	updated, err = UpdateLead(db, created.ID, LeadPatch{AssignedSet: true})
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedSalespersonID)

	// Value: assignment set.
	other := "uuid-def"
	updated, err = UpdateLead(db, created.ID, LeadPatch{AssignedSet: true, AssignedSalespersonID: &other})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedSalespersonID)
	assert.Equal(t, "uuid-def", *updated.AssignedSalespersonID)
}

func TestUpdateLeadUnknownIDReturnsNil(t *testing.T) {
	db := openTestDB(t)

	status := string(models.StatusContacted)
	updated, err := UpdateLead(db, "nope", LeadPatch{Status: &status})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestDeleteLead(t *testing.T) {
	db := openTestDB(t)

	created, err := CreateLead(db, models.Lead{Name: "Vikram", Mobile: "111"})
	require.NoError(t, err)

	require.NoError(t, DeleteLead(db, created.ID))

	got, err := GetLead(db, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSyncUsersMintsCanonicalIdentifiers(t *testing.T) {
	db := openTestDB(t)

	synced, err := SyncUsers(db, []models.User{
		{ID: "user-1710000000001", Name: "Rohit Mehta", Role: models.RoleSalesperson},
		{ID: "admin-0", Name: "Asha Verma", Role: models.RoleAdmin},
		{ID: "uuid-external", Name: "Priya Nair", Role: models.RoleSalesperson},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, synced)

	users, err := ListUsers(db)
	require.NoError(t, err)
	require.Len(t, users, 3)

	byName := map[string]models.User{}
	for _, u := range users {
		byName[u.Name] = u
	}

	// Local-pattern identifiers are replaced; externally-issued ones kept.
	assert.False(t, models.IsLocalUserID(byName["Rohit Mehta"].ID))
	assert.False(t, models.IsLocalUserID(byName["Asha Verma"].ID))
	assert.Equal(t, "uuid-external", byName["Priya Nair"].ID)
}

func TestSyncUsersMatchesByNameOnRepeat(t *testing.T) {
	db := openTestDB(t)

	_, err := SyncUsers(db, []models.User{{ID: "user-1", Name: "Rohit Mehta", Role: models.RoleSalesperson}})
	require.NoError(t, err)
	first, err := ListUsers(db)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A second push of the same user (even under a new local id) updates in
	// place instead of duplicating.
	_, err = SyncUsers(db, []models.User{{ID: "user-2", Name: "Rohit Mehta", Role: models.RoleAdmin}})
	require.NoError(t, err)
	second, err := ListUsers(db)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID, "the canonical identifier is stable across syncs")
	assert.Equal(t, models.RoleAdmin, second[0].Role)
}

func TestUserExists(t *testing.T) {
	db := openTestDB(t)

	_, err := SyncUsers(db, []models.User{{ID: "uuid-abc", Name: "Rohit Mehta", Role: models.RoleSalesperson}})
	require.NoError(t, err)

	exists, err := UserExists(db, "uuid-abc")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = UserExists(db, "user-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNotificationsLifecycle(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, CreateNotification(db, "uuid-abc", "Lead assigned", "Vikram was assigned to you"))
	require.NoError(t, CreateNotification(db, "uuid-other", "Lead assigned", "not yours"))

	notifs, err := ListNotifications(db, "uuid-abc", time.Time{})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, "Lead assigned", notifs[0].Title)
	assert.False(t, notifs[0].IsRead)

	// lastChecked in the future filters everything out.
	notifs, err = ListNotifications(db, "uuid-abc", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, notifs)

	id := mustFirstNotification(t, db, "uuid-abc").ID
	require.NoError(t, MarkNotificationRead(db, id))
	assert.True(t, mustFirstNotification(t, db, "uuid-abc").IsRead)

	require.NoError(t, DeleteNotification(db, id))
	notifs, err = ListNotifications(db, "uuid-abc", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, notifs)
}

func mustFirstNotification(t *testing.T, db *sql.DB, userID string) models.Notification {
	t.Helper()
	notifs, err := ListNotifications(db, userID, time.Time{})
	require.NoError(t, err)
	require.NotEmpty(t, notifs)
	return notifs[0]
}
