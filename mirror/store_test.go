// ABOUTME: Tests for the Badger-backed mirror store
// ABOUTME: Covers persistence, deep-copy snapshots, and corruption recovery
package mirror

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/stately/models"
)

func demoSeed() *Snapshot {
	return &Snapshot{
		Leads: []models.Lead{{ID: "seed-lead", Name: "Seed", Mobile: "000"}},
		Users: []models.User{{ID: "admin-0", Name: "Asha Verma", Role: models.RoleAdmin}},
	}
}

func TestOpenSeedsEmptyDatabase(t *testing.T) {
	store, err := Open(t.TempDir(), demoSeed)
	require.NoError(t, err)
	defer store.Close()

	snap := store.Snapshot()
	require.Len(t, snap.Leads, 1)
	assert.Equal(t, "seed-lead", snap.Leads[0].ID)
	assert.Equal(t, SnapshotVersion, snap.Version)
}

func TestMutatePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir, demoSeed)
	require.NoError(t, err)
	err = store.Mutate(func(snap *Snapshot) {
		snap.Leads = append(snap.Leads, models.Lead{ID: "l2", Name: "Vikram", Mobile: "111"})
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(dir, demoSeed)
	require.NoError(t, err)
	defer reopened.Close()

	snap := reopened.Snapshot()
	require.Len(t, snap.Leads, 2)
	assert.Equal(t, "l2", snap.Leads[1].ID)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	store, err := Open(t.TempDir(), demoSeed)
	require.NoError(t, err)
	defer store.Close()

	snap := store.Snapshot()
	snap.Leads[0].Name = "mutated"

	assert.Equal(t, "Seed", store.Snapshot().Leads[0].Name,
		"mutating a returned snapshot must not leak into the store")
}

func TestCorruptSnapshotReseeds(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir, demoSeed)
	require.NoError(t, err)
	err = store.Mutate(func(snap *Snapshot) {
		snap.Leads = append(snap.Leads, models.Lead{ID: "l2", Mobile: "111"})
	})
	require.NoError(t, err)

	require.NoError(t, store.rawSet([]byte("{not json")))
	require.NoError(t, store.Close())

	reopened, err := Open(dir, demoSeed)
	require.NoError(t, err)
	defer reopened.Close()

	snap := reopened.Snapshot()
	require.Len(t, snap.Leads, 1, "unreadable state falls back to the seed dataset")
	assert.Equal(t, "seed-lead", snap.Leads[0].ID)
}

func TestVersionMismatchReseeds(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir, demoSeed)
	require.NoError(t, err)
	require.NoError(t, store.rawSet([]byte(`{"version":0,"leads":[{"id":"stale"}]}`)))
	require.NoError(t, store.Close())

	reopened, err := Open(dir, demoSeed)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, "seed-lead", reopened.Snapshot().Leads[0].ID)
}

func TestResetRestoresSeed(t *testing.T) {
	store, err := Open(t.TempDir(), demoSeed)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Mutate(func(snap *Snapshot) {
		snap.Leads = nil
	}))
	require.NoError(t, store.Reset())

	snap := store.Snapshot()
	require.Len(t, snap.Leads, 1)
	assert.WithinDuration(t, time.Now(), snap.SavedAt, time.Minute)
}
