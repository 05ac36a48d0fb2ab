// ABOUTME: Local mirror store persisted in a Badger key-value database
// ABOUTME: Holds the single versioned snapshot of all CRM entities
package mirror

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v3"

	"github.com/harperreed/stately/models"
)

// SnapshotVersion is bumped whenever the snapshot layout changes. A stored
// snapshot with a different version is treated like corruption and reseeded.
const SnapshotVersion = 1

var snapshotKey = []byte("stately/state")

// Snapshot is the full mirrored state, stored as one JSON record under a
// single key. The mirror is the only durable store; view state is rebuilt
// from it on every load.
type Snapshot struct {
	Version    int                  `json:"version"`
	Leads      []models.Lead        `json:"leads"`
	Users      []models.User        `json:"users"`
	Activities []models.Activity    `json:"activities"`
	Tasks      []models.Task        `json:"tasks"`
	Projects   []models.Project     `json:"projects"`
	Targets    []models.SalesTarget `json:"targets"`
	SavedAt    time.Time            `json:"savedAt"`
}

// SeedFunc produces a fresh snapshot for first run or corruption recovery.
type SeedFunc func() *Snapshot

// Store wraps the Badger database with a mutex-guarded in-memory snapshot.
// All mutations go through Mutate, which persists before returning.
type Store struct {
	mu   sync.Mutex
	db   *badger.DB
	snap *Snapshot
	seed SeedFunc
}

// Open opens (or creates) the mirror database at dir and loads the snapshot.
// A missing, unparsable, or version-mismatched snapshot is replaced with the
// seed dataset.
func Open(dir string, seed SeedFunc) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror db: %w", err)
	}

	s := &Store{db: db, seed: seed}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *Store) load() error {
	raw, err := s.rawGet()
	if err != nil {
		return err
	}

	if raw != nil {
		var snap Snapshot
		if jsonErr := json.Unmarshal(raw, &snap); jsonErr == nil && snap.Version == SnapshotVersion {
			s.snap = &snap
			return nil
		}
		log.Printf("mirror: stored snapshot unreadable, reseeding")
	}

	snap := s.seed()
	snap.Version = SnapshotVersion
	s.snap = snap
	return s.persistLocked()
}

// Snapshot returns a deep copy of the current state. Callers may mutate the
// copy freely without affecting the store.
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSnapshot(s.snap)
}

// Mutate applies fn to the snapshot under the lock and persists the result.
// This is the synchronous read-modify-write every flow goes through; there is
// no finer-grained locking because writers never overlap within one process.
func (s *Store) Mutate(fn func(*Snapshot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.snap)
	return s.persistLocked()
}

// Reset discards all state and reseeds from the demo dataset.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.seed()
	snap.Version = SnapshotVersion
	s.snap = snap
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	s.snap.SavedAt = time.Now()
	raw, err := json.Marshal(s.snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return s.rawSet(raw)
}

func (s *Store) rawGet() ([]byte, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return raw, nil
}

func (s *Store) rawSet(raw []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey, raw)
	})
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func cloneSnapshot(snap *Snapshot) *Snapshot {
	raw, err := json.Marshal(snap)
	if err != nil {
		// Snapshot is always a plain value graph; marshal cannot fail.
		panic(err)
	}
	var out Snapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}
