// ABOUTME: Identity reconciliation between local and remote user identifiers
// ABOUTME: Builds old-to-new mappings and rewrites every reference in one pass
package engine

import (
	"context"
	"strings"

	"github.com/harperreed/stately/mirror"
	"github.com/harperreed/stately/models"
)

// BuildUserMapping matches each remote user against the local list by
// identifier or by name. When a match is found but the identifiers differ,
// the local identifier maps to the remote one. The mapping is transient; it
// is applied once and discarded.
func BuildUserMapping(remoteUsers, localUsers []models.User) map[string]string {
	mapping := make(map[string]string)
	for _, ru := range remoteUsers {
		for _, lu := range localUsers {
			if lu.ID == ru.ID {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(lu.Name), strings.TrimSpace(ru.Name)) {
				mapping[lu.ID] = ru.ID
			}
		}
	}
	return mapping
}

// ApplyUserMapping rewrites every reference to an old user identifier across
// leads, tasks, activities, and the user list itself. It runs against the
// snapshot before it is persisted so no obsolete identifier survives a
// reload.
func ApplyUserMapping(snap *mirror.Snapshot, mapping map[string]string) {
	if len(mapping) == 0 {
		return
	}

	for i := range snap.Leads {
		if id := snap.Leads[i].AssignedSalespersonID; id != nil {
			if newID, ok := mapping[*id]; ok {
				v := newID
				snap.Leads[i].AssignedSalespersonID = &v
			}
		}
	}
	for i := range snap.Tasks {
		if newID, ok := mapping[snap.Tasks[i].AssignedToID]; ok {
			snap.Tasks[i].AssignedToID = newID
		}
	}
	for i := range snap.Activities {
		if newID, ok := mapping[snap.Activities[i].SalespersonID]; ok {
			snap.Activities[i].SalespersonID = newID
		}
	}
	for i := range snap.Users {
		if newID, ok := mapping[snap.Users[i].ID]; ok {
			snap.Users[i].ID = newID
		}
	}
}

// MergeUsers keeps the remote list authoritative and in remote order while
// preserving local users the service has never seen, the same policy the lead
// merge applies. Locals whose identifiers were already remapped match by id.
func MergeUsers(remoteUsers, localUsers []models.User) []models.User {
	out := make([]models.User, 0, len(remoteUsers)+len(localUsers))
	out = append(out, remoteUsers...)
	for _, lu := range localUsers {
		matched := false
		for _, ru := range remoteUsers {
			if lu.ID == ru.ID || strings.EqualFold(strings.TrimSpace(lu.Name), strings.TrimSpace(ru.Name)) {
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, lu)
		}
	}
	return out
}

// syncUsersFromRemote pulls the canonical user list and, when it is
// non-empty, reconciles identifiers and adopts the merged list.
func (e *Engine) syncUsersFromRemote(ctx context.Context) error {
	remoteUsers, err := e.remote.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(remoteUsers) == 0 {
		return nil
	}

	var mapping map[string]string
	if err := e.mirror.Mutate(func(snap *mirror.Snapshot) {
		mapping = BuildUserMapping(remoteUsers, snap.Users)
		ApplyUserMapping(snap, mapping)
		snap.Users = MergeUsers(remoteUsers, snap.Users)
	}); err != nil {
		return err
	}
	e.adoptUserMapping(mapping)
	return nil
}

// selfHealUsers is the recovery path for an update rejected because its
// assignee only exists locally: push the local users, re-fetch the canonical
// list, and remap by name. The caller retries the original update once with
// the corrected identifier.
func (e *Engine) selfHealUsers(ctx context.Context) (map[string]string, error) {
	snap := e.mirror.Snapshot()
	if _, err := e.remote.SyncUsers(ctx, snap.Users); err != nil {
		return nil, err
	}
	remoteUsers, err := e.remote.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	var mapping map[string]string
	if err := e.mirror.Mutate(func(s *mirror.Snapshot) {
		mapping = BuildUserMapping(remoteUsers, s.Users)
		ApplyUserMapping(s, mapping)
		s.Users = MergeUsers(remoteUsers, s.Users)
	}); err != nil {
		return nil, err
	}
	e.adoptUserMapping(mapping)
	return mapping, nil
}

// adoptUserMapping updates the acting user's identifier if it was remapped
// and reloads view state so stale identifiers disappear immediately.
func (e *Engine) adoptUserMapping(mapping map[string]string) {
	e.mu.Lock()
	if newID, ok := mapping[e.user.ID]; ok {
		e.user.ID = newID
	}
	e.mu.Unlock()
	if len(mapping) > 0 {
		e.reloadViewFromMirror()
	}
}
