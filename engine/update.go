// ABOUTME: Assignment update protocol for lead mutations
// ABOUTME: Optimistic local write, remote push, and single resync-and-retry
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/stately/mirror"
	"github.com/harperreed/stately/models"
	"github.com/harperreed/stately/remote"
)

// SaveLead applies a lead mutation. The mutated lead lands in view state and
// the mirror before anything goes over the wire, and that local write is
// never rolled back: a remote failure degrades to "saved locally" with the
// optimistic state left in place.
//
// On remote success the service's returned copy is authoritative and
// overwrites the optimistic one. An UnsyncedIdentity rejection with a
// locally-minted assignee triggers one identity resync and one retry.
func (e *Engine) SaveLead(ctx context.Context, updated models.Lead) error {
	now := time.Now()

	// A cleared assignment arrives from callers as "" but persists as null.
	if updated.AssignedSalespersonID != nil && *updated.AssignedSalespersonID == "" {
		updated.AssignedSalespersonID = nil
	}
	updated.LastActivityDate = now
	updated.IsRead = true

	var prev models.Lead
	if err := e.mirror.Mutate(func(snap *mirror.Snapshot) {
		for i := range snap.Leads {
			if snap.Leads[i].ID == updated.ID {
				prev = snap.Leads[i]
				snap.Leads[i] = updated
				return
			}
		}
		snap.Leads = append(snap.Leads, updated)
	}); err != nil {
		return err
	}
	e.replaceViewLead(updated)

	final := updated
	confirmed, mapping := e.pushLeadUpdate(ctx, updated, now)
	if confirmed != nil {
		final = *confirmed
		if err := e.mirror.Mutate(func(snap *mirror.Snapshot) {
			for i := range snap.Leads {
				if snap.Leads[i].ID == final.ID {
					snap.Leads[i] = final
					return
				}
			}
		}); err != nil {
			return err
		}
		e.replaceViewLead(final)
	}

	// If the push resynced identities, both sides of the change check must be
	// compared under canonical identifiers; a save whose assignee merely got
	// remapped is not an assignment change.
	if prev.AssignedSalespersonID != nil {
		if newID, ok := mapping[*prev.AssignedSalespersonID]; ok {
			prev.AssignedSalespersonID = &newID
		}
	}
	if final.AssignedSalespersonID != nil {
		if newID, ok := mapping[*final.AssignedSalespersonID]; ok {
			final.AssignedSalespersonID = &newID
		}
	}

	return e.applySideEffects(prev, final, now)
}

// pushLeadUpdate drives the remote half of the protocol. It returns the
// confirmed lead on any success path and nil when the update ends in the
// local-only terminal state, plus the identity mapping when the push went
// through a resync.
func (e *Engine) pushLeadUpdate(ctx context.Context, lead models.Lead, now time.Time) (*models.Lead, map[string]string) {
	patch := patchFromLead(lead)

	raw, err := e.remote.UpdateLead(ctx, lead.ID, patch)
	if err == nil {
		return e.confirmLead(ctx, lead.ID, raw, now), nil
	}

	re := remote.AsError(err)
	switch {
	case re.Kind == remote.KindMissingResource:
		// The backend resource plainly does not exist; retrying cannot help.
		e.notifier.Notify(Notice{
			Sticky:  true,
			Message: missingResourceMessage(re),
		})
		return nil, nil

	case re.Kind == remote.KindUnsyncedIdentity && lead.AssignedSalespersonID != nil && models.IsLocalUserID(*lead.AssignedSalespersonID):
		return e.resyncAndRetry(ctx, lead, now)

	default:
		e.notifier.Notify(Notice{Message: "Saved locally; remote sync failed. Changes will not reach other devices until the service is back."})
		return nil, nil
	}
}

// resyncAndRetry is the single automatic retry: heal the user identities,
// swap in the canonical assignee identifier, and resend once. The mapping is
// returned alongside so the caller can compare pre- and post-save assignees
// under the same identifiers.
func (e *Engine) resyncAndRetry(ctx context.Context, lead models.Lead, now time.Time) (*models.Lead, map[string]string) {
	mapping, err := e.selfHealUsers(ctx)
	if err != nil {
		he := remote.AsError(err)
		if he.Kind == remote.KindMissingResource {
			e.notifier.Notify(Notice{Sticky: true, Message: missingResourceMessage(he)})
		} else {
			e.notifier.Notify(Notice{Sticky: true, Message: fmt.Sprintf("Could not sync salespeople with the service (%s). The lead was saved locally.", he.Message)})
		}
		return nil, nil
	}

	newID, ok := mapping[*lead.AssignedSalespersonID]
	if !ok {
		e.notifier.Notify(Notice{Message: "Saved locally; the assigned salesperson is still unknown to the service."})
		return nil, mapping
	}

	lead.AssignedSalespersonID = &newID
	raw, err := e.remote.UpdateLead(ctx, lead.ID, patchFromLead(lead))
	if err != nil {
		e.notifier.Notify(Notice{Message: "Saved locally; remote sync failed after identity resync."})
		return nil, mapping
	}
	return e.confirmLead(ctx, lead.ID, raw, now), mapping
}

// confirmLead turns a remote success into the authoritative lead. A success
// with no body falls back to re-fetching the list and extracting the match.
func (e *Engine) confirmLead(ctx context.Context, id string, raw *models.RawLead, now time.Time) *models.Lead {
	if raw != nil {
		lead := models.NormalizeRemoteLead(*raw, now)
		return &lead
	}

	raws, err := e.remote.ListLeads(ctx)
	if err != nil {
		return nil
	}
	for _, r := range raws {
		if r.ID == id {
			lead := models.NormalizeRemoteLead(r, now)
			return &lead
		}
	}
	return nil
}

// applySideEffects runs after the protocol settles, whichever terminal state
// it reached: the optimistic mutation always succeeded locally, so audit
// entries and booking effects follow it.
func (e *Engine) applySideEffects(prev, final models.Lead, now time.Time) error {
	actor := e.CurrentUser().ID

	if !sameAssignee(prev.AssignedSalespersonID, final.AssignedSalespersonID) {
		remarks := "Lead unassigned"
		if final.Assigned() {
			remarks = "Lead assigned to " + e.userName(*final.AssignedSalespersonID)
		}
		if err := e.mirror.Mutate(func(snap *mirror.Snapshot) {
			snap.Activities = append(snap.Activities, models.Activity{
				ID:            models.NewActivityID(),
				LeadID:        final.ID,
				SalespersonID: actor,
				Type:          models.ActivityNote,
				Timestamp:     now,
				Remarks:       remarks,
			})
		}); err != nil {
			return err
		}
	}

	if err := e.mirror.Mutate(func(snap *mirror.Snapshot) {
		ApplyBooking(snap, final, prev.BookedUnitID, actor, now)
	}); err != nil {
		return err
	}
	return nil
}

func patchFromLead(lead models.Lead) remote.LeadPatch {
	status := lead.Status
	visit := lead.VisitStatus
	isRead := lead.IsRead

	patch := remote.LeadPatch{
		Status:                &status,
		VisitStatus:           &visit,
		IsRead:                &isRead,
		NextFollowUpDate:      lead.NextFollowUpDate,
		VisitDate:             lead.VisitDate,
		AssignedSalespersonID: lead.AssignedSalespersonID,
	}
	if lead.Temperature != "" {
		patch.Temperature = &lead.Temperature
	}
	if lead.LastRemark != "" {
		patch.LastRemark = &lead.LastRemark
	}
	if lead.BookedUnitID != "" {
		patch.BookedProject = &lead.BookedProject
		patch.BookedUnitID = &lead.BookedUnitID
		patch.BookedUnitNumber = &lead.BookedUnitNumber
	}
	return patch
}

func sameAssignee(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func missingResourceMessage(re *remote.Error) string {
	resource := re.Resource
	if resource == "" {
		resource = "required table"
	}
	return fmt.Sprintf("The service database is missing the %q table. Provision the backend schema to enable sync; until then changes are saved locally only.", resource)
}
