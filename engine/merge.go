// ABOUTME: Lead merge engine combining remote snapshots with mirrored leads
// ABOUTME: Remote list is authoritative; unmatched local leads are preserved
package engine

import (
	"time"

	"github.com/harperreed/stately/models"
)

// MergeLeads merges a successfully-fetched remote lead list with the mirror's
// list. Every remote lead is normalized and wins over any local copy matched
// by identifier or by mobile number (the mobile match catches leads created
// locally and re-submitted to the service under a different identifier).
// Local leads with no match survive as local-only entries appended after the
// remote-ordered block.
//
// Callers handle the remote-fetch-failed case themselves; an empty remote
// list here means the service really has no leads.
func MergeLeads(remoteLeads []models.RawLead, local []models.Lead, now time.Time) []models.Lead {
	merged := make([]models.Lead, 0, len(remoteLeads)+len(local))
	matched := make(map[int]bool, len(local))

	for _, raw := range remoteLeads {
		merged = append(merged, models.NormalizeRemoteLead(raw, now))
		for i := range local {
			if local[i].ID == raw.ID || (raw.Mobile != "" && local[i].Mobile == raw.Mobile) {
				matched[i] = true
			}
		}
	}

	for i := range local {
		if !matched[i] {
			merged = append(merged, local[i])
		}
	}
	return merged
}
