// ABOUTME: Booking side effects for leads entering a booked state
// ABOUTME: Marks inventory units booked and appends the audit activity
package engine

import (
	"fmt"
	"time"

	"github.com/harperreed/stately/mirror"
	"github.com/harperreed/stately/models"
)

// ApplyBooking marks the lead's booked unit as Booked within its owning
// project and appends the booking audit activity. It only fires when the
// lead is in a booking status with a unit that differs from prevUnitID, so
// re-saving an unchanged booking is a no-op.
func ApplyBooking(snap *mirror.Snapshot, lead models.Lead, prevUnitID, actorID string, now time.Time) bool {
	if !models.IsBookingStatus(lead.Status) {
		return false
	}
	if lead.BookedUnitID == "" || lead.BookedUnitID == prevUnitID {
		return false
	}

	for pi := range snap.Projects {
		for ui := range snap.Projects[pi].Units {
			if snap.Projects[pi].Units[ui].ID == lead.BookedUnitID {
				snap.Projects[pi].Units[ui].Status = models.UnitBooked
			}
		}
	}

	snap.Activities = append(snap.Activities, models.Activity{
		ID:            models.NewActivityID(),
		LeadID:        lead.ID,
		SalespersonID: actorID,
		Type:          models.ActivityNote,
		Timestamp:     now,
		Remarks:       fmt.Sprintf("Booked unit %s in %s", lead.BookedUnitNumber, lead.BookedProject),
	})
	return true
}

// AvailableUnits lists units selectable for a new booking: everything not
// already Booked, plus the unit the lead being edited has booked already.
func AvailableUnits(project models.Project, currentUnitID string) []models.Unit {
	var out []models.Unit
	for _, u := range project.Units {
		if u.Status != models.UnitBooked || u.ID == currentUnitID {
			out = append(out, u)
		}
	}
	return out
}
