// ABOUTME: Tests for booking side effects and unit availability
package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/stately/mirror"
	"github.com/harperreed/stately/models"
)

func bookingSnapshot() *mirror.Snapshot {
	return &mirror.Snapshot{
		Projects: []models.Project{{
			ID: "p1", Name: "Sunrise Towers",
			Units: []models.Unit{
				{ID: "u1", Number: "A-101", Status: models.UnitAvailable},
				{ID: "u2", Number: "A-102", Status: models.UnitBooked},
				{ID: "u3", Number: "A-103", Status: models.UnitHold},
			},
		}},
	}
}

func TestApplyBookingMarksUnitAndAppendsActivity(t *testing.T) {
	snap := bookingSnapshot()
	now := time.Now()
	lead := models.Lead{
		ID: "l1", Status: models.StatusBooked,
		BookedProject: "Sunrise Towers", BookedUnitID: "u1", BookedUnitNumber: "A-101",
	}

	fired := ApplyBooking(snap, lead, "", "admin-0", now)

	assert.True(t, fired)
	assert.Equal(t, models.UnitBooked, snap.Projects[0].Units[0].Status)
	require.Len(t, snap.Activities, 1)
	assert.Equal(t, "l1", snap.Activities[0].LeadID)
	assert.Equal(t, "admin-0", snap.Activities[0].SalespersonID)
	assert.Equal(t, "Booked unit A-101 in Sunrise Towers", snap.Activities[0].Remarks)
}

func TestApplyBookingGating(t *testing.T) {
	tests := []struct {
		name       string
		status     models.LeadStatus
		unitID     string
		prevUnitID string
		want       bool
	}{
		{"non-booking status", models.StatusNegotiation, "u1", "", false},
		{"no unit selected", models.StatusBooked, "", "", false},
		{"unit unchanged", models.StatusBooked, "u1", "u1", false},
		{"booking status with new unit", models.StatusBooking, "u1", "", true},
		{"unit switched", models.StatusBooked, "u3", "u1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := bookingSnapshot()
			lead := models.Lead{ID: "l1", Status: tt.status, BookedUnitID: tt.unitID}
			got := ApplyBooking(snap, lead, tt.prevUnitID, "admin-0", time.Now())
			assert.Equal(t, tt.want, got)
			if !tt.want {
				assert.Empty(t, snap.Activities)
			}
		})
	}
}

func TestAvailableUnitsExcludesBookedExceptCurrent(t *testing.T) {
	project := bookingSnapshot().Projects[0]

	out := AvailableUnits(project, "")
	require.Len(t, out, 2)
	assert.Equal(t, "u1", out[0].ID)
	assert.Equal(t, "u3", out[1].ID)

	// The unit the lead already holds stays selectable even though it is booked.
	withCurrent := AvailableUnits(project, "u2")
	require.Len(t, withCurrent, 3)
}
