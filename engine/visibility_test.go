// ABOUTME: Tests for role-based lead and task visibility
package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/stately/models"
)

func TestVisibleLeadsAdminSeesEverything(t *testing.T) {
	assignee := "uuid-abc"
	leads := []models.Lead{
		{ID: "l1", AssignedSalespersonID: &assignee},
		{ID: "l2"},
	}

	out := VisibleLeads(leads, models.User{ID: "admin-0", Role: models.RoleAdmin})
	assert.Equal(t, leads, out)
}

func TestVisibleLeadsSalespersonSeesOnlyTheirs(t *testing.T) {
	mine := "uuid-me"
	theirs := "uuid-them"
	empty := ""
	leads := []models.Lead{
		{ID: "mine", AssignedSalespersonID: &mine},
		{ID: "theirs", AssignedSalespersonID: &theirs},
		{ID: "unassigned"},
		{ID: "cleared", AssignedSalespersonID: &empty},
	}

	out := VisibleLeads(leads, models.User{ID: "uuid-me", Role: models.RoleSalesperson})

	require.Len(t, out, 1)
	assert.Equal(t, "mine", out[0].ID)
	assert.Len(t, leads, 4, "input list must not be mutated")
}

func TestVisibleLeadsClearedAssignmentCountsAsUnassigned(t *testing.T) {
	empty := ""
	leads := []models.Lead{{ID: "cleared", AssignedSalespersonID: &empty}}

	out := VisibleLeads(leads, models.User{ID: "", Role: models.RoleSalesperson})
	assert.Empty(t, out, "a cleared assignment must not match a user with an empty identifier")
}

func TestVisibleTasks(t *testing.T) {
	tasks := []models.Task{
		{ID: "t1", AssignedToID: "uuid-me"},
		{ID: "t2", AssignedToID: "uuid-them"},
		{ID: "t3"},
	}

	admin := VisibleTasks(tasks, models.User{ID: "admin-0", Role: models.RoleAdmin})
	assert.Len(t, admin, 3)

	sales := VisibleTasks(tasks, models.User{ID: "uuid-me", Role: models.RoleSalesperson})
	require.Len(t, sales, 1)
	assert.Equal(t, "t1", sales[0].ID)
}
