// ABOUTME: Role-based visibility filters for leads and tasks
// ABOUTME: Admins see everything; salespeople see only their assignments
package engine

import "github.com/harperreed/stately/models"

// VisibleLeads returns the leads the user may see. Admins get the input list
// unmodified; salespeople get the leads assigned to them. Inputs are never
// mutated.
func VisibleLeads(leads []models.Lead, user models.User) []models.Lead {
	if user.Role == models.RoleAdmin {
		return leads
	}
	out := make([]models.Lead, 0, len(leads))
	for _, l := range leads {
		if l.Assigned() && *l.AssignedSalespersonID == user.ID {
			out = append(out, l)
		}
	}
	return out
}

// VisibleTasks filters tasks the same way, keyed on assignedToId.
func VisibleTasks(tasks []models.Task, user models.User) []models.Task {
	if user.Role == models.RoleAdmin {
		return tasks
	}
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.AssignedToID != "" && t.AssignedToID == user.ID {
			out = append(out, t)
		}
	}
	return out
}
