// ABOUTME: Demo dataset for first run and corruption recovery
// ABOUTME: Seeds users, projects with units, sample leads, tasks, and targets
package seed

import (
	"time"

	"github.com/harperreed/stately/mirror"
	"github.com/harperreed/stately/models"
)

const (
	AdminID  = "admin-0"
	Sales1ID = "user-1710000000001"
	Sales2ID = "user-1710000000002"
)

// Snapshot builds the demo dataset. Identifiers use the local patterns on
// purpose so the identity reconciliation path has something to remap once a
// remote sync issues canonical ids.
func Snapshot() *mirror.Snapshot {
	now := time.Now()
	ptr := func(s string) *string { return &s }

	users := []models.User{
		{ID: AdminID, Name: "Asha Verma", Role: models.RoleAdmin},
		{ID: Sales1ID, Name: "Rohit Mehta", Role: models.RoleSalesperson},
		{ID: Sales2ID, Name: "Priya Nair", Role: models.RoleSalesperson},
	}

	projects := []models.Project{
		{
			ID:   "proj-lakeview",
			Name: "Lakeview Residences",
			Units: []models.Unit{
				{ID: "LV-101", Number: "101", Status: models.UnitAvailable},
				{ID: "LV-102", Number: "102", Status: models.UnitAvailable},
				{ID: "LV-201", Number: "201", Status: models.UnitHold},
				{ID: "LV-202", Number: "202", Status: models.UnitBlocked},
			},
		},
		{
			ID:   "proj-skyline",
			Name: "Skyline Towers",
			Units: []models.Unit{
				{ID: "ST-A1", Number: "A-1", Status: models.UnitAvailable},
				{ID: "ST-A2", Number: "A-2", Status: models.UnitAvailable},
				{ID: "ST-B1", Number: "B-1", Status: models.UnitBooked},
			},
		},
	}

	leads := []models.Lead{
		{
			ID:                    models.NewLocalLeadID(now.Add(-72 * time.Hour)),
			Name:                  "Vikram Singh",
			Mobile:                "9810001001",
			Email:                 "vikram@example.com",
			Status:                models.StatusNew,
			AssignedSalespersonID: ptr(Sales1ID),
			LeadDate:              now.Add(-72 * time.Hour),
			LastActivityDate:      now.Add(-48 * time.Hour),
			VisitStatus:           models.VisitNo,
			ModeOfEnquiry:         "Walk-in",
			Source:                "website",
			Project:               "Lakeview Residences",
		},
		{
			ID:                    models.NewLocalLeadID(now.Add(-36 * time.Hour)),
			Name:                  "Sneha Kulkarni",
			Mobile:                "9810001002",
			Status:                models.StatusQualified,
			AssignedSalespersonID: ptr(Sales2ID),
			LeadDate:              now.Add(-36 * time.Hour),
			LastActivityDate:      now.Add(-12 * time.Hour),
			VisitStatus:           models.VisitScheduled,
			Temperature:           "Warm",
			ModeOfEnquiry:         "Phone",
			Source:                "referral",
			Project:               "Skyline Towers",
		},
		{
			ID:               models.NewLocalLeadID(now.Add(-2 * time.Hour)),
			Name:             "Arjun Rao",
			Mobile:           "9810001003",
			Status:           models.StatusNew,
			LeadDate:         now.Add(-2 * time.Hour),
			LastActivityDate: now.Add(-2 * time.Hour),
			VisitStatus:      models.VisitNo,
			ModeOfEnquiry:    "Website",
			Source:           "website",
		},
	}

	reminder := now.Add(4 * time.Hour)
	tasks := []models.Task{
		{
			ID:           "task-1",
			Title:        "Call back Vikram about Lakeview 102",
			AssignedToID: Sales1ID,
			DueDate:      now.Add(24 * time.Hour),
			CreatedBy:    "Asha Verma",
			ReminderDate: &reminder,
		},
		{
			ID:           "task-2",
			Title:        "Send Skyline brochure to Sneha",
			AssignedToID: Sales2ID,
			DueDate:      now.Add(48 * time.Hour),
			CreatedBy:    "Asha Verma",
		},
	}

	month := now.Format("2006-01")
	targets := []models.SalesTarget{
		{SalespersonID: Sales1ID, Month: month, TargetUnits: 3},
		{SalespersonID: Sales2ID, Month: month, TargetUnits: 2},
	}

	return &mirror.Snapshot{
		Leads:    leads,
		Users:    users,
		Tasks:    tasks,
		Projects: projects,
		Targets:  targets,
	}
}
