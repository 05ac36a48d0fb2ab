// ABOUTME: Lead database operations for the lead service
// ABOUTME: Handles list, create, partial update, and delete with tri-state assignment
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/stately/models"
)

// LeadPatch is a partial update. Pointer-plus-presence keeps the three
// assignment states apart: key absent (leave alone), explicit null (clear),
// and a value (assign). Empty string is stored as empty string.
type LeadPatch struct {
	Status                *string
	NextFollowUpDate      *time.Time
	Temperature           *string
	VisitStatus           *string
	VisitDate             *time.Time
	LastRemark            *string
	BookedProject         *string
	BookedUnitID          *string
	BookedUnitNumber      *string
	IsRead                *bool
	AssignedSalespersonID *string
	AssignedSet           bool
}

const leadColumns = `id, name, mobile, email, status, assigned_salesperson_id,
	lead_date, last_activity_date, next_follow_up_date, contact_date,
	visit_status, visit_date, temperature, mode_of_enquiry, source, project,
	remarks, last_remark, booked_project, booked_unit_id, booked_unit_number,
	is_read, missed_visits_count`

func ListLeads(db *sql.DB) ([]models.RawLead, error) {
	rows, err := db.Query(`SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []models.RawLead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

func GetLead(db *sql.DB, id string) (*models.RawLead, error) {
	row := db.QueryRow(`SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// CreateLead stores a lead under a service-issued identifier, regardless of
// any locally-minted identifier the caller sends. The client's merge matches
// the two copies up by mobile number later.
func CreateLead(db *sql.DB, lead models.Lead) (*models.RawLead, error) {
	id := uuid.New().String()
	now := time.Now()

	leadDate := lead.LeadDate
	if leadDate.IsZero() {
		leadDate = now
	}
	status := lead.Status
	if status == "" {
		status = models.StatusNew
	}

	var assigned interface{}
	if lead.AssignedSalespersonID != nil {
		assigned = *lead.AssignedSalespersonID
	}

	_, err := db.Exec(`
		INSERT INTO leads (id, name, mobile, email, status, assigned_salesperson_id,
			lead_date, last_activity_date, visit_status, temperature, mode_of_enquiry,
			source, project, remarks, last_remark, is_read, missed_visits_count,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, lead.Name, lead.Mobile, lead.Email, string(status), assigned,
		leadDate, now, string(orVisit(lead.VisitStatus)), lead.Temperature,
		orDefault(lead.ModeOfEnquiry, "Website"), orDefault(lead.Source, "website"),
		lead.Project, lead.Remarks, lead.LastRemark, lead.IsRead, lead.MissedVisitsCount,
		now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	return GetLead(db, id)
}

// UpdateLead applies a partial update and returns the updated row.
func UpdateLead(db *sql.DB, id string, patch LeadPatch) (*models.RawLead, error) {
	var sets []string
	var args []interface{}

	add := func(col string, val interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}

	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.NextFollowUpDate != nil {
		add("next_follow_up_date", *patch.NextFollowUpDate)
	}
	if patch.Temperature != nil {
		add("temperature", *patch.Temperature)
	}
	if patch.VisitStatus != nil {
		add("visit_status", *patch.VisitStatus)
	}
	if patch.VisitDate != nil {
		add("visit_date", *patch.VisitDate)
	}
	if patch.LastRemark != nil {
		add("last_remark", *patch.LastRemark)
	}
	if patch.BookedProject != nil {
		add("booked_project", *patch.BookedProject)
	}
	if patch.BookedUnitID != nil {
		add("booked_unit_id", *patch.BookedUnitID)
	}
	if patch.BookedUnitNumber != nil {
		add("booked_unit_number", *patch.BookedUnitNumber)
	}
	if patch.IsRead != nil {
		add("is_read", *patch.IsRead)
	}
	if patch.AssignedSet {
		if patch.AssignedSalespersonID == nil {
			add("assigned_salesperson_id", nil)
		} else {
			add("assigned_salesperson_id", *patch.AssignedSalespersonID)
		}
	}
	add("last_activity_date", time.Now())
	add("updated_at", time.Now())

	args = append(args, id)
	res, err := db.Exec(`UPDATE leads SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil, nil
	}

	return GetLead(db, id)
}

func DeleteLead(db *sql.DB, id string) error {
	_, err := db.Exec(`DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (*models.RawLead, error) {
	var lead models.RawLead
	var email, assigned, temperature, modeOfEnquiry, source, project sql.NullString
	var remarks, lastRemark, bookedProject, bookedUnitID, bookedUnitNumber sql.NullString
	var status, visitStatus sql.NullString
	var leadDate, lastActivity, nextFollowUp, contactDate, visitDate sql.NullTime
	var isRead sql.NullBool
	var missed sql.NullInt64

	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Mobile, &email, &status, &assigned,
		&leadDate, &lastActivity, &nextFollowUp, &contactDate,
		&visitStatus, &visitDate, &temperature, &modeOfEnquiry, &source, &project,
		&remarks, &lastRemark, &bookedProject, &bookedUnitID, &bookedUnitNumber,
		&isRead, &missed,
	)
	if err != nil {
		return nil, err
	}

	lead.Email = email.String
	if status.Valid {
		s := models.LeadStatus(status.String)
		lead.Status = &s
	}
	if assigned.Valid {
		v := assigned.String
		lead.AssignedSalespersonID = &v
	}
	if leadDate.Valid {
		lead.LeadDate = &leadDate.Time
	}
	if lastActivity.Valid {
		lead.LastActivityDate = &lastActivity.Time
	}
	if nextFollowUp.Valid {
		lead.NextFollowUpDate = &nextFollowUp.Time
	}
	if contactDate.Valid {
		lead.ContactDate = &contactDate.Time
	}
	if visitStatus.Valid {
		v := models.VisitStatus(visitStatus.String)
		lead.VisitStatus = &v
	}
	if visitDate.Valid {
		lead.VisitDate = &visitDate.Time
	}
	lead.Temperature = temperature.String
	if modeOfEnquiry.Valid {
		lead.ModeOfEnquiry = &modeOfEnquiry.String
	}
	if source.Valid {
		lead.Source = &source.String
	}
	lead.Project = project.String
	lead.Remarks = remarks.String
	if lastRemark.Valid {
		lead.LastRemark = &lastRemark.String
	}
	lead.BookedProject = bookedProject.String
	lead.BookedUnitID = bookedUnitID.String
	lead.BookedUnitNumber = bookedUnitNumber.String
	if isRead.Valid {
		lead.IsRead = &isRead.Bool
	}
	if missed.Valid {
		v := int(missed.Int64)
		lead.MissedVisitsCount = &v
	}
	return &lead, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func orVisit(v models.VisitStatus) models.VisitStatus {
	if v == "" {
		return models.VisitNo
	}
	return v
}
