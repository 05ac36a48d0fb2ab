// ABOUTME: Remote lead normalization
// ABOUTME: Converts raw service payloads into fully-populated Lead values
package models

import "time"

// RawLead is a lead exactly as the remote service sent it. Pointer fields
// distinguish "value absent or JSON null" from a real zero value, which the
// normalization rules below depend on.
type RawLead struct {
	ID                    string       `json:"id"`
	Name                  string       `json:"name"`
	Mobile                string       `json:"mobile"`
	Email                 string       `json:"email,omitempty"`
	Status                *LeadStatus  `json:"status"`
	AssignedSalespersonID *string      `json:"assignedSalespersonId"`
	LeadDate              *time.Time   `json:"leadDate"`
	LastActivityDate      *time.Time   `json:"lastActivityDate"`
	NextFollowUpDate      *time.Time   `json:"nextFollowUpDate"`
	ContactDate           *time.Time   `json:"contactDate"`
	VisitStatus           *VisitStatus `json:"visitStatus"`
	VisitDate             *time.Time   `json:"visitDate"`
	Temperature           string       `json:"temperature,omitempty"`
	ModeOfEnquiry         *string      `json:"modeOfEnquiry"`
	Source                *string      `json:"source"`
	Project               string       `json:"project,omitempty"`
	Remarks               string       `json:"remarks,omitempty"`
	LastRemark            *string      `json:"lastRemark"`
	BookedProject         string       `json:"bookedProject,omitempty"`
	BookedUnitID          string       `json:"bookedUnitId,omitempty"`
	BookedUnitNumber      string       `json:"bookedUnitNumber,omitempty"`
	IsRead                *bool        `json:"isRead"`
	MissedVisitsCount     *int         `json:"missedVisitsCount"`
}

// NormalizeRemoteLead fills in every field the remote service may omit.
//
// AssignedSalespersonID is copied through as-is: null/absent stays nil, but
// an explicit empty string is kept as an empty string. Collapsing "" into
// nil would un-clear a deliberately cleared assignment, so the asymmetry is
// load-bearing (and covered by tests).
func NormalizeRemoteLead(raw RawLead, now time.Time) Lead {
	lead := Lead{
		ID:                    raw.ID,
		Name:                  raw.Name,
		Mobile:                raw.Mobile,
		Email:                 raw.Email,
		Status:                StatusNew,
		AssignedSalespersonID: copyStringPtr(raw.AssignedSalespersonID),
		LeadDate:              now,
		LastActivityDate:      now,
		NextFollowUpDate:      copyTimePtr(raw.NextFollowUpDate),
		ContactDate:           copyTimePtr(raw.ContactDate),
		VisitStatus:           VisitNo,
		VisitDate:             copyTimePtr(raw.VisitDate),
		Temperature:           raw.Temperature,
		ModeOfEnquiry:         "Website",
		Source:                "website",
		Project:               raw.Project,
		Remarks:               raw.Remarks,
		LastRemark:            raw.Remarks,
		BookedProject:         raw.BookedProject,
		BookedUnitID:          raw.BookedUnitID,
		BookedUnitNumber:      raw.BookedUnitNumber,
	}

	if raw.Status != nil && *raw.Status != "" {
		lead.Status = *raw.Status
	}
	if raw.LeadDate != nil {
		lead.LeadDate = *raw.LeadDate
	}
	if raw.LastActivityDate != nil {
		lead.LastActivityDate = *raw.LastActivityDate
	}
	if raw.VisitStatus != nil && *raw.VisitStatus != "" {
		lead.VisitStatus = *raw.VisitStatus
	}
	if raw.ModeOfEnquiry != nil && *raw.ModeOfEnquiry != "" {
		lead.ModeOfEnquiry = *raw.ModeOfEnquiry
	}
	if raw.Source != nil && *raw.Source != "" {
		lead.Source = *raw.Source
	}
	if raw.LastRemark != nil && *raw.LastRemark != "" {
		lead.LastRemark = *raw.LastRemark
	}
	if raw.IsRead != nil {
		lead.IsRead = *raw.IsRead
	}
	if raw.MissedVisitsCount != nil {
		lead.MissedVisitsCount = *raw.MissedVisitsCount
	}

	return lead
}

func copyStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
