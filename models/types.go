// ABOUTME: Data models for CRM entities
// ABOUTME: Defines Lead, User, Activity, Task, Project/Unit, and Notification structs
package models

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin       Role = "Admin"
	RoleSalesperson Role = "Salesperson"
)

type LeadStatus string

const (
	StatusNew                LeadStatus = "New"
	StatusContacted          LeadStatus = "Contacted"
	StatusQualified          LeadStatus = "Qualified"
	StatusDisqualified       LeadStatus = "Disqualified"
	StatusSiteVisitPending   LeadStatus = "Site Visit Pending"
	StatusSiteVisitScheduled LeadStatus = "Site Visit Scheduled"
	StatusSiteVisitDone      LeadStatus = "Site Visit Done"
	StatusProposalSent       LeadStatus = "Proposal Sent"
	StatusProposalFinalized  LeadStatus = "Proposal Finalized"
	StatusNegotiation        LeadStatus = "Negotiation"
	StatusBooking            LeadStatus = "Booking"
	StatusBooked             LeadStatus = "Booked"
	StatusLost               LeadStatus = "Lost"
	StatusCancelled          LeadStatus = "Cancelled"
)

// IsBookingStatus reports whether a status represents a booked or in-booking lead.
func IsBookingStatus(s LeadStatus) bool {
	return s == StatusBooking || s == StatusBooked
}

type VisitStatus string

const (
	VisitNo        VisitStatus = "No"
	VisitScheduled VisitStatus = "Scheduled"
	VisitDone      VisitStatus = "Done"
	VisitMissed    VisitStatus = "Missed"
)

type ActivityType string

const (
	ActivityCall     ActivityType = "Call"
	ActivityVisit    ActivityType = "Visit"
	ActivityNote     ActivityType = "Note"
	ActivityEmail    ActivityType = "Email"
	ActivityWhatsApp ActivityType = "WhatsApp"
)

type UnitStatus string

const (
	UnitAvailable UnitStatus = "Available"
	UnitBooked    UnitStatus = "Booked"
	UnitHold      UnitStatus = "Hold"
	UnitBlocked   UnitStatus = "Blocked"
)

// Lead is a sales lead. AssignedSalespersonID is a pointer on purpose:
// nil means unassigned (JSON null / absent), while a pointer to "" is the
// distinct "explicitly cleared" value that the merge path preserves as-is.
type Lead struct {
	ID                    string      `json:"id"`
	Name                  string      `json:"name"`
	Mobile                string      `json:"mobile"`
	Email                 string      `json:"email,omitempty"`
	Status                LeadStatus  `json:"status"`
	AssignedSalespersonID *string     `json:"assignedSalespersonId"`
	LeadDate              time.Time   `json:"leadDate"`
	LastActivityDate      time.Time   `json:"lastActivityDate"`
	NextFollowUpDate      *time.Time  `json:"nextFollowUpDate,omitempty"`
	ContactDate           *time.Time  `json:"contactDate,omitempty"`
	VisitStatus           VisitStatus `json:"visitStatus"`
	VisitDate             *time.Time  `json:"visitDate,omitempty"`
	Temperature           string      `json:"temperature,omitempty"`
	ModeOfEnquiry         string      `json:"modeOfEnquiry"`
	Source                string      `json:"source"`
	Project               string      `json:"project,omitempty"`
	Remarks               string      `json:"remarks,omitempty"`
	LastRemark            string      `json:"lastRemark,omitempty"`
	BookedProject         string      `json:"bookedProject,omitempty"`
	BookedUnitID          string      `json:"bookedUnitId,omitempty"`
	BookedUnitNumber      string      `json:"bookedUnitNumber,omitempty"`
	IsRead                bool        `json:"isRead"`
	MissedVisitsCount     int         `json:"missedVisitsCount"`
}

// Assigned reports whether the lead carries a usable assignment. Both nil and
// the cleared empty string count as unassigned for visibility purposes.
func (l *Lead) Assigned() bool {
	return l.AssignedSalespersonID != nil && *l.AssignedSalespersonID != ""
}

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Activity is an append-only audit entry. Never mutated after creation,
// only deleted individually by explicit user action.
type Activity struct {
	ID            string       `json:"id"`
	LeadID        string       `json:"leadId"`
	SalespersonID string       `json:"salespersonId"`
	Type          ActivityType `json:"type"`
	Timestamp     time.Time    `json:"timestamp"`
	Remarks       string       `json:"remarks,omitempty"`
	// Duration in minutes, meaningful only for Call activities.
	Duration *int `json:"duration,omitempty"`
}

type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	AssignedToID string     `json:"assignedToId"`
	DueDate      time.Time  `json:"dueDate"`
	IsCompleted  bool       `json:"isCompleted"`
	CreatedBy    string     `json:"createdBy"` // display name, not identifier
	ReminderDate *time.Time `json:"reminderDate,omitempty"`
	HasReminded  bool       `json:"hasReminded"`
}

type Unit struct {
	ID     string     `json:"id"`
	Number string     `json:"number"`
	Status UnitStatus `json:"status"`
}

type Project struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Units []Unit `json:"units"`
}

type SalesTarget struct {
	SalespersonID string `json:"salespersonId"`
	Month         string `json:"month"` // YYYY-MM
	TargetUnits   int    `json:"targetUnits"`
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewLocalLeadID mints a lead identifier for leads created before the remote
// service has seen them.
func NewLocalLeadID(now time.Time) string {
	return fmt.Sprintf("lead-%d", now.UnixMilli())
}

// NewLocalUserID mints a user identifier for locally-created users.
func NewLocalUserID(now time.Time) string {
	return fmt.Sprintf("user-%d", now.UnixMilli())
}

// IsLocalLeadID reports whether an identifier was minted locally rather than
// issued by the remote service.
func IsLocalLeadID(id string) bool {
	return strings.HasPrefix(id, "lead-")
}

// IsLocalUserID reports whether a user identifier was minted locally.
// Seed admins use the admin- prefix, everyone else user-.
func IsLocalUserID(id string) bool {
	return strings.HasPrefix(id, "user-") || strings.HasPrefix(id, "admin-")
}
