// ABOUTME: Tests for remote lead normalization
// ABOUTME: Covers field defaulting and the null vs empty assignment asymmetry
package models

import (
	"testing"
	"time"
)

func TestNormalizeRemoteLeadDefaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	lead := NormalizeRemoteLead(RawLead{ID: "abc", Name: "Vikram", Mobile: "9810001001"}, now)

	if lead.Status != StatusNew {
		t.Errorf("expected default status New, got %s", lead.Status)
	}
	if !lead.LeadDate.Equal(now) || !lead.LastActivityDate.Equal(now) {
		t.Errorf("expected missing dates to default to now")
	}
	if lead.ModeOfEnquiry != "Website" {
		t.Errorf("expected default modeOfEnquiry Website, got %s", lead.ModeOfEnquiry)
	}
	if lead.VisitStatus != VisitNo {
		t.Errorf("expected default visitStatus No, got %s", lead.VisitStatus)
	}
	if lead.Source != "website" {
		t.Errorf("expected default source website, got %s", lead.Source)
	}
	if lead.IsRead {
		t.Error("expected isRead to default to false")
	}
	if lead.MissedVisitsCount != 0 {
		t.Errorf("expected missedVisitsCount 0, got %d", lead.MissedVisitsCount)
	}
}

func TestNormalizeRemoteLeadKeepsProvidedFields(t *testing.T) {
	now := time.Now()
	status := StatusNegotiation
	visit := VisitDone
	mode := "Phone"
	source := "referral"
	isRead := true
	missed := 2
	leadDate := now.Add(-48 * time.Hour)

	lead := NormalizeRemoteLead(RawLead{
		ID:                "abc",
		Status:            &status,
		VisitStatus:       &visit,
		ModeOfEnquiry:     &mode,
		Source:            &source,
		IsRead:            &isRead,
		MissedVisitsCount: &missed,
		LeadDate:          &leadDate,
	}, now)

	if lead.Status != StatusNegotiation {
		t.Errorf("expected Negotiation, got %s", lead.Status)
	}
	if lead.VisitStatus != VisitDone {
		t.Errorf("expected Done, got %s", lead.VisitStatus)
	}
	if lead.ModeOfEnquiry != "Phone" || lead.Source != "referral" {
		t.Errorf("expected provided enquiry/source kept, got %s/%s", lead.ModeOfEnquiry, lead.Source)
	}
	if !lead.IsRead || lead.MissedVisitsCount != 2 {
		t.Errorf("expected isRead/missed kept")
	}
	if !lead.LeadDate.Equal(leadDate) {
		t.Errorf("expected provided leadDate kept")
	}
}

func TestNormalizeAssignmentNullEmptyAsymmetry(t *testing.T) {
	now := time.Now()
	empty := ""
	assigned := "uuid-abc"

	tests := []struct {
		name string
		in   *string
		want *string
	}{
		{"null stays null", nil, nil},
		{"empty string passes through", &empty, &empty},
		{"value passes through", &assigned, &assigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := NormalizeRemoteLead(RawLead{ID: "x", AssignedSalespersonID: tt.in}, now)
			got := lead.AssignedSalespersonID
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected nil assignment, got %q", *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected %q, got nil", *tt.want)
			}
			if *got != *tt.want {
				t.Fatalf("expected %q, got %q", *tt.want, *got)
			}
			if tt.in == got {
				t.Fatal("expected a copied pointer, not the input pointer")
			}
		})
	}
}

func TestNormalizeLastRemarkFallsBackToRemarks(t *testing.T) {
	now := time.Now()

	lead := NormalizeRemoteLead(RawLead{ID: "x", Remarks: "raw note"}, now)
	if lead.LastRemark != "raw note" {
		t.Errorf("expected lastRemark to fall back to remarks, got %q", lead.LastRemark)
	}

	remark := "latest"
	lead = NormalizeRemoteLead(RawLead{ID: "x", Remarks: "raw note", LastRemark: &remark}, now)
	if lead.LastRemark != "latest" {
		t.Errorf("expected explicit lastRemark to win, got %q", lead.LastRemark)
	}
}
