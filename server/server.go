// ABOUTME: HTTP service exposing lead, user sync, and notification endpoints
// ABOUTME: Emits the exact error signatures the client's retry branching reads
package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/harperreed/stately/models"
	"github.com/harperreed/stately/store"
)

type Server struct {
	db *sql.DB
}

// NewRouter wires all routes for the lead service.
func NewRouter(db *sql.DB) http.Handler {
	s := &Server{db: db}
	limiter := newIPRateLimiter(rate.Limit(20), 50, 5*time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(limiter.middleware)

		r.Get("/leads", s.handleListLeads)
		r.Post("/leads", s.handleCreateLead)
		r.Put("/leads/{id}", s.handleUpdateLead)
		r.Delete("/leads/{id}", s.handleDeleteLead)

		r.Get("/users", s.handleListUsers)
		r.Post("/users/sync", s.handleSyncUsers)

		r.Get("/notifications", s.handleListNotifications)
		r.Post("/notifications/{id}/read", s.handleMarkNotificationRead)
		r.Delete("/notifications/{id}", s.handleDeleteNotification)
	})

	return r
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := store.ListLeads(s.db)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if leads == nil {
		leads = []models.RawLead{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "leads": leads})
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var lead models.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if lead.Name == "" || lead.Mobile == "" {
		writeError(w, http.StatusBadRequest, "validation", "name and mobile are required")
		return
	}

	created, err := store.CreateLead(s.db, lead)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	if created.AssignedSalespersonID != nil && *created.AssignedSalespersonID != "" {
		_ = store.CreateNotification(s.db, *created.AssignedSalespersonID,
			"New lead assigned", fmt.Sprintf("%s (%s) was assigned to you", created.Name, created.Mobile))
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "lead": created})
}

// handleUpdateLead applies a partial update. Presence of each key matters:
// an assignedSalespersonId key set to null clears the assignment, while an
// absent key leaves it untouched.
func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	patch, err := patchFromBody(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", fmt.Sprintf("invalid field value: %v", err))
		return
	}

	if patch.AssignedSet && patch.AssignedSalespersonID != nil && *patch.AssignedSalespersonID != "" {
		assignee := *patch.AssignedSalespersonID
		exists, err := store.UserExists(s.db, assignee)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if !exists && models.IsLocalUserID(assignee) {
			writeError(w, http.StatusBadRequest, "unsynced_user",
				fmt.Sprintf("Assigned salesperson %s is a local ID that hasn't been synced to the server. Sync users and retry.", assignee))
			return
		}
	}

	prev, err := store.GetLead(s.db, id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if prev == nil {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("lead %s not found", id))
		return
	}

	updated, err := store.UpdateLead(s.db, id, patch)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	if patch.AssignedSet && patch.AssignedSalespersonID != nil && *patch.AssignedSalespersonID != "" {
		prevAssignee := ""
		if prev.AssignedSalespersonID != nil {
			prevAssignee = *prev.AssignedSalespersonID
		}
		if *patch.AssignedSalespersonID != prevAssignee {
			_ = store.CreateNotification(s.db, *patch.AssignedSalespersonID,
				"Lead assigned", fmt.Sprintf("%s was assigned to you", updated.Name))
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "lead": updated})
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	if models.Role(r.URL.Query().Get("role")) != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "unauthorized", "unauthorized: Admin role required to delete leads")
		return
	}
	if err := store.DeleteLead(s.db, chi.URLParam(r, "id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(s.db)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (s *Server) handleSyncUsers(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := json.NewDecoder(r.Body).Decode(&users); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	synced, err := store.SyncUsers(s.db, users)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"synced": synced})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	var lastChecked time.Time
	if raw := r.URL.Query().Get("lastChecked"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			lastChecked = t
		}
	}
	notifs, err := store.ListNotifications(s.db, userID, lastChecked)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if notifs == nil {
		notifs = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifs})
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := store.MarkNotificationRead(s.db, chi.URLParam(r, "id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteNotification(s.db, chi.URLParam(r, "id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// writeStoreError maps database failures to API errors. A missing table gets
// the schema-cache wording clients key their no-retry branch on.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	msg := err.Error()
	if idx := strings.Index(msg, "no such table: "); idx >= 0 {
		table := strings.TrimSpace(msg[idx+len("no such table: "):])
		writeError(w, http.StatusNotFound, "schema_missing",
			fmt.Sprintf("Could not find the table 'public.%s' in the schema cache", table))
		return
	}
	writeError(w, http.StatusInternalServerError, "internal", msg)
}

func patchFromBody(body map[string]json.RawMessage) (store.LeadPatch, error) {
	var patch store.LeadPatch

	if raw, ok := body["status"]; ok {
		if err := json.Unmarshal(raw, &patch.Status); err != nil {
			return patch, err
		}
	}
	if raw, ok := body["nextFollowUpDate"]; ok {
		if err := json.Unmarshal(raw, &patch.NextFollowUpDate); err != nil {
			return patch, err
		}
	}
	if raw, ok := body["temperature"]; ok {
		if err := json.Unmarshal(raw, &patch.Temperature); err != nil {
			return patch, err
		}
	}
	if raw, ok := body["visitStatus"]; ok {
		if err := json.Unmarshal(raw, &patch.VisitStatus); err != nil {
			return patch, err
		}
	}
	if raw, ok := body["visitDate"]; ok {
		if err := json.Unmarshal(raw, &patch.VisitDate); err != nil {
			return patch, err
		}
	}
	if raw, ok := body["lastRemark"]; ok {
		if err := json.Unmarshal(raw, &patch.LastRemark); err != nil {
			return patch, err
		}
	}
	if raw, ok := body["bookedProject"]; ok {
		if err := json.Unmarshal(raw, &patch.BookedProject); err != nil {
			return patch, err
		}
	}
	if raw, ok := body["bookedUnitId"]; ok {
		if err := json.Unmarshal(raw, &patch.BookedUnitID); err != nil {
			return patch, err
		}
	}
	if raw, ok := body["bookedUnitNumber"]; ok {
		if err := json.Unmarshal(raw, &patch.BookedUnitNumber); err != nil {
			return patch, err
		}
	}
	if raw, ok := body["isRead"]; ok {
		if err := json.Unmarshal(raw, &patch.IsRead); err != nil {
			return patch, err
		}
	}
	if raw, ok := body["assignedSalespersonId"]; ok {
		patch.AssignedSet = true
		if err := json.Unmarshal(raw, &patch.AssignedSalespersonID); err != nil {
			return patch, err
		}
	}
	return patch, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
