// ABOUTME: Tests for the remote service client
// ABOUTME: Covers patch serialization and error decoding
package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/stately/models"
)

func TestLeadPatchAlwaysSerializesAssignment(t *testing.T) {
	raw, err := json.Marshal(LeadPatch{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"assignedSalespersonId":null}`, string(raw),
		"a nil assignment must serialize as an explicit null, never be omitted")

	id := "uuid-abc"
	raw, err = json.Marshal(LeadPatch{AssignedSalespersonID: &id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"assignedSalespersonId":"uuid-abc"}`, string(raw))
}

func TestUpdateLeadDecodesClassifiedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "unsynced_user",
			"message": "Assigned salesperson user-1 is a local ID that hasn't been synced to the server. Sync users and retry.",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.UpdateLead(context.Background(), "r1", LeadPatch{})

	re := AsError(err)
	require.NotNil(t, re)
	assert.Equal(t, KindUnsyncedIdentity, re.Kind)
	assert.Contains(t, re.Message, "Sync users and retry")
}

func TestClientNetworkFailureIsKindNetwork(t *testing.T) {
	// A closed server guarantees a transport-level failure.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.ListLeads(context.Background())

	re := AsError(err)
	require.NotNil(t, re)
	assert.Equal(t, KindNetwork, re.Kind)
}

func TestDeleteLeadSendsRoleQuery(t *testing.T) {
	var gotRole string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole = r.URL.Query().Get("role")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	require.NoError(t, c.DeleteLead(context.Background(), "r1", models.RoleAdmin))
	assert.Equal(t, "Admin", gotRole)
}

func TestListLeadsDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"leads":[{"id":"r1","name":"Vikram","mobile":"111","assignedSalespersonId":null}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	leads, err := c.ListLeads(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "r1", leads[0].ID)
	assert.Nil(t, leads[0].AssignedSalespersonID)
}
