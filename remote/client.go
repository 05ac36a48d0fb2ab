// ABOUTME: HTTP client for the remote lead/user/notification service
// ABOUTME: Wraps every endpoint and returns classified errors
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harperreed/stately/models"
)

// LeadPatch is the partial-update body for PUT /leads/:id. Every field is
// optional except the assignment identifier, which is always serialized
// (as null when nil) so the service cannot silently keep a stale assignment.
type LeadPatch struct {
	Status                *models.LeadStatus  `json:"status,omitempty"`
	NextFollowUpDate      *time.Time          `json:"nextFollowUpDate,omitempty"`
	Temperature           *string             `json:"temperature,omitempty"`
	VisitStatus           *models.VisitStatus `json:"visitStatus,omitempty"`
	VisitDate             *time.Time          `json:"visitDate,omitempty"`
	LastRemark            *string             `json:"lastRemark,omitempty"`
	BookedProject         *string             `json:"bookedProject,omitempty"`
	BookedUnitID          *string             `json:"bookedUnitId,omitempty"`
	BookedUnitNumber      *string             `json:"bookedUnitNumber,omitempty"`
	IsRead                *bool               `json:"isRead,omitempty"`
	AssignedSalespersonID *string             `json:"assignedSalespersonId"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

type leadsResponse struct {
	Success bool             `json:"success"`
	Leads   []models.RawLead `json:"leads"`
}

type leadResponse struct {
	Success bool            `json:"success"`
	Lead    *models.RawLead `json:"lead"`
}

type usersResponse struct {
	Users []models.User `json:"users"`
}

type syncResponse struct {
	Synced int `json:"synced"`
}

type notificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
}

// ListLeads fetches the full authoritative lead snapshot.
func (c *Client) ListLeads(ctx context.Context) ([]models.RawLead, error) {
	var out leadsResponse
	if err := c.do(ctx, http.MethodGet, "/leads", nil, &out); err != nil {
		return nil, err
	}
	return out.Leads, nil
}

// UpdateLead sends a partial update. The returned lead may be nil when the
// service answers success without a body; callers fall back to a list
// re-fetch in that case.
func (c *Client) UpdateLead(ctx context.Context, id string, patch LeadPatch) (*models.RawLead, error) {
	var out leadResponse
	if err := c.do(ctx, http.MethodPut, "/leads/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return out.Lead, nil
}

// CreateLead pushes a locally-created lead to the service.
func (c *Client) CreateLead(ctx context.Context, lead models.Lead) (*models.RawLead, error) {
	var out leadResponse
	if err := c.do(ctx, http.MethodPost, "/leads", lead, &out); err != nil {
		return nil, err
	}
	return out.Lead, nil
}

// DeleteLead removes a lead. The caller's role rides along as a query
// parameter; the service enforces the Admin gate.
func (c *Client) DeleteLead(ctx context.Context, id string, role models.Role) error {
	path := "/leads/" + url.PathEscape(id) + "?role=" + url.QueryEscape(string(role))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ListUsers fetches the canonical user list.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var out usersResponse
	if err := c.do(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// SyncUsers pushes the local user list so the service can mint canonical
// identifiers. Returns the number of users synced.
func (c *Client) SyncUsers(ctx context.Context, users []models.User) (int, error) {
	var out syncResponse
	if err := c.do(ctx, http.MethodPost, "/users/sync", users, &out); err != nil {
		return 0, err
	}
	return out.Synced, nil
}

// ListNotifications polls for notifications newer than lastChecked.
func (c *Client) ListNotifications(ctx context.Context, userID string, role models.Role, lastChecked time.Time) ([]models.Notification, error) {
	q := url.Values{}
	q.Set("userId", userID)
	q.Set("role", string(role))
	if !lastChecked.IsZero() {
		q.Set("lastChecked", lastChecked.Format(time.RFC3339))
	}
	var out notificationsResponse
	if err := c.do(ctx, http.MethodGet, "/notifications?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil)
}

type errorBody struct {
	Err     string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Message != "" {
			msg = eb.Message
		}
		if msg == "" {
			msg = resp.Status
		}
		kind, resource := classifyMessage(msg)
		return &Error{Kind: kind, Resource: resource, Message: msg}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{Kind: KindUnknown, Message: fmt.Sprintf("malformed response: %v", err)}
		}
	}
	return nil
}
