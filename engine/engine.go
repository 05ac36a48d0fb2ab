// ABOUTME: Core engine owning view state, the mirror, and the remote client
// ABOUTME: Exposes lead/task/activity operations used by the CLI and daemon
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/harperreed/stately/mirror"
	"github.com/harperreed/stately/models"
	"github.com/harperreed/stately/remote"
)

// Notice is a user-facing notification. Sticky notices correspond to the
// long-duration toasts the UI shows for actionable failures.
type Notice struct {
	Message string
	Sticky  bool
}

// Notifier receives user-facing notices.
type Notifier interface {
	Notify(Notice)
}

type logNotifier struct{}

func (logNotifier) Notify(n Notice) {
	if n.Sticky {
		log.Printf("notice (action required): %s", n.Message)
		return
	}
	log.Printf("notice: %s", n.Message)
}

// Engine glues the mirror store, the remote service, and the in-memory view
// state together. View state is a disposable cache rebuilt from the mirror
// and remote merges; the mirror is the only durable owner.
type Engine struct {
	mirror   *mirror.Store
	remote   *remote.Client
	notifier Notifier

	mu             sync.Mutex
	user           models.User
	generation     int
	leads          []models.Lead
	lastNotifCheck time.Time
}

// New creates an engine. A nil notifier falls back to log output.
func New(store *mirror.Store, client *remote.Client, notifier Notifier) *Engine {
	if notifier == nil {
		notifier = logNotifier{}
	}
	return &Engine{mirror: store, remote: client, notifier: notifier}
}

// SetUser switches the acting user. The generation bump invalidates any
// in-flight poll results belonging to the previous session.
func (e *Engine) SetUser(u models.User) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.user = u
	e.generation++
	e.leads = nil
	e.lastNotifCheck = time.Time{}
}

// CurrentUser returns the acting user.
func (e *Engine) CurrentUser() models.User {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.user
}

// Generation returns the current session generation.
func (e *Engine) Generation() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// Leads returns a copy of the current view-state lead list.
func (e *Engine) Leads() []models.Lead {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Lead, len(e.leads))
	copy(out, e.leads)
	return out
}

// VisibleLeads returns the acting user's slice of the view state.
func (e *Engine) VisibleLeads() []models.Lead {
	return VisibleLeads(e.Leads(), e.CurrentUser())
}

// VisibleTasks returns the acting user's tasks from the mirror.
func (e *Engine) VisibleTasks() []models.Task {
	return VisibleTasks(e.mirror.Snapshot().Tasks, e.CurrentUser())
}

// Snapshot exposes the mirror snapshot for read-only consumers.
func (e *Engine) Snapshot() *mirror.Snapshot {
	return e.mirror.Snapshot()
}

// Load performs the initial load: user sync with identity reconciliation,
// then the lead merge. Remote failures degrade to mirror-only state.
func (e *Engine) Load(ctx context.Context) {
	if err := e.syncUsersFromRemote(ctx); err != nil {
		log.Printf("engine: user sync skipped: %v", err)
	}
	if err := e.RefreshLeads(ctx); err != nil {
		log.Printf("engine: lead refresh fell back to mirror: %v", err)
	}
}

// RefreshLeads runs the merge engine once. On remote failure the mirror's
// lead list becomes the view state unchanged and the error is returned so
// interactive callers can report it; the poller swallows it.
func (e *Engine) RefreshLeads(ctx context.Context) error {
	return e.refreshLeads(ctx, e.Generation())
}

func (e *Engine) refreshLeads(ctx context.Context, gen int) error {
	raws, err := e.remote.ListLeads(ctx)
	now := time.Now()

	e.mu.Lock()
	stale := e.generation != gen
	e.mu.Unlock()
	if stale {
		return nil
	}

	if err != nil {
		e.setLeads(e.mirror.Snapshot().Leads, gen)
		return err
	}

	var merged []models.Lead
	if mErr := e.mirror.Mutate(func(snap *mirror.Snapshot) {
		merged = MergeLeads(raws, snap.Leads, now)
		snap.Leads = merged
	}); mErr != nil {
		return mErr
	}
	// View state gets its own copy; sharing the mirror's backing array would
	// let in-place view filtering corrupt the mirror (and vice versa).
	e.setLeads(append([]models.Lead(nil), merged...), gen)
	return nil
}

func (e *Engine) setLeads(leads []models.Lead, gen int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation != gen {
		return
	}
	e.leads = leads
}

func (e *Engine) replaceViewLead(lead models.Lead) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.leads {
		if e.leads[i].ID == lead.ID {
			e.leads[i] = lead
			return
		}
	}
	e.leads = append(e.leads, lead)
}

// SetLeadsFromMirror primes view state from the mirror without touching the
// remote service, for offline commands and initial paint.
func (e *Engine) SetLeadsFromMirror() {
	e.reloadViewFromMirror()
}

func (e *Engine) reloadViewFromMirror() {
	snap := e.mirror.Snapshot()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.leads = snap.Leads
}

// CreateLead mints a local identifier, inserts the lead optimistically, and
// pushes it to the service best-effort. A later merge reconciles the copy the
// service stored (matched by mobile) with this one.
func (e *Engine) CreateLead(ctx context.Context, lead models.Lead) (models.Lead, error) {
	if lead.Name == "" || lead.Mobile == "" {
		return models.Lead{}, fmt.Errorf("lead name and mobile are required")
	}

	now := time.Now()
	lead.ID = models.NewLocalLeadID(now)
	if lead.Status == "" {
		lead.Status = models.StatusNew
	}
	if lead.VisitStatus == "" {
		lead.VisitStatus = models.VisitNo
	}
	if lead.Source == "" {
		lead.Source = "website"
	}
	if lead.ModeOfEnquiry == "" {
		lead.ModeOfEnquiry = "Website"
	}
	lead.LeadDate = now
	lead.LastActivityDate = now
	if lead.AssignedSalespersonID != nil && *lead.AssignedSalespersonID == "" {
		lead.AssignedSalespersonID = nil
	}

	if err := e.mirror.Mutate(func(snap *mirror.Snapshot) {
		snap.Leads = append(snap.Leads, lead)
	}); err != nil {
		return models.Lead{}, err
	}
	e.replaceViewLead(lead)

	if _, err := e.remote.CreateLead(ctx, lead); err != nil {
		e.notifier.Notify(Notice{Message: "Lead saved locally; remote sync failed and will catch up on the next refresh."})
	}
	return lead, nil
}

// DeleteLead removes a lead. Only Admins may delete; the check runs before
// any mutation so a rejected call leaves no partial state.
func (e *Engine) DeleteLead(ctx context.Context, id string) error {
	user := e.CurrentUser()
	if user.Role != models.RoleAdmin {
		return &remote.Error{Kind: remote.KindUnauthorized, Message: "unauthorized: Admin role required to delete leads"}
	}

	if err := e.mirror.Mutate(func(snap *mirror.Snapshot) {
		kept := snap.Leads[:0]
		for _, l := range snap.Leads {
			if l.ID != id {
				kept = append(kept, l)
			}
		}
		snap.Leads = kept
	}); err != nil {
		return err
	}

	e.mu.Lock()
	kept := e.leads[:0]
	for _, l := range e.leads {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	e.leads = kept
	e.mu.Unlock()

	if err := e.remote.DeleteLead(ctx, id, user.Role); err != nil {
		e.notifier.Notify(Notice{Message: "Lead deleted locally; remote delete failed."})
	}
	return nil
}

// MarkLeadRead flips isRead on first open.
func (e *Engine) MarkLeadRead(id string) error {
	err := e.mirror.Mutate(func(snap *mirror.Snapshot) {
		for i := range snap.Leads {
			if snap.Leads[i].ID == id {
				snap.Leads[i].IsRead = true
				return
			}
		}
	})
	if err != nil {
		return err
	}
	e.mu.Lock()
	for i := range e.leads {
		if e.leads[i].ID == id {
			e.leads[i].IsRead = true
			break
		}
	}
	e.mu.Unlock()
	return nil
}

// AddTask stores a task in the mirror.
func (e *Engine) AddTask(task models.Task) error {
	if task.ID == "" {
		task.ID = models.NewTaskID()
	}
	return e.mirror.Mutate(func(snap *mirror.Snapshot) {
		snap.Tasks = append(snap.Tasks, task)
	})
}

// CompleteTask marks a task done.
func (e *Engine) CompleteTask(id string) error {
	return e.mirror.Mutate(func(snap *mirror.Snapshot) {
		for i := range snap.Tasks {
			if snap.Tasks[i].ID == id {
				snap.Tasks[i].IsCompleted = true
				return
			}
		}
	})
}

// AddActivity appends an audit entry for a lead.
func (e *Engine) AddActivity(activity models.Activity) error {
	if activity.ID == "" {
		activity.ID = models.NewActivityID()
	}
	if activity.Timestamp.IsZero() {
		activity.Timestamp = time.Now()
	}
	return e.mirror.Mutate(func(snap *mirror.Snapshot) {
		snap.Activities = append(snap.Activities, activity)
	})
}

// DeleteActivity removes a single audit entry by explicit user action.
// Activities are otherwise append-only.
func (e *Engine) DeleteActivity(id string) error {
	return e.mirror.Mutate(func(snap *mirror.Snapshot) {
		kept := snap.Activities[:0]
		for _, a := range snap.Activities {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		snap.Activities = kept
	})
}

func (e *Engine) userName(id string) string {
	for _, u := range e.mirror.Snapshot().Users {
		if u.ID == id {
			return u.Name
		}
	}
	// Dangling references render as Unassigned rather than failing.
	return "Unassigned"
}
