// ABOUTME: Background pollers for lead refresh, notifications, and reminders
// ABOUTME: Three independent tickers, last write wins, stale results dropped
package engine

import (
	"context"
	"time"

	"github.com/harperreed/stately/mirror"
	"github.com/harperreed/stately/models"
)

// PollConfig holds the three ticker periods. The defaults mirror the UI's
// behavior: leads every 30s so webhook-created leads appear without a manual
// refresh, notifications every 5s, reminders every 10s.
type PollConfig struct {
	LeadRefresh   time.Duration
	Notifications time.Duration
	Reminders     time.Duration
}

// DefaultPollConfig returns the standard periods.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		LeadRefresh:   30 * time.Second,
		Notifications: 5 * time.Second,
		Reminders:     10 * time.Second,
	}
}

// RunPollers blocks until ctx is cancelled, running the three timers. The
// timers are intentionally unsynchronized with each other and with user
// mutations; overlaps resolve as last write observed wins. Each tick carries
// the generation it started under, so a response landing after a user switch
// is discarded instead of clobbering the new session's state.
func (e *Engine) RunPollers(ctx context.Context, cfg PollConfig) {
	leadTicker := time.NewTicker(cfg.LeadRefresh)
	notifTicker := time.NewTicker(cfg.Notifications)
	reminderTicker := time.NewTicker(cfg.Reminders)
	defer leadTicker.Stop()
	defer notifTicker.Stop()
	defer reminderTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-leadTicker.C:
			// Background refresh failures stay silent; intermittent service
			// outages must not produce a stream of user-facing errors.
			_ = e.refreshLeads(ctx, e.Generation())
		case <-notifTicker.C:
			e.pollNotifications(ctx, e.Generation())
		case <-reminderTicker.C:
			e.checkReminders(e.Generation())
		}
	}
}

func (e *Engine) pollNotifications(ctx context.Context, gen int) {
	e.mu.Lock()
	user := e.user
	since := e.lastNotifCheck
	e.mu.Unlock()
	if user.ID == "" {
		return
	}

	notifs, err := e.remote.ListNotifications(ctx, user.ID, user.Role, since)
	if err != nil {
		return
	}

	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		return
	}
	e.lastNotifCheck = time.Now()
	e.mu.Unlock()

	for _, n := range notifs {
		if !n.IsRead {
			e.notifier.Notify(Notice{Message: n.Title + ": " + n.Message})
		}
	}
}

// checkReminders fires each due task reminder exactly once. hasReminded is
// persisted through the mirror so a reload cannot re-notify.
func (e *Engine) checkReminders(gen int) {
	user := e.CurrentUser()
	now := time.Now()

	var due []string
	err := e.mirror.Mutate(func(snap *mirror.Snapshot) {
		for i := range snap.Tasks {
			t := &snap.Tasks[i]
			if t.IsCompleted || t.HasReminded || t.ReminderDate == nil {
				continue
			}
			if t.ReminderDate.After(now) {
				continue
			}
			if user.Role != "" && user.Role != models.RoleAdmin && t.AssignedToID != user.ID {
				continue
			}
			t.HasReminded = true
			due = append(due, t.Title)
		}
	})
	if err != nil {
		return
	}
	if e.Generation() != gen {
		return
	}
	for _, title := range due {
		e.notifier.Notify(Notice{Message: "Reminder: " + title})
	}
}
