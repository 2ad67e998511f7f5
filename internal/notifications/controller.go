// Package notifications holds the user's notification list and applies
// read-state changes after the server confirms them.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/erazemk/scannerlog/internal/model"
	"github.com/erazemk/scannerlog/internal/notify"
)

// ListLimit is the number of notifications requested per fetch.
const ListLimit = 100

// ErrNotAuthenticated is returned when there is no token to call with.
var ErrNotAuthenticated = errors.New("notifications: not logged in")

// ErrSuperseded is returned by a fetch whose result was discarded because
// a newer fetch was started while it was in flight.
var ErrSuperseded = errors.New("notifications: superseded by a newer fetch")

// Backend is the part of the API client the controller uses.
type Backend interface {
	ListNotifications(ctx context.Context, token string, filter model.NotificationFilter) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, token string, id uuid.UUID) (*model.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, token string) error
}

// TokenSource supplies the current bearer token, "" when logged out.
type TokenSource interface {
	Token() string
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Notifications []model.Notification
	UnreadOnly    bool
	Loading       bool
	// CanMarkAll is true when at least one held notification is unread.
	CanMarkAll bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// Controller is the notification list state machine.
type Controller struct {
	backend  Backend
	tokens   TokenSource
	notifier notify.Notifier
	logger   *slog.Logger

	mu            sync.Mutex
	notifications []model.Notification
	unreadOnly    bool
	loading       bool
	gen           uint64
	cancel        context.CancelFunc
}

// NewController creates a controller showing unread notifications only.
// It does not fetch until asked to.
func NewController(backend Backend, tokens TokenSource, notifier notify.Notifier, opts ...Option) *Controller {
	c := &Controller{
		backend:       backend,
		tokens:        tokens,
		notifier:      notifier,
		logger:        slog.Default(),
		notifications: []model.Notification{},
		unreadOnly:    true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Notifications: slices.Clone(c.notifications),
		UnreadOnly:    c.unreadOnly,
		Loading:       c.loading,
		CanMarkAll:    c.canMarkAllLocked(),
	}
}

// CanMarkAll reports whether any held notification is unread.
func (c *Controller) CanMarkAll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canMarkAllLocked()
}

func (c *Controller) canMarkAllLocked() bool {
	return slices.ContainsFunc(c.notifications, func(n model.Notification) bool { return !n.IsRead })
}

// SetUnreadOnly changes the unread filter and fetches.
func (c *Controller) SetUnreadOnly(ctx context.Context, unreadOnly bool) error {
	return c.fetch(ctx, func() { c.unreadOnly = unreadOnly })
}

// ToggleUnreadOnly flips the unread filter and fetches.
func (c *Controller) ToggleUnreadOnly(ctx context.Context) error {
	return c.fetch(ctx, func() { c.unreadOnly = !c.unreadOnly })
}

// Refresh fetches the list again with the current filter.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.fetch(ctx, func() {})
}

// Clear drops the held notifications, restores the unread-only filter and
// discards any fetch in flight. It is used when the session ends.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.notifications = []model.Notification{}
	c.unreadOnly = true
	c.loading = false
}

func (c *Controller) fetch(ctx context.Context, mutate func()) error {
	c.mu.Lock()
	token := c.tokens.Token()
	if token == "" {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}

	mutate()
	filter := model.NotificationFilter{Skip: 0, Limit: ListLimit, UnreadOnly: c.unreadOnly}

	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	fctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.loading = true
	c.mu.Unlock()

	list, err := c.backend.ListNotifications(fctx, token, filter)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.cancel = nil
	c.loading = false
	cancel()

	if err != nil {
		c.mu.Unlock()
		if ctx.Err() != nil {
			return fmt.Errorf("fetching notifications: %w", ctx.Err())
		}
		c.logger.Error("failed to fetch notifications", "error", err)
		c.notifier.Notify(notify.Notice{
			Title:       "Error",
			Description: "Failed to fetch notifications",
			Variant:     notify.Error,
		})
		return fmt.Errorf("fetching notifications: %w", err)
	}

	c.notifications = list
	c.mu.Unlock()
	return nil
}

// MarkRead marks one notification read on the server and then, only on
// success, flips the matching held notification.
func (c *Controller) MarkRead(ctx context.Context, id uuid.UUID) error {
	token := c.tokens.Token()
	if token == "" {
		return ErrNotAuthenticated
	}

	if _, err := c.backend.MarkNotificationRead(ctx, token, id); err != nil {
		c.logger.Error("failed to mark notification as read", "id", id, "error", err)
		c.notifier.Notify(notify.Notice{
			Title:       "Error",
			Description: "Failed to mark notification as read",
			Variant:     notify.Error,
		})
		return fmt.Errorf("marking notification read: %w", err)
	}

	c.mu.Lock()
	for i := range c.notifications {
		if c.notifications[i].ID == id {
			c.notifications[i].IsRead = true
		}
	}
	c.mu.Unlock()

	c.notifier.Notify(notify.Notice{
		Title:       "Success",
		Description: "Notification marked as read",
		Variant:     notify.Success,
	})
	return nil
}

// MarkAllRead marks every notification read on the server and then, only
// on success, flips every held notification. With nothing unread it
// makes no request.
func (c *Controller) MarkAllRead(ctx context.Context) error {
	token := c.tokens.Token()
	if token == "" {
		return ErrNotAuthenticated
	}
	if !c.CanMarkAll() {
		return nil
	}

	if err := c.backend.MarkAllNotificationsRead(ctx, token); err != nil {
		c.logger.Error("failed to mark all notifications as read", "error", err)
		c.notifier.Notify(notify.Notice{
			Title:       "Error",
			Description: "Failed to mark all notifications as read",
			Variant:     notify.Error,
		})
		return fmt.Errorf("marking all notifications read: %w", err)
	}

	c.mu.Lock()
	for i := range c.notifications {
		c.notifications[i].IsRead = true
	}
	c.mu.Unlock()

	c.notifier.Notify(notify.Notice{
		Title:       "Success",
		Description: "All notifications marked as read",
		Variant:     notify.Success,
	})
	return nil
}
