// Package app wires the API client, session and controllers together for
// the shells.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/scannerlog/internal/api"
	"github.com/erazemk/scannerlog/internal/config"
	"github.com/erazemk/scannerlog/internal/db"
	"github.com/erazemk/scannerlog/internal/download"
	"github.com/erazemk/scannerlog/internal/inventory"
	"github.com/erazemk/scannerlog/internal/notifications"
	"github.com/erazemk/scannerlog/internal/notify"
	"github.com/erazemk/scannerlog/internal/session"
	"github.com/erazemk/scannerlog/internal/store"
)

// App is one running client: a session and the controllers reading
// through it.
type App struct {
	DB            *sql.DB
	Client        *api.Client
	Session       *session.Session
	Inventory     *inventory.Controller
	Notifications *notifications.Controller
	Logger        *slog.Logger

	unsubscribe func()
}

// Open opens the state database and builds the client stack. Notices from
// every controller go to notifier; exports go to downloader.
func Open(ctx context.Context, cfg *config.Config, notifier notify.Notifier, downloader download.Downloader, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	database, err := db.OpenState(ctx, cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("opening state: %w", err)
	}

	client, err := api.NewClient(api.ClientConfig{
		BaseURL:    cfg.APIURL,
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
		Logger:     logger.With("component", "api"),
	})
	if err != nil {
		database.Close()
		return nil, err
	}

	sess := session.New(client, store.NewSQLiteTokenStore(database),
		session.WithLogger(logger.With("component", "session")))

	a := &App{
		DB:      database,
		Client:  client,
		Session: sess,
		Inventory: inventory.NewController(client, sess, notifier, downloader,
			inventory.WithLogger(logger.With("component", "inventory"))),
		Notifications: notifications.NewController(client, sess, notifier,
			notifications.WithLogger(logger.With("component", "notifications"))),
		Logger: logger,
	}
	a.unsubscribe = sess.Subscribe(a.sessionChanged)
	return a, nil
}

// sessionChanged drops the dashboard state whenever the session stops
// being authenticated, so nothing carries over to the next user.
func (a *App) sessionChanged(snap session.Snapshot) {
	if snap.Authenticated() {
		return
	}
	a.Inventory.Clear()
	a.Notifications.Clear()
}

// Close closes the state database.
func (a *App) Close() error {
	a.unsubscribe()
	return a.DB.Close()
}

// Restore resumes a saved session.
func (a *App) Restore(ctx context.Context) error {
	return a.Session.Restore(ctx)
}

// Login logs in and remembers the username.
func (a *App) Login(ctx context.Context, username, password string) error {
	if err := a.Session.Login(ctx, username, password); err != nil {
		return err
	}
	a.rememberUsername(ctx, username)
	return nil
}

// Register creates an account and logs in with it.
func (a *App) Register(ctx context.Context, email, username, password string) error {
	if err := a.Session.Register(ctx, email, username, password); err != nil {
		return err
	}
	a.rememberUsername(ctx, username)
	return nil
}

// Logout ends the session and clears both controllers.
func (a *App) Logout(ctx context.Context) error {
	return a.Session.Logout(ctx)
}

// LastUsername returns the username of the last successful login.
func (a *App) LastUsername(ctx context.Context) string {
	name, err := store.GetSetting(ctx, a.DB, store.KeyLastUsername)
	if err != nil {
		a.Logger.Warn("failed to read last username", "error", err)
	}
	return name
}

func (a *App) rememberUsername(ctx context.Context, username string) {
	if err := store.SetSetting(ctx, a.DB, store.KeyLastUsername, username); err != nil {
		a.Logger.Warn("failed to remember username", "error", err)
	}
}

// Load fetches the first inventory page and the notifications if the
// session is authenticated. Fetch failures are reported as notices, not
// returned.
func (a *App) Load(ctx context.Context) {
	if !a.Session.Authenticated() {
		return
	}
	if err := a.Inventory.Refresh(ctx); err != nil && !errors.Is(err, inventory.ErrSuperseded) {
		a.Logger.Debug("inventory fetch failed", "error", err)
	}
	if err := a.Notifications.Refresh(ctx); err != nil && !errors.Is(err, notifications.ErrSuperseded) {
		a.Logger.Debug("notifications fetch failed", "error", err)
	}
}
