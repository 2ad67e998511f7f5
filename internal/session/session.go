// Package session owns the bearer token and the profile of the logged-in
// user, and validates the token against the API.
//
// State moves from Unauthenticated to Validating whenever a token is
// installed (startup restore or login), and from Validating to either
// Authenticated or back to Unauthenticated. Every token change bumps a
// generation counter; a validation result is applied only if its
// generation is still current, so a slow validation can never resurrect
// a session after Logout or overwrite a newer Login.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/scannerlog/internal/api"
	"github.com/erazemk/scannerlog/internal/auth"
	"github.com/erazemk/scannerlog/internal/model"
	"github.com/erazemk/scannerlog/internal/store"
)

// ErrAuthInvalid means the token was rejected by the current-user check
// or had already expired. The session is logged out when this happens.
var ErrAuthInvalid = errors.New("session: token is no longer valid")

// ErrSuperseded is returned by a validation whose outcome was discarded
// because the token changed while it was in flight.
var ErrSuperseded = errors.New("session: superseded by a newer token change")

// State is the authentication state of a Session.
type State int

const (
	Unauthenticated State = iota
	Validating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Validating:
		return "validating"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Authenticator is the part of the API client the session uses.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*model.Token, error)
	Register(ctx context.Context, req model.UserCreate) (*model.User, error)
	CurrentUser(ctx context.Context, token string) (*model.User, error)
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	State State
	Token string
	User  *model.User
	// Loading is true while a validation is in flight.
	Loading bool
	// Err is the last login or registration error shown to the user.
	Err string
}

// Authenticated reports whether the snapshot is of a validated session.
func (s Snapshot) Authenticated() bool {
	return s.State == Authenticated
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for state transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithClock sets the time source used to check token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is the client's authentication state. It is safe for
// concurrent use; no lock is held across a network call.
type Session struct {
	api    Authenticator
	tokens store.TokenStore
	logger *slog.Logger
	now    func() time.Time

	// storeMu serializes writes to the token store so the last token
	// change is also the last write. It is taken before mu, never after.
	storeMu sync.Mutex

	mu        sync.Mutex
	state     State
	token     string
	user      *model.User
	err       string
	gen       uint64
	cancel    context.CancelFunc
	listeners map[int]func(Snapshot)
	nextID    int
}

// New creates an unauthenticated session. Call Restore to pick up a token
// saved by a previous run.
func New(authenticator Authenticator, tokens store.TokenStore, opts ...Option) *Session {
	s := &Session{
		api:       authenticator,
		tokens:    tokens,
		logger:    slog.Default(),
		now:       time.Now,
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	var user *model.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Snapshot{
		State:   s.state,
		Token:   s.token,
		User:    user,
		Loading: s.state == Validating,
		Err:     s.err,
	}
}

// State returns the current state.
func (s *Session) State() State { return s.Snapshot().State }

// Token returns the bearer token, or "" when there is none.
func (s *Session) Token() string { return s.Snapshot().Token }

// User returns the validated user, or nil.
func (s *Session) User() *model.User { return s.Snapshot().User }

// Authenticated reports whether a validated token is held.
func (s *Session) Authenticated() bool { return s.Snapshot().Authenticated() }

// Loading reports whether a validation is in flight.
func (s *Session) Loading() bool { return s.Snapshot().Loading }

// Err returns the last login or registration error message.
func (s *Session) Err() string { return s.Snapshot().Err }

// Subscribe registers fn to be called with a snapshot after every state
// change. fn runs on the goroutine that made the change, outside the
// session lock. The returned func removes the subscription.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Restore loads the token saved by a previous run and validates it. With
// no saved token it does nothing.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.tokens.LoadToken(ctx)
	if err != nil {
		return fmt.Errorf("loading saved token: %w", err)
	}
	if token == "" {
		s.logger.Debug("no saved session")
		return nil
	}

	vctx, gen, err := s.install(ctx, token, false)
	if err != nil {
		return err
	}
	return s.validate(vctx, gen, token)
}

// Login exchanges credentials for a token, saves it and validates it. If
// the API rejects the credentials, only the error message changes; a
// session already held stays as it was.
func (s *Session) Login(ctx context.Context, username, password string) error {
	tok, err := s.api.Login(ctx, username, password)
	if err != nil {
		s.setErr(api.Message(err, "Failed to login"))
		return fmt.Errorf("logging in: %w", err)
	}

	vctx, gen, err := s.install(ctx, tok.AccessToken, true)
	if err != nil {
		return err
	}
	s.logger.Info("logged in", "username", username)
	return s.validate(vctx, gen, tok.AccessToken)
}

// Register creates an account and then logs in with the same credentials.
// A registration failure is returned without attempting to log in.
func (s *Session) Register(ctx context.Context, email, username, password string) error {
	_, err := s.api.Register(ctx, model.UserCreate{Email: email, Username: username, Password: password})
	if err != nil {
		s.setErr(api.Message(err, "Failed to register"))
		return fmt.Errorf("registering: %w", err)
	}
	s.logger.Info("registered", "username", username)
	return s.Login(ctx, username, password)
}

// Logout forgets the token and user immediately and removes the saved
// token. It makes no network call and is safe to call repeatedly. An
// in-flight validation is cancelled and its result discarded.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	gen := s.bumpLocked()
	wasAuthenticated := s.state != Unauthenticated
	s.state = Unauthenticated
	s.token = ""
	s.user = nil
	s.err = ""
	snap := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	clearErr := s.persist(ctx, gen, "")
	if wasAuthenticated {
		s.logger.Info("logged out")
	}
	s.broadcast(listeners, snap)

	if clearErr != nil {
		return fmt.Errorf("removing saved token: %w", clearErr)
	}
	return nil
}

// install makes token current and moves to Validating. It returns the
// context and generation the validation must run under.
func (s *Session) install(ctx context.Context, token string, persist bool) (context.Context, uint64, error) {
	s.mu.Lock()
	gen := s.bumpLocked()
	vctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = Validating
	s.token = token
	s.user = nil
	s.err = ""
	snap := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	var saveErr error
	if persist {
		saveErr = s.persist(ctx, gen, token)
	}
	s.broadcast(listeners, snap)

	if saveErr != nil {
		cancel()
		return nil, 0, fmt.Errorf("saving token: %w", saveErr)
	}
	return vctx, gen, nil
}

// validate fetches the current user with token and applies the outcome if
// gen is still current.
func (s *Session) validate(ctx context.Context, gen uint64, token string) error {
	if claims, err := auth.Inspect(token); err == nil && claims.Expired(s.now()) {
		return s.reject(ctx, gen, errors.New("token expired"))
	}

	user, err := s.api.CurrentUser(ctx, token)
	if err != nil {
		return s.reject(ctx, gen, err)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.finishLocked()
	s.state = Authenticated
	s.user = user
	snap := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.logger.Info("session validated", "username", user.Username)
	s.broadcast(listeners, snap)
	return nil
}

// reject applies a failed validation. A validation abandoned because the
// caller's context ended drops the in-memory session but keeps the saved
// token, since nothing was learned about it.
func (s *Session) reject(ctx context.Context, gen uint64, cause error) error {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrSuperseded
	}
	abandoned := ctx.Err() != nil
	s.finishLocked()
	s.state = Unauthenticated
	s.token = ""
	s.user = nil
	snap := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	var clearErr error
	if !abandoned {
		clearErr = s.persist(ctx, gen, "")
	}
	s.broadcast(listeners, snap)

	if abandoned {
		s.logger.Warn("session validation abandoned", "error", cause)
		return fmt.Errorf("validating session: %w", ctx.Err())
	}

	s.logger.Warn("saved session rejected", "error", cause)
	if clearErr != nil {
		s.logger.Error("failed to remove rejected token", "error", clearErr)
	}
	return fmt.Errorf("%w: %v", ErrAuthInvalid, cause)
}

// persist writes token to the store, or clears it when token is "". The
// write is skipped if gen is no longer current, since the newer change
// writes its own value.
func (s *Session) persist(ctx context.Context, gen uint64, token string) error {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	s.mu.Lock()
	current := gen == s.gen
	s.mu.Unlock()
	if !current {
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	if token == "" {
		return s.tokens.ClearToken(ctx)
	}
	return s.tokens.SaveToken(ctx, token)
}

// bumpLocked cancels any in-flight validation and starts a new generation.
func (s *Session) bumpLocked() uint64 {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	return s.gen
}

// finishLocked releases the context of the current validation.
func (s *Session) finishLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) setErr(msg string) {
	s.mu.Lock()
	s.err = msg
	snap := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.broadcast(listeners, snap)
}

func (s *Session) listenersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func (s *Session) broadcast(listeners []func(Snapshot), snap Snapshot) {
	for _, fn := range listeners {
		fn(snap)
	}
}
