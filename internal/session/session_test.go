package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/scannerlog/internal/api"
	"github.com/erazemk/scannerlog/internal/apitest"
	"github.com/erazemk/scannerlog/internal/store"
)

type fixture struct {
	srv    *apitest.Server
	tokens *store.MemoryTokenStore
	sess   *Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser("alice", "alice@example.com", "password1")

	client, err := api.NewClient(api.ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	tokens := &store.MemoryTokenStore{}
	return &fixture{srv: srv, tokens: tokens, sess: New(client, tokens)}
}

func (f *fixture) savedToken(t *testing.T) string {
	t.Helper()
	token, err := f.tokens.LoadToken(context.Background())
	require.NoError(t, err)
	return token
}

func TestRestoreWithoutToken(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.sess.Restore(context.Background()))
	assert.Equal(t, Unauthenticated, f.sess.State())
	assert.Equal(t, 0, f.srv.Requests("GET /users/me"))
}

func TestRestoreValidToken(t *testing.T) {
	f := newFixture(t)
	token := f.srv.Token("alice")
	require.NoError(t, f.tokens.SaveToken(context.Background(), token))

	require.NoError(t, f.sess.Restore(context.Background()))

	snap := f.sess.Snapshot()
	assert.Equal(t, Authenticated, snap.State)
	assert.True(t, snap.Authenticated())
	assert.False(t, snap.Loading)
	assert.Equal(t, token, snap.Token)
	require.NotNil(t, snap.User)
	assert.Equal(t, "alice", snap.User.Username)
}

func TestRestoreRejectedTokenIsCleared(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tokens.SaveToken(context.Background(), "revoked-or-garbage"))

	err := f.sess.Restore(context.Background())
	assert.ErrorIs(t, err, ErrAuthInvalid)

	snap := f.sess.Snapshot()
	assert.Equal(t, Unauthenticated, snap.State)
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)
	assert.Empty(t, f.savedToken(t))
	assert.Equal(t, 1, f.srv.Requests("GET /users/me"))
}

func TestRestoreExpiredTokenSkipsNetwork(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tokens.SaveToken(context.Background(), f.srv.TokenWithTTL("alice", -time.Minute)))

	err := f.sess.Restore(context.Background())
	assert.ErrorIs(t, err, ErrAuthInvalid)
	assert.Equal(t, Unauthenticated, f.sess.State())
	assert.Empty(t, f.savedToken(t))
	assert.Equal(t, 0, f.srv.Requests("GET /users/me"))
}

func TestRestoreInactiveUser(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tokens.SaveToken(context.Background(), f.srv.Token("alice")))
	f.srv.Deactivate("alice")

	err := f.sess.Restore(context.Background())
	assert.ErrorIs(t, err, ErrAuthInvalid)
	assert.Equal(t, Unauthenticated, f.sess.State())
}

func TestRestoreServerUnreachable(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tokens.SaveToken(context.Background(), f.srv.Token("alice")))
	f.srv.Close()

	err := f.sess.Restore(context.Background())
	assert.ErrorIs(t, err, ErrAuthInvalid)
	assert.Equal(t, Unauthenticated, f.sess.State())
	assert.Empty(t, f.savedToken(t))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.sess.Login(context.Background(), "alice", "password1"))

	snap := f.sess.Snapshot()
	assert.Equal(t, Authenticated, snap.State)
	assert.Equal(t, "alice", snap.User.Username)
	assert.Empty(t, snap.Err)
	assert.Equal(t, snap.Token, f.savedToken(t))
}

func TestLoginFailureKeepsExistingSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sess.Login(ctx, "alice", "password1"))
	before := f.sess.Snapshot()

	err := f.sess.Login(ctx, "alice", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrRequestFailed)

	after := f.sess.Snapshot()
	assert.Equal(t, Authenticated, after.State)
	assert.Equal(t, before.Token, after.Token)
	assert.Equal(t, before.User, after.User)
	assert.Equal(t, "Incorrect username or password", after.Err)
	assert.Equal(t, before.Token, f.savedToken(t))
}

func TestLoginFailureGenericMessage(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail("POST /token", http.StatusInternalServerError, "")

	require.Error(t, f.sess.Login(context.Background(), "alice", "password1"))
	assert.Equal(t, "Failed to login", f.sess.Err())
	assert.Equal(t, Unauthenticated, f.sess.State())
}

func TestLoginTokenRejected(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail("GET /users/me", http.StatusUnauthorized, "Could not validate credentials")

	err := f.sess.Login(context.Background(), "alice", "password1")
	assert.ErrorIs(t, err, ErrAuthInvalid)
	assert.Equal(t, Unauthenticated, f.sess.State())
	assert.Empty(t, f.savedToken(t))
}

func TestRegisterThenLogin(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.sess.Register(context.Background(), "bob@example.com", "bob", "password2"))
	assert.Equal(t, Authenticated, f.sess.State())
	assert.Equal(t, "bob", f.sess.User().Username)
	assert.Equal(t, 1, f.srv.Requests("POST /token"))
}

func TestRegisterFailureDoesNotLogin(t *testing.T) {
	f := newFixture(t)

	err := f.sess.Register(context.Background(), "alice@example.com", "alice", "password1")
	require.Error(t, err)
	assert.Equal(t, "Username or email already registered", f.sess.Err())
	assert.Equal(t, 0, f.srv.Requests("POST /token"))
	assert.Equal(t, Unauthenticated, f.sess.State())
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sess.Login(ctx, "alice", "password1"))

	require.NoError(t, f.sess.Logout(ctx))
	require.NoError(t, f.sess.Logout(ctx))

	snap := f.sess.Snapshot()
	assert.Equal(t, Unauthenticated, snap.State)
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)
	assert.Empty(t, f.savedToken(t))
}

func TestLogoutDuringValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.tokens.SaveToken(ctx, f.srv.Token("alice")))

	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	f.srv.Hook("GET /users/me", func(r *http.Request) {
		close(entered)
		<-release
	})

	done := make(chan error, 1)
	go func() { done <- f.sess.Restore(ctx) }()

	<-entered
	assert.Equal(t, Validating, f.sess.State())
	assert.True(t, f.sess.Loading())

	require.NoError(t, f.sess.Logout(ctx))
	assert.Equal(t, Unauthenticated, f.sess.State())

	err := <-done
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Equal(t, Unauthenticated, f.sess.State())
	assert.Empty(t, f.sess.Token())
	assert.Empty(t, f.savedToken(t))
}

func TestNewerLoginWinsOverStaleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stale := f.srv.Token("alice")
	require.NoError(t, f.tokens.SaveToken(ctx, stale))

	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	var once sync.Once
	f.srv.Hook("GET /users/me", func(r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer "+stale {
			once.Do(func() { close(entered) })
			<-release
		}
	})

	done := make(chan error, 1)
	go func() { done <- f.sess.Restore(ctx) }()
	<-entered

	require.NoError(t, f.sess.Login(ctx, "alice", "password1"))
	fresh := f.sess.Token()
	assert.NotEqual(t, stale, fresh)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, Authenticated, f.sess.State())
	assert.Equal(t, fresh, f.sess.Token())
	assert.Equal(t, fresh, f.savedToken(t))
}

func TestCancelledValidationKeepsSavedToken(t *testing.T) {
	f := newFixture(t)
	token := f.srv.Token("alice")
	require.NoError(t, f.tokens.SaveToken(context.Background(), token))
	f.srv.Hook("GET /users/me", func(r *http.Request) { <-r.Context().Done() })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := f.sess.Restore(ctx)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAuthInvalid))
	assert.Equal(t, Unauthenticated, f.sess.State())
	assert.Equal(t, token, f.savedToken(t))
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var mu sync.Mutex
	var states []State
	unsubscribe := f.sess.Subscribe(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s.State)
	})

	require.NoError(t, f.sess.Login(ctx, "alice", "password1"))
	require.NoError(t, f.sess.Logout(ctx))
	unsubscribe()
	require.NoError(t, f.sess.Login(ctx, "alice", "password1"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{Validating, Authenticated, Unauthenticated}, states)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unauthenticated", Unauthenticated.String())
	assert.Equal(t, "validating", Validating.String())
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "State(9)", State(9).String())
}

// slowTokenStore blocks SaveToken until release is closed.
type slowTokenStore struct {
	store.MemoryTokenStore
	entered chan struct{}
	release chan struct{}
}

func (s *slowTokenStore) SaveToken(ctx context.Context, token string) error {
	close(s.entered)
	<-s.release
	return s.MemoryTokenStore.SaveToken(ctx, token)
}

func TestTokenReadableWhileSaving(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("alice", "alice@example.com", "password1")
	client, err := api.NewClient(api.ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	tokens := &slowTokenStore{entered: make(chan struct{}), release: make(chan struct{})}
	sess := New(client, tokens)

	done := make(chan error, 1)
	go func() { done <- sess.Login(context.Background(), "alice", "password1") }()
	<-tokens.entered

	got := make(chan string, 1)
	go func() { got <- sess.Token() }()
	select {
	case token := <-got:
		assert.NotEmpty(t, token)
		assert.Equal(t, Validating, sess.State())
	case <-time.After(time.Second):
		t.Fatal("Token blocked behind the token store write")
	}

	close(tokens.release)
	require.NoError(t, <-done)
	saved, err := tokens.LoadToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sess.Token(), saved)
}
