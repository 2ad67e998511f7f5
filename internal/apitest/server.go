// Package apitest is an in-memory fake of the inventory API for tests.
//
// It implements the same routes, status codes and error bodies as the real
// server, and lets tests delay, block or fail any route.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/scannerlog/internal/auth"
	"github.com/erazemk/scannerlog/internal/model"
)

const jwtSecret = "apitest-secret"

type account struct {
	user         model.User
	passwordHash string
}

type failure struct {
	status int
	detail string
}

// Server is a running fake API.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	users         map[string]*account // by username
	items         map[uuid.UUID]*model.Item
	notifications map[uuid.UUID]*model.Notification
	requests      map[string]int
	failures      map[string]failure
	hooks         map[string]func(*http.Request)
}

// New starts a fake API server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		users:         make(map[string]*account),
		items:         make(map[uuid.UUID]*model.Item),
		notifications: make(map[uuid.UUID]*model.Notification),
		requests:      make(map[string]int),
		failures:      make(map[string]failure),
		hooks:         make(map[string]func(*http.Request)),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "POST /token", false, s.login)
	s.handle(mux, "POST /register", false, s.register)
	s.handle(mux, "GET /users/me", true, s.currentUser)

	s.handle(mux, "GET /items", true, s.listItems)
	s.handle(mux, "POST /items", true, s.createItem)
	s.handle(mux, "GET /items/export", true, s.exportItems)
	s.handle(mux, "GET /items/{id}", true, s.getItem)
	s.handle(mux, "PUT /items/{id}", true, s.updateItem)
	s.handle(mux, "DELETE /items/{id}", true, s.deleteItem)

	s.handle(mux, "GET /notifications", true, s.listNotifications)
	s.handle(mux, "PUT /notifications/read-all", true, s.markAllRead)
	s.handle(mux, "PUT /notifications/{id}/read", true, s.markRead)

	return mux
}

// handle registers h under pattern, counting requests and applying any
// hook or injected failure registered for the same pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, authenticated bool, h http.HandlerFunc) {
	var next http.Handler = h
	if authenticated {
		next = s.authMiddleware(h)
	}

	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[pattern]++
		hook := s.hooks[pattern]
		fail, failing := s.failures[pattern]
		s.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		if failing {
			if fail.detail == "" {
				jsonResponse(w, fail.status, map[string]string{})
			} else {
				jsonError(w, fail.status, fail.detail)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Requests returns how many requests matched route, e.g. "GET /items".
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

// Fail makes route answer with status and detail until Recover is called.
// An empty detail sends an error body without a detail member.
func (s *Server) Fail(route string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, detail: detail}
}

// Recover undoes Fail for route.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hook runs fn at the start of every request matching route. fn may block,
// which is how tests hold a request in flight.
func (s *Server) Hook(route string, fn func(*http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		delete(s.hooks, route)
		return
	}
	s.hooks[route] = fn
}

// Delay makes every request matching route wait d before being served.
func (s *Server) Delay(route string, d time.Duration) {
	s.Hook(route, func(r *http.Request) {
		select {
		case <-time.After(d):
		case <-r.Context().Done():
		}
	})
}

// AddUser creates an account directly.
func (s *Server) AddUser(username, email, password string) model.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	now := time.Now().UTC()
	user := model.User{
		ID:        uuid.New(),
		Email:     email,
		Username:  username,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = &account{user: user, passwordHash: string(hash)}
	return user
}

// Deactivate marks an account inactive; its tokens stop working.
func (s *Server) Deactivate(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc := s.users[username]; acc != nil {
		acc.user.IsActive = false
	}
}

// Token mints a valid token for username.
func (s *Server) Token(username string) string {
	return s.TokenWithTTL(username, auth.TokenExpiry)
}

// TokenWithTTL mints a token for username that expires after ttl. A
// negative ttl gives an expired token.
func (s *Server) TokenWithTTL(username string, ttl time.Duration) string {
	token, err := auth.GenerateToken(jwtSecret, username, ttl)
	if err != nil {
		panic(err)
	}
	return token
}

// AddItem stores an item created by username, generating a low-stock
// notification the same way the create endpoint does.
func (s *Server) AddItem(username string, req model.ItemCreate) model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.users[username]
	if acc == nil {
		panic("apitest: unknown user " + username)
	}
	return *s.insertItem(acc.user.ID, req)
}

// Items returns a copy of every stored item.
func (s *Server) Items() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, *item)
	}
	sortItems(out)
	return out
}

// Notifications returns a copy of every notification of username.
func (s *Server) Notifications(username string) []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.users[username]
	if acc == nil {
		return nil
	}
	return s.notificationsFor(acc.user.ID, false)
}
