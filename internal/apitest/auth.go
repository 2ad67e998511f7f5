package apitest

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/scannerlog/internal/auth"
	"github.com/erazemk/scannerlog/internal/model"
)

// login handles POST /token.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		validationError(w, "username and password required")
		return
	}

	s.mu.Lock()
	acc := s.users[username]
	var hash string
	if acc != nil {
		hash = acc.passwordHash
	}
	s.mu.Unlock()

	if acc == nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		slog.Debug("login failed", "username", username)
		w.Header().Set("WWW-Authenticate", "Bearer")
		jsonError(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	token, err := auth.GenerateToken(jwtSecret, username, auth.TokenExpiry)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	jsonResponse(w, http.StatusOK, model.Token{AccessToken: token, TokenType: "bearer"})
}

// register handles POST /register.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req model.UserCreate
	if err := decodeJSON(r, &req); err != nil {
		validationError(w, "invalid request body")
		return
	}

	var msgs []string
	if !strings.Contains(req.Email, "@") {
		msgs = append(msgs, "value is not a valid email address")
	}
	if req.Username == "" {
		msgs = append(msgs, "username required")
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		msgs = append(msgs, err.Error())
	}
	if len(msgs) > 0 {
		validationError(w, msgs...)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.users {
		if acc.user.Username == req.Username || acc.user.Email == req.Email {
			jsonError(w, http.StatusBadRequest, "Username or email already registered")
			return
		}
	}

	now := time.Now().UTC()
	user := model.User{
		ID:        uuid.New(),
		Email:     req.Email,
		Username:  req.Username,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[req.Username] = &account{user: user, passwordHash: string(hash)}

	jsonResponse(w, http.StatusOK, user)
}

// currentUser handles GET /users/me.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, currentUserFrom(r.Context()))
}
