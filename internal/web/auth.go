package web

import (
	"errors"
	"net/http"

	"github.com/erazemk/scannerlog/internal/model"
	"github.com/erazemk/scannerlog/internal/session"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if s.App.Session.Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "login.html", &struct {
		PageData
		Username string
	}{
		PageData: s.page("Login"),
		Username: s.App.LastUsername(r.Context()),
	})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	render := func(msg string) {
		data := s.page("Login")
		data.Error = msg
		s.Templates.Render(w, "login.html", &struct {
			PageData
			Username string
		}{PageData: data, Username: username})
	}

	if username == "" || password == "" {
		render("Enter your username and password.")
		return
	}

	if err := s.App.Login(r.Context(), username, password); err != nil {
		render(sessionError(s.App.Session, err, "Failed to login"))
		return
	}
	s.App.Load(r.Context())

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if s.App.Session.Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "register.html", &struct {
		PageData
		Email    string
		Username string
	}{PageData: s.page("Register")})
}

// RegisterSubmit handles POST /register.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	username := r.FormValue("username")
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	render := func(msg string) {
		data := s.page("Register")
		data.Error = msg
		s.Templates.Render(w, "register.html", &struct {
			PageData
			Email    string
			Username string
		}{PageData: data, Email: email, Username: username})
	}

	switch {
	case email == "" || username == "" || password == "":
		render("Fill in every field.")
		return
	case password != confirm:
		render("Passwords do not match.")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		render(err.Error())
		return
	}

	if err := s.App.Register(r.Context(), email, username, password); err != nil {
		render(sessionError(s.App.Session, err, "Failed to register"))
		return
	}
	s.App.Load(r.Context())

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.App.Logout(r.Context()); err != nil {
		s.App.Logger.Error("failed to log out", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// sessionError picks the message to show for a failed login or register.
func sessionError(sess *session.Session, err error, fallback string) string {
	if errors.Is(err, session.ErrAuthInvalid) {
		return "Your session could not be validated. Please log in again."
	}
	if msg := sess.Err(); msg != "" {
		return msg
	}
	return fallback
}
