package web

import (
	"net/http"

	"github.com/google/uuid"
)

// NotificationsToggle handles POST /notifications/toggle.
func (s *Server) NotificationsToggle(w http.ResponseWriter, r *http.Request) {
	s.logFailure("toggle unread", s.App.Notifications.ToggleUnreadOnly(r.Context()))
	backToDashboard(w, r)
}

// NotificationsRefresh handles POST /notifications/refresh.
func (s *Server) NotificationsRefresh(w http.ResponseWriter, r *http.Request) {
	s.logFailure("refresh notifications", s.App.Notifications.Refresh(r.Context()))
	backToDashboard(w, r)
}

// NotificationRead handles POST /notifications/{id}/read.
func (s *Server) NotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	s.logFailure("mark read", s.App.Notifications.MarkRead(r.Context(), id))
	backToDashboard(w, r)
}

// NotificationsReadAll handles POST /notifications/read-all.
func (s *Server) NotificationsReadAll(w http.ResponseWriter, r *http.Request) {
	s.logFailure("mark all read", s.App.Notifications.MarkAllRead(r.Context()))
	backToDashboard(w, r)
}
