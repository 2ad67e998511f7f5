package apitest

import (
	"net/http"
	"slices"

	"github.com/google/uuid"

	"github.com/erazemk/scannerlog/internal/model"
)

// listNotifications handles GET /notifications.
func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip, err := intParam(q.Get("skip"), 0)
	if err != nil {
		validationError(w, "skip must be an integer")
		return
	}
	limit, err := intParam(q.Get("limit"), 100)
	if err != nil {
		validationError(w, "limit must be an integer")
		return
	}
	unreadOnly := q.Get("unread_only") == "true"

	user := currentUserFrom(r.Context())

	s.mu.Lock()
	list := s.notificationsFor(user.ID, unreadOnly)
	s.mu.Unlock()

	jsonResponse(w, http.StatusOK, window(list, skip, limit))
}

// markRead handles PUT /notifications/{id}/read.
func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		validationError(w, "invalid notification id")
		return
	}

	user := currentUserFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.notifications[id]
	if n == nil || n.UserID != user.ID {
		jsonError(w, http.StatusNotFound, "Notification not found")
		return
	}
	n.IsRead = true

	jsonResponse(w, http.StatusOK, *n)
}

// markAllRead handles PUT /notifications/read-all.
func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request) {
	user := currentUserFrom(r.Context())

	s.mu.Lock()
	for _, n := range s.notifications {
		if n.UserID == user.ID {
			n.IsRead = true
		}
	}
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// notificationsFor returns the notifications of user, newest first.
// Callers must hold s.mu.
func (s *Server) notificationsFor(user uuid.UUID, unreadOnly bool) []model.Notification {
	out := []model.Notification{}
	for _, n := range s.notifications {
		if n.UserID != user || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, *n)
	}
	slices.SortStableFunc(out, func(a, b model.Notification) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out
}
