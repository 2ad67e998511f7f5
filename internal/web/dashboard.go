package web

import (
	"net/http"
	"strconv"

	"github.com/erazemk/scannerlog/internal/inventory"
	"github.com/erazemk/scannerlog/internal/notifications"
)

// Dashboard handles GET /.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := s.page("Inventory Dashboard")
	data.User = GetWebUser(r.Context())

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		Inventory     inventory.Snapshot
		Notifications notifications.Snapshot
	}{
		PageData:      data,
		Inventory:     s.App.Inventory.Snapshot(),
		Notifications: s.App.Notifications.Snapshot(),
	})
}

// SearchSubmit handles POST /search.
func (s *Server) SearchSubmit(w http.ResponseWriter, r *http.Request) {
	s.logFailure("search", s.App.Inventory.SetSearch(r.Context(), r.FormValue("search")))
	backToDashboard(w, r)
}

// FiltersSubmit handles POST /filters. The search text is kept.
func (s *Server) FiltersSubmit(w http.ResponseWriter, r *http.Request) {
	search := s.App.Inventory.Snapshot().Query.Search
	err := s.App.Inventory.SetFilters(r.Context(), search, r.FormValue("category"), r.FormValue("location"))
	s.logFailure("filter", err)
	backToDashboard(w, r)
}

// ResetSubmit handles POST /reset.
func (s *Server) ResetSubmit(w http.ResponseWriter, r *http.Request) {
	s.logFailure("reset", s.App.Inventory.Reset(r.Context()))
	backToDashboard(w, r)
}

// PageSubmit handles POST /page. It takes either a page number or a
// direction of "next" or "prev".
func (s *Server) PageSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	switch r.FormValue("dir") {
	case "next":
		err = s.App.Inventory.NextPage(ctx)
	case "prev":
		err = s.App.Inventory.PrevPage(ctx)
	default:
		page, perr := strconv.Atoi(r.FormValue("page"))
		if perr != nil {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		err = s.App.Inventory.SetPage(ctx, page)
	}
	s.logFailure("page", err)
	backToDashboard(w, r)
}

func (s *Server) logFailure(action string, err error) {
	if err != nil {
		s.App.Logger.Debug("dashboard action failed", "action", action, "error", err)
	}
}

func backToDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
