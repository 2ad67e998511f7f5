package web

import (
	"net/http"

	"github.com/erazemk/scannerlog/internal/app"
	"github.com/erazemk/scannerlog/internal/notify"
	webembed "github.com/erazemk/scannerlog/web"
)

// NewRouter creates the dashboard router with all page routes registered.
// notices must be the queue a's controllers report to. listenAddr is the
// address the server listens on; requests naming any other host are
// refused.
func NewRouter(a *app.App, notices *notify.Queue, listenAddr string) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		App:       a,
		Notices:   notices,
		Templates: templates,
	}

	mux := http.NewServeMux()
	authed := SessionMiddleware(a.Session)

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /register", s.RegisterPage)
	mux.HandleFunc("POST /register", s.RegisterSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", authed(http.HandlerFunc(s.Dashboard)))
	mux.Handle("POST /search", authed(http.HandlerFunc(s.SearchSubmit)))
	mux.Handle("POST /filters", authed(http.HandlerFunc(s.FiltersSubmit)))
	mux.Handle("POST /reset", authed(http.HandlerFunc(s.ResetSubmit)))
	mux.Handle("POST /page", authed(http.HandlerFunc(s.PageSubmit)))
	mux.Handle("GET /export/{format}", authed(http.HandlerFunc(s.Export)))

	mux.Handle("POST /notifications/toggle", authed(http.HandlerFunc(s.NotificationsToggle)))
	mux.Handle("POST /notifications/refresh", authed(http.HandlerFunc(s.NotificationsRefresh)))
	mux.Handle("POST /notifications/read-all", authed(http.HandlerFunc(s.NotificationsReadAll)))
	mux.Handle("POST /notifications/{id}/read", authed(http.HandlerFunc(s.NotificationRead)))

	// Browsers mark cross-site form posts; those are refused so other
	// pages cannot drive the dashboard.
	csrf := http.NewCrossOriginProtection()

	return LoggingMiddleware(HostMiddleware(listenAddr)(csrf.Handler(mux))), nil
}
