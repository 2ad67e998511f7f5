package web

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/scannerlog/internal/model"
	"github.com/erazemk/scannerlog/internal/session"
)

type webContextKey string

const webUserKey webContextKey = "webuser"

// SessionMiddleware redirects to the login page unless the session is
// authenticated, and adds the current user to the context.
func SessionMiddleware(sess *session.Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := sess.Snapshot()
			if !snap.Authenticated() {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), webUserKey, snap.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HostMiddleware refuses requests whose Host header is not a loopback
// name or the host the server listens on. A page on another domain that
// rebinds its name to this address is refused this way.
func HostMiddleware(listenAddr string) func(http.Handler) http.Handler {
	listenHost, _, err := net.SplitHostPort(listenAddr)
	if err != nil {
		listenHost = listenAddr
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowedHost(r.Host, listenHost) {
				slog.Warn("refused request for foreign host", "host", r.Host, "path", r.URL.Path)
				http.Error(w, "invalid host", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allowedHost reports whether hostport names this server. When listening
// on every interface, any IP address is accepted but names other than
// localhost are not.
func allowedHost(hostport, listenHost string) bool {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		host = strings.Trim(hostport, "[]")
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return false
	}
	if host == "localhost" || strings.EqualFold(host, listenHost) {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	if ip.IsLoopback() {
		return true
	}
	listenIP := net.ParseIP(listenHost)
	return listenHost == "" || (listenIP != nil && listenIP.IsUnspecified())
}

// GetWebUser retrieves the logged-in user from web context.
func GetWebUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(webUserKey).(*model.User)
	return user
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
