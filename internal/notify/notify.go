// Package notify carries transient user-visible messages from controllers
// to whichever shell is presenting them.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Variant distinguishes success and error notices.
type Variant string

const (
	Success Variant = "success"
	Error   Variant = "error"
)

// Notice is a transient message such as "Export Successful".
type Notice struct {
	Title       string
	Description string
	Variant     Variant
}

// Notifier receives notices. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(Notice)
}

// Func adapts a function to a Notifier.
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = Func(func(Notice) {})

// Queue holds notices until they are drained. The web shell uses it as a
// flash queue and tests use it to assert what was shown.
type Queue struct {
	mu      sync.Mutex
	notices []Notice
}

func (q *Queue) Notify(n Notice) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notices = append(q.notices, n)
}

// Notices returns a copy of the queued notices without removing them.
func (q *Queue) Notices() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notice, len(q.notices))
	copy(out, q.notices)
	return out
}

// Drain returns the queued notices and empties the queue.
func (q *Queue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.notices
	q.notices = nil
	return out
}

// Logged wraps next so every notice is also logged: errors at warn level,
// everything else at info.
func Logged(logger *slog.Logger, next Notifier) Notifier {
	return Func(func(n Notice) {
		level := slog.LevelInfo
		if n.Variant == Error {
			level = slog.LevelWarn
		}
		logger.Log(context.Background(), level, "notice", "title", n.Title, "description", n.Description)
		next.Notify(n)
	})
}
