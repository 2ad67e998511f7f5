// Package inventory holds the search, filter and pagination state of the
// item list and keeps the displayed page in sync with it.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/erazemk/scannerlog/internal/api"
	"github.com/erazemk/scannerlog/internal/download"
	"github.com/erazemk/scannerlog/internal/model"
	"github.com/erazemk/scannerlog/internal/notify"
)

// PageSize is the number of items requested per page.
const PageSize = 10

// ErrNotAuthenticated is returned when there is no token to fetch with.
var ErrNotAuthenticated = errors.New("inventory: not logged in")

// ErrSuperseded is returned by a fetch whose result was discarded because
// a newer fetch was started while it was in flight.
var ErrSuperseded = errors.New("inventory: superseded by a newer fetch")

// Backend is the part of the API client the controller uses.
type Backend interface {
	ListItems(ctx context.Context, token string, filter model.ItemFilter) ([]model.Item, error)
	GetItem(ctx context.Context, token string, id uuid.UUID) (*model.Item, error)
	CreateItem(ctx context.Context, token string, req model.ItemCreate) (*model.Item, error)
	UpdateItem(ctx context.Context, token string, id uuid.UUID, req model.ItemUpdate) (*model.Item, error)
	DeleteItem(ctx context.Context, token string, id uuid.UUID) error
	ExportItems(ctx context.Context, token, format string) (*api.Export, error)
}

// TokenSource supplies the current bearer token, "" when logged out.
type TokenSource interface {
	Token() string
}

// Query is the user-controlled part of the list state.
type Query struct {
	Search   string
	Category string
	Location string
	// Page is 1-based.
	Page int
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Query      Query
	Items      []model.Item
	Categories []string
	Locations  []string
	TotalPages int
	// HasNext is true when the displayed page is full, so a further page
	// may exist.
	HasNext    bool
	Loading    bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// Controller is the inventory list state machine. Every change to the
// query triggers exactly one fetch; only the most recently started fetch
// is ever applied.
type Controller struct {
	backend    Backend
	tokens     TokenSource
	notifier   notify.Notifier
	downloader download.Downloader
	logger     *slog.Logger

	mu         sync.Mutex
	query      Query
	items      []model.Item
	categories []string
	locations  []string
	totalPages int
	loading    bool
	gen        uint64
	cancel     context.CancelFunc
}

// NewController creates a controller on page 1 with no filters. It does
// not fetch until asked to.
func NewController(backend Backend, tokens TokenSource, notifier notify.Notifier, downloader download.Downloader, opts ...Option) *Controller {
	c := &Controller{
		backend:    backend,
		tokens:     tokens,
		notifier:   notifier,
		downloader: downloader,
		logger:     slog.Default(),
		query:      Query{Page: 1},
		items:      []model.Item{},
		totalPages: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Query:      c.query,
		Items:      slices.Clone(c.items),
		Categories: slices.Clone(c.categories),
		Locations:  slices.Clone(c.locations),
		TotalPages: c.totalPages,
		HasNext:    c.hasNextLocked(),
		Loading:    c.loading,
	}
}

// SetSearch changes the search text, returns to page 1 and fetches.
func (c *Controller) SetSearch(ctx context.Context, search string) error {
	return c.change(ctx, func(q *Query) { q.Search = search; q.Page = 1 })
}

// SetCategory changes the category filter, returns to page 1 and fetches.
// An empty category removes the filter.
func (c *Controller) SetCategory(ctx context.Context, category string) error {
	return c.change(ctx, func(q *Query) { q.Category = category; q.Page = 1 })
}

// SetLocation changes the location filter, returns to page 1 and fetches.
// An empty location removes the filter.
func (c *Controller) SetLocation(ctx context.Context, location string) error {
	return c.change(ctx, func(q *Query) { q.Location = location; q.Page = 1 })
}

// SetFilters replaces search, category and location at once with a
// single fetch, returning to page 1.
func (c *Controller) SetFilters(ctx context.Context, search, category, location string) error {
	return c.change(ctx, func(q *Query) {
		*q = Query{Search: search, Category: category, Location: location, Page: 1}
	})
}

// SetQuery replaces the whole query with a single fetch. Pages below 1
// are treated as 1.
func (c *Controller) SetQuery(ctx context.Context, query Query) error {
	return c.change(ctx, func(q *Query) {
		*q = query
		q.Page = max(query.Page, 1)
	})
}

// Reset clears every filter and returns to page 1 with a single fetch.
func (c *Controller) Reset(ctx context.Context) error {
	return c.change(ctx, func(q *Query) { *q = Query{Page: 1} })
}

// SetPage moves to page and fetches. Pages below 1 are treated as 1.
func (c *Controller) SetPage(ctx context.Context, page int) error {
	return c.change(ctx, func(q *Query) { q.Page = max(page, 1) })
}

// NextPage moves forward one page. It does nothing unless the displayed
// page is full, since a short page is necessarily the last one.
func (c *Controller) NextPage(ctx context.Context) error {
	c.mu.Lock()
	hasNext := c.hasNextLocked()
	c.mu.Unlock()

	if !hasNext {
		return nil
	}
	return c.change(ctx, func(q *Query) { q.Page++ })
}

// PrevPage moves back one page. On page 1 it does nothing.
func (c *Controller) PrevPage(ctx context.Context) error {
	c.mu.Lock()
	first := c.query.Page <= 1
	c.mu.Unlock()

	if first {
		return nil
	}
	return c.change(ctx, func(q *Query) { q.Page = max(q.Page-1, 1) })
}

// Refresh fetches the current page again.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.change(ctx, func(*Query) {})
}

// Clear drops every filter and all held data and discards any fetch in
// flight. It is used when the session ends.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.query = Query{Page: 1}
	c.items = []model.Item{}
	c.categories = nil
	c.locations = nil
	c.totalPages = 1
	c.loading = false
}

func (c *Controller) hasNextLocked() bool {
	return len(c.items) == PageSize
}

// change applies mutate to the query and fetches the resulting page.
func (c *Controller) change(ctx context.Context, mutate func(*Query)) error {
	c.mu.Lock()
	token := c.tokens.Token()
	if token == "" {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}

	mutate(&c.query)
	q := c.query

	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	fctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.loading = true
	c.mu.Unlock()

	items, err := c.backend.ListItems(fctx, token, model.ItemFilter{
		Skip:     (q.Page - 1) * PageSize,
		Limit:    PageSize,
		Search:   q.Search,
		Category: q.Category,
		Location: q.Location,
	})

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.cancel = nil
	c.loading = false
	cancel()

	if err != nil {
		c.mu.Unlock()
		if ctx.Err() != nil {
			return fmt.Errorf("fetching items: %w", ctx.Err())
		}
		c.logger.Error("failed to fetch inventory items", "error", err)
		c.notifier.Notify(notify.Notice{
			Title:       "Error",
			Description: "Failed to fetch inventory items",
			Variant:     notify.Error,
		})
		return fmt.Errorf("fetching items: %w", err)
	}

	c.items = items
	c.categories = facet(items, (*model.Item).CategoryName)
	c.locations = facet(items, (*model.Item).LocationName)
	c.totalPages = totalPages(len(items))
	c.mu.Unlock()

	c.logger.Debug("inventory page loaded", "page", q.Page, "items", len(items))
	return nil
}

// facet returns the distinct non-empty values of field, sorted. Facets
// are derived from the displayed page only.
func facet(items []model.Item, field func(*model.Item) string) []string {
	var values []string
	for i := range items {
		if v := field(&items[i]); v != "" && !slices.Contains(values, v) {
			values = append(values, v)
		}
	}
	slices.Sort(values)
	return values
}

// totalPages is computed from the size of the fetched page, not from a
// server-side total, so it never exceeds 1 for a single page of results.
func totalPages(count int) int {
	return max(1, int(math.Ceil(float64(count)/float64(PageSize))))
}

// Export asks the server for every item as csv or json and hands the
// payload to the configured downloader. It returns where the file went.
func (c *Controller) Export(ctx context.Context, format string) (string, error) {
	return c.ExportTo(ctx, format, c.downloader)
}

// ExportTo is Export with an explicit downloader. It never changes the
// list state. Success produces exactly one download named
// "inventory-export.<format>"; failure produces none and one error notice.
func (c *Controller) ExportTo(ctx context.Context, format string, dl download.Downloader) (string, error) {
	label := strings.ToUpper(format)

	token := c.tokens.Token()
	if token == "" {
		return "", ErrNotAuthenticated
	}

	fail := func(err error) (string, error) {
		c.logger.Error("failed to export inventory", "format", format, "error", err)
		c.notifier.Notify(notify.Notice{
			Title:       "Export Failed",
			Description: "Could not export inventory data as " + label,
			Variant:     notify.Error,
		})
		return "", fmt.Errorf("exporting items: %w", err)
	}

	export, err := c.backend.ExportItems(ctx, token, format)
	if err != nil {
		return fail(err)
	}

	path, err := dl.Save("inventory-export."+format, export.Data)
	if err != nil {
		return fail(err)
	}

	c.logger.Info("inventory exported", "format", format, "bytes", len(export.Data), "path", path)
	c.notifier.Notify(notify.Notice{
		Title:       "Export Successful",
		Description: "Inventory data exported as " + label,
		Variant:     notify.Success,
	})
	return path, nil
}
