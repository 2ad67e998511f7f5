package model

import (
	"time"

	"github.com/google/uuid"
)

// Item is a stock item. Items are owned by the server; the client only
// ever holds the page it fetched last.
type Item struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	SKU         string    `json:"sku"`
	Quantity    int       `json:"quantity"`
	MinQuantity int       `json:"min_quantity"`
	Category    *string   `json:"category"`
	Location    *string   `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatedBy   uuid.UUID `json:"created_by"`
}

// Item stock statuses.
const (
	ItemStatusInStock  = "In Stock"
	ItemStatusLowStock = "Low Stock"
)

// DefaultMinQuantity is the reorder threshold the server applies when a
// new item does not set one.
const DefaultMinQuantity = 10

// LowStock reports whether the on-hand quantity is at or below the
// reorder threshold.
func (i *Item) LowStock() bool {
	return i.Quantity <= i.MinQuantity
}

// Status returns the derived stock status.
func (i *Item) Status() string {
	if i.LowStock() {
		return ItemStatusLowStock
	}
	return ItemStatusInStock
}

// CategoryName returns the category or "" when unset.
func (i *Item) CategoryName() string {
	return deref(i.Category)
}

// LocationName returns the location or "" when unset.
func (i *Item) LocationName() string {
	return deref(i.Location)
}

// DescriptionText returns the description or "" when unset.
func (i *Item) DescriptionText() string {
	return deref(i.Description)
}

// ItemCreate is the body of a create-item request.
type ItemCreate struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	SKU         string  `json:"sku"`
	Quantity    int     `json:"quantity"`
	MinQuantity *int    `json:"min_quantity,omitempty"`
	Category    *string `json:"category,omitempty"`
	Location    *string `json:"location,omitempty"`
}

// ItemUpdate is the body of a partial update. Nil fields are left unchanged.
type ItemUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	SKU         *string `json:"sku,omitempty"`
	Quantity    *int    `json:"quantity,omitempty"`
	MinQuantity *int    `json:"min_quantity,omitempty"`
	Category    *string `json:"category,omitempty"`
	Location    *string `json:"location,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u *ItemUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.SKU == nil &&
		u.Quantity == nil && u.MinQuantity == nil && u.Category == nil && u.Location == nil
}

// ItemFilter holds the list-items query parameters. Zero values are omitted
// from the request, except Skip and Limit which are always sent.
type ItemFilter struct {
	Skip        int
	Limit       int
	Search      string
	Category    string
	Location    string
	MinQuantity *int
	MaxQuantity *int
}

// Export formats accepted by the export endpoint.
const (
	ExportCSV  = "csv"
	ExportJSON = "json"
)

// ValidExportFormat reports whether format is one the server can render.
func ValidExportFormat(format string) bool {
	return format == ExportCSV || format == ExportJSON
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
