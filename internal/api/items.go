package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/erazemk/scannerlog/internal/model"
)

// DefaultListLimit is the page size the server uses when none is given.
const DefaultListLimit = 100

// ListItems returns one page of items matching filter.
func (c *Client) ListItems(ctx context.Context, token string, filter model.ItemFilter) ([]model.Item, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := url.Values{}
	query.Set("skip", strconv.Itoa(max(filter.Skip, 0)))
	query.Set("limit", strconv.Itoa(limit))
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.MinQuantity != nil {
		query.Set("min_quantity", strconv.Itoa(*filter.MinQuantity))
	}
	if filter.MaxQuantity != nil {
		query.Set("max_quantity", strconv.Itoa(*filter.MaxQuantity))
	}
	if filter.Location != "" {
		query.Set("location", filter.Location)
	}

	resp, err := c.doRequest(ctx, OpListItems, http.MethodGet, "/items", token, nil, query)
	if err != nil {
		return nil, err
	}

	var items []model.Item
	if err := decode(OpListItems, resp, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// GetItem returns a single item.
func (c *Client) GetItem(ctx context.Context, token string, id uuid.UUID) (*model.Item, error) {
	resp, err := c.doRequest(ctx, OpGetItem, http.MethodGet, "/items/"+id.String(), token, nil, nil)
	if err != nil {
		return nil, err
	}

	var item model.Item
	if err := decode(OpGetItem, resp, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem creates an item and returns it as stored by the server.
func (c *Client) CreateItem(ctx context.Context, token string, req model.ItemCreate) (*model.Item, error) {
	resp, err := c.doRequest(ctx, OpCreateItem, http.MethodPost, "/items", token, req, nil)
	if err != nil {
		return nil, err
	}

	var item model.Item
	if err := decode(OpCreateItem, resp, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem applies a partial update and returns the updated item.
func (c *Client) UpdateItem(ctx context.Context, token string, id uuid.UUID, req model.ItemUpdate) (*model.Item, error) {
	resp, err := c.doRequest(ctx, OpUpdateItem, http.MethodPut, "/items/"+id.String(), token, req, nil)
	if err != nil {
		return nil, err
	}

	var item model.Item
	if err := decode(OpUpdateItem, resp, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem deletes an item.
func (c *Client) DeleteItem(ctx context.Context, token string, id uuid.UUID) error {
	_, err := c.doRequest(ctx, OpDeleteItem, http.MethodDelete, "/items/"+id.String(), token, nil, nil)
	return err
}

// Export is a rendered export payload. The client does not interpret Data.
type Export struct {
	Format      string
	ContentType string
	// Filename is the name suggested by the server, if any.
	Filename string
	Data     []byte
}

// ExportItems asks the server to render every item as csv or json.
func (c *Client) ExportItems(ctx context.Context, token, format string) (*Export, error) {
	if !model.ValidExportFormat(format) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}

	query := url.Values{}
	query.Set("format", format)

	resp, err := c.doRequest(ctx, OpExportItems, http.MethodGet, "/items/export", token, nil, query)
	if err != nil {
		return nil, err
	}

	export := &Export{
		Format:      format,
		ContentType: resp.header.Get("Content-Type"),
		Data:        resp.body,
	}
	if cd := resp.header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			export.Filename = params["filename"]
		}
	}
	return export, nil
}
