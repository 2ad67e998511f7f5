package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/erazemk/scannerlog/internal/api"
	"github.com/erazemk/scannerlog/internal/model"
	"github.com/erazemk/scannerlog/internal/notify"
)

// Get fetches a single item. It does not touch the list state.
func (c *Controller) Get(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	token := c.tokens.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	item, err := c.backend.GetItem(ctx, token, id)
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// Create creates an item and reloads the current page.
func (c *Controller) Create(ctx context.Context, req model.ItemCreate) (*model.Item, error) {
	token := c.tokens.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	item, err := c.backend.CreateItem(ctx, token, req)
	if err != nil {
		return nil, c.mutationFailed("create", err, "Failed to create item")
	}

	c.logger.Info("item created", "id", item.ID, "sku", item.SKU)
	c.notifier.Notify(notify.Notice{Title: "Item created", Description: item.Name, Variant: notify.Success})
	c.reload(ctx)
	return item, nil
}

// Update applies a partial update and reloads the current page.
func (c *Controller) Update(ctx context.Context, id uuid.UUID, req model.ItemUpdate) (*model.Item, error) {
	token := c.tokens.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	item, err := c.backend.UpdateItem(ctx, token, id, req)
	if err != nil {
		return nil, c.mutationFailed("update", err, "Failed to update item")
	}

	c.logger.Info("item updated", "id", item.ID)
	c.notifier.Notify(notify.Notice{Title: "Item updated", Description: item.Name, Variant: notify.Success})
	c.reload(ctx)
	return item, nil
}

// Delete deletes an item and reloads the current page.
func (c *Controller) Delete(ctx context.Context, id uuid.UUID) error {
	token := c.tokens.Token()
	if token == "" {
		return ErrNotAuthenticated
	}

	if err := c.backend.DeleteItem(ctx, token, id); err != nil {
		return c.mutationFailed("delete", err, "Failed to delete item")
	}

	c.logger.Info("item deleted", "id", id)
	c.notifier.Notify(notify.Notice{Title: "Item deleted", Variant: notify.Success})
	c.reload(ctx)
	return nil
}

func (c *Controller) mutationFailed(verb string, err error, fallback string) error {
	c.logger.Error("failed to "+verb+" item", "error", err)
	c.notifier.Notify(notify.Notice{
		Title:       "Error",
		Description: api.Message(err, fallback),
		Variant:     notify.Error,
	})
	return fmt.Errorf("%s item: %w", verb, err)
}

// reload refreshes the page after a mutation. A failed reload has already
// produced its own notice.
func (c *Controller) reload(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		c.logger.Debug("reload after mutation failed", "error", err)
	}
}
