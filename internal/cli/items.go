package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/erazemk/scannerlog/internal/download"
	"github.com/erazemk/scannerlog/internal/inventory"
	"github.com/erazemk/scannerlog/internal/model"
)

func (c *CLI) items(ctx context.Context, args []string) error {
	fs := c.flags("items")
	var query inventory.Query
	fs.StringVarP(&query.Search, "search", "s", "", "search name, description and SKU")
	fs.StringVarP(&query.Category, "category", "c", "", "only items in this category")
	fs.StringVarP(&query.Location, "location", "l", "", "only items at this location")
	fs.IntVarP(&query.Page, "page", "p", 1, "page number")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	if err := c.App.Inventory.SetQuery(ctx, query); err != nil {
		return err
	}

	snap := c.App.Inventory.Snapshot()
	renderItems(c.out, snap.Items)
	renderFacets(c.out, "Categories", snap.Categories)
	renderFacets(c.out, "Locations", snap.Locations)
	if snap.HasNext {
		fmt.Fprintf(c.out, "Page %d. More items may follow: scannerlog items --page %d\n", snap.Query.Page, snap.Query.Page+1)
	} else {
		fmt.Fprintf(c.out, "Page %d of %d\n", snap.Query.Page, snap.TotalPages)
	}
	return nil
}

func (c *CLI) item(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: item needs get, create, update or delete", ErrUsage)
	}
	switch args[0] {
	case "get":
		return c.itemGet(ctx, args[1:])
	case "create":
		return c.itemCreate(ctx, args[1:])
	case "update":
		return c.itemUpdate(ctx, args[1:])
	case "delete":
		return c.itemDelete(ctx, args[1:])
	default:
		return fmt.Errorf("%w: unknown item command %q", ErrUsage, args[0])
	}
}

// itemID parses the single id argument of an item subcommand.
func itemID(fs *pflag.FlagSet) (uuid.UUID, error) {
	if fs.NArg() != 1 {
		fs.Usage()
		return uuid.Nil, fmt.Errorf("%w: expected one item id", ErrUsage)
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid item id %q: %w", fs.Arg(0), err)
	}
	return id, nil
}

func (c *CLI) itemGet(ctx context.Context, args []string) error {
	fs := c.flags("item get")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := itemID(fs)
	if err != nil {
		return err
	}
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	item, err := c.App.Inventory.Get(ctx, id)
	if err != nil {
		return err
	}
	renderItem(c.out, item)
	return nil
}

// itemFields holds the flags shared by item create and update.
type itemFields struct {
	name, sku, description, category, location string
	quantity, minQuantity                      int
}

func bindItemFields(fs *pflag.FlagSet) *itemFields {
	f := &itemFields{}
	fs.StringVar(&f.name, "name", "", "item name")
	fs.StringVar(&f.sku, "sku", "", "stock keeping unit")
	fs.StringVar(&f.description, "description", "", "description")
	fs.StringVar(&f.category, "category", "", "category")
	fs.StringVar(&f.location, "location", "", "location")
	fs.IntVar(&f.quantity, "quantity", 0, "quantity on hand")
	fs.IntVar(&f.minQuantity, "min-quantity", model.DefaultMinQuantity, "reorder threshold")
	return f
}

func (c *CLI) itemCreate(ctx context.Context, args []string) error {
	fs := c.flags("item create")
	f := bindItemFields(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if f.name == "" || f.sku == "" {
		fs.Usage()
		return fmt.Errorf("%w: --name and --sku are required", ErrUsage)
	}
	if f.quantity < 0 || f.minQuantity < 0 {
		return errors.New("quantities must not be negative")
	}
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	req := model.ItemCreate{
		Name:        f.name,
		SKU:         f.sku,
		Quantity:    f.quantity,
		Description: model.StringPtr(f.description),
		Category:    model.StringPtr(f.category),
		Location:    model.StringPtr(f.location),
	}
	if fs.Changed("min-quantity") {
		req.MinQuantity = &f.minQuantity
	}

	item, err := c.App.Inventory.Create(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, item.ID)
	return nil
}

func (c *CLI) itemUpdate(ctx context.Context, args []string) error {
	fs := c.flags("item update")
	f := bindItemFields(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := itemID(fs)
	if err != nil {
		return err
	}

	var req model.ItemUpdate
	str := func(flag string, v string, dst **string) {
		if fs.Changed(flag) {
			*dst = &v
		}
	}
	str("name", f.name, &req.Name)
	str("sku", f.sku, &req.SKU)
	str("description", f.description, &req.Description)
	str("category", f.category, &req.Category)
	str("location", f.location, &req.Location)
	if fs.Changed("quantity") {
		req.Quantity = &f.quantity
	}
	if fs.Changed("min-quantity") {
		req.MinQuantity = &f.minQuantity
	}
	if req.Empty() {
		return fmt.Errorf("%w: nothing to update", ErrUsage)
	}
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	item, err := c.App.Inventory.Update(ctx, id, req)
	if err != nil {
		return err
	}
	renderItem(c.out, item)
	return nil
}

func (c *CLI) itemDelete(ctx context.Context, args []string) error {
	fs := c.flags("item delete")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := itemID(fs)
	if err != nil {
		return err
	}
	if err := c.requireSession(ctx); err != nil {
		return err
	}
	return c.App.Inventory.Delete(ctx, id)
}

func (c *CLI) export(ctx context.Context, args []string) error {
	fs := c.flags("export")
	format := fs.StringP("format", "f", model.ExportCSV, "csv or json")
	dir := fs.StringP("dir", "d", c.Config.DownloadDir, "directory to save the file in")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !model.ValidExportFormat(*format) {
		return fmt.Errorf("%w: unsupported format %q", ErrUsage, *format)
	}
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	path, err := c.App.Inventory.ExportTo(ctx, *format, download.Dir{Path: *dir})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, path)
	return nil
}
