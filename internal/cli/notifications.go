package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

func (c *CLI) notifications(ctx context.Context, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "read":
			return c.notificationRead(ctx, args[1:])
		case "read-all":
			return c.notificationsReadAll(ctx, args[1:])
		}
	}

	fs := c.flags("notifications")
	all := fs.BoolP("all", "a", false, "include notifications already read")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	if err := c.App.Notifications.SetUnreadOnly(ctx, !*all); err != nil {
		return err
	}
	renderNotifications(c.out, c.App.Notifications.Snapshot().Notifications)
	return nil
}

func (c *CLI) notificationRead(ctx context.Context, args []string) error {
	fs := c.flags("notifications")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("%w: expected one notification id", ErrUsage)
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid notification id %q: %w", fs.Arg(0), err)
	}
	if err := c.requireSession(ctx); err != nil {
		return err
	}
	return c.App.Notifications.MarkRead(ctx, id)
}

func (c *CLI) notificationsReadAll(ctx context.Context, args []string) error {
	fs := c.flags("notifications")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	if err := c.App.Notifications.SetUnreadOnly(ctx, true); err != nil {
		return err
	}
	if !c.App.Notifications.CanMarkAll() {
		fmt.Fprintln(c.out, "No unread notifications")
		return nil
	}
	return c.App.Notifications.MarkAllRead(ctx)
}
