package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/erazemk/scannerlog/internal/model"
	"github.com/erazemk/scannerlog/internal/session"
)

func (c *CLI) login(ctx context.Context, args []string) error {
	fs := c.flags("login")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(1))
	}

	username := fs.Arg(0)
	if username == "" {
		var err error
		if username, err = c.prompt("Username", c.App.LastUsername(ctx)); err != nil {
			return err
		}
	}
	if username == "" {
		return errors.New("username is required")
	}
	password, err := c.password("Password")
	if err != nil {
		return err
	}

	if err := c.App.Login(ctx, username, password); err != nil {
		return authFailure(c.App.Session, err, "Failed to login")
	}
	fmt.Fprintf(c.out, "Logged in as %s\n", c.App.Session.User().Username)
	return nil
}

func (c *CLI) register(ctx context.Context, args []string) error {
	fs := c.flags("register")
	if err := parse(fs, args); err != nil {
		return err
	}

	email, err := c.prompt("Email", "")
	if err != nil {
		return err
	}
	username, err := c.prompt("Username", "")
	if err != nil {
		return err
	}
	password, err := c.password("Password")
	if err != nil {
		return err
	}
	confirm, err := c.password("Confirm password")
	if err != nil {
		return err
	}

	switch {
	case email == "" || username == "":
		return errors.New("email and username are required")
	case password != confirm:
		return errors.New("passwords do not match")
	}
	if err := model.ValidatePassword(password); err != nil {
		return err
	}

	if err := c.App.Register(ctx, email, username, password); err != nil {
		return authFailure(c.App.Session, err, "Failed to register")
	}
	fmt.Fprintf(c.out, "Registered and logged in as %s\n", username)
	return nil
}

func (c *CLI) logout(ctx context.Context, args []string) error {
	fs := c.flags("logout")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.App.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func (c *CLI) whoami(ctx context.Context, args []string) error {
	fs := c.flags("whoami")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	user := c.App.Session.User()
	t := newTable("Field", "Value")
	t.Row("Username", user.Username)
	t.Row("Email", user.Email)
	t.Row("ID", user.ID.String())
	t.Row("Admin", fmt.Sprint(user.IsAdmin))
	t.Row("API", c.App.Client.BaseURL())
	fmt.Fprintln(c.out, t.Render())
	return nil
}

// authFailure turns a login or register error into the message the API
// gave, falling back to a generic one.
func authFailure(sess *session.Session, err error, fallback string) error {
	if errors.Is(err, session.ErrAuthInvalid) {
		return errors.New("the server issued a token that could not be validated")
	}
	if msg := sess.Err(); msg != "" {
		return errors.New(msg)
	}
	return fmt.Errorf("%s: %w", fallback, err)
}
