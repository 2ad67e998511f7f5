// Package cli implements the scannerlog subcommands that run once and
// exit.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/erazemk/scannerlog/internal/app"
	"github.com/erazemk/scannerlog/internal/config"
	"github.com/erazemk/scannerlog/internal/session"
)

// ErrNotLoggedIn is returned by commands that need a session when there is
// none.
var ErrNotLoggedIn = errors.New("not logged in: run 'scannerlog login' first")

// ErrUsage is returned for malformed command lines. The usage text has
// already been printed.
var ErrUsage = errors.New("invalid usage")

var commands = map[string]func(c *CLI, ctx context.Context, args []string) error{
	"login":         (*CLI).login,
	"register":      (*CLI).register,
	"logout":        (*CLI).logout,
	"whoami":        (*CLI).whoami,
	"items":         (*CLI).items,
	"item":          (*CLI).item,
	"export":        (*CLI).export,
	"notifications": (*CLI).notifications,
}

var usageLines = map[string]string{
	"login":         "login [username]",
	"register":      "register",
	"logout":        "logout",
	"whoami":        "whoami",
	"items":         "items [-s search] [-c category] [-l location] [-p page]",
	"item get":      "item get <id>",
	"item create":   "item create --name <name> --sku <sku> [flags]",
	"item update":   "item update <id> [flags]",
	"item delete":   "item delete <id>",
	"export":        "export [-f csv|json] [-d dir]",
	"notifications": "notifications [--all] | read <id> | read-all",
}

// IsCommand reports whether name is a subcommand handled by Run.
func IsCommand(name string) bool {
	_, ok := commands[name]
	return ok
}

// CLI runs subcommands against one App.
type CLI struct {
	App    *app.App
	Config *config.Config

	in    io.Reader
	lines *bufio.Reader
	out   io.Writer
	err   io.Writer
}

// New creates a CLI reading prompts from in and writing command output to
// out. Prompts go to errOut.
func New(a *app.App, cfg *config.Config, in io.Reader, out, errOut io.Writer) *CLI {
	return &CLI{
		App:    a,
		Config: cfg,
		in:     in,
		lines:  bufio.NewReader(in),
		out:    out,
		err:    errOut,
	}
}

// Run executes the subcommand named by args[0].
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command", ErrUsage)
	}
	run, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	return run(c, ctx, args[1:])
}

// flags creates a flag set for a subcommand that prints its usage line on
// error.
func (c *CLI) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.err)
	fs.Usage = func() {
		fmt.Fprintf(c.err, "Usage: scannerlog %s\n", usageLines[name])
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args into fs, mapping parse failures to ErrUsage.
func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// requireSession resumes the saved session.
func (c *CLI) requireSession(ctx context.Context) error {
	if err := c.App.Restore(ctx); err != nil {
		if errors.Is(err, session.ErrAuthInvalid) {
			return fmt.Errorf("saved session is no longer valid: run 'scannerlog login'")
		}
		return err
	}
	if !c.App.Session.Authenticated() {
		return ErrNotLoggedIn
	}
	return nil
}

// Usage writes the list of subcommands.
func Usage(w io.Writer) {
	fmt.Fprint(w, `Commands:
  serve                    run the web dashboard
  tui                      run the terminal dashboard
  login [username]         log in and save the session
  register                 create an account and log in
  logout                   forget the saved session
  whoami                   show the logged in user
  items                    list one page of items
      -s, --search <text>      search name, description and SKU
      -c, --category <name>    only this category
      -l, --location <name>    only this location
      -p, --page <n>           page number (default: 1)
  item get <id>            show one item
  item create              create an item (--name, --sku, --quantity, ...)
  item update <id>         change fields of an item
  item delete <id>         delete an item
  export                   save every item to a file
      -f, --format <fmt>       csv or json (default: csv)
      -d, --dir <path>         target directory (default: download_dir)
  notifications            list unread notifications (--all for every one)
  notifications read <id>  mark one notification read
  notifications read-all   mark every notification read
`)
}
