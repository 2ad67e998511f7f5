package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// prompt prints label and reads one line. def is returned for an empty
// answer.
func (c *CLI) prompt(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(c.err, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(c.err, "%s: ", label)
	}
	line, err := c.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// password reads a password without echo when input is a terminal, and as
// a plain line otherwise.
func (c *CLI) password(label string) (string, error) {
	f, ok := c.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return c.prompt(label, "")
	}

	fmt.Fprintf(c.err, "%s: ", label)
	pw, err := readPassword(int(f.Fd()))
	fmt.Fprintln(c.err)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}
