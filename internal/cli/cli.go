// Package cli is the scriptable command surface of vet-cli. It drives the
// same screen descriptors as the TUI.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/petsalud/vet-cli/internal/clinic"
	"github.com/petsalud/vet-cli/internal/screens"
)

// Colors for terminal output
const (
	Red    = "\033[0;31m"
	Green  = "\033[0;32m"
	Yellow = "\033[1;33m"
	Blue   = "\033[0;34m"
	Cyan   = "\033[0;36m"
	Reset  = "\033[0m"
)

// ErrNotSignedIn is returned by commands that need a session.
var ErrNotSignedIn = errors.New("not signed in. Run 'vet-cli login <user>' first")

// CLI runs one command against the clinic API.
type CLI struct {
	ctx    context.Context
	env    screens.Env
	client *clinic.Client
	out    io.Writer
	in     *bufio.Reader
	yes    bool
}

// New creates a CLI writing to out. Confirmations and missing passwords are
// read from in.
func New(ctx context.Context, env screens.Env, client *clinic.Client, out io.Writer, in io.Reader) *CLI {
	return &CLI{ctx: ctx, env: env, client: client, out: out, in: bufio.NewReader(in)}
}

func (c *CLI) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Run routes args, without the program name, to a command.
func (c *CLI) Run(args []string) error {
	args = c.globalFlags(args)
	if len(args) == 0 {
		PrintUsage(c.out)
		return nil
	}

	cmd := args[0]
	switch cmd {
	case "ping":
		return c.CmdPing()
	case "config":
		return c.CmdConfig()
	case "login":
		return c.CmdLogin(args[1:])
	case "logout":
		return c.CmdLogout()
	case "whoami":
		return c.CmdWhoami()
	case "dashboard":
		return c.CmdDashboard()
	case "report", "reportes":
		return c.CmdReport(args[1:])
	}

	r, ok := lookup(cmd)
	if !ok {
		return fmt.Errorf("unknown command: %s", cmd)
	}
	if len(args) > 1 {
		switch {
		case r.key() == "resultados" && args[1] == "pdf":
			return c.CmdResultPDF(args[2:])
		case r.key() == "inventario" && args[1] == "alerts":
			return c.CmdInventoryAlerts()
		case r.key() == "citas" && args[1] == "alerts":
			return c.CmdAppointmentAlerts()
		}
	}
	return r.run(c, args[1:])
}

// globalFlags strips the flags every command accepts.
func (c *CLI) globalFlags(args []string) []string {
	rest := make([]string, 0, len(args))
	for _, arg := range args {
		switch arg {
		case "--yes", "-y":
			c.yes = true
		default:
			rest = append(rest, arg)
		}
	}
	return rest
}

// require checks that someone is signed in and may open the section key.
func (c *CLI) require(key string) (*clinic.User, error) {
	u := c.env.Session.Current()
	if u == nil {
		return nil, ErrNotSignedIn
	}
	if !screens.Allowed(u.Role, key) {
		return nil, fmt.Errorf("role %s has no access to %s", u.Role, key)
	}
	return u, nil
}

func (c *CLI) notifier() *console {
	return &console{out: c.out, in: c.in, yes: c.yes}
}

func (c *CLI) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseOptions splits --key=value flags from positional arguments.
func parseOptions(args []string) (map[string]string, []string) {
	opts := map[string]string{}
	var rest []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "--") {
			k, v, _ := strings.Cut(arg[2:], "=")
			opts[k] = v
			continue
		}
		rest = append(rest, arg)
	}
	return opts, rest
}
