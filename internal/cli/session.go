package cli

import (
	"fmt"
	"strings"

	"github.com/petsalud/vet-cli/internal/clinic"
)

// CmdPing tests the connection
func (c *CLI) CmdPing() error {
	c.printf("%sTesting connection to the clinic API...%s\n", Blue, Reset)

	c.client.DetectConnection(c.ctx)
	if err := c.client.Ping(c.ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	c.printf("%s✓ Connection successful%s\n", Green, Reset)
	c.printMode()
	if u := c.env.Session.Current(); u != nil {
		c.printf("  Signed in as: %s%s%s (%s)\n", Yellow, u.DisplayName(), Reset, u.Role)
	}
	return nil
}

func (c *CLI) printMode() {
	if c.client.Mode == clinic.ModeLAN {
		c.printf("  Mode: %sRed local%s (%s)\n", Cyan, Reset, c.client.ActiveURL)
	} else {
		c.printf("  Mode: %sInternet%s (%s)\n", Yellow, Reset, c.client.ActiveURL)
	}
}

// CmdConfig shows current configuration
func (c *CLI) CmdConfig() error {
	config := c.env.Config
	c.printf("%sCurrent configuration:%s\n", Blue, Reset)
	if config.Path != "" {
		c.printf("  File: %s\n", config.Path)
	}
	c.printf("  API URL: %s\n", config.APIURL)
	if config.LANURL != "" {
		c.printf("  LAN URL: %s\n", config.LANURL)
	} else {
		c.printf("  LAN URL: %snot configured%s\n", Yellow, Reset)
	}
	c.printf("  Brand: %s\n", config.Brand)
	c.printf("  Page size: %d\n", config.PageSize)
	c.printf("  Timeout: %s\n", config.Timeout)
	c.printf("  Download dir: %s\n", config.DownloadDir)
	c.printf("  Log: %s (%s)\n", orNone(config.LogFile), config.LogLevel)
	c.printf("  Session file: %s\n", orNone(config.SessionFile))

	c.printf("\n")
	c.client.DetectConnection(c.ctx)
	c.printMode()
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// CmdLogin signs in. A missing password is read from the input.
func (c *CLI) CmdLogin(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: vet-cli login <user> [password]")
	}
	username, password := args[0], ""
	if len(args) > 1 {
		password = args[1]
	} else {
		c.printf("Contraseña: ")
		line, err := c.readLine()
		if err != nil {
			return fmt.Errorf("cannot read password: %w", err)
		}
		password = line
	}

	u, err := c.env.API.Auth.Login(c.ctx, strings.TrimSpace(username), password)
	if err != nil {
		return fmt.Errorf("%s: %w", clinic.Describe(err, "Error al iniciar sesión"), err)
	}
	c.printf("%s✓ Bienvenido, %s%s (%s)\n", Green, u.DisplayName(), Reset, u.Role)
	return nil
}

// CmdLogout clears the saved session
func (c *CLI) CmdLogout() error {
	if c.env.Session.Current() == nil {
		c.printf("%sNo hay una sesión activa%s\n", Yellow, Reset)
		return nil
	}
	if err := c.env.API.Auth.Logout(); err != nil {
		return err
	}
	c.printf("%s✓ Sesión cerrada%s\n", Green, Reset)
	return nil
}

// CmdWhoami shows the signed-in user
func (c *CLI) CmdWhoami() error {
	u := c.env.Session.Current()
	if u == nil {
		return ErrNotSignedIn
	}
	c.printf("%s%s%s\n", Cyan, u.DisplayName(), Reset)
	c.printf("  User: %s\n", u.Username)
	c.printf("  Role: %s\n", u.Role)
	if u.Email != "" {
		c.printf("  Email: %s\n", u.Email)
	}
	return nil
}
