package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/petsalud/vet-cli/internal/viewmodel"
)

// console prints notifications as colored lines and asks confirmations on
// the terminal.
type console struct {
	out io.Writer
	in  *bufio.Reader
	yes bool // answer yes to every confirmation
}

func (c *console) Success(msg string) { fmt.Fprintf(c.out, "%s✓ %s%s\n", Green, msg, Reset) }
func (c *console) Warning(msg string) { fmt.Fprintf(c.out, "%s! %s%s\n", Yellow, msg, Reset) }
func (c *console) Error(msg string)   { fmt.Fprintf(c.out, "%s✗ %s%s\n", Red, msg, Reset) }
func (c *console) Info(msg string)    { fmt.Fprintf(c.out, "%s%s%s\n", Blue, msg, Reset) }

// Confirm asks on the terminal. The answer is read in the background; an
// unreadable input counts as no.
func (c *console) Confirm(msg string) *viewmodel.Prompt {
	if c.yes {
		fmt.Fprintf(c.out, "%s %s[y/N]%s y\n", msg, Yellow, Reset)
		return viewmodel.Answered(msg, true)
	}

	fmt.Fprintf(c.out, "%s %s[y/N]%s ", msg, Yellow, Reset)
	p := viewmodel.NewPrompt(msg)
	go func() {
		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			p.Resolve(false)
			return
		}
		p.Resolve(affirmative(line))
	}()
	return p
}

func affirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "si", "sí":
		return true
	}
	return false
}
