package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/petsalud/vet-cli/internal/viewmodel"
)

var boolOptions = []viewmodel.Option{{Value: "true", Label: "Sí"}, {Value: "false", Label: "No"}}

// input edits one field. Free text goes through a textinput; selectors
// cycle their options with ←/→ instead.
type input struct {
	field viewmodel.Field
	text  textinput.Model
}

func newInput(f viewmodel.Field) input {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Width = 40
	ti.CharLimit = 500
	if f.MaxLen > 0 {
		ti.CharLimit = f.MaxLen
	}
	switch f.Kind {
	case viewmodel.Date:
		ti.Placeholder = "AAAA-MM-DD"
	case viewmodel.DateTime:
		ti.Placeholder = "AAAA-MM-DDTHH:MM"
	case viewmodel.Money, viewmodel.Number:
		ti.Placeholder = "0.00"
	case viewmodel.Integer:
		ti.Placeholder = "0"
	}
	return input{field: f, text: ti}
}

func (in input) selector() bool {
	switch in.field.Kind {
	case viewmodel.Select, viewmodel.Ref, viewmodel.Bool:
		return true
	}
	return false
}

// cycle returns the option step places away from current, wrapping around.
func cycle(opts []viewmodel.Option, current string, step int) string {
	if len(opts) == 0 {
		return current
	}
	i := slices.IndexFunc(opts, func(o viewmodel.Option) bool { return o.Value == current })
	if i < 0 {
		if step > 0 {
			return opts[0].Value
		}
		return opts[len(opts)-1].Value
	}
	return opts[(i+step+len(opts))%len(opts)].Value
}

func optionLabel(opts []viewmodel.Option, value string) string {
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// render draws the value part of the input.
func (in input) render(value string, opts []viewmodel.Option, focused bool) string {
	if !in.selector() {
		if focused {
			return in.text.View()
		}
		if value == "" {
			return hintStyle.Render(in.text.Placeholder)
		}
		return value
	}
	label := optionLabel(opts, value)
	if value == "" {
		label = hintStyle.Render("(sin seleccionar)")
	}
	if focused {
		return selectedStyle.Render("‹ ") + label + selectedStyle.Render(" ›")
	}
	return label
}

func fieldLabel(f viewmodel.Field) string {
	if f.Required {
		return f.Label + " *"
	}
	return f.Label
}

// argsPrompt asks for the arguments of a row action.
type argsPrompt struct {
	title  string
	inputs []input
	values []string
	errs   []string
	focus  int
}

func newArgsPrompt(title string, fields []viewmodel.Field) *argsPrompt {
	p := &argsPrompt{title: title, values: make([]string, len(fields)), errs: make([]string, len(fields))}
	for i, f := range fields {
		in := newInput(f)
		in.text.SetValue(f.Default)
		p.inputs = append(p.inputs, in)
		p.values[i] = f.Default
	}
	p.updateFocus()
	return p
}

func (p *argsPrompt) options(i int) []viewmodel.Option {
	if p.inputs[i].field.Kind == viewmodel.Bool {
		return boolOptions
	}
	return p.inputs[i].field.Options
}

func (p *argsPrompt) updateFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range p.inputs {
		if i == p.focus {
			cmd = p.inputs[i].text.Focus()
		} else {
			p.inputs[i].text.Blur()
		}
	}
	return cmd
}

// update handles a key. ok is true once every argument validates; the
// caller then reads args.
func (p *argsPrompt) update(msg tea.KeyMsg) (ok, cancel bool, cmd tea.Cmd) {
	switch msg.String() {
	case "esc":
		return false, true, nil
	case "tab", "down":
		p.focus = (p.focus + 1) % len(p.inputs)
		return false, false, p.updateFocus()
	case "shift+tab", "up":
		p.focus = (p.focus - 1 + len(p.inputs)) % len(p.inputs)
		return false, false, p.updateFocus()
	case "enter":
		valid := true
		for i, in := range p.inputs {
			p.errs[i] = in.field.Validate(p.values[i])
			if p.errs[i] != "" {
				valid = false
			}
		}
		return valid, false, nil
	}

	in := &p.inputs[p.focus]
	if in.selector() {
		switch msg.String() {
		case "left", "h":
			p.values[p.focus] = cycle(p.options(p.focus), p.values[p.focus], -1)
		case "right", "l", " ":
			p.values[p.focus] = cycle(p.options(p.focus), p.values[p.focus], 1)
		}
		return false, false, nil
	}
	in.text, cmd = in.text.Update(msg)
	p.values[p.focus] = in.text.Value()
	return false, false, cmd
}

func (p *argsPrompt) args() []string {
	out := make([]string, len(p.values))
	for i, v := range p.values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func (p *argsPrompt) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" " + p.title + " "))
	b.WriteString("\n\n")
	for i, in := range p.inputs {
		b.WriteString(labelStyle.Render(fieldLabel(in.field)))
		b.WriteString("\n")
		b.WriteString(in.render(p.values[i], p.options(i), i == p.focus))
		b.WriteString("\n")
		if p.errs[i] != "" {
			b.WriteString(errorStyle.Render(p.errs[i]))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("[Tab] Siguiente    [Enter] Aceptar    [Esc] Cancelar"))
	return boxStyle.Render(b.String())
}
