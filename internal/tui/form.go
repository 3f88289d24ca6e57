package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/petsalud/vet-cli/internal/screens"
	"github.com/petsalud/vet-cli/internal/viewmodel"
)

type formLoadedMsg struct {
	owner screen
	err   error
}

type formSavedMsg[T any] struct {
	owner *formScreen[T]
	saved T
	err   error
}

var lineFields = []viewmodel.Field{
	{Name: viewmodel.LineDescription, Label: "Descripción", Required: true, MaxLen: 200},
	{Name: viewmodel.LineQuantity, Label: "Cant.", Kind: viewmodel.Integer, Required: true},
	{Name: viewmodel.LineUnitPrice, Label: "P. unitario", Kind: viewmodel.Money, Required: true},
	{Name: viewmodel.LineServiceType, Label: "Tipo", Kind: viewmodel.Select, Options: viewmodel.Values(viewmodel.ServiceTypes...)},
}

// slot is one focusable input: a field, or a column of a line item.
type slot struct {
	field int // index into fields, -1 for a line column
	line  int
	col   int
}

// formScreen creates, edits or shows one record.
type formScreen[T any] struct {
	app  *app
	desc *screens.Screen[T]
	form *viewmodel.Form[T]

	fields  []input
	lines   [][]input
	focus   int
	loading bool
}

func newFormScreen[T any](a *app, desc *screens.Screen[T], id int64, view bool) *formScreen[T] {
	s := &formScreen[T]{
		app:  a,
		desc: desc,
		form: viewmodel.NewForm(desc.Form, id, view),
	}
	for _, f := range desc.Form.Fields {
		s.fields = append(s.fields, newInput(f))
	}
	s.syncInputs()
	return s
}

func (s *formScreen[T]) title() string {
	switch s.form.Mode() {
	case viewmodel.Create:
		return "Registrar " + s.desc.Singular
	case viewmodel.Edit:
		return fmt.Sprintf("Editar %s #%d", s.desc.Singular, s.form.ID())
	}
	return fmt.Sprintf("Detalle de %s #%d", s.desc.Singular, s.form.ID())
}

func (s *formScreen[T]) capturing() bool { return false }

func (s *formScreen[T]) init() tea.Cmd {
	s.loading = true
	ctx, n := s.app.ctx, s.app.notify
	return tea.Batch(textinput.Blink, func() tea.Msg {
		return formLoadedMsg{owner: s, err: s.form.Load(ctx, n)}
	})
}

func (s *formScreen[T]) slots() []slot {
	var out []slot
	for i, in := range s.fields {
		if !in.field.ReadOnly {
			out = append(out, slot{field: i})
		}
	}
	for j := range s.lines {
		for k := range lineFields {
			out = append(out, slot{field: -1, line: j, col: k})
		}
	}
	return out
}

func (s *formScreen[T]) current() (slot, *input) {
	slots := s.slots()
	if len(slots) == 0 {
		return slot{field: -2}, nil
	}
	s.focus = min(max(0, s.focus), len(slots)-1)
	sl := slots[s.focus]
	if sl.field >= 0 {
		return sl, &s.fields[sl.field]
	}
	return sl, &s.lines[sl.line][sl.col]
}

func (s *formScreen[T]) value(sl slot) string {
	if sl.field >= 0 {
		return s.form.Value(s.fields[sl.field].field.Name)
	}
	lines := s.form.Lines()
	if sl.line >= len(lines) {
		return ""
	}
	return lines[sl.line].Get(lineFields[sl.col].Name)
}

func (s *formScreen[T]) options(sl slot) []viewmodel.Option {
	if sl.field < 0 {
		return lineFields[sl.col].Options
	}
	f := s.fields[sl.field].field
	if f.Kind == viewmodel.Bool {
		return boolOptions
	}
	return s.form.Options(f.Name)
}

func (s *formScreen[T]) set(sl slot, value string) error {
	if sl.field >= 0 {
		return s.form.Set(s.fields[sl.field].field.Name, value)
	}
	return s.form.SetLine(sl.line, lineFields[sl.col].Name, value)
}

// apply sets a value typed or chosen by the user. A refused value is
// logged and the inputs go back to what the form holds.
func (s *formScreen[T]) apply(sl slot, value string) {
	if err := s.set(sl, value); err != nil {
		s.app.logger.Warn("field change refused", "screen", s.desc.Key, "err", err)
	}
	s.syncInputs()
}

func (s *formScreen[T]) errorOf(sl slot) string {
	if sl.field >= 0 {
		return s.form.FieldError(s.fields[sl.field].field.Name)
	}
	return s.form.FieldError(viewmodel.LineKey(sl.line, lineFields[sl.col].Name))
}

// syncInputs copies the form values into the text inputs. Cascades and
// loads change values behind the inputs' back.
func (s *formScreen[T]) syncInputs() {
	n := len(s.form.Lines())
	for len(s.lines) < n {
		row := make([]input, len(lineFields))
		for k, f := range lineFields {
			row[k] = newInput(f)
		}
		s.lines = append(s.lines, row)
	}
	s.lines = s.lines[:n]

	for _, sl := range s.slots() {
		in := s.input(sl)
		if v := s.value(sl); !in.selector() && in.text.Value() != v {
			in.text.SetValue(v)
		}
	}
}

func (s *formScreen[T]) input(sl slot) *input {
	if sl.field >= 0 {
		return &s.fields[sl.field]
	}
	return &s.lines[sl.line][sl.col]
}

func (s *formScreen[T]) updateFocus() tea.Cmd {
	var cmd tea.Cmd
	focused, _ := s.current()
	for _, sl := range s.slots() {
		in := s.input(sl)
		if sl == focused && s.form.Editable() {
			cmd = in.text.Focus()
		} else {
			in.text.Blur()
		}
	}
	return cmd
}

func (s *formScreen[T]) touch(sl slot) {
	if sl.field >= 0 {
		s.form.Touch(s.fields[sl.field].field.Name)
	}
}

func (s *formScreen[T]) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case formLoadedMsg:
		if msg.owner != screen(s) {
			return nil
		}
		s.loading = false
		if msg.err != nil && s.form.Mode() != viewmodel.Create {
			return pop(false)
		}
		s.syncInputs()
		return s.updateFocus()

	case formSavedMsg[T]:
		if msg.owner != s {
			return nil
		}
		if s.form.Finish(msg.saved, msg.err, s.app.notify) {
			return pop(true)
		}
		if msg.err != nil {
			s.app.logger.Warn("save failed", "screen", s.desc.Key, "err", msg.err)
		}
		return nil

	case tea.KeyMsg:
		if s.loading {
			return nil
		}
		if !s.form.Editable() {
			if msg.String() == "e" && s.form.Mode() == viewmodel.View {
				return replace(newFormScreen(s.app, s.desc, s.form.ID(), false))
			}
			return nil
		}
		return s.handleKey(msg)
	}
	return nil
}

func (s *formScreen[T]) handleKey(msg tea.KeyMsg) tea.Cmd {
	sl, in := s.current()
	if in == nil {
		return nil
	}

	switch msg.String() {
	case "tab", "down":
		s.touch(sl)
		s.focus = (s.focus + 1) % len(s.slots())
		return s.updateFocus()
	case "shift+tab", "up":
		s.touch(sl)
		n := len(s.slots())
		s.focus = (s.focus - 1 + n) % n
		return s.updateFocus()
	case "enter":
		return s.submit()
	case "ctrl+n":
		if s.form.HasLines() {
			if err := s.form.AddLine(); err != nil {
				s.app.logger.Warn("add line failed", "screen", s.desc.Key, "err", err)
				return nil
			}
			s.syncInputs()
		}
		return nil
	case "ctrl+x":
		if s.form.HasLines() && sl.field < 0 {
			if err := s.form.RemoveLine(sl.line, s.app.notify); err == nil {
				s.syncInputs()
				s.focus = min(s.focus, len(s.slots())-1)
				return s.updateFocus()
			}
		}
		return nil
	}

	if in.selector() {
		step := 0
		switch msg.String() {
		case "left", "h":
			step = -1
		case "right", "l", " ":
			step = 1
		}
		if step != 0 {
			s.apply(sl, cycle(s.options(sl), s.value(sl), step))
		}
		return nil
	}

	var cmd tea.Cmd
	in.text, cmd = in.text.Update(msg)
	if in.text.Value() != s.value(sl) {
		s.apply(sl, in.text.Value())
	}
	return cmd
}

func (s *formScreen[T]) submit() tea.Cmd {
	record, err := s.form.Begin(s.app.notify)
	if err != nil {
		return nil
	}
	ctx := s.app.ctx
	return func() tea.Msg {
		saved, err := s.form.Save(ctx, record)
		return formSavedMsg[T]{owner: s, saved: saved, err: err}
	}
}

func (s *formScreen[T]) view(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" " + s.title() + " "))
	b.WriteString("\n\n")

	if s.loading {
		b.WriteString(s.app.loadingLine("Cargando"))
		return b.String()
	}

	focused, _ := s.current()
	editable := s.form.Editable()
	for i, in := range s.fields {
		sl := slot{field: i}
		b.WriteString(labelStyle.Render(fieldLabel(in.field)))
		b.WriteString("\n  ")
		b.WriteString(in.render(s.value(sl), s.options(sl), editable && sl == focused))
		b.WriteString("\n")
		if msg := s.errorOf(sl); msg != "" {
			b.WriteString("  " + errorStyle.Render(msg) + "\n")
		}
	}

	if s.form.HasLines() {
		b.WriteString("\n")
		b.WriteString(s.renderLines(focused, editable))
	}

	if s.form.Submitting() {
		b.WriteString("\n")
		b.WriteString(s.app.loadingLine("Guardando"))
	}
	return boxStyle.Render(b.String())
}

func (s *formScreen[T]) renderLines(focused slot, editable bool) string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render("DETALLE"))
	b.WriteString("\n")
	for j := range s.lines {
		cells := make([]string, len(lineFields))
		var errs []string
		for k, f := range lineFields {
			sl := slot{field: -1, line: j, col: k}
			cells[k] = s.lines[j][k].render(s.value(sl), f.Options, editable && sl == focused)
			if msg := s.errorOf(sl); msg != "" {
				errs = append(errs, f.Label+": "+msg)
			}
		}
		b.WriteString(fmt.Sprintf("  %d. %s\n", j+1, strings.Join(cells, " | ")))
		for _, e := range errs {
			b.WriteString("     " + errorStyle.Render(e) + "\n")
		}
	}

	t := s.form.Totals()
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Subtotal:  %s\n", screens.Money(t.Subtotal)))
	b.WriteString(fmt.Sprintf("  IGV:       %s\n", screens.Money(t.Tax)))
	b.WriteString(fmt.Sprintf("  Total:     %s\n", successStyle.Render(screens.Money(t.Total))))
	return b.String()
}

func (s *formScreen[T]) help() string {
	if !s.form.Editable() {
		return "e: edit • esc: back"
	}
	help := "tab: next field • ←/→: choose • enter: submit • esc: cancel"
	if s.form.HasLines() {
		help += " • ctrl+n: add line • ctrl+x: remove line"
	}
	return help
}
