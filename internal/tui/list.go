package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/petsalud/vet-cli/internal/clinic"
	"github.com/petsalud/vet-cli/internal/screens"
	"github.com/petsalud/vet-cli/internal/viewmodel"
)

type listLoadedMsg[T any] struct {
	owner *listScreen[T]
	gen   uint64
	items []T
	err   error
}

// listSyncMsg asks a list screen to redraw its rows after a background
// change, e.g. a row action that refetched.
type listSyncMsg struct {
	owner screen
}

// listScreen shows one entity as a paged table with search, filters and
// the entity's row actions.
type listScreen[T any] struct {
	app   *app
	desc  *screens.Screen[T]
	list  *viewmodel.List[T]
	table table.Model

	search    textinput.Model
	searching bool
	filter    int // filter changed by "f"

	args    *argsPrompt
	pending screens.RowAction[T]
	target  T
}

func newListScreen[T any](a *app, desc *screens.Screen[T]) *listScreen[T] {
	cols := make([]table.Column, len(desc.Columns))
	for i, c := range desc.Columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}
	list := viewmodel.NewList(desc.List)

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(list.PageSize()+1),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(accent).
		Bold(false)
	t.SetStyles(styles)

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Buscar..."
	search.CharLimit = 100
	search.Width = 40

	return &listScreen[T]{app: a, desc: desc, list: list, table: t, search: search}
}

func (s *listScreen[T]) title() string { return s.desc.Title }

func (s *listScreen[T]) init() tea.Cmd { return s.fetch() }

func (s *listScreen[T]) capturing() bool { return s.searching || s.args != nil }

func (s *listScreen[T]) fetch() tea.Cmd {
	req := s.list.Refresh()
	ctx := s.app.ctx
	return func() tea.Msg {
		items, err := req.Run(ctx)
		return listLoadedMsg[T]{owner: s, gen: req.Gen, items: items, err: err}
	}
}

func (s *listScreen[T]) sync() {
	page := s.list.Page()
	rows := make([]table.Row, len(page))
	for i, record := range page {
		rows[i] = s.desc.Row(record)
	}
	s.table.SetRows(rows)
	if c := s.table.Cursor(); c >= len(rows) {
		s.table.SetCursor(max(0, len(rows)-1))
	}
}

func (s *listScreen[T]) selected() (T, bool) {
	page := s.list.Page()
	c := s.table.Cursor()
	if c < 0 || c >= len(page) {
		var zero T
		return zero, false
	}
	return page[c], true
}

func (s *listScreen[T]) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case listLoadedMsg[T]:
		if msg.owner != s || !s.list.Apply(msg.gen, msg.items, msg.err) {
			return nil
		}
		if msg.err != nil {
			s.app.logger.Error("list fetch failed", "screen", s.desc.Key, "err", msg.err)
		}
		s.sync()
		return nil

	case listSyncMsg:
		if msg.owner == screen(s) {
			s.sync()
		}
		return nil

	case refreshMsg:
		return s.fetch()

	case tea.KeyMsg:
		if s.args != nil {
			return s.updateArgs(msg)
		}
		if s.searching {
			return s.updateSearch(msg)
		}
		return s.handleKey(msg)
	}
	return nil
}

func (s *listScreen[T]) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		s.searching = false
		s.search.Blur()
		return nil
	case "esc":
		s.searching = false
		s.search.Blur()
		s.search.SetValue("")
		s.list.SetSearch("")
		s.sync()
		return nil
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	s.list.SetSearch(s.search.Value())
	s.sync()
	return cmd
}

func (s *listScreen[T]) updateArgs(msg tea.KeyMsg) tea.Cmd {
	ok, cancel, cmd := s.args.update(msg)
	if cancel {
		s.args = nil
		return nil
	}
	if !ok {
		return cmd
	}
	args := s.args.args()
	s.args = nil
	return s.run(s.pending, s.target, args)
}

func (s *listScreen[T]) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "r":
		return s.fetch()
	case "/":
		s.searching = true
		return s.search.Focus()
	case "left", "h":
		if s.list.PrevPage() {
			s.sync()
		}
		return nil
	case "right", "l":
		if s.list.NextPage() {
			s.sync()
		}
		return nil
	case "tab":
		if n := len(s.list.Filters()); n > 0 {
			s.filter = (s.filter + 1) % n
		}
		return nil
	case "f":
		return s.cycleFilter()
	case "F":
		s.search.SetValue("")
		refetch := s.list.ClearFilters()
		s.sync()
		if refetch {
			return s.fetch()
		}
		return nil
	case "n":
		return push(newFormScreen(s.app, s.desc, 0, false))
	case "enter", "e":
		record, ok := s.selected()
		if !ok {
			return nil
		}
		return push(newFormScreen(s.app, s.desc, s.desc.ID(record), key == "enter"))
	}

	for _, a := range s.desc.Actions {
		if a.Key != key || !a.Allowed(s.app.role()) {
			continue
		}
		record, ok := s.selected()
		if !ok {
			return nil
		}
		if len(a.Args) > 0 {
			if a.Guard != nil {
				if msg := a.Guard(record); msg != "" {
					s.app.notify.Warning(msg)
					return nil
				}
			}
			s.pending, s.target = a, record
			s.args = newArgsPrompt(a.Label, a.Args)
			return textinput.Blink
		}
		return s.run(a, record, nil)
	}

	var cmd tea.Cmd
	s.table, cmd = s.table.Update(msg)
	return cmd
}

func (s *listScreen[T]) cycleFilter() tea.Cmd {
	filters := s.list.Filters()
	if len(filters) == 0 {
		return nil
	}
	f := filters[s.filter]
	refetch := s.list.SetFilter(f.Name, cycle(f.Options, s.list.Filter(f.Name), 1))
	s.sync()
	if refetch {
		return s.fetch()
	}
	return nil
}

// run executes a row action off the event loop: its confirmation comes
// back through the notifier while the command waits on it.
func (s *listScreen[T]) run(a screens.RowAction[T], record T, args []string) tea.Cmd {
	ctx, n := s.app.ctx, s.app.notify
	return func() tea.Msg {
		if _, err := a.Run(ctx, s.list, n, record, args); err != nil {
			s.app.logger.Warn("row action failed", "screen", s.desc.Key, "action", a.Name, "err", err)
		}
		return listSyncMsg{owner: s}
	}
}

func (s *listScreen[T]) view(width, height int) string {
	if s.args != nil {
		return s.args.view()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(" " + s.desc.Title + " "))
	b.WriteString("  ")
	b.WriteString(s.renderFilters())
	b.WriteString("\n")
	if s.searching || s.search.Value() != "" {
		b.WriteString(s.search.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	state, err := s.list.State()
	switch {
	case state == viewmodel.Loading && len(s.table.Rows()) == 0:
		b.WriteString(s.app.loadingLine("Cargando " + strings.ToLower(s.desc.Title)))
		return b.String()
	case state == viewmodel.Failed:
		b.WriteString(errorStyle.Render("Error: " + clinic.Describe(err, "Error al cargar "+strings.ToLower(s.desc.Title))))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("r: reintentar"))
		return b.String()
	case state == viewmodel.Ready && len(s.table.Rows()) == 0:
		b.WriteString(hintStyle.Render("  No se encontraron registros"))
		return b.String()
	}

	b.WriteString(s.table.View())
	b.WriteString("\n")
	b.WriteString(s.renderFooter())
	return b.String()
}

func (s *listScreen[T]) renderFilters() string {
	filters := s.list.Filters()
	parts := make([]string, 0, len(filters))
	for i, f := range filters {
		label := f.Label + ": " + optionLabel(f.Options, s.list.Filter(f.Name))
		if i == s.filter {
			label = selectedStyle.Render(label)
		} else {
			label = breadcrumbStyle.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "  ")
}

func (s *listScreen[T]) renderFooter() string {
	total := len(s.list.Filtered())
	footer := fmt.Sprintf("  Página %d de %d • %d registros", s.list.CurrentPage(), max(1, s.list.TotalPages()), total)
	if state, _ := s.list.State(); state == viewmodel.Loading {
		footer += " • " + s.app.spin + " actualizando"
	}
	return helpStyle.Render(footer)
}

func (s *listScreen[T]) help() string {
	if s.args != nil {
		return "tab: next field • ←/→: choose • enter: accept • esc: cancel"
	}
	if s.searching {
		return "type to search • enter: keep • esc: clear"
	}
	parts := []string{"↑/↓: navigate", "←/→: page", "enter: view", "n: new", "e: edit"}
	for _, a := range s.desc.Actions {
		if a.Allowed(s.app.role()) {
			parts = append(parts, a.Key+": "+strings.ToLower(a.Label))
		}
	}
	parts = append(parts, "/: search")
	if len(s.list.Filters()) > 0 {
		parts = append(parts, "tab/f: filter", "F: clear")
	}
	parts = append(parts, "r: refresh", "esc: back")
	return strings.Join(parts, " • ")
}
