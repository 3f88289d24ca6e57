// Package tui is the interactive terminal front-end of the clinic.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/petsalud/vet-cli/internal/clinic"
	"github.com/petsalud/vet-cli/internal/screens"
	"github.com/petsalud/vet-cli/internal/viewmodel"
)

// screen is one page of the navigation stack.
type screen interface {
	title() string
	init() tea.Cmd
	update(msg tea.Msg) tea.Cmd
	view(width, height int) string
	help() string
	// capturing reports whether the screen uses esc itself.
	capturing() bool
}

// app is what every screen shares.
type app struct {
	ctx    context.Context
	env    screens.Env
	client *clinic.Client
	logger *log.Logger
	notify *notifier
	spin   string
}

func (a *app) role() string {
	if u := a.env.Session.Current(); u != nil {
		return u.Role
	}
	return ""
}

func (a *app) now() time.Time {
	if a.env.Now != nil {
		return a.env.Now()
	}
	return time.Now()
}

func (a *app) loadingLine(what string) string {
	return fmt.Sprintf("\n  %s %s...", a.spin, what)
}

// openers build the screen behind each menu key.
var openers = map[string]func(a *app) screen{
	screens.KeyDashboard: func(a *app) screen { return newDashboardScreen(a) },
	screens.KeyReports:   func(a *app) screen { return newReportsScreen(a) },
	"duenos":             func(a *app) screen { return newListScreen(a, screens.Owners(a.env)) },
	"mascotas":           func(a *app) screen { return newListScreen(a, screens.Pets(a.env)) },
	"veterinarios":       func(a *app) screen { return newListScreen(a, screens.Vets(a.env)) },
	"tecnicos":           func(a *app) screen { return newListScreen(a, screens.Technicians(a.env)) },
	"ordenes":            func(a *app) screen { return newListScreen(a, screens.Orders(a.env)) },
	"muestras":           func(a *app) screen { return newListScreen(a, screens.Samples(a.env)) },
	"resultados":         func(a *app) screen { return newListScreen(a, screens.Results(a.env)) },
	"facturas":           func(a *app) screen { return newListScreen(a, screens.Invoices(a.env)) },
	"pagos":              func(a *app) screen { return newListScreen(a, screens.Payments(a.env)) },
	"inventario":         func(a *app) screen { return newListScreen(a, screens.Inventory(a.env)) },
	"citas":              func(a *app) screen { return newListScreen(a, screens.Appointments(a.env)) },
}

// MenuItem for the main menu
type MenuItem struct {
	title       string
	description string
	key         string
}

func (i MenuItem) Title() string       { return i.title }
func (i MenuItem) Description() string { return i.description }
func (i MenuItem) FilterValue() string { return i.title }

// Model is the main TUI model
type Model struct {
	app    *app
	width  int
	height int
	menu   list.Model
	login  *loginScreen
	stack  []screen
	user   *clinic.User

	connected bool
	mode      string
	url       string

	spinner          spinner.Model
	notification     viewmodel.Note
	notificationID   int
	showNotification bool
	prompts          []*viewmodel.Prompt
}

// Messages
type connectedMsg struct {
	mode string
	url  string
}

type sessionMsg struct {
	user *clinic.User
}

type pushMsg struct {
	s screen
}

type popMsg struct {
	refresh bool
}

type replaceMsg struct {
	s screen
}

// refreshMsg tells the top screen its data may have changed.
type refreshMsg struct{}

type clearNotificationMsg struct {
	id int
}

func push(s screen) tea.Cmd            { return func() tea.Msg { return pushMsg{s} } }
func pop(refresh bool) tea.Cmd         { return func() tea.Msg { return popMsg{refresh} } }
func replace(s screen) tea.Cmd         { return func() tea.Msg { return replaceMsg{s} } }
func noteCmd(n viewmodel.Note) tea.Cmd { return func() tea.Msg { return noteMsg{n} } }

// NewTUI creates a new TUI model
func NewTUI(ctx context.Context, env screens.Env, client *clinic.Client, logger *log.Logger) Model {
	if logger == nil {
		logger = client.Logger
	}
	a := &app{ctx: ctx, env: env, client: client, logger: logger, notify: newNotifier()}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)
	a.spin = s.View()

	m := Model{
		app:     a,
		login:   newLoginScreen(a),
		menu:    newMenu(env.Config.Brand, ""),
		spinner: s,
		mode:    client.Mode,
		url:     client.ActiveURL,
	}
	if u := env.Session.Current(); u != nil {
		m.user = u
		m.menu = newMenu(env.Config.Brand, u.Role)
	}
	return m
}

func newMenu(title, role string) list.Model {
	var items []list.Item
	for _, section := range screens.Menu(role) {
		for _, e := range section.Entries {
			items = append(items, MenuItem{title: e.Title, description: section.Title, key: e.Key})
		}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(accent)

	menu := list.New(items, delegate, 0, 0)
	menu.Title = title
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)
	menu.Styles.Title = titleStyle
	return menu
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.detectConnection(),
		m.spinner.Tick,
		m.login.init(),
	)
}

func (m Model) detectConnection() tea.Cmd {
	c, ctx := m.app.client, m.app.ctx
	return func() tea.Msg {
		c.DetectConnection(ctx)
		return connectedMsg{mode: c.Mode, url: c.ActiveURL}
	}
}

func (m Model) top() screen {
	return m.stack[len(m.stack)-1]
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if len(m.prompts) > 0 {
			return m.updateConfirm(msg)
		}
		if m.user == nil {
			return m, m.login.update(msg)
		}
		if len(m.stack) == 0 {
			return m.updateMenu(msg)
		}
		if msg.String() == "esc" && !m.top().capturing() {
			return m.pop(false)
		}
		return m, m.top().update(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menu.SetSize(msg.Width-4, msg.Height-8)
		for _, s := range m.stack {
			s.update(msg)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.app.spin = m.spinner.View()
		return m, cmd

	case connectedMsg:
		m.connected = true
		m.mode = msg.mode
		m.url = msg.url
		m.app.logger.Info("connected", "mode", msg.mode, "url", msg.url)
		return m, nil

	case sessionMsg:
		return m.setUser(msg.user)

	case noteMsg:
		// Most recent wins: an older timer never clears a newer toast.
		m.notificationID++
		m.notification = msg.note
		m.showNotification = true
		id := m.notificationID
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearNotificationMsg{id}
		})

	case clearNotificationMsg:
		if msg.id == m.notificationID {
			m.showNotification = false
		}
		return m, nil

	case confirmMsg:
		m.prompts = append(m.prompts, msg.prompt)
		return m, nil

	case pushMsg:
		return m.push(msg.s)

	case popMsg:
		return m.pop(msg.refresh)

	case replaceMsg:
		if len(m.stack) > 0 {
			m.stack = m.stack[:len(m.stack)-1]
		}
		return m.push(msg.s)

	case loginDoneMsg:
		return m, m.login.update(msg)
	}

	// Results of background work; each screen ignores what it does not own.
	cmds := make([]tea.Cmd, 0, len(m.stack))
	for _, s := range m.stack {
		cmds = append(cmds, s.update(msg))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "L":
		if err := m.app.env.API.Auth.Logout(); err != nil {
			m.app.logger.Warn("logout", "err", err)
		}
		return m, noteCmd(viewmodel.Note{Level: viewmodel.LevelInfo, Message: "Sesión cerrada"})
	case "enter":
		item, ok := m.menu.SelectedItem().(MenuItem)
		if !ok {
			return m, nil
		}
		open, ok := openers[item.key]
		if !ok || !screens.Allowed(m.user.Role, item.key) {
			return m, noteCmd(viewmodel.Note{Level: viewmodel.LevelWarning, Message: "No tiene permisos para acceder a esta sección"})
		}
		return m.push(open(m.app))
	}
	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.prompts[0]
	switch msg.String() {
	case "y", "Y", "s", "S":
		p.Resolve(true)
	case "n", "N", "esc":
		p.Resolve(false)
	default:
		return m, nil
	}
	m.prompts = m.prompts[1:]
	return m, nil
}

// setUser follows the session. Signing out drops every screen and any
// pending question.
func (m Model) setUser(u *clinic.User) (tea.Model, tea.Cmd) {
	if u == nil {
		for _, p := range m.prompts {
			p.Resolve(false)
		}
		m.prompts = nil
		m.stack = nil
		if m.user == nil {
			return m, nil
		}
		m.user = nil
		m.login = newLoginScreen(m.app)
		return m, m.login.init()
	}
	if m.user != nil && m.user.ID == u.ID && m.user.Role == u.Role {
		m.user = u
		return m, nil
	}
	m.user = u
	m.stack = nil
	m.menu = newMenu(m.app.env.Config.Brand, u.Role)
	m.menu.SetSize(m.width-4, m.height-8)
	return m, nil
}

func (m Model) push(s screen) (tea.Model, tea.Cmd) {
	m.stack = append(m.stack, s)
	s.update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	return m, s.init()
}

func (m Model) pop(refresh bool) (tea.Model, tea.Cmd) {
	if len(m.stack) == 0 {
		return m, nil
	}
	m.stack = m.stack[:len(m.stack)-1]
	if refresh && len(m.stack) > 0 {
		return m, m.top().update(refreshMsg{})
	}
	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Cargando..."
	}

	var content, help string
	switch {
	case len(m.prompts) > 0:
		content = m.renderConfirm(m.prompts[0])
		help = "y: confirm • n: cancel"
	case m.user == nil:
		content = m.login.view(m.width, m.height-8)
		help = m.login.help()
	case len(m.stack) == 0:
		content = m.menu.View()
		help = "↑/↓: navigate • enter: select • L: sign out • q: quit"
	default:
		content = m.top().view(m.width, m.height-8)
		help = m.top().help()
	}

	var b strings.Builder

	// Status bar
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")

	// Breadcrumbs
	b.WriteString(m.renderBreadcrumbs())
	b.WriteString("\n")

	// Notification (auto-dismisses)
	if m.showNotification {
		b.WriteString(renderNote(m.notification))
		b.WriteString("\n")
	}

	b.WriteString(content)

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(help))

	b.WriteString("\n")
	b.WriteString(m.renderCredits())

	return b.String()
}

func renderNote(n viewmodel.Note) string {
	switch n.Level {
	case viewmodel.LevelSuccess:
		return notificationSuccess.Render("✓ " + n.Message)
	case viewmodel.LevelWarning:
		return notificationWarning.Render("! " + n.Message)
	case viewmodel.LevelError:
		return notificationError.Render("✗ " + n.Message)
	}
	return notificationInfo.Render("i " + n.Message)
}

func (m Model) renderStatusBar() string {
	var mode string
	switch {
	case !m.connected:
		mode = m.spinner.View() + " conectando"
	case m.mode == clinic.ModeLAN:
		mode = lanStyle.Render("● Red local")
	default:
		mode = internetStyle.Render("● Internet")
	}

	status := fmt.Sprintf(" %s | %s | %s ", m.app.env.Config.Brand, mode, m.url)
	if m.user != nil {
		status += fmt.Sprintf("| %s (%s) ", m.user.DisplayName(), m.user.Role)
	}
	return statusBarStyle.Render(status)
}

func (m Model) renderBreadcrumbs() string {
	crumbs := []string{"Inicio"}
	if m.user == nil {
		crumbs = []string{"Iniciar sesión"}
	}
	for _, s := range m.stack {
		crumbs = append(crumbs, s.title())
	}
	return breadcrumbStyle.Render("  " + strings.Join(crumbs, " > "))
}

func (m Model) renderCredits() string {
	return creditStyle.Render(fmt.Sprintf("Created by %s in %s • v%s", Author, Year, Version))
}

func (m Model) renderConfirm(p *viewmodel.Prompt) string {
	content := fmt.Sprintf(`
  %s

  [y] Sí, continuar    [n] No, cancelar
`, p.Message)

	return boxStyle.Render(content)
}

// RunTUI starts the TUI. It returns when the user quits; pending work is
// cancelled then.
func RunTUI(ctx context.Context, env screens.Env, client *clinic.Client, logger *log.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewTUI(ctx, env, client, logger)
	p := tea.NewProgram(m, tea.WithAltScreen())

	go m.app.notify.run(ctx, p.Send)
	stop := env.Session.Subscribe(func(u *clinic.User) {
		m.app.notify.post(sessionMsg{u})
	})
	defer stop()

	_, err := p.Run()
	return err
}
