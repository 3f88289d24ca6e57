package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/petsalud/vet-cli/internal/clinic"
)

type loginDoneMsg struct {
	err error
}

// loginScreen asks for the clinic credentials.
type loginScreen struct {
	app     *app
	inputs  []textinput.Model
	focus   int
	loading bool
}

func newLoginScreen(a *app) *loginScreen {
	inputs := make([]textinput.Model, 2)

	inputs[0] = textinput.New()
	inputs[0].Placeholder = "usuario"
	inputs[0].CharLimit = 50
	inputs[0].Width = 30

	inputs[1] = textinput.New()
	inputs[1].Placeholder = "contraseña"
	inputs[1].CharLimit = 100
	inputs[1].Width = 30
	inputs[1].EchoMode = textinput.EchoPassword

	s := &loginScreen{app: a, inputs: inputs}
	s.updateFocus()
	return s
}

func (s *loginScreen) title() string   { return "Iniciar sesión" }
func (s *loginScreen) capturing() bool { return true }
func (s *loginScreen) init() tea.Cmd   { return textinput.Blink }

func (s *loginScreen) updateFocus() tea.Cmd {
	cmds := make([]tea.Cmd, len(s.inputs))
	for i := range s.inputs {
		if i == s.focus {
			cmds[i] = s.inputs[i].Focus()
		} else {
			s.inputs[i].Blur()
		}
	}
	return tea.Batch(cmds...)
}

func (s *loginScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loginDoneMsg:
		s.loading = false
		if msg.err != nil {
			s.inputs[1].SetValue("")
			s.focus = 1
			return s.updateFocus()
		}
		return nil

	case tea.KeyMsg:
		if s.loading {
			return nil
		}
		switch msg.String() {
		case "tab", "down", "shift+tab", "up":
			s.focus = 1 - s.focus
			return s.updateFocus()
		case "enter":
			return s.submit()
		}
		var cmd tea.Cmd
		s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
		return cmd
	}
	return nil
}

func (s *loginScreen) submit() tea.Cmd {
	username := strings.TrimSpace(s.inputs[0].Value())
	password := s.inputs[1].Value()
	if username == "" || password == "" {
		s.app.notify.Warning("Ingrese usuario y contraseña")
		if username == "" {
			s.focus = 0
		} else {
			s.focus = 1
		}
		return s.updateFocus()
	}

	s.loading = true
	ctx, auth, n := s.app.ctx, s.app.env.API.Auth, s.app.notify
	return func() tea.Msg {
		user, err := auth.Login(ctx, username, password)
		if err != nil {
			n.Error(clinic.Describe(err, "Error al iniciar sesión"))
			return loginDoneMsg{err: err}
		}
		n.Success("Bienvenido, " + user.DisplayName())
		return loginDoneMsg{}
	}
}

func (s *loginScreen) view(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" " + s.app.env.Config.Brand + " "))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Usuario"))
	b.WriteString("\n")
	b.WriteString(s.inputs[0].View())
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Contraseña"))
	b.WriteString("\n")
	b.WriteString(s.inputs[1].View())
	b.WriteString("\n\n")

	if s.loading {
		b.WriteString(s.app.loadingLine("Verificando credenciales"))
		b.WriteString("\n")
	}
	return boxStyle.Render(b.String())
}

func (s *loginScreen) help() string {
	return "tab: next field • enter: sign in • ctrl+c: quit"
}
