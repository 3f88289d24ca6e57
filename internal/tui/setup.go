package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/petsalud/vet-cli/internal/clinic"
)

// SetupStep is the current step of the setup wizard
type SetupStep int

const (
	SetupWelcome SetupStep = iota
	SetupForm
	SetupValidating
	SetupSuccess
	SetupError
)

// Wizard inputs, in display order.
const (
	setupAPIURL = iota
	setupLANURL
	setupBrand
	setupPageSize
	setupDownloadDir
	setupInputs
)

// SetupModel is the model for the setup wizard
type SetupModel struct {
	path       string
	step       SetupStep
	inputs     []textinput.Model
	focusIndex int
	width      int
	height     int
	err        error
	spinner    spinner.Model
	config     *clinic.Config
	mode       string // connection mode after validation
	probe      func(ctx context.Context, base string) error
	saved      bool
}

// Messages for the setup wizard
type setupValidateMsg struct {
	config *clinic.Config
	mode   string
	err    error
}

type setupSaveMsg struct {
	err error
}

// NewSetupTUI creates the wizard that writes the config file at path.
func NewSetupTUI(path string) SetupModel {
	inputs := make([]textinput.Model, setupInputs)
	defaults := clinic.DefaultConfig()

	inputs[setupAPIURL] = textinput.New()
	inputs[setupAPIURL].Placeholder = "http://clinica.example.com:8080/api"
	inputs[setupAPIURL].CharLimit = 256
	inputs[setupAPIURL].Width = 50

	inputs[setupLANURL] = textinput.New()
	inputs[setupLANURL].Placeholder = "http://192.168.1.10:8080/api (opcional)"
	inputs[setupLANURL].CharLimit = 256
	inputs[setupLANURL].Width = 50

	inputs[setupBrand] = textinput.New()
	inputs[setupBrand].Placeholder = defaults.Brand
	inputs[setupBrand].CharLimit = 60
	inputs[setupBrand].Width = 50

	inputs[setupPageSize] = textinput.New()
	inputs[setupPageSize].Placeholder = fmt.Sprint(defaults.PageSize)
	inputs[setupPageSize].CharLimit = 3
	inputs[setupPageSize].Width = 10

	inputs[setupDownloadDir] = textinput.New()
	inputs[setupDownloadDir].Placeholder = defaults.DownloadDir
	inputs[setupDownloadDir].CharLimit = 256
	inputs[setupDownloadDir].Width = 50

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)

	return SetupModel{
		path:    path,
		step:    SetupWelcome,
		inputs:  inputs,
		spinner: s,
		probe:   clinic.ProbeAPI,
	}
}

func (m SetupModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.step == SetupValidating {
				return m, nil
			}
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "tab", "down":
			if m.step == SetupForm {
				m.focusIndex = (m.focusIndex + 1) % setupInputs
				return m, m.updateInputFocus()
			}

		case "shift+tab", "up":
			if m.step == SetupForm {
				m.focusIndex = (m.focusIndex - 1 + setupInputs) % setupInputs
				return m, m.updateInputFocus()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case setupValidateMsg:
		if msg.err != nil {
			m.step = SetupError
			m.err = msg.err
			return m, nil
		}
		m.step = SetupSuccess
		m.config = msg.config
		m.mode = msg.mode
		return m, nil

	case setupSaveMsg:
		if msg.err == nil {
			m.saved = true
			return m, tea.Quit
		}
		m.step = SetupError
		m.err = msg.err
		return m, nil
	}

	if m.step == SetupForm {
		return m, m.updateInputs(msg)
	}
	return m, nil
}

func (m SetupModel) handleEnter() (tea.Model, tea.Cmd) {
	switch m.step {
	case SetupWelcome:
		m.step = SetupForm
		m.focusIndex = setupAPIURL
		return m, m.updateInputFocus()

	case SetupForm:
		if strings.TrimSpace(m.inputs[setupAPIURL].Value()) == "" {
			m.focusIndex = setupAPIURL
			return m, m.updateInputFocus()
		}
		m.step = SetupValidating
		return m, tea.Batch(m.spinner.Tick, m.validate())

	case SetupSuccess:
		return m, m.save()

	case SetupError:
		m.step = SetupForm
		m.err = nil
		return m, m.updateInputFocus()
	}
	return m, nil
}

func (m *SetupModel) updateInputFocus() tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		if i == m.focusIndex {
			cmds[i] = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return tea.Batch(cmds...)
}

func (m *SetupModel) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

// values turns the inputs into config values; empty inputs keep the
// defaults.
func (m SetupModel) values() map[string]string {
	values := clinic.DefaultConfig().Values()
	set := func(key string, i int) {
		if v := strings.TrimSpace(m.inputs[i].Value()); v != "" {
			values[key] = v
		}
	}
	set("VET_API_URL", setupAPIURL)
	set("VET_LAN_URL", setupLANURL)
	set("VET_BRAND", setupBrand)
	set("VET_PAGE_SIZE", setupPageSize)
	set("VET_DOWNLOAD_DIR", setupDownloadDir)
	return values
}

func (m SetupModel) validate() tea.Cmd {
	values, probe := m.values(), m.probe
	return func() tea.Msg {
		config, err := clinic.ParseConfig(values)
		if err != nil {
			return setupValidateMsg{err: err}
		}

		// The clinic network is tried first, like at startup.
		if config.LANURL != "" {
			if err := probe(context.Background(), config.LANURL); err == nil {
				return setupValidateMsg{config: config, mode: clinic.ModeLAN}
			}
		}
		if err := probe(context.Background(), config.APIURL); err != nil {
			return setupValidateMsg{err: err}
		}
		return setupValidateMsg{config: config, mode: clinic.ModeInternet}
	}
}

func (m SetupModel) save() tea.Cmd {
	config, path := m.config, m.path
	return func() tea.Msg {
		return setupSaveMsg{err: clinic.SaveConfig(config, path)}
	}
}

func (m SetupModel) View() string {
	if m.width == 0 {
		return "Cargando..."
	}

	switch m.step {
	case SetupWelcome:
		return m.renderWelcome()
	case SetupForm:
		return m.renderForm()
	case SetupValidating:
		return m.renderValidating()
	case SetupSuccess:
		return m.renderSuccess()
	case SetupError:
		return m.renderError()
	}
	return ""
}

func (m SetupModel) renderWelcome() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render("  Bienvenido a Veterinaria CLI  "))
	sb.WriteString("\n\n")

	sb.WriteString(`No se encontró el archivo de configuración.
Vamos a configurar la conexión con la clínica.

Necesitará:
  * La URL de la API de la clínica
  * Opcional: la URL de la red local

`)
	sb.WriteString(helpStyle.Render("[Enter] Continuar    [Esc] Cancelar"))

	return boxStyle.Width(64).Render(sb.String())
}

func (m SetupModel) renderField(b *strings.Builder, i int, label, hint string, optional bool) {
	b.WriteString(labelStyle.Render(label))
	if optional {
		b.WriteString(" ")
		b.WriteString(hintStyle.Render("(opcional)"))
	}
	b.WriteString("\n")
	b.WriteString(m.inputs[i].View())
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(hint))
	b.WriteString("\n\n")
}

func (m SetupModel) renderForm() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render("  Configuración  "))
	sb.WriteString("\n\n")

	m.renderField(&sb, setupAPIURL, "URL de la API *", "Ejemplo: http://clinica.example.com:8080/api", false)
	m.renderField(&sb, setupLANURL, "URL de red local", "Se intenta primero cuando está disponible", true)
	m.renderField(&sb, setupBrand, "Nombre", "Se muestra en la barra de estado", true)
	m.renderField(&sb, setupPageSize, "Filas por página", "Por defecto: 10", true)
	m.renderField(&sb, setupDownloadDir, "Carpeta de descargas", "Donde se guardan los PDF de resultados", true)

	sb.WriteString(helpStyle.Render("[Tab] Siguiente campo    [Enter] Validar    [Esc] Cancelar"))

	return boxStyle.Width(64).Render(sb.String())
}

func (m SetupModel) renderValidating() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render("  Validando  "))
	sb.WriteString("\n\n")

	sb.WriteString(m.spinner.View())
	sb.WriteString(" Probando la conexión con la clínica...")
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("URL: %s\n", m.inputs[setupAPIURL].Value()))

	return boxStyle.Width(64).Render(sb.String())
}

func (m SetupModel) renderSuccess() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(successStyle.Render("  Conexión exitosa  "))
	sb.WriteString("\n\n")

	sb.WriteString("La configuración se guardará en: ")
	sb.WriteString(labelStyle.Render(m.path))
	sb.WriteString("\n\n")

	sb.WriteString("Conexión: ")
	if m.mode == clinic.ModeLAN {
		sb.WriteString(lanStyle.Render("Red local"))
	} else {
		sb.WriteString(internetStyle.Render("Internet"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(helpStyle.Render("[Enter] Guardar e iniciar"))

	return boxStyle.Width(64).Render(sb.String())
}

func (m SetupModel) renderError() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(errorStyle.Render("  Falló la conexión  "))
	sb.WriteString("\n\n")

	if m.err != nil {
		sb.WriteString(fmt.Sprintf("Error: %s\n\n", m.err.Error()))
	}

	sb.WriteString("Verifique que:\n")
	sb.WriteString("  * La URL es correcta y accesible\n")
	sb.WriteString("  * El servidor de la clínica está en ejecución\n\n")

	sb.WriteString(helpStyle.Render("[Enter] Reintentar    [Esc] Cancelar"))

	return boxStyle.Width(64).Render(sb.String())
}

// Saved reports whether the wizard wrote the config file.
func (m SetupModel) Saved() bool {
	return m.saved
}

// RunSetupTUI runs the setup wizard. It reports whether a config file was
// written.
func RunSetupTUI(path string) (bool, error) {
	p := tea.NewProgram(NewSetupTUI(path), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(SetupModel)
	return ok && m.Saved(), nil
}
