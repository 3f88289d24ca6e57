package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/petsalud/vet-cli/internal/clinic"
)

// Version info
const (
	Version = "1.0.0"
	Author  = "PetSalud"
	Year    = "2026"
)

var accent = lipgloss.Color("#7D56F4")

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(accent).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	lanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	internetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF9500")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF9500")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	creditStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2)

	// Badge styles for status columns
	greenBadge = lipgloss.NewStyle().
			Background(lipgloss.Color("#04B575")).
			Foreground(lipgloss.Color("#FFF")).
			Padding(0, 1)

	orangeBadge = lipgloss.NewStyle().
			Background(lipgloss.Color("#FF9500")).
			Foreground(lipgloss.Color("#000")).
			Padding(0, 1)

	redBadge = lipgloss.NewStyle().
			Background(lipgloss.Color("#FF4444")).
			Foreground(lipgloss.Color("#FFF")).
			Padding(0, 1)

	purpleBadge = lipgloss.NewStyle().
			Background(accent).
			Foreground(lipgloss.Color("#FFF")).
			Padding(0, 1)

	notificationSuccess = lipgloss.NewStyle().
				Background(lipgloss.Color("#04B575")).
				Foreground(lipgloss.Color("#FFF")).
				Padding(0, 1).
				Bold(true)

	notificationWarning = lipgloss.NewStyle().
				Background(lipgloss.Color("#FF9500")).
				Foreground(lipgloss.Color("#000")).
				Padding(0, 1).
				Bold(true)

	notificationError = lipgloss.NewStyle().
				Background(lipgloss.Color("#FF4444")).
				Foreground(lipgloss.Color("#FFF")).
				Padding(0, 1).
				Bold(true)

	notificationInfo = lipgloss.NewStyle().
				Background(lipgloss.Color("#3A86FF")).
				Foreground(lipgloss.Color("#FFF")).
				Padding(0, 1).
				Bold(true)

	breadcrumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// badge colors a status value the way the clinic staff reads it.
func badge(status string) string {
	switch status {
	case clinic.OrderCompleted, clinic.InvoicePaid, clinic.PaymentPaid, clinic.AppointmentConfirmed,
		clinic.ResultValidated, clinic.ResultDelivered:
		return greenBadge.Render(status)
	case clinic.OrderPending, clinic.AppointmentScheduled, clinic.AppointmentOngoing, clinic.PaymentPartial:
		return orangeBadge.Render(status)
	case clinic.OrderCancelled, clinic.InvoiceCancelled, clinic.PaymentOverdue, "NO_ASISTIO":
		return redBadge.Render(status)
	case "":
		return ""
	}
	return purpleBadge.Render(status)
}
