package screens

import (
	"context"
	"strings"

	"github.com/petsalud/vet-cli/internal/clinic"
	"github.com/petsalud/vet-cli/internal/viewmodel"
)

// Appointment catalogs.
var (
	AppointmentTypes    = []string{"CONSULTA", "VACUNACION", "CIRUGIA", "CONTROL", "EMERGENCIA", "OTRO"}
	AppointmentStatuses = []string{
		clinic.AppointmentScheduled, clinic.AppointmentConfirmed, clinic.AppointmentOngoing,
		clinic.AppointmentCompleted, clinic.AppointmentCancelled, "NO_ASISTIO",
	}
	Durations = []string{"15", "30", "45", "60", "90", "120"}
)

// Period filter values.
const (
	PeriodToday    = "HOY"
	PeriodUpcoming = "PROXIMAS"
)

func finished(status string) bool {
	return status == clinic.AppointmentCompleted || status == clinic.AppointmentCancelled
}

// Appointments is the citas screen.
func Appointments(env Env) *Screen[clinic.Appointment] {
	api := env.API
	id := func(a clinic.Appointment) int64 { return a.ID }
	inPeriod := func(a clinic.Appointment, period string) bool {
		now := env.now()
		switch period {
		case PeriodToday:
			return day(a.At) == now.Format(viewmodel.DateLayout)
		case PeriodUpcoming:
			return dateTimeInput(a.At) >= now.Format(viewmodel.DateTimeLayout)
		}
		return true
	}

	return &Screen[clinic.Appointment]{
		Key:      "citas",
		Title:    "Citas",
		Singular: "cita",
		ID:       id,
		Columns: []Column[clinic.Appointment]{
			{Title: "ID", Width: 5, Value: func(a clinic.Appointment) string { return idString(a.ID) }},
			{Title: "Fecha y hora", Width: 16, Value: func(a clinic.Appointment) string { return strings.Replace(dateTimeInput(a.At), "T", " ", 1) }},
			{Title: "Mascota", Width: 14, Value: func(a clinic.Appointment) string { return orDash(petName(a.Pet)) }},
			{Title: "Veterinario", Width: 20, Value: func(a clinic.Appointment) string { return orDash(a.Vet.FullName()) }},
			{Title: "Tipo", Width: 11, Value: func(a clinic.Appointment) string { return a.Type }},
			{Title: "Estado", Width: 11, Value: func(a clinic.Appointment) string { return a.Status }},
			{Title: "Alerta", Width: 8, Value: func(a clinic.Appointment) string { return orDash(a.AlertLevel) }},
			{Title: "Recordatorio", Width: 12, Value: func(a clinic.Appointment) string { return yesNo(a.ReminderSent) }},
		},
		List: viewmodel.ListConfig[clinic.Appointment]{
			Fetch: api.Appointments.List,
			Search: []func(clinic.Appointment) string{
				func(a clinic.Appointment) string { return petName(a.Pet) },
				func(a clinic.Appointment) string { return a.Vet.FullName() },
				func(a clinic.Appointment) string { return a.Reason },
			},
			Filters: []viewmodel.Filter[clinic.Appointment]{
				{
					Name:    "periodo",
					Label:   "Periodo",
					Options: withAll([]viewmodel.Option{{Value: PeriodToday, Label: "Hoy"}, {Value: PeriodUpcoming, Label: "Próximas"}}),
					Match:   inPeriod,
					Remote: func(p string) viewmodel.FetchFunc[clinic.Appointment] {
						switch p {
						case PeriodToday:
							return api.Appointments.Today
						case PeriodUpcoming:
							return api.Appointments.Upcoming
						}
						return nil
					},
				},
				{
					Name:    "estado",
					Label:   "Estado",
					Options: withAll(viewmodel.Values(AppointmentStatuses...)),
					Match:   func(a clinic.Appointment, s string) bool { return a.Status == s },
					Remote: func(s string) viewmodel.FetchFunc[clinic.Appointment] {
						if s == "" {
							return nil
						}
						return func(ctx context.Context) ([]clinic.Appointment, error) {
							return api.Appointments.ByStatus(ctx, s)
						}
					},
				},
				{
					Name:    "tipo",
					Label:   "Tipo",
					Options: withAll(viewmodel.Values(AppointmentTypes...)),
					Match:   func(a clinic.Appointment, t string) bool { return a.Type == t },
				},
			},
			PageSize: env.pageSize(),
		},
		Form: viewmodel.FormConfig[clinic.Appointment]{
			Messages: messages("Cita", "a", "cita"),
			Fields: []viewmodel.Field{
				{Name: "mascota", Label: "Mascota", Kind: viewmodel.Ref, Required: true},
				{Name: "veterinario", Label: "Veterinario", Kind: viewmodel.Ref, Required: true},
				{Name: "fechaHora", Label: "Fecha y hora", Kind: viewmodel.DateTime, Required: true},
				{Name: "tipoCita", Label: "Tipo", Kind: viewmodel.Select, Required: true, Default: "CONSULTA", Options: viewmodel.Values(AppointmentTypes...)},
				{Name: "motivo", Label: "Motivo", Kind: viewmodel.LongText, Required: true, MinLen: 3, MaxLen: 500},
				{Name: "duracionMinutos", Label: "Duración (min)", Kind: viewmodel.Select, Default: "30", Options: viewmodel.Values(Durations...)},
				{Name: "estado", Label: "Estado", Kind: viewmodel.Select, Default: clinic.AppointmentScheduled, Options: viewmodel.Values(AppointmentStatuses...)},
				{Name: "costoConsulta", Label: "Costo", Kind: viewmodel.Money, Range: viewmodel.AtLeast(0)},
				notesField,
			},
			Choices: map[string]viewmodel.ChoiceLoader{
				"mascota":     petChoices(api),
				"veterinario": vetChoices(api),
			},
			Source: api.Appointments,
			Fill: func(a clinic.Appointment) viewmodel.Draft {
				return viewmodel.Draft{Values: map[string]string{
					"mascota": refID(a.Pet, petID), "veterinario": refID(a.Vet, vetID),
					"fechaHora": dateTimeInput(a.At), "tipoCita": a.Type, "motivo": a.Reason,
					"duracionMinutos": intString(a.Minutes), "estado": a.Status,
					"costoConsulta": nullDecimalString(a.Cost), "observaciones": a.Notes,
				}}
			},
			Assemble: func(d viewmodel.Draft) (clinic.Appointment, error) {
				return clinic.Appointment{
					Pet:     clinic.PetRef(d.ID("mascota")),
					Vet:     clinic.VetRef(d.ID("veterinario")),
					At:      d.Get("fechaHora"),
					Type:    d.Get("tipoCita"),
					Reason:  d.Get("motivo"),
					Minutes: d.IntPtr("duracionMinutos"),
					Status:  d.Get("estado"),
					Cost:    d.NullDecimal("costoConsulta"),
					Notes:   d.Get("observaciones"),
				}, nil
			},
		},
		Actions: []RowAction[clinic.Appointment]{
			{
				Key:   "c",
				Name:  "confirm",
				Label: "Confirmar",
				Guard: func(a clinic.Appointment) string {
					if a.Status != clinic.AppointmentScheduled {
						return "Solo se pueden confirmar citas programadas"
					}
					return ""
				},
				Do: func(a clinic.Appointment, _ []string) viewmodel.Action {
					return viewmodel.Action{
						Prompt:  "¿Confirmar esta cita?",
						Success: "Cita confirmada exitosamente",
						Failure: "Error al confirmar la cita",
						Run: func(ctx context.Context) error {
							_, err := api.Appointments.Confirm(ctx, a.ID)
							return err
						},
					}
				},
			},
			{
				Key:   "x",
				Name:  "cancel",
				Label: "Cancelar",
				Args:  []viewmodel.Field{{Name: "motivo", Label: "Motivo de cancelación", Required: true, MinLen: 3, MaxLen: 500}},
				Guard: func(a clinic.Appointment) string {
					if finished(a.Status) {
						return "La cita ya está " + strings.ToLower(a.Status)
					}
					return ""
				},
				Do: func(a clinic.Appointment, args []string) viewmodel.Action {
					return viewmodel.Action{
						Prompt:  "¿Cancelar esta cita?",
						Success: "Cita cancelada",
						Failure: "Error al cancelar la cita",
						Run: func(ctx context.Context) error {
							_, err := api.Appointments.Cancel(ctx, a.ID, args[0])
							return err
						},
					}
				},
			},
			{
				Key:   "o",
				Name:  "complete",
				Label: "Completar",
				Roles: []string{clinic.RoleAdmin, clinic.RoleVet},
				Guard: func(a clinic.Appointment) string {
					if finished(a.Status) {
						return "La cita ya está " + strings.ToLower(a.Status)
					}
					return ""
				},
				Do: func(a clinic.Appointment, _ []string) viewmodel.Action {
					return viewmodel.Action{
						Prompt:  "¿Marcar esta cita como completada?",
						Success: "Cita completada",
						Failure: "Error al completar la cita",
						Run: func(ctx context.Context) error {
							_, err := api.Appointments.Complete(ctx, a.ID)
							return err
						},
					}
				},
			},
			{
				Key:   "m",
				Name:  "reminder",
				Label: "Recordatorio enviado",
				Guard: func(a clinic.Appointment) string {
					if a.ReminderSent {
						return "El recordatorio ya fue enviado"
					}
					return ""
				},
				Do: func(a clinic.Appointment, _ []string) viewmodel.Action {
					return viewmodel.Action{
						Success: "Recordatorio marcado como enviado",
						Failure: "Error al actualizar la cita",
						Run: func(ctx context.Context) error {
							_, err := api.Appointments.MarkReminderSent(ctx, a.ID)
							return err
						},
					}
				},
			},
			deleteAction(id, api.Appointments.Delete, "¿Está seguro de eliminar esta cita?", "Cita eliminada exitosamente"),
		},
	}
}
