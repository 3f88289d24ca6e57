package clinic

import (
	"context"
	"net/http"
	"net/url"
)

// Appointments is the /citas gateway.
type Appointments struct {
	Resource[Appointment]
}

// AppointmentAlerts is the dashboard-alertas payload.
type AppointmentAlerts struct {
	Critical       []Appointment `json:"citasCriticas"`
	Upcoming       []Appointment `json:"citasProximas"`
	Today          []Appointment `json:"citasDelDia"`
	AwaitConfirmed []Appointment `json:"citasPendientesConfirmacion"`
}

func (a *Appointments) ByPet(ctx context.Context, petID int64) ([]Appointment, error) {
	if err := checkID(petID); err != nil {
		return nil, err
	}
	return a.query(ctx, "mascota/"+idPart(petID), nil)
}

func (a *Appointments) ByVet(ctx context.Context, vetID int64) ([]Appointment, error) {
	if err := checkID(vetID); err != nil {
		return nil, err
	}
	return a.query(ctx, "veterinario/"+idPart(vetID), nil)
}

func (a *Appointments) ByStatus(ctx context.Context, status string) ([]Appointment, error) {
	return a.query(ctx, "estado/"+url.PathEscape(status), nil)
}

func (a *Appointments) Today(ctx context.Context) ([]Appointment, error) {
	return a.query(ctx, "hoy", nil)
}

func (a *Appointments) Upcoming(ctx context.Context) ([]Appointment, error) {
	return a.query(ctx, "proximas", nil)
}

func (a *Appointments) Critical(ctx context.Context) ([]Appointment, error) {
	return a.query(ctx, "criticas", nil)
}

func (a *Appointments) WithAlerts(ctx context.Context) ([]Appointment, error) {
	return a.query(ctx, "con-alertas", nil)
}

func (a *Appointments) DashboardAlerts(ctx context.Context) (AppointmentAlerts, error) {
	var alerts AppointmentAlerts
	err := a.scalar(ctx, "dashboard-alertas", nil, &alerts)
	return alerts, err
}

func (a *Appointments) Confirm(ctx context.Context, id int64) (Appointment, error) {
	return a.transition(ctx, http.MethodPatch, id, "confirmar", nil)
}

// Cancel cancels with a reason, which may be empty.
func (a *Appointments) Cancel(ctx context.Context, id int64, reason string) (Appointment, error) {
	var params url.Values
	if reason != "" {
		params = url.Values{"motivo": {reason}}
	}
	return a.transition(ctx, http.MethodPatch, id, "cancelar", params)
}

func (a *Appointments) Complete(ctx context.Context, id int64) (Appointment, error) {
	return a.transition(ctx, http.MethodPatch, id, "completar", nil)
}

func (a *Appointments) MarkReminderSent(ctx context.Context, id int64) (Appointment, error) {
	return a.transition(ctx, http.MethodPatch, id, "recordatorio-enviado", nil)
}
