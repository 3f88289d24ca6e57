package clinic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Day is an ISO date. The API may render LocalDate either as "2025-01-31"
// or as [2025, 1, 31] depending on its Jackson settings.
type Day string

func (d *Day) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = Day(s)
		return nil
	}
	var parts []int
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("invalid date %s", data)
	}
	if len(parts) < 3 {
		return fmt.Errorf("invalid date %s", data)
	}
	*d = Day(fmt.Sprintf("%04d-%02d-%02d", parts[0], parts[1], parts[2]))
	return nil
}

// KPIs are the general counters.
type KPIs struct {
	TotalOrders      int64 `json:"totalOrdenes"`
	PendingOrders    int64 `json:"ordenesPendientes"`
	InProgressOrders int64 `json:"ordenesEnProceso"`
	CompletedOrders  int64 `json:"ordenesCompletadas"`
	TotalResults     int64 `json:"totalResultados"`
	ValidatedResults int64 `json:"resultadosValidados"`
	PendingResults   int64 `json:"resultadosPendientes"`
	TotalPets        int64 `json:"totalMascotas"`
	TotalVets        int64 `json:"totalVeterinarios"`
	TotalTechnicians int64 `json:"totalTecnicos"`
}

// OrdersByStatus counts orders per estado.
type OrdersByStatus struct {
	Pending    int64 `json:"pendientes"`
	InProgress int64 `json:"enProceso"`
	Completed  int64 `json:"completadas"`
	Cancelled  int64 `json:"canceladas"`
	Total      int64 `json:"total"`
}

// Income summarizes invoicing over a period.
type Income struct {
	From       Day             `json:"periodoInicio"`
	To         Day             `json:"periodoFin"`
	Invoices   int64           `json:"totalFacturas"`
	Billed     decimal.Decimal `json:"totalFacturado"`
	Collected  decimal.Decimal `json:"totalPagado"`
	Pending    decimal.Decimal `json:"totalPendiente"`
	Collection decimal.Decimal `json:"tasaCobro"` // percent
}

// Breakdown is a count per label (exam type, species, vet, technician).
type Breakdown struct {
	From   Day              `json:"periodoInicio"`
	To     Day              `json:"periodoFin"`
	Orders int64            `json:"totalOrdenes"`
	Counts map[string]int64 `json:"-"`
}

// Entry is one label of a Breakdown.
type Entry struct {
	Label string
	Count int64
}

// Sorted returns the counts, highest first.
func (b Breakdown) Sorted() []Entry {
	entries := make([]Entry, 0, len(b.Counts))
	for k, v := range b.Counts {
		entries = append(entries, Entry{Label: k, Count: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
	return entries
}

// Turnaround is the average time from sample to result.
type Turnaround struct {
	Samples     int64   `json:"totalMuestras"`
	AvgHours    float64 `json:"tiempoPromedioHoras"`
	AvgDays     float64 `json:"tiempoPromedioDias"`
	MeetsTarget bool    `json:"cumpleObjetivo"`
	TargetHours float64 `json:"objetivoHoras"`
}

// Repeats measures repeated analyses.
type Repeats struct {
	Orders      int64   `json:"totalOrdenes"`
	Repeated    int64   `json:"ordenesRepetidas"`
	Percent     float64 `json:"porcentajeRepeticion"`
	MeetsTarget bool    `json:"cumpleObjetivo"`
}

// Satisfaction is the client satisfaction estimate.
type Satisfaction struct {
	CompletedOrders  int64   `json:"ordenesCompletadas"`
	DeliveredResults int64   `json:"resultadosEntregados"`
	PaidInvoices     int64   `json:"facturasPagadas"`
	CompletionRate   float64 `json:"tasaCompletitud"`
	Level            float64 `json:"nivelSatisfaccion"`
	Rating           string  `json:"calificacion"`
}

// SameDay measures treatments started the day the order was placed.
type SameDay struct {
	Day         Day     `json:"fecha"`
	Orders      int64   `json:"totalOrdenes"`
	SameDay     int64   `json:"tratamientosMismoDia"`
	Percent     float64 `json:"porcentaje"`
	MeetsTarget bool    `json:"cumpleObjetivo"`
}

// Dashboard is the combined monthly view.
type Dashboard struct {
	KPIs         KPIs           `json:"kpisGenerales"`
	Orders       OrdersByStatus `json:"ordenesPorEstado"`
	Income       Income         `json:"ingresosMes"`
	ExamTypes    Breakdown      `json:"-"`
	Species      Breakdown      `json:"-"`
	Turnaround   Turnaround     `json:"tiempoPromedio"`
	Satisfaction Satisfaction   `json:"satisfaccion"`
}

// Reports is the /reportes gateway. Every payload is checked against its
// schema before decoding.
type Reports struct {
	client *Client
}

func (r *Reports) fetch(ctx context.Context, name string, params url.Values, out any) error {
	endpoint := "/reportes/" + name
	raw, err := r.client.Raw(ctx, endpoint, params)
	if err != nil {
		return fmt.Errorf("report %s: %w", name, err)
	}
	if err := validatePayload(name, endpoint, raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &SchemaError{Endpoint: endpoint, Violations: []string{err.Error()}}
	}
	return nil
}

func period(from, to time.Time) url.Values {
	return url.Values{"inicio": {from.Format(dateLayout)}, "fin": {to.Format(dateLayout)}}
}

func (r *Reports) KPIs(ctx context.Context) (KPIs, error) {
	var k KPIs
	err := r.fetch(ctx, "kpis", nil, &k)
	return k, err
}

func (r *Reports) OrdersByStatus(ctx context.Context) (OrdersByStatus, error) {
	var o OrdersByStatus
	err := r.fetch(ctx, "ordenes-estado", nil, &o)
	return o, err
}

func (r *Reports) Income(ctx context.Context, from, to time.Time) (Income, error) {
	var i Income
	err := r.fetch(ctx, "ingresos", period(from, to), &i)
	return i, err
}

func (r *Reports) breakdown(ctx context.Context, name, key string, params url.Values) (Breakdown, error) {
	var raw map[string]json.RawMessage
	if err := r.fetch(ctx, name, params, &raw); err != nil {
		return Breakdown{}, err
	}
	return decodeBreakdown(raw, key)
}

func decodeBreakdown(raw map[string]json.RawMessage, key string) (Breakdown, error) {
	var b Breakdown
	for field, dst := range map[string]any{"periodoInicio": &b.From, "periodoFin": &b.To, "totalOrdenes": &b.Orders} {
		if v, ok := raw[field]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return b, fmt.Errorf("decode %s: %w", field, err)
			}
		}
	}
	if err := json.Unmarshal(raw[key], &b.Counts); err != nil {
		return b, fmt.Errorf("decode %s: %w", key, err)
	}
	return b, nil
}

func (r *Reports) ByExamType(ctx context.Context, from, to time.Time) (Breakdown, error) {
	return r.breakdown(ctx, "analisis-por-tipo", "analisisPorTipo", period(from, to))
}

func (r *Reports) Species(ctx context.Context, from, to time.Time) (Breakdown, error) {
	return r.breakdown(ctx, "especies-atendidas", "especiesAtendidas", period(from, to))
}

func (r *Reports) VetProductivity(ctx context.Context, from, to time.Time) (Breakdown, error) {
	return r.breakdown(ctx, "productividad-veterinarios", "ordenesPorVeterinario", period(from, to))
}

func (r *Reports) TechnicianProductivity(ctx context.Context, from, to time.Time) (Breakdown, error) {
	return r.breakdown(ctx, "productividad-tecnicos", "tomasPorTecnico", period(from, to))
}

func (r *Reports) Turnaround(ctx context.Context, from, to time.Time) (Turnaround, error) {
	var t Turnaround
	err := r.fetch(ctx, "tiempo-promedio", period(from, to), &t)
	return t, err
}

func (r *Reports) Repeats(ctx context.Context, from, to time.Time) (Repeats, error) {
	var rep Repeats
	err := r.fetch(ctx, "analisis-repetidos", period(from, to), &rep)
	return rep, err
}

func (r *Reports) Satisfaction(ctx context.Context) (Satisfaction, error) {
	var s Satisfaction
	err := r.fetch(ctx, "satisfaccion-cliente", nil, &s)
	return s, err
}

func (r *Reports) SameDay(ctx context.Context, day time.Time) (SameDay, error) {
	var s SameDay
	err := r.fetch(ctx, "tratamientos-mismo-dia", url.Values{"fecha": {day.Format(dateLayout)}}, &s)
	return s, err
}

func (r *Reports) Dashboard(ctx context.Context) (Dashboard, error) {
	var raw map[string]json.RawMessage
	if err := r.fetch(ctx, "dashboard", nil, &raw); err != nil {
		return Dashboard{}, err
	}

	var d Dashboard
	decode := func(key string, dst any) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return &SchemaError{Endpoint: "/reportes/dashboard", Violations: []string{key + ": " + err.Error()}}
		}
		return nil
	}
	for key, dst := range map[string]any{
		"kpisGenerales":    &d.KPIs,
		"ordenesPorEstado": &d.Orders,
		"ingresosMes":      &d.Income,
		"tiempoPromedio":   &d.Turnaround,
		"satisfaccion":     &d.Satisfaction,
	} {
		if err := decode(key, dst); err != nil {
			return d, err
		}
	}

	for key, pair := range map[string]struct {
		dst   *Breakdown
		inner string
	}{
		"analisisMes": {&d.ExamTypes, "analisisPorTipo"},
		"especiesMes": {&d.Species, "especiesAtendidas"},
	} {
		var nested map[string]json.RawMessage
		if err := decode(key, &nested); err != nil {
			return d, err
		}
		if nested == nil {
			continue
		}
		b, err := decodeBreakdown(nested, pair.inner)
		if err != nil {
			return d, &SchemaError{Endpoint: "/reportes/dashboard", Violations: []string{key + ": " + err.Error()}}
		}
		*pair.dst = b
	}
	return d, nil
}

// Overview is what the dashboard screen shows: the monthly dashboard plus
// the live alert lists. Parts that failed are reported in Errors so the
// rest can still be shown.
type Overview struct {
	Dashboard         Dashboard
	InventoryAlerts   InventoryAlerts
	AppointmentAlerts AppointmentAlerts
	Errors            []string
}

// LoadOverview fetches the dashboard and the alert lists in parallel.
func (a *API) LoadOverview(ctx context.Context) *Overview {
	var wg sync.WaitGroup
	var mu sync.Mutex
	data := &Overview{}

	record := func(what string, err error) {
		mu.Lock()
		defer mu.Unlock()
		data.Errors = append(data.Errors, fmt.Sprintf("%s: %s", what, Describe(err, err.Error())))
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		d, err := a.Reports.Dashboard(ctx)
		if err != nil {
			record("dashboard", err)
			return
		}
		mu.Lock()
		data.Dashboard = d
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		alerts, err := a.Inventory.Alerts(ctx)
		if err != nil {
			record("inventario", err)
			return
		}
		mu.Lock()
		data.InventoryAlerts = alerts
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		alerts, err := a.Appointments.DashboardAlerts(ctx)
		if err != nil {
			record("citas", err)
			return
		}
		mu.Lock()
		data.AppointmentAlerts = alerts
		mu.Unlock()
	}()
	wg.Wait()

	sort.Strings(data.Errors)
	return data
}
