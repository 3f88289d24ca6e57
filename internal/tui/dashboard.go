package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/petsalud/vet-cli/internal/clinic"
	"github.com/petsalud/vet-cli/internal/screens"
)

type docLoadedMsg struct {
	owner   screen
	content string
}

// docScreen is a scrollable read-only page, used by the dashboard and the
// reports.
type docScreen struct {
	app      *app
	name     string
	render   func(ctx context.Context) string
	viewport viewport.Model
	ready    bool
	loading  bool
	content  string
}

func newDashboardScreen(a *app) *docScreen {
	return &docScreen{app: a, name: "Dashboard", render: func(ctx context.Context) string {
		return renderOverview(a.env.API.LoadOverview(ctx), a.now(), a.client.Mode)
	}}
}

func newReportsScreen(a *app) *docScreen {
	return &docScreen{app: a, name: "Reportes", render: func(ctx context.Context) string {
		return renderReports(loadReports(ctx, a.env.API, a.now()))
	}}
}

func (s *docScreen) title() string   { return s.name }
func (s *docScreen) capturing() bool { return false }
func (s *docScreen) init() tea.Cmd   { return s.load() }

func (s *docScreen) load() tea.Cmd {
	s.loading = true
	ctx := s.app.ctx
	return func() tea.Msg {
		return docLoadedMsg{owner: s, content: s.render(ctx)}
	}
}

func (s *docScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight, footerHeight := 4, 4
		if !s.ready {
			s.viewport = viewport.New(msg.Width-4, msg.Height-headerHeight-footerHeight)
			s.ready = true
		} else {
			s.viewport.Width = msg.Width - 4
			s.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		s.viewport.SetContent(s.content)
		return nil

	case docLoadedMsg:
		if msg.owner != screen(s) {
			return nil
		}
		s.loading = false
		s.content = msg.content
		s.viewport.SetContent(s.content)
		s.viewport.GotoTop()
		return nil

	case refreshMsg:
		return s.load()

	case tea.KeyMsg:
		if msg.String() == "r" {
			return s.load()
		}
		var cmd tea.Cmd
		s.viewport, cmd = s.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (s *docScreen) view(width, height int) string {
	if s.loading {
		return s.app.loadingLine("Cargando " + strings.ToLower(s.name))
	}
	if !s.ready {
		return "\n  Inicializando..."
	}

	var b strings.Builder
	b.WriteString(s.viewport.View())
	b.WriteString("\n")
	if s.viewport.TotalLineCount() > s.viewport.VisibleLineCount() {
		b.WriteString(helpStyle.Render(fmt.Sprintf("  ↑↓ scroll • %.0f%% ", s.viewport.ScrollPercent()*100)))
	}
	return b.String()
}

func (s *docScreen) help() string {
	return "↑/↓/pgup/pgdn: scroll • r: refresh • esc: back"
}

func line(b *strings.Builder, label string, value any) {
	fmt.Fprintf(b, "  %-24s %v\n", label+":", value)
}

func alertCount(n int) string {
	if n > 0 {
		return errorStyle.Render(fmt.Sprint(n))
	}
	return fmt.Sprint(n)
}

func renderBreakdown(b *strings.Builder, title string, br clinic.Breakdown, limit int) {
	entries := br.Sorted()
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "\n  %s:\n", title)
	for i, e := range entries {
		if i >= limit {
			fmt.Fprintf(b, "    ... y %d más\n", len(entries)-limit)
			break
		}
		label := e.Label
		if len([]rune(label)) > 25 {
			label = string([]rune(label)[:22]) + "..."
		}
		fmt.Fprintf(b, "    %d. %-25s %4d\n", i+1, label, e.Count)
	}
}

func appointmentLine(a clinic.Appointment) string {
	pet := "-"
	if a.Pet != nil {
		pet = a.Pet.Name
	}
	at := strings.Replace(a.At, "T", " ", 1)
	if len(at) > 16 {
		at = at[:16]
	}
	return fmt.Sprintf("    %s  %-14s %-10s %s", at, pet, a.Type, badge(a.Status))
}

func renderOverview(o *clinic.Overview, now time.Time, mode string) string {
	d := o.Dashboard
	var b strings.Builder

	b.WriteString(titleStyle.Render(" DASHBOARD "))
	b.WriteString("\n\n")

	b.WriteString(selectedStyle.Render("LABORATORIO"))
	b.WriteString("\n\n")
	line(&b, "Órdenes totales", d.KPIs.TotalOrders)
	line(&b, "Pendientes", d.Orders.Pending)
	line(&b, "En proceso", d.Orders.InProgress)
	line(&b, "Completadas", successStyle.Render(fmt.Sprint(d.Orders.Completed)))
	line(&b, "Canceladas", d.Orders.Cancelled)
	line(&b, "Resultados validados", fmt.Sprintf("%d de %d", d.KPIs.ValidatedResults, d.KPIs.TotalResults))
	line(&b, "Tiempo promedio", fmt.Sprintf("%.1f h", d.Turnaround.AvgHours))
	renderBreakdown(&b, "Análisis del mes", d.ExamTypes, 5)
	renderBreakdown(&b, "Especies atendidas", d.Species, 5)
	b.WriteString("\n")

	b.WriteString(selectedStyle.Render("FACTURACIÓN DEL MES"))
	b.WriteString("\n\n")
	line(&b, "Facturas", d.Income.Invoices)
	line(&b, "Facturado", screens.Money(d.Income.Billed))
	line(&b, "Cobrado", successStyle.Render(screens.Money(d.Income.Collected)))
	if d.Income.Pending.IsPositive() {
		line(&b, "Pendiente", errorStyle.Render(screens.Money(d.Income.Pending)))
	} else {
		line(&b, "Pendiente", screens.Money(d.Income.Pending))
	}
	line(&b, "Tasa de cobro", d.Income.Collection.StringFixed(1)+"%")
	line(&b, "Satisfacción", fmt.Sprintf("%.1f (%s)", d.Satisfaction.Level, d.Satisfaction.Rating))
	b.WriteString("\n")

	inv := o.InventoryAlerts
	b.WriteString(selectedStyle.Render("INVENTARIO"))
	b.WriteString("\n\n")
	line(&b, "Stock bajo", alertCount(len(inv.LowStock)))
	line(&b, "Vencidos", alertCount(len(inv.Expired)))
	line(&b, "Por vencer", alertCount(len(inv.ExpiringSoon)))
	for _, item := range inv.LowStock {
		fmt.Fprintf(&b, "    %-10s %-25s stock %d (mín. %d)\n", item.Code, item.Name, item.Stock, item.MinStock)
	}
	b.WriteString("\n")

	appt := o.AppointmentAlerts
	b.WriteString(selectedStyle.Render("CITAS"))
	b.WriteString("\n\n")
	line(&b, "Hoy", len(appt.Today))
	line(&b, "Próximas", len(appt.Upcoming))
	line(&b, "Por confirmar", alertCount(len(appt.AwaitConfirmed)))
	line(&b, "Críticas", alertCount(len(appt.Critical)))
	for _, a := range appt.Critical {
		b.WriteString(appointmentLine(a))
		b.WriteString("\n")
	}
	for _, a := range appt.Today {
		b.WriteString(appointmentLine(a))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	modeStr := "Internet"
	if mode == clinic.ModeLAN {
		modeStr = "Red local"
	}
	b.WriteString(helpStyle.Render(fmt.Sprintf("Actualizado: %s | Conexión: %s", now.Format("2006-01-02 15:04:05"), modeStr)))

	if len(o.Errors) > 0 {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render("Advertencias:"))
		for _, err := range o.Errors {
			fmt.Fprintf(&b, "\n  - %s", err)
		}
	}
	return b.String()
}

// reportData is the month-to-date report set.
type reportData struct {
	from, to     time.Time
	kpis         clinic.KPIs
	orders       clinic.OrdersByStatus
	income       clinic.Income
	exams        clinic.Breakdown
	species      clinic.Breakdown
	vets         clinic.Breakdown
	techs        clinic.Breakdown
	turnaround   clinic.Turnaround
	repeats      clinic.Repeats
	satisfaction clinic.Satisfaction
	sameDay      clinic.SameDay
	errors       []string
}

// loadReports fetches every report of the current month in parallel.
// Failed reports are listed in errors and left zero.
func loadReports(ctx context.Context, api *clinic.API, now time.Time) *reportData {
	r := api.Reports
	d := &reportData{from: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), to: now}

	jobs := map[string]func() error{
		"kpis":          func() (err error) { d.kpis, err = r.KPIs(ctx); return },
		"órdenes":       func() (err error) { d.orders, err = r.OrdersByStatus(ctx); return },
		"ingresos":      func() (err error) { d.income, err = r.Income(ctx, d.from, d.to); return },
		"análisis":      func() (err error) { d.exams, err = r.ByExamType(ctx, d.from, d.to); return },
		"especies":      func() (err error) { d.species, err = r.Species(ctx, d.from, d.to); return },
		"veterinarios":  func() (err error) { d.vets, err = r.VetProductivity(ctx, d.from, d.to); return },
		"técnicos":      func() (err error) { d.techs, err = r.TechnicianProductivity(ctx, d.from, d.to); return },
		"tiempos":       func() (err error) { d.turnaround, err = r.Turnaround(ctx, d.from, d.to); return },
		"repeticiones":  func() (err error) { d.repeats, err = r.Repeats(ctx, d.from, d.to); return },
		"satisfacción":  func() (err error) { d.satisfaction, err = r.Satisfaction(ctx); return },
		"mismo día":     func() (err error) { d.sameDay, err = r.SameDay(ctx, now); return },
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wg.Add(len(jobs))
	for name, job := range jobs {
		go func() {
			defer wg.Done()
			if err := job(); err != nil {
				mu.Lock()
				d.errors = append(d.errors, fmt.Sprintf("%s: %s", name, clinic.Describe(err, err.Error())))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Strings(d.errors)
	return d
}

func target(ok bool) string {
	if ok {
		return successStyle.Render("cumple objetivo")
	}
	return errorStyle.Render("no cumple objetivo")
}

func renderReports(d *reportData) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(" REPORTES "))
	b.WriteString("  ")
	b.WriteString(breadcrumbStyle.Render(fmt.Sprintf("%s a %s", d.from.Format("2006-01-02"), d.to.Format("2006-01-02"))))
	b.WriteString("\n\n")

	b.WriteString(selectedStyle.Render("INDICADORES GENERALES"))
	b.WriteString("\n\n")
	line(&b, "Órdenes", fmt.Sprintf("%d (%d pendientes, %d en proceso, %d completadas)",
		d.kpis.TotalOrders, d.kpis.PendingOrders, d.kpis.InProgressOrders, d.kpis.CompletedOrders))
	line(&b, "Resultados", fmt.Sprintf("%d (%d validados, %d pendientes)",
		d.kpis.TotalResults, d.kpis.ValidatedResults, d.kpis.PendingResults))
	line(&b, "Mascotas", d.kpis.TotalPets)
	line(&b, "Veterinarios", d.kpis.TotalVets)
	line(&b, "Técnicos", d.kpis.TotalTechnicians)
	line(&b, "Órdenes canceladas", d.orders.Cancelled)
	b.WriteString("\n")

	b.WriteString(selectedStyle.Render("INGRESOS"))
	b.WriteString("\n\n")
	line(&b, "Facturas", d.income.Invoices)
	line(&b, "Facturado", screens.Money(d.income.Billed))
	line(&b, "Cobrado", screens.Money(d.income.Collected))
	line(&b, "Pendiente", screens.Money(d.income.Pending))
	line(&b, "Tasa de cobro", d.income.Collection.StringFixed(1)+"%")
	b.WriteString("\n")

	b.WriteString(selectedStyle.Render("PRODUCTIVIDAD"))
	b.WriteString("\n")
	renderBreakdown(&b, "Análisis por tipo", d.exams, 10)
	renderBreakdown(&b, "Especies", d.species, 10)
	renderBreakdown(&b, "Órdenes por veterinario", d.vets, 10)
	renderBreakdown(&b, "Muestras por técnico", d.techs, 10)
	b.WriteString("\n")

	b.WriteString(selectedStyle.Render("CALIDAD"))
	b.WriteString("\n\n")
	line(&b, "Tiempo promedio", fmt.Sprintf("%.1f h (%d muestras), %s", d.turnaround.AvgHours, d.turnaround.Samples, target(d.turnaround.MeetsTarget)))
	line(&b, "Repeticiones", fmt.Sprintf("%.1f%% (%d de %d), %s", d.repeats.Percent, d.repeats.Repeated, d.repeats.Orders, target(d.repeats.MeetsTarget)))
	line(&b, "Tratamiento mismo día", fmt.Sprintf("%.1f%% (%d de %d), %s", d.sameDay.Percent, d.sameDay.SameDay, d.sameDay.Orders, target(d.sameDay.MeetsTarget)))
	line(&b, "Satisfacción", fmt.Sprintf("%.1f (%s)", d.satisfaction.Level, d.satisfaction.Rating))

	if len(d.errors) > 0 {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Advertencias:"))
		for _, err := range d.errors {
			fmt.Fprintf(&b, "\n  - %s", err)
		}
	}
	return b.String()
}
