package cli

import (
	"fmt"
	"time"

	"github.com/petsalud/vet-cli/internal/clinic"
	"github.com/petsalud/vet-cli/internal/screens"
	"github.com/petsalud/vet-cli/internal/viewmodel"
)

func (c *CLI) now() time.Time {
	if c.env.Now != nil {
		return c.env.Now()
	}
	return time.Now()
}

// period reads optional <from> <to> dates; the default is the month so far.
func (c *CLI) period(args []string) (time.Time, time.Time, error) {
	now := c.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := now
	var err error
	if len(args) > 0 {
		if from, err = time.ParseInLocation(viewmodel.DateLayout, args[0], now.Location()); err != nil {
			return from, to, fmt.Errorf("invalid date %q (YYYY-MM-DD)", args[0])
		}
	}
	if len(args) > 1 {
		if to, err = time.ParseInLocation(viewmodel.DateLayout, args[1], now.Location()); err != nil {
			return from, to, fmt.Errorf("invalid date %q (YYYY-MM-DD)", args[1])
		}
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("the period ends before it starts")
	}
	return from, to, nil
}

// CmdReport handles report commands
func (c *CLI) CmdReport(args []string) error {
	if len(args) == 0 {
		c.printf("Usage: vet-cli report <kind> [from] [to]\n")
		c.printf("Kinds: kpis, dashboard, orders, income, exams, species, vets, techs, turnaround, satisfaction\n")
		c.printf("\nExamples:\n")
		c.printf("  vet-cli report kpis\n")
		c.printf("  vet-cli report income 2025-03-01 2025-03-31\n")
		return nil
	}
	if _, err := c.require(screens.KeyReports); err != nil {
		return err
	}

	r := c.env.API.Reports
	switch args[0] {
	case "kpis":
		k, err := r.KPIs(c.ctx)
		if err != nil {
			return err
		}
		c.printKPIs(k)
	case "dashboard":
		return c.CmdDashboard()
	case "orders":
		o, err := r.OrdersByStatus(c.ctx)
		if err != nil {
			return err
		}
		c.printOrders(o)
	case "income":
		from, to, err := c.period(args[1:])
		if err != nil {
			return err
		}
		i, err := r.Income(c.ctx, from, to)
		if err != nil {
			return err
		}
		c.printIncome(i, from, to)
	case "exams", "species", "vets", "techs":
		from, to, err := c.period(args[1:])
		if err != nil {
			return err
		}
		fetch := map[string]func() (clinic.Breakdown, error){
			"exams":   func() (clinic.Breakdown, error) { return r.ByExamType(c.ctx, from, to) },
			"species": func() (clinic.Breakdown, error) { return r.Species(c.ctx, from, to) },
			"vets":    func() (clinic.Breakdown, error) { return r.VetProductivity(c.ctx, from, to) },
			"techs":   func() (clinic.Breakdown, error) { return r.TechnicianProductivity(c.ctx, from, to) },
		}[args[0]]
		b, err := fetch()
		if err != nil {
			return err
		}
		c.printBreakdown(args[0], b)
	case "turnaround":
		from, to, err := c.period(args[1:])
		if err != nil {
			return err
		}
		t, err := r.Turnaround(c.ctx, from, to)
		if err != nil {
			return err
		}
		c.printf("\n%sTiempo promedio de resultados%s\n", Cyan, Reset)
		c.printf("  Muestras: %d\n", t.Samples)
		c.printf("  Promedio: %.1f h (%.1f días)\n", t.AvgHours, t.AvgDays)
		c.printf("  Objetivo: %.0f h %s\n", t.TargetHours, target(t.MeetsTarget))
	case "satisfaction":
		s, err := r.Satisfaction(c.ctx)
		if err != nil {
			return err
		}
		c.printf("\n%sSatisfacción%s\n", Cyan, Reset)
		c.printf("  Nivel: %.1f (%s)\n", s.Level, s.Rating)
		c.printf("  Tasa de completitud: %.1f%%\n", s.CompletionRate)
		c.printf("  Órdenes completadas: %d\n", s.CompletedOrders)
		c.printf("  Resultados entregados: %d\n", s.DeliveredResults)
		c.printf("  Facturas pagadas: %d\n", s.PaidInvoices)
	default:
		return fmt.Errorf("unknown report: %s", args[0])
	}
	return nil
}

func target(ok bool) string {
	if ok {
		return Green + "cumple" + Reset
	}
	return Red + "no cumple" + Reset
}

func (c *CLI) printKPIs(k clinic.KPIs) {
	c.printf("\n%sIndicadores generales%s\n", Cyan, Reset)
	c.printf("  Órdenes: %d (%d pendientes, %d en proceso, %d completadas)\n",
		k.TotalOrders, k.PendingOrders, k.InProgressOrders, k.CompletedOrders)
	c.printf("  Resultados: %d (%d validados, %d pendientes)\n", k.TotalResults, k.ValidatedResults, k.PendingResults)
	c.printf("  Mascotas: %d\n", k.TotalPets)
	c.printf("  Veterinarios: %d\n", k.TotalVets)
	c.printf("  Técnicos: %d\n", k.TotalTechnicians)
}

func (c *CLI) printOrders(o clinic.OrdersByStatus) {
	c.printf("\n%sÓrdenes por estado%s\n", Cyan, Reset)
	c.printf("  Pendientes: %d\n", o.Pending)
	c.printf("  En proceso: %d\n", o.InProgress)
	c.printf("  Completadas: %d\n", o.Completed)
	c.printf("  Canceladas: %d\n", o.Cancelled)
	c.printf("  Total: %d\n", o.Total)
}

func (c *CLI) printIncome(i clinic.Income, from, to time.Time) {
	c.printf("\n%sIngresos %s a %s%s\n", Cyan, from.Format(viewmodel.DateLayout), to.Format(viewmodel.DateLayout), Reset)
	c.printf("  Facturas: %d\n", i.Invoices)
	c.printf("  Facturado: %s\n", screens.Money(i.Billed))
	c.printf("  Cobrado: %s%s%s\n", Green, screens.Money(i.Collected), Reset)
	if i.Pending.IsPositive() {
		c.printf("  Pendiente: %s%s%s\n", Red, screens.Money(i.Pending), Reset)
	} else {
		c.printf("  Pendiente: %s\n", screens.Money(i.Pending))
	}
	c.printf("  Tasa de cobro: %s%%\n", i.Collection.StringFixed(1))
}

var breakdownTitles = map[string]string{
	"exams":   "Análisis por tipo de examen",
	"species": "Especies atendidas",
	"vets":    "Productividad de veterinarios",
	"techs":   "Productividad de técnicos",
}

func (c *CLI) printBreakdown(kind string, b clinic.Breakdown) {
	c.printf("\n%s%s%s\n", Cyan, breakdownTitles[kind], Reset)
	if b.From != "" {
		c.printf("  Periodo: %s a %s\n", b.From, b.To)
	}
	entries := b.Sorted()
	if len(entries) == 0 {
		c.printf("  %sSin datos%s\n", Yellow, Reset)
		return
	}
	for _, e := range entries {
		c.printf("  %-30s %d\n", e.Label, e.Count)
	}
}

// CmdDashboard prints the dashboard and the alert counts.
func (c *CLI) CmdDashboard() error {
	if _, err := c.require(screens.KeyDashboard); err != nil {
		return err
	}
	c.printf("%sLoading dashboard...%s\n", Blue, Reset)
	o := c.env.API.LoadOverview(c.ctx)
	d := o.Dashboard

	c.printKPIs(d.KPIs)
	c.printOrders(d.Orders)
	c.printf("\n%sFacturación del mes%s\n", Cyan, Reset)
	c.printf("  Facturado: %s\n", screens.Money(d.Income.Billed))
	c.printf("  Cobrado: %s\n", screens.Money(d.Income.Collected))
	c.printf("  Pendiente: %s\n", screens.Money(d.Income.Pending))

	inv, appt := o.InventoryAlerts, o.AppointmentAlerts
	c.printf("\n%sAlertas%s\n", Cyan, Reset)
	c.printf("  Stock bajo: %s\n", count(len(inv.LowStock)))
	c.printf("  Vencidos: %s\n", count(len(inv.Expired)))
	c.printf("  Por vencer: %s\n", count(len(inv.ExpiringSoon)))
	c.printf("  Citas de hoy: %d\n", len(appt.Today))
	c.printf("  Citas por confirmar: %s\n", count(len(appt.AwaitConfirmed)))
	c.printf("  Citas críticas: %s\n", count(len(appt.Critical)))

	for _, e := range o.Errors {
		c.printf("%s! %s%s\n", Yellow, e, Reset)
	}
	return nil
}

func count(n int) string {
	if n > 0 {
		return fmt.Sprintf("%s%d%s", Red, n, Reset)
	}
	return "0"
}

// CmdInventoryAlerts lists low stock, expired and expiring items.
func (c *CLI) CmdInventoryAlerts() error {
	if _, err := c.require("inventario"); err != nil {
		return err
	}
	a, err := c.env.API.Inventory.Alerts(c.ctx)
	if err != nil {
		return err
	}
	if a.Count() == 0 {
		c.printf("%s✓ Sin alertas de inventario%s\n", Green, Reset)
		return nil
	}

	sections := []struct {
		title string
		items []clinic.InventoryItem
	}{
		{"Stock bajo", a.LowStock},
		{"Vencidos", a.Expired},
		{"Por vencer", a.ExpiringSoon},
	}
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		rows := make([][]string, len(s.items))
		for i, item := range s.items {
			rows[i] = []string{item.Code, item.Name, fmt.Sprint(item.Stock), fmt.Sprint(item.MinStock), orDash(item.ExpiresOn)}
		}
		c.printf("\n%s%s (%d):%s\n", Yellow, s.title, len(s.items), Reset)
		c.printf("%s\n", renderTable([]string{"Código", "Nombre", "Stock", "Mínimo", "Vence"}, rows))
	}
	return nil
}

// CmdAppointmentAlerts lists the appointments that need attention.
func (c *CLI) CmdAppointmentAlerts() error {
	if _, err := c.require("citas"); err != nil {
		return err
	}
	a, err := c.env.API.Appointments.DashboardAlerts(c.ctx)
	if err != nil {
		return err
	}

	sections := []struct {
		title string
		items []clinic.Appointment
	}{
		{"Críticas", a.Critical},
		{"Hoy", a.Today},
		{"Por confirmar", a.AwaitConfirmed},
		{"Próximas", a.Upcoming},
	}
	desc := screens.Appointments(c.env)
	headers := make([]string, len(desc.Columns))
	for i, col := range desc.Columns {
		headers[i] = col.Title
	}
	empty := true
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		empty = false
		rows := make([][]string, len(s.items))
		for i, item := range s.items {
			rows[i] = desc.Row(item)
		}
		c.printf("\n%s%s (%d):%s\n", Yellow, s.title, len(s.items), Reset)
		c.printf("%s\n", renderTable(headers, rows))
	}
	if empty {
		c.printf("%s✓ Sin citas pendientes%s\n", Green, Reset)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// CmdResultPDF downloads the PDF of a result
func (c *CLI) CmdResultPDF(args []string) error {
	if _, err := c.require("resultados"); err != nil {
		return err
	}
	opts, rest := parseOptions(args)
	target := opts["output"]
	var ids []string
	for i := 0; i < len(rest); i++ {
		if rest[i] == "-o" && i+1 < len(rest) {
			target = rest[i+1]
			i++
			continue
		}
		ids = append(ids, rest[i])
	}
	if len(ids) != 1 {
		return fmt.Errorf("usage: vet-cli resultados pdf <id> [-o file]")
	}
	id, err := parseID(ids[0])
	if err != nil {
		return err
	}

	c.printf("%sDownloading result %d...%s\n", Blue, id, Reset)
	path, err := screens.DownloadPDF(c.ctx, c.env, id, target)
	if err != nil {
		return fmt.Errorf("%s: %w", clinic.Describe(err, "Error al descargar PDF"), err)
	}
	c.printf("%s✓ PDF guardado en %s%s\n", Green, path, Reset)
	return nil
}
