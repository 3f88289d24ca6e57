package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/petsalud/vet-cli/internal/clinic"
	"github.com/petsalud/vet-cli/internal/screens"
	"github.com/petsalud/vet-cli/internal/viewmodel"
)

// resource is one entity command, e.g. "duenos".
type resource interface {
	key() string
	run(c *CLI, args []string) error
}

type entity[T any] struct {
	build func(screens.Env) *screens.Screen[T]
	name  string
}

func (e entity[T]) key() string { return e.name }

var resources = []resource{
	entity[clinic.Owner]{screens.Owners, "duenos"},
	entity[clinic.Pet]{screens.Pets, "mascotas"},
	entity[clinic.Vet]{screens.Vets, "veterinarios"},
	entity[clinic.Technician]{screens.Technicians, "tecnicos"},
	entity[clinic.Order]{screens.Orders, "ordenes"},
	entity[clinic.Sample]{screens.Samples, "muestras"},
	entity[clinic.Result]{screens.Results, "resultados"},
	entity[clinic.Invoice]{screens.Invoices, "facturas"},
	entity[clinic.Payment]{screens.Payments, "pagos"},
	entity[clinic.InventoryItem]{screens.Inventory, "inventario"},
	entity[clinic.Appointment]{screens.Appointments, "citas"},
}

// aliases are the English and singular spellings of the resource names.
var aliases = map[string]string{
	"owner": "duenos", "owners": "duenos", "dueno": "duenos",
	"pet": "mascotas", "pets": "mascotas", "mascota": "mascotas",
	"vet": "veterinarios", "vets": "veterinarios", "veterinario": "veterinarios",
	"tech": "tecnicos", "techs": "tecnicos", "tecnico": "tecnicos",
	"order": "ordenes", "orders": "ordenes", "orden": "ordenes",
	"sample": "muestras", "samples": "muestras", "muestra": "muestras",
	"result": "resultados", "results": "resultados", "resultado": "resultados",
	"invoice": "facturas", "invoices": "facturas", "factura": "facturas",
	"payment": "pagos", "payments": "pagos", "pago": "pagos",
	"inventory": "inventario", "item": "inventario",
	"appointment": "citas", "appointments": "citas", "cita": "citas",
}

func lookup(name string) (resource, bool) {
	if key, ok := aliases[name]; ok {
		name = key
	}
	i := slices.IndexFunc(resources, func(r resource) bool { return r.key() == name })
	if i < 0 {
		return nil, false
	}
	return resources[i], true
}

func (e entity[T]) run(c *CLI, args []string) error {
	u, err := c.require(e.name)
	if err != nil {
		return err
	}
	desc := e.build(c.env)
	if len(args) == 0 {
		e.usage(c, desc, u.Role)
		return nil
	}

	switch args[0] {
	case "list":
		return e.list(c, desc, args[1:])
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("usage: vet-cli %s get <id>", e.name)
		}
		return e.get(c, desc, args[1])
	case "create":
		return e.save(c, desc, 0, args[1:])
	case "update":
		if len(args) < 2 {
			return fmt.Errorf("usage: vet-cli %s update <id> <campo=valor>...", e.name)
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		return e.save(c, desc, id, args[2:])
	}

	a, ok := desc.Action(args[0])
	if !ok {
		return fmt.Errorf("unknown %s subcommand: %s", e.name, args[0])
	}
	if !a.Allowed(u.Role) {
		return fmt.Errorf("role %s cannot %s %s", u.Role, a.Name, e.name)
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: vet-cli %s %s", e.name, actionUsage(a))
	}
	return e.act(c, desc, a, args[1], args[2:])
}

func (e entity[T]) usage(c *CLI, desc *screens.Screen[T], role string) {
	c.printf("Usage: vet-cli %s <subcommand> [args...]\n", e.name)
	c.printf("Subcommands:\n")
	c.printf("  list [--search=X] [--page=N] [--all]")
	for _, f := range desc.List.Filters {
		c.printf(" [--%s=X]", f.Name)
	}
	c.printf("\n  get <id>\n")
	c.printf("  create <campo=valor>...\n")
	c.printf("  update <id> <campo=valor>...\n")
	for _, a := range desc.Actions {
		if a.Allowed(role) {
			c.printf("  %s\n", actionUsage(a))
		}
	}
	c.printf("\nFields:")
	for _, f := range desc.Form.Fields {
		if !f.ReadOnly {
			c.printf(" %s", f.Name)
		}
	}
	c.printf("\n")
}

func actionUsage[T any](a screens.RowAction[T]) string {
	parts := []string{a.Name, "<id>"}
	for _, f := range a.Args {
		arg := "<" + f.Name + ">"
		if len(f.Options) > 0 {
			values := make([]string, len(f.Options))
			for i, o := range f.Options {
				values[i] = o.Value
			}
			arg = "<" + strings.Join(values, "|") + ">"
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

func (e entity[T]) list(c *CLI, desc *screens.Screen[T], args []string) error {
	opts, _ := parseOptions(args)
	list := viewmodel.NewList(desc.List)

	for _, f := range list.Filters() {
		v, ok := opts[f.Name]
		if !ok {
			continue
		}
		i := slices.IndexFunc(f.Options, func(o viewmodel.Option) bool { return strings.EqualFold(o.Value, v) })
		if i < 0 {
			return fmt.Errorf("invalid %s %q", f.Name, v)
		}
		list.SetFilter(f.Name, f.Options[i].Value)
	}

	c.printf("%sFetching %s...%s\n", Blue, strings.ToLower(desc.Title), Reset)
	if err := list.Load(c.ctx); err != nil {
		return fmt.Errorf("%s: %w", clinic.Describe(err, "Error al cargar "+strings.ToLower(desc.Title)), err)
	}
	list.SetSearch(opts["search"])

	items := list.Page()
	if _, all := opts["all"]; all {
		items = list.Filtered()
	} else if p, ok := opts["page"]; ok {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > max(1, list.TotalPages()) {
			return fmt.Errorf("invalid page %q", p)
		}
		list.SetPage(n)
		items = list.Page()
	}

	total := len(list.Filtered())
	if total == 0 {
		c.printf("%sNo se encontraron registros%s\n", Yellow, Reset)
		return nil
	}

	headers := make([]string, len(desc.Columns))
	for i, col := range desc.Columns {
		headers[i] = col.Title
	}
	rows := make([][]string, len(items))
	for i, item := range items {
		rows[i] = desc.Row(item)
	}

	c.printf("\n%s%s (%d):%s\n", Cyan, desc.Title, total, Reset)
	c.printf("%s\n", renderTable(headers, rows))
	if _, all := opts["all"]; !all && list.TotalPages() > 1 {
		c.printf("Página %d de %d (--page=N, --all)\n", list.CurrentPage(), list.TotalPages())
	}
	return nil
}

func renderTable(headers []string, rows [][]string) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}

func (e entity[T]) get(c *CLI, desc *screens.Screen[T], raw string) error {
	id, err := parseID(raw)
	if err != nil {
		return err
	}
	form := viewmodel.NewForm(desc.Form, id, true)
	if err := form.Load(c.ctx, c.notifier()); err != nil {
		return err
	}

	c.printf("\n%s%s #%d%s\n", Cyan, desc.Singular, id, Reset)
	for _, f := range form.Fields() {
		c.printf("  %s: %s\n", f.Label, display(f, form.Value(f.Name), form.Options(f.Name)))
	}
	if form.HasLines() {
		printLines(c, form.Lines(), form.Totals())
	}
	return nil
}

func display(f viewmodel.Field, value string, opts []viewmodel.Option) string {
	if f.Kind == viewmodel.Bool {
		if value == "true" {
			return "Sí"
		}
		return "No"
	}
	if value == "" {
		return "-"
	}
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

func printLines(c *CLI, lines []viewmodel.LineDraft, t viewmodel.Totals) {
	rows := make([][]string, len(lines))
	for i, l := range lines {
		rows[i] = []string{strconv.Itoa(i + 1), l.Description, l.Quantity, l.UnitPrice, l.ServiceType}
	}
	c.printf("%s\n", renderTable([]string{"#", "Descripción", "Cant.", "P. unitario", "Tipo"}, rows))
	c.printf("  Subtotal: %s\n", screens.Money(t.Subtotal))
	c.printf("  IGV:      %s\n", screens.Money(t.Tax))
	c.printf("  Total:    %s%s%s\n", Green, screens.Money(t.Total), Reset)
}

// save creates (id 0) or updates a record from campo=valor arguments.
// Line items are given as --line=descripcion;cantidad;precio[;tipo].
func (e entity[T]) save(c *CLI, desc *screens.Screen[T], id int64, args []string) error {
	n := c.notifier()
	form := viewmodel.NewForm(desc.Form, id, false)
	if err := form.Load(c.ctx, n); err != nil {
		return err
	}

	var lines []string
	for _, arg := range args {
		if v, ok := strings.CutPrefix(arg, "--line="); ok {
			lines = append(lines, v)
			continue
		}
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("expected campo=valor, got %q", arg)
		}
		if err := form.Set(name, value); err != nil {
			return err
		}
	}
	if len(lines) > 0 {
		if !form.HasLines() {
			return fmt.Errorf("%s has no line items", e.name)
		}
		if err := setLines(form, lines, n); err != nil {
			return err
		}
	}

	saved, err := form.Submit(c.ctx, n)
	if err != nil {
		printErrors(c, form.Fields(), form.Errors())
		return err
	}
	if row := desc.Row(saved); len(row) > 0 {
		c.printf("  %s\n", strings.Join(row, " | "))
	}
	return nil
}

var lineColumns = []string{viewmodel.LineDescription, viewmodel.LineQuantity, viewmodel.LineUnitPrice, viewmodel.LineServiceType}

func setLines[T any](form *viewmodel.Form[T], lines []string, n viewmodel.Notifier) error {
	for i, raw := range lines {
		if i >= len(form.Lines()) {
			if err := form.AddLine(); err != nil {
				return err
			}
		}
		for k, v := range strings.Split(raw, ";") {
			if k >= len(lineColumns) {
				return fmt.Errorf("line %d: too many values", i+1)
			}
			if err := form.SetLine(i, lineColumns[k], strings.TrimSpace(v)); err != nil {
				return err
			}
		}
	}
	for len(form.Lines()) > len(lines) {
		if err := form.RemoveLine(len(form.Lines())-1, n); err != nil {
			return err
		}
	}
	return nil
}

func printErrors(c *CLI, fields []viewmodel.Field, errs map[string]string) {
	for _, f := range fields {
		if msg, ok := errs[f.Name]; ok {
			c.printf("  %s%s: %s%s\n", Red, f.Label, msg, Reset)
			delete(errs, f.Name)
		}
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		c.printf("  %s%s: %s%s\n", Red, k, errs[k], Reset)
	}
}

// act runs a row action on one record. The list behind it holds just that
// record, so the re-fetch after the action shows the new state.
func (e entity[T]) act(c *CLI, desc *screens.Screen[T], a screens.RowAction[T], raw string, args []string) error {
	id, err := parseID(raw)
	if err != nil {
		return err
	}
	record, err := desc.Form.Source.Get(c.ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", clinic.Describe(err, desc.Form.Messages.LoadFailed), err)
	}

	config := desc.List
	config.Filters = nil
	config.Fetch = func(ctx context.Context) ([]T, error) {
		r, err := desc.Form.Source.Get(ctx, id)
		var nf *clinic.NotFoundError
		if errors.As(err, &nf) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []T{r}, nil
	}
	list := viewmodel.NewList(config)

	done, err := a.Run(c.ctx, list, c.notifier(), record, args)
	if err != nil {
		return err
	}
	if !done {
		c.printf("%sSin cambios%s\n", Yellow, Reset)
		return nil
	}
	if items := list.Filtered(); len(items) > 0 {
		c.printf("  %s\n", strings.Join(desc.Row(items[0]), " | "))
	}
	return nil
}
