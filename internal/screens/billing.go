package screens

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/petsalud/vet-cli/internal/clinic"
	"github.com/petsalud/vet-cli/internal/viewmodel"
)

// Billing catalogs.
var (
	InvoiceStatuses = []string{clinic.InvoicePending, clinic.InvoicePaid, clinic.InvoiceCancelled}
	PaymentTypes    = []string{"CONSULTA", "INTERNAMIENTO", "CIRUGIA", "VACUNA", "LABORATORIO", "OTRO"}
	PaymentStatuses = []string{clinic.PaymentPending, clinic.PaymentPaid, clinic.PaymentPartial, clinic.PaymentOverdue}
)

func ownerName(o *clinic.Owner) string { return o.FullName() }

// InvoiceNumber returns a new number of the form F<yyyy><MM>-<4 digits>.
func InvoiceNumber(env Env) string {
	return fmt.Sprintf("F%s-%04d", env.now().Format("200601"), rand.IntN(10000))
}

// Invoices is the facturas screen. Its form carries line items.
func Invoices(env Env) *Screen[clinic.Invoice] {
	api := env.API
	id := func(i clinic.Invoice) int64 { return i.ID }
	return &Screen[clinic.Invoice]{
		Key:      "facturas",
		Title:    "Facturas",
		Singular: "factura",
		ID:       id,
		Columns: []Column[clinic.Invoice]{
			{Title: "ID", Width: 5, Value: func(i clinic.Invoice) string { return idString(i.ID) }},
			{Title: "Número", Width: 14, Value: func(i clinic.Invoice) string { return i.Number }},
			{Title: "Emisión", Width: 10, Value: func(i clinic.Invoice) string { return day(i.IssuedOn) }},
			{Title: "Cliente", Width: 24, Value: func(i clinic.Invoice) string { return orDash(ownerName(i.Owner)) }},
			{Title: "Total", Width: 12, Value: func(i clinic.Invoice) string { return Money(i.Total) }},
			{Title: "Estado", Width: 10, Value: func(i clinic.Invoice) string { return i.Status }},
		},
		List: viewmodel.ListConfig[clinic.Invoice]{
			Fetch: api.Invoices.List,
			Search: []func(clinic.Invoice) string{
				func(i clinic.Invoice) string { return i.Number },
				func(i clinic.Invoice) string { return ownerName(i.Owner) },
			},
			Filters: []viewmodel.Filter[clinic.Invoice]{{
				Name:    "estado",
				Label:   "Estado",
				Options: withAll(viewmodel.Values(InvoiceStatuses...)),
				Match:   func(i clinic.Invoice, s string) bool { return i.Status == s },
			}},
			PageSize: env.pageSize(),
		},
		Form: viewmodel.FormConfig[clinic.Invoice]{
			Messages: messages("Factura", "a", "factura"),
			Fields: []viewmodel.Field{
				{Name: "numeroFactura", Label: "Número", Required: true, MaxLen: 20},
				{Name: "dueno", Label: "Cliente", Kind: viewmodel.Ref, Required: true},
				{Name: "fechaEmision", Label: "Fecha de emisión", Kind: viewmodel.Date, Required: true},
				{Name: "fechaVencimiento", Label: "Fecha de vencimiento", Kind: viewmodel.Date},
				{Name: "metodoPago", Label: "Método de pago", Kind: viewmodel.Select, Options: viewmodel.Values(clinic.PaymentMethods...)},
				{Name: "estado", Label: "Estado", Kind: viewmodel.Select, Default: clinic.InvoicePending, Options: viewmodel.Values(InvoiceStatuses...)},
				notesField,
			},
			Choices: map[string]viewmodel.ChoiceLoader{"dueno": ownerChoices(api)},
			Source:  api.Invoices,
			Lines:   &viewmodel.LineConfig{TaxRate: clinic.TaxRate},
			Prepare: func(d *viewmodel.Draft) {
				d.Set("numeroFactura", InvoiceNumber(env))
				d.Set("fechaEmision", env.now().Format(viewmodel.DateLayout))
			},
			Fill: func(i clinic.Invoice) viewmodel.Draft {
				lines := make([]viewmodel.Line, len(i.Lines))
				for n, l := range i.Lines {
					lines[n] = viewmodel.Line{Description: l.Description, Quantity: l.Quantity, UnitPrice: l.UnitPrice, ServiceType: l.ServiceType}
				}
				return viewmodel.Draft{
					Values: map[string]string{
						"numeroFactura": i.Number, "dueno": refID(i.Owner, ownerID),
						"fechaEmision": day(i.IssuedOn), "fechaVencimiento": day(i.DueOn),
						"metodoPago": i.PaymentMethod, "estado": i.Status, "observaciones": i.Notes,
					},
					Lines: lines,
				}
			},
			Assemble: func(d viewmodel.Draft) (clinic.Invoice, error) {
				lines := make([]clinic.InvoiceLine, len(d.Lines))
				for n, l := range d.Lines {
					lines[n] = clinic.InvoiceLine{
						Description: l.Description,
						Quantity:    l.Quantity,
						UnitPrice:   l.UnitPrice,
						Subtotal:    l.Subtotal(),
						ServiceType: l.ServiceType,
					}
				}
				return clinic.Invoice{
					Number:        d.Get("numeroFactura"),
					Owner:         clinic.OwnerRef(d.ID("dueno")),
					IssuedOn:      d.Get("fechaEmision"),
					DueOn:         d.Get("fechaVencimiento"),
					PaymentMethod: d.Get("metodoPago"),
					Status:        d.Get("estado"),
					Notes:         d.Get("observaciones"),
					Subtotal:      d.Totals.Subtotal,
					Tax:           d.Totals.Tax,
					Total:         d.Totals.Total,
					Lines:         lines,
				}, nil
			},
		},
		Actions: []RowAction[clinic.Invoice]{
			{
				Key:   "m",
				Name:  "paid",
				Label: "Marcar pagada",
				Roles: []string{clinic.RoleAdmin, clinic.RoleReceptionist},
				Guard: func(i clinic.Invoice) string {
					switch i.Status {
					case clinic.InvoicePaid:
						return "La factura ya está pagada"
					case clinic.InvoiceCancelled:
						return "La factura está anulada"
					}
					return ""
				},
				Do: func(i clinic.Invoice, _ []string) viewmodel.Action {
					return viewmodel.Action{
						Prompt:  fmt.Sprintf("¿Marcar la factura %s como pagada?", i.Number),
						Success: "Factura marcada como pagada",
						Failure: "Error al actualizar la factura",
						Run: func(ctx context.Context) error {
							_, err := api.Invoices.MarkPaid(ctx, i.ID)
							return err
						},
					}
				},
			},
			deleteAction(id, api.Invoices.Delete, "¿Está seguro de eliminar esta factura?", "Factura eliminada exitosamente"),
		},
	}
}

// petIndex keeps the pets loaded for a payment form so the pet selector
// can be narrowed to the chosen owner.
type petIndex struct {
	mu   sync.Mutex
	pets []clinic.Pet
}

func (x *petIndex) load(api *clinic.API) viewmodel.ChoiceLoader {
	return func(ctx context.Context) ([]viewmodel.Option, error) {
		pets, err := api.Pets.List(ctx)
		if err != nil {
			return nil, err
		}
		x.mu.Lock()
		x.pets = pets
		x.mu.Unlock()
		return x.options(""), nil
	}
}

func (x *petIndex) options(owner string) []viewmodel.Option {
	x.mu.Lock()
	defer x.mu.Unlock()
	var opts []viewmodel.Option
	for _, p := range x.pets {
		if owner != "" && refID(p.Owner, ownerID) != owner {
			continue
		}
		opts = append(opts, idOption(p.ID, p.Name+" ("+p.Species+")"))
	}
	return opts
}

// Payments is the pagos screen.
func Payments(env Env) *Screen[clinic.Payment] {
	api := env.API
	id := func(p clinic.Payment) int64 { return p.ID }
	pets := &petIndex{}
	return &Screen[clinic.Payment]{
		Key:      "pagos",
		Title:    "Pagos",
		Singular: "pago",
		ID:       id,
		Columns: []Column[clinic.Payment]{
			{Title: "ID", Width: 5, Value: func(p clinic.Payment) string { return idString(p.ID) }},
			{Title: "Número", Width: 14, Value: func(p clinic.Payment) string { return orDash(p.Number) }},
			{Title: "Cliente", Width: 22, Value: func(p clinic.Payment) string { return orDash(ownerName(p.Owner)) }},
			{Title: "Concepto", Width: 22, Value: func(p clinic.Payment) string { return p.Concept }},
			{Title: "Monto", Width: 12, Value: func(p clinic.Payment) string { return Money(p.Amount) }},
			{Title: "Saldo", Width: 12, Value: func(p clinic.Payment) string { return Money(p.Balance()) }},
			{Title: "Estado", Width: 10, Value: func(p clinic.Payment) string { return p.Status }},
		},
		List: viewmodel.ListConfig[clinic.Payment]{
			Fetch: api.Payments.List,
			Search: []func(clinic.Payment) string{
				func(p clinic.Payment) string { return p.Number },
				func(p clinic.Payment) string { return p.Concept },
				func(p clinic.Payment) string { return ownerName(p.Owner) },
				func(p clinic.Payment) string { return petName(p.Pet) },
			},
			Filters: []viewmodel.Filter[clinic.Payment]{
				{
					Name:    "estado",
					Label:   "Estado",
					Options: withAll(viewmodel.Values(PaymentStatuses...)),
					Match:   func(p clinic.Payment, s string) bool { return p.Status == s },
					Remote: func(s string) viewmodel.FetchFunc[clinic.Payment] {
						switch s {
						case clinic.PaymentPending:
							return api.Payments.Pending
						case clinic.PaymentOverdue:
							return api.Payments.Overdue
						}
						return nil
					},
				},
				{
					Name:    "tipo",
					Label:   "Tipo",
					Options: withAll(viewmodel.Values(PaymentTypes...)),
					Match:   func(p clinic.Payment, s string) bool { return p.Type == s },
				},
			},
			PageSize: env.pageSize(),
		},
		Form: viewmodel.FormConfig[clinic.Payment]{
			Messages: messages("Pago", "o", "pago"),
			Fields: []viewmodel.Field{
				{Name: "numeroPago", Label: "Número", MaxLen: 20},
				{Name: "dueno", Label: "Cliente", Kind: viewmodel.Ref, Required: true},
				{Name: "mascota", Label: "Mascota", Kind: viewmodel.Ref},
				{Name: "concepto", Label: "Concepto", Required: true, MinLen: 3, MaxLen: 200},
				{Name: "tipoPago", Label: "Tipo", Kind: viewmodel.Select, Required: true, Default: "CONSULTA", Options: viewmodel.Values(PaymentTypes...)},
				{Name: "monto", Label: "Monto", Kind: viewmodel.Money, Range: viewmodel.AtLeast(0)},
				{Name: "metodoPago", Label: "Método de pago", Kind: viewmodel.Select, Options: viewmodel.Values(clinic.PaymentMethods...)},
				{Name: "estado", Label: "Estado", Kind: viewmodel.Select, Default: clinic.PaymentPending, Options: viewmodel.Values(PaymentStatuses...)},
				{Name: "fechaEmision", Label: "Fecha de emisión", Kind: viewmodel.Date, Required: true},
				{Name: "fechaVencimiento", Label: "Fecha de vencimiento", Kind: viewmodel.Date},
				{Name: "esInternamiento", Label: "Internamiento", Kind: viewmodel.Bool, Default: "false", Options: viewmodel.Values("true", "false")},
				{Name: "fechaInicioInternamiento", Label: "Inicio de internamiento", Kind: viewmodel.DateTime},
				{Name: "diasInternamiento", Label: "Días", Kind: viewmodel.Integer, Range: viewmodel.AtLeast(1)},
				{Name: "costoDiaInternamiento", Label: "Costo por día", Kind: viewmodel.Money, Range: viewmodel.AtLeast(0)},
				notesField,
			},
			Cascades: []viewmodel.Cascade{{Field: "mascota", On: "dueno", Options: pets.options}},
			Choices: map[string]viewmodel.ChoiceLoader{
				"dueno":   ownerChoices(api),
				"mascota": pets.load(api),
			},
			Source: api.Payments,
			Prepare: func(d *viewmodel.Draft) {
				d.Set("fechaEmision", env.now().Format(viewmodel.DateLayout))
			},
			Check: checkPayment,
			Fill: func(p clinic.Payment) viewmodel.Draft {
				return viewmodel.Draft{Values: map[string]string{
					"numeroPago": p.Number, "dueno": refID(p.Owner, ownerID), "mascota": refID(p.Pet, petID),
					"concepto": p.Concept, "tipoPago": p.Type, "monto": p.Amount.String(),
					"metodoPago": p.Method, "estado": p.Status, "fechaEmision": day(p.IssuedOn),
					"fechaVencimiento": day(p.DueOn), "esInternamiento": fmt.Sprint(p.Hospitalization),
					"fechaInicioInternamiento": dateTimeInput(p.AdmittedAt), "diasInternamiento": intString(p.Days),
					"costoDiaInternamiento": nullDecimalString(p.DailyCost), "observaciones": p.Notes,
				}}
			},
			Assemble: func(d viewmodel.Draft) (clinic.Payment, error) {
				p := clinic.Payment{
					Number:   d.Get("numeroPago"),
					Owner:    clinic.OwnerRef(d.ID("dueno")),
					Concept:  d.Get("concepto"),
					Type:     d.Get("tipoPago"),
					Amount:   d.Decimal("monto"),
					Method:   d.Get("metodoPago"),
					Status:   d.Get("estado"),
					IssuedOn: d.Get("fechaEmision"),
					DueOn:    d.Get("fechaVencimiento"),
					Notes:    d.Get("observaciones"),
				}
				if pet := d.ID("mascota"); pet != 0 {
					p.Pet = clinic.PetRef(pet)
				}
				if d.Bool("esInternamiento") {
					p.Hospitalization = true
					p.AdmittedAt = d.Get("fechaInicioInternamiento")
					p.Days = d.IntPtr("diasInternamiento")
					p.DailyCost = d.NullDecimal("costoDiaInternamiento")
					p.Amount = HospitalizationAmount(p.Days, p.DailyCost, p.Amount)
				}
				return p, nil
			},
		},
		Actions: []RowAction[clinic.Payment]{
			{
				Key:   "p",
				Name:  "pay",
				Label: "Registrar pago",
				Roles: []string{clinic.RoleAdmin, clinic.RoleReceptionist},
				Args: []viewmodel.Field{
					{Name: "monto", Label: "Monto", Kind: viewmodel.Money, Required: true, Range: &viewmodel.Range{Min: 0.01, Max: 1e9}},
					{Name: "metodoPago", Label: "Método de pago", Kind: viewmodel.Select, Required: true, Options: viewmodel.Values(clinic.PaymentMethods...)},
				},
				Guard: func(p clinic.Payment) string {
					if p.Status == clinic.PaymentPaid {
						return "Este pago ya está cancelado"
					}
					return ""
				},
				Do: func(p clinic.Payment, args []string) viewmodel.Action {
					amount := decimal.RequireFromString(args[0])
					return viewmodel.Action{
						Prompt:  fmt.Sprintf("¿Registrar pago de %s con %s?", Money(amount), args[1]),
						Success: "Pago registrado exitosamente",
						Failure: "Error al registrar el pago",
						Run: func(ctx context.Context) error {
							_, err := api.Payments.Register(ctx, p.ID, amount, args[1])
							return err
						},
					}
				},
			},
			{
				Key:   "a",
				Name:  "discharge",
				Label: "Finalizar internamiento",
				Roles: []string{clinic.RoleAdmin, clinic.RoleVet},
				Guard: func(p clinic.Payment) string {
					switch {
					case !p.Hospitalization:
						return "Este pago no corresponde a un internamiento"
					case p.DischargedAt != "":
						return "El internamiento ya fue finalizado"
					}
					return ""
				},
				Do: func(p clinic.Payment, _ []string) viewmodel.Action {
					return viewmodel.Action{
						Prompt:  "¿Finalizar el internamiento?",
						Success: "Internamiento finalizado",
						Failure: "Error al finalizar el internamiento",
						Run: func(ctx context.Context) error {
							_, err := api.Payments.FinishHospitalization(ctx, p.ID)
							return err
						},
					}
				},
			},
			deleteAction(id, api.Payments.Delete, "¿Está seguro de eliminar este pago?", "Pago eliminado exitosamente"),
		},
	}
}

func checkPayment(d viewmodel.Draft) map[string]string {
	errs := map[string]string{}
	if d.Bool("esInternamiento") {
		if d.Get("diasInternamiento") == "" {
			errs["diasInternamiento"] = viewmodel.MsgRequired
		}
		if d.Get("costoDiaInternamiento") == "" {
			errs["costoDiaInternamiento"] = viewmodel.MsgRequired
		}
		return errs
	}
	if !d.Decimal("monto").IsPositive() {
		errs["monto"] = "El monto debe ser mayor a 0"
	}
	return errs
}

// HospitalizationAmount is days times the daily cost, or fallback when
// either is missing.
func HospitalizationAmount(days *int, daily decimal.NullDecimal, fallback decimal.Decimal) decimal.Decimal {
	if days == nil || !daily.Valid {
		return fallback
	}
	return daily.Decimal.Mul(decimal.NewFromInt(int64(*days)))
}
