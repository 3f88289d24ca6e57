package clinic

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// TaxRate is the IGV applied to invoice subtotals.
var TaxRate = decimal.RequireFromString("0.18")

// Payment methods accepted by the API.
var PaymentMethods = []string{"EFECTIVO", "TARJETA", "TRANSFERENCIA", "YAPE", "PLIN"}

// Invoices is the /facturas gateway.
type Invoices struct {
	Resource[Invoice]
}

func (i *Invoices) Pending(ctx context.Context) ([]Invoice, error) {
	return i.query(ctx, "pendientes", nil)
}

func (i *Invoices) ByOwner(ctx context.Context, ownerID int64) ([]Invoice, error) {
	if err := checkID(ownerID); err != nil {
		return nil, err
	}
	return i.query(ctx, "dueno/"+idPart(ownerID), nil)
}

// MarkPaid sets the invoice to PAGADA.
func (i *Invoices) MarkPaid(ctx context.Context, id int64) (Invoice, error) {
	return i.transition(ctx, http.MethodPatch, id, "pagar", nil)
}

// Payments is the /pagos gateway.
type Payments struct {
	Resource[Payment]
}

func (p *Payments) ByNumber(ctx context.Context, number string) (Payment, error) {
	return p.one(ctx, "numero/"+url.PathEscape(number), nil)
}

func (p *Payments) ByOwner(ctx context.Context, ownerID int64) ([]Payment, error) {
	if err := checkID(ownerID); err != nil {
		return nil, err
	}
	return p.query(ctx, "dueno/"+idPart(ownerID), nil)
}

func (p *Payments) ByPet(ctx context.Context, petID int64) ([]Payment, error) {
	if err := checkID(petID); err != nil {
		return nil, err
	}
	return p.query(ctx, "mascota/"+idPart(petID), nil)
}

func (p *Payments) Pending(ctx context.Context) ([]Payment, error) {
	return p.query(ctx, "pendientes", nil)
}

func (p *Payments) Overdue(ctx context.Context) ([]Payment, error) {
	return p.query(ctx, "vencidos", nil)
}

// ActiveHospitalizations lists open internamientos.
func (p *Payments) ActiveHospitalizations(ctx context.Context) ([]Payment, error) {
	return p.query(ctx, "internamientos/activos", nil)
}

// Register records money received against a payment.
func (p *Payments) Register(ctx context.Context, id int64, amount decimal.Decimal, method string) (Payment, error) {
	return p.transition(ctx, http.MethodPost, id, "registrar-pago", url.Values{
		"montoPagado": {amount.String()},
		"metodoPago":  {method},
	})
}

// FinishHospitalization closes an internamiento and computes its cost.
func (p *Payments) FinishHospitalization(ctx context.Context, id int64) (Payment, error) {
	return p.transition(ctx, http.MethodPost, id, "finalizar-internamiento", nil)
}

// OwnerPendingTotal is what an owner still owes.
func (p *Payments) OwnerPendingTotal(ctx context.Context, ownerID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := checkID(ownerID); err != nil {
		return total, err
	}
	err := p.scalar(ctx, "dueno/"+idPart(ownerID)+"/total-pendiente", nil, &total)
	return total, err
}

// CollectedTotal sums payments received between two days, inclusive.
func (p *Payments) CollectedTotal(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := p.scalar(ctx, "estadisticas/total-cobrado", url.Values{
		"inicio": {from.Format(dateLayout)},
		"fin":    {to.Format(dateLayout)},
	}, &total)
	return total, err
}
