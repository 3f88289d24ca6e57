package viewmodel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrLastLine is returned when removing the only line item.
var ErrLastLine = errors.New("at least one line item is required")

// Line field names, as the API names them.
const (
	LineDescription = "descripcion"
	LineQuantity    = "cantidad"
	LineUnitPrice   = "precioUnitario"
	LineServiceType = "tipoServicio"
)

// DefaultServiceType is the service type of a new line.
const DefaultServiceType = "EXAMEN"

// ServiceTypes a line may carry.
var ServiceTypes = []string{"EXAMEN", "CONSULTA", "MEDICAMENTO", "VACUNA", "CIRUGIA", "OTROS"}

// LineDraft is a line item as typed by the user.
type LineDraft struct {
	Description string
	Quantity    string
	UnitPrice   string
	ServiceType string
}

// NewLine returns a line with quantity 1 and price 0.
func NewLine() LineDraft {
	return LineDraft{Quantity: "1", UnitPrice: "0", ServiceType: DefaultServiceType}
}

// Get returns the raw value of a line field.
func (l LineDraft) Get(field string) string {
	switch field {
	case LineDescription:
		return l.Description
	case LineQuantity:
		return l.Quantity
	case LineUnitPrice:
		return l.UnitPrice
	case LineServiceType:
		return l.ServiceType
	}
	return ""
}

func (l *LineDraft) set(field, value string) error {
	switch field {
	case LineDescription:
		l.Description = value
	case LineQuantity:
		l.Quantity = value
	case LineUnitPrice:
		l.UnitPrice = value
	case LineServiceType:
		l.ServiceType = value
	default:
		return fmt.Errorf("unknown line field %q", field)
	}
	return nil
}

// Line is a parsed line item.
type Line struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	ServiceType string
}

// Subtotal is quantity times unit price.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Draft returns the line as editable text.
func (l Line) Draft() LineDraft {
	return LineDraft{
		Description: l.Description,
		Quantity:    strconv.Itoa(l.Quantity),
		UnitPrice:   l.UnitPrice.String(),
		ServiceType: l.ServiceType,
	}
}

// Parse converts the typed line. Values that do not parse count as zero and
// are reported in the returned map, keyed by line field.
func (l LineDraft) Parse() (Line, map[string]string) {
	errs := map[string]string{}
	line := Line{
		Description: strings.TrimSpace(l.Description),
		ServiceType: l.ServiceType,
	}
	if line.Description == "" {
		errs[LineDescription] = MsgRequired
	}

	qty, err := strconv.Atoi(strings.TrimSpace(l.Quantity))
	switch {
	case err != nil:
		errs[LineQuantity] = MsgInvalidNumber
	case qty < 1:
		errs[LineQuantity] = "Valor mínimo: 1"
	default:
		line.Quantity = qty
	}

	price, err := decimal.NewFromString(strings.TrimSpace(l.UnitPrice))
	switch {
	case err != nil:
		errs[LineUnitPrice] = MsgInvalidNumber
	case price.IsNegative():
		errs[LineUnitPrice] = "Valor mínimo: 0"
	default:
		line.UnitPrice = price
	}

	if line.ServiceType == "" {
		line.ServiceType = DefaultServiceType
	}
	return line, errs
}

// Totals of a document.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums the lines and applies rate to the subtotal. Amounts
// stay exact; rounding to cents happens only when they are displayed.
func ComputeTotals(lines []Line, rate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
	}
	tax := subtotal.Mul(rate)
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}

func parseLines(drafts []LineDraft) ([]Line, map[string]string) {
	lines := make([]Line, len(drafts))
	errs := map[string]string{}
	for i, d := range drafts {
		line, lineErrs := d.Parse()
		lines[i] = line
		for field, msg := range lineErrs {
			errs[LineKey(i, field)] = msg
		}
	}
	return lines, errs
}

// LineKey is the error key of a line field, e.g. "detalles[0].cantidad".
func LineKey(i int, field string) string {
	return fmt.Sprintf("detalles[%d].%s", i, field)
}
