package viewmodel

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/petsalud/vet-cli/internal/clinic"
)

func invoiceForm(src *fakeSource[clinic.Invoice], assembled *Draft) *Form[clinic.Invoice] {
	return NewForm(FormConfig[clinic.Invoice]{
		Fields: []Field{{Name: "numeroFactura", Required: true}},
		Source: src,
		Lines:  &LineConfig{TaxRate: clinic.TaxRate},
		Prepare: func(d *Draft) {
			d.Set("numeroFactura", "F202501-0042")
		},
		Assemble: func(d Draft) (clinic.Invoice, error) {
			*assembled = d
			return clinic.Invoice{Number: d.Get("numeroFactura"), Total: d.Totals.Total}, nil
		},
	}, 0, false)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestInvoiceTotals(t *testing.T) {
	var d Draft
	f := invoiceForm(&fakeSource[clinic.Invoice]{}, &d)

	if lines := f.Lines(); len(lines) != 1 || lines[0].Quantity != "1" || lines[0].ServiceType != "EXAMEN" {
		t.Fatalf("unexpected initial lines %+v", lines)
	}
	f.SetLine(0, LineDescription, "Hemograma")
	f.SetLine(0, LineQuantity, "2")
	f.SetLine(0, LineUnitPrice, "50")

	totals := f.Totals()
	if !totals.Subtotal.Equal(dec("100")) || !totals.Tax.Equal(dec("18")) || !totals.Total.Equal(dec("118")) {
		t.Errorf("got %s / %s / %s", totals.Subtotal, totals.Tax, totals.Total)
	}
}

func TestInvoiceTotalsAreNotRounded(t *testing.T) {
	for _, c := range []struct {
		qty               int
		price, tax, total string
	}{
		{1, "12.34", "2.2212", "14.5612"},
		{1, "0.05", "0.009", "0.059"},
		{1, "0.99", "0.1782", "1.1682"},
		{3, "7.77", "4.1958", "27.5058"},
	} {
		line := Line{Quantity: c.qty, UnitPrice: dec(c.price)}
		totals := ComputeTotals([]Line{line}, clinic.TaxRate)
		if !totals.Tax.Equal(dec(c.tax)) || !totals.Total.Equal(dec(c.total)) {
			t.Errorf("%d x %s: tax %s total %s, want %s / %s", c.qty, c.price, totals.Tax, totals.Total, c.tax, c.total)
		}
	}
}

func TestTotalsFollowEveryLineChange(t *testing.T) {
	var d Draft
	f := invoiceForm(&fakeSource[clinic.Invoice]{}, &d)

	cases := []struct {
		qty, price string
	}{
		{"1", "35.50"},
		{"3", "12.25"},
		{"10", "0"},
		{"7", "199.99"},
	}
	for i, c := range cases {
		if i > 0 {
			f.AddLine()
		}
		f.SetLine(i, LineDescription, "item")
		f.SetLine(i, LineQuantity, c.qty)
		f.SetLine(i, LineUnitPrice, c.price)

		sum := decimal.Zero
		for _, l := range f.Lines() {
			sum = sum.Add(dec(l.UnitPrice).Mul(dec(l.Quantity)))
		}
		totals := f.Totals()
		if !totals.Subtotal.Equal(sum) {
			t.Errorf("after line %d: subtotal %s, want %s", i, totals.Subtotal, sum)
		}
		want := sum.Mul(dec("1.18"))
		if !totals.Total.Equal(want) {
			t.Errorf("after line %d: total %s, want %s", i, totals.Total, want)
		}
	}

	f.RemoveLine(3, &Recorder{})
	if got := f.Totals().Subtotal; !got.Equal(dec("72.25")) {
		t.Errorf("after removal: subtotal %s, want 72.25", got)
	}
}

func TestRemoveLastLineIsRefused(t *testing.T) {
	var d Draft
	f := invoiceForm(&fakeSource[clinic.Invoice]{}, &d)
	n := &Recorder{}

	if err := f.RemoveLine(0, n); !errors.Is(err, ErrLastLine) {
		t.Fatalf("expected ErrLastLine, got %v", err)
	}
	if len(f.Lines()) != 1 {
		t.Error("last line was removed")
	}
	if last := n.Last(); last.Level != LevelWarning || last.Message != "Debe haber al menos un detalle" {
		t.Errorf("unexpected note %+v", last)
	}
}

func TestSubmitSendsFreshTotals(t *testing.T) {
	var d Draft
	src := &fakeSource[clinic.Invoice]{save: echo[clinic.Invoice]}
	f := invoiceForm(src, &d)

	f.SetLine(0, LineDescription, "Consulta")
	f.SetLine(0, LineUnitPrice, "40")
	f.AddLine()
	f.SetLine(1, LineDescription, "Vacuna")
	f.SetLine(1, LineQuantity, "2")
	f.SetLine(1, LineUnitPrice, "25")

	saved, err := f.Submit(context.Background(), &Recorder{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(d.Lines) != 2 || d.Lines[1].Quantity != 2 {
		t.Errorf("unexpected lines %+v", d.Lines)
	}
	if !saved.Total.Equal(dec("106.2")) {
		t.Errorf("total %s, want 106.2", saved.Total)
	}
	if saved.Number != "F202501-0042" {
		t.Errorf("prepared number lost: %q", saved.Number)
	}
}

func TestInvalidLineBlocksSubmit(t *testing.T) {
	var d Draft
	src := &fakeSource[clinic.Invoice]{save: echo[clinic.Invoice]}
	f := invoiceForm(src, &d)

	f.SetLine(0, LineDescription, "Consulta")
	f.SetLine(0, LineQuantity, "0")

	if _, err := f.Submit(context.Background(), &Recorder{}); err == nil {
		t.Fatal("expected a validation error")
	}
	if src.calls != 0 {
		t.Error("gateway called with an invalid line")
	}
	if got := f.FieldError(LineKey(0, LineQuantity)); got != "Valor mínimo: 1" {
		t.Errorf("quantity error = %q", got)
	}
}
