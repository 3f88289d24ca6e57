package viewmodel

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tells the screens how to edit a field and the validator how to read
// its value.
type Kind int

const (
	Text Kind = iota
	LongText
	Integer
	Number
	Money
	Select
	Ref
	Date
	DateTime
	Bool
)

// Input layouts of Date and DateTime fields.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04"
)

// Range bounds a numeric field, both ends inclusive.
type Range struct {
	Min, Max float64
}

// AtLeast is an open-ended Range.
func AtLeast(min float64) *Range { return &Range{Min: min, Max: math.Inf(1)} }

// Field declares one editable value and its validation rules. Name is the
// API's JSON name so server field errors land on the right field.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
	MinLen   int
	MaxLen   int
	Range    *Range
	Pattern  *regexp.Regexp
	Message  string // shown when Pattern does not match
	Options  []Option
	Default  string
	ReadOnly bool // computed by the form, never typed
}

// Validation messages
const (
	MsgRequired      = "Este campo es obligatorio"
	MsgInvalidNumber = "Debe ingresar un número válido"
	MsgInvalidDate   = "Fecha no válida (AAAA-MM-DD)"
	MsgInvalidOption = "Seleccione una opción válida"
	MsgIncomplete    = "Por favor complete todos los campos requeridos"
)

// Email is the pattern used by every email field.
var Email = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// Validate checks value against the field's rules and static options. It
// returns the first failed rule's message, or "".
func (f Field) Validate(value string) string {
	return f.validate(value, f.Options)
}

func (f Field) validate(value string, options []Option) string {
	value = strings.TrimSpace(value)
	if value == "" {
		if f.Required {
			return MsgRequired
		}
		return ""
	}

	if n := len([]rune(value)); f.MinLen > 0 && n < f.MinLen {
		return fmt.Sprintf("Mínimo %d caracteres", f.MinLen)
	} else if f.MaxLen > 0 && n > f.MaxLen {
		return fmt.Sprintf("Máximo %d caracteres", f.MaxLen)
	}

	switch f.Kind {
	case Integer, Number, Money, Ref:
		d, err := decimal.NewFromString(value)
		if err != nil || (f.Kind != Number && f.Kind != Money && !d.IsInteger()) {
			return MsgInvalidNumber
		}
		if f.Kind == Money && !d.Equal(d.Round(2)) {
			return "Solo se permiten hasta 2 decimales"
		}
		n := d.InexactFloat64()
		if f.Range != nil {
			if n < f.Range.Min {
				return fmt.Sprintf("Valor mínimo: %s", formatBound(f.Range.Min))
			}
			if n > f.Range.Max {
				return fmt.Sprintf("Valor máximo: %s", formatBound(f.Range.Max))
			}
		}
	case Date:
		if _, err := time.Parse(DateLayout, value); err != nil {
			return MsgInvalidDate
		}
	case DateTime:
		if _, err := time.Parse(DateTimeLayout, value); err != nil {
			return "Fecha y hora no válidas (AAAA-MM-DDTHH:MM)"
		}
	case Bool:
		if _, err := strconv.ParseBool(value); err != nil {
			return MsgInvalidOption
		}
	}

	if (f.Kind == Select || f.Kind == Ref) && len(options) > 0 {
		if !slices.ContainsFunc(options, func(o Option) bool { return o.Value == value }) {
			return MsgInvalidOption
		}
	}

	if f.Pattern != nil && !f.Pattern.MatchString(value) {
		if f.Message != "" {
			return f.Message
		}
		return "Formato inválido"
	}
	return ""
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Cascade narrows Field's options whenever On changes.
type Cascade struct {
	Field   string
	On      string
	Options func(governing string) []Option
}

// Values turns plain strings into options labelled by themselves.
func Values(values ...string) []Option {
	opts := make([]Option, len(values))
	for i, v := range values {
		opts[i] = Option{Value: v, Label: v}
	}
	return opts
}
