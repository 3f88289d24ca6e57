package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/petsalud/vet-cli/internal/clinic"
)

var (
	ErrReadOnly   = errors.New("form is read-only")
	ErrSubmitting = errors.New("a submission is already in flight")
)

// ClientValidationError lists the fields that failed local validation. It
// never reaches the API.
type ClientValidationError struct {
	Fields map[string]string
}

func (e *ClientValidationError) Error() string {
	names := slices.Sorted(maps.Keys(e.Fields))
	return "invalid fields: " + strings.Join(names, ", ")
}

// Mode of a form, decided once when the form is created.
type Mode int

const (
	Create Mode = iota
	Edit
	View
)

func (m Mode) String() string {
	switch m {
	case Edit:
		return "edit"
	case View:
		return "view"
	default:
		return "create"
	}
}

// ModeFor picks the mode from the entry context: no id means create.
func ModeFor(id int64, view bool) Mode {
	switch {
	case id <= 0:
		return Create
	case view:
		return View
	default:
		return Edit
	}
}

// Source is the part of a gateway a form needs.
type Source[T any] interface {
	Get(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, record T) (T, error)
	Update(ctx context.Context, id int64, record T) (T, error)
}

// ChoiceLoader fills a selector from another gateway.
type ChoiceLoader func(ctx context.Context) ([]Option, error)

// Messages shown by a form.
type Messages struct {
	Created    string
	Updated    string
	LoadFailed string
	SaveFailed string
}

// LineConfig turns on line items.
type LineConfig struct {
	TaxRate decimal.Decimal
}

// FormConfig describes one entity's form.
type FormConfig[T any] struct {
	Messages Messages
	Fields   []Field
	Cascades []Cascade
	Choices  map[string]ChoiceLoader
	Source   Source[T]

	// Prepare sets computed defaults of a new record.
	Prepare func(d *Draft)
	// Fill copies a fetched record into a draft.
	Fill func(record T) Draft
	// Assemble builds the record to send. Relations become reference
	// sub-records here.
	Assemble func(d Draft) (T, error)
	// Check runs cross-field rules and returns messages by field.
	Check func(d Draft) map[string]string

	Lines *LineConfig
}

// Draft is a snapshot of the form values handed to Fill, Prepare, Check
// and Assemble.
type Draft struct {
	Values map[string]string
	Lines  []Line
	Totals Totals
}

// Get returns a trimmed value.
func (d Draft) Get(name string) string {
	return strings.TrimSpace(d.Values[name])
}

// Set stores a value, creating the map when needed.
func (d *Draft) Set(name, value string) {
	if d.Values == nil {
		d.Values = map[string]string{}
	}
	d.Values[name] = value
}

// ID reads a reference selector. Zero when empty.
func (d Draft) ID(name string) int64 {
	n, _ := strconv.ParseInt(d.Get(name), 10, 64)
	return n
}

// IntPtr reads an optional integer.
func (d Draft) IntPtr(name string) *int {
	n, err := strconv.Atoi(d.Get(name))
	if err != nil {
		return nil
	}
	return &n
}

// FloatPtr reads an optional number.
func (d Draft) FloatPtr(name string) *float64 {
	f, err := strconv.ParseFloat(d.Get(name), 64)
	if err != nil {
		return nil
	}
	return &f
}

// Decimal reads a money value. Zero when empty.
func (d Draft) Decimal(name string) decimal.Decimal {
	v, err := decimal.NewFromString(d.Get(name))
	if err != nil {
		return decimal.Zero
	}
	return v
}

// NullDecimal reads an optional money value.
func (d Draft) NullDecimal(name string) decimal.NullDecimal {
	v, err := decimal.NewFromString(d.Get(name))
	return decimal.NullDecimal{Decimal: v, Valid: err == nil}
}

func (d Draft) Bool(name string) bool {
	b, _ := strconv.ParseBool(d.Get(name))
	return b
}

// Form holds one record's editable state across create, edit and view.
// Safe for concurrent use: the gateway call of a submission may run on
// another goroutine.
type Form[T any] struct {
	config FormConfig[T]
	mode   Mode
	id     int64

	mu         sync.Mutex
	values     map[string]string
	lines      []LineDraft
	totals     Totals
	touched    map[string]bool
	server     map[string]string
	choices    map[string][]Option
	submitting bool
	record     T
}

// NewForm creates a form. id <= 0 opens a blank create form; otherwise
// view selects read-only mode.
func NewForm[T any](config FormConfig[T], id int64, view bool) *Form[T] {
	f := &Form[T]{
		config:  config,
		mode:    ModeFor(id, view),
		id:      id,
		touched: map[string]bool{},
		server:  map[string]string{},
		choices: map[string][]Option{},
	}
	f.values = f.defaults()
	if f.mode == Create {
		if config.Lines != nil {
			f.lines = []LineDraft{NewLine()}
		}
		if config.Prepare != nil {
			d := Draft{Values: f.values}
			config.Prepare(&d)
			f.values = d.Values
		}
	}
	f.recomputeTotals()
	return f
}

func (f *Form[T]) defaults() map[string]string {
	values := make(map[string]string, len(f.config.Fields))
	for _, field := range f.config.Fields {
		values[field.Name] = field.Default
	}
	return values
}

func (f *Form[T]) Mode() Mode { return f.mode }
func (f *Form[T]) ID() int64  { return f.id }

// Fields returns the declared fields.
func (f *Form[T]) Fields() []Field { return f.config.Fields }

// HasLines reports whether the form edits line items.
func (f *Form[T]) HasLines() bool { return f.config.Lines != nil }

// Load fetches the choice lists and, outside create mode, the record. A
// failed choice list is reported and skipped; a failed record load is
// returned.
func (f *Form[T]) Load(ctx context.Context, n Notifier) error {
	for _, name := range slices.Sorted(maps.Keys(f.config.Choices)) {
		opts, err := f.config.Choices[name](ctx)
		if err != nil {
			n.Error(clinic.Describe(err, "Error al cargar opciones de "+f.label(name)))
			continue
		}
		f.mu.Lock()
		f.choices[name] = opts
		f.mu.Unlock()
	}

	if f.mode == Create {
		return nil
	}
	record, err := f.config.Source.Get(ctx, f.id)
	if err != nil {
		n.Error(clinic.Describe(err, f.config.Messages.LoadFailed))
		return err
	}
	d := f.config.Fill(record)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.record = record
	values := f.defaults()
	maps.Copy(values, d.Values)
	f.values = values
	f.lines = make([]LineDraft, len(d.Lines))
	for i, l := range d.Lines {
		f.lines[i] = l.Draft()
	}
	f.recomputeTotals()
	return nil
}

// Record returns the last loaded or saved record.
func (f *Form[T]) Record() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record
}

func (f *Form[T]) label(name string) string {
	for _, field := range f.config.Fields {
		if field.Name == name {
			return strings.ToLower(field.Label)
		}
	}
	return name
}

func (f *Form[T]) field(name string) (Field, bool) {
	for _, field := range f.config.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Editable reports whether fields accept changes right now.
func (f *Form[T]) Editable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode != View && !f.submitting
}

// Submitting reports whether a submission is in flight.
func (f *Form[T]) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

func (f *Form[T]) checkEditable() error {
	if f.mode == View {
		return ErrReadOnly
	}
	if f.submitting {
		return ErrSubmitting
	}
	return nil
}

// Value returns the raw value of a field.
func (f *Form[T]) Value(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name]
}

// Set changes a field, clears its server error and applies the cascades
// the field governs.
func (f *Form[T]) Set(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkEditable(); err != nil {
		return err
	}
	field, ok := f.field(name)
	if !ok {
		return fmt.Errorf("unknown field %q", name)
	}
	if field.ReadOnly {
		return ErrReadOnly
	}

	f.values[name] = value
	f.touched[name] = true
	delete(f.server, name)

	for _, c := range f.config.Cascades {
		if c.On != name {
			continue
		}
		current := f.values[c.Field]
		if current == "" {
			continue
		}
		allowed := c.Options(value)
		if !slices.ContainsFunc(allowed, func(o Option) bool { return o.Value == current }) {
			f.values[c.Field] = ""
		}
	}
	return nil
}

// Touch marks a field as visited so its error shows.
func (f *Form[T]) Touch(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[name] = true
}

// Options returns the allowed values of a selector: the cascade's when the
// field is dependent, else the static or loaded choices.
func (f *Form[T]) Options(name string) []Option {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.options(name)
}

func (f *Form[T]) options(name string) []Option {
	for _, c := range f.config.Cascades {
		if c.Field == name {
			return c.Options(f.values[c.On])
		}
	}
	if field, ok := f.field(name); ok && len(field.Options) > 0 {
		return field.Options
	}
	return f.choices[name]
}

// FieldError returns the message to show next to a field: the server's
// message first, then the local one once the field was touched.
func (f *Form[T]) FieldError(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg := f.server[name]; msg != "" {
		return msg
	}
	if !f.touched[name] {
		return ""
	}
	return f.errors()[name]
}

// Valid reports whether every field passes local validation.
func (f *Form[T]) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errors()) == 0
}

// Errors returns every local validation failure, touched or not.
func (f *Form[T]) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors()
}

func (f *Form[T]) errors() map[string]string {
	errs := map[string]string{}
	for _, field := range f.config.Fields {
		if field.ReadOnly {
			continue
		}
		if msg := field.validate(f.values[field.Name], f.options(field.Name)); msg != "" {
			errs[field.Name] = msg
		}
	}
	if f.config.Lines != nil {
		if len(f.lines) == 0 {
			errs["detalles"] = "Debe agregar al menos un detalle"
		}
		_, lineErrs := parseLines(f.lines)
		maps.Copy(errs, lineErrs)
	}
	if f.config.Check != nil {
		for k, msg := range f.config.Check(f.draft()) {
			if _, ok := errs[k]; !ok {
				errs[k] = msg
			}
		}
	}
	return errs
}

func (f *Form[T]) draft() Draft {
	lines, _ := parseLines(f.lines)
	d := Draft{Values: maps.Clone(f.values), Lines: lines}
	if f.config.Lines != nil {
		d.Totals = ComputeTotals(lines, f.config.Lines.TaxRate)
	}
	return d
}

// Begin validates and freezes the form for submission. When a field is
// invalid every field is marked touched, one warning is shown and a
// *ClientValidationError is returned. On success the assembled record is
// returned and the form stays frozen until Finish.
func (f *Form[T]) Begin(n Notifier) (T, error) {
	var zero T
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkEditable(); err != nil {
		return zero, err
	}

	if errs := f.errors(); len(errs) > 0 {
		for _, field := range f.config.Fields {
			f.touched[field.Name] = true
		}
		for k := range errs {
			f.touched[k] = true
		}
		n.Warning(MsgIncomplete)
		return zero, &ClientValidationError{Fields: errs}
	}

	// Totals are recomputed from the lines here, never taken from the
	// last displayed values.
	f.recomputeTotals()
	record, err := f.config.Assemble(f.draft())
	if err != nil {
		n.Error(err.Error())
		return zero, err
	}
	f.submitting = true
	return record, nil
}

// Save sends the record with create or update depending on the mode.
func (f *Form[T]) Save(ctx context.Context, record T) (T, error) {
	if f.mode == Create {
		return f.config.Source.Create(ctx, record)
	}
	return f.config.Source.Update(ctx, f.id, record)
}

// Finish ends a submission started by Begin. On success it notifies and
// reports true; the caller goes back to the list. On failure the draft is
// kept, the API's field messages are attached and the form unfreezes.
func (f *Form[T]) Finish(saved T, err error, n Notifier) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false

	if err != nil {
		maps.Copy(f.server, clinic.FieldErrors(err))
		n.Error(clinic.Describe(err, f.config.Messages.SaveFailed))
		return false
	}
	f.record = saved
	if f.mode == Create {
		n.Success(f.config.Messages.Created)
	} else {
		n.Success(f.config.Messages.Updated)
	}
	return true
}

// Submit runs Begin, Save and Finish in one go.
func (f *Form[T]) Submit(ctx context.Context, n Notifier) (T, error) {
	record, err := f.Begin(n)
	if err != nil {
		return record, err
	}
	saved, err := f.Save(ctx, record)
	f.Finish(saved, err, n)
	return saved, err
}

// Lines returns the typed line items.
func (f *Form[T]) Lines() []LineDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.lines)
}

// Totals returns the totals of the current lines.
func (f *Form[T]) Totals() Totals {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totals
}

func (f *Form[T]) recomputeTotals() {
	if f.config.Lines == nil {
		return
	}
	lines, _ := parseLines(f.lines)
	f.totals = ComputeTotals(lines, f.config.Lines.TaxRate)
}

// AddLine appends a line with the defaults.
func (f *Form[T]) AddLine() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkEditable(); err != nil {
		return err
	}
	f.lines = append(f.lines, NewLine())
	f.recomputeTotals()
	return nil
}

// RemoveLine drops line i. The last remaining line cannot be removed.
func (f *Form[T]) RemoveLine(i int, n Notifier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkEditable(); err != nil {
		return err
	}
	if i < 0 || i >= len(f.lines) {
		return fmt.Errorf("no line %d", i)
	}
	if len(f.lines) == 1 {
		n.Warning("Debe haber al menos un detalle")
		return ErrLastLine
	}
	f.lines = slices.Delete(f.lines, i, i+1)
	f.recomputeTotals()
	return nil
}

// SetLine changes one field of line i.
func (f *Form[T]) SetLine(i int, field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkEditable(); err != nil {
		return err
	}
	if i < 0 || i >= len(f.lines) {
		return fmt.Errorf("no line %d", i)
	}
	if err := f.lines[i].set(field, value); err != nil {
		return err
	}
	f.touched[LineKey(i, field)] = true
	f.recomputeTotals()
	return nil
}
