// Package screens describes every entity screen: its columns, list
// configuration, form and row actions. The TUI and the CLI both render
// these descriptors.
package screens

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/petsalud/vet-cli/internal/clinic"
	"github.com/petsalud/vet-cli/internal/viewmodel"
)

// Env is what descriptors need at runtime.
type Env struct {
	API     *clinic.API
	Config  *clinic.Config
	Session *clinic.Session
	Now     func() time.Time
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Env) pageSize() int {
	if e.Config != nil && e.Config.PageSize > 0 {
		return e.Config.PageSize
	}
	return viewmodel.DefaultPageSize
}

// Column of a list table.
type Column[T any] struct {
	Title string
	Width int
	Value func(T) string
}

// Screen describes one entity.
type Screen[T any] struct {
	Key      string // menu key and CLI resource name
	Title    string
	Singular string
	Columns  []Column[T]
	List     viewmodel.ListConfig[T]
	Form     viewmodel.FormConfig[T]
	ID       func(T) int64
	Actions  []RowAction[T]
}

// Row renders a record with the screen's columns.
func (s *Screen[T]) Row(record T) []string {
	row := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		row[i] = c.Value(record)
	}
	return row
}

// Action looks up a row action by its CLI name.
func (s *Screen[T]) Action(name string) (RowAction[T], bool) {
	i := slices.IndexFunc(s.Actions, func(a RowAction[T]) bool { return a.Name == name })
	if i < 0 {
		return RowAction[T]{}, false
	}
	return s.Actions[i], true
}

// ErrBadArgs is returned when a row action's arguments fail validation.
var ErrBadArgs = errors.New("invalid action arguments")

// RowAction is an operation on one record of a list.
type RowAction[T any] struct {
	Key   string // TUI key
	Name  string // CLI subcommand
	Label string
	Roles []string // nil means every role
	Args  []viewmodel.Field
	// Guard returns a warning when the action makes no sense for the
	// record; the action is then not run.
	Guard func(T) string
	// Check validates the arguments against the record.
	Check func(record T, args []string) string
	Do    func(record T, args []string) viewmodel.Action
}

// Allowed reports whether role may run the action.
func (a RowAction[T]) Allowed(role string) bool {
	return a.Roles == nil || slices.Contains(a.Roles, role)
}

// Run checks the guard and the arguments, then runs the action through
// the list so the confirmation, notification and refetch happen there.
func (a RowAction[T]) Run(ctx context.Context, list *viewmodel.List[T], n viewmodel.Notifier, record T, args []string) (bool, error) {
	if a.Guard != nil {
		if msg := a.Guard(record); msg != "" {
			n.Warning(msg)
			return false, nil
		}
	}
	if len(args) < len(a.Args) {
		n.Warning(fmt.Sprintf("Faltan datos: %s", a.Args[len(args)].Label))
		return false, ErrBadArgs
	}
	for i, f := range a.Args {
		if msg := f.Validate(args[i]); msg != "" {
			n.Warning(fmt.Sprintf("%s: %s", f.Label, msg))
			return false, ErrBadArgs
		}
	}
	if a.Check != nil {
		if msg := a.Check(record, args); msg != "" {
			n.Warning(msg)
			return false, ErrBadArgs
		}
	}
	return list.Act(ctx, n, a.Do(record, args))
}

func deleteAction[T any](id func(T) int64, del func(ctx context.Context, id int64) error, prompt, success string) RowAction[T] {
	return RowAction[T]{
		Key:   "d",
		Name:  "delete",
		Label: "Eliminar",
		Do: func(record T, _ []string) viewmodel.Action {
			return viewmodel.Action{
				Prompt:  prompt,
				Success: success,
				Failure: "Error al eliminar",
				Run:     func(ctx context.Context) error { return del(ctx, id(record)) },
			}
		},
	}
}

func choices[T any](fetch func(ctx context.Context) ([]T, error), option func(T) viewmodel.Option) viewmodel.ChoiceLoader {
	return func(ctx context.Context) ([]viewmodel.Option, error) {
		items, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		opts := make([]viewmodel.Option, len(items))
		for i, item := range items {
			opts[i] = option(item)
		}
		return opts, nil
	}
}

func idString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func idOption(id int64, label string) viewmodel.Option {
	return viewmodel.Option{Value: idString(id), Label: label}
}

func intString(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func floatString(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// activeString reads an activo flag; absent means active.
func activeString(b *bool) string {
	return strconv.FormatBool(b == nil || *b)
}

func nullDecimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func boolPtr(b bool) *bool { return &b }

// Money formats an amount in soles.
func Money(d decimal.Decimal) string {
	return "S/ " + d.StringFixed(2)
}

// dateTimeInput trims an API timestamp to what the form edits.
func dateTimeInput(s string) string {
	if len(s) > 16 {
		return s[:16]
	}
	return s
}

func day(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}

func activeLabel(b *bool) string {
	if b != nil && !*b {
		return "Inactivo"
	}
	return "Activo"
}

// Shared selector fields
var (
	activeField = viewmodel.Field{Name: "activo", Label: "Activo", Kind: viewmodel.Bool, Default: "true", Options: viewmodel.Values("true", "false")}
	notesField  = viewmodel.Field{Name: "observaciones", Label: "Observaciones", Kind: viewmodel.LongText, MaxLen: 500}
)
