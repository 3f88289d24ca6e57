package viewmodel

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"testing"

	"github.com/petsalud/vet-cli/internal/clinic"
)

type fakeSource[T any] struct {
	get    func(id int64) (T, error)
	save   func(record T) (T, error)
	calls  int
	update int64
}

func (s *fakeSource[T]) Get(ctx context.Context, id int64) (T, error) {
	return s.get(id)
}

func (s *fakeSource[T]) Create(ctx context.Context, record T) (T, error) {
	s.calls++
	return s.save(record)
}

func (s *fakeSource[T]) Update(ctx context.Context, id int64, record T) (T, error) {
	s.calls++
	s.update = id
	return s.save(record)
}

func ownerForm(src *fakeSource[clinic.Owner], id int64, view bool) *Form[clinic.Owner] {
	return NewForm(FormConfig[clinic.Owner]{
		Messages: Messages{
			Created:    "Dueño creado exitosamente",
			Updated:    "Dueño actualizado exitosamente",
			LoadFailed: "Error al cargar dueño",
			SaveFailed: "Error al guardar",
		},
		Fields: []Field{
			{Name: "dni", Label: "DNI", Required: true, Pattern: regexp.MustCompile(`^\d{8}$`), Message: "DNI debe tener 8 dígitos"},
			{Name: "nombres", Label: "Nombres", Required: true, MinLen: 2, MaxLen: 100},
			{Name: "apellidos", Label: "Apellidos", Required: true, MinLen: 2, MaxLen: 100},
			{Name: "email", Label: "Email", MaxLen: 100, Pattern: Email, Message: "Debe ingresar un email válido"},
		},
		Source: src,
		Fill: func(o clinic.Owner) Draft {
			return Draft{Values: map[string]string{"dni": o.DNI, "nombres": o.FirstName, "apellidos": o.LastName, "email": o.Email}}
		},
		Assemble: func(d Draft) (clinic.Owner, error) {
			return clinic.Owner{DNI: d.Get("dni"), FirstName: d.Get("nombres"), LastName: d.Get("apellidos"), Email: d.Get("email")}, nil
		},
	}, id, view)
}

func echo[T any](record T) (T, error) { return record, nil }

func TestModeFor(t *testing.T) {
	cases := []struct {
		id   int64
		view bool
		want Mode
	}{
		{0, false, Create},
		{0, true, Create},
		{4, false, Edit},
		{4, true, View},
	}
	for _, c := range cases {
		if got := ModeFor(c.id, c.view); got != c.want {
			t.Errorf("ModeFor(%d, %v) = %s, want %s", c.id, c.view, got, c.want)
		}
	}
}

func TestRequiredFieldBlocksSubmit(t *testing.T) {
	src := &fakeSource[clinic.Owner]{save: echo[clinic.Owner]}
	f := ownerForm(src, 0, false)
	n := &Recorder{}

	f.Set("nombres", "Ana")
	_, err := f.Submit(context.Background(), n)

	var cve *ClientValidationError
	if !errors.As(err, &cve) {
		t.Fatalf("expected ClientValidationError, got %v", err)
	}
	if src.calls != 0 {
		t.Errorf("gateway called %d times", src.calls)
	}
	for _, name := range []string{"dni", "apellidos"} {
		if got := f.FieldError(name); got != MsgRequired {
			t.Errorf("%s: expected required message, got %q", name, got)
		}
	}
	notes := n.Notes()
	if len(notes) != 1 || notes[0].Level != LevelWarning || notes[0].Message != MsgIncomplete {
		t.Errorf("expected one aggregate warning, got %+v", notes)
	}
	if f.Submitting() {
		t.Error("form left frozen after a local validation failure")
	}
}

func TestErrorsShowOnlyWhenTouched(t *testing.T) {
	f := ownerForm(&fakeSource[clinic.Owner]{}, 0, false)
	if got := f.FieldError("dni"); got != "" {
		t.Errorf("untouched field shows %q", got)
	}
	f.Set("dni", "1234")
	if got := f.FieldError("dni"); got != "DNI debe tener 8 dígitos" {
		t.Errorf("dni error = %q", got)
	}
	f.Set("dni", "12345678")
	if got := f.FieldError("dni"); got != "" {
		t.Errorf("valid dni still shows %q", got)
	}
	f.Set("nombres", "A")
	if got := f.FieldError("nombres"); got != "Mínimo 2 caracteres" {
		t.Errorf("nombres error = %q", got)
	}
}

func TestServerFieldErrorKeepsDraft(t *testing.T) {
	src := &fakeSource[clinic.Owner]{
		get: func(id int64) (clinic.Owner, error) {
			return clinic.Owner{ID: id, DNI: "45678912", FirstName: "Rosa", LastName: "García", Email: "rosa@vet.pe"}, nil
		},
		save: func(o clinic.Owner) (clinic.Owner, error) {
			return o, &clinic.ValidationError{Status: 422, Fields: map[string]string{"email": "El email ya está registrado"}}
		},
	}
	f := ownerForm(src, 5, false)
	n := &Recorder{}
	if err := f.Load(context.Background(), n); err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Mode() != Edit {
		t.Fatalf("expected edit mode, got %s", f.Mode())
	}

	f.Set("email", "otra@vet.pe")
	if _, err := f.Submit(context.Background(), n); err == nil {
		t.Fatal("expected an error")
	}

	if src.update != 5 {
		t.Errorf("expected update of id 5, got %d", src.update)
	}
	if f.Submitting() {
		t.Error("submission flag not reset")
	}
	if got := f.Value("email"); got != "otra@vet.pe" {
		t.Errorf("draft changed: %q", got)
	}
	if got := f.Value("apellidos"); got != "García" {
		t.Errorf("draft changed: %q", got)
	}
	if got := f.FieldError("email"); got != "El email ya está registrado" {
		t.Errorf("email error = %q", got)
	}
	if last := n.Last(); last.Level != LevelError || last.Message != "El email ya está registrado" {
		t.Errorf("unexpected note %+v", last)
	}

	f.Set("email", "nueva@vet.pe")
	if got := f.FieldError("email"); got != "" {
		t.Errorf("server error survived an edit: %q", got)
	}
}

func TestLoadFailureIsReported(t *testing.T) {
	src := &fakeSource[clinic.Owner]{
		get: func(id int64) (clinic.Owner, error) { return clinic.Owner{}, &clinic.NotFoundError{Path: "/duenos/9"} },
	}
	f := ownerForm(src, 9, true)
	n := &Recorder{}
	err := f.Load(context.Background(), n)
	if !clinic.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if last := n.Last(); last.Message != "Error al cargar dueño" {
		t.Errorf("unexpected note %+v", last)
	}
}

func TestViewModeIsReadOnly(t *testing.T) {
	src := &fakeSource[clinic.Owner]{
		get: func(id int64) (clinic.Owner, error) { return clinic.Owner{ID: id, DNI: "12345678"}, nil },
	}
	f := ownerForm(src, 3, true)
	f.Load(context.Background(), &Recorder{})

	if err := f.Set("dni", "87654321"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Set in view mode: %v", err)
	}
	if _, err := f.Begin(&Recorder{}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Begin in view mode: %v", err)
	}
	if f.Editable() || f.Value("dni") != "12345678" {
		t.Error("view draft changed")
	}
}

func TestSubmissionFreezesDraft(t *testing.T) {
	src := &fakeSource[clinic.Owner]{save: echo[clinic.Owner]}
	f := ownerForm(src, 0, false)
	for name, v := range map[string]string{"dni": "12345678", "nombres": "Ana", "apellidos": "Torres"} {
		f.Set(name, v)
	}
	n := &Recorder{}

	record, err := f.Begin(n)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if record.DNI != "12345678" {
		t.Errorf("unexpected record %+v", record)
	}
	if err := f.Set("nombres", "Otra"); !errors.Is(err, ErrSubmitting) {
		t.Errorf("Set while submitting: %v", err)
	}
	if _, err := f.Begin(n); !errors.Is(err, ErrSubmitting) {
		t.Errorf("second Begin: %v", err)
	}

	saved, err := f.Save(context.Background(), record)
	if !f.Finish(saved, err, n) {
		t.Fatal("finish reported failure")
	}
	if !f.Editable() {
		t.Error("form still frozen")
	}
	if last := n.Last(); last.Level != LevelSuccess || last.Message != "Dueño creado exitosamente" {
		t.Errorf("unexpected note %+v", last)
	}
}

var testBreeds = map[string][]string{
	"Perro": {"Labrador", "Beagle", "Mestizo"},
	"Gato":  {"Persa", "Siamés", "Mestizo"},
}

func petForm() *Form[clinic.Pet] {
	return NewForm(FormConfig[clinic.Pet]{
		Fields: []Field{
			{Name: "especie", Kind: Select, Required: true, Options: Values("Perro", "Gato")},
			{Name: "raza", Kind: Select},
		},
		Cascades: []Cascade{{
			Field:   "raza",
			On:      "especie",
			Options: func(species string) []Option { return Values(testBreeds[species]...) },
		}},
	}, 0, false)
}

func TestBreedFollowsSpecies(t *testing.T) {
	f := petForm()

	if got := f.Options("raza"); len(got) != 0 {
		t.Errorf("no species yet, got breeds %v", got)
	}
	f.Set("especie", "Perro")
	f.Set("raza", "Labrador")

	f.Set("especie", "Gato")
	if got := f.Value("raza"); got != "" {
		t.Errorf("breed not cleared: %q", got)
	}
	var got []string
	for _, o := range f.Options("raza") {
		got = append(got, o.Value)
	}
	if !slices.Equal(got, testBreeds["Gato"]) {
		t.Errorf("options = %v", got)
	}

	f.Set("raza", "Mestizo")
	f.Set("especie", "Perro")
	if got := f.Value("raza"); got != "Mestizo" {
		t.Errorf("breed valid for both species was cleared: %q", got)
	}

	f.Set("raza", "Persa")
	if msg := f.FieldError("raza"); msg != MsgInvalidOption {
		t.Errorf("breed outside the species list: %q", msg)
	}
}
