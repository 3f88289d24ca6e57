package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/petsalud/vet-cli/internal/clinic"
)

func owners(n int) []clinic.Owner {
	out := make([]clinic.Owner, n)
	for i := range out {
		out[i] = clinic.Owner{ID: int64(i + 1), FirstName: fmt.Sprintf("Dueño %d", i+1), LastName: "Pérez"}
	}
	return out
}

func staticFetch[T any](items []T, calls *int) FetchFunc[T] {
	return func(ctx context.Context) ([]T, error) {
		if calls != nil {
			*calls++
		}
		return items, nil
	}
}

func ownerList(items []clinic.Owner, calls *int) *List[clinic.Owner] {
	return NewList(ListConfig[clinic.Owner]{
		Fetch: staticFetch(items, calls),
		Search: []func(clinic.Owner) string{
			func(o clinic.Owner) string { return o.FirstName },
			func(o clinic.Owner) string { return o.LastName },
			func(o clinic.Owner) string { return o.DNI },
		},
		PageSize: 10,
	})
}

func mustLoad[T any](t *testing.T, l *List[T]) {
	t.Helper()
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestPagination(t *testing.T) {
	l := ownerList(owners(25), nil)
	mustLoad(t, l)

	if got := l.TotalPages(); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
	if got := len(l.Page()); got != 10 {
		t.Errorf("page 1: expected 10 items, got %d", got)
	}
	if !l.SetPage(3) {
		t.Fatal("SetPage(3) refused")
	}
	if got := len(l.Page()); got != 5 {
		t.Errorf("page 3: expected 5 items, got %d", got)
	}

	for _, n := range []int{0, 4, -1} {
		if l.SetPage(n) {
			t.Errorf("SetPage(%d) should be a no-op", n)
		}
		if l.CurrentPage() != 3 {
			t.Errorf("page moved to %d after SetPage(%d)", l.CurrentPage(), n)
		}
	}
}

func TestEmptyList(t *testing.T) {
	l := ownerList(nil, nil)
	mustLoad(t, l)

	if got := l.TotalPages(); got != 0 {
		t.Errorf("expected 0 pages, got %d", got)
	}
	if got := l.Page(); len(got) != 0 {
		t.Errorf("expected empty page, got %v", got)
	}
	if state, err := l.State(); state != Ready || err != nil {
		t.Errorf("expected ready without error, got %s %v", state, err)
	}
	if l.NextPage() {
		t.Error("NextPage on an empty list should be a no-op")
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	l := ownerList([]clinic.Owner{
		{ID: 1, FirstName: "María", LastName: "García"},
		{ID: 2, FirstName: "Luis", LastName: "Flores"},
		{ID: 3, FirstName: "Ana", LastName: "GARCÍA"},
	}, nil)
	mustLoad(t, l)

	for _, term := range []string{"garc", "GARC", "  García "} {
		l.SetSearch(term)
		var ids []int64
		for _, o := range l.Filtered() {
			ids = append(ids, o.ID)
		}
		if !slices.Contains(ids, 1) || slices.Contains(ids, 2) {
			t.Errorf("search %q: got ids %v", term, ids)
		}
	}

	l.SetSearch("")
	if got := len(l.Filtered()); got != 3 {
		t.Errorf("empty search should not narrow, got %d", got)
	}
}

func TestSearchAndFilterResetPage(t *testing.T) {
	items := owners(25)
	items[24].Email = "x@vet.pe"
	l := NewList(ListConfig[clinic.Owner]{
		Fetch:  staticFetch(items, nil),
		Search: []func(clinic.Owner) string{func(o clinic.Owner) string { return o.FirstName }},
		Filters: []Filter[clinic.Owner]{{
			Name:    "email",
			Options: []Option{{Value: "", Label: "Todos"}, {Value: "con", Label: "Con email"}},
			Match:   func(o clinic.Owner, v string) bool { return o.Email != "" },
		}},
	})
	mustLoad(t, l)

	l.SetPage(2)
	l.SetSearch("Dueño")
	if l.CurrentPage() != 1 {
		t.Errorf("search: expected page 1, got %d", l.CurrentPage())
	}

	l.SetPage(3)
	if refetch := l.SetFilter("email", "con"); refetch {
		t.Error("local filter should not ask for a refetch")
	}
	if l.CurrentPage() != 1 {
		t.Errorf("filter: expected page 1, got %d", l.CurrentPage())
	}
	if got := l.Filtered(); len(got) != 1 || got[0].ID != 25 {
		t.Errorf("filter: unexpected result %v", got)
	}
}

func TestFilteredIsSubsetOfSnapshot(t *testing.T) {
	items := owners(37)
	l := ownerList(items, nil)
	l.config.PageSize = 7
	mustLoad(t, l)

	snapshot := map[int64]bool{}
	for _, o := range l.Snapshot() {
		snapshot[o.ID] = true
	}
	for _, term := range []string{"", "1", "2", "Dueño 3", "pérez", "zzz"} {
		l.SetSearch(term)
		filtered := map[int64]bool{}
		for _, o := range l.Filtered() {
			if !snapshot[o.ID] {
				t.Fatalf("%q: %d not in snapshot", term, o.ID)
			}
			filtered[o.ID] = true
		}
		for p := 1; p <= l.TotalPages(); p++ {
			l.SetPage(p)
			page := l.Page()
			if len(page) > l.PageSize() {
				t.Fatalf("%q page %d: %d items", term, p, len(page))
			}
			for _, o := range page {
				if !filtered[o.ID] {
					t.Fatalf("%q page %d: %d not in filtered", term, p, o.ID)
				}
			}
		}
		want := (len(filtered) + 6) / 7
		if got := l.TotalPages(); got != want {
			t.Errorf("%q: total pages %d, want %d", term, got, want)
		}
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	l := ownerList(nil, nil)

	first := l.Refresh()
	second := l.Refresh()

	if !l.Apply(second.Gen, owners(3), nil) {
		t.Fatal("latest response rejected")
	}
	if l.Apply(first.Gen, owners(20), nil) {
		t.Error("stale response applied")
	}
	if got := len(l.Snapshot()); got != 3 {
		t.Errorf("expected the latest snapshot of 3, got %d", got)
	}
	if l.Apply(first.Gen, nil, errors.New("late failure")) {
		t.Error("stale failure applied")
	}
	if state, _ := l.State(); state != Ready {
		t.Errorf("expected ready, got %s", state)
	}
}

func TestOvertakenLoadReportsNothing(t *testing.T) {
	var l *List[clinic.Owner]
	var overtake bool
	l = NewList(ListConfig[clinic.Owner]{
		Fetch: func(ctx context.Context) ([]clinic.Owner, error) {
			if overtake {
				l.Refresh()
				return nil, errors.New("connection reset")
			}
			return owners(3), nil
		},
	})
	mustLoad(t, l)

	overtake = true
	if err := l.Load(context.Background()); err != nil {
		t.Errorf("overtaken load returned %v", err)
	}
	if state, _ := l.State(); state == Failed {
		t.Error("overtaken failure applied")
	}

	n := &Recorder{Answer: true}
	done, err := l.Act(context.Background(), n, Action{
		Success: "Dueño eliminado exitosamente",
		Run:     func(ctx context.Context) error { return nil },
	})
	if !done || err != nil {
		t.Fatalf("expected success, got %v %v", done, err)
	}
	for _, note := range n.Notes() {
		if note.Level == LevelError {
			t.Errorf("unexpected error note %q", note.Message)
		}
	}
}

func TestRemoteFilterRefetches(t *testing.T) {
	all := []clinic.Payment{
		{ID: 1, Status: clinic.PaymentPending},
		{ID: 2, Status: clinic.PaymentPaid},
		{ID: 3, Status: clinic.PaymentPending},
	}
	var allCalls, pendingCalls int
	pending := staticFetch(all[:1], &pendingCalls)

	l := NewList(ListConfig[clinic.Payment]{
		Fetch: staticFetch(all, &allCalls),
		Filters: []Filter[clinic.Payment]{{
			Name:  "estado",
			Match: func(p clinic.Payment, v string) bool { return p.Status == v },
			Remote: func(v string) FetchFunc[clinic.Payment] {
				if v == clinic.PaymentPending {
					return pending
				}
				return nil
			},
		}},
	})
	mustLoad(t, l)

	if !l.SetFilter("estado", clinic.PaymentPending) {
		t.Fatal("switching to a server query should ask for a refetch")
	}
	mustLoad(t, l)
	if pendingCalls != 1 {
		t.Errorf("expected the pending query, got %d calls", pendingCalls)
	}
	if got := l.Filtered(); len(got) != 1 || got[0].ID != 1 {
		t.Errorf("unexpected pending result %v", got)
	}

	if !l.SetFilter("estado", clinic.PaymentPaid) {
		t.Fatal("leaving the server query should ask for a refetch")
	}
	mustLoad(t, l)
	if allCalls != 2 {
		t.Errorf("expected the full query again, got %d calls", allCalls)
	}
	if got := l.Filtered(); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("local filter not applied: %v", got)
	}
}

func TestRefetchKeepsSearchAndClampsPage(t *testing.T) {
	items := owners(25)
	l := ownerList(items, nil)
	mustLoad(t, l)
	l.SetSearch("Dueño")
	l.SetPage(3)

	l.config.Fetch = staticFetch(items[:12], nil)
	mustLoad(t, l)

	if l.Search() != "Dueño" {
		t.Errorf("search lost: %q", l.Search())
	}
	if l.CurrentPage() != 2 {
		t.Errorf("expected page clamped to 2, got %d", l.CurrentPage())
	}
}

func TestActDeclinedDoesNothing(t *testing.T) {
	var fetches, runs int
	l := ownerList(owners(3), &fetches)
	mustLoad(t, l)

	n := &Recorder{Answer: false}
	done, err := l.Act(context.Background(), n, Action{
		Prompt: "¿Está seguro de eliminar este dueño?",
		Run: func(ctx context.Context) error {
			runs++
			return nil
		},
	})
	if done || err != nil {
		t.Errorf("expected nothing done, got %v %v", done, err)
	}
	if runs != 0 || fetches != 1 {
		t.Errorf("expected no gateway call, got runs=%d fetches=%d", runs, fetches)
	}
	if got := len(l.Snapshot()); got != 3 {
		t.Errorf("state changed: %d records", got)
	}
}

func TestActSuccessRefetches(t *testing.T) {
	var fetches int
	l := ownerList(owners(3), &fetches)
	mustLoad(t, l)

	n := &Recorder{Answer: true}
	done, err := l.Act(context.Background(), n, Action{
		Prompt:  "¿Eliminar?",
		Success: "Dueño eliminado exitosamente",
		Run:     func(ctx context.Context) error { return nil },
	})
	if !done || err != nil {
		t.Fatalf("expected success, got %v %v", done, err)
	}
	if fetches != 2 {
		t.Errorf("expected a refetch, got %d fetches", fetches)
	}
	if last := n.Last(); last.Level != LevelSuccess {
		t.Errorf("expected success note, got %+v", last)
	}
}

func TestActFailureKeepsState(t *testing.T) {
	var fetches int
	l := ownerList(owners(3), &fetches)
	mustLoad(t, l)

	n := &Recorder{Answer: true}
	done, err := l.Act(context.Background(), n, Action{
		Prompt:  "¿Eliminar?",
		Failure: "Error al eliminar",
		Run: func(ctx context.Context) error {
			return &clinic.ServerError{Status: 500}
		},
	})
	if done || err == nil {
		t.Fatalf("expected failure, got %v %v", done, err)
	}
	if fetches != 1 || len(l.Snapshot()) != 3 {
		t.Errorf("state changed after failure")
	}
	if last := n.Last(); last.Level != LevelError || last.Message != "Error al eliminar" {
		t.Errorf("unexpected note %+v", last)
	}
}

func TestPromptFirstAnswerWins(t *testing.T) {
	p := NewPrompt("¿Continuar?")
	go p.Resolve(true)
	ok, err := p.Wait(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected yes, got %v %v", ok, err)
	}
	p.Resolve(false)
	if ok, _ := p.Wait(context.Background()); !ok {
		t.Error("second answer overrode the first")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewPrompt("x").Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
