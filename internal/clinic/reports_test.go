package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestReportSchemaMismatch(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/reportes/kpis", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"totalOrdenes": "muchas"})
	})
	api, _ := newTestAPI(t, r)

	_, err := api.Reports.KPIs(context.Background())
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if se.Endpoint != "/reportes/kpis" || len(se.Violations) == 0 {
		t.Errorf("unexpected schema error %+v", se)
	}
	if got := Describe(err, "x"); got != "Respuesta inesperada del servidor" {
		t.Errorf("Describe = %q", got)
	}
}

func TestBreakdownReport(t *testing.T) {
	var gotFrom, gotTo string
	r := mux.NewRouter()
	r.HandleFunc("/api/reportes/especies-atendidas", func(w http.ResponseWriter, req *http.Request) {
		gotFrom = req.URL.Query().Get("inicio")
		gotTo = req.URL.Query().Get("fin")
		writeJSON(w, http.StatusOK, map[string]any{
			"periodoInicio":     []int{2025, 3, 1},
			"periodoFin":        "2025-03-31",
			"totalOrdenes":      9,
			"especiesAtendidas": map[string]int{"Perro": 5, "Gato": 3, "Ave": 1},
		})
	})
	api, _ := newTestAPI(t, r)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	b, err := api.Reports.Species(context.Background(), from, to)
	if err != nil {
		t.Fatalf("species: %v", err)
	}
	if gotFrom != "2025-03-01" || gotTo != "2025-03-31" {
		t.Errorf("unexpected period %s..%s", gotFrom, gotTo)
	}
	if b.From != "2025-03-01" || b.Orders != 9 {
		t.Errorf("unexpected breakdown %+v", b)
	}
	sorted := b.Sorted()
	if len(sorted) != 3 || sorted[0].Label != "Perro" || sorted[2].Label != "Ave" {
		t.Errorf("unexpected order %v", sorted)
	}
}

func TestLoadOverviewKeepsPartialResults(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/reportes/dashboard", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	r.HandleFunc("/api/inventario/alertas", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"productosStockBajo": []map[string]any{{"idInventario": 1, "nombre": "Jeringa"}},
		})
	})
	r.HandleFunc("/api/citas/dashboard-alertas", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"citasDelDia": []map[string]any{{"idCita": 3}}})
	})
	api, _ := newTestAPI(t, r)

	o := api.LoadOverview(context.Background())
	if len(o.Errors) != 1 {
		t.Fatalf("expected one failed part, got %v", o.Errors)
	}
	if o.InventoryAlerts.Count() != 1 || len(o.AppointmentAlerts.Today) != 1 {
		t.Errorf("alerts not loaded: %+v %+v", o.InventoryAlerts, o.AppointmentAlerts)
	}
}

func TestDayAcceptsArrayForm(t *testing.T) {
	var d Day
	if err := json.Unmarshal([]byte(`[2024, 12, 5]`), &d); err != nil || d != "2024-12-05" {
		t.Errorf("got %q %v", d, err)
	}
	if err := json.Unmarshal([]byte(`[2024]`), &d); err == nil {
		t.Errorf("expected error for short array")
	}
}
