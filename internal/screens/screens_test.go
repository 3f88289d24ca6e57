package screens

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/petsalud/vet-cli/internal/clinic"
	"github.com/petsalud/vet-cli/internal/viewmodel"
)

var fixedNow = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.Local)

func testEnv(t *testing.T, router *mux.Router) Env {
	t.Helper()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	config := clinic.DefaultConfig()
	config.APIURL = srv.URL + "/api"
	config.DownloadDir = t.TempDir()
	session := clinic.NewSession("")
	return Env{
		API:     clinic.NewAPI(clinic.NewClient(config, nil), session),
		Config:  config,
		Session: session,
		Now:     func() time.Time { return fixedNow },
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestMenuByRole(t *testing.T) {
	cases := []struct {
		role    string
		allowed []string
		denied  []string
	}{
		{clinic.RoleAdmin, []string{"duenos", "veterinarios", "facturas", KeyReports}, nil},
		{clinic.RoleVet, []string{"tecnicos", "resultados", KeyReports}, []string{"facturas", "pagos"}},
		{clinic.RoleReceptionist, []string{"pagos", "citas"}, []string{"veterinarios", KeyReports}},
		{clinic.RoleTechnician, []string{"muestras", "inventario"}, []string{"tecnicos", "facturas", KeyReports}},
		{"", nil, []string{KeyDashboard, "duenos"}},
		{"GERENTE", nil, []string{KeyDashboard, "citas"}},
	}
	for _, c := range cases {
		for _, key := range c.allowed {
			if !Allowed(c.role, key) {
				t.Errorf("%q should see %s", c.role, key)
			}
		}
		for _, key := range c.denied {
			if Allowed(c.role, key) {
				t.Errorf("%q should not see %s", c.role, key)
			}
		}
	}
	if got := Menu("GERENTE"); len(got) != 0 {
		t.Errorf("unknown role sees %d sections", len(got))
	}
}

func TestInvoiceNumber(t *testing.T) {
	env := Env{Now: func() time.Time { return fixedNow }}
	re := regexp.MustCompile(`^F202503-\d{4}$`)
	for range 20 {
		if n := InvoiceNumber(env); !re.MatchString(n) {
			t.Fatalf("bad invoice number %q", n)
		}
	}
}

func TestHospitalizationAmount(t *testing.T) {
	days := 4
	daily := decimal.NullDecimal{Decimal: decimal.RequireFromString("85.50"), Valid: true}
	fallback := decimal.NewFromInt(10)

	if got := HospitalizationAmount(&days, daily, fallback); !got.Equal(decimal.RequireFromString("342")) {
		t.Errorf("got %s, want 342", got)
	}
	if got := HospitalizationAmount(nil, daily, fallback); !got.Equal(fallback) {
		t.Errorf("missing days: got %s", got)
	}
	if got := HospitalizationAmount(&days, decimal.NullDecimal{}, fallback); !got.Equal(fallback) {
		t.Errorf("missing daily cost: got %s", got)
	}
}

func TestInvoiceFormSendsLinesAndTotals(t *testing.T) {
	var sent map[string]any
	r := mux.NewRouter()
	r.HandleFunc("/api/duenos", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, []clinic.Owner{{ID: 7, FirstName: "Rosa", LastName: "García"}})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/facturas", func(w http.ResponseWriter, req *http.Request) {
		json.NewDecoder(req.Body).Decode(&sent)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{"idFactura": 31})
	}).Methods(http.MethodPost)
	env := testEnv(t, r)
	screen := Invoices(env)

	form := viewmodel.NewForm(screen.Form, 0, false)
	n := &viewmodel.Recorder{}
	if err := form.Load(context.Background(), n); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := form.Value("fechaEmision"); got != "2025-03-14" {
		t.Errorf("issue date = %q", got)
	}
	form.Set("dueno", "7")
	form.SetLine(0, viewmodel.LineDescription, "Hemograma")
	form.SetLine(0, viewmodel.LineUnitPrice, "45")
	form.AddLine()
	form.SetLine(1, viewmodel.LineDescription, "Consulta")
	form.SetLine(1, viewmodel.LineQuantity, "2")
	form.SetLine(1, viewmodel.LineUnitPrice, "30")

	saved, err := form.Submit(context.Background(), n)
	if err != nil {
		t.Fatalf("submit: %v (%+v)", err, n.Notes())
	}
	if saved.ID != 31 {
		t.Errorf("saved id %d", saved.ID)
	}
	if sent["total"] != 123.9 {
		t.Errorf("total sent %v, want 123.9", sent["total"])
	}
	if owner, _ := sent["dueno"].(map[string]any); owner["idDueno"] != float64(7) {
		t.Errorf("owner sent %v", sent["dueno"])
	}
	if lines, _ := sent["detalles"].([]any); len(lines) != 2 {
		t.Errorf("lines sent %v", sent["detalles"])
	}
	if last := n.Last(); last.Message != "Factura creada exitosamente" {
		t.Errorf("unexpected note %+v", last)
	}
}

func TestPaymentPetsFollowOwner(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/duenos", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, []clinic.Owner{{ID: 1, FirstName: "Ana"}, {ID: 2, FirstName: "Luis"}})
	})
	r.HandleFunc("/api/mascotas", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, []clinic.Pet{
			{ID: 10, Name: "Firulais", Species: "Perro", Owner: clinic.OwnerRef(1)},
			{ID: 11, Name: "Michi", Species: "Gato", Owner: clinic.OwnerRef(2)},
			{ID: 12, Name: "Rocky", Species: "Perro", Owner: clinic.OwnerRef(1)},
		})
	})
	env := testEnv(t, r)
	form := viewmodel.NewForm(Payments(env).Form, 0, false)
	if err := form.Load(context.Background(), &viewmodel.Recorder{}); err != nil {
		t.Fatal(err)
	}

	values := func() []string {
		var v []string
		for _, o := range form.Options("mascota") {
			v = append(v, o.Value)
		}
		return v
	}
	if got := values(); len(got) != 3 {
		t.Errorf("without owner expected every pet, got %v", got)
	}
	form.Set("dueno", "1")
	if got := values(); !slices.Equal(got, []string{"10", "12"}) {
		t.Errorf("owner 1 pets = %v", got)
	}
	form.Set("mascota", "12")
	form.Set("dueno", "2")
	if got := form.Value("mascota"); got != "" {
		t.Errorf("pet of another owner kept: %q", got)
	}
}

func TestPaymentAmountRules(t *testing.T) {
	form := viewmodel.NewForm(Payments(testEnv(t, mux.NewRouter())).Form, 0, false)
	form.Set("monto", "0")
	errs := form.Errors()
	if errs["monto"] != "El monto debe ser mayor a 0" {
		t.Errorf("monto error = %q", errs["monto"])
	}

	form.Set("esInternamiento", "true")
	errs = form.Errors()
	if _, ok := errs["monto"]; ok {
		t.Error("hospitalization amount should be derived")
	}
	if errs["diasInternamiento"] != viewmodel.MsgRequired {
		t.Errorf("days error = %q", errs["diasInternamiento"])
	}
}

func TestResultGuards(t *testing.T) {
	var calls int
	r := mux.NewRouter()
	r.PathPrefix("/api/resultados").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		calls++
		writeJSON(w, []clinic.Result{})
	})
	env := testEnv(t, r)
	screen := Results(env)
	list := viewmodel.NewList(screen.List)

	cases := []struct {
		action string
		record clinic.Result
		want   string
	}{
		{"deliver", clinic.Result{ID: 1}, "Debe validar el resultado antes de marcarlo como entregado"},
		{"deliver", clinic.Result{ID: 1, Validated: true, Delivered: true}, "Este resultado ya fue entregado"},
		{"validate", clinic.Result{ID: 1, Validated: true}, "Este resultado ya está validado"},
		{"delete", clinic.Result{ID: 1, Validated: true}, "No se puede eliminar un resultado validado"},
	}
	for _, c := range cases {
		action, ok := screen.Action(c.action)
		if !ok {
			t.Fatalf("no %s action", c.action)
		}
		n := &viewmodel.Recorder{Answer: true}
		done, err := action.Run(context.Background(), list, n, c.record, nil)
		if done || err != nil {
			t.Errorf("%s: ran (%v, %v)", c.action, done, err)
		}
		if last := n.Last(); last.Level != viewmodel.LevelWarning || last.Message != c.want {
			t.Errorf("%s: note %+v", c.action, last)
		}
	}
	if calls != 0 {
		t.Errorf("guarded actions reached the API %d times", calls)
	}
}

func TestOrderStatusAction(t *testing.T) {
	var status string
	var lists int
	r := mux.NewRouter()
	r.HandleFunc("/api/ordenes/{id}/estado", func(w http.ResponseWriter, req *http.Request) {
		status = req.URL.Query().Get("estado")
		writeJSON(w, clinic.Order{ID: 3, Status: status})
	}).Methods(http.MethodPatch)
	r.HandleFunc("/api/ordenes", func(w http.ResponseWriter, req *http.Request) {
		lists++
		writeJSON(w, []clinic.Order{{ID: 3, Status: status}})
	}).Methods(http.MethodGet)
	env := testEnv(t, r)
	screen := Orders(env)
	list := viewmodel.NewList(screen.List)
	action, _ := screen.Action("status")

	n := &viewmodel.Recorder{Answer: true}
	if _, err := action.Run(context.Background(), list, n, clinic.Order{ID: 3}, []string{"ENVIADA"}); !errors.Is(err, ErrBadArgs) {
		t.Errorf("bad status accepted: %v", err)
	}
	if _, err := action.Run(context.Background(), list, n, clinic.Order{ID: 3}, nil); !errors.Is(err, ErrBadArgs) {
		t.Errorf("missing status accepted: %v", err)
	}

	done, err := action.Run(context.Background(), list, n, clinic.Order{ID: 3}, []string{clinic.OrderInProgress})
	if !done || err != nil {
		t.Fatalf("run: %v", err)
	}
	if status != clinic.OrderInProgress || lists != 1 {
		t.Errorf("status %q, list fetches %d", status, lists)
	}
	notes := n.Notes()
	if notes[len(notes)-2].Message != "¿Cambiar estado de la orden a EN_PROCESO?" {
		t.Errorf("prompt %+v", notes[len(notes)-2])
	}
	if last := n.Last(); last.Message != "Estado actualizado a EN_PROCESO" {
		t.Errorf("note %+v", last)
	}
}

func TestStockCannotGoNegative(t *testing.T) {
	var patched bool
	r := mux.NewRouter()
	r.HandleFunc("/api/inventario/{id}/stock", func(w http.ResponseWriter, req *http.Request) {
		patched = true
	})
	env := testEnv(t, r)
	screen := Inventory(env)
	action, _ := screen.Action("stock")
	n := &viewmodel.Recorder{Answer: true}

	item := clinic.InventoryItem{ID: 5, Name: "Amoxicilina", Stock: 3}
	_, err := action.Run(context.Background(), viewmodel.NewList(screen.List), n, item, []string{clinic.StockSubtract, "4"})
	if !errors.Is(err, ErrBadArgs) || patched {
		t.Fatalf("expected refusal, got %v (patched %v)", err, patched)
	}
	if last := n.Last(); last.Message != "Stock insuficiente: disponible 3" {
		t.Errorf("note %+v", last)
	}
}

func TestDownloadPDF(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/resultados/{id}/pdf", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 fake"))
	})
	env := testEnv(t, r)

	path, err := DownloadPDF(context.Background(), env, 12, "")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "resultado_12.pdf" {
		t.Errorf("path %s", path)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "%PDF-1.4 fake" {
		t.Errorf("content %q", data)
	}
}

func TestAppointmentFilters(t *testing.T) {
	var hits []string
	r := mux.NewRouter()
	for _, p := range []string{"/api/citas", "/api/citas/hoy", "/api/citas/estado/{estado}"} {
		r.HandleFunc(p, func(w http.ResponseWriter, req *http.Request) {
			hits = append(hits, req.URL.Path)
			writeJSON(w, []clinic.Appointment{
				{ID: 1, At: "2025-03-14T10:00:00", Status: clinic.AppointmentConfirmed, Type: "CONSULTA"},
				{ID: 2, At: "2025-03-14T16:00:00", Status: clinic.AppointmentScheduled, Type: "CIRUGIA"},
			})
		})
	}
	env := testEnv(t, r)
	list := viewmodel.NewList(Appointments(env).List)
	ctx := context.Background()

	if err := list.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if list.SetFilter("periodo", PeriodToday) {
		list.Load(ctx)
	}
	if list.SetFilter("estado", clinic.AppointmentScheduled) {
		list.Load(ctx)
	}
	want := []string{"/api/citas", "/api/citas/hoy"}
	if !slices.Equal(hits, want) {
		t.Errorf("requests %v, want %v", hits, want)
	}
	if got := list.Filtered(); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("filtered %+v", got)
	}
}
