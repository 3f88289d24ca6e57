package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/petsalud/vet-cli/internal/clinic"
	"github.com/petsalud/vet-cli/internal/screens"
	"github.com/petsalud/vet-cli/internal/viewmodel"
)

var roles = map[string]string{
	"admin":   clinic.RoleAdmin,
	"tecnico": clinic.RoleTechnician,
}

// newTestCLI serves router under /api with a login endpoint. in feeds
// the confirmations and password prompts.
func newTestCLI(t *testing.T, router *mux.Router, in string) (*CLI, *bytes.Buffer) {
	t.Helper()
	router.HandleFunc("/api/usuarios/login", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		json.NewDecoder(req.Body).Decode(&body)
		role, ok := roles[body["username"]]
		if !ok || body["password"] != "secreto" {
			writeJSON(w, map[string]any{"success": false, "message": "Usuario o contraseña incorrectos"})
			return
		}
		writeJSON(w, map[string]any{
			"success": true,
			"usuario": clinic.User{ID: 1, Username: body["username"], Role: role, FirstName: "Ana"},
		})
	}).Methods(http.MethodPost)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	config := clinic.DefaultConfig()
	config.APIURL = srv.URL + "/api"
	config.DownloadDir = t.TempDir()
	session := clinic.NewSession("")
	client := clinic.NewClient(config, nil)
	env := screens.Env{
		API:     clinic.NewAPI(client, session),
		Config:  config,
		Session: session,
		Now:     func() time.Time { return time.Date(2025, time.March, 14, 9, 30, 0, 0, time.Local) },
	}
	out := &bytes.Buffer{}
	return New(t.Context(), env, client, out, strings.NewReader(in)), out
}

func signIn(t *testing.T, c *CLI, username string) {
	t.Helper()
	if _, err := c.env.API.Auth.Login(t.Context(), username, "secreto"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func owners(n int) []clinic.Owner {
	out := make([]clinic.Owner, n)
	for i := range out {
		out[i] = clinic.Owner{ID: int64(i + 1), DNI: fmt.Sprintf("%08d", i+1), FirstName: "Dueño", LastName: fmt.Sprint(i + 1)}
	}
	return out
}

func TestCommandsNeedSession(t *testing.T) {
	c, _ := newTestCLI(t, mux.NewRouter(), "")
	for _, args := range [][]string{{"duenos", "list"}, {"whoami"}, {"report", "kpis"}} {
		if err := c.Run(args); !errors.Is(err, ErrNotSignedIn) {
			t.Errorf("%v: got %v", args, err)
		}
	}
}

func TestLoginAsksPassword(t *testing.T) {
	c, out := newTestCLI(t, mux.NewRouter(), "secreto\n")
	if err := c.Run([]string{"login", "admin"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out.String(), "Bienvenido, Ana") {
		t.Errorf("output: %s", out)
	}

	out.Reset()
	if err := c.Run([]string{"whoami"}); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out.String(), "Role: "+clinic.RoleAdmin) {
		t.Errorf("output: %s", out)
	}

	if err := c.Run([]string{"logout"}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if c.env.Session.Current() != nil {
		t.Error("session survived logout")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	c, _ := newTestCLI(t, mux.NewRouter(), "")
	err := c.Run([]string{"login", "admin", "otra"})
	if err == nil || !strings.Contains(err.Error(), "Usuario o contraseña incorrectos") {
		t.Fatalf("got %v", err)
	}
	if c.env.Session.Current() != nil {
		t.Error("signed in with a bad password")
	}
}

func TestListSearchAndPages(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/duenos", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, owners(12))
	}).Methods(http.MethodGet)
	c, out := newTestCLI(t, r, "")
	signIn(t, c, "admin")

	if err := c.Run([]string{"duenos", "list"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "Dueños (12):") || !strings.Contains(out.String(), "Página 1 de 2") {
		t.Errorf("output: %s", out)
	}

	out.Reset()
	if err := c.Run([]string{"owners", "list", "--search=00000011"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out.String(), "Dueños (1):") || strings.Contains(out.String(), "Página") {
		t.Errorf("output: %s", out)
	}

	if err := c.Run([]string{"duenos", "list", "--page=3"}); err == nil {
		t.Error("page 3 of 2 accepted")
	}
}

func TestListFilters(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/ordenes", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []clinic.Order{
			{ID: 1, ExamType: "Hemograma", Status: clinic.OrderPending},
			{ID: 2, ExamType: "Urianálisis", Status: clinic.OrderCompleted},
			{ID: 3, ExamType: "Hemograma", Status: clinic.OrderCompleted},
		})
	}).Methods(http.MethodGet)
	c, out := newTestCLI(t, r, "")
	signIn(t, c, "tecnico")

	if err := c.Run([]string{"ordenes", "list", "--estado=completada", "--search=hemo"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "Órdenes (1):") {
		t.Errorf("output: %s", out)
	}

	err := c.Run([]string{"ordenes", "list", "--estado=PERDIDA"})
	if err == nil || !strings.Contains(err.Error(), "invalid estado") {
		t.Errorf("got %v", err)
	}
}

func TestRoleLimitsSections(t *testing.T) {
	c, _ := newTestCLI(t, mux.NewRouter(), "")
	signIn(t, c, "tecnico")
	for _, args := range [][]string{{"facturas", "list"}, {"report", "kpis"}, {"pagos", "pay", "1", "10", "EFECTIVO"}} {
		err := c.Run(args)
		if err == nil || !strings.Contains(err.Error(), "no access") {
			t.Errorf("%v: got %v", args, err)
		}
	}
}

func TestCreateOwner(t *testing.T) {
	var got clinic.Owner
	r := mux.NewRouter()
	r.HandleFunc("/api/duenos", func(w http.ResponseWriter, req *http.Request) {
		json.NewDecoder(req.Body).Decode(&got)
		saved := got
		saved.ID = 9
		writeJSON(w, saved)
	}).Methods(http.MethodPost)
	c, out := newTestCLI(t, r, "")
	signIn(t, c, "admin")

	err := c.Run([]string{"duenos", "create", "dni=12345678", "nombres=Lucía", "apellidos=Pérez", "telefono=987654321"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.DNI != "12345678" || got.FirstName != "Lucía" || got.Phone != "987654321" {
		t.Errorf("posted %+v", got)
	}
	if !strings.Contains(out.String(), "Dueño creado exitosamente") {
		t.Errorf("output: %s", out)
	}
}

func TestCreateStopsOnInvalidFields(t *testing.T) {
	var posts atomic.Int32
	r := mux.NewRouter()
	r.HandleFunc("/api/duenos", func(w http.ResponseWriter, _ *http.Request) {
		posts.Add(1)
		writeJSON(w, clinic.Owner{ID: 1})
	}).Methods(http.MethodPost)
	c, out := newTestCLI(t, r, "")
	signIn(t, c, "admin")

	err := c.Run([]string{"duenos", "create", "dni=123", "nombres=Lucía", "apellidos=Pérez"})
	var invalid *viewmodel.ClientValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v", err)
	}
	if posts.Load() != 0 {
		t.Error("invalid owner was sent")
	}
	if !strings.Contains(out.String(), "DNI debe tener 8 dígitos") {
		t.Errorf("output: %s", out)
	}

	if err := c.Run([]string{"duenos", "create", "nombre"}); err == nil {
		t.Error("argument without = accepted")
	}
	if err := c.Run([]string{"duenos", "create", "color=rojo"}); err == nil {
		t.Error("unknown field accepted")
	}
}

func deleteRouter(deletes *atomic.Int32) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/duenos/{id}", func(w http.ResponseWriter, _ *http.Request) {
		if deletes.Load() > 0 {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]string{"message": "Dueño no encontrado"})
			return
		}
		writeJSON(w, owners(3)[2])
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/duenos/{id}", func(w http.ResponseWriter, _ *http.Request) {
		deletes.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)
	return r
}

func TestDeleteAsksFirst(t *testing.T) {
	var deletes atomic.Int32
	c, out := newTestCLI(t, deleteRouter(&deletes), "n\n")
	signIn(t, c, "admin")

	if err := c.Run([]string{"duenos", "delete", "3"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deletes.Load() != 0 {
		t.Error("deleted without confirmation")
	}
	if !strings.Contains(out.String(), "¿Está seguro de eliminar este dueño?") || !strings.Contains(out.String(), "Sin cambios") {
		t.Errorf("output: %s", out)
	}
}

func TestDeleteWithYes(t *testing.T) {
	var deletes atomic.Int32
	c, out := newTestCLI(t, deleteRouter(&deletes), "")
	signIn(t, c, "admin")

	if err := c.Run([]string{"duenos", "delete", "3", "--yes"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deletes.Load() != 1 {
		t.Errorf("%d deletes", deletes.Load())
	}
	if !strings.Contains(out.String(), "Dueño eliminado exitosamente") {
		t.Errorf("output: %s", out)
	}

	if err := c.Run([]string{"duenos", "delete", "abc", "-y"}); err == nil {
		t.Error("bad id accepted")
	}
}

func TestResultPDF(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/resultados/5/pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 resultado"))
	}).Methods(http.MethodGet)
	c, out := newTestCLI(t, r, "")
	signIn(t, c, "tecnico")

	target := filepath.Join(t.TempDir(), "hemograma.pdf")
	if err := c.Run([]string{"resultados", "pdf", "5", "-o", target}); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "%PDF-1.4 resultado" {
		t.Errorf("saved %q", data)
	}
	if !strings.Contains(out.String(), target) {
		t.Errorf("output: %s", out)
	}
}

func TestIncomeReportPeriod(t *testing.T) {
	var query string
	r := mux.NewRouter()
	r.HandleFunc("/api/reportes/ingresos", func(w http.ResponseWriter, req *http.Request) {
		query = req.URL.Query().Get("inicio") + ".." + req.URL.Query().Get("fin")
		writeJSON(w, map[string]any{
			"periodoInicio":  "2025-02-01",
			"periodoFin":     "2025-02-28",
			"totalFacturas":  4,
			"totalFacturado": 500,
			"totalPagado":    400,
			"totalPendiente": 100,
			"tasaCobro":      80,
		})
	}).Methods(http.MethodGet)
	c, out := newTestCLI(t, r, "")
	signIn(t, c, "admin")

	if err := c.Run([]string{"report", "income", "2025-02-01", "2025-02-28"}); err != nil {
		t.Fatalf("report: %v", err)
	}
	if query != "2025-02-01..2025-02-28" {
		t.Errorf("period %s", query)
	}
	if !strings.Contains(out.String(), "Facturas: 4") || !strings.Contains(out.String(), "Tasa de cobro: 80.0%") {
		t.Errorf("output: %s", out)
	}

	if err := c.Run([]string{"report", "income"}); err != nil {
		t.Fatalf("default period: %v", err)
	}
	if query != "2025-03-01..2025-03-14" {
		t.Errorf("default period %s", query)
	}

	if err := c.Run([]string{"report", "income", "2025-03-10", "2025-03-01"}); err == nil {
		t.Error("reversed period accepted")
	}
	if err := c.Run([]string{"report", "income", "10/03/2025"}); err == nil {
		t.Error("bad date accepted")
	}
}

func TestUnknownCommand(t *testing.T) {
	c, _ := newTestCLI(t, mux.NewRouter(), "")
	signIn(t, c, "admin")
	if err := c.Run([]string{"naves"}); err == nil {
		t.Error("unknown command accepted")
	}
	if err := c.Run([]string{"duenos", "volar", "1"}); err == nil {
		t.Error("unknown subcommand accepted")
	}
}

func TestAffirmative(t *testing.T) {
	for answer, want := range map[string]bool{
		"y\n": true, "Yes": true, "s": true, "SI": true, "sí\r\n": true,
		"": false, "n": false, "no": false, "quizás": false,
	} {
		if got := affirmative(answer); got != want {
			t.Errorf("affirmative(%q) = %v", answer, got)
		}
	}
}
