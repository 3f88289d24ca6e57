package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

func newTestAPI(t *testing.T, router *mux.Router) (*API, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	config := DefaultConfig()
	config.APIURL = srv.URL + "/api"
	return NewAPI(NewClient(config, nil), NewSession("")), srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestStatusMapping(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/duenos/{id}", func(w http.ResponseWriter, req *http.Request) {
		switch mux.Vars(req)["id"] {
		case "404":
			w.WriteHeader(http.StatusNotFound)
		case "422":
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"message": "Datos inválidos",
				"errors":  map[string]string{"email": "El email ya está registrado"},
			})
		case "400":
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "Bad Request",
				"errors": []map[string]string{{"field": "dni", "defaultMessage": "DNI duplicado"}},
			})
		case "500":
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
		}
	})
	api, _ := newTestAPI(t, r)
	ctx := context.Background()

	_, err := api.Owners.Get(ctx, 404)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("404: expected NotFoundError, got %v", err)
	}

	_, err = api.Owners.Get(ctx, 422)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("422: expected ValidationError, got %v", err)
	}
	if ve.Fields["email"] != "El email ya está registrado" {
		t.Errorf("422: unexpected fields %v", ve.Fields)
	}
	if got := Describe(err, "fallback"); got != "El email ya está registrado" {
		t.Errorf("Describe = %q", got)
	}

	_, err = api.Owners.Get(ctx, 400)
	if !errors.As(err, &ve) || ve.Fields["dni"] != "DNI duplicado" {
		t.Fatalf("400: expected field error on dni, got %v", err)
	}

	_, err = api.Owners.Get(ctx, 500)
	var se *ServerError
	if !errors.As(err, &se) || se.Message != "boom" {
		t.Fatalf("500: expected ServerError, got %v", err)
	}
	if got := Describe(err, "No se pudo cargar el dueño"); got != "No se pudo cargar el dueño" {
		t.Errorf("Describe(server) = %q", got)
	}
}

func TestNetworkError(t *testing.T) {
	api, srv := newTestAPI(t, mux.NewRouter())
	srv.Close()

	_, err := api.Owners.List(context.Background())
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if got := Describe(err, "x"); got != "Error de conexión con el servidor" {
		t.Errorf("Describe = %q", got)
	}
}

func TestInvalidIDNeverHitsTheAPI(t *testing.T) {
	calls := 0
	r := mux.NewRouter()
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		calls++
	})
	api, _ := newTestAPI(t, r)

	for _, id := range []int64{0, -3} {
		if _, err := api.Pets.Get(context.Background(), id); err == nil {
			t.Errorf("Get(%d): expected error", id)
		}
		if err := api.Pets.Delete(context.Background(), id); err == nil {
			t.Errorf("Delete(%d): expected error", id)
		}
	}
	if calls != 0 {
		t.Errorf("expected no requests, got %d", calls)
	}
}

func TestCreateSendsReferenceShape(t *testing.T) {
	var body map[string]any
	var requestID string
	r := mux.NewRouter()
	r.HandleFunc("/api/mascotas", func(w http.ResponseWriter, req *http.Request) {
		requestID = req.Header.Get("X-Request-ID")
		json.NewDecoder(req.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, map[string]any{"idMascota": 7, "nombre": "Firulais"})
	}).Methods(http.MethodPost)
	api, _ := newTestAPI(t, r)

	created, err := api.Pets.Create(context.Background(), Pet{Name: "Firulais", Species: "Perro", Owner: OwnerRef(3)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 7 {
		t.Errorf("expected id 7, got %d", created.ID)
	}
	owner, ok := body["dueno"].(map[string]any)
	if !ok || len(owner) != 1 || owner["idDueno"] != float64(3) {
		t.Errorf("expected dueno reference {idDueno:3}, got %v", body["dueno"])
	}
	if _, ok := body["idMascota"]; ok {
		t.Errorf("new record must not send an id")
	}
	if len(requestID) != 36 {
		t.Errorf("expected a uuid request id, got %q", requestID)
	}
}

func TestTransitionsAndQueries(t *testing.T) {
	var gotQuery string
	r := mux.NewRouter()
	r.HandleFunc("/api/pagos/{id}/registrar-pago", func(w http.ResponseWriter, req *http.Request) {
		gotQuery = req.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{"idPago": 4, "estado": "PAGADO", "monto": 120.5, "montoPagado": 120.5})
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/ordenes/{id}/estado", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"idOrden": 9, "estado": req.URL.Query().Get("estado")})
	}).Methods(http.MethodPatch)
	r.HandleFunc("/api/citas/hoy", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"idCita": 1}, {"idCita": 2}})
	})
	api, _ := newTestAPI(t, r)
	ctx := context.Background()

	p, err := api.Payments.Register(ctx, 4, decimal.RequireFromString("120.5"), "YAPE")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !p.Balance().IsZero() {
		t.Errorf("expected zero balance, got %s", p.Balance())
	}
	if !strings.Contains(gotQuery, "montoPagado=120.5") || !strings.Contains(gotQuery, "metodoPago=YAPE") {
		t.Errorf("unexpected query %q", gotQuery)
	}

	o, err := api.Orders.ChangeStatus(ctx, 9, OrderCompleted)
	if err != nil || o.Status != OrderCompleted {
		t.Fatalf("change status: %v %+v", err, o)
	}

	today, err := api.Appointments.Today(ctx)
	if err != nil || len(today) != 2 {
		t.Fatalf("today: %v %d", err, len(today))
	}
}

func TestResultPDF(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	r := mux.NewRouter()
	r.HandleFunc("/api/resultados/{id}/pdf", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdf)
	})
	api, _ := newTestAPI(t, r)

	blob, err := api.Results.PDF(context.Background(), 12)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if blob.ContentType != "application/pdf" || string(blob.Data) != string(pdf) {
		t.Errorf("unexpected blob %q %q", blob.ContentType, blob.Data)
	}
}

func TestLoginUpdatesSession(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/usuarios/login", func(w http.ResponseWriter, req *http.Request) {
		var creds map[string]string
		body, _ := io.ReadAll(req.Body)
		json.Unmarshal(body, &creds)
		if creds["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Contraseña incorrecta"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Login exitoso",
			"usuario": map[string]any{"idUsuario": 1, "nombreUsuario": creds["username"], "nombres": "Ana"},
			"rol":     "RECEPCIONISTA",
		})
	}).Methods(http.MethodPost)
	api, _ := newTestAPI(t, r)
	session := api.Auth.Session()

	var seen []string
	cancel := session.Subscribe(func(u *User) {
		if u == nil {
			seen = append(seen, "")
			return
		}
		seen = append(seen, u.Role)
	})
	defer cancel()

	_, err := api.Auth.Login(context.Background(), "ana", "wrong")
	if got := Describe(err, "x"); got != "Contraseña incorrecta" {
		t.Errorf("bad password message = %q (%v)", got, err)
	}

	u, err := api.Auth.Login(context.Background(), "ana", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.Role != RoleReceptionist || !session.HasRole(RoleAdmin, RoleReceptionist) {
		t.Errorf("expected receptionist role, got %q", u.Role)
	}
	if session.HasRole(RoleVet) {
		t.Errorf("receptionist must not have vet role")
	}

	if err := api.Auth.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	want := []string{"", RoleReceptionist, ""}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Errorf("notifications = %q, want %q", seen, want)
	}
}
