package screens

import (
	"slices"

	"github.com/petsalud/vet-cli/internal/clinic"
)

// Menu keys that are not entity screens.
const (
	KeyDashboard = "dashboard"
	KeyReports   = "reportes"
)

// Entry is one menu item.
type Entry struct {
	Key   string
	Title string
}

// Section groups entries under one allow-list.
type Section struct {
	Title   string
	Roles   []string // nil means every known role
	Entries []Entry
}

var everyRole = []string{clinic.RoleAdmin, clinic.RoleVet, clinic.RoleTechnician, clinic.RoleReceptionist}

// Sections is the full navigation menu.
var Sections = []Section{
	{Title: "Inicio", Entries: []Entry{{KeyDashboard, "Dashboard"}}},
	{Title: "Clientes", Entries: []Entry{{"duenos", "Dueños"}, {"mascotas", "Mascotas"}}},
	{
		Title:   "Personal",
		Roles:   []string{clinic.RoleAdmin, clinic.RoleVet},
		Entries: []Entry{{"veterinarios", "Veterinarios"}, {"tecnicos", "Técnicos"}},
	},
	{Title: "Laboratorio", Entries: []Entry{{"ordenes", "Órdenes"}, {"muestras", "Toma de muestras"}, {"resultados", "Resultados"}}},
	{
		Title:   "Facturación",
		Roles:   []string{clinic.RoleAdmin, clinic.RoleReceptionist},
		Entries: []Entry{{"facturas", "Facturas"}, {"pagos", "Pagos"}},
	},
	{Title: "Operación", Entries: []Entry{{"inventario", "Inventario"}, {"citas", "Citas"}}},
	{
		Title:   "Reportes",
		Roles:   []string{clinic.RoleAdmin, clinic.RoleVet},
		Entries: []Entry{{KeyReports, "Reportes"}},
	},
}

func (s Section) allows(role string) bool {
	roles := s.Roles
	if roles == nil {
		roles = everyRole
	}
	return slices.Contains(roles, role)
}

// Menu returns the sections role may see. An unknown or empty role sees
// none.
func Menu(role string) []Section {
	var visible []Section
	for _, s := range Sections {
		if s.allows(role) {
			visible = append(visible, s)
		}
	}
	return visible
}

// Allowed reports whether role may open the entry with key.
func Allowed(role, key string) bool {
	for _, s := range Menu(role) {
		if slices.ContainsFunc(s.Entries, func(e Entry) bool { return e.Key == key }) {
			return true
		}
	}
	return false
}
