package screens

import (
	"regexp"
	"strconv"

	"github.com/petsalud/vet-cli/internal/clinic"
	"github.com/petsalud/vet-cli/internal/viewmodel"
)

var (
	dniPattern     = regexp.MustCompile(`^\d{8}$`)
	phonePattern   = regexp.MustCompile(`^\d{9}$`)
	licensePattern = regexp.MustCompile(`^[A-Z]{3}\d{5,8}$`)
)

func nameField(name, label string) viewmodel.Field {
	return viewmodel.Field{Name: name, Label: label, Required: true, MinLen: 2, MaxLen: 100}
}

var (
	phoneField = viewmodel.Field{Name: "telefono", Label: "Teléfono", Pattern: phonePattern, Message: "Teléfono debe tener 9 dígitos"}
	emailField = viewmodel.Field{Name: "email", Label: "Email", MaxLen: 100, Pattern: viewmodel.Email, Message: "Debe ingresar un email válido"}
)

// Owners is the dueños screen.
func Owners(env Env) *Screen[clinic.Owner] {
	api := env.API
	id := func(o clinic.Owner) int64 { return o.ID }
	return &Screen[clinic.Owner]{
		Key:      "duenos",
		Title:    "Dueños",
		Singular: "dueño",
		ID:       id,
		Columns: []Column[clinic.Owner]{
			{Title: "ID", Width: 5, Value: func(o clinic.Owner) string { return idString(o.ID) }},
			{Title: "DNI", Width: 10, Value: func(o clinic.Owner) string { return o.DNI }},
			{Title: "Nombre", Width: 28, Value: func(o clinic.Owner) string { return o.FullName() }},
			{Title: "Teléfono", Width: 11, Value: func(o clinic.Owner) string { return orDash(o.Phone) }},
			{Title: "Email", Width: 26, Value: func(o clinic.Owner) string { return orDash(o.Email) }},
		},
		List: viewmodel.ListConfig[clinic.Owner]{
			Fetch: api.Owners.List,
			Search: []func(clinic.Owner) string{
				func(o clinic.Owner) string { return o.FirstName },
				func(o clinic.Owner) string { return o.LastName },
				func(o clinic.Owner) string { return o.DNI },
				func(o clinic.Owner) string { return o.Phone },
			},
			PageSize: env.pageSize(),
		},
		Form: viewmodel.FormConfig[clinic.Owner]{
			Messages: messages("Dueño", "o", "dueño"),
			Fields: []viewmodel.Field{
				{Name: "dni", Label: "DNI", Required: true, Pattern: dniPattern, Message: "DNI debe tener 8 dígitos"},
				nameField("nombres", "Nombres"),
				nameField("apellidos", "Apellidos"),
				phoneField,
				emailField,
				{Name: "direccion", Label: "Dirección", MaxLen: 200},
			},
			Source: api.Owners,
			Fill: func(o clinic.Owner) viewmodel.Draft {
				return viewmodel.Draft{Values: map[string]string{
					"dni": o.DNI, "nombres": o.FirstName, "apellidos": o.LastName,
					"telefono": o.Phone, "email": o.Email, "direccion": o.Address,
				}}
			},
			Assemble: func(d viewmodel.Draft) (clinic.Owner, error) {
				return clinic.Owner{
					DNI:       d.Get("dni"),
					FirstName: d.Get("nombres"),
					LastName:  d.Get("apellidos"),
					Phone:     d.Get("telefono"),
					Email:     d.Get("email"),
					Address:   d.Get("direccion"),
				}, nil
			},
		},
		Actions: []RowAction[clinic.Owner]{
			deleteAction(id, api.Owners.Delete, "¿Está seguro de eliminar este dueño?", "Dueño eliminado exitosamente"),
		},
	}
}

// Species a pet may be.
var Species = []string{"Perro", "Gato", "Ave", "Conejo", "Hamster", "Reptil", "Otro"}

// Breeds by species.
var Breeds = map[string][]string{
	"Perro":   {"Labrador", "Golden Retriever", "Pastor Alemán", "Bulldog", "Chihuahua", "Husky", "Beagle", "Mestizo", "Otro"},
	"Gato":    {"Persa", "Siamés", "Angora", "Bengalí", "Maine Coon", "Mestizo", "Otro"},
	"Ave":     {"Canario", "Periquito", "Loro", "Cotorra", "Cacatúa", "Otro"},
	"Conejo":  {"Mini Lop", "Holandés", "Angora", "Cabeza de León", "Otro"},
	"Hamster": {"Sirio", "Ruso", "Chino", "Roborovski", "Otro"},
	"Reptil":  {"Iguana", "Tortuga", "Gecko", "Serpiente", "Otro"},
	"Otro":    {"Otro"},
}

func ownerChoices(api *clinic.API) viewmodel.ChoiceLoader {
	return choices(api.Owners.List, func(o clinic.Owner) viewmodel.Option {
		return idOption(o.ID, o.FullName()+" ("+o.DNI+")")
	})
}

// Pets is the mascotas screen.
func Pets(env Env) *Screen[clinic.Pet] {
	api := env.API
	id := func(p clinic.Pet) int64 { return p.ID }
	return &Screen[clinic.Pet]{
		Key:      "mascotas",
		Title:    "Mascotas",
		Singular: "mascota",
		ID:       id,
		Columns: []Column[clinic.Pet]{
			{Title: "ID", Width: 5, Value: func(p clinic.Pet) string { return idString(p.ID) }},
			{Title: "Nombre", Width: 16, Value: func(p clinic.Pet) string { return p.Name }},
			{Title: "Especie", Width: 10, Value: func(p clinic.Pet) string { return p.Species }},
			{Title: "Raza", Width: 18, Value: func(p clinic.Pet) string { return orDash(p.Breed) }},
			{Title: "Edad", Width: 5, Value: func(p clinic.Pet) string { return orDash(intString(p.Age)) }},
			{Title: "Dueño", Width: 26, Value: func(p clinic.Pet) string { return orDash(p.Owner.FullName()) }},
		},
		List: viewmodel.ListConfig[clinic.Pet]{
			Fetch: api.Pets.List,
			Search: []func(clinic.Pet) string{
				func(p clinic.Pet) string { return p.Name },
				func(p clinic.Pet) string { return p.Breed },
				func(p clinic.Pet) string { return p.Owner.FullName() },
			},
			Filters: []viewmodel.Filter[clinic.Pet]{{
				Name:    "especie",
				Label:   "Especie",
				Options: withAll(viewmodel.Values(Species...)),
				Match:   func(p clinic.Pet, v string) bool { return p.Species == v },
			}},
			PageSize: env.pageSize(),
		},
		Form: viewmodel.FormConfig[clinic.Pet]{
			Messages: messages("Mascota", "a", "mascota"),
			Fields: []viewmodel.Field{
				nameField("nombre", "Nombre"),
				{Name: "especie", Label: "Especie", Kind: viewmodel.Select, Required: true, Options: viewmodel.Values(Species...)},
				{Name: "raza", Label: "Raza", Kind: viewmodel.Select},
				{Name: "edad", Label: "Edad (años)", Kind: viewmodel.Integer, Range: &viewmodel.Range{Min: 0, Max: 30}},
				{Name: "sexo", Label: "Sexo", Kind: viewmodel.Select, Options: viewmodel.Values("Macho", "Hembra")},
				{Name: "peso", Label: "Peso (kg)", Kind: viewmodel.Number, Range: &viewmodel.Range{Min: 0.1, Max: 500}},
				{Name: "color", Label: "Color", MaxLen: 50},
				notesField,
				{Name: "dueno", Label: "Dueño", Kind: viewmodel.Ref, Required: true},
			},
			Cascades: []viewmodel.Cascade{{
				Field:   "raza",
				On:      "especie",
				Options: func(species string) []viewmodel.Option { return viewmodel.Values(Breeds[species]...) },
			}},
			Choices: map[string]viewmodel.ChoiceLoader{"dueno": ownerChoices(api)},
			Source:  api.Pets,
			Fill: func(p clinic.Pet) viewmodel.Draft {
				owner := int64(0)
				if p.Owner != nil {
					owner = p.Owner.ID
				}
				return viewmodel.Draft{Values: map[string]string{
					"nombre": p.Name, "especie": p.Species, "raza": p.Breed,
					"edad": intString(p.Age), "sexo": p.Sex, "peso": floatString(p.Weight),
					"color": p.Color, "observaciones": p.Notes, "dueno": idString(owner),
				}}
			},
			Assemble: func(d viewmodel.Draft) (clinic.Pet, error) {
				return clinic.Pet{
					Name:    d.Get("nombre"),
					Species: d.Get("especie"),
					Breed:   d.Get("raza"),
					Age:     d.IntPtr("edad"),
					Sex:     d.Get("sexo"),
					Weight:  d.FloatPtr("peso"),
					Color:   d.Get("color"),
					Notes:   d.Get("observaciones"),
					Owner:   clinic.OwnerRef(d.ID("dueno")),
				}, nil
			},
		},
		Actions: []RowAction[clinic.Pet]{
			deleteAction(id, api.Pets.Delete, "¿Está seguro de eliminar esta mascota?", "Mascota eliminada exitosamente"),
		},
	}
}

// VetSpecialties offered in the vet form.
var VetSpecialties = []string{
	"Cirugía", "Dermatología", "Laboratorio", "Cardiología", "Oftalmología",
	"Neurología", "Oncología", "Medicina Interna", "Otra",
}

// Vets is the veterinarios screen.
func Vets(env Env) *Screen[clinic.Vet] {
	api := env.API
	id := func(v clinic.Vet) int64 { return v.ID }
	return &Screen[clinic.Vet]{
		Key:      "veterinarios",
		Title:    "Veterinarios",
		Singular: "veterinario",
		ID:       id,
		Columns: []Column[clinic.Vet]{
			{Title: "ID", Width: 5, Value: func(v clinic.Vet) string { return idString(v.ID) }},
			{Title: "Nombre", Width: 26, Value: func(v clinic.Vet) string { return v.FullName() }},
			{Title: "Especialidad", Width: 18, Value: func(v clinic.Vet) string { return orDash(v.Specialty) }},
			{Title: "Colegiatura", Width: 12, Value: func(v clinic.Vet) string { return v.License }},
			{Title: "Estado", Width: 9, Value: func(v clinic.Vet) string { return activeLabel(v.Active) }},
		},
		List: viewmodel.ListConfig[clinic.Vet]{
			Fetch: api.Vets.List,
			Search: []func(clinic.Vet) string{
				func(v clinic.Vet) string { return v.FirstName },
				func(v clinic.Vet) string { return v.LastName },
				func(v clinic.Vet) string { return v.License },
				func(v clinic.Vet) string { return v.Email },
			},
			Filters: []viewmodel.Filter[clinic.Vet]{{
				Name:    "especialidad",
				Label:   "Especialidad",
				Options: withAll(viewmodel.Values(VetSpecialties...)),
				Match:   func(v clinic.Vet, s string) bool { return v.Specialty == s },
			}},
			PageSize: env.pageSize(),
		},
		Form: viewmodel.FormConfig[clinic.Vet]{
			Messages: messages("Veterinario", "o", "veterinario"),
			Fields: []viewmodel.Field{
				nameField("nombres", "Nombres"),
				nameField("apellidos", "Apellidos"),
				{Name: "especialidad", Label: "Especialidad", Kind: viewmodel.Select, MaxLen: 100, Options: viewmodel.Values(VetSpecialties...)},
				phoneField,
				emailField,
				{Name: "colegiatura", Label: "Colegiatura", Required: true, MaxLen: 50, Pattern: licensePattern, Message: "Formato inválido (Ej: CVP12345)"},
				activeField,
			},
			Source: api.Vets,
			Fill: func(v clinic.Vet) viewmodel.Draft {
				return viewmodel.Draft{Values: map[string]string{
					"nombres": v.FirstName, "apellidos": v.LastName, "especialidad": v.Specialty,
					"telefono": v.Phone, "email": v.Email, "colegiatura": v.License, "activo": activeString(v.Active),
				}}
			},
			Assemble: func(d viewmodel.Draft) (clinic.Vet, error) {
				return clinic.Vet{
					FirstName: d.Get("nombres"),
					LastName:  d.Get("apellidos"),
					Specialty: d.Get("especialidad"),
					Phone:     d.Get("telefono"),
					Email:     d.Get("email"),
					License:   d.Get("colegiatura"),
					Active:    boolPtr(d.Bool("activo")),
				}, nil
			},
		},
		Actions: []RowAction[clinic.Vet]{
			deleteAction(id, api.Vets.Delete, "¿Está seguro de eliminar este veterinario?", "Veterinario eliminado exitosamente"),
		},
	}
}

// Lab technician catalogs.
var (
	TechSpecialties = []string{
		"Hematología", "Microbiología", "Química Clínica", "Parasitología", "Urianálisis",
		"Histopatología", "Inmunología", "Serología", "Otro",
	}
	Certifications = []string{
		"Técnico Laboratorista Clínico", "Técnico en Análisis Clínicos", "Técnico Veterinario",
		"Auxiliar de Laboratorio", "Técnico en Microbiología", "Otro",
	}
)

// Technicians is the técnicos screen.
func Technicians(env Env) *Screen[clinic.Technician] {
	api := env.API
	id := func(t clinic.Technician) int64 { return t.ID }
	return &Screen[clinic.Technician]{
		Key:      "tecnicos",
		Title:    "Técnicos",
		Singular: "técnico",
		ID:       id,
		Columns: []Column[clinic.Technician]{
			{Title: "ID", Width: 5, Value: func(t clinic.Technician) string { return idString(t.ID) }},
			{Title: "Nombre", Width: 26, Value: func(t clinic.Technician) string { return t.FullName() }},
			{Title: "Especialidad", Width: 18, Value: func(t clinic.Technician) string { return t.Specialty }},
			{Title: "Certificación", Width: 24, Value: func(t clinic.Technician) string { return orDash(t.Certification) }},
			{Title: "Estado", Width: 9, Value: func(t clinic.Technician) string { return activeLabel(t.Active) }},
		},
		List: viewmodel.ListConfig[clinic.Technician]{
			Fetch: api.Technicians.List,
			Search: []func(clinic.Technician) string{
				func(t clinic.Technician) string { return t.FirstName },
				func(t clinic.Technician) string { return t.LastName },
				func(t clinic.Technician) string { return t.Specialty },
				func(t clinic.Technician) string { return t.Certification },
			},
			Filters: []viewmodel.Filter[clinic.Technician]{{
				Name:    "especialidad",
				Label:   "Especialidad",
				Options: withAll(viewmodel.Values(TechSpecialties...)),
				Match:   func(t clinic.Technician, s string) bool { return t.Specialty == s },
			}},
			PageSize: env.pageSize(),
		},
		Form: viewmodel.FormConfig[clinic.Technician]{
			Messages: messages("Técnico", "o", "técnico"),
			Fields: []viewmodel.Field{
				nameField("nombres", "Nombres"),
				nameField("apellidos", "Apellidos"),
				{Name: "especialidad", Label: "Especialidad", Kind: viewmodel.Select, Required: true, Options: viewmodel.Values(TechSpecialties...)},
				{Name: "certificacion", Label: "Certificación", Kind: viewmodel.Select, Options: viewmodel.Values(Certifications...)},
				phoneField,
				emailField,
				activeField,
			},
			Source: api.Technicians,
			Fill: func(t clinic.Technician) viewmodel.Draft {
				return viewmodel.Draft{Values: map[string]string{
					"nombres": t.FirstName, "apellidos": t.LastName, "especialidad": t.Specialty,
					"certificacion": t.Certification, "telefono": t.Phone, "email": t.Email,
					"activo": activeString(t.Active),
				}}
			},
			Assemble: func(d viewmodel.Draft) (clinic.Technician, error) {
				return clinic.Technician{
					FirstName:     d.Get("nombres"),
					LastName:      d.Get("apellidos"),
					Specialty:     d.Get("especialidad"),
					Certification: d.Get("certificacion"),
					Phone:         d.Get("telefono"),
					Email:         d.Get("email"),
					Active:        boolPtr(d.Bool("activo")),
				}, nil
			},
		},
		Actions: []RowAction[clinic.Technician]{
			deleteAction(id, api.Technicians.Delete, "¿Está seguro de eliminar este técnico?", "Técnico eliminado exitosamente"),
		},
	}
}

func withAll(opts []viewmodel.Option) []viewmodel.Option {
	return append([]viewmodel.Option{{Value: "", Label: "Todos"}}, opts...)
}

// messages builds the form messages for an entity; suffix is the gender
// ending of the participles ("creado", "creada").
func messages(entity, suffix, lowerName string) viewmodel.Messages {
	return viewmodel.Messages{
		Created:    entity + " cread" + suffix + " exitosamente",
		Updated:    entity + " actualizad" + suffix + " exitosamente",
		LoadFailed: "Error al cargar " + lowerName,
		SaveFailed: "Error al guardar " + lowerName,
	}
}

func petChoices(api *clinic.API) viewmodel.ChoiceLoader {
	return choices(api.Pets.List, func(p clinic.Pet) viewmodel.Option {
		label := p.Name + " (" + p.Species + ")"
		if p.Owner != nil && p.Owner.FullName() != "" {
			label += " - " + p.Owner.FullName()
		}
		return idOption(p.ID, label)
	})
}

func vetChoices(api *clinic.API) viewmodel.ChoiceLoader {
	return choices(api.Vets.List, func(v clinic.Vet) viewmodel.Option {
		return idOption(v.ID, v.FullName()+" - "+orDash(v.Specialty))
	})
}

func technicianChoices(api *clinic.API) viewmodel.ChoiceLoader {
	return choices(api.Technicians.List, func(t clinic.Technician) viewmodel.Option {
		return idOption(t.ID, t.FullName()+" - "+t.Specialty)
	})
}

func orderChoices(api *clinic.API) viewmodel.ChoiceLoader {
	return choices(api.Orders.List, func(o clinic.Order) viewmodel.Option {
		label := "#" + strconv.FormatInt(o.ID, 10) + " " + o.ExamType
		if o.Pet != nil && o.Pet.Name != "" {
			label += " - " + o.Pet.Name
		}
		return idOption(o.ID, label)
	})
}

// refID reads the id of a relation that may be absent.
func refID[T any](ref *T, id func(*T) int64) string {
	if ref == nil {
		return ""
	}
	return idString(id(ref))
}
