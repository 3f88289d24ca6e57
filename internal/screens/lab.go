package screens

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/petsalud/vet-cli/internal/clinic"
	"github.com/petsalud/vet-cli/internal/viewmodel"
)

// Order catalogs.
var (
	ExamTypes = []string{
		"HEMOGRAMA", "BIOQUIMICA", "URIANALISIS", "COPROPARASITOLOGICO", "PERFIL_TIROIDEO",
		"PERFIL_COMPLETO", "CULTIVO", "RADIOGRAFIA", "ECOGRAFIA", "ELECTROCARDIOGRAMA",
	}
	Priorities    = []string{"NORMAL", "ALTA", "URGENTE"}
	OrderStatuses = []string{clinic.OrderPending, clinic.OrderInProgress, clinic.OrderCompleted, clinic.OrderCancelled}
)

func petID(p *clinic.Pet) int64                { return p.ID }
func vetID(v *clinic.Vet) int64                { return v.ID }
func orderID(o *clinic.Order) int64            { return o.ID }
func technicianID(t *clinic.Technician) int64 { return t.ID }
func ownerID(o *clinic.Owner) int64            { return o.ID }

func petName(p *clinic.Pet) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func orderLabel(o *clinic.Order) string {
	if o == nil {
		return ""
	}
	return fmt.Sprintf("#%d %s", o.ID, o.ExamType)
}

// Orders is the órdenes screen.
func Orders(env Env) *Screen[clinic.Order] {
	api := env.API
	id := func(o clinic.Order) int64 { return o.ID }
	return &Screen[clinic.Order]{
		Key:      "ordenes",
		Title:    "Órdenes",
		Singular: "orden",
		ID:       id,
		Columns: []Column[clinic.Order]{
			{Title: "ID", Width: 5, Value: func(o clinic.Order) string { return idString(o.ID) }},
			{Title: "Fecha", Width: 10, Value: func(o clinic.Order) string { return day(o.Date) }},
			{Title: "Examen", Width: 20, Value: func(o clinic.Order) string { return o.ExamType }},
			{Title: "Mascota", Width: 14, Value: func(o clinic.Order) string { return orDash(petName(o.Pet)) }},
			{Title: "Veterinario", Width: 22, Value: func(o clinic.Order) string { return orDash(o.Vet.FullName()) }},
			{Title: "Prioridad", Width: 9, Value: func(o clinic.Order) string { return o.Priority }},
			{Title: "Estado", Width: 11, Value: func(o clinic.Order) string { return o.Status }},
		},
		List: viewmodel.ListConfig[clinic.Order]{
			Fetch: api.Orders.List,
			Search: []func(clinic.Order) string{
				func(o clinic.Order) string { return o.ExamType },
				func(o clinic.Order) string { return petName(o.Pet) },
				func(o clinic.Order) string { return o.Vet.FullName() },
				func(o clinic.Order) string { return idString(o.ID) },
			},
			Filters: []viewmodel.Filter[clinic.Order]{{
				Name:    "estado",
				Label:   "Estado",
				Options: withAll(viewmodel.Values(OrderStatuses...)),
				Match:   func(o clinic.Order, s string) bool { return o.Status == s },
			}},
			PageSize: env.pageSize(),
		},
		Form: viewmodel.FormConfig[clinic.Order]{
			Messages: messages("Orden", "a", "orden"),
			Fields: []viewmodel.Field{
				{Name: "mascota", Label: "Mascota", Kind: viewmodel.Ref, Required: true},
				{Name: "veterinario", Label: "Veterinario", Kind: viewmodel.Ref, Required: true},
				{Name: "tipoExamen", Label: "Tipo de examen", Kind: viewmodel.Select, Required: true, Options: viewmodel.Values(ExamTypes...)},
				{Name: "prioridad", Label: "Prioridad", Kind: viewmodel.Select, Required: true, Default: "NORMAL", Options: viewmodel.Values(Priorities...)},
				{Name: "estado", Label: "Estado", Kind: viewmodel.Select, Default: clinic.OrderPending, Options: viewmodel.Values(OrderStatuses...)},
				{Name: "sintomas", Label: "Síntomas", Kind: viewmodel.LongText, MaxLen: 1000},
				{Name: "diagnosticoPresuntivo", Label: "Diagnóstico presuntivo", Kind: viewmodel.LongText, MaxLen: 1000},
				notesField,
			},
			Choices: map[string]viewmodel.ChoiceLoader{
				"mascota":     petChoices(api),
				"veterinario": vetChoices(api),
			},
			Source: api.Orders,
			Fill: func(o clinic.Order) viewmodel.Draft {
				return viewmodel.Draft{Values: map[string]string{
					"mascota": refID(o.Pet, petID), "veterinario": refID(o.Vet, vetID),
					"tipoExamen": o.ExamType, "prioridad": o.Priority, "estado": o.Status,
					"sintomas": o.Symptoms, "diagnosticoPresuntivo": o.Diagnosis, "observaciones": o.Notes,
				}}
			},
			Assemble: func(d viewmodel.Draft) (clinic.Order, error) {
				return clinic.Order{
					Pet:       clinic.PetRef(d.ID("mascota")),
					Vet:       clinic.VetRef(d.ID("veterinario")),
					ExamType:  d.Get("tipoExamen"),
					Priority:  d.Get("prioridad"),
					Status:    d.Get("estado"),
					Symptoms:  d.Get("sintomas"),
					Diagnosis: d.Get("diagnosticoPresuntivo"),
					Notes:     d.Get("observaciones"),
				}, nil
			},
		},
		Actions: []RowAction[clinic.Order]{
			{
				Key:   "s",
				Name:  "status",
				Label: "Cambiar estado",
				Roles: []string{clinic.RoleAdmin, clinic.RoleVet, clinic.RoleTechnician},
				Args:  []viewmodel.Field{{Name: "estado", Label: "Nuevo estado", Kind: viewmodel.Select, Required: true, Options: viewmodel.Values(OrderStatuses...)}},
				Guard: func(o clinic.Order) string {
					if o.Status == clinic.OrderCancelled {
						return "La orden está cancelada"
					}
					return ""
				},
				Do: func(o clinic.Order, args []string) viewmodel.Action {
					status := args[0]
					return viewmodel.Action{
						Prompt:  fmt.Sprintf("¿Cambiar estado de la orden a %s?", status),
						Success: fmt.Sprintf("Estado actualizado a %s", status),
						Failure: "Error al cambiar estado",
						Run: func(ctx context.Context) error {
							_, err := api.Orders.ChangeStatus(ctx, o.ID, status)
							return err
						},
					}
				},
			},
			deleteAction(id, api.Orders.Delete, "¿Está seguro de eliminar esta orden?", "Orden eliminada exitosamente"),
		},
	}
}

// Sample catalogs.
var (
	SampleTypes    = []string{"Sangre", "Orina", "Heces", "Piel", "Tejido", "Hisopado", "Otro"}
	SampleStatuses = []string{"PROGRAMADA", "REALIZADA", "PROCESANDO", "COMPLETADA"}
	sampleCode     = regexp.MustCompile(`^[A-Z]{2}-\d{4}-\d{4}$`)
)

// Samples is the toma de muestras screen.
func Samples(env Env) *Screen[clinic.Sample] {
	api := env.API
	id := func(s clinic.Sample) int64 { return s.ID }
	return &Screen[clinic.Sample]{
		Key:      "muestras",
		Title:    "Toma de muestras",
		Singular: "toma de muestra",
		ID:       id,
		Columns: []Column[clinic.Sample]{
			{Title: "ID", Width: 5, Value: func(s clinic.Sample) string { return idString(s.ID) }},
			{Title: "Código", Width: 13, Value: func(s clinic.Sample) string { return orDash(s.Code) }},
			{Title: "Fecha", Width: 16, Value: func(s clinic.Sample) string { return dateTimeInput(s.TakenAt) }},
			{Title: "Tipo", Width: 10, Value: func(s clinic.Sample) string { return s.Type }},
			{Title: "Orden", Width: 20, Value: func(s clinic.Sample) string { return orDash(orderLabel(s.Order)) }},
			{Title: "Técnico", Width: 22, Value: func(s clinic.Sample) string { return orDash(s.Technician.FullName()) }},
			{Title: "Estado", Width: 11, Value: func(s clinic.Sample) string { return s.Status }},
		},
		List: viewmodel.ListConfig[clinic.Sample]{
			Fetch: api.Samples.List,
			Search: []func(clinic.Sample) string{
				func(s clinic.Sample) string { return s.Type },
				func(s clinic.Sample) string { return s.Code },
				func(s clinic.Sample) string { return s.Technician.FullName() },
				func(s clinic.Sample) string { return orderLabel(s.Order) },
			},
			Filters: []viewmodel.Filter[clinic.Sample]{{
				Name:    "estado",
				Label:   "Estado",
				Options: withAll(viewmodel.Values(SampleStatuses...)),
				Match:   func(s clinic.Sample, v string) bool { return s.Status == v },
			}},
			PageSize: env.pageSize(),
		},
		Form: viewmodel.FormConfig[clinic.Sample]{
			Messages: messages("Toma de muestra", "a", "toma de muestra"),
			Fields: []viewmodel.Field{
				{Name: "orden", Label: "Orden", Kind: viewmodel.Ref, Required: true},
				{Name: "tecnico", Label: "Técnico", Kind: viewmodel.Ref, Required: true},
				{Name: "fechaHora", Label: "Fecha y hora", Kind: viewmodel.DateTime, Required: true},
				{Name: "tipoMuestra", Label: "Tipo de muestra", Kind: viewmodel.Select, Required: true, Options: viewmodel.Values(SampleTypes...)},
				{Name: "codigoMuestra", Label: "Código", Pattern: sampleCode, Message: "Formato inválido (Ej: VM-2025-0001)"},
				{Name: "metodoObtencion", Label: "Método de obtención", MaxLen: 100},
				{Name: "volumenMuestra", Label: "Volumen", MaxLen: 50},
				{Name: "condicionesMuestra", Label: "Condiciones", MaxLen: 200},
				{Name: "estado", Label: "Estado", Kind: viewmodel.Select, Default: "PROGRAMADA", Options: viewmodel.Values(SampleStatuses...)},
				notesField,
			},
			Choices: map[string]viewmodel.ChoiceLoader{
				"orden":   orderChoices(api),
				"tecnico": technicianChoices(api),
			},
			Source: api.Samples,
			Prepare: func(d *viewmodel.Draft) {
				d.Set("fechaHora", env.now().Format(viewmodel.DateTimeLayout))
			},
			Fill: func(s clinic.Sample) viewmodel.Draft {
				return viewmodel.Draft{Values: map[string]string{
					"orden": refID(s.Order, orderID), "tecnico": refID(s.Technician, technicianID),
					"fechaHora": dateTimeInput(s.TakenAt), "tipoMuestra": s.Type, "codigoMuestra": s.Code,
					"metodoObtencion": s.Method, "volumenMuestra": s.Volume, "condicionesMuestra": s.Conditions,
					"estado": s.Status, "observaciones": s.Notes,
				}}
			},
			Assemble: func(d viewmodel.Draft) (clinic.Sample, error) {
				return clinic.Sample{
					Order:      clinic.OrderRef(d.ID("orden")),
					Technician: clinic.TechnicianRef(d.ID("tecnico")),
					TakenAt:    d.Get("fechaHora"),
					Type:       d.Get("tipoMuestra"),
					Code:       d.Get("codigoMuestra"),
					Method:     d.Get("metodoObtencion"),
					Volume:     d.Get("volumenMuestra"),
					Conditions: d.Get("condicionesMuestra"),
					Status:     d.Get("estado"),
					Notes:      d.Get("observaciones"),
				}, nil
			},
		},
		Actions: []RowAction[clinic.Sample]{
			{
				Key:   "s",
				Name:  "status",
				Label: "Cambiar estado",
				Args:  []viewmodel.Field{{Name: "estado", Label: "Nuevo estado", Kind: viewmodel.Select, Required: true, Options: viewmodel.Values(SampleStatuses...)}},
				Do: func(s clinic.Sample, args []string) viewmodel.Action {
					status := args[0]
					return viewmodel.Action{
						Prompt:  fmt.Sprintf("¿Cambiar estado de la muestra a %s?", status),
						Success: fmt.Sprintf("Estado actualizado a %s", status),
						Failure: "No se pudo actualizar el estado",
						Run: func(ctx context.Context) error {
							updated := s
							updated.Status = status
							_, err := api.Samples.Update(ctx, s.ID, updated)
							return err
						},
					}
				},
			},
			deleteAction(id, api.Samples.Delete, "¿Eliminar esta toma de muestra?", "Toma de muestra eliminada"),
		},
	}
}

// ResultStates is the filter over the validated/delivered flags.
var ResultStates = []string{clinic.ResultPending, clinic.ResultValidated, clinic.ResultDelivered}

// Results is the resultados screen.
func Results(env Env) *Screen[clinic.Result] {
	api := env.API
	id := func(r clinic.Result) int64 { return r.ID }

	del := deleteAction(id, api.Results.Delete, "¿Está seguro de eliminar este resultado?", "Resultado eliminado exitosamente")
	del.Guard = func(r clinic.Result) string {
		if r.Validated {
			return "No se puede eliminar un resultado validado"
		}
		return ""
	}

	return &Screen[clinic.Result]{
		Key:      "resultados",
		Title:    "Resultados",
		Singular: "resultado",
		ID:       id,
		Columns: []Column[clinic.Result]{
			{Title: "ID", Width: 5, Value: func(r clinic.Result) string { return idString(r.ID) }},
			{Title: "Fecha", Width: 10, Value: func(r clinic.Result) string { return day(r.Date) }},
			{Title: "Orden", Width: 20, Value: func(r clinic.Result) string { return orDash(orderLabel(r.Order)) }},
			{Title: "Descripción", Width: 30, Value: func(r clinic.Result) string { return r.Description }},
			{Title: "Estado", Width: 10, Value: func(r clinic.Result) string { return r.State() }},
		},
		List: viewmodel.ListConfig[clinic.Result]{
			Fetch: api.Results.List,
			Search: []func(clinic.Result) string{
				func(r clinic.Result) string { return r.Description },
				func(r clinic.Result) string { return r.Values },
				func(r clinic.Result) string { return r.Conclusions },
			},
			Filters: []viewmodel.Filter[clinic.Result]{{
				Name:    "estado",
				Label:   "Estado",
				Options: withAll(viewmodel.Values(ResultStates...)),
				Match:   func(r clinic.Result, s string) bool { return r.State() == s },
			}},
			PageSize: env.pageSize(),
		},
		Form: viewmodel.FormConfig[clinic.Result]{
			Messages: messages("Resultado", "o", "resultado"),
			Fields: []viewmodel.Field{
				{Name: "orden", Label: "Orden", Kind: viewmodel.Ref, Required: true},
				{Name: "descripcion", Label: "Descripción", Kind: viewmodel.LongText, Required: true, MaxLen: 1000},
				{Name: "valores", Label: "Valores", Kind: viewmodel.LongText, Required: true},
				{Name: "valoresReferencia", Label: "Valores de referencia", Kind: viewmodel.LongText},
				{Name: "conclusiones", Label: "Conclusiones", Kind: viewmodel.LongText, Required: true},
				{Name: "recomendaciones", Label: "Recomendaciones", Kind: viewmodel.LongText},
				{Name: "metodoAnalisis", Label: "Método de análisis", MaxLen: 200},
				{Name: "observacionesTecnicas", Label: "Observaciones técnicas", Kind: viewmodel.LongText},
			},
			Choices: map[string]viewmodel.ChoiceLoader{"orden": orderChoices(api)},
			Source:  api.Results,
			Fill: func(r clinic.Result) viewmodel.Draft {
				return viewmodel.Draft{Values: map[string]string{
					"orden": refID(r.Order, orderID), "descripcion": r.Description, "valores": r.Values,
					"valoresReferencia": r.ReferenceValues, "conclusiones": r.Conclusions,
					"recomendaciones": r.Recommendations, "metodoAnalisis": r.Method,
					"observacionesTecnicas": r.TechnicalNotes,
				}}
			},
			Assemble: func(d viewmodel.Draft) (clinic.Result, error) {
				return clinic.Result{
					Order:           clinic.OrderRef(d.ID("orden")),
					Description:     d.Get("descripcion"),
					Values:          d.Get("valores"),
					ReferenceValues: d.Get("valoresReferencia"),
					Conclusions:     d.Get("conclusiones"),
					Recommendations: d.Get("recomendaciones"),
					Method:          d.Get("metodoAnalisis"),
					TechnicalNotes:  d.Get("observacionesTecnicas"),
				}, nil
			},
		},
		Actions: []RowAction[clinic.Result]{
			{
				Key:   "v",
				Name:  "validate",
				Label: "Validar",
				Roles: []string{clinic.RoleAdmin, clinic.RoleVet},
				Guard: func(r clinic.Result) string {
					if r.Validated {
						return "Este resultado ya está validado"
					}
					return ""
				},
				Do: func(r clinic.Result, _ []string) viewmodel.Action {
					return viewmodel.Action{
						Prompt:  "¿Validar este resultado?",
						Success: "Resultado validado exitosamente",
						Failure: "Error al validar",
						Run: func(ctx context.Context) error {
							_, err := api.Results.Validate(ctx, r.ID)
							return err
						},
					}
				},
			},
			{
				Key:   "g",
				Name:  "deliver",
				Label: "Entregar",
				Guard: func(r clinic.Result) string {
					switch {
					case r.Delivered:
						return "Este resultado ya fue entregado"
					case !r.Validated:
						return "Debe validar el resultado antes de marcarlo como entregado"
					}
					return ""
				},
				Do: func(r clinic.Result, _ []string) viewmodel.Action {
					return viewmodel.Action{
						Prompt:  "¿Marcar este resultado como entregado?",
						Success: "Resultado marcado como entregado",
						Failure: "Error al entregar",
						Run: func(ctx context.Context) error {
							_, err := api.Results.Deliver(ctx, r.ID)
							return err
						},
					}
				},
			},
			{
				Key:   "p",
				Name:  "pdf",
				Label: "Descargar PDF",
				Do: func(r clinic.Result, _ []string) viewmodel.Action {
					return viewmodel.Action{
						Success:  "PDF descargado exitosamente",
						Failure:  "Error al descargar PDF",
						NoReload: true,
						Run: func(ctx context.Context) error {
							_, err := DownloadPDF(ctx, env, r.ID, "")
							return err
						},
					}
				},
			},
			del,
		},
	}
}

// DownloadPDF saves the PDF of a result. An empty target writes
// resultado_<id>.pdf in the download directory.
func DownloadPDF(ctx context.Context, env Env, id int64, target string) (string, error) {
	blob, err := env.API.Results.PDF(ctx, id)
	if err != nil {
		return "", err
	}
	if target == "" {
		dir := "."
		if env.Config != nil && env.Config.DownloadDir != "" {
			dir = env.Config.DownloadDir
		}
		target = filepath.Join(dir, fmt.Sprintf("resultado_%d.pdf", id))
	}
	if err := os.WriteFile(target, blob.Data, 0644); err != nil {
		return "", fmt.Errorf("cannot save %s: %w", target, err)
	}
	return target, nil
}
