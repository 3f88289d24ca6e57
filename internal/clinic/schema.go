package clinic

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Report payloads are free-form maps on the server side, so each endpoint
// gets a schema checked before decoding. A payload that does not match fails
// with a SchemaError instead of decoding into zero values.

const countSchema = `{"type": "integer", "minimum": 0}`
const numberSchema = `{"type": "number"}`
const countMapSchema = `{"type": "object", "additionalProperties": {"type": "integer", "minimum": 0}}`

var kpisSchema = `{
  "type": "object",
  "required": ["totalOrdenes", "ordenesPendientes", "ordenesEnProceso", "ordenesCompletadas",
               "totalResultados", "resultadosValidados", "resultadosPendientes",
               "totalMascotas", "totalVeterinarios", "totalTecnicos"],
  "properties": {
    "totalOrdenes": ` + countSchema + `,
    "ordenesPendientes": ` + countSchema + `,
    "ordenesEnProceso": ` + countSchema + `,
    "ordenesCompletadas": ` + countSchema + `,
    "totalResultados": ` + countSchema + `,
    "resultadosValidados": ` + countSchema + `,
    "resultadosPendientes": ` + countSchema + `,
    "totalMascotas": ` + countSchema + `,
    "totalVeterinarios": ` + countSchema + `,
    "totalTecnicos": ` + countSchema + `
  }
}`

var ordersByStatusSchema = `{
  "type": "object",
  "required": ["pendientes", "enProceso", "completadas"],
  "properties": {
    "pendientes": ` + countSchema + `,
    "enProceso": ` + countSchema + `,
    "completadas": ` + countSchema + `,
    "canceladas": ` + countSchema + `,
    "total": ` + countSchema + `
  }
}`

var incomeSchema = `{
  "type": "object",
  "required": ["totalFacturas", "totalFacturado", "totalPagado", "totalPendiente", "tasaCobro"],
  "properties": {
    "totalFacturas": ` + countSchema + `,
    "totalFacturado": ` + numberSchema + `,
    "totalPagado": ` + numberSchema + `,
    "totalPendiente": ` + numberSchema + `,
    "tasaCobro": ` + numberSchema + `
  }
}`

func breakdownSchema(key string) string {
	return `{
  "type": "object",
  "required": ["` + key + `"],
  "properties": {
    "totalOrdenes": ` + countSchema + `,
    "totalTomas": ` + countSchema + `,
    "` + key + `": ` + countMapSchema + `
  }
}`
}

var turnaroundSchema = `{
  "type": "object",
  "required": ["totalMuestras", "tiempoPromedioHoras", "cumpleObjetivo"],
  "properties": {
    "totalMuestras": ` + countSchema + `,
    "tiempoPromedioHoras": ` + numberSchema + `,
    "tiempoPromedioDias": ` + numberSchema + `,
    "cumpleObjetivo": {"type": "boolean"},
    "objetivoHoras": ` + numberSchema + `
  }
}`

var repeatsSchema = `{
  "type": "object",
  "required": ["totalOrdenes", "ordenesRepetidas", "porcentajeRepeticion", "cumpleObjetivo"],
  "properties": {
    "totalOrdenes": ` + countSchema + `,
    "ordenesRepetidas": ` + countSchema + `,
    "porcentajeRepeticion": ` + numberSchema + `,
    "cumpleObjetivo": {"type": "boolean"}
  }
}`

var satisfactionSchema = `{
  "type": "object",
  "required": ["nivelSatisfaccion", "calificacion"],
  "properties": {
    "ordenesCompletadas": ` + countSchema + `,
    "resultadosEntregados": ` + countSchema + `,
    "facturasPagadas": ` + countSchema + `,
    "tasaCompletitud": ` + numberSchema + `,
    "nivelSatisfaccion": ` + numberSchema + `,
    "calificacion": {"type": "string"}
  }
}`

var sameDaySchema = `{
  "type": "object",
  "required": ["totalOrdenes", "tratamientosMismoDia", "porcentaje", "cumpleObjetivo"],
  "properties": {
    "totalOrdenes": ` + countSchema + `,
    "tratamientosMismoDia": ` + countSchema + `,
    "porcentaje": ` + numberSchema + `,
    "cumpleObjetivo": {"type": "boolean"}
  }
}`

var dashboardSchema = `{
  "type": "object",
  "required": ["kpisGenerales", "ordenesPorEstado", "ingresosMes"],
  "properties": {
    "kpisGenerales": ` + kpisSchema + `,
    "ordenesPorEstado": ` + ordersByStatusSchema + `,
    "ingresosMes": ` + incomeSchema + `,
    "analisisMes": ` + breakdownSchema("analisisPorTipo") + `,
    "especiesMes": ` + breakdownSchema("especiesAtendidas") + `,
    "tiempoPromedio": ` + turnaroundSchema + `,
    "satisfaccion": ` + satisfactionSchema + `
  }
}`

var schemas = map[string]*gojsonschema.Schema{}

func mustSchema(name, source string) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	schemas[name] = s
}

func init() {
	mustSchema("kpis", kpisSchema)
	mustSchema("ordenes-estado", ordersByStatusSchema)
	mustSchema("ingresos", incomeSchema)
	mustSchema("analisis-por-tipo", breakdownSchema("analisisPorTipo"))
	mustSchema("especies-atendidas", breakdownSchema("especiesAtendidas"))
	mustSchema("productividad-veterinarios", breakdownSchema("ordenesPorVeterinario"))
	mustSchema("productividad-tecnicos", breakdownSchema("tomasPorTecnico"))
	mustSchema("tiempo-promedio", turnaroundSchema)
	mustSchema("analisis-repetidos", repeatsSchema)
	mustSchema("satisfaccion-cliente", satisfactionSchema)
	mustSchema("tratamientos-mismo-dia", sameDaySchema)
	mustSchema("dashboard", dashboardSchema)
}

// validatePayload checks raw JSON against the named schema.
func validatePayload(name, endpoint string, raw []byte) error {
	schema, ok := schemas[name]
	if !ok {
		return fmt.Errorf("no schema registered for %s", name)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &SchemaError{Endpoint: endpoint, Violations: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.Field()+": "+e.Description())
	}
	return &SchemaError{Endpoint: endpoint, Violations: violations}
}
