package cli

import (
	"fmt"
	"io"
	"strings"
)

// PrintUsage writes the command overview.
func PrintUsage(w io.Writer) {
	text := `{B}Veterinaria CLI{R} - Created by PetSalud in 2026

Usage: vet-cli <command> [subcommand] [args...] [--yes]

{Y}Commands:{R}

  {G}tui{R}                               Start the interactive interface (default)
  {G}setup{R}                             Run the configuration wizard
  {G}ping{R}                              Test the connection to the clinic API
  {G}config{R}                            Show current configuration
  {G}version{R}                           Show version information

{Y}Session:{R}
  {G}login <user> [password]{R}           Sign in (asks the password when omitted)
  {G}logout{R}                            Sign out
  {G}whoami{R}                            Show the signed-in user

{Y}Records:{R} duenos, mascotas, veterinarios, tecnicos, ordenes, muestras,
         resultados, facturas, pagos, inventario, citas
  {G}<resource> list [--search=X] [--page=N] [--all] [--<filtro>=X]{R}
                                      List records
  {G}<resource> get <id>{R}               Show one record
  {G}<resource> create <campo=valor>...{R}
                                      Create a record
  {G}<resource> update <id> <campo=valor>...{R}
                                      Update a record
  {G}<resource> delete <id>{R}            Delete a record
  {G}<resource> <action> <id> [args...]{R}
                                      Run an action (see vet-cli <resource>)

{Y}Laboratory:{R}
  {G}resultados pdf <id> [-o file]{R}     Download the PDF of a result
  {G}ordenes status <id> <estado>{R}      Change the status of an order

{Y}Billing:{R}
  {G}facturas create dueno=<id> --line="desc;cant;precio"{R}
                                      Create an invoice with line items
  {G}pagos pay <id> <monto> <metodo>{R}   Register a payment

{Y}Inventory & Appointments:{R}
  {G}inventario alerts{R}                 Low stock, expired and expiring items
  {G}inventario stock <id> <AGREGAR|RESTAR> <cantidad>{R}
                                      Adjust stock
  {G}citas alerts{R}                      Appointments that need attention

{Y}Reports:{R}
  {G}dashboard{R}                         Monthly dashboard and alerts
  {G}report kpis|orders|satisfaction{R}   General indicators
  {G}report income|exams|species|vets|techs|turnaround [from] [to]{R}
                                      Reports over a period (default: this month)

{Y}Examples:{R}
  vet-cli login recepcion
  vet-cli duenos list --search=garcia
  vet-cli mascotas create nombre=Firulais especie=Perro raza=Labrador dueno=7
  vet-cli citas cancel 12 "El dueño no puede asistir"
  vet-cli report income 2025-03-01 2025-03-31

`
	fmt.Fprint(w, strings.NewReplacer("{B}", Blue, "{Y}", Yellow, "{G}", Green, "{R}", Reset).Replace(text))
}
