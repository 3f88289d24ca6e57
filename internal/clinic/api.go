package clinic

// API groups every gateway over one Client.
type API struct {
	Client       *Client
	Owners       *Owners
	Pets         *Pets
	Vets         *Vets
	Technicians  *Technicians
	Orders       *Orders
	Samples      *Samples
	Results      *Results
	Invoices     *Invoices
	Payments     *Payments
	Inventory    *Inventory
	Appointments *Appointments
	Reports      *Reports
	Auth         *Auth
}

// NewAPI wires the gateways. session may be nil for commands that never
// sign in.
func NewAPI(c *Client, session *Session) *API {
	if session == nil {
		session = NewSession("")
	}
	return &API{
		Client:       c,
		Owners:       &Owners{newResource[Owner](c, "/duenos")},
		Pets:         &Pets{newResource[Pet](c, "/mascotas")},
		Vets:         &Vets{newResource[Vet](c, "/veterinarios")},
		Technicians:  &Technicians{newResource[Technician](c, "/tecnicos")},
		Orders:       &Orders{newResource[Order](c, "/ordenes")},
		Samples:      &Samples{newResource[Sample](c, "/toma-muestras")},
		Results:      &Results{newResource[Result](c, "/resultados")},
		Invoices:     &Invoices{newResource[Invoice](c, "/facturas")},
		Payments:     &Payments{newResource[Payment](c, "/pagos")},
		Inventory:    &Inventory{newResource[InventoryItem](c, "/inventario")},
		Appointments: &Appointments{newResource[Appointment](c, "/citas")},
		Reports:      &Reports{client: c},
		Auth:         &Auth{client: c, session: session},
	}
}
