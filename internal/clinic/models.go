package clinic

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Records mirror the API's JSON. Every field is omitempty so that a record
// holding only its id marshals as the {idX: n} reference the API expects
// for relations.

// Owner is a pet owner (dueño).
type Owner struct {
	ID        int64  `json:"idDueno,omitempty"`
	DNI       string `json:"dni,omitempty"`
	FirstName string `json:"nombres,omitempty"`
	LastName  string `json:"apellidos,omitempty"`
	Phone     string `json:"telefono,omitempty"`
	Email     string `json:"email,omitempty"`
	Address   string `json:"direccion,omitempty"`
}

// OwnerRef is the relational shape of an owner.
func OwnerRef(id int64) *Owner { return &Owner{ID: id} }

// FullName joins first and last names.
func (o *Owner) FullName() string {
	if o == nil {
		return ""
	}
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

// Pet is a patient (mascota).
type Pet struct {
	ID      int64    `json:"idMascota,omitempty"`
	Name    string   `json:"nombre,omitempty"`
	Species string   `json:"especie,omitempty"`
	Breed   string   `json:"raza,omitempty"`
	Age     *int     `json:"edad,omitempty"`
	Sex     string   `json:"sexo,omitempty"`
	Weight  *float64 `json:"peso,omitempty"`
	Color   string   `json:"color,omitempty"`
	Notes   string   `json:"observaciones,omitempty"`
	Owner   *Owner   `json:"dueno,omitempty"`
}

func PetRef(id int64) *Pet { return &Pet{ID: id} }

// Vet is a veterinarian.
type Vet struct {
	ID        int64  `json:"idVeterinario,omitempty"`
	FirstName string `json:"nombres,omitempty"`
	LastName  string `json:"apellidos,omitempty"`
	Specialty string `json:"especialidad,omitempty"`
	Phone     string `json:"telefono,omitempty"`
	Email     string `json:"email,omitempty"`
	License   string `json:"colegiatura,omitempty"`
	Active    *bool  `json:"activo,omitempty"`
}

func VetRef(id int64) *Vet { return &Vet{ID: id} }

func (v *Vet) FullName() string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(v.FirstName + " " + v.LastName)
}

// Technician is a lab technician.
type Technician struct {
	ID            int64  `json:"idTecnico,omitempty"`
	FirstName     string `json:"nombres,omitempty"`
	LastName      string `json:"apellidos,omitempty"`
	Specialty     string `json:"especialidad,omitempty"`
	Phone         string `json:"telefono,omitempty"`
	Email         string `json:"email,omitempty"`
	Certification string `json:"certificacion,omitempty"`
	Active        *bool  `json:"activo,omitempty"`
}

func TechnicianRef(id int64) *Technician { return &Technician{ID: id} }

func (t *Technician) FullName() string {
	if t == nil {
		return ""
	}
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// Order statuses and priorities
const (
	OrderPending    = "PENDIENTE"
	OrderInProgress = "EN_PROCESO"
	OrderCompleted  = "COMPLETADA"
	OrderCancelled  = "CANCELADA"
)

// Order is a diagnostic order (orden veterinaria).
type Order struct {
	ID        int64  `json:"idOrden,omitempty"`
	Date      string `json:"fechaOrden,omitempty"`
	ExamType  string `json:"tipoExamen,omitempty"`
	Priority  string `json:"prioridad,omitempty"`
	Status    string `json:"estado,omitempty"`
	Notes     string `json:"observaciones,omitempty"`
	Diagnosis string `json:"diagnosticoPresuntivo,omitempty"`
	Symptoms  string `json:"sintomas,omitempty"`
	Pet       *Pet   `json:"mascota,omitempty"`
	Vet       *Vet   `json:"veterinario,omitempty"`
}

func OrderRef(id int64) *Order { return &Order{ID: id} }

// Sample is a sample collection (toma de muestra).
type Sample struct {
	ID         int64       `json:"idToma,omitempty"`
	TakenAt    string      `json:"fechaHora,omitempty"`
	Type       string      `json:"tipoMuestra,omitempty"`
	Method     string      `json:"metodoObtencion,omitempty"`
	Volume     string      `json:"volumenMuestra,omitempty"`
	Conditions string      `json:"condicionesMuestra,omitempty"`
	Notes      string      `json:"observaciones,omitempty"`
	Status     string      `json:"estado,omitempty"`
	Code       string      `json:"codigoMuestra,omitempty"`
	Order      *Order      `json:"orden,omitempty"`
	Technician *Technician `json:"tecnico,omitempty"`
}

// Result is a lab result.
type Result struct {
	ID              int64  `json:"idResultado,omitempty"`
	Date            string `json:"fechaResultado,omitempty"`
	Description     string `json:"descripcion,omitempty"`
	Values          string `json:"valores,omitempty"`
	ReferenceValues string `json:"valoresReferencia,omitempty"`
	Conclusions     string `json:"conclusiones,omitempty"`
	Recommendations string `json:"recomendaciones,omitempty"`
	Validated       bool   `json:"validado,omitempty"`
	ValidatedAt     string `json:"fechaValidacion,omitempty"`
	Delivered       bool   `json:"entregado,omitempty"`
	DeliveredAt     string `json:"fechaEntrega,omitempty"`
	Method          string `json:"metodoAnalisis,omitempty"`
	TechnicalNotes  string `json:"observacionesTecnicas,omitempty"`
	Order           *Order `json:"orden,omitempty"`
}

// Result states derived from the validated/delivered flags.
const (
	ResultPending   = "PENDIENTE"
	ResultValidated = "VALIDADO"
	ResultDelivered = "ENTREGADO"
)

// State collapses the two flags into one label.
func (r Result) State() string {
	switch {
	case r.Delivered:
		return ResultDelivered
	case r.Validated:
		return ResultValidated
	default:
		return ResultPending
	}
}

// Invoice statuses
const (
	InvoicePending   = "PENDIENTE"
	InvoicePaid      = "PAGADA"
	InvoiceCancelled = "ANULADA"
)

// Invoice is a factura with its lines.
type Invoice struct {
	ID            int64           `json:"idFactura,omitempty"`
	Number        string          `json:"numeroFactura,omitempty"`
	IssuedOn      string          `json:"fechaEmision,omitempty"`
	DueOn         string          `json:"fechaVencimiento,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"igv"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"estado,omitempty"`
	PaymentMethod string          `json:"metodoPago,omitempty"`
	PaidOn        string          `json:"fechaPago,omitempty"`
	Notes         string          `json:"observaciones,omitempty"`
	Owner         *Owner          `json:"dueno,omitempty"`
	Lines         []InvoiceLine   `json:"detalles,omitempty"`
}

// InvoiceLine is one detalle of an invoice.
type InvoiceLine struct {
	ID          int64           `json:"idDetalle,omitempty"`
	Description string          `json:"descripcion"`
	Quantity    int             `json:"cantidad"`
	UnitPrice   decimal.Decimal `json:"precioUnitario"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ServiceType string          `json:"tipoServicio,omitempty"`
}

// Payment statuses
const (
	PaymentPending = "PENDIENTE"
	PaymentPaid    = "PAGADO"
	PaymentPartial = "PARCIAL"
	PaymentOverdue = "VENCIDO"
)

// Payment is a pago, optionally for a hospitalization.
type Payment struct {
	ID              int64               `json:"idPago,omitempty"`
	Number          string              `json:"numeroPago,omitempty"`
	Owner           *Owner              `json:"dueno,omitempty"`
	Pet             *Pet                `json:"mascota,omitempty"`
	Concept         string              `json:"concepto,omitempty"`
	Type            string              `json:"tipoPago,omitempty"`
	Amount          decimal.Decimal     `json:"monto"`
	Method          string              `json:"metodoPago,omitempty"`
	Status          string              `json:"estado,omitempty"`
	IssuedOn        string              `json:"fechaEmision,omitempty"`
	DueOn           string              `json:"fechaVencimiento,omitempty"`
	PaidAt          string              `json:"fechaPago,omitempty"`
	AmountPaid      decimal.Decimal     `json:"montoPagado"`
	Notes           string              `json:"observaciones,omitempty"`
	Hospitalization bool                `json:"esInternamiento,omitempty"`
	AdmittedAt      string              `json:"fechaInicioInternamiento,omitempty"`
	DischargedAt    string              `json:"fechaFinInternamiento,omitempty"`
	Days            *int                `json:"diasInternamiento,omitempty"`
	DailyCost       decimal.NullDecimal `json:"costoDiaInternamiento"`
}

// Balance is what is still owed.
func (p Payment) Balance() decimal.Decimal {
	return p.Amount.Sub(p.AmountPaid)
}

// InventoryItem is a stock-kept product.
type InventoryItem struct {
	ID            int64           `json:"idInventario,omitempty"`
	Code          string          `json:"codigo,omitempty"`
	Name          string          `json:"nombre,omitempty"`
	Description   string          `json:"descripcion,omitempty"`
	Category      string          `json:"categoria,omitempty"`
	PurchasePrice decimal.Decimal `json:"precioCompra"`
	SalePrice     decimal.Decimal `json:"precioVenta"`
	Stock         int             `json:"stockActual"`
	MinStock      int             `json:"stockMinimo"`
	MaxStock      *int            `json:"stockMaximo,omitempty"`
	Unit          string          `json:"unidadMedida,omitempty"`
	ExpiresOn     string          `json:"fechaVencimiento,omitempty"`
	Supplier      string          `json:"proveedor,omitempty"`
	Active        *bool           `json:"activo,omitempty"`
	Notes         string          `json:"observaciones,omitempty"`
}

// LowStock reports whether the item is at or under its minimum.
func (i InventoryItem) LowStock() bool {
	return i.Stock <= i.MinStock
}

// Appointment statuses
const (
	AppointmentScheduled = "PROGRAMADA"
	AppointmentConfirmed = "CONFIRMADA"
	AppointmentOngoing   = "EN_CURSO"
	AppointmentCompleted = "COMPLETADA"
	AppointmentCancelled = "CANCELADA"
)

// Appointment is a cita.
type Appointment struct {
	ID           int64               `json:"idCita,omitempty"`
	Pet          *Pet                `json:"mascota,omitempty"`
	Vet          *Vet                `json:"veterinario,omitempty"`
	At           string              `json:"fechaHora,omitempty"`
	Reason       string              `json:"motivo,omitempty"`
	Type         string              `json:"tipoCita,omitempty"`
	Status       string              `json:"estado,omitempty"`
	Minutes      *int                `json:"duracionMinutos,omitempty"`
	Notes        string              `json:"observaciones,omitempty"`
	Cost         decimal.NullDecimal `json:"costoConsulta"`
	ReminderSent bool                `json:"recordatorioEnviado,omitempty"`
	AlertLevel   string              `json:"nivelAlerta,omitempty"`
}

// Roles
const (
	RoleAdmin        = "ADMIN"
	RoleVet          = "VETERINARIO"
	RoleTechnician   = "TECNICO"
	RoleReceptionist = "RECEPCIONISTA"
)

// User is the authenticated account.
type User struct {
	ID        int64  `json:"idUsuario,omitempty"`
	Username  string `json:"nombreUsuario,omitempty"`
	Role      string `json:"rol,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"nombres,omitempty"`
	LastName  string `json:"apellidos,omitempty"`
	Active    *bool  `json:"activo,omitempty"`
}

func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Username
}
