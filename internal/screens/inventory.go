package screens

import (
	"context"
	"fmt"
	"strconv"

	"github.com/petsalud/vet-cli/internal/clinic"
	"github.com/petsalud/vet-cli/internal/viewmodel"
)

// Inventory catalogs.
var (
	Categories = []string{"Medicamentos", "Vacunas", "Alimentos", "Accesorios", "Higiene", "Instrumental", "Otros"}
	Units      = []string{"Unidad", "Caja", "Frasco", "Bolsa", "Kg", "Litro", "ml"}
)

// Inventory alert filter values.
const (
	AlertLowStock = "STOCK_BAJO"
	AlertExpired  = "VENCIDOS"
	AlertExpiring = "POR_VENCER"
)

// ExpiringDays is the horizon of the POR_VENCER filter.
const ExpiringDays = 30

func stockLabel(i clinic.InventoryItem) string {
	s := strconv.Itoa(i.Stock)
	if i.LowStock() {
		s += " !"
	}
	return s
}

// Inventory is the inventario screen.
func Inventory(env Env) *Screen[clinic.InventoryItem] {
	api := env.API
	id := func(i clinic.InventoryItem) int64 { return i.ID }
	return &Screen[clinic.InventoryItem]{
		Key:      "inventario",
		Title:    "Inventario",
		Singular: "producto",
		ID:       id,
		Columns: []Column[clinic.InventoryItem]{
			{Title: "ID", Width: 5, Value: func(i clinic.InventoryItem) string { return idString(i.ID) }},
			{Title: "Código", Width: 10, Value: func(i clinic.InventoryItem) string { return i.Code }},
			{Title: "Nombre", Width: 24, Value: func(i clinic.InventoryItem) string { return i.Name }},
			{Title: "Categoría", Width: 13, Value: func(i clinic.InventoryItem) string { return orDash(i.Category) }},
			{Title: "Stock", Width: 7, Value: stockLabel},
			{Title: "Precio", Width: 11, Value: func(i clinic.InventoryItem) string { return Money(i.SalePrice) }},
			{Title: "Vence", Width: 10, Value: func(i clinic.InventoryItem) string { return orDash(day(i.ExpiresOn)) }},
			{Title: "Estado", Width: 8, Value: func(i clinic.InventoryItem) string { return activeLabel(i.Active) }},
		},
		List: viewmodel.ListConfig[clinic.InventoryItem]{
			Fetch: api.Inventory.List,
			Search: []func(clinic.InventoryItem) string{
				func(i clinic.InventoryItem) string { return i.Code },
				func(i clinic.InventoryItem) string { return i.Name },
				func(i clinic.InventoryItem) string { return i.Category },
				func(i clinic.InventoryItem) string { return i.Supplier },
			},
			Filters: []viewmodel.Filter[clinic.InventoryItem]{
				{
					Name:    "categoria",
					Label:   "Categoría",
					Options: withAll(viewmodel.Values(Categories...)),
					Match:   func(i clinic.InventoryItem, c string) bool { return i.Category == c },
				},
				{
					Name:  "alerta",
					Label: "Alertas",
					Options: withAll([]viewmodel.Option{
						{Value: AlertLowStock, Label: "Stock bajo"},
						{Value: AlertExpired, Label: "Vencidos"},
						{Value: AlertExpiring, Label: "Por vencer"},
					}),
					Remote: func(v string) viewmodel.FetchFunc[clinic.InventoryItem] {
						switch v {
						case AlertLowStock:
							return api.Inventory.LowStock
						case AlertExpired:
							return api.Inventory.Expired
						case AlertExpiring:
							return func(ctx context.Context) ([]clinic.InventoryItem, error) {
								return api.Inventory.ExpiringWithin(ctx, ExpiringDays)
							}
						}
						return nil
					},
				},
			},
			PageSize: env.pageSize(),
		},
		Form: viewmodel.FormConfig[clinic.InventoryItem]{
			Messages: messages("Producto", "o", "producto"),
			Fields: []viewmodel.Field{
				{Name: "codigo", Label: "Código", Required: true, MaxLen: 50},
				{Name: "nombre", Label: "Nombre", Required: true, MinLen: 2, MaxLen: 200},
				{Name: "descripcion", Label: "Descripción", Kind: viewmodel.LongText, MaxLen: 500},
				{Name: "categoria", Label: "Categoría", Kind: viewmodel.Select, Options: viewmodel.Values(Categories...)},
				{Name: "precioCompra", Label: "Precio de compra", Kind: viewmodel.Money, Required: true},
				{Name: "precioVenta", Label: "Precio de venta", Kind: viewmodel.Money, Required: true},
				{Name: "stockActual", Label: "Stock actual", Kind: viewmodel.Integer, Required: true, Default: "0"},
				{Name: "stockMinimo", Label: "Stock mínimo", Kind: viewmodel.Integer, Required: true, Default: "0"},
				{Name: "stockMaximo", Label: "Stock máximo", Kind: viewmodel.Integer, Range: viewmodel.AtLeast(0)},
				{Name: "unidadMedida", Label: "Unidad", Kind: viewmodel.Select, Default: "Unidad", Options: viewmodel.Values(Units...)},
				{Name: "fechaVencimiento", Label: "Fecha de vencimiento", Kind: viewmodel.Date},
				{Name: "proveedor", Label: "Proveedor", MaxLen: 200},
				activeField,
				notesField,
			},
			Source: api.Inventory,
			Check:  checkItem,
			Fill: func(i clinic.InventoryItem) viewmodel.Draft {
				return viewmodel.Draft{Values: map[string]string{
					"codigo": i.Code, "nombre": i.Name, "descripcion": i.Description, "categoria": i.Category,
					"precioCompra": i.PurchasePrice.String(), "precioVenta": i.SalePrice.String(),
					"stockActual": strconv.Itoa(i.Stock), "stockMinimo": strconv.Itoa(i.MinStock),
					"stockMaximo": intString(i.MaxStock), "unidadMedida": i.Unit,
					"fechaVencimiento": day(i.ExpiresOn), "proveedor": i.Supplier,
					"activo": activeString(i.Active), "observaciones": i.Notes,
				}}
			},
			Assemble: func(d viewmodel.Draft) (clinic.InventoryItem, error) {
				item := clinic.InventoryItem{
					Code:          d.Get("codigo"),
					Name:          d.Get("nombre"),
					Description:   d.Get("descripcion"),
					Category:      d.Get("categoria"),
					PurchasePrice: d.Decimal("precioCompra"),
					SalePrice:     d.Decimal("precioVenta"),
					MaxStock:      d.IntPtr("stockMaximo"),
					Unit:          d.Get("unidadMedida"),
					ExpiresOn:     d.Get("fechaVencimiento"),
					Supplier:      d.Get("proveedor"),
					Active:        boolPtr(d.Bool("activo")),
					Notes:         d.Get("observaciones"),
				}
				if n := d.IntPtr("stockActual"); n != nil {
					item.Stock = *n
				}
				if n := d.IntPtr("stockMinimo"); n != nil {
					item.MinStock = *n
				}
				return item, nil
			},
		},
		Actions: []RowAction[clinic.InventoryItem]{
			{
				Key:   "k",
				Name:  "stock",
				Label: "Ajustar stock",
				Args: []viewmodel.Field{
					{Name: "operacion", Label: "Operación", Kind: viewmodel.Select, Required: true, Options: viewmodel.Values(clinic.StockAdd, clinic.StockSubtract)},
					{Name: "cantidad", Label: "Cantidad", Kind: viewmodel.Integer, Required: true, Range: viewmodel.AtLeast(1)},
				},
				Check: func(i clinic.InventoryItem, args []string) string {
					qty, _ := strconv.Atoi(args[1])
					if args[0] == clinic.StockSubtract && qty > i.Stock {
						return fmt.Sprintf("Stock insuficiente: disponible %d", i.Stock)
					}
					return ""
				},
				Do: func(i clinic.InventoryItem, args []string) viewmodel.Action {
					op := args[0]
					qty, _ := strconv.Atoi(args[1])
					verb := "Agregar"
					if op == clinic.StockSubtract {
						verb = "Retirar"
					}
					return viewmodel.Action{
						Prompt:  fmt.Sprintf("¿%s %d %s de %s?", verb, qty, orDash(i.Unit), i.Name),
						Success: "Stock actualizado exitosamente",
						Failure: "Error al actualizar stock",
						Run: func(ctx context.Context) error {
							_, err := api.Inventory.AdjustStock(ctx, i.ID, qty, op)
							return err
						},
					}
				},
			},
			deleteAction(id, api.Inventory.Delete, "¿Está seguro de eliminar este producto?", "Producto eliminado exitosamente"),
		},
	}
}

func checkItem(d viewmodel.Draft) map[string]string {
	errs := map[string]string{}
	for _, name := range []string{"precioCompra", "precioVenta"} {
		if d.Decimal(name).IsNegative() {
			errs[name] = "Los precios no pueden ser negativos"
		}
	}
	for _, name := range []string{"stockActual", "stockMinimo"} {
		if n := d.IntPtr(name); n != nil && *n < 0 {
			errs[name] = "El stock no puede ser negativo"
		}
	}
	if hi, lo := d.IntPtr("stockMaximo"), d.IntPtr("stockMinimo"); hi != nil && lo != nil && *hi < *lo {
		errs["stockMaximo"] = "El stock máximo no puede ser menor al mínimo"
	}
	return errs
}
