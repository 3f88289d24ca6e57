package clinic

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// Stock operations for AdjustStock.
const (
	StockAdd      = "AGREGAR"
	StockSubtract = "RESTAR"
)

// Inventory is the /inventario gateway.
type Inventory struct {
	Resource[InventoryItem]
}

// InventoryAlerts groups the three alert lists.
type InventoryAlerts struct {
	LowStock     []InventoryItem `json:"productosStockBajo"`
	Expired      []InventoryItem `json:"productosVencidos"`
	ExpiringSoon []InventoryItem `json:"productosProximosAVencer"`
}

// Count is the number of alerts across all lists.
func (a InventoryAlerts) Count() int {
	return len(a.LowStock) + len(a.Expired) + len(a.ExpiringSoon)
}

func (i *Inventory) Active(ctx context.Context) ([]InventoryItem, error) {
	return i.query(ctx, "activos", nil)
}

func (i *Inventory) ByCode(ctx context.Context, code string) (InventoryItem, error) {
	return i.one(ctx, "codigo/"+url.PathEscape(code), nil)
}

func (i *Inventory) Search(ctx context.Context, name string) ([]InventoryItem, error) {
	return i.query(ctx, "buscar", url.Values{"nombre": {name}})
}

func (i *Inventory) ByCategory(ctx context.Context, category string) ([]InventoryItem, error) {
	return i.query(ctx, "categoria/"+url.PathEscape(category), nil)
}

func (i *Inventory) LowStock(ctx context.Context) ([]InventoryItem, error) {
	return i.query(ctx, "alertas/stock-bajo", nil)
}

func (i *Inventory) Expired(ctx context.Context) ([]InventoryItem, error) {
	return i.query(ctx, "alertas/vencidos", nil)
}

// ExpiringWithin lists items expiring in the next days (30 when days <= 0).
func (i *Inventory) ExpiringWithin(ctx context.Context, days int) ([]InventoryItem, error) {
	if days <= 0 {
		days = 30
	}
	return i.query(ctx, "alertas/proximos-vencer", url.Values{"dias": {strconv.Itoa(days)}})
}

func (i *Inventory) Alerts(ctx context.Context) (InventoryAlerts, error) {
	var alerts InventoryAlerts
	err := i.scalar(ctx, "alertas", nil, &alerts)
	return alerts, err
}

// AdjustStock adds or subtracts units; op is StockAdd or StockSubtract.
func (i *Inventory) AdjustStock(ctx context.Context, id int64, quantity int, op string) (InventoryItem, error) {
	return i.transition(ctx, http.MethodPatch, id, "stock", url.Values{
		"cantidad":  {strconv.Itoa(quantity)},
		"operacion": {op},
	})
}

// TotalValue is the stock valued at purchase price.
func (i *Inventory) TotalValue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := i.scalar(ctx, "estadisticas/valor-total", nil, &total)
	return total, err
}

func (i *Inventory) TotalActive(ctx context.Context) (int64, error) {
	var total int64
	err := i.scalar(ctx, "estadisticas/total-activos", nil, &total)
	return total, err
}
