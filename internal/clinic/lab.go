package clinic

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Orders is the /ordenes gateway.
type Orders struct {
	Resource[Order]
}

func (o *Orders) ByPet(ctx context.Context, petID int64) ([]Order, error) {
	if err := checkID(petID); err != nil {
		return nil, err
	}
	return o.query(ctx, "mascota/"+idPart(petID), nil)
}

func (o *Orders) ByVet(ctx context.Context, vetID int64) ([]Order, error) {
	if err := checkID(vetID); err != nil {
		return nil, err
	}
	return o.query(ctx, "veterinario/"+idPart(vetID), nil)
}

func (o *Orders) ByDate(ctx context.Context, day time.Time) ([]Order, error) {
	return o.query(ctx, "fecha", url.Values{"fecha": {day.Format(dateLayout)}})
}

func (o *Orders) ByExamType(ctx context.Context, examType string) ([]Order, error) {
	return o.query(ctx, "tipo-examen/"+url.PathEscape(examType), nil)
}

func (o *Orders) Pending(ctx context.Context) ([]Order, error) {
	return o.query(ctx, "pendientes", nil)
}

// ChangeStatus moves an order to another estado.
func (o *Orders) ChangeStatus(ctx context.Context, id int64, status string) (Order, error) {
	return o.transition(ctx, http.MethodPatch, id, "estado", url.Values{"estado": {status}})
}

// Samples is the /toma-muestras gateway.
type Samples struct {
	Resource[Sample]
}

// ByOrder returns the single collection made for an order.
func (s *Samples) ByOrder(ctx context.Context, orderID int64) (Sample, error) {
	if err := checkID(orderID); err != nil {
		return Sample{}, err
	}
	return s.one(ctx, "orden/"+idPart(orderID), nil)
}

func (s *Samples) ByTechnician(ctx context.Context, techID int64) ([]Sample, error) {
	if err := checkID(techID); err != nil {
		return nil, err
	}
	return s.query(ctx, "tecnico/"+idPart(techID), nil)
}

func (s *Samples) ByDate(ctx context.Context, day time.Time) ([]Sample, error) {
	return s.query(ctx, "fecha", url.Values{"fecha": {day.Format(dateLayout)}})
}

func (s *Samples) ByType(ctx context.Context, sampleType string) ([]Sample, error) {
	return s.query(ctx, "tipo/"+url.PathEscape(sampleType), nil)
}

func (s *Samples) Pending(ctx context.Context) ([]Sample, error) {
	return s.query(ctx, "pendientes", nil)
}

// Results is the /resultados gateway.
type Results struct {
	Resource[Result]
}

func (r *Results) ByOrder(ctx context.Context, orderID int64) ([]Result, error) {
	if err := checkID(orderID); err != nil {
		return nil, err
	}
	return r.query(ctx, "orden/"+idPart(orderID), nil)
}

func (r *Results) Validated(ctx context.Context) ([]Result, error) {
	return r.query(ctx, "validados", nil)
}

func (r *Results) Pending(ctx context.Context) ([]Result, error) {
	return r.query(ctx, "pendientes", nil)
}

func (r *Results) Validate(ctx context.Context, id int64) (Result, error) {
	return r.transition(ctx, http.MethodPatch, id, "validar", nil)
}

func (r *Results) Deliver(ctx context.Context, id int64) (Result, error) {
	return r.transition(ctx, http.MethodPatch, id, "entregar", nil)
}

// PDF downloads the server-rendered report of a result.
func (r *Results) PDF(ctx context.Context, id int64) (*Blob, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	blob, err := r.client.Blob(ctx, r.path(id, "pdf"))
	if err != nil {
		return nil, fmt.Errorf("pdf of result %d: %w", id, err)
	}
	return blob, nil
}
