package clinic

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ErrInvalidID is returned for ids the API could not have assigned.
type ErrInvalidID struct {
	ID int64
}

func (e ErrInvalidID) Error() string {
	return fmt.Sprintf("invalid id %d: ids are positive integers", e.ID)
}

func checkID(id int64) error {
	if id <= 0 {
		return ErrInvalidID{ID: id}
	}
	return nil
}

// Resource is the CRUD surface shared by every entity collection. Entity
// gateways embed it and add their domain queries.
type Resource[T any] struct {
	client *Client
	base   string // e.g. "/duenos"
}

func newResource[T any](c *Client, base string) Resource[T] {
	return Resource[T]{client: c, base: base}
}

func (r Resource[T]) path(id int64, parts ...string) string {
	p := r.base + "/" + strconv.FormatInt(id, 10)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// List returns the whole collection.
func (r Resource[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.client.Do(ctx, http.MethodGet, r.base, nil, nil, &items); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.base, err)
	}
	return items, nil
}

// Get fetches one record.
func (r Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	var item T
	if err := checkID(id); err != nil {
		return item, err
	}
	if err := r.client.Do(ctx, http.MethodGet, r.path(id), nil, nil, &item); err != nil {
		return item, fmt.Errorf("get %s/%d: %w", r.base, id, err)
	}
	return item, nil
}

// Create posts a new record and returns it with its assigned id.
func (r Resource[T]) Create(ctx context.Context, record T) (T, error) {
	var created T
	if err := r.client.Do(ctx, http.MethodPost, r.base, nil, record, &created); err != nil {
		return created, fmt.Errorf("create %s: %w", r.base, err)
	}
	return created, nil
}

// Update replaces a record.
func (r Resource[T]) Update(ctx context.Context, id int64, record T) (T, error) {
	var updated T
	if err := checkID(id); err != nil {
		return updated, err
	}
	if err := r.client.Do(ctx, http.MethodPut, r.path(id), nil, record, &updated); err != nil {
		return updated, fmt.Errorf("update %s/%d: %w", r.base, id, err)
	}
	return updated, nil
}

// Delete removes a record.
func (r Resource[T]) Delete(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := r.client.Do(ctx, http.MethodDelete, r.path(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete %s/%d: %w", r.base, id, err)
	}
	return nil
}

// query runs a GET below the collection returning a list.
func (r Resource[T]) query(ctx context.Context, sub string, params url.Values) ([]T, error) {
	var items []T
	if err := r.client.Do(ctx, http.MethodGet, r.base+"/"+sub, params, nil, &items); err != nil {
		return nil, fmt.Errorf("query %s/%s: %w", r.base, sub, err)
	}
	return items, nil
}

// one runs a GET below the collection returning a single record.
func (r Resource[T]) one(ctx context.Context, sub string, params url.Values) (T, error) {
	var item T
	if err := r.client.Do(ctx, http.MethodGet, r.base+"/"+sub, params, nil, &item); err != nil {
		return item, fmt.Errorf("query %s/%s: %w", r.base, sub, err)
	}
	return item, nil
}

// transition runs a state change on one record and returns the updated record.
func (r Resource[T]) transition(ctx context.Context, method string, id int64, action string, params url.Values) (T, error) {
	var item T
	if err := checkID(id); err != nil {
		return item, err
	}
	if err := r.client.Do(ctx, method, r.path(id, action), params, nil, &item); err != nil {
		return item, fmt.Errorf("%s %s/%d: %w", action, r.base, id, err)
	}
	return item, nil
}

// scalar runs a GET returning a bare JSON value.
func (r Resource[T]) scalar(ctx context.Context, sub string, params url.Values, out any) error {
	if err := r.client.Do(ctx, http.MethodGet, r.base+"/"+sub, params, nil, out); err != nil {
		return fmt.Errorf("query %s/%s: %w", r.base, sub, err)
	}
	return nil
}

func idPart(id int64) string { return strconv.FormatInt(id, 10) }

// dateLayout is the API's ISO date format.
const dateLayout = "2006-01-02"
