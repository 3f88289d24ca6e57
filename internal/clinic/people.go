package clinic

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Owners is the /duenos gateway.
type Owners struct {
	Resource[Owner]
}

// ByDNI looks an owner up by national id.
func (o *Owners) ByDNI(ctx context.Context, dni string) (Owner, error) {
	return o.one(ctx, "dni/"+url.PathEscape(dni), nil)
}

// Search matches names server side.
func (o *Owners) Search(ctx context.Context, name string) ([]Owner, error) {
	return o.query(ctx, "buscar", url.Values{"nombre": {name}})
}

// Pets lists the pets of one owner.
func (o *Owners) Pets(ctx context.Context, id int64) ([]Pet, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var pets []Pet
	if err := o.client.Do(ctx, http.MethodGet, o.path(id, "mascotas"), nil, nil, &pets); err != nil {
		return nil, fmt.Errorf("pets of owner %d: %w", id, err)
	}
	return pets, nil
}

// Pets is the /mascotas gateway.
type Pets struct {
	Resource[Pet]
}

func (p *Pets) Search(ctx context.Context, name string) ([]Pet, error) {
	return p.query(ctx, "buscar", url.Values{"nombre": {name}})
}

func (p *Pets) BySpecies(ctx context.Context, species string) ([]Pet, error) {
	return p.query(ctx, "especie/"+url.PathEscape(species), nil)
}

func (p *Pets) ByOwner(ctx context.Context, ownerID int64) ([]Pet, error) {
	if err := checkID(ownerID); err != nil {
		return nil, err
	}
	return p.query(ctx, "dueno/"+idPart(ownerID), nil)
}

// Vets is the /veterinarios gateway.
type Vets struct {
	Resource[Vet]
}

// Available lists active vets.
func (v *Vets) Available(ctx context.Context) ([]Vet, error) {
	return v.query(ctx, "disponibles", nil)
}

// Technicians is the /tecnicos gateway.
type Technicians struct {
	Resource[Technician]
}

func (t *Technicians) Available(ctx context.Context) ([]Technician, error) {
	return t.query(ctx, "disponibles", nil)
}
