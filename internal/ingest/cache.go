package ingest

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"geohier/internal/location"
)

// HierarchyCache resolves natural keys to persisted ids without a store
// round-trip per row. It is scoped to one reconciliation run: built empty,
// filled lazily from the store on first miss and by Register* calls as new
// entities are queued, then discarded. Alongside the forward name→id maps
// it keeps an id-keyed coordinate index (city id→coords) so the locality
// fallback never has to linear-scan a map by value.
type HierarchyCache struct {
	store     *location.Store
	countryID uuid.UUID

	states map[string]uuid.UUID

	districts map[DistrictKey]uuid.UUID

	cities     map[CityKey]uuid.UUID
	cityCoords map[uuid.UUID]coordPair

	localities map[localityKey]uuid.UUID
}

type coordPair struct {
	lat *decimal.Decimal
	lng *decimal.Decimal
}

type localityKey struct {
	cityID uuid.UUID
	name   string
}

func NewHierarchyCache(store *location.Store, countryID uuid.UUID) *HierarchyCache {
	return &HierarchyCache{
		store:      store,
		countryID:  countryID,
		states:     map[string]uuid.UUID{},
		districts:  map[DistrictKey]uuid.UUID{},
		cities:     map[CityKey]uuid.UUID{},
		cityCoords: map[uuid.UUID]coordPair{},
		localities: map[localityKey]uuid.UUID{},
	}
}

// ResolveState returns the state id for a normalized name, consulting the
// store on a cache miss. ok=false means the state exists nowhere yet.
func (c *HierarchyCache) ResolveState(ctx context.Context, name string) (uuid.UUID, bool, error) {
	if id, ok := c.states[name]; ok {
		return id, true, nil
	}
	state, err := c.store.FindStateByName(ctx, c.countryID, name)
	if err != nil {
		return uuid.Nil, false, err
	}
	if state == nil {
		return uuid.Nil, false, nil
	}
	c.RegisterState(name, state.ID)
	return state.ID, true, nil
}

// RegisterState records a (name, id) pair, typically for a state queued
// for creation in the current run.
func (c *HierarchyCache) RegisterState(name string, id uuid.UUID) {
	c.states[name] = id
}

// ResolveDistrict returns the district id for its natural key. The parent
// state must already be resolvable through this cache.
func (c *HierarchyCache) ResolveDistrict(ctx context.Context, key DistrictKey) (uuid.UUID, bool, error) {
	if id, ok := c.districts[key]; ok {
		return id, true, nil
	}
	stateID, ok := c.states[key.State]
	if !ok {
		return uuid.Nil, false, nil
	}
	district, err := c.store.FindDistrictByName(ctx, stateID, key.Name)
	if err != nil {
		return uuid.Nil, false, err
	}
	if district == nil {
		return uuid.Nil, false, nil
	}
	c.RegisterDistrict(key, district.ID)
	return district.ID, true, nil
}

func (c *HierarchyCache) RegisterDistrict(key DistrictKey, id uuid.UUID) {
	c.districts[key] = id
}

// DistrictID is the map-only lookup used once the district phase has run.
func (c *HierarchyCache) DistrictID(key DistrictKey) (uuid.UUID, bool) {
	id, ok := c.districts[key]
	return id, ok
}

// ResolveCity returns the city id for its natural key, given the already
// resolved parent ids. A store hit also caches the persisted coordinates
// for later locality fallback.
func (c *HierarchyCache) ResolveCity(ctx context.Context, key CityKey, stateID uuid.UUID, districtID *uuid.UUID) (uuid.UUID, bool, error) {
	if id, ok := c.cities[key]; ok {
		return id, true, nil
	}
	city, err := c.store.FindCity(ctx, stateID, districtID, key.Name)
	if err != nil {
		return uuid.Nil, false, err
	}
	if city == nil {
		return uuid.Nil, false, nil
	}
	c.RegisterCity(key, city.ID, city.Lat, city.Lng)
	return city.ID, true, nil
}

func (c *HierarchyCache) RegisterCity(key CityKey, id uuid.UUID, lat, lng *decimal.Decimal) {
	c.cities[key] = id
	c.cityCoords[id] = coordPair{lat: lat, lng: lng}
}

// CityID is the map-only lookup used by the locality phase.
func (c *HierarchyCache) CityID(key CityKey) (uuid.UUID, bool) {
	id, ok := c.cities[key]
	return id, ok
}

// CityCoords returns the cached coordinates of a resolved city.
func (c *HierarchyCache) CityCoords(id uuid.UUID) (lat, lng *decimal.Decimal, ok bool) {
	p, found := c.cityCoords[id]
	return p.lat, p.lng, found
}

// ResolveLocality returns the locality id for (city, name), consulting the
// store on a miss.
func (c *HierarchyCache) ResolveLocality(ctx context.Context, cityID uuid.UUID, name string) (uuid.UUID, bool, error) {
	k := localityKey{cityID: cityID, name: name}
	if id, ok := c.localities[k]; ok {
		return id, true, nil
	}
	locality, err := c.store.FindLocality(ctx, cityID, name)
	if err != nil {
		return uuid.Nil, false, err
	}
	if locality == nil {
		return uuid.Nil, false, nil
	}
	c.localities[k] = locality.ID
	return locality.ID, true, nil
}

func (c *HierarchyCache) RegisterLocality(cityID uuid.UUID, name string, id uuid.UUID) {
	c.localities[localityKey{cityID: cityID, name: name}] = id
}
