package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Administrative operations used by the thin entity endpoints: explicit
// creates with duplicate detection, filtered listing, and soft deletion.
// Reconciliation never calls these; after ingest they are the only way the
// hierarchy is mutated.

// ListParams carries the common list-endpoint query parameters.
type ListParams struct {
	Page    int
	Limit   int
	Search  string
	OrderBy string
	// ParentID filters by the level's parent (country for states, state
	// for districts/cities, city for localities). Zero value means no
	// filter.
	ParentID uuid.UUID
}

func (p ListParams) normalized() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 10
	}
	return p
}

// CreateState creates a state under the country, refusing duplicates.
func (s *Store) CreateState(ctx context.Context, countryID uuid.UUID, name string) (*State, error) {
	name = NormalizeName(name)
	existing, err := s.FindStateByName(ctx, countryID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicate
	}

	state := State{ID: uuid.New(), CountryID: countryID, Name: name, Active: true}
	if err := s.db.WithContext(ctx).Create(&state).Error; err != nil {
		return nil, fmt.Errorf("create state %q: %w", name, err)
	}
	return &state, nil
}

// CreateDistrict creates a district under the state, refusing duplicates.
func (s *Store) CreateDistrict(ctx context.Context, stateID uuid.UUID, name string) (*District, error) {
	name = NormalizeName(name)
	existing, err := s.FindDistrictByName(ctx, stateID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicate
	}

	district := District{ID: uuid.New(), StateID: stateID, Name: name, Active: true}
	if err := s.db.WithContext(ctx).Create(&district).Error; err != nil {
		return nil, fmt.Errorf("create district %q: %w", name, err)
	}
	return &district, nil
}

// CreateCity creates a city under the state and optional district,
// refusing duplicates on the full natural key.
func (s *Store) CreateCity(ctx context.Context, stateID uuid.UUID, districtID *uuid.UUID, name string) (*City, error) {
	name = NormalizeName(name)
	existing, err := s.FindCity(ctx, stateID, districtID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicate
	}

	city := City{ID: uuid.New(), StateID: stateID, DistrictID: districtID, Name: name, Active: true}
	if err := s.db.WithContext(ctx).Create(&city).Error; err != nil {
		return nil, fmt.Errorf("create city %q: %w", name, err)
	}
	return &city, nil
}

// CreateLocality creates a locality under the city, refusing duplicates.
func (s *Store) CreateLocality(ctx context.Context, cityID uuid.UUID, name, pincode string) (*Locality, error) {
	name = NormalizeName(name)
	existing, err := s.FindLocality(ctx, cityID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicate
	}

	locality := Locality{ID: uuid.New(), CityID: cityID, Name: name, Pincode: pincode, Active: true}
	if err := s.db.WithContext(ctx).Create(&locality).Error; err != nil {
		return nil, fmt.Errorf("create locality %q: %w", name, err)
	}
	return &locality, nil
}

// UpdateParams is the partial-update payload of the entity endpoints.
// Nil fields are left untouched. Pincode applies to localities only.
type UpdateParams struct {
	Name    *string
	Active  *bool
	Pincode *string
}

// UpdateState applies a partial update. Renames are checked against the
// natural key before saving.
func (s *Store) UpdateState(ctx context.Context, id uuid.UUID, p UpdateParams) (*State, error) {
	var state State
	err := s.db.WithContext(ctx).First(&state, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup state %s: %w", id, err)
	}

	if p.Name != nil {
		name := NormalizeName(*p.Name)
		if name != state.Name {
			existing, err := s.FindStateByName(ctx, state.CountryID, name)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, ErrDuplicate
			}
		}
		state.Name = name
	}
	if p.Active != nil {
		state.Active = *p.Active
	}
	if err := s.db.WithContext(ctx).Save(&state).Error; err != nil {
		return nil, fmt.Errorf("update state %q: %w", state.Name, err)
	}
	return &state, nil
}

// UpdateDistrict applies a partial update.
func (s *Store) UpdateDistrict(ctx context.Context, id uuid.UUID, p UpdateParams) (*District, error) {
	var district District
	err := s.db.WithContext(ctx).First(&district, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup district %s: %w", id, err)
	}

	if p.Name != nil {
		name := NormalizeName(*p.Name)
		if name != district.Name {
			existing, err := s.FindDistrictByName(ctx, district.StateID, name)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, ErrDuplicate
			}
		}
		district.Name = name
	}
	if p.Active != nil {
		district.Active = *p.Active
	}
	if err := s.db.WithContext(ctx).Save(&district).Error; err != nil {
		return nil, fmt.Errorf("update district %q: %w", district.Name, err)
	}
	return &district, nil
}

// UpdateCity applies a partial update. The duplicate check runs against
// the city's own (state, district) slot.
func (s *Store) UpdateCity(ctx context.Context, id uuid.UUID, p UpdateParams) (*City, error) {
	var city City
	err := s.db.WithContext(ctx).First(&city, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup city %s: %w", id, err)
	}

	if p.Name != nil {
		name := NormalizeName(*p.Name)
		if name != city.Name {
			existing, err := s.FindCity(ctx, city.StateID, city.DistrictID, name)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, ErrDuplicate
			}
		}
		city.Name = name
	}
	if p.Active != nil {
		city.Active = *p.Active
	}
	if err := s.db.WithContext(ctx).Save(&city).Error; err != nil {
		return nil, fmt.Errorf("update city %q: %w", city.Name, err)
	}
	return &city, nil
}

// UpdateLocality applies a partial update, optionally including pincode.
func (s *Store) UpdateLocality(ctx context.Context, id uuid.UUID, p UpdateParams) (*Locality, error) {
	var locality Locality
	err := s.db.WithContext(ctx).First(&locality, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup locality %s: %w", id, err)
	}

	if p.Name != nil {
		name := NormalizeName(*p.Name)
		if name != locality.Name {
			existing, err := s.FindLocality(ctx, locality.CityID, name)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, ErrDuplicate
			}
		}
		locality.Name = name
	}
	if p.Pincode != nil {
		locality.Pincode = *p.Pincode
	}
	if p.Active != nil {
		locality.Active = *p.Active
	}
	if err := s.db.WithContext(ctx).Save(&locality).Error; err != nil {
		return nil, fmt.Errorf("update locality %q: %w", locality.Name, err)
	}
	return &locality, nil
}

// ListStates returns active states matching the params.
func (s *Store) ListStates(ctx context.Context, p ListParams) ([]State, error) {
	p = p.normalized()
	q := s.db.WithContext(ctx).
		Scopes(ActiveOnly(), SearchName(p.Search), OrderBy(p.OrderBy, "name", "created_at"), Paginate(p.Page, p.Limit))
	if p.ParentID != uuid.Nil {
		q = q.Where("country_id = ?", p.ParentID)
	}

	var states []State
	if err := q.Find(&states).Error; err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	return states, nil
}

// ListDistricts returns active districts matching the params.
func (s *Store) ListDistricts(ctx context.Context, p ListParams) ([]District, error) {
	p = p.normalized()
	q := s.db.WithContext(ctx).
		Scopes(ActiveOnly(), SearchName(p.Search), OrderBy(p.OrderBy, "name", "created_at"), Paginate(p.Page, p.Limit))
	if p.ParentID != uuid.Nil {
		q = q.Where("state_id = ?", p.ParentID)
	}

	var districts []District
	if err := q.Find(&districts).Error; err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	return districts, nil
}

// ListCities returns active cities matching the params.
func (s *Store) ListCities(ctx context.Context, p ListParams) ([]City, error) {
	p = p.normalized()
	q := s.db.WithContext(ctx).
		Scopes(ActiveOnly(), SearchName(p.Search), OrderBy(p.OrderBy, "name", "created_at"), Paginate(p.Page, p.Limit))
	if p.ParentID != uuid.Nil {
		q = q.Where("state_id = ?", p.ParentID)
	}

	var cities []City
	if err := q.Find(&cities).Error; err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return cities, nil
}

// ListLocalities returns active localities matching the params.
func (s *Store) ListLocalities(ctx context.Context, p ListParams) ([]Locality, error) {
	p = p.normalized()
	q := s.db.WithContext(ctx).
		Scopes(ActiveOnly(), SearchName(p.Search), OrderBy(p.OrderBy, "name", "created_at"), Paginate(p.Page, p.Limit))
	if p.ParentID != uuid.Nil {
		q = q.Where("city_id = ?", p.ParentID)
	}

	var localities []Locality
	if err := q.Find(&localities).Error; err != nil {
		return nil, fmt.Errorf("list localities: %w", err)
	}
	return localities, nil
}

// SoftDelete flips the active flag off for the row of the given model.
// model must be one of the hierarchy entities.
func (s *Store) SoftDelete(ctx context.Context, model interface{}, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return fmt.Errorf("soft delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
