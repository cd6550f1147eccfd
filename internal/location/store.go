package location

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrDuplicate is returned when a create would violate a natural key.
	ErrDuplicate = errors.New("location: already exists")
	// ErrNotFound is returned when an id does not resolve to a row.
	ErrNotFound = errors.New("location: not found")
)

// Store wraps a gorm handle with the hierarchy's persistence operations.
// It is constructed once at process start and passed down explicitly; there
// is no package-level connection.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a Store bound to the given transaction handle.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// Transaction runs fn inside a single database transaction. fn receives a
// Store bound to the transaction; any error rolls the whole thing back.
func (s *Store) Transaction(ctx context.Context, fn func(*Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.WithTx(tx))
	})
}

// NormalizeName upper-cases and trims a source name so equality matching is
// source-independent. Empty results mean the field is unusable.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// EnsureCountry fetches the country by name, creating it when missing.
// Safe to call on every run.
func (s *Store) EnsureCountry(ctx context.Context, name, isoCode string) (*Country, error) {
	name = NormalizeName(name)

	var country Country
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&country).Error
	if err == nil {
		return &country, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup country %q: %w", name, err)
	}

	country = Country{
		ID:      uuid.New(),
		Name:    name,
		ISOCode: strings.ToUpper(isoCode),
		Active:  true,
	}
	if err := s.db.WithContext(ctx).Create(&country).Error; err != nil {
		return nil, fmt.Errorf("create country %q: %w", name, err)
	}
	return &country, nil
}

// FindStateByName returns the state with the exact (already normalized)
// name under the country, or nil when absent.
func (s *Store) FindStateByName(ctx context.Context, countryID uuid.UUID, name string) (*State, error) {
	var state State
	err := s.db.WithContext(ctx).
		Where("country_id = ? AND name = ?", countryID, name).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup state %q: %w", name, err)
	}
	return &state, nil
}

// FindDistrictByName returns the district with the exact name under the
// state, or nil when absent.
func (s *Store) FindDistrictByName(ctx context.Context, stateID uuid.UUID, name string) (*District, error) {
	var district District
	err := s.db.WithContext(ctx).
		Where("state_id = ? AND name = ?", stateID, name).
		First(&district).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup district %q: %w", name, err)
	}
	return &district, nil
}

// FindCity resolves a city by its full natural key. districtID may be nil,
// in which case only district-less rows match.
func (s *Store) FindCity(ctx context.Context, stateID uuid.UUID, districtID *uuid.UUID, name string) (*City, error) {
	q := s.db.WithContext(ctx).Where("state_id = ? AND name = ?", stateID, name)
	if districtID == nil {
		q = q.Where("district_id IS NULL")
	} else {
		q = q.Where("district_id = ?", *districtID)
	}

	var city City
	err := q.First(&city).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup city %q: %w", name, err)
	}
	return &city, nil
}

// FindLocality returns the locality with the exact name under the city, or
// nil when absent.
func (s *Store) FindLocality(ctx context.Context, cityID uuid.UUID, name string) (*Locality, error) {
	var locality Locality
	err := s.db.WithContext(ctx).
		Where("city_id = ? AND name = ?", cityID, name).
		First(&locality).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup locality %q: %w", name, err)
	}
	return &locality, nil
}

// CreateInBatches inserts the given slice in fixed-size chunks so one giant
// INSERT never has to be built. Inside a transaction each chunk is flushed
// but stays invisible to other sessions until the final commit.
func (s *Store) CreateInBatches(ctx context.Context, value interface{}, chunk int) error {
	return s.db.WithContext(ctx).CreateInBatches(value, chunk).Error
}
