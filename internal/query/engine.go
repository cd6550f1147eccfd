package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"geohier/internal/geo"
)

// ErrNoCity is returned by ReverseGeocode when no active city with
// coordinates exists. Absence of results is a normal outcome, not a
// failure of the engine.
var ErrNoCity = errors.New("query: no city found")

// reverseGeocodeCandidates bounds the cheap SQL pre-selection. The squared
// Euclidean proxy is monotonic enough over small regions that the true
// nearest city is always inside a window this size; exact ranking within
// the window uses haversine.
const reverseGeocodeCandidates = 25

// Engine serves the read-only proximity queries. It never mutates the
// hierarchy and is safe under concurrent use.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// ReverseGeocodeResult identifies the active city nearest to a coordinate.
type ReverseGeocodeResult struct {
	CityID     uuid.UUID  `json:"city_id"`
	CityName   string     `json:"city_name"`
	StateID    uuid.UUID  `json:"state_id"`
	StateName  string     `json:"state_name"`
	DistrictID *uuid.UUID `json:"district_id"`
}

// ReverseGeocode returns the single active city minimizing great-circle
// distance from the given coordinate. Candidates are pre-ranked in SQL by
// squared Euclidean distance in coordinate space, then re-ranked exactly
// with haversine. Ties resolve to the lowest city id.
func (e *Engine) ReverseGeocode(ctx context.Context, lat, lng float64) (*ReverseGeocodeResult, error) {
	type candidate struct {
		ID         uuid.UUID  `gorm:"column:id"`
		Name       string     `gorm:"column:name"`
		StateID    uuid.UUID  `gorm:"column:state_id"`
		StateName  string     `gorm:"column:state_name"`
		DistrictID *uuid.UUID `gorm:"column:district_id"`
		Lat        float64    `gorm:"column:lat"`
		Lng        float64    `gorm:"column:lng"`
	}

	var rows []candidate
	err := e.db.WithContext(ctx).Raw(`
		SELECT city.id, city.name, state.id AS state_id, state.name AS state_name,
		       city.district_id, city.lat, city.lng
		FROM city
		JOIN state ON state.id = city.state_id
		WHERE city.active = ? AND city.lat IS NOT NULL AND city.lng IS NOT NULL
		ORDER BY (city.lat - ?) * (city.lat - ?) + (city.lng - ?) * (city.lng - ?) ASC, city.id ASC
		LIMIT ?`,
		true, lat, lat, lng, lng, reverseGeocodeCandidates).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoCity
	}

	best := rows[0]
	bestDist := geo.Haversine(lat, lng, best.Lat, best.Lng)
	for _, row := range rows[1:] {
		// Strict less keeps the earlier (lower id) row on exact ties.
		if d := geo.Haversine(lat, lng, row.Lat, row.Lng); d < bestDist {
			best, bestDist = row, d
		}
	}

	return &ReverseGeocodeResult{
		CityID:     best.ID,
		CityName:   best.Name,
		StateID:    best.StateID,
		StateName:  best.StateName,
		DistrictID: best.DistrictID,
	}, nil
}

// SuggestionsParams are the suggestion query inputs. Lat and Lng must
// either both be set or both be nil.
type SuggestionsParams struct {
	Term  string
	Page  int
	Limit int
	Lat   *float64
	Lng   *float64
}

// Suggestion is one locality joined through its city, state and optional
// district. DistanceMeters is present only when the query supplied a
// coordinate and the city has one.
type Suggestion struct {
	LocalityID     uuid.UUID  `json:"locality_id"`
	LocalityName   string     `json:"locality_name"`
	CityID         uuid.UUID  `json:"city_id"`
	CityName       string     `json:"city_name"`
	StateID        uuid.UUID  `json:"state_id"`
	StateName      string     `json:"state_name"`
	DistrictID     *uuid.UUID `json:"district_id"`
	DistrictName   *string    `json:"district_name"`
	DistanceMeters *float64   `json:"distance_meters,omitempty"`
}

// SuggestionsResult carries one page of suggestions. Total counts the
// whole filtered set, not the page.
type SuggestionsResult struct {
	Total       int64        `json:"total"`
	Page        int          `json:"page"`
	Limit       int          `json:"limit"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Suggestions returns active localities whose own name, or whose city,
// state or district name, matches the term case-insensitively. The page
// window is cut from the filtered set first, keyed on creation order so
// page N and page N+1 never overlap; when a coordinate is given the page
// is then re-sorted ascending by haversine distance, rows without city
// coordinates last.
func (e *Engine) Suggestions(ctx context.Context, p SuggestionsParams) (*SuggestionsResult, error) {
	base := func() *gorm.DB {
		q := e.db.WithContext(ctx).Table("locality").
			Joins("JOIN city ON city.id = locality.city_id").
			Joins("JOIN state ON state.id = city.state_id").
			Joins("LEFT JOIN district ON district.id = city.district_id").
			Where("locality.active = ? AND city.active = ? AND state.active = ?", true, true, true).
			Where("district.id IS NULL OR district.active = ?", true)
		if p.Term != "" {
			like := "%" + p.Term + "%"
			q = q.Where(
				"UPPER(city.name) LIKE UPPER(?) OR UPPER(state.name) LIKE UPPER(?) OR UPPER(district.name) LIKE UPPER(?) OR UPPER(locality.name) LIKE UPPER(?)",
				like, like, like, like,
			)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count suggestions: %w", err)
	}

	type srow struct {
		LocalityID   uuid.UUID  `gorm:"column:locality_id"`
		LocalityName string     `gorm:"column:locality_name"`
		CityID       uuid.UUID  `gorm:"column:city_id"`
		CityName     string     `gorm:"column:city_name"`
		StateID      uuid.UUID  `gorm:"column:state_id"`
		StateName    string     `gorm:"column:state_name"`
		DistrictID   *uuid.UUID `gorm:"column:district_id"`
		DistrictName *string    `gorm:"column:district_name"`
		CityLat      *float64   `gorm:"column:city_lat"`
		CityLng      *float64   `gorm:"column:city_lng"`
	}

	var rows []srow
	err := base().
		Select(`locality.id AS locality_id, locality.name AS locality_name,
			city.id AS city_id, city.name AS city_name,
			state.id AS state_id, state.name AS state_name,
			district.id AS district_id, district.name AS district_name,
			city.lat AS city_lat, city.lng AS city_lng`).
		Order("locality.created_at ASC, locality.id ASC").
		Offset((p.Page - 1) * p.Limit).
		Limit(p.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch suggestions: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(rows))
	for _, r := range rows {
		s := Suggestion{
			LocalityID:   r.LocalityID,
			LocalityName: r.LocalityName,
			CityID:       r.CityID,
			CityName:     r.CityName,
			StateID:      r.StateID,
			StateName:    r.StateName,
			DistrictID:   r.DistrictID,
			DistrictName: r.DistrictName,
		}
		if p.Lat != nil && p.Lng != nil && r.CityLat != nil && r.CityLng != nil {
			d := geo.Haversine(*p.Lat, *p.Lng, *r.CityLat, *r.CityLng)
			s.DistanceMeters = &d
		}
		suggestions = append(suggestions, s)
	}

	if p.Lat != nil && p.Lng != nil {
		sort.SliceStable(suggestions, func(i, j int) bool {
			return distanceOrInf(suggestions[i]) < distanceOrInf(suggestions[j])
		})
	}

	return &SuggestionsResult{
		Total:       total,
		Page:        p.Page,
		Limit:       p.Limit,
		Suggestions: suggestions,
	}, nil
}

func distanceOrInf(s Suggestion) float64 {
	if s.DistanceMeters == nil {
		return math.Inf(1)
	}
	return *s.DistanceMeters
}
