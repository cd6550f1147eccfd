package query_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"geohier/internal/location"
	"geohier/internal/query"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&location.Country{},
		&location.State{},
		&location.District{},
		&location.City{},
		&location.Locality{},
	))
	return gdb
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

type fixture struct {
	t   *testing.T
	db  *gorm.DB
	sID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	country := location.Country{ID: uuid.New(), Name: "INDIA", ISOCode: "IN", Active: true}
	require.NoError(t, db.Create(&country).Error)
	state := location.State{ID: uuid.New(), CountryID: country.ID, Name: "MAHARASHTRA", Active: true}
	require.NoError(t, db.Create(&state).Error)

	return &fixture{t: t, db: db, sID: state.ID}
}

func (f *fixture) city(name string, lat, lng *decimal.Decimal, active bool) uuid.UUID {
	f.t.Helper()
	c := location.City{ID: uuid.New(), StateID: f.sID, Name: name, Lat: lat, Lng: lng, Active: active}
	require.NoError(f.t, f.db.Create(&c).Error)
	return c.ID
}

func (f *fixture) locality(cityID uuid.UUID, name string, active bool) uuid.UUID {
	f.t.Helper()
	l := location.Locality{ID: uuid.New(), CityID: cityID, Name: name, Pincode: "400001", Active: active}
	require.NoError(f.t, f.db.Create(&l).Error)
	return l.ID
}

func TestReverseGeocodeNearest(t *testing.T) {
	f := newFixture(t)
	mumbai := f.city("MUMBAI", dec("19.076"), dec("72.8777"), true)
	f.city("PUNE", dec("18.5204"), dec("73.8567"), true)
	f.city("NAGPUR", dec("21.1458"), dec("79.0882"), true)

	res, err := query.NewEngine(f.db).ReverseGeocode(context.Background(), 19.1, 72.9)
	require.NoError(t, err)
	assert.Equal(t, mumbai, res.CityID)
	assert.Equal(t, "MUMBAI", res.CityName)
	assert.Equal(t, f.sID, res.StateID)
	assert.Equal(t, "MAHARASHTRA", res.StateName)
	assert.Nil(t, res.DistrictID)
}

func TestReverseGeocodeIgnoresInactiveAndCoordless(t *testing.T) {
	f := newFixture(t)
	// The closest city is inactive and the next one has no coordinates;
	// the farther active city must win.
	f.city("GHOST", dec("19.1"), dec("72.9"), false)
	f.city("BLIND", nil, nil, true)
	pune := f.city("PUNE", dec("18.5204"), dec("73.8567"), true)

	res, err := query.NewEngine(f.db).ReverseGeocode(context.Background(), 19.1, 72.9)
	require.NoError(t, err)
	assert.Equal(t, pune, res.CityID)
}

func TestReverseGeocodeTieBreaksOnLowerID(t *testing.T) {
	f := newFixture(t)

	low := location.City{
		ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		StateID: f.sID, Name: "ALPHA", Lat: dec("19.0"), Lng: dec("72.8"), Active: true,
	}
	high := location.City{
		ID: uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff"),
		StateID: f.sID, Name: "OMEGA", Lat: dec("19.0"), Lng: dec("72.8"), Active: true,
	}
	require.NoError(t, f.db.Create(&high).Error)
	require.NoError(t, f.db.Create(&low).Error)

	res, err := query.NewEngine(f.db).ReverseGeocode(context.Background(), 19.0, 72.8)
	require.NoError(t, err)
	assert.Equal(t, low.ID, res.CityID)
}

func TestReverseGeocodeEmptyStore(t *testing.T) {
	f := newFixture(t)
	f.city("BLIND", nil, nil, true)

	_, err := query.NewEngine(f.db).ReverseGeocode(context.Background(), 19.0, 72.8)
	assert.ErrorIs(t, err, query.ErrNoCity)
}

func TestSuggestionsPagination(t *testing.T) {
	f := newFixture(t)
	cityID := f.city("MUMBAI", dec("19.076"), dec("72.8777"), true)
	want := map[uuid.UUID]bool{}
	names := []string{
		"ANDHERI", "BANDRA", "COLABA", "DADAR", "FORT", "GIRGAON", "JUHU",
		"KURLA", "MAHIM", "MALAD", "MULUND", "PAREL", "POWAI", "SION", "WORLI",
	}
	for _, n := range names {
		want[f.locality(cityID, n, true)] = true
	}

	eng := query.NewEngine(f.db)
	page1, err := eng.Suggestions(context.Background(), query.SuggestionsParams{Term: "mumbai", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(15), page1.Total)
	require.Len(t, page1.Suggestions, 10)

	page2, err := eng.Suggestions(context.Background(), query.SuggestionsParams{Term: "mumbai", Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(15), page2.Total)
	require.Len(t, page2.Suggestions, 5)

	seen := map[uuid.UUID]bool{}
	for _, s := range append(page1.Suggestions, page2.Suggestions...) {
		assert.False(t, seen[s.LocalityID], "pages overlap on %s", s.LocalityName)
		seen[s.LocalityID] = true
		assert.True(t, want[s.LocalityID])
	}
	assert.Len(t, seen, 15)
}

func TestSuggestionsPagesAreStable(t *testing.T) {
	f := newFixture(t)
	cityID := f.city("MUMBAI", nil, nil, true)
	for _, n := range []string{"ANDHERI", "BANDRA", "COLABA", "DADAR", "FORT"} {
		f.locality(cityID, n, true)
	}

	eng := query.NewEngine(f.db)
	params := query.SuggestionsParams{Term: "", Page: 1, Limit: 3}

	first, err := eng.Suggestions(context.Background(), params)
	require.NoError(t, err)
	second, err := eng.Suggestions(context.Background(), params)
	require.NoError(t, err)

	// The page window is keyed, so repeated identical calls return the
	// same rows in the same order.
	require.Len(t, first.Suggestions, 3)
	require.Len(t, second.Suggestions, 3)
	for i := range first.Suggestions {
		assert.Equal(t, first.Suggestions[i].LocalityID, second.Suggestions[i].LocalityID)
	}
}

func TestSuggestionsMatchTermCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	cityID := f.city("KOLHAPUR", nil, nil, true)
	f.locality(cityID, "SHIVAJI PETH", true)

	eng := query.NewEngine(f.db)

	// State, city and locality names all match regardless of case.
	for _, term := range []string{"maharash", "kolha", "shivaji", "PETH"} {
		res, err := eng.Suggestions(context.Background(), query.SuggestionsParams{Term: term, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Total, "term %q", term)
	}

	res, err := eng.Suggestions(context.Background(), query.SuggestionsParams{Term: "nomatch", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Suggestions)
}

func TestSuggestionsMatchDistrictName(t *testing.T) {
	f := newFixture(t)
	district := location.District{ID: uuid.New(), StateID: f.sID, Name: "RAIGAD", Active: true}
	require.NoError(t, f.db.Create(&district).Error)
	c := location.City{ID: uuid.New(), StateID: f.sID, DistrictID: &district.ID, Name: "PANVEL", Active: true}
	require.NoError(t, f.db.Create(&c).Error)
	f.locality(c.ID, "NEW PANVEL", true)

	res, err := query.NewEngine(f.db).Suggestions(context.Background(),
		query.SuggestionsParams{Term: "raigad", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Total)
	require.NotNil(t, res.Suggestions[0].DistrictName)
	assert.Equal(t, "RAIGAD", *res.Suggestions[0].DistrictName)
}

func TestSuggestionsExcludeInactive(t *testing.T) {
	f := newFixture(t)
	cityID := f.city("MUMBAI", nil, nil, true)
	f.locality(cityID, "ANDHERI", true)
	f.locality(cityID, "BANDRA", false)
	deadCity := f.city("GHOSTTOWN", nil, nil, false)
	f.locality(deadCity, "CHURCHGATE", true)

	res, err := query.NewEngine(f.db).Suggestions(context.Background(),
		query.SuggestionsParams{Term: "", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Total)
	assert.Equal(t, "ANDHERI", res.Suggestions[0].LocalityName)
}

func TestSuggestionsDistanceSort(t *testing.T) {
	f := newFixture(t)
	near := f.city("MUMBAI", dec("19.076"), dec("72.8777"), true)
	far := f.city("NAGPUR", dec("21.1458"), dec("79.0882"), true)
	blind := f.city("BLIND", nil, nil, true)
	f.locality(far, "SITABULDI", true)
	f.locality(blind, "NOWHERE", true)
	f.locality(near, "ANDHERI", true)

	lat, lng := 19.1, 72.9
	res, err := query.NewEngine(f.db).Suggestions(context.Background(),
		query.SuggestionsParams{Term: "", Page: 1, Limit: 10, Lat: &lat, Lng: &lng})
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 3)

	assert.Equal(t, "ANDHERI", res.Suggestions[0].LocalityName)
	assert.Equal(t, "SITABULDI", res.Suggestions[1].LocalityName)
	require.NotNil(t, res.Suggestions[0].DistanceMeters)
	require.NotNil(t, res.Suggestions[1].DistanceMeters)
	assert.Less(t, *res.Suggestions[0].DistanceMeters, *res.Suggestions[1].DistanceMeters)

	// Rows whose city has no coordinates sort last and carry no distance.
	assert.Equal(t, "NOWHERE", res.Suggestions[2].LocalityName)
	assert.Nil(t, res.Suggestions[2].DistanceMeters)
}

func TestSuggestionsWithoutCoordinatesOmitDistance(t *testing.T) {
	f := newFixture(t)
	cityID := f.city("MUMBAI", dec("19.076"), dec("72.8777"), true)
	f.locality(cityID, "ANDHERI", true)

	res, err := query.NewEngine(f.db).Suggestions(context.Background(),
		query.SuggestionsParams{Term: "andheri", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 1)
	assert.Nil(t, res.Suggestions[0].DistanceMeters)
}
