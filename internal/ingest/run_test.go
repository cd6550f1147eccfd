package ingest_test

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"geohier/internal/ingest"
	"geohier/internal/location"
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

func newTestRunner(t *testing.T, gdb *gorm.DB) *ingest.Runner {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return ingest.NewRunner(location.NewStore(gdb), log)
}

const gazetteerHeader = "name,state_name,country_name,latitude,longitude\n"
const mapperHeader = "statename,district,divisionname,officename,pincode,latitude,longitude\n"

func runConfig(gazetteer, mapper string) ingest.Config {
	return ingest.Config{
		GazetteerPath: gazetteer,
		MapperPath:    mapper,
		CountryName:   "India",
		CountryISO:    "IN",
	}
}

func TestRunEndToEnd(t *testing.T) {
	gazetteer := writeCSV(t, "cities.csv", gazetteerHeader+
		"MUMBAI,MAHARASHTRA,INDIA,19.0760,72.8777\n")
	mapper := writeCSV(t, "mapper.csv", mapperHeader+
		"Maharashtra,,Mumbai Division,Andheri S.O,400053,,\n")

	gdb := newTestDB(t)
	report, err := newTestRunner(t, gdb).Run(context.Background(), runConfig(gazetteer, mapper))
	require.NoError(t, err)

	assert.Equal(t, 1, report.States)
	assert.Equal(t, 0, report.Districts)
	assert.Equal(t, 1, report.Cities)
	assert.Equal(t, 1, report.Localities)

	var state location.State
	require.NoError(t, gdb.First(&state).Error)
	assert.Equal(t, "MAHARASHTRA", state.Name)

	var city location.City
	require.NoError(t, gdb.First(&city).Error)
	assert.Equal(t, "MUMBAI", city.Name)
	assert.Equal(t, state.ID, city.StateID)
	assert.Nil(t, city.DistrictID)
	require.NotNil(t, city.Lat)
	assert.Equal(t, "19.076", city.Lat.String())

	var locality location.Locality
	require.NoError(t, gdb.First(&locality).Error)
	assert.Equal(t, "ANDHERI", locality.Name)
	assert.Equal(t, city.ID, locality.CityID)
	assert.Equal(t, "400053", locality.Pincode)

	// Coordinates are inherited from the city at creation time.
	require.NotNil(t, locality.Lat)
	assert.Equal(t, "19.076", locality.Lat.String())
	require.NotNil(t, locality.Lng)
	assert.Equal(t, "72.8777", locality.Lng.String())
}

func TestRunIsIdempotent(t *testing.T) {
	gazetteer := writeCSV(t, "cities.csv", gazetteerHeader+
		"MUMBAI,MAHARASHTRA,INDIA,19.0760,72.8777\n"+
		"PUNE,MAHARASHTRA,INDIA,18.5204,73.8567\n")
	mapper := writeCSV(t, "mapper.csv", mapperHeader+
		"Maharashtra,Mumbai Suburban,Mumbai Division,Andheri S.O,400053,19.1136,72.8697\n"+
		"Maharashtra,Mumbai Suburban,Mumbai Division,Juhu B.O,400049,,\n")

	gdb := newTestDB(t)
	runner := newTestRunner(t, gdb)

	first, err := runner.Run(context.Background(), runConfig(gazetteer, mapper))
	require.NoError(t, err)
	require.Positive(t, first.Cities)

	count := func(model interface{}) int64 {
		var n int64
		require.NoError(t, gdb.Model(model).Count(&n).Error)
		return n
	}
	states, districts, cities, localities :=
		count(&location.State{}), count(&location.District{}), count(&location.City{}), count(&location.Locality{})

	second, err := runner.Run(context.Background(), runConfig(gazetteer, mapper))
	require.NoError(t, err)

	assert.Zero(t, second.States)
	assert.Zero(t, second.Districts)
	assert.Zero(t, second.Cities)
	assert.Zero(t, second.Localities)

	assert.Equal(t, states, count(&location.State{}))
	assert.Equal(t, districts, count(&location.District{}))
	assert.Equal(t, cities, count(&location.City{}))
	assert.Equal(t, localities, count(&location.Locality{}))
}

func TestRunCityNaturalKeyUniqueness(t *testing.T) {
	// The same city appears twice in the gazetteer with slightly different
	// coordinates: one row must result, carrying the mean.
	gazetteer := writeCSV(t, "cities.csv", gazetteerHeader+
		"MUMBAI,MAHARASHTRA,INDIA,19.0,72.8\n"+
		"MUMBAI,MAHARASHTRA,INDIA,19.2,72.9\n")
	mapper := writeCSV(t, "mapper.csv", mapperHeader+
		"Maharashtra,,Mumbai Division,Andheri S.O,400053,,\n")

	gdb := newTestDB(t)
	_, err := newTestRunner(t, gdb).Run(context.Background(), runConfig(gazetteer, mapper))
	require.NoError(t, err)

	var cities []location.City
	require.NoError(t, gdb.Find(&cities).Error)
	require.Len(t, cities, 1)
	assert.Equal(t, "19.1", cities[0].Lat.String())
	assert.Equal(t, "72.85", cities[0].Lng.String())
}

func TestRunDistrictHierarchy(t *testing.T) {
	gazetteer := writeCSV(t, "cities.csv", gazetteerHeader+
		"KOCHI,KERALA,INDIA,9.9312,76.2673\n")
	mapper := writeCSV(t, "mapper.csv", mapperHeader+
		"Kerala,Ernakulam,Kochi Division,Fort Kochi S.O,682001,9.9658,76.2421\n")

	gdb := newTestDB(t)
	report, err := newTestRunner(t, gdb).Run(context.Background(), runConfig(gazetteer, mapper))
	require.NoError(t, err)

	// Gazetteer and mapper disagree on the district, so two natural keys.
	assert.Equal(t, 1, report.States)
	assert.Equal(t, 1, report.Districts)
	assert.Equal(t, 2, report.Cities)

	var district location.District
	require.NoError(t, gdb.First(&district).Error)
	assert.Equal(t, "ERNAKULAM", district.Name)

	var city location.City
	require.NoError(t, gdb.Where("district_id IS NOT NULL").First(&city).Error)
	require.NotNil(t, city.DistrictID)
	assert.Equal(t, district.ID, *city.DistrictID)

	var state location.State
	require.NoError(t, gdb.First(&state, "id = ?", district.StateID).Error)
	assert.Equal(t, "KERALA", state.Name)
}

func TestRunSkipsUnresolvableRows(t *testing.T) {
	gazetteer := writeCSV(t, "cities.csv", gazetteerHeader+
		"MUMBAI,MAHARASHTRA,INDIA,19.0760,72.8777\n")
	// Second mapper row has no division name: its locality can never
	// resolve a parent city and must be skipped, not abort the run.
	mapper := writeCSV(t, "mapper.csv", mapperHeader+
		"Maharashtra,,Mumbai Division,Andheri S.O,400053,,\n"+
		"Maharashtra,,,Orphan S.O,999999,,\n")

	gdb := newTestDB(t)
	report, err := newTestRunner(t, gdb).Run(context.Background(), runConfig(gazetteer, mapper))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Localities)
	assert.Positive(t, report.Skipped)

	var localities []location.Locality
	require.NoError(t, gdb.Find(&localities).Error)
	require.Len(t, localities, 1)
	assert.Equal(t, "ANDHERI", localities[0].Name)
}

func TestRunLocalityWithoutAnyCoordinates(t *testing.T) {
	// City has no coordinates either: the locality is created with none.
	gazetteer := writeCSV(t, "cities.csv", gazetteerHeader+
		"MUMBAI,MAHARASHTRA,INDIA,,\n")
	mapper := writeCSV(t, "mapper.csv", mapperHeader+
		"Maharashtra,,Mumbai Division,Andheri S.O,400053,,\n")

	gdb := newTestDB(t)
	_, err := newTestRunner(t, gdb).Run(context.Background(), runConfig(gazetteer, mapper))
	require.NoError(t, err)

	var locality location.Locality
	require.NoError(t, gdb.First(&locality).Error)
	assert.Nil(t, locality.Lat)
	assert.Nil(t, locality.Lng)
}
