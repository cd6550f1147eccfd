package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"geohier/internal/geo"
	"geohier/internal/location"
)

// GazetteerRow is one city row from the primary gazetteer export, already
// filtered to the target country and name-normalized.
type GazetteerRow struct {
	City  string
	State string
	Lat   *decimal.Decimal
	Lng   *decimal.Decimal
}

// MapperRow is one office row from the postal-code mapper export. City is
// derived from the division name, Locality from the office name.
type MapperRow struct {
	State    string
	District string
	City     string
	Locality string
	Pincode  string
	Lat      *decimal.Decimal
	Lng      *decimal.Decimal
}

// officeSuffixes are the postal office-type markers trailing office names
// ("ANDHERI S.O" → "ANDHERI"). Dotted variants listed first.
var officeSuffixes = []string{" B.O", " H.O", " S.O", " BO", " HO", " SO"}

const divisionSuffix = " DIVISION"

func readTable(path string, required []string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	// A header with no data rows is an empty source, not an error.
	if len(records) == 0 {
		return nil, errors.New("csv has no header row")
	}

	header := records[0]
	// Handle BOM on the first header cell.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(strings.ToLower(h))] = i
	}
	for _, k := range required {
		if _, ok := col[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(col))
		for name, i := range col {
			if i < len(rec) {
				row[name] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadGazetteer loads the gazetteer CSV, keeping only rows whose
// country_name matches country case-insensitively.
func ReadGazetteer(path, country string) ([]GazetteerRow, error) {
	raw, err := readTable(path, []string{"name", "state_name", "country_name", "latitude", "longitude"})
	if err != nil {
		return nil, err
	}

	country = location.NormalizeName(country)
	var rows []GazetteerRow
	for _, r := range raw {
		if location.NormalizeName(r["country_name"]) != country {
			continue
		}
		rows = append(rows, GazetteerRow{
			City:  location.NormalizeName(r["name"]),
			State: location.NormalizeName(r["state_name"]),
			Lat:   normalizeCoord(r["latitude"], geo.Lat),
			Lng:   normalizeCoord(r["longitude"], geo.Lng),
		})
	}
	return rows, nil
}

// ReadMapper loads the postal mapper CSV.
func ReadMapper(path string) ([]MapperRow, error) {
	raw, err := readTable(path, []string{"statename", "district", "divisionname", "officename", "pincode", "latitude", "longitude"})
	if err != nil {
		return nil, err
	}

	rows := make([]MapperRow, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, MapperRow{
			State:    location.NormalizeName(r["statename"]),
			District: location.NormalizeName(r["district"]),
			City:     stripTrailing(location.NormalizeName(r["divisionname"]), divisionSuffix),
			Locality: stripTrailing(location.NormalizeName(r["officename"]), officeSuffixes...),
			Pincode:  r["pincode"],
			Lat:      normalizeCoord(r["latitude"], geo.Lat),
			Lng:      normalizeCoord(r["longitude"], geo.Lng),
		})
	}
	return rows, nil
}

func normalizeCoord(raw string, axis geo.Axis) *decimal.Decimal {
	d, ok := geo.Normalize(raw, axis)
	if !ok {
		return nil
	}
	return &d
}

// stripTrailing removes the first matching suffix token and re-trims.
func stripTrailing(s string, suffixes ...string) string {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return strings.TrimSpace(strings.TrimSuffix(s, suf))
		}
	}
	return s
}
