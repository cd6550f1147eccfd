package ingest

import (
	"github.com/shopspring/decimal"

	"geohier/internal/geo"
)

// Source rows are deduplicated by streaming aggregation over composite
// natural keys. Iteration order everywhere is first-seen input order,
// which makes the documented tie-breaks deterministic for identical
// input ordering.

// CityKey is the natural key of a city candidate. District is "" when the
// source carries no district information.
type CityKey struct {
	Name     string
	State    string
	District string
}

// DistrictKey is the natural key of a district candidate.
type DistrictKey struct {
	Name  string
	State string
}

// CityCandidate is one deduplicated city with its aggregated coordinates.
type CityCandidate struct {
	Key CityKey
	Lat *decimal.Decimal
	Lng *decimal.Decimal
}

// Candidates is the deduplicated per-level output of source aggregation,
// in dependency order: states, then districts, then cities.
type Candidates struct {
	States    []string
	Districts []DistrictKey
	Cities    []CityCandidate

	// SkippedRows counts source rows dropped for missing a required name.
	SkippedRows int
}

// coordAgg accumulates non-null coordinate samples per axis.
type coordAgg struct {
	latSum decimal.Decimal
	latN   int64
	lngSum decimal.Decimal
	lngN   int64
}

func (a *coordAgg) add(lat, lng *decimal.Decimal) {
	if lat != nil {
		a.latSum = a.latSum.Add(*lat)
		a.latN++
	}
	if lng != nil {
		a.lngSum = a.lngSum.Add(*lng)
		a.lngN++
	}
}

func (a *coordAgg) merge(b *coordAgg) {
	a.latSum = a.latSum.Add(b.latSum)
	a.latN += b.latN
	a.lngSum = a.lngSum.Add(b.lngSum)
	a.lngN += b.lngN
}

// mean returns the per-axis mean of the collected samples, rounded to the
// storage precision. An axis with no samples yields nil.
func (a *coordAgg) mean() (lat, lng *decimal.Decimal) {
	if a.latN > 0 {
		v := a.latSum.Div(decimal.NewFromInt(a.latN)).Round(geo.Places)
		lat = &v
	}
	if a.lngN > 0 {
		v := a.lngSum.Div(decimal.NewFromInt(a.lngN)).Round(geo.Places)
		lng = &v
	}
	return lat, lng
}

// modeCounter tracks value frequencies plus first-seen order so that
// Mode() is deterministic under ties.
type modeCounter struct {
	counts map[string]int
	order  []string
}

func newModeCounter() *modeCounter {
	return &modeCounter{counts: map[string]int{}}
}

func (m *modeCounter) add(v string) {
	if v == "" {
		return
	}
	if _, seen := m.counts[v]; !seen {
		m.order = append(m.order, v)
	}
	m.counts[v]++
}

// mode returns the most frequent non-empty value; on a frequency tie the
// value seen first wins. Empty string means no non-empty value was seen.
func (m *modeCounter) mode() string {
	best := ""
	bestCount := 0
	for _, v := range m.order {
		if m.counts[v] > bestCount {
			best = v
			bestCount = m.counts[v]
		}
	}
	return best
}

// mapperCityGroup aggregates mapper rows sharing (city, state).
type mapperCityGroup struct {
	district *modeCounter
	coords   coordAgg
}

// BuildCandidates merges both sources into deduplicated per-level
// candidate sets.
//
// Mapper rows are first grouped by (city, state): the group's district is
// the first-seen mode of the row districts, its coordinates the running
// aggregate of the row samples. Gazetteer rows carry no district. The two
// streams then meet in one city index keyed by (name, state, district);
// when the same key appears with differing coordinates across sources the
// samples are pooled and averaged.
func BuildCandidates(gazetteer []GazetteerRow, mapper []MapperRow) Candidates {
	var out Candidates

	type groupKey struct{ City, State string }
	groups := map[groupKey]*mapperCityGroup{}
	var groupOrder []groupKey
	for i := range mapper {
		r := &mapper[i]
		if r.City == "" || r.State == "" {
			out.SkippedRows++
			continue
		}
		k := groupKey{r.City, r.State}
		g, ok := groups[k]
		if !ok {
			g = &mapperCityGroup{district: newModeCounter()}
			groups[k] = g
			groupOrder = append(groupOrder, k)
		}
		g.district.add(r.District)
		g.coords.add(r.Lat, r.Lng)
	}

	cityAggs := map[CityKey]*coordAgg{}
	var cityOrder []CityKey
	addSamples := func(k CityKey, agg *coordAgg) {
		existing, ok := cityAggs[k]
		if !ok {
			existing = &coordAgg{}
			cityAggs[k] = existing
			cityOrder = append(cityOrder, k)
		}
		existing.merge(agg)
	}

	for i := range gazetteer {
		r := &gazetteer[i]
		if r.City == "" || r.State == "" {
			out.SkippedRows++
			continue
		}
		var agg coordAgg
		agg.add(r.Lat, r.Lng)
		addSamples(CityKey{Name: r.City, State: r.State}, &agg)
	}
	for _, k := range groupOrder {
		g := groups[k]
		addSamples(CityKey{Name: k.City, State: k.State, District: g.district.mode()}, &g.coords)
	}

	seenStates := map[string]bool{}
	seenDistricts := map[DistrictKey]bool{}
	for _, k := range cityOrder {
		if !seenStates[k.State] {
			seenStates[k.State] = true
			out.States = append(out.States, k.State)
		}
		if k.District != "" {
			dk := DistrictKey{Name: k.District, State: k.State}
			if !seenDistricts[dk] {
				seenDistricts[dk] = true
				out.Districts = append(out.Districts, dk)
			}
		}
		lat, lng := cityAggs[k].mean()
		out.Cities = append(out.Cities, CityCandidate{Key: k, Lat: lat, Lng: lng})
	}
	return out
}
