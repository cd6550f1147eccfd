package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"geohier/internal/location"
)

// DefaultBatchSize bounds each INSERT chunk during reconciliation.
const DefaultBatchSize = 500

// Config describes one reconciliation run.
type Config struct {
	GazetteerPath string
	MapperPath    string
	CountryName   string
	CountryISO    string
	BatchSize     int
	Progress      bool
}

// Report summarizes what a run created and what it had to skip.
type Report struct {
	States     int
	Districts  int
	Cities     int
	Localities int
	Skipped    int
}

// Runner reconciles the raw sources into the canonical hierarchy. It is a
// sequential batch job: levels are processed strictly in dependency order
// (state → district → city → locality) inside a single transaction, so an
// interrupted run leaves the store untouched. Re-running against a
// populated store creates zero new rows.
type Runner struct {
	store *location.Store
	log   *logrus.Logger
}

func NewRunner(store *location.Store, log *logrus.Logger) *Runner {
	return &Runner{store: store, log: log}
}

// Run executes one full reconciliation. Data-quality problems are skipped
// at row granularity with a warning; any store error aborts and rolls back
// the whole run.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Report, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	gazetteer, err := ReadGazetteer(cfg.GazetteerPath, cfg.CountryName)
	if err != nil {
		return nil, fmt.Errorf("gazetteer source: %w", err)
	}
	mapper, err := ReadMapper(cfg.MapperPath)
	if err != nil {
		return nil, fmt.Errorf("mapper source: %w", err)
	}
	r.log.WithFields(logrus.Fields{
		"gazetteer_rows": len(gazetteer),
		"mapper_rows":    len(mapper),
	}).Info("sources loaded")

	candidates := BuildCandidates(gazetteer, mapper)
	if candidates.SkippedRows > 0 {
		r.log.WithField("rows", candidates.SkippedRows).Warn("source rows skipped: missing city or state name")
	}

	report := &Report{Skipped: candidates.SkippedRows}

	bar := progressbar.DefaultSilent(0)
	if cfg.Progress {
		total := len(candidates.States) + len(candidates.Districts) + len(candidates.Cities) + len(mapper)
		bar = progressbar.Default(int64(total), "reconciling")
	}

	err = r.store.Transaction(ctx, func(s *location.Store) error {
		country, err := s.EnsureCountry(ctx, cfg.CountryName, cfg.CountryISO)
		if err != nil {
			return err
		}
		cache := NewHierarchyCache(s, country.ID)

		if err := r.reconcileStates(ctx, s, cache, country.ID, candidates.States, cfg.BatchSize, report, bar); err != nil {
			return err
		}
		if err := r.reconcileDistricts(ctx, s, cache, candidates.Districts, cfg.BatchSize, report, bar); err != nil {
			return err
		}
		if err := r.reconcileCities(ctx, s, cache, candidates.Cities, cfg.BatchSize, report, bar); err != nil {
			return err
		}
		return r.reconcileLocalities(ctx, s, cache, mapper, cfg.BatchSize, report, bar)
	})
	if err != nil {
		return nil, err
	}

	r.log.WithFields(logrus.Fields{
		"states":     report.States,
		"districts":  report.Districts,
		"cities":     report.Cities,
		"localities": report.Localities,
		"skipped":    report.Skipped,
	}).Info("reconciliation committed")
	return report, nil
}

func (r *Runner) reconcileStates(ctx context.Context, s *location.Store, cache *HierarchyCache, countryID uuid.UUID, names []string, batchSize int, report *Report, bar *progressbar.ProgressBar) error {
	var batch []location.State
	for _, name := range names {
		bar.Add(1)
		if _, ok, err := cache.ResolveState(ctx, name); err != nil {
			return err
		} else if ok {
			continue
		}
		state := location.State{ID: uuid.New(), CountryID: countryID, Name: name, Active: true}
		cache.RegisterState(name, state.ID)
		batch = append(batch, state)
	}
	if len(batch) > 0 {
		if err := s.CreateInBatches(ctx, batch, batchSize); err != nil {
			return fmt.Errorf("insert states: %w", err)
		}
	}
	report.States = len(batch)
	return nil
}

func (r *Runner) reconcileDistricts(ctx context.Context, s *location.Store, cache *HierarchyCache, keys []DistrictKey, batchSize int, report *Report, bar *progressbar.ProgressBar) error {
	var batch []location.District
	for _, key := range keys {
		bar.Add(1)
		stateID, ok, err := cache.ResolveState(ctx, key.State)
		if err != nil {
			return err
		}
		if !ok {
			r.log.WithFields(logrus.Fields{"district": key.Name, "state": key.State}).
				Warn("district skipped: state not resolved")
			report.Skipped++
			continue
		}
		if _, ok, err := cache.ResolveDistrict(ctx, key); err != nil {
			return err
		} else if ok {
			continue
		}
		district := location.District{ID: uuid.New(), StateID: stateID, Name: key.Name, Active: true}
		cache.RegisterDistrict(key, district.ID)
		batch = append(batch, district)
	}
	if len(batch) > 0 {
		if err := s.CreateInBatches(ctx, batch, batchSize); err != nil {
			return fmt.Errorf("insert districts: %w", err)
		}
	}
	report.Districts = len(batch)
	return nil
}

func (r *Runner) reconcileCities(ctx context.Context, s *location.Store, cache *HierarchyCache, cands []CityCandidate, batchSize int, report *Report, bar *progressbar.ProgressBar) error {
	var batch []location.City
	for _, cand := range cands {
		bar.Add(1)
		stateID, ok, err := cache.ResolveState(ctx, cand.Key.State)
		if err != nil {
			return err
		}
		if !ok {
			r.log.WithFields(logrus.Fields{"city": cand.Key.Name, "state": cand.Key.State}).
				Warn("city skipped: state not resolved")
			report.Skipped++
			continue
		}

		// District is an optional parent: a miss degrades the city to
		// district-less rather than skipping it.
		var districtID *uuid.UUID
		if cand.Key.District != "" {
			if id, ok := cache.DistrictID(DistrictKey{Name: cand.Key.District, State: cand.Key.State}); ok {
				districtID = &id
			}
		}

		if _, ok, err := cache.ResolveCity(ctx, cand.Key, stateID, districtID); err != nil {
			return err
		} else if ok {
			continue
		}
		city := location.City{
			ID:         uuid.New(),
			StateID:    stateID,
			DistrictID: districtID,
			Name:       cand.Key.Name,
			Lat:        cand.Lat,
			Lng:        cand.Lng,
			Active:     true,
		}
		cache.RegisterCity(cand.Key, city.ID, cand.Lat, cand.Lng)
		batch = append(batch, city)
	}
	if len(batch) > 0 {
		if err := s.CreateInBatches(ctx, batch, batchSize); err != nil {
			return fmt.Errorf("insert cities: %w", err)
		}
	}
	report.Cities = len(batch)
	return nil
}

func (r *Runner) reconcileLocalities(ctx context.Context, s *location.Store, cache *HierarchyCache, mapper []MapperRow, batchSize int, report *Report, bar *progressbar.ProgressBar) error {
	var batch []location.Locality
	for i := range mapper {
		bar.Add(1)
		row := &mapper[i]
		if row.Locality == "" {
			r.log.WithFields(logrus.Fields{"city": row.City, "pincode": row.Pincode}).
				Warn("locality skipped: empty name")
			report.Skipped++
			continue
		}

		// The city key uses the row's own district, not the group mode:
		// minority-district rows that never produced a city candidate are
		// unresolved parents and are skipped.
		cityID, ok := cache.CityID(CityKey{Name: row.City, State: row.State, District: row.District})
		if !ok {
			r.log.WithFields(logrus.Fields{"locality": row.Locality, "city": row.City, "district": row.District}).
				Warn("locality skipped: city not resolved")
			report.Skipped++
			continue
		}

		if _, ok, err := cache.ResolveLocality(ctx, cityID, row.Locality); err != nil {
			return err
		} else if ok {
			continue
		}

		lat, lng := row.Lat, row.Lng
		if lat == nil || lng == nil {
			// One-time inheritance of the parent city's coordinates. If
			// the city has none either, the locality stays coordinate-less.
			if clat, clng, ok := cache.CityCoords(cityID); ok {
				lat, lng = cloneCoord(clat), cloneCoord(clng)
			}
		}

		locality := location.Locality{
			ID:      uuid.New(),
			CityID:  cityID,
			Name:    row.Locality,
			Pincode: row.Pincode,
			Lat:     lat,
			Lng:     lng,
			Active:  true,
		}
		cache.RegisterLocality(cityID, row.Locality, locality.ID)
		batch = append(batch, locality)
	}
	if len(batch) > 0 {
		if err := s.CreateInBatches(ctx, batch, batchSize); err != nil {
			return fmt.Errorf("insert localities: %w", err)
		}
	}
	report.Localities = len(batch)
	return nil
}

func cloneCoord(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
