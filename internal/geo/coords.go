package geo

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Axis tags which coordinate a raw value claims to be, since latitude and
// longitude have different valid ranges.
type Axis int

const (
	Lat Axis = iota
	Lng
)

// Places is the fixed-point precision coordinates are stored with
// (numeric(9,6) in the database).
const Places = 6

var (
	scaleDivisor = decimal.NewFromInt(1_000_000)
	maxLat       = decimal.NewFromInt(90)
	maxLng       = decimal.NewFromInt(180)
)

// Normalize cleans a raw coordinate value from a source file.
//
// Some source systems emit fixed-point integers without a decimal point
// (e.g. 81282380 meaning 81.282380); any magnitude above 180 is undone by
// dividing by 1e6. The corrected value is range-checked per axis and
// rounded to exactly 6 decimal places with decimal arithmetic, so the
// persisted value does not depend on binary float rounding.
//
// Unparsable or out-of-range input returns ok=false, never an error.
func Normalize(raw string, axis Axis) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}

	if d.Abs().GreaterThan(maxLng) {
		d = d.Div(scaleDivisor)
	}

	limit := maxLng
	if axis == Lat {
		limit = maxLat
	}
	if d.Abs().GreaterThan(limit) {
		return decimal.Decimal{}, false
	}

	return d.Round(Places), true
}
