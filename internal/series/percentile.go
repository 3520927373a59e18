package series

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Interpolation selects the estimator used for percentile computation.
type Interpolation int

const (
	// InterpMedianUnbiased is Hyndman & Fan's type 8 estimator, the default
	// for day-of-year percentile thresholds.
	InterpMedianUnbiased Interpolation = iota
	// InterpLinear is the classic type 7 estimator.
	InterpLinear
)

// ParseInterpolation accepts "linear" and "median_unbiased" (with a few
// spellings). An empty string selects the default.
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "median_unbiased", "median-unbiased", "hyndman_fan", "type8":
		return InterpMedianUnbiased, nil
	case "linear", "type7":
		return InterpLinear, nil
	}
	return InterpMedianUnbiased, fmt.Errorf("unknown interpolation method %q", s)
}

func (ip Interpolation) String() string {
	if ip == InterpLinear {
		return "linear"
	}
	return "median_unbiased"
}

// Percentile computes the q-th percentile (q in 0..100) of values, ignoring
// missing samples. Returns the missing marker when no valid sample remains.
func Percentile(values []float64, q float64, interp Interpolation) float64 {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !IsMissing(v) {
			valid = append(valid, v)
		}
	}
	n := len(valid)
	if n == 0 {
		return Missing()
	}
	if n == 1 {
		return valid[0]
	}
	sort.Float64s(valid)

	p := q / 100
	var h float64
	switch interp {
	case InterpLinear:
		h = p * float64(n-1)
	default:
		// Hyndman & Fan type 8: h = (n + 1/3)p + 1/3 - 1, zero-based.
		h = (float64(n)+1.0/3.0)*p + 1.0/3.0 - 1
	}
	if h <= 0 {
		return valid[0]
	}
	if h >= float64(n-1) {
		return valid[n-1]
	}
	lo := int(math.Floor(h))
	frac := h - float64(lo)
	return valid[lo] + frac*(valid[lo+1]-valid[lo])
}

// DOYField holds a per-grid-point value for each day of year present in the
// reference sample, the resolved form of a calendar-day-indexed percentile
// threshold. Lookups go through the stable day-of-year mapping, so the field
// broadcasts correctly against leap and non-leap study years.
type DOYField struct {
	Q      float64
	Window int
	Interp Interpolation
	Values map[int][]float64
}

// At returns the field value for grid point p on the calendar day of t.
// Days absent from the reference sample resolve to the missing marker.
func (f *DOYField) At(doy, p int) float64 {
	row, ok := f.Values[doy]
	if !ok || p < 0 || p >= len(row) {
		return Missing()
	}
	return row[p]
}

// PercentileDOY computes the q-th percentile per calendar day of year over the
// reference series. For each target day the sample pools every reference year's
// values within a centered window of the given odd width; the window wraps
// across the year boundary so early-January days borrow from late December.
// excludeYear, when non-zero, leaves that calendar year out of the sample
// (the bootstrap's leave-one-out pass).
func PercentileDOY(ref *Series, q float64, window int, interp Interpolation, excludeYear int) (*DOYField, error) {
	if window < 1 || window%2 == 0 {
		return nil, fmt.Errorf("percentile window must be odd and positive, got %d", window)
	}
	if ref.IsEmpty() {
		return nil, fmt.Errorf("reference series %q is empty", ref.Name)
	}
	points := ref.Points()
	half := window / 2

	// Bucket reference samples by stable day of year.
	type sample struct {
		row []float64
	}
	buckets := make(map[int][]sample)
	for i, t := range ref.Times {
		if excludeYear != 0 && t.Year() == excludeYear {
			continue
		}
		doy := DayOfYear(t)
		buckets[doy] = append(buckets[doy], sample{row: ref.Data[i]})
	}
	if len(buckets) == 0 {
		return nil, fmt.Errorf("reference series %q has no samples left after excluding year %d", ref.Name, excludeYear)
	}

	field := &DOYField{Q: q, Window: window, Interp: interp, Values: make(map[int][]float64)}
	scratch := make([][]float64, points)
	for doy := range buckets {
		for p := range scratch {
			scratch[p] = scratch[p][:0]
		}
		for off := -half; off <= half; off++ {
			d := wrapDOY(doy + off)
			for _, smp := range buckets[d] {
				for p := 0; p < points; p++ {
					scratch[p] = append(scratch[p], smp.row[p])
				}
			}
		}
		row := make([]float64, points)
		for p := 0; p < points; p++ {
			row[p] = Percentile(scratch[p], q, interp)
		}
		field.Values[doy] = row
	}
	return field, nil
}

// wrapDOY folds a day-of-year offset back into 1..366.
func wrapDOY(d int) int {
	for d < 1 {
		d += 366
	}
	for d > 366 {
		d -= 366
	}
	return d
}
