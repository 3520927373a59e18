package series

import (
	"fmt"
	"math"
	"time"
)

// Series is a labelled time series sampled over a fixed set of grid points.
// Data is time-major: Data[i][p] holds the value of grid point p at Times[i].
// A single-site series has one point per row. NaN marks a missing sample.
type Series struct {
	Name  string
	Unit  string
	Times []time.Time
	Data  [][]float64
}

// New validates and constructs a Series. Times must be strictly ascending and
// every data row must have the same width. An empty time axis is allowed; the
// engine decides later whether emptiness is an error.
func New(name, unit string, times []time.Time, data [][]float64) (*Series, error) {
	if len(times) != len(data) {
		return nil, fmt.Errorf("series %q: %d timestamps but %d data rows", name, len(times), len(data))
	}
	width := -1
	for i, row := range data {
		if width == -1 {
			width = len(row)
		}
		if len(row) != width {
			return nil, fmt.Errorf("series %q: row %d has %d points, expected %d", name, i, len(row), width)
		}
	}
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return nil, fmt.Errorf("series %q: time axis not strictly ascending at index %d", name, i)
		}
	}
	return &Series{Name: name, Unit: unit, Times: times, Data: data}, nil
}

// Len returns the number of timesteps.
func (s *Series) Len() int { return len(s.Times) }

// Points returns the number of grid points, or 0 for an empty series.
func (s *Series) Points() int {
	if len(s.Data) == 0 {
		return 0
	}
	return len(s.Data[0])
}

// IsEmpty reports whether the series has no samples.
func (s *Series) IsEmpty() bool { return len(s.Times) == 0 }

// Clone returns a deep copy. Preprocessing clips series in place-of copies so
// the caller's input stays untouched.
func (s *Series) Clone() *Series {
	times := make([]time.Time, len(s.Times))
	copy(times, s.Times)
	data := make([][]float64, len(s.Data))
	for i, row := range s.Data {
		data[i] = make([]float64, len(row))
		copy(data[i], row)
	}
	return &Series{Name: s.Name, Unit: s.Unit, Times: times, Data: data}
}

// SelectRange returns the samples with start <= t < end.
func (s *Series) SelectRange(start, end time.Time) *Series {
	out := &Series{Name: s.Name, Unit: s.Unit}
	for i, t := range s.Times {
		if t.Before(start) || !t.Before(end) {
			continue
		}
		out.Times = append(out.Times, t)
		out.Data = append(out.Data, s.Data[i])
	}
	return out
}

// SelectTime returns the samples matched by the indexer, or the series itself
// when the indexer is nil.
func SelectTime(s *Series, idx *TimeIndexer) *Series {
	if idx == nil {
		return s
	}
	out := &Series{Name: s.Name, Unit: s.Unit}
	for i, t := range s.Times {
		if !idx.Contains(t) {
			continue
		}
		out.Times = append(out.Times, t)
		out.Data = append(out.Data, s.Data[i])
	}
	return out
}

// DropLeapDays removes every February 29th sample.
func (s *Series) DropLeapDays() *Series {
	out := &Series{Name: s.Name, Unit: s.Unit}
	for i, t := range s.Times {
		if t.Month() == time.February && t.Day() == 29 {
			continue
		}
		out.Times = append(out.Times, t)
		out.Data = append(out.Data, s.Data[i])
	}
	return out
}

// OnlyLeapYears keeps the samples belonging to leap years. Returns an error if
// the series contains none, since a reference reduced to nothing is useless.
func (s *Series) OnlyLeapYears() (*Series, error) {
	out := &Series{Name: s.Name, Unit: s.Unit}
	for i, t := range s.Times {
		if !isLeapYear(t.Year()) {
			continue
		}
		out.Times = append(out.Times, t)
		out.Data = append(out.Data, s.Data[i])
	}
	if out.IsEmpty() {
		return nil, fmt.Errorf("series %q contains no leap year", s.Name)
	}
	return out, nil
}

// Years returns the ordered set of calendar years with at least one sample.
func (s *Series) Years() []int {
	seen := make(map[int]bool)
	var years []int
	for _, t := range s.Times {
		y := t.Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	return years
}

// DayOfYear maps a calendar day to a stable 1..366 index. The mapping goes
// through a leap reference year, so Feb 29 is always 60 and Mar 1 is always 61
// whether or not the sample's own year is a leap year. Broadcasting a
// day-of-year value across years therefore never shifts days after February.
func DayOfYear(t time.Time) int {
	return time.Date(2000, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).YearDay()
}

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// IsMissing reports whether v is the missing-value marker.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Missing is the marker written into masked-out samples and periods.
func Missing() float64 { return math.NaN() }
