package series

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SliceMode enumerates the resampling granularities the engine supports.
type SliceMode int

const (
	SliceYear SliceMode = iota
	SliceMonth
	SliceDJF
	SliceMAM
	SliceJJA
	SliceSON
	SliceMonths    // yearly periods restricted to a custom month set
	SliceDOYWindow // yearly periods restricted to a day-of-year window
)

// TimeIndexer restricts a computation to part of the calendar. Either Months
// is non-empty or DOYStart/DOYEnd are set (1..366, inclusive; a window with
// DOYStart > DOYEnd wraps across the new year).
type TimeIndexer struct {
	Months   []time.Month
	DOYStart int
	DOYEnd   int
}

// Contains reports whether t falls inside the indexer.
func (ix *TimeIndexer) Contains(t time.Time) bool {
	if ix == nil {
		return true
	}
	if len(ix.Months) > 0 {
		m := t.Month()
		for _, want := range ix.Months {
			if m == want {
				return true
			}
		}
		return false
	}
	if ix.DOYStart != 0 || ix.DOYEnd != 0 {
		doy := DayOfYear(t)
		if ix.DOYStart <= ix.DOYEnd {
			return doy >= ix.DOYStart && doy <= ix.DOYEnd
		}
		return doy >= ix.DOYStart || doy <= ix.DOYEnd
	}
	return true
}

// Frequency is a resampling specification: a slice mode plus the derived
// time-indexer and a human-readable description used in rendered metadata.
// Frequencies are immutable and shared by reference across one computation.
type Frequency struct {
	mode        SliceMode
	indexer     *TimeIndexer
	description string
}

var (
	Yearly  = Frequency{mode: SliceYear, description: "year"}
	Monthly = Frequency{mode: SliceMonth, description: "month"}
	DJF     = seasonFrequency(SliceDJF, "DJF season", time.December, time.January, time.February)
	MAM     = seasonFrequency(SliceMAM, "MAM season", time.March, time.April, time.May)
	JJA     = seasonFrequency(SliceJJA, "JJA season", time.June, time.July, time.August)
	SON     = seasonFrequency(SliceSON, "SON season", time.September, time.October, time.November)
)

func seasonFrequency(mode SliceMode, description string, months ...time.Month) Frequency {
	return Frequency{
		mode:        mode,
		indexer:     &TimeIndexer{Months: months},
		description: description,
	}
}

// MonthsFrequency builds a yearly resampling restricted to the given months,
// e.g. months 6,7,8 for an extended summer window.
func MonthsFrequency(months []time.Month) (Frequency, error) {
	if len(months) == 0 {
		return Frequency{}, fmt.Errorf("custom month frequency needs at least one month")
	}
	for _, m := range months {
		if m < time.January || m > time.December {
			return Frequency{}, fmt.Errorf("invalid month %d", m)
		}
	}
	names := make([]string, len(months))
	for i, m := range months {
		names[i] = m.String()[:3]
	}
	return Frequency{
		mode:        SliceMonths,
		indexer:     &TimeIndexer{Months: months},
		description: fmt.Sprintf("%s season", strings.Join(names, "-")),
	}, nil
}

// DOYWindowFrequency builds a yearly resampling restricted to a day-of-year
// window (1..366 inclusive). A start greater than the end wraps the window
// across the new year.
func DOYWindowFrequency(start, end int) (Frequency, error) {
	if start < 1 || start > 366 || end < 1 || end > 366 {
		return Frequency{}, fmt.Errorf("day-of-year window %d-%d out of range 1..366", start, end)
	}
	return Frequency{
		mode:        SliceDOYWindow,
		indexer:     &TimeIndexer{DOYStart: start, DOYEnd: end},
		description: fmt.Sprintf("days %d-%d window", start, end),
	}, nil
}

// LookupFrequency parses a frequency spec string:
//
//	"year" | "month" | "djf" | "mam" | "jja" | "son"
//	"months:6,7,8"   custom month set
//	"doy:196-226"    custom day-of-year window
func LookupFrequency(spec string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(spec)) {
	case "year", "yearly", "annual", "ys":
		return Yearly, nil
	case "month", "monthly", "ms":
		return Monthly, nil
	case "djf", "winter":
		return DJF, nil
	case "mam", "spring":
		return MAM, nil
	case "jja", "summer":
		return JJA, nil
	case "son", "autumn", "fall":
		return SON, nil
	}
	lower := strings.ToLower(strings.TrimSpace(spec))
	if rest, ok := strings.CutPrefix(lower, "months:"); ok {
		var months []time.Month
		for _, part := range strings.Split(rest, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return Frequency{}, fmt.Errorf("invalid frequency %q: bad month %q", spec, part)
			}
			months = append(months, time.Month(n))
		}
		return MonthsFrequency(months)
	}
	if rest, ok := strings.CutPrefix(lower, "doy:"); ok {
		bounds := strings.SplitN(rest, "-", 2)
		if len(bounds) != 2 {
			return Frequency{}, fmt.Errorf("invalid frequency %q: expected doy:<start>-<end>", spec)
		}
		start, err1 := strconv.Atoi(strings.TrimSpace(bounds[0]))
		end, err2 := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err1 != nil || err2 != nil {
			return Frequency{}, fmt.Errorf("invalid frequency %q: bad day-of-year bounds", spec)
		}
		return DOYWindowFrequency(start, end)
	}
	return Frequency{}, fmt.Errorf("unknown frequency %q", spec)
}

// Indexer returns the frequency's time restriction, nil when the whole
// calendar participates.
func (f Frequency) Indexer() *TimeIndexer { return f.indexer }

// Description returns the human-readable form used in rendered metadata.
func (f Frequency) Description() string { return f.description }

// Mode returns the slice mode.
func (f Frequency) Mode() SliceMode { return f.mode }

// PeriodStart returns the start of the resampling period containing t.
// Season months before the wrap point (December for DJF, or the leading
// months of a wrapping custom set) are assigned to the period anchored in
// their own year; trailing months belong to the period anchored the year
// before, so one winter stays one period.
func (f Frequency) PeriodStart(t time.Time) time.Time {
	y := t.Year()
	switch f.mode {
	case SliceYear:
		return date(y, time.January, 1)
	case SliceMonth:
		return date(y, t.Month(), 1)
	case SliceDJF:
		if t.Month() == time.December {
			return date(y, time.December, 1)
		}
		return date(y-1, time.December, 1)
	case SliceMAM:
		return date(y, time.March, 1)
	case SliceJJA:
		return date(y, time.June, 1)
	case SliceSON:
		return date(y, time.September, 1)
	case SliceMonths:
		first, wrapped := splitWrappingMonths(f.indexer.Months)
		if wrapped != nil && monthIn(t.Month(), wrapped) {
			return date(y-1, first, 1)
		}
		return date(y, first, 1)
	case SliceDOYWindow:
		start, end := f.indexer.DOYStart, f.indexer.DOYEnd
		if start > end && DayOfYear(t) <= end {
			// Wrapped window: days at the start of the year close the period
			// opened the year before.
			return doyDate(y-1, start)
		}
		return doyDate(y, start)
	}
	return date(y, time.January, 1)
}

// PeriodEnd returns the exclusive end of the period starting at start.
func (f Frequency) PeriodEnd(start time.Time) time.Time {
	switch f.mode {
	case SliceYear:
		return start.AddDate(1, 0, 0)
	case SliceMonth:
		return start.AddDate(0, 1, 0)
	case SliceDJF, SliceMAM, SliceJJA, SliceSON:
		return start.AddDate(0, 3, 0)
	case SliceMonths, SliceDOYWindow:
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(1, 0, 0)
}

// splitWrappingMonths returns the anchor month of a custom month set and, when
// the set wraps the new year (e.g. 11,12,1,2), the trailing months that belong
// to the previous period.
func splitWrappingMonths(months []time.Month) (time.Month, []time.Month) {
	sorted := append([]time.Month(nil), months...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	// A wrapping set is contiguous modulo 12 but has a gap in plain order:
	// 1,2,11,12 gaps between 2 and 11, anchor November.
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] > 1 {
			if sorted[len(sorted)-1] == time.December && sorted[0] == time.January {
				return sorted[i], sorted[:i]
			}
		}
	}
	return sorted[0], nil
}

func monthIn(m time.Month, set []time.Month) bool {
	for _, want := range set {
		if m == want {
			return true
		}
	}
	return false
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// doyDate maps a stable day-of-year index back to a concrete date in year y.
// Index 60 (Feb 29) lands on Feb 28 in non-leap years.
func doyDate(y, doy int) time.Time {
	ref := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
	d := ref.Day()
	if ref.Month() == time.February && d == 29 && !isLeapYear(y) {
		d = 28
	}
	return time.Date(y, ref.Month(), d, 0, 0, 0, 0, time.UTC)
}
