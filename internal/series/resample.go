package series

import (
	"sort"
	"time"
)

// ResampleSum groups the series by resampling period and sums each grid point
// within the period. When skipMissing is true, missing samples are ignored
// (their handling is deferred to the post-aggregation mask); otherwise a
// missing sample poisons its period's sum, which is how non-"skip" missing
// policies surface gaps directly in the aggregate.
func ResampleSum(s *Series, freq Frequency, skipMissing bool) *Series {
	points := s.Points()
	sums := make(map[time.Time][]float64)
	for i, t := range s.Times {
		key := freq.PeriodStart(t)
		row, ok := sums[key]
		if !ok {
			row = make([]float64, points)
			sums[key] = row
		}
		for p, v := range s.Data[i] {
			if IsMissing(row[p]) {
				continue
			}
			if IsMissing(v) {
				if skipMissing {
					continue
				}
				row[p] = Missing()
				continue
			}
			row[p] += v
		}
	}

	starts := make([]time.Time, 0, len(sums))
	for key := range sums {
		starts = append(starts, key)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	out := &Series{Name: s.Name, Unit: s.Unit, Times: starts}
	out.Data = make([][]float64, len(starts))
	for i, start := range starts {
		out.Data[i] = sums[start]
	}
	return out
}

// PeriodSampleCounts returns, per resampling period, how many samples of the
// series fall into it (missing or not). Used to convert counts to percentages
// and to evaluate per-period validity.
func PeriodSampleCounts(s *Series, freq Frequency) map[time.Time]int {
	counts := make(map[time.Time]int)
	for _, t := range s.Times {
		counts[freq.PeriodStart(t)]++
	}
	return counts
}

// PeriodValidCounts returns, per resampling period, how many non-missing
// samples the series contributes. A point-grid sample counts as valid only if
// every grid point carries a value; a partially missing row counts as missing,
// keeping the period mask conservative across the whole grid.
func PeriodValidCounts(s *Series, freq Frequency) map[time.Time]int {
	counts := make(map[time.Time]int)
	for i, t := range s.Times {
		valid := true
		for _, v := range s.Data[i] {
			if IsMissing(v) {
				valid = false
				break
			}
		}
		key := freq.PeriodStart(t)
		if _, ok := counts[key]; !ok {
			counts[key] = 0
		}
		if valid {
			counts[key]++
		}
	}
	return counts
}

// ExpectedSamples computes how many samples a series with the given native
// sampling should contribute to the period starting at periodStart, honoring
// the indexer. The walk is calendar-exact, so 31-day months, leap Februaries
// and wrapped seasonal windows all come out right.
func ExpectedSamples(freq Frequency, periodStart time.Time, native Sampling, idx *TimeIndexer) int {
	end := freq.PeriodEnd(periodStart)
	var step func(time.Time) time.Time
	switch native {
	case SamplingHourly:
		step = func(t time.Time) time.Time { return t.Add(time.Hour) }
	case SamplingMonthly:
		step = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	default:
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
	}
	n := 0
	for t := periodStart; t.Before(end); t = step(t) {
		if idx.Contains(t) {
			n++
		}
	}
	return n
}
