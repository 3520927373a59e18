package index

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-index-engine/internal/series"
)

// testSeries builds a single-point daily series starting at start.
func testSeries(t *testing.T, name, unit string, start time.Time, days int, value float64) *series.Series {
	t.Helper()
	times := make([]time.Time, days)
	data := make([][]float64, days)
	for i := 0; i < days; i++ {
		times[i] = start.AddDate(0, 0, i)
		data[i] = []float64{value}
	}
	s, err := series.New(name, unit, times, data)
	require.NoError(t, err)
	return s
}

// multiYearSeries builds a single-point daily series covering the first days
// of January per year, with one constant value per year.
func multiYearSeries(t *testing.T, name, unit string, days int, perYear map[int]float64) *series.Series {
	t.Helper()
	years := make([]int, 0, len(perYear))
	for y := range perYear {
		years = append(years, y)
	}
	sort.Ints(years)
	var times []time.Time
	var data [][]float64
	for _, y := range years {
		for d := 0; d < days; d++ {
			times = append(times, time.Date(y, 1, 1+d, 0, 0, 0, 0, time.UTC))
			data = append(data, []float64{perYear[y]})
		}
	}
	s, err := series.New(name, unit, times, data)
	require.NoError(t, err)
	return s
}

func TestNewPercentileThreshold(t *testing.T) {
	full := multiYearSeries(t, "tasmax", "degC", 10, map[int]float64{2000: 10, 2001: 20, 2002: 30})
	refStart := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	refEnd := time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		th, err := NewPercentileThreshold(90, full, refStart, refEnd, OpUnset, PercentileOptions{})
		require.NoError(t, err)
		assert.Equal(t, ThresholdPercentile, th.Kind)
		assert.Equal(t, DefaultPercentileWindow, th.Window)
		assert.Equal(t, 30, th.Reference.Len())
	})

	t.Run("missing endpoints", func(t *testing.T) {
		_, err := NewPercentileThreshold(90, full, time.Time{}, refEnd, OpUnset, PercentileOptions{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("inverted period", func(t *testing.T) {
		_, err := NewPercentileThreshold(90, full, refEnd, refStart, OpUnset, PercentileOptions{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("percentile out of range", func(t *testing.T) {
		_, err := NewPercentileThreshold(110, full, refStart, refEnd, OpUnset, PercentileOptions{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("even window", func(t *testing.T) {
		_, err := NewPercentileThreshold(90, full, refStart, refEnd, OpUnset, PercentileOptions{Window: 4})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("empty clip", func(t *testing.T) {
		farStart := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)
		farEnd := time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)
		_, err := NewPercentileThreshold(90, full, farStart, farEnd, OpUnset, PercentileOptions{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), "no samples")
	})

	t.Run("only leap years", func(t *testing.T) {
		th, err := NewPercentileThreshold(90, full, refStart, refEnd, OpUnset, PercentileOptions{OnlyLeapYears: true})
		require.NoError(t, err)
		assert.Equal(t, []int{2000}, th.Reference.Years())
	})
}

func TestBootstrapYears(t *testing.T) {
	full := multiYearSeries(t, "tasmax", "degC", 10, map[int]float64{2000: 10, 2001: 20, 2002: 30})
	refStart := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	refEnd := time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("overlap years", func(t *testing.T) {
		th, err := NewPercentileThreshold(90, full, refStart, refEnd, OpUnset, PercentileOptions{Bootstrap: true})
		require.NoError(t, err)
		assert.Equal(t, []int{2000, 2001}, th.BootstrapYears(full))
	})

	t.Run("disabled bootstrap", func(t *testing.T) {
		th, err := NewPercentileThreshold(90, full, refStart, refEnd, OpUnset, PercentileOptions{})
		require.NoError(t, err)
		assert.Nil(t, th.BootstrapYears(full))
	})

	t.Run("disjoint study", func(t *testing.T) {
		th, err := NewPercentileThreshold(90, full, refStart, refEnd, OpUnset, PercentileOptions{Bootstrap: true})
		require.NoError(t, err)
		study := testSeries(t, "tasmax", "degC", time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), 10, 25)
		assert.Empty(t, th.BootstrapYears(study))
	})

	t.Run("scalar threshold never bootstraps", func(t *testing.T) {
		th := NewScalarThreshold(25, "degC", OpUnset)
		assert.Nil(t, th.BootstrapYears(full))
	})
}

func TestThresholdNames(t *testing.T) {
	t.Run("scalar", func(t *testing.T) {
		th := NewScalarThreshold(35, "degC", OpUnset)
		assert.Equal(t, "35degC", th.StandardName())
		assert.Equal(t, "35 degC", th.DisplayValue())
		assert.Empty(t, th.AdditionalMetadata())
	})

	t.Run("scalar with rate unit", func(t *testing.T) {
		th := NewScalarThreshold(10, "mm/day", OpUnset)
		assert.Equal(t, "10mm_per_day", th.StandardName())
	})

	t.Run("percentile", func(t *testing.T) {
		full := multiYearSeries(t, "tasmax", "degC", 10, map[int]float64{2000: 10, 2001: 20})
		th, err := NewPercentileThreshold(90, full,
			time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC),
			OpUnset, PercentileOptions{})
		require.NoError(t, err)
		assert.Equal(t, "90th_percentile", th.StandardName())
		assert.Equal(t, "90th percentile", th.DisplayValue())
		assert.Contains(t, th.AdditionalMetadata(), "5 day window")
		assert.Contains(t, th.AdditionalMetadata(), "2000-01-01 to 2002-01-01")
	})

	t.Run("field", func(t *testing.T) {
		th, err := NewFieldThreshold([]float64{1, 2}, "degC", OpUnset)
		require.NoError(t, err)
		assert.Equal(t, "gridded_threshold", th.StandardName())
	})

	t.Run("empty field rejected", func(t *testing.T) {
		_, err := NewFieldThreshold(nil, "degC", OpUnset)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestResolver(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("scalar unit conversion", func(t *testing.T) {
		study := testSeries(t, "tasmax", "K", start, 5, 300)
		th := NewScalarThreshold(25, "degC", OpUnset)

		resolved, err := NewResolver(0).Resolve(th, study)
		require.NoError(t, err)
		assert.InDelta(t, 298.15, resolved.At(start, 0), 1e-9)
		assert.False(t, resolved.CalendarIndexed())
	})

	t.Run("field length mismatch", func(t *testing.T) {
		study := testSeries(t, "tasmax", "degC", start, 5, 30)
		th, err := NewFieldThreshold([]float64{1, 2, 3}, "degC", OpUnset)
		require.NoError(t, err)

		_, err = NewResolver(0).Resolve(th, study)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("incompatible units", func(t *testing.T) {
		study := testSeries(t, "tasmax", "degC", start, 5, 30)
		th := NewScalarThreshold(10, "mm", OpUnset)

		_, err := NewResolver(0).Resolve(th, study)
		require.Error(t, err)
	})

	t.Run("percentile resolves per day of year", func(t *testing.T) {
		full := multiYearSeries(t, "tasmax", "degC", 10, map[int]float64{2000: 10, 2001: 20, 2002: 30})
		th, err := NewPercentileThreshold(50, full,
			time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC),
			OpUnset, PercentileOptions{Window: 3})
		require.NoError(t, err)

		resolved, err := NewResolver(0).Resolve(th, full)
		require.NoError(t, err)
		assert.True(t, resolved.CalendarIndexed())
		require.NotNil(t, resolved.DOYField())
		assert.InDelta(t, 20, resolved.At(time.Date(2010, 1, 5, 0, 0, 0, 0, time.UTC), 0), 1e-9)
	})

	t.Run("cache returns the same field", func(t *testing.T) {
		full := multiYearSeries(t, "tasmax", "degC", 10, map[int]float64{2000: 10, 2001: 20})
		th, err := NewPercentileThreshold(50, full,
			time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC),
			OpUnset, PercentileOptions{})
		require.NoError(t, err)

		r := NewResolver(8)
		first, err := r.Resolve(th, full)
		require.NoError(t, err)
		second, err := r.Resolve(th, full)
		require.NoError(t, err)
		assert.Same(t, first.DOYField(), second.DOYField())
	})
}

func TestPercentileCacheEviction(t *testing.T) {
	c := newPercentileCache(2)
	a := &series.DOYField{Q: 1}
	b := &series.DOYField{Q: 2}
	d := &series.DOYField{Q: 3}

	c.put("a", a)
	c.put("b", b)

	// Touch "a" so "b" is the eviction candidate.
	_, ok := c.get("a")
	require.True(t, ok)

	c.put("d", d)

	_, ok = c.get("b")
	assert.False(t, ok)
	got, ok := c.get("a")
	require.True(t, ok)
	assert.Same(t, a, got)
	got, ok = c.get("d")
	require.True(t, ok)
	assert.Same(t, d, got)
}
