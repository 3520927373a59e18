package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResampleSum(t *testing.T) {
	t.Run("monthly grouping", func(t *testing.T) {
		s := dailySeries(t, "count", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 59, 1)

		got := ResampleSum(s, Monthly, false)
		require.Equal(t, 2, got.Len())
		assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), got.Times[0])
		assert.Equal(t, 31.0, got.Data[0][0])
		assert.Equal(t, 28.0, got.Data[1][0])
	})

	t.Run("missing poisons without skip", func(t *testing.T) {
		s := dailySeries(t, "count", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 31, 1)
		s.Data[10][0] = Missing()

		got := ResampleSum(s, Monthly, false)
		require.Equal(t, 1, got.Len())
		assert.True(t, IsMissing(got.Data[0][0]))
	})

	t.Run("skip ignores missing", func(t *testing.T) {
		s := dailySeries(t, "count", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 31, 1)
		s.Data[10][0] = Missing()

		got := ResampleSum(s, Monthly, true)
		require.Equal(t, 1, got.Len())
		assert.Equal(t, 30.0, got.Data[0][0])
	})

	t.Run("djf groups december with the following winter", func(t *testing.T) {
		s := dailySeries(t, "count", time.Date(2020, 12, 1, 0, 0, 0, 0, time.UTC), 90, 1)

		got := ResampleSum(s, DJF, false)
		require.Equal(t, 1, got.Len())
		assert.Equal(t, time.Date(2020, 12, 1, 0, 0, 0, 0, time.UTC), got.Times[0])
		assert.Equal(t, 90.0, got.Data[0][0])
	})
}

func TestPeriodCounts(t *testing.T) {
	s := dailySeries(t, "count", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 59, 1)
	s.Data[3][0] = Missing()

	jan := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)

	total := PeriodSampleCounts(s, Monthly)
	assert.Equal(t, 31, total[jan])
	assert.Equal(t, 28, total[feb])

	valid := PeriodValidCounts(s, Monthly)
	assert.Equal(t, 30, valid[jan])
	assert.Equal(t, 28, valid[feb])
}

func TestPeriodValidCountsPartialRow(t *testing.T) {
	times := []time.Time{
		time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	s, err := New("count", "1", times, [][]float64{{1, Missing()}, {1, 1}})
	require.NoError(t, err)

	// A row with any missing grid point counts as missing for the whole row.
	valid := PeriodValidCounts(s, Monthly)
	assert.Equal(t, 1, valid[time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)])
}

func TestExpectedSamples(t *testing.T) {
	t.Run("leap year", func(t *testing.T) {
		got := ExpectedSamples(Yearly, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), SamplingDaily, nil)
		assert.Equal(t, 366, got)
	})

	t.Run("non-leap year", func(t *testing.T) {
		got := ExpectedSamples(Yearly, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), SamplingDaily, nil)
		assert.Equal(t, 365, got)
	})

	t.Run("leap february", func(t *testing.T) {
		got := ExpectedSamples(Monthly, time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC), SamplingDaily, nil)
		assert.Equal(t, 29, got)
	})

	t.Run("djf over non-leap winter", func(t *testing.T) {
		got := ExpectedSamples(DJF, time.Date(2020, 12, 1, 0, 0, 0, 0, time.UTC), SamplingDaily, DJF.Indexer())
		assert.Equal(t, 90, got)
	})

	t.Run("wrapping doy window", func(t *testing.T) {
		f, err := DOYWindowFrequency(360, 5)
		require.NoError(t, err)

		start := f.PeriodStart(time.Date(2020, 12, 28, 0, 0, 0, 0, time.UTC))
		got := ExpectedSamples(f, start, SamplingDaily, f.Indexer())
		assert.Equal(t, 12, got)
	})

	t.Run("hourly", func(t *testing.T) {
		got := ExpectedSamples(Monthly, time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC), SamplingHourly, nil)
		assert.Equal(t, 30*24, got)
	})
}
