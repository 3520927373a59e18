package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-index-engine/internal/series"
)

func TestCatalogLookup(t *testing.T) {
	catalog, err := DefaultCatalog(nil)
	require.NoError(t, err)

	t.Run("operator family", func(t *testing.T) {
		for _, name := range []string{"greater", "greater_or_equal", "lower", "lower_or_equal", "equal"} {
			ind := catalog.Lookup(name)
			require.NotNil(t, ind, name)
			assert.Equal(t, name, ind.ShortName())
		}
	})

	t.Run("presets", func(t *testing.T) {
		for _, name := range []string{"su", "tr", "fd", "id", "tx90p", "tn10p", "r10mm", "r20mm"} {
			require.NotNil(t, catalog.Lookup(name), name)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		ind := catalog.Lookup("SU")
		require.NotNil(t, ind)
		assert.Equal(t, "su", ind.ShortName())
	})

	t.Run("unknown returns nil", func(t *testing.T) {
		assert.Nil(t, catalog.Lookup("wsdi"))
	})

	t.Run("names are sorted", func(t *testing.T) {
		names := catalog.Names()
		assert.Contains(t, names, "su")
		assert.Contains(t, names, "tx90p")
		for i := 1; i < len(names); i++ {
			assert.LessOrEqual(t, names[i-1], names[i])
		}
	})
}

func TestCatalogRegisterOverwrites(t *testing.T) {
	c := NewCatalog()
	first, err := NewCountEventComparedToThreshold("custom", OpGreater, MissingPolicy{Method: MissingFromContext})
	require.NoError(t, err)
	second, err := NewCountEventComparedToThreshold("custom", OpLower, MissingPolicy{Method: MissingFromContext})
	require.NoError(t, err)

	c.Register("custom", first)
	c.Register("custom", second)

	got, ok := c.Lookup("custom").(*CountEventComparedToThreshold)
	require.True(t, ok)
	assert.Equal(t, OpLower, got.Operator())
}

func TestSummerDaysPreset(t *testing.T) {
	catalog, err := DefaultCatalog(nil)
	require.NoError(t, err)
	su := catalog.Lookup("su")
	require.NotNil(t, su)

	// July at 20 degC with a five day hot spell.
	study := testSeries(t, "tasmax", "degC", time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC), 31, 20)
	for d := 5; d < 10; d++ {
		study.Data[d][0] = 28
	}

	result, err := su.Compute(&Config{
		Variables: []*ClimateVariable{{Name: "tasmax", Study: study}},
		Frequency: series.Monthly,
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Series.Len())
	assert.Equal(t, 5.0, result.Series.Data[0][0])
	assert.Equal(t, "days_when_tasmax_above_25degC", result.Metadata.Identifier)
}

func TestFrostDaysPreset(t *testing.T) {
	catalog, err := DefaultCatalog(nil)
	require.NoError(t, err)
	fd := catalog.Lookup("fd")
	require.NotNil(t, fd)

	// Study in kelvin: the preset's 0 degC default must convert.
	study := testSeries(t, "tasmin", "K", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 31, 275)
	for d := 0; d < 12; d++ {
		study.Data[d][0] = 270
	}

	result, err := fd.Compute(&Config{
		Variables: []*ClimateVariable{{Name: "tasmin", Study: study}},
		Frequency: series.Monthly,
	})
	require.NoError(t, err)
	assert.Equal(t, 12.0, result.Series.Data[0][0])
}

func TestWetDaysPreset(t *testing.T) {
	catalog, err := DefaultCatalog(nil)
	require.NoError(t, err)
	r10 := catalog.Lookup("r10mm")
	require.NotNil(t, r10)

	study := testSeries(t, "pr", "mm/day", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 31, 2)
	study.Data[3][0] = 10 // boundary day counts: the preset compares >=
	study.Data[7][0] = 25

	result, err := r10.Compute(&Config{
		Variables: []*ClimateVariable{{Name: "pr", Study: study}},
		Frequency: series.Monthly,
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, result.Series.Data[0][0])
}

func TestPercentilePresetNeedsReferencePeriod(t *testing.T) {
	catalog, err := DefaultCatalog(nil)
	require.NoError(t, err)
	tx90p := catalog.Lookup("tx90p")
	require.NotNil(t, tx90p)

	study := testSeries(t, "tasmax", "degC", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 31, 20)

	t.Run("missing reference period", func(t *testing.T) {
		_, err := tx90p.Compute(&Config{
			Variables: []*ClimateVariable{{Name: "tasmax", Study: study}},
			Frequency: series.Monthly,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("with reference period", func(t *testing.T) {
		full := multiYearSeries(t, "tasmax", "degC", 10, map[int]float64{2000: 10, 2001: 20, 2002: 30})
		result, err := tx90p.Compute(&Config{
			Variables: []*ClimateVariable{{Name: "tasmax", Study: full}},
			Frequency: series.Yearly,
			RefStart:  time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
			RefEnd:    time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.Equal(t, 3, result.Series.Len())
		// The preset bootstraps, so the warmest reference year still counts.
		assert.Equal(t, 10.0, result.Series.Data[2][0])
	})
}

func TestRegisterComparisonsPropagatesErrors(t *testing.T) {
	c := NewCatalog()
	err := c.RegisterComparisons(func(op Operator) (Indicator, error) {
		return NewCountEventComparedToThreshold(op.ShortName(), OpUnset, MissingPolicy{Method: MissingFromContext})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}
