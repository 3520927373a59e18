package job

import (
	"encoding/json"
	"math"

	"github.com/couchcryptid/climate-index-engine/internal/series"
)

// Row is one row of grid values. Missing samples travel as JSON null, since
// encoding/json refuses NaN.
type Row []float64

// MarshalJSON encodes missing values as null.
func (r Row) MarshalJSON() ([]byte, error) {
	out := make([]*float64, len(r))
	for i := range r {
		if !math.IsNaN(r[i]) {
			v := r[i]
			out[i] = &v
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes null back into the missing marker.
func (r *Row) UnmarshalJSON(data []byte) error {
	var in []*float64
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := make([]float64, len(in))
	for i, p := range in {
		if p == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *p
		}
	}
	*r = out
	return nil
}

// Grid is a time-major sequence of grid rows with the same null-for-missing
// JSON encoding.
type Grid [][]float64

func (g Grid) MarshalJSON() ([]byte, error) {
	rows := make([]Row, len(g))
	for i := range g {
		rows[i] = Row(g[i])
	}
	return json.Marshal(rows)
}

func (g *Grid) UnmarshalJSON(data []byte) error {
	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	out := make([][]float64, len(rows))
	for i := range rows {
		out[i] = rows[i]
	}
	*g = out
	return nil
}

// PercentileField is the wire form of a resolved day-of-year percentile
// field attached to a result when the job asked to save percentiles.
type PercentileField struct {
	Q             float64     `json:"q"`
	Window        int         `json:"window"`
	Interpolation string      `json:"interpolation"`
	Values        map[int]Row `json:"values"`
}

func percentileFields(src map[string]*series.DOYField) map[string]PercentileField {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]PercentileField, len(src))
	for name, f := range src {
		values := make(map[int]Row, len(f.Values))
		for doy, row := range f.Values {
			values[doy] = Row(row)
		}
		out[name] = PercentileField{
			Q:             f.Q,
			Window:        f.Window,
			Interpolation: f.Interp.String(),
			Values:        values,
		}
	}
	return out
}
