package series

import (
	"fmt"
	"strings"
)

// unitDef describes a unit as a linear transform into its family's base unit:
// base = value*scale + offset.
type unitDef struct {
	family string
	scale  float64
	offset float64
}

// unitTable covers the unit families the engine's indices use. Temperature
// converts through kelvin, precipitation amounts through millimetres,
// precipitation rates through mm/day and wind speed through m/s.
var unitTable = map[string]unitDef{
	"K":      {family: "temperature", scale: 1},
	"degC":   {family: "temperature", scale: 1, offset: 273.15},
	"degF":   {family: "temperature", scale: 5.0 / 9.0, offset: 255.372222},
	"mm":     {family: "precipitation", scale: 1},
	"cm":     {family: "precipitation", scale: 10},
	"m":      {family: "precipitation", scale: 1000},
	"mm/day": {family: "precipitation_rate", scale: 1},
	"mm/h":   {family: "precipitation_rate", scale: 24},
	"m/s":    {family: "wind_speed", scale: 1},
	"km/h":   {family: "wind_speed", scale: 1.0 / 3.6},
}

// unitAliases maps spellings seen in CF files and user input onto the
// canonical keys of unitTable.
var unitAliases = map[string]string{
	"kelvin":     "K",
	"celsius":    "degC",
	"°c":         "degC",
	"deg_c":      "degC",
	"fahrenheit": "degF",
	"°f":         "degF",
	"mm/d":       "mm/day",
	"mm d-1":     "mm/day",
	"kg m-2 s-1": "", // mass flux needs density assumptions the engine does not make
}

// CanonicalUnit normalizes a unit spelling. Unknown units are returned
// unchanged; conversion then only succeeds between identical spellings.
func CanonicalUnit(u string) string {
	trimmed := strings.TrimSpace(u)
	if _, ok := unitTable[trimmed]; ok {
		return trimmed
	}
	if alias, ok := unitAliases[strings.ToLower(trimmed)]; ok && alias != "" {
		return alias
	}
	return trimmed
}

// ConvertValue converts a scalar between units. Identical units convert as the
// identity even when unknown to the table; cross-family or unknown conversions
// are errors.
func ConvertValue(v float64, from, to string) (float64, error) {
	from, to = CanonicalUnit(from), CanonicalUnit(to)
	if from == to {
		return v, nil
	}
	fd, okFrom := unitTable[from]
	td, okTo := unitTable[to]
	if !okFrom || !okTo {
		return 0, fmt.Errorf("cannot convert %q to %q: unknown unit", from, to)
	}
	if fd.family != td.family {
		return 0, fmt.Errorf("cannot convert %q (%s) to %q (%s)", from, fd.family, to, td.family)
	}
	base := v*fd.scale + fd.offset
	return (base - td.offset) / td.scale, nil
}

// ConvertUnits returns a copy of the series expressed in the target unit.
// Missing samples stay missing.
func ConvertUnits(s *Series, target string) (*Series, error) {
	from, to := CanonicalUnit(s.Unit), CanonicalUnit(target)
	if from == to {
		return s, nil
	}
	// Probe once so a bad conversion fails before any copying.
	if _, err := ConvertValue(0, from, to); err != nil {
		return nil, fmt.Errorf("series %q: %w", s.Name, err)
	}
	out := s.Clone()
	out.Unit = to
	for i, row := range out.Data {
		for p, v := range row {
			if IsMissing(v) {
				continue
			}
			converted, err := ConvertValue(v, from, to)
			if err != nil {
				return nil, fmt.Errorf("series %q: %w", s.Name, err)
			}
			out.Data[i][p] = converted
		}
	}
	return out, nil
}
