package series

import (
	"fmt"
	"strings"
	"time"
)

// Sampling is the native spacing of a source series' time axis.
type Sampling int

const (
	SamplingUnknown Sampling = iota
	SamplingHourly
	SamplingDaily
	SamplingMonthly
)

// ParseSampling parses a declared source sampling frequency. An empty string
// means undeclared, which skips the consistency check.
func ParseSampling(s string) (Sampling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SamplingUnknown, nil
	case "hour", "hourly", "h", "1h":
		return SamplingHourly, nil
	case "day", "daily", "d", "1d":
		return SamplingDaily, nil
	case "month", "monthly", "ms", "1m":
		return SamplingMonthly, nil
	}
	return SamplingUnknown, fmt.Errorf("unknown sampling frequency %q", s)
}

func (s Sampling) String() string {
	switch s {
	case SamplingHourly:
		return "hourly"
	case SamplingDaily:
		return "daily"
	case SamplingMonthly:
		return "monthly"
	}
	return "unknown"
}

// CountUnits returns the dimensionless unit an aggregated count of timesteps
// carries for this sampling, e.g. a sum of daily exceedances is in "days".
func (s Sampling) CountUnits() string {
	switch s {
	case SamplingHourly:
		return "hours"
	case SamplingDaily:
		return "days"
	case SamplingMonthly:
		return "months"
	}
	return "timesteps"
}

// matches reports whether the spacing between two consecutive samples is
// consistent with the sampling.
func (s Sampling) matches(gap time.Duration) bool {
	switch s {
	case SamplingHourly:
		return gap == time.Hour
	case SamplingDaily:
		return gap == 24*time.Hour
	case SamplingMonthly:
		return gap >= 28*24*time.Hour && gap <= 31*24*time.Hour
	}
	return true
}

// classifyGap names the observed spacing for error messages.
func classifyGap(gap time.Duration) string {
	switch {
	case gap == time.Hour:
		return "hourly"
	case gap == 24*time.Hour:
		return "daily"
	case gap >= 28*24*time.Hour && gap <= 31*24*time.Hour:
		return "monthly"
	}
	return gap.String()
}

// CheckSampling verifies that the observed spacing of a series' time axis
// matches the declared sampling. Series with three or fewer points are too
// short to judge and pass. A mismatch names the expected and observed
// frequencies.
func CheckSampling(s *Series, expected Sampling) error {
	if expected == SamplingUnknown || len(s.Times) <= 3 {
		return nil
	}
	for i := 1; i < len(s.Times); i++ {
		gap := s.Times[i].Sub(s.Times[i-1])
		if !expected.matches(gap) {
			return fmt.Errorf(
				"series %q: declared %s sampling but observed %s spacing at index %d",
				s.Name, expected, classifyGap(gap), i,
			)
		}
	}
	return nil
}
