package index

import "errors"

// Error classes surfaced by the engine. Callers discriminate with errors.Is;
// everything else is an internal failure wrapped with its pipeline stage.
var (
	// ErrConfiguration marks configuration errors: invalid frequency, zero
	// variables, conflicting missing-value options, an unresolvable reference
	// period or an undefined metadata placeholder. Raised before any
	// comparison work starts and never retried.
	ErrConfiguration = errors.New("invalid index configuration")

	// ErrCalendar marks a declared-vs-observed sampling frequency mismatch
	// found during preprocessing. The input needs fixing; no retry.
	ErrCalendar = errors.New("calendar consistency check failed")
)
