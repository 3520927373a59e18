package index

import (
	"fmt"
	"strings"
)

// Operator is the closed set of comparison operators an indicator can apply
// between a study series and its threshold.
type Operator int

const (
	OpUnset Operator = iota
	OpGreater
	OpGreaterOrEqual
	OpLower
	OpLowerOrEqual
	OpEqual
)

// ParseOperator accepts symbolic (">", ">=", ...) and spelled-out
// ("greater", "lower_or_equal", ...) forms.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ">", "gt", "greater":
		return OpGreater, nil
	case ">=", "ge", "gte", "greater_or_equal":
		return OpGreaterOrEqual, nil
	case "<", "lt", "lower", "less":
		return OpLower, nil
	case "<=", "le", "lte", "lower_or_equal":
		return OpLowerOrEqual, nil
	case "=", "==", "eq", "equal":
		return OpEqual, nil
	}
	return OpUnset, fmt.Errorf("%w: unknown comparison operator %q", ErrConfiguration, s)
}

// Apply evaluates the comparison. Equality is exact; against a continuous
// threshold field it is degenerate but well defined.
func (op Operator) Apply(a, b float64) bool {
	switch op {
	case OpGreater:
		return a > b
	case OpGreaterOrEqual:
		return a >= b
	case OpLower:
		return a < b
	case OpLowerOrEqual:
		return a <= b
	case OpEqual:
		return a == b
	}
	return false
}

// ShortName is the catalog registration name of the operator's generic index.
func (op Operator) ShortName() string {
	switch op {
	case OpGreater:
		return "greater"
	case OpGreaterOrEqual:
		return "greater_or_equal"
	case OpLower:
		return "lower"
	case OpLowerOrEqual:
		return "lower_or_equal"
	case OpEqual:
		return "equal"
	}
	return "unset"
}

// StandardName is the fragment used in CF-style standard names,
// e.g. "above" in number_of_days_when_tasmax_above_35degC.
func (op Operator) StandardName() string {
	switch op {
	case OpGreater:
		return "above"
	case OpGreaterOrEqual:
		return "above_or_equal"
	case OpLower:
		return "below"
	case OpLowerOrEqual:
		return "below_or_equal"
	case OpEqual:
		return "equal_to"
	}
	return "unset"
}

// Operand is the symbolic form used in long names.
func (op Operator) Operand() string {
	switch op {
	case OpGreater:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	case OpLower:
		return "<"
	case OpLowerOrEqual:
		return "<="
	case OpEqual:
		return "=="
	}
	return "?"
}

// LongName is the prose form used in descriptions.
func (op Operator) LongName() string {
	switch op {
	case OpGreater:
		return "greater than"
	case OpGreaterOrEqual:
		return "greater than or equal to"
	case OpLower:
		return "lower than"
	case OpLowerOrEqual:
		return "lower than or equal to"
	case OpEqual:
		return "equal to"
	}
	return "unset"
}
