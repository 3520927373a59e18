package index

// ECA&D preset indices. Each preset is the generic counting indicator
// parametrized with a fixed operator and a default threshold, so a caller can
// feed it a bare variable and get the climatological definition.
//
// Reference: the European Climate Assessment & Dataset indices definitions.

type preset struct {
	name      string
	operator  Operator
	threshold DefaultThresholdSpec
}

var ecadPresets = []preset{
	// Temperature, fixed thresholds.
	{"su", OpGreater, DefaultThresholdSpec{Kind: ThresholdScalar, Value: 25, Unit: "degC"}},
	{"tr", OpGreater, DefaultThresholdSpec{Kind: ThresholdScalar, Value: 20, Unit: "degC"}},
	{"fd", OpLower, DefaultThresholdSpec{Kind: ThresholdScalar, Value: 0, Unit: "degC"}},
	{"id", OpLower, DefaultThresholdSpec{Kind: ThresholdScalar, Value: 0, Unit: "degC"}},

	// Temperature, day-of-year percentile thresholds with bootstrap.
	{"tx90p", OpGreater, DefaultThresholdSpec{Kind: ThresholdPercentile, Percentile: 90, Bootstrap: true}},
	{"tn10p", OpLower, DefaultThresholdSpec{Kind: ThresholdPercentile, Percentile: 10, Bootstrap: true}},

	// Precipitation, fixed rate thresholds.
	{"r10mm", OpGreaterOrEqual, DefaultThresholdSpec{Kind: ThresholdScalar, Value: 10, Unit: "mm/day"}},
	{"r20mm", OpGreaterOrEqual, DefaultThresholdSpec{Kind: ThresholdScalar, Value: 20, Unit: "mm/day"}},
}

// DefaultCatalog registers the generic comparison family plus the ECA&D
// count presets. All indicators share one resolver so percentile fields
// resolved for one index are reused by the next.
func DefaultCatalog(resolver *Resolver) (*Catalog, error) {
	if resolver == nil {
		resolver = NewResolver(0)
	}
	c := NewCatalog()

	err := c.RegisterComparisons(func(op Operator) (Indicator, error) {
		return NewCountEventComparedToThreshold(op.ShortName(), op, MissingPolicy{Method: MissingFromContext}, WithResolver(resolver))
	})
	if err != nil {
		return nil, err
	}

	for _, p := range ecadPresets {
		ind, err := NewCountEventComparedToThreshold(p.name, p.operator, MissingPolicy{Method: MissingFromContext},
			WithResolver(resolver), WithDefaultThreshold(p.threshold))
		if err != nil {
			return nil, err
		}
		c.Register(p.name, ind)
	}
	return c, nil
}
