package main

import (
	"fmt"
	"os"

	"github.com/couchcryptid/climate-index-engine/internal/index"
	"gopkg.in/yaml.v3"
)

// definitionsFile is the YAML shape of a custom index definitions file:
//
//	indices:
//	  - name: hot35
//	    operator: ">"
//	    threshold:
//	      kind: scalar
//	      value: 35
//	      unit: degC
//	  - name: warm_days
//	    operator: ">"
//	    threshold:
//	      kind: percentile
//	      percentile: 75
//	      bootstrap: true
type definitionsFile struct {
	Indices []indexDefinition `yaml:"indices"`
}

type indexDefinition struct {
	Name      string        `yaml:"name"`
	Operator  string        `yaml:"operator"`
	Threshold *thresholdDef `yaml:"threshold"`
}

type thresholdDef struct {
	Kind       string  `yaml:"kind"`
	Value      float64 `yaml:"value"`
	Unit       string  `yaml:"unit"`
	Percentile float64 `yaml:"percentile"`
	Bootstrap  bool    `yaml:"bootstrap"`
}

// loadCatalog builds the default catalog and registers any custom definitions
// on top of it. An empty path returns the defaults untouched.
func loadCatalog(definitionsPath string) (*index.Catalog, error) {
	catalog, err := index.DefaultCatalog(nil)
	if err != nil {
		return nil, err
	}
	if definitionsPath == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(definitionsPath)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	var defs definitionsFile
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse definitions: %w", err)
	}

	for _, def := range defs.Indices {
		ind, err := def.build()
		if err != nil {
			return nil, err
		}
		catalog.Register(def.Name, ind)
	}
	return catalog, nil
}

func (d *indexDefinition) build() (index.Indicator, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("index definition without a name")
	}
	op, err := index.ParseOperator(d.Operator)
	if err != nil {
		return nil, fmt.Errorf("index %q: %w", d.Name, err)
	}

	opts := []index.CountOption{}
	if d.Threshold != nil {
		spec, err := d.Threshold.spec(d.Name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, index.WithDefaultThreshold(spec))
	}
	return index.NewCountEventComparedToThreshold(d.Name, op, index.MissingPolicy{Method: index.MissingFromContext}, opts...)
}

func (t *thresholdDef) spec(indexName string) (index.DefaultThresholdSpec, error) {
	switch t.Kind {
	case "scalar":
		return index.DefaultThresholdSpec{Kind: index.ThresholdScalar, Value: t.Value, Unit: t.Unit}, nil
	case "percentile":
		return index.DefaultThresholdSpec{Kind: index.ThresholdPercentile, Percentile: t.Percentile, Bootstrap: t.Bootstrap}, nil
	}
	return index.DefaultThresholdSpec{}, fmt.Errorf("index %q: unknown threshold kind %q", indexName, t.Kind)
}
