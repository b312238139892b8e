// Package report implements the filtered KPI aggregation and drill-down engine.
// Every function is pure: inputs are never mutated and results are rebuilt on
// each call.
package report

import (
	"github.com/Veraticus/dsm-insight/internal/model"
)

type constraint struct {
	dim     model.Dimension
	allowed map[string]struct{}
}

// Apply returns the records matching every constrained dimension of spec, in
// input order. Values match exactly. Dimensions with no accepted values, and
// dimensions that do not describe a record attribute, impose no constraint.
func Apply(records []model.Record, spec model.FilterSpec) ([]model.Record, error) {
	constraints, err := compile(spec)
	if err != nil {
		return nil, err
	}

	out := make([]model.Record, 0, len(records))
	for i := range records {
		if matches(&records[i], constraints) {
			out = append(out, records[i])
		}
	}
	return out, nil
}

func compile(spec model.FilterSpec) ([]constraint, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	var constraints []constraint
	for _, dim := range model.Dimensions {
		values := lookup(spec, dim)
		if len(values) == 0 {
			continue
		}
		if _, constrains := dim.Value(&model.Record{}); !constrains {
			continue
		}
		allowed := make(map[string]struct{}, len(values))
		for _, v := range values {
			allowed[v] = struct{}{}
		}
		constraints = append(constraints, constraint{dim: dim, allowed: allowed})
	}
	return constraints, nil
}

// lookup collects the values for dim across every spelling of its name.
func lookup(spec model.FilterSpec, dim model.Dimension) []string {
	var values []string
	for name, v := range spec {
		if parsed, err := model.ParseDimension(name); err == nil && parsed == dim {
			values = append(values, v...)
		}
	}
	return values
}

func matches(r *model.Record, constraints []constraint) bool {
	for _, c := range constraints {
		v, _ := c.dim.Value(r)
		if _, ok := c.allowed[v]; !ok {
			return false
		}
	}
	return true
}
