// Package features derives the model input vector from raw property
// attributes. The schema (names and order) is shared with the trained
// artifacts; any divergence is an error, never a silent default.
package features

import (
	"fmt"

	"geoprecio/geo"
	"geoprecio/models"
)

// Base attributes, in schema order.
var BaseNames = []string{
	"superficie_util",
	"dormitorios",
	"banos",
	"estacionamientos",
	"bodegas",
}

// Derived attributes, in schema order.
var DerivedNames = []string{
	"m2_por_habitante",
	"total_habitaciones",
	"ratio_bano_dorm",
}

var schema []string

func init() {
	schema = make([]string, 0, len(BaseNames)+len(DerivedNames)+len(models.DensityCategories)*len(geo.Radii))
	schema = append(schema, BaseNames...)
	schema = append(schema, DerivedNames...)
	for _, cat := range models.DensityCategories {
		for _, r := range geo.Radii {
			schema = append(schema, geo.FeatureName(cat, r))
		}
	}
}

// Schema returns the canonical ordered feature names: 5 base, 3 derived,
// then one density per category and radius.
func Schema() []string {
	out := make([]string, len(schema))
	copy(out, schema)
	return out
}

// DensityNames returns the density slice of the schema, in order.
func DensityNames() []string {
	return Schema()[len(BaseNames)+len(DerivedNames):]
}

// Vector is an ordered feature mapping following Schema().
type Vector struct {
	names  []string
	index  map[string]int
	values []float64
}

func newVector(names []string) *Vector {
	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}
	return &Vector{names: names, index: idx, values: make([]float64, len(names))}
}

func (v *Vector) set(name string, val float64) error {
	i, ok := v.index[name]
	if !ok {
		return fmt.Errorf("feature %s fuera del esquema", name)
	}
	v.values[i] = val
	return nil
}

// Get returns the value of a named feature.
func (v *Vector) Get(name string) (float64, bool) {
	i, ok := v.index[name]
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Names returns the vector's feature names in order.
func (v *Vector) Names() []string { return v.names }

// Slice extracts the values for the requested names, in the requested
// order. A name outside the vector is an error.
func (v *Vector) Slice(names []string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, n := range names {
		val, ok := v.Get(n)
		if !ok {
			return nil, fmt.Errorf("feature %s fuera del esquema", n)
		}
		out[i] = val
	}
	return out, nil
}
