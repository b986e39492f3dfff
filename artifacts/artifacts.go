// Package artifacts loads the trained model exports and exposes them as a
// closed set of typed handles. Every handle validates its feature contract
// at load time; a file that is missing or fails its contract leaves that
// handle nil and the service running in a degraded state.
package artifacts

import (
	"fmt"
	"math"

	"geoprecio/features"
	"geoprecio/models"
)

// LinearModel is a linear-coefficient export of a trained regressor.
type LinearModel struct {
	Name         string
	Features     []string
	Intercept    float64
	Coefficients []float64 // aligned with Features
	Metrics      map[string]float64
}

// Predict evaluates the model on the vector. The vector must cover every
// model feature.
func (m *LinearModel) Predict(v *features.Vector) (float64, error) {
	vals, err := v.Slice(m.Features)
	if err != nil {
		return 0, fmt.Errorf("modelo %s: %w", m.Name, err)
	}
	out := m.Intercept
	for i, c := range m.Coefficients {
		out += c * vals[i]
	}
	return out, nil
}

// ClusterModel couples a KMeans centroid table with one local regressor
// per cluster. Clustering runs over a fixed subset of density features.
type ClusterModel struct {
	Features   []string // clustering features, in centroid column order
	Centroids  [][]float64
	Population []int
	Models     map[int]*LinearModel
}

// Assign returns the nearest centroid by Euclidean distance. Ties resolve
// to the lowest cluster id, so assignment is deterministic.
func (c *ClusterModel) Assign(v *features.Vector) (int, error) {
	point, err := v.Slice(c.Features)
	if err != nil {
		return models.NoCluster, err
	}
	best, bestDist := models.NoCluster, math.Inf(1)
	for id, centroid := range c.Centroids {
		var d2 float64
		for i, cv := range centroid {
			diff := point[i] - cv
			d2 += diff * diff
		}
		if d2 < bestDist {
			best, bestDist = id, d2
		}
	}
	return best, nil
}

// PopulationOf returns the training population of a cluster, 0 if unknown.
func (c *ClusterModel) PopulationOf(id int) int {
	if id < 0 || id >= len(c.Population) {
		return 0
	}
	return c.Population[id]
}

// MetaModel fuses the base predictions linearly, in input order.
type MetaModel struct {
	Inputs       []string
	Intercept    float64
	Coefficients []float64
}

// Fuse combines the base predictions. A missing input is substituted with
// the neutral value so the fusion never sees a zero hole.
func (m *MetaModel) Fuse(base map[string]float64, neutral float64) float64 {
	out := m.Intercept
	for i, name := range m.Inputs {
		v, ok := base[name]
		if !ok {
			v = neutral
		}
		out += m.Coefficients[i] * v
	}
	return out
}

// State describes which artifacts loaded. Fixed at startup.
type State string

const (
	StateAll     State = "all_models"
	StatePartial State = "partial_models"
	StateNone    State = "no_models"
)

// Bundle is the set of loaded model handles. Nil fields are unavailable.
type Bundle struct {
	Global  *LinearModel
	Cluster *ClusterModel
	Density *LinearModel
	Meta    *MetaModel
}

func (b *Bundle) State() State {
	loaded := 0
	if b.Global != nil {
		loaded++
	}
	if b.Cluster != nil {
		loaded++
	}
	if b.Density != nil {
		loaded++
	}
	if b.Meta != nil {
		loaded++
	}
	switch loaded {
	case 4:
		return StateAll
	case 0:
		return StateNone
	default:
		return StatePartial
	}
}
