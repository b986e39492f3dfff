package predictor

import (
	"math"

	"geoprecio/models"
)

// confidence scores how trustworthy the estimate is, in [0,1]. It grows
// with the method tier, the training population of the assigned cluster
// and the agreement between base predictions, and shrinks when densities
// came from the degraded macro-zone table.
func (p *Predictor) confidence(method string, cluster int, base map[string]float64) float64 {
	if method == models.MethodFallback {
		return models.FallbackConfidence
	}

	var c float64
	switch method {
	case models.MethodStacking:
		c = 0.55
	default:
		c = 0.40
	}

	if p.bundle.Cluster != nil && cluster != models.NoCluster {
		pop := float64(p.bundle.Cluster.PopulationOf(cluster))
		c += 0.20 * pop / (pop + 150)
	}

	c += 0.25 * agreement(base)

	if p.deriver.Degraded() {
		c -= 0.10
	}

	return clamp01(c)
}

// agreement maps the relative spread of the base predictions to [0,1].
// One or zero predictions give a neutral 0.5.
func agreement(base map[string]float64) float64 {
	if len(base) < 2 {
		return 0.5
	}
	lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, v := range base {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		sum += v
	}
	mean := sum / float64(len(base))
	if mean <= 0 {
		return 0
	}
	spread := (hi - lo) / mean
	return clamp01(1 - spread)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
