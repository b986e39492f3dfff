// Package predictor runs the price-per-m2 ensemble: the available base
// estimators are evaluated on the derived feature vector and fused by the
// stacking meta-model, with graceful degradation down to a heuristic when
// no artifact loaded.
package predictor

import (
	"log"
	"math"

	"geoprecio/artifacts"
	"geoprecio/features"
	"geoprecio/models"
)

// Santiago center, used by the heuristic fallback as a location proxy.
const (
	centerLat = -33.4489
	centerLng = -70.6693
)

type Predictor struct {
	deriver *features.Deriver
	bundle  *artifacts.Bundle
	floorM2 float64
}

func New(deriver *features.Deriver, bundle *artifacts.Bundle, floorM2 float64) *Predictor {
	if floorM2 < 0 {
		floorM2 = 0
	}
	return &Predictor{deriver: deriver, bundle: bundle, floorM2: floorM2}
}

// State reports the artifact availability decided at startup.
func (p *Predictor) State() artifacts.State { return p.bundle.State() }

// Predict derives features and runs the ensemble. Validation failures are
// returned; artifact gaps degrade the method and confidence instead.
func (p *Predictor) Predict(attrs models.PropertyAttributes, useStacking bool) (*models.PredictionResult, error) {
	vec, err := p.deriver.Derive(attrs)
	if err != nil {
		return nil, err
	}

	res := &models.PredictionResult{
		DerivedFeatures: features.Derived(attrs),
		DegradedGeo:     p.deriver.Degraded(),
	}

	cluster := models.NoCluster
	if p.bundle.Cluster != nil {
		id, err := p.bundle.Cluster.Assign(vec)
		if err != nil {
			log.Printf("Warning: cluster assignment failed: %v", err)
		} else {
			cluster = id
		}
	}
	if cluster != models.NoCluster {
		c := cluster
		res.Cluster = &c
	}

	base := p.basePredictions(vec, cluster)
	if len(base) > 0 {
		res.BasePredictions = base
	}

	m2, method := p.fuse(base, useStacking)
	if method == models.MethodFallback {
		m2 = p.fallback(attrs)
	}

	if m2 < p.floorM2 {
		m2 = p.floorM2
	}

	res.PricePerM2 = m2
	res.TotalPrice = m2 * attrs.UsableArea
	res.Method = method
	res.Confidence = p.confidence(method, cluster, base)
	res.ConfidenceTier = models.ConfidenceTier(res.Confidence)
	return res, nil
}

// basePredictions evaluates every loaded base estimator. An estimator that
// errors at predict time is skipped, matching the missing-artifact path.
func (p *Predictor) basePredictions(vec *features.Vector, cluster int) map[string]float64 {
	base := make(map[string]float64, 3)

	if p.bundle.Global != nil {
		if v, err := p.bundle.Global.Predict(vec); err == nil {
			base[models.MethodRFGlobal] = v
		} else {
			log.Printf("Warning: global prediction failed: %v", err)
		}
	}
	if p.bundle.Cluster != nil && cluster != models.NoCluster {
		if m := p.bundle.Cluster.Models[cluster]; m != nil {
			if v, err := m.Predict(vec); err == nil {
				base[models.MethodGWRFCluster] = v
			} else {
				log.Printf("Warning: cluster %d prediction failed: %v", cluster, err)
			}
		}
	}
	if p.bundle.Density != nil {
		if v, err := p.bundle.Density.Predict(vec); err == nil {
			base[models.MethodGWRFDensity] = v
		} else {
			log.Printf("Warning: density prediction failed: %v", err)
		}
	}
	return base
}

// fuse picks the final estimate from the base predictions. Stacking needs
// the meta-model plus the global base, which also fills the holes of any
// missing locality model. Without stacking the most local base wins.
func (p *Predictor) fuse(base map[string]float64, useStacking bool) (float64, string) {
	global, hasGlobal := base[models.MethodRFGlobal]

	if useStacking && p.bundle.Meta != nil && hasGlobal {
		return p.bundle.Meta.Fuse(base, global), models.MethodStacking
	}
	if v, ok := base[models.MethodGWRFCluster]; ok {
		return v, models.MethodGWRFCluster
	}
	if v, ok := base[models.MethodGWRFDensity]; ok {
		return v, models.MethodGWRFDensity
	}
	if hasGlobal {
		return global, models.MethodRFGlobal
	}
	return 0, models.MethodFallback
}

// fallback is the deterministic heuristic used when no model answered: a
// base rate in UF/m2 adjusted by room counts, size and distance to the
// city center.
func (p *Predictor) fallback(attrs models.PropertyAttributes) float64 {
	m2 := 30.0 +
		float64(attrs.Bedrooms)*5.0 +
		float64(attrs.Bathrooms)*3.0 +
		attrs.UsableArea*0.05

	distKm := haversineKm(attrs.Lat, attrs.Lng, centerLat, centerLng)
	m2 -= math.Min(distKm, 20) * 0.5
	if m2 < 1 {
		m2 = 1
	}
	return m2
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180.0
	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * 6371.0 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
