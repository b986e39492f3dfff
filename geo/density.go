// Package geo computes service-density features around a coordinate. The
// primary implementation indexes the puntos_interes table in a spatial cell
// grid; a macro-zone table provides a coarse fallback when no POI data can
// be loaded.
package geo

import (
	"fmt"
	"math"
)

// Radii, in metres, at which densities are sampled. Part of the trained
// feature schema.
var Radii = []int{300, 600, 1000}

// DensityProvider yields per-category POI densities (points per km2) at
// every configured radius around a coordinate. Keys follow FeatureName.
type DensityProvider interface {
	Densities(lat, lng float64) map[string]float64
	// Degraded reports whether the provider is a coarse fallback rather
	// than a real POI index.
	Degraded() bool
}

// FeatureName builds the canonical density feature key, e.g.
// dens_transporte_metro_600m.
func FeatureName(category string, radiusM int) string {
	return fmt.Sprintf("dens_%s_%dm", category, radiusM)
}

// densityPerKm2 converts a raw POI count inside a buffer of the given
// radius to points per square kilometre.
func densityPerKm2(count int, radiusM int) float64 {
	rKm := float64(radiusM) / 1000.0
	return float64(count) / (math.Pi * rKm * rKm)
}

const earthRadiusM = 6371000.0

// haversineM returns the great-circle distance in metres.
func haversineM(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180.0
	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
