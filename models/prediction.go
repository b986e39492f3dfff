package models

// Prediction methods, ordered by preference. Stacking fuses every available
// base estimator; the gwrf_* methods are locality-aware single models;
// fallback_simple is the heuristic used when no artifact is loaded.
const (
	MethodStacking    = "stacking"
	MethodRFGlobal    = "rf_global"
	MethodGWRFCluster = "gwrf_cluster"
	MethodGWRFDensity = "gwrf_densidad"
	MethodFallback    = "fallback_simple"
)

// NoCluster is the sentinel for "no cluster assigned".
const NoCluster = -1

// FallbackConfidence is reported whenever the heuristic fallback answers.
const FallbackConfidence = 0.2

// Confidence presentation tiers.
const (
	TierHigh   = "alta"
	TierMedium = "media"
	TierLow    = "baja"
)

// ConfidenceTier maps a confidence value in [0,1] to its presentation tier.
func ConfidenceTier(c float64) string {
	switch {
	case c >= 0.7:
		return TierHigh
	case c >= 0.3:
		return TierMedium
	default:
		return TierLow
	}
}

// PredictionRequest is the API payload for a price prediction.
type PredictionRequest struct {
	PropertyAttributes
	UseStacking bool `json:"usar_stacking"`
}

// PredictionResult is the outcome of one ensemble prediction.
type PredictionResult struct {
	PricePerM2      float64            `json:"precio_m2_predicho"`
	TotalPrice      float64            `json:"precio_total_estimado"`
	Confidence      float64            `json:"confianza"`
	ConfidenceTier  string             `json:"nivel_confianza"`
	Method          string             `json:"metodo"`
	Cluster         *int               `json:"cluster_asignado"`
	BasePredictions map[string]float64 `json:"predicciones_base,omitempty"`
	DerivedFeatures map[string]float64 `json:"features_calculadas"`
	DegradedGeo     bool               `json:"densidades_degradadas"`
}
