package models

// CategoryPreference is one signed amenity preference. Importance runs from
// -10 (keep far away) through 0 (indifferent) to 10 (must be close).
// MaxDistanceM bounds the distance over which proximity still scores.
type CategoryPreference struct {
	Importance   int     `json:"importancia"`
	MaxDistanceM float64 `json:"distancia_maxima_m"`
}

// PreferenceProfile is the input to recommendation scoring: hard filters,
// per-category signed preferences and criterion weights.
type PreferenceProfile struct {
	PriceMin *float64 `json:"precio_min"`
	PriceMax *float64 `json:"precio_max"`
	AreaMin  *float64 `json:"superficie_min"`
	AreaMax  *float64 `json:"superficie_max"`

	BedroomsMin  *int `json:"dormitorios_min"`
	BathroomsMin *int `json:"banos_min"`

	Comunas       []string `json:"comunas_preferidas"`
	AvoidComunas  []string `json:"comunas_evitar"`
	PropertyTypes []string `json:"tipos_permitidos"`

	// Keyed by ScoringCategories entries.
	Categories map[string]CategoryPreference `json:"categorias"`

	// Keyed by ScoringCategories entries plus precio/ubicacion/tamano.
	// Must sum to 1.0 (small drift is renormalized).
	Weights map[string]float64 `json:"pesos"`

	Limit int `json:"limite"`
}

// CategoryScore is the per-criterion breakdown of a candidate's score.
type CategoryScore struct {
	Category     string  `json:"categoria"`
	Score        float64 `json:"score"` // 0..1 before weighting
	Weight       float64 `json:"peso"`
	Contribution float64 `json:"contribucion"`
}

// ScoredCandidate is one ranked recommendation.
type ScoredCandidate struct {
	Property   Property        `json:"propiedad"`
	Score      float64         `json:"score_total"` // 0..100
	Confidence float64         `json:"confianza"`   // data-availability based
	Breakdown  []CategoryScore `json:"scores_por_categoria"`
	Strengths  []string        `json:"puntos_fuertes"`
	Weaknesses []string        `json:"puntos_debiles"`
}
