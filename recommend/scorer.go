// Package recommend ranks candidate properties against a preference
// profile: hard filters first, then a weighted multi-criteria score in
// 0..100 with a per-candidate explanation.
package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"geoprecio/models"
)

const weightTolerance = 1e-6

// DefaultWeights apply when a profile carries no explicit weights.
var DefaultWeights = map[string]float64{
	models.WeightPrice:    0.20,
	models.WeightLocation: 0.15,
	models.WeightSize:     0.15,
	"transporte_metro":    0.15,
	"educacion":           0.10,
	"salud":               0.10,
	"areas_verdes":        0.10,
	"seguridad":           0.05,
}

type Scorer struct {
	// UFValueCLP converts UF-denominated prices to CLP so pool-relative
	// price scores compare like with like.
	UFValueCLP float64
}

func NewScorer(ufValueCLP float64) *Scorer {
	if ufValueCLP <= 0 {
		ufValueCLP = 38500
	}
	return &Scorer{UFValueCLP: ufValueCLP}
}

// Score filters, scores and ranks the candidates. The profile weights must
// sum to 1 (small drift is renormalized); a zero or negative sum is a
// ConfigurationError, as is a filter set that excludes every candidate.
func (s *Scorer) Score(profile *models.PreferenceProfile, candidates []models.Property) ([]models.ScoredCandidate, error) {
	weights, err := normalizeWeights(profile.Weights)
	if err != nil {
		return nil, err
	}

	pool := make([]models.Property, 0, len(candidates))
	for _, c := range candidates {
		if s.passesFilters(profile, c) {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return nil, &models.ConfigurationError{Reason: "ningun candidato supera los filtros"}
	}

	priceLo, priceHi := s.priceRange(pool)
	areaLo, areaHi := areaRange(pool)

	out := make([]models.ScoredCandidate, 0, len(pool))
	for _, c := range pool {
		out = append(out, s.scoreOne(profile, weights, c, priceLo, priceHi, areaLo, areaHi))
	}

	// Deterministic order: score descending, candidate id as tie-break.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Property.ID.String() < out[j].Property.ID.String()
	})

	limit := profile.Limit
	if limit <= 0 {
		limit = 10
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// normalizeWeights validates the weight map and scales it to sum 1.
func normalizeWeights(weights map[string]float64) (map[string]float64, error) {
	if len(weights) == 0 {
		weights = DefaultWeights
	}
	var sum float64
	for key, w := range weights {
		if w < 0 {
			return nil, &models.ConfigurationError{Reason: fmt.Sprintf("peso negativo para %s", key)}
		}
		sum += w
	}
	if sum <= 0 {
		return nil, &models.ConfigurationError{Reason: "los pesos suman 0"}
	}
	out := make(map[string]float64, len(weights))
	if math.Abs(sum-1) <= weightTolerance {
		for k, w := range weights {
			out[k] = w
		}
		return out, nil
	}
	for k, w := range weights {
		out[k] = w / sum
	}
	return out, nil
}

func (s *Scorer) passesFilters(p *models.PreferenceProfile, c models.Property) bool {
	price := s.normalizedPrice(c)
	if p.PriceMin != nil && (price == nil || *price < *p.PriceMin) {
		return false
	}
	if p.PriceMax != nil && (price == nil || *price > *p.PriceMax) {
		return false
	}
	if p.AreaMin != nil && (c.UsableArea == nil || *c.UsableArea < *p.AreaMin) {
		return false
	}
	if p.AreaMax != nil && (c.UsableArea == nil || *c.UsableArea > *p.AreaMax) {
		return false
	}
	if p.BedroomsMin != nil && (c.Bedrooms == nil || *c.Bedrooms < *p.BedroomsMin) {
		return false
	}
	if p.BathroomsMin != nil && (c.Bathrooms == nil || *c.Bathrooms < *p.BathroomsMin) {
		return false
	}
	if len(p.PropertyTypes) > 0 && !containsFold(p.PropertyTypes, c.PropertyType) {
		return false
	}
	if len(p.Comunas) > 0 && !containsFold(p.Comunas, c.Comuna) {
		return false
	}
	if containsFold(p.AvoidComunas, c.Comuna) {
		return false
	}
	return true
}

// normalizedPrice converts the listing price to CLP. Nil when unpriced.
func (s *Scorer) normalizedPrice(c models.Property) *float64 {
	if c.Price == nil {
		return nil
	}
	v := *c.Price
	if strings.EqualFold(c.Currency, "UF") {
		v *= s.UFValueCLP
	}
	return &v
}

func (s *Scorer) priceRange(pool []models.Property) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, c := range pool {
		if p := s.normalizedPrice(c); p != nil {
			lo = math.Min(lo, *p)
			hi = math.Max(hi, *p)
		}
	}
	return lo, hi
}

func areaRange(pool []models.Property) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, c := range pool {
		if c.UsableArea != nil {
			lo = math.Min(lo, *c.UsableArea)
			hi = math.Max(hi, *c.UsableArea)
		}
	}
	return lo, hi
}

// relative maps v into 0..1 over the pool range. Degenerate pools (all
// equal, or the value missing) score a neutral 0.5.
func relative(v *float64, lo, hi float64) float64 {
	if v == nil || math.IsInf(lo, 1) || hi <= lo {
		return 0.5
	}
	return clamp01((*v - lo) / (hi - lo))
}
