package recommend

import (
	"fmt"
	"math"
	"strings"

	"geoprecio/models"
)

// scoreOne computes the weighted multi-criteria score for one candidate,
// with its breakdown and explanation.
func (s *Scorer) scoreOne(
	profile *models.PreferenceProfile,
	weights map[string]float64,
	c models.Property,
	priceLo, priceHi, areaLo, areaHi float64,
) models.ScoredCandidate {
	var total float64
	var breakdown []models.CategoryScore
	var strengths, weaknesses []string
	available, considered := 0, 0

	add := func(category string, score float64) {
		w := weights[category]
		contrib := score * w
		total += contrib
		breakdown = append(breakdown, models.CategoryScore{
			Category:     category,
			Score:        round2(score),
			Weight:       round2(w),
			Contribution: round2(contrib),
		})
	}

	// Pool-relative base criteria. Cheaper and bigger score higher.
	price := s.normalizedPrice(c)
	priceScore := 1 - relative(price, priceLo, priceHi)
	add(models.WeightPrice, priceScore)
	considered++
	if price != nil {
		available++
		switch {
		case priceScore >= 0.7:
			strengths = append(strengths, "Precio conveniente dentro del grupo")
		case priceScore <= 0.3 && weights[models.WeightPrice] > 0:
			weaknesses = append(weaknesses, "Precio alto comparado con alternativas similares")
		}
	}

	sizeScore := relative(c.UsableArea, areaLo, areaHi)
	add(models.WeightSize, sizeScore)
	considered++
	if c.UsableArea != nil {
		available++
		if sizeScore >= 0.7 {
			strengths = append(strengths, fmt.Sprintf("Amplia superficie (%.0f m2)", *c.UsableArea))
		}
	}

	locScore := 0.5
	considered++
	if c.Comuna != "" {
		available++
		if containsFold(profile.Comunas, c.Comuna) {
			locScore = 1.0
			strengths = append(strengths, "En comuna preferida: "+c.Comuna)
		}
	}
	add(models.WeightLocation, locScore)

	// Signed amenity preferences, in canonical order for determinism.
	for _, cat := range models.ScoringCategories {
		pref, ok := profile.Categories[cat]
		if !ok {
			continue
		}
		considered++
		dist, hasDist := c.Distances[cat]
		if hasDist {
			available++
		}
		if pref.Importance == 0 {
			add(cat, 0)
			continue
		}

		dmax := pref.MaxDistanceM
		if dmax <= 0 {
			dmax = 1000
		}
		if !hasDist {
			// Unknown distance reads as "at the horizon": worst case for
			// proximity seekers, best case for avoiders.
			dist = dmax
		}

		raw := math.Max(0, 1-dist/dmax)
		if pref.Importance < 0 {
			raw = 1 - raw
		}
		sub := raw * math.Abs(float64(pref.Importance)) / 10

		add(cat, sub)
		s.explainCategory(cat, pref, dist, hasDist, raw, &strengths, &weaknesses)
	}

	confidence := 0.0
	if considered > 0 {
		confidence = float64(available) / float64(considered)
	}

	return models.ScoredCandidate{
		Property:   c,
		Score:      round2(clamp01(total) * 100),
		Confidence: round2(confidence),
		Breakdown:  breakdown,
		Strengths:  strengths,
		Weaknesses: weaknesses,
	}
}

func (s *Scorer) explainCategory(
	cat string,
	pref models.CategoryPreference,
	dist float64,
	hasDist bool,
	raw float64,
	strengths, weaknesses *[]string,
) {
	label := categoryLabel(cat)
	switch {
	case pref.Importance > 0 && raw >= 0.7 && hasDist:
		*strengths = append(*strengths, fmt.Sprintf("%s a %.0f m", label, dist))
	case pref.Importance > 0 && raw <= 0.3:
		if hasDist {
			*weaknesses = append(*weaknesses, fmt.Sprintf("%s lejos (%.0f m)", label, dist))
		} else {
			*weaknesses = append(*weaknesses, fmt.Sprintf("Sin datos de distancia a %s", strings.ToLower(label)))
		}
	case pref.Importance < 0 && raw >= 0.7:
		*strengths = append(*strengths, fmt.Sprintf("Lejos de %s, como preferiste", strings.ToLower(label)))
	case pref.Importance < 0 && raw <= 0.3 && hasDist:
		*weaknesses = append(*weaknesses, fmt.Sprintf("%s demasiado cerca (%.0f m)", label, dist))
	}
}

func categoryLabel(cat string) string {
	switch cat {
	case "transporte_metro":
		return "Metro"
	case "educacion":
		return "Colegios"
	case "salud":
		return "Centros de salud"
	case "areas_verdes":
		return "Areas verdes"
	case "seguridad":
		return "Comisarias"
	case "comercio":
		return "Comercio"
	default:
		return cat
	}
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
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
