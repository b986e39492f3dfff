package predictor

import (
	"errors"
	"math"
	"testing"

	"geoprecio/artifacts"
	"geoprecio/config"
	"geoprecio/features"
	"geoprecio/geo"
	"geoprecio/models"
)

func constModel(name string, names []string, value float64) *artifacts.LinearModel {
	return &artifacts.LinearModel{
		Name:         name,
		Features:     names,
		Intercept:    value,
		Coefficients: make([]float64, len(names)),
	}
}

func fullBundle() *artifacts.Bundle {
	return &artifacts.Bundle{
		Global:  constModel(models.MethodRFGlobal, features.Schema(), 100),
		Density: constModel(models.MethodGWRFDensity, features.DensityNames(), 90),
		Cluster: &artifacts.ClusterModel{
			Features:   artifacts.ClusteringFeatures(),
			Centroids:  [][]float64{make([]float64, 10)},
			Population: []int{300},
			Models: map[int]*artifacts.LinearModel{
				0: constModel("cluster_0", features.Schema(), 110),
			},
		},
		Meta: &artifacts.MetaModel{
			Inputs:       []string{models.MethodRFGlobal, models.MethodGWRFCluster, models.MethodGWRFDensity},
			Coefficients: []float64{0.5, 0.3, 0.2},
		},
	}
}

func newPredictor(b *artifacts.Bundle, floor float64) *Predictor {
	d := features.NewDeriver(geo.DefaultZoneTable(), config.SantiagoBounds)
	return New(d, b, floor)
}

func attrs() models.PropertyAttributes {
	return models.PropertyAttributes{
		UsableArea: 80, Bedrooms: 3, Bathrooms: 2, MaxOccupants: 4,
		Lat: -33.45, Lng: -70.66,
	}
}

func TestPredictStacking(t *testing.T) {
	p := newPredictor(fullBundle(), 0)

	res, err := p.Predict(attrs(), true)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Method != models.MethodStacking {
		t.Fatalf("method = %s, want %s", res.Method, models.MethodStacking)
	}
	if want := 0.5*100 + 0.3*110 + 0.2*90.0; math.Abs(res.PricePerM2-want) > 1e-9 {
		t.Fatalf("m2 = %v, want %v", res.PricePerM2, want)
	}
	if math.Abs(res.TotalPrice-res.PricePerM2*80) > 1e-9 {
		t.Fatalf("total = %v, want m2 x 80", res.TotalPrice)
	}
	if res.Cluster == nil || *res.Cluster != 0 {
		t.Fatalf("cluster = %v, want 0", res.Cluster)
	}
	if len(res.BasePredictions) != 3 {
		t.Fatalf("base predictions = %v", res.BasePredictions)
	}
	if res.Confidence <= models.FallbackConfidence || res.Confidence > 1 {
		t.Fatalf("confidence = %v", res.Confidence)
	}
}

func TestPredictSingleModelPriority(t *testing.T) {
	// Stacking disabled: the cluster-local model outranks the rest.
	p := newPredictor(fullBundle(), 0)
	res, err := p.Predict(attrs(), false)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Method != models.MethodGWRFCluster {
		t.Fatalf("method = %s, want %s", res.Method, models.MethodGWRFCluster)
	}
	if res.PricePerM2 != 110 {
		t.Fatalf("m2 = %v, want 110", res.PricePerM2)
	}

	// Without the cluster model the density model wins.
	b := fullBundle()
	b.Cluster = nil
	res, err = newPredictor(b, 0).Predict(attrs(), false)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Method != models.MethodGWRFDensity {
		t.Fatalf("method = %s, want %s", res.Method, models.MethodGWRFDensity)
	}
	if res.Cluster != nil {
		t.Fatalf("cluster = %v, want nil", *res.Cluster)
	}

	// Only the global model left.
	b.Density = nil
	res, err = newPredictor(b, 0).Predict(attrs(), false)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Method != models.MethodRFGlobal {
		t.Fatalf("method = %s, want %s", res.Method, models.MethodRFGlobal)
	}
}

func TestPredictStackingWithoutMeta(t *testing.T) {
	b := fullBundle()
	b.Meta = nil
	res, err := newPredictor(b, 0).Predict(attrs(), true)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Method != models.MethodGWRFCluster {
		t.Fatalf("method = %s, want %s", res.Method, models.MethodGWRFCluster)
	}
}

func TestPredictFallback(t *testing.T) {
	p := newPredictor(&artifacts.Bundle{}, 0)

	res, err := p.Predict(attrs(), true)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Method != models.MethodFallback {
		t.Fatalf("method = %s, want %s", res.Method, models.MethodFallback)
	}
	if res.Confidence != models.FallbackConfidence {
		t.Fatalf("confidence = %v, want exactly %v", res.Confidence, models.FallbackConfidence)
	}
	if res.ConfidenceTier != models.TierLow {
		t.Fatalf("tier = %s, want %s", res.ConfidenceTier, models.TierLow)
	}
	if res.PricePerM2 <= 0 {
		t.Fatalf("m2 = %v, want > 0", res.PricePerM2)
	}
	if res.BasePredictions != nil {
		t.Fatalf("base predictions = %v, want none", res.BasePredictions)
	}

	// Deterministic: same input, same answer.
	again, _ := p.Predict(attrs(), true)
	if again.PricePerM2 != res.PricePerM2 {
		t.Fatalf("fallback not deterministic: %v vs %v", again.PricePerM2, res.PricePerM2)
	}
}

func TestPredictFloorClamp(t *testing.T) {
	b := &artifacts.Bundle{
		Global: constModel(models.MethodRFGlobal, features.Schema(), -50),
	}
	res, err := newPredictor(b, 10).Predict(attrs(), false)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.PricePerM2 != 10 {
		t.Fatalf("m2 = %v, want floor 10", res.PricePerM2)
	}
	if res.TotalPrice != 800 {
		t.Fatalf("total = %v, want 800", res.TotalPrice)
	}
}

func TestPredictValidationSurfaces(t *testing.T) {
	p := newPredictor(fullBundle(), 0)

	bad := attrs()
	bad.UsableArea = -5
	var ve *models.ValidationError
	if _, err := p.Predict(bad, true); !errors.As(err, &ve) {
		t.Fatalf("got %v, want ValidationError", err)
	}

	bad = attrs()
	bad.Lng = -69.0
	if _, err := p.Predict(bad, true); !errors.As(err, &ve) {
		t.Fatalf("got %v, want ValidationError", err)
	}
}

func TestConfidenceOrdering(t *testing.T) {
	p := newPredictor(fullBundle(), 0)

	base := map[string]float64{
		models.MethodRFGlobal:    100,
		models.MethodGWRFCluster: 105,
		models.MethodGWRFDensity: 98,
	}
	stacked := p.confidence(models.MethodStacking, 0, base)
	single := p.confidence(models.MethodGWRFCluster, 0, base)
	if stacked <= single {
		t.Fatalf("stacking confidence %v must exceed single-model %v", stacked, single)
	}
	if single <= models.FallbackConfidence {
		t.Fatalf("single-model confidence %v must exceed fallback", single)
	}

	// Disagreeing bases lower the confidence.
	spread := map[string]float64{
		models.MethodRFGlobal:    100,
		models.MethodGWRFCluster: 300,
		models.MethodGWRFDensity: 20,
	}
	if p.confidence(models.MethodStacking, 0, spread) >= stacked {
		t.Fatal("disagreement must reduce confidence")
	}

	if c := p.confidence(models.MethodStacking, 0, base); c < 0 || c > 1 {
		t.Fatalf("confidence %v out of range", c)
	}
}
