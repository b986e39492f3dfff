package workers

import (
	"context"
	"path/filepath"
	"testing"

	"geoprecio/artifacts"
	"geoprecio/config"
	"geoprecio/features"
	"geoprecio/geo"
	"geoprecio/models"
	"geoprecio/predictor"
	"geoprecio/storage"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func testPredictor() *predictor.Predictor {
	d := features.NewDeriver(geo.DefaultZoneTable(), config.SantiagoBounds)
	return predictor.New(d, &artifacts.Bundle{}, 0)
}

func TestBackfillProcessBatch(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(store.Close)
	ctx := context.Background()

	inArea := &models.Property{
		Fingerprint: "fp-in",
		Comuna:      "Santiago",
		Price:       fptr(4000),
		Currency:    "UF",
		UsableArea:  fptr(60),
		Bedrooms:    iptr(2),
		Bathrooms:   iptr(1),
		Lat:         fptr(-33.45),
		Lng:         fptr(-70.66),
	}
	outOfArea := &models.Property{
		Fingerprint: "fp-out",
		Comuna:      "Valparaiso",
		Price:       fptr(3000),
		Currency:    "UF",
		UsableArea:  fptr(80),
		Lat:         fptr(-33.05),
		Lng:         fptr(-71.62),
	}
	for _, p := range []*models.Property{inArea, outOfArea} {
		if err := store.UpsertProperty(ctx, p); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	w := NewBackfillWorker(store, testPredictor(), 10)
	if got := w.ProcessBatch(ctx); got != 1 {
		t.Fatalf("updated = %d, want 1 (out-of-area listing skipped)", got)
	}

	// The in-area listing now carries a prediction and leaves the queue.
	pending, err := store.PropertiesWithoutPrediction(ctx, 10)
	if err != nil {
		t.Fatalf("PropertiesWithoutPrediction: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != outOfArea.ID {
		t.Fatalf("pending = %+v, want only the out-of-area listing", pending)
	}

	candidates, err := store.ListCandidates(ctx)
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	for _, c := range candidates {
		if c.ID == inArea.ID {
			if c.PredictedM2 == nil || *c.PredictedM2 <= 0 {
				t.Fatalf("predicted m2 not persisted: %+v", c.PredictedM2)
			}
			if c.PredictedTotal == nil || *c.PredictedTotal != *c.PredictedM2*60 {
				t.Fatalf("predicted total inconsistent: %v", c.PredictedTotal)
			}
		}
	}

	// Nothing left to do on the next batch.
	if got := w.ProcessBatch(ctx); got != 0 {
		t.Fatalf("second batch updated %d, want 0", got)
	}
}
