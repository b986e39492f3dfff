package storage

import (
	"context"
	"path/filepath"
	"testing"

	"geoprecio/models"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func sampleProperty(fingerprint string) *models.Property {
	return &models.Property{
		Fingerprint:  fingerprint,
		Comuna:       "Nunoa",
		Address:      "Av Irarrazaval 1234",
		PropertyType: "departamento",
		Price:        fptr(4500),
		Currency:     "UF",
		UsableArea:   fptr(72),
		Bedrooms:     iptr(2),
		Bathrooms:    iptr(2),
		Lat:          fptr(-33.456),
		Lng:          fptr(-70.6),
	}
}

func TestSQLiteUpsertIsIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := sampleProperty("fp-1")
	if err := s.UpsertProperty(ctx, p); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	firstID := p.ID

	again := sampleProperty("fp-1")
	again.Price = fptr(4700)
	if err := s.UpsertProperty(ctx, again); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if again.ID != firstID {
		t.Fatalf("upsert created a new row: %s vs %s", again.ID, firstID)
	}

	list, err := s.ListCandidates(ctx)
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("candidates = %d, want 1", len(list))
	}
	if list[0].Price == nil || *list[0].Price != 4700 {
		t.Fatalf("price not updated: %+v", list[0].Price)
	}
}

func TestSQLiteBackfillCycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, fp := range []string{"fp-1", "fp-2"} {
		if err := s.UpsertProperty(ctx, sampleProperty(fp)); err != nil {
			t.Fatalf("upsert %s: %v", fp, err)
		}
	}

	pending, err := s.PropertiesWithoutPrediction(ctx, 10)
	if err != nil {
		t.Fatalf("PropertiesWithoutPrediction: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}

	if err := s.UpdatePrediction(ctx, pending[0].ID, 55.5, 3996, models.MethodStacking); err != nil {
		t.Fatalf("UpdatePrediction: %v", err)
	}

	pending, err = s.PropertiesWithoutPrediction(ctx, 10)
	if err != nil {
		t.Fatalf("PropertiesWithoutPrediction: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending after update = %d, want 1", len(pending))
	}
}

func TestSQLitePOIsAndComunaStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	pois := []models.POI{
		{Category: "transporte_metro", Lat: -33.45, Lng: -70.66},
		{Category: "salud", Lat: -33.44, Lng: -70.65},
	}
	for _, p := range pois {
		if err := s.InsertPOI(ctx, p); err != nil {
			t.Fatalf("InsertPOI: %v", err)
		}
	}
	loaded, err := s.LoadPOIs(ctx)
	if err != nil {
		t.Fatalf("LoadPOIs: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("pois = %d, want 2", len(loaded))
	}

	if err := s.UpsertProperty(ctx, sampleProperty("fp-1")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.RefreshComunaStats(ctx); err != nil {
		t.Fatalf("RefreshComunaStats: %v", err)
	}
	comunas, err := s.ListComunas(ctx)
	if err != nil {
		t.Fatalf("ListComunas: %v", err)
	}
	if len(comunas) != 1 || comunas[0].Name != "Nunoa" {
		t.Fatalf("comunas = %+v", comunas)
	}
	if comunas[0].TotalProperties != 1 {
		t.Fatalf("total = %d, want 1", comunas[0].TotalProperties)
	}
}
