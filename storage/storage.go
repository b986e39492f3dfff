// Package storage persists properties, comunas and points of interest.
// PostgresStore is the production backend; SQLiteStore serves local
// development and tests behind the same interface.
package storage

import (
	"context"

	"github.com/google/uuid"

	"geoprecio/models"
)

// Store is the backend surface the API, the scorer and the backfill
// worker need.
type Store interface {
	Ping(ctx context.Context) error
	Close()

	UpsertProperty(ctx context.Context, p *models.Property) error
	ListCandidates(ctx context.Context) ([]models.Property, error)
	PropertiesWithoutPrediction(ctx context.Context, limit int) ([]models.Property, error)
	UpdatePrediction(ctx context.Context, id uuid.UUID, priceM2, total float64, method string) error

	LoadPOIs(ctx context.Context) ([]models.POI, error)
	ListComunas(ctx context.Context) ([]models.Comuna, error)
	RefreshComunaStats(ctx context.Context) error
}

// distanceColumns maps the dist_*_m columns of propiedades to the scoring
// categories, in column order.
var distanceColumns = []struct {
	Column   string
	Category string
}{
	{"dist_transporte_metro_m", "transporte_metro"},
	{"dist_educacion_min_m", "educacion"},
	{"dist_salud_min_m", "salud"},
	{"dist_areas_verdes_m", "areas_verdes"},
	{"dist_seguridad_min_m", "seguridad"},
	{"dist_comercio_m", "comercio"},
}

func distancesFrom(vals []*float64) map[string]float64 {
	out := make(map[string]float64, len(distanceColumns))
	for i, dc := range distanceColumns {
		if vals[i] != nil {
			out[dc.Category] = *vals[i]
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
