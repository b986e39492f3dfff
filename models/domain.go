package models

import (
	"time"

	"github.com/google/uuid"
)

// PropertyAttributes is the immutable input to a prediction request.
// JSON field names mirror the column names of the propiedades schema.
type PropertyAttributes struct {
	UsableArea   float64 `json:"superficie_util"`
	Bedrooms     int     `json:"dormitorios"`
	Bathrooms    int     `json:"banos"`
	ParkingSpots int     `json:"estacionamientos"`
	StorageUnits int     `json:"bodegas"`
	MaxOccupants int     `json:"cant_max_habitantes"`
	Lat          float64 `json:"latitud"`
	Lng          float64 `json:"longitud"`
}

// Property is a stored listing used as a recommendation candidate.
type Property struct {
	ID             uuid.UUID          `json:"id" db:"id"`
	Fingerprint    string             `json:"fingerprint" db:"fingerprint"`
	Comuna         string             `json:"comuna" db:"comuna"`
	Address        string             `json:"direccion" db:"direccion"`
	PropertyType   string             `json:"tipo_propiedad" db:"tipo_propiedad"` // casa, departamento
	Price          *float64           `json:"precio" db:"precio"`
	Currency       string             `json:"divisa" db:"divisa"` // CLP, UF
	UsableArea     *float64           `json:"superficie_util" db:"superficie_util"`
	Bedrooms       *int               `json:"dormitorios" db:"dormitorios"`
	Bathrooms      *int               `json:"banos" db:"banos"`
	ParkingSpots   *int               `json:"estacionamientos" db:"estacionamientos"`
	Lat            *float64           `json:"latitud" db:"latitud"`
	Lng            *float64           `json:"longitud" db:"longitud"`
	Distances      map[string]float64 `json:"distancias,omitempty"` // scoring category -> metres
	PredictedM2    *float64           `json:"precio_m2_predicho" db:"precio_m2_predicho"`
	PredictedTotal *float64           `json:"precio_predicho" db:"precio_predicho"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" db:"updated_at"`
}

// Comuna aggregates per-comuna market statistics.
type Comuna struct {
	ID              int64      `json:"id" db:"id"`
	Name            string     `json:"nombre" db:"nombre"`
	AvgPrice        *float64   `json:"precio_promedio" db:"precio_promedio"`
	AvgPriceM2      *float64   `json:"precio_m2_promedio" db:"precio_m2_promedio"`
	TotalProperties int        `json:"total_propiedades" db:"total_propiedades"`
	UpdatedAt       *time.Time `json:"updated_at" db:"updated_at"`
}

// POI is one service-location record consumed by the density engine.
type POI struct {
	Category string  `json:"tipo_servicio"`
	Lat      float64 `json:"latitud"`
	Lng      float64 `json:"longitud"`
}

// CategoryTotal aggregates every POI regardless of category.
const CategoryTotal = "total"

// DensityCategories are the POI categories tracked by the density engine.
// The order is part of the trained feature schema and must not change
// between releases.
var DensityCategories = []string{
	"educacion_basica",
	"educacion_superior",
	"educacion_parvularia",
	"salud",
	"salud_clinicas",
	"transporte_metro",
	"transporte_carga",
	"seguridad_pdi",
	"seguridad_cuarteles",
	"seguridad_bomberos",
	"areas_verdes",
	"ocio",
	"turismo",
	CategoryTotal,
}

// ScoringCategories are the amenity categories a preference profile can
// weigh by distance. They map to the dist_*_m columns of propiedades.
var ScoringCategories = []string{
	"transporte_metro",
	"educacion",
	"salud",
	"areas_verdes",
	"seguridad",
	"comercio",
}

// Weight keys that score the property itself rather than an amenity distance.
const (
	WeightPrice    = "precio"
	WeightLocation = "ubicacion"
	WeightSize     = "tamano"
)
