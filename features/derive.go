package features

import (
	"fmt"

	"geoprecio/config"
	"geoprecio/geo"
	"geoprecio/models"
)

// Deriver validates raw attributes and produces the full feature vector.
type Deriver struct {
	densities geo.DensityProvider
	bounds    config.BoundingBox
}

func NewDeriver(p geo.DensityProvider, bounds config.BoundingBox) *Deriver {
	return &Deriver{densities: p, bounds: bounds}
}

// Degraded reports whether densities come from the macro-zone fallback.
func (d *Deriver) Degraded() bool {
	return d.densities.Degraded()
}

// Validate checks the raw attributes without deriving anything.
func (d *Deriver) Validate(attrs models.PropertyAttributes) error {
	if attrs.UsableArea <= 0 {
		return &models.ValidationError{Field: "superficie_util", Reason: "debe ser mayor que 0"}
	}
	if attrs.Bedrooms < 0 || attrs.Bathrooms < 0 || attrs.ParkingSpots < 0 || attrs.StorageUnits < 0 {
		return &models.ValidationError{Field: "atributos", Reason: "los conteos no pueden ser negativos"}
	}
	if !d.bounds.Contains(attrs.Lat, attrs.Lng) {
		return &models.ValidationError{
			Field: "coordenadas",
			Reason: fmt.Sprintf("(%.4f, %.4f) fuera del area de servicio lat [%.2f, %.2f] lng [%.2f, %.2f]",
				attrs.Lat, attrs.Lng, d.bounds.LatMin, d.bounds.LatMax, d.bounds.LngMin, d.bounds.LngMax),
		}
	}
	return nil
}

// Derive builds the full ordered feature vector for the attributes. The
// density provider must cover every schema density key; a hole means the
// provider and the trained schema disagree and is returned as an error.
func (d *Deriver) Derive(attrs models.PropertyAttributes) (*Vector, error) {
	if err := d.Validate(attrs); err != nil {
		return nil, err
	}

	v := newVector(Schema())

	base := map[string]float64{
		"superficie_util":  attrs.UsableArea,
		"dormitorios":      float64(attrs.Bedrooms),
		"banos":            float64(attrs.Bathrooms),
		"estacionamientos": float64(attrs.ParkingSpots),
		"bodegas":          float64(attrs.StorageUnits),
	}
	for name, val := range base {
		if err := v.set(name, val); err != nil {
			return nil, err
		}
	}

	for name, val := range Derived(attrs) {
		if err := v.set(name, val); err != nil {
			return nil, err
		}
	}

	dens := d.densities.Densities(attrs.Lat, attrs.Lng)
	for _, name := range DensityNames() {
		val, ok := dens[name]
		if !ok {
			return nil, fmt.Errorf("proveedor de densidades sin la feature %s", name)
		}
		if err := v.set(name, val); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// Derived computes the three occupancy-derived features. Divisors are
// floored at 1 so zero-bedroom or zero-occupant inputs stay finite.
func Derived(attrs models.PropertyAttributes) map[string]float64 {
	occupants := attrs.MaxOccupants
	if occupants < 1 {
		occupants = 1
	}
	bedrooms := attrs.Bedrooms
	if bedrooms < 1 {
		bedrooms = 1
	}
	return map[string]float64{
		"m2_por_habitante":   attrs.UsableArea / float64(occupants),
		"total_habitaciones": float64(attrs.Bedrooms + attrs.Bathrooms),
		"ratio_bano_dorm":    float64(attrs.Bathrooms) / float64(bedrooms),
	}
}
