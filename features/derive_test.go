package features

import (
	"errors"
	"math"
	"testing"

	"geoprecio/config"
	"geoprecio/geo"
	"geoprecio/models"
)

func testDeriver() *Deriver {
	return NewDeriver(geo.DefaultZoneTable(), config.SantiagoBounds)
}

func validAttrs() models.PropertyAttributes {
	return models.PropertyAttributes{
		UsableArea:   85,
		Bedrooms:     3,
		Bathrooms:    2,
		MaxOccupants: 6,
		Lat:          -33.45,
		Lng:          -70.66,
	}
}

func TestDerivedFormulas(t *testing.T) {
	d := Derived(validAttrs())

	if got, want := d["m2_por_habitante"], 85.0/6.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("m2_por_habitante = %v, want %v", got, want)
	}
	if got := d["total_habitaciones"]; got != 5 {
		t.Fatalf("total_habitaciones = %v, want 5", got)
	}
	if got, want := d["ratio_bano_dorm"], 2.0/3.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("ratio_bano_dorm = %v, want %v", got, want)
	}
}

func TestDerivedZeroDivisors(t *testing.T) {
	attrs := models.PropertyAttributes{UsableArea: 40, Bathrooms: 1}
	d := Derived(attrs)

	if got := d["m2_por_habitante"]; got != 40 {
		t.Fatalf("m2_por_habitante with 0 occupants = %v, want 40", got)
	}
	if got := d["ratio_bano_dorm"]; got != 1 {
		t.Fatalf("ratio_bano_dorm with 0 bedrooms = %v, want 1", got)
	}
}

func TestSchemaShape(t *testing.T) {
	s := Schema()

	want := 5 + 3 + 14*3
	if len(s) != want {
		t.Fatalf("schema length = %d, want %d", len(s), want)
	}
	if s[0] != "superficie_util" || s[5] != "m2_por_habitante" {
		t.Fatalf("schema order broken: %v", s[:8])
	}
	if s[8] != "dens_educacion_basica_300m" {
		t.Fatalf("first density = %s", s[8])
	}
	if s[len(s)-1] != "dens_total_1000m" {
		t.Fatalf("last density = %s", s[len(s)-1])
	}

	// Mutating the returned slice must not affect the schema.
	s[0] = "x"
	if Schema()[0] != "superficie_util" {
		t.Fatal("schema not copied")
	}
}

func TestDeriveFullVector(t *testing.T) {
	v, err := testDeriver().Derive(validAttrs())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}

	if got := len(v.Names()); got != len(Schema()) {
		t.Fatalf("vector length = %d, want %d", got, len(Schema()))
	}
	if got, _ := v.Get("superficie_util"); got != 85 {
		t.Fatalf("superficie_util = %v", got)
	}
	if _, ok := v.Get("dens_total_600m"); !ok {
		t.Fatal("missing density feature")
	}

	if _, err := v.Slice([]string{"no_existe"}); err == nil {
		t.Fatal("Slice with unknown feature must fail")
	}
}

func TestValidateRejectsBadInput(t *testing.T) {
	d := testDeriver()

	attrs := validAttrs()
	attrs.UsableArea = 0
	var ve *models.ValidationError
	if err := d.Validate(attrs); !errors.As(err, &ve) {
		t.Fatalf("zero area: got %v, want ValidationError", err)
	}

	attrs = validAttrs()
	attrs.Lat = -34.5
	if err := d.Validate(attrs); !errors.As(err, &ve) {
		t.Fatalf("out-of-box lat: got %v, want ValidationError", err)
	}
}

func TestTightenedBoundsReject(t *testing.T) {
	// (-33.40, -70.55) is inside the default service area but outside a
	// tightened one.
	attrs := validAttrs()
	attrs.Lat, attrs.Lng = -33.40, -70.55

	if err := testDeriver().Validate(attrs); err != nil {
		t.Fatalf("default bounds must accept the point: %v", err)
	}

	tight := config.BoundingBox{LatMin: -33.5, LatMax: -33.42, LngMin: -70.7, LngMax: -70.6}
	d := NewDeriver(geo.DefaultZoneTable(), tight)
	var ve *models.ValidationError
	if err := d.Validate(attrs); !errors.As(err, &ve) {
		t.Fatalf("tightened bounds: got %v, want ValidationError", err)
	}
}
