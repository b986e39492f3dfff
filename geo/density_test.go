package geo

import (
	"math"
	"testing"

	"geoprecio/models"
)

const (
	plazaLat = -33.4372
	plazaLng = -70.6506
)

func testPOIs() []models.POI {
	return []models.POI{
		{Category: "transporte_metro", Lat: plazaLat + 0.001, Lng: plazaLng},  // ~111 m
		{Category: "transporte_metro", Lat: plazaLat + 0.004, Lng: plazaLng},  // ~444 m
		{Category: "educacion_basica", Lat: plazaLat, Lng: plazaLng + 0.008},  // ~740 m
		{Category: "salud", Lat: plazaLat + 0.05, Lng: plazaLng},              // ~5.5 km, out of range
	}
}

func TestIndexDensities(t *testing.T) {
	ix := NewIndex(testPOIs())

	d := ix.Densities(plazaLat, plazaLng)

	if got := d[FeatureName("transporte_metro", 300)]; got != densityPerKm2(1, 300) {
		t.Fatalf("metro@300m = %v, want %v", got, densityPerKm2(1, 300))
	}
	if got := d[FeatureName("transporte_metro", 600)]; got != densityPerKm2(2, 600) {
		t.Fatalf("metro@600m = %v, want %v", got, densityPerKm2(2, 600))
	}
	if got := d[FeatureName("educacion_basica", 1000)]; got != densityPerKm2(1, 1000) {
		t.Fatalf("educacion_basica@1000m = %v, want %v", got, densityPerKm2(1, 1000))
	}
	// The far salud POI must not count at any radius.
	for _, r := range Radii {
		if got := d[FeatureName("salud", r)]; got != 0 {
			t.Fatalf("salud@%dm = %v, want 0", r, got)
		}
	}
	// total counts every in-range POI regardless of category.
	if got := d[FeatureName(models.CategoryTotal, 1000)]; got != densityPerKm2(3, 1000) {
		t.Fatalf("total@1000m = %v, want %v", got, densityPerKm2(3, 1000))
	}
}

func TestIndexEmptyCategoryIsZero(t *testing.T) {
	ix := NewIndex(testPOIs())
	d := ix.Densities(plazaLat, plazaLng)

	for _, r := range Radii {
		if got := d[FeatureName("turismo", r)]; got != 0 {
			t.Fatalf("turismo@%dm = %v, want 0", r, got)
		}
	}
}

func TestCountMonotoneInRadius(t *testing.T) {
	ix := NewIndex(testPOIs())
	d := ix.Densities(plazaLat, plazaLng)

	// Density itself is not monotone in the radius, but the underlying
	// count is: count(r) = density * pi * r^2 in km.
	for _, cat := range models.DensityCategories {
		prev := -1.0
		for _, r := range Radii {
			rKm := float64(r) / 1000
			count := d[FeatureName(cat, r)] * math.Pi * rKm * rKm
			if count < prev-1e-9 {
				t.Fatalf("%s: count shrank from %v to %v at %dm", cat, prev, count, r)
			}
			prev = count
		}
	}
}

func TestIndexCoversAllFeatures(t *testing.T) {
	ix := NewIndex(nil)
	d := ix.Densities(plazaLat, plazaLng)

	want := len(models.DensityCategories) * len(Radii)
	if len(d) != want {
		t.Fatalf("feature count = %d, want %d", len(d), want)
	}
	for k, v := range d {
		if v != 0 {
			t.Fatalf("empty index: %s = %v, want 0", k, v)
		}
	}
}

func TestZoneTableDeterministic(t *testing.T) {
	zt := DefaultZoneTable()

	if !zt.Degraded() {
		t.Fatal("zone table must report degraded mode")
	}

	a := zt.Densities(plazaLat, plazaLng)
	b := zt.Densities(plazaLat, plazaLng)
	if len(a) != len(models.DensityCategories)*len(Radii) {
		t.Fatalf("feature count = %d", len(a))
	}
	for k, v := range a {
		if b[k] != v {
			t.Fatalf("non-deterministic value for %s: %v vs %v", k, v, b[k])
		}
	}

	// A coordinate outside every zone falls into the default zone.
	out := zt.Densities(-33.65, -70.9)
	if got := out[FeatureName("salud", 300)]; got != 0.45 {
		t.Fatalf("default zone salud@300m = %v, want 0.45", got)
	}
}
