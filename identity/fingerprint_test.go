package identity

import (
	"testing"

	"geoprecio/models"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestNormalizeAddress(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Avenida Irarrázaval 1234", "av irarrazaval 1234"},
		{"  CALLE Ñuñoa 56, Depto. 301 ", "c nunoa 56 depto 301"},
		{"Pasaje Los Alerces  77", "pje los alerces 77"},
	}
	for _, c := range cases {
		if got := NormalizeAddress(c.in); got != c.want {
			t.Fatalf("NormalizeAddress(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFingerprintStable(t *testing.T) {
	a := &models.Property{
		Address:      "Avenida Irarrázaval 1234",
		Comuna:       "Ñuñoa",
		PropertyType: "Departamento",
		Bedrooms:     iptr(2),
		Bathrooms:    iptr(2),
		UsableArea:   fptr(72),
	}
	b := &models.Property{
		Address:      "avenida irarrazaval 1234",
		Comuna:       "nunoa",
		PropertyType: "departamento",
		Bedrooms:     iptr(2),
		Bathrooms:    iptr(2),
		UsableArea:   fptr(72),
	}

	if Fingerprint(a) != Fingerprint(b) {
		t.Fatal("equivalent listings must share a fingerprint")
	}

	c := &models.Property{
		Address:      "Avenida Irarrázaval 1234",
		Comuna:       "Ñuñoa",
		PropertyType: "departamento",
		Bedrooms:     iptr(3),
		Bathrooms:    iptr(2),
		UsableArea:   fptr(72),
	}
	if Fingerprint(a) == Fingerprint(c) {
		t.Fatal("different bedroom counts must not collide")
	}
}
