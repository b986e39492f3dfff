package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"geoprecio/models"
)

var (
	streetReplacements = map[string]string{
		"avenida":      "av",
		"calle":        "c",
		"pasaje":       "pje",
		"camino":       "cam",
		"carretera":    "ctra",
		"departamento": "depto",
		"dpto":         "depto",
		"oficina":      "of",
		"norte":        "n",
		"sur":          "s",
		"oriente":      "ote",
		"poniente":     "pte",
	}
	multiSpaceRegex = regexp.MustCompile(`\s+`)
	nonAlnumRegex   = regexp.MustCompile(`[^a-z0-9\s]`)
	accentRepl      = strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	)
)

// Fingerprint derives a stable identity for a listing from its normalized
// address, comuna and physical attributes, so the same unit seen twice
// upserts onto one row.
func Fingerprint(p *models.Property) string {
	var bedrooms, bathrooms int
	if p.Bedrooms != nil {
		bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		bathrooms = *p.Bathrooms
	}
	var area float64
	if p.UsableArea != nil {
		area = *p.UsableArea
	}

	input := fmt.Sprintf("%s|%s|%d|%d|%.1f|%s",
		NormalizeAddress(p.Address),
		NormalizeAddress(p.Comuna),
		bedrooms,
		bathrooms,
		area,
		strings.ToLower(p.PropertyType),
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

// NormalizeAddress lowercases, strips accents and punctuation and
// abbreviates the common Chilean street prefixes.
func NormalizeAddress(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	addr = accentRepl.Replace(addr)
	addr = nonAlnumRegex.ReplaceAllString(addr, " ")
	for full, abbrev := range streetReplacements {
		addr = strings.ReplaceAll(addr, full, abbrev)
	}
	addr = multiSpaceRegex.ReplaceAllString(addr, " ")
	return strings.TrimSpace(addr)
}
