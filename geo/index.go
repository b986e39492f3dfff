package geo

import (
	"math"

	"geoprecio/models"
)

type cellKey struct {
	x int32
	y int32
}

// Index is a read-only spatial hash over the POI table. Cells are sized to
// the largest sampling radius, so any density query is answered from the
// 3x3 block of cells around the query point plus an exact distance check.
type Index struct {
	cells       map[cellKey][]models.POI
	cellSizeDeg float64
	total       int
}

// NewIndex buckets the POIs into grid cells. POIs with a category outside
// the tracked set still count toward the total category.
func NewIndex(pois []models.POI) *Index {
	maxRadius := 0
	for _, r := range Radii {
		if r > maxRadius {
			maxRadius = r
		}
	}
	ix := &Index{
		cells: make(map[cellKey][]models.POI),
		// Sized to the longitude scale at Santiago's latitude (~90 km per
		// degree) so the 3x3 cell block always covers the largest radius.
		cellSizeDeg: float64(maxRadius) / 1000.0 / 90.0,
	}
	for _, p := range pois {
		k := ix.keyFor(p.Lat, p.Lng)
		ix.cells[k] = append(ix.cells[k], p)
		ix.total++
	}
	return ix
}

func (ix *Index) keyFor(lat, lng float64) cellKey {
	return cellKey{
		x: int32(math.Floor(lng / ix.cellSizeDeg)),
		y: int32(math.Floor(lat / ix.cellSizeDeg)),
	}
}

// Size returns the number of indexed POIs.
func (ix *Index) Size() int { return ix.total }

func (ix *Index) Degraded() bool { return false }

// Densities samples every category at every radius in a single pass over
// the neighboring cells. Categories with no nearby POI yield 0.
func (ix *Index) Densities(lat, lng float64) map[string]float64 {
	counts := make(map[string][]int, len(models.DensityCategories))
	for _, cat := range models.DensityCategories {
		counts[cat] = make([]int, len(Radii))
	}

	center := ix.keyFor(lat, lng)
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for _, p := range ix.cells[cellKey{x: center.x + dx, y: center.y + dy}] {
				d := haversineM(lat, lng, p.Lat, p.Lng)
				for i, r := range Radii {
					if d > float64(r) {
						continue
					}
					if c, ok := counts[p.Category]; ok {
						c[i]++
					}
					counts[models.CategoryTotal][i]++
				}
			}
		}
	}

	out := make(map[string]float64, len(models.DensityCategories)*len(Radii))
	for _, cat := range models.DensityCategories {
		for i, r := range Radii {
			out[FeatureName(cat, r)] = densityPerKm2(counts[cat][i], r)
		}
	}
	return out
}
