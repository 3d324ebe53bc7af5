package forest

import "math"

type cellKey struct {
	x, z int
}

// spatialGrid buckets accepted placements by cells of side minSpacing, so a
// spacing check only visits the 3x3 neighbourhood around a point.
type spatialGrid struct {
	cell    float64
	spacing float64
	cells   map[cellKey][]int
	xs, zs  []float64
}

func newSpatialGrid(spacing float64, capacity int) *spatialGrid {
	return &spatialGrid{
		cell:    spacing,
		spacing: spacing,
		cells:   make(map[cellKey][]int, capacity),
		xs:      make([]float64, 0, capacity),
		zs:      make([]float64, 0, capacity),
	}
}

func (g *spatialGrid) key(x, z float64) cellKey {
	return cellKey{int(math.Floor(x / g.cell)), int(math.Floor(z / g.cell))}
}

// fits reports whether (x, z) is at least spacing away from every point.
func (g *spatialGrid) fits(x, z float64) bool {
	k := g.key(x, z)
	limit := g.spacing * g.spacing
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			for _, idx := range g.cells[cellKey{k.x + dx, k.z + dz}] {
				ddx := g.xs[idx] - x
				ddz := g.zs[idx] - z
				if ddx*ddx+ddz*ddz < limit {
					return false
				}
			}
		}
	}
	return true
}

func (g *spatialGrid) insert(x, z float64) {
	k := g.key(x, z)
	g.cells[k] = append(g.cells[k], len(g.xs))
	g.xs = append(g.xs, x)
	g.zs = append(g.zs, z)
}

func (g *spatialGrid) len() int {
	return len(g.xs)
}
