package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Grid is an ordered set of evaluation points in geomagnetic latitude
// (degrees) and magnetic local time (hours). Southern-hemisphere points are
// appended after northern-hemisphere points with latitude negated and local
// time preserved, so the two halves are equal in count and positionally
// aligned.
type Grid struct {
	MLat []float64
	MLT  []float64
}

// Len returns the number of grid points, both hemispheres included.
func (g Grid) Len() int {
	return len(g.MLat)
}

// Split returns the northern and southern halves of the grid.
func (g Grid) Split() (north, south Grid) {
	h := len(g.MLat) / 2
	north = Grid{MLat: g.MLat[:h], MLT: g.MLT[:h]}
	south = Grid{MLat: g.MLat[h:], MLT: g.MLT[h:]}
	return north, south
}

// mirror builds a two-hemisphere grid from northern points: the southern
// half repeats the points with latitude negated.
func mirror(mlat, mlt []float64) Grid {
	n := len(mlat)
	g := Grid{
		MLat: make([]float64, 2*n),
		MLT:  make([]float64, 2*n),
	}
	copy(g.MLat, mlat)
	copy(g.MLT, mlt)
	for i := 0; i < n; i++ {
		g.MLat[n+i] = -mlat[i]
		g.MLT[n+i] = mlt[i]
	}
	return g
}

// EqualAreaBins returns bin edges for an equal-area polar grid: rings of dr
// degrees latitude extend equatorward from the pole down to 50 degrees, and
// the most poleward ring holds m0 local-time sectors. Each following ring
// holds the multiple of m0 sectors that keeps the cell solid angle closest
// to that of the polemost cells.
//
// The returned slices are aligned per bin: equatorward latitude edge,
// local-time edge (hours), and local-time bin width (hours).
func EqualAreaBins(dr float64, m0 int) (latEdge, mltEdge, mltRes []float64) {
	rings := int(40.0 / dr)
	d2r := math.Pi / 180

	// Solid angle of the polemost ring, shared by its m0 cells.
	a0 := (1 - math.Cos(dr*d2r)) / float64(m0)

	for k := 0; k < rings; k++ {
		colat0 := float64(k) * dr
		colat1 := float64(k+1) * dr
		area := math.Cos(colat0*d2r) - math.Cos(colat1*d2r)

		sectors := m0 * int(math.Round(area/(a0*float64(m0))))
		if sectors < m0 {
			sectors = m0
		}

		width := 24.0 / float64(sectors)
		for j := 0; j < sectors; j++ {
			latEdge = append(latEdge, 90-colat1)
			mltEdge = append(mltEdge, float64(j)*width)
			mltRes = append(mltRes, width)
		}
	}
	return latEdge, mltEdge, mltRes
}

// NewVectorGrid builds the sparse equal-area grid used for vector field
// quantities: bin edges are shifted to bin centers, filtered to the
// [minlat, maxlat] latitude band and mirrored into the southern hemisphere.
func NewVectorGrid(minlat, maxlat, dr float64, m0 int) Grid {
	latEdge, mltEdge, mltRes := EqualAreaBins(dr, m0)

	var mlat, mlt []float64
	for i := range latEdge {
		lat := latEdge[i] + dr/2
		if lat < minlat || lat > maxlat {
			continue
		}
		mlat = append(mlat, lat)
		mlt = append(mlt, mltEdge[i]+mltRes[i]/2)
	}
	return mirror(mlat, mlt)
}

// NewScalarGrid builds the dense rectangular grid used for scalar map
// quantities: resolution x resolution points covering mlat in
// [minlat, maxlat] and the full local-time circle, mirrored into the
// southern hemisphere. Local time runs over bin centers offset by +12 h,
// with latitude varying fastest, so each map reshapes to
// resolution x resolution rows of constant local time.
func NewScalarGrid(minlat, maxlat float64, resolution int) Grid {
	lats := make([]float64, resolution)
	floats.Span(lats, minlat, maxlat)
	lons := make([]float64, resolution)
	floats.Span(lons, -179.9, 179.9)

	n := resolution * resolution
	mlat := make([]float64, 0, n)
	mlt := make([]float64, 0, n)
	for _, lon := range lons {
		for _, lat := range lats {
			mlat = append(mlat, lat)
			mlt = append(mlt, lon*12/180+12)
		}
	}
	return mirror(mlat, mlt)
}
