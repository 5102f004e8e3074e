package domain

import (
	"math"
	"testing"
)

// TestEqualAreaBins checks the polemost ring and the equal-area sector
// scaling.
func TestEqualAreaBins(t *testing.T) {
	latEdge, mltEdge, mltRes := EqualAreaBins(2, 4)

	if len(latEdge) != len(mltEdge) || len(latEdge) != len(mltRes) {
		t.Fatalf("bin arrays differ in length: %d, %d, %d", len(latEdge), len(mltEdge), len(mltRes))
	}

	// Polemost ring: 4 sectors of 6 hours at lat edge 88.
	for i := 0; i < 4; i++ {
		if latEdge[i] != 88 {
			t.Errorf("bin %d: expected lat edge 88, got %g", i, latEdge[i])
		}
		if mltRes[i] != 6 {
			t.Errorf("bin %d: expected 6 h sectors, got %g", i, mltRes[i])
		}
		if want := float64(i) * 6; mltEdge[i] != want {
			t.Errorf("bin %d: expected mlt edge %g, got %g", i, want, mltEdge[i])
		}
	}

	// Cell solid angles stay within a factor ~1.5 of the polemost cell.
	d2r := math.Pi / 180
	a0 := (1 - math.Cos(2*d2r)) / 4
	for i := range latEdge {
		colat1 := (90 - latEdge[i]) * d2r
		colat0 := colat1 - 2*d2r
		area := (math.Cos(colat0) - math.Cos(colat1)) * mltRes[i] / 24
		if ratio := area / a0; ratio < 0.6 || ratio > 1.6 {
			t.Errorf("bin %d: cell area ratio %g outside equal-area tolerance", i, ratio)
		}
	}
}

// TestNewVectorGrid checks band filtering, bin-center shift and hemisphere
// mirroring.
func TestNewVectorGrid(t *testing.T) {
	g := NewVectorGrid(60, 89.99, 2, 4)

	if g.Len()%2 != 0 {
		t.Fatalf("grid length must be even, got %d", g.Len())
	}

	north, south := g.Split()
	if north.Len() != south.Len() {
		t.Fatalf("hemisphere halves differ: %d vs %d", north.Len(), south.Len())
	}

	for i := 0; i < north.Len(); i++ {
		if north.MLat[i] < 60 || north.MLat[i] > 89.99 {
			t.Errorf("point %d: latitude %g outside [60, 89.99]", i, north.MLat[i])
		}
		if south.MLat[i] != -north.MLat[i] {
			t.Errorf("point %d: southern latitude %g is not mirror of %g", i, south.MLat[i], north.MLat[i])
		}
		if south.MLT[i] != north.MLT[i] {
			t.Errorf("point %d: southern MLT %g differs from northern %g", i, south.MLT[i], north.MLT[i])
		}
	}

	// Bin centers: polemost filtered ring sits at 89, not at an edge.
	maxLat := north.MLat[0]
	for _, lat := range north.MLat {
		if lat > maxLat {
			maxLat = lat
		}
	}
	if maxLat != 89 {
		t.Errorf("expected polemost bin center at 89, got %g", maxLat)
	}
}

// TestNewScalarGrid checks the documented 2 x resolution^2 layout with
// latitude varying fastest and the +12 h local-time convention.
func TestNewScalarGrid(t *testing.T) {
	g := NewScalarGrid(60, 89.99, 4)

	if g.Len() != 32 {
		t.Fatalf("expected 32 points, got %d", g.Len())
	}

	for i := 0; i < 16; i++ {
		if g.MLat[i] <= 0 {
			t.Errorf("point %d: expected positive latitude, got %g", i, g.MLat[i])
		}
		if g.MLat[16+i] != -g.MLat[i] {
			t.Errorf("point %d: south latitude %g is not mirror of %g", i, g.MLat[16+i], g.MLat[i])
		}
		if g.MLT[16+i] != g.MLT[i] {
			t.Errorf("point %d: south MLT differs", i)
		}
	}

	// Latitude varies fastest: each block of 4 sweeps minlat..maxlat.
	if g.MLat[0] != 60 || math.Abs(g.MLat[3]-89.99) > 1e-12 || g.MLat[4] != 60 {
		t.Errorf("latitude ordering wrong: %v", g.MLat[:5])
	}

	// Local time is in hours, offset by +12 from the degree convention.
	for i, mlt := range g.MLT {
		if mlt <= 0 || mlt >= 24 {
			t.Errorf("point %d: MLT %g outside (0, 24)", i, mlt)
		}
	}
	if want := -179.9*12.0/180 + 12; math.Abs(g.MLT[0]-want) > 1e-12 {
		t.Errorf("first MLT: expected %g, got %g", want, g.MLT[0])
	}
}
