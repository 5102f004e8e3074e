package domain

import (
	"math"
	"testing"
)

// TestSchmidtLegendre_LowDegree checks the recursion against closed forms
// of the first Schmidt semi-normalized functions.
func TestSchmidtLegendre_LowDegree(t *testing.T) {
	colat := []float64{1, 30, 60, 90, 150}
	tbl := SchmidtLegendre(2, 2, colat)

	for i, c := range colat {
		theta := c * math.Pi / 180
		sin, cos := math.Sin(theta), math.Cos(theta)

		cases := []struct {
			key  Key
			want float64
		}{
			{Key{1, 0}, cos},
			{Key{1, 1}, sin},
			{Key{2, 0}, 0.5 * (3*cos*cos - 1)},
			{Key{2, 1}, math.Sqrt(3) * sin * cos},
			{Key{2, 2}, math.Sqrt(3) / 2 * sin * sin},
		}
		for _, tc := range cases {
			got := tbl.P[tc.key][i]
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("P(%d,%d) at colat %g: expected %.12f, got %.12f", tc.key.N, tc.key.M, c, tc.want, got)
			}
		}

		// dP(1,0)/dtheta = -sin(theta).
		if got := tbl.DP[Key{1, 0}][i]; math.Abs(got-(-sin)) > 1e-12 {
			t.Errorf("dP(1,0) at colat %g: expected %.12f, got %.12f", c, -sin, got)
		}
	}
}

// TestSchmidtLegendre_DerivativeFiniteDifference cross-checks the analytic
// colatitude derivatives against central differences.
func TestSchmidtLegendre_DerivativeFiniteDifference(t *testing.T) {
	const h = 1e-5 // degrees
	colat := []float64{20, 45, 75, 110}

	lo := make([]float64, len(colat))
	hi := make([]float64, len(colat))
	for i, c := range colat {
		lo[i], hi[i] = c-h, c+h
	}

	tbl := SchmidtLegendre(4, 3, colat)
	tblLo := SchmidtLegendre(4, 3, lo)
	tblHi := SchmidtLegendre(4, 3, hi)

	d2r := math.Pi / 180
	for key, dp := range tbl.DP {
		for i := range colat {
			fd := (tblHi.P[key][i] - tblLo.P[key][i]) / (2 * h * d2r)
			if math.Abs(dp[i]-fd) > 1e-5 {
				t.Errorf("dP(%d,%d) at colat %g: analytic %.8f, finite difference %.8f", key.N, key.M, colat[i], dp[i], fd)
			}
		}
	}
}

// TestLegendreTable_Matrices checks matrix assembly, the latitude sign flip
// and the missing-key failure mode.
func TestLegendreTable_Matrices(t *testing.T) {
	colat := []float64{30, 60}
	tbl := SchmidtLegendre(2, 2, colat)

	keys := []Key{{1, 0}, {2, 1}}
	p, dp, err := tbl.Matrices(keys)
	if err != nil {
		t.Fatalf("Matrices: %v", err)
	}

	r, c := p.Dims()
	if r != 2 || c != 2 {
		t.Fatalf("P dims: expected 2x2, got %dx%d", r, c)
	}

	// dp must be the negated colatitude derivative.
	for i := range colat {
		for j, key := range keys {
			if math.Abs(dp.At(i, j)+tbl.DP[key][i]) > 1e-15 {
				t.Errorf("dP(%d,%d) not sign-flipped at row %d", key.N, key.M, i)
			}
		}
	}

	if _, _, err := tbl.Matrices([]Key{{5, 0}}); err == nil {
		t.Error("expected error for key beyond table truncation")
	}
}
