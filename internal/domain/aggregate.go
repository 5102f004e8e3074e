package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// IntegratedUpwardCurrent integrates the upward current poleward of the
// low-latitude grid boundary, in MA. Each scalar-grid cell is weighted by
// its surface area element at the current-sheet altitude; positive and
// negative cells are summed separately per hemisphere, so every non-zero
// cell contributes to exactly one of the upward or downward totals.
func (m *Model) IntegratedUpwardCurrent() (upNorth, downNorth, upSouth, downSouth float64) {
	jun, jus := m.UpwardCurrent()
	r := m.cfg.Resolution

	north, _ := m.ScalarGrid.Split()
	mlatRes := (north.MLat[1] - north.MLat[0]) * math.Pi / 180
	mltRes := (north.MLT[r] - north.MLT[0]) * math.Pi / 12
	radius := (RefRE + m.cfg.Height) * 1e3

	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			lat := north.MLat[i*r+j]
			ds := radius * radius * math.Cos(lat*math.Pi/180) * mlatRes * mltRes

			// µA/m² x m² with two 1e-6 steps: to A, then to MA.
			jn := ds * jun.At(i, j) * 1e-12
			js := ds * jus.At(i, j) * 1e-12
			switch {
			case jn > 0:
				upNorth += jn
			case jn < 0:
				downNorth += jn
			}
			switch {
			case js > 0:
				upSouth += js
			case js < 0:
				downSouth += js
			}
		}
	}
	return upNorth, downNorth, upSouth, downSouth
}

// AEIndices computes model auroral-electrojet indices AL and AU per
// hemisphere, in nT: the lower and upper envelopes of the northward ground
// perturbation evaluated on the cached scalar grid. The perturbation reuses
// the poloidal scalar-grid basis matrices, so no Legendre recursion runs.
func (m *Model) AEIndices() (alNorth, alSouth, auNorth, auSouth float64) {
	scale := m.groundScale()
	bn := gsum(scale, m.polSca.dp, m.polSca.cosMPhi, m.polSca.sinMPhi, m.coeff.PolC, m.coeff.PolS)

	h := len(bn) / 2
	return floats.Min(bn[:h]), floats.Min(bn[h:]), floats.Max(bn[:h]), floats.Max(bn[h:])
}
