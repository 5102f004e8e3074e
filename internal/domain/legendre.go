package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LegendreTable holds Schmidt semi-normalized associated Legendre function
// values P(n,m) and their colatitude derivatives dP/dtheta, evaluated on a
// fixed array of colatitudes. Tables are keyed by (degree, order); each
// entry is aligned with the input colatitude array.
type LegendreTable struct {
	P  map[Key][]float64
	DP map[Key][]float64

	points int
}

// SchmidtLegendre computes Schmidt semi-normalized associated Legendre
// functions and their colatitude derivatives for all degrees n <= nmax and
// orders m <= min(n, mmax), at the given colatitudes (degrees).
//
// The functions are built with the standard Gauss recursion
//
//	P(n,n) = sin(theta) P(n-1,n-1)
//	P(n,m) = cos(theta) P(n-1,m) - K(n,m) P(n-2,m)
//	K(n,m) = ((n-1)^2 - m^2) / ((2n-1)(2n-3))
//
// and Schmidt-normalized afterwards.
func SchmidtLegendre(nmax, mmax int, colatDeg []float64) *LegendreTable {
	np := len(colatDeg)

	sinth := make([]float64, np)
	costh := make([]float64, np)
	for i, c := range colatDeg {
		theta := c * math.Pi / 180
		sinth[i] = math.Sin(theta)
		costh[i] = math.Cos(theta)
	}

	p := make(map[Key][]float64)
	dp := make(map[Key][]float64)

	p00 := make([]float64, np)
	for i := range p00 {
		p00[i] = 1
	}
	p[Key{0, 0}] = p00
	dp[Key{0, 0}] = make([]float64, np)

	zero := make([]float64, np)
	at := func(t map[Key][]float64, k Key) []float64 {
		if v, ok := t[k]; ok {
			return v
		}
		// Only reachable for (n-2, m) with m = n-1, where K(n,m) = 0.
		return zero
	}

	for n := 1; n <= nmax; n++ {
		for m := 0; m <= n && m <= mmax; m++ {
			pnm := make([]float64, np)
			dpnm := make([]float64, np)
			if n == m {
				pPrev, dpPrev := p[Key{n - 1, m - 1}], dp[Key{n - 1, m - 1}]
				for i := range pnm {
					pnm[i] = sinth[i] * pPrev[i]
					dpnm[i] = sinth[i]*dpPrev[i] + costh[i]*pPrev[i]
				}
			} else {
				knm := 0.0
				if n > 1 {
					knm = (float64((n-1)*(n-1)) - float64(m*m)) / float64((2*n-1)*(2*n-3))
				}
				p1, dp1 := p[Key{n - 1, m}], dp[Key{n - 1, m}]
				p2, dp2 := at(p, Key{n - 2, m}), at(dp, Key{n - 2, m})
				for i := range pnm {
					pnm[i] = costh[i]*p1[i] - knm*p2[i]
					dpnm[i] = costh[i]*dp1[i] - sinth[i]*p1[i] - knm*dp2[i]
				}
			}
			p[Key{n, m}] = pnm
			dp[Key{n, m}] = dpnm
		}
	}

	// Schmidt semi-normalization factors.
	s := make(map[Key]float64)
	s[Key{0, 0}] = 1
	for n := 1; n <= nmax; n++ {
		s[Key{n, 0}] = s[Key{n - 1, 0}] * float64(2*n-1) / float64(n)
		for m := 1; m <= n && m <= mmax; m++ {
			d := 1.0
			if m == 1 {
				d = 2.0
			}
			s[Key{n, m}] = s[Key{n, m - 1}] * math.Sqrt(float64(n-m+1)*d/float64(n+m))
		}
	}
	for k, f := range s {
		pk, dpk := p[k], dp[k]
		for i := range pk {
			pk[i] *= f
			dpk[i] *= f
		}
	}

	return &LegendreTable{P: p, DP: dp, points: np}
}

// Matrices assembles the Legendre value and latitude-derivative basis
// matrices for an ordered key list, shaped points x keys. The derivative
// is sign-flipped from d/d(colatitude) to d/d(latitude).
//
// A key absent from the table is a fatal precondition violation: the table
// was built for a smaller truncation than the key list requires.
func (t *LegendreTable) Matrices(keys []Key) (p, dp *mat.Dense, err error) {
	p = mat.NewDense(t.points, len(keys), nil)
	dp = mat.NewDense(t.points, len(keys), nil)
	for j, k := range keys {
		pk, ok := t.P[k]
		if !ok {
			return nil, nil, fmt.Errorf("legendre table has no entry for degree %d order %d", k.N, k.M)
		}
		dpk := t.DP[k]
		for i := 0; i < t.points; i++ {
			p.Set(i, j, pk[i])
			dp.Set(i, j, -dpk[i])
		}
	}
	return p, dp, nil
}
