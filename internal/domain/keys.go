// Package domain implements the AMPS (Average Magnetic field and Polar
// current System) model: a truncated spherical-harmonic expansion of
// high-latitude ionospheric currents and their magnetic perturbations,
// evaluated on magnetic-coordinate grids.
package domain

import "fmt"

// Key identifies one term of a spherical-harmonic expansion by
// degree N and order M.
type Key struct {
	N int // Degree, >= 1 for model terms.
	M int // Order, 0 <= M <= N.
}

// Validate checks the degree/order constraints for a model term.
func (k Key) Validate() error {
	if k.N < 1 {
		return fmt.Errorf("harmonic key degree must be >= 1, got %d", k.N)
	}
	if k.M < 0 || k.M > k.N {
		return fmt.Errorf("harmonic key order must be in [0, %d], got %d", k.N, k.M)
	}
	return nil
}

// ValidateKeys checks every key of an ordered key list.
func ValidateKeys(keys []Key) error {
	if len(keys) == 0 {
		return fmt.Errorf("harmonic key list must not be empty")
	}
	for i, k := range keys {
		if err := k.Validate(); err != nil {
			return fmt.Errorf("key %d: %w", i, err)
		}
	}
	return nil
}

// MaxDegreeOrder returns the highest degree and order across the given
// key lists. Used to size the Legendre recursion.
func MaxDegreeOrder(keyLists ...[]Key) (n, m int) {
	for _, keys := range keyLists {
		for _, k := range keys {
			if k.N > n {
				n = k.N
			}
			if k.M > m {
				m = k.M
			}
		}
	}
	return n, m
}

// degreesOrders extracts the degrees and orders of an ordered key list
// as float64 slices, aligned with the coefficient vector index order.
func degreesOrders(keys []Key) (ns, ms []float64) {
	ns = make([]float64, len(keys))
	ms = make([]float64, len(keys))
	for i, k := range keys {
		ns[i] = float64(k.N)
		ms[i] = float64(k.M)
	}
	return ns, ms
}

// sameKeys reports whether two ordered key lists are identical in
// content and order.
func sameKeys(a, b []Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
