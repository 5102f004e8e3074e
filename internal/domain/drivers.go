package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Drivers holds the external solar-wind and activity parameters that the
// model coefficients depend on.
type Drivers struct {
	V    float64 // Solar wind velocity in km/s.
	By   float64 // IMF GSM y component in nT.
	Bz   float64 // IMF GSM z component in nT.
	Tilt float64 // Dipole tilt angle in degrees.
	F107 float64 // F10.7 index in s.f.u.
}

// NumExternalTerms is the number of regression terms each model coefficient
// is expanded in.
const NumExternalTerms = 19

// ExternalTerms returns the external-parameter vector the regression
// coefficients multiply: products of the IMF clock angle factors, the
// epsilon and tau solar wind coupling functions, the dipole tilt and F10.7.
func (d Drivers) ExternalTerms() []float64 {
	ca := math.Atan2(d.By, d.Bz)
	b := math.Hypot(d.By, d.Bz)
	vb := math.Pow(math.Abs(d.V), 4.0/3.0) * math.Pow(b, 2.0/3.0)

	// Coupling functions, scaled to mV/m.
	s8 := math.Pow(math.Sin(ca/2), 8)
	c8 := math.Pow(math.Cos(ca/2), 8)
	epsilon := vb * math.Pow(s8, 1.0/3.0) / 1000
	tau := vb * math.Pow(c8, 1.0/3.0) / 1000

	sinca, cosca := math.Sin(ca), math.Cos(ca)
	tilt := d.Tilt

	return []float64{
		1, sinca, cosca,
		epsilon, epsilon * sinca, epsilon * cosca,
		tilt, tilt * sinca, tilt * cosca,
		tilt * epsilon, tilt * epsilon * sinca, tilt * epsilon * cosca,
		tau, tau * sinca, tau * cosca,
		tilt * tau, tilt * tau * sinca, tilt * tau * cosca,
		d.F107,
	}
}

// Coefficients holds one realization of the model: the four coefficient
// vectors of the toroidal and poloidal expansions and the ordered harmonic
// key lists their indices refer to. Units are nT.
type Coefficients struct {
	TorC, TorS []float64
	PolC, PolS []float64
	KeysT      []Key
	KeysP      []Key
}

// Validate checks the structural invariants: paired vectors of equal
// length, matching key list sizes, and well-formed keys.
func (c *Coefficients) Validate() error {
	if len(c.TorC) != len(c.TorS) {
		return fmt.Errorf("toroidal cos/sin vectors differ in length: %d vs %d", len(c.TorC), len(c.TorS))
	}
	if len(c.PolC) != len(c.PolS) {
		return fmt.Errorf("poloidal cos/sin vectors differ in length: %d vs %d", len(c.PolC), len(c.PolS))
	}
	if len(c.TorC) != len(c.KeysT) {
		return fmt.Errorf("toroidal vectors have %d terms but key list has %d", len(c.TorC), len(c.KeysT))
	}
	if len(c.PolC) != len(c.KeysP) {
		return fmt.Errorf("poloidal vectors have %d terms but key list has %d", len(c.PolC), len(c.KeysP))
	}
	if err := ValidateKeys(c.KeysT); err != nil {
		return fmt.Errorf("toroidal keys: %w", err)
	}
	if err := ValidateKeys(c.KeysP); err != nil {
		return fmt.Errorf("poloidal keys: %w", err)
	}
	return nil
}

// CoefficientModel maps driver parameters to one realization of the model
// coefficient vectors. Implementations must return structurally identical
// key lists for every call: the evaluation engine caches basis matrices
// against a fixed truncation.
type CoefficientModel interface {
	Vectors(d Drivers) (*Coefficients, error)
}

// RegressionTable is the empirical AMPS coefficient model: each harmonic
// term of the four series carries a row of regression coefficients over the
// external-parameter terms. Multiplying a row block by the external vector
// of a driver set yields the coefficient vectors.
type RegressionTable struct {
	KeysT, KeysP []Key

	// Row blocks shaped len(keys) x NumExternalTerms.
	TorC, TorS *mat.Dense
	PolC, PolS *mat.Dense
}

// Validate checks table shapes against the key lists.
func (t *RegressionTable) Validate() error {
	if err := ValidateKeys(t.KeysT); err != nil {
		return fmt.Errorf("toroidal keys: %w", err)
	}
	if err := ValidateKeys(t.KeysP); err != nil {
		return fmt.Errorf("poloidal keys: %w", err)
	}
	check := func(name string, block *mat.Dense, keys int) error {
		if block == nil {
			return fmt.Errorf("%s block is missing", name)
		}
		r, c := block.Dims()
		if r != keys || c != NumExternalTerms {
			return fmt.Errorf("%s block is %dx%d, want %dx%d", name, r, c, keys, NumExternalTerms)
		}
		return nil
	}
	if err := check("tor_c", t.TorC, len(t.KeysT)); err != nil {
		return err
	}
	if err := check("tor_s", t.TorS, len(t.KeysT)); err != nil {
		return err
	}
	if err := check("pol_c", t.PolC, len(t.KeysP)); err != nil {
		return err
	}
	if err := check("pol_s", t.PolS, len(t.KeysP)); err != nil {
		return err
	}
	return nil
}

// Vectors computes the coefficient vectors for a driver set.
func (t *RegressionTable) Vectors(d Drivers) (*Coefficients, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid regression table: %w", err)
	}

	x := mat.NewVecDense(NumExternalTerms, d.ExternalTerms())
	multiply := func(block *mat.Dense) []float64 {
		r, _ := block.Dims()
		out := mat.NewVecDense(r, nil)
		out.MulVec(block, x)
		return out.RawVector().Data
	}

	c := &Coefficients{
		TorC:  multiply(t.TorC),
		TorS:  multiply(t.TorS),
		PolC:  multiply(t.PolC),
		PolS:  multiply(t.PolS),
		KeysT: append([]Key(nil), t.KeysT...),
		KeysP: append([]Key(nil), t.KeysP...),
	}
	return c, nil
}
