package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Physical constants used in geomagnetic modeling.
const (
	// Mu0 is the vacuum permeability in SI units.
	Mu0 = 4 * math.Pi * 1e-7
	// RefRE is the reference Earth radius in km.
	RefRE = 6371.2
)

// Config holds the grid-shape parameters of a Model.
type Config struct {
	MinLat     float64 // Low-latitude grid boundary in degrees.
	MaxLat     float64 // High-latitude grid boundary in degrees.
	Height     float64 // Altitude of the current sheet in km.
	DR         float64 // Latitudinal spacing of the equal-area grid, degrees.
	M0         int     // Sector count of the polemost equal-area ring.
	Resolution int     // Scalar grid resolution in both directions.
}

// DefaultConfig returns the standard AMPS grid configuration.
func DefaultConfig() Config {
	return Config{
		MinLat:     60,
		MaxLat:     89.99,
		Height:     110,
		DR:         2,
		M0:         4,
		Resolution: 100,
	}
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if c.MinLat >= c.MaxLat {
		return fmt.Errorf("minlat (%g) must be below maxlat (%g)", c.MinLat, c.MaxLat)
	}
	if c.MinLat < 0 || c.MaxLat > 90 {
		return fmt.Errorf("latitude bounds [%g, %g] must lie within [0, 90]", c.MinLat, c.MaxLat)
	}
	if c.Height < 0 {
		return fmt.Errorf("current sheet height must be non-negative, got %g", c.Height)
	}
	if c.DR <= 0 {
		return fmt.Errorf("equal-area grid spacing must be positive, got %g", c.DR)
	}
	if c.M0 < 1 {
		return fmt.Errorf("polemost ring sector count must be >= 1, got %d", c.M0)
	}
	if c.Resolution < 2 {
		return fmt.Errorf("scalar grid resolution must be >= 2, got %d", c.Resolution)
	}
	return nil
}

// basisSet holds the precomputed basis matrices for one (grid, harmonic
// set) pair, each shaped points x keys. dp is the Legendre derivative with
// respect to latitude (sign-flipped from colatitude).
type basisSet struct {
	cosMPhi *mat.Dense
	sinMPhi *mat.Dense
	p       *mat.Dense
	dp      *mat.Dense
}

// Model evaluates the AMPS spherical-harmonic expansion on cached
// coordinate grids.
//
// The model holds two independently mutable state blocks: the basis matrix
// cache, which depends only on the grids and the harmonic key structure and
// is rebuilt by CalculateMatrices, and the coefficient vectors, which depend
// only on the drivers and are replaced by UpdateModel. Keeping them
// decoupled means a driver change never pays the O(points x keys) Legendre
// recursion.
//
// Model is not safe for concurrent use: callers must serialize
// CalculateMatrices and UpdateModel against evaluator calls.
type Model struct {
	provider CoefficientModel
	cfg      Config
	drivers  Drivers

	// Coefficient state, replaced atomically by UpdateModel.
	coeff  *Coefficients
	nT, mT []float64
	nP, mP []float64
	maxN   int
	maxM   int

	// Evaluation grids. Callers may replace them, but CalculateMatrices
	// must be called afterwards: the engine does not detect grid edits,
	// and evaluating against a stale basis cache is undefined behavior.
	VectorGrid Grid
	ScalarGrid Grid

	// Basis matrix cache, replaced by CalculateMatrices.
	torVec, torSca basisSet
	polVec, polSca basisSet
	cosLatVec      []float64
}

// New builds a Model for the given driver parameters, constructs both
// evaluation grids and fills the basis matrix cache.
func New(provider CoefficientModel, d Drivers, cfg Config) (*Model, error) {
	if provider == nil {
		return nil, fmt.Errorf("coefficient model must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	coeff, err := provider.Vectors(d)
	if err != nil {
		return nil, fmt.Errorf("coefficient model failed: %w", err)
	}
	if err := coeff.Validate(); err != nil {
		return nil, fmt.Errorf("invalid coefficients: %w", err)
	}

	m := &Model{
		provider: provider,
		cfg:      cfg,
		drivers:  d,
	}
	m.setCoefficients(coeff)
	m.VectorGrid = NewVectorGrid(cfg.MinLat, cfg.MaxLat, cfg.DR, cfg.M0)
	m.ScalarGrid = NewScalarGrid(cfg.MinLat, cfg.MaxLat, cfg.Resolution)

	if err := m.CalculateMatrices(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) setCoefficients(c *Coefficients) {
	m.coeff = c
	m.nT, m.mT = degreesOrders(c.KeysT)
	m.nP, m.mP = degreesOrders(c.KeysP)
	m.maxN, m.maxM = MaxDegreeOrder(c.KeysT, c.KeysP)
}

// Config returns the grid-shape parameters the model was built with.
func (m *Model) Config() Config { return m.cfg }

// Drivers returns the driver parameters the current coefficients were
// computed for.
func (m *Model) Drivers() Drivers { return m.drivers }

// Coefficients returns the current coefficient state.
func (m *Model) Coefficients() *Coefficients { return m.coeff }

// UpdateModel replaces the coefficient vectors for a new driver set without
// touching the grids or the basis matrix cache. This is much cheaper than
// constructing a new Model when only the drivers change.
//
// The coefficient model must return the same harmonic key structure as at
// construction; a structural change is rejected because the cached basis
// matrices would silently no longer match.
func (m *Model) UpdateModel(d Drivers) error {
	coeff, err := m.provider.Vectors(d)
	if err != nil {
		return fmt.Errorf("coefficient model failed: %w", err)
	}
	if err := coeff.Validate(); err != nil {
		return fmt.Errorf("invalid coefficients: %w", err)
	}
	if !sameKeys(coeff.KeysT, m.coeff.KeysT) || !sameKeys(coeff.KeysP, m.coeff.KeysP) {
		return fmt.Errorf("coefficient model changed its harmonic key structure; basis matrix cache no longer applies")
	}
	m.setCoefficients(coeff)
	m.drivers = d
	return nil
}

// CalculateMatrices rebuilds the basis matrix cache for the current grids
// and harmonic key lists: one Legendre recursion per grid plus elementwise
// cos/sin of m*mlt. Call it after replacing either grid; the coefficient
// vectors are not involved.
func (m *Model) CalculateMatrices() error {
	vec, err := m.gridBasis(m.VectorGrid)
	if err != nil {
		return fmt.Errorf("vector grid basis: %w", err)
	}
	sca, err := m.gridBasis(m.ScalarGrid)
	if err != nil {
		return fmt.Errorf("scalar grid basis: %w", err)
	}

	m.polVec, m.torVec = vec[0], vec[1]
	m.polSca, m.torSca = sca[0], sca[1]

	m.cosLatVec = make([]float64, m.VectorGrid.Len())
	for i, lat := range m.VectorGrid.MLat {
		m.cosLatVec[i] = math.Cos(lat * math.Pi / 180)
	}
	return nil
}

// gridBasis computes the poloidal and toroidal basis sets for one grid.
func (m *Model) gridBasis(g Grid) ([2]basisSet, error) {
	colat := make([]float64, g.Len())
	for i, lat := range g.MLat {
		colat[i] = 90 - lat
	}
	tbl := SchmidtLegendre(m.maxN, m.maxM, colat)

	var out [2]basisSet
	for i, set := range []struct {
		keys []Key
		ms   []float64
	}{
		{m.coeff.KeysP, m.mP},
		{m.coeff.KeysT, m.mT},
	} {
		p, dp, err := tbl.Matrices(set.keys)
		if err != nil {
			return out, err
		}
		cosM, sinM := azimuthal(g.MLT, set.ms)
		out[i] = basisSet{cosMPhi: cosM, sinMPhi: sinM, p: p, dp: dp}
	}
	return out, nil
}

// azimuthal evaluates cos(m*phi) and sin(m*phi) matrices for local times in
// hours, shaped points x keys.
func azimuthal(mlt, ms []float64) (cosM, sinM *mat.Dense) {
	cosM = mat.NewDense(len(mlt), len(ms), nil)
	sinM = mat.NewDense(len(mlt), len(ms), nil)
	for i, t := range mlt {
		phi := t * math.Pi / 12
		for j, order := range ms {
			cosM.Set(i, j, math.Cos(order*phi))
			sinM.Set(i, j, math.Sin(order*phi))
		}
	}
	return cosM, sinM
}

// basisAt computes fresh basis matrices at arbitrary coordinates, bypassing
// the grid cache. Cached-grid and custom-coordinate evaluation share the
// synthesis formulas and differ only in where the matrices come from.
func (m *Model) basisAt(mlat, mlt []float64, keys []Key, ms []float64) (basisSet, []float64, error) {
	if len(mlat) == 0 {
		return basisSet{}, nil, fmt.Errorf("no coordinates supplied")
	}
	if len(mlat) != len(mlt) {
		return basisSet{}, nil, fmt.Errorf("mlat and mlt differ in length: %d vs %d", len(mlat), len(mlt))
	}

	colat := make([]float64, len(mlat))
	cosLat := make([]float64, len(mlat))
	for i, lat := range mlat {
		colat[i] = 90 - lat
		cosLat[i] = math.Cos(lat * math.Pi / 180)
	}
	tbl := SchmidtLegendre(m.maxN, m.maxM, colat)
	p, dp, err := tbl.Matrices(keys)
	if err != nil {
		return basisSet{}, nil, err
	}
	cosM, sinM := azimuthal(mlt, ms)
	return basisSet{cosMPhi: cosM, sinMPhi: sinM, p: p, dp: dp}, cosLat, nil
}

// gsum evaluates (scale . B . cos) * c + (scale . B . sin) * s, the direct
// branch of the expansion, with a per-key column scale.
func gsum(scale []float64, b, cosM, sinM *mat.Dense, c, s []float64) []float64 {
	var g mat.Dense
	g.Apply(func(_, j int, v float64) float64 { return scale[j] * v }, b)

	var gc, gs mat.Dense
	gc.MulElem(&g, cosM)
	gs.MulElem(&g, sinM)

	rows, _ := g.Dims()
	out := mat.NewVecDense(rows, nil)
	out.MulVec(&gc, mat.NewVecDense(len(c), c))
	tmp := mat.NewVecDense(rows, nil)
	tmp.MulVec(&gs, mat.NewVecDense(len(s), s))
	out.AddVec(out, tmp)
	return out.RawVector().Data
}

// gdiff evaluates (scale . B . cos) * s - (scale . B . sin) * c, the
// azimuthal-derivative branch, where the cos and sin roles swap between the
// coefficient vectors.
func gdiff(scale []float64, b, cosM, sinM *mat.Dense, c, s []float64) []float64 {
	var g mat.Dense
	g.Apply(func(_, j int, v float64) float64 { return scale[j] * v }, b)

	var gc, gs mat.Dense
	gc.MulElem(&g, cosM)
	gs.MulElem(&g, sinM)

	rows, _ := g.Dims()
	out := mat.NewVecDense(rows, nil)
	out.MulVec(&gc, mat.NewVecDense(len(s), s))
	tmp := mat.NewVecDense(rows, nil)
	tmp.MulVec(&gs, mat.NewVecDense(len(c), c))
	out.SubVec(out, tmp)
	return out.RawVector().Data
}

func uniform(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// splitMaps splits a scalar-grid result into hemisphere maps of
// resolution x resolution, rows of constant local time.
func (m *Model) splitMaps(vals []float64) (north, south *mat.Dense) {
	r := m.cfg.Resolution
	h := len(vals) / 2
	north = mat.NewDense(r, r, append([]float64(nil), vals[:h]...))
	south = mat.NewDense(r, r, append([]float64(nil), vals[h:]...))
	return north, south
}

// ToroidalScalar evaluates the toroidal scalar on the scalar grid, in nT.
// Returned as northern and southern hemisphere maps.
func (m *Model) ToroidalScalar() (north, south *mat.Dense) {
	t := gsum(uniform(len(m.nT), 1), m.torSca.p, m.torSca.cosMPhi, m.torSca.sinMPhi, m.coeff.TorC, m.coeff.TorS)
	return m.splitMaps(t)
}

// PoloidalScalar evaluates the poloidal scalar potential on the scalar
// grid, in microtesla-meters.
func (m *Model) PoloidalScalar() (north, south *mat.Dense) {
	rr := RefRE / (RefRE + m.cfg.Height)
	scale := make([]float64, len(m.nP))
	for k, n := range m.nP {
		scale[k] = math.Pow(rr, n+1)
	}
	v := gsum(scale, m.polSca.p, m.polSca.cosMPhi, m.polSca.sinMPhi, m.coeff.PolC, m.coeff.PolS)
	floats.Scale(RefRE, v)
	return m.splitMaps(v)
}

// EquivalentCurrentFunction evaluates the equivalent current function on
// the scalar grid, in kA. Its isocontours trace the streamlines of the
// divergence-free horizontal current, with a fixed amount of current
// flowing between contours.
func (m *Model) EquivalentCurrentFunction() (north, south *mat.Dense) {
	rr := RefRE / (RefRE + m.cfg.Height)
	scale := make([]float64, len(m.nP))
	for k, n := range m.nP {
		scale[k] = math.Pow(rr, n+1) * (2*n + 1) / n
	}
	psi := gsum(scale, m.polSca.p, m.polSca.cosMPhi, m.polSca.sinMPhi, m.coeff.PolC, m.coeff.PolS)
	floats.Scale(-RefRE/Mu0*1e-9, psi)
	return m.splitMaps(psi)
}

// EquivalentCurrentLaplacian evaluates the Laplacian of the equivalent
// current function on the scalar grid, in microamps per square meter.
func (m *Model) EquivalentCurrentLaplacian() (north, south *mat.Dense) {
	rr := RefRE / (RefRE + m.cfg.Height)
	scale := make([]float64, len(m.nP))
	for k, n := range m.nP {
		scale[k] = (n + 1) * (2*n + 1) * math.Pow(rr, n+2)
	}
	ju := gsum(scale, m.polSca.p, m.polSca.cosMPhi, m.polSca.sinMPhi, m.coeff.PolC, m.coeff.PolS)
	floats.Scale(1e-6/(Mu0*(RefRE+m.cfg.Height)), ju)
	return m.splitMaps(ju)
}

// UpwardCurrent evaluates the upward field-aligned current on the scalar
// grid, in microamps per square meter.
func (m *Model) UpwardCurrent() (north, south *mat.Dense) {
	scale := make([]float64, len(m.nT))
	for k, n := range m.nT {
		scale[k] = n * (n + 1)
	}
	ju := gsum(scale, m.torSca.p, m.torSca.cosMPhi, m.torSca.sinMPhi, m.coeff.TorC, m.coeff.TorS)
	floats.Scale(-1e-6/(Mu0*(RefRE+m.cfg.Height)), ju)
	return m.splitMaps(ju)
}

// CurlFreeCurrentPotential evaluates the potential alpha of the curl-free
// horizontal current, J_cf = grad(alpha), on the scalar grid, in kA.
func (m *Model) CurlFreeCurrentPotential() (north, south *mat.Dense) {
	a := gsum(uniform(len(m.nT), 1), m.torSca.p, m.torSca.cosMPhi, m.torSca.sinMPhi, m.coeff.TorC, m.coeff.TorS)
	floats.Scale(-(RefRE+m.cfg.Height)/Mu0*1e-9, a)
	return m.splitMaps(a)
}

// dfScale returns the radial factors of the divergence-free current.
func (m *Model) dfScale() []float64 {
	rr := RefRE / (RefRE + m.cfg.Height)
	scale := make([]float64, len(m.nP))
	for k, n := range m.nP {
		scale[k] = math.Pow(rr, n+2) * (2*n + 1) / n / Mu0 * 1e-6
	}
	return scale
}

// divergenceFree applies the divergence-free current transform to one
// basis set. Units are mA/m.
func (m *Model) divergenceFree(b basisSet, cosLat []float64) (east, north []float64) {
	scale := m.dfScale()
	east = gsum(scale, b.dp, b.cosMPhi, b.sinMPhi, m.coeff.PolC, m.coeff.PolS)

	mscale := make([]float64, len(scale))
	for k := range scale {
		mscale[k] = scale[k] * m.mP[k]
	}
	north = gdiff(mscale, b.p, b.cosMPhi, b.sinMPhi, m.coeff.PolC, m.coeff.PolS)
	for i := range north {
		north[i] = -north[i] / cosLat[i]
	}
	return east, north
}

// curlFree applies the curl-free current transform to one basis set.
// Units are mA/m.
func (m *Model) curlFree(b basisSet, cosLat []float64) (east, north []float64) {
	rtor := -1e-6 / Mu0

	mscale := make([]float64, len(m.nT))
	for k := range mscale {
		mscale[k] = rtor * m.mT[k]
	}
	east = gdiff(mscale, b.p, b.cosMPhi, b.sinMPhi, m.coeff.TorC, m.coeff.TorS)
	for i := range east {
		east[i] /= cosLat[i]
	}

	north = gsum(uniform(len(m.nT), rtor), b.dp, b.cosMPhi, b.sinMPhi, m.coeff.TorC, m.coeff.TorS)
	return east, north
}

// DivergenceFreeCurrent evaluates the divergence-free part of the
// horizontal current on the vector grid, in mA/m. Results are point-ordered
// over both hemispheres.
func (m *Model) DivergenceFreeCurrent() (east, north []float64) {
	return m.divergenceFree(m.polVec, m.cosLatVec)
}

// DivergenceFreeCurrentAt evaluates the divergence-free current at
// arbitrary coordinates, recomputing the basis functions on demand.
// Coordinates at |mlat| = 90 are a coordinate singularity and yield
// non-finite results.
func (m *Model) DivergenceFreeCurrentAt(mlat, mlt []float64) (east, north []float64, err error) {
	b, cosLat, err := m.basisAt(mlat, mlt, m.coeff.KeysP, m.mP)
	if err != nil {
		return nil, nil, err
	}
	east, north = m.divergenceFree(b, cosLat)
	return east, north, nil
}

// CurlFreeCurrent evaluates the curl-free part of the horizontal current on
// the vector grid, in mA/m.
func (m *Model) CurlFreeCurrent() (east, north []float64) {
	return m.curlFree(m.torVec, m.cosLatVec)
}

// CurlFreeCurrentAt evaluates the curl-free current at arbitrary
// coordinates.
func (m *Model) CurlFreeCurrentAt(mlat, mlt []float64) (east, north []float64, err error) {
	b, cosLat, err := m.basisAt(mlat, mlt, m.coeff.KeysT, m.mT)
	if err != nil {
		return nil, nil, err
	}
	east, north = m.curlFree(b, cosLat)
	return east, north, nil
}

// TotalCurrent evaluates the total horizontal current on the vector grid as
// the componentwise sum of the curl-free and divergence-free parts, in mA/m.
func (m *Model) TotalCurrent() (east, north []float64) {
	east, north = m.CurlFreeCurrent()
	de, dn := m.DivergenceFreeCurrent()
	floats.Add(east, de)
	floats.Add(north, dn)
	return east, north
}

// TotalCurrentAt evaluates the total horizontal current at arbitrary
// coordinates.
func (m *Model) TotalCurrentAt(mlat, mlt []float64) (east, north []float64, err error) {
	east, north, err = m.CurlFreeCurrentAt(mlat, mlt)
	if err != nil {
		return nil, nil, err
	}
	de, dn, err := m.DivergenceFreeCurrentAt(mlat, mlt)
	if err != nil {
		return nil, nil, err
	}
	floats.Add(east, de)
	floats.Add(north, dn)
	return east, north, nil
}

// GroundPerturbation evaluates the ground magnetic field perturbation that
// corresponds to the equivalent current function, at arbitrary coordinates,
// in nT. The equivalent current is treated as an external potential field
// continued downward in the Chapman-Bartels manner; induced contributions
// are ignored. Components are QD east and north.
func (m *Model) GroundPerturbation(mlat, mlt []float64) (east, north []float64, err error) {
	b, cosLat, err := m.basisAt(mlat, mlt, m.coeff.KeysP, m.mP)
	if err != nil {
		return nil, nil, err
	}

	scale := m.groundScale()
	north = gsum(scale, b.dp, b.cosMPhi, b.sinMPhi, m.coeff.PolC, m.coeff.PolS)

	escale := make([]float64, len(scale))
	for k := range scale {
		escale[k] = scale[k] * m.mP[k]
	}
	east = gdiff(escale, b.p, b.cosMPhi, b.sinMPhi, m.coeff.PolC, m.coeff.PolS)
	for i := range east {
		east[i] /= cosLat[i]
	}
	return east, north, nil
}

// groundScale returns the downward-continuation factors of the ground
// perturbation.
func (m *Model) groundScale() []float64 {
	rr := RefRE / (RefRE + m.cfg.Height)
	scale := make([]float64, len(m.nP))
	for k, n := range m.nP {
		scale[k] = math.Pow(rr, 2*n+1) * (n + 1) / n
	}
	return scale
}
