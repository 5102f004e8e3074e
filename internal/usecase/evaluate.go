package usecase

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"go.birkeland.io/amps-api/internal/adapter/store"
	"go.birkeland.io/amps-api/internal/domain"
)

// DriverParams carries the external driver tuple of a request.
type DriverParams struct {
	V    float64 `json:"v" form:"v"`
	By   float64 `json:"by" form:"by"`
	Bz   float64 `json:"bz" form:"bz"`
	Tilt float64 `json:"tilt" form:"tilt"`
	F107 float64 `json:"f107" form:"f107"`
}

// DefaultDrivers returns moderate driving conditions, used when a client
// omits all driver parameters.
func DefaultDrivers() DriverParams {
	return DriverParams{V: 350, By: -4, Bz: -3, Tilt: 20, F107: 80}
}

// Validate checks the drivers against the range the model was fitted for.
// Values far outside the fit domain produce extrapolation artifacts rather
// than hard failures, so the bounds are generous.
func (p DriverParams) Validate() error {
	if math.IsNaN(p.V) || p.V <= 0 || p.V > 2000 {
		return fmt.Errorf("solar wind velocity must be in (0, 2000] km/s, got %v", p.V)
	}
	if math.IsNaN(p.By) || math.Abs(p.By) > 50 {
		return fmt.Errorf("IMF By must be in [-50, 50] nT, got %v", p.By)
	}
	if math.IsNaN(p.Bz) || math.Abs(p.Bz) > 50 {
		return fmt.Errorf("IMF Bz must be in [-50, 50] nT, got %v", p.Bz)
	}
	if math.IsNaN(p.Tilt) || math.Abs(p.Tilt) > 35 {
		return fmt.Errorf("dipole tilt must be in [-35, 35] degrees, got %v", p.Tilt)
	}
	if math.IsNaN(p.F107) || p.F107 <= 0 || p.F107 > 500 {
		return fmt.Errorf("F10.7 must be in (0, 500] sfu, got %v", p.F107)
	}
	return nil
}

func (p DriverParams) drivers() domain.Drivers {
	return domain.Drivers{V: p.V, By: p.By, Bz: p.Bz, Tilt: p.Tilt, F107: p.F107}
}

// MapQuantities names the scalar-grid quantities the map endpoint serves,
// with their units.
var MapQuantities = map[string]string{
	"toroidal_scalar":              "nT",
	"poloidal_scalar":              "uT m",
	"equivalent_current_function":  "kA",
	"equivalent_current_laplacian": "uA/m2",
	"upward_current":               "uA/m2",
	"curl_free_current_potential":  "kA",
}

// VectorQuantities names the vector-grid quantities the vectors endpoint
// serves, with their units.
var VectorQuantities = map[string]string{
	"divergence_free_current": "mA/m",
	"curl_free_current":       "mA/m",
	"total_current":           "mA/m",
	"ground_perturbation":     "nT",
}

// MapRequest asks for one scalar quantity on the regular scalar grid.
type MapRequest struct {
	Quantity string
	Drivers  DriverParams
}

// Validate checks the request.
func (r *MapRequest) Validate() error {
	if _, ok := MapQuantities[r.Quantity]; !ok {
		return fmt.Errorf("unknown map quantity %q", r.Quantity)
	}
	return r.Drivers.Validate()
}

// MapResponse holds one scalar quantity per hemisphere. MLat and MLT give
// the northern-hemisphere coordinates; the southern values are at the same
// coordinates with latitude negated.
type MapResponse struct {
	Quantity string       `json:"quantity"`
	Unit     string       `json:"unit"`
	Drivers  DriverParams `json:"drivers"`
	MLat     []float64    `json:"mlat"`
	MLT      []float64    `json:"mlt"`
	North    []float64    `json:"north"`
	South    []float64    `json:"south"`
}

// VectorRequest asks for one horizontal vector quantity. With MLat/MLT
// empty the quantity is evaluated on the built-in equal-area grid;
// otherwise at the given custom coordinates (degrees, hours).
type VectorRequest struct {
	Quantity string
	Drivers  DriverParams
	MLat     []float64
	MLT      []float64
}

// Validate checks the request.
func (r *VectorRequest) Validate() error {
	if _, ok := VectorQuantities[r.Quantity]; !ok {
		return fmt.Errorf("unknown vector quantity %q", r.Quantity)
	}
	if len(r.MLat) != len(r.MLT) {
		return fmt.Errorf("mlat and mlt must have the same length, got %d and %d", len(r.MLat), len(r.MLT))
	}
	if len(r.MLat) > 100000 {
		return fmt.Errorf("too many custom coordinates (%d)", len(r.MLat))
	}
	for i, lat := range r.MLat {
		if math.IsNaN(lat) || lat < -90 || lat > 90 {
			return fmt.Errorf("mlat[%d] = %v outside [-90, 90]", i, lat)
		}
		if math.IsNaN(r.MLT[i]) {
			return fmt.Errorf("mlt[%d] is NaN", i)
		}
	}
	return r.Drivers.Validate()
}

// VectorResponse holds the eastward and northward components of a
// horizontal vector quantity at each coordinate.
type VectorResponse struct {
	Quantity string       `json:"quantity"`
	Unit     string       `json:"unit"`
	Drivers  DriverParams `json:"drivers"`
	MLat     []float64    `json:"mlat"`
	MLT      []float64    `json:"mlt"`
	East     []float64    `json:"east"`
	North    []float64    `json:"north"`
}

// IndicesRequest asks for the scalar summary indices of one driver tuple.
type IndicesRequest struct {
	Drivers DriverParams
}

// HemisphereIndices holds the summary indices of one hemisphere.
type HemisphereIndices struct {
	AL                 float64 `json:"al_nt"`
	AU                 float64 `json:"au_nt"`
	IntegratedUpward   float64 `json:"integrated_upward_ma"`
	IntegratedDownward float64 `json:"integrated_downward_ma"`
}

// IndicesResponse holds the AL/AU-style electrojet indices and the
// integrated birkeland currents per hemisphere.
type IndicesResponse struct {
	Drivers DriverParams      `json:"drivers"`
	North   HemisphereIndices `json:"north"`
	South   HemisphereIndices `json:"south"`
}

// EvaluateUseCase orchestrates model evaluation against a shared engine.
// The engine caches basis matrices per grid and mutates coefficient state
// on driver updates, so every request holds the mutex across the update
// and the evaluation.
type EvaluateUseCase struct {
	mu    sync.Mutex
	model *domain.Model
}

// NewEvaluateUseCase loads the coefficient table and builds the engine.
func NewEvaluateUseCase(loader store.TableLoader, cfg domain.Config) (*EvaluateUseCase, error) {
	table, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load coefficient table: %w", err)
	}
	model, err := domain.New(table, DefaultDrivers().drivers(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}
	return &EvaluateUseCase{model: model}, nil
}

// NewEvaluateUseCaseWithModel wraps an existing engine, used in tests.
func NewEvaluateUseCaseWithModel(model *domain.Model) *EvaluateUseCase {
	return &EvaluateUseCase{model: model}
}

// Map evaluates one scalar quantity on the scalar grid.
func (uc *EvaluateUseCase) Map(req MapRequest) (*MapResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.model.UpdateModel(req.Drivers.drivers()); err != nil {
		return nil, fmt.Errorf("failed to update model: %w", err)
	}

	var north, south *mat.Dense
	switch req.Quantity {
	case "toroidal_scalar":
		north, south = uc.model.ToroidalScalar()
	case "poloidal_scalar":
		north, south = uc.model.PoloidalScalar()
	case "equivalent_current_function":
		north, south = uc.model.EquivalentCurrentFunction()
	case "equivalent_current_laplacian":
		north, south = uc.model.EquivalentCurrentLaplacian()
	case "upward_current":
		north, south = uc.model.UpwardCurrent()
	case "curl_free_current_potential":
		north, south = uc.model.CurlFreeCurrentPotential()
	}

	half, _ := uc.model.ScalarGrid.Split()
	return &MapResponse{
		Quantity: req.Quantity,
		Unit:     MapQuantities[req.Quantity],
		Drivers:  req.Drivers,
		MLat:     half.MLat,
		MLT:      half.MLT,
		North:    flatten(north),
		South:    flatten(south),
	}, nil
}

// Vectors evaluates one horizontal vector quantity, on the equal-area grid
// or at custom coordinates.
func (uc *EvaluateUseCase) Vectors(req VectorRequest) (*VectorResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.model.UpdateModel(req.Drivers.drivers()); err != nil {
		return nil, fmt.Errorf("failed to update model: %w", err)
	}

	mlat, mlt := req.MLat, req.MLT
	custom := len(mlat) > 0
	if !custom {
		mlat, mlt = uc.model.VectorGrid.MLat, uc.model.VectorGrid.MLT
	}

	var east, north []float64
	var err error
	switch req.Quantity {
	case "divergence_free_current":
		if custom {
			east, north, err = uc.model.DivergenceFreeCurrentAt(mlat, mlt)
		} else {
			east, north = uc.model.DivergenceFreeCurrent()
		}
	case "curl_free_current":
		if custom {
			east, north, err = uc.model.CurlFreeCurrentAt(mlat, mlt)
		} else {
			east, north = uc.model.CurlFreeCurrent()
		}
	case "total_current":
		if custom {
			east, north, err = uc.model.TotalCurrentAt(mlat, mlt)
		} else {
			east, north = uc.model.TotalCurrent()
		}
	case "ground_perturbation":
		east, north, err = uc.model.GroundPerturbation(mlat, mlt)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %s: %w", req.Quantity, err)
	}

	return &VectorResponse{
		Quantity: req.Quantity,
		Unit:     VectorQuantities[req.Quantity],
		Drivers:  req.Drivers,
		MLat:     mlat,
		MLT:      mlt,
		East:     east,
		North:    north,
	}, nil
}

// Indices computes the electrojet indices and the integrated upward and
// downward currents for one driver tuple.
func (uc *EvaluateUseCase) Indices(req IndicesRequest) (*IndicesResponse, error) {
	if err := req.Drivers.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.model.UpdateModel(req.Drivers.drivers()); err != nil {
		return nil, fmt.Errorf("failed to update model: %w", err)
	}

	upN, downN, upS, downS := uc.model.IntegratedUpwardCurrent()
	alN, alS, auN, auS := uc.model.AEIndices()

	return &IndicesResponse{
		Drivers: req.Drivers,
		North: HemisphereIndices{
			AL:                 alN,
			AU:                 auN,
			IntegratedUpward:   upN,
			IntegratedDownward: downN,
		},
		South: HemisphereIndices{
			AL:                 alS,
			AU:                 auS,
			IntegratedUpward:   upS,
			IntegratedDownward: downS,
		},
	}, nil
}

// flatten returns the row-major values of a hemisphere map, aligned with
// the half-grid coordinate order.
func flatten(d *mat.Dense) []float64 {
	r, c := d.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, d.RawRowView(i)...)
	}
	return out
}
