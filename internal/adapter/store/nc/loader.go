// Package nc loads AMPS regression coefficient tables from NetCDF files,
// the format the model coefficients are distributed in.
package nc

import (
	"fmt"

	"github.com/fhs/go-netcdf/netcdf"
	"gonum.org/v1/gonum/mat"

	"go.birkeland.io/amps-api/internal/domain"
)

// Variable and dimension names of the coefficient file layout.
const (
	torKeyDim = "tor_key"
	polKeyDim = "pol_key"
	termDim   = "term"
)

// TableStore loads a regression table from a NetCDF file with dimensions
// (tor_key, pol_key, term), integer key variables tor_n/tor_m/pol_n/pol_m
// and coefficient variables tor_c/tor_s/pol_c/pol_s shaped key x term.
type TableStore struct {
	path string
}

// NewTableStore creates a NetCDF-backed table store.
func NewTableStore(path string) *TableStore {
	return &TableStore{path: path}
}

// Load reads and validates the coefficient table.
func (s *TableStore) Load() (*domain.RegressionTable, error) {
	f, err := netcdf.OpenFile(s.path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open coefficient file: %w", err)
	}
	defer func() { _ = f.Close() }()

	nTerms, err := dimLen(f, termDim)
	if err != nil {
		return nil, err
	}
	if nTerms != domain.NumExternalTerms {
		return nil, fmt.Errorf("coefficient file has %d regression terms, want %d", nTerms, domain.NumExternalTerms)
	}

	keysT, err := readKeys(f, "tor_n", "tor_m", torKeyDim)
	if err != nil {
		return nil, err
	}
	keysP, err := readKeys(f, "pol_n", "pol_m", polKeyDim)
	if err != nil {
		return nil, err
	}

	table := &domain.RegressionTable{KeysT: keysT, KeysP: keysP}
	blocks := []struct {
		name string
		rows int
		dst  **mat.Dense
	}{
		{"tor_c", len(keysT), &table.TorC},
		{"tor_s", len(keysT), &table.TorS},
		{"pol_c", len(keysP), &table.PolC},
		{"pol_s", len(keysP), &table.PolS},
	}
	for _, b := range blocks {
		block, err := readBlock(f, b.name, b.rows, nTerms)
		if err != nil {
			return nil, err
		}
		*b.dst = block
	}

	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid coefficient table: %w", err)
	}
	return table, nil
}

// dimLen returns the length of a named dimension.
func dimLen(f netcdf.Dataset, name string) (int, error) {
	dim, err := f.Dim(name)
	if err != nil {
		return 0, fmt.Errorf("dimension %s not found: %w", name, err)
	}
	n, err := dim.Len()
	if err != nil {
		return 0, fmt.Errorf("failed to read length of dimension %s: %w", name, err)
	}
	return int(n), nil
}

// readKeys assembles a harmonic key list from paired degree/order
// variables.
func readKeys(f netcdf.Dataset, nName, mName, dimName string) ([]domain.Key, error) {
	count, err := dimLen(f, dimName)
	if err != nil {
		return nil, err
	}

	ns, err := readInts(f, nName, count)
	if err != nil {
		return nil, err
	}
	ms, err := readInts(f, mName, count)
	if err != nil {
		return nil, err
	}

	keys := make([]domain.Key, count)
	for i := range keys {
		keys[i] = domain.Key{N: int(ns[i]), M: int(ms[i])}
	}
	return keys, nil
}

// readInts reads a 1D integer variable of known length.
func readInts(f netcdf.Dataset, name string, length int) ([]int32, error) {
	v, err := f.Var(name)
	if err != nil {
		return nil, fmt.Errorf("variable %s not found: %w", name, err)
	}
	data := make([]int32, length)
	if err := v.ReadInt32s(data); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// readBlock reads a 2D coefficient variable of known shape into a dense
// matrix.
func readBlock(f netcdf.Dataset, name string, rows, cols int) (*mat.Dense, error) {
	v, err := f.Var(name)
	if err != nil {
		return nil, fmt.Errorf("variable %s not found: %w", name, err)
	}

	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions of %s: %w", name, err)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("variable %s: expected 2D, got %dD", name, len(dims))
	}

	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get type of %s: %w", name, err)
	}

	flat := make([]float64, rows*cols)
	switch t {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64s(flat); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
	case netcdf.FLOAT:
		tmp := make([]float32, rows*cols)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		for i, val := range tmp {
			flat[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("variable %s: unsupported type %v", name, t)
	}

	return mat.NewDense(rows, cols, flat), nil
}
