// Package csv loads AMPS regression coefficient tables from CSV files.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"go.birkeland.io/amps-api/internal/adapter/store"
	"go.birkeland.io/amps-api/internal/domain"
)

// TableStore loads a regression table from a single CSV file.
//
// The expected layout is one row per (harmonic key, series) pair:
//
//	n,m,series,const,sin_ca,...,f107
//
// with series one of tor_c, tor_s, pol_c, pol_s and 19 regression term
// columns. Row order within a series defines the coefficient index order.
type TableStore struct {
	path string
}

// NewTableStore creates a CSV-backed table store.
func NewTableStore(path string) *TableStore {
	return &TableStore{path: path}
}

// seriesRows accumulates the keys and coefficient rows of one series in
// file order.
type seriesRows struct {
	keys []domain.Key
	rows [][]float64
}

// Load reads and validates the coefficient table.
func (s *TableStore) Load() (*domain.RegressionTable, error) {
	//nolint:gosec // G304: path comes from service configuration.
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open coefficient file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	expected := append([]string{"n", "m", "series"}, store.TermNames...)
	if len(header) != len(expected) {
		return nil, fmt.Errorf("invalid CSV header: expected %d columns, got %d", len(expected), len(header))
	}
	for i, h := range header {
		if strings.TrimSpace(h) != expected[i] {
			return nil, fmt.Errorf("invalid CSV header: expected column %d to be %s, got %s", i, expected[i], h)
		}
	}

	series := map[string]*seriesRows{}
	for _, name := range store.SeriesNames {
		series[name] = &seriesRows{}
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		line++

		if len(record) != len(expected) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, len(expected), len(record))
		}

		n, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid degree: %w", line, err)
		}
		m, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid order: %w", line, err)
		}

		name := strings.TrimSpace(record[2])
		sr, ok := series[name]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown series %q", line, name)
		}

		row := make([]float64, domain.NumExternalTerms)
		for i := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[3+i]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s value: %w", line, store.TermNames[i], err)
			}
			row[i] = v
		}

		sr.keys = append(sr.keys, domain.Key{N: n, M: m})
		sr.rows = append(sr.rows, row)
	}

	return assemble(series)
}

// assemble pairs the cos/sin series into a validated table.
func assemble(series map[string]*seriesRows) (*domain.RegressionTable, error) {
	block := func(sr *seriesRows) *mat.Dense {
		data := make([]float64, 0, len(sr.rows)*domain.NumExternalTerms)
		for _, row := range sr.rows {
			data = append(data, row...)
		}
		return mat.NewDense(len(sr.rows), domain.NumExternalTerms, data)
	}
	samePair := func(c, s *seriesRows) bool {
		if len(c.keys) != len(s.keys) {
			return false
		}
		for i := range c.keys {
			if c.keys[i] != s.keys[i] {
				return false
			}
		}
		return true
	}

	torC, torS := series["tor_c"], series["tor_s"]
	polC, polS := series["pol_c"], series["pol_s"]
	if len(torC.keys) == 0 || len(polC.keys) == 0 {
		return nil, fmt.Errorf("coefficient file is missing toroidal or poloidal rows")
	}
	if !samePair(torC, torS) {
		return nil, fmt.Errorf("tor_c and tor_s rows disagree on harmonic keys")
	}
	if !samePair(polC, polS) {
		return nil, fmt.Errorf("pol_c and pol_s rows disagree on harmonic keys")
	}

	table := &domain.RegressionTable{
		KeysT: torC.keys,
		KeysP: polC.keys,
		TorC:  block(torC),
		TorS:  block(torS),
		PolC:  block(polC),
		PolS:  block(polS),
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid coefficient table: %w", err)
	}
	return table, nil
}
