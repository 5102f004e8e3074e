// Package store defines the loading interface for AMPS regression
// coefficient tables.
package store

import "go.birkeland.io/amps-api/internal/domain"

// TableLoader loads the model regression table from a backing format.
// Implementations return a fully validated table; persistence layout is the
// loader's concern, not the model's.
type TableLoader interface {
	Load() (*domain.RegressionTable, error)
}

// SeriesNames are the four coefficient series a table row can belong to,
// in canonical order.
var SeriesNames = []string{"tor_c", "tor_s", "pol_c", "pol_s"}

// TermNames are the CSV column and NetCDF variable labels of the external
// regression terms, aligned with domain.ExternalTerms.
var TermNames = []string{
	"const", "sin_ca", "cos_ca",
	"epsilon", "epsilon_sin_ca", "epsilon_cos_ca",
	"tilt", "tilt_sin_ca", "tilt_cos_ca",
	"tilt_epsilon", "tilt_epsilon_sin_ca", "tilt_epsilon_cos_ca",
	"tau", "tau_sin_ca", "tau_cos_ca",
	"tilt_tau", "tilt_tau_sin_ca", "tilt_tau_cos_ca",
	"f107",
}
