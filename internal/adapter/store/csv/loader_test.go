package csv

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.birkeland.io/amps-api/internal/adapter/store"
	"go.birkeland.io/amps-api/internal/domain"
)

func writeTableFile(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coeffs.csv")
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func header() string {
	return strings.Join(append([]string{"n", "m", "series"}, store.TermNames...), ",")
}

// row builds a coefficient row whose constant term is c and whose
// remaining terms are zero.
func row(n, m int, series string, c float64) string {
	fields := []string{strconv.Itoa(n), strconv.Itoa(m), series}
	fields = append(fields, strconv.FormatFloat(c, 'g', -1, 64))
	for i := 1; i < domain.NumExternalTerms; i++ {
		fields = append(fields, "0")
	}
	return strings.Join(fields, ",")
}

func TestLoadValidTable(t *testing.T) {
	path := writeTableFile(t, []string{
		header(),
		row(1, 0, "tor_c", 1.5),
		row(1, 1, "tor_c", 2.5),
		row(1, 0, "tor_s", -0.5),
		row(1, 1, "tor_s", 0.25),
		row(1, 0, "pol_c", 3.0),
		row(1, 0, "pol_s", -1.0),
	})

	table, err := NewTableStore(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	wantT := []domain.Key{{N: 1, M: 0}, {N: 1, M: 1}}
	if len(table.KeysT) != len(wantT) {
		t.Fatalf("got %d toroidal keys, want %d", len(table.KeysT), len(wantT))
	}
	for i, k := range wantT {
		if table.KeysT[i] != k {
			t.Errorf("toroidal key %d: got %v, want %v", i, table.KeysT[i], k)
		}
	}
	if len(table.KeysP) != 1 || table.KeysP[0] != (domain.Key{N: 1, M: 0}) {
		t.Errorf("unexpected poloidal keys %v", table.KeysP)
	}

	if got := table.TorC.At(1, 0); got != 2.5 {
		t.Errorf("TorC[1][const] = %v, want 2.5", got)
	}
	if got := table.TorS.At(0, 0); got != -0.5 {
		t.Errorf("TorS[0][const] = %v, want -0.5", got)
	}
	if got := table.PolC.At(0, 0); got != 3.0 {
		t.Errorf("PolC[0][const] = %v, want 3.0", got)
	}

	// Constant-only rows make the coefficient vectors driver independent.
	coeff, err := table.Vectors(domain.Drivers{V: 400, By: -2, Bz: -5, Tilt: 10, F107: 120})
	if err != nil {
		t.Fatalf("Vectors failed: %v", err)
	}
	if coeff.TorC[0] != 1.5 || coeff.TorC[1] != 2.5 {
		t.Errorf("unexpected toroidal cos vector %v", coeff.TorC)
	}
	if coeff.PolS[0] != -1.0 {
		t.Errorf("unexpected poloidal sin vector %v", coeff.PolS)
	}
}

func TestLoadErrors(t *testing.T) {
	badHeader := strings.Replace(header(), "epsilon", "eps", 1)

	cases := []struct {
		name  string
		lines []string
	}{
		{
			name:  "missing file column",
			lines: []string{badHeader, row(1, 0, "tor_c", 1)},
		},
		{
			name: "unknown series",
			lines: []string{
				header(),
				row(1, 0, "tor_x", 1),
			},
		},
		{
			name: "non-numeric coefficient",
			lines: []string{
				header(),
				strings.Replace(row(1, 0, "tor_c", 1), "tor_c,1,0", "tor_c,1,abc", 1),
			},
		},
		{
			name: "cos sin key mismatch",
			lines: []string{
				header(),
				row(1, 0, "tor_c", 1),
				row(1, 1, "tor_s", 1),
				row(1, 0, "pol_c", 1),
				row(1, 0, "pol_s", 1),
			},
		},
		{
			name: "missing poloidal rows",
			lines: []string{
				header(),
				row(1, 0, "tor_c", 1),
				row(1, 0, "tor_s", 1),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTableFile(t, tc.lines)
			if _, err := NewTableStore(path).Load(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := NewTableStore(filepath.Join(t.TempDir(), "nope.csv")).Load(); err == nil {
		t.Fatal("expected error for missing file")
	}
}
