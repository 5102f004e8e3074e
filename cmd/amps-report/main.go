// Command amps-report evaluates the AMPS model for one set of external
// driving conditions and prints the summary indices: electrojet AL/AU
// envelopes and integrated upward/downward birkeland currents per
// hemisphere.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.birkeland.io/amps-api/internal/adapter/store"
	"go.birkeland.io/amps-api/internal/adapter/store/csv"
	"go.birkeland.io/amps-api/internal/adapter/store/nc"
	"go.birkeland.io/amps-api/internal/domain"
)

func main() {
	coeffPath := flag.String("coeff", "./data/coefficients.nc", "path to model coefficient file")
	format := flag.String("format", "nc", "coefficient file format: csv or nc")
	v := flag.Float64("v", 350, "solar wind velocity in km/s")
	by := flag.Float64("by", -4, "IMF By in nT")
	bz := flag.Float64("bz", -3, "IMF Bz in nT")
	tilt := flag.Float64("tilt", 20, "dipole tilt angle in degrees")
	f107 := flag.Float64("f107", 80, "F10.7 index in sfu")
	height := flag.Float64("height", 110, "evaluation height above ground in km")
	flag.Parse()

	var loader store.TableLoader
	switch *format {
	case "csv":
		loader = csv.NewTableStore(*coeffPath)
	case "nc":
		loader = nc.NewTableStore(*coeffPath)
	default:
		log.Fatalf("unknown format %q (want csv or nc)", *format)
	}

	table, err := loader.Load()
	if err != nil {
		log.Fatalf("failed to load coefficient table: %v", err)
	}

	drivers := domain.Drivers{V: *v, By: *by, Bz: *bz, Tilt: *tilt, F107: *f107}
	cfg := domain.DefaultConfig()
	cfg.Height = *height

	model, err := domain.New(table, drivers, cfg)
	if err != nil {
		log.Fatalf("failed to build model: %v", err)
	}

	upN, downN, upS, downS := model.IntegratedUpwardCurrent()
	alN, alS, auN, auS := model.AEIndices()

	fmt.Printf("AMPS model report\n")
	fmt.Printf("  drivers: v=%g km/s  By=%g nT  Bz=%g nT  tilt=%g deg  F10.7=%g sfu\n",
		*v, *by, *bz, *tilt, *f107)
	fmt.Printf("  height:  %g km\n", *height)
	fmt.Printf("  toroidal keys: %d  poloidal keys: %d\n\n",
		len(table.KeysT), len(table.KeysP))

	fmt.Printf("%-28s %12s %12s\n", "", "north", "south")
	fmt.Printf("%-28s %12.1f %12.1f\n", "AL index [nT]", alN, alS)
	fmt.Printf("%-28s %12.1f %12.1f\n", "AU index [nT]", auN, auS)
	fmt.Printf("%-28s %12.2f %12.2f\n", "integrated upward [MA]", upN, upS)
	fmt.Printf("%-28s %12.2f %12.2f\n", "integrated downward [MA]", downN, downS)

	if err := reportBalance(upN+downN, upS+downS); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}

// reportBalance flags a strongly unbalanced current system. The up and
// down integrals over a hemisphere should nearly cancel when the grid
// covers the full current system.
func reportBalance(netNorth, netSouth float64) error {
	const limit = 1.0
	if netNorth > limit || netNorth < -limit {
		return fmt.Errorf("net northern current %.2f MA exceeds %.1f MA, grid may truncate the current system", netNorth, limit)
	}
	if netSouth > limit || netSouth < -limit {
		return fmt.Errorf("net southern current %.2f MA exceeds %.1f MA, grid may truncate the current system", netSouth, limit)
	}
	return nil
}
