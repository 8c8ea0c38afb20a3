package main

import (
	"flag"
	"fmt"

	"spin-market/internal/analysis"
	"spin-market/internal/config"
	"spin-market/internal/model"
	"spin-market/internal/sim"
)

// Demo:
// - Build a small lattice with the canonical Bornholdt parameters
// - Run a handful of sweeps to show how the pieces fit together
// - Print the resulting magnetization series and summary statistics
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	n := flag.Int("n", 20, "Number of sweeps to simulate")
	flag.Parse()

	params := model.DefaultParams()
	params.L = 32
	params.Sweeps = *n

	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
		params, err = cfg.ToParams()
		if err != nil {
			panic(err)
		}
		params.Sweeps = *n
	}

	engine, err := sim.New(params)
	if err != nil {
		panic(err)
	}
	lat, err := engine.InitLattice()
	if err != nil {
		panic(err)
	}

	fmt.Printf("lattice %dx%d, J=%.2f alpha=%.2f beta=%.2f, %d active agents\n",
		params.L, params.L, params.NeighborCoupling, params.GlobalCoupling,
		params.Beta, lat.ActiveCount())
	fmt.Printf("%-8s %-16s %-16s\n", "sweep", "magnetization", "log_price")

	result, err := engine.Run(lat, func(row sim.SweepRow) {
		fmt.Printf("%-8d %-16.6f %-16.6f\n", row.Sweep, row.Magnetization, row.LogPrice)
	})
	if err != nil {
		panic(err)
	}

	stats := analysis.Compute(result.Series, 0)
	fmt.Printf("\nfinal magnetization=%.4f sign changes=%d return volatility=%.6f\n",
		result.FinalMagnetization, stats.SignChanges, stats.ReturnVolatility)
}
