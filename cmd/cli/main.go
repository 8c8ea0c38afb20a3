package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"spin-market/internal/analysis"
	"spin-market/internal/config"
	"spin-market/internal/model"
	"spin-market/internal/sim"
	"spin-market/internal/snapshot"
	"spin-market/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "simulate":
		cmdSimulate(os.Args[2:])
	case "analyze":
		cmdAnalyze(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli simulate --config examples/run.yaml --out results/series.csv")
	fmt.Println("  cli analyze --series results/series.csv --lags 20")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - simulate writes one CSV row per sweep (magnetization, log price)")
	fmt.Println("  - analyze prints return volatility, kurtosis and sign-change counts")
}

func cmdSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (optional; defaults used otherwise)")
	outPath := fs.String("out", "results/series.csv", "Output CSV path")
	jsonlPath := fs.String("jsonl", "", "Optional zstd-compressed JSONL series output")
	snapshotEvery := fs.Int("snapshot-every", 0, "Write a lattice snapshot every N sweeps (0=off)")
	snapshotDir := fs.String("snapshot-dir", "results/snapshots", "Directory for lattice snapshots")
	dbPath := fs.String("db", "", "Optional SQLite path to record the run")

	size := fs.Int("size", 0, "Override lattice size")
	sweeps := fs.Int("sweeps", 0, "Override sweep count")
	seed := fs.Int64("seed", 0, "Override random seed")
	alpha := fs.Float64("alpha", 0, "Override global coupling")
	beta := fs.Float64("beta", 0, "Override inverse temperature")
	coupling := fs.Float64("j", 0, "Override neighbor coupling")
	neutral := fs.Float64("neutral", -1, "Override neutral fraction")
	placement := fs.String("placement", "", "Override neutral placement")
	_ = fs.Parse(args)

	params := model.DefaultParams()
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			fatal(err)
		}
		if params, err = cfg.ToParams(); err != nil {
			fatal(err)
		}
	}
	if *size > 0 {
		params.L = *size
	}
	if *sweeps > 0 {
		params.Sweeps = *sweeps
	}
	if *seed != 0 {
		params.Seed = *seed
	}
	if *alpha > 0 {
		params.GlobalCoupling = *alpha
	}
	if *beta > 0 {
		params.Beta = *beta
	}
	if *coupling > 0 {
		params.NeighborCoupling = *coupling
	}
	if *neutral >= 0 {
		params.NeutralFraction = *neutral
	}
	if *placement != "" {
		params.Placement = model.Placement(*placement)
		if params.Placement == model.PlacementClustered {
			params.Placement = model.PlacementTopLeft
		}
	}

	engine, err := sim.New(params)
	if err != nil {
		fatal(err)
	}
	lat, err := engine.InitLattice()
	if err != nil {
		fatal(err)
	}

	var jsonl *snapshot.JSONLZstdWriter
	if *jsonlPath != "" {
		if jsonl, err = snapshot.NewJSONLZstdWriter(*jsonlPath); err != nil {
			fatal(err)
		}
		defer jsonl.Close()
	}

	series := make([]sim.SweepRow, 0, params.Sweeps)
	for i := 0; i < params.Sweeps; i++ {
		row, err := engine.Step(lat)
		if err != nil {
			fatal(err)
		}
		series = append(series, row)
		if jsonl != nil {
			if err := jsonl.Write(row); err != nil {
				fatal(err)
			}
		}
		if *snapshotEvery > 0 && (row.Sweep+1)%*snapshotEvery == 0 {
			path := filepath.Join(*snapshotDir, fmt.Sprintf("sweep_%06d.json.zst", row.Sweep))
			if err := snapshot.Write(path, row.Sweep, params.Seed, lat.Snapshot()); err != nil {
				fatal(err)
			}
		}
	}

	// ensure output dir exists
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		fatal(err)
	}
	if err := sim.WriteSeriesCSV(*outPath, series); err != nil {
		fatal(err)
	}

	if *dbPath != "" {
		st, err := store.Open(*dbPath)
		if err != nil {
			fatal(err)
		}
		defer st.Close()
		rec := store.RunRecord{
			ID:                 fmt.Sprintf("cli-%d", time.Now().UnixNano()),
			CreatedAt:          time.Now().UTC(),
			Params:             params,
			FinalMagnetization: lat.Magnetization(),
			ActiveAgents:       lat.ActiveCount(),
			Sweeps:             len(series),
		}
		if err := st.SaveRun(context.Background(), rec, series); err != nil {
			fatal(err)
		}
		fmt.Printf("Recorded run %s in %s\n", rec.ID, *dbPath)
	}

	fmt.Printf("Wrote %d rows to %s\n", len(series), *outPath)
	fmt.Printf("Final magnetization=%.4f over %d active agents\n", lat.Magnetization(), lat.ActiveCount())
}

func cmdAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	seriesPath := fs.String("series", "results/series.csv", "Path to a series CSV written by simulate")
	lags := fs.Int("lags", 10, "Absolute-return autocorrelation depth")
	_ = fs.Parse(args)

	series, err := sim.ReadSeriesCSV(*seriesPath)
	if err != nil {
		fatal(err)
	}

	stats := analysis.Compute(series, *lags)
	fmt.Printf("%-24s %d\n", "sweeps", stats.Sweeps)
	fmt.Printf("%-24s %.4f\n", "mean magnetization", stats.MeanMagnetization)
	fmt.Printf("%-24s %.4f / %.4f\n", "min/max magnetization", stats.MinMagnetization, stats.MaxMagnetization)
	fmt.Printf("%-24s %.4f / %.4f\n", "p05/p95 magnetization", stats.P05Magnetization, stats.P95Magnetization)
	fmt.Printf("%-24s %d\n", "sign changes", stats.SignChanges)
	fmt.Printf("%-24s %.6f\n", "return volatility", stats.ReturnVolatility)
	fmt.Printf("%-24s %.4f\n", "excess kurtosis", stats.ExcessKurtosis)
	for i, ac := range stats.AbsReturnAutocorr {
		fmt.Printf("|return| autocorr lag %-3d %.4f\n", i+1, ac)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
