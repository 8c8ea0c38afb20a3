package sim

// SweepRow is one row of per-sweep output.
// This is the primary artifact for "what happened" in a run: the market
// sentiment after the sweep and the cumulative log-price proxy it implies.
type SweepRow struct {
	Sweep         int
	Magnetization float64
	LogPrice      float64
}

// Result bundles the full series with the run's final aggregates.
type Result struct {
	Series             []SweepRow
	FinalMagnetization float64
	ActiveAgents       int
}
