package models

// SimulateRequest is the request body for running a simulation.
type SimulateRequest struct {
	Lattice LatticeBody     `json:"lattice"`
	Model   ModelBody       `json:"model"`
	Run     RunBody         `json:"run"`
	Options SimulateOptions `json:"options,omitempty"`
}

// LatticeBody mirrors the lattice section of the YAML config.
type LatticeBody struct {
	Size             int      `json:"size"`
	NeutralFraction  float64  `json:"neutral_fraction,omitempty"`
	Placement        string   `json:"placement,omitempty"`
	InitDownFraction *float64 `json:"init_down_fraction,omitempty"`
}

// ModelBody carries the coupling constants and noise level.
type ModelBody struct {
	NeighborCoupling   float64 `json:"neighbor_coupling,omitempty"`
	GlobalCoupling     float64 `json:"global_coupling,omitempty"`
	InverseTemperature float64 `json:"inverse_temperature,omitempty"`
	FieldPolicy        string  `json:"field_policy,omitempty"`
}

// RunBody picks sweep count, seed and the optional crash perturbation.
type RunBody struct {
	Sweeps int        `json:"sweeps"`
	Seed   int64      `json:"seed,omitempty"`
	Crash  *CrashBody `json:"crash,omitempty"`
}

// CrashBody forces agents to -1 after the named sweep.
type CrashBody struct {
	Sweep  int `json:"sweep"`
	Agents int `json:"agents"`
}

// SimulateOptions contains optional simulate parameters.
type SimulateOptions struct {
	IncludeSeries bool `json:"include_series,omitempty"` // default: false
	AutocorrLags  int  `json:"autocorr_lags,omitempty"`  // 0 = skip autocorrelation
}
