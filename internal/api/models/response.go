package models

import "time"

// SimulateResponse is returned from a completed run.
type SimulateResponse struct {
	ID      string      `json:"id,omitempty"`
	Status  string      `json:"status"`
	Summary RunSummary  `json:"summary"`
	Series  []SeriesRow `json:"series,omitempty"`
}

// RunSummary contains aggregated run results.
type RunSummary struct {
	Sweeps             int     `json:"sweeps"`
	ActiveAgents       int     `json:"active_agents"`
	FinalMagnetization float64 `json:"final_magnetization"`
	MeanMagnetization  float64 `json:"mean_magnetization"`
	MinMagnetization   float64 `json:"min_magnetization"`
	MaxMagnetization   float64 `json:"max_magnetization"`
	SignChanges        int     `json:"sign_changes"`
	ReturnVolatility   float64 `json:"return_volatility"`
	ExcessKurtosis     float64 `json:"excess_kurtosis"`

	AbsReturnAutocorr []float64 `json:"abs_return_autocorr,omitempty"`
}

// SeriesRow is one sweep of output.
type SeriesRow struct {
	Sweep         int     `json:"sweep"`
	Magnetization float64 `json:"magnetization"`
	LogPrice      float64 `json:"log_price"`
}

// RunInfo describes a stored run.
type RunInfo struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	LatticeSize        int       `json:"lattice_size"`
	NeutralFraction    float64   `json:"neutral_fraction"`
	Placement          string    `json:"placement"`
	FieldPolicy        string    `json:"field_policy"`
	Sweeps             int       `json:"sweeps"`
	Seed               int64     `json:"seed"`
	FinalMagnetization float64   `json:"final_magnetization"`
	ActiveAgents       int       `json:"active_agents"`
}

// PlacementInfo documents one neutral-agent placement policy.
type PlacementInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
