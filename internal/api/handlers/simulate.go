package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spin-market/internal/analysis"
	"spin-market/internal/api/models"
	"spin-market/internal/config"
	"spin-market/internal/model"
	"spin-market/internal/sim"
	"spin-market/internal/store"
)

// SimulateHandler runs simulations and records them in the store.
type SimulateHandler struct {
	store *store.Store
}

// NewSimulateHandler creates a new simulate handler. The store may be nil,
// in which case results are returned but not persisted.
func NewSimulateHandler(st *store.Store) *SimulateHandler {
	return &SimulateHandler{store: st}
}

// RunSimulation handles POST /api/v1/simulate.
func (h *SimulateHandler) RunSimulation(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	params, err := BuildParams(req)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := runSimulation(params, nil)
	if err != nil {
		writeError(c, err)
		return
	}

	stats := analysis.Compute(result.Series, req.Options.AutocorrLags)
	resp := models.SimulateResponse{
		Status:  "completed",
		Summary: summarize(result, stats),
	}

	if h.store != nil {
		id := newRunID()
		rec := store.RunRecord{
			ID:                 id,
			CreatedAt:          time.Now().UTC(),
			Params:             params,
			FinalMagnetization: result.FinalMagnetization,
			ActiveAgents:       result.ActiveAgents,
			Sweeps:             len(result.Series),
		}
		if err := h.store.SaveRun(c.Request.Context(), rec, result.Series); err != nil {
			log.Printf("simulate: persist run %s: %v", id, err)
		} else {
			resp.ID = id
		}
	}

	if req.Options.IncludeSeries {
		resp.Series = toSeriesRows(result.Series)
	}
	c.JSON(http.StatusOK, resp)
}

// BuildParams maps an API request onto the validated parameter record,
// applying the same defaults as the YAML config layer.
func BuildParams(req models.SimulateRequest) (model.Params, error) {
	cfg := config.Config{
		Lattice: config.LatticeConfig{
			Size:             req.Lattice.Size,
			NeutralFraction:  req.Lattice.NeutralFraction,
			Placement:        req.Lattice.Placement,
			InitDownFraction: req.Lattice.InitDownFraction,
		},
		Model: config.ModelConfig{
			NeighborCoupling:   req.Model.NeighborCoupling,
			GlobalCoupling:     req.Model.GlobalCoupling,
			InverseTemperature: req.Model.InverseTemperature,
			FieldPolicy:        req.Model.FieldPolicy,
		},
		Run: config.RunConfig{
			Sweeps: req.Run.Sweeps,
			Seed:   req.Run.Seed,
		},
	}
	if req.Run.Crash != nil {
		cfg.Run.Crash = &config.CrashConfig{Sweep: req.Run.Crash.Sweep, Agents: req.Run.Crash.Agents}
	}
	cfg.ApplyDefaults()
	return cfg.ToParams()
}

func runSimulation(params model.Params, onSweep sim.SweepFunc) (*sim.Result, error) {
	engine, err := sim.New(params)
	if err != nil {
		return nil, err
	}
	lat, err := engine.InitLattice()
	if err != nil {
		return nil, err
	}
	return engine.Run(lat, onSweep)
}

func summarize(result *sim.Result, stats analysis.SeriesStats) models.RunSummary {
	return models.RunSummary{
		Sweeps:             stats.Sweeps,
		ActiveAgents:       result.ActiveAgents,
		FinalMagnetization: result.FinalMagnetization,
		MeanMagnetization:  stats.MeanMagnetization,
		MinMagnetization:   stats.MinMagnetization,
		MaxMagnetization:   stats.MaxMagnetization,
		SignChanges:        stats.SignChanges,
		ReturnVolatility:   stats.ReturnVolatility,
		ExcessKurtosis:     stats.ExcessKurtosis,
		AbsReturnAutocorr:  stats.AbsReturnAutocorr,
	}
}

func toSeriesRows(series []sim.SweepRow) []models.SeriesRow {
	out := make([]models.SeriesRow, 0, len(series))
	for _, r := range series {
		out = append(out, models.SeriesRow{
			Sweep:         r.Sweep,
			Magnetization: r.Magnetization,
			LogPrice:      r.LogPrice,
		})
	}
	return out
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidConfiguration):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_CONFIG", Message: err.Error()},
		})
	case errors.Is(err, sim.ErrNumericInstability):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NUMERIC_INSTABILITY", Message: err.Error()},
		})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NOT_FOUND", Message: err.Error()},
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INTERNAL_ERROR", Message: err.Error()},
		})
	}
}

func newRunID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return time.Now().UTC().Format("20060102150405.000000000")
	}
	return hex.EncodeToString(b[:])
}
