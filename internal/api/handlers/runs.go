package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spin-market/internal/api/models"
	"spin-market/internal/store"
)

// RunsHandler serves stored run metadata and series.
type RunsHandler struct {
	store *store.Store
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(st *store.Store) *RunsHandler {
	return &RunsHandler{store: st}
}

// ListRuns handles GET /api/v1/runs.
func (h *RunsHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	recs, err := h.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]models.RunInfo, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRunInfo(rec))
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

// GetRun handles GET /api/v1/runs/:id.
func (h *RunsHandler) GetRun(c *gin.Context) {
	rec, err := h.store.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRunInfo(rec))
}

// GetSeries handles GET /api/v1/runs/:id/series.
func (h *RunsHandler) GetSeries(c *gin.Context) {
	series, err := h.store.GetSeries(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": toSeriesRows(series)})
}

func toRunInfo(rec store.RunRecord) models.RunInfo {
	return models.RunInfo{
		ID:                 rec.ID,
		CreatedAt:          rec.CreatedAt,
		LatticeSize:        rec.Params.L,
		NeutralFraction:    rec.Params.NeutralFraction,
		Placement:          string(rec.Params.Placement),
		FieldPolicy:        string(rec.Params.FieldPolicy),
		Sweeps:             rec.Sweeps,
		Seed:               rec.Params.Seed,
		FinalMagnetization: rec.FinalMagnetization,
		ActiveAgents:       rec.ActiveAgents,
	}
}
