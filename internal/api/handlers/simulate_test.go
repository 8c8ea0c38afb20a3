package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"spin-market/internal/api/models"
	"spin-market/internal/model"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewSimulateHandler(nil)
	router.POST("/api/v1/simulate", h.RunSimulation)
	return router
}

func TestBuildParamsAppliesDefaults(t *testing.T) {
	req := models.SimulateRequest{}
	p, err := BuildParams(req)
	if err != nil {
		t.Fatalf("BuildParams: %v", err)
	}
	def := model.DefaultParams()
	if p.L != def.L || p.Beta != def.Beta || p.Placement != def.Placement {
		t.Fatalf("defaults not applied: %+v", p)
	}
}

func TestBuildParamsRejectsInvalid(t *testing.T) {
	req := models.SimulateRequest{
		Lattice: models.LatticeBody{Size: 1},
	}
	if _, err := BuildParams(req); !errors.Is(err, model.ErrInvalidConfiguration) {
		t.Fatalf("BuildParams = %v, want ErrInvalidConfiguration", err)
	}
}

func TestRunSimulationEndpoint(t *testing.T) {
	router := newTestRouter()

	body, _ := json.Marshal(models.SimulateRequest{
		Lattice: models.LatticeBody{Size: 16},
		Run:     models.RunBody{Sweeps: 10, Seed: 7},
		Options: models.SimulateOptions{IncludeSeries: true},
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp models.SimulateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != "completed" {
		t.Fatalf("status = %q, want completed", resp.Status)
	}
	if resp.Summary.Sweeps != 10 || len(resp.Series) != 10 {
		t.Fatalf("unexpected summary/series: %+v", resp.Summary)
	}
	if resp.Summary.ActiveAgents != 256 {
		t.Fatalf("ActiveAgents = %d, want 256", resp.Summary.ActiveAgents)
	}
}

func TestRunSimulationRejectsBadConfig(t *testing.T) {
	router := newTestRouter()

	body, _ := json.Marshal(models.SimulateRequest{
		Lattice: models.LatticeBody{Size: 8, NeutralFraction: 2},
		Run:     models.RunBody{Sweeps: 5},
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	if resp.Error.Code != "INVALID_CONFIG" {
		t.Fatalf("error code = %q, want INVALID_CONFIG", resp.Error.Code)
	}
}

func TestRunSimulationDeterministicAcrossRequests(t *testing.T) {
	router := newTestRouter()

	do := func() models.SimulateResponse {
		body, _ := json.Marshal(models.SimulateRequest{
			Lattice: models.LatticeBody{Size: 12},
			Run:     models.RunBody{Sweeps: 8, Seed: 3},
			Options: models.SimulateOptions{IncludeSeries: true},
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/simulate", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var resp models.SimulateResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return resp
	}

	a, b := do(), do()
	for i := range a.Series {
		if a.Series[i] != b.Series[i] {
			t.Fatalf("sweep %d differs across identical requests", i)
		}
	}
}
