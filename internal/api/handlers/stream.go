package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"spin-market/internal/analysis"
	"spin-market/internal/api/models"
	"spin-market/internal/sim"
)

// StreamHandler runs a simulation over a websocket, emitting one message per
// sweep so plotting clients can render the series as it is produced.
type StreamHandler struct {
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler() *StreamHandler {
	return &StreamHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

type streamFrame struct {
	Type    string             `json:"type"` // "sweep", "done", "error"
	Row     *models.SeriesRow  `json:"row,omitempty"`
	Summary *models.RunSummary `json:"summary,omitempty"`
	Message string             `json:"message,omitempty"`
}

// Stream handles GET /api/v1/simulate/stream. The client sends one
// SimulateRequest as its first message; the server answers with sweep frames
// followed by a done frame.
func (h *StreamHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	var req models.SimulateRequest
	if err := conn.ReadJSON(&req); err != nil {
		writeFrame(conn, streamFrame{Type: "error", Message: "bad request: " + err.Error()})
		return
	}

	params, err := BuildParams(req)
	if err != nil {
		writeFrame(conn, streamFrame{Type: "error", Message: err.Error()})
		return
	}

	result, err := runSimulation(params, func(row sim.SweepRow) {
		writeFrame(conn, streamFrame{Type: "sweep", Row: &models.SeriesRow{
			Sweep:         row.Sweep,
			Magnetization: row.Magnetization,
			LogPrice:      row.LogPrice,
		}})
	})
	if err != nil {
		writeFrame(conn, streamFrame{Type: "error", Message: err.Error()})
		return
	}

	stats := analysis.Compute(result.Series, req.Options.AutocorrLags)
	summary := summarize(result, stats)
	writeFrame(conn, streamFrame{Type: "done", Summary: &summary})
}

func writeFrame(conn *websocket.Conn, frame streamFrame) {
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("stream: write: %v", err)
	}
}
