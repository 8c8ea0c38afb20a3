package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spin-market/internal/api/models"
)

// PlacementsHandler handles placement-policy catalog requests.
type PlacementsHandler struct{}

// NewPlacementsHandler creates a new placements handler.
func NewPlacementsHandler() *PlacementsHandler {
	return &PlacementsHandler{}
}

// ListPlacements handles GET /api/v1/placements.
func (h *PlacementsHandler) ListPlacements(c *gin.Context) {
	placements := []models.PlacementInfo{
		{
			Name:        "random",
			Description: "Neutral agents sampled uniformly without replacement across the whole lattice.",
		},
		{
			Name:        "clustered",
			Description: "Alias for top_left: a contiguous neutral block anchored at the top-left corner.",
		},
		{
			Name:        "top_left",
			Description: "Contiguous neutral block anchored at the top-left corner, sized to the neutral fraction.",
		},
		{
			Name:        "top_right",
			Description: "Contiguous neutral block anchored at the top-right corner.",
		},
		{
			Name:        "bottom_left",
			Description: "Contiguous neutral block anchored at the bottom-left corner.",
		},
		{
			Name:        "bottom_right",
			Description: "Contiguous neutral block anchored at the bottom-right corner.",
		},
	}
	c.JSON(http.StatusOK, gin.H{"placements": placements})
}
