package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"spin-market/internal/api/handlers"
	"spin-market/internal/api/middleware"
	"spin-market/internal/store"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	dbPath := os.Getenv("STORE_PATH")
	if dbPath == "" {
		dbPath = "data/runs.db"
	}

	st, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open run store at %s: %v", dbPath, err)
	}
	defer st.Close()
	log.Printf("Run store: %s", dbPath)

	// Set up Gin router
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply middleware
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	// Initialize handlers
	simulateHandler := handlers.NewSimulateHandler(st)
	runsHandler := handlers.NewRunsHandler(st)
	placementsHandler := handlers.NewPlacementsHandler()
	streamHandler := handlers.NewStreamHandler()

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/simulate", simulateHandler.RunSimulation)
		api.GET("/simulate/stream", streamHandler.Stream)

		api.GET("/runs", runsHandler.ListRuns)
		api.GET("/runs/:id", runsHandler.GetRun)
		api.GET("/runs/:id/series", runsHandler.GetSeries)

		api.GET("/placements", placementsHandler.ListPlacements)
	}

	// Start server
	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting API server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
