package main

import (
	"net/http"

	"github.com/joho/godotenv"

	"github.com/em0-omg/pdf-highlight-api/config"
	"github.com/em0-omg/pdf-highlight-api/database"
	"github.com/em0-omg/pdf-highlight-api/jobs"
	"github.com/em0-omg/pdf-highlight-api/logger"
	"github.com/em0-omg/pdf-highlight-api/routes"
)

func main() {
	// Initialize Structured Logger
	logger.Init()

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found, using system env vars")
	}

	// Initialize DB
	database.InitDB()

	// Start background highlight worker
	jobs.GetWorker()

	// Setup Router
	r := routes.SetupRouter()

	port := config.GetEnv("PORT", "8080")
	logger.Info("Server starting", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Error("Server failed to start", "error", err)
	}
}
