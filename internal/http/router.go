package http

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go.birkeland.io/amps-api/internal/usecase"
)

// SetupRouter creates and configures the Gin router.
func SetupRouter(evaluateUC *usecase.EvaluateUseCase) *gin.Engine {

	router := gin.Default()

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()

	// Get allowed origins from environment variable.
	// Default to allow all origins if not specified.
	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(allowedOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}

	router.Use(cors.New(corsConfig))

	// Create handler.
	handler := NewHandler(evaluateUC)

	// API v1 routes.
	v1 := router.Group("/v1")
	// Current system evaluation.
	currents := v1.Group("/currents")
	currents.GET("/map", handler.GetMap)
	currents.GET("/vectors", handler.GetVectors)
	currents.GET("/indices", handler.GetIndices)

	// Evaluable quantities.
	v1.GET("/quantities", handler.GetQuantities)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	return router
}
