// Package main provides the AMPS currents API HTTP server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"go.birkeland.io/amps-api/internal/adapter/store"
	"go.birkeland.io/amps-api/internal/adapter/store/csv"
	"go.birkeland.io/amps-api/internal/adapter/store/nc"
	"go.birkeland.io/amps-api/internal/domain"
	httpHandler "go.birkeland.io/amps-api/internal/http"
	"go.birkeland.io/amps-api/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("amps-api version %s\n", version)
		return
	}

	// Load configuration from environment.
	port := getEnv("PORT", "8080")
	coeffPath := getEnv("AMPS_COEFF_PATH", "./data/coefficients.nc")
	coeffFormat := getEnv("AMPS_COEFF_FORMAT", "nc")

	cfg := domain.DefaultConfig()
	var err error
	if cfg.Height, err = getEnvFloat("AMPS_HEIGHT_KM", cfg.Height); err != nil {
		log.Fatalf("Invalid AMPS_HEIGHT_KM: %v", err)
	}
	if cfg.Resolution, err = getEnvInt("AMPS_MAP_RESOLUTION", cfg.Resolution); err != nil {
		log.Fatalf("Invalid AMPS_MAP_RESOLUTION: %v", err)
	}

	log.Printf("Starting AMPS currents API server...")
	log.Printf("Port: %s", port)
	log.Printf("Coefficient file: %s (%s)", coeffPath, coeffFormat)
	log.Printf("Evaluation height: %g km", cfg.Height)

	// Initialize the coefficient store.
	var loader store.TableLoader
	switch coeffFormat {
	case "csv":
		loader = csv.NewTableStore(coeffPath)
	case "nc":
		loader = nc.NewTableStore(coeffPath)
	default:
		log.Fatalf("Unknown AMPS_COEFF_FORMAT %q (want csv or nc)", coeffFormat)
	}

	// Initialize use case. Loads the table and precomputes the basis
	// matrix cache for both evaluation grids.
	evaluateUC, err := usecase.NewEvaluateUseCase(loader, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize model: %v", err)
	}
	log.Printf("Model initialized")

	// Setup router.
	router := httpHandler.SetupRouter(evaluateUC)

	// Start server.
	addr := fmt.Sprintf(":%s", port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Health check: http://localhost:%s/health", port)
	log.Printf("API endpoints:")
	log.Printf("  - GET /v1/currents/map")
	log.Printf("  - GET /v1/currents/vectors")
	log.Printf("  - GET /v1/currents/indices")
	log.Printf("  - GET /v1/quantities")

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default.
func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseFloat(value, 64)
}

// getEnvInt retrieves an integer environment variable or returns a default.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("AMPS Currents API Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  amps-api [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  AMPS_COEFF_PATH         Path to model coefficient file (default: ./data/coefficients.nc)")
	fmt.Println("  AMPS_COEFF_FORMAT       Coefficient file format, csv or nc (default: nc)")
	fmt.Println("  AMPS_HEIGHT_KM          Evaluation height above ground in km (default: 110)")
	fmt.Println("  AMPS_MAP_RESOLUTION     Scalar map resolution per axis (default: 100)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start server with default settings")
	fmt.Println("  amps-api")
	fmt.Println()
	fmt.Println("  # Start server on custom port with CSV coefficients")
	fmt.Println("  PORT=3000 AMPS_COEFF_FORMAT=csv AMPS_COEFF_PATH=./coeffs.csv amps-api")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                    Health check")
	fmt.Println("  GET /v1/quantities             List evaluable quantities")
	fmt.Println("  GET /v1/currents/map           Scalar quantity on the regular grid")
	fmt.Println("  GET /v1/currents/vectors       Vector quantity on the equal-area grid or custom coordinates")
	fmt.Println("  GET /v1/currents/indices       Electrojet indices and integrated currents")
	fmt.Println()
}
