package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"go.birkeland.io/amps-api/internal/usecase"
)

// Handler handles HTTP requests for model evaluation.
type Handler struct {
	evaluateUC *usecase.EvaluateUseCase
}

// NewHandler creates a new HTTP handler.
func NewHandler(evaluateUC *usecase.EvaluateUseCase) *Handler {
	return &Handler{
		evaluateUC: evaluateUC,
	}
}

// parseDrivers reads the driver query parameters, falling back to the
// default driving conditions for any parameter not given.
func parseDrivers(c *gin.Context) (usecase.DriverParams, error) {
	drivers := usecase.DefaultDrivers()
	fields := []struct {
		name string
		dst  *float64
	}{
		{"v", &drivers.V},
		{"by", &drivers.By},
		{"bz", &drivers.Bz},
		{"tilt", &drivers.Tilt},
		{"f107", &drivers.F107},
	}
	for _, f := range fields {
		s := c.Query(f.name)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return drivers, fmt.Errorf("invalid %s: %v", f.name, err)
		}
		*f.dst = v
	}
	return drivers, nil
}

// parseCoordList parses a comma-separated list of floats.
func parseCoordList(name, s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s[%d]: %v", name, i, err)
		}
		out[i] = v
	}
	return out, nil
}

// GetMap handles GET /v1/currents/map.
func (h *Handler) GetMap(c *gin.Context) {
	drivers, err := parseDrivers(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quantity := c.Query("quantity")
	if quantity == "" {
		quantity = "upward_current"
	}

	response, err := h.evaluateUC.Map(usecase.MapRequest{
		Quantity: quantity,
		Drivers:  drivers,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetVectors handles GET /v1/currents/vectors.
func (h *Handler) GetVectors(c *gin.Context) {
	drivers, err := parseDrivers(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quantity := c.Query("quantity")
	if quantity == "" {
		quantity = "total_current"
	}

	mlat, err := parseCoordList("mlat", c.Query("mlat"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mlt, err := parseCoordList("mlt", c.Query("mlt"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.evaluateUC.Vectors(usecase.VectorRequest{
		Quantity: quantity,
		Drivers:  drivers,
		MLat:     mlat,
		MLT:      mlt,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetIndices handles GET /v1/currents/indices.
func (h *Handler) GetIndices(c *gin.Context) {
	drivers, err := parseDrivers(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.evaluateUC.Indices(usecase.IndicesRequest{Drivers: drivers})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// QuantityInfo describes one evaluable quantity.
type QuantityInfo struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
	Kind string `json:"kind"`
}

// GetQuantities handles GET /v1/quantities.
func (h *Handler) GetQuantities(c *gin.Context) {
	var response []QuantityInfo
	for name, unit := range usecase.MapQuantities {
		response = append(response, QuantityInfo{Name: name, Unit: unit, Kind: "map"})
	}
	for name, unit := range usecase.VectorQuantities {
		response = append(response, QuantityInfo{Name: name, Unit: unit, Kind: "vector"})
	}

	c.JSON(http.StatusOK, gin.H{
		"quantities": response,
		"count":      len(response),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
