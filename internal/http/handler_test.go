package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"go.birkeland.io/amps-api/internal/domain"
	"go.birkeland.io/amps-api/internal/usecase"
)

type stubProvider struct{}

func (stubProvider) Vectors(d domain.Drivers) (*domain.Coefficients, error) {
	keysT := []domain.Key{{N: 1, M: 0}, {N: 1, M: 1}, {N: 2, M: 1}}
	keysP := []domain.Key{{N: 1, M: 0}, {N: 2, M: 2}}
	g := 1 + 0.05*d.Bz + 0.001*d.V
	fill := func(n int, offset float64) []float64 {
		v := make([]float64, n)
		for i := range v {
			v[i] = (offset + float64(i+1)) * g
		}
		return v
	}
	return &domain.Coefficients{
		TorC:  fill(len(keysT), 0.5),
		TorS:  fill(len(keysT), -0.5),
		PolC:  fill(len(keysP), 0.2),
		PolS:  fill(len(keysP), -0.2),
		KeysT: keysT,
		KeysP: keysP,
	}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := domain.DefaultConfig()
	cfg.Resolution = 10
	model, err := domain.New(stubProvider{}, domain.Drivers{V: 350, By: -4, Bz: -3, Tilt: 20, F107: 80}, cfg)
	if err != nil {
		t.Fatalf("failed to build model: %v", err)
	}
	return SetupRouter(usecase.NewEvaluateUseCaseWithModel(model))
}

func doRequest(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)
	w := doRequest(t, router, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}
}

func TestGetMap(t *testing.T) {
	router := newTestRouter(t)
	w := doRequest(t, router, "/v1/currents/map?quantity=upward_current&v=400&by=-2&bz=-5&tilt=10&f107=120")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp usecase.MapResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Quantity != "upward_current" || resp.Unit != "uA/m2" {
		t.Errorf("unexpected quantity/unit %q/%q", resp.Quantity, resp.Unit)
	}
	if len(resp.North) == 0 || len(resp.North) != len(resp.MLat) {
		t.Errorf("inconsistent response lengths: north=%d mlat=%d", len(resp.North), len(resp.MLat))
	}
	if resp.Drivers.V != 400 || resp.Drivers.Bz != -5 {
		t.Errorf("drivers not echoed: %+v", resp.Drivers)
	}
}

func TestGetMapRejectsBadDriver(t *testing.T) {
	router := newTestRouter(t)
	w := doRequest(t, router, "/v1/currents/map?v=abc")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
}

func TestGetMapRejectsUnknownQuantity(t *testing.T) {
	router := newTestRouter(t)
	w := doRequest(t, router, "/v1/currents/map?quantity=nope")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
}

func TestGetVectorsCustomCoordinates(t *testing.T) {
	router := newTestRouter(t)
	w := doRequest(t, router, "/v1/currents/vectors?quantity=total_current&mlat=70,75,80&mlt=0,6,12")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp usecase.VectorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.East) != 3 || len(resp.North) != 3 {
		t.Errorf("expected 3 points, got east=%d north=%d", len(resp.East), len(resp.North))
	}
}

func TestGetIndices(t *testing.T) {
	router := newTestRouter(t)
	w := doRequest(t, router, "/v1/currents/indices")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp usecase.IndicesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.North.AL > resp.North.AU {
		t.Errorf("AL %v above AU %v", resp.North.AL, resp.North.AU)
	}
}

func TestGetQuantities(t *testing.T) {
	router := newTestRouter(t)
	w := doRequest(t, router, "/v1/quantities")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}

	var resp struct {
		Quantities []QuantityInfo `json:"quantities"`
		Count      int            `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != len(usecase.MapQuantities)+len(usecase.VectorQuantities) {
		t.Errorf("count %d, want %d", resp.Count, len(usecase.MapQuantities)+len(usecase.VectorQuantities))
	}
}
