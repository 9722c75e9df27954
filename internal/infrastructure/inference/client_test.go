package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hotelpms/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.InferenceConfig{
		Enabled:    true,
		BaseURL:    server.URL,
		LicenseKey: "test-license-key-0123456789",
		Timeout:    2 * time.Second,
	})
	return client, server
}

func TestClient_Health(t *testing.T) {
	t.Run("reports healthy service", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/health", r.URL.Path)
			json.NewEncoder(w).Encode(HealthResponse{
				Status:       "healthy",
				ModelsLoaded: []string{"demand_forecast", "dynamic_pricing"},
			})
		})

		health, err := client.Health(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "healthy", health.Status)
		assert.Len(t, health.ModelsLoaded, 2)
	})

	t.Run("returns unavailable on server error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.Health(context.Background())

		assert.ErrorIs(t, err, ErrServiceUnavailable)
	})
}

func TestClient_PredictDemand(t *testing.T) {
	t.Run("sends license key and decodes forecast", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/predict/demand", r.URL.Path)
			assert.Equal(t, "test-license-key-0123456789", r.Header.Get("X-License-Key"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req DemandForecastRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "prop_001", req.PropertyID)
			assert.Equal(t, 7, req.DaysAhead)

			json.NewEncoder(w).Encode(DemandForecastResponse{
				PropertyID:    req.PropertyID,
				RoomType:      req.RoomType,
				ForecastValue: 42.5,
				Confidence:    0.15,
				ModelVersion:  "v3",
			})
		})

		resp, err := client.PredictDemand(context.Background(), &DemandForecastRequest{
			PropertyID: "prop_001",
			RoomType:   "DELUXE",
			DaysAhead:  7,
			Features:   map[string]float64{"occupancy_rate": 0.65},
		})

		require.NoError(t, err)
		assert.Equal(t, 42.5, resp.ForecastValue)
		assert.Equal(t, "v3", resp.ModelVersion)
	})

	t.Run("maps 403 to license error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		_, err := client.PredictDemand(context.Background(), &DemandForecastRequest{PropertyID: "p"})

		assert.ErrorIs(t, err, ErrFeatureNotLicensed)
	})

	t.Run("maps 404 to model not found", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.PredictDemand(context.Background(), &DemandForecastRequest{PropertyID: "p"})

		assert.ErrorIs(t, err, ErrModelNotFound)
	})
}

func TestClient_PredictPricing(t *testing.T) {
	t.Run("decodes rate recommendation", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/predict/pricing", r.URL.Path)
			json.NewEncoder(w).Encode(PricingResponse{
				CurrentPrice:       150,
				RecommendedPrice:   172.5,
				PriceChangePercent: 15,
				Reasoning:          "Based on occupancy (0.91) and competitor pricing",
			})
		})

		resp, err := client.PredictPricing(context.Background(), &PricingRequest{
			PropertyID:    "prop_001",
			RoomType:      "SUITE",
			CurrentPrice:  150,
			OccupancyRate: 0.91,
		})

		require.NoError(t, err)
		assert.Equal(t, 172.5, resp.RecommendedPrice)
	})
}

func TestClient_PredictChurn(t *testing.T) {
	t.Run("decodes churn assessment with actions", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/predict/churn", r.URL.Path)
			json.NewEncoder(w).Encode(ChurnResponse{
				GuestID:          "guest_123",
				ChurnProbability: 78.2,
				RiskSegment:      "high",
				RecommendedActions: []ChurnAction{
					{Action: "loyalty_offer", Details: "Offer discount on next stay"},
				},
			})
		})

		resp, err := client.PredictChurn(context.Background(), &ChurnRequest{GuestID: "guest_123"})

		require.NoError(t, err)
		assert.Equal(t, "high", resp.RiskSegment)
		require.Len(t, resp.RecommendedActions, 1)
		assert.Equal(t, "loyalty_offer", resp.RecommendedActions[0].Action)
	})
}

func TestClient_ScoreFraud(t *testing.T) {
	t.Run("decodes fraud assessment", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/predict/fraud", r.URL.Path)
			json.NewEncoder(w).Encode(FraudScoreResponse{
				TransactionID:     "txn_123",
				FraudProbability:  81.5,
				FraudFlag:         true,
				RecommendedAction: "block",
				Reasons:           []string{"high_amount", "geo_mismatch"},
			})
		})

		resp, err := client.ScoreFraud(context.Background(), &FraudScoreRequest{
			TransactionID: "txn_123",
			Amount:        250,
		})

		require.NoError(t, err)
		assert.True(t, resp.FraudFlag)
		assert.Equal(t, "block", resp.RecommendedAction)
	})
}

func TestClient_Unreachable(t *testing.T) {
	t.Run("returns unavailable when service is down", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // connection refused from here on

		client := NewClient(config.InferenceConfig{
			BaseURL: server.URL,
			Timeout: time.Second,
		})

		_, err := client.Health(context.Background())
		assert.ErrorIs(t, err, ErrServiceUnavailable)

		_, err = client.PredictDemand(context.Background(), &DemandForecastRequest{})
		assert.ErrorIs(t, err, ErrServiceUnavailable)
	})
}
