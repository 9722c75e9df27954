package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hotelpms/backend/internal/infrastructure/config"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 1 * 1024 * 1024 // 1MB

// licenseHeader carries the license key the scoring service gates features on
const licenseHeader = "X-License-Key"

var (
	// ErrServiceUnavailable indicates the scoring service could not be reached
	ErrServiceUnavailable = errors.New("inference: scoring service unavailable")
	// ErrFeatureNotLicensed indicates the license does not cover the requested model
	ErrFeatureNotLicensed = errors.New("inference: feature not available in license")
	// ErrModelNotFound indicates the requested model is not deployed
	ErrModelNotFound = errors.New("inference: model not found")
	// ErrInvalidResponse indicates the scoring service returned an unparseable body
	ErrInvalidResponse = errors.New("inference: invalid response")
)

// DemandForecastRequest asks for a demand forecast for a room type
type DemandForecastRequest struct {
	PropertyID string             `json:"property_id"`
	RoomType   string             `json:"room_type"`
	DaysAhead  int                `json:"days_ahead"`
	Features   map[string]float64 `json:"features"`
}

// DemandForecastResponse is the forecast the scoring service returns
type DemandForecastResponse struct {
	PropertyID    string  `json:"property_id"`
	RoomType      string  `json:"room_type"`
	ModelVersion  string  `json:"model_version"`
	ForecastValue float64 `json:"forecast_value"`
	Confidence    float64 `json:"confidence"`
	Timestamp     string  `json:"timestamp"`
}

// PricingRequest asks for a rate recommendation
type PricingRequest struct {
	PropertyID          string  `json:"property_id"`
	RoomType            string  `json:"room_type"`
	CurrentPrice        float64 `json:"current_price"`
	OccupancyRate       float64 `json:"occupancy_rate"`
	CompetitorPricesAvg float64 `json:"competitor_prices_avg"`
	DayOfWeek           int     `json:"day_of_week"`
	DaysUntilStay       int     `json:"days_until_stay"`
}

// PricingResponse is the rate recommendation with its rationale
type PricingResponse struct {
	PropertyID         string  `json:"property_id"`
	RoomType           string  `json:"room_type"`
	CurrentPrice       float64 `json:"current_price"`
	RecommendedPrice   float64 `json:"recommended_price"`
	PriceChangePercent float64 `json:"price_change_percent"`
	Confidence         float64 `json:"confidence"`
	Reasoning          string  `json:"reasoning"`
	ModelVersion       string  `json:"model_version"`
	Timestamp          string  `json:"timestamp"`
}

// ChurnRequest asks for a guest churn likelihood
type ChurnRequest struct {
	GuestID       string  `json:"guest_id"`
	FeedbackScore float64 `json:"feedback_score"`
	IsRepeatGuest bool    `json:"is_repeat_guest"`
	SpendTotal    float64 `json:"spend_total"`
	StayCount     int     `json:"stay_count"`
}

// ChurnAction is a suggested retention step
type ChurnAction struct {
	Action  string `json:"action"`
	Details string `json:"details"`
}

// ChurnResponse is the churn likelihood with retention suggestions
type ChurnResponse struct {
	GuestID            string        `json:"guest_id"`
	ChurnProbability   float64       `json:"churn_probability"`
	RiskSegment        string        `json:"risk_segment"`
	RecommendedActions []ChurnAction `json:"recommended_actions"`
	ModelVersion       string        `json:"model_version"`
	Timestamp          string        `json:"timestamp"`
}

// FraudScoreRequest asks for a fraud score on a payment
type FraudScoreRequest struct {
	TransactionID    string  `json:"transaction_id"`
	Amount           float64 `json:"amount"`
	GuestID          string  `json:"guest_id"`
	IPCountry        string  `json:"ip_country"`
	BookingIPCountry string  `json:"booking_ip_country"`
}

// FraudScoreResponse is the fraud assessment for a payment
type FraudScoreResponse struct {
	TransactionID     string   `json:"transaction_id"`
	FraudProbability  float64  `json:"fraud_probability"`
	AnomalyScore      float64  `json:"anomaly_score"`
	FraudFlag         bool     `json:"fraud_flag"`
	RecommendedAction string   `json:"recommended_action"`
	Reasons           []string `json:"reasons"`
	ModelVersion      string   `json:"model_version"`
	Timestamp         string   `json:"timestamp"`
}

// HealthResponse is the scoring service health report
type HealthResponse struct {
	Status       string   `json:"status"`
	Timestamp    string   `json:"timestamp"`
	ModelsLoaded []string `json:"models_loaded"`
}

// Client calls the external scoring service over HTTP. Model logic lives
// entirely on the other side; this client only speaks the wire contract.
type Client struct {
	baseURL    string
	licenseKey string
	httpClient *http.Client
}

// NewClient creates a scoring service client from configuration
func NewClient(cfg config.InferenceConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		licenseKey: cfg.LicenseKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Health checks the scoring service
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("inference: failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&health); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &health, nil
}

// PredictDemand requests a demand forecast
func (c *Client) PredictDemand(ctx context.Context, req *DemandForecastRequest) (*DemandForecastResponse, error) {
	var resp DemandForecastResponse
	if err := c.post(ctx, "/predict/demand", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PredictPricing requests a rate recommendation
func (c *Client) PredictPricing(ctx context.Context, req *PricingRequest) (*PricingResponse, error) {
	var resp PricingResponse
	if err := c.post(ctx, "/predict/pricing", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PredictChurn requests a guest churn assessment
func (c *Client) PredictChurn(ctx context.Context, req *ChurnRequest) (*ChurnResponse, error) {
	var resp ChurnResponse
	if err := c.post(ctx, "/predict/churn", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScoreFraud requests a fraud score for a payment
func (c *Client) ScoreFraud(ctx context.Context, req *FraudScoreRequest) (*FraudScoreResponse, error) {
	var resp FraudScoreResponse
	if err := c.post(ctx, "/predict/fraud", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post performs a JSON POST to the scoring service and decodes the response
func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("inference: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("inference: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.licenseKey != "" {
		req.Header.Set(licenseHeader, c.licenseKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("inference: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return ErrFeatureNotLicensed
	case resp.StatusCode == http.StatusNotFound:
		return ErrModelNotFound
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: HTTP %d", ErrServiceUnavailable, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
