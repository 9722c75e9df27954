package prediction

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hotelpms/backend/internal/domain/shared"
	"github.com/hotelpms/backend/internal/infrastructure/inference"
)

// ScoringClient is the slice of the inference client this service uses
type ScoringClient interface {
	Health(ctx context.Context) (*inference.HealthResponse, error)
	PredictDemand(ctx context.Context, req *inference.DemandForecastRequest) (*inference.DemandForecastResponse, error)
	PredictPricing(ctx context.Context, req *inference.PricingRequest) (*inference.PricingResponse, error)
	PredictChurn(ctx context.Context, req *inference.ChurnRequest) (*inference.ChurnResponse, error)
	ScoreFraud(ctx context.Context, req *inference.FraudScoreRequest) (*inference.FraudScoreResponse, error)
}

// PredictionService proxies prediction requests to the external scoring
// service and translates its failures into domain errors
type PredictionService struct {
	client  ScoringClient
	enabled bool
	logger  *zap.Logger
}

// NewPredictionService creates a new prediction service
func NewPredictionService(client ScoringClient, enabled bool, logger *zap.Logger) *PredictionService {
	return &PredictionService{
		client:  client,
		enabled: enabled,
		logger:  logger,
	}
}

// Enabled reports whether the prediction proxy is configured
func (s *PredictionService) Enabled() bool {
	return s.enabled
}

// Health reports the scoring service status
func (s *PredictionService) Health(ctx context.Context) (*inference.HealthResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	resp, err := s.client.Health(ctx)
	if err != nil {
		return nil, s.translate("health", err)
	}
	return resp, nil
}

// ForecastDemand returns the demand forecast for a room type
func (s *PredictionService) ForecastDemand(ctx context.Context, req *inference.DemandForecastRequest) (*inference.DemandForecastResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if req.DaysAhead <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Days ahead must be positive")
	}

	resp, err := s.client.PredictDemand(ctx, req)
	if err != nil {
		return nil, s.translate("demand", err)
	}
	return resp, nil
}

// RecommendPricing returns a rate recommendation for a room type
func (s *PredictionService) RecommendPricing(ctx context.Context, req *inference.PricingRequest) (*inference.PricingResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if req.CurrentPrice <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Current price must be positive")
	}

	resp, err := s.client.PredictPricing(ctx, req)
	if err != nil {
		return nil, s.translate("pricing", err)
	}
	return resp, nil
}

// ScoreChurn returns the churn likelihood for a guest
func (s *PredictionService) ScoreChurn(ctx context.Context, req *inference.ChurnRequest) (*inference.ChurnResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if req.GuestID == "" {
		return nil, shared.NewDomainError("INVALID_GUEST", "Guest ID cannot be empty")
	}

	resp, err := s.client.PredictChurn(ctx, req)
	if err != nil {
		return nil, s.translate("churn", err)
	}
	return resp, nil
}

// ScoreFraud returns the fraud assessment for a payment
func (s *PredictionService) ScoreFraud(ctx context.Context, req *inference.FraudScoreRequest) (*inference.FraudScoreResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}

	resp, err := s.client.ScoreFraud(ctx, req)
	if err != nil {
		return nil, s.translate("fraud", err)
	}
	return resp, nil
}

func (s *PredictionService) ready() error {
	if !s.enabled || s.client == nil {
		return shared.NewDomainError("UPSTREAM_UNAVAILABLE", "Prediction service is not configured")
	}
	return nil
}

// translate maps scoring service failures onto the domain error taxonomy
func (s *PredictionService) translate(model string, err error) error {
	switch {
	case errors.Is(err, inference.ErrFeatureNotLicensed):
		return shared.NewDomainError("FORBIDDEN", fmt.Sprintf("The %s model is not covered by the current license", model))
	case errors.Is(err, inference.ErrModelNotFound):
		return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("The %s model is not deployed", model))
	case errors.Is(err, inference.ErrServiceUnavailable), errors.Is(err, inference.ErrInvalidResponse):
		s.logger.Warn("Scoring service call failed",
			zap.String("model", model),
			zap.Error(err))
		return shared.NewDomainError("UPSTREAM_UNAVAILABLE", "The scoring service could not be reached")
	default:
		return err
	}
}
