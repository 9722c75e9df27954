package handler

import (
	"github.com/gin-gonic/gin"

	predictionapp "github.com/hotelpms/backend/internal/application/prediction"
	"github.com/hotelpms/backend/internal/infrastructure/inference"
)

// PredictionHandler proxies prediction API endpoints to the scoring service
type PredictionHandler struct {
	BaseHandler
	predictionService *predictionapp.PredictionService
}

// NewPredictionHandler creates a new PredictionHandler
func NewPredictionHandler(predictionService *predictionapp.PredictionService) *PredictionHandler {
	return &PredictionHandler{
		predictionService: predictionService,
	}
}

// Health reports the scoring service status
func (h *PredictionHandler) Health(c *gin.Context) {
	health, err := h.predictionService.Health(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, health)
}

// ForecastDemand returns a demand forecast for a room type
func (h *PredictionHandler) ForecastDemand(c *gin.Context) {
	var req inference.DemandForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	forecast, err := h.predictionService.ForecastDemand(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, forecast)
}

// RecommendPricing returns a rate recommendation for a room type
func (h *PredictionHandler) RecommendPricing(c *gin.Context) {
	var req inference.PricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	recommendation, err := h.predictionService.RecommendPricing(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, recommendation)
}

// ScoreChurn returns the churn likelihood for a guest
func (h *PredictionHandler) ScoreChurn(c *gin.Context) {
	var req inference.ChurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	assessment, err := h.predictionService.ScoreChurn(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, assessment)
}

// ScoreFraud returns the fraud assessment for a payment
func (h *PredictionHandler) ScoreFraud(c *gin.Context) {
	var req inference.FraudScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	assessment, err := h.predictionService.ScoreFraud(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, assessment)
}
