package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	reservationapp "github.com/hotelpms/backend/internal/application/reservation"
)

// ReservationHandler handles reservation API endpoints
type ReservationHandler struct {
	BaseHandler
	reservationService *reservationapp.ReservationService
}

// NewReservationHandler creates a new ReservationHandler
func NewReservationHandler(reservationService *reservationapp.ReservationService) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
	}
}

// CreateReservation books a stay
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req reservationapp.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	reservation, err := h.reservationService.CreateReservation(c.Request.Context(), tenantID, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, reservation)
}

// ListReservations retrieves reservations with filtering and pagination
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter reservationapp.ReservationListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	reservations, total, err := h.reservationService.ListReservations(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, reservations, total, filter.Page, filter.PageSize)
}

// GetReservation retrieves a reservation by ID
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid reservation ID format")
		return
	}

	reservation, err := h.reservationService.GetReservation(c.Request.Context(), tenantID, reservationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reservation)
}

// GetReservationByConfirmation retrieves a reservation by confirmation number
func (h *ReservationHandler) GetReservationByConfirmation(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	confirmationNumber := c.Param("number")
	if confirmationNumber == "" {
		h.BadRequest(c, "Confirmation number is required")
		return
	}

	reservation, err := h.reservationService.GetByConfirmationNumber(c.Request.Context(), tenantID, confirmationNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reservation)
}

// CheckIn marks the guest as arrived
func (h *ReservationHandler) CheckIn(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid reservation ID format")
		return
	}

	reservation, err := h.reservationService.CheckIn(c.Request.Context(), tenantID, reservationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reservation)
}

// CheckOut finalizes the stay and returns the billing record it opened
func (h *ReservationHandler) CheckOut(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid reservation ID format")
		return
	}

	result, err := h.reservationService.CheckOut(c.Request.Context(), tenantID, reservationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Cancel cancels a booked reservation
func (h *ReservationHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid reservation ID format")
		return
	}

	var req reservationapp.CancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	reservation, err := h.reservationService.Cancel(c.Request.Context(), tenantID, reservationID, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reservation)
}
