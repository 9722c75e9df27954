package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	guestapp "github.com/hotelpms/backend/internal/application/guest"
)

// GuestHandler handles guest profile API endpoints
type GuestHandler struct {
	BaseHandler
	guestService *guestapp.GuestService
}

// NewGuestHandler creates a new GuestHandler
func NewGuestHandler(guestService *guestapp.GuestService) *GuestHandler {
	return &GuestHandler{
		guestService: guestService,
	}
}

// CreateGuest registers a guest profile
func (h *GuestHandler) CreateGuest(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req guestapp.CreateGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	guest, err := h.guestService.CreateGuest(c.Request.Context(), tenantID, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, guest)
}

// ListGuests retrieves guests with search and pagination
func (h *GuestHandler) ListGuests(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter guestapp.GuestListFilter
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

	guests, total, err := h.guestService.ListGuests(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, guests, total, filter.Page, filter.PageSize)
}

// GetGuest retrieves a guest by ID
func (h *GuestHandler) GetGuest(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	guestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid guest ID format")
		return
	}

	guest, err := h.guestService.GetGuest(c.Request.Context(), tenantID, guestID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, guest)
}

// UpdateGuest applies partial updates to a guest profile
func (h *GuestHandler) UpdateGuest(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	guestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid guest ID format")
		return
	}

	var req guestapp.UpdateGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	guest, err := h.guestService.UpdateGuest(c.Request.Context(), tenantID, guestID, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, guest)
}

// DeleteGuest removes a guest profile
func (h *GuestHandler) DeleteGuest(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	guestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid guest ID format")
		return
	}

	if err := h.guestService.DeleteGuest(c.Request.Context(), tenantID, guestID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
