package booking

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pesto-students/backend-repo-titans/internal/api"
	"github.com/pesto-students/backend-repo-titans/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateBooking godoc
// @Summary      Book a session
// @Description  Books [from, to) on the given date at an active gym. The range must fit inside one open slot.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateBookingRequest  true  "Booking request"
// @Success      201      {object}  Booking
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      422      {object}  api.ErrorResponse
// @Router       /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if !api.BindJSON(c, &req) {
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), p, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, b)
}

// CancelBooking godoc
// @Summary      Cancel booking
// @Description  Cancels a booking more than 30 minutes before it starts.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CancelRequest  true  "Booking to cancel"
// @Success      200      {object}  Booking
// @Failure      403      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      422      {object}  api.ErrorResponse
// @Router       /bookings/cancel [patch]
func (h *Handler) CancelBooking(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}

	var req CancelRequest
	if !api.BindJSON(c, &req) {
		return
	}

	b, err := h.service.CancelBooking(c.Request.Context(), p, req.BookingID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// RateBooking godoc
// @Summary      Rate booking
// @Description  Sets or replaces the 1-5 rating of the caller's booking.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      RateRequest  true  "Rating"
// @Success      200      {object}  Booking
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /bookings/ratings [patch]
func (h *Handler) RateBooking(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}

	var req RateRequest
	if !api.BindJSON(c, &req) {
		return
	}

	b, err := h.service.RateBooking(c.Request.Context(), p, req.BookingID, req.Rating)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// ListMyBookings godoc
// @Summary      List my bookings
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Details
// @Failure      401  {object}  api.ErrorResponse
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}

	bookings, err := h.service.ListMyBookings(c.Request.Context(), p)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// GetBooking godoc
// @Summary      Get booking
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      int  true  "Booking ID"
// @Success      200        {object}  Details
// @Failure      400        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /bookings/{bookingID} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}

	id, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil || id <= 0 {
		api.BadRequest(c, "Invalid booking ID")
		return
	}

	d, err := h.service.GetBooking(c.Request.Context(), p, id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, d)
}
