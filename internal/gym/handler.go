package gym

import (
	"errors"
	"fmt"
	"io"
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
	return &Handler{
		service: service,
	}
}

// bindForm reads the multipart gym form and its "images" files.
func bindForm(c *gin.Context) (GymForm, []Image, bool) {
	var form GymForm
	if err := c.ShouldBind(&form); err != nil {
		api.BadRequest(c, "invalid form: "+err.Error())
		return form, nil, false
	}
	if errs := api.ValidateStruct(form); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return form, nil, false
	}

	mf, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return form, nil, true
		}
		api.BadRequest(c, "invalid multipart body")
		return form, nil, false
	}

	var images []Image
	for _, fh := range mf.File["images"] {
		f, err := fh.Open()
		if err != nil {
			api.BadRequest(c, fmt.Sprintf("cannot read %s", fh.Filename))
			return form, nil, false
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			api.BadRequest(c, fmt.Sprintf("cannot read %s", fh.Filename))
			return form, nil, false
		}
		images = append(images, Image{Filename: fh.Filename, Data: data})
	}
	return form, images, true
}

func gymIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("gymID"))
	if err != nil || id <= 0 {
		api.BadRequest(c, "Invalid gym ID")
		return 0, false
	}
	return id, true
}

// @Summary      Onboard a gym
// @Description  Owner-only: submit a gym for review. Images are uploaded as WebP.
// @Tags         gyms
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        gym_name        formData  string  true   "Gym name"
// @Param        address_line_1  formData  string  true   "Address line 1"
// @Param        address_line_2  formData  string  false  "Address line 2"
// @Param        pincode         formData  int     true   "Pincode"
// @Param        maps_link       formData  string  false  "Google Maps link"
// @Param        price           formData  number  false  "Hourly price"
// @Param        images          formData  file    false  "Gym images"
// @Success      201 {object} gym.Gym
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /gyms [post]
func (h *Handler) Onboard(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}
	form, images, ok := bindForm(c)
	if !ok {
		return
	}

	g, err := h.service.Onboard(c.Request.Context(), p, form, images)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, g)
}

// @Summary      Update my gym
// @Tags         gyms
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} gym.Gym
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/me [patch]
func (h *Handler) UpdateMine(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}
	form, images, ok := bindForm(c)
	if !ok {
		return
	}

	g, err := h.service.UpdateGym(c.Request.Context(), p, form, images)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, g)
}

// @Summary      Resubmit my gym for review
// @Tags         gyms
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} gym.Gym
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /gyms/me/resubmit [post]
func (h *Handler) Resubmit(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}
	form, images, ok := bindForm(c)
	if !ok {
		return
	}

	g, err := h.service.Resubmit(c.Request.Context(), p, form, images)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, g)
}

// @Summary      Update weekly schedule
// @Description  Replaces the slots of the weekdays named in the request. All days are validated first.
// @Tags         gyms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body gym.UpdateScheduleRequest true "Schedule"
// @Success      200 {object} schedule.Schedule
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/schedule [post]
func (h *Handler) UpdateSchedule(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}
	var req UpdateScheduleRequest
	if !api.BindJSON(c, &req) {
		return
	}

	g, err := h.service.UpdateSchedule(c.Request.Context(), p, req)
	if err != nil {
		var invalid *InvalidScheduleError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "schedule has invalid slots",
				"code":  "invalid_slots",
				"days":  invalid.Days,
			})
			return
		}
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, g.Schedule)
}

// @Summary      Search gyms
// @Tags         gyms
// @Produce      json
// @Param        city     query string false "City"
// @Param        sort_by  query string false "price or rating"
// @Param        order    query string false "asc or desc"
// @Param        page     query int    false "Page"
// @Param        limit    query int    false "Page size"
// @Success      200 {object} api.Page[gym.Gym]
// @Failure      400 {object} api.ErrorResponse
// @Router       /gyms [get]
func (h *Handler) Search(c *gin.Context) {
	var q SearchQuery
	if !api.BindQuery(c, &q) {
		return
	}

	page, err := h.service.Search(c.Request.Context(), q)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// @Summary      Get gym
// @Tags         gyms
// @Produce      json
// @Param        gymID path int true "Gym ID"
// @Success      200 {object} gym.Gym
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/{gymID} [get]
func (h *Handler) GetGym(c *gin.Context) {
	id, ok := gymIDParam(c)
	if !ok {
		return
	}

	g, err := h.service.GetGym(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, g)
}

// @Summary      Upcoming bookings at my gym
// @Tags         gyms
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} gym.UpcomingBooking
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/bookings/upcoming [get]
func (h *Handler) UpcomingBookings(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}

	bookings, err := h.service.UpcomingBookings(c.Request.Context(), p)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// @Summary      Weekly stats for my gym
// @Tags         gyms
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} gym.OwnerStats
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/owners/stats [get]
func (h *Handler) OwnerStats(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}

	stats, err := h.service.OwnerStats(c.Request.Context(), p)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// @Summary      List gyms awaiting review
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        search query string false "Gym or owner name"
// @Param        page   query int    false "Page"
// @Param        limit  query int    false "Page size"
// @Success      200 {object} api.Page[gym.PendingGym]
// @Failure      403 {object} api.ErrorResponse
// @Router       /admin/gyms/pending [get]
func (h *Handler) ListPending(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}
	var q ListQuery
	if !api.BindQuery(c, &q) {
		return
	}

	page, err := h.service.ListPending(c.Request.Context(), p, q)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// @Summary      Approve or reject a gym
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID   path int                 true "Gym ID"
// @Param        request body gym.RespondRequest  true "Decision"
// @Success      200 {object} gym.Gym
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/gyms/{gymID}/status [patch]
func (h *Handler) Respond(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}
	id, ok := gymIDParam(c)
	if !ok {
		return
	}
	var req RespondRequest
	if !api.BindJSON(c, &req) {
		return
	}

	g, err := h.service.Respond(c.Request.Context(), p, id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, g)
}
