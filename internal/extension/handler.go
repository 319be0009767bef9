package extension

import (
	"net/http"

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

// RequestExtension godoc
// @Summary      Request extension
// @Description  Asks the gym owner to lengthen a scheduled booking. A booking accepts one extension.
// @Tags         extensions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      RequestExtensionInput  true  "Extension request"
// @Success      201      {object}  Extension
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /bookings/extends [post]
func (h *Handler) RequestExtension(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}

	var in RequestExtensionInput
	if !api.BindJSON(c, &in) {
		return
	}

	e, err := h.service.RequestExtension(c.Request.Context(), p, in)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, e)
}

// RespondToExtension godoc
// @Summary      Approve or decline extension
// @Description  Approving adds the pro-rated gym price to the booking total.
// @Tags         extensions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      RespondRequest  true  "Decision"
// @Success      200      {object}  Resolution
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /bookings/extends [patch]
func (h *Handler) RespondToExtension(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}

	var req RespondRequest
	if !api.BindJSON(c, &req) {
		return
	}

	res, err := h.service.RespondToExtension(c.Request.Context(), p, req.ExtensionID, req.Status)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// ListOwnerPending godoc
// @Summary      Pending extensions
// @Description  Unresolved extension requests for the caller's gym, newest booking date first.
// @Tags         extensions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Pending
// @Failure      403  {object}  api.ErrorResponse
// @Router       /gyms/extensions [get]
func (h *Handler) ListOwnerPending(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		return
	}

	pending, err := h.service.ListOwnerPendingExtensions(c.Request.Context(), p)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pending)
}
