package handlers

import (
	"errors"
	"net/http"

	"core_innovators/internal/models"
	"core_innovators/internal/service"

	"github.com/gin-gonic/gin"
)

// ToggleRequest optionally forces a state; an empty body flips the device.
type ToggleRequest struct {
	State string `json:"state,omitempty" example:"on"`
}

type ModeRequest struct {
	Mode string `json:"mode" binding:"required" example:"sleep"`
}

// @Summary      List devices
// @Tags         devices
// @Produce      json
// @Success      200  {array}  models.Device
// @Router       /api/v1/devices [get]
// @Security     BearerAuth
func (h *Handler) listDevices(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Devices.List(c.Request.Context()))
}

// @Summary      Get one device
// @Tags         devices
// @Produce      json
// @Param        id   path  string  true  "Device id"  example(lr-fan)
// @Success      200  {object}  models.Device
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/devices/{id} [get]
// @Security     BearerAuth
func (h *Handler) getDevice(c *gin.Context) {
	d, err := h.services.Devices.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.deviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// @Summary      Toggle a device
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        id    path      string         true   "Device id"
// @Param        body  body      ToggleRequest  false  "Forced state"
// @Success      200   {object}  models.Device
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/devices/{id}/toggle [post]
// @Security     BearerAuth
func (h *Handler) toggleDevice(c *gin.Context) {
	var req ToggleRequest
	if c.Request.ContentLength > 0 && !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	var state models.PowerState
	if req.State != "" {
		s, err := models.ParsePowerState(req.State)
		if err != nil {
			badRequest(c, err)
			return
		}
		state = s
	}
	d, err := h.services.Devices.Toggle(c.Request.Context(), c.Param("id"), state)
	if err != nil {
		h.deviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// @Summary      Set purifier mode
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        id    path      string       true  "Device id"
// @Param        body  body      ModeRequest  true  "Mode"
// @Success      200   {object}  models.Device
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/devices/{id}/mode [post]
// @Security     BearerAuth
func (h *Handler) setDeviceMode(c *gin.Context) {
	var req ModeRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	mode, err := models.ParseDeviceMode(req.Mode)
	if err != nil {
		badRequest(c, err)
		return
	}
	d, err := h.services.Devices.SetMode(c.Request.Context(), c.Param("id"), mode)
	if err != nil {
		h.deviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// @Summary      Apply a device action
// @Description  Kinds: set_type, set_room, set_all, set_room_device, set_mode_by_type, toggle_by_name.
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        body  body      models.Action  true  "Action"
// @Success      200   {object}  map[string]interface{}  "affected, devices"
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/devices/actions [post]
// @Security     BearerAuth
func (h *Handler) applyAction(c *gin.Context) {
	var a models.Action
	if !h.bindJSONOrBadRequest(c, &a) {
		return
	}
	ctx := c.Request.Context()
	n, err := h.services.Devices.Apply(ctx, a)
	if err != nil {
		h.deviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"affected": n,
		"devices":  h.services.Devices.List(ctx),
	})
}

func (h *Handler) deviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDeviceNotFound), errors.Is(err, service.ErrNoDeviceMatch):
		notFound(c, err)
	case errors.Is(err, models.ErrInvalidAction):
		badRequest(c, err)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "device update failed", "device_update_failed", err)
	}
}
