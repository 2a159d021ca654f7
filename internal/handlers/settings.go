package handlers

import (
	"errors"
	"net/http"

	"core_innovators/internal/service"

	"github.com/gin-gonic/gin"
)

type EmailRequest struct {
	Email string `json:"email" binding:"required" example:"owner@example.com"`
}

// @Summary      Alert recipient
// @Tags         settings
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/v1/settings/notification-email [get]
// @Security     BearerAuth
func (h *Handler) getNotificationEmail(c *gin.Context) {
	email, err := h.services.Settings.NotificationEmail(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load settings", "settings_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": email})
}

// @Summary      Change the alert recipient
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      EmailRequest  true  "Address"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/settings/notification-email [put]
// @Security     BearerAuth
func (h *Handler) setNotificationEmail(c *gin.Context) {
	var req EmailRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	email, err := h.services.Settings.SetNotificationEmail(c.Request.Context(), req.Email)
	if errors.Is(err, service.ErrInvalidEmail) {
		badRequest(c, err)
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to save settings", "settings_save_failed", err)
		return
	}
	if h.log != nil {
		id, _ := identityOf(c)
		h.log.Infow("notification_email_set", "email", email, "user_id", id.UserID)
	}
	c.JSON(http.StatusOK, gin.H{"email": email})
}
