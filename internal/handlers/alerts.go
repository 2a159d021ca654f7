package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Outbound alert history
// @Description  The last 50 outbound alerts with the sensor snapshot that triggered them, newest first.
// @Tags         alerts
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, alerts"
// @Router       /api/v1/alerts/history [get]
// @Security     BearerAuth
func (h *Handler) alertHistory(c *gin.Context) {
	alerts, err := h.services.Alerts.History(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load alert history", "alert_history_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// @Summary      Recent in-app notifications
// @Tags         alerts
// @Produce      json
// @Success      200  {array}  models.Notification
// @Router       /api/v1/alerts/recent [get]
// @Security     BearerAuth
func (h *Handler) recentNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Alerts.Recent())
}
