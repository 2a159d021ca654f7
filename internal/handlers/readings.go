package handlers

import (
	"errors"
	"net/http"

	"core_innovators/internal/models"
	"core_innovators/internal/service"

	"github.com/gin-gonic/gin"
)

// IngestReadingRequest is the body of POST /readings. Omitted channels stay
// unknown.
type IngestReadingRequest struct {
	CO2PPM         *float64 `json:"co2_ppm" example:"650"`
	COPPM          *float64 `json:"co_ppm" example:"4"`
	AirQualityPPM  *float64 `json:"air_quality_ppm" example:"20"`
	SmokePPM       *float64 `json:"smoke_ppm" example:"120"`
	FlameDetected  *bool    `json:"flame_detected" example:"false"`
	MotionDetected *bool    `json:"motion_detected" example:"true"`
	RelayOn        *bool    `json:"relay_on,omitempty"`
}

func (r IngestReadingRequest) reading() models.SensorReading {
	return models.SensorReading{
		CO2PPM:         r.CO2PPM,
		COPPM:          r.COPPM,
		AirQualityPPM:  r.AirQualityPPM,
		SmokePPM:       r.SmokePPM,
		FlameDetected:  r.FlameDetected,
		MotionDetected: r.MotionDetected,
		RelayOn:        r.RelayOn,
	}
}

// @Summary      Latest sensor reading
// @Description  Channels that have not reported are null.
// @Tags         readings
// @Produce      json
// @Success      200  {object}  models.SensorReading
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/readings/latest [get]
// @Security     BearerAuth
func (h *Handler) latestReading(c *gin.Context) {
	r, err := h.services.Readings.Latest(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load reading", "reading_latest_failed", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// @Summary      Per-channel status of the latest reading
// @Tags         readings
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "reading, channels"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/readings/status [get]
// @Security     BearerAuth
func (h *Handler) readingStatus(c *gin.Context) {
	r, channels, err := h.services.Readings.Status(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load status", "reading_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reading":  r,
		"channels": channels,
	})
}

// @Summary      List stored readings
// @Description  Newest first. 'to' as a bare date covers the whole day.
// @Tags         readings
// @Produce      json
// @Param        from   query  string  false  "Start of range"  example(2025-08-01)
// @Param        to     query  string  false  "End of range"    example(2025-08-31)
// @Param        limit  query  int     false  "Max rows (capped at 500)"
// @Success      200    {object}  map[string]interface{}  "count, readings"
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/readings [get]
// @Security     BearerAuth
func (h *Handler) listReadings(c *gin.Context) {
	from, to, ok := queryRange(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c, service.MaxReadingPage)
	if !ok {
		return
	}
	list, err := h.services.Readings.List(c.Request.Context(), service.ReadingFilter{From: from, To: to, Limit: limit})
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load readings", "reading_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(list),
		"readings": list,
	})
}

// @Summary      Ingest a sensor reading
// @Tags         readings
// @Accept       json
// @Produce      json
// @Param        body  body      IngestReadingRequest  true  "Reading"
// @Success      201   {object}  models.SensorReading
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/readings [post]
// @Security     BearerAuth
func (h *Handler) ingestReading(c *gin.Context) {
	var req IngestReadingRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	stored, err := h.services.Readings.Ingest(c.Request.Context(), req.reading())
	if err != nil {
		if errors.Is(err, service.ErrEmptyReading) {
			badRequest(c, err)
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to store reading", "reading_ingest_failed", err)
		return
	}
	c.JSON(http.StatusCreated, stored)
}
