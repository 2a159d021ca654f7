package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CommandRequest carries one utterance for the assistant.
type CommandRequest struct {
	Text string `json:"text" binding:"required" example:"turn on the living room fan"`
}

// @Summary      Send a command to the assistant
// @Description  Answers sensor questions, knowledge questions and device commands. Device actions are applied before the reply is returned.
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Param        body  body      CommandRequest  true  "Utterance"
// @Success      200   {object}  assistant.Reply
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/assistant/command [post]
// @Security     BearerAuth
func (h *Handler) assistantCommand(c *gin.Context) {
	var req CommandRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	reply := h.services.Assistant.Handle(c.Request.Context(), req.Text)
	if h.log != nil {
		h.log.Infow("assistant_command", "source", reply.Source, "category", reply.Category, "affected", reply.Affected)
	}
	c.JSON(http.StatusOK, reply)
}
