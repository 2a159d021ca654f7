package handlers

import (
	"errors"
	"net/http"

	"core_innovators/internal/models"
	"core_innovators/internal/service"

	"github.com/gin-gonic/gin"
)

// RuleRequest is the writable part of an automation rule.
type RuleRequest struct {
	Condition      string `json:"condition" binding:"required" example:"co2"`
	ConditionValue string `json:"condition_value" binding:"required" example:"> 1000"`
	Action         string `json:"action" binding:"required" example:"turn_fan_on"`
	Enabled        *bool  `json:"enabled,omitempty"`
}

func (r RuleRequest) rule(id string) models.AutomationRule {
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}
	return models.AutomationRule{
		ID:             id,
		Condition:      r.Condition,
		ConditionValue: r.ConditionValue,
		Action:         r.Action,
		Enabled:        enabled,
	}
}

type EnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// @Summary      List automation rules
// @Tags         automation
// @Produce      json
// @Success      200  {array}  models.AutomationRule
// @Router       /api/v1/automation/rules [get]
// @Security     BearerAuth
func (h *Handler) listRules(c *gin.Context) {
	rules, err := h.services.Automation.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to list rules", "list_rules_failed", err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// @Summary      Create an automation rule
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        body  body      RuleRequest  true  "Rule"
// @Success      201   {object}  models.AutomationRule
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/automation/rules [post]
// @Security     BearerAuth
func (h *Handler) createRule(c *gin.Context) {
	var req RuleRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	rule, err := h.services.Automation.Create(c.Request.Context(), req.rule(""))
	if err != nil {
		h.ruleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// @Summary      Get an automation rule
// @Tags         automation
// @Produce      json
// @Param        id   path      string  true  "Rule id"
// @Success      200  {object}  models.AutomationRule
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/automation/rules/{id} [get]
// @Security     BearerAuth
func (h *Handler) getRule(c *gin.Context) {
	rule, err := h.services.Automation.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.ruleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// @Summary      Replace an automation rule
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        id    path      string       true  "Rule id"
// @Param        body  body      RuleRequest  true  "Rule"
// @Success      200   {object}  models.AutomationRule
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/automation/rules/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateRule(c *gin.Context) {
	var req RuleRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	rule, err := h.services.Automation.Update(c.Request.Context(), req.rule(c.Param("id")))
	if err != nil {
		h.ruleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// @Summary      Enable or disable a rule
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        id    path      string          true  "Rule id"
// @Param        body  body      EnabledRequest  true  "Flag"
// @Success      200   {object}  models.AutomationRule
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/automation/rules/{id}/enabled [patch]
// @Security     BearerAuth
func (h *Handler) setRuleEnabled(c *gin.Context) {
	var req EnabledRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	rule, err := h.services.Automation.SetEnabled(c.Request.Context(), c.Param("id"), *req.Enabled)
	if err != nil {
		h.ruleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// @Summary      Delete an automation rule
// @Tags         automation
// @Param        id   path  string  true  "Rule id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/automation/rules/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteRule(c *gin.Context) {
	if err := h.services.Automation.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.ruleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ruleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRule):
		badRequest(c, err)
	case errors.Is(err, service.ErrRuleNotFound):
		notFound(c, err)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "rule operation failed", "rule_operation_failed", err)
	}
}
