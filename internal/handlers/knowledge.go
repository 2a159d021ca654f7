package handlers

import (
	"errors"
	"net/http"
	"strings"

	"core_innovators/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      Search the knowledge base
// @Tags         knowledge
// @Produce      json
// @Param        q      query  string  true   "Free text question"
// @Param        limit  query  int     false  "Max results (default 10, max 50)"
// @Success      200    {object}  map[string]interface{}  "count, matches"
// @Failure      400    {object}  map[string]string
// @Router       /api/v1/knowledge/search [get]
// @Security     BearerAuth
func (h *Handler) searchKnowledge(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}
	limit, ok := queryLimit(c, service.DefaultSearchLimit)
	if !ok {
		return
	}
	matches := h.services.Knowledge.Search(q, limit)
	c.JSON(http.StatusOK, gin.H{
		"count":   len(matches),
		"matches": matches,
	})
}

// @Summary      List knowledge categories
// @Tags         knowledge
// @Produce      json
// @Success      200  {array}  knowledge.Category
// @Router       /api/v1/knowledge/categories [get]
// @Security     BearerAuth
func (h *Handler) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Knowledge.Categories())
}

// @Summary      Entries of one category
// @Tags         knowledge
// @Produce      json
// @Param        id   path   string  true   "Category id"  example(air_quality)
// @Param        sub  query  string  false  "Subcategory"
// @Success      200  {object}  map[string]interface{}  "count, entries"
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/knowledge/categories/{id} [get]
// @Security     BearerAuth
func (h *Handler) entriesByCategory(c *gin.Context) {
	entries, err := h.services.Knowledge.ByCategory(c.Param("id"), c.Query("sub"))
	if err != nil {
		h.knowledgeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}

// @Summary      High priority entries
// @Tags         knowledge
// @Produce      json
// @Param        limit  query  int  false  "Max results"
// @Success      200    {array}  knowledge.QAPair
// @Router       /api/v1/knowledge/high-priority [get]
// @Security     BearerAuth
func (h *Handler) highPriority(c *gin.Context) {
	limit, ok := queryLimit(c, service.DefaultSearchLimit)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.services.Knowledge.HighPriority(limit))
}

// @Summary      One knowledge entry
// @Tags         knowledge
// @Produce      json
// @Param        id   path  string  true  "Entry id"  example(aq_co2_004)
// @Success      200  {object}  knowledge.QAPair
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/knowledge/entries/{id} [get]
// @Security     BearerAuth
func (h *Handler) getEntry(c *gin.Context) {
	e, err := h.services.Knowledge.Entry(c.Param("id"))
	if err != nil {
		h.knowledgeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// @Summary      Entries related to one entry
// @Tags         knowledge
// @Produce      json
// @Param        id     path   string  true   "Entry id"
// @Param        limit  query  int     false  "Max results"
// @Success      200    {array}  knowledge.QAPair
// @Failure      404    {object}  map[string]string
// @Router       /api/v1/knowledge/entries/{id}/related [get]
// @Security     BearerAuth
func (h *Handler) relatedEntries(c *gin.Context) {
	limit, ok := queryLimit(c, service.DefaultSearchLimit)
	if !ok {
		return
	}
	entries, err := h.services.Knowledge.Related(c.Param("id"), limit)
	if err != nil {
		h.knowledgeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) knowledgeError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrEntryNotFound) || errors.Is(err, service.ErrCategoryNotFound) {
		notFound(c, err)
		return
	}
	h.logAndJSONError(c, http.StatusInternalServerError, "knowledge lookup failed", "knowledge_lookup_failed", err)
}
