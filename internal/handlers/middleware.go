package handlers

import (
	"net/http"
	"strings"

	"core_innovators/internal/models"
	"core_innovators/internal/service"

	"github.com/gin-gonic/gin"
)

const identityCtxKey = "identity"

// identityMiddleware authenticates the bearer token and stores the caller
// both in the gin context and in the request context, where the services
// read it for audit metadata.
func (h *Handler) identityMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	token, ok := bearerToken(header)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	id, err := h.services.Authorization.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Infow("token_rejected", "path", c.FullPath(), "err", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	c.Set(identityCtxKey, id)
	c.Request = c.Request.WithContext(service.WithIdentity(c.Request.Context(), id))
	c.Next()
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// identityOf returns the caller set by identityMiddleware.
func identityOf(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityCtxKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}
