package handlers

import (
	"errors"
	"net/http"

	"core_innovators/internal/repository"
	"core_innovators/internal/service"

	"github.com/gin-gonic/gin"
)

type signInCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// signUpCredentials adds an optional alert address. The first account that
// supplies one becomes the alert recipient.
type signUpCredentials struct {
	signInCredentials
	Email string `json:"email" example:"owner@example.com"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}

// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpCredentials  true  "Credentials and optional alert email"
// @Success      200   {object}  map[string]int
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/sign-up [post]
func (h *Handler) signUp(c *gin.Context) {
	var input signUpCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	id, err := h.services.Authorization.SignUp(c.Request.Context(), service.SignUpInput{
		Username: input.Username,
		Password: input.Password,
		Email:    input.Email,
	})
	switch {
	case errors.Is(err, repository.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrUsernameEmpty),
		errors.Is(err, service.ErrPasswordEmpty):
		badRequest(c, err)
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to create account", "auth_sign_up_failed", err)
		return
	}

	if h.log != nil {
		h.log.Infow("auth_signed_up", "user_id", id, "username", input.Username)
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// @Summary      Sign in and receive a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInCredentials  true  "Credentials"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var input signInCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	token, err := h.services.Authorization.GenerateToken(c.Request.Context(), input.Username, input.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		if h.log != nil {
			h.log.Infow("auth_sign_in_failed", "username", input.Username, "err", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to sign in", "auth_sign_in_error", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Success      200  {object}  models.User
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/me [get]
// @Security     BearerAuth
func (h *Handler) me(c *gin.Context) {
	id, ok := identityOf(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	u, err := h.services.Authorization.Profile(c.Request.Context(), id.UserID)
	if errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load account", "auth_profile_failed", err)
		return
	}
	c.JSON(http.StatusOK, u)
}
