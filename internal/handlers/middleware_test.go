package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"core_innovators/internal/models"
	"core_innovators/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMiddlewareOnlyRouter echoes the identity seen by a protected endpoint,
// once from the gin context and once from the request context.
func newMiddlewareOnlyRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, nil)
	r.GET("/secure", h.identityMiddleware, func(c *gin.Context) {
		fromGin, _ := identityOf(c)
		fromCtx, ok := service.IdentityFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"gin": fromGin, "ctx": fromCtx, "ctx_ok": ok})
	})
	return r
}

func TestIdentityMiddleware_Errors(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		parseErr error
		errMsg   string
	}{
		{"missing header", "", nil, "missing Authorization header"},
		{"invalid scheme", "Token abc", nil, "invalid Authorization header format"},
		{"bearer without token", "Bearer", nil, "invalid Authorization header format"},
		{"bearer with blank token", "Bearer    ", nil, "invalid Authorization header format"},
		{"rejected token", "Bearer expired", errors.New("expired"), "invalid or expired token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &mockAuth{parseErr: tc.parseErr}
			r := newMiddlewareOnlyRouter(&service.Service{Authorization: auth})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
			var out struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
			assert.Equal(t, tc.errMsg, out.Error)
		})
	}
}

func TestIdentityMiddleware_StoresIdentityInBothContexts(t *testing.T) {
	want := models.Identity{UserID: 123, Username: "priya"}
	auth := &mockAuth{identity: want}
	r := newMiddlewareOnlyRouter(&service.Service{Authorization: auth})

	for _, header := range []string{"Bearer good-token", "bearer good-token"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/secure", nil)
		req.Header.Set("Authorization", header)
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp struct {
			Gin   models.Identity `json:"gin"`
			Ctx   models.Identity `json:"ctx"`
			CtxOK bool            `json:"ctx_ok"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, want, resp.Gin)
		assert.Equal(t, want, resp.Ctx)
		assert.True(t, resp.CtxOK)
		assert.Equal(t, "good-token", auth.lastParseToken)
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]struct {
		token string
		ok    bool
	}{
		"Bearer abc":     {"abc", true},
		"BEARER abc":     {"abc", true},
		"  Bearer  abc ": {"abc", true},
		"Basic abc":      {"", false},
		"Bearer":         {"", false},
		"abc":            {"", false},
	}
	for header, want := range tests {
		token, ok := bearerToken(header)
		assert.Equal(t, want.ok, ok, header)
		assert.Equal(t, want.token, token, header)
	}
}
