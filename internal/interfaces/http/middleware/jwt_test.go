package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/auth"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/config"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/interfaces/http/dto"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Enabled: true,
		Secret:  "test-secret-key-at-least-32-chars",
		Issuer:  "pascucci-test",
	})
}

func issue(t *testing.T, svc *auth.JWTService, role string, ttl time.Duration) string {
	t.Helper()
	token, err := svc.Issue(auth.IssueInput{Subject: "terminal-1", Name: "caja", Role: role, TTL: ttl})
	require.NoError(t, err)
	return token
}

// newAuthRouter echoes the recorded actor on /test and /health.
func newAuthRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	r := gin.New()
	r.Use(JWTAuthMiddlewareWithConfig(cfg))
	echo := func(c *gin.Context) {
		c.String(http.StatusOK, audit.ActorFromContext(c.Request.Context()))
	}
	r.GET("/test", echo)
	r.GET("/health", echo)
	return r
}

func authRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	}
	return req
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService()
	r := newAuthRouter(DefaultJWTConfig(svc))

	t.Run("valid token records the actor", func(t *testing.T) {
		w := serve(r, authRequest(issue(t, svc, auth.RolePOS, time.Hour)))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "caja", w.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		w := serve(r, authRequest(""))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, errorCode(t, w))
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(AuthHeaderKey, "Basic Y2FqYTpjYWph")
		w := serve(r, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		w := serve(r, authRequest(issue(t, svc, auth.RolePOS, -time.Minute)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenExpired, errorCode(t, w))
	})

	t.Run("token from another secret", func(t *testing.T) {
		other := auth.NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-chars!!", Issuer: "pascucci-test"})
		w := serve(r, authRequest(issue(t, other, auth.RolePOS, time.Hour)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, errorCode(t, w))
	})

	t.Run("health is public", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, audit.SystemActor, w.Body.String())
	})
}

func TestJWTAuthMiddleware_Revocation(t *testing.T) {
	svc := newTestJWTService()
	revocations := auth.NewInMemoryRevocationList()
	cfg := DefaultJWTConfig(svc)
	cfg.Revocations = revocations
	r := newAuthRouter(cfg)

	token := issue(t, svc, auth.RoleStaff, time.Hour)
	claims, err := svc.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(r, authRequest(token)).Code)

	require.NoError(t, revocations.Revoke(context.Background(), claims.ID, time.Hour))
	w := serve(r, authRequest(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenInvalid, errorCode(t, w))
}

func TestActorFromHeader(t *testing.T) {
	r := gin.New()
	r.Use(ActorFromHeader())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, audit.ActorFromContext(c.Request.Context()))
	})

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"named operator", "  maria  ", "maria"},
		{"no header", "", audit.SystemActor},
		{"oversized header", strings.Repeat("a", 100), audit.SystemActor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set(ActorHeader, tt.header)
			}
			assert.Equal(t, tt.want, serve(r, req).Body.String())
		})
	}
}

func TestRequireRole(t *testing.T) {
	svc := newTestJWTService()
	r := gin.New()
	r.Use(JWTAuthMiddlewareWithConfig(DefaultJWTConfig(svc)))
	r.PUT("/margins/global", RequireRole(auth.RoleStaff), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	put := func(token string) int {
		req := httptest.NewRequest(http.MethodPut, "/margins/global", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusNoContent, put(issue(t, svc, auth.RoleStaff, time.Hour)))
	assert.Equal(t, http.StatusNoContent, put(issue(t, svc, auth.RoleAdmin, time.Hour)))
	assert.Equal(t, http.StatusForbidden, put(issue(t, svc, auth.RolePOS, time.Hour)))
}

func TestRequireRole_WithoutClaims(t *testing.T) {
	r := gin.New()
	r.GET("/test", RequireRole(auth.RoleStaff), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
