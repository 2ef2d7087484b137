package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/auth"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/interfaces/http/dto"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/interfaces/http/middleware"
)

// AuthHandler lets a terminal inspect or revoke its own token
type AuthHandler struct {
	BaseHandler
	revocations auth.RevocationList
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(revocations auth.RevocationList) *AuthHandler {
	return &AuthHandler{revocations: revocations}
}

// WhoAmIResponse describes the authenticated caller
type WhoAmIResponse struct {
	Subject string `json:"subject"`
	Actor   string `json:"actor"`
	Role    string `json:"role"`
	TokenID string `json:"token_id"`
}

// WhoAmI handles GET /auth/me
func (h *AuthHandler) WhoAmI(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	h.Success(c, WhoAmIResponse{
		Subject: claims.Subject,
		Actor:   claims.Actor(),
		Role:    claims.Role,
		TokenID: claims.ID,
	})
}

// Revoke handles POST /auth/revoke. The caller's token is rejected from now
// until it would have expired anyway.
func (h *AuthHandler) Revoke(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil || claims.ID == "" {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	if err := h.revocations.Revoke(c.Request.Context(), claims.ID, claims.RemainingTTL()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
