package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/larisin-live/backend/pkg/response"
)

// Handler handles the OAuth callback.
type Handler struct {
	exchanger *Exchanger
	jwt       *JWTService
	logger    *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(exchanger *Exchanger, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{exchanger: exchanger, jwt: jwt, logger: logger}
}

// Callback handles GET /auth/callback?code=. It completes the platform
// code exchange and issues our own session token for the studio surfaces.
func (h *Handler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.BadRequest(c, "code required")
		return
	}

	identity, err := h.exchanger.Exchange(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, ErrExchangeFailed) {
			h.logger.Warn("identity exchange rejected", zap.Error(err))
			response.Unauthorized(c, "authorization code rejected")
			return
		}
		response.Internal(c, "identity exchange failed")
		return
	}

	sessionToken, err := h.jwt.Generate(identity.User.OpenID, identity.User.DisplayName)
	if err != nil {
		response.Internal(c, "failed to issue session token")
		return
	}

	response.OK(c, gin.H{
		"access_token":  identity.AccessToken,
		"user":          identity.User,
		"session_token": sessionToken,
	})
}
