package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sentiment-watchdog/internal/api/dto"
	"github.com/spec-kit/sentiment-watchdog/internal/auth"
	"github.com/spec-kit/sentiment-watchdog/internal/config"
	"github.com/spec-kit/sentiment-watchdog/pkg/util"
)

// AuthHandler exchanges the dashboard API key for a bearer token.
type AuthHandler struct {
	tokens *auth.TokenManager
	cfg    config.AuthConfig
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(tokens *auth.TokenManager, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{tokens: tokens, cfg: cfg}
}

// Token POST /auth/token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	if !h.cfg.Enabled() {
		return util.NewValidationError("authentication is not configured", nil)
	}

	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return util.NewValidationError("api_key required", nil)
	}

	if err := auth.CompareAPIKey(h.cfg.APIKeyHash, req.APIKey); err != nil {
		return util.NewUnauthorized("invalid api key")
	}

	token, expiresAt, err := h.tokens.GenerateToken()
	if err != nil {
		return util.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}})
}
