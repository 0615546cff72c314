package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sentiment-watchdog/internal/config"
	"github.com/spec-kit/sentiment-watchdog/pkg/util"
)

const claimsKey = "auth_claims"

// Middleware validates bearer tokens on dashboard routes. When auth is not
// configured every request passes through.
type Middleware struct {
	tokens  *TokenManager
	enabled bool
}

// NewMiddleware constructs the middleware from config.
func NewMiddleware(tokens *TokenManager, cfg config.AuthConfig) *Middleware {
	return &Middleware{tokens: tokens, enabled: cfg.Enabled()}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	if !m.enabled {
		return c.Next()
	}

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return util.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return util.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return util.NewUnauthorized("invalid token")
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

// ClaimsFromContext retrieves the validated claims, if any.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}
