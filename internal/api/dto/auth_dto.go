package dto

import "time"

// TokenRequest exchanges an API key for a dashboard access token.
type TokenRequest struct {
	APIKey string `json:"api_key"`
}

// TokenResponse carries the issued token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
