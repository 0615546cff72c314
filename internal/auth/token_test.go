package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, expiresAt, err := tm.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("token already expired at issue time")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Scope != "dashboard" {
		t.Errorf("scope = %q, want dashboard", claims.Scope)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 60).GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := NewTokenManager("secret-b", 60).ParseToken(token); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestAPIKeyHashRoundTrip(t *testing.T) {
	hash, err := HashAPIKey("watchdog-key", 4)
	if err != nil {
		t.Fatalf("HashAPIKey: %v", err)
	}
	if err := CompareAPIKey(hash, "watchdog-key"); err != nil {
		t.Errorf("correct key rejected: %v", err)
	}
	if err := CompareAPIKey(hash, "wrong-key"); err == nil {
		t.Error("wrong key accepted")
	}
}
