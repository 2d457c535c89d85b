package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateServiceToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateServiceToken(secret, "audit")
	if err != nil {
		t.Fatalf("GenerateServiceToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.Service != ServiceName {
		t.Errorf("expected service %q, got %q", ServiceName, claims.Service)
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != "audit" {
		t.Errorf("expected audience [audit], got %v", claims.Audience)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateServiceToken("secret1", "audit")

	_, err := ValidateToken("secret2", token)
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestServiceTokenExpiry(t *testing.T) {
	secret := "test"
	token, _ := GenerateServiceToken(secret, "audit")
	claims, _ := ValidateToken(secret, token)

	diff := time.Now().Add(ServiceTokenExpiry).Sub(claims.ExpiresAt.Time)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}
