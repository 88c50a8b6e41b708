package auth

import (
	"testing"
	"time"
)

func testManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        expiry,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "test",
	})
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "secret-password" {
		t.Fatal("hash must not equal the password")
	}
	if err := VerifyPassword(hash, "secret-password"); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if err := VerifyPassword(hash, "wrong-password"); err == nil {
		t.Fatal("wrong password accepted")
	}
}

func TestIsPasswordValid(t *testing.T) {
	if IsPasswordValid("short") {
		t.Fatal("short password accepted")
	}
	if !IsPasswordValid("long-enough-password") {
		t.Fatal("valid password rejected")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager(time.Hour)

	token, jti, err := m.GenerateAccessToken(42, "user@example.com", "student", 3)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if jti == "" {
		t.Fatal("missing JTI")
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "user@example.com" || claims.Role != "student" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.TokenType != "access" {
		t.Fatalf("expected access token type, got %s", claims.TokenType)
	}
	if claims.TokenVersion != 3 {
		t.Fatalf("expected token version 3, got %d", claims.TokenVersion)
	}
	if claims.ID != jti {
		t.Fatalf("JTI mismatch: %s vs %s", claims.ID, jti)
	}
}

func TestRefreshTokenHasRefreshType(t *testing.T) {
	m := testManager(time.Hour)
	token, _, err := m.GenerateRefreshToken(42, "user@example.com", "student", 0)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.TokenType != "refresh" {
		t.Fatalf("expected refresh token type, got %s", claims.TokenType)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m := testManager(-time.Minute)
	token, _, err := m.GenerateAccessToken(42, "user@example.com", "student", 0)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := m.ValidateToken(token); err == nil {
		t.Fatal("expired token accepted")
	}
	if !m.IsTokenExpired(token) {
		t.Fatal("IsTokenExpired disagrees")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := testManager(time.Hour).GenerateAccessToken(42, "user@example.com", "student", 0)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	other := NewJWTManager(JWTConfig{Secret: "another-secret", Expiry: time.Hour, RefreshExpiry: time.Hour, Issuer: "test"})
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("token signed with a different secret accepted")
	}
}

func TestTwoTokensGetDistinctJTIs(t *testing.T) {
	m := testManager(time.Hour)
	_, a, err := m.GenerateAccessToken(1, "a@example.com", "student", 0)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	_, b, err := m.GenerateAccessToken(1, "a@example.com", "student", 0)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if a == b {
		t.Fatal("JTIs collided")
	}
}
