package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTRoundTrip(t *testing.T) {
	signed, err := GenerateJWT("buyer@example.com")
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	token, err := ValidateJWT(signed)
	if err != nil {
		t.Fatalf("ValidateJWT failed: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("claims have unexpected type %T", token.Claims)
	}
	if claims["email"] != "buyer@example.com" {
		t.Errorf("email claim = %v, want buyer@example.com", claims["email"])
	}
	if claims["type"] != "access" {
		t.Errorf("type claim = %v, want access", claims["type"])
	}
}

func TestRefreshTokenCarriesSession(t *testing.T) {
	signed, err := GenerateRefreshToken("buyer@example.com", "sess-123")
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}

	token, err := ValidateJWT(signed)
	if err != nil {
		t.Fatalf("ValidateJWT failed: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["sessionId"] != "sess-123" {
		t.Errorf("sessionId claim = %v, want sess-123", claims["sessionId"])
	}
	if claims["type"] != "refresh" {
		t.Errorf("type claim = %v, want refresh", claims["type"])
	}
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	if _, err := ValidateJWT("not-a-token"); err == nil {
		t.Error("garbage token must not validate")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !ValidatePassword(hash, "s3cret") {
		t.Error("correct password rejected")
	}
	if ValidatePassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}
