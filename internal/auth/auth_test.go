package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret, subject, issuer string) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestVerifyToken(t *testing.T) {
	Init(&Config{JWTSecret: "test-secret", Issuer: "famdrive"})

	r := httptest.NewRequest("GET", "/v1/files", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", "user-1", "famdrive"))

	ownerID, err := VerifyToken(r)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if ownerID != "user-1" {
		t.Errorf("expected user-1, got %s", ownerID)
	}
}

func TestVerifyToken_Rejections(t *testing.T) {
	Init(&Config{JWTSecret: "test-secret", Issuer: "famdrive"})

	tests := []struct {
		name  string
		token string
	}{
		{"no header", ""},
		{"garbage", "Bearer not-a-token"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", "user-1", "famdrive")},
		{"wrong issuer", "Bearer " + signToken(t, "test-secret", "user-1", "someone-else")},
		{"no subject", "Bearer " + signToken(t, "test-secret", "", "famdrive")},
	}

	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/v1/files", nil)
		if tt.token != "" {
			r.Header.Set("Authorization", tt.token)
		}
		if _, err := VerifyToken(r); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
