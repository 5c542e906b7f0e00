package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	})

	service, err := NewAuthService(privatePEM, publicPEM, 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return service
}

func TestGenerateTokenPair_RoundTrip(t *testing.T) {
	service := newTestAuthService(t)

	pair, err := service.GenerateTokenPair(42, "CANDIDATE", false)
	if err != nil {
		t.Fatalf("generate token pair: %v", err)
	}

	access, err := service.ValidateToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if access.UserID != 42 {
		t.Fatalf("expected user 42, got %d", access.UserID)
	}
	if access.Role != "CANDIDATE" {
		t.Fatalf("expected CANDIDATE role, got %q", access.Role)
	}
	if access.TokenType != "access" {
		t.Fatalf("expected access token type, got %q", access.TokenType)
	}
	if access.MustChangePassword {
		t.Fatal("must_change_password should be false")
	}

	refresh, err := service.ValidateToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("validate refresh token: %v", err)
	}
	if refresh.TokenType != "refresh" {
		t.Fatalf("expected refresh token type, got %q", refresh.TokenType)
	}
	if refresh.ID == "" {
		t.Fatal("refresh token must carry a jti")
	}
}

func TestValidateToken_RejectsTampered(t *testing.T) {
	service := newTestAuthService(t)

	pair, err := service.GenerateTokenPair(1, "RECRUITER", false)
	if err != nil {
		t.Fatalf("generate token pair: %v", err)
	}

	tampered := pair.AccessToken[:len(pair.AccessToken)-3] + "abc"
	if _, err := service.ValidateToken(tampered); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestValidateToken_RejectsNonRSASignature(t *testing.T) {
	service := newTestAuthService(t)

	claims := TokenClaims{
		UserID:    1,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign hs256 token: %v", err)
	}

	if _, err := service.ValidateToken(token); err == nil {
		t.Fatal("expected HS256 token to be rejected")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if !CheckPasswordHash("correct-horse-battery", hash) {
		t.Fatal("expected password to match hash")
	}
	if CheckPasswordHash("wrong-password", hash) {
		t.Fatal("expected mismatch to fail")
	}
}
