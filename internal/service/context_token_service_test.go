package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestContextTokenService_IssueParse(t *testing.T) {
	svc := NewContextTokenService("secret", 15*time.Minute, NewMemoryContextTokenStore())

	tok, err := svc.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok.Token == "" || tok.ContextID == "" {
		t.Fatalf("expected token and context id")
	}
	if tok.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expires_in: %d", tok.ExpiresIn)
	}

	claims, err := svc.Parse(tok.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.ContextID != tok.ContextID {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestContextTokenService_Revoke(t *testing.T) {
	svc := NewContextTokenService("secret", 15*time.Minute, nil)
	tok, err := svc.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Parse(tok.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := svc.Revoke(claims); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.Parse(tok.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid after revoke, got %v", err)
	}
}

func TestContextTokenService_RejectsEmptySecret(t *testing.T) {
	svc := NewContextTokenService("", 15*time.Minute, nil)
	if _, err := svc.Issue(); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid on empty secret, got %v", err)
	}
}

func TestContextTokenService_RejectsForeignTokens(t *testing.T) {
	svc := NewContextTokenService("secret", 15*time.Minute, nil)
	now := time.Now().UTC()

	sign := func(claims ContextClaims, secret string) string {
		t.Helper()
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		return signed
	}
	base := func() ContextClaims {
		return ContextClaims{
			ContextID: "c1",
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "j1",
				Issuer:    "support-widget",
				Subject:   "c1",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
			},
		}
	}

	wrongIssuer := base()
	wrongIssuer.Issuer = "other-issuer"
	if _, err := svc.Parse(sign(wrongIssuer, "secret")); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for wrong issuer, got %v", err)
	}

	if _, err := svc.Parse(sign(base(), "other-secret")); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for wrong secret, got %v", err)
	}

	// firmado bien pero nunca emitido por este servicio
	if _, err := svc.Parse(sign(base(), "secret")); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for unknown jti, got %v", err)
	}

	expired := base()
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
	if _, err := svc.Parse(sign(expired, "secret")); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}
