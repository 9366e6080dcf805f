package auth

import (
	"testing"
	"time"
)

func newTestIssuer(t *testing.T, clock func() time.Time) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("test-secret"),
		Issuer:        "vibro-auth",
		Audience:      "vibro-api",
		TokenTTL:      time.Hour,
		Clock:         clock,
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}
	return issuer
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer(TokenIssuerConfig{}); err == nil {
		t.Fatalf("expected error without signing secret")
	}
}

func TestIssueAndValidateToken(t *testing.T) {
	issuer := newTestIssuer(t, nil)

	token, expiresIn, err := issuer.IssueToken("user-123")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if expiresIn != int64(time.Hour.Seconds()) {
		t.Fatalf("unexpected expiry seconds: %d", expiresIn)
	}

	subject, err := issuer.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if subject != "user-123" {
		t.Fatalf("unexpected subject %q", subject)
	}
}

func TestIssueTokenRequiresSubject(t *testing.T) {
	issuer := newTestIssuer(t, nil)

	if _, _, err := issuer.IssueToken(""); err == nil {
		t.Fatalf("expected error without subject")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := newTestIssuer(t, nil)
	token, _, err := issuer.IssueToken("user-123")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	other, err := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("different-secret"),
		Issuer:        "vibro-auth",
		Audience:      "vibro-api",
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatalf("expected validation failure with wrong secret")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	issuedAt := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t, func() time.Time { return issuedAt })

	token, _, err := issuer.IssueToken("user-123")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	later := newTestIssuer(t, func() time.Time { return issuedAt.Add(2 * time.Hour) })
	if _, err := later.ValidateToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	issuer := newTestIssuer(t, nil)

	if _, err := issuer.ValidateToken("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}
