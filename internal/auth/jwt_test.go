package auth

import (
	"testing"
	"time"

	"roast-platform/internal/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:     "test-secret",
		JWTIssuer:     "roast-platform",
		GuestTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestIssueAndVerifyGuestToken(t *testing.T) {
	m := newTestManager(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tok, err := m.IssueGuest(now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok.VisitorID == "" || tok.Token == "" {
		t.Fatalf("empty token fields: %+v", tok)
	}

	claims, err := m.Verify(tok.Token, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.VisitorID != tok.VisitorID {
		t.Fatalf("visitor id mismatch: %q vs %q", claims.VisitorID, tok.VisitorID)
	}
	if claims.TokenType != TokenTypeGuest {
		t.Fatalf("unexpected token type: %q", claims.TokenType)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := newTestManager(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tok, err := m.IssueGuest(now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Verify(tok.Token, now.Add(2*time.Hour)); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(config.AuthConfig{JWTSecret: "other-secret", GuestTokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tok, err := other.IssueGuest(now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Verify(tok.Token, now); err == nil {
		t.Fatalf("expected verification to fail for foreign signature")
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager(config.AuthConfig{}); err == nil {
		t.Fatalf("expected error for missing secret")
	}
}
