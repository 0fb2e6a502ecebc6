package security

import (
	"strings"
	"testing"
	"time"
)

func TestConversationTokenRoundTrip(t *testing.T) {
	t.Parallel()

	token, err := GenerateConversationToken(42, " Anna@Example.COM ", time.Minute, "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := VerifyConversationToken(token, "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.ConversationID != 42 {
		t.Fatalf("expected conversation 42, got %d", claims.ConversationID)
	}
	if claims.CustomerEmail != "anna@example.com" {
		t.Fatalf("expected normalized email, got %q", claims.CustomerEmail)
	}
}

func TestConversationTokenRejectsTampering(t *testing.T) {
	t.Parallel()

	token, err := GenerateConversationToken(42, "anna@example.com", time.Minute, "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := VerifyConversationToken(token, "other-secret"); err == nil {
		t.Fatalf("expected signature error for wrong secret")
	}

	parts := strings.SplitN(token, ".", 2)
	forged := parts[0] + "x." + parts[1]
	if _, err := VerifyConversationToken(forged, "secret"); err == nil {
		t.Fatalf("expected error for tampered payload")
	}
}

func TestConversationTokenExpiry(t *testing.T) {
	t.Parallel()

	token, err := GenerateConversationToken(42, "anna@example.com", -time.Minute, "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := VerifyConversationToken(token, "secret"); err == nil {
		t.Fatalf("expected error for expired token")
	}
}
