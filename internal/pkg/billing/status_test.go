package billing

import (
	"testing"

	"github.com/carenest/CareNest/app/models"
)

func TestMapStripeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "active", want: models.SubscriptionStatusActive},
		{in: "ACTIVE", want: models.SubscriptionStatusActive},
		{in: "past_due", want: models.SubscriptionStatusPastDue},
		{in: "canceled", want: models.SubscriptionStatusCancelled},
		{in: "unpaid", want: models.SubscriptionStatusExpired},
		{in: "incomplete_expired", want: models.SubscriptionStatusExpired},
		{in: "paused", want: models.SubscriptionStatusExpired},
		{in: "incomplete", want: models.SubscriptionStatusPending},
		{in: "trialing", want: models.SubscriptionStatusPending},
		{in: "something_new", want: models.SubscriptionStatusPending},
	}

	for _, tt := range tests {
		if got := mapStripeStatus(tt.in); got != tt.want {
			t.Fatalf("mapStripeStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProviderIDFromMetadata(t *testing.T) {
	if got := providerIDFromMetadata(map[string]string{"provider_id": "42"}); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if got := providerIDFromMetadata(map[string]string{"provider_id": "abc"}); got != 0 {
		t.Fatalf("expected 0 for malformed id, got %d", got)
	}
	if got := providerIDFromMetadata(nil); got != 0 {
		t.Fatalf("expected 0 for missing metadata, got %d", got)
	}
}

func TestUnixTimePtr(t *testing.T) {
	if unixTimePtr(0) != nil {
		t.Fatal("expected nil for zero timestamp")
	}
	ts := unixTimePtr(1735689600)
	if ts == nil || ts.Year() != 2025 {
		t.Fatalf("unexpected conversion: %v", ts)
	}
}
