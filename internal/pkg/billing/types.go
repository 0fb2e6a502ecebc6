package billing

import "time"

// NormalizedSubscription is the provider-agnostic shape used by the billing
// service when syncing Stripe subscription state into local tables.
type NormalizedSubscription struct {
	ProviderID           uint
	PlanID               *uint
	Status               string
	StripeCustomerID     string
	StripeSubscriptionID string
	PeriodStart          *time.Time
	PeriodEnd            *time.Time
	CancelAtPeriodEnd    bool
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}
