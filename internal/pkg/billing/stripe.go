package billing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeClient wraps the Stripe API calls the billing flows need.
type StripeClient struct {
	webhookSecret string
}

// NewStripeClient configures the global Stripe key and returns a client.
func NewStripeClient(apiKey, webhookSecret string) *StripeClient {
	stripe.Key = apiKey
	return &StripeClient{webhookSecret: webhookSecret}
}

// CreateCustomer creates a Stripe customer linked to a provider profile.
func (c *StripeClient) CreateCustomer(_ context.Context, providerID uint, email string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"provider_id": strconv.FormatUint(uint64(providerID), 10),
		},
	}
	cus, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create stripe customer: %w", err)
	}
	return cus.ID, nil
}

// CreateCheckoutSession opens a subscription checkout for the given price.
// The provider id is stamped onto the resulting subscription's metadata so
// webhook events can be attributed without a lookup.
func (c *StripeClient) CreateCheckoutSession(_ context.Context, providerID uint, customerID, priceID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(customerID),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"provider_id": strconv.FormatUint(uint64(providerID), 10),
			},
		},
	}
	s, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create checkout session: %w", err)
	}
	return s.URL, nil
}

// CancelAtPeriodEnd schedules a Stripe subscription for cancellation.
func (c *StripeClient) CancelAtPeriodEnd(_ context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	if _, err := subscription.Update(subscriptionID, params); err != nil {
		return fmt.Errorf("billing: cancel stripe subscription: %w", err)
	}
	return nil
}

// ConstructEvent verifies the webhook signature and parses the event.
func (c *StripeClient) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, c.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("billing: webhook signature verification failed: %w", err)
	}
	return event, nil
}

func providerIDFromMetadata(metadata map[string]string) uint {
	raw, ok := metadata["provider_id"]
	if !ok {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func unixTimePtr(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
