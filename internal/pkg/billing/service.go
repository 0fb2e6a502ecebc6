// Package billing syncs Stripe subscription state into the local
// subscription tables and keeps a deduplicated log of webhook deliveries.
package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"

	"github.com/carenest/CareNest/app/models"
	"github.com/carenest/CareNest/app/repository"
)

// Service provides billing synchronization and webhook bookkeeping.
type Service struct {
	repo repository.SubscriptionRepository
}

// NewService creates a billing service from an injected repository.
func NewService(repo repository.SubscriptionRepository) *Service {
	return &Service{repo: repo}
}

// SyncSubscription upserts normalized Stripe subscription data for a provider.
func (s *Service) SyncSubscription(ctx context.Context, in NormalizedSubscription) (*models.Subscription, error) {
	_ = ctx
	if in.ProviderID == 0 || strings.TrimSpace(in.StripeSubscriptionID) == "" {
		return nil, errors.New("provider_id and stripe_subscription_id are required")
	}

	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.SubscriptionStatusPending
	}

	sub := &models.Subscription{
		ProviderID:           in.ProviderID,
		PlanID:               in.PlanID,
		Status:               status,
		StripeCustomerID:     strings.TrimSpace(in.StripeCustomerID),
		StripeSubscriptionID: strings.TrimSpace(in.StripeSubscriptionID),
		PeriodStart:          in.PeriodStart,
		PeriodEnd:            in.PeriodEnd,
		CancelAtPeriodEnd:    in.CancelAtPeriodEnd,
	}
	if err := s.repo.Upsert(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// HandleEvent applies one verified Stripe event to local state. Unknown event
// types are acknowledged without effect.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("billing: parse subscription event: %w", err)
		}
		return s.applySubscription(ctx, &sub)
	case "invoice.payment_failed":
		// Stripe also emits customer.subscription.updated with past_due;
		// nothing extra to apply here.
		return nil
	default:
		return nil
	}
}

// applySubscription normalizes a Stripe subscription object and syncs it.
func (s *Service) applySubscription(ctx context.Context, sub *stripe.Subscription) error {
	providerID := providerIDFromMetadata(sub.Metadata)
	if providerID == 0 {
		// Fall back to the locally stored linkage for events on
		// subscriptions created before metadata stamping.
		existing, err := s.repo.GetByStripeSubscriptionID(sub.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("billing: subscription %s has no provider linkage", sub.ID)
			}
			return err
		}
		providerID = existing.ProviderID
	}

	in := NormalizedSubscription{
		ProviderID:           providerID,
		Status:               mapStripeStatus(string(sub.Status)),
		StripeSubscriptionID: sub.ID,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		in.StripeCustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		in.PeriodStart = unixTimePtr(item.CurrentPeriodStart)
		in.PeriodEnd = unixTimePtr(item.CurrentPeriodEnd)
		if item.Price != nil {
			if plan, err := s.repo.GetPlanByStripePriceID(item.Price.ID); err == nil {
				in.PlanID = &plan.ID
			}
		}
	}

	_, err := s.SyncSubscription(ctx, in)
	return err
}

// RecordWebhookEvent persists webhook payloads idempotently. Returns false
// when the event id was already seen.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}
