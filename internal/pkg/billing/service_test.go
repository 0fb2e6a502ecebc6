package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carenest/CareNest/app/models"
)

// fakeSubscriptionRepo is an in-memory SubscriptionRepository with the same
// event-id deduplication the MySQL unique index provides.
type fakeSubscriptionRepo struct {
	nextEventID   uint
	events        []*models.BillingWebhookEvent
	subscriptions map[uint]*models.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subscriptions: make(map[uint]*models.Subscription)}
}

func (r *fakeSubscriptionRepo) GetByProviderID(providerID uint) (*models.Subscription, error) {
	if sub, ok := r.subscriptions[providerID]; ok {
		out := *sub
		return &out, nil
	}
	return nil, errors.New("record not found")
}

func (r *fakeSubscriptionRepo) GetByStripeSubscriptionID(id string) (*models.Subscription, error) {
	for _, sub := range r.subscriptions {
		if sub.StripeSubscriptionID == id {
			out := *sub
			return &out, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *fakeSubscriptionRepo) Upsert(sub *models.Subscription) error {
	stored := *sub
	r.subscriptions[sub.ProviderID] = &stored
	return nil
}

func (r *fakeSubscriptionRepo) GetPlanByCode(code string) (*models.Plan, error) {
	return nil, errors.New("record not found")
}

func (r *fakeSubscriptionRepo) GetPlanByStripePriceID(priceID string) (*models.Plan, error) {
	return nil, errors.New("record not found")
}

func (r *fakeSubscriptionRepo) ListActivePlans() ([]models.Plan, error) {
	return nil, nil
}

func (r *fakeSubscriptionRepo) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	for _, e := range r.events {
		if e.ProviderEventID == event.ProviderEventID {
			out := *e
			return false, &out, nil
		}
	}
	r.nextEventID++
	event.ID = r.nextEventID
	stored := *event
	r.events = append(r.events, &stored)
	out := stored
	return true, &out, nil
}

func (r *fakeSubscriptionRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range r.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return errors.New("record not found")
}

func (r *fakeSubscriptionRepo) ListWebhookEvents(offset, limit int) ([]models.BillingWebhookEvent, error) {
	out := make([]models.BillingWebhookEvent, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, *e)
	}
	return out, nil
}

func TestRecordWebhookEventStoresNewEvent(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	svc := NewService(repo)

	created, record, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		ProviderEventID: "evt_123",
		EventType:       "customer.subscription.updated",
		PayloadJSON:     `{"id":"evt_123"}`,
		SignatureValid:  true,
	})
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, record)
	assert.Equal(t, "evt_123", record.ProviderEventID)
	assert.Equal(t, "customer.subscription.updated", record.EventType)
	assert.Equal(t, `{"id":"evt_123"}`, record.PayloadJSON)
	assert.True(t, record.SignatureValid)
	assert.Nil(t, record.ProcessedAt)
}

func TestRecordWebhookEventAcksDuplicate(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	svc := NewService(repo)

	created, first, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		ProviderEventID: "evt_dup",
		EventType:       "customer.subscription.created",
		PayloadJSON:     `{"id":"evt_dup"}`,
		SignatureValid:  true,
	})
	require.NoError(t, err)
	require.True(t, created)

	// Replayed delivery of the same event id is acknowledged, not re-stored
	created, second, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		ProviderEventID: "evt_dup",
		EventType:       "customer.subscription.created",
		PayloadJSON:     `{"id":"evt_dup"}`,
		SignatureValid:  true,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.events, 1)
}

func TestRecordWebhookEventHashesMissingEventID(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	svc := NewService(repo)

	created, record, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		EventType:   "customer.subscription.updated",
		PayloadJSON: `{"data":"a"}`,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, record.ProviderEventID, "hash:")

	// Same payload without an id dedupes on the hash
	created, _, err = svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		EventType:   "customer.subscription.updated",
		PayloadJSON: `{"data":"a"}`,
	})
	require.NoError(t, err)
	assert.False(t, created)

	// A different payload is a different event
	created, _, err = svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		EventType:   "customer.subscription.updated",
		PayloadJSON: `{"data":"b"}`,
	})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestMarkWebhookProcessed(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	svc := NewService(repo)

	_, record, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		ProviderEventID: "evt_done",
		EventType:       "customer.subscription.deleted",
		PayloadJSON:     `{}`,
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkWebhookProcessed(context.Background(), record.ID, nil))
	assert.NotNil(t, repo.events[0].ProcessedAt)
	assert.Empty(t, repo.events[0].ProcessingError)

	require.NoError(t, svc.MarkWebhookProcessed(context.Background(), record.ID, errors.New("sync failed")))
	assert.Equal(t, "sync failed", repo.events[0].ProcessingError)

	assert.Error(t, svc.MarkWebhookProcessed(context.Background(), 0, nil))
}
