package access

import (
	"testing"
	"time"

	"github.com/carenest/CareNest/app/models"
	"github.com/stretchr/testify/assert"
)

func ts(year, month, day int) *time.Time {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestResolveNilRecord(t *testing.T) {
	d := Resolve(nil, time.Now())

	assert.False(t, d.HasAccess)
	assert.Equal(t, StatusNoAccount, d.Status)
	assert.True(t, d.RequiresPayment)
}

func TestResolveGrandfathered(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		Status:    models.SubscriptionStatusActive,
		PeriodEnd: ts(2099, 1, 1),
	}

	d := Resolve(sub, now)

	assert.True(t, d.HasAccess)
	assert.Equal(t, StatusActive, d.Status)
	assert.False(t, d.RequiresPayment)
	assert.Equal(t, "permanent access", d.Message)
}

func TestResolveActiveWithFuturePeriodEnd(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		Status:    models.SubscriptionStatusActive,
		PeriodEnd: ts(2025, 6, 1),
	}

	d := Resolve(sub, now)

	assert.True(t, d.HasAccess)
	assert.Equal(t, StatusActive, d.Status)
	assert.Equal(t, "subscription active", d.Message)
}

func TestResolveActiveWithoutPeriodEnd(t *testing.T) {
	sub := &models.Subscription{Status: models.SubscriptionStatusActive}

	d := Resolve(sub, time.Now())

	assert.True(t, d.HasAccess)
	assert.Equal(t, StatusActive, d.Status)
	assert.False(t, d.RequiresPayment)
}

func TestResolveActiveButElapsed(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		Status:    models.SubscriptionStatusActive,
		PeriodEnd: ts(2024, 1, 1),
	}

	d := Resolve(sub, now)

	assert.False(t, d.HasAccess)
	assert.Equal(t, StatusExpired, d.Status)
	assert.True(t, d.RequiresPayment)
}

func TestResolveDenyStatuses(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		stored string
		want   Status
	}{
		{stored: models.SubscriptionStatusPending, want: StatusExpired},
		{stored: models.SubscriptionStatusCancelled, want: StatusExpired},
		{stored: models.SubscriptionStatusExpired, want: StatusExpired},
		{stored: models.SubscriptionStatusPastDue, want: StatusPastDue},
	}

	for _, tt := range tests {
		// Future period end must not rescue a non-active status.
		sub := &models.Subscription{Status: tt.stored, PeriodEnd: ts(2030, 1, 1)}
		d := Resolve(sub, now)

		assert.False(t, d.HasAccess, "status %q", tt.stored)
		assert.True(t, d.RequiresPayment, "status %q", tt.stored)
		assert.Equal(t, tt.want, d.Status, "status %q", tt.stored)
	}
}

func TestResolveExactlyFiftyYearsIsNotPermanent(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		Status:    models.SubscriptionStatusActive,
		PeriodEnd: ts(2075, 6, 1),
	}

	d := Resolve(sub, now)

	assert.True(t, d.HasAccess)
	assert.Equal(t, "subscription active", d.Message)
}

func TestResolveDoesNotMutateRecord(t *testing.T) {
	sub := &models.Subscription{
		Status:    models.SubscriptionStatusPastDue,
		PeriodEnd: ts(2024, 1, 1),
	}
	before := *sub

	_ = Resolve(sub, time.Now())

	assert.Equal(t, before, *sub)
}
