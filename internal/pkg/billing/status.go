package billing

import (
	"strings"

	"github.com/carenest/CareNest/app/models"
)

// mapStripeStatus maps Stripe subscription statuses onto the local
// subscription state enum. Plans carry no trial, so "trialing" never occurs
// on live data; it maps to pending rather than granting access.
func mapStripeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active":
		return models.SubscriptionStatusActive
	case "past_due":
		return models.SubscriptionStatusPastDue
	case "canceled":
		return models.SubscriptionStatusCancelled
	case "unpaid", "incomplete_expired", "paused":
		return models.SubscriptionStatusExpired
	case "incomplete", "trialing":
		return models.SubscriptionStatusPending
	default:
		return models.SubscriptionStatusPending
	}
}
