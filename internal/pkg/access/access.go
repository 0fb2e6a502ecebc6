// Package access decides whether a provider's subscription record grants
// access to the paid provider features. The decision is a pure function of
// the stored record and the clock; fetching the record and acting on the
// outcome are the caller's business.
package access

import (
	"time"

	"github.com/carenest/CareNest/app/models"
)

// Status is the resolved subscription state surfaced to callers.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
	StatusPastDue   Status = "past_due"
	StatusNoAccount Status = "no_account"
)

// Active subscriptions whose period end lies more than this many years out
// are permanent grants. Stored-data convention from the legacy imports; the
// threshold must not change while such rows exist.
const permanentYearThreshold = 50

// Decision is the access verdict for one subscription record.
type Decision struct {
	HasAccess       bool   `json:"has_access"`
	Status          Status `json:"status"`
	RequiresPayment bool   `json:"requires_payment"`
	Message         string `json:"message"`
}

// Resolve maps a subscription record to an access decision. A nil record is
// a valid state (provider never subscribed), not an error. Resolve never
// mutates the record and performs no I/O.
func Resolve(sub *models.Subscription, now time.Time) Decision {
	if sub == nil {
		return Decision{
			HasAccess:       false,
			Status:          StatusNoAccount,
			RequiresPayment: true,
			Message:         "no subscription on file",
		}
	}

	if sub.Status == models.SubscriptionStatusActive {
		if sub.PeriodEnd != nil {
			if sub.PeriodEnd.Year()-now.Year() > permanentYearThreshold {
				return Decision{
					HasAccess: true,
					Status:    StatusActive,
					Message:   "permanent access",
				}
			}
			if sub.PeriodEnd.After(now) {
				return Decision{
					HasAccess: true,
					Status:    StatusActive,
					Message:   "subscription active",
				}
			}
			// Active status with an elapsed period: deny below.
		} else {
			// Active without a period end is a permanent grant.
			return Decision{
				HasAccess: true,
				Status:    StatusActive,
				Message:   "permanent access",
			}
		}
	}

	status := StatusExpired
	if sub.Status == models.SubscriptionStatusPastDue {
		status = StatusPastDue
	}
	return Decision{
		HasAccess:       false,
		Status:          status,
		RequiresPayment: true,
		Message:         "payment required to continue",
	}
}
