package middleware

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/carenest/CareNest/app/repository"
	"github.com/carenest/CareNest/internal/pkg/access"
	"github.com/carenest/CareNest/internal/pkg/usercontext"
)

// RequireActiveSubscription gates provider features behind a paid or
// grandfathered subscription. A missing record denies with the
// no-account status; a failed lookup denies as well rather than letting
// the request through on a store error.
func RequireActiveSubscription(c *fiber.Ctx) error {
	providerID := usercontext.GetProviderID(c)
	if providerID == 0 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "provider profile required",
		})
	}

	decision := ResolveProviderAccess(providerID)
	if !decision.HasAccess {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":  "subscription_required",
			"access": decision,
		})
	}

	c.Locals("ACCESS_DECISION", decision)
	return c.Next()
}

// ResolveProviderAccess loads the provider's subscription record and
// resolves it to an access decision. Lookup failures other than a
// missing row resolve as no account.
func ResolveProviderAccess(providerID uint) access.Decision {
	repo := repository.GetGlobalFactory().GetSubscriptionRepository()
	sub, err := repo.GetByProviderID(providerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("subscription lookup failed for provider %d: %v", providerID, err)
		}
		sub = nil
	}
	return access.Resolve(sub, time.Now())
}
