package controllers

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/carenest/CareNest/app/repository"
	"github.com/carenest/CareNest/internal/pkg/access"
	"github.com/carenest/CareNest/internal/pkg/billing"
	"github.com/carenest/CareNest/internal/pkg/env"
	"github.com/carenest/CareNest/internal/pkg/usercontext"
)

var (
	stripeClient     *billing.StripeClient
	stripeClientOnce sync.Once
)

func getStripeClient() *billing.StripeClient {
	stripeClientOnce.Do(func() {
		stripeClient = billing.NewStripeClient(
			env.GetEnv("STRIPE_SECRET_KEY", ""),
			env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		)
	})
	return stripeClient
}

func billingService() *billing.Service {
	return billing.NewService(repository.GetGlobalFactory().GetSubscriptionRepository())
}

// HandleBillingPlans lists the subscription plans
func HandleBillingPlans(c *fiber.Ctx) error {
	plans, err := repository.GetGlobalFactory().GetSubscriptionRepository().ListActivePlans()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load plans"})
	}
	return c.JSON(fiber.Map{"plans": plans})
}

type checkoutRequest struct {
	PlanCode string `json:"plan_code"`
}

// HandleBillingCheckout creates a Stripe checkout session for the
// logged-in provider
func HandleBillingCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	factory := repository.GetGlobalFactory()
	plan, err := factory.GetSubscriptionRepository().GetPlanByCode(req.PlanCode)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Unknown plan"})
	}

	user, err := factory.GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load account"})
	}

	// Reuse the Stripe customer if the provider already has one
	customerID := ""
	if sub, serr := factory.GetSubscriptionRepository().GetByProviderID(userCtx.ProviderID); serr == nil {
		customerID = sub.StripeCustomerID
	}
	client := getStripeClient()
	if customerID == "" {
		customerID, err = client.CreateCustomer(c.Context(), userCtx.ProviderID, user.Email)
		if err != nil {
			log.Printf("stripe customer creation failed for provider %d: %v", userCtx.ProviderID, err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "billing_unavailable", "message": "Checkout is currently unavailable"})
		}
	}

	base := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:"+env.GetEnv("APP_PORT", "4000"))
	checkoutURL, err := client.CreateCheckoutSession(
		c.Context(),
		userCtx.ProviderID,
		customerID,
		plan.StripePriceID,
		base+"/billing/success",
		base+"/billing/cancelled",
	)
	if err != nil {
		log.Printf("stripe checkout failed for provider %d: %v", userCtx.ProviderID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "billing_unavailable", "message": "Checkout is currently unavailable"})
	}

	return c.JSON(fiber.Map{"checkout_url": checkoutURL})
}

// HandleBillingCancel schedules the provider's subscription for
// cancellation at period end
func HandleBillingCancel(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	factory := repository.GetGlobalFactory()
	sub, err := factory.GetSubscriptionRepository().GetByProviderID(userCtx.ProviderID)
	if err != nil || sub.StripeSubscriptionID == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No subscription to cancel"})
	}

	if err := getStripeClient().CancelAtPeriodEnd(c.Context(), sub.StripeSubscriptionID); err != nil {
		log.Printf("stripe cancel failed for provider %d: %v", userCtx.ProviderID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "billing_unavailable", "message": "Cancellation is currently unavailable"})
	}

	sub.CancelAtPeriodEnd = true
	if err := factory.GetSubscriptionRepository().Upsert(sub); err != nil {
		log.Printf("failed to persist cancel flag for provider %d: %v", userCtx.ProviderID, err)
	}

	return c.JSON(fiber.Map{"message": "Subscription will end at the current period end"})
}

// HandleBillingStatus returns the provider's resolved access state
func HandleBillingStatus(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	sub, err := repository.GetGlobalFactory().GetSubscriptionRepository().GetByProviderID(userCtx.ProviderID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("subscription lookup failed for provider %d: %v", userCtx.ProviderID, err)
		}
		sub = nil
	}

	decision := access.Resolve(sub, time.Now())
	response := fiber.Map{"access": decision}
	if sub != nil {
		response["subscription"] = sub
	}
	return c.JSON(response)
}

// HandleBillingWebhook ingests Stripe webhook events. Events are recorded
// before processing so a replayed delivery is acknowledged without being
// applied twice.
func HandleBillingWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get("Stripe-Signature")

	event, err := getStripeClient().ConstructEvent(payload, signature)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_signature", "message": "Webhook signature verification failed"})
	}

	svc := billingService()
	created, record, err := svc.RecordWebhookEvent(c.Context(), billing.WebhookEventInput{
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		log.Printf("failed to record webhook event %s: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Event could not be recorded"})
	}
	if !created {
		// Seen before, acknowledge without reprocessing
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	processErr := svc.HandleEvent(c.Context(), event)
	if err := svc.MarkWebhookProcessed(c.Context(), record.ID, processErr); err != nil {
		log.Printf("failed to mark webhook event %d processed: %v", record.ID, err)
	}
	if processErr != nil {
		log.Printf("webhook event %s processing failed: %v", event.ID, processErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Event processing failed"})
	}

	return c.JSON(fiber.Map{"received": true})
}
