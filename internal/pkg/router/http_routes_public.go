package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/carenest/CareNest/app/controllers"
	"github.com/carenest/CareNest/internal/pkg/constants"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get(constants.PublicRoute, controllers.HandleStart)
	app.Get("/health", controllers.HandleHealth)

	// Provider directory
	app.Get(constants.ProvidersRoute, controllers.HandleProviderList)
	app.Get(constants.ProvidersRoute+"/map", controllers.HandleProviderMap)
	app.Get(constants.ProvidersRoute+"/:slug", controllers.HandleProviderDetail)

	// Customers act without an account: inquiries and conversations are
	// guarded by captcha and signed access tokens
	app.Post(constants.BookingsRoute, controllers.HandleBookingCreate)
	app.Post(constants.ConversationsRoute, controllers.HandleConversationStart)
	app.Get(constants.ConversationsRoute+"/:id/messages", controllers.HandleConversationMessages)
	app.Post(constants.ConversationsRoute+"/:id/messages", controllers.HandleMessageSend)
	app.Post(constants.ConversationsRoute+"/:id/read", controllers.HandleMarkRead)
	app.Get(constants.ConversationsRoute+"/:id/stream", controllers.HandleConversationStream)

	// Billing
	app.Get(constants.BillingRoute+"/plans", controllers.HandleBillingPlans)

	// Stripe webhooks (no session, signature-verified in controller)
	app.Post("/webhooks/stripe", controllers.HandleBillingWebhook)

	// Registration and login
	app.Post(constants.RegisterRoute, controllers.HandleAuthRegister)
	app.Get("/activate", controllers.HandleAuthActivate)
	app.Post(constants.LoginRoute, controllers.HandleAuthLogin)

	// Social OAuth
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
}
