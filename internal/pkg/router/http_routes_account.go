package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/carenest/CareNest/app/controllers"
	"github.com/carenest/CareNest/internal/pkg/constants"
	"github.com/carenest/CareNest/internal/pkg/middleware"
)

func (h HttpRouter) registerAccountRoutes(app *fiber.App) {
	app.Post(constants.LogoutRoute, middleware.RequireAuth, controllers.HandleAuthLogout)
	app.Get("/me", middleware.RequireAuth, controllers.HandleGetUserAccount)
}

func (h HttpRouter) registerProviderRoutes(app *fiber.App) {
	// Profile management
	app.Post("/provider", middleware.RequireAuth, controllers.HandleProviderCreate)

	group := app.Group("/provider", middleware.RequireProvider)
	group.Put("/", controllers.HandleProviderUpdate)
	group.Post("/photo", controllers.HandleProviderPhotoUpload)
	group.Post("/unpublish", controllers.HandleProviderUnpublish)

	// Publishing requires a paid or grandfathered subscription
	group.Post("/publish", middleware.RequireActiveSubscription, controllers.HandleProviderPublish)

	// Inquiries and conversations
	group.Get("/bookings", controllers.HandleBookingListForProvider)
	group.Post("/bookings/:id/:action", controllers.HandleBookingRespond)
	group.Get("/conversations", controllers.HandleConversationListForProvider)

	// Billing
	group.Post("/billing/checkout", controllers.HandleBillingCheckout)
	group.Post("/billing/cancel", controllers.HandleBillingCancel)
	group.Get("/billing/status", controllers.HandleBillingStatus)
}
