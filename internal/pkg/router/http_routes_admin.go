package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/carenest/CareNest/app/controllers"
	"github.com/carenest/CareNest/internal/pkg/constants"
	"github.com/carenest/CareNest/internal/pkg/middleware"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminGroup := app.Group(constants.AdminRoute, middleware.RequireAdmin)

	adminGroup.Get("/users", controllers.HandleAdminUserList)

	// Provider verification
	adminGroup.Get("/providers/queue", controllers.HandleAdminProviderQueue)
	adminGroup.Post("/providers/:id/verify", controllers.HandleAdminProviderVerify)

	// Conversation moderation
	adminGroup.Post("/conversations/:id/close", controllers.HandleAdminConversationClose)
	adminGroup.Post("/messages/:id/flag", controllers.HandleAdminMessageFlag)

	// Billing and operations
	adminGroup.Get("/billing/webhook-events", controllers.HandleAdminWebhookEvents)
	adminGroup.Get("/queue/stats", controllers.HandleAdminQueueStats)
	adminGroup.Post("/counters/flush", controllers.HandleAdminFlushCounters)
}
