package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/carenest/CareNest/app/controllers"
)

type ApiRouter struct {
}

// InstallRouter exposes a rate-limited machine API mirroring the public
// directory endpoints.
func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "CareNest API",
		})
	})

	v1 := api.Group("/v1")
	v1.Get("/providers", controllers.HandleProviderList)
	v1.Get("/providers/map", controllers.HandleProviderMap)
	v1.Get("/providers/:slug", controllers.HandleProviderDetail)
	v1.Get("/plans", controllers.HandleBillingPlans)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
