package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/carenest/CareNest/internal/pkg/middleware"
	"github.com/carenest/CareNest/internal/pkg/oauth"
	"github.com/carenest/CareNest/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerAccountRoutes(app)
	h.registerProviderRoutes(app)
	h.registerAdminRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
