package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/carenest/CareNest/app/controllers"
	"github.com/carenest/CareNest/app/models"
	"github.com/carenest/CareNest/app/repository"
	"github.com/carenest/CareNest/internal/pkg/session"
	"github.com/carenest/CareNest/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request
// This centralizes user session handling and eliminates code duplication
func UserContextMiddleware(c *fiber.Ctx) error {
	// Avoid interfering with Goth/Fiber session handling on OAuth routes.
	// Goth uses its own fiber session store and relies on per-request locals.
	// We skip our app session on /auth/* to prevent cross-store collisions.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		setAnonymous(c)
		return c.Next()
	}

	userID := sess.Get(controllers.USER_ID)
	if userID == nil {
		setAnonymous(c)
		return c.Next()
	}

	username := session.GetSessionValue(c, controllers.USER_NAME)
	isAdmin := sess.Get(controllers.USER_IS_ADMIN)
	role := session.GetSessionValue(c, controllers.USER_ROLE)
	if role == "" {
		role = models.ROLE_USER
	}

	// Determine provider profile with session-first strategy
	var providerID uint
	if v := sess.Get(controllers.PROVIDER_ID); v != nil {
		if id, ok := v.(uint); ok {
			providerID = id
		}
	} else if role == models.ROLE_PROVIDER {
		if provider, err := repository.GetGlobalFactory().GetProviderRepository().GetByUserID(userID.(uint)); err == nil {
			providerID = provider.ID
		}
		// cache in session for subsequent requests
		sess.Set(controllers.PROVIDER_ID, providerID)
		_ = sess.Save()
	}

	userCtx := usercontext.UserContext{
		UserID:     userID.(uint),
		Username:   username,
		Role:       role,
		ProviderID: providerID,
		IsLoggedIn: true,
		IsAdmin:    isAdmin != nil && isAdmin.(bool),
	}
	c.Locals("USER_CONTEXT", userCtx)

	c.Locals(controllers.FROM_PROTECTED, true)
	c.Locals(controllers.USER_NAME, username)
	c.Locals(controllers.USER_ID, userID.(uint))
	c.Locals(controllers.USER_IS_ADMIN, userCtx.IsAdmin)

	return c.Next()
}

func setAnonymous(c *fiber.Ctx) {
	c.Locals("USER_CONTEXT", usercontext.UserContext{
		IsLoggedIn: false,
		IsAdmin:    false,
	})
	c.Locals(controllers.FROM_PROTECTED, false)
	c.Locals(controllers.USER_IS_ADMIN, false)
}
