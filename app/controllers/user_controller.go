package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/carenest/CareNest/app/models"
	"github.com/carenest/CareNest/app/repository"
	"github.com/carenest/CareNest/internal/pkg/access"
	"github.com/carenest/CareNest/internal/pkg/usercontext"
	"github.com/carenest/CareNest/internal/pkg/utils"
)

// HandleGetUserAccount returns account information for the authenticated user
func HandleGetUserAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	factory := repository.GetGlobalFactory()
	account, err := factory.GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	avatarURL := account.AvatarURL
	if avatarURL == "" {
		avatarURL = utils.GetGravatarURL(account.Email, 200)
	}

	response := fiber.Map{
		"id":            account.ID,
		"username":      account.Name,
		"email":         account.Email,
		"role":          account.Role,
		"status":        account.Status,
		"is_admin":      account.Role == models.ROLE_ADMIN,
		"avatar_url":    avatarURL,
		"created_at":    account.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at": formatTimePtr(account.LastLoginAt),
	}

	// Providers also get their profile and resolved access state
	if provider, perr := factory.GetProviderRepository().GetByUserID(userCtx.UserID); perr == nil {
		sub, serr := factory.GetSubscriptionRepository().GetByProviderID(provider.ID)
		if serr != nil {
			sub = nil
		}
		response["provider"] = provider
		response["access"] = access.Resolve(sub, time.Now())
	}

	return c.JSON(response)
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
