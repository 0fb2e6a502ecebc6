package controllers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/carenest/CareNest/app/models"
	"github.com/carenest/CareNest/app/repository"
	"github.com/carenest/CareNest/internal/pkg/env"
	"github.com/carenest/CareNest/internal/pkg/hcaptcha"
	"github.com/carenest/CareNest/internal/pkg/mail"
	"github.com/carenest/CareNest/internal/pkg/session"
	"github.com/carenest/CareNest/internal/pkg/statistics"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Captcha  string `json:"h-captcha-response"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleAuthRegister creates a new user account and sends the activation mail
func HandleAuthRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	valid, err := hcaptcha.Verify(req.Captcha)
	if err != nil || !valid {
		errorMsg := "Captcha validation failed. Please try again."
		if err != nil && env.IsDev() {
			errorMsg = fmt.Sprintf("Captcha validation failed: %v", err)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "captcha_failed", "message": errorMsg})
	}

	user, err := models.CreateUser(req.Username, normalizeEmail(req.Email), req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := user.GenerateActivationToken(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to prepare activation"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if err := repo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "An account with this email already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create account"})
	}

	go sendActivationMail(user)
	go statistics.UpdateStatisticsCache()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      user.ID,
		"email":   user.Email,
		"message": "Account created. Please check your inbox to activate it.",
	})
}

func sendActivationMail(user *models.User) {
	base := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:"+env.GetEnv("APP_PORT", "4000"))
	link := fmt.Sprintf("%s/activate?token=%s", base, user.ActivationToken)
	body := fmt.Sprintf("<p>Hello %s,</p><p>please activate your CareNest account: <a href=%q>%s</a></p>", user.Name, link, link)
	if err := mail.SendMail(user.Email, "Activate your CareNest account", body); err != nil {
		log.Printf("failed to send activation mail to user %d: %v", user.ID, err)
	}
}

// HandleAuthActivate activates an account via the mailed token
func HandleAuthActivate(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Missing activation token"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByActivationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Invalid activation token"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Activation failed"})
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := repo.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Activation failed"})
	}

	return c.JSON(fiber.Map{"message": "Account activated. You can log in now."})
}

// HandleAuthLogin verifies credentials and establishes the session
func HandleAuthLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	// notice: in production you should not inform the user
	// with detailed messages about login failures
	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(normalizeEmail(req.Email))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "There is a problem with the login process"})
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		log.Printf("failed login for user %d from %s", user.ID, GetClientIP(c))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "There is a problem with the login process"})
	}

	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Account is not activated"})
	}

	if err := establishSession(c, user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Session could not be created"})
	}

	if err := repo.Update(userWithLogin(user)); err != nil {
		log.Printf("failed to update last login for user %d: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Name,
		"role":     user.Role,
		"is_admin": user.Role == models.ROLE_ADMIN,
	})
}

func userWithLogin(user *models.User) *models.User {
	now := time.Now()
	user.LastLoginAt = &now
	return user
}

func establishSession(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}

	sess.Set(AUTH_KEY, true)
	sess.Set(USER_ID, user.ID)
	sess.Set(USER_NAME, user.Name)
	sess.Set(USER_IS_ADMIN, user.Role == models.ROLE_ADMIN)

	if err := sess.Save(); err != nil {
		return err
	}

	_ = session.SetSessionValue(c, USER_ROLE, user.Role)

	// Cache the provider profile id so the context middleware does not
	// have to look it up on every request
	if user.Role == models.ROLE_PROVIDER {
		if provider, perr := repository.GetGlobalFactory().GetProviderRepository().GetByUserID(user.ID); perr == nil {
			sess, err = session.GetSessionStore().Get(c)
			if err != nil {
				return err
			}
			sess.Set(PROVIDER_ID, provider.ID)
			return sess.Save()
		}
	}

	return nil
}

// HandleAuthLogout destroys the session
func HandleAuthLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return c.JSON(fiber.Map{"message": "logged out"})
	}

	if err := sess.Destroy(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Logout failed"})
	}

	c.Locals(FROM_PROTECTED, false)

	return c.JSON(fiber.Map{"message": "logged out"})
}
