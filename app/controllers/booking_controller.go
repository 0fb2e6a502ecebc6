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
	"github.com/carenest/CareNest/internal/pkg/jobqueue"
	"github.com/carenest/CareNest/internal/pkg/messaging"
	"github.com/carenest/CareNest/internal/pkg/security"
	"github.com/carenest/CareNest/internal/pkg/usercontext"
)

const conversationTokenTTL = 90 * 24 * time.Hour

type bookingRequest struct {
	ProviderSlug  string `json:"provider_slug"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	ServiceType   string `json:"service_type"`
	StartDate     string `json:"start_date"`
	Notes         string `json:"notes"`
	Captcha       string `json:"h-captcha-response"`
}

// HandleBookingCreate files a care inquiry. Customers do not need an
// account; a conversation with the provider is opened right away and the
// customer receives an access link by mail.
func HandleBookingCreate(c *fiber.Ctx) error {
	var req bookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	valid, err := hcaptcha.Verify(req.Captcha)
	if err != nil || !valid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "captcha_failed", "message": "Captcha validation failed. Please try again."})
	}

	factory := repository.GetGlobalFactory()
	provider, err := factory.GetProviderRepository().GetBySlug(req.ProviderSlug)
	if err != nil || !provider.IsPublished {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Provider not found"})
	}

	booking := &models.Booking{
		ProviderID:    provider.ID,
		CustomerName:  req.CustomerName,
		CustomerEmail: normalizeEmail(req.CustomerEmail),
		CustomerPhone: req.CustomerPhone,
		ServiceType:   req.ServiceType,
		Notes:         req.Notes,
		Status:        models.BookingStatusPending,
	}
	if req.StartDate != "" {
		start, perr := time.Parse("2006-01-02", req.StartDate)
		if perr != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "start_date must be YYYY-MM-DD"})
		}
		booking.StartDate = &start
	}
	if err := booking.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := factory.GetBookingRepository().Create(booking); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create booking"})
	}

	// Open the conversation tied to this booking; the welcome message is
	// written in the same unit as the conversation row
	conversation, err := messaging.GetService().Initialize(c.Context(), provider.ID, booking.CustomerEmail, booking.ID)
	if err != nil {
		log.Printf("failed to open conversation for booking %d: %v", booking.ID, err)
	}

	response := fiber.Map{"booking": booking}
	if conversation != nil {
		token, terr := security.GenerateConversationToken(conversation.ID, booking.CustomerEmail, conversationTokenTTL, conversationTokenSecret())
		if terr != nil {
			log.Printf("failed to issue conversation token for booking %d: %v", booking.ID, terr)
		} else {
			response["conversation_id"] = conversation.ID
			response["conversation_token"] = token
			go notifyBookingParties(booking, provider, conversation.ID, token)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

func conversationTokenSecret() string {
	return env.GetEnv("CONVERSATION_TOKEN_SECRET", env.GetEnv("APP_SECRET", ""))
}

func notifyBookingParties(booking *models.Booking, provider *models.Provider, conversationID uint, token string) {
	base := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:"+env.GetEnv("APP_PORT", "4000"))
	link := fmt.Sprintf("%s/conversations/%d?token=%s", base, conversationID, token)

	customerBody := fmt.Sprintf(
		"<p>Hello %s,</p><p>your inquiry to %s was sent. You can message the provider here: <a href=%q>conversation</a></p>",
		booking.CustomerName, provider.DisplayName, link)
	if _, err := jobqueue.EnqueueBookingEmail(booking.ID, booking.CustomerEmail, "Your CareNest inquiry", customerBody); err != nil {
		log.Printf("failed to enqueue customer mail for booking %d: %v", booking.ID, err)
	}

	providerUser, err := repository.GetGlobalFactory().GetUserRepository().GetByID(provider.UserID)
	if err != nil {
		log.Printf("failed to load provider user for booking %d: %v", booking.ID, err)
		return
	}
	providerBody := fmt.Sprintf(
		"<p>Hello %s,</p><p>you received a new inquiry from %s (%s). Log in to respond.</p>",
		providerUser.Name, booking.CustomerName, booking.ServiceType)
	if _, err := jobqueue.EnqueueBookingEmail(booking.ID, providerUser.Email, "New inquiry on CareNest", providerBody); err != nil {
		log.Printf("failed to enqueue provider mail for booking %d: %v", booking.ID, err)
	}
}

// HandleBookingListForProvider lists inquiries for the logged-in provider
func HandleBookingListForProvider(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	offset, limit := parsePagination(c, 20, 100)

	bookings, err := repository.GetGlobalFactory().GetBookingRepository().GetByProviderID(userCtx.ProviderID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load bookings"})
	}

	return c.JSON(fiber.Map{"bookings": bookings, "offset": offset, "limit": limit})
}

// HandleBookingRespond lets the provider confirm or decline an inquiry
func HandleBookingRespond(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	bookingID, err := c.ParamsInt("id")
	if err != nil || bookingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid booking id"})
	}

	var status string
	switch c.Params("action") {
	case "confirm":
		status = models.BookingStatusConfirmed
	case "decline":
		status = models.BookingStatusDeclined
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown action"})
	}

	factory := repository.GetGlobalFactory()
	booking, err := factory.GetBookingRepository().GetByID(uint(bookingID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Booking not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load booking"})
	}
	if booking.ProviderID != userCtx.ProviderID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not your booking"})
	}
	if !booking.IsOpen() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Booking was already answered"})
	}

	if err := factory.GetBookingRepository().UpdateStatus(booking.ID, status); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update booking"})
	}

	go notifyBookingDecision(booking, status)

	return c.JSON(fiber.Map{"id": booking.ID, "status": status})
}

func notifyBookingDecision(booking *models.Booking, status string) {
	verdict := "confirmed"
	if status == models.BookingStatusDeclined {
		verdict = "declined"
	}
	body := fmt.Sprintf("<p>Hello %s,</p><p>your inquiry was %s.</p>", booking.CustomerName, verdict)
	if _, err := jobqueue.EnqueueBookingEmail(booking.ID, booking.CustomerEmail, "Update on your CareNest inquiry", body); err != nil {
		log.Printf("failed to enqueue decision mail for booking %d: %v", booking.ID, err)
	}
}
