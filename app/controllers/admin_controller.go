package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/carenest/CareNest/app/models"
	"github.com/carenest/CareNest/app/repository"
	"github.com/carenest/CareNest/internal/pkg/jobqueue"
	"github.com/carenest/CareNest/internal/pkg/messaging"
	"github.com/carenest/CareNest/internal/pkg/metrics/counter"
	"github.com/carenest/CareNest/internal/pkg/statistics"
)

// HandleAdminUserList lists accounts with optional search
func HandleAdminUserList(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetUserRepository()

	if query := c.Query("q"); query != "" {
		users, err := repo.Search(query)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Search failed"})
		}
		return c.JSON(fiber.Map{"users": users})
	}

	offset, limit := parsePagination(c, 50, 200)
	users, err := repo.List(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load users"})
	}
	total, err := repo.Count()
	if err != nil {
		total = 0
	}

	return c.JSON(fiber.Map{"users": users, "total": total, "offset": offset, "limit": limit})
}

// HandleAdminProviderQueue lists provider profiles awaiting verification
func HandleAdminProviderQueue(c *fiber.Ctx) error {
	offset, limit := parsePagination(c, 50, 200)

	providers, err := repository.GetGlobalFactory().GetProviderRepository().ListUnverified(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load providers"})
	}

	return c.JSON(fiber.Map{"providers": providers, "offset": offset, "limit": limit})
}

// HandleAdminProviderVerify marks or unmarks a provider as verified
func HandleAdminProviderVerify(c *fiber.Ctx) error {
	providerID, err := c.ParamsInt("id")
	if err != nil || providerID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid provider id"})
	}

	var req struct {
		Verified bool `json:"verified"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetProviderRepository()
	if err := repo.SetVerified(uint(providerID), req.Verified); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Provider not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update provider"})
	}

	return c.JSON(fiber.Map{"id": providerID, "verified": req.Verified})
}

// HandleAdminConversationClose closes a conversation for moderation
func HandleAdminConversationClose(c *fiber.Ctx) error {
	conversationID, err := c.ParamsInt("id")
	if err != nil || conversationID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid conversation id"})
	}

	if err := messaging.GetService().Close(c.Context(), uint(conversationID)); err != nil {
		if errors.Is(err, messaging.ErrConversationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Conversation not found"})
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "store_unavailable", "message": "Failed to close conversation"})
	}

	return c.JSON(fiber.Map{"id": conversationID, "status": models.ConversationStatusClosed})
}

// HandleAdminMessageFlag flags or unflags a message
func HandleAdminMessageFlag(c *fiber.Ctx) error {
	messageID, err := c.ParamsInt("id")
	if err != nil || messageID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid message id"})
	}

	var req struct {
		Flagged bool `json:"flagged"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetConversationRepository()
	if err := repo.SetMessageFlagged(uint(messageID), req.Flagged); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Message not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update message"})
	}

	return c.JSON(fiber.Map{"id": messageID, "flagged": req.Flagged})
}

// HandleAdminWebhookEvents lists recorded billing webhook deliveries
func HandleAdminWebhookEvents(c *fiber.Ctx) error {
	offset, limit := parsePagination(c, 50, 200)

	events, err := repository.GetGlobalFactory().GetSubscriptionRepository().ListWebhookEvents(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load webhook events"})
	}

	return c.JSON(fiber.Map{"events": events, "offset": offset, "limit": limit})
}

// HandleAdminQueueStats returns background queue statistics
func HandleAdminQueueStats(c *fiber.Ctx) error {
	queue := jobqueue.GetManager().GetQueue()

	stats, err := queue.GetJobStats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load queue stats"})
	}
	pending, err := queue.GetQueueSize(c.Context())
	if err != nil {
		pending = -1
	}
	processing, err := queue.GetProcessingSize(c.Context())
	if err != nil {
		processing = -1
	}

	return c.JSON(fiber.Map{
		"stats":      stats,
		"pending":    pending,
		"processing": processing,
	})
}

// HandleAdminFlushCounters flushes pending profile view counters and
// refreshes the cached statistics
func HandleAdminFlushCounters(c *fiber.Ctx) error {
	if err := counter.FlushAll(); err != nil {
		log.Printf("failed to flush view counters: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to flush counters"})
	}

	statistics.ResetCacheUpdateTimer()
	go statistics.UpdateCacheIfNeeded()

	return c.JSON(fiber.Map{"message": "Counters flushed"})
}
