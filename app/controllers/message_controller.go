package controllers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/carenest/CareNest/app/models"
	"github.com/carenest/CareNest/app/repository"
	"github.com/carenest/CareNest/internal/pkg/hcaptcha"
	"github.com/carenest/CareNest/internal/pkg/messaging"
	"github.com/carenest/CareNest/internal/pkg/security"
	"github.com/carenest/CareNest/internal/pkg/usercontext"
)

type conversationStartRequest struct {
	ProviderSlug  string `json:"provider_slug"`
	CustomerEmail string `json:"customer_email"`
	BookingID     uint   `json:"booking_id"`
	Captcha       string `json:"h-captcha-response"`
}

type messageSendRequest struct {
	Content string `json:"content"`
}

type markReadRequest struct {
	MessageIDs []uint `json:"message_ids"`
}

// HandleConversationStart opens (or finds) the conversation between a
// customer and a provider. Calling it twice with the same key returns
// the same conversation.
func HandleConversationStart(c *fiber.Ctx) error {
	var req conversationStartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	valid, err := hcaptcha.Verify(req.Captcha)
	if err != nil || !valid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "captcha_failed", "message": "Captcha validation failed. Please try again."})
	}

	provider, err := repository.GetGlobalFactory().GetProviderRepository().GetBySlug(req.ProviderSlug)
	if err != nil || !provider.IsPublished {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Provider not found"})
	}

	conversation, err := messaging.GetService().Initialize(c.Context(), provider.ID, req.CustomerEmail, req.BookingID)
	if err != nil {
		if errors.Is(err, messaging.ErrInvalidInput) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "store_unavailable", "message": "Conversation could not be opened"})
	}

	token, err := security.GenerateConversationToken(conversation.ID, conversation.CustomerEmail, conversationTokenTTL, conversationTokenSecret())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to issue access token"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"conversation":       conversation,
		"conversation_token": token,
	})
}

// conversationParty is the resolved role of the caller in a conversation
type conversationParty struct {
	conversation *models.Conversation
	senderType   string
	senderID     string
}

// resolveConversationParty checks that the caller may access the
// conversation, either through a provider/admin session or through a
// customer access token.
func resolveConversationParty(c *fiber.Ctx, conversationID uint) (*conversationParty, error) {
	conversation, err := repository.GetGlobalFactory().GetConversationRepository().GetByID(conversationID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Conversation not found")
	}

	userCtx := usercontext.GetUserContext(c)
	if userCtx.IsLoggedIn && (userCtx.ProviderID == conversation.ProviderID || userCtx.IsAdmin) {
		return &conversationParty{
			conversation: conversation,
			senderType:   models.SenderTypeSupport,
			senderID:     fmt.Sprintf("provider:%d", conversation.ProviderID),
		}, nil
	}

	token := c.Query("token")
	if token == "" {
		token = c.Get("X-Conversation-Token")
	}
	if token != "" {
		claims, terr := security.VerifyConversationToken(token, conversationTokenSecret())
		if terr == nil && claims.ConversationID == conversation.ID && claims.CustomerEmail == conversation.CustomerEmail {
			return &conversationParty{
				conversation: conversation,
				senderType:   models.SenderTypeCustomer,
				senderID:     conversation.CustomerEmail,
			}, nil
		}
	}

	return nil, fiber.NewError(fiber.StatusForbidden, "No access to this conversation")
}

func conversationIDParam(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid conversation id")
	}
	return uint(id), nil
}

// HandleConversationListForProvider lists the provider's conversations
// with unread counts
func HandleConversationListForProvider(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetConversationRepository()
	conversations, err := repo.ListByProviderID(userCtx.ProviderID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load conversations"})
	}

	result := make([]fiber.Map, 0, len(conversations))
	for _, conv := range conversations {
		unread, cerr := repo.CountUnread(conv.ID, models.SenderTypeSupport)
		if cerr != nil {
			unread = 0
		}
		result = append(result, fiber.Map{
			"conversation": conv,
			"unread":       unread,
		})
	}

	return c.JSON(fiber.Map{"conversations": result})
}

// HandleConversationMessages returns the message history
func HandleConversationMessages(c *fiber.Ctx) error {
	conversationID, err := conversationIDParam(c)
	if err != nil {
		return err
	}
	party, err := resolveConversationParty(c, conversationID)
	if err != nil {
		return err
	}

	afterID, _ := strconv.Atoi(c.Query("after_id", "0"))
	messages, err := messaging.GetService().History(c.Context(), conversationID, uint(afterID))
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "store_unavailable", "message": "Failed to load messages"})
	}

	return c.JSON(fiber.Map{
		"conversation": party.conversation,
		"messages":     messages,
	})
}

// HandleMessageSend appends a message to the conversation
func HandleMessageSend(c *fiber.Ctx) error {
	conversationID, err := conversationIDParam(c)
	if err != nil {
		return err
	}
	party, err := resolveConversationParty(c, conversationID)
	if err != nil {
		return err
	}

	var req messageSendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	message, err := messaging.GetService().Send(c.Context(), conversationID, party.senderType, party.senderID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, messaging.ErrInvalidInput):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "Message content must not be empty"})
		case errors.Is(err, messaging.ErrConversationClosed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conversation_closed", "message": "This conversation is closed"})
		case errors.Is(err, messaging.ErrConversationNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Conversation not found"})
		default:
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "store_unavailable", "message": "Message could not be stored"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}

// HandleMarkRead marks the given messages as read. Messages written by
// the reader's own side are left untouched.
func HandleMarkRead(c *fiber.Ctx) error {
	conversationID, err := conversationIDParam(c)
	if err != nil {
		return err
	}
	party, err := resolveConversationParty(c, conversationID)
	if err != nil {
		return err
	}

	var req markReadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	updated, err := messaging.GetService().MarkRead(c.Context(), conversationID, req.MessageIDs, party.senderType)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "store_unavailable", "message": "Failed to mark messages read"})
	}

	return c.JSON(fiber.Map{"updated": updated})
}

// HandleConversationStream delivers new messages over server-sent events.
// Every subscriber receives every message in order; closing the stream
// only detaches this subscriber.
func HandleConversationStream(c *fiber.Ctx) error {
	conversationID, err := conversationIDParam(c)
	if err != nil {
		return err
	}
	if _, err := resolveConversationParty(c, conversationID); err != nil {
		return err
	}

	sub := messaging.GetService().Subscribe(conversationID)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Unsubscribe()

		heartbeat := time.NewTicker(25 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case msg, ok := <-sub.C:
				if !ok {
					return
				}
				payload, merr := json.Marshal(msg)
				if merr != nil {
					log.Printf("failed to encode stream message %d: %v", msg.ID, merr)
					continue
				}
				fmt.Fprintf(w, "event: message\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					// Client went away
					return
				}
			case <-heartbeat.C:
				fmt.Fprint(w, ": ping\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}
