// Package messaging keeps customer/support conversations consistent across
// connected clients: one conversation per (provider, customer email,
// booking) key, ordered message delivery through a shared fan-out hub, and
// read receipts.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/carenest/CareNest/app/models"
	"github.com/carenest/CareNest/app/repository"
)

const defaultWelcomeText = "Hi! Thanks for reaching out — our care team will get back to you shortly."

// Service coordinates conversation state between the relational store and
// the live fan-out hub.
type Service struct {
	repo        repository.ConversationRepository
	hub         *Hub
	welcomeText string
}

// NewService creates a messaging service from an injected repository and hub.
func NewService(repo repository.ConversationRepository, hub *Hub) *Service {
	return &Service{
		repo:        repo,
		hub:         hub,
		welcomeText: defaultWelcomeText,
	}
}

// Initialize looks up or creates the single conversation for the key tuple.
// bookingID is 0 for conversations not tied to a booking. Safe to call
// repeatedly and concurrently: losing a creation race means adopting the
// winner's row, and the welcome message is written in the same transaction
// as the conversation so no caller can observe a half-created thread.
func (s *Service) Initialize(ctx context.Context, providerID uint, customerEmail string, bookingID uint) (*models.Conversation, error) {
	_ = ctx
	email := strings.ToLower(strings.TrimSpace(customerEmail))
	if providerID == 0 || email == "" {
		return nil, fmt.Errorf("%w: provider id and customer email are required", ErrInvalidInput)
	}

	conv, err := s.repo.FindFirstByKey(providerID, email, bookingID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	conv = &models.Conversation{
		ProviderID:    providerID,
		CustomerEmail: email,
		BookingID:     bookingID,
		Status:        models.ConversationStatusActive,
	}
	welcome := &models.Message{
		SenderType: models.SenderTypeSupport,
		SenderID:   models.SupportSenderID,
		Content:    s.welcomeText,
	}

	err = s.repo.CreateWithWelcome(conv, welcome)
	if err == nil {
		return conv, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Benign race: a concurrent Initialize won the insert. Adopt its row.
		conv, err = s.repo.FindFirstByKey(providerID, email, bookingID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return conv, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// Send appends one message to an active conversation and publishes it to
// live subscribers. The acceptance time is server-assigned.
func (s *Service) Send(ctx context.Context, conversationID uint, senderType, senderID, content string) (*models.Message, error) {
	if !models.IsValidSenderType(senderType) {
		return nil, fmt.Errorf("%w: unknown sender type %q", ErrInvalidInput, senderType)
	}
	body := strings.TrimSpace(content)
	if body == "" {
		return nil, fmt.Errorf("%w: message content is empty", ErrInvalidInput)
	}

	conv, err := s.repo.GetByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if conv.IsClosed() {
		return nil, ErrConversationClosed
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderType:     senderType,
		SenderID:       senderID,
		Content:        body,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.AppendMessage(msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := s.hub.Publish(ctx, *msg); err != nil {
		// The row is committed; subscribers will catch up on their next
		// history read. Surface nothing worse than a log line.
		log.Warnf("[Messaging] publish failed for message %d: %v", msg.ID, err)
	}
	return msg, nil
}

// History returns a conversation's messages in insertion order.
func (s *Service) History(ctx context.Context, conversationID uint, afterID uint) ([]models.Message, error) {
	_ = ctx
	msgs, err := s.repo.GetMessages(conversationID, afterID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return msgs, nil
}

// Subscribe attaches a live listener to the conversation's message stream.
func (s *Service) Subscribe(conversationID uint) *Subscription {
	return s.hub.Subscribe(conversationID)
}

// MarkRead flips is_read for the given ids where the reader is not the
// author. Own-message ids are silently ignored; repeating a set is a no-op.
// Returns how many rows actually changed.
func (s *Service) MarkRead(ctx context.Context, conversationID uint, messageIDs []uint, readerSenderType string) (int64, error) {
	_ = ctx
	if !models.IsValidSenderType(readerSenderType) {
		return 0, fmt.Errorf("%w: unknown reader type %q", ErrInvalidInput, readerSenderType)
	}
	n, err := s.repo.MarkMessagesRead(conversationID, messageIDs, readerSenderType)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n, nil
}

// Close transitions a conversation to closed. Sends are rejected afterwards.
func (s *Service) Close(ctx context.Context, conversationID uint) error {
	_ = ctx
	if err := s.repo.SetStatus(conversationID, models.ConversationStatusClosed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
