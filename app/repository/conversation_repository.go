package repository

import (
	"github.com/carenest/CareNest/app/models"
	"gorm.io/gorm"
)

// conversationRepository implements the ConversationRepository interface
type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new conversation repository instance
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// CreateWithWelcome inserts the conversation row and its welcome message in
// one transaction. A duplicate-key error on the conversation insert aborts
// the whole unit; callers then re-fetch the row the concurrent winner
// committed. The winner's transaction always carries the welcome message, so
// losing callers never observe a welcome-less fresh conversation.
func (r *conversationRepository) CreateWithWelcome(conv *models.Conversation, welcome *models.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		welcome.ConversationID = conv.ID
		return tx.Create(welcome).Error
	})
}

// FindFirstByKey returns the oldest conversation for the key tuple. Multiple
// rows per key are a tolerated legacy anomaly; selection order is stable
// (creation order, id as tiebreak) so all callers pick the same row.
func (r *conversationRepository) FindFirstByKey(providerID uint, customerEmail string, bookingID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.Where("provider_id = ? AND customer_email = ? AND booking_id = ?",
		providerID, customerEmail, bookingID).
		Order("created_at ASC, id ASC").First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetByID retrieves a conversation by ID
func (r *conversationRepository) GetByID(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.First(&conv, id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListByCustomerEmail returns all conversations a customer participates in
func (r *conversationRepository) ListByCustomerEmail(email string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.Where("customer_email = ?", email).Order("updated_at DESC").Find(&convs).Error
	return convs, err
}

// ListByProviderID returns all conversations attached to a provider
func (r *conversationRepository) ListByProviderID(providerID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.Where("provider_id = ?", providerID).Order("updated_at DESC").Find(&convs).Error
	return convs, err
}

// AppendMessage inserts a message row
func (r *conversationRepository) AppendMessage(msg *models.Message) error {
	return r.db.Create(msg).Error
}

// GetMessages returns a conversation's messages in insertion order,
// optionally only those after a known message ID.
func (r *conversationRepository) GetMessages(conversationID uint, afterID uint) ([]models.Message, error) {
	query := r.db.Where("conversation_id = ?", conversationID)
	if afterID > 0 {
		query = query.Where("id > ?", afterID)
	}
	var messages []models.Message
	err := query.Order("id ASC").Find(&messages).Error
	return messages, err
}

// MarkMessagesRead flips is_read for the given ids, but only for messages the
// reader did not author. Ids outside that predicate are left untouched, which
// makes re-applying the same set a no-op.
func (r *conversationRepository) MarkMessagesRead(conversationID uint, messageIDs []uint, readerSenderType string) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	tx := r.db.Model(&models.Message{}).
		Where("conversation_id = ? AND id IN ? AND sender_type <> ? AND is_read = ?",
			conversationID, messageIDs, readerSenderType, false).
		Update("is_read", true)
	return tx.RowsAffected, tx.Error
}

// CountUnread counts messages addressed to the reader that are still unread
func (r *conversationRepository) CountUnread(conversationID uint, readerSenderType string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_type <> ? AND is_read = ?",
			conversationID, readerSenderType, false).
		Count(&count).Error
	return count, err
}

// SetStatus transitions a conversation's lifecycle status
func (r *conversationRepository) SetStatus(id uint, status string) error {
	res := r.db.Model(&models.Conversation{}).Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetMessageFlagged toggles the moderation flag on a single message
func (r *conversationRepository) SetMessageFlagged(messageID uint, flagged bool) error {
	res := r.db.Model(&models.Message{}).Where("id = ?", messageID).
		Update("is_flagged", flagged)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
