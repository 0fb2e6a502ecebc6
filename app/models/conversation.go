package models

import "time"

const (
	ConversationStatusActive = "active"
	ConversationStatusClosed = "closed"
)

const (
	SenderTypeSupport  = "support"
	SenderTypeCustomer = "customer"
)

// SupportSenderID authors the system welcome message created with every
// fresh conversation.
const SupportSenderID = "care-team"

// Conversation is a message thread between a customer and the care team,
// keyed by (provider_id, customer_email, booking_id). BookingID is 0 for
// conversations not tied to a booking so the composite unique index holds
// (a nullable column would allow duplicate NULL rows on MySQL).
type Conversation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProviderID    uint      `gorm:"not null;uniqueIndex:ux_conversations_key,priority:1" json:"provider_id"`
	CustomerEmail string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_conversations_key,priority:2" json:"customer_email"`
	BookingID     uint      `gorm:"not null;default:0;uniqueIndex:ux_conversations_key,priority:3" json:"booking_id,omitempty"`
	Status        string    `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Messages      []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsClosed reports whether the conversation no longer accepts messages.
func (c *Conversation) IsClosed() bool {
	return c.Status == ConversationStatusClosed
}

// Message belongs to exactly one conversation. Rows are immutable after
// insert except for IsRead (false -> true) and the moderation flag.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index:idx_messages_conversation_created,priority:1" json:"conversation_id"`
	SenderType     string    `gorm:"type:varchar(20);not null" json:"sender_type"`
	SenderID       string    `gorm:"type:varchar(200);not null" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	IsRead         bool      `gorm:"not null;default:false" json:"is_read"`
	IsFlagged      bool      `gorm:"not null;default:false" json:"is_flagged"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_messages_conversation_created,priority:2" json:"created_at"`
}

// IsValidSenderType reports whether t is a known message author type.
func IsValidSenderType(t string) bool {
	return t == SenderTypeSupport || t == SenderTypeCustomer
}
