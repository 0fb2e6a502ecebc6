package repository

import (
	"github.com/carenest/CareNest/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
}

// ProviderFilter narrows directory listings.
type ProviderFilter struct {
	City         string
	Service      string
	Query        string
	VerifiedOnly bool
	Offset       int
	Limit        int
}

// ProviderRepository defines the interface for provider directory operations
type ProviderRepository interface {
	Create(provider *models.Provider) error
	GetByID(id uint) (*models.Provider, error)
	GetBySlug(slug string) (*models.Provider, error)
	GetByUserID(userID uint) (*models.Provider, error)
	Update(provider *models.Provider) error
	Delete(id uint) error
	List(filter ProviderFilter) ([]models.Provider, int64, error)
	ListUnverified(offset, limit int) ([]models.Provider, error)
	ListGeocoded() ([]models.Provider, error)
	SetVerified(id uint, verified bool) error
	UpdateLocation(id uint, lat, lng float64) error
	SlugExists(slug string) (bool, error)
}

// BookingRepository defines the interface for booking/inquiry operations
type BookingRepository interface {
	Create(booking *models.Booking) error
	GetByID(id uint) (*models.Booking, error)
	GetByProviderID(providerID uint, offset, limit int) ([]models.Booking, error)
	GetByCustomerEmail(email string) ([]models.Booking, error)
	UpdateStatus(id uint, status string) error
	Count() (int64, error)
}

// ConversationRepository defines the store operations the messaging
// synchronizer depends on. CreateWithWelcome persists the conversation row
// and its welcome message as one transaction so a failed welcome insert
// never leaves a half-created conversation behind.
type ConversationRepository interface {
	CreateWithWelcome(conv *models.Conversation, welcome *models.Message) error
	FindFirstByKey(providerID uint, customerEmail string, bookingID uint) (*models.Conversation, error)
	GetByID(id uint) (*models.Conversation, error)
	ListByCustomerEmail(email string) ([]models.Conversation, error)
	ListByProviderID(providerID uint) ([]models.Conversation, error)
	AppendMessage(msg *models.Message) error
	GetMessages(conversationID uint, afterID uint) ([]models.Message, error)
	MarkMessagesRead(conversationID uint, messageIDs []uint, readerSenderType string) (int64, error)
	CountUnread(conversationID uint, readerSenderType string) (int64, error)
	SetStatus(id uint, status string) error
	SetMessageFlagged(messageID uint, flagged bool) error
}

// SubscriptionRepository defines subscription and billing-plan operations
type SubscriptionRepository interface {
	GetByProviderID(providerID uint) (*models.Subscription, error)
	GetByStripeSubscriptionID(stripeSubscriptionID string) (*models.Subscription, error)
	Upsert(sub *models.Subscription) error
	GetPlanByCode(code string) (*models.Plan, error)
	GetPlanByStripePriceID(priceID string) (*models.Plan, error)
	ListActivePlans() ([]models.Plan, error)
	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
	ListWebhookEvents(offset, limit int) ([]models.BillingWebhookEvent, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Provider     ProviderRepository
	Booking      BookingRepository
	Conversation ConversationRepository
	Subscription SubscriptionRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Provider:     NewProviderRepository(db),
		Booking:      NewBookingRepository(db),
		Conversation: NewConversationRepository(db),
		Subscription: NewSubscriptionRepository(db),
	}
}
