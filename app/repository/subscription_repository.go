package repository

import (
	"time"

	"github.com/carenest/CareNest/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetByProviderID retrieves the subscription record for a provider
func (r *subscriptionRepository) GetByProviderID(providerID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("provider_id = ?", providerID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByStripeSubscriptionID resolves a Stripe subscription id to the local record
func (r *subscriptionRepository) GetByStripeSubscriptionID(stripeSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Upsert creates or updates the per-provider subscription record
func (r *subscriptionRepository) Upsert(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan_id",
			"status",
			"stripe_customer_id",
			"stripe_subscription_id",
			"period_start",
			"period_end",
			"cancel_at_period_end",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("provider_id = ?", sub.ProviderID).First(sub).Error
}

// GetPlanByCode retrieves a plan by its internal code
func (r *subscriptionRepository) GetPlanByCode(code string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("code = ? AND is_active = ?", code, true).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetPlanByStripePriceID resolves a Stripe price object to the internal plan
func (r *subscriptionRepository) GetPlanByStripePriceID(priceID string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("stripe_price_id = ?", priceID).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListActivePlans returns all bookable plans
func (r *subscriptionRepository) ListActivePlans() ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Where("is_active = ?", true).Order("price_cents ASC").Find(&plans).Error
	return plans, err
}

// CreateWebhookEventIfNotExists inserts a webhook event unless the provider
// event id was seen before. Returns whether the row was newly created.
func (r *subscriptionRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider_event_id = ?", event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

// MarkWebhookProcessed marks an event as processed and stores an optional error
func (r *subscriptionRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

// ListWebhookEvents returns recorded webhook events, newest first
func (r *subscriptionRepository) ListWebhookEvents(offset, limit int) ([]models.BillingWebhookEvent, error) {
	var events []models.BillingWebhookEvent
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&events).Error
	return events, err
}
