package models

import "time"

const (
	SubscriptionStatusPending   = "pending"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusPastDue   = "past_due"
)

// Subscription mirrors the payment provider's subscription state for a single
// provider profile. Legacy convention: an active subscription whose period end
// lies more than 50 years out is a permanent ("grandfathered") grant; existing
// rows rely on this and it must not be migrated away.
type Subscription struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	ProviderID           uint       `gorm:"not null;uniqueIndex" json:"provider_id"`
	PlanID               *uint      `gorm:"index;default:null" json:"plan_id,omitempty"`
	Status               string     `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	StripeCustomerID     string     `gorm:"type:varchar(191);index" json:"-"`
	StripeSubscriptionID string     `gorm:"type:varchar(191);uniqueIndex" json:"-"`
	PeriodStart          *time.Time `gorm:"type:timestamp;default:null" json:"period_start,omitempty"`
	PeriodEnd            *time.Time `gorm:"type:timestamp;default:null" json:"period_end,omitempty"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Plan maps an internal plan to the payment provider's price object.
type Plan struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(100);not null" json:"name"`
	Code          string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	StripePriceID string    `gorm:"type:varchar(191);not null" json:"-"`
	PriceCents    int       `gorm:"not null;default:0" json:"price_cents"`
	Interval      string    `gorm:"type:varchar(16);not null;default:'month'" json:"interval"`
	IsActive      bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
