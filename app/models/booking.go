package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusDeclined  = "declined"
	BookingStatusCancelled = "cancelled"
)

// Booking is a care inquiry from a customer to a provider. Customers do not
// need an account; the contact email identifies them.
type Booking struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ProviderID    uint           `gorm:"not null;index" json:"provider_id"`
	CustomerName  string         `gorm:"type:varchar(150);not null" json:"customer_name" validate:"required,min=2,max=150"`
	CustomerEmail string         `gorm:"type:varchar(200);not null;index" json:"customer_email" validate:"required,email,max=200"`
	CustomerPhone string         `gorm:"type:varchar(50)" json:"customer_phone" validate:"max=50"`
	ServiceType   string         `gorm:"type:varchar(50);not null" json:"service_type" validate:"required,max=50"`
	StartDate     *time.Time     `gorm:"type:timestamp;default:null" json:"start_date,omitempty"`
	Notes         string         `gorm:"type:text" json:"notes" validate:"max=5000"`
	Status        string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RespondedAt   *time.Time     `gorm:"type:timestamp;default:null" json:"responded_at,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Booking) Validate() error {
	v := validator.New()

	return v.Struct(b)
}

// IsOpen reports whether the booking still awaits a provider response.
func (b *Booking) IsOpen() bool {
	return b.Status == BookingStatusPending
}
