package repository

import (
	"time"

	"github.com/carenest/CareNest/app/models"
	"gorm.io/gorm"
)

// bookingRepository implements the BookingRepository interface
type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new booking repository instance
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// Create creates a new booking inquiry
func (r *bookingRepository) Create(booking *models.Booking) error {
	return r.db.Create(booking).Error
}

// GetByID retrieves a booking by ID
func (r *bookingRepository) GetByID(id uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByProviderID returns a provider's bookings, newest first
func (r *bookingRepository) GetByProviderID(providerID uint, offset, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Where("provider_id = ?", providerID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&bookings).Error
	return bookings, err
}

// GetByCustomerEmail returns all bookings submitted by a customer
func (r *bookingRepository) GetByCustomerEmail(email string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Where("customer_email = ?", email).Order("created_at DESC").Find(&bookings).Error
	return bookings, err
}

// UpdateStatus transitions a booking and stamps the provider response time
func (r *bookingRepository) UpdateStatus(id uint, status string) error {
	now := time.Now()
	return r.db.Model(&models.Booking{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       status,
		"responded_at": &now,
	}).Error
}

// Count returns the total number of bookings
func (r *bookingRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Booking{}).Count(&count).Error
	return count, err
}
