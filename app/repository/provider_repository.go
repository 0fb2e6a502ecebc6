package repository

import (
	"strings"
	"time"

	"github.com/carenest/CareNest/app/models"
	"gorm.io/gorm"
)

// providerRepository implements the ProviderRepository interface
type providerRepository struct {
	db *gorm.DB
}

// NewProviderRepository creates a new provider repository instance
func NewProviderRepository(db *gorm.DB) ProviderRepository {
	return &providerRepository{db: db}
}

// Create creates a new provider profile in the database
func (r *providerRepository) Create(provider *models.Provider) error {
	return r.db.Create(provider).Error
}

// GetByID retrieves a provider by ID including its subscription
func (r *providerRepository) GetByID(id uint) (*models.Provider, error) {
	var provider models.Provider
	err := r.db.Preload("Subscription").First(&provider, id).Error
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

// GetBySlug retrieves a provider by its public slug
func (r *providerRepository) GetBySlug(slug string) (*models.Provider, error) {
	var provider models.Provider
	err := r.db.Preload("Subscription").Where("slug = ?", slug).First(&provider).Error
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

// GetByUserID retrieves the provider profile owned by the given user
func (r *providerRepository) GetByUserID(userID uint) (*models.Provider, error) {
	var provider models.Provider
	err := r.db.Preload("Subscription").Where("user_id = ?", userID).First(&provider).Error
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

// Update updates an existing provider profile
func (r *providerRepository) Update(provider *models.Provider) error {
	return r.db.Save(provider).Error
}

// Delete soft deletes a provider by ID
func (r *providerRepository) Delete(id uint) error {
	return r.db.Delete(&models.Provider{}, id).Error
}

// List returns a filtered, paginated directory page plus the total match count
func (r *providerRepository) List(filter ProviderFilter) ([]models.Provider, int64, error) {
	query := r.db.Model(&models.Provider{}).Where("is_published = ?", true)

	if filter.VerifiedOnly {
		query = query.Where("is_verified = ?", true)
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		query = query.Where("city = ?", city)
	}
	if service := strings.TrimSpace(filter.Service); service != "" {
		query = query.Where("services LIKE ?", "%"+service+"%")
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + q + "%"
		query = query.Where("display_name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var providers []models.Provider
	err := query.Order("is_verified DESC, display_name ASC").
		Offset(filter.Offset).Limit(limit).Find(&providers).Error
	return providers, total, err
}

// ListUnverified returns providers awaiting moderation
func (r *providerRepository) ListUnverified(offset, limit int) ([]models.Provider, error) {
	var providers []models.Provider
	err := r.db.Where("is_verified = ?", false).
		Order("created_at ASC").Offset(offset).Limit(limit).Find(&providers).Error
	return providers, err
}

// ListGeocoded returns all published providers with coordinates for map display
func (r *providerRepository) ListGeocoded() ([]models.Provider, error) {
	var providers []models.Provider
	err := r.db.Where("is_published = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", true).
		Find(&providers).Error
	return providers, err
}

// SetVerified toggles the moderation flag for a provider
func (r *providerRepository) SetVerified(id uint, verified bool) error {
	updates := map[string]interface{}{"is_verified": verified}
	if verified {
		now := time.Now()
		updates["verified_at"] = &now
	} else {
		updates["verified_at"] = nil
	}
	return r.db.Model(&models.Provider{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateLocation stores geocoding results for a provider
func (r *providerRepository) UpdateLocation(id uint, lat, lng float64) error {
	now := time.Now()
	return r.db.Model(&models.Provider{}).Where("id = ?", id).Updates(map[string]interface{}{
		"latitude":    lat,
		"longitude":   lng,
		"geocoded_at": &now,
	}).Error
}

// SlugExists checks whether a provider slug is already taken
func (r *providerRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Provider{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}
