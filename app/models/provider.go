package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	ServiceHomeCare      = "home_care"
	ServiceDayCare       = "day_care"
	ServiceNursing       = "nursing"
	ServiceCompanionship = "companionship"
	ServiceHousekeeping  = "housekeeping"
)

// Provider is a care-service provider profile. A provider belongs to exactly
// one user account and owns at most one subscription record.
type Provider struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;uniqueIndex" json:"user_id"`
	DisplayName  string         `gorm:"type:varchar(150);not null" json:"display_name" validate:"required,min=3,max=150"`
	Slug         string         `gorm:"type:varchar(160);uniqueIndex;not null" json:"slug" validate:"required,max=160"`
	Description  string         `gorm:"type:text" json:"description" validate:"max=5000"`
	Services     string         `gorm:"type:varchar(255);index" json:"services"`
	Street       string         `gorm:"type:varchar(200)" json:"street" validate:"max=200"`
	PostalCode   string         `gorm:"type:varchar(20);index" json:"postal_code" validate:"max=20"`
	City         string         `gorm:"type:varchar(100);index" json:"city" validate:"max=100"`
	Country      string         `gorm:"type:varchar(2);default:'de'" json:"country"`
	Latitude     *float64       `gorm:"type:decimal(10,7);default:null" json:"latitude,omitempty"`
	Longitude    *float64       `gorm:"type:decimal(10,7);default:null" json:"longitude,omitempty"`
	GeocodedAt   *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	PhotoURL     string         `gorm:"type:varchar(255)" json:"photo_url"`
	Capacity     int            `gorm:"default:0" json:"capacity"`
	ViewCount    uint64         `gorm:"default:0" json:"view_count"`
	IsVerified   bool           `gorm:"default:false;index" json:"is_verified"`
	IsPublished  bool           `gorm:"default:false;index" json:"is_published"`
	VerifiedAt   *time.Time     `gorm:"type:timestamp;default:null" json:"verified_at,omitempty"`
	Subscription *Subscription  `gorm:"foreignKey:ProviderID" json:"subscription,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Provider) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// HasLocation reports whether the provider has been geocoded.
func (p *Provider) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// FullAddress assembles the postal address used for geocoding.
func (p *Provider) FullAddress() string {
	addr := p.Street
	if p.PostalCode != "" || p.City != "" {
		if addr != "" {
			addr += ", "
		}
		addr += p.PostalCode + " " + p.City
	}
	return addr
}
