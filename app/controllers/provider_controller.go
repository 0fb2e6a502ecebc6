package controllers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/carenest/CareNest/app/models"
	"github.com/carenest/CareNest/app/repository"
	"github.com/carenest/CareNest/internal/pkg/jobqueue"
	"github.com/carenest/CareNest/internal/pkg/metrics/counter"
	"github.com/carenest/CareNest/internal/pkg/slug"
	"github.com/carenest/CareNest/internal/pkg/storage"
	"github.com/carenest/CareNest/internal/pkg/upload"
	"github.com/carenest/CareNest/internal/pkg/usercontext"
)

type providerRequest struct {
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Services    string `json:"services"`
	Street      string `json:"street"`
	PostalCode  string `json:"postal_code"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Capacity    int    `json:"capacity"`
}

// HandleProviderList returns the public provider directory with filters
func HandleProviderList(c *fiber.Ctx) error {
	offset, limit := parsePagination(c, 20, 100)
	filter := repository.ProviderFilter{
		City:         strings.TrimSpace(c.Query("city")),
		Service:      strings.TrimSpace(c.Query("service")),
		Query:        strings.TrimSpace(c.Query("q")),
		VerifiedOnly: c.QueryBool("verified"),
		Offset:       offset,
		Limit:        limit,
	}

	providers, total, err := repository.GetGlobalFactory().GetProviderRepository().List(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load providers"})
	}

	return c.JSON(fiber.Map{
		"providers": providers,
		"total":     total,
		"offset":    offset,
		"limit":     limit,
	})
}

// HandleProviderDetail returns a single published provider profile
func HandleProviderDetail(c *fiber.Ctx) error {
	providerSlug := c.Params("slug")

	provider, err := repository.GetGlobalFactory().GetProviderRepository().GetBySlug(providerSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Provider not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load provider"})
	}

	userCtx := usercontext.GetUserContext(c)
	if !provider.IsPublished && provider.ID != userCtx.ProviderID && !userCtx.IsAdmin {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Provider not found"})
	}

	// Pending view counts are flushed to the database in batches
	if err := counter.AddProviderView(provider.ID); err != nil {
		log.Printf("failed to count view for provider %d: %v", provider.ID, err)
	}

	return c.JSON(provider)
}

// HandleProviderMap returns map pins for all geocoded published providers
func HandleProviderMap(c *fiber.Ctx) error {
	providers, err := repository.GetGlobalFactory().GetProviderRepository().ListGeocoded()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load map data"})
	}

	pins := make([]fiber.Map, 0, len(providers))
	for _, p := range providers {
		pins = append(pins, fiber.Map{
			"slug":         p.Slug,
			"display_name": p.DisplayName,
			"city":         p.City,
			"services":     p.Services,
			"is_verified":  p.IsVerified,
			"latitude":     p.Latitude,
			"longitude":    p.Longitude,
		})
	}

	return c.JSON(fiber.Map{"pins": pins})
}

// HandleProviderCreate creates the provider profile for the logged-in user
func HandleProviderCreate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req providerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	factory := repository.GetGlobalFactory()
	if _, err := factory.GetProviderRepository().GetByUserID(userCtx.UserID); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Provider profile already exists"})
	}

	profileSlug, err := slug.ForName(req.DisplayName)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to generate profile address"})
	}

	provider := &models.Provider{
		UserID:      userCtx.UserID,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Slug:        profileSlug,
		Description: req.Description,
		Services:    req.Services,
		Street:      req.Street,
		PostalCode:  req.PostalCode,
		City:        req.City,
		Country:     req.Country,
		Capacity:    req.Capacity,
	}
	if err := provider.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := factory.GetProviderRepository().Create(provider); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create provider profile"})
	}

	// Promote the account so the context middleware picks up the profile
	if user, uerr := factory.GetUserRepository().GetByID(userCtx.UserID); uerr == nil && user.Role == models.ROLE_USER {
		user.Role = models.ROLE_PROVIDER
		if uerr := factory.GetUserRepository().Update(user); uerr != nil {
			log.Printf("failed to promote user %d to provider: %v", user.ID, uerr)
		}
	}

	enqueueGeocode(provider)

	return c.Status(fiber.StatusCreated).JSON(provider)
}

// HandleProviderUpdate updates the logged-in provider's own profile
func HandleProviderUpdate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	factory := repository.GetGlobalFactory()
	provider, err := factory.GetProviderRepository().GetByID(userCtx.ProviderID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Provider profile not found"})
	}

	var req providerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	addressChanged := req.Street != provider.Street ||
		req.PostalCode != provider.PostalCode ||
		req.City != provider.City ||
		req.Country != provider.Country

	provider.DisplayName = strings.TrimSpace(req.DisplayName)
	provider.Description = req.Description
	provider.Services = req.Services
	provider.Street = req.Street
	provider.PostalCode = req.PostalCode
	provider.City = req.City
	provider.Country = req.Country
	provider.Capacity = req.Capacity

	if addressChanged {
		provider.Latitude = nil
		provider.Longitude = nil
		provider.GeocodedAt = nil
	}

	if err := provider.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := factory.GetProviderRepository().Update(provider); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update provider profile"})
	}

	if addressChanged {
		enqueueGeocode(provider)
	}

	return c.JSON(provider)
}

func enqueueGeocode(provider *models.Provider) {
	address := provider.FullAddress()
	if strings.TrimSpace(address) == "" {
		return
	}
	if _, err := jobqueue.EnqueueGeocodeProvider(provider.ID, address); err != nil {
		log.Printf("failed to enqueue geocoding for provider %d: %v", provider.ID, err)
	}
}

// HandleProviderPhotoUpload stores a new profile photo for the provider
func HandleProviderPhotoUpload(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Missing photo file"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unreadable photo file"})
	}
	defer file.Close()

	head := make([]byte, 512)
	n, _ := file.Read(head)
	if _, err := upload.ValidatePhotoBySniff(fileHeader.Filename, head[:n]); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	if _, err := file.Seek(0, 0); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to read photo"})
	}

	client, err := storage.GetClient()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "storage_unavailable", "message": "Photo storage is not available"})
	}

	result, err := client.StorePhoto(c.Context(), userCtx.ProviderID, file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": fmt.Sprintf("Failed to store photo: %v", err)})
	}

	factory := repository.GetGlobalFactory()
	provider, err := factory.GetProviderRepository().GetByID(userCtx.ProviderID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Provider profile not found"})
	}
	provider.PhotoURL = result.URL
	if err := factory.GetProviderRepository().Update(provider); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to save photo"})
	}

	return c.JSON(fiber.Map{
		"photo_url": result.URL,
		"thumb_url": result.ThumbURL,
	})
}

// HandleProviderPublish makes the profile visible in the directory.
// The route is gated by the subscription middleware.
func HandleProviderPublish(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	factory := repository.GetGlobalFactory()
	provider, err := factory.GetProviderRepository().GetByID(userCtx.ProviderID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Provider profile not found"})
	}

	provider.IsPublished = true
	if err := factory.GetProviderRepository().Update(provider); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to publish profile"})
	}

	return c.JSON(fiber.Map{"message": "Profile published", "provider": provider})
}

// HandleProviderUnpublish hides the profile from the directory
func HandleProviderUnpublish(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	factory := repository.GetGlobalFactory()
	provider, err := factory.GetProviderRepository().GetByID(userCtx.ProviderID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Provider profile not found"})
	}

	provider.IsPublished = false
	if err := factory.GetProviderRepository().Update(provider); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{"message": "Profile unpublished"})
}
