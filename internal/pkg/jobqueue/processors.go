package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/carenest/CareNest/app/repository"
	"github.com/carenest/CareNest/internal/pkg/geocode"
	"github.com/carenest/CareNest/internal/pkg/mail"
)

// processGeocodeProviderJob resolves a provider's address and stores the
// coordinates for map display.
func (q *Queue) processGeocodeProviderJob(ctx context.Context, job *Job) error {
	var payload GeocodeProviderPayload
	if err := decodePayload(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid geocode payload: %w", err)
	}
	if payload.ProviderID == 0 || payload.Address == "" {
		return fmt.Errorf("geocode payload requires provider_id and address")
	}

	loc, err := geocode.NewClient().Geocode(ctx, payload.Address)
	if err != nil {
		return err
	}

	repo := repository.GetGlobalRepositories().Provider
	if err := repo.UpdateLocation(payload.ProviderID, loc.Latitude, loc.Longitude); err != nil {
		return fmt.Errorf("failed to store coordinates for provider %d: %w", payload.ProviderID, err)
	}

	log.Infof("[JobQueue] Geocoded provider %d to (%f, %f)", payload.ProviderID, loc.Latitude, loc.Longitude)
	return nil
}

// processBookingEmailJob sends a booking notification mail.
func (q *Queue) processBookingEmailJob(_ context.Context, job *Job) error {
	var payload BookingEmailPayload
	if err := decodePayload(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid booking email payload: %w", err)
	}
	if payload.Recipient == "" {
		return fmt.Errorf("booking email payload requires a recipient")
	}

	return mail.SendMail(payload.Recipient, payload.Subject, payload.Body)
}
