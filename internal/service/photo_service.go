package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dispatch-service/internal/model"
	"dispatch-service/internal/repository"
	"dispatch-service/internal/rowstore"
)

// PhotoService is the write-only attachment mechanism. Photos never change a
// ticket's status; removal is an administrative function outside this service.
type PhotoService struct {
	photoRepo  *repository.PhotoRepository
	ticketRepo *repository.TicketRepository
	jobRepo    *repository.JobRepository
	log        zerolog.Logger
}

func NewPhotoService(
	photoRepo *repository.PhotoRepository,
	ticketRepo *repository.TicketRepository,
	jobRepo *repository.JobRepository,
	log zerolog.Logger,
) *PhotoService {
	return &PhotoService{
		photoRepo:  photoRepo,
		ticketRepo: ticketRepo,
		jobRepo:    jobRepo,
		log:        log,
	}
}

type AddPhotoInput struct {
	TicketID  string
	PhotoType string
	URL       string
	Notes     string
}

func (s *PhotoService) AddPhoto(ctx context.Context, principal model.Principal, input AddPhotoInput) (*model.Photo, error) {
	if input.TicketID == "" {
		return nil, fmt.Errorf("%w: ticket_id is required", ErrValidation)
	}
	if input.URL == "" {
		return nil, fmt.Errorf("%w: url is required", ErrValidation)
	}
	photoType, ok := parsePhotoType(input.PhotoType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown photo type %q", ErrValidation, input.PhotoType)
	}

	ticket, err := s.ticketRepo.GetByID(ctx, input.TicketID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	photo := &model.Photo{
		ID:         model.NewPhotoID(),
		TicketID:   ticket.ID,
		JobID:      ticket.JobID,
		PhotoType:  photoType,
		URL:        input.URL,
		UploadedBy: principal.Name,
		Notes:      input.Notes,
		CapturedAt: time.Now().UTC(),
	}
	if err := s.photoRepo.Create(ctx, photo); err != nil {
		return nil, err
	}

	// Linkage bookkeeping on the ticket row. Status is deliberately left
	// alone, whatever state the ticket is in.
	_, err = s.ticketRepo.Mutate(ctx, ticket.ID, func(t *model.Ticket) error {
		t.PhotoIDs = append(t.PhotoIDs, photo.ID)
		t.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}

	// Job linkage is best-effort: the job row may not exist until the first
	// ledger touch.
	if ticket.JobID != "" {
		_, err = s.jobRepo.Mutate(ctx, ticket.JobID, func(j *model.Job) error {
			j.AddPhotoID(photo.ID)
			return nil
		})
		if err != nil && !errors.Is(err, rowstore.ErrRowNotFound) {
			s.log.Warn().Err(err).Str("job_id", ticket.JobID).Str("photo_id", photo.ID).
				Msg("could not link photo to job")
		}
	}

	return photo, nil
}

// UploadQCPhotos attaches a batch of quality-control photos in one call.
func (s *PhotoService) UploadQCPhotos(ctx context.Context, principal model.Principal, ticketID string, urls []string) ([]model.Photo, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: at least one photo url is required", ErrValidation)
	}

	photos := make([]model.Photo, 0, len(urls))
	for _, url := range urls {
		photo, err := s.AddPhoto(ctx, principal, AddPhotoInput{
			TicketID:  ticketID,
			PhotoType: string(model.PhotoTypeQC),
			URL:       url,
		})
		if err != nil {
			return nil, err
		}
		photos = append(photos, *photo)
	}
	return photos, nil
}

func (s *PhotoService) ListByTicket(ctx context.Context, ticketID string) ([]model.Photo, error) {
	if _, err := s.ticketRepo.GetByID(ctx, ticketID); err != nil {
		return nil, mapRepoErr(err)
	}
	return s.photoRepo.ListByTicket(ctx, ticketID)
}

func parsePhotoType(raw string) (model.PhotoType, bool) {
	switch model.PhotoType(raw) {
	case model.PhotoTypeLoad:
		return model.PhotoTypeLoad, true
	case model.PhotoTypeDelivery:
		return model.PhotoTypeDelivery, true
	case model.PhotoTypeQC:
		return model.PhotoTypeQC, true
	case model.PhotoTypeDamage:
		return model.PhotoTypeDamage, true
	case model.PhotoTypeSignature:
		return model.PhotoTypeSignature, true
	}
	return "", false
}
