package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"dispatch-service/internal/model"
)

func TestAddPhotoLinksTicketWithoutStatusChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ticket := createDelivery(t, h, "JOB-400")
	advanceToArrived(t, h, ticket.ID)

	photo, err := h.photos.AddPhoto(ctx, driver, AddPhotoInput{
		TicketID:  ticket.ID,
		PhotoType: "delivery",
		URL:       "https://cdn.example.com/p1.jpg",
		Notes:     "stacked by garage",
	})
	require.NoError(t, err)
	require.Equal(t, ticket.ID, photo.TicketID)
	require.Equal(t, "JOB-400", photo.JobID)
	require.Equal(t, driver.Name, photo.UploadedBy)

	stored, err := h.tickets.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, model.TicketStatusArrived, stored.Status)
	require.Equal(t, []string{photo.ID}, stored.PhotoIDs)
}

func TestAddPhotoValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ticket := createDelivery(t, h, "JOB-401")

	_, err := h.photos.AddPhoto(ctx, driver, AddPhotoInput{TicketID: ticket.ID, PhotoType: "load"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = h.photos.AddPhoto(ctx, driver, AddPhotoInput{
		TicketID: ticket.ID, PhotoType: "selfie", URL: "https://cdn.example.com/x.jpg",
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = h.photos.AddPhoto(ctx, driver, AddPhotoInput{
		TicketID: "TKT-missing", PhotoType: "load", URL: "https://cdn.example.com/x.jpg",
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUploadQCPhotosBatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ticket := createDelivery(t, h, "JOB-402")

	photos, err := h.photos.UploadQCPhotos(ctx, dock, ticket.ID, []string{
		"https://cdn.example.com/qc1.jpg",
		"https://cdn.example.com/qc2.jpg",
	})
	require.NoError(t, err)
	require.Len(t, photos, 2)
	for _, p := range photos {
		require.Equal(t, model.PhotoTypeQC, p.PhotoType)
	}

	listed, err := h.photos.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	_, err = h.photos.UploadQCPhotos(ctx, dock, ticket.ID, nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCompletedDeliveryCarriesPhotosIntoJob(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ticket := createDelivery(t, h, "JOB-403")
	advanceToArrived(t, h, ticket.ID)

	photo, err := h.photos.AddPhoto(ctx, driver, AddPhotoInput{
		TicketID: ticket.ID, PhotoType: "delivery", URL: "https://cdn.example.com/p.jpg",
	})
	require.NoError(t, err)

	_, err = h.tickets.CompleteDelivery(ctx, driver, ticket.ID, "")
	require.NoError(t, err)

	job, err := h.ledger.GetJob(ctx, "JOB-403")
	require.NoError(t, err)
	require.Contains(t, job.PhotoIDs, photo.ID)
}
