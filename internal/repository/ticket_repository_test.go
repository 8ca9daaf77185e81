package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"dispatch-service/internal/model"
	"dispatch-service/internal/rowstore"
)

func seedTicket(t *testing.T, repo *TicketRepository, ticket model.Ticket) model.Ticket {
	t.Helper()
	if ticket.ID == "" {
		ticket.ID = model.NewTicketID()
	}
	if ticket.TicketType == "" {
		ticket.TicketType = model.TicketTypeDelivery
	}
	if ticket.Status == "" {
		ticket.Status = model.TicketStatusCreated
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}
	require.NoError(t, repo.Create(context.Background(), &ticket))
	return ticket
}

func TestTicketRoundTrip(t *testing.T) {
	repo := NewTicketRepository(rowstore.NewMemory())
	ctx := context.Background()

	now := time.Now().UTC()
	arrived := now.Add(2 * time.Hour)
	ticket := model.Ticket{
		ID:         "TKT-rt",
		TicketType: model.TicketTypeDelivery,
		Status:     model.TicketStatusArrived,
		CreatedBy:  "Dana Reyes",
		DriverID:   "drv-1",
		JobID:      "JOB-1",
		JobName:    "Maple St re-roof",
		Materials: []model.MaterialItem{
			{ProductID: "SHINGLE-ARCH", ProductName: "Architectural shingles", Quantity: 10, UnitCost: 12, UnitCharge: 20},
		},
		PhotoIDs:   []string{"PH-1", "PH-2"},
		ArrivedGPS: &model.GPSLocation{Latitude: 39.0997, Longitude: -94.5786, CapturedAt: arrived},
		ArrivedAt:  &arrived,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repo.Create(ctx, &ticket))

	got, err := repo.GetByID(ctx, "TKT-rt")
	require.NoError(t, err)
	require.Equal(t, ticket.Status, got.Status)
	require.Equal(t, ticket.Materials, got.Materials)
	require.Equal(t, ticket.PhotoIDs, got.PhotoIDs)
	require.Equal(t, ticket.ArrivedGPS.Latitude, got.ArrivedGPS.Latitude)
	require.True(t, ticket.CreatedAt.Equal(got.CreatedAt))
	require.NotNil(t, got.ArrivedAt)
	require.True(t, arrived.Equal(*got.ArrivedAt))

	_, err = repo.GetByID(ctx, "TKT-missing")
	require.ErrorIs(t, err, rowstore.ErrRowNotFound)
}

func TestTicketMutateAbortsOnError(t *testing.T) {
	repo := NewTicketRepository(rowstore.NewMemory())
	ctx := context.Background()

	seedTicket(t, repo, model.Ticket{ID: "TKT-m", JobID: "JOB-1"})

	boom := errors.New("guard failed")
	_, err := repo.Mutate(ctx, "TKT-m", func(tk *model.Ticket) error {
		tk.Status = model.TicketStatusCancelled
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, "TKT-m")
	require.NoError(t, err)
	require.Equal(t, model.TicketStatusCreated, got.Status)
}

func TestTicketListFilters(t *testing.T) {
	repo := NewTicketRepository(rowstore.NewMemory())
	ctx := context.Background()
	base := time.Now().UTC()

	seedTicket(t, repo, model.Ticket{
		ID: "TKT-1", JobID: "JOB-1", Status: model.TicketStatusAssigned,
		DriverID: "drv-1", ProjectManager: "Lee Chu",
		ScheduledDate: "2026-09-01", CreatedAt: base,
	})
	seedTicket(t, repo, model.Ticket{
		ID: "TKT-2", JobID: "JOB-1", TicketType: model.TicketTypePickup,
		Status: model.TicketStatusCompleted, DriverID: "drv-2",
		CreatedAt: base.Add(time.Minute),
	})
	seedTicket(t, repo, model.Ticket{
		ID: "TKT-3", JobID: "JOB-2", Status: model.TicketStatusAssigned,
		DriverID: "drv-1", ScheduledDate: "2026-09-02",
		CreatedAt: base.Add(2 * time.Minute),
	})

	all, err := repo.List(ctx, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	require.Equal(t, "TKT-3", all[0].ID)

	drv1 := "drv-1"
	byDriver, err := repo.List(ctx, TicketListFilter{DriverID: &drv1})
	require.NoError(t, err)
	require.Len(t, byDriver, 2)

	pickup := model.TicketTypePickup
	byType, err := repo.List(ctx, TicketListFilter{TicketType: &pickup})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	require.Equal(t, "TKT-2", byType[0].ID)

	date := "2026-09-01"
	byDate, err := repo.List(ctx, TicketListFilter{Date: &date})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	require.Equal(t, "TKT-1", byDate[0].ID)

	assigned := model.TicketStatusAssigned
	limited, err := repo.List(ctx, TicketListFilter{Status: &assigned, Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, "TKT-3", limited[0].ID)

	byJob, err := repo.ListByJob(ctx, "JOB-1")
	require.NoError(t, err)
	require.Len(t, byJob, 2)
}
