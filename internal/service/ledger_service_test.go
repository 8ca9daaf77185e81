package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"dispatch-service/internal/model"
)

func TestLedgerUpdateIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	upd := LedgerUpdate{
		TicketID:       "TKT-a",
		TicketType:     model.TicketTypeDelivery,
		MaterialCost:   600,
		MaterialCharge: 1000,
		BillingID:      "BILL-9",
	}

	job, err := h.ledger.UpdateJobFromTicket(ctx, "JOB-200", upd)
	require.NoError(t, err)
	require.Equal(t, 1, job.TotalDeliveries)
	require.Equal(t, 1000.0, job.TotalMaterialCharged)
	require.Equal(t, 600.0, job.TotalMaterialCost)
	require.Equal(t, 400.0, job.MaterialProfit)

	// Retrying the same ticket changes nothing.
	job, err = h.ledger.UpdateJobFromTicket(ctx, "JOB-200", upd)
	require.NoError(t, err)
	require.Equal(t, 1, job.TotalDeliveries)
	require.Equal(t, 1000.0, job.TotalMaterialCharged)
	require.Equal(t, []string{"TKT-a"}, job.TicketIDs)
	require.Equal(t, []string{"BILL-9"}, job.BillingIDs)
}

func TestLedgerLazyJobCreation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.GetJob(ctx, "JOB-201")
	require.ErrorIs(t, err, ErrNotFound)

	job, err := h.ledger.UpdateJobFromTicket(ctx, "JOB-201", LedgerUpdate{
		TicketID:   "TKT-b",
		TicketType: model.TicketTypePickup,
	})
	require.NoError(t, err)
	require.Equal(t, model.JobStatusActive, job.Status)
	require.Equal(t, 1, job.TotalPickups)

	stored, err := h.ledger.GetJob(ctx, "JOB-201")
	require.NoError(t, err)
	require.Equal(t, 1, stored.TotalPickups)
}

func TestReturnReducesChargedOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.UpdateJobFromTicket(ctx, "JOB-202", LedgerUpdate{
		TicketID:       "TKT-del",
		TicketType:     model.TicketTypeDelivery,
		MaterialCost:   600,
		MaterialCharge: 1000,
	})
	require.NoError(t, err)

	job, err := h.ledger.UpdateJobFromTicket(ctx, "JOB-202", LedgerUpdate{
		TicketID:       "TKT-ret",
		TicketType:     model.TicketTypeReturn,
		MaterialCharge: 150,
	})
	require.NoError(t, err)

	require.Equal(t, 1, job.TotalDeliveries)
	require.Equal(t, 1, job.TotalReturns)
	require.Equal(t, 850.0, job.TotalMaterialCharged)
	require.Equal(t, 600.0, job.TotalMaterialCost)
	require.Equal(t, 250.0, job.MaterialProfit)
}

func TestLedgerValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.UpdateJobFromTicket(ctx, "", LedgerUpdate{TicketID: "TKT-x"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = h.ledger.UpdateJobFromTicket(ctx, "JOB-203", LedgerUpdate{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestRebuildJobFromTickets(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := createDelivery(t, h, "JOB-204")
	advanceToArrived(t, h, first.ID)
	_, err := h.tickets.CompleteDelivery(ctx, driver, first.ID, "")
	require.NoError(t, err)

	// A second delivery that never completed must not count.
	createDelivery(t, h, "JOB-204")

	// Poison the stored rollup, then rebuild from the ticket scan.
	_, err = h.jobs.Mutate(ctx, "JOB-204", func(j *model.Job) error {
		j.TotalDeliveries = 7
		j.TotalMaterialCharged = 9999
		j.TicketIDs = append(j.TicketIDs, "TKT-ghost")
		return nil
	})
	require.NoError(t, err)

	job, err := h.ledger.RebuildJob(ctx, "JOB-204")
	require.NoError(t, err)
	require.Equal(t, 1, job.TotalDeliveries)
	require.Equal(t, 275.0, job.TotalMaterialCharged)
	require.Equal(t, 160.0, job.TotalMaterialCost)
	require.Equal(t, 115.0, job.MaterialProfit)
	require.Equal(t, []string{first.ID}, job.TicketIDs)
}
