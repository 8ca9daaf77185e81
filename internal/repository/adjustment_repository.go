package repository

import (
	"context"

	"dispatch-service/internal/model"
	"dispatch-service/internal/rowstore"
)

// AdjustmentRepository is append-only; adjustments are an audit trail and are
// never mutated after creation.
type AdjustmentRepository struct {
	store rowstore.Store
}

func NewAdjustmentRepository(store rowstore.Store) *AdjustmentRepository {
	return &AdjustmentRepository{store: store}
}

func (r *AdjustmentRepository) Create(ctx context.Context, adj *model.StockAdjustment) error {
	return r.store.Append(ctx, rowstore.TableAdjustments, rowstore.Row{
		"adjustment_id": adj.ID,
		"product_id":    adj.ProductID,
		"product_name":  adj.ProductName,
		"previous_qty":  formatFloat(adj.PreviousQty),
		"new_qty":       formatFloat(adj.NewQty),
		"reason":        adj.Reason,
		"adjusted_by":   adj.AdjustedBy,
		"ticket_id":     adj.TicketID,
		"created_at":    formatTime(adj.CreatedAt),
	})
}
