package model

import (
	"time"

	"github.com/google/uuid"
)

// StockAdjustment is an append-only audit record of a manual quantity
// correction in the warehouse. It is never mutated after creation and is
// independent of any ticket's state.
type StockAdjustment struct {
	ID          string    `json:"adjustment_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	PreviousQty float64   `json:"previous_qty"`
	NewQty      float64   `json:"new_qty"`
	Reason      string    `json:"reason"`
	AdjustedBy  string    `json:"adjusted_by"`
	TicketID    string    `json:"ticket_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewAdjustmentID() string {
	return "ADJ-" + uuid.NewString()
}
