package model

import "time"

type JobStatus string

const (
	JobStatusActive   JobStatus = "active"
	JobStatusComplete JobStatus = "complete"
)

// Job is the per-project financial rollup record. Counters and totals are
// maintained exclusively by the ledger service; MaterialProfit is always
// recomputed from the two totals it derives from, never adjusted in place.
type Job struct {
	ID             string    `json:"job_id"`
	JobName        string    `json:"job_name,omitempty"`
	CustomerName   string    `json:"customer_name,omitempty"`
	JobAddress     string    `json:"job_address,omitempty"`
	City           string    `json:"city,omitempty"`
	State          string    `json:"state,omitempty"`
	Zip            string    `json:"zip,omitempty"`
	ProjectManager string    `json:"project_manager,omitempty"`
	Status         JobStatus `json:"status"`

	TotalDeliveries      int     `json:"total_deliveries"`
	TotalPickups         int     `json:"total_pickups"`
	TotalReturns         int     `json:"total_returns"`
	TotalMaterialCharged float64 `json:"total_material_charged"`
	TotalMaterialCost    float64 `json:"total_material_cost"`
	MaterialProfit       float64 `json:"material_profit"`

	TicketIDs  []string `json:"ticket_ids,omitempty"`
	BillingIDs []string `json:"billing_ids,omitempty"`
	InvoiceIDs []string `json:"invoice_ids,omitempty"`
	PhotoIDs   []string `json:"photo_ids,omitempty"`

	JobNimbusID       string     `json:"jobnimbus_id,omitempty"`
	SyncedToJobNimbus bool       `json:"synced_to_jobnimbus"`
	LastJobNimbusSync *time.Time `json:"last_jobnimbus_sync,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasTicket reports whether the ticket has already been rolled into this job.
// The ledger uses it as the idempotence gate for counter updates.
func (j *Job) HasTicket(ticketID string) bool {
	for _, id := range j.TicketIDs {
		if id == ticketID {
			return true
		}
	}
	return false
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func (j *Job) AddTicketID(id string)  { j.TicketIDs = appendUnique(j.TicketIDs, id) }
func (j *Job) AddBillingID(id string) { j.BillingIDs = appendUnique(j.BillingIDs, id) }
func (j *Job) AddInvoiceID(id string) { j.InvoiceIDs = appendUnique(j.InvoiceIDs, id) }
func (j *Job) AddPhotoID(id string)   { j.PhotoIDs = appendUnique(j.PhotoIDs, id) }
