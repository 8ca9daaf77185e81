package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TicketType string

const (
	TicketTypeDelivery TicketType = "delivery"
	TicketTypePickup   TicketType = "pickup"
	TicketTypeReturn   TicketType = "return"
)

func ParseTicketType(raw string) (TicketType, bool) {
	switch TicketType(strings.ToLower(strings.TrimSpace(raw))) {
	case TicketTypeDelivery:
		return TicketTypeDelivery, true
	case TicketTypePickup:
		return TicketTypePickup, true
	case TicketTypeReturn:
		return TicketTypeReturn, true
	}
	return "", false
}

type TicketStatus string

const (
	TicketStatusCreated         TicketStatus = "created"
	TicketStatusAssigned        TicketStatus = "assigned"
	TicketStatusMaterialsPulled TicketStatus = "materials_pulled"
	TicketStatusLoadVerified    TicketStatus = "load_verified"
	TicketStatusEnRoute         TicketStatus = "en_route"
	TicketStatusArrived         TicketStatus = "arrived"
	TicketStatusDelivered       TicketStatus = "delivered"
	TicketStatusCompleted       TicketStatus = "completed"
	TicketStatusCancelled       TicketStatus = "cancelled"
)

func (s TicketStatus) Terminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusCancelled
}

// MaterialItem is one line of the ticket payload. Quantities stay float64
// since partial units (half pallets, linear feet) occur on real orders.
type MaterialItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	UnitCharge  float64 `json:"unit_charge"`
	UnitCost    float64 `json:"unit_cost"`
}

func TotalCharge(items []MaterialItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Quantity * it.UnitCharge
	}
	return sum
}

func TotalCost(items []MaterialItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Quantity * it.UnitCost
	}
	return sum
}

type GPSLocation struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CapturedAt time.Time `json:"captured_at"`
}

type Ticket struct {
	ID         string       `json:"ticket_id"`
	TicketType TicketType   `json:"ticket_type"`
	Status     TicketStatus `json:"status"`

	CreatedBy     string `json:"created_by"`
	CreatedByRole string `json:"created_by_role"`
	DriverID      string `json:"driver_id,omitempty"`
	DriverName    string `json:"driver_name,omitempty"`
	Vehicle       string `json:"vehicle,omitempty"`
	PulledBy      string `json:"pulled_by,omitempty"`
	VerifiedBy    string `json:"verified_by,omitempty"`
	SignedBy      string `json:"signed_by,omitempty"`

	JobID          string `json:"job_id"`
	JobName        string `json:"job_name,omitempty"`
	JobAddress     string `json:"job_address,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	Zip            string `json:"zip,omitempty"`
	CustomerName   string `json:"customer_name,omitempty"`
	CustomerPhone  string `json:"customer_phone,omitempty"`
	CustomerEmail  string `json:"customer_email,omitempty"`
	ProjectManager string `json:"project_manager,omitempty"`

	Materials []MaterialItem `json:"materials"`

	RequestedDate       string `json:"requested_date,omitempty"`
	RequestedTime       string `json:"requested_time,omitempty"`
	ScheduledDate       string `json:"scheduled_date,omitempty"`
	ScheduledTime       string `json:"scheduled_time,omitempty"`
	Priority            string `json:"priority,omitempty"`
	SpecialInstructions string `json:"special_instructions,omitempty"`

	PhotoIDs     []string     `json:"photo_ids,omitempty"`
	SignatureURL string       `json:"signature_url,omitempty"`
	AssignedGPS  *GPSLocation `json:"assigned_gps,omitempty"`
	VerifiedGPS  *GPSLocation `json:"verified_gps,omitempty"`
	ArrivedGPS   *GPSLocation `json:"arrived_gps,omitempty"`
	CompletedGPS *GPSLocation `json:"completed_gps,omitempty"`

	ReturnReason      string         `json:"return_reason,omitempty"`
	PickupReason      string         `json:"pickup_reason,omitempty"`
	RelatedTicketID   string         `json:"related_ticket_id,omitempty"`
	ReturnedMaterials []MaterialItem `json:"returned_materials,omitempty"`
	ReturnCondition   string         `json:"return_condition,omitempty"`

	// Set instead of rejecting when a physical count disagrees with paperwork,
	// e.g. a return larger than the originating delivery.
	FlaggedForReview bool   `json:"flagged_for_review,omitempty"`
	FlagReason       string `json:"flag_reason,omitempty"`

	DeliveryNotes string `json:"delivery_notes,omitempty"`
	CancelReason  string `json:"cancel_reason,omitempty"`
	BillingID     string `json:"billing_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	PulledAt    *time.Time `json:"pulled_at,omitempty"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	ArrivedAt   *time.Time `json:"arrived_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func NewTicketID() string {
	return "TKT-" + uuid.NewString()
}
