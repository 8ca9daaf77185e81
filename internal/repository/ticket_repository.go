package repository

import (
	"context"
	"sort"

	"dispatch-service/internal/model"
	"dispatch-service/internal/rowstore"
)

type TicketRepository struct {
	store rowstore.Store
}

func NewTicketRepository(store rowstore.Store) *TicketRepository {
	return &TicketRepository{store: store}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *model.Ticket) error {
	return r.store.Append(ctx, rowstore.TableTickets, encodeTicket(ticket))
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	rows, err := r.store.Rows(ctx, rowstore.TableTickets)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row["ticket_id"] == id {
			ticket := decodeTicket(row)
			return &ticket, nil
		}
	}
	return nil, rowstore.ErrRowNotFound
}

// Mutate applies fn to the freshest stored copy of the ticket and writes the
// result back in one find-and-mutate cycle. An fn error aborts the write, so
// state-machine guards leave the stored row untouched.
func (r *TicketRepository) Mutate(ctx context.Context, id string, fn func(*model.Ticket) error) (*model.Ticket, error) {
	var out *model.Ticket
	err := r.store.Update(ctx, rowstore.TableTickets, "ticket_id", id, func(row rowstore.Row) (rowstore.Row, error) {
		ticket := decodeTicket(row)
		if err := fn(&ticket); err != nil {
			return nil, err
		}
		out = &ticket
		return encodeTicket(&ticket), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type TicketListFilter struct {
	Status         *model.TicketStatus
	TicketType     *model.TicketType
	DriverID       *string
	ProjectManager *string
	Date           *string
	Limit          int
}

func (r *TicketRepository) List(ctx context.Context, filter TicketListFilter) ([]model.Ticket, error) {
	rows, err := r.store.Rows(ctx, rowstore.TableTickets)
	if err != nil {
		return nil, err
	}

	tickets := make([]model.Ticket, 0, len(rows))
	for _, row := range rows {
		ticket := decodeTicket(row)
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.TicketType != nil && ticket.TicketType != *filter.TicketType {
			continue
		}
		if filter.DriverID != nil && ticket.DriverID != *filter.DriverID {
			continue
		}
		if filter.ProjectManager != nil && ticket.ProjectManager != *filter.ProjectManager {
			continue
		}
		if filter.Date != nil && !ticketMatchesDate(&ticket, *filter.Date) {
			continue
		}
		tickets = append(tickets, ticket)
	}

	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})

	if filter.Limit > 0 && len(tickets) > filter.Limit {
		tickets = tickets[:filter.Limit]
	}
	return tickets, nil
}

// ListByJob backs the ledger's full-rescan reporting path.
func (r *TicketRepository) ListByJob(ctx context.Context, jobID string) ([]model.Ticket, error) {
	rows, err := r.store.Rows(ctx, rowstore.TableTickets)
	if err != nil {
		return nil, err
	}
	tickets := make([]model.Ticket, 0, len(rows))
	for _, row := range rows {
		if row["job_id"] == jobID {
			tickets = append(tickets, decodeTicket(row))
		}
	}
	return tickets, nil
}

func ticketMatchesDate(t *model.Ticket, date string) bool {
	if t.ScheduledDate != "" {
		return t.ScheduledDate == date
	}
	return t.CreatedAt.UTC().Format("2006-01-02") == date
}

func encodeTicket(t *model.Ticket) rowstore.Row {
	return rowstore.Row{
		"ticket_id":            t.ID,
		"ticket_type":          string(t.TicketType),
		"status":               string(t.Status),
		"created_by":           t.CreatedBy,
		"created_by_role":      t.CreatedByRole,
		"driver_id":            t.DriverID,
		"driver_name":          t.DriverName,
		"vehicle":              t.Vehicle,
		"pulled_by":            t.PulledBy,
		"verified_by":          t.VerifiedBy,
		"signed_by":            t.SignedBy,
		"job_id":               t.JobID,
		"job_name":             t.JobName,
		"job_address":          t.JobAddress,
		"city":                 t.City,
		"state":                t.State,
		"zip":                  t.Zip,
		"customer_name":        t.CustomerName,
		"customer_phone":       t.CustomerPhone,
		"customer_email":       t.CustomerEmail,
		"project_manager":      t.ProjectManager,
		"materials":            encodeList(t.Materials),
		"requested_date":       t.RequestedDate,
		"requested_time":       t.RequestedTime,
		"scheduled_date":       t.ScheduledDate,
		"scheduled_time":       t.ScheduledTime,
		"priority":             t.Priority,
		"special_instructions": t.SpecialInstructions,
		"photo_ids":            encodeList(t.PhotoIDs),
		"signature_url":        t.SignatureURL,
		"assigned_gps":         encodeGPS(t.AssignedGPS),
		"verified_gps":         encodeGPS(t.VerifiedGPS),
		"arrived_gps":          encodeGPS(t.ArrivedGPS),
		"completed_gps":        encodeGPS(t.CompletedGPS),
		"return_reason":        t.ReturnReason,
		"pickup_reason":        t.PickupReason,
		"related_ticket_id":    t.RelatedTicketID,
		"returned_materials":   encodeList(t.ReturnedMaterials),
		"return_condition":     t.ReturnCondition,
		"flagged_for_review":   formatBool(t.FlaggedForReview),
		"flag_reason":          t.FlagReason,
		"delivery_notes":       t.DeliveryNotes,
		"cancel_reason":        t.CancelReason,
		"billing_id":           t.BillingID,
		"created_at":           formatTime(t.CreatedAt),
		"assigned_at":          formatTimePtr(t.AssignedAt),
		"pulled_at":            formatTimePtr(t.PulledAt),
		"verified_at":          formatTimePtr(t.VerifiedAt),
		"started_at":           formatTimePtr(t.StartedAt),
		"arrived_at":           formatTimePtr(t.ArrivedAt),
		"delivered_at":         formatTimePtr(t.DeliveredAt),
		"completed_at":         formatTimePtr(t.CompletedAt),
		"cancelled_at":         formatTimePtr(t.CancelledAt),
		"updated_at":           formatTime(t.UpdatedAt),
	}
}

func decodeTicket(row rowstore.Row) model.Ticket {
	return model.Ticket{
		ID:                  row["ticket_id"],
		TicketType:          model.TicketType(row["ticket_type"]),
		Status:              model.TicketStatus(row["status"]),
		CreatedBy:           row["created_by"],
		CreatedByRole:       row["created_by_role"],
		DriverID:            row["driver_id"],
		DriverName:          row["driver_name"],
		Vehicle:             row["vehicle"],
		PulledBy:            row["pulled_by"],
		VerifiedBy:          row["verified_by"],
		SignedBy:            row["signed_by"],
		JobID:               row["job_id"],
		JobName:             row["job_name"],
		JobAddress:          row["job_address"],
		City:                row["city"],
		State:               row["state"],
		Zip:                 row["zip"],
		CustomerName:        row["customer_name"],
		CustomerPhone:       row["customer_phone"],
		CustomerEmail:       row["customer_email"],
		ProjectManager:      row["project_manager"],
		Materials:           decodeMaterials(row["materials"]),
		RequestedDate:       row["requested_date"],
		RequestedTime:       row["requested_time"],
		ScheduledDate:       row["scheduled_date"],
		ScheduledTime:       row["scheduled_time"],
		Priority:            row["priority"],
		SpecialInstructions: row["special_instructions"],
		PhotoIDs:            decodeStringList(row["photo_ids"]),
		SignatureURL:        row["signature_url"],
		AssignedGPS:         decodeGPS(row["assigned_gps"]),
		VerifiedGPS:         decodeGPS(row["verified_gps"]),
		ArrivedGPS:          decodeGPS(row["arrived_gps"]),
		CompletedGPS:        decodeGPS(row["completed_gps"]),
		ReturnReason:        row["return_reason"],
		PickupReason:        row["pickup_reason"],
		RelatedTicketID:     row["related_ticket_id"],
		ReturnedMaterials:   decodeMaterials(row["returned_materials"]),
		ReturnCondition:     row["return_condition"],
		FlaggedForReview:    parseBool(row["flagged_for_review"]),
		FlagReason:          row["flag_reason"],
		DeliveryNotes:       row["delivery_notes"],
		CancelReason:        row["cancel_reason"],
		BillingID:           row["billing_id"],
		CreatedAt:           parseTime(row["created_at"]),
		AssignedAt:          parseTimePtr(row["assigned_at"]),
		PulledAt:            parseTimePtr(row["pulled_at"]),
		VerifiedAt:          parseTimePtr(row["verified_at"]),
		StartedAt:           parseTimePtr(row["started_at"]),
		ArrivedAt:           parseTimePtr(row["arrived_at"]),
		DeliveredAt:         parseTimePtr(row["delivered_at"]),
		CompletedAt:         parseTimePtr(row["completed_at"]),
		CancelledAt:         parseTimePtr(row["cancelled_at"]),
		UpdatedAt:           parseTime(row["updated_at"]),
	}
}
