package service

import "dispatch-service/internal/model"

type TicketOperation string

const (
	OpAssignDriver     TicketOperation = "assign-driver"
	OpPullMaterials    TicketOperation = "pull-materials"
	OpVerifyLoad       TicketOperation = "verify-load"
	OpStartDelivery    TicketOperation = "start-delivery"
	OpMarkArrived      TicketOperation = "mark-arrived"
	OpCompleteDelivery TicketOperation = "complete-delivery"
	OpCaptureProof     TicketOperation = "capture-proof"
	OpCompleteTicket   TicketOperation = "complete-ticket"
	OpCompletePickup   TicketOperation = "complete-pickup"
	OpProcessReturn    TicketOperation = "process-return"
	OpCancelTicket     TicketOperation = "cancel"
)

// transitionTable maps each operation to the ticket states it may be invoked
// from, per ticket type. Delivery tickets traverse the full chain; pickup and
// return tickets skip the warehouse pull and load verification steps. An
// operation absent for a type is never valid for it. Cancellation is handled
// in validTransition since it is reachable from any non-terminal state.
var transitionTable = map[TicketOperation]map[model.TicketType][]model.TicketStatus{
	OpAssignDriver: {
		model.TicketTypeDelivery: {model.TicketStatusCreated},
		model.TicketTypePickup:   {model.TicketStatusCreated},
		model.TicketTypeReturn:   {model.TicketStatusCreated},
	},
	OpPullMaterials: {
		model.TicketTypeDelivery: {model.TicketStatusAssigned},
	},
	OpVerifyLoad: {
		model.TicketTypeDelivery: {model.TicketStatusMaterialsPulled},
	},
	OpStartDelivery: {
		model.TicketTypeDelivery: {model.TicketStatusLoadVerified},
		model.TicketTypePickup:   {model.TicketStatusAssigned},
		model.TicketTypeReturn:   {model.TicketStatusAssigned},
	},
	OpMarkArrived: {
		model.TicketTypeDelivery: {model.TicketStatusEnRoute},
		model.TicketTypePickup:   {model.TicketStatusEnRoute},
		model.TicketTypeReturn:   {model.TicketStatusEnRoute},
	},
	OpCompleteDelivery: {
		model.TicketTypeDelivery: {model.TicketStatusArrived},
	},
	OpCaptureProof: {
		model.TicketTypeDelivery: {model.TicketStatusArrived, model.TicketStatusDelivered},
		model.TicketTypePickup:   {model.TicketStatusArrived},
		model.TicketTypeReturn:   {model.TicketStatusArrived},
	},
	OpCompleteTicket: {
		model.TicketTypeDelivery: {model.TicketStatusDelivered},
	},
	OpCompletePickup: {
		model.TicketTypePickup: {model.TicketStatusEnRoute, model.TicketStatusArrived},
	},
	OpProcessReturn: {
		model.TicketTypeReturn: {model.TicketStatusEnRoute, model.TicketStatusArrived},
	},
}

func validTransition(op TicketOperation, ticketType model.TicketType, current model.TicketStatus) bool {
	if op == OpCancelTicket {
		return !current.Terminal()
	}
	allowed, ok := transitionTable[op][ticketType]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == current {
			return true
		}
	}
	return false
}
