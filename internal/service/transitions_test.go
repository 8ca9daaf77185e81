package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dispatch-service/internal/model"
)

func TestDeliveryChain(t *testing.T) {
	require.True(t, validTransition(OpAssignDriver, model.TicketTypeDelivery, model.TicketStatusCreated))
	require.True(t, validTransition(OpPullMaterials, model.TicketTypeDelivery, model.TicketStatusAssigned))
	require.True(t, validTransition(OpVerifyLoad, model.TicketTypeDelivery, model.TicketStatusMaterialsPulled))
	require.True(t, validTransition(OpStartDelivery, model.TicketTypeDelivery, model.TicketStatusLoadVerified))
	require.True(t, validTransition(OpMarkArrived, model.TicketTypeDelivery, model.TicketStatusEnRoute))
	require.True(t, validTransition(OpCompleteDelivery, model.TicketTypeDelivery, model.TicketStatusArrived))
	require.True(t, validTransition(OpCompleteTicket, model.TicketTypeDelivery, model.TicketStatusDelivered))
}

func TestDeliveryChainRejectsSkips(t *testing.T) {
	require.False(t, validTransition(OpStartDelivery, model.TicketTypeDelivery, model.TicketStatusAssigned))
	require.False(t, validTransition(OpCompleteDelivery, model.TicketTypeDelivery, model.TicketStatusEnRoute))
	require.False(t, validTransition(OpVerifyLoad, model.TicketTypeDelivery, model.TicketStatusCreated))
	require.False(t, validTransition(OpCompleteTicket, model.TicketTypeDelivery, model.TicketStatusArrived))
}

func TestPickupSkipsWarehouseSteps(t *testing.T) {
	require.True(t, validTransition(OpStartDelivery, model.TicketTypePickup, model.TicketStatusAssigned))
	require.False(t, validTransition(OpPullMaterials, model.TicketTypePickup, model.TicketStatusAssigned))
	require.False(t, validTransition(OpVerifyLoad, model.TicketTypePickup, model.TicketStatusMaterialsPulled))

	require.True(t, validTransition(OpCompletePickup, model.TicketTypePickup, model.TicketStatusEnRoute))
	require.True(t, validTransition(OpCompletePickup, model.TicketTypePickup, model.TicketStatusArrived))
	require.False(t, validTransition(OpCompleteDelivery, model.TicketTypePickup, model.TicketStatusArrived))
}

func TestReturnTerminalIsProcessReturn(t *testing.T) {
	require.True(t, validTransition(OpProcessReturn, model.TicketTypeReturn, model.TicketStatusArrived))
	require.True(t, validTransition(OpProcessReturn, model.TicketTypeReturn, model.TicketStatusEnRoute))
	require.False(t, validTransition(OpProcessReturn, model.TicketTypeDelivery, model.TicketStatusArrived))
	require.False(t, validTransition(OpCompleteDelivery, model.TicketTypeReturn, model.TicketStatusArrived))
}

func TestCancelFromAnyNonTerminal(t *testing.T) {
	for _, status := range []model.TicketStatus{
		model.TicketStatusCreated,
		model.TicketStatusAssigned,
		model.TicketStatusMaterialsPulled,
		model.TicketStatusLoadVerified,
		model.TicketStatusEnRoute,
		model.TicketStatusArrived,
		model.TicketStatusDelivered,
	} {
		require.True(t, validTransition(OpCancelTicket, model.TicketTypeDelivery, status), string(status))
	}
	require.False(t, validTransition(OpCancelTicket, model.TicketTypeDelivery, model.TicketStatusCompleted))
	require.False(t, validTransition(OpCancelTicket, model.TicketTypeDelivery, model.TicketStatusCancelled))
}
