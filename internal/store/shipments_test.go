package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/model"
)

func newShipment(t *testing.T, conn *db.DB, orderID string) *model.Shipment {
	t.Helper()
	s, err := CreateShipment(context.Background(), conn, NewShipment{
		OrderID: orderID, Carrier: "DHL", TrackingNumber: "TRK-" + orderID,
	})
	require.NoError(t, err)
	return s
}

func TestCreateShipmentAddsCreatedEvent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	s := newShipment(t, database, "ORD-1")
	assert.Equal(t, model.ShipmentPending, s.Status)

	got, err := GetShipmentWithEvents(ctx, database, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Events, 1)
	assert.Equal(t, model.EventCreated, got.Events[0].Type)
}

func TestSetShipmentStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	s := newShipment(t, database, "ORD-1")

	loc := "Monterrey"
	before, after, err := SetShipmentStatus(ctx, database, s.ID, model.ShipmentShipped, NewShipmentEvent{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, model.ShipmentPending, before.Status)
	assert.Equal(t, model.ShipmentShipped, after.Status)

	_, _, err = SetShipmentStatus(ctx, database, s.ID, model.ShipmentPacked, NewShipmentEvent{})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, _, err = SetShipmentStatus(ctx, database, s.ID, model.ShipmentCancelled, NewShipmentEvent{})
	require.NoError(t, err)

	_, _, err = SetShipmentStatus(ctx, database, s.ID, model.ShipmentDelivered, NewShipmentEvent{})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	events, err := ListShipmentEvents(ctx, database, s.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventCreated, events[0].Type)
	assert.Equal(t, model.EventPickedUp, events[1].Type)
	require.NotNil(t, events[1].Location)
	assert.Equal(t, "Monterrey", *events[1].Location)

	_, _, err = SetShipmentStatus(ctx, database, 999, model.ShipmentPacked, NewShipmentEvent{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndUpdateShipments(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	s1 := newShipment(t, database, "ORD-1")
	newShipment(t, database, "ORD-2")
	_, _, err := SetShipmentStatus(ctx, database, s1.ID, model.ShipmentPacked, NewShipmentEvent{})
	require.NoError(t, err)

	all, err := ListShipments(ctx, database, ShipmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	packed, err := ListShipments(ctx, database, ShipmentFilter{Status: model.ShipmentPacked})
	require.NoError(t, err)
	require.Len(t, packed, 1)
	assert.Equal(t, s1.ID, packed[0].ID)

	none, err := ListShipments(ctx, database, ShipmentFilter{Status: model.ShipmentPacked, OrderID: "ORD-2"})
	require.NoError(t, err)
	assert.Empty(t, none)

	carrier := "FedEx"
	url := "https://track.example/1"
	updated, err := UpdateShipment(ctx, database, s1.ID, ShipmentPatch{Carrier: &carrier, TrackingURL: &url})
	require.NoError(t, err)
	assert.Equal(t, "FedEx", updated.Carrier)
	assert.Equal(t, model.ShipmentPacked, updated.Status)
	require.NotNil(t, updated.TrackingURL)

	_, err = UpdateShipment(ctx, database, 999, ShipmentPatch{Carrier: &carrier})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddShipmentEvent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	s := newShipment(t, database, "ORD-1")

	msg := "Driver is nearby"
	ev, err := AddShipmentEvent(ctx, database, s.ID, NewShipmentEvent{Type: model.EventOutForDelivery, Message: &msg})
	require.NoError(t, err)
	assert.Equal(t, model.EventOutForDelivery, ev.Type)
	assert.Nil(t, ev.Location)

	_, err = AddShipmentEvent(ctx, database, 999, NewShipmentEvent{Type: model.EventPacked})
	assert.ErrorIs(t, err, ErrForeignKey)

	events, err := ListShipmentEvents(ctx, database, s.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
