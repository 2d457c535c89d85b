package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/model"
)

const shipmentColumns = `id, order_id, status, carrier, tracking_number, tracking_url, created_at, updated_at`

// ShipmentFilter narrows ListShipments. Set fields are combined with AND.
type ShipmentFilter struct {
	Status  string
	OrderID string
}

// NewShipment is the input for CreateShipment.
type NewShipment struct {
	OrderID        string
	Carrier        string
	TrackingNumber string
	TrackingURL    *string
}

// ShipmentPatch lists the descriptive fields UpdateShipment may change.
// Status changes go through SetShipmentStatus.
type ShipmentPatch struct {
	OrderID        *string
	Carrier        *string
	TrackingNumber *string
	TrackingURL    *string
}

// NewShipmentEvent is the input for AddShipmentEvent.
type NewShipmentEvent struct {
	Type     string
	Location *string
	Message  *string
}

func scanShipment(row interface{ Scan(...any) error }) (*model.Shipment, error) {
	s := &model.Shipment{}
	var trackingURL sql.NullString
	err := row.Scan(&s.ID, &s.OrderID, &s.Status, &s.Carrier, &s.TrackingNumber, &trackingURL,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if trackingURL.Valid {
		s.TrackingURL = &trackingURL.String
	}
	return s, nil
}

// CreateShipment inserts a pending shipment and its "created" event.
func CreateShipment(ctx context.Context, conn *db.DB, in NewShipment) (*model.Shipment, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO shipments (order_id, status, carrier, tracking_number, tracking_url)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		in.OrderID, model.ShipmentPending, in.Carrier, in.TrackingNumber, in.TrackingURL,
	).Scan(&id)
	if err != nil {
		return nil, wrap("creating shipment", err)
	}

	if _, err := insertEvent(ctx, tx, id, NewShipmentEvent{Type: model.EventCreated}); err != nil {
		return nil, err
	}

	s, err := GetShipment(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing shipment: %w", err)
	}
	return s, nil
}

// GetShipment returns a shipment by ID without its events.
func GetShipment(ctx context.Context, conn db.Querier, id int64) (*model.Shipment, error) {
	s, err := scanShipment(conn.QueryRowContext(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE id = ?`, id,
	))
	if err != nil {
		return nil, wrap("getting shipment", err)
	}
	return s, nil
}

// GetShipmentWithEvents returns a shipment with its events in order.
func GetShipmentWithEvents(ctx context.Context, conn db.Querier, id int64) (*model.Shipment, error) {
	s, err := GetShipment(ctx, conn, id)
	if err != nil {
		return nil, err
	}
	s.Events, err = ListShipmentEvents(ctx, conn, id)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListShipments returns shipments matching f, newest first.
func ListShipments(ctx context.Context, conn db.Querier, f ShipmentFilter) ([]model.Shipment, error) {
	var conds []string
	var args []any
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.OrderID != "" {
		conds = append(conds, "order_id = ?")
		args = append(args, f.OrderID)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := conn.QueryContext(ctx,
		`SELECT `+shipmentColumns+` FROM shipments`+where+` ORDER BY created_at DESC, id DESC`, args...,
	)
	if err != nil {
		return nil, wrap("listing shipments", err)
	}
	defer rows.Close()

	shipments := []model.Shipment{}
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, wrap("scanning shipment", err)
		}
		shipments = append(shipments, *s)
	}
	return shipments, wrap("listing shipments", rows.Err())
}

// UpdateShipment changes a shipment's descriptive fields.
func UpdateShipment(ctx context.Context, conn db.Querier, id int64, patch ShipmentPatch) (*model.Shipment, error) {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	var args []any
	if patch.OrderID != nil {
		sets = append(sets, "order_id = ?")
		args = append(args, *patch.OrderID)
	}
	if patch.Carrier != nil {
		sets = append(sets, "carrier = ?")
		args = append(args, *patch.Carrier)
	}
	if patch.TrackingNumber != nil {
		sets = append(sets, "tracking_number = ?")
		args = append(args, *patch.TrackingNumber)
	}
	if patch.TrackingURL != nil {
		sets = append(sets, "tracking_url = ?")
		args = append(args, *patch.TrackingURL)
	}

	res, err := conn.ExecContext(ctx,
		`UPDATE shipments SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		append(args, id)...,
	)
	if err != nil {
		return nil, wrap("updating shipment", err)
	}
	if err := mustAffect(res); err != nil {
		return nil, wrap("updating shipment", err)
	}
	return GetShipment(ctx, conn, id)
}

// SetShipmentStatus moves a shipment to status, appending the matching
// tracking event. It returns the shipment before and after the change.
// Transitions the status flow does not allow fail with ErrInvalidTransition.
func SetShipmentStatus(ctx context.Context, conn *db.DB, id int64, status string, ev NewShipmentEvent) (before, after *model.Shipment, err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	before, err = GetShipment(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	if !model.CanTransition(before.Status, status) {
		return nil, nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, before.Status, status)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE shipments SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	); err != nil {
		return nil, nil, wrap("updating shipment status", err)
	}

	if evType, ok := model.EventForStatus(status); ok {
		ev.Type = evType
		if _, err := insertEvent(ctx, tx, id, ev); err != nil {
			return nil, nil, err
		}
	}

	after, err = GetShipment(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("committing shipment status: %w", err)
	}
	return before, after, nil
}

func insertEvent(ctx context.Context, conn db.Querier, shipmentID int64, ev NewShipmentEvent) (int64, error) {
	var id int64
	err := conn.QueryRowContext(ctx,
		`INSERT INTO shipment_events (shipment_id, type, location, message)
		 VALUES (?, ?, ?, ?) RETURNING id`,
		shipmentID, ev.Type, ev.Location, ev.Message,
	).Scan(&id)
	if err != nil {
		return 0, wrap("adding shipment event", err)
	}
	return id, nil
}

// AddShipmentEvent appends a tracking event to a shipment.
func AddShipmentEvent(ctx context.Context, conn db.Querier, shipmentID int64, ev NewShipmentEvent) (*model.ShipmentEvent, error) {
	id, err := insertEvent(ctx, conn, shipmentID, ev)
	if err != nil {
		return nil, err
	}
	e, err := scanEvent(conn.QueryRowContext(ctx,
		`SELECT id, shipment_id, type, location, message, occurred_at
		 FROM shipment_events WHERE id = ?`, id,
	))
	if err != nil {
		return nil, wrap("getting shipment event", err)
	}
	return e, nil
}

func scanEvent(row interface{ Scan(...any) error }) (*model.ShipmentEvent, error) {
	e := &model.ShipmentEvent{}
	var location, message sql.NullString
	if err := row.Scan(&e.ID, &e.ShipmentID, &e.Type, &location, &message, &e.OccurredAt); err != nil {
		return nil, err
	}
	if location.Valid {
		e.Location = &location.String
	}
	if message.Valid {
		e.Message = &message.String
	}
	return e, nil
}

// ListShipmentEvents returns a shipment's events, oldest first.
func ListShipmentEvents(ctx context.Context, conn db.Querier, shipmentID int64) ([]model.ShipmentEvent, error) {
	rows, err := conn.QueryContext(ctx,
		`SELECT id, shipment_id, type, location, message, occurred_at
		 FROM shipment_events WHERE shipment_id = ? ORDER BY occurred_at, id`, shipmentID,
	)
	if err != nil {
		return nil, wrap("listing shipment events", err)
	}
	defer rows.Close()

	events := []model.ShipmentEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, wrap("scanning shipment event", err)
		}
		events = append(events, *e)
	}
	return events, wrap("listing shipment events", rows.Err())
}
