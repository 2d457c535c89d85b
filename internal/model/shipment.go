package model

import "time"

// Shipment is an outbound delivery for an order.
type Shipment struct {
	ID             int64     `json:"id"`
	OrderID        string    `json:"orderId"`
	Status         string    `json:"status"`
	Carrier        string    `json:"carrier"`
	TrackingNumber string    `json:"trackingNumber"`
	TrackingURL    *string   `json:"trackingUrl"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	Events []ShipmentEvent `json:"events,omitempty"`
}

// ShipmentEvent is an append-only tracking event.
type ShipmentEvent struct {
	ID         int64     `json:"id"`
	ShipmentID int64     `json:"shipmentId"`
	Type       string    `json:"type"`
	Location   *string   `json:"location"`
	Message    *string   `json:"message"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Shipment statuses.
const (
	ShipmentPending   = "pending"
	ShipmentPacked    = "packed"
	ShipmentShipped   = "shipped"
	ShipmentInTransit = "in_transit"
	ShipmentDelivered = "delivered"
	ShipmentException = "exception"
	ShipmentCancelled = "cancelled"
)

// Shipment event types.
const (
	EventCreated        = "created"
	EventPacked         = "packed"
	EventPickedUp       = "picked_up"
	EventInTransit      = "in_transit"
	EventOutForDelivery = "out_for_delivery"
	EventDelivered      = "delivered"
	EventException      = "exception"
)

// shipmentFlow is the main status chain, in order.
var shipmentFlow = []string{
	ShipmentPending,
	ShipmentPacked,
	ShipmentShipped,
	ShipmentInTransit,
	ShipmentDelivered,
}

// ShipmentStatuses lists every status, main chain first.
var ShipmentStatuses = append(append([]string{}, shipmentFlow...), ShipmentException, ShipmentCancelled)

// EventTypes lists every shipment event type.
var EventTypes = []string{
	EventCreated, EventPacked, EventPickedUp, EventInTransit,
	EventOutForDelivery, EventDelivered, EventException,
}

func flowIndex(status string) int {
	for i, s := range shipmentFlow {
		if s == status {
			return i
		}
	}
	return -1
}

// ValidShipmentStatus reports whether s is a known shipment status.
func ValidShipmentStatus(s string) bool {
	return s == ShipmentException || s == ShipmentCancelled || flowIndex(s) >= 0
}

// ValidEventType reports whether t is a known event type.
func ValidEventType(t string) bool {
	for _, e := range EventTypes {
		if e == t {
			return true
		}
	}
	return false
}

// TerminalShipmentStatus reports whether no further transition is allowed.
func TerminalShipmentStatus(s string) bool {
	return s == ShipmentDelivered || s == ShipmentException || s == ShipmentCancelled
}

// CanTransition reports whether a shipment may move from one status to another.
// Moves along the main chain go forward only, skipping is allowed. Exception
// and cancelled are reachable from any non-terminal status.
func CanTransition(from, to string) bool {
	if TerminalShipmentStatus(from) || from == to {
		return false
	}
	if to == ShipmentException || to == ShipmentCancelled {
		return true
	}
	f, t := flowIndex(from), flowIndex(to)
	return f >= 0 && t > f
}

// EventForStatus returns the tracking event recorded when a shipment enters
// status. The second value is false when no event applies.
func EventForStatus(status string) (string, bool) {
	switch status {
	case ShipmentPacked:
		return EventPacked, true
	case ShipmentShipped:
		return EventPickedUp, true
	case ShipmentInTransit:
		return EventInTransit, true
	case ShipmentDelivered:
		return EventDelivered, true
	case ShipmentException:
		return EventException, true
	}
	return "", false
}
