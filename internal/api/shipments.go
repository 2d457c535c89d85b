package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/model"
	"github.com/erazemk/logistika/internal/store"
)

// ShipmentsHandler handles shipment and tracking event endpoints.
type ShipmentsHandler struct {
	DB    *db.DB
	Audit *audit.Recorder
}

type createShipmentRequest struct {
	OrderID        string  `json:"orderId" validate:"required,max=255"`
	Carrier        string  `json:"carrier" validate:"required,max=100"`
	TrackingNumber string  `json:"trackingNumber" validate:"required,max=255"`
	TrackingURL    *string `json:"trackingUrl" validate:"omitempty,url"`
}

type updateShipmentRequest struct {
	OrderID        *string `json:"orderId" validate:"omitempty,min=1,max=255"`
	Carrier        *string `json:"carrier" validate:"omitempty,min=1,max=100"`
	TrackingNumber *string `json:"trackingNumber" validate:"omitempty,min=1,max=255"`
	TrackingURL    *string `json:"trackingUrl" validate:"omitempty,url"`
}

type updateStatusRequest struct {
	Status   string  `json:"status" validate:"required,oneof=pending packed shipped in_transit delivered exception cancelled"`
	Location *string `json:"location" validate:"omitempty,max=255"`
	Message  *string `json:"message" validate:"omitempty,max=1000"`
}

type createEventRequest struct {
	Type     string  `json:"type" validate:"required,oneof=created packed picked_up in_transit out_for_delivery delivered exception"`
	Location *string `json:"location" validate:"omitempty,max=255"`
	Message  *string `json:"message" validate:"omitempty,max=1000"`
}

// List handles GET /v1/shipments.
func (h *ShipmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := q.Get("status")
	if status != "" && !model.ValidShipmentStatus(status) {
		jsonError(w, http.StatusBadRequest, kindValidation, "invalid status")
		return
	}
	shipments, err := store.ListShipments(r.Context(), h.DB, store.ShipmentFilter{
		Status:  status,
		OrderID: q.Get("orderId"),
	})
	if err != nil {
		writeStoreError(w, r, "shipment", err)
		return
	}
	jsonData(w, http.StatusOK, shipments)
}

// Get handles GET /v1/shipments/{id}. The shipment is returned with its events.
func (h *ShipmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "shipment")
	if !ok {
		return
	}
	s, err := store.GetShipmentWithEvents(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "shipment", err)
		return
	}
	jsonData(w, http.StatusOK, s)
}

// Create handles POST /v1/shipments.
func (h *ShipmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createShipmentRequest
	if !decodeValid(w, r, &req) {
		return
	}

	s, err := store.CreateShipment(r.Context(), h.DB, store.NewShipment{
		OrderID:        req.OrderID,
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
		TrackingURL:    req.TrackingURL,
	})
	if err != nil {
		writeStoreError(w, r, "shipment", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Action:     "shipment_create",
		EntityType: "shipments",
		EntityID:   strconv.FormatInt(s.ID, 10),
		Changes:    audit.Changes{After: s},
	})
	jsonData(w, http.StatusCreated, s)
}

// Update handles PUT /v1/shipments/{id}.
func (h *ShipmentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "shipment")
	if !ok {
		return
	}
	var req updateShipmentRequest
	if !decodeValid(w, r, &req) {
		return
	}

	before, err := store.GetShipment(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "shipment", err)
		return
	}
	after, err := store.UpdateShipment(r.Context(), h.DB, id, store.ShipmentPatch{
		OrderID:        req.OrderID,
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
		TrackingURL:    req.TrackingURL,
	})
	if err != nil {
		writeStoreError(w, r, "shipment", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Action:     "shipment_update",
		EntityType: "shipments",
		EntityID:   strconv.FormatInt(id, 10),
		Changes:    audit.Changes{Before: before, After: after},
	})
	jsonData(w, http.StatusOK, after)
}

// UpdateStatus handles PUT /v1/shipments/{id}/status.
func (h *ShipmentsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "shipment")
	if !ok {
		return
	}
	var req updateStatusRequest
	if !decodeValid(w, r, &req) {
		return
	}

	before, after, err := store.SetShipmentStatus(r.Context(), h.DB, id, req.Status, store.NewShipmentEvent{
		Location: req.Location,
		Message:  req.Message,
	})
	if err != nil {
		writeStoreError(w, r, "shipment", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Action:     "shipment_status_update",
		EntityType: "shipments",
		EntityID:   strconv.FormatInt(id, 10),
		Changes:    audit.Changes{Before: before, After: after},
		Metadata:   map[string]any{"from": before.Status, "to": after.Status},
	})
	jsonData(w, http.StatusOK, after)
}

// ListEvents handles GET /v1/shipments/{id}/events.
func (h *ShipmentsHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "shipment")
	if !ok {
		return
	}
	if _, err := store.GetShipment(r.Context(), h.DB, id); err != nil {
		writeStoreError(w, r, "shipment", err)
		return
	}
	events, err := store.ListShipmentEvents(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "shipment", err)
		return
	}
	jsonData(w, http.StatusOK, events)
}

// AddEvent handles POST /v1/shipments/{id}/events.
func (h *ShipmentsHandler) AddEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "shipment")
	if !ok {
		return
	}
	var req createEventRequest
	if !decodeValid(w, r, &req) {
		return
	}

	ev, err := store.AddShipmentEvent(r.Context(), h.DB, id, store.NewShipmentEvent{
		Type:     req.Type,
		Location: req.Location,
		Message:  req.Message,
	})
	if err != nil {
		writeStoreError(w, r, "shipment", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Action:     "shipment_event_create",
		EntityType: "shipment_events",
		EntityID:   strconv.FormatInt(ev.ID, 10),
		Changes:    audit.Changes{After: ev},
		Metadata:   map[string]any{"shipmentId": id},
	})
	jsonData(w, http.StatusCreated, ev)
}
