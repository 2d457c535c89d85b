package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/logging"
	"github.com/erazemk/logistika/internal/model"
	"github.com/erazemk/logistika/internal/store"
)

type shipmentForm struct {
	OrderID        string `form:"orderId" validate:"required,max=255"`
	Carrier        string `form:"carrier" validate:"required,max=100"`
	TrackingNumber string `form:"trackingNumber" validate:"required,max=255"`
	TrackingURL    string `form:"trackingUrl" validate:"omitempty,url"`
}

type shipmentEventForm struct {
	Type     string `form:"type" validate:"required,oneof=created packed picked_up in_transit out_for_delivery delivered exception"`
	Location string `form:"location" validate:"max=255"`
	Message  string `form:"message" validate:"max=1000"`
}

func shipmentPath(id int64) string {
	return fmt.Sprintf("/dashboard/shipments/%d", id)
}

// ShipmentsPage handles GET /dashboard/shipments.
func (s *Server) ShipmentsPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.ShipmentFilter{Status: q.Get("status"), OrderID: strings.TrimSpace(q.Get("orderId"))}
	if f.Status != "" && !model.ValidShipmentStatus(f.Status) {
		f.Status = ""
	}

	shipments, err := store.ListShipments(r.Context(), s.DB, f)
	if err != nil {
		logging.FromContext(r.Context()).Error("listing shipments", zap.Error(err))
	}

	s.Templates.Render(w, r, "shipments.html", &struct {
		PageData
		Shipments []model.Shipment
		Statuses  []string
		Filter    store.ShipmentFilter
	}{
		PageData:  pageData(r, "Shipments", "shipments"),
		Shipments: shipments,
		Statuses:  model.ShipmentStatuses,
		Filter:    f,
	})
}

// ShipmentCreateSubmit handles POST /dashboard/shipments.
func (s *Server) ShipmentCreateSubmit(w http.ResponseWriter, r *http.Request) {
	f := shipmentForm{
		OrderID:        strings.TrimSpace(r.FormValue("orderId")),
		Carrier:        strings.TrimSpace(r.FormValue("carrier")),
		TrackingNumber: strings.TrimSpace(r.FormValue("trackingNumber")),
		TrackingURL:    strings.TrimSpace(r.FormValue("trackingUrl")),
	}
	if msg := validateForm(f); msg != "" {
		redirectError(w, r, "/dashboard/shipments", msg)
		return
	}

	sh, err := store.CreateShipment(r.Context(), s.DB, store.NewShipment{
		OrderID:        f.OrderID,
		Carrier:        f.Carrier,
		TrackingNumber: f.TrackingNumber,
		TrackingURL:    optional(f.TrackingURL),
	})
	if err != nil {
		redirectError(w, r, "/dashboard/shipments", failureMessage(r, "shipment", err))
		return
	}

	s.record(r, audit.Entry{
		Action:     "shipment_create",
		EntityType: "shipments",
		EntityID:   strconv.FormatInt(sh.ID, 10),
		Changes:    audit.Changes{After: sh},
	})
	redirectNotice(w, r, shipmentPath(sh.ID), "Shipment created.")
}

// ShipmentPage handles GET /dashboard/shipments/{id}.
func (s *Server) ShipmentPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sh, err := store.GetShipmentWithEvents(r.Context(), s.DB, id)
	if err != nil {
		notFoundOr(w, r, "shipment", err)
		return
	}

	var next []string
	for _, status := range model.ShipmentStatuses {
		if model.CanTransition(sh.Status, status) {
			next = append(next, status)
		}
	}

	s.Templates.Render(w, r, "shipment_detail.html", &struct {
		PageData
		Shipment   *model.Shipment
		NextStatus []string
		EventTypes []string
	}{
		PageData:   pageData(r, "Shipment "+sh.OrderID, "shipments"),
		Shipment:   sh,
		NextStatus: next,
		EventTypes: model.EventTypes,
	})
}

// ShipmentStatusSubmit handles POST /dashboard/shipments/{id}/status.
func (s *Server) ShipmentStatusSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	status := r.FormValue("status")
	if !model.ValidShipmentStatus(status) {
		redirectError(w, r, shipmentPath(id), "unknown status")
		return
	}

	before, after, err := store.SetShipmentStatus(r.Context(), s.DB, id, status, store.NewShipmentEvent{
		Location: optional(r.FormValue("location")),
		Message:  optional(r.FormValue("message")),
	})
	if err != nil {
		redirectError(w, r, shipmentPath(id), failureMessage(r, "shipment", err))
		return
	}

	s.record(r, audit.Entry{
		Action:     "shipment_status_update",
		EntityType: "shipments",
		EntityID:   strconv.FormatInt(id, 10),
		Changes:    audit.Changes{Before: before, After: after},
		Metadata:   map[string]any{"from": before.Status, "to": after.Status},
	})
	redirectNotice(w, r, shipmentPath(id), "Status changed to "+after.Status+".")
}

// ShipmentEventSubmit handles POST /dashboard/shipments/{id}/events.
func (s *Server) ShipmentEventSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	f := shipmentEventForm{
		Type:     r.FormValue("type"),
		Location: strings.TrimSpace(r.FormValue("location")),
		Message:  strings.TrimSpace(r.FormValue("message")),
	}
	if msg := validateForm(f); msg != "" {
		redirectError(w, r, shipmentPath(id), msg)
		return
	}

	ev, err := store.AddShipmentEvent(r.Context(), s.DB, id, store.NewShipmentEvent{
		Type:     f.Type,
		Location: optional(f.Location),
		Message:  optional(f.Message),
	})
	if err != nil {
		redirectError(w, r, shipmentPath(id), failureMessage(r, "shipment", err))
		return
	}

	s.record(r, audit.Entry{
		Action:     "shipment_event_create",
		EntityType: "shipment_events",
		EntityID:   strconv.FormatInt(ev.ID, 10),
		Changes:    audit.Changes{After: ev},
		Metadata:   map[string]any{"shipmentId": id},
	})
	redirectNotice(w, r, shipmentPath(id), "Event added.")
}
