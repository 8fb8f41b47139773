// Package handlers implements the read-only HTTP handlers over a live
// itinerary. Responses reuse the sync wire records so REST consumers
// and relay clients see the same entity shape.
package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tripgraph/application/sync"
	"tripgraph/domain/core/aggregates"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	"tripgraph/domain/services"
	"tripgraph/pkg/errors"
)

// ItineraryHandler serves queries against the current snapshot
type ItineraryHandler struct {
	store  *aggregates.Itinerary
	logger *zap.Logger
}

// NewItineraryHandler creates a new itinerary handler
func NewItineraryHandler(store *aggregates.Itinerary, logger *zap.Logger) *ItineraryHandler {
	return &ItineraryHandler{store: store, logger: logger}
}

// GetItinerary handles GET /itinerary
func (h *ItineraryHandler) GetItinerary(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()

	records, err := encodeAll(snap.Entities())
	if err != nil {
		h.respondError(w, errors.NewInternalError("failed to encode itinerary", err))
		return
	}

	var trip json.RawMessage
	if t := snap.Trip(); t != nil {
		trip, err = sync.EncodeTrip(t)
		if err != nil {
			h.respondError(w, errors.NewInternalError("failed to encode trip", err))
			return
		}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"entities": records,
		"trip":     trip,
		"count":    len(records),
	})
}

// GetEntity handles GET /entities/{entityID}
func (h *ItineraryHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseEntityID(w, r)
	if !ok {
		return
	}

	snap := h.store.Snapshot()
	entity, found := snap.Entity(id)
	if !found {
		h.respondError(w, errors.NewNotFoundError("entity"))
		return
	}

	record, err := sync.EncodeEntity(entity)
	if err != nil {
		h.respondError(w, errors.NewInternalError("failed to encode entity", err))
		return
	}

	children := services.Children(snap, id)
	childIDs := make([]string, 0, len(children))
	for _, child := range children {
		childIDs = append(childIDs, child.EntityID().String())
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"entity":   record,
		"children": childIDs,
	})
}

// GetSubtreeCost handles GET /entities/{entityID}/cost
func (h *ItineraryHandler) GetSubtreeCost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseEntityID(w, r)
	if !ok {
		return
	}

	snap := h.store.Snapshot()
	if _, found := snap.Entity(id); !found {
		h.respondError(w, errors.NewNotFoundError("entity"))
		return
	}

	breakdown := services.SubtreeCost(snap, id)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"entityId":    id.String(),
		"perCurrency": breakdown.PerCurrency,
		"display":     breakdown.String(),
	})
}

// GetSchedule handles GET /schedule/{date}
func (h *ItineraryHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		h.respondError(w, errors.NewValidationError("date must be YYYY-MM-DD"))
		return
	}

	snap := h.store.Snapshot()
	scheduled := services.ExperiencesOn(snap, date)

	records, err := encodeExperiences(scheduled)
	if err != nil {
		h.respondError(w, errors.NewInternalError("failed to encode schedule", err))
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":        date,
		"experiences": records,
	})
}

// GetUnscheduled handles GET /unscheduled
func (h *ItineraryHandler) GetUnscheduled(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	unscheduled := services.UnscheduledExperiences(snap)

	records, err := encodeExperiences(unscheduled)
	if err != nil {
		h.respondError(w, errors.NewInternalError("failed to encode experiences", err))
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"experiences": records,
	})
}

func (h *ItineraryHandler) parseEntityID(w http.ResponseWriter, r *http.Request) (valueobjects.EntityID, bool) {
	raw := chi.URLParam(r, "entityID")
	id, err := valueobjects.NewEntityIDFromString(raw)
	if err != nil {
		h.respondError(w, errors.NewValidationError("invalid entity id"))
		return valueobjects.EntityID{}, false
	}
	return id, true
}

func (h *ItineraryHandler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *ItineraryHandler) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsValidation(err):
		status = http.StatusBadRequest
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.IsConflict(err):
		status = http.StatusConflict
	case errors.IsPrecondition(err):
		status = http.StatusPreconditionFailed
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Error(err))
	}

	h.respondJSON(w, status, map[string]string{"error": err.Error()})
}

// encodeAll serializes entities sorted by id for stable responses
func encodeAll(list []entities.Entity) ([]json.RawMessage, error) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].EntityID().String() < list[j].EntityID().String()
	})

	records := make([]json.RawMessage, 0, len(list))
	for _, e := range list {
		record, err := sync.EncodeEntity(e)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func encodeExperiences(list []*entities.Experience) ([]json.RawMessage, error) {
	records := make([]json.RawMessage, 0, len(list))
	for _, e := range list {
		record, err := sync.EncodeEntity(e)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
