package sync

import (
	"encoding/json"
	"time"

	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	pkgerrors "tripgraph/pkg/errors"
)

// Wire records for the shared document. Field order is fixed by the
// struct definitions, so encoding the same entity always yields the same
// bytes; serialized equality is the reconciler's diff unit.

type coordsRecord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type scheduleRecord struct {
	Date     string `json:"date"`
	Time     string `json:"time,omitempty"`
	Timezone string `json:"timezone"`
}

type entityRecord struct {
	Kind      string          `json:"kind"`
	ID        string          `json:"id"`
	TripID    string          `json:"tripId"`
	Name      string          `json:"name"`
	ParentID  *string         `json:"parentId"`
	Coords    *coordsRecord   `json:"coords,omitempty"`
	PlaceIDs  []string        `json:"placeIds,omitempty"`
	Schedule  *scheduleRecord `json:"schedule,omitempty"`
	Amount    *float64        `json:"amount,omitempty"`
	Currency  string          `json:"currency,omitempty"`
	SortOrder int             `json:"sortOrder"`
	CreatedAt string          `json:"createdAt"`
	CreatedBy string          `json:"createdBy"`
}

type collaboratorRecord struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

type tripRecord struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Start         string               `json:"start"`
	End           string               `json:"end"`
	Timezone      string               `json:"timezone"`
	CreatedAt     string               `json:"createdAt"`
	CreatedBy     string               `json:"createdBy"`
	Collaborators []collaboratorRecord `json:"collaborators"`
}

// EncodeEntity serializes a place or experience to its wire record
func EncodeEntity(e entities.Entity) (json.RawMessage, error) {
	rec := entityRecord{
		Kind:      string(e.EntityKind()),
		ID:        e.EntityID().String(),
		SortOrder: e.SortKey(),
	}
	if p := e.Parent(); p != nil {
		s := p.String()
		rec.ParentID = &s
	}

	switch v := e.(type) {
	case *entities.Place:
		rec.TripID = v.TripID.String()
		rec.Name = v.Name
		rec.CreatedAt = v.CreatedAt.Format(time.RFC3339Nano)
		rec.CreatedBy = v.CreatedBy
		if v.Coords != nil {
			rec.Coords = &coordsRecord{Lat: v.Coords.Lat(), Lng: v.Coords.Lng()}
		}
	case *entities.Experience:
		rec.TripID = v.TripID.String()
		rec.Name = v.Name
		rec.CreatedAt = v.CreatedAt.Format(time.RFC3339Nano)
		rec.CreatedBy = v.CreatedBy
		rec.PlaceIDs = make([]string, 0, len(v.PlaceIDs))
		for _, id := range v.PlaceIDs {
			rec.PlaceIDs = append(rec.PlaceIDs, id.String())
		}
		if v.Schedule != nil {
			rec.Schedule = &scheduleRecord{
				Date:     v.Schedule.Date(),
				Time:     v.Schedule.TimeOfDay(),
				Timezone: v.Schedule.Timezone(),
			}
		}
		if v.Amount != nil {
			amount := *v.Amount
			rec.Amount = &amount
		}
		rec.Currency = v.Currency
	default:
		return nil, pkgerrors.NewValidationError("unknown entity kind")
	}

	return json.Marshal(rec)
}

// DecodeEntity reconstructs a place or experience from its wire record
func DecodeEntity(raw json.RawMessage) (entities.Entity, error) {
	var rec entityRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, pkgerrors.NewInternalError("malformed entity record", err)
	}

	id, err := valueobjects.NewEntityIDFromString(rec.ID)
	if err != nil {
		return nil, err
	}
	tripID, err := valueobjects.NewTripIDFromString(rec.TripID)
	if err != nil {
		return nil, err
	}

	var parentID *valueobjects.EntityID
	if rec.ParentID != nil {
		pid, err := valueobjects.NewEntityIDFromString(*rec.ParentID)
		if err != nil {
			return nil, err
		}
		parentID = &pid
	}

	createdAt, err := time.Parse(time.RFC3339Nano, rec.CreatedAt)
	if err != nil {
		return nil, pkgerrors.NewValidationError("entity record createdAt must be RFC3339")
	}

	switch entities.Kind(rec.Kind) {
	case entities.KindPlace:
		place := &entities.Place{
			ID:        id,
			TripID:    tripID,
			Name:      rec.Name,
			ParentID:  parentID,
			SortOrder: rec.SortOrder,
			CreatedAt: createdAt,
			CreatedBy: rec.CreatedBy,
		}
		if rec.Coords != nil {
			coords, err := valueobjects.NewCoordinates(rec.Coords.Lat, rec.Coords.Lng)
			if err != nil {
				return nil, err
			}
			place.Coords = &coords
		}
		return place, nil

	case entities.KindExperience:
		exp := &entities.Experience{
			ID:        id,
			TripID:    tripID,
			Name:      rec.Name,
			ParentID:  parentID,
			PlaceIDs:  []valueobjects.EntityID{},
			Currency:  rec.Currency,
			SortOrder: rec.SortOrder,
			CreatedAt: createdAt,
			CreatedBy: rec.CreatedBy,
		}
		for _, s := range rec.PlaceIDs {
			pid, err := valueobjects.NewEntityIDFromString(s)
			if err != nil {
				return nil, err
			}
			exp.PlaceIDs = append(exp.PlaceIDs, pid)
		}
		if rec.Schedule != nil {
			sched, err := valueobjects.NewSchedule(rec.Schedule.Date, rec.Schedule.Time, rec.Schedule.Timezone)
			if err != nil {
				return nil, err
			}
			exp.Schedule = &sched
		}
		if rec.Amount != nil {
			amount := *rec.Amount
			exp.Amount = &amount
		}
		return exp, nil

	default:
		return nil, pkgerrors.NewValidationError("entity record has unknown kind")
	}
}

// EncodeTrip serializes the trip record
func EncodeTrip(t *entities.Trip) (json.RawMessage, error) {
	rec := tripRecord{
		ID:            t.ID.String(),
		Name:          t.Name,
		Start:         t.DateRange.Start,
		End:           t.DateRange.End,
		Timezone:      t.Timezone,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339Nano),
		CreatedBy:     t.CreatedBy,
		Collaborators: make([]collaboratorRecord, 0, len(t.Collaborators)),
	}
	for _, c := range t.Collaborators {
		rec.Collaborators = append(rec.Collaborators, collaboratorRecord{UserID: c.UserID, Name: c.Name})
	}
	return json.Marshal(rec)
}

// DecodeTrip reconstructs the trip from its wire record
func DecodeTrip(raw json.RawMessage) (*entities.Trip, error) {
	var rec tripRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, pkgerrors.NewInternalError("malformed trip record", err)
	}

	id, err := valueobjects.NewTripIDFromString(rec.ID)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, rec.CreatedAt)
	if err != nil {
		return nil, pkgerrors.NewValidationError("trip record createdAt must be RFC3339")
	}

	trip := &entities.Trip{
		ID:            id,
		Name:          rec.Name,
		DateRange:     entities.DateRange{Start: rec.Start, End: rec.End},
		Timezone:      rec.Timezone,
		CreatedAt:     createdAt,
		CreatedBy:     rec.CreatedBy,
		Collaborators: make([]entities.Collaborator, 0, len(rec.Collaborators)),
	}
	for _, c := range rec.Collaborators {
		trip.Collaborators = append(trip.Collaborators, entities.Collaborator{UserID: c.UserID, Name: c.Name})
	}
	return trip, nil
}
