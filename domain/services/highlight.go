package services

import (
	"tripgraph/domain/core/aggregates"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
)

// ComputeHighlighted derives the highlight set for a selection. For each
// selected id it highlights:
//
//   - all of the entity's same-kind descendants,
//   - for an experience, its associated places,
//   - for a place, every experience associated with it or with any of
//     its descendant places.
//
// The selected ids themselves are subtracted from the result: selection
// and highlight are mutually exclusive presentation states, even though
// an id may satisfy both rules before the subtraction.
func ComputeHighlighted(snap *aggregates.Snapshot, selected map[valueobjects.EntityID]bool) map[valueobjects.EntityID]bool {
	highlighted := map[valueobjects.EntityID]bool{}

	for id := range selected {
		entity, ok := snap.Entity(id)
		if !ok {
			continue
		}

		for _, d := range Descendants(snap, id) {
			highlighted[d.EntityID()] = true
		}

		switch e := entity.(type) {
		case *entities.Experience:
			for _, placeID := range e.PlaceIDs {
				if _, ok := snap.Entity(placeID); ok {
					highlighted[placeID] = true
				}
			}
		case *entities.Place:
			placeSet := map[valueobjects.EntityID]bool{id: true}
			for _, d := range Descendants(snap, id) {
				placeSet[d.EntityID()] = true
			}
			for _, candidate := range snap.Entities() {
				exp, ok := candidate.(*entities.Experience)
				if !ok {
					continue
				}
				for _, placeID := range exp.PlaceIDs {
					if placeSet[placeID] {
						highlighted[exp.ID] = true
						break
					}
				}
			}
		}
	}

	for id := range selected {
		delete(highlighted, id)
	}
	return highlighted
}
