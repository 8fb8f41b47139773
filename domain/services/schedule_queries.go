package services

import (
	"sort"

	"tripgraph/domain/core/aggregates"
	"tripgraph/domain/core/entities"
)

// ExperiencesOn returns the experiences scheduled on the given calendar
// day (YYYY-MM-DD), sorted by time of day with all-day entries last.
func ExperiencesOn(snap *aggregates.Snapshot, date string) []*entities.Experience {
	scheduled := []*entities.Experience{}
	for _, e := range snap.Entities() {
		exp, ok := e.(*entities.Experience)
		if !ok || exp.Schedule == nil {
			continue
		}
		if exp.Schedule.Date() == date {
			scheduled = append(scheduled, exp)
		}
	}

	sort.SliceStable(scheduled, func(i, j int) bool {
		ti := scheduled[i].Schedule.MinutesOfDay()
		tj := scheduled[j].Schedule.MinutesOfDay()
		if ti != tj {
			return ti < tj
		}
		return scheduled[i].ID.String() < scheduled[j].ID.String()
	})
	return scheduled
}

// UnscheduledExperiences returns the true leaves still waiting to be
// placed on the calendar: experiences with no schedule, no amount, a
// non-nil parent, and no children of their own. Structural containers
// and root-level groups are excluded.
func UnscheduledExperiences(snap *aggregates.Snapshot) []*entities.Experience {
	unscheduled := []*entities.Experience{}
	for _, e := range snap.Entities() {
		exp, ok := e.(*entities.Experience)
		if !ok {
			continue
		}
		if exp.Schedule != nil || exp.Amount != nil || exp.ParentID == nil {
			continue
		}
		if len(Children(snap, exp.ID)) > 0 {
			continue
		}
		unscheduled = append(unscheduled, exp)
	}

	sort.SliceStable(unscheduled, func(i, j int) bool {
		if unscheduled[i].SortOrder != unscheduled[j].SortOrder {
			return unscheduled[i].SortOrder < unscheduled[j].SortOrder
		}
		return unscheduled[i].ID.String() < unscheduled[j].ID.String()
	})
	return unscheduled
}
