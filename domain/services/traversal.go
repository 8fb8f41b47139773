package services

import (
	"sort"

	"tripgraph/domain/core/aggregates"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
)

// maxAncestorWalk bounds parent-chain walks over possibly-malformed data
const maxAncestorWalk = 10000

// Children returns the same-kind children of the entity, sorted by sort
// key. An unknown id yields an empty slice.
func Children(snap *aggregates.Snapshot, id valueobjects.EntityID) []entities.Entity {
	parent, ok := snap.Entity(id)
	if !ok {
		return nil
	}

	children := []entities.Entity{}
	for _, e := range snap.Entities() {
		p := e.Parent()
		if e.EntityKind() == parent.EntityKind() && p != nil && p.Equals(id) {
			children = append(children, e)
		}
	}
	sortSiblings(children)
	return children
}

// Descendants returns the transitive same-kind descendants of the entity
// via breadth-first expansion. A visited set guards against malformed
// data containing parent cycles.
func Descendants(snap *aggregates.Snapshot, id valueobjects.EntityID) []entities.Entity {
	root, ok := snap.Entity(id)
	if !ok {
		return nil
	}

	visited := map[valueobjects.EntityID]bool{id: true}
	result := []entities.Entity{}
	queue := []valueobjects.EntityID{id}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, e := range snap.Entities() {
			if e.EntityKind() != root.EntityKind() || visited[e.EntityID()] {
				continue
			}
			p := e.Parent()
			if p == nil || !p.Equals(current) {
				continue
			}
			visited[e.EntityID()] = true
			result = append(result, e)
			queue = append(queue, e.EntityID())
		}
	}
	return result
}

// Ancestors returns the parent chain from the entity's immediate parent
// up to its root. The walk is bounded and visited-guarded.
func Ancestors(snap *aggregates.Snapshot, id valueobjects.EntityID) []entities.Entity {
	start, ok := snap.Entity(id)
	if !ok {
		return nil
	}

	visited := map[valueobjects.EntityID]bool{id: true}
	ancestors := []entities.Entity{}
	current := start.Parent()

	for steps := 0; current != nil && steps < maxAncestorWalk; steps++ {
		if visited[*current] {
			break
		}
		visited[*current] = true

		parent, ok := snap.Entity(*current)
		if !ok {
			break
		}
		ancestors = append(ancestors, parent)
		current = parent.Parent()
	}
	return ancestors
}

// Roots returns the parentless entities of the given kind, sorted by
// sort key.
func Roots(snap *aggregates.Snapshot, kind entities.Kind) []entities.Entity {
	roots := []entities.Entity{}
	for _, e := range snap.Entities() {
		if e.EntityKind() == kind && e.Parent() == nil {
			roots = append(roots, e)
		}
	}
	sortSiblings(roots)
	return roots
}

// sortSiblings orders entities by sort key, breaking ties by id so the
// order is deterministic
func sortSiblings(list []entities.Entity) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].SortKey() != list[j].SortKey() {
			return list[i].SortKey() < list[j].SortKey()
		}
		return list[i].EntityID().String() < list[j].EntityID().String()
	})
}
