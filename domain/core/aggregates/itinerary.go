package aggregates

import (
	"sort"
	"sync"

	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	pkgerrors "tripgraph/pkg/errors"
)

// maxAncestorWalk bounds parent-chain walks so that already-broken data
// (a cycle introduced by a buggy remote peer) cannot hang the store.
const maxAncestorWalk = 10000

// Itinerary is the aggregate root for one trip's entity graph. It is the
// sole local owner of entity objects: all mutations go through its
// operations, each of which atomically replaces the current snapshot and
// notifies subscribers with the new one.
//
// Instances are explicitly constructed and passed by reference, so
// multiple trips can coexist in one process and tests get isolated stores.
type Itinerary struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	actor    string

	subMu       sync.Mutex
	subscribers map[int]func(*Snapshot)
	nextSubID   int
}

// NewItinerary creates an empty store. actor is recorded as the creator
// of entities made through this store.
func NewItinerary(actor string) *Itinerary {
	return &Itinerary{
		snapshot:    emptySnapshot(),
		actor:       actor,
		subscribers: map[int]func(*Snapshot){},
	}
}

// Snapshot returns the current immutable snapshot
func (it *Itinerary) Snapshot() *Snapshot {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.snapshot
}

// Subscribe registers a callback invoked with every new snapshot.
// It returns an unsubscribe function. Callbacks run synchronously after
// the mutation commits, outside the store's lock.
func (it *Itinerary) Subscribe(fn func(*Snapshot)) func() {
	it.subMu.Lock()
	defer it.subMu.Unlock()

	id := it.nextSubID
	it.nextSubID++
	it.subscribers[id] = fn

	return func() {
		it.subMu.Lock()
		defer it.subMu.Unlock()
		delete(it.subscribers, id)
	}
}

// AddPlace creates a place under parentID (nil for a root) and returns
// its id. The new place gets the next sort key among its siblings.
func (it *Itinerary) AddPlace(name string, parentID *valueobjects.EntityID) (valueobjects.EntityID, error) {
	it.mu.Lock()

	if it.snapshot.trip == nil {
		it.mu.Unlock()
		return valueobjects.EntityID{}, pkgerrors.NewPreconditionError("no trip loaded")
	}
	if err := it.checkParentKind(parentID, entities.KindPlace); err != nil {
		it.mu.Unlock()
		return valueobjects.EntityID{}, err
	}

	place, err := entities.NewPlace(it.snapshot.trip.ID, name, parentID, it.actor)
	if err != nil {
		it.mu.Unlock()
		return valueobjects.EntityID{}, err
	}
	place.SortOrder = nextSortKey(it.snapshot.entities, entities.KindPlace, parentID)

	next := it.snapshot.cloneEntities()
	next[place.ID] = place
	snap := it.commitLocked(next, it.snapshot.trip)
	it.mu.Unlock()

	it.notify(snap)
	return place.ID, nil
}

// AddExperience creates an experience under parentID (nil for a root)
// and returns its id.
func (it *Itinerary) AddExperience(name string, parentID *valueobjects.EntityID) (valueobjects.EntityID, error) {
	it.mu.Lock()

	if it.snapshot.trip == nil {
		it.mu.Unlock()
		return valueobjects.EntityID{}, pkgerrors.NewPreconditionError("no trip loaded")
	}
	if err := it.checkParentKind(parentID, entities.KindExperience); err != nil {
		it.mu.Unlock()
		return valueobjects.EntityID{}, err
	}

	exp, err := entities.NewExperience(it.snapshot.trip.ID, name, parentID, it.actor)
	if err != nil {
		it.mu.Unlock()
		return valueobjects.EntityID{}, err
	}
	exp.SortOrder = nextSortKey(it.snapshot.entities, entities.KindExperience, parentID)

	next := it.snapshot.cloneEntities()
	next[exp.ID] = exp
	snap := it.commitLocked(next, it.snapshot.trip)
	it.mu.Unlock()

	it.notify(snap)
	return exp.ID, nil
}

// UpdatePlace merges a partial update into the place. Missing ids and
// kind mismatches are silent no-ops: drag gestures routinely produce
// updates that race a concurrent delete.
func (it *Itinerary) UpdatePlace(id valueobjects.EntityID, patch entities.PlacePatch) {
	it.mu.Lock()

	place, ok := it.snapshot.entities[id].(*entities.Place)
	if !ok {
		it.mu.Unlock()
		return
	}

	next := it.snapshot.cloneEntities()
	next[id] = place.ApplyPatch(patch)
	snap := it.commitLocked(next, it.snapshot.trip)
	it.mu.Unlock()

	it.notify(snap)
}

// UpdateExperience merges a partial update into the experience. Missing
// ids and kind mismatches are silent no-ops.
func (it *Itinerary) UpdateExperience(id valueobjects.EntityID, patch entities.ExperiencePatch) {
	it.mu.Lock()

	exp, ok := it.snapshot.entities[id].(*entities.Experience)
	if !ok {
		it.mu.Unlock()
		return
	}

	next := it.snapshot.cloneEntities()
	next[id] = exp.ApplyPatch(patch)
	snap := it.commitLocked(next, it.snapshot.trip)
	it.mu.Unlock()

	it.notify(snap)
}

// RemoveEntity deletes the entity and every transitive same-kind
// descendant. Unknown ids are silent no-ops.
func (it *Itinerary) RemoveEntity(id valueobjects.EntityID) {
	it.mu.Lock()

	target, ok := it.snapshot.entities[id]
	if !ok {
		it.mu.Unlock()
		return
	}

	doomed := collectSubtree(it.snapshot.entities, target)
	next := it.snapshot.cloneEntities()
	for victim := range doomed {
		delete(next, victim)
	}
	snap := it.commitLocked(next, it.snapshot.trip)
	it.mu.Unlock()

	it.notify(snap)
}

// Reparent appends the entity under newParentID with the next sibling
// sort key. Unlike MoveTo it does not pick an index; it shares the same
// cycle and kind guards, and invalid targets are silent no-ops.
func (it *Itinerary) Reparent(id valueobjects.EntityID, newParentID *valueobjects.EntityID) {
	it.mu.Lock()

	target, ok := it.snapshot.entities[id]
	if !ok {
		it.mu.Unlock()
		return
	}
	if wouldCycle(it.snapshot.entities, id, newParentID) {
		it.mu.Unlock()
		return
	}
	if newParentID != nil {
		parent, ok := it.snapshot.entities[*newParentID]
		if !ok || parent.EntityKind() != target.EntityKind() {
			it.mu.Unlock()
			return
		}
	}

	order := nextSortKey(it.snapshot.entities, target.EntityKind(), newParentID)
	next := it.snapshot.cloneEntities()
	next[id] = target.Reposition(newParentID, order)
	snap := it.commitLocked(next, it.snapshot.trip)
	it.mu.Unlock()

	it.notify(snap)
}

// MoveTo repositions the entity under newParentID at the given sibling
// index. Self-parenting and moves into the entity's own subtree are
// silent no-ops. Sibling sort keys are renumbered to consecutive
// integers reflecting the new order.
func (it *Itinerary) MoveTo(id valueobjects.EntityID, newParentID *valueobjects.EntityID, index int) {
	it.mu.Lock()

	target, ok := it.snapshot.entities[id]
	if !ok {
		it.mu.Unlock()
		return
	}
	if wouldCycle(it.snapshot.entities, id, newParentID) {
		it.mu.Unlock()
		return
	}
	if newParentID != nil {
		parent, ok := it.snapshot.entities[*newParentID]
		if !ok || parent.EntityKind() != target.EntityKind() {
			it.mu.Unlock()
			return
		}
	}

	siblings := orderedSiblings(it.snapshot.entities, target.EntityKind(), newParentID, &id)
	if index < 0 {
		index = 0
	}
	if index > len(siblings) {
		index = len(siblings)
	}

	reordered := make([]entities.Entity, 0, len(siblings)+1)
	reordered = append(reordered, siblings[:index]...)
	reordered = append(reordered, target)
	reordered = append(reordered, siblings[index:]...)

	next := it.snapshot.cloneEntities()
	for i, sibling := range reordered {
		if !sameParent(sibling.Parent(), newParentID) || sibling.SortKey() != i {
			next[sibling.EntityID()] = sibling.Reposition(newParentID, i)
		}
	}
	snap := it.commitLocked(next, it.snapshot.trip)
	it.mu.Unlock()

	it.notify(snap)
}

// SetTrip installs the trip record
func (it *Itinerary) SetTrip(trip *entities.Trip) {
	it.mu.Lock()
	var t *entities.Trip
	if trip != nil {
		t = trip.Clone()
	}
	snap := it.commitLocked(it.snapshot.cloneEntities(), t)
	it.mu.Unlock()

	it.notify(snap)
}

// UpdateTrip merges a partial update into the trip record. A no-op when
// no trip is loaded.
func (it *Itinerary) UpdateTrip(patch entities.TripPatch) {
	it.mu.Lock()

	if it.snapshot.trip == nil {
		it.mu.Unlock()
		return
	}
	snap := it.commitLocked(it.snapshot.cloneEntities(), it.snapshot.trip.ApplyPatch(patch))
	it.mu.Unlock()

	it.notify(snap)
}

// Hydrate bulk-replaces the whole collection and trip record. It is the
// single apply path for remote state and seed data.
func (it *Itinerary) Hydrate(list []entities.Entity, trip *entities.Trip) {
	it.mu.Lock()
	it.snapshot = NewSnapshot(list, trip)
	snap := it.snapshot
	it.mu.Unlock()

	it.notify(snap)
}

// commitLocked installs a new snapshot; callers hold the write lock
func (it *Itinerary) commitLocked(ents map[valueobjects.EntityID]entities.Entity, trip *entities.Trip) *Snapshot {
	it.snapshot = &Snapshot{entities: ents, trip: trip}
	return it.snapshot
}

// notify fans the snapshot out to subscribers outside the store lock
func (it *Itinerary) notify(snap *Snapshot) {
	it.subMu.Lock()
	fns := make([]func(*Snapshot), 0, len(it.subscribers))
	for _, fn := range it.subscribers {
		fns = append(fns, fn)
	}
	it.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// checkParentKind validates that a prospective parent exists and matches
// the child's kind; callers hold the lock
func (it *Itinerary) checkParentKind(parentID *valueobjects.EntityID, kind entities.Kind) error {
	if parentID == nil {
		return nil
	}
	parent, ok := it.snapshot.entities[*parentID]
	if !ok {
		return pkgerrors.NewNotFoundError("parent entity")
	}
	if parent.EntityKind() != kind {
		return pkgerrors.NewValidationError("parent must be of the same kind")
	}
	return nil
}

// nextSortKey computes max sibling sort key + 1, or 0 when there are no
// siblings
func nextSortKey(ents map[valueobjects.EntityID]entities.Entity, kind entities.Kind, parentID *valueobjects.EntityID) int {
	next := 0
	for _, e := range ents {
		if e.EntityKind() != kind || !sameParent(e.Parent(), parentID) {
			continue
		}
		if e.SortKey()+1 > next {
			next = e.SortKey() + 1
		}
	}
	return next
}

// orderedSiblings lists the sort-ordered children of parentID of the
// given kind, excluding the entity named by exclude
func orderedSiblings(ents map[valueobjects.EntityID]entities.Entity, kind entities.Kind, parentID *valueobjects.EntityID, exclude *valueobjects.EntityID) []entities.Entity {
	siblings := []entities.Entity{}
	for _, e := range ents {
		if e.EntityKind() != kind || !sameParent(e.Parent(), parentID) {
			continue
		}
		if exclude != nil && e.EntityID().Equals(*exclude) {
			continue
		}
		siblings = append(siblings, e)
	}
	sort.SliceStable(siblings, func(i, j int) bool {
		if siblings[i].SortKey() != siblings[j].SortKey() {
			return siblings[i].SortKey() < siblings[j].SortKey()
		}
		return siblings[i].EntityID().String() < siblings[j].EntityID().String()
	})
	return siblings
}

// wouldCycle walks ancestors of the proposed parent; if the moved
// entity's id appears, committing the move would create a cycle. The walk
// is bounded and visited-guarded to tolerate malformed data.
func wouldCycle(ents map[valueobjects.EntityID]entities.Entity, id valueobjects.EntityID, newParentID *valueobjects.EntityID) bool {
	if newParentID == nil {
		return false
	}
	if newParentID.Equals(id) {
		return true
	}

	visited := map[valueobjects.EntityID]bool{}
	current := newParentID
	for steps := 0; current != nil && steps < maxAncestorWalk; steps++ {
		if current.Equals(id) {
			return true
		}
		if visited[*current] {
			return false
		}
		visited[*current] = true

		parent, ok := ents[*current]
		if !ok {
			return false
		}
		current = parent.Parent()
	}
	return false
}

// collectSubtree gathers the entity and its transitive same-kind
// descendants by BFS over the parent chain
func collectSubtree(ents map[valueobjects.EntityID]entities.Entity, root entities.Entity) map[valueobjects.EntityID]bool {
	doomed := map[valueobjects.EntityID]bool{root.EntityID(): true}
	queue := []valueobjects.EntityID{root.EntityID()}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, e := range ents {
			if e.EntityKind() != root.EntityKind() {
				continue
			}
			p := e.Parent()
			if p == nil || !p.Equals(current) || doomed[e.EntityID()] {
				continue
			}
			doomed[e.EntityID()] = true
			queue = append(queue, e.EntityID())
		}
	}
	return doomed
}

// sameParent compares two nullable parent references by value
func sameParent(a, b *valueobjects.EntityID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(*b)
}
