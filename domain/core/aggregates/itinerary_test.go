package aggregates

import (
	"math/rand"
	"testing"

	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	pkgerrors "tripgraph/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Itinerary {
	t.Helper()

	store := NewItinerary("user-1")
	trip, err := entities.NewTrip("Japan 2026", entities.DateRange{Start: "2026-04-01", End: "2026-04-14"}, "Asia/Tokyo", "user-1")
	require.NoError(t, err)
	store.SetTrip(trip)
	return store
}

func TestAddPlaceRequiresTrip(t *testing.T) {
	store := NewItinerary("user-1")

	_, err := store.AddPlace("Tokyo", nil)
	assert.Error(t, err)
	assert.True(t, pkgerrors.IsPrecondition(err))
}

func TestAddPlaceAssignsSiblingOrder(t *testing.T) {
	store := newTestStore(t)

	a, err := store.AddPlace("Tokyo", nil)
	require.NoError(t, err)
	b, err := store.AddPlace("Kyoto", nil)
	require.NoError(t, err)

	snap := store.Snapshot()
	first, _ := snap.Entity(a)
	second, _ := snap.Entity(b)
	assert.Equal(t, 0, first.SortKey())
	assert.Equal(t, 1, second.SortKey())
}

func TestAddPlaceRejectsExperienceParent(t *testing.T) {
	store := newTestStore(t)

	expID, err := store.AddExperience("Food tour", nil)
	require.NoError(t, err)

	_, err = store.AddPlace("Tokyo", &expID)
	assert.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestUpdatePlaceMergesPartial(t *testing.T) {
	store := newTestStore(t)

	id, err := store.AddPlace("Tokyo", nil)
	require.NoError(t, err)

	coords, err := valueobjects.NewCoordinates(35.6762, 139.6503)
	require.NoError(t, err)
	name := "Tokyo Station"
	store.UpdatePlace(id, entities.PlacePatch{Name: &name, Coords: &coords})

	got, _ := store.Snapshot().Entity(id)
	updated := got.(*entities.Place)
	assert.Equal(t, "Tokyo Station", updated.Name)
	require.NotNil(t, updated.Coords)
	assert.True(t, coords.Equals(*updated.Coords))
}

func TestUpdatePlaceIgnoresWrongKind(t *testing.T) {
	store := newTestStore(t)

	expID, err := store.AddExperience("Food tour", nil)
	require.NoError(t, err)

	name := "renamed"
	before := store.Snapshot()
	store.UpdatePlace(expID, entities.PlacePatch{Name: &name})

	// Wrong-kind update is a silent no-op; the snapshot is unchanged
	assert.Same(t, before, store.Snapshot())
}

func TestUpdateDoesNotMutatePriorSnapshot(t *testing.T) {
	store := newTestStore(t)

	id, err := store.AddPlace("Tokyo", nil)
	require.NoError(t, err)
	before := store.Snapshot()

	name := "Osaka"
	store.UpdatePlace(id, entities.PlacePatch{Name: &name})

	old, _ := before.Entity(id)
	assert.Equal(t, "Tokyo", old.(*entities.Place).Name)
}

func TestRemoveEntityCascades(t *testing.T) {
	store := newTestStore(t)

	root, err := store.AddPlace("Japan", nil)
	require.NoError(t, err)
	child, err := store.AddPlace("Tokyo", &root)
	require.NoError(t, err)
	grandchild, err := store.AddPlace("Shibuya", &child)
	require.NoError(t, err)
	other, err := store.AddPlace("Korea", nil)
	require.NoError(t, err)

	// An experience is a different namespace and must survive even with
	// a matching parent-shaped id chain
	exp, err := store.AddExperience("Flight", nil)
	require.NoError(t, err)

	store.RemoveEntity(root)

	snap := store.Snapshot()
	_, rootAlive := snap.Entity(root)
	_, childAlive := snap.Entity(child)
	_, grandchildAlive := snap.Entity(grandchild)
	_, otherAlive := snap.Entity(other)
	_, expAlive := snap.Entity(exp)

	assert.False(t, rootAlive)
	assert.False(t, childAlive)
	assert.False(t, grandchildAlive)
	assert.True(t, otherAlive)
	assert.True(t, expAlive)
}

func TestReparentAppendsUnderNewParent(t *testing.T) {
	store := newTestStore(t)

	a, err := store.AddPlace("Tokyo", nil)
	require.NoError(t, err)
	b, err := store.AddPlace("Kyoto", nil)
	require.NoError(t, err)
	child, err := store.AddPlace("Gion", &a)
	require.NoError(t, err)

	store.Reparent(child, &b)

	got, _ := store.Snapshot().Entity(child)
	require.NotNil(t, got.Parent())
	assert.True(t, got.Parent().Equals(b))
	assert.Equal(t, 0, got.SortKey())
}

func TestMoveToReordersRoots(t *testing.T) {
	store := newTestStore(t)

	a, err := store.AddExperience("A", nil)
	require.NoError(t, err)
	b, err := store.AddExperience("B", nil)
	require.NoError(t, err)

	store.MoveTo(a, nil, 1)

	snap := store.Snapshot()
	gotA, _ := snap.Entity(a)
	gotB, _ := snap.Entity(b)
	assert.Equal(t, 0, gotB.SortKey())
	assert.Equal(t, 1, gotA.SortKey())
}

func TestMoveToClampsIndex(t *testing.T) {
	store := newTestStore(t)

	a, err := store.AddPlace("A", nil)
	require.NoError(t, err)
	_, err = store.AddPlace("B", nil)
	require.NoError(t, err)

	store.MoveTo(a, nil, 99)

	got, _ := store.Snapshot().Entity(a)
	assert.Equal(t, 1, got.SortKey())

	store.MoveTo(a, nil, -5)
	got, _ = store.Snapshot().Entity(a)
	assert.Equal(t, 0, got.SortKey())
}

func TestMoveToRejectsSelfParent(t *testing.T) {
	store := newTestStore(t)

	a, err := store.AddPlace("A", nil)
	require.NoError(t, err)

	store.MoveTo(a, &a, 0)

	got, _ := store.Snapshot().Entity(a)
	assert.Nil(t, got.Parent())
}

func TestMoveToRejectsDescendantParent(t *testing.T) {
	store := newTestStore(t)

	root, err := store.AddPlace("root", nil)
	require.NoError(t, err)
	mid, err := store.AddPlace("mid", &root)
	require.NoError(t, err)
	leaf, err := store.AddPlace("leaf", &mid)
	require.NoError(t, err)

	store.MoveTo(root, &leaf, 0)

	got, _ := store.Snapshot().Entity(root)
	assert.Nil(t, got.Parent())
}

func TestMoveToRenumbersSiblingsConsecutively(t *testing.T) {
	store := newTestStore(t)

	ids := make([]valueobjects.EntityID, 0, 4)
	for _, name := range []string{"a", "b", "c", "d"} {
		id, err := store.AddPlace(name, nil)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	// Move "d" to the front
	store.MoveTo(ids[3], nil, 0)

	snap := store.Snapshot()
	wantOrder := []valueobjects.EntityID{ids[3], ids[0], ids[1], ids[2]}
	for i, id := range wantOrder {
		got, _ := snap.Entity(id)
		assert.Equal(t, i, got.SortKey())
	}
}

func TestHydrateReplacesCollection(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddPlace("stale", nil)
	require.NoError(t, err)

	trip, err := entities.NewTrip("Replacement", entities.DateRange{Start: "2026-05-01", End: "2026-05-10"}, "Europe/Paris", "user-2")
	require.NoError(t, err)
	place, err := entities.NewPlace(trip.ID, "Paris", nil, "user-2")
	require.NoError(t, err)

	store.Hydrate([]entities.Entity{place}, trip)

	snap := store.Snapshot()
	assert.Equal(t, 1, snap.Len())
	_, ok := snap.Entity(place.ID)
	assert.True(t, ok)
	assert.Equal(t, "Replacement", snap.Trip().Name)
}

func TestSubscribeNotifiesOnMutation(t *testing.T) {
	store := newTestStore(t)

	var seen []*Snapshot
	unsubscribe := store.Subscribe(func(s *Snapshot) {
		seen = append(seen, s)
	})

	_, err := store.AddPlace("Tokyo", nil)
	require.NoError(t, err)
	assert.Len(t, seen, 1)
	assert.Same(t, store.Snapshot(), seen[0])

	unsubscribe()
	_, err = store.AddPlace("Kyoto", nil)
	require.NoError(t, err)
	assert.Len(t, seen, 1)
}

// TestRandomMovesPreserveAcyclicity runs arbitrary reparent/move
// sequences and verifies every parent chain still terminates at a root.
func TestRandomMovesPreserveAcyclicity(t *testing.T) {
	store := newTestStore(t)
	rng := rand.New(rand.NewSource(42))

	ids := make([]valueobjects.EntityID, 0, 20)
	for i := 0; i < 20; i++ {
		var parent *valueobjects.EntityID
		if len(ids) > 0 && rng.Intn(2) == 0 {
			parent = &ids[rng.Intn(len(ids))]
		}
		id, err := store.AddPlace("p", parent)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	for i := 0; i < 500; i++ {
		target := ids[rng.Intn(len(ids))]
		var parent *valueobjects.EntityID
		if rng.Intn(4) > 0 {
			parent = &ids[rng.Intn(len(ids))]
		}
		if rng.Intn(2) == 0 {
			store.MoveTo(target, parent, rng.Intn(6)-1)
		} else {
			store.Reparent(target, parent)
		}
	}

	snap := store.Snapshot()
	for _, id := range ids {
		visited := map[valueobjects.EntityID]bool{}
		current := &id
		for current != nil {
			require.False(t, visited[*current], "cycle detected at %s", current.String())
			visited[*current] = true
			e, ok := snap.Entity(*current)
			require.True(t, ok)
			current = e.Parent()
		}
	}
}
