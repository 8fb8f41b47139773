package sync

import (
	"encoding/json"
	"testing"

	"tripgraph/application/ports"
	"tripgraph/domain/core/aggregates"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	"tripgraph/infrastructure/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSeededStore(t *testing.T, actor string) *aggregates.Itinerary {
	t.Helper()

	store := aggregates.NewItinerary(actor)
	trip, err := entities.NewTrip("Japan 2026", entities.DateRange{Start: "2026-04-01", End: "2026-04-14"}, "Asia/Tokyo", actor)
	require.NoError(t, err)
	store.SetTrip(trip)
	return store
}

func startReconciler(t *testing.T, store *aggregates.Itinerary, doc *memory.Document) *Reconciler {
	t.Helper()

	r := NewReconciler(store, doc, zap.NewNop())
	require.NoError(t, r.Start())
	t.Cleanup(r.Stop)
	return r
}

func TestStartSeedsEmptyDocument(t *testing.T) {
	doc := memory.NewDocument()
	store := newSeededStore(t, "alice")
	_, err := store.AddPlace("Tokyo", nil)
	require.NoError(t, err)

	r := startReconciler(t, store, doc)

	assert.Equal(t, StateSynced, r.State())
	assert.Len(t, doc.EntityKeys(), 1)
	_, hasTrip := doc.GetTrip()
	assert.True(t, hasTrip)
}

func TestStartHydratesFromPopulatedDocument(t *testing.T) {
	doc := memory.NewDocument()
	writer := newSeededStore(t, "alice")
	id, err := writer.AddPlace("Tokyo", nil)
	require.NoError(t, err)
	startReconciler(t, writer, doc)

	reader := aggregates.NewItinerary("bob")
	startReconciler(t, reader, doc)

	snap := reader.Snapshot()
	assert.Equal(t, 1, snap.Len())
	_, ok := snap.Entity(id)
	assert.True(t, ok)
	require.NotNil(t, snap.Trip())
	assert.Equal(t, "Japan 2026", snap.Trip().Name)
}

func TestLocalMutationPropagatesToPeer(t *testing.T) {
	doc := memory.NewDocument()
	alice := newSeededStore(t, "alice")
	startReconciler(t, alice, doc)

	bob := aggregates.NewItinerary("bob")
	startReconciler(t, bob, doc)

	id, err := alice.AddPlace("Kyoto", nil)
	require.NoError(t, err)

	got, ok := bob.Snapshot().Entity(id)
	require.True(t, ok)
	assert.Equal(t, "Kyoto", got.DisplayName())
}

func TestDeletePropagatesToPeer(t *testing.T) {
	doc := memory.NewDocument()
	alice := newSeededStore(t, "alice")
	root, err := alice.AddPlace("Japan", nil)
	require.NoError(t, err)
	child, err := alice.AddPlace("Tokyo", &root)
	require.NoError(t, err)
	startReconciler(t, alice, doc)

	bob := aggregates.NewItinerary("bob")
	startReconciler(t, bob, doc)
	assert.Equal(t, 2, bob.Snapshot().Len())

	alice.RemoveEntity(root)

	assert.Equal(t, 0, bob.Snapshot().Len())
	_, ok := bob.Snapshot().Entity(child)
	assert.False(t, ok)
}

func TestTripUpdatePropagates(t *testing.T) {
	doc := memory.NewDocument()
	alice := newSeededStore(t, "alice")
	startReconciler(t, alice, doc)

	bob := aggregates.NewItinerary("bob")
	startReconciler(t, bob, doc)

	name := "Japan, spring"
	alice.UpdateTrip(entities.TripPatch{Name: &name})

	require.NotNil(t, bob.Snapshot().Trip())
	assert.Equal(t, "Japan, spring", bob.Snapshot().Trip().Name)
}

// Applying a client's own echo must not mutate state further: after a
// round trip the snapshot reference is unchanged, because the remote
// state equals the local one and the hydrate path is skipped.
func TestOwnEchoIsIdempotent(t *testing.T) {
	doc := memory.NewDocument()
	alice := newSeededStore(t, "alice")
	startReconciler(t, alice, doc)

	_, err := alice.AddPlace("Tokyo", nil)
	require.NoError(t, err)
	settled := alice.Snapshot()

	// An empty batch re-notifies all subscribers; alice's reconciler
	// must recognize its own state and leave the store untouched.
	require.NoError(t, doc.Apply(ports.Batch{}))
	assert.Same(t, settled, alice.Snapshot())
}

// Two clients adding different entities while racing an initially empty
// document must both survive on every client.
func TestConcurrentAddsBothSurvive(t *testing.T) {
	doc := memory.NewDocument()

	alice := newSeededStore(t, "alice")
	startReconciler(t, alice, doc)
	bob := aggregates.NewItinerary("bob")
	startReconciler(t, bob, doc)

	aliceID, err := alice.AddPlace("X", nil)
	require.NoError(t, err)
	bobID, err := bob.AddPlace("X", nil)
	require.NoError(t, err)
	require.False(t, aliceID.Equals(bobID))

	for _, store := range []*aggregates.Itinerary{alice, bob} {
		snap := store.Snapshot()
		_, hasAlice := snap.Entity(aliceID)
		_, hasBob := snap.Entity(bobID)
		assert.True(t, hasAlice)
		assert.True(t, hasBob)
	}
}

func TestRemoteMalformedEntityIsSkipped(t *testing.T) {
	doc := memory.NewDocument()
	alice := newSeededStore(t, "alice")
	id, err := alice.AddPlace("Tokyo", nil)
	require.NoError(t, err)
	startReconciler(t, alice, doc)

	bob := aggregates.NewItinerary("bob")
	startReconciler(t, bob, doc)

	// A buggy peer writes garbage under a fresh key
	bad := valueobjects.NewEntityID().String()
	require.NoError(t, doc.Apply(ports.Batch{
		PutEntities: map[string]json.RawMessage{
			bad: json.RawMessage(`{"kind":"mystery"}`),
		},
	}))

	// The well-formed entity survives, the garbage is dropped
	snap := bob.Snapshot()
	_, ok := snap.Entity(id)
	assert.True(t, ok)
	assert.Equal(t, 1, snap.Len())
}
