// Package sync bridges the local itinerary store and the shared,
// eventually consistent document other clients edit concurrently.
package sync

import (
	"bytes"
	"encoding/json"
	gosync "sync"
	"sync/atomic"
	"time"

	"tripgraph/application/ports"
	"tripgraph/domain/core/aggregates"
	"tripgraph/domain/core/entities"
	"tripgraph/infrastructure/observability"

	"go.uber.org/zap"
)

// State tracks the reconciler's lifecycle
type State string

const (
	StateUninitialized State = "uninitialized"
	StateHydrating     State = "hydrating"
	StateSynced        State = "synced"
)

// checkpoint is the last state mirrored to or from the shared document,
// in serialized form. The reconciler owns the diffing checkpoint, never
// the entities themselves.
type checkpoint struct {
	entities map[string]json.RawMessage
	trip     json.RawMessage
}

// Reconciler keeps one client's itinerary store and the shared document
// convergent. Local mutations are diffed against the checkpoint and
// written out as one batch; remote changes are read whole and applied via
// a single hydrate, with outgoing sync suppressed for the duration so a
// change never loops.
//
// Echo suppression rests on a flag plus serialized-state equality rather
// than per-operation origin tags. That is acceptable for itinerary-sized
// graphs; very large graphs would want an operation log instead.
type Reconciler struct {
	store   *aggregates.Itinerary
	doc     ports.SharedDocument
	logger  *zap.Logger
	metrics *observability.Collector

	// suppressed covers every synchronous apply step in either
	// direction. Checked without the mutex because apply paths re-enter
	// the reconciler through store and document notifications.
	suppressed atomic.Bool

	mu         gosync.Mutex
	state      State
	checkpoint checkpoint

	unsubStore func()
	unsubDoc   func()
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithMetrics attaches a metrics collector
func WithMetrics(m *observability.Collector) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// NewReconciler creates a reconciler for the given store and document
func NewReconciler(store *aggregates.Itinerary, doc ports.SharedDocument, logger *zap.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  store,
		doc:    doc,
		logger: logger,
		state:  StateUninitialized,
		checkpoint: checkpoint{
			entities: map[string]json.RawMessage{},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the reconciler's current lifecycle state
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start performs first contact with the shared document and begins
// observing both sides. If the document already holds data the local
// store is hydrated from it; otherwise this client seeds the document
// with its local state. Two clients racing the seed path both succeed
// and the document's per-key last-write-wins merge decides survivors.
func (r *Reconciler) Start() error {
	r.mu.Lock()
	r.state = StateHydrating

	remote, remoteTrip, populated := r.readRemote()
	if populated {
		list, trip, err := decodeState(remote, remoteTrip, r.logger)
		if err != nil {
			r.mu.Unlock()
			return err
		}
		r.suppressed.Store(true)
		r.store.Hydrate(list, trip)
		r.suppressed.Store(false)
		r.checkpoint = checkpoint{entities: remote, trip: remoteTrip}
		if r.metrics != nil {
			r.metrics.SyncHydrateInits.Inc()
		}
		r.logger.Info("hydrated local store from shared document",
			zap.Int("entities", len(remote)))
	} else {
		local, localTrip, err := encodeSnapshot(r.store.Snapshot())
		if err != nil {
			r.mu.Unlock()
			return err
		}
		batch := ports.Batch{PutEntities: local, Trip: localTrip}
		if !batch.IsEmpty() {
			r.suppressed.Store(true)
			err = r.doc.Apply(batch)
			r.suppressed.Store(false)
			if err != nil {
				r.mu.Unlock()
				return err
			}
		}
		r.checkpoint = checkpoint{entities: local, trip: localTrip}
		if r.metrics != nil {
			r.metrics.SyncSeedInits.Inc()
		}
		r.logger.Info("seeded shared document from local store",
			zap.Int("entities", len(local)))
	}

	r.state = StateSynced
	r.mu.Unlock()

	r.unsubStore = r.store.Subscribe(r.onLocalChange)
	r.unsubDoc = r.doc.Subscribe(r.onRemoteChange)
	return nil
}

// Stop detaches the reconciler from both sides
func (r *Reconciler) Stop() {
	if r.unsubStore != nil {
		r.unsubStore()
		r.unsubStore = nil
	}
	if r.unsubDoc != nil {
		r.unsubDoc()
		r.unsubDoc = nil
	}
}

// onLocalChange diffs the new snapshot against the checkpoint and writes
// the delta to the shared document as one batch.
func (r *Reconciler) onLocalChange(snap *aggregates.Snapshot) {
	if r.suppressed.Load() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateSynced {
		return
	}

	started := time.Now()
	current, currentTrip, err := encodeSnapshot(snap)
	if err != nil {
		// Keep the checkpoint so the failed delta is retried on the
		// next local change.
		r.logger.Error("failed to serialize local snapshot", zap.Error(err))
		return
	}

	batch := diff(r.checkpoint, current, currentTrip)
	if batch.IsEmpty() {
		r.checkpoint = checkpoint{entities: current, trip: currentTrip}
		return
	}

	r.suppressed.Store(true)
	err = r.doc.Apply(batch)
	r.suppressed.Store(false)
	if err != nil {
		r.logger.Warn("failed to write sync batch to shared document", zap.Error(err))
		return
	}

	r.checkpoint = checkpoint{entities: current, trip: currentTrip}
	if r.metrics != nil {
		r.metrics.SyncPushes.Inc()
		r.metrics.EntitiesWritten.Add(float64(len(batch.PutEntities)))
		r.metrics.EntitiesDeleted.Add(float64(len(batch.DeleteEntities)))
		r.metrics.SyncPushDuration.Observe(time.Since(started).Seconds())
	}
	r.logger.Debug("pushed local changes to shared document",
		zap.Int("put", len(batch.PutEntities)),
		zap.Int("deleted", len(batch.DeleteEntities)),
		zap.Bool("trip", batch.Trip != nil))
}

// onRemoteChange reads the full remote state and, when it differs from
// the local snapshot, replaces the local collection via hydrate.
func (r *Reconciler) onRemoteChange() {
	if r.suppressed.Load() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateSynced {
		return
	}

	remote, remoteTrip, _ := r.readRemote()

	local, localTrip, err := encodeSnapshot(r.store.Snapshot())
	if err != nil {
		r.logger.Error("failed to serialize local snapshot", zap.Error(err))
		return
	}
	if statesEqual(remote, remoteTrip, local, localTrip) {
		r.checkpoint = checkpoint{entities: remote, trip: remoteTrip}
		return
	}

	list, trip, err := decodeState(remote, remoteTrip, r.logger)
	if err != nil {
		r.logger.Error("failed to decode remote state", zap.Error(err))
		return
	}

	// Suppression spans the whole synchronous apply, so the hydrate
	// notification cannot echo back out as a local change.
	r.suppressed.Store(true)
	r.store.Hydrate(list, trip)
	r.suppressed.Store(false)

	r.checkpoint = checkpoint{entities: remote, trip: remoteTrip}
	if r.metrics != nil {
		r.metrics.SyncPulls.Inc()
	}
	r.logger.Debug("applied remote state to local store",
		zap.Int("entities", len(remote)))
}

// readRemote reads the full entity and trip state from the document.
// populated reports whether the document holds any data at all.
func (r *Reconciler) readRemote() (map[string]json.RawMessage, json.RawMessage, bool) {
	records := map[string]json.RawMessage{}
	for _, key := range r.doc.EntityKeys() {
		if raw, ok := r.doc.GetEntity(key); ok {
			records[key] = raw
		}
	}
	trip, hasTrip := r.doc.GetTrip()
	if !hasTrip {
		trip = nil
	}
	return records, trip, len(records) > 0 || hasTrip
}

// encodeSnapshot serializes a snapshot into keyed records
func encodeSnapshot(snap *aggregates.Snapshot) (map[string]json.RawMessage, json.RawMessage, error) {
	records := make(map[string]json.RawMessage, snap.Len())
	for _, e := range snap.Entities() {
		raw, err := EncodeEntity(e)
		if err != nil {
			return nil, nil, err
		}
		records[e.EntityID().String()] = raw
	}

	var trip json.RawMessage
	if t := snap.Trip(); t != nil {
		raw, err := EncodeTrip(t)
		if err != nil {
			return nil, nil, err
		}
		trip = raw
	}
	return records, trip, nil
}

// decodeState reconstructs entities and trip from keyed records.
// Individual malformed entity records are logged and skipped so one bad
// peer cannot wedge the whole session; a malformed trip record fails the
// decode.
func decodeState(records map[string]json.RawMessage, tripRaw json.RawMessage, logger *zap.Logger) ([]entities.Entity, *entities.Trip, error) {
	list := make([]entities.Entity, 0, len(records))
	for key, raw := range records {
		e, err := DecodeEntity(raw)
		if err != nil {
			logger.Warn("skipping malformed entity record",
				zap.String("key", key), zap.Error(err))
			continue
		}
		list = append(list, e)
	}

	var trip *entities.Trip
	if tripRaw != nil {
		t, err := DecodeTrip(tripRaw)
		if err != nil {
			return nil, nil, err
		}
		trip = t
	}
	return list, trip, nil
}

// diff computes the batch that brings the checkpoint to the current
// serialized state: adds, content-changed overwrites, and deletes.
func diff(cp checkpoint, current map[string]json.RawMessage, currentTrip json.RawMessage) ports.Batch {
	batch := ports.Batch{PutEntities: map[string]json.RawMessage{}}

	for key, raw := range current {
		prev, existed := cp.entities[key]
		if !existed || !bytes.Equal(prev, raw) {
			batch.PutEntities[key] = raw
		}
	}
	for key := range cp.entities {
		if _, still := current[key]; !still {
			batch.DeleteEntities = append(batch.DeleteEntities, key)
		}
	}
	if currentTrip != nil && !bytes.Equal(cp.trip, currentTrip) {
		batch.Trip = currentTrip
	}
	return batch
}

// statesEqual compares two serialized states for full equality
func statesEqual(a map[string]json.RawMessage, aTrip json.RawMessage, b map[string]json.RawMessage, bTrip json.RawMessage) bool {
	if len(a) != len(b) || !bytes.Equal(aTrip, bTrip) {
		return false
	}
	for key, raw := range a {
		other, ok := b[key]
		if !ok || !bytes.Equal(raw, other) {
			return false
		}
	}
	return true
}
