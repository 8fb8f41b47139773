// Package memory provides an in-memory shared-document implementation.
// It backs tests and single-process multi-client sessions; every
// reconciler attached to one Document observes the others' batches.
package memory

import (
	"encoding/json"
	"sync"

	"tripgraph/application/ports"
)

// Document is an observable keyed entity collection plus a single trip
// record. Batches apply atomically under one lock; concurrent writers to
// the same key resolve last-write-wins by apply order, which is the
// merge policy the reconciler assumes of its shared document.
type Document struct {
	mu       sync.RWMutex
	entities map[string]json.RawMessage
	trip     json.RawMessage
	hasTrip  bool

	subMu     sync.Mutex
	subs      map[int]func()
	nextSubID int
}

// NewDocument creates an empty document
func NewDocument() *Document {
	return &Document{
		entities: map[string]json.RawMessage{},
		subs:     map[int]func(){},
	}
}

// EntityKeys enumerates the ids present in the entity collection
func (d *Document) EntityKeys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]string, 0, len(d.entities))
	for key := range d.entities {
		keys = append(keys, key)
	}
	return keys
}

// GetEntity reads one serialized entity record
func (d *Document) GetEntity(id string) (json.RawMessage, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	raw, ok := d.entities[id]
	return raw, ok
}

// GetTrip reads the serialized trip record
func (d *Document) GetTrip() (json.RawMessage, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.hasTrip {
		return nil, false
	}
	return d.trip, true
}

// Snapshot copies the full document state. The relay uses it to serve
// the current state to a joining client.
func (d *Document) Snapshot() (map[string]json.RawMessage, json.RawMessage, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entities := make(map[string]json.RawMessage, len(d.entities))
	for key, raw := range d.entities {
		entities[key] = raw
	}
	return entities, d.trip, d.hasTrip
}

// Apply commits the batch atomically and notifies all subscribers,
// including the writer. Notification runs outside the document lock.
func (d *Document) Apply(batch ports.Batch) error {
	d.mu.Lock()
	for key, raw := range batch.PutEntities {
		d.entities[key] = raw
	}
	for _, key := range batch.DeleteEntities {
		delete(d.entities, key)
	}
	if batch.Trip != nil {
		d.trip = batch.Trip
		d.hasTrip = true
	}
	d.mu.Unlock()

	d.notify()
	return nil
}

// Subscribe registers a change callback and returns an unsubscribe
// function
func (d *Document) Subscribe(fn func()) func() {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	id := d.nextSubID
	d.nextSubID++
	d.subs[id] = fn

	return func() {
		d.subMu.Lock()
		defer d.subMu.Unlock()
		delete(d.subs, id)
	}
}

func (d *Document) notify() {
	d.subMu.Lock()
	fns := make([]func(), 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
