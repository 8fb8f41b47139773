// Package remote provides a relay-backed shared-document client. It
// keeps a local replica of the document, pushes batches to the relay
// over WebSocket, and folds relayed batches from other clients back
// into the replica.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"tripgraph/application/ports"
	"tripgraph/infrastructure/config"
	"tripgraph/pkg/wire"
)

const writeWait = 10 * time.Second

// Document is a shared document whose authoritative copy lives on a
// relay. Reads are served from the local replica; Apply writes through
// to the relay. The replica converges with the relay's copy: on join
// the relay sends full state, after that only batches flow.
type Document struct {
	url    string
	cfg    config.SyncConfig
	logger *zap.Logger

	breaker *gobreaker.CircuitBreaker

	mu       sync.RWMutex
	entities map[string]json.RawMessage
	trip     json.RawMessage
	hasTrip  bool

	connMu sync.Mutex
	conn   *gorilla.Conn

	subMu     sync.Mutex
	subs      map[int]func()
	nextSubID int

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	hydrate chan struct{}
	once    sync.Once
}

// NewDocument creates a client for the relay at the given WebSocket URL
func NewDocument(url string, cfg config.SyncConfig, logger *zap.Logger) *Document {
	ctx, cancel := context.WithCancel(context.Background())

	d := &Document{
		url:      url,
		cfg:      cfg,
		logger:   logger,
		entities: map[string]json.RawMessage{},
		subs:     map[int]func(){},
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		hydrate:  make(chan struct{}),
	}

	d.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "relay-write",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return d
}

// Connect dials the relay and blocks until the first full-state
// message arrives or the context expires. The connection is then
// maintained in the background with exponential redial backoff.
func (d *Document) Connect(ctx context.Context) error {
	go d.run()

	select {
	case <-d.hydrate:
		return nil
	case <-ctx.Done():
		d.Close()
		return fmt.Errorf("timed out waiting for relay state: %w", ctx.Err())
	}
}

// Close stops the background connection loop
func (d *Document) Close() {
	d.cancel()

	d.connMu.Lock()
	if d.conn != nil {
		d.conn.Close()
	}
	d.connMu.Unlock()

	<-d.done
}

// EntityKeys enumerates the ids present in the local replica
func (d *Document) EntityKeys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]string, 0, len(d.entities))
	for key := range d.entities {
		keys = append(keys, key)
	}
	return keys
}

// GetEntity reads one serialized entity record from the replica
func (d *Document) GetEntity(id string) (json.RawMessage, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	raw, ok := d.entities[id]
	return raw, ok
}

// GetTrip reads the serialized trip record from the replica
func (d *Document) GetTrip() (json.RawMessage, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.hasTrip {
		return nil, false
	}
	return d.trip, true
}

// Apply commits the batch to the local replica, notifies subscribers,
// and pushes the batch to the relay. A failed push leaves the replica
// ahead of the relay until the next reconnect rehydrates it.
func (d *Document) Apply(batch ports.Batch) error {
	d.applyLocal(batch)
	d.notify()

	data, err := json.Marshal(wire.NewBatchMessage(batch))
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	_, err = d.breaker.Execute(func() (interface{}, error) {
		return nil, d.writeMessage(data)
	})
	if err != nil {
		d.logger.Warn("Failed to push batch to relay", zap.Error(err))
		return fmt.Errorf("failed to push batch to relay: %w", err)
	}
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

// run dials the relay and pumps inbound messages until Close
func (d *Document) run() {
	defer close(d.done)

	backoff := d.cfg.ReconnectBackoff
	for {
		conn, _, err := gorilla.DefaultDialer.DialContext(d.ctx, d.url, nil)
		if err != nil {
			if d.ctx.Err() != nil {
				return
			}
			d.logger.Warn("Relay dial failed",
				zap.String("url", d.url),
				zap.Duration("retryIn", backoff),
				zap.Error(err),
			)
			select {
			case <-time.After(backoff):
			case <-d.ctx.Done():
				return
			}
			backoff *= 2
			if backoff > d.cfg.MaxReconnectBackoff {
				backoff = d.cfg.MaxReconnectBackoff
			}
			continue
		}

		d.connMu.Lock()
		d.conn = conn
		d.connMu.Unlock()

		d.logger.Info("Connected to relay", zap.String("url", d.url))
		backoff = d.cfg.ReconnectBackoff

		d.readLoop(conn)

		d.connMu.Lock()
		d.conn = nil
		d.connMu.Unlock()
		conn.Close()

		if d.ctx.Err() != nil {
			return
		}
		d.logger.Warn("Relay connection lost, reconnecting")
	}
}

// readLoop consumes messages from one connection until it fails
func (d *Document) readLoop(conn *gorilla.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if d.ctx.Err() == nil {
				d.logger.Warn("Relay read failed", zap.Error(err))
			}
			return
		}

		msg, err := wire.Decode(data)
		if err != nil {
			d.logger.Warn("Discarding malformed relay message", zap.Error(err))
			continue
		}

		switch msg.Type {
		case wire.TypeState:
			d.replaceState(msg)
		case wire.TypeBatch:
			d.applyLocal(msg.Batch())
		}
		d.notify()
	}
}

// replaceState swaps the replica for the relay's full state
func (d *Document) replaceState(msg *wire.Message) {
	d.mu.Lock()
	d.entities = make(map[string]json.RawMessage, len(msg.Entities))
	for key, raw := range msg.Entities {
		d.entities[key] = raw
	}
	d.trip = msg.Trip
	d.hasTrip = msg.Trip != nil
	d.mu.Unlock()

	d.once.Do(func() { close(d.hydrate) })
}

func (d *Document) applyLocal(batch ports.Batch) {
	d.mu.Lock()
	defer d.mu.Unlock()

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
}

func (d *Document) writeMessage(data []byte) error {
	d.connMu.Lock()
	defer d.connMu.Unlock()

	if d.conn == nil {
		return fmt.Errorf("not connected to relay")
	}
	d.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return d.conn.WriteMessage(gorilla.TextMessage, data)
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
