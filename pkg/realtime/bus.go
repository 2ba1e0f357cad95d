package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Message is the unit of delivery on the bus. Payload is raw JSON so local
// and cross-context subscribers observe the exact same bytes. Origin
// identifies the publishing bus instance; a bus drops transport deliveries
// carrying its own origin, because Redis Pub/Sub (unlike a browser
// BroadcastChannel) echoes messages back to the publisher.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Origin  string          `json:"origin,omitempty"`
}

// Handler receives the payload of a matching event. Handlers must be
// non-blocking and idempotent: the bus may invoke them from Publish callers
// and from the transport receive goroutine, and the same logical change can
// arrive more than once.
type Handler func(payload json.RawMessage)

// Bus is an in-process + cross-context publish/subscribe channel.
// The zero value is not usable; construct with NewBus.
// A Bus is safe for concurrent use from multiple goroutines.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string]map[int]Handler
	nextID    int

	origin    string
	transport Transport
	cancel    context.CancelFunc
	closeOnce sync.Once
	recvDone  chan struct{}
}

// NewBus creates a bus on top of the given transport and starts its receive
// loop. A nil transport degrades the bus to local loopback only: same-process
// subscribers still fire, other contexts see nothing.
func NewBus(transport Transport) *Bus {
	b := &Bus{
		listeners: make(map[string]map[int]Handler),
		origin:    uuid.New().String(),
		transport: transport,
		recvDone:  make(chan struct{}),
	}

	if transport == nil {
		close(b.recvDone)
		return b
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	ch, err := transport.Receive(ctx)
	if err != nil {
		// Transport cannot deliver; keep loopback working.
		cancel()
		b.transport = nil
		close(b.recvDone)
		return b
	}

	go func() {
		defer close(b.recvDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg.Origin == b.origin {
					continue
				}
				b.emit(msg.Type, msg.Payload)
			}
		}
	}()

	return b
}

// Publish delivers an event to all local subscribers of the type
// synchronously, then hands it to the transport for other contexts.
// Publish never fails: marshal and transport errors are swallowed, and a
// publish with no subscribers is a no-op.
func (b *Bus) Publish(eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}

	// Local loopback first so same-process reactions see the change
	// immediately, mirroring the cross-tab broadcast semantics.
	b.emit(eventType, raw)

	if b.transport == nil {
		return
	}

	msg := Message{Type: eventType, Payload: raw, Origin: b.origin}
	go func() {
		_ = b.transport.Send(context.Background(), msg)
	}()
}

// Subscribe registers a handler for an event type and returns an idempotent
// unsubscribe function. Multiple handlers per type are allowed.
func (b *Bus) Subscribe(eventType string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.listeners[eventType]
	if !ok {
		set = make(map[int]Handler)
		b.listeners[eventType] = set
	}
	id := b.nextID
	b.nextID++
	set[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			b.unsubscribe(eventType, id)
		})
	}
}

func (b *Bus) unsubscribe(eventType string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.listeners[eventType]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(b.listeners, eventType)
	}
}

// emit invokes every handler registered for the type. A panicking handler is
// isolated: it never propagates and never blocks delivery to the others.
func (b *Bus) emit(eventType string, payload json.RawMessage) {
	b.mu.RLock()
	set := b.listeners[eventType]
	handlers := make([]Handler, 0, len(set))
	for _, h := range set {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() { _ = recover() }()
			h(payload)
		}()
	}
}

// Close stops the transport receive loop and closes the transport.
// Safe to call multiple times - subsequent calls are no-ops.
// Local subscribers remain registered but will no longer receive
// cross-context events.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
		}
		<-b.recvDone
		if b.transport != nil {
			_ = b.transport.Close()
		}
	})
	return nil
}
