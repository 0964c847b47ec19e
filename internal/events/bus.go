// Package events carries refresh signals between the parts of the gateway that show
// the same data. A mutation publishes a signal; anything displaying that topic for
// the same form subscribes and re-fetches.
package events

import (
	"context"
	"fmt"
	"sync"
)

// Topic names the kind of data that changed.
type Topic string

const (
	TopicRecords Topic = "records"
	TopicFields  Topic = "fields"
	TopicForms   Topic = "forms"
)

// Topics lists every topic.
var Topics = []Topic{TopicRecords, TopicFields, TopicForms}

// Signal announces that data for a form changed. Version increases with every
// publish for the same topic and form.
type Signal struct {
	Topic   Topic  `json:"topic"`
	FormID  int64  `json:"form_id"`
	Version uint64 `json:"version"`
}

// Handler reacts to a signal. Handlers run on the publisher's goroutine for the
// memory bus and on the subscription goroutine for the redis bus; they must not block.
type Handler func(Signal)

// Bus publishes and delivers refresh signals.
type Bus interface {
	Publish(ctx context.Context, topic Topic, formID int64) (Signal, error)
	Subscribe(topic Topic, handler Handler) (unsubscribe func())
}

type registry struct {
	mu       sync.RWMutex
	next     int
	handlers map[Topic]map[int]Handler
}

func newRegistry() *registry {
	return &registry{handlers: map[Topic]map[int]Handler{}}
}

func (r *registry) add(topic Topic, h Handler) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.next
	r.next++
	if r.handlers[topic] == nil {
		r.handlers[topic] = map[int]Handler{}
	}
	r.handlers[topic][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.handlers[topic], id)
		})
	}
}

func (r *registry) dispatch(sig Signal) {
	r.mu.RLock()
	handlers := make([]Handler, 0, len(r.handlers[sig.Topic]))
	for _, h := range r.handlers[sig.Topic] {
		handlers = append(handlers, h)
	}
	r.mu.RUnlock()
	for _, h := range handlers {
		h(sig)
	}
}

func versionKey(topic Topic, formID int64) string {
	return fmt.Sprintf("%s:%d", topic, formID)
}

// MemoryBus delivers signals within the process.
type MemoryBus struct {
	registry *registry

	mu       sync.Mutex
	versions map[string]uint64
}

// NewMemoryBus constructs an in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{registry: newRegistry(), versions: map[string]uint64{}}
}

// Publish bumps the version for (topic, formID) and delivers the signal synchronously.
func (b *MemoryBus) Publish(_ context.Context, topic Topic, formID int64) (Signal, error) {
	b.mu.Lock()
	key := versionKey(topic, formID)
	b.versions[key]++
	sig := Signal{Topic: topic, FormID: formID, Version: b.versions[key]}
	b.mu.Unlock()

	b.registry.dispatch(sig)
	return sig, nil
}

// Subscribe registers handler for topic.
func (b *MemoryBus) Subscribe(topic Topic, handler Handler) func() {
	return b.registry.add(topic, handler)
}

// Version returns the current version for (topic, formID).
func (b *MemoryBus) Version(topic Topic, formID int64) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.versions[versionKey(topic, formID)]
}
