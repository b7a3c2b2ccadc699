package domain

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Decoder rebuilds an entity of a registered kind from its JSON payload.
type Decoder func(payload []byte) (Entity, error)

// Registry maps kinds to decoders. Durable providers and the zone archive use
// it to turn stored payloads back into typed entities.
type Registry struct {
	mu       sync.RWMutex
	decoders map[Kind]Decoder
	order    []Kind
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[Kind]Decoder)}
}

// Register adds T to r using encoding/json and returns its kind. Registering
// the same kind twice replaces the decoder.
func Register[T Entity](r *Registry) Kind {
	kind := KindOf[T]()
	r.Add(kind, func(payload []byte) (Entity, error) {
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return v, nil
	})
	return kind
}

// Add registers a custom decoder for kind.
func (r *Registry) Add(kind Kind, dec Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.decoders[kind]; !ok {
		r.order = append(r.order, kind)
	}
	r.decoders[kind] = dec
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.decoders[kind]
	return ok
}

// Kinds returns registered kinds in registration order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Kind(nil), r.order...)
}

// Decode rebuilds an entity of kind from payload.
func (r *Registry) Decode(kind Kind, payload []byte) (Entity, error) {
	r.mu.RLock()
	dec, ok := r.decoders[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return dec(payload)
}
