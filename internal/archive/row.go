package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"repokit/pkg/domain"
	"repokit/pkg/query"
)

var (
	_ domain.Identifiable = Row{}
	_ query.Fielder       = Row{}
)

// Row is an entity of any kind kept as its JSON payload. It lets tools move
// rows between providers and archives without the Go types that wrote them.
// The identity is read from the payload's "id" key, matched case-insensitively.
type Row struct {
	kind    domain.Kind
	id      any
	payload json.RawMessage
}

// NewRow parses payload as a row of kind.
func NewRow(kind domain.Kind, payload []byte) (Row, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Row{}, fmt.Errorf("decode %s: %w", kind, err)
	}
	id, ok := fields["id"]
	if !ok {
		for k, v := range fields {
			if strings.EqualFold(k, "id") {
				id, ok = v, true
				break
			}
		}
	}
	if !ok || id == nil {
		return Row{}, fmt.Errorf("decode %s: %w: payload has no id", kind, domain.ErrIdentityNotFound)
	}
	switch id.(type) {
	case string, json.Number, bool:
	default:
		return Row{}, fmt.Errorf("decode %s: %w: id of type %T is not a scalar", kind, domain.ErrIdentityNotFound, id)
	}
	return Row{kind: kind, id: id, payload: slices.Clone(payload)}, nil
}

// Kind returns the kind the row was decoded as.
func (r Row) Kind() domain.Kind { return r.kind }

// EntityID returns the identity read from the payload.
func (r Row) EntityID() any { return r.id }

// CloneEntity copies the payload.
func (r Row) CloneEntity() domain.Entity {
	r.payload = slices.Clone(r.payload)
	return r
}

// MarshalJSON returns the payload unchanged.
func (r Row) MarshalJSON() ([]byte, error) {
	return slices.Clone(r.payload), nil
}

// Field exposes top-level payload keys to filters and ordering.
func (r Row) Field(name string) (any, bool) {
	var fields map[string]any
	if err := json.Unmarshal(r.payload, &fields); err != nil {
		return nil, false
	}
	v, ok := fields[name]
	return v, ok
}

// Payload returns a copy of the raw JSON.
func (r Row) Payload() json.RawMessage { return slices.Clone(r.payload) }

// RawRegistry registers kinds that decode to Row values.
func RawRegistry(kinds ...domain.Kind) *domain.Registry {
	reg := domain.NewRegistry()
	for _, kind := range kinds {
		reg.Add(kind, func(payload []byte) (domain.Entity, error) {
			return NewRow(kind, payload)
		})
	}
	return reg
}

// DocumentKinds lists the kinds present in doc in sorted order.
func DocumentKinds(doc Document) []domain.Kind {
	kinds := make([]domain.Kind, 0, len(doc.Kinds))
	for kind := range doc.Kinds {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}
