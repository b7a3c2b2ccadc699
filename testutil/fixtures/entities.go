// Package fixtures provides entity types shared by repository tests. Each
// type exercises a different identity strategy.
package fixtures

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"repokit/pkg/domain"
)

// Widget is a value entity with an exact "Id" field and validation rules.
type Widget struct {
	Id      string            `json:"id"`
	Name    string            `json:"name"`
	Qty     int               `json:"qty"`
	Tags    []string          `json:"tags,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
	Updated *time.Time        `json:"updated,omitempty"`
}

// WidgetKind is the kind of Widget.
const WidgetKind domain.Kind = "widget"

// Kind implements domain.Entity.
func (Widget) Kind() domain.Kind { return WidgetKind }

// CloneEntity implements domain.Entity.
func (w Widget) CloneEntity() domain.Entity {
	cp := w
	cp.Tags = slices.Clone(w.Tags)
	cp.Meta = maps.Clone(w.Meta)
	if w.Updated != nil {
		t := *w.Updated
		cp.Updated = &t
	}
	return cp
}

// Validate implements domain.Validatable.
func (w Widget) Validate() []string {
	var msgs []string
	if w.Name == "" {
		msgs = append(msgs, "name is required")
	}
	if w.Qty < 0 {
		msgs = append(msgs, "qty must not be negative")
	}
	return msgs
}

// Note is a pointer entity whose identity field is spelled "ID".
type Note struct {
	ID     uuid.UUID `json:"id"`
	Body   string    `json:"body"`
	Labels []string  `json:"labels,omitempty"`
}

// NoteKind is the kind of *Note.
const NoteKind domain.Kind = "note"

// Kind implements domain.Entity.
func (*Note) Kind() domain.Kind { return NoteKind }

// CloneEntity implements domain.Entity.
func (n *Note) CloneEntity() domain.Entity {
	cp := *n
	cp.Labels = slices.Clone(n.Labels)
	return &cp
}

// Account marks its identity with a struct tag.
type Account struct {
	Login string `json:"login" repo:"id"`
	Email string `json:"email"`
}

// AccountKind is the kind of Account.
const AccountKind domain.Kind = "account"

// Kind implements domain.Entity.
func (Account) Kind() domain.Kind { return AccountKind }

// CloneEntity implements domain.Entity.
func (a Account) CloneEntity() domain.Entity { return a }

// Session exposes its identity explicitly.
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// SessionKind is the kind of Session.
const SessionKind domain.Kind = "session"

// Kind implements domain.Entity.
func (Session) Kind() domain.Kind { return SessionKind }

// CloneEntity implements domain.Entity.
func (s Session) CloneEntity() domain.Entity { return s }

// EntityID implements domain.Identifiable.
func (s Session) EntityID() any { return s.Token }

// Registry returns a registry holding every fixture kind.
func Registry() *domain.Registry {
	r := domain.NewRegistry()
	domain.Register[Widget](r)
	domain.Register[*Note](r)
	domain.Register[Account](r)
	domain.Register[Session](r)
	return r
}
