// Package core implements the unit of work and the repository facade that
// commits staged changes through a storage provider.
package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"repokit/internal/infra/persistence/memory"
	"repokit/internal/logging"
	"repokit/pkg/domain"
	"repokit/pkg/query"
)

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used for operation outcomes.
func WithLogger(l logging.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetricsRecorder sets the recorder observing every operation.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(r *Repository) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithTracer sets the tracer wrapping every operation.
func WithTracer(t Tracer) Option {
	return func(r *Repository) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithClock sets the clock used to time operations.
func WithClock(c Clock) Option {
	return func(r *Repository) {
		if c != nil {
			r.clock = c
		}
	}
}

// Repository commits trackers through a provider and serves typed reads.
// It is safe for concurrent use when its provider is.
type Repository struct {
	provider domain.Provider
	logger   logging.Logger
	metrics  MetricsRecorder
	tracer   Tracer
	clock    Clock
}

// New constructs a repository over p. A nil provider gets a private in-memory
// provider for the default zone.
func New(p domain.Provider, opts ...Option) *Repository {
	if p == nil {
		p = memory.NewProvider(nil, domain.EmptyZone)
	}
	r := &Repository{
		provider: p,
		logger:   logging.NoOp{},
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
		clock:    ClockFunc(time.Now),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Provider returns the backing provider.
func (r *Repository) Provider() domain.Provider { return r.provider }

// Zone reports the provider's zone.
func (r *Repository) Zone() domain.Zone { return r.provider.Zone() }

// NewTracker returns an empty unit of work for this repository.
func (r *Repository) NewTracker() *Tracker { return NewTracker() }

// Close releases the provider when it holds external resources.
func (r *Repository) Close() error {
	if c, ok := r.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Commit hands the staged records of t to the provider in staging order. The
// tracker is completed whether or not the commit succeeds.
func (r *Repository) Commit(ctx context.Context, t *Tracker) error {
	if t == nil {
		return nil
	}
	defer t.Complete()
	records := t.Records()
	return r.run(ctx, OpCommit, func(ctx context.Context) error {
		if len(records) == 0 {
			return nil
		}
		if err := r.provider.Commit(ctx, records); err != nil {
			return fmt.Errorf("commit %d records: %w", len(records), err)
		}
		return nil
	}, "records", len(records))
}

// InsertNow stages and commits a single insert.
func (r *Repository) InsertNow(ctx context.Context, e domain.Entity) error {
	return r.run(ctx, OpInsertNow, func(ctx context.Context) error {
		t := NewTracker()
		if err := t.Insert(e); err != nil {
			return err
		}
		return r.provider.Commit(ctx, t.Records())
	})
}

// UpdateNow stages and commits a single update.
func (r *Repository) UpdateNow(ctx context.Context, e domain.Entity) error {
	return r.run(ctx, OpUpdateNow, func(ctx context.Context) error {
		t := NewTracker()
		if err := t.RegisterUpdate(e); err != nil {
			return err
		}
		return r.provider.Commit(ctx, t.Records())
	})
}

// DeleteNow stages and commits a single delete of kind/id.
func (r *Repository) DeleteNow(ctx context.Context, kind domain.Kind, id any) error {
	return r.run(ctx, OpDeleteNow, func(ctx context.Context) error {
		t := NewTracker()
		if err := t.Delete(kind, id); err != nil {
			return err
		}
		return r.provider.Commit(ctx, t.Records())
	}, "kind", kind)
}

// Aggregate computes fn over the rows of kind matching e. Only FnCount is
// supported; other functions fail with ErrNotImplemented.
func (r *Repository) Aggregate(ctx context.Context, kind domain.Kind, fn query.Fn, e *query.Exp) (float64, error) {
	var out float64
	err := r.run(ctx, OpAggregate, func(ctx context.Context) error {
		if fn != query.FnCount {
			return fmt.Errorf("aggregate %s over %s: %w", fn, kind, domain.ErrNotImplemented)
		}
		n, err := r.provider.Count(ctx, kind, e)
		if err != nil {
			return err
		}
		out = float64(n)
		return nil
	}, "kind", kind, "fn", fn.String())
	return out, err
}

// run wraps fn with tracing, timing, metrics and logging.
func (r *Repository) run(ctx context.Context, op string, fn func(context.Context) error, attrs ...any) error {
	ctx, span := r.tracer.Start(ctx, op)
	start := r.clock.Now()
	err := fn(ctx)
	elapsed := r.clock.Now().Sub(start)
	span.End(err)
	r.metrics.Observe(ctx, op, err == nil, elapsed)

	args := append([]any{"op", op, "zone", r.provider.Zone().String(), "duration", elapsed}, attrs...)
	if err != nil {
		r.logger.Warn("repository operation failed", append(args, "error", err)...)
		return err
	}
	r.logger.Debug("repository operation completed", args...)
	return nil
}
