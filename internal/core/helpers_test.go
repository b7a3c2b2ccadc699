package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"repokit/internal/infra/persistence/memory"
	"repokit/pkg/domain"
	"repokit/pkg/query"
)

type logEntry struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (c *captureLogger) add(level, msg string, args []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, logEntry{level: level, msg: msg, args: args})
}

func (c *captureLogger) Debug(msg string, args ...any) { c.add("debug", msg, args) }
func (c *captureLogger) Info(msg string, args ...any)  { c.add("info", msg, args) }
func (c *captureLogger) Warn(msg string, args ...any)  { c.add("warn", msg, args) }
func (c *captureLogger) Error(msg string, args ...any) { c.add("error", msg, args) }

func (c *captureLogger) has(level, op string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.level != level {
			continue
		}
		for i := 0; i+1 < len(e.args); i += 2 {
			if e.args[i] == "op" && e.args[i+1] == op {
				return true
			}
		}
	}
	return false
}

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	mu    sync.Mutex
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

// stepClock advances by step on every reading.
type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

var errBackend = errors.New("backend unavailable")

// brokenProvider fails every call.
type brokenProvider struct{}

func (brokenProvider) Commit(context.Context, []domain.Record) error { return errBackend }
func (brokenProvider) Get(context.Context, domain.Kind, any) (domain.Entity, bool, error) {
	return nil, false, errBackend
}
func (brokenProvider) Query(context.Context, domain.Kind, *query.Exp, *query.ListArgs) ([]domain.Entity, error) {
	return nil, errBackend
}
func (brokenProvider) Count(context.Context, domain.Kind, *query.Exp) (int, error) {
	return 0, errBackend
}
func (brokenProvider) Zone() domain.Zone { return domain.TestZone }

// aliasProvider serves every kind from a single memory kind so typed reads can
// observe a foreign entity.
type aliasProvider struct {
	*memory.Provider
	from domain.Kind
}

func (a aliasProvider) Get(ctx context.Context, _ domain.Kind, id any) (domain.Entity, bool, error) {
	return a.Provider.Get(ctx, a.from, id)
}

func (a aliasProvider) Query(ctx context.Context, _ domain.Kind, e *query.Exp, args *query.ListArgs) ([]domain.Entity, error) {
	return a.Provider.Query(ctx, a.from, e, args)
}
