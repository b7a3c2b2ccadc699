package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"repokit/internal/config"
	"repokit/internal/infra/persistence/memory"
	"repokit/internal/infra/persistence/postgres"
	"repokit/internal/infra/persistence/sqlite"
	"repokit/internal/logging"
	"repokit/pkg/domain"
)

// ProviderConfig selects a provider type and its connection string.
//
//	memory:   connection string ignored
//	sqlite:   file path (default ./repokit.db)
//	postgres: DSN (default postgres.DefaultDSN)
type ProviderConfig = config.ProviderConfig

// Options carries what a provider needs beyond its config.
type Options struct {
	// Registry decodes stored payloads; required by durable providers.
	Registry *domain.Registry
	// Zone is the partition the provider serves.
	Zone domain.Zone
	// Store is shared by memory providers; nil gets a private store.
	Store *memory.Store
}

// OpenProvider selects a provider by type. An empty or unknown type fails
// with domain.ErrUnsupportedProvider.
func OpenProvider(ctx context.Context, cfg ProviderConfig, opts Options) (domain.Provider, error) {
	switch cfg.Type {
	case config.ProviderMemory:
		return memory.NewProvider(opts.Store, opts.Zone), nil
	case config.ProviderSQLite:
		if opts.Registry == nil {
			return nil, errors.New("sqlite provider requires a registry")
		}
		path := cfg.ConnectionString
		if path == "" {
			path = sqlite.DefaultPath
		}
		p, err := sqlite.Open(ctx, path, opts.Registry, opts.Zone)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderPostgres:
		if opts.Registry == nil {
			return nil, errors.New("postgres provider requires a registry")
		}
		dsn := cfg.ConnectionString
		if dsn == "" {
			dsn = postgres.DefaultDSN
		}
		p, err := postgres.Open(ctx, dsn, opts.Registry, opts.Zone)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, cfg.Type)
	}
}

// OpenFromConfig builds a repository from a loaded configuration: it opens
// the configured provider for cfg.Zone, wires a logger built from cfg.Log and
// a Prometheus recorder on the default registerer under cfg.Metrics.Namespace.
// Extra options are applied after these.
func OpenFromConfig(ctx context.Context, cfg *config.Config, reg *domain.Registry, opts ...Option) (*Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	p, err := OpenProvider(ctx, cfg.Provider, Options{Registry: reg, Zone: cfg.Zone})
	if err != nil {
		return nil, err
	}
	metrics, err := NewPrometheusRecorder(nil, cfg.Metrics.Namespace)
	if err != nil {
		if c, ok := p.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, fmt.Errorf("metrics: %w", err)
	}
	logger := logging.New(logging.Config{Level: level, Format: cfg.Log.Format})
	base := []Option{WithLogger(logger), WithMetricsRecorder(metrics)}
	return New(p, append(base, opts...)...), nil
}
