// Package crm opens a ready-to-use backend from configuration. The
// backend choice is read exactly once; past Open nothing switches.
package crm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dealgrid/dealgrid/internal/backend"
	"github.com/dealgrid/dealgrid/internal/config"
	"github.com/dealgrid/dealgrid/internal/direct"
	"github.com/dealgrid/dealgrid/internal/rest"
	"github.com/dealgrid/dealgrid/internal/token"
	"github.com/dealgrid/dealgrid/internal/transport"
)

// Option adjusts how the backend is assembled.
type Option func(*options)

type options struct {
	onExpired func()
	tokens    *token.Store
}

// WithSessionExpiredHook registers a callback fired once when a session
// terminally expires (REST backend only; the local backend never
// refreshes remotely).
func WithSessionExpiredHook(f func()) Option {
	return func(o *options) { o.onExpired = f }
}

// WithTokenStore substitutes the token store, for tests.
func WithTokenStore(s *token.Store) Option {
	return func(o *options) { o.tokens = s }
}

// Open assembles the backend named by cfg.Backend: "rest" talks to the
// hosted API, "postgres" serves everything from a local database.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger, opts ...Option) (backend.Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	tokens := o.tokens
	if tokens == nil {
		tokens = token.NewFileStore(token.DefaultDirs(cfg.TokenDir))
	}

	switch cfg.Backend {
	case config.BackendREST:
		tOpts := []transport.Option{
			transport.WithTimeout(cfg.HTTPTimeout),
			transport.WithLogger(log),
		}
		if o.onExpired != nil {
			tOpts = append(tOpts, transport.WithSessionExpiredHook(o.onExpired))
		}
		t := transport.New(cfg.BaseURL, tokens, tOpts...)
		return rest.New(t, tokens, log), nil

	case config.BackendPostgres:
		return direct.New(ctx, direct.Config{
			DSN:        cfg.DatabaseDSN,
			SignKey:    []byte(cfg.JWTSecret),
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
			Tokens:     tokens,
			Logger:     log,
		})

	default:
		return nil, fmt.Errorf("crm: unknown backend %q", cfg.Backend)
	}
}
