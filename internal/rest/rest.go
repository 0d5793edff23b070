// Package rest implements the backend contract over the hosted Dealgrid
// HTTP API. Every method goes through the transport client, unwraps the
// response envelope and converts wire payloads to domain models.
package rest

import (
	"go.uber.org/zap"

	"github.com/dealgrid/dealgrid/internal/backend"
	"github.com/dealgrid/dealgrid/internal/token"
	"github.com/dealgrid/dealgrid/internal/transport"
	"github.com/dealgrid/dealgrid/internal/wire"
)

// Backend serves every entity service from the hosted API.
type Backend struct {
	auth       *AuthService
	users      *UserService
	clients    *ClientService
	deals      *DealService
	tasks      *TaskService
	financials *FinancialService
	tenants    *TenantService
	reference  *ReferenceService
	documents  *DocumentService
}

// New wires the REST backend over an authenticated transport client.
func New(t *transport.Client, store *token.Store, log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{
		auth:       &AuthService{t: t, store: store, log: log},
		users:      &UserService{t: t},
		clients:    &ClientService{t: t},
		deals:      &DealService{t: t},
		tasks:      &TaskService{t: t},
		financials: &FinancialService{t: t},
		tenants:    &TenantService{t: t},
		reference:  &ReferenceService{t: t},
		documents:  &DocumentService{t: t},
	}
}

func (b *Backend) Auth() backend.Auth             { return b.auth }
func (b *Backend) Users() backend.Users           { return b.users }
func (b *Backend) Clients() backend.Clients       { return b.clients }
func (b *Backend) Deals() backend.Deals           { return b.deals }
func (b *Backend) Tasks() backend.Tasks           { return b.tasks }
func (b *Backend) Financials() backend.Financials { return b.financials }
func (b *Backend) Tenants() backend.Tenants       { return b.tenants }
func (b *Backend) Reference() backend.Reference   { return b.reference }
func (b *Backend) Documents() backend.Documents   { return b.documents }

func (b *Backend) Name() string { return "rest" }

// Close is a no-op: the transport holds no pooled resources.
func (b *Backend) Close() error { return nil }

// decodeOne unwraps an envelope and decodes its result into one DTO.
func decodeOne[T any](body []byte) (T, error) {
	raw, err := wire.Unwrap(body)
	if err != nil {
		var zero T
		return zero, err
	}
	return wire.Decode[T](raw)
}

// unwrapDiscard unwraps an envelope for calls whose payload is irrelevant,
// so error envelopes riding on a 200 still surface.
func unwrapDiscard(body []byte) error {
	_, err := wire.Unwrap(body)
	return err
}
