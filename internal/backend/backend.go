// Package backend defines the contract every concrete backend implements.
// Callers depend on these interfaces only; whether a call is served by
// the hosted REST API or a self-hosted Postgres store is decided once at
// startup and never leaks past the constructor.
package backend

import (
	"context"
	"io"

	"github.com/dealgrid/dealgrid/internal/model"
)

// Backend groups the per-entity services a Dealgrid deployment exposes.
type Backend interface {
	Auth() Auth
	Users() Users
	Clients() Clients
	Deals() Deals
	Tasks() Tasks
	Financials() Financials
	Tenants() Tenants
	Reference() Reference
	Documents() Documents

	// Name identifies the backend kind ("rest" or "postgres").
	Name() string
	// Close releases held resources. Safe to call once at shutdown.
	Close() error
}

// Auth manages the sign-in session. Login persists the issued token pair
// into the durable scope when remember is true, into the session scope
// otherwise.
type Auth interface {
	Login(ctx context.Context, email, password string, remember bool) (*model.User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*model.User, error)
}

// Users lists tenant accounts.
type Users interface {
	List(ctx context.Context, q model.ListQuery) ([]model.User, model.Page, error)
}

// Clients is CRUD plus search over customer organizations.
type Clients interface {
	List(ctx context.Context, q model.ListQuery) ([]model.Client, model.Page, error)
	Get(ctx context.Context, key string) (*model.Client, error)
	Search(ctx context.Context, term string, q model.ListQuery) ([]model.Client, model.Page, error)
	Create(ctx context.Context, c *model.Client) (*model.Client, error)
	Update(ctx context.Context, c *model.Client) (*model.Client, error)
	Delete(ctx context.Context, key string) error
}

// Deals is CRUD plus pipeline operations over deals.
type Deals interface {
	List(ctx context.Context, q model.ListQuery) ([]model.Deal, model.Page, error)
	Get(ctx context.Context, key string) (*model.Deal, error)
	ByClient(ctx context.Context, clientKey string) ([]model.Deal, error)
	Create(ctx context.Context, d *model.Deal) (*model.Deal, error)
	Update(ctx context.Context, d *model.Deal) (*model.Deal, error)
	UpdateStage(ctx context.Context, key, stageKey string) (*model.Deal, error)
	Delete(ctx context.Context, key string) error
}

// Tasks is CRUD plus completion over follow-up tasks.
type Tasks interface {
	List(ctx context.Context, q model.ListQuery) ([]model.Task, model.Page, error)
	Get(ctx context.Context, key string) (*model.Task, error)
	ByDeal(ctx context.Context, dealKey string) ([]model.Task, error)
	Create(ctx context.Context, t *model.Task) (*model.Task, error)
	Update(ctx context.Context, t *model.Task) (*model.Task, error)
	Complete(ctx context.Context, key string) (*model.Task, error)
	Delete(ctx context.Context, key string) error
}

// Financials reads and writes monthly forecast/actual entries.
type Financials interface {
	Years(ctx context.Context) ([]int, error)
	ByYear(ctx context.Context, year int) ([]model.FinancialEntry, error)
	ByClient(ctx context.Context, clientKey string) ([]model.FinancialEntry, error)
	Upsert(ctx context.Context, e *model.FinancialEntry) (*model.FinancialEntry, error)
}

// Tenants exposes the current tenant record.
type Tenants interface {
	Current(ctx context.Context) (*model.Tenant, error)
	Update(ctx context.Context, t *model.Tenant) (*model.Tenant, error)
}

// Reference manages pipeline stages and product lines.
type Reference interface {
	Stages(ctx context.Context) ([]model.Stage, error)
	SaveStage(ctx context.Context, s *model.Stage) (*model.Stage, error)
	DeleteStage(ctx context.Context, key string) error
	ProductLines(ctx context.Context) ([]model.ProductLine, error)
	SaveProductLine(ctx context.Context, p *model.ProductLine) (*model.ProductLine, error)
	DeleteProductLine(ctx context.Context, key string) error
}

// Documents stores files attached to entities.
type Documents interface {
	Upload(ctx context.Context, entityKind, entityKey, filename string, r io.Reader) (*model.Attachment, error)
	ByEntity(ctx context.Context, entityKind, entityKey string) ([]model.Attachment, error)
	Delete(ctx context.Context, key string) error
}
