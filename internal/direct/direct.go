// Package direct implements the backend contract over a self-hosted
// Postgres database instead of the hosted API. Entities live as jsonb
// documents in a single records table; users, login lockout state and
// file attachments get typed tables of their own.
package direct

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dealgrid/dealgrid/internal/backend"
	"github.com/dealgrid/dealgrid/internal/model"
	"github.com/dealgrid/dealgrid/internal/normalize"
	"github.com/dealgrid/dealgrid/internal/token"
)

// Default token lifetimes for locally minted sessions.
const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// Config wires a self-hosted backend.
type Config struct {
	// DSN is the Postgres connection string.
	DSN string
	// SignKey signs locally minted session tokens.
	SignKey []byte
	// AccessTTL and RefreshTTL bound token lifetimes. Zero picks defaults.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Tokens persists the signed-in session. Defaults to an in-memory store.
	Tokens *token.Store
	Logger *zap.Logger
}

// Backend serves every entity service from the local database.
type Backend struct {
	db         *DB
	store      *Store
	auth       *AuthService
	users      *UserService
	clients    *ClientService
	deals      *DealService
	tasks      *TaskService
	financials *FinancialService
	tenants    *TenantService
	reference  *ReferenceService
	documents  *DocumentService
	log        *zap.Logger
}

// New connects to Postgres and assembles the backend.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.DSN == "" {
		return nil, errors.New("direct backend: database dsn required")
	}
	db, err := NewDB(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("direct backend: %w", err)
	}
	return NewWithDB(db, cfg)
}

// NewWithDB assembles the backend over an existing database handle.
func NewWithDB(db *DB, cfg Config) (*Backend, error) {
	if len(cfg.SignKey) == 0 {
		return nil, errors.New("direct backend: token signing key required")
	}
	if cfg.Tokens == nil {
		cfg.Tokens = token.NewMemStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}

	store := NewStore(db)
	return &Backend{
		db:    db,
		store: store,
		auth: &AuthService{
			db:         db,
			tokens:     cfg.Tokens,
			lockout:    NewLockout(db),
			signKey:    cfg.SignKey,
			accessTTL:  cfg.AccessTTL,
			refreshTTL: cfg.RefreshTTL,
			log:        cfg.Logger,
		},
		users:      &UserService{db: db},
		clients:    &ClientService{store: store},
		deals:      &DealService{store: store},
		tasks:      &TaskService{store: store},
		financials: &FinancialService{store: store},
		tenants:    &TenantService{store: store},
		reference:  &ReferenceService{store: store},
		documents:  &DocumentService{db: db, tokens: cfg.Tokens},
		log:        cfg.Logger,
	}, nil
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

func (b *Backend) Name() string { return "postgres" }

// Close releases the connection pool.
func (b *Backend) Close() error {
	b.db.Close()
	return nil
}

// CreateUser provisions a local account. Only the self-hosted backend
// can do this; the hosted API manages accounts itself.
func (b *Backend) CreateUser(ctx context.Context, email, name, password, role, tenantKey string) (*model.User, error) {
	return b.auth.CreateUser(ctx, email, name, password, role, tenantKey)
}

var collections = map[string]bool{
	colClients:      true,
	colDeals:        true,
	colTasks:        true,
	colFinancials:   true,
	colTenants:      true,
	colStages:       true,
	colProductLines: true,
}

// ImportDocuments upserts canonical documents into a collection. Date
// fields are normalized before storage whatever shape they arrive in, and
// a document without an "id" gets a fresh key. Returns how many documents
// landed before the first failure.
func (b *Backend) ImportDocuments(ctx context.Context, collection string, docs []map[string]any) (int, error) {
	if !collections[collection] {
		return 0, fmt.Errorf("unknown collection %q", collection)
	}
	for i, doc := range docs {
		doc = normalize.Entity(doc)
		if err := normalize.Dates(doc, collectionDates[collection]...); err != nil {
			return i, fmt.Errorf("import %s[%d]: %w", collection, i, err)
		}
		key, _ := doc["id"].(string)
		if key == "" {
			minted, err := mintKey()
			if err != nil {
				return i, err
			}
			key = minted
			doc["id"] = key
		}
		if _, err := b.store.Upsert(ctx, collection, key, doc); err != nil {
			return i, fmt.Errorf("import %s[%d]: %w", collection, i, err)
		}
		b.log.Debug("imported document", zap.String("collection", collection), zap.String("key", key))
	}
	return len(docs), nil
}
