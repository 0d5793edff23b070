package direct

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dealgrid/dealgrid/internal/errs"
	"github.com/dealgrid/dealgrid/internal/model"
	"github.com/dealgrid/dealgrid/internal/normalize"
)

// Entity collections in the records table.
const (
	colClients      = "clients"
	colDeals        = "deals"
	colTasks        = "tasks"
	colFinancials   = "financials"
	colTenants      = "tenants"
	colStages       = "stages"
	colProductLines = "product_lines"
)

// defaultPageSize bounds unqualified list queries.
const defaultPageSize = 50

// collectionDates lists the date-bearing fields per collection, so reads
// can normalize loose shapes (ISO strings, {seconds} objects left over
// from migrations) into time values.
var collectionDates = map[string][]string{
	colClients:    {"createdAt", "updatedAt"},
	colDeals:      {"expectedClose", "createdAt", "updatedAt"},
	colTasks:      {"dueDate", "createdAt", "updatedAt"},
	colFinancials: {"updatedAt"},
	colTenants:    {"createdAt", "updatedAt"},
}

// Store is a collection-per-entity document store over a single jsonb
// table. Documents are stored without their identity fields; the key
// column is authoritative and is re-injected as the canonical id on read.
type Store struct {
	db *DB
}

// NewStore constructs the document store.
func NewStore(db *DB) *Store { return &Store{db: db} }

func (s *Store) dates(collection string) []string { return collectionDates[collection] }

// ListOpts narrows and pages a collection scan. Filters match top-level
// document fields by exact text value, Match by case-insensitive
// containment. SortNumeric casts the sort field for numeric order.
type ListOpts struct {
	Filters     map[string]string
	Match       map[string]string
	SortBy      string
	SortNumeric bool
	Desc        bool
	Page        int
	PageSize    int
}

// Insert stores a new document under (collection, key). An existing live
// or tombstoned key fails with errs.ErrAlreadyExists.
func (s *Store) Insert(ctx context.Context, collection, key string, doc map[string]any) (map[string]any, error) {
	raw, err := s.encode(collection, doc)
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO records (collection, key, doc) VALUES ($1,$2,$3::jsonb)
ON CONFLICT (collection, key) DO NOTHING
RETURNING created_at, updated_at`
	var created, updated time.Time
	if err := s.db.Pool.QueryRow(ctx, q, collection, key, raw).Scan(&created, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrAlreadyExists
		}
		return nil, err
	}
	return s.decode(collection, key, raw, created, updated)
}

// Update replaces the document stored under (collection, key). A missing
// or tombstoned key fails with errs.ErrNotFound.
func (s *Store) Update(ctx context.Context, collection, key string, doc map[string]any) (map[string]any, error) {
	raw, err := s.encode(collection, doc)
	if err != nil {
		return nil, err
	}
	const q = `
UPDATE records SET doc=$3::jsonb, updated_at=now()
WHERE collection=$1 AND key=$2 AND NOT deleted
RETURNING created_at, updated_at`
	var created, updated time.Time
	if err := s.db.Pool.QueryRow(ctx, q, collection, key, raw).Scan(&created, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return s.decode(collection, key, raw, created, updated)
}

// Upsert stores the document under (collection, key), reviving a
// tombstoned row if one is in the way.
func (s *Store) Upsert(ctx context.Context, collection, key string, doc map[string]any) (map[string]any, error) {
	raw, err := s.encode(collection, doc)
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO records (collection, key, doc) VALUES ($1,$2,$3::jsonb)
ON CONFLICT (collection, key)
DO UPDATE SET doc=EXCLUDED.doc, deleted=false, updated_at=now()
RETURNING created_at, updated_at`
	var created, updated time.Time
	if err := s.db.Pool.QueryRow(ctx, q, collection, key, raw).Scan(&created, &updated); err != nil {
		return nil, err
	}
	return s.decode(collection, key, raw, created, updated)
}

// Get returns a live document by key.
func (s *Store) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	const q = `
SELECT doc, created_at, updated_at
FROM records WHERE collection=$1 AND key=$2 AND NOT deleted`
	var raw []byte
	var created, updated time.Time
	if err := s.db.Pool.QueryRow(ctx, q, collection, key).Scan(&raw, &created, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return s.decode(collection, key, string(raw), created, updated)
}

// First returns the oldest live document of a collection.
func (s *Store) First(ctx context.Context, collection string) (map[string]any, error) {
	const q = `
SELECT key, doc, created_at, updated_at
FROM records WHERE collection=$1 AND NOT deleted
ORDER BY created_at ASC LIMIT 1`
	var key string
	var raw []byte
	var created, updated time.Time
	if err := s.db.Pool.QueryRow(ctx, q, collection).Scan(&key, &raw, &created, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return s.decode(collection, key, string(raw), created, updated)
}

// Delete tombstones a live document.
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	const q = `
UPDATE records SET deleted=true, updated_at=now()
WHERE collection=$1 AND key=$2 AND NOT deleted`
	tag, err := s.db.Pool.Exec(ctx, q, collection, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// List pages through a collection. Filter conditions and the optional
// document-field sort are parametrized; the fallback order is most
// recently updated first.
func (s *Store) List(ctx context.Context, collection string, opts ListOpts) ([]map[string]any, model.Page, error) {
	where := "collection=$1 AND NOT deleted"
	args := []any{collection}

	for _, k := range sortedKeys(opts.Filters) {
		args = append(args, k, opts.Filters[k])
		where += fmt.Sprintf(" AND doc->>$%d = $%d", len(args)-1, len(args))
	}
	for _, k := range sortedKeys(opts.Match) {
		args = append(args, k, opts.Match[k])
		where += fmt.Sprintf(" AND doc->>$%d ILIKE '%%' || $%d || '%%'", len(args)-1, len(args))
	}

	var total int
	countQ := "SELECT count(*) FROM records WHERE " + where
	if err := s.db.Pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, model.Page{}, err
	}

	order := "updated_at DESC"
	if opts.SortBy != "" {
		args = append(args, opts.SortBy)
		expr := fmt.Sprintf("doc->>$%d", len(args))
		if opts.SortNumeric {
			expr = fmt.Sprintf("(doc->>$%d)::numeric", len(args))
		}
		dir := "ASC"
		if opts.Desc {
			dir = "DESC"
		}
		order = expr + " " + dir
	}

	page, size := opts.Page, opts.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	args = append(args, size, (page-1)*size)
	q := fmt.Sprintf(
		"SELECT key, doc, created_at, updated_at FROM records WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		where, order, len(args)-1, len(args),
	)

	rows, err := s.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, model.Page{}, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var key string
		var raw []byte
		var created, updated time.Time
		if err := rows.Scan(&key, &raw, &created, &updated); err != nil {
			return nil, model.Page{}, err
		}
		doc, err := s.decode(collection, key, string(raw), created, updated)
		if err != nil {
			return nil, model.Page{}, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, model.Page{}, err
	}

	pg := model.Page{Total: total, Page: page, PageSize: size, TotalPages: (total + size - 1) / size}
	if pg.TotalPages == 0 {
		pg.TotalPages = 1
	}
	return out, pg, nil
}

// DistinctInts collects the distinct integer values of a document field
// across a collection, ascending.
func (s *Store) DistinctInts(ctx context.Context, collection, field string) ([]int, error) {
	const q = `
SELECT DISTINCT (doc->>$2)::int AS v
FROM records
WHERE collection=$1 AND NOT deleted AND doc->>$2 IS NOT NULL
ORDER BY v`
	rows, err := s.db.Pool.Query(ctx, q, collection, field)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// encode prepares a document for storage: identity fields move to the key
// column, date values are serialized to RFC 3339 strings.
func (s *Store) encode(collection string, doc map[string]any) (string, error) {
	clean := make(map[string]any, len(doc))
	for k, v := range doc {
		clean[k] = v
	}
	delete(clean, "id")
	delete(clean, "key")
	normalize.SerializeDates(clean, s.dates(collection)...)
	b, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("encode %s document: %w", collection, err)
	}
	return string(b), nil
}

// decode turns a stored document back into canonical form: the key column
// becomes the id, table timestamps fill createdAt/updatedAt, and date
// fields are parsed whatever shape they were stored in.
func (s *Store) decode(collection, key, raw string, created, updated time.Time) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode record %s/%s: %w", collection, key, err)
	}
	doc = normalize.Entity(doc)
	doc["id"] = key
	if _, ok := doc["createdAt"]; !ok && !created.IsZero() {
		doc["createdAt"] = created
	}
	doc["updatedAt"] = updated
	if err := normalize.Dates(doc, s.dates(collection)...); err != nil {
		return nil, fmt.Errorf("record %s/%s: %w", collection, key, err)
	}
	return doc, nil
}

// toModel decodes a canonical document into a typed model through its
// JSON form.
func toModel[T any](doc map[string]any) (T, error) {
	var v T
	b, err := json.Marshal(doc)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, err
	}
	return v, nil
}

// toDoc encodes a model into a document map plus its canonical key.
func toDoc(v any) (key string, doc map[string]any, err error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return "", nil, err
	}
	key, _ = doc["id"].(string)
	return key, doc, nil
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func itoa(n int) string { return strconv.Itoa(n) }
