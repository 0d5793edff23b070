package direct

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/dealgrid/dealgrid/internal/errs"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var (
	tsCreated = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tsUpdated = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
)

func TestStore_Insert_StripsIdentityAndSerializesDates(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)
	ctx := context.Background()

	doc := map[string]any{
		"id":        "key-1",
		"name":      "acme",
		"active":    true,
		"createdAt": tsCreated,
	}
	// Stored JSON has the identity fields removed and dates as strings.
	raw := `{"active":true,"createdAt":"2024-03-01T00:00:00Z","name":"acme"}`

	mock.ExpectQuery(`INSERT INTO records \(collection, key, doc\) VALUES \(\$1,\$2,\$3::jsonb\)\s+ON CONFLICT \(collection, key\) DO NOTHING\s+RETURNING created_at, updated_at`).
		WithArgs(colClients, "key-1", raw).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(tsCreated, tsUpdated))

	out, err := s.Insert(ctx, colClients, "key-1", doc)
	require.NoError(t, err)
	require.Equal(t, "key-1", out["id"])
	require.Equal(t, "acme", out["name"])
	created, ok := out["createdAt"].(time.Time)
	require.True(t, ok)
	require.True(t, created.Equal(tsCreated))
	require.Equal(t, tsUpdated, out["updatedAt"])
}

func TestStore_Insert_ExistingKeyConflicts(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectQuery(`INSERT INTO records .* DO NOTHING`).
		WithArgs(colClients, "key-1", pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.Insert(context.Background(), colClients, "key-1", map[string]any{"name": "acme"})
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestStore_Update_MissingKeyNotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectQuery(`UPDATE records SET doc=\$3::jsonb, updated_at=now\(\)\s+WHERE collection=\$1 AND key=\$2 AND NOT deleted`).
		WithArgs(colDeals, "gone", pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.Update(context.Background(), colDeals, "gone", map[string]any{"title": "x"})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestStore_Upsert_RevivesTombstone(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectQuery(`INSERT INTO records \(collection, key, doc\) VALUES \(\$1,\$2,\$3::jsonb\)\s+ON CONFLICT \(collection, key\)\s+DO UPDATE SET doc=EXCLUDED.doc, deleted=false, updated_at=now\(\)`).
		WithArgs(colStages, "stage-1", `{"name":"Qualified","sortOrder":2}`).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(tsCreated, tsUpdated))

	out, err := s.Upsert(context.Background(), colStages, "stage-1", map[string]any{
		"id":        "stage-1",
		"name":      "Qualified",
		"sortOrder": 2,
	})
	require.NoError(t, err)
	require.Equal(t, "stage-1", out["id"])
}

func TestStore_Get_NormalizesStoredShapes(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	// A document migrated from the hosted API: numeric backend id stashed,
	// date still in the {seconds} object shape.
	raw := []byte(`{"_apiId":77,"name":"acme","createdAt":{"seconds":1709251200}}`)
	mock.ExpectQuery(`SELECT doc, created_at, updated_at\s+FROM records WHERE collection=\$1 AND key=\$2 AND NOT deleted`).
		WithArgs(colClients, "key-1").
		WillReturnRows(pgxmock.NewRows([]string{"doc", "created_at", "updated_at"}).AddRow(raw, tsCreated, tsUpdated))

	out, err := s.Get(context.Background(), colClients, "key-1")
	require.NoError(t, err)
	require.Equal(t, "key-1", out["id"])
	require.Equal(t, json.Number("77"), out["_apiId"])
	created, ok := out["createdAt"].(time.Time)
	require.True(t, ok, "createdAt should decode to a time, got %T", out["createdAt"])
	require.True(t, created.Equal(tsCreated))
	require.Equal(t, tsUpdated, out["updatedAt"], "the column timestamp is authoritative")
}

func TestStore_Get_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectQuery(`SELECT doc, created_at, updated_at\s+FROM records`).
		WithArgs(colClients, "gone").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.Get(context.Background(), colClients, "gone")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestStore_First(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectQuery(`SELECT key, doc, created_at, updated_at\s+FROM records WHERE collection=\$1 AND NOT deleted\s+ORDER BY created_at ASC LIMIT 1`).
		WithArgs(colTenants).
		WillReturnRows(pgxmock.NewRows([]string{"key", "doc", "created_at", "updated_at"}).
			AddRow("tenant-1", []byte(`{"name":"Dealgrid HQ","plan":"pro"}`), tsCreated, tsUpdated))

	out, err := s.First(context.Background(), colTenants)
	require.NoError(t, err)
	require.Equal(t, "tenant-1", out["id"])
	require.Equal(t, "Dealgrid HQ", out["name"])
}

func TestStore_Delete_Tombstones(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE records SET deleted=true, updated_at=now\(\)\s+WHERE collection=\$1 AND key=\$2 AND NOT deleted`).
		WithArgs(colTasks, "task-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, s.Delete(ctx, colTasks, "task-1"))

	mock.ExpectExec(`UPDATE records SET deleted=true`).
		WithArgs(colTasks, "task-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, s.Delete(ctx, colTasks, "task-1"), errs.ErrNotFound)
}

func TestStore_List_FiltersAndPaging(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM records WHERE collection=\$1 AND NOT deleted AND doc->>\$2 = \$3`).
		WithArgs(colDeals, "clientId", "c-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(25))

	rows := pgxmock.NewRows([]string{"key", "doc", "created_at", "updated_at"}).
		AddRow("d-11", []byte(`{"clientId":"c-1","title":"one","amount":100}`), tsCreated, tsUpdated).
		AddRow("d-12", []byte(`{"clientId":"c-1","title":"two","amount":200}`), tsCreated, tsUpdated)
	mock.ExpectQuery(`SELECT key, doc, created_at, updated_at FROM records WHERE collection=\$1 AND NOT deleted AND doc->>\$2 = \$3 ORDER BY updated_at DESC LIMIT \$4 OFFSET \$5`).
		WithArgs(colDeals, "clientId", "c-1", 10, 10).
		WillReturnRows(rows)

	docs, pg, err := s.List(context.Background(), colDeals, ListOpts{
		Filters:  map[string]string{"clientId": "c-1"},
		Page:     2,
		PageSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "d-11", docs[0]["id"])
	require.Equal(t, 25, pg.Total)
	require.Equal(t, 2, pg.Page)
	require.Equal(t, 10, pg.PageSize)
	require.Equal(t, 3, pg.TotalPages)
}

func TestStore_List_MultipleFiltersInSortedOrder(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM records WHERE collection=\$1 AND NOT deleted AND doc->>\$2 = \$3 AND doc->>\$4 = \$5`).
		WithArgs(colFinancials, "clientId", "c-1", "year", "2024").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT key, doc, created_at, updated_at FROM records`).
		WithArgs(colFinancials, "clientId", "c-1", "year", "2024", 50, 0).
		WillReturnRows(pgxmock.NewRows([]string{"key", "doc", "created_at", "updated_at"}))

	docs, pg, err := s.List(context.Background(), colFinancials, ListOpts{
		Filters: map[string]string{"year": "2024", "clientId": "c-1"},
	})
	require.NoError(t, err)
	require.Empty(t, docs)
	require.Equal(t, 0, pg.Total)
	require.Equal(t, 1, pg.TotalPages, "an empty collection still has one page")
}

func TestStore_List_MatchUsesILike(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM records WHERE collection=\$1 AND NOT deleted AND doc->>\$2 ILIKE '%' \|\| \$3 \|\| '%'`).
		WithArgs(colClients, "name", "acm").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT key, doc, created_at, updated_at FROM records WHERE collection=\$1 AND NOT deleted AND doc->>\$2 ILIKE '%' \|\| \$3 \|\| '%' ORDER BY updated_at DESC LIMIT \$4 OFFSET \$5`).
		WithArgs(colClients, "name", "acm", 50, 0).
		WillReturnRows(pgxmock.NewRows([]string{"key", "doc", "created_at", "updated_at"}).
			AddRow("c-1", []byte(`{"name":"Acme Corp"}`), tsCreated, tsUpdated))

	docs, _, err := s.List(context.Background(), colClients, ListOpts{
		Match: map[string]string{"name": "acm"},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "Acme Corp", docs[0]["name"])
}

func TestStore_List_NumericSort(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM records WHERE collection=\$1 AND NOT deleted`).
		WithArgs(colStages).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`ORDER BY \(doc->>\$2\)::numeric ASC LIMIT \$3 OFFSET \$4`).
		WithArgs(colStages, "sortOrder", 500, 0).
		WillReturnRows(pgxmock.NewRows([]string{"key", "doc", "created_at", "updated_at"}).
			AddRow("s-1", []byte(`{"name":"Lead","sortOrder":2}`), tsCreated, tsUpdated).
			AddRow("s-2", []byte(`{"name":"Won","sortOrder":10}`), tsCreated, tsUpdated))

	docs, _, err := s.List(context.Background(), colStages, ListOpts{
		SortBy:      "sortOrder",
		SortNumeric: true,
		PageSize:    500,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "Lead", docs[0]["name"])
}

func TestStore_DistinctInts(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectQuery(`SELECT DISTINCT \(doc->>\$2\)::int AS v\s+FROM records\s+WHERE collection=\$1 AND NOT deleted AND doc->>\$2 IS NOT NULL\s+ORDER BY v`).
		WithArgs(colFinancials, "year").
		WillReturnRows(pgxmock.NewRows([]string{"v"}).AddRow(2022).AddRow(2023).AddRow(2024))

	years, err := s.DistinctInts(context.Background(), colFinancials, "year")
	require.NoError(t, err)
	require.Equal(t, []int{2022, 2023, 2024}, years)
}

func TestStore_Get_BadStoredDateFailsLoudly(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectQuery(`SELECT doc, created_at, updated_at`).
		WithArgs(colClients, "key-1").
		WillReturnRows(pgxmock.NewRows([]string{"doc", "created_at", "updated_at"}).
			AddRow([]byte(`{"name":"acme","createdAt":["broken"]}`), tsCreated, tsUpdated))

	_, err := s.Get(context.Background(), colClients, "key-1")
	require.ErrorIs(t, err, errs.ErrInvalidShape)
}
