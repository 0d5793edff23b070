package direct

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/dealgrid/dealgrid/internal/errs"
	"github.com/dealgrid/dealgrid/internal/model"
)

// relatedPageSize bounds unpaged "all rows for a parent" lookups.
const relatedPageSize = 500

func listOpts(q model.ListQuery) ListOpts {
	return ListOpts{
		Filters:  q.Filters,
		SortBy:   q.SortBy,
		Desc:     strings.EqualFold(q.SortOrder, "desc"),
		Page:     q.Page,
		PageSize: q.PageSize,
	}
}

func docsToModels[T any](docs []map[string]any) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		m, err := toModel[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func mintKey() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// --- clients ---

// ClientService serves clients out of the document store.
type ClientService struct {
	store *Store
}

func (s *ClientService) List(ctx context.Context, q model.ListQuery) ([]model.Client, model.Page, error) {
	docs, pg, err := s.store.List(ctx, colClients, listOpts(q))
	if err != nil {
		return nil, model.Page{}, err
	}
	out, err := docsToModels[model.Client](docs)
	if err != nil {
		return nil, model.Page{}, err
	}
	return out, pg, nil
}

func (s *ClientService) Get(ctx context.Context, key string) (*model.Client, error) {
	if key == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty client key")
	}
	doc, err := s.store.Get(ctx, colClients, key)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.Client](doc)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *ClientService) Search(ctx context.Context, term string, q model.ListQuery) ([]model.Client, model.Page, error) {
	if strings.TrimSpace(term) == "" {
		return nil, model.Page{}, errs.New(http.StatusBadRequest, "", "empty search term")
	}
	opts := listOpts(q)
	opts.Match = map[string]string{"name": term}
	docs, pg, err := s.store.List(ctx, colClients, opts)
	if err != nil {
		return nil, model.Page{}, err
	}
	out, err := docsToModels[model.Client](docs)
	if err != nil {
		return nil, model.Page{}, err
	}
	return out, pg, nil
}

func (s *ClientService) Create(ctx context.Context, c *model.Client) (*model.Client, error) {
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return nil, errs.New(http.StatusBadRequest, "", "client name required")
	}
	cp := *c
	if cp.ID == "" {
		key, err := mintKey()
		if err != nil {
			return nil, err
		}
		cp.ID = key
	}
	key, doc, err := toDoc(&cp)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Insert(ctx, colClients, key, doc)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.Client](stored)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *ClientService) Update(ctx context.Context, c *model.Client) (*model.Client, error) {
	if c == nil || c.ID == "" {
		return nil, errs.New(http.StatusBadRequest, "", "client key required")
	}
	key, doc, err := toDoc(c)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Update(ctx, colClients, key, doc)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.Client](stored)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *ClientService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errs.New(http.StatusBadRequest, "", "empty client key")
	}
	return s.store.Delete(ctx, colClients, key)
}

// --- deals ---

// DealService serves deals out of the document store.
type DealService struct {
	store *Store
}

func (s *DealService) List(ctx context.Context, q model.ListQuery) ([]model.Deal, model.Page, error) {
	docs, pg, err := s.store.List(ctx, colDeals, listOpts(q))
	if err != nil {
		return nil, model.Page{}, err
	}
	out, err := docsToModels[model.Deal](docs)
	if err != nil {
		return nil, model.Page{}, err
	}
	return out, pg, nil
}

func (s *DealService) Get(ctx context.Context, key string) (*model.Deal, error) {
	if key == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty deal key")
	}
	doc, err := s.store.Get(ctx, colDeals, key)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.Deal](doc)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *DealService) ByClient(ctx context.Context, clientKey string) ([]model.Deal, error) {
	if clientKey == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty client key")
	}
	docs, _, err := s.store.List(ctx, colDeals, ListOpts{
		Filters:  map[string]string{"clientId": clientKey},
		PageSize: relatedPageSize,
	})
	if err != nil {
		return nil, err
	}
	return docsToModels[model.Deal](docs)
}

func (s *DealService) Create(ctx context.Context, d *model.Deal) (*model.Deal, error) {
	if d == nil || strings.TrimSpace(d.Title) == "" || d.ClientID == "" {
		return nil, errs.New(http.StatusBadRequest, "", "deal needs a title and a client")
	}
	cp := *d
	if cp.ID == "" {
		key, err := mintKey()
		if err != nil {
			return nil, err
		}
		cp.ID = key
	}
	key, doc, err := toDoc(&cp)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Insert(ctx, colDeals, key, doc)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.Deal](stored)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *DealService) Update(ctx context.Context, d *model.Deal) (*model.Deal, error) {
	if d == nil || d.ID == "" {
		return nil, errs.New(http.StatusBadRequest, "", "deal key required")
	}
	key, doc, err := toDoc(d)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Update(ctx, colDeals, key, doc)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.Deal](stored)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *DealService) UpdateStage(ctx context.Context, key, stageKey string) (*model.Deal, error) {
	if key == "" || stageKey == "" {
		return nil, errs.New(http.StatusBadRequest, "", "deal and stage keys required")
	}
	doc, err := s.store.Get(ctx, colDeals, key)
	if err != nil {
		return nil, err
	}
	doc["stageId"] = stageKey
	stored, err := s.store.Update(ctx, colDeals, key, doc)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.Deal](stored)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *DealService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errs.New(http.StatusBadRequest, "", "empty deal key")
	}
	return s.store.Delete(ctx, colDeals, key)
}

// --- tasks ---

// TaskService serves follow-up tasks out of the document store.
type TaskService struct {
	store *Store
}

func (s *TaskService) List(ctx context.Context, q model.ListQuery) ([]model.Task, model.Page, error) {
	docs, pg, err := s.store.List(ctx, colTasks, listOpts(q))
	if err != nil {
		return nil, model.Page{}, err
	}
	out, err := docsToModels[model.Task](docs)
	if err != nil {
		return nil, model.Page{}, err
	}
	return out, pg, nil
}

func (s *TaskService) Get(ctx context.Context, key string) (*model.Task, error) {
	if key == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty task key")
	}
	doc, err := s.store.Get(ctx, colTasks, key)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.Task](doc)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *TaskService) ByDeal(ctx context.Context, dealKey string) ([]model.Task, error) {
	if dealKey == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty deal key")
	}
	docs, _, err := s.store.List(ctx, colTasks, ListOpts{
		Filters:  map[string]string{"dealId": dealKey},
		PageSize: relatedPageSize,
	})
	if err != nil {
		return nil, err
	}
	return docsToModels[model.Task](docs)
}

func (s *TaskService) Create(ctx context.Context, t *model.Task) (*model.Task, error) {
	if t == nil || strings.TrimSpace(t.Title) == "" {
		return nil, errs.New(http.StatusBadRequest, "", "task title required")
	}
	cp := *t
	if cp.ID == "" {
		key, err := mintKey()
		if err != nil {
			return nil, err
		}
		cp.ID = key
	}
	key, doc, err := toDoc(&cp)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Insert(ctx, colTasks, key, doc)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.Task](stored)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *TaskService) Update(ctx context.Context, t *model.Task) (*model.Task, error) {
	if t == nil || t.ID == "" {
		return nil, errs.New(http.StatusBadRequest, "", "task key required")
	}
	key, doc, err := toDoc(t)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Update(ctx, colTasks, key, doc)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.Task](stored)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *TaskService) Complete(ctx context.Context, key string) (*model.Task, error) {
	if key == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty task key")
	}
	doc, err := s.store.Get(ctx, colTasks, key)
	if err != nil {
		return nil, err
	}
	doc["done"] = true
	stored, err := s.store.Update(ctx, colTasks, key, doc)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.Task](stored)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *TaskService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errs.New(http.StatusBadRequest, "", "empty task key")
	}
	return s.store.Delete(ctx, colTasks, key)
}

// --- financials ---

// FinancialService serves monthly forecast/actual entries.
type FinancialService struct {
	store *Store
}

func (s *FinancialService) Years(ctx context.Context) ([]int, error) {
	return s.store.DistinctInts(ctx, colFinancials, "year")
}

func (s *FinancialService) ByYear(ctx context.Context, year int) ([]model.FinancialEntry, error) {
	if year <= 0 {
		return nil, errs.New(http.StatusBadRequest, "", "year required")
	}
	docs, _, err := s.store.List(ctx, colFinancials, ListOpts{
		Filters:  map[string]string{"year": itoa(year)},
		PageSize: relatedPageSize,
	})
	if err != nil {
		return nil, err
	}
	return docsToModels[model.FinancialEntry](docs)
}

func (s *FinancialService) ByClient(ctx context.Context, clientKey string) ([]model.FinancialEntry, error) {
	if clientKey == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty client key")
	}
	docs, _, err := s.store.List(ctx, colFinancials, ListOpts{
		Filters:  map[string]string{"clientId": clientKey},
		PageSize: relatedPageSize,
	})
	if err != nil {
		return nil, err
	}
	return docsToModels[model.FinancialEntry](docs)
}

// Upsert writes the entry for (client, product line, year, month),
// reusing the key of an existing entry so repeated writes stay one row.
func (s *FinancialService) Upsert(ctx context.Context, e *model.FinancialEntry) (*model.FinancialEntry, error) {
	if e == nil || e.Year <= 0 || e.Month < 1 || e.Month > 12 {
		return nil, errs.New(http.StatusBadRequest, "", "financial entry needs a year and a month 1..12")
	}
	if e.ClientID == "" || e.ProductLineID == "" {
		return nil, errs.New(http.StatusBadRequest, "", "financial entry needs a client and a product line")
	}
	cp := *e
	if cp.ID == "" {
		existing, _, err := s.store.List(ctx, colFinancials, ListOpts{
			Filters: map[string]string{
				"clientId":      cp.ClientID,
				"productLineId": cp.ProductLineID,
				"year":          itoa(cp.Year),
				"month":         itoa(cp.Month),
			},
			PageSize: 1,
		})
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			if id, ok := existing[0]["id"].(string); ok {
				cp.ID = id
			}
		}
	}
	if cp.ID == "" {
		key, err := mintKey()
		if err != nil {
			return nil, err
		}
		cp.ID = key
	}
	key, doc, err := toDoc(&cp)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Upsert(ctx, colFinancials, key, doc)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.FinancialEntry](stored)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// --- tenants ---

// TenantService serves the single tenant record of a deployment.
type TenantService struct {
	store *Store
}

func (s *TenantService) Current(ctx context.Context) (*model.Tenant, error) {
	doc, err := s.store.First(ctx, colTenants)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.Tenant](doc)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *TenantService) Update(ctx context.Context, t *model.Tenant) (*model.Tenant, error) {
	if t == nil || t.ID == "" {
		return nil, errs.New(http.StatusBadRequest, "", "tenant key required")
	}
	key, doc, err := toDoc(t)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Upsert(ctx, colTenants, key, doc)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.Tenant](stored)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// --- reference data ---

// ReferenceService serves pipeline stages and product lines.
type ReferenceService struct {
	store *Store
}

func (s *ReferenceService) Stages(ctx context.Context) ([]model.Stage, error) {
	docs, _, err := s.store.List(ctx, colStages, ListOpts{
		SortBy:      "sortOrder",
		SortNumeric: true,
		PageSize:    relatedPageSize,
	})
	if err != nil {
		return nil, err
	}
	return docsToModels[model.Stage](docs)
}

func (s *ReferenceService) SaveStage(ctx context.Context, st *model.Stage) (*model.Stage, error) {
	if st == nil || strings.TrimSpace(st.Name) == "" {
		return nil, errs.New(http.StatusBadRequest, "", "stage name required")
	}
	cp := *st
	if cp.ID == "" {
		key, err := mintKey()
		if err != nil {
			return nil, err
		}
		cp.ID = key
	}
	key, doc, err := toDoc(&cp)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Upsert(ctx, colStages, key, doc)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.Stage](stored)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *ReferenceService) DeleteStage(ctx context.Context, key string) error {
	if key == "" {
		return errs.New(http.StatusBadRequest, "", "empty stage key")
	}
	return s.store.Delete(ctx, colStages, key)
}

func (s *ReferenceService) ProductLines(ctx context.Context) ([]model.ProductLine, error) {
	docs, _, err := s.store.List(ctx, colProductLines, ListOpts{
		SortBy:   "name",
		PageSize: relatedPageSize,
	})
	if err != nil {
		return nil, err
	}
	return docsToModels[model.ProductLine](docs)
}

func (s *ReferenceService) SaveProductLine(ctx context.Context, p *model.ProductLine) (*model.ProductLine, error) {
	if p == nil || strings.TrimSpace(p.Name) == "" {
		return nil, errs.New(http.StatusBadRequest, "", "product line name required")
	}
	cp := *p
	if cp.ID == "" {
		key, err := mintKey()
		if err != nil {
			return nil, err
		}
		cp.ID = key
	}
	key, doc, err := toDoc(&cp)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Upsert(ctx, colProductLines, key, doc)
	if err != nil {
		return nil, err
	}
	m, err := toModel[model.ProductLine](stored)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *ReferenceService) DeleteProductLine(ctx context.Context, key string) error {
	if key == "" {
		return errs.New(http.StatusBadRequest, "", "empty product line key")
	}
	return s.store.Delete(ctx, colProductLines, key)
}
