package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dealgrid/dealgrid/internal/errs"
	"github.com/dealgrid/dealgrid/internal/model"
	"github.com/dealgrid/dealgrid/internal/token"
	"github.com/dealgrid/dealgrid/internal/transport"
)

func newTestBackend(t *testing.T, h http.Handler) (*Backend, *token.Store) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	st := token.NewMemStore()
	if err := st.Save(token.Pair{Access: "A1", Refresh: "R1"}, false); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return New(transport.New(srv.URL, st), st, nil), st
}

func TestClientGet_NormalizesIdentityAndDates(t *testing.T) {
	t.Parallel()

	b, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/Client/GetByKey" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("clientKey"); got != "abc-123" {
			t.Errorf("clientKey = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer A1" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{
			"result": {
				"id": 5,
				"key": "abc-123",
				"name": "acme",
				"active": true,
				"createdAt": {"_seconds": 1709251200, "_nanoseconds": 0}
			},
			"isError": false
		}`))
	}))

	got, err := b.Clients().Get(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "abc-123" {
		t.Fatalf("ID = %q, want the external key", got.ID)
	}
	if got.APIID != 5 {
		t.Fatalf("APIID = %d, want 5", got.APIID)
	}
	if want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC); !got.CreatedAt.Equal(want) {
		t.Fatalf("CreatedAt = %v, want %v", got.CreatedAt, want)
	}
}

func TestClientList_PagedObjectShape(t *testing.T) {
	t.Parallel()

	b, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("pageSize") != "10" || q.Get("sortBy") != "name" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{
			"result": {
				"items": [
					{"id": 1, "key": "c-1", "name": "alpha", "active": true},
					{"id": 2, "key": "c-2", "name": "beta", "active": false}
				],
				"totalCount": 12,
				"page": 2,
				"pageSize": 10,
				"totalPages": 2
			},
			"isError": false
		}`))
	}))

	clients, page, err := b.Clients().List(context.Background(), model.ListQuery{Page: 2, PageSize: 10, SortBy: "name"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(clients) != 2 || clients[0].ID != "c-1" || clients[1].ID != "c-2" {
		t.Fatalf("clients = %+v", clients)
	}
	if page.Total != 12 || page.Page != 2 || page.PageSize != 10 || page.TotalPages != 2 {
		t.Fatalf("page = %+v", page)
	}
}

func TestDealByClient_BareArrayResult(t *testing.T) {
	t.Parallel()

	b, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"result": [
				{"id": 1, "key": "d-1", "clientKey": "c-1", "title": "renewal", "amount": 100},
				{"id": 2, "key": "d-2", "clientKey": "c-1", "title": "expansion", "amount": 200}
			],
			"isError": false
		}`))
	}))

	deals, err := b.Deals().ByClient(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("ByClient: %v", err)
	}
	if len(deals) != 2 || deals[0].ID != "d-1" || deals[1].Title != "expansion" {
		t.Fatalf("deals = %+v", deals)
	}
}

func TestClientGet_ErrorEnvelopeOnOK(t *testing.T) {
	t.Parallel()

	b, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"isError": true, "errorMessage": "client not found", "statusCode": 404}`))
	}))

	_, err := b.Clients().Get(context.Background(), "missing")
	var apiErr *errs.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *errs.APIError, got %v", err)
	}
	if apiErr.Status != 404 || apiErr.Message != "client not found" {
		t.Fatalf("got %+v", apiErr)
	}
}

func TestLogin_StoresPairAndReturnsUser(t *testing.T) {
	t.Parallel()

	b, st := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/User/Login" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if creds.Email != "pat@example.com" || creds.Password != "hunter2" {
			t.Errorf("creds = %+v", creds)
		}
		w.Write([]byte(`{
			"result": {
				"accessToken": "A-new",
				"refreshToken": "R-new",
				"user": {"id": 9, "key": "u-1", "email": "pat@example.com", "role": "admin", "active": true}
			},
			"isError": false
		}`))
	}))

	u, err := b.Auth().Login(context.Background(), "pat@example.com", "hunter2", true)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.ID != "u-1" || u.Email != "pat@example.com" {
		t.Fatalf("user = %+v", u)
	}
	if st.Access() != "A-new" || st.Refresh() != "R-new" {
		t.Fatalf("store = %q %q", st.Access(), st.Refresh())
	}
	if got := st.Scope(); got != token.ScopeDurable {
		t.Fatalf("Scope() = %q, want durable for remember", got)
	}
}

func TestLogin_MissingTokensRejected(t *testing.T) {
	t.Parallel()

	b, st := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": {"accessToken": "", "refreshToken": "", "user": {}}, "isError": false}`))
	}))

	_, err := b.Auth().Login(context.Background(), "pat@example.com", "hunter2", false)
	var apiErr *errs.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("want 500 APIError, got %v", err)
	}
	if st.Access() != "A1" {
		t.Fatalf("a failed login must not disturb the stored pair")
	}
}

func TestLogin_EmptyCredentialsRejectedLocally(t *testing.T) {
	t.Parallel()

	var called bool
	b, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	if _, err := b.Auth().Login(context.Background(), "", "", false); err == nil {
		t.Fatalf("want error for empty credentials")
	}
	if called {
		t.Fatalf("empty credentials must not reach the server")
	}
}

func TestLogout_ClearsStoreEvenWhenServerFails(t *testing.T) {
	t.Parallel()

	b, st := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if err := b.Auth().Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if st.Has() {
		t.Fatalf("tokens should be cleared regardless of the server response")
	}
}

func TestDealUpdateStage_SendsBothKeys(t *testing.T) {
	t.Parallel()

	b, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/Deal/UpdateStage" || r.Method != http.MethodPut {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var payload struct {
			DealKey  string `json:"dealKey"`
			StageKey string `json:"stageKey"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if payload.DealKey != "d-1" || payload.StageKey != "s-2" {
			t.Errorf("payload = %+v", payload)
		}
		w.Write([]byte(`{"result": {"id": 1, "key": "d-1", "clientKey": "c-1", "title": "renewal", "stageKey": "s-2", "amount": 100}, "isError": false}`))
	}))

	deal, err := b.Deals().UpdateStage(context.Background(), "d-1", "s-2")
	if err != nil {
		t.Fatalf("UpdateStage: %v", err)
	}
	if deal.StageID != "s-2" {
		t.Fatalf("StageID = %q", deal.StageID)
	}
}

func TestValidationShortCircuits(t *testing.T) {
	t.Parallel()

	var called bool
	b, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	ctx := context.Background()

	if _, err := b.Clients().Get(ctx, ""); err == nil {
		t.Fatalf("empty client key accepted")
	}
	if _, err := b.Deals().Create(ctx, &model.Deal{Title: "no client"}); err == nil {
		t.Fatalf("deal without client accepted")
	}
	if _, err := b.Deals().UpdateStage(ctx, "d-1", ""); err == nil {
		t.Fatalf("empty stage key accepted")
	}
	if err := b.Clients().Delete(ctx, ""); err == nil {
		t.Fatalf("empty delete key accepted")
	}
	if called {
		t.Fatalf("local validation must not reach the server")
	}
}

func TestDocumentUpload_MultipartForm(t *testing.T) {
	t.Parallel()

	b, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("entityKind") != "deal" || r.FormValue("entityKey") != "d-1" {
			t.Errorf("form = %v", r.MultipartForm.Value)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "contract.pdf" || string(data) != "pdf bytes" {
			t.Errorf("file %q: %q", hdr.Filename, data)
		}
		w.Write([]byte(`{"result": {"id": 3, "key": "doc-1", "entityKind": "deal", "entityKey": "d-1", "fileName": "contract.pdf", "size": 9}, "isError": false}`))
	}))

	att, err := b.Documents().Upload(context.Background(), "deal", "d-1", "contract.pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if att.ID != "doc-1" || att.FileName != "contract.pdf" || att.Size != 9 {
		t.Fatalf("attachment = %+v", att)
	}
}

func TestFinancialYears(t *testing.T) {
	t.Parallel()

	b, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/Financial/GetYears" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"result": [2022, 2023, 2024], "isError": false}`))
	}))

	years, err := b.Financials().Years(context.Background())
	if err != nil {
		t.Fatalf("Years: %v", err)
	}
	if len(years) != 3 || years[0] != 2022 || years[2] != 2024 {
		t.Fatalf("years = %v", years)
	}
}

func TestBackendName(t *testing.T) {
	t.Parallel()

	b, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	if got := b.Name(); got != "rest" {
		t.Fatalf("Name() = %q", got)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
