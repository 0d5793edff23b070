// Package endpoint is the static registry of hosted-API operations. Every
// REST call made anywhere in the codebase names one of these, so the full
// HTTP surface in use is visible in a single file.
package endpoint

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dealgrid/dealgrid/internal/model"
)

// Endpoint names one hosted-API operation.
type Endpoint struct {
	Method string
	Path   string
}

var (
	UserLogin        = Endpoint{http.MethodPost, "/api/User/Login"}
	UserRefreshToken = Endpoint{http.MethodPost, "/api/User/RefreshToken"}
	UserLogout       = Endpoint{http.MethodPost, "/api/User/Logout"}
	UserMe           = Endpoint{http.MethodGet, "/api/User/Me"}
	UserGetList      = Endpoint{http.MethodGet, "/api/User/GetList"}

	ClientGetList  = Endpoint{http.MethodGet, "/api/Client/GetList"}
	ClientGetByKey = Endpoint{http.MethodGet, "/api/Client/GetByKey"}
	ClientSearch   = Endpoint{http.MethodGet, "/api/Client/Search"}
	ClientCreate   = Endpoint{http.MethodPost, "/api/Client/Create"}
	ClientUpdate   = Endpoint{http.MethodPut, "/api/Client/Update"}
	ClientDelete   = Endpoint{http.MethodDelete, "/api/Client/Delete"}

	DealGetList     = Endpoint{http.MethodGet, "/api/Deal/GetList"}
	DealGetByKey    = Endpoint{http.MethodGet, "/api/Deal/GetByKey"}
	DealGetByClient = Endpoint{http.MethodGet, "/api/Deal/GetByClient"}
	DealCreate      = Endpoint{http.MethodPost, "/api/Deal/CreateDeal"}
	DealUpdate      = Endpoint{http.MethodPut, "/api/Deal/UpdateDeal"}
	DealUpdateStage = Endpoint{http.MethodPut, "/api/Deal/UpdateStage"}
	DealDelete      = Endpoint{http.MethodDelete, "/api/Deal/DeleteDeal"}

	TaskGetList   = Endpoint{http.MethodGet, "/api/Task/GetList"}
	TaskGetByKey  = Endpoint{http.MethodGet, "/api/Task/GetByKey"}
	TaskGetByDeal = Endpoint{http.MethodGet, "/api/Task/GetByDeal"}
	TaskCreate    = Endpoint{http.MethodPost, "/api/Task/Create"}
	TaskUpdate    = Endpoint{http.MethodPut, "/api/Task/Update"}
	TaskComplete  = Endpoint{http.MethodPut, "/api/Task/Complete"}
	TaskDelete    = Endpoint{http.MethodDelete, "/api/Task/Delete"}

	FinancialGetByYear   = Endpoint{http.MethodGet, "/api/Financial/GetByYear"}
	FinancialGetYears    = Endpoint{http.MethodGet, "/api/Financial/GetYears"}
	FinancialGetByClient = Endpoint{http.MethodGet, "/api/Financial/GetByClient"}
	FinancialUpsert      = Endpoint{http.MethodPost, "/api/Financial/Upsert"}

	TenantGetCurrent = Endpoint{http.MethodGet, "/api/Tenant/GetCurrent"}
	TenantUpdate     = Endpoint{http.MethodPut, "/api/Tenant/Update"}

	ReferenceGetStages         = Endpoint{http.MethodGet, "/api/Reference/GetStages"}
	ReferenceSaveStage         = Endpoint{http.MethodPost, "/api/Reference/SaveStage"}
	ReferenceDeleteStage       = Endpoint{http.MethodDelete, "/api/Reference/DeleteStage"}
	ReferenceGetProductLines   = Endpoint{http.MethodGet, "/api/Reference/GetProductLines"}
	ReferenceSaveProductLine   = Endpoint{http.MethodPost, "/api/Reference/SaveProductLine"}
	ReferenceDeleteProductLine = Endpoint{http.MethodDelete, "/api/Reference/DeleteProductLine"}

	DocumentUpload      = Endpoint{http.MethodPost, "/api/Document/Upload"}
	DocumentGetByEntity = Endpoint{http.MethodGet, "/api/Document/GetByEntity"}
	DocumentDelete      = Endpoint{http.MethodDelete, "/api/Document/Delete"}
)

// URL joins the base URL, the endpoint path and the encoded query.
// Empty-valued parameters are dropped before encoding.
func (e Endpoint) URL(base string, q url.Values) string {
	u := strings.TrimRight(base, "/") + e.Path
	if enc := encode(q); enc != "" {
		u += "?" + enc
	}
	return u
}

// Params builds url.Values from alternating key/value pairs, skipping
// pairs with an empty value.
func Params(pairs ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i] != "" && pairs[i+1] != "" {
			v.Set(pairs[i], pairs[i+1])
		}
	}
	return v
}

// ListValues encodes a ListQuery as query parameters. Zero values and
// empty filters are omitted so defaults stay server-side.
func ListValues(q model.ListQuery) url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
		if q.SortOrder != "" {
			v.Set("sortOrder", q.SortOrder)
		}
	}
	for k, val := range q.Filters {
		if k != "" && val != "" {
			v.Set(k, val)
		}
	}
	return v
}

func encode(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	clean := url.Values{}
	for k, vals := range q {
		for _, val := range vals {
			if k != "" && val != "" {
				clean.Add(k, val)
			}
		}
	}
	return clean.Encode()
}
