// Package model defines domain entities used by the backends and the CLI.
//
// Entity IDs are canonical external keys (UUID-shaped strings). When an
// entity also has a numeric backend id, it rides along in APIID and is
// serialized under the "_apiId" side field.
package model

import "time"

// TokenPair collects issued access/refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Claims are the access-token claims both backends encode.
type Claims struct {
	Subject   string    `json:"subject"`
	Email     string    `json:"email,omitempty"`
	TenantID  string    `json:"tenantId,omitempty"`
	Role      string    `json:"role,omitempty"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the access token is past its expiry.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ListQuery carries pagination, sorting and free-form filters for list calls.
type ListQuery struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string // "asc" or "desc"
	Filters   map[string]string
}

// Page describes the position of a result slice within the full set.
type Page struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// User is an account that can sign in to a tenant.
type User struct {
	ID        string    `json:"id"`
	APIID     int64     `json:"_apiId,omitempty"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role,omitempty"`
	TenantID  string    `json:"tenantId,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Client is a customer organization tracked in the CRM.
type Client struct {
	ID        string    `json:"id"`
	APIID     int64     `json:"_apiId,omitempty"`
	Name      string    `json:"name"`
	Industry  string    `json:"industry,omitempty"`
	Website   string    `json:"website,omitempty"`
	OwnerID   string    `json:"ownerId,omitempty"` // user key of the account owner
	Notes     string    `json:"notes,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Deal is a sales opportunity moving through the pipeline.
type Deal struct {
	ID            string    `json:"id"`
	APIID         int64     `json:"_apiId,omitempty"`
	ClientID      string    `json:"clientId"`
	Title         string    `json:"title"`
	StageID       string    `json:"stageId,omitempty"`
	ProductLineID string    `json:"productLineId,omitempty"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency,omitempty"`
	Probability   int       `json:"probability,omitempty"` // percent, 0..100
	ExpectedClose time.Time `json:"expectedClose,omitzero"`
	OwnerID       string    `json:"ownerId,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
	UpdatedAt     time.Time `json:"updatedAt,omitzero"`
}

// Task is a follow-up attached to a deal or a client.
type Task struct {
	ID         string    `json:"id"`
	APIID      int64     `json:"_apiId,omitempty"`
	DealID     string    `json:"dealId,omitempty"`
	ClientID   string    `json:"clientId,omitempty"`
	Title      string    `json:"title"`
	Notes      string    `json:"notes,omitempty"`
	AssigneeID string    `json:"assigneeId,omitempty"`
	DueDate    time.Time `json:"dueDate,omitzero"`
	Done       bool      `json:"done"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
	UpdatedAt  time.Time `json:"updatedAt,omitzero"`
}

// FinancialEntry is one month of forecast/actual numbers for a client and
// product line.
type FinancialEntry struct {
	ID            string    `json:"id"`
	APIID         int64     `json:"_apiId,omitempty"`
	ClientID      string    `json:"clientId,omitempty"`
	ProductLineID string    `json:"productLineId,omitempty"`
	Year          int       `json:"year"`
	Month         int       `json:"month"` // 1..12
	Forecast      float64   `json:"forecast"`
	Actual        float64   `json:"actual"`
	UpdatedAt     time.Time `json:"updatedAt,omitzero"`
}

// Tenant is the organization-level record every other entity belongs to.
type Tenant struct {
	ID        string         `json:"id"`
	APIID     int64          `json:"_apiId,omitempty"`
	Name      string         `json:"name"`
	Plan      string         `json:"plan,omitempty"`
	Settings  map[string]any `json:"settings,omitempty"`
	CreatedAt time.Time      `json:"createdAt,omitzero"`
	UpdatedAt time.Time      `json:"updatedAt,omitzero"`
}

// Stage is a pipeline stage reference record.
type Stage struct {
	ID         string `json:"id"`
	APIID      int64  `json:"_apiId,omitempty"`
	Name       string `json:"name"`
	SortOrder  int    `json:"sortOrder"`
	WinPercent int    `json:"winPercent"` // default probability for deals entering the stage
	IsTerminal bool   `json:"isTerminal"`
	IsWon      bool   `json:"isWon"`
}

// ProductLine is a product/service family reference record.
type ProductLine struct {
	ID     string `json:"id"`
	APIID  int64  `json:"_apiId,omitempty"`
	Name   string `json:"name"`
	Code   string `json:"code,omitempty"`
	Active bool   `json:"active"`
}

// Attachment is a stored document linked to an entity.
type Attachment struct {
	ID          string    `json:"id"`
	APIID       int64     `json:"_apiId,omitempty"`
	EntityKind  string    `json:"entityKind"` // "client", "deal" or "task"
	EntityID    string    `json:"entityId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size"`
	UploadedBy  string    `json:"uploadedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}
