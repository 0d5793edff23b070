// Package convert maps hosted-API wire payloads onto domain models and
// back. Wire payloads carry a numeric id plus an external key; models
// carry the canonical string id with the numeric id tucked into APIID.
package convert

import (
	"strconv"
	"time"

	"github.com/dealgrid/dealgrid/internal/model"
	"github.com/dealgrid/dealgrid/internal/wire"
)

// --- helpers ---

// canonicalID applies the identity rule: the external key when present,
// otherwise the numeric id rendered as a string.
func canonicalID(key string, id int64) string {
	if key != "" {
		return key
	}
	if id != 0 {
		return strconv.FormatInt(id, 10)
	}
	return ""
}

func flex(t time.Time) wire.FlexTime { return wire.NewFlexTime(t) }

// --- Login ---

// LoginRequest is the credentials payload for /api/User/Login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the token pair plus signed-in user a login returns.
type LoginResult struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	User         UserDTO `json:"user"`
}

// --- User ---

// UserDTO mirrors the hosted API's user payload.
type UserDTO struct {
	ID        int64         `json:"id,omitempty"`
	Key       string        `json:"key,omitempty"`
	Email     string        `json:"email"`
	Name      string        `json:"name,omitempty"`
	Role      string        `json:"role,omitempty"`
	TenantKey string        `json:"tenantKey,omitempty"`
	Active    bool          `json:"active"`
	CreatedAt wire.FlexTime `json:"createdAt,omitzero"`
}

// FromWireUser converts a wire user to the domain model.
func FromWireUser(d UserDTO) model.User {
	return model.User{
		ID:        canonicalID(d.Key, d.ID),
		APIID:     d.ID,
		Email:     d.Email,
		Name:      d.Name,
		Role:      d.Role,
		TenantID:  d.TenantKey,
		Active:    d.Active,
		CreatedAt: d.CreatedAt.Time,
	}
}

// FromWireUsers converts a slice of wire users.
func FromWireUsers(in []UserDTO) []model.User {
	out := make([]model.User, 0, len(in))
	for _, d := range in {
		out = append(out, FromWireUser(d))
	}
	return out
}

// --- Client ---

// ClientDTO mirrors the hosted API's client payload.
type ClientDTO struct {
	ID        int64         `json:"id,omitempty"`
	Key       string        `json:"key,omitempty"`
	Name      string        `json:"name"`
	Industry  string        `json:"industry,omitempty"`
	Website   string        `json:"website,omitempty"`
	OwnerKey  string        `json:"ownerKey,omitempty"`
	Notes     string        `json:"notes,omitempty"`
	Active    bool          `json:"active"`
	CreatedAt wire.FlexTime `json:"createdAt,omitzero"`
	UpdatedAt wire.FlexTime `json:"updatedAt,omitzero"`
}

// FromWireClient converts a wire client to the domain model.
func FromWireClient(d ClientDTO) model.Client {
	return model.Client{
		ID:        canonicalID(d.Key, d.ID),
		APIID:     d.ID,
		Name:      d.Name,
		Industry:  d.Industry,
		Website:   d.Website,
		OwnerID:   d.OwnerKey,
		Notes:     d.Notes,
		Active:    d.Active,
		CreatedAt: d.CreatedAt.Time,
		UpdatedAt: d.UpdatedAt.Time,
	}
}

// FromWireClients converts a slice of wire clients.
func FromWireClients(in []ClientDTO) []model.Client {
	out := make([]model.Client, 0, len(in))
	for _, d := range in {
		out = append(out, FromWireClient(d))
	}
	return out
}

// ToWireClient prepares a domain client for submission. A known numeric
// id goes back into the id slot with the canonical key alongside.
func ToWireClient(m *model.Client) ClientDTO {
	return ClientDTO{
		ID:        m.APIID,
		Key:       m.ID,
		Name:      m.Name,
		Industry:  m.Industry,
		Website:   m.Website,
		OwnerKey:  m.OwnerID,
		Notes:     m.Notes,
		Active:    m.Active,
		CreatedAt: flex(m.CreatedAt),
		UpdatedAt: flex(m.UpdatedAt),
	}
}

// --- Deal ---

// DealDTO mirrors the hosted API's deal payload. Relations reference
// other entities by their external keys.
type DealDTO struct {
	ID             int64         `json:"id,omitempty"`
	Key            string        `json:"key,omitempty"`
	ClientKey      string        `json:"clientKey"`
	Title          string        `json:"title"`
	StageKey       string        `json:"stageKey,omitempty"`
	ProductLineKey string        `json:"productLineKey,omitempty"`
	Amount         float64       `json:"amount"`
	Currency       string        `json:"currency,omitempty"`
	Probability    int           `json:"probability,omitempty"`
	ExpectedClose  wire.FlexTime `json:"expectedClose,omitzero"`
	OwnerKey       string        `json:"ownerKey,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	CreatedAt      wire.FlexTime `json:"createdAt,omitzero"`
	UpdatedAt      wire.FlexTime `json:"updatedAt,omitzero"`
}

// FromWireDeal converts a wire deal to the domain model.
func FromWireDeal(d DealDTO) model.Deal {
	return model.Deal{
		ID:            canonicalID(d.Key, d.ID),
		APIID:         d.ID,
		ClientID:      d.ClientKey,
		Title:         d.Title,
		StageID:       d.StageKey,
		ProductLineID: d.ProductLineKey,
		Amount:        d.Amount,
		Currency:      d.Currency,
		Probability:   d.Probability,
		ExpectedClose: d.ExpectedClose.Time,
		OwnerID:       d.OwnerKey,
		Notes:         d.Notes,
		CreatedAt:     d.CreatedAt.Time,
		UpdatedAt:     d.UpdatedAt.Time,
	}
}

// FromWireDeals converts a slice of wire deals.
func FromWireDeals(in []DealDTO) []model.Deal {
	out := make([]model.Deal, 0, len(in))
	for _, d := range in {
		out = append(out, FromWireDeal(d))
	}
	return out
}

// ToWireDeal prepares a domain deal for submission.
func ToWireDeal(m *model.Deal) DealDTO {
	return DealDTO{
		ID:             m.APIID,
		Key:            m.ID,
		ClientKey:      m.ClientID,
		Title:          m.Title,
		StageKey:       m.StageID,
		ProductLineKey: m.ProductLineID,
		Amount:         m.Amount,
		Currency:       m.Currency,
		Probability:    m.Probability,
		ExpectedClose:  flex(m.ExpectedClose),
		OwnerKey:       m.OwnerID,
		Notes:          m.Notes,
		CreatedAt:      flex(m.CreatedAt),
		UpdatedAt:      flex(m.UpdatedAt),
	}
}

// --- Task ---

// TaskDTO mirrors the hosted API's task payload.
type TaskDTO struct {
	ID          int64         `json:"id,omitempty"`
	Key         string        `json:"key,omitempty"`
	DealKey     string        `json:"dealKey,omitempty"`
	ClientKey   string        `json:"clientKey,omitempty"`
	Title       string        `json:"title"`
	Notes       string        `json:"notes,omitempty"`
	AssigneeKey string        `json:"assigneeKey,omitempty"`
	DueDate     wire.FlexTime `json:"dueDate,omitzero"`
	Done        bool          `json:"done"`
	CreatedAt   wire.FlexTime `json:"createdAt,omitzero"`
	UpdatedAt   wire.FlexTime `json:"updatedAt,omitzero"`
}

// FromWireTask converts a wire task to the domain model.
func FromWireTask(d TaskDTO) model.Task {
	return model.Task{
		ID:         canonicalID(d.Key, d.ID),
		APIID:      d.ID,
		DealID:     d.DealKey,
		ClientID:   d.ClientKey,
		Title:      d.Title,
		Notes:      d.Notes,
		AssigneeID: d.AssigneeKey,
		DueDate:    d.DueDate.Time,
		Done:       d.Done,
		CreatedAt:  d.CreatedAt.Time,
		UpdatedAt:  d.UpdatedAt.Time,
	}
}

// FromWireTasks converts a slice of wire tasks.
func FromWireTasks(in []TaskDTO) []model.Task {
	out := make([]model.Task, 0, len(in))
	for _, d := range in {
		out = append(out, FromWireTask(d))
	}
	return out
}

// ToWireTask prepares a domain task for submission.
func ToWireTask(m *model.Task) TaskDTO {
	return TaskDTO{
		ID:          m.APIID,
		Key:         m.ID,
		DealKey:     m.DealID,
		ClientKey:   m.ClientID,
		Title:       m.Title,
		Notes:       m.Notes,
		AssigneeKey: m.AssigneeID,
		DueDate:     flex(m.DueDate),
		Done:        m.Done,
		CreatedAt:   flex(m.CreatedAt),
		UpdatedAt:   flex(m.UpdatedAt),
	}
}

// --- FinancialEntry ---

// FinancialEntryDTO mirrors the hosted API's financial entry payload.
type FinancialEntryDTO struct {
	ID             int64         `json:"id,omitempty"`
	Key            string        `json:"key,omitempty"`
	ClientKey      string        `json:"clientKey,omitempty"`
	ProductLineKey string        `json:"productLineKey,omitempty"`
	Year           int           `json:"year"`
	Month          int           `json:"month"`
	Forecast       float64       `json:"forecast"`
	Actual         float64       `json:"actual"`
	UpdatedAt      wire.FlexTime `json:"updatedAt,omitzero"`
}

// FromWireFinancialEntry converts a wire financial entry to the domain model.
func FromWireFinancialEntry(d FinancialEntryDTO) model.FinancialEntry {
	return model.FinancialEntry{
		ID:            canonicalID(d.Key, d.ID),
		APIID:         d.ID,
		ClientID:      d.ClientKey,
		ProductLineID: d.ProductLineKey,
		Year:          d.Year,
		Month:         d.Month,
		Forecast:      d.Forecast,
		Actual:        d.Actual,
		UpdatedAt:     d.UpdatedAt.Time,
	}
}

// FromWireFinancialEntries converts a slice of wire financial entries.
func FromWireFinancialEntries(in []FinancialEntryDTO) []model.FinancialEntry {
	out := make([]model.FinancialEntry, 0, len(in))
	for _, d := range in {
		out = append(out, FromWireFinancialEntry(d))
	}
	return out
}

// ToWireFinancialEntry prepares a domain financial entry for submission.
func ToWireFinancialEntry(m *model.FinancialEntry) FinancialEntryDTO {
	return FinancialEntryDTO{
		ID:             m.APIID,
		Key:            m.ID,
		ClientKey:      m.ClientID,
		ProductLineKey: m.ProductLineID,
		Year:           m.Year,
		Month:          m.Month,
		Forecast:       m.Forecast,
		Actual:         m.Actual,
		UpdatedAt:      flex(m.UpdatedAt),
	}
}

// --- Tenant ---

// TenantDTO mirrors the hosted API's tenant payload.
type TenantDTO struct {
	ID        int64          `json:"id,omitempty"`
	Key       string         `json:"key,omitempty"`
	Name      string         `json:"name"`
	Plan      string         `json:"plan,omitempty"`
	Settings  map[string]any `json:"settings,omitempty"`
	CreatedAt wire.FlexTime  `json:"createdAt,omitzero"`
	UpdatedAt wire.FlexTime  `json:"updatedAt,omitzero"`
}

// FromWireTenant converts a wire tenant to the domain model.
func FromWireTenant(d TenantDTO) model.Tenant {
	return model.Tenant{
		ID:        canonicalID(d.Key, d.ID),
		APIID:     d.ID,
		Name:      d.Name,
		Plan:      d.Plan,
		Settings:  d.Settings,
		CreatedAt: d.CreatedAt.Time,
		UpdatedAt: d.UpdatedAt.Time,
	}
}

// ToWireTenant prepares a domain tenant for submission.
func ToWireTenant(m *model.Tenant) TenantDTO {
	return TenantDTO{
		ID:        m.APIID,
		Key:       m.ID,
		Name:      m.Name,
		Plan:      m.Plan,
		Settings:  m.Settings,
		CreatedAt: flex(m.CreatedAt),
		UpdatedAt: flex(m.UpdatedAt),
	}
}

// --- Stage ---

// StageDTO mirrors the hosted API's pipeline stage payload.
type StageDTO struct {
	ID         int64  `json:"id,omitempty"`
	Key        string `json:"key,omitempty"`
	Name       string `json:"name"`
	SortOrder  int    `json:"sortOrder"`
	WinPercent int    `json:"winPercent"`
	IsTerminal bool   `json:"isTerminal"`
	IsWon      bool   `json:"isWon"`
}

// FromWireStage converts a wire stage to the domain model.
func FromWireStage(d StageDTO) model.Stage {
	return model.Stage{
		ID:         canonicalID(d.Key, d.ID),
		APIID:      d.ID,
		Name:       d.Name,
		SortOrder:  d.SortOrder,
		WinPercent: d.WinPercent,
		IsTerminal: d.IsTerminal,
		IsWon:      d.IsWon,
	}
}

// FromWireStages converts a slice of wire stages.
func FromWireStages(in []StageDTO) []model.Stage {
	out := make([]model.Stage, 0, len(in))
	for _, d := range in {
		out = append(out, FromWireStage(d))
	}
	return out
}

// ToWireStage prepares a domain stage for submission.
func ToWireStage(m *model.Stage) StageDTO {
	return StageDTO{
		ID:         m.APIID,
		Key:        m.ID,
		Name:       m.Name,
		SortOrder:  m.SortOrder,
		WinPercent: m.WinPercent,
		IsTerminal: m.IsTerminal,
		IsWon:      m.IsWon,
	}
}

// --- ProductLine ---

// ProductLineDTO mirrors the hosted API's product line payload.
type ProductLineDTO struct {
	ID     int64  `json:"id,omitempty"`
	Key    string `json:"key,omitempty"`
	Name   string `json:"name"`
	Code   string `json:"code,omitempty"`
	Active bool   `json:"active"`
}

// FromWireProductLine converts a wire product line to the domain model.
func FromWireProductLine(d ProductLineDTO) model.ProductLine {
	return model.ProductLine{
		ID:     canonicalID(d.Key, d.ID),
		APIID:  d.ID,
		Name:   d.Name,
		Code:   d.Code,
		Active: d.Active,
	}
}

// FromWireProductLines converts a slice of wire product lines.
func FromWireProductLines(in []ProductLineDTO) []model.ProductLine {
	out := make([]model.ProductLine, 0, len(in))
	for _, d := range in {
		out = append(out, FromWireProductLine(d))
	}
	return out
}

// ToWireProductLine prepares a domain product line for submission.
func ToWireProductLine(m *model.ProductLine) ProductLineDTO {
	return ProductLineDTO{
		ID:     m.APIID,
		Key:    m.ID,
		Name:   m.Name,
		Code:   m.Code,
		Active: m.Active,
	}
}

// --- Attachment ---

// AttachmentDTO mirrors the hosted API's document payload.
type AttachmentDTO struct {
	ID          int64         `json:"id,omitempty"`
	Key         string        `json:"key,omitempty"`
	EntityKind  string        `json:"entityKind"`
	EntityKey   string        `json:"entityKey"`
	FileName    string        `json:"fileName"`
	ContentType string        `json:"contentType,omitempty"`
	Size        int64         `json:"size"`
	UploadedBy  string        `json:"uploadedBy,omitempty"`
	CreatedAt   wire.FlexTime `json:"createdAt,omitzero"`
}

// FromWireAttachment converts a wire document to the domain model.
func FromWireAttachment(d AttachmentDTO) model.Attachment {
	return model.Attachment{
		ID:          canonicalID(d.Key, d.ID),
		APIID:       d.ID,
		EntityKind:  d.EntityKind,
		EntityID:    d.EntityKey,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		Size:        d.Size,
		UploadedBy:  d.UploadedBy,
		CreatedAt:   d.CreatedAt.Time,
	}
}

// FromWireAttachments converts a slice of wire documents.
func FromWireAttachments(in []AttachmentDTO) []model.Attachment {
	out := make([]model.Attachment, 0, len(in))
	for _, d := range in {
		out = append(out, FromWireAttachment(d))
	}
	return out
}
