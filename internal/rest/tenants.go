package rest

import (
	"context"
	"net/http"

	"github.com/dealgrid/dealgrid/internal/convert"
	"github.com/dealgrid/dealgrid/internal/endpoint"
	"github.com/dealgrid/dealgrid/internal/errs"
	"github.com/dealgrid/dealgrid/internal/model"
	"github.com/dealgrid/dealgrid/internal/transport"
)

// TenantService exposes the current tenant record.
type TenantService struct {
	t *transport.Client
}

func (s *TenantService) Current(ctx context.Context) (*model.Tenant, error) {
	body, err := s.t.Do(ctx, endpoint.TenantGetCurrent, nil, nil)
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.TenantDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireTenant(dto)
	return &m, nil
}

func (s *TenantService) Update(ctx context.Context, t *model.Tenant) (*model.Tenant, error) {
	if t == nil || t.ID == "" {
		return nil, errs.New(http.StatusBadRequest, "", "tenant key required")
	}
	body, err := s.t.Do(ctx, endpoint.TenantUpdate, nil, convert.ToWireTenant(t))
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.TenantDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireTenant(dto)
	return &m, nil
}
