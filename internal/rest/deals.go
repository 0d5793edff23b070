package rest

import (
	"context"
	"net/http"

	"github.com/dealgrid/dealgrid/internal/convert"
	"github.com/dealgrid/dealgrid/internal/endpoint"
	"github.com/dealgrid/dealgrid/internal/errs"
	"github.com/dealgrid/dealgrid/internal/model"
	"github.com/dealgrid/dealgrid/internal/transport"
	"github.com/dealgrid/dealgrid/internal/wire"
)

// DealService is CRUD plus pipeline operations over deals.
type DealService struct {
	t *transport.Client
}

func (s *DealService) List(ctx context.Context, q model.ListQuery) ([]model.Deal, model.Page, error) {
	body, err := s.t.Do(ctx, endpoint.DealGetList, endpoint.ListValues(q), nil)
	if err != nil {
		return nil, model.Page{}, err
	}
	dtos, pg, err := wire.UnwrapPaged[convert.DealDTO](body)
	if err != nil {
		return nil, model.Page{}, err
	}
	return convert.FromWireDeals(dtos), pg, nil
}

func (s *DealService) Get(ctx context.Context, key string) (*model.Deal, error) {
	if key == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty deal key")
	}
	body, err := s.t.Do(ctx, endpoint.DealGetByKey, endpoint.Params("dealKey", key), nil)
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.DealDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireDeal(dto)
	return &m, nil
}

func (s *DealService) ByClient(ctx context.Context, clientKey string) ([]model.Deal, error) {
	if clientKey == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty client key")
	}
	body, err := s.t.Do(ctx, endpoint.DealGetByClient, endpoint.Params("clientKey", clientKey), nil)
	if err != nil {
		return nil, err
	}
	dtos, _, err := wire.UnwrapPaged[convert.DealDTO](body)
	if err != nil {
		return nil, err
	}
	return convert.FromWireDeals(dtos), nil
}

func (s *DealService) Create(ctx context.Context, d *model.Deal) (*model.Deal, error) {
	if d == nil || d.Title == "" || d.ClientID == "" {
		return nil, errs.New(http.StatusBadRequest, "", "deal title and client key required")
	}
	body, err := s.t.Do(ctx, endpoint.DealCreate, nil, convert.ToWireDeal(d))
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.DealDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireDeal(dto)
	return &m, nil
}

func (s *DealService) Update(ctx context.Context, d *model.Deal) (*model.Deal, error) {
	if d == nil || d.ID == "" {
		return nil, errs.New(http.StatusBadRequest, "", "deal key required")
	}
	body, err := s.t.Do(ctx, endpoint.DealUpdate, nil, convert.ToWireDeal(d))
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.DealDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireDeal(dto)
	return &m, nil
}

func (s *DealService) UpdateStage(ctx context.Context, key, stageKey string) (*model.Deal, error) {
	if key == "" || stageKey == "" {
		return nil, errs.New(http.StatusBadRequest, "", "deal key and stage key required")
	}
	payload := struct {
		DealKey  string `json:"dealKey"`
		StageKey string `json:"stageKey"`
	}{key, stageKey}
	body, err := s.t.Do(ctx, endpoint.DealUpdateStage, nil, payload)
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.DealDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireDeal(dto)
	return &m, nil
}

func (s *DealService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errs.New(http.StatusBadRequest, "", "empty deal key")
	}
	body, err := s.t.Do(ctx, endpoint.DealDelete, endpoint.Params("dealKey", key), nil)
	if err != nil {
		return err
	}
	return unwrapDiscard(body)
}
