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

// ReferenceService manages pipeline stages and product lines.
type ReferenceService struct {
	t *transport.Client
}

func (s *ReferenceService) Stages(ctx context.Context) ([]model.Stage, error) {
	body, err := s.t.Do(ctx, endpoint.ReferenceGetStages, nil, nil)
	if err != nil {
		return nil, err
	}
	dtos, _, err := wire.UnwrapPaged[convert.StageDTO](body)
	if err != nil {
		return nil, err
	}
	return convert.FromWireStages(dtos), nil
}

func (s *ReferenceService) SaveStage(ctx context.Context, st *model.Stage) (*model.Stage, error) {
	if st == nil || st.Name == "" {
		return nil, errs.New(http.StatusBadRequest, "", "stage name required")
	}
	body, err := s.t.Do(ctx, endpoint.ReferenceSaveStage, nil, convert.ToWireStage(st))
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.StageDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireStage(dto)
	return &m, nil
}

func (s *ReferenceService) DeleteStage(ctx context.Context, key string) error {
	if key == "" {
		return errs.New(http.StatusBadRequest, "", "empty stage key")
	}
	body, err := s.t.Do(ctx, endpoint.ReferenceDeleteStage, endpoint.Params("stageKey", key), nil)
	if err != nil {
		return err
	}
	return unwrapDiscard(body)
}

func (s *ReferenceService) ProductLines(ctx context.Context) ([]model.ProductLine, error) {
	body, err := s.t.Do(ctx, endpoint.ReferenceGetProductLines, nil, nil)
	if err != nil {
		return nil, err
	}
	dtos, _, err := wire.UnwrapPaged[convert.ProductLineDTO](body)
	if err != nil {
		return nil, err
	}
	return convert.FromWireProductLines(dtos), nil
}

func (s *ReferenceService) SaveProductLine(ctx context.Context, p *model.ProductLine) (*model.ProductLine, error) {
	if p == nil || p.Name == "" {
		return nil, errs.New(http.StatusBadRequest, "", "product line name required")
	}
	body, err := s.t.Do(ctx, endpoint.ReferenceSaveProductLine, nil, convert.ToWireProductLine(p))
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.ProductLineDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireProductLine(dto)
	return &m, nil
}

func (s *ReferenceService) DeleteProductLine(ctx context.Context, key string) error {
	if key == "" {
		return errs.New(http.StatusBadRequest, "", "empty product line key")
	}
	body, err := s.t.Do(ctx, endpoint.ReferenceDeleteProductLine, endpoint.Params("productLineKey", key), nil)
	if err != nil {
		return err
	}
	return unwrapDiscard(body)
}
