package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dealgrid/dealgrid/internal/convert"
	"github.com/dealgrid/dealgrid/internal/endpoint"
	"github.com/dealgrid/dealgrid/internal/errs"
	"github.com/dealgrid/dealgrid/internal/model"
	"github.com/dealgrid/dealgrid/internal/transport"
	"github.com/dealgrid/dealgrid/internal/wire"
)

// FinancialService reads and writes monthly forecast/actual entries.
type FinancialService struct {
	t *transport.Client
}

func (s *FinancialService) Years(ctx context.Context) ([]int, error) {
	body, err := s.t.Do(ctx, endpoint.FinancialGetYears, nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[[]int](body)
}

func (s *FinancialService) ByYear(ctx context.Context, year int) ([]model.FinancialEntry, error) {
	if year <= 0 {
		return nil, errs.New(http.StatusBadRequest, "", "year required")
	}
	body, err := s.t.Do(ctx, endpoint.FinancialGetByYear, endpoint.Params("year", strconv.Itoa(year)), nil)
	if err != nil {
		return nil, err
	}
	dtos, _, err := wire.UnwrapPaged[convert.FinancialEntryDTO](body)
	if err != nil {
		return nil, err
	}
	return convert.FromWireFinancialEntries(dtos), nil
}

func (s *FinancialService) ByClient(ctx context.Context, clientKey string) ([]model.FinancialEntry, error) {
	if clientKey == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty client key")
	}
	body, err := s.t.Do(ctx, endpoint.FinancialGetByClient, endpoint.Params("clientKey", clientKey), nil)
	if err != nil {
		return nil, err
	}
	dtos, _, err := wire.UnwrapPaged[convert.FinancialEntryDTO](body)
	if err != nil {
		return nil, err
	}
	return convert.FromWireFinancialEntries(dtos), nil
}

func (s *FinancialService) Upsert(ctx context.Context, e *model.FinancialEntry) (*model.FinancialEntry, error) {
	if e == nil || e.Year <= 0 || e.Month < 1 || e.Month > 12 {
		return nil, errs.New(http.StatusBadRequest, "", "financial entry needs a year and a month 1..12")
	}
	body, err := s.t.Do(ctx, endpoint.FinancialUpsert, nil, convert.ToWireFinancialEntry(e))
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.FinancialEntryDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireFinancialEntry(dto)
	return &m, nil
}
