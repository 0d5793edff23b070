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

// ClientService is CRUD plus search over customer organizations.
type ClientService struct {
	t *transport.Client
}

func (s *ClientService) List(ctx context.Context, q model.ListQuery) ([]model.Client, model.Page, error) {
	body, err := s.t.Do(ctx, endpoint.ClientGetList, endpoint.ListValues(q), nil)
	if err != nil {
		return nil, model.Page{}, err
	}
	dtos, pg, err := wire.UnwrapPaged[convert.ClientDTO](body)
	if err != nil {
		return nil, model.Page{}, err
	}
	return convert.FromWireClients(dtos), pg, nil
}

func (s *ClientService) Get(ctx context.Context, key string) (*model.Client, error) {
	if key == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty client key")
	}
	body, err := s.t.Do(ctx, endpoint.ClientGetByKey, endpoint.Params("clientKey", key), nil)
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.ClientDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireClient(dto)
	return &m, nil
}

func (s *ClientService) Search(ctx context.Context, term string, q model.ListQuery) ([]model.Client, model.Page, error) {
	v := endpoint.ListValues(q)
	if term != "" {
		v.Set("q", term)
	}
	body, err := s.t.Do(ctx, endpoint.ClientSearch, v, nil)
	if err != nil {
		return nil, model.Page{}, err
	}
	dtos, pg, err := wire.UnwrapPaged[convert.ClientDTO](body)
	if err != nil {
		return nil, model.Page{}, err
	}
	return convert.FromWireClients(dtos), pg, nil
}

func (s *ClientService) Create(ctx context.Context, c *model.Client) (*model.Client, error) {
	if c == nil || c.Name == "" {
		return nil, errs.New(http.StatusBadRequest, "", "client name required")
	}
	body, err := s.t.Do(ctx, endpoint.ClientCreate, nil, convert.ToWireClient(c))
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.ClientDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireClient(dto)
	return &m, nil
}

func (s *ClientService) Update(ctx context.Context, c *model.Client) (*model.Client, error) {
	if c == nil || c.ID == "" {
		return nil, errs.New(http.StatusBadRequest, "", "client key required")
	}
	body, err := s.t.Do(ctx, endpoint.ClientUpdate, nil, convert.ToWireClient(c))
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.ClientDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireClient(dto)
	return &m, nil
}

func (s *ClientService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errs.New(http.StatusBadRequest, "", "empty client key")
	}
	body, err := s.t.Do(ctx, endpoint.ClientDelete, endpoint.Params("clientKey", key), nil)
	if err != nil {
		return err
	}
	return unwrapDiscard(body)
}
