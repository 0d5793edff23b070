package rest

import (
	"context"

	"github.com/dealgrid/dealgrid/internal/convert"
	"github.com/dealgrid/dealgrid/internal/endpoint"
	"github.com/dealgrid/dealgrid/internal/model"
	"github.com/dealgrid/dealgrid/internal/transport"
	"github.com/dealgrid/dealgrid/internal/wire"
)

// UserService lists tenant accounts.
type UserService struct {
	t *transport.Client
}

func (s *UserService) List(ctx context.Context, q model.ListQuery) ([]model.User, model.Page, error) {
	body, err := s.t.Do(ctx, endpoint.UserGetList, endpoint.ListValues(q), nil)
	if err != nil {
		return nil, model.Page{}, err
	}
	dtos, pg, err := wire.UnwrapPaged[convert.UserDTO](body)
	if err != nil {
		return nil, model.Page{}, err
	}
	return convert.FromWireUsers(dtos), pg, nil
}
