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

// TaskService is CRUD plus completion over follow-up tasks.
type TaskService struct {
	t *transport.Client
}

func (s *TaskService) List(ctx context.Context, q model.ListQuery) ([]model.Task, model.Page, error) {
	body, err := s.t.Do(ctx, endpoint.TaskGetList, endpoint.ListValues(q), nil)
	if err != nil {
		return nil, model.Page{}, err
	}
	dtos, pg, err := wire.UnwrapPaged[convert.TaskDTO](body)
	if err != nil {
		return nil, model.Page{}, err
	}
	return convert.FromWireTasks(dtos), pg, nil
}

func (s *TaskService) Get(ctx context.Context, key string) (*model.Task, error) {
	if key == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty task key")
	}
	body, err := s.t.Do(ctx, endpoint.TaskGetByKey, endpoint.Params("taskKey", key), nil)
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.TaskDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireTask(dto)
	return &m, nil
}

func (s *TaskService) ByDeal(ctx context.Context, dealKey string) ([]model.Task, error) {
	if dealKey == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty deal key")
	}
	body, err := s.t.Do(ctx, endpoint.TaskGetByDeal, endpoint.Params("dealKey", dealKey), nil)
	if err != nil {
		return nil, err
	}
	dtos, _, err := wire.UnwrapPaged[convert.TaskDTO](body)
	if err != nil {
		return nil, err
	}
	return convert.FromWireTasks(dtos), nil
}

func (s *TaskService) Create(ctx context.Context, t *model.Task) (*model.Task, error) {
	if t == nil || t.Title == "" {
		return nil, errs.New(http.StatusBadRequest, "", "task title required")
	}
	body, err := s.t.Do(ctx, endpoint.TaskCreate, nil, convert.ToWireTask(t))
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.TaskDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireTask(dto)
	return &m, nil
}

func (s *TaskService) Update(ctx context.Context, t *model.Task) (*model.Task, error) {
	if t == nil || t.ID == "" {
		return nil, errs.New(http.StatusBadRequest, "", "task key required")
	}
	body, err := s.t.Do(ctx, endpoint.TaskUpdate, nil, convert.ToWireTask(t))
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.TaskDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireTask(dto)
	return &m, nil
}

func (s *TaskService) Complete(ctx context.Context, key string) (*model.Task, error) {
	if key == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty task key")
	}
	body, err := s.t.Do(ctx, endpoint.TaskComplete, endpoint.Params("taskKey", key), nil)
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.TaskDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireTask(dto)
	return &m, nil
}

func (s *TaskService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errs.New(http.StatusBadRequest, "", "empty task key")
	}
	body, err := s.t.Do(ctx, endpoint.TaskDelete, endpoint.Params("taskKey", key), nil)
	if err != nil {
		return err
	}
	return unwrapDiscard(body)
}
