package rest

import (
	"context"
	"io"
	"net/http"

	"github.com/dealgrid/dealgrid/internal/convert"
	"github.com/dealgrid/dealgrid/internal/endpoint"
	"github.com/dealgrid/dealgrid/internal/errs"
	"github.com/dealgrid/dealgrid/internal/model"
	"github.com/dealgrid/dealgrid/internal/transport"
	"github.com/dealgrid/dealgrid/internal/wire"
)

// DocumentService stores files attached to entities.
type DocumentService struct {
	t *transport.Client
}

func (s *DocumentService) Upload(ctx context.Context, entityKind, entityKey, filename string, r io.Reader) (*model.Attachment, error) {
	if entityKind == "" || entityKey == "" || filename == "" {
		return nil, errs.New(http.StatusBadRequest, "", "entity kind, entity key and file name required")
	}
	extra := map[string]string{
		"entityKind": entityKind,
		"entityKey":  entityKey,
	}
	body, err := s.t.Upload(ctx, endpoint.DocumentUpload, nil, "file", filename, r, extra)
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.AttachmentDTO](body)
	if err != nil {
		return nil, err
	}
	m := convert.FromWireAttachment(dto)
	return &m, nil
}

func (s *DocumentService) ByEntity(ctx context.Context, entityKind, entityKey string) ([]model.Attachment, error) {
	if entityKind == "" || entityKey == "" {
		return nil, errs.New(http.StatusBadRequest, "", "entity kind and entity key required")
	}
	body, err := s.t.Do(ctx, endpoint.DocumentGetByEntity, endpoint.Params("entityKind", entityKind, "entityKey", entityKey), nil)
	if err != nil {
		return nil, err
	}
	dtos, _, err := wire.UnwrapPaged[convert.AttachmentDTO](body)
	if err != nil {
		return nil, err
	}
	return convert.FromWireAttachments(dtos), nil
}

func (s *DocumentService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errs.New(http.StatusBadRequest, "", "empty document key")
	}
	body, err := s.t.Do(ctx, endpoint.DocumentDelete, endpoint.Params("documentKey", key), nil)
	if err != nil {
		return err
	}
	return unwrapDiscard(body)
}
