package direct

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/dealgrid/dealgrid/internal/claims"
	"github.com/dealgrid/dealgrid/internal/errs"
	"github.com/dealgrid/dealgrid/internal/model"
	"github.com/dealgrid/dealgrid/internal/token"
)

// maxUploadBytes caps a single stored file.
const maxUploadBytes = 25 << 20

var entityKinds = map[string]bool{
	"client": true,
	"deal":   true,
	"task":   true,
}

// DocumentService stores attachments in the files table, content
// included. Listing never loads content.
type DocumentService struct {
	db     *DB
	tokens *token.Store
}

func (s *DocumentService) Upload(ctx context.Context, entityKind, entityKey, filename string, r io.Reader) (*model.Attachment, error) {
	if !entityKinds[entityKind] {
		return nil, errs.New(http.StatusBadRequest, "", "entity kind must be client, deal or task")
	}
	if _, err := uuid.FromString(entityKey); err != nil {
		return nil, errs.New(http.StatusBadRequest, "", "invalid entity key")
	}
	if filename == "" {
		return nil, errs.New(http.StatusBadRequest, "", "file name required")
	}

	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxUploadBytes {
		return nil, errs.New(http.StatusRequestEntityTooLarge, "", "file exceeds 25 MiB")
	}

	key, err := mintKey()
	if err != nil {
		return nil, err
	}
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	const q = `
INSERT INTO files (key, entity_kind, entity_key, file_name, content_type, size, data, uploaded_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING created_at`
	var created time.Time
	uploadedBy := s.uploader()
	if err := s.db.Pool.QueryRow(ctx, q,
		key, entityKind, entityKey, filename, contentType, int64(len(data)), data, uploadedBy,
	).Scan(&created); err != nil {
		return nil, err
	}

	return &model.Attachment{
		ID:          key,
		EntityKind:  entityKind,
		EntityID:    entityKey,
		FileName:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		UploadedBy:  uploadedBy,
		CreatedAt:   created,
	}, nil
}

func (s *DocumentService) ByEntity(ctx context.Context, entityKind, entityKey string) ([]model.Attachment, error) {
	if !entityKinds[entityKind] {
		return nil, errs.New(http.StatusBadRequest, "", "entity kind must be client, deal or task")
	}
	if entityKey == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty entity key")
	}
	const q = `
SELECT key, file_name, content_type, size, uploaded_by, created_at
FROM files WHERE entity_kind=$1 AND entity_key=$2
ORDER BY created_at DESC`
	rows, err := s.db.Pool.Query(ctx, q, entityKind, entityKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Attachment
	for rows.Next() {
		a := model.Attachment{EntityKind: entityKind, EntityID: entityKey}
		if err := rows.Scan(&a.ID, &a.FileName, &a.ContentType, &a.Size, &a.UploadedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *DocumentService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errs.New(http.StatusBadRequest, "", "empty document key")
	}
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM files WHERE key=$1`, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Content returns the stored bytes of one attachment.
func (s *DocumentService) Content(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty document key")
	}
	var data []byte
	err := s.db.Pool.QueryRow(ctx, `SELECT data FROM files WHERE key=$1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// uploader records who uploaded a file when a session is present. Upload
// itself does not require one.
func (s *DocumentService) uploader() string {
	if s.tokens == nil {
		return ""
	}
	raw := s.tokens.Access()
	if raw == "" {
		return ""
	}
	c, err := claims.Parse(raw)
	if err != nil {
		return ""
	}
	return c.Subject
}
