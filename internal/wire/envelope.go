// Package wire decodes the hosted API's response envelope, its two list
// pagination shapes, and the assorted timestamp encodings date fields
// arrive in.
package wire

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/dealgrid/dealgrid/internal/errs"
	"github.com/dealgrid/dealgrid/internal/model"
)

// Envelope is the standard response wrapper the hosted API puts around
// every JSON payload.
type Envelope struct {
	Result       json.RawMessage `json:"result"`
	IsError      bool            `json:"isError"`
	ErrorMessage string          `json:"errorMessage"`
	Message      string          `json:"message"`
	StatusCode   int             `json:"statusCode"`
}

var nullLiteral = []byte("null")

// Unwrap extracts the result payload from an enveloped body. Error
// envelopes become an *errs.APIError with the server message (falling
// back errorMessage, then message, then a generic one) and the embedded
// status code (400 when absent). Bodies that are not envelopes pass
// through unchanged; a null result is a valid empty payload.
func Unwrap(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errs.New(http.StatusInternalServerError, "", "empty response body")
	}
	if trimmed[0] != '{' {
		return body, nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, errs.Wrap(http.StatusInternalServerError, "", "malformed response body", err)
	}
	if _, ok := probe["isError"]; !ok {
		return body, nil
	}

	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, errs.Wrap(http.StatusInternalServerError, "", "malformed response envelope", err)
	}
	if env.IsError {
		msg := env.ErrorMessage
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = "request failed"
		}
		status := env.StatusCode
		if status == 0 {
			status = http.StatusBadRequest
		}
		return nil, errs.New(status, "", msg)
	}
	return env.Result, nil
}

// Decode unmarshals an unwrapped result into T. Null or absent results
// yield the zero value.
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullLiteral) {
		return v, nil
	}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return v, errs.Wrap(http.StatusInternalServerError, "", "decode response payload", err)
	}
	return v, nil
}

// pagedPayload is the object form list endpoints may return instead of a
// bare array.
type pagedPayload struct {
	Items      json.RawMessage `json:"items"`
	TotalCount int             `json:"totalCount"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// UnwrapPaged unwraps an envelope and normalizes either list shape into
// items plus page metadata. A bare array counts as a single full page;
// missing fields of the object shape default to page 1 and a full-length
// page size.
func UnwrapPaged[T any](body []byte) ([]T, model.Page, error) {
	raw, err := Unwrap(body)
	if err != nil {
		return nil, model.Page{}, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullLiteral) {
		return []T{}, model.Page{Page: 1, TotalPages: 1}, nil
	}
	if trimmed[0] == '[' {
		items, err := Decode[[]T](trimmed)
		if err != nil {
			return nil, model.Page{}, err
		}
		n := len(items)
		return items, model.Page{Total: n, Page: 1, PageSize: n, TotalPages: 1}, nil
	}

	var pp pagedPayload
	if err := json.Unmarshal(trimmed, &pp); err != nil {
		return nil, model.Page{}, errs.Wrap(http.StatusInternalServerError, "", "malformed list payload", err)
	}
	items, err := Decode[[]T](pp.Items)
	if err != nil {
		return nil, model.Page{}, err
	}
	pg := model.Page{
		Total:      pp.TotalCount,
		Page:       pp.Page,
		PageSize:   pp.PageSize,
		TotalPages: pp.TotalPages,
	}
	if pg.Page == 0 {
		pg.Page = 1
	}
	if pg.PageSize == 0 {
		pg.PageSize = len(items)
	}
	if pg.Total == 0 && len(items) > 0 {
		pg.Total = len(items)
	}
	if pg.TotalPages == 0 {
		pg.TotalPages = 1
	}
	return items, pg, nil
}
