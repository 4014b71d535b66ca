package httpx

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/AngelCh415/marketing-intel/internal/ingest"
)

// APIError is the JSON error body of every failed request.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func newAPIError(status int, code, msg string, details any) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: msg, Details: details}
}

func badRequest(err error) *APIError {
	return newAPIError(http.StatusBadRequest, "INVALID_PARAMETER", err.Error(), nil)
}

// fromPipelineError maps ingestion failures to API errors.
func fromPipelineError(err error) *APIError {
	var (
		mal *ingest.MalformedInputError
		sch *ingest.SchemaError
		src *ingest.SourceError
	)
	switch {
	case errors.As(err, &mal):
		return newAPIError(http.StatusUnprocessableEntity, "MALFORMED_INPUT", err.Error(), map[string]any{
			"table": mal.Table, "row": mal.Row, "column": mal.Column, "value": mal.Value,
		})
	case errors.As(err, &sch):
		return newAPIError(http.StatusUnprocessableEntity, "SCHEMA_ERROR", err.Error(), map[string]any{
			"table": sch.Table, "column": sch.Column,
		})
	case errors.As(err, &src):
		return newAPIError(http.StatusBadGateway, "SOURCE_UNAVAILABLE", err.Error(), map[string]any{
			"table": src.Table,
		})
	}
	return newAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", err.Error(), nil)
}

func writeError(w http.ResponseWriter, r *http.Request, e *APIError) {
	_ = render.Render(w, r, e)
}
