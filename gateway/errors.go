package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/erraggy/oasgate/oaserrors"
)

// ErrorHandler receives every failure the gateway does not pass downstream.
// It returns nil once it has written a response, or an error for the host
// to handle instead.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error) error

// ErrorBody is the JSON document written by DefaultErrorHandler. Details is
// never nil, so it always encodes as an array.
type ErrorBody struct {
	Message string                `json:"message"`
	Code    int                   `json:"code"`
	Details []oaserrors.Violation `json:"details"`
}

// NewErrorBody describes err for a client. Internal failures are reported
// by status text only.
func NewErrorBody(err error) ErrorBody {
	status := oaserrors.HTTPStatus(err)
	body := ErrorBody{Code: status, Details: oaserrors.Violations(err)}
	if body.Details == nil {
		body.Details = []oaserrors.Violation{}
	}
	switch {
	case errors.Is(err, oaserrors.ErrRequestValidation):
		body.Message = oaserrors.ErrRequestValidation.Error()
	case errors.Is(err, oaserrors.ErrResponseValidation):
		body.Message = oaserrors.ErrResponseValidation.Error()
	case status == http.StatusInternalServerError:
		body.Message = http.StatusText(status)
	default:
		body.Message = err.Error()
	}
	return body
}

// DefaultErrorHandler writes NewErrorBody(err) as JSON with the status from
// oaserrors.HTTPStatus, and an Allow header for 405 responses.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) error {
	var routeErr *oaserrors.RouteNotFoundError
	if errors.As(err, &routeErr) && routeErr.MethodNotAllowed {
		w.Header().Set("Allow", strings.Join(routeErr.Allowed, ", "))
	}
	body := NewErrorBody(err)
	return writeJSON(w, body.Code, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("gateway: marshal error body: %w", err)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("gateway: write error body: %w", err)
	}
	return nil
}
