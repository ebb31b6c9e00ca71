package gateway

import (
	"context"

	"github.com/erraggy/oasgate/httpvalidator"
	"github.com/erraggy/oasgate/oaserrors"
)

// ValidationContext is what downstream handlers learn about a validated
// request. It belongs to a single request.
type ValidationContext struct {
	// Operation is the matched operation.
	Operation *httpvalidator.Operation

	// RawPathParams are the percent-decoded path values before coercion.
	RawPathParams map[string]string

	// Coerced parameter values keyed by name: integer as int64, number as
	// float64, boolean as bool, arrays as []any, objects as map[string]any.
	PathParams   map[string]any
	QueryParams  map[string]any
	HeaderParams map[string]any
	CookieParams map[string]any

	// Body is the decoded request body, nil when no decoder ran.
	Body any

	// Warnings are non-fatal findings such as format mismatches.
	Warnings []oaserrors.Violation
}

type contextKey struct{}

// newValidationContext copies a passed result.
func newValidationContext(res *httpvalidator.RequestValidationResult) *ValidationContext {
	return &ValidationContext{
		Operation:     res.Operation,
		RawPathParams: res.RawPathParams,
		PathParams:    res.PathParams,
		QueryParams:   res.QueryParams,
		HeaderParams:  res.HeaderParams,
		CookieParams:  res.CookieParams,
		Body:          res.Body,
		Warnings:      res.Warnings,
	}
}

// NewContext returns a copy of ctx carrying vc.
func NewContext(ctx context.Context, vc *ValidationContext) context.Context {
	return context.WithValue(ctx, contextKey{}, vc)
}

// FromContext returns the ValidationContext attached by the gateway.
func FromContext(ctx context.Context) (*ValidationContext, bool) {
	vc, ok := ctx.Value(contextKey{}).(*ValidationContext)
	return vc, ok && vc != nil
}
