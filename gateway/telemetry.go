package gateway

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/erraggy/oasgate/httpvalidator"
	"github.com/erraggy/oasgate/oaserrors"
)

const instrName = "github.com/erraggy/oasgate/gateway"

// Request outcomes recorded on oasgate.requests.
const (
	outcomeServed           = "served"
	outcomeSkipped          = "skipped"
	outcomeUnrouted         = "unrouted"
	outcomePassed           = "passed"
	outcomeRejected         = "rejected"
	outcomeResponseRejected = "response_rejected"
)

// instruments are the gateway's OTel tracer and metrics.
type instruments struct {
	tracer     trace.Tracer
	requests   metric.Int64Counter
	violations metric.Int64Counter
	duration   metric.Float64Histogram
}

func newInstruments(mp metric.MeterProvider, tp trace.TracerProvider) *instruments {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	m := mp.Meter(instrName)

	requests, _ := m.Int64Counter("oasgate.requests",
		metric.WithDescription("Requests handled by the gateway, by outcome"))
	violations, _ := m.Int64Counter("oasgate.violations",
		metric.WithDescription("Validation violations, by location"))
	duration, _ := m.Float64Histogram("oasgate.validation.duration",
		metric.WithDescription("Request validation duration in milliseconds"),
		metric.WithUnit("ms"))

	return &instruments{
		tracer:     tp.Tracer(instrName),
		requests:   requests,
		violations: violations,
		duration:   duration,
	}
}

func operationAttr(op *httpvalidator.Operation) attribute.KeyValue {
	if op == nil {
		return attribute.String("operation", "")
	}
	if op.ID != "" {
		return attribute.String("operation", op.ID)
	}
	return attribute.String("operation", op.String())
}

// recordRequest counts a finished request.
func (i *instruments) recordRequest(ctx context.Context, outcome string, op *httpvalidator.Operation) {
	i.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		operationAttr(op),
	))
}

// recordValidation records one validation pass and its violations.
func (i *instruments) recordValidation(ctx context.Context, op *httpvalidator.Operation, violations []oaserrors.Violation, elapsed time.Duration) {
	i.duration.Record(ctx, float64(elapsed.Microseconds())/1000, metric.WithAttributes(operationAttr(op)))
	for _, v := range violations {
		i.violations.Add(ctx, 1, metric.WithAttributes(
			attribute.String("location", v.Location),
			operationAttr(op),
		))
	}
}
