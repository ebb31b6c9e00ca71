package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestNew_Disabled(t *testing.T) {
	before := otel.GetTracerProvider()

	tel, err := New(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, tel.Shutdown)

	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider(), "disabled telemetry leaves the global provider alone")
}

func TestNew_Enabled(t *testing.T) {
	// Exporters connect lazily, so no collector is needed to build them.
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://127.0.0.1:1")

	tel, err := New(context.Background(), true)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Flushing to an unreachable collector may fail; shutdown must still return.
	_ = tel.Shutdown(ctx)
}

func TestServiceName(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("OTEL_SERVICE_NAME", "")
		assert.Equal(t, DefaultServiceName, ServiceName())
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("OTEL_SERVICE_NAME", "pets-edge")
		assert.Equal(t, "pets-edge", ServiceName())
	})
}
