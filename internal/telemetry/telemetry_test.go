package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_StdoutExporter(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Config{Enabled: true, Writer: &buf, ServiceVersion: "test"})
	require.NoError(t, err)

	_, span := Tracer("test").Start(context.Background(), "unit")
	End(span, errors.New("failed"))

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "unit")
}

func TestEnd_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() { End(nil, nil) })
}
