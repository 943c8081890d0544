package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestIsAllowedAttribute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want bool
	}{
		{key: "merge.level", want: true},
		{key: "v8cov.scripts", want: true},
		{key: "http.target", want: true},
		{key: "error.message", want: true},
		{key: "http.request.body", want: false},
		{key: "script.url", want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isAllowedAttribute(tt.key), tt.key)
	}
}

func TestAttributeFilter_StripsUnknownKeys(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewAttributeFilter(sdktrace.NewSimpleSpanProcessor(exporter))))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	_, span := tp.Tracer("test").Start(context.Background(), "merge")
	span.SetAttributes(
		attribute.Int("merge.inputs", 3),
		attribute.String("script.url", "file:///secret.js"),
	)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Attributes, 1)
	assert.Equal(t, attribute.Key("merge.inputs"), spans[0].Attributes[0].Key)
}
