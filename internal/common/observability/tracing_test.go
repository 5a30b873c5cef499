package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_RecordsErrorStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	_, span := StartSpan(context.Background(), "risk.assess", attribute.String("email", "jane@shop.io"))
	EndSpan(span, errors.New("fraud api down"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "risk.assess", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "fraud api down", ended[0].Status().Description)
}

func TestNewTracerProvider_DisabledReturnsNil(t *testing.T) {
	tp, err := newTracerProvider("svc", "1.0.0", TracingOptions{Enabled: false})
	assert.NoError(t, err)
	assert.Nil(t, tp)
}

func TestRecordRequest_NilReceiver(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordRequest(context.Background(), "/customers", 201, 0)
	})
}
