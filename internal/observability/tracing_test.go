package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{ServiceName: "socialhub-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.NotNil(t, Tracer)
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{
		ServiceName: "socialhub-test",
		Enabled:     true,
		Exporter:    "zipkin",
	})
	assert.Error(t, err)
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.5).Description(), "ParentBased")
}

func TestStartSpan_RecordsError(t *testing.T) {
	ctx, finish := StartSpan(context.Background(), "unit")
	assert.NotNil(t, ctx)
	finish(errors.New("boom"))
}

func TestOutcomeAndCounters(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "failure", Outcome(errors.New("x")))

	before := testutil.ToFloat64(AuthEvents.WithLabelValues("login", "success"))
	AuthEvents.WithLabelValues("login", Outcome(nil)).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(AuthEvents.WithLabelValues("login", "success")))

	done := TrackQuery("select", "users")
	done()
}
