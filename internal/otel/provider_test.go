package otel

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.Equal(t, noop.Meter{}, p.Meter("drivesim"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutOutputs(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "drivesim"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no log writer")
}

func TestNew_LogWriterOnly(t *testing.T) {
	var logs bytes.Buffer
	p, err := New(Config{Enabled: true, ServiceName: "drivesim", LogWriter: &logs})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	assert.NotNil(t, p.LoggerProvider())
	assert.Equal(t, noop.Meter{}, p.Meter("drivesim"))
}

func TestNew_MetricWriterExportsOnFlush(t *testing.T) {
	var metrics bytes.Buffer
	p, err := New(Config{
		Enabled:        true,
		ServiceName:    "drivesim",
		ServiceVersion: "test",
		MetricWriter:   &metrics,
	})
	require.NoError(t, err)

	counter, err := p.Meter("drivesim").Int64Counter("drivesim.ticks")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	require.NoError(t, p.Flush(context.Background()))
	require.NoError(t, p.Shutdown(context.Background()))

	assert.Contains(t, metrics.String(), "drivesim.ticks")
}
