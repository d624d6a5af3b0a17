package sim

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type tickMetrics struct {
	ticks    metric.Int64Counter
	duration metric.Float64Histogram
	speed    metric.Float64Histogram
	clamped  metric.Int64Counter
}

func newTickMetrics(meter metric.Meter) (*tickMetrics, error) {
	if meter == nil {
		meter = noop.Meter{}
	}

	var (
		m   tickMetrics
		err error
	)
	if m.ticks, err = meter.Int64Counter("drivesim.ticks",
		metric.WithDescription("Simulation ticks executed")); err != nil {
		return nil, err
	}
	if m.duration, err = meter.Float64Histogram("drivesim.tick.duration",
		metric.WithDescription("Wall time spent inside one tick"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.speed, err = meter.Float64Histogram("drivesim.vehicle.speed",
		metric.WithDescription("Absolute vehicle speed after each tick"),
		metric.WithUnit("m/s")); err != nil {
		return nil, err
	}
	if m.clamped, err = meter.Int64Counter("drivesim.dt.clamped",
		metric.WithDescription("Ticks whose delta exceeded the maximum and was clamped")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *tickMetrics) record(took time.Duration, speed float64, clamped bool) {
	ctx := context.Background()
	m.ticks.Add(ctx, 1)
	m.duration.Record(ctx, float64(took.Microseconds())/1000)
	m.speed.Record(ctx, speed)
	if clamped {
		m.clamped.Add(ctx, 1)
	}
}
