package overlay

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	instrumentationName = "markerdui/internal/overlay"
	// unknownAction labels every action without a handler, so host input
	// cannot grow the attribute set.
	unknownAction = "unknown"
)

type metrics struct {
	handled    metric.Int64Counter
	ignored    metric.Int64Counter
	animations metric.Int64Counter
	superseded metric.Int64Counter
}

// newMetrics builds the overlay counters on the global meter provider, which
// is a no-op until the process installs one.
func newMetrics() *metrics {
	m, err := buildMetrics(otel.Meter(instrumentationName))
	if err != nil {
		m, _ = buildMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	}
	return m
}

func buildMetrics(meter metric.Meter) (*metrics, error) {
	var (
		m   metrics
		err error
	)
	if m.handled, err = meter.Int64Counter(
		"overlay.messages.handled",
		metric.WithDescription("Messages dispatched to an action handler"),
	); err != nil {
		return nil, err
	}
	if m.ignored, err = meter.Int64Counter(
		"overlay.messages.ignored",
		metric.WithDescription("Messages with an unknown action or a failing handler"),
	); err != nil {
		return nil, err
	}
	if m.animations, err = meter.Int64Counter(
		"overlay.distance.animations",
		metric.WithDescription("Distance transitions started"),
	); err != nil {
		return nil, err
	}
	if m.superseded, err = meter.Int64Counter(
		"overlay.distance.superseded",
		metric.WithDescription("Distance transitions replaced before converging"),
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *metrics) countHandled(action string) {
	m.handled.Add(context.Background(), 1, metric.WithAttributes(attribute.String("action", action)))
}

func (m *metrics) countIgnored(action string) {
	if _, known := actions[action]; !known {
		action = unknownAction
	}
	m.ignored.Add(context.Background(), 1, metric.WithAttributes(attribute.String("action", action)))
}

func (m *metrics) countAnimation(superseded bool) {
	m.animations.Add(context.Background(), 1)
	if superseded {
		m.superseded.Add(context.Background(), 1)
	}
}
