package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/voxdesk/voxdesk/internal/session"
)

// Metrics bundles the instruments reported by the dialogue engine and the
// market-data gateway. It satisfies both packages' recorder interfaces.
type Metrics struct {
	utterances     metric.Int64Counter
	orders         metric.Int64Counter
	lookups        metric.Int64Counter
	fallbacks      metric.Int64Counter
	lookupDuration metric.Float64Histogram
	lookupAttempts metric.Int64Histogram
}

// NewMetrics registers the service instruments on the provider's meter.
func NewMetrics(p *Provider) (*Metrics, error) {
	meter := p.Meter("voxdesk")

	utterances, err := meter.Int64Counter("voxdesk.utterances",
		metric.WithDescription("Utterances processed, by dialogue state"),
		metric.WithUnit("{utterance}"))
	if err != nil {
		return nil, fmt.Errorf("create utterance counter: %w", err)
	}
	orders, err := meter.Int64Counter("voxdesk.orders.placed",
		metric.WithDescription("Orders confirmed and handed to the sink"),
		metric.WithUnit("{order}"))
	if err != nil {
		return nil, fmt.Errorf("create order counter: %w", err)
	}
	lookups, err := meter.Int64Counter("voxdesk.lookup.requests",
		metric.WithDescription("Market-data lookups, by operation"),
		metric.WithUnit("{lookup}"))
	if err != nil {
		return nil, fmt.Errorf("create lookup counter: %w", err)
	}
	fallbacks, err := meter.Int64Counter("voxdesk.lookup.fallbacks",
		metric.WithDescription("Lookups served from the synthetic fallback tier"),
		metric.WithUnit("{lookup}"))
	if err != nil {
		return nil, fmt.Errorf("create fallback counter: %w", err)
	}
	lookupDuration, err := meter.Float64Histogram("voxdesk.lookup.duration",
		metric.WithDescription("Market-data lookup duration including retries"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("create lookup duration histogram: %w", err)
	}
	lookupAttempts, err := meter.Int64Histogram("voxdesk.lookup.attempts",
		metric.WithDescription("Upstream attempts consumed per lookup"),
		metric.WithUnit("{attempt}"))
	if err != nil {
		return nil, fmt.Errorf("create lookup attempts histogram: %w", err)
	}

	return &Metrics{
		utterances:     utterances,
		orders:         orders,
		lookups:        lookups,
		fallbacks:      fallbacks,
		lookupDuration: lookupDuration,
		lookupAttempts: lookupAttempts,
	}, nil
}

// RecordUtterance counts one processed utterance in the given state.
func (m *Metrics) RecordUtterance(state session.State) {
	m.utterances.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("state", string(state))))
}

// RecordOrder counts one confirmed order.
func (m *Metrics) RecordOrder() {
	m.orders.Add(context.Background(), 1)
}

// RecordLookup reports one gateway lookup outcome.
func (m *Metrics) RecordLookup(op string, fallback bool, attempts uint, elapsed time.Duration) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.Bool("fallback", fallback),
	)
	m.lookups.Add(ctx, 1, attrs)
	if fallback {
		m.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	}
	m.lookupDuration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
	m.lookupAttempts.Record(ctx, int64(attempts), attrs)
}
