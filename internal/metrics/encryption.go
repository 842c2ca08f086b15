package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// VersionCounter reports how many vault entries are stored under each
// encryption format.
type VersionCounter func(ctx context.Context) (legacy, envelope int64, err error)

// RegisterEncryptionVersionGauge exposes <namespace>_vault_entries with an
// encryption_version label ("v1" or "v2"). The counter is queried on every
// scrape; a failing query skips the observation instead of failing the scrape.
func RegisterEncryptionVersionGauge(
	meterProvider metric.MeterProvider,
	namespace string,
	counter VersionCounter,
) (metric.Registration, error) {
	meter := meterProvider.Meter(namespace)

	gauge, err := meter.Int64ObservableGauge(
		fmt.Sprintf("%s_vault_entries", namespace),
		metric.WithDescription("Number of vault entries per encryption version"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault entries gauge: %w", err)
	}

	registration, err := meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		legacy, envelope, err := counter(ctx)
		if err != nil {
			return nil
		}
		o.ObserveInt64(gauge, legacy, metric.WithAttributes(attribute.String("encryption_version", "v1")))
		o.ObserveInt64(gauge, envelope, metric.WithAttributes(attribute.String("encryption_version", "v2")))
		return nil
	}, gauge)
	if err != nil {
		return nil, fmt.Errorf("failed to register vault entries callback: %w", err)
	}

	return registration, nil
}
