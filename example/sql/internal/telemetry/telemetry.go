// Package telemetry wires an OpenTelemetry meter provider that periodically
// dumps collected metrics to stdout, so the demo needs no collector.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Setup installs a global meter provider exporting to stdout every 30s.
// The returned function flushes and shuts the provider down.
func Setup(ctx context.Context) (func(context.Context) error, error) {
	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(30*time.Second)),
		),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}
