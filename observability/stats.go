package observability

import (
	"context"
	"runtime"
	"strings"
	"sync"

	"github.com/samber/lo"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	once  sync.Once
	stats *appStats
)

type appStats struct {
	goroutines metric.Int64ObservableUpDownCounter
	processes  metric.Int64ObservableUpDownCounter
}

// InitAppStats registers the process level gauges and the otel runtime
// instrumentation against the global meter provider, once per process.
func InitAppStats(name string) {
	once.Do(func() {
		name = strings.TrimSpace(name)
		if len(name) == 0 {
			name = "default"
		}
		meter := otel.Meter(
			"xbst/app/"+name,
			metric.WithInstrumentationVersion(otelruntime.Version()),
		)
		stats = &appStats{
			goroutines: lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
				"app.core.goroutines",
				metric.WithDescription(`The application goroutines' info.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.NumGoroutine()))
					return nil
				}),
			)),
			processes: lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
				"app.core.processes",
				metric.WithDescription(`The application processes' info.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.GOMAXPROCS(0)))
					return nil
				}),
			)),
		}
		_ = otelruntime.Start()
	})
}
