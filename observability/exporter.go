package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"io"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/benz9527/xbst/lib/infra"
)

type MetricsExporterType string

const (
	NoneExporter       MetricsExporterType = "none"
	ConsoleExporter    MetricsExporterType = "console"
	PrometheusExporter MetricsExporterType = "prometheus"
)

type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

type exporterCfg struct {
	out      io.Writer
	interval time.Duration
	timeout  time.Duration
}

type ExporterOption func(*exporterCfg)

// WithConsoleWriter redirects the console exporter, stdout by default.
func WithConsoleWriter(w io.Writer) ExporterOption {
	return func(cfg *exporterCfg) {
		cfg.out = w
	}
}

func WithExportInterval(interval, timeout time.Duration) ExporterOption {
	return func(cfg *exporterCfg) {
		cfg.interval, cfg.timeout = interval, timeout
	}
}

// InitMetricsExporter installs the global otel meter provider.
// The returned function flushes and stops it.
func InitMetricsExporter(typ MetricsExporterType, opts ...ExporterOption) (ShutdownFunc, error) {
	cfg := &exporterCfg{
		out:      os.Stdout,
		interval: 10 * time.Second,
		timeout:  5 * time.Second,
	}
	for _, o := range opts {
		o(cfg)
	}

	switch typ {
	case NoneExporter, "":
		return noopShutdown, nil
	case ConsoleExporter:
		return newConsoleMetricsExporter(cfg.interval, cfg.timeout, stdoutmetric.WithWriter(cfg.out))
	case PrometheusExporter:
		return newPrometheusMetricsExporter()
	default:
	}
	return nil, infra.NewErrorStack("unknown metrics exporter type: " + string(typ))
}

// Serves for test/dev environment.
func newConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (ShutdownFunc, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, infra.WrapErrorStack(err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
func newPrometheusMetricsExporter() (ShutdownFunc, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, infra.WrapErrorStack(err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// WritePrometheusMetrics renders one scrape of the default registry in the
// text exposition format. Call it before the provider is shut down.
func WritePrometheusMetrics(w io.Writer) error {
	mfs, err := promclient.DefaultGatherer.Gather()
	if err != nil {
		return infra.WrapErrorStack(err)
	}
	for _, mf := range mfs {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return infra.WrapErrorStack(err)
		}
	}
	return nil
}
