package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/talentwire/talentwire"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Resolver metrics
	ResolutionsTotal        metric.Int64Counter
	ResolutionFailuresTotal metric.Int64Counter
	ResolutionDuration      metric.Float64Histogram

	// Tenant pool cache metrics
	PoolCacheHitsTotal   metric.Int64Counter
	PoolCacheMissesTotal metric.Int64Counter
	PoolRotationsTotal   metric.Int64Counter
	TenantPoolsOpen      metric.Int64UpDownCounter

	// Session metrics
	LoginsTotal        metric.Int64Counter
	LoginFailuresTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.ResolutionsTotal, _ = meter.Int64Counter(
		"talentwire.resolver.resolutions.total",
		metric.WithDescription("Total number of tenant resolution attempts"),
		metric.WithUnit("{resolution}"),
	)

	m.ResolutionFailuresTotal, _ = meter.Int64Counter(
		"talentwire.resolver.failures.total",
		metric.WithDescription("Total number of failed tenant resolutions"),
		metric.WithUnit("{failure}"),
	)

	m.ResolutionDuration, _ = meter.Float64Histogram(
		"talentwire.resolver.duration",
		metric.WithDescription("Duration of tenant resolution including pool creation"),
		metric.WithUnit("ms"),
	)

	m.PoolCacheHitsTotal, _ = meter.Int64Counter(
		"talentwire.tenantpool.cache_hits.total",
		metric.WithDescription("Total number of tenant pool cache hits"),
		metric.WithUnit("{hit}"),
	)

	m.PoolCacheMissesTotal, _ = meter.Int64Counter(
		"talentwire.tenantpool.cache_misses.total",
		metric.WithDescription("Total number of tenant pool cache misses"),
		metric.WithUnit("{miss}"),
	)

	m.PoolRotationsTotal, _ = meter.Int64Counter(
		"talentwire.tenantpool.rotations.total",
		metric.WithDescription("Total number of pools replaced after credential rotation"),
		metric.WithUnit("{rotation}"),
	)

	m.TenantPoolsOpen, _ = meter.Int64UpDownCounter(
		"talentwire.tenantpool.open",
		metric.WithDescription("Number of open tenant pools"),
		metric.WithUnit("{pool}"),
	)

	m.LoginsTotal, _ = meter.Int64Counter(
		"talentwire.sessions.logins.total",
		metric.WithDescription("Total number of successful logins"),
		metric.WithUnit("{login}"),
	)

	m.LoginFailuresTotal, _ = meter.Int64Counter(
		"talentwire.sessions.login_failures.total",
		metric.WithDescription("Total number of failed logins"),
		metric.WithUnit("{failure}"),
	)

	return m
}
