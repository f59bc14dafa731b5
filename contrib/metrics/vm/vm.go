package vm

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"

	"github.com/SocketCluster/agc-broker-client/types"
)

// Option configures a Collector.
type Option func(*Collector)

// WithPrefix sets the metric name prefix.
//
// Default: "agc"
//
// Parameters:
//   - prefix: The prefix to use for all metric names
//
// Returns:
//   - Option: A configuration option
func WithPrefix(prefix string) Option {
	return func(c *Collector) {
		c.prefix = prefix
	}
}

// WithMetricsSet sets the metrics set to use.
//
// If provided, the collector will register metrics with this set instead
// of creating a new one. The caller is responsible for exposing this set
// (e.g., via metrics.WritePrometheus or a custom handler).
//
// Parameters:
//   - set: The metrics set to use
//
// Returns:
//   - Option: A configuration option
func WithMetricsSet(set *metrics.Set) Option {
	return func(c *Collector) {
		c.set = set
	}
}

// Collector implements types.MetricsCollector using VictoriaMetrics.
//
// Broker-scoped counters are labeled with the broker URI and created
// lazily on first use, since the broker set changes at runtime.
// Thread-safe for concurrent use.
type Collector struct {
	set    *metrics.Set
	prefix string

	topologyUpdates   *metrics.Counter
	reconcileDuration *metrics.Histogram

	poolCount    atomic.Int64
	channelCount atomic.Int64

	// Guards the lazily created labeled counters inside metrics.Set.
	// GetOrCreateCounter is itself safe; the mutex only bounds the
	// fmt.Sprintf churn on hot paths.
	mu sync.Mutex
}

// New creates a new VictoriaMetrics collector.
//
// Parameters:
//   - opts: Configuration options
//
// Returns:
//   - *Collector: A collector ready to pass to brokerclient.WithMetrics
//
// Example:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//	client, _ := brokerclient.New(factory,
//	    brokerclient.WithMetrics(collector),
//	)
//	http.HandleFunc("/metrics", collector.Handler)
func New(opts ...Option) *Collector {
	c := &Collector{
		prefix: "agc",
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.set == nil {
		c.set = metrics.NewSet()
	}

	c.topologyUpdates = c.set.GetOrCreateCounter(
		fmt.Sprintf("%s_topology_updates_total", c.prefix))
	c.reconcileDuration = c.set.GetOrCreateHistogram(
		fmt.Sprintf("%s_reconcile_duration_seconds", c.prefix))

	c.set.GetOrCreateGauge(fmt.Sprintf("%s_pools", c.prefix), func() float64 {
		return float64(c.poolCount.Load())
	})
	c.set.GetOrCreateGauge(fmt.Sprintf("%s_channels", c.prefix), func() float64 {
		return float64(c.channelCount.Load())
	})

	return c
}

var _ types.MetricsCollector = (*Collector)(nil)

// Set returns the underlying metrics set.
func (c *Collector) Set() *metrics.Set {
	return c.set
}

// Handler returns an HTTP handler that exposes metrics in Prometheus format.
//
// Example:
//
//	http.HandleFunc("/metrics", collector.Handler)
func (c *Collector) Handler(w http.ResponseWriter, _ *http.Request) {
	c.set.WritePrometheus(w)
}

// WritePrometheus writes all metrics in Prometheus format to the given writer.
func (c *Collector) WritePrometheus(w io.Writer) {
	c.set.WritePrometheus(w)
}

// brokerCounter returns the labeled counter for a broker URI.
func (c *Collector) brokerCounter(name, brokerURI string) *metrics.Counter {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.set.GetOrCreateCounter(
		fmt.Sprintf("%s_%s{broker=%q}", c.prefix, name, brokerURI))
}

// channelCounter returns the labeled counter for a channel name.
func (c *Collector) channelCounter(name, channel string) *metrics.Counter {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.set.GetOrCreateCounter(
		fmt.Sprintf("%s_%s{channel=%q}", c.prefix, name, channel))
}

// IncSubscribeTotal increments the established-subscription counter.
func (c *Collector) IncSubscribeTotal(brokerURI string) {
	c.brokerCounter("subscribes_total", brokerURI).Inc()
}

// IncSubscribeError increments the failed-subscription counter.
func (c *Collector) IncSubscribeError(brokerURI string) {
	c.brokerCounter("subscribe_errors_total", brokerURI).Inc()
}

// IncPublishTotal increments the accepted-publish counter.
func (c *Collector) IncPublishTotal(brokerURI string) {
	c.brokerCounter("publishes_total", brokerURI).Inc()
}

// IncPublishError increments the failed-publish counter.
func (c *Collector) IncPublishError(brokerURI string) {
	c.brokerCounter("publish_errors_total", brokerURI).Inc()
}

// IncMessageTotal increments the delivered-message counter.
func (c *Collector) IncMessageTotal(channel string) {
	c.channelCounter("messages_total", channel).Inc()
}

// IncPoolCreated increments the pool-creation counter.
func (c *Collector) IncPoolCreated(brokerURI string) {
	c.brokerCounter("pools_created_total", brokerURI).Inc()
}

// IncPoolDestroyed increments the pool-destruction counter.
func (c *Collector) IncPoolDestroyed(brokerURI string) {
	c.brokerCounter("pools_destroyed_total", brokerURI).Inc()
}

// SetPoolCount sets the live-pool gauge.
func (c *Collector) SetPoolCount(count int) {
	c.poolCount.Store(int64(count))
}

// IncTopologyUpdate increments the applied-topology-update counter.
func (c *Collector) IncTopologyUpdate() {
	c.topologyUpdates.Inc()
}

// ObserveReconcileDuration records a reconciliation duration in seconds.
func (c *Collector) ObserveReconcileDuration(seconds float64) {
	c.reconcileDuration.Update(seconds)
}

// SetChannelCount sets the tracked-channel gauge.
func (c *Collector) SetChannelCount(count int) {
	c.channelCount.Store(int64(count))
}

// IncTargetMiss increments the routing-miss counter for the operation kind.
func (c *Collector) IncTargetMiss(kind string) {
	c.mu.Lock()
	counter := c.set.GetOrCreateCounter(
		fmt.Sprintf("%s_target_misses_total{kind=%q}", c.prefix, kind))
	c.mu.Unlock()

	counter.Inc()
}
