package brokerclient

import (
	"github.com/SocketCluster/agc-broker-client/internal/logging"
	"github.com/SocketCluster/agc-broker-client/internal/metrics"
	"github.com/SocketCluster/agc-broker-client/types"
)

const (
	// DefaultPoolSize is the number of transport connections per pool.
	DefaultPoolSize = 1

	// DefaultEventBuffer is the capacity of the unified event stream.
	DefaultEventBuffer = 256
)

// ClientConfig holds configuration for the routing client.
type ClientConfig struct {
	Mapper          Mapper
	AuthKey         string
	PoolSize        int
	EventBuffer     int
	LocalBroker     LocalBroker
	TopologyWatcher TopologyWatcher
	Metrics         types.MetricsCollector
	Logger          types.Logger
}

// DefaultConfig returns a ClientConfig with sensible defaults.
//
// Defaults:
//   - Mapper: nil (the client falls back to mapper.NewSimple())
//   - PoolSize: 1 connection per pool
//   - EventBuffer: 256 events
//   - Metrics: no-op collector
//   - Logger: no-op logger
//
// Returns:
//   - *ClientConfig: Configuration with default settings
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		PoolSize:    DefaultPoolSize,
		EventBuffer: DefaultEventBuffer,
		Metrics:     metrics.NewNopMetrics(),
		Logger:      logging.NewNopLogger(),
	}
}

// Option configures a ClientConfig.
type Option func(*ClientConfig)

// WithMapper sets the channel-to-broker mapping engine.
//
// If not set, a stable-hash mapper (mapper.NewSimple) is used. Use
// mapper.NewRendezvous for weighted-rendezvous placement, or supply any
// implementation of the Mapper contract.
//
// Parameters:
//   - m: The mapper to use
//
// Returns:
//   - Option: Configuration option
//
// Example:
//
//	client, _ := brokerclient.New(factory,
//	    brokerclient.WithMapper(mapper.NewRendezvous(
//	        mapper.WithWeight("wss://broker-big.example.com", 2.0),
//	    )),
//	)
func WithMapper(m Mapper) Option {
	return func(c *ClientConfig) {
		c.Mapper = m
	}
}

// WithAuthKey sets the opaque credential passed through to pools.
//
// Parameters:
//   - key: The credential value
//
// Returns:
//   - Option: Configuration option
func WithAuthKey(key string) Option {
	return func(c *ClientConfig) {
		c.AuthKey = key
	}
}

// WithPoolSize sets the number of transport connections per pool.
//
// Parameters:
//   - size: Connection count, minimum 1
//
// Returns:
//   - Option: Configuration option
func WithPoolSize(size int) Option {
	return func(c *ClientConfig) {
		if size > 0 {
			c.PoolSize = size
		}
	}
}

// WithEventBuffer sets the capacity of the unified event stream.
//
// When the buffer is full, further events are dropped with a warning log
// until the consumer catches up. Size the buffer for the expected message
// rate of the busiest subscription window.
//
// Parameters:
//   - size: Buffer capacity, minimum 1
//
// Returns:
//   - Option: Configuration option
func WithEventBuffer(size int) Option {
	return func(c *ClientConfig) {
		if size > 0 {
			c.EventBuffer = size
		}
	}
}

// WithLocalBroker sets the local, non-clustered broker whose subscriptions
// are merged into every reconciliation snapshot.
//
// Parameters:
//   - broker: The local broker
//
// Returns:
//   - Option: Configuration option
func WithLocalBroker(broker LocalBroker) Option {
	return func(c *ClientConfig) {
		c.LocalBroker = broker
	}
}

// WithTopologyWatcher sets a watcher whose updates are applied
// automatically via SetBrokers.
//
// The watcher is started when the client is created and stopped when the
// client is closed. SetBrokers may still be called directly; watcher
// updates and direct calls are serialized against each other.
//
// Parameters:
//   - watcher: The topology watcher implementation
//
// Returns:
//   - Option: Configuration option
func WithTopologyWatcher(watcher TopologyWatcher) Option {
	return func(c *ClientConfig) {
		c.TopologyWatcher = watcher
	}
}

// WithMetrics sets the metrics collector.
//
// If not set, a no-op collector is used that discards all metrics.
// Use contrib/metrics/vm.New() for VictoriaMetrics integration.
//
// Parameters:
//   - collector: The metrics collector implementation
//
// Returns:
//   - Option: Configuration option
func WithMetrics(collector types.MetricsCollector) Option {
	return func(c *ClientConfig) {
		c.Metrics = collector
	}
}

// WithLogger sets the structured logger.
//
// If not set, a no-op logger is used that discards all messages.
// The logger interface is compatible with zap.SugaredLogger.
//
// Parameters:
//   - logger: The logger implementation
//
// Returns:
//   - Option: Configuration option
//
// Example:
//
//	logger, _ := zap.NewProduction()
//	client, _ := brokerclient.New(factory,
//	    brokerclient.WithLogger(logger.Sugar()),
//	)
func WithLogger(logger types.Logger) Option {
	return func(c *ClientConfig) {
		c.Logger = logger
	}
}
