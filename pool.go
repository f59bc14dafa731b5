package brokerclient

import (
	"context"

	"github.com/SocketCluster/agc-broker-client/types"
)

// PoolEvents bundles the per-type event streams of a connection pool.
//
// Each stream is consumed by a dedicated forwarding goroutine for the
// pool's entire lifetime; the goroutine exits when the pool closes the
// stream on Destroy. Streams preserve source order individually, but no
// relative order is guaranteed between streams.
type PoolEvents struct {
	// Errors carries transport-level errors from the pool.
	Errors <-chan error

	// Subscribes carries the channel name of each established subscription.
	Subscribes <-chan string

	// SubscribeFails carries failed subscription attempts.
	SubscribeFails <-chan types.ChannelError

	// Publishes carries the channel name of each accepted publish.
	Publishes <-chan string

	// PublishFails carries failed publish attempts.
	PublishFails <-chan types.ChannelError
}

// Pool is the set of live connections to a single broker, plus its
// per-channel subscription state.
//
// Pools are created and destroyed exclusively by the client's registry:
// one pool per broker URI, destroyed exactly once when its broker leaves
// the topology, never reused afterward. A broker that leaves and rejoins
// gets a freshly constructed pool.
//
// Implementations MUST be safe for concurrent use from multiple
// goroutines. The transport details (handshake, reconnection, backoff)
// are entirely the pool's responsibility; see the adapter packages for
// ready-made implementations.
type Pool interface {
	// Subscribe opens the channel on this pool and returns its message
	// stream. The stream is closed when the channel is closed or the pool
	// is destroyed.
	//
	// Subscription confirmation is asynchronous: the outcome is reported
	// on the Subscribes or SubscribeFails event stream. Subscribe only
	// returns an error for immediate local failures, such as a destroyed
	// pool.
	//
	// Parameters:
	//   - channel: The channel name to subscribe
	//
	// Returns:
	//   - <-chan []byte: Stream of message payloads for the channel
	//   - error: ErrPoolDestroyed if the pool is destroyed
	Subscribe(channel string) (<-chan []byte, error)

	// Unsubscribe withdraws the subscription for the channel from the
	// broker. The local message stream stays open until CloseChannel.
	//
	// Parameters:
	//   - channel: The channel name to unsubscribe
	Unsubscribe(channel string)

	// CloseChannel tears down the channel on this pool: withdraws the
	// subscription if still held and closes the channel's message stream.
	//
	// Parameters:
	//   - channel: The channel name to close
	CloseChannel(channel string)

	// IsSubscribed reports whether the channel is subscribed on this pool.
	//
	// Parameters:
	//   - channel: The channel name to check
	//   - includePending: When true, count not-yet-confirmed subscriptions
	//
	// Returns:
	//   - bool: true if the channel is subscribed (or pending)
	IsSubscribed(channel string, includePending bool) bool

	// Subscriptions returns the channel names subscribed on this pool.
	//
	// Parameters:
	//   - includePending: When true, include not-yet-confirmed subscriptions
	//
	// Returns:
	//   - []string: The subscribed channel names, in no particular order
	Subscriptions(includePending bool) []string

	// Publish forwards a publish request to the broker. The outcome is
	// also reported on the Publishes or PublishFails event stream.
	//
	// Parameters:
	//   - ctx: Context for cancellation/timeout
	//   - channel: The channel name to publish to
	//   - data: The message payload
	//
	// Returns:
	//   - error: Any immediate delivery error
	Publish(ctx context.Context, channel string, data []byte) error

	// Events returns the pool's event streams. All streams are closed
	// when the pool is destroyed.
	Events() PoolEvents

	// Destroy closes all connections, channels and event streams.
	// Destroy is idempotent.
	Destroy()
}

// PoolConfig carries the construction parameters for a new pool.
type PoolConfig struct {
	// BrokerURI is the broker the pool connects to.
	BrokerURI string

	// AuthKey is an opaque credential passed through to the broker.
	AuthKey string

	// Size is the number of transport connections the pool maintains.
	Size int
}

// PoolFactory constructs connection pools for broker URIs.
//
// The factory is invoked by the client whenever a topology update
// introduces a broker with no live pool.
type PoolFactory interface {
	// NewPool constructs a pool for the given configuration.
	//
	// Parameters:
	//   - cfg: The pool configuration
	//
	// Returns:
	//   - Pool: A live pool for cfg.BrokerURI
	//   - error: Any construction error
	NewPool(cfg PoolConfig) (Pool, error)
}

// PoolFactoryFunc adapts a function to the PoolFactory interface.
type PoolFactoryFunc func(cfg PoolConfig) (Pool, error)

// NewPool calls f.
func (f PoolFactoryFunc) NewPool(cfg PoolConfig) (Pool, error) {
	return f(cfg)
}
