package brokerclient

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SocketCluster/agc-broker-client/internal/logging"
	"github.com/SocketCluster/agc-broker-client/internal/metrics"
	"github.com/SocketCluster/agc-broker-client/mapper"
	"github.com/SocketCluster/agc-broker-client/types"
)

// Compile-time assertions that the built-in mappers satisfy the Mapper
// contract consumed by the client.
var (
	_ Mapper = (*mapper.Simple)(nil)
	_ Mapper = (*mapper.Rendezvous)(nil)
)

// Client is the routing layer of a sharded pub/sub cluster.
//
// Each channel is deterministically assigned to exactly one broker out of
// the current broker set. The client tracks that set, maintains one live
// connection pool per broker, and reconciles every active subscription on
// topology change so channels end up subscribed on the pool that currently
// owns them, with no duplicate or orphaned subscriptions.
//
// # Thread Safety
//
// Client is safe for concurrent use from multiple goroutines. SetBrokers
// invocations are serialized against each other and against every other
// operation that touches the pool registry; a reconciliation is a single
// atomic unit of work.
//
// # Lifecycle
//
// Create a client with New() and clean up resources with Close():
//
//	client, err := brokerclient.New(factory,
//	    brokerclient.WithMapper(mapper.NewRendezvous()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.SetBrokers([]string{"wss://b1", "wss://b2"}); err != nil {
//	    log.Fatal(err)
//	}
//
// After Close() is called all pools are destroyed, the unified event
// stream is closed once in-flight events drain, and further operations
// return types.ErrClientClosed.
type Client struct {
	config  *ClientConfig
	factory PoolFactory
	mapper  Mapper

	// mu serializes reconciliation and guards the registry and site list.
	mu       sync.Mutex
	registry *poolRegistry
	sites    []string

	events chan types.Event
	ready  atomic.Bool
	closed atomic.Bool

	wg            sync.WaitGroup
	topologyCtx   context.Context
	topologyClose context.CancelFunc
}

// New creates a new routing client.
//
// The client starts with an empty broker set; no pool exists and no
// channel can be routed until the first SetBrokers call (or the first
// update from a configured TopologyWatcher) completes.
//
// Parameters:
//   - factory: Constructs a connection pool per broker (required)
//   - opts: Optional configuration options
//
// Returns:
//   - *Client: A new client
//   - error: types.ErrNilPoolFactory if factory is nil
func New(factory PoolFactory, opts ...Option) (*Client, error) {
	if factory == nil {
		return nil, types.ErrNilPoolFactory
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	// Ensure metrics is never nil
	if config.Metrics == nil {
		config.Metrics = metrics.NewNopMetrics()
	}

	// Ensure logger is never nil
	if config.Logger == nil {
		config.Logger = logging.NewNopLogger()
	}

	m := config.Mapper
	if m == nil {
		m = mapper.NewSimple()
	}

	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{
		config:        config,
		factory:       factory,
		mapper:        m,
		registry:      newPoolRegistry(),
		events:        make(chan types.Event, config.EventBuffer),
		topologyCtx:   ctx,
		topologyClose: cancel,
	}

	if config.TopologyWatcher != nil {
		client.wg.Add(1)
		go client.watchTopology()
	}

	return client, nil
}

// watchTopology applies updates from the configured watcher.
func (c *Client) watchTopology() {
	defer c.wg.Done()

	updates := c.config.TopologyWatcher.Watch(c.topologyCtx)
	for {
		select {
		case <-c.topologyCtx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := c.SetBrokers(update.BrokerURIs); err != nil {
				c.config.Logger.Error("failed to apply topology update",
					"brokers", update.BrokerURIs,
					"error", err,
				)
			}
		}
	}
}

// SetBrokers replaces the broker set and reconciles every active
// subscription against the new topology.
//
// The reconciliation is idempotent: calling SetBrokers twice in a row with
// an identical list issues no additional subscribe or unsubscribe calls on
// the second invocation. Pools for brokers present in both the old and new
// list are reused, never rebuilt; pools for departed brokers are destroyed
// and a re-added broker gets a fresh pool.
//
// On completion the client becomes ready and an updateBrokers event is
// emitted carrying the applied list.
//
// Parameters:
//   - brokerURIs: The full broker list for the new topology
//
// Returns:
//   - error: types.ErrClientClosed if the client is closed
func (c *Client) SetBrokers(brokerURIs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return types.ErrClientClosed
	}

	start := time.Now()
	uris := dedupe(brokerURIs)

	// Step 1: push the new site list into the mapper.
	c.mapper.SetSites(uris)

	// Step 2: snapshot the full channel set before any pool is destroyed,
	// so channels owned by a departing broker are not lost from the
	// desired-assignment computation.
	snapshot := c.snapshotLocked()

	// Step 3: ensure a pool exists for every broker in the new list.
	for _, uri := range uris {
		_, created, err := c.registry.Ensure(uri, c.newPool)
		if err != nil {
			c.config.Logger.Error("pool creation failed", "broker", uri, "error", err)
			c.emit(types.Event{Type: types.EventError, Err: err})
			continue
		}
		if created {
			c.config.Metrics.IncPoolCreated(uri)
			c.config.Logger.Info("pool created", "broker", uri)
		}
	}

	// Step 4: destroy pools whose brokers left, after step 3 so brokers
	// that remain keep their pool.
	for uri, pool := range c.registry.RemoveUnreferenced(uris) {
		pool.Destroy()
		c.config.Metrics.IncPoolDestroyed(uri)
		c.config.Logger.Info("pool destroyed", "broker", uri)
	}
	c.config.Metrics.SetPoolCount(c.registry.Len())

	// Step 5: recompute the desired channel assignment per broker.
	desired := make(map[string]map[string]struct{})
	for channel := range snapshot {
		uri := c.mapper.FindSite(channel)
		if !c.registry.Has(uri) {
			// The mapper resolved a broker with no live pool. The channel
			// stays unassigned for this pass; surface it rather than
			// dropping it silently.
			err := &types.TargetError{Kind: types.SubscribeTarget, Channel: channel, BrokerURI: uri}
			c.config.Metrics.IncTargetMiss(string(types.SubscribeTarget))
			c.emit(types.Event{Type: types.EventError, Channel: channel, Err: err})
			continue
		}
		set := desired[uri]
		if set == nil {
			set = make(map[string]struct{})
			desired[uri] = set
		}
		set[channel] = struct{}{}
	}

	// Step 6: diff each pool's current subscriptions against the desired
	// assignment; close what is no longer owned, open what is newly owned.
	c.registry.ForEach(func(uri string, pool Pool) {
		want := desired[uri]
		for _, channel := range pool.Subscriptions(true) {
			if _, ok := want[channel]; !ok {
				pool.CloseChannel(channel)
			}
		}
		for channel := range want {
			if pool.IsSubscribed(channel, true) {
				continue
			}
			if err := c.openChannelLocked(pool, channel); err != nil {
				c.emit(types.Event{Type: types.EventError, Channel: channel, Err: err})
			}
		}
	})

	// Step 7: mark ready and notify.
	c.sites = uris
	c.ready.Store(true)
	c.config.Metrics.IncTopologyUpdate()
	c.config.Metrics.ObserveReconcileDuration(time.Since(start).Seconds())
	c.config.Metrics.SetChannelCount(len(snapshot))
	c.emit(types.Event{Type: types.EventUpdateBrokers, BrokerURIs: append([]string(nil), uris...)})
	c.config.Logger.Info("topology applied",
		"brokers", len(uris),
		"channels", len(snapshot),
	)

	return nil
}

// Subscribe opens the channel on the pool that owns it and starts its
// message forwarding. Subscribing an already subscribed channel is a
// no-op.
//
// Parameters:
//   - channel: The channel name to subscribe
//
// Returns:
//   - error: types.ErrClientClosed, or a TargetError (also emitted as an
//     error event) when the owning broker has no live pool
func (c *Client) Subscribe(channel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return types.ErrClientClosed
	}

	uri := c.mapper.FindSite(channel)
	pool, ok := c.registry.Get(uri)
	if !ok {
		return c.targetMissLocked(types.SubscribeTarget, channel, uri)
	}

	if pool.IsSubscribed(channel, true) {
		return nil
	}

	return c.openChannelLocked(pool, channel)
}

// Unsubscribe withdraws the subscription for the channel and closes it on
// the owning pool.
//
// Parameters:
//   - channel: The channel name to unsubscribe
//
// Returns:
//   - error: types.ErrClientClosed, or a TargetError (also emitted as an
//     error event) when the owning broker has no live pool
func (c *Client) Unsubscribe(channel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return types.ErrClientClosed
	}

	uri := c.mapper.FindSite(channel)
	pool, ok := c.registry.Get(uri)
	if !ok {
		return c.targetMissLocked(types.UnsubscribeTarget, channel, uri)
	}

	pool.Unsubscribe(channel)
	pool.CloseChannel(channel)

	return nil
}

// Publish forwards a publish request to the pool that owns the channel.
// The outcome is reported on the unified stream as a publish or
// publishFail event.
//
// Parameters:
//   - ctx: Context for cancellation/timeout
//   - channel: The channel name to publish to
//   - data: The message payload
//
// Returns:
//   - error: types.ErrClientClosed, a TargetError when the owning broker
//     has no live pool, or the pool's immediate delivery error
func (c *Client) Publish(ctx context.Context, channel string, data []byte) error {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return types.ErrClientClosed
	}

	uri := c.mapper.FindSite(channel)
	pool, ok := c.registry.Get(uri)
	if !ok {
		defer c.mu.Unlock()
		return c.targetMissLocked(types.PublishTarget, channel, uri)
	}
	c.mu.Unlock()

	return pool.Publish(ctx, channel, data)
}

// Subscriptions returns the union of channel names subscribed across all
// pools (current and pending) and the local broker's own subscriptions,
// with duplicates collapsed. The result is sorted for determinism.
//
// Returns:
//   - []string: All tracked channel names
func (c *Client) Subscriptions() []string {
	c.mu.Lock()
	set := c.snapshotLocked()
	c.mu.Unlock()

	channels := make([]string, 0, len(set))
	for channel := range set {
		channels = append(channels, channel)
	}
	sort.Strings(channels)

	return channels
}

// MapChannel returns the broker URI owning the channel under the current
// topology. The mapping is total and deterministic: it never fails, and
// repeated calls with an unchanged broker set return the same URI.
//
// Parameters:
//   - channel: The channel name to place
//
// Returns:
//   - string: The owning broker URI, or empty when no brokers are set
func (c *Client) MapChannel(channel string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.mapper.FindSite(channel)
}

// Brokers returns the broker list of the last applied topology.
//
// Returns:
//   - []string: The current broker URIs
func (c *Client) Brokers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.sites...)
}

// Ready reports whether at least one topology reconciliation has completed
// since construction.
//
// Returns:
//   - bool: true once the first SetBrokers call has been applied
func (c *Client) Ready() bool {
	return c.ready.Load()
}

// Events returns the unified event stream.
//
// Events from the same channel or the same pool-level stream preserve
// source order; no relative order is guaranteed across different sources.
// The stream is closed by Close once all forwarding goroutines have
// drained.
//
// Returns:
//   - <-chan types.Event: The unified event stream
func (c *Client) Events() <-chan types.Event {
	return c.events
}

// Close destroys all pools, stops the topology watcher and closes the
// unified event stream. Close is idempotent.
//
// Returns:
//   - error: Always nil
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	c.topologyClose()

	c.mu.Lock()
	for uri, pool := range c.registry.RemoveUnreferenced(nil) {
		pool.Destroy()
		c.config.Metrics.IncPoolDestroyed(uri)
	}
	c.config.Metrics.SetPoolCount(0)
	c.mu.Unlock()

	// All source streams are closed now; wait for the forwarding
	// goroutines to drain before closing the outward stream.
	c.wg.Wait()
	close(c.events)

	return nil
}

// newPool constructs a pool for the broker and wires its event streams
// into the unified stream.
func (c *Client) newPool(brokerURI string) (Pool, error) {
	pool, err := c.factory.NewPool(PoolConfig{
		BrokerURI: brokerURI,
		AuthKey:   c.config.AuthKey,
		Size:      c.config.PoolSize,
	})
	if err != nil {
		return nil, err
	}

	c.wirePool(brokerURI, pool)

	return pool, nil
}

// openChannelLocked subscribes the channel on the pool and starts its
// message forwarding goroutine. Callers must hold c.mu.
func (c *Client) openChannelLocked(pool Pool, channel string) error {
	messages, err := pool.Subscribe(channel)
	if err != nil {
		return err
	}

	c.wg.Add(1)
	go c.forwardMessages(channel, messages)

	return nil
}

// snapshotLocked computes the full set of channel names currently of
// interest: every pool's current and pending subscriptions plus the local
// broker's own subscriptions. Callers must hold c.mu.
func (c *Client) snapshotLocked() map[string]struct{} {
	set := c.registry.ChannelSet(true)
	if c.config.LocalBroker != nil {
		for _, channel := range c.config.LocalBroker.Subscriptions() {
			set[channel] = struct{}{}
		}
	}

	return set
}

// targetMissLocked records, emits and returns a TargetError for an
// operation that resolved a broker with no live pool. Callers must hold
// c.mu.
func (c *Client) targetMissLocked(kind types.TargetKind, channel, brokerURI string) error {
	err := &types.TargetError{Kind: kind, Channel: channel, BrokerURI: brokerURI}
	c.config.Metrics.IncTargetMiss(string(kind))
	c.config.Logger.Warn("no live pool for channel",
		"operation", string(kind),
		"channel", channel,
		"broker", brokerURI,
	)
	c.emit(types.Event{Type: types.EventError, Channel: channel, Err: err})

	return err
}

// dedupe returns a copy of uris with duplicates removed, preserving the
// first occurrence order.
func dedupe(uris []string) []string {
	seen := make(map[string]struct{}, len(uris))
	out := make([]string, 0, len(uris))
	for _, uri := range uris {
		if _, ok := seen[uri]; ok {
			continue
		}
		seen[uri] = struct{}{}
		out = append(out, uri)
	}

	return out
}
