package topology

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	brokerclient "github.com/SocketCluster/agc-broker-client"
)

// NATS monitors a NATS KV bucket for the cluster broker list.
//
// It watches a configurable key and emits a TopologyUpdate whenever the
// broker list changes. This lets operations teams roll brokers in and out
// of the cluster with a single KV write.
//
// Watch() should be called once per instance. Subsequent calls return the
// same channel. The channel is closed when Close() is called or the
// context is cancelled.
type NATS struct {
	kv     jetstream.KeyValue
	config WatcherConfig

	// Last known broker list
	brokerURIs []string
	haveList   bool
	mu         sync.RWMutex

	// Lifecycle
	updates      chan brokerclient.TopologyUpdate
	done         chan struct{}
	closed       bool
	watchStarted bool
	closeOnce    sync.Once
}

var _ brokerclient.TopologyWatcher = (*NATS)(nil)

// NewNATS creates a new NATS KV topology watcher.
//
// The watcher will begin monitoring the KV bucket for the broker list
// when Watch() is called.
//
// Parameters:
//   - kv: A NATS JetStream KeyValue store
//   - opts: Optional configuration options
//
// Returns:
//   - *NATS: A new watcher instance
//   - error: Error if kv is nil
//
// Example:
//
//	nc, _ := nats.Connect("nats://localhost:4222")
//	js, _ := jetstream.New(nc)
//	kv, _ := js.KeyValue(ctx, "agc-config")
//
//	watcher, _ := topology.NewNATS(kv,
//	    topology.WithKey("cluster.brokers"),
//	    topology.WithPollInterval(10*time.Second),
//	)
func NewNATS(kv jetstream.KeyValue, opts ...WatcherOption) (*NATS, error) {
	if kv == nil {
		return nil, errors.New("brokerclient/topology: KeyValue store is nil")
	}

	config := DefaultWatcherConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &NATS{
		kv:      kv,
		config:  config,
		updates: make(chan brokerclient.TopologyUpdate, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch returns a channel that receives topology updates.
//
// The watcher spawns a background goroutine that monitors the NATS KV
// key. When the broker list changes, it emits a TopologyUpdate carrying
// the full new list.
//
// The channel is closed when Close() is called or the context is
// cancelled. Multiple calls to Watch return the same channel; only the
// first call's context controls the watch lifecycle.
//
// Parameters:
//   - ctx: Context for cancellation (only used on first call)
//
// Returns:
//   - <-chan brokerclient.TopologyUpdate: Channel of topology changes
func (n *NATS) Watch(ctx context.Context) <-chan brokerclient.TopologyUpdate {
	n.mu.Lock()
	if n.watchStarted {
		n.mu.Unlock()

		return n.updates
	}
	n.watchStarted = true
	n.mu.Unlock()

	go n.watchLoop(ctx)

	return n.updates
}

// Close stops the watcher and releases resources.
//
// This method is safe to call multiple times.
func (n *NATS) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}

	n.closed = true
	close(n.done)

	return nil
}

// Current returns the last known broker list.
//
// This returns the cached list from the last processed KV entry. It does
// not perform a live KV fetch.
//
// Returns:
//   - []string: The current broker URIs, or nil before the first entry
func (n *NATS) Current() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return append([]string(nil), n.brokerURIs...)
}

// Config returns the watcher configuration.
//
// This method is primarily useful for testing to verify configuration
// options.
//
// Returns:
//   - WatcherConfig: The current watcher configuration
func (n *NATS) Config() WatcherConfig {
	return n.config
}

// watchLoop is the main watch loop that monitors the NATS KV key.
func (n *NATS) watchLoop(ctx context.Context) {
	defer n.closeOnce.Do(func() { close(n.updates) })

	// Initial fetch
	n.fetchAndEmit(ctx)

	// Start watching
	watcher, err := n.kv.Watch(ctx, n.config.Key)
	if err != nil {
		// Fall back to polling if watch fails
		n.pollLoop(ctx)
		return
	}
	defer func() { _ = watcher.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			return
		case entry, ok := <-watcher.Updates():
			if !ok {
				// Watcher channel closed, fall back to polling
				n.pollLoop(ctx)
				return
			}
			if entry == nil {
				// Initial nil entry, skip
				continue
			}
			n.processEntry(entry)
		}
	}
}

// pollLoop is a fallback polling loop when watch fails.
func (n *NATS) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(n.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			return
		case <-ticker.C:
			n.fetchAndEmit(ctx)
		}
	}
}

// fetchAndEmit fetches the current KV value and emits an update if the
// broker list changed.
func (n *NATS) fetchAndEmit(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, n.config.InitialFetchTimeout)
	defer cancel()

	entry, err := n.kv.Get(fetchCtx, n.config.Key)
	if err != nil {
		// Key doesn't exist yet or fetch failed - keep the last known list
		return
	}

	n.processEntry(entry)
}

// processEntry parses a KV entry and emits a topology update on change.
//
// Deleted keys and invalid JSON keep the last known list: a misplaced KV
// write must not tear the whole cluster down.
func (n *NATS) processEntry(entry jetstream.KeyValueEntry) {
	if entry.Operation() == jetstream.KeyValueDelete || entry.Operation() == jetstream.KeyValuePurge {
		return
	}

	var config BrokersConfig
	if err := json.Unmarshal(entry.Value(), &config); err != nil {
		return
	}

	n.updateBrokers(config.BrokerURIs)
}

// updateBrokers stores the new list and emits an update if it changed.
func (n *NATS) updateBrokers(brokerURIs []string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.haveList && slices.Equal(n.brokerURIs, brokerURIs) {
		return
	}

	n.brokerURIs = append([]string(nil), brokerURIs...)
	n.haveList = true

	// Emit update (non-blocking)
	select {
	case n.updates <- brokerclient.TopologyUpdate{
		BrokerURIs: append([]string(nil), brokerURIs...),
	}:
	default:
		// Channel full, skip update (older updates are stale anyway)
	}
}
