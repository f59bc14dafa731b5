package topology

import (
	"context"
	"slices"
	"sync"

	brokerclient "github.com/SocketCluster/agc-broker-client"
)

// Local provides an in-memory topology watcher for testing.
//
// Unlike NATS or File, this implementation allows programmatic control of
// the broker list, making it ideal for unit tests and demos.
type Local struct {
	mu         sync.RWMutex
	brokerURIs []string

	updates       chan brokerclient.TopologyUpdate
	done          chan struct{}
	closed        bool
	updatesClosed bool
}

var _ brokerclient.TopologyWatcher = (*Local)(nil)

// NewLocal creates a new in-memory topology watcher.
//
// Returns:
//   - *Local: A new local topology instance
func NewLocal() *Local {
	return &Local{
		updates: make(chan brokerclient.TopologyUpdate, 10),
		done:    make(chan struct{}),
	}
}

// Watch returns a channel that receives topology updates.
//
// Updates are emitted when SetBrokers changes the list. The channel is
// closed when Close() is called or the context is cancelled.
//
// Multiple calls to Watch return the same channel; only the first call's
// context controls the watch lifecycle.
//
// Parameters:
//   - ctx: Context for cancellation (only used on first call)
//
// Returns:
//   - <-chan brokerclient.TopologyUpdate: Channel of topology changes
func (l *Local) Watch(ctx context.Context) <-chan brokerclient.TopologyUpdate {
	go l.waitForClose(ctx)
	return l.updates
}

// SetBrokers replaces the broker list.
//
// This method emits a TopologyUpdate if the list changes.
//
// Parameters:
//   - ctx: Context for cancellation. For the local in-memory
//     implementation, this parameter is accepted for interface symmetry
//     but not used.
//   - brokerURIs: The full broker list
//
// Returns:
//   - error: Always nil for local implementation
func (l *Local) SetBrokers(_ context.Context, brokerURIs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.updatesClosed {
		return nil
	}

	// Only emit if the list changed
	if slices.Equal(l.brokerURIs, brokerURIs) {
		return nil
	}

	l.brokerURIs = append([]string(nil), brokerURIs...)

	// Emit update (non-blocking)
	select {
	case l.updates <- brokerclient.TopologyUpdate{
		BrokerURIs: append([]string(nil), brokerURIs...),
	}:
	default:
		// Channel full, skip update
	}

	return nil
}

// Current returns the broker list from the last SetBrokers call.
//
// Returns:
//   - []string: The current broker URIs
func (l *Local) Current() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]string(nil), l.brokerURIs...)
}

// Close stops the watcher and releases resources.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	close(l.done)

	return nil
}

// waitForClose waits for context cancellation or close signal.
func (l *Local) waitForClose(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-l.done:
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.updatesClosed {
		l.updatesClosed = true
		close(l.updates)
	}
}
