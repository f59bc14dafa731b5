// Package mem provides an in-memory broker and pool implementation.
//
// The mem adapter implements the client's Pool contract without any
// network transport. A single Broker instance stands in for the whole
// cluster: every pool created against it shares one subscription table,
// so messages published through any pool reach every subscribed pool.
//
// It is intended for unit tests, examples and local development.
package mem

import (
	"sync"
)

// Broker is an in-memory message broker shared by mem pools.
//
// All methods are safe for concurrent use.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[*Pool]struct{}

	// Channels whose subscription attempts are forced to fail.
	failing map[string]struct{}
}

// NewBroker creates a new in-memory broker.
//
// Returns:
//   - *Broker: An empty broker with no subscriptions
func NewBroker() *Broker {
	return &Broker{
		subs:    make(map[string]map[*Pool]struct{}),
		failing: make(map[string]struct{}),
	}
}

// Publish delivers a message to every pool subscribed to the channel.
//
// Parameters:
//   - channel: The channel name
//   - data: The message payload
//
// Returns:
//   - int: The number of pools the message was delivered to
func (b *Broker) Publish(channel string, data []byte) int {
	b.mu.RLock()
	pools := make([]*Pool, 0, len(b.subs[channel]))
	for p := range b.subs[channel] {
		pools = append(pools, p)
	}
	b.mu.RUnlock()

	for _, p := range pools {
		p.deliver(channel, data)
	}

	return len(pools)
}

// Subscribers returns the number of pools subscribed to the channel.
//
// Parameters:
//   - channel: The channel name
//
// Returns:
//   - int: The subscriber count
func (b *Broker) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[channel])
}

// FailSubscriptions forces subscription attempts for the channel to fail.
//
// This is a test hook: pools report a subscription failure on their
// SubscribeFails stream instead of registering with the broker.
//
// Parameters:
//   - channel: The channel name
//   - fail: Whether subscription attempts should fail
func (b *Broker) FailSubscriptions(channel string, fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if fail {
		b.failing[channel] = struct{}{}
	} else {
		delete(b.failing, channel)
	}
}

// shouldFail reports whether subscriptions for the channel are forced to
// fail.
func (b *Broker) shouldFail(channel string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.failing[channel]

	return ok
}

// register adds a pool as a subscriber of the channel.
func (b *Broker) register(p *Pool, channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*Pool]struct{})
	}
	b.subs[channel][p] = struct{}{}
}

// unregister removes a pool's subscription for the channel.
func (b *Broker) unregister(p *Pool, channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs[channel], p)
	if len(b.subs[channel]) == 0 {
		delete(b.subs, channel)
	}
}

// dropPool removes all of a pool's subscriptions.
func (b *Broker) dropPool(p *Pool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for channel, pools := range b.subs {
		delete(pools, p)
		if len(pools) == 0 {
			delete(b.subs, channel)
		}
	}
}
