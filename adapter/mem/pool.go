package mem

import (
	"context"
	"fmt"
	"sync"

	brokerclient "github.com/SocketCluster/agc-broker-client"
	"github.com/SocketCluster/agc-broker-client/types"
)

const (
	// eventBuffer is the capacity of each pool event stream.
	eventBuffer = 64

	// messageBuffer is the per-channel message stream capacity.
	messageBuffer = 64
)

// channelState tracks one subscribed channel on a pool.
type channelState struct {
	messages  chan []byte
	confirmed bool
	withdrawn bool
}

// Pool is an in-memory implementation of the client's pool contract.
//
// Subscription confirmations are immediate but still reported through the
// event streams, matching the asynchronous contract of real transports.
type Pool struct {
	broker *Broker
	cfg    brokerclient.PoolConfig

	mu        sync.Mutex
	channels  map[string]*channelState
	destroyed bool

	errors         chan error
	subscribes     chan string
	subscribeFails chan types.ChannelError
	publishes      chan string
	publishFails   chan types.ChannelError
}

var _ brokerclient.Pool = (*Pool)(nil)

// NewPool creates a pool attached to the given broker.
//
// Parameters:
//   - broker: The shared in-memory broker
//   - cfg: Pool configuration (BrokerURI is recorded, Size is ignored)
//
// Returns:
//   - *Pool: A live pool
func NewPool(broker *Broker, cfg brokerclient.PoolConfig) *Pool {
	return &Pool{
		broker:         broker,
		cfg:            cfg,
		channels:       make(map[string]*channelState),
		errors:         make(chan error, eventBuffer),
		subscribes:     make(chan string, eventBuffer),
		subscribeFails: make(chan types.ChannelError, eventBuffer),
		publishes:      make(chan string, eventBuffer),
		publishFails:   make(chan types.ChannelError, eventBuffer),
	}
}

// NewFactory returns a pool factory bound to the given broker.
//
// Every pool the factory creates shares the broker's subscription table,
// so a single Broker models the entire cluster.
//
// Parameters:
//   - broker: The shared in-memory broker
//
// Returns:
//   - brokerclient.PoolFactory: A factory producing mem pools
func NewFactory(broker *Broker) brokerclient.PoolFactory {
	return brokerclient.PoolFactoryFunc(func(cfg brokerclient.PoolConfig) (brokerclient.Pool, error) {
		return NewPool(broker, cfg), nil
	})
}

// BrokerURI returns the URI this pool was created for.
func (p *Pool) BrokerURI() string {
	return p.cfg.BrokerURI
}

// Subscribe opens the channel and returns its message stream.
//
// If the channel is already open, the existing stream is returned.
func (p *Pool) Subscribe(channel string) (<-chan []byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return nil, types.ErrPoolDestroyed
	}

	if state, ok := p.channels[channel]; ok {
		if state.withdrawn {
			// Re-subscribe on the existing stream
			state.withdrawn = false
			p.confirmLocked(channel, state)
		}

		return state.messages, nil
	}

	state := &channelState{
		messages: make(chan []byte, messageBuffer),
	}
	p.channels[channel] = state
	p.confirmLocked(channel, state)

	return state.messages, nil
}

// confirmLocked registers the channel with the broker and reports the
// outcome on the event streams. Caller must hold p.mu.
func (p *Pool) confirmLocked(channel string, state *channelState) {
	if p.broker.shouldFail(channel) {
		state.confirmed = false
		emit(p.subscribeFails, types.ChannelError{
			Channel: channel,
			Err:     fmt.Errorf("mem: subscription to %q refused", channel),
		})

		return
	}

	p.broker.register(p, channel)
	state.confirmed = true
	emit(p.subscribes, channel)
}

// Unsubscribe withdraws the subscription but keeps the stream open.
func (p *Pool) Unsubscribe(channel string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.channels[channel]
	if !ok || p.destroyed {
		return
	}

	state.withdrawn = true
	state.confirmed = false
	p.broker.unregister(p, channel)
}

// CloseChannel withdraws the subscription and closes the message stream.
func (p *Pool) CloseChannel(channel string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.channels[channel]
	if !ok {
		return
	}

	p.broker.unregister(p, channel)
	close(state.messages)
	delete(p.channels, channel)
}

// IsSubscribed reports whether the channel is subscribed on this pool.
func (p *Pool) IsSubscribed(channel string, includePending bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.channels[channel]
	if !ok || state.withdrawn {
		return false
	}

	if includePending {
		return true
	}

	return state.confirmed
}

// Subscriptions returns the subscribed channel names.
func (p *Pool) Subscriptions(includePending bool) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, 0, len(p.channels))
	for channel, state := range p.channels {
		if state.withdrawn {
			continue
		}
		if !includePending && !state.confirmed {
			continue
		}
		names = append(names, channel)
	}

	return names
}

// Publish delivers the message through the shared broker.
func (p *Pool) Publish(ctx context.Context, channel string, data []byte) error {
	if err := ctx.Err(); err != nil {
		p.emitPublishFail(channel, err)

		return err
	}

	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()

		return types.ErrPoolDestroyed
	}
	p.mu.Unlock()

	p.broker.Publish(channel, data)

	p.mu.Lock()
	if !p.destroyed {
		emit(p.publishes, channel)
	}
	p.mu.Unlock()

	return nil
}

// emitPublishFail reports a publish failure unless the pool is destroyed.
func (p *Pool) emitPublishFail(channel string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return
	}

	emit(p.publishFails, types.ChannelError{Channel: channel, Err: err})
}

// Events returns the pool's event streams.
func (p *Pool) Events() brokerclient.PoolEvents {
	return brokerclient.PoolEvents{
		Errors:         p.errors,
		Subscribes:     p.subscribes,
		SubscribeFails: p.subscribeFails,
		Publishes:      p.publishes,
		PublishFails:   p.publishFails,
	}
}

// Destroy closes all channels and event streams. Idempotent.
func (p *Pool) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return
	}
	p.destroyed = true

	p.broker.dropPool(p)

	for channel, state := range p.channels {
		close(state.messages)
		delete(p.channels, channel)
	}

	close(p.errors)
	close(p.subscribes)
	close(p.subscribeFails)
	close(p.publishes)
	close(p.publishFails)
}

// deliver places a message on the channel's stream.
//
// A full stream drops the message rather than blocking the publisher.
func (p *Pool) deliver(channel string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.channels[channel]
	if !ok || state.withdrawn || p.destroyed {
		return
	}

	select {
	case state.messages <- data:
	default:
		// Stream full, drop
	}
}

// emit performs a non-blocking send on a buffered event stream.
// Caller must hold p.mu; Destroy closes the streams under the same lock.
func emit[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
