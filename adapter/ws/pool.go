package ws

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	brokerclient "github.com/SocketCluster/agc-broker-client"
	"github.com/SocketCluster/agc-broker-client/types"
)

const (
	eventBuffer   = 64
	messageBuffer = 64
)

// channelState tracks one subscribed channel on a pool.
type channelState struct {
	messages  chan []byte
	confirmed bool
	withdrawn bool
}

// Pool is a websocket-backed implementation of the client's pool
// contract.
//
// A pool maintains Size connections to a single broker. Subscriptions
// are pinned to one connection by channel hash so subscribe and
// unsubscribe frames for a channel always travel on the same socket;
// publishes rotate round-robin across all connections.
//
// A failed connection is reported on the Errors stream and stays down
// until the pool is destroyed; the client rebuilds pools on topology
// changes, which is when reconnection happens.
type Pool struct {
	cfg  brokerclient.PoolConfig
	opts options

	conns   []*conn
	publish atomic.Uint64

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

// options holds dial and keepalive tuning for a pool.
type options struct {
	handshakeTimeout time.Duration
	writeTimeout     time.Duration
	pingInterval     time.Duration
	pongTimeout      time.Duration
}

func defaultOptions() options {
	return options{
		handshakeTimeout: 10 * time.Second,
		writeTimeout:     5 * time.Second,
		pingInterval:     15 * time.Second,
		pongTimeout:      45 * time.Second,
	}
}

// Option configures a ws pool factory.
type Option func(*options)

// WithHandshakeTimeout sets the websocket handshake timeout.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) { o.handshakeTimeout = d }
}

// WithWriteTimeout sets the per-frame write deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) { o.writeTimeout = d }
}

// WithPingInterval sets the keepalive ping interval.
func WithPingInterval(d time.Duration) Option {
	return func(o *options) { o.pingInterval = d }
}

// WithPongTimeout sets how long a connection may go without a pong
// before its reads fail.
func WithPongTimeout(d time.Duration) Option {
	return func(o *options) { o.pongTimeout = d }
}

// NewPool dials cfg.Size connections to cfg.BrokerURI and returns a
// live pool.
//
// Parameters:
//   - ctx: Context bounding the dial phase
//   - cfg: Pool configuration; AuthKey is sent as the X-Auth-Key header
//   - opts: Optional dial and keepalive tuning
//
// Returns:
//   - *Pool: A live pool with all connections established
//   - error: The first dial error; no pool is returned on failure
func NewPool(ctx context.Context, cfg brokerclient.PoolConfig, opts ...Option) (*Pool, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	size := cfg.Size
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		cfg:            cfg,
		opts:           o,
		channels:       make(map[string]*channelState),
		errors:         make(chan error, eventBuffer),
		subscribes:     make(chan string, eventBuffer),
		subscribeFails: make(chan types.ChannelError, eventBuffer),
		publishes:      make(chan string, eventBuffer),
		publishFails:   make(chan types.ChannelError, eventBuffer),
	}

	for i := 0; i < size; i++ {
		c, err := dialConn(ctx, p, cfg.BrokerURI, cfg.AuthKey)
		if err != nil {
			for _, established := range p.conns {
				established.close()
			}

			return nil, err
		}
		p.conns = append(p.conns, c)
	}

	return p, nil
}

// NewFactory returns a pool factory that dials websocket pools.
//
// Parameters:
//   - opts: Optional dial and keepalive tuning applied to every pool
//
// Returns:
//   - brokerclient.PoolFactory: A factory producing ws pools
func NewFactory(opts ...Option) brokerclient.PoolFactory {
	return brokerclient.PoolFactoryFunc(func(cfg brokerclient.PoolConfig) (brokerclient.Pool, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return NewPool(ctx, cfg, opts...)
	})
}

// BrokerURI returns the URI this pool was created for.
func (p *Pool) BrokerURI() string {
	return p.cfg.BrokerURI
}

// connFor returns the connection that owns the channel's subscription.
func (p *Pool) connFor(channel string) *conn {
	idx := xxhash.Sum64String(channel) % uint64(len(p.conns))

	return p.conns[idx]
}

// Subscribe opens the channel and returns its message stream.
//
// The subscribe frame is sent on the channel's pinned connection; the
// broker's acknowledgement arrives asynchronously on the Subscribes or
// SubscribeFails stream.
func (p *Pool) Subscribe(channel string) (<-chan []byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return nil, types.ErrPoolDestroyed
	}

	if state, ok := p.channels[channel]; ok {
		if state.withdrawn {
			state.withdrawn = false
			p.sendSubscribeLocked(channel)
		}

		return state.messages, nil
	}

	state := &channelState{
		messages: make(chan []byte, messageBuffer),
	}
	p.channels[channel] = state
	p.sendSubscribeLocked(channel)

	return state.messages, nil
}

// sendSubscribeLocked sends the subscribe frame. Caller must hold p.mu.
func (p *Pool) sendSubscribeLocked(channel string) {
	if err := p.connFor(channel).send(frame{Op: opSubscribe, Channel: channel}); err != nil {
		emitLocked(p.subscribeFails, types.ChannelError{Channel: channel, Err: err})
	}
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

	if err := p.connFor(channel).send(frame{Op: opUnsubscribe, Channel: channel}); err != nil {
		emitLocked(p.errors, err)
	}
}

// CloseChannel withdraws the subscription and closes the message stream.
func (p *Pool) CloseChannel(channel string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.channels[channel]
	if !ok {
		return
	}

	if !state.withdrawn && !p.destroyed {
		if err := p.connFor(channel).send(frame{Op: opUnsubscribe, Channel: channel}); err != nil {
			emitLocked(p.errors, err)
		}
	}

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

// Publish sends a publish frame on the next connection in round-robin
// order. The broker's acknowledgement arrives asynchronously on the
// Publishes or PublishFails stream.
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

	idx := p.publish.Add(1) % uint64(len(p.conns))
	if err := p.conns[idx].send(frame{Op: opPublish, Channel: channel, Data: data}); err != nil {
		p.emitPublishFail(channel, err)

		return err
	}

	return nil
}

// emitPublishFail reports a publish failure unless the pool is destroyed.
func (p *Pool) emitPublishFail(channel string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return
	}

	emitLocked(p.publishFails, types.ChannelError{Channel: channel, Err: err})
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

// Destroy closes all connections, channels and event streams. Idempotent.
//
// Event streams are closed under the pool lock; every emit also runs
// under the lock and checks the destroyed flag first, so a racing read
// loop can never send on a closed stream.
func (p *Pool) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()

		return
	}
	p.destroyed = true

	for channel, state := range p.channels {
		close(state.messages)
		delete(p.channels, channel)
	}

	close(p.errors)
	close(p.subscribes)
	close(p.subscribeFails)
	close(p.publishes)
	close(p.publishFails)
	p.mu.Unlock()

	for _, c := range p.conns {
		c.close()
	}
}

// dispatch routes a broker frame to the matching channel or event
// stream.
func (p *Pool) dispatch(f frame) {
	if f.Op == opMessage {
		p.deliver(f.Channel, f.Data)

		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return
	}

	switch f.Op {
	case opSubscribeAck:
		if state, ok := p.channels[f.Channel]; ok && !state.withdrawn {
			state.confirmed = true
			emitLocked(p.subscribes, f.Channel)
		}
	case opSubscribeFail:
		emitLocked(p.subscribeFails, types.ChannelError{
			Channel: f.Channel,
			Err:     fmt.Errorf("ws: broker refused subscription: %s", f.Error),
		})
	case opPublishAck:
		emitLocked(p.publishes, f.Channel)
	case opPublishFail:
		emitLocked(p.publishFails, types.ChannelError{
			Channel: f.Channel,
			Err:     fmt.Errorf("ws: broker refused publish: %s", f.Error),
		})
	default:
		emitLocked(p.errors, fmt.Errorf("ws: unknown frame op %q", f.Op))
	}
}

// deliver places a message on the channel's stream.
//
// A full stream drops the message rather than blocking the read loop.
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

// connFailed reports a failed connection and marks its subscriptions
// unconfirmed.
func (p *Pool) connFailed(c *conn, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return
	}

	for channel, state := range p.channels {
		if p.connFor(channel) == c {
			state.confirmed = false
		}
	}

	emitLocked(p.errors, fmt.Errorf("ws: connection %s to %s failed: %w", c.id, p.cfg.BrokerURI, err))
}

// connError reports a non-fatal connection-level error.
func (p *Pool) connError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.destroyed {
		emitLocked(p.errors, err)
	}
}

// emitLocked performs a non-blocking send on a buffered event stream.
// Caller must hold p.mu; Destroy closes the streams under the same lock.
func emitLocked[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
