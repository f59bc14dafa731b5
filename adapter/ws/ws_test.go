package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	brokerclient "github.com/SocketCluster/agc-broker-client"
	"github.com/SocketCluster/agc-broker-client/types"
)

// fakeBroker is a websocket server that acknowledges subscribe and
// publish frames and loops published messages back to subscribers.
type fakeBroker struct {
	server *httptest.Server

	mu       sync.Mutex
	conns    []*websocket.Conn
	authKeys []string
	subs     map[string][]*websocket.Conn

	// Channels whose subscription attempts are refused.
	refuse map[string]bool
}

func newFakeBroker(t *testing.T) *fakeBroker {
	t.Helper()

	b := &fakeBroker{
		subs:   make(map[string][]*websocket.Conn),
		refuse: make(map[string]bool),
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		b.mu.Lock()
		b.conns = append(b.conns, c)
		b.authKeys = append(b.authKeys, r.Header.Get("X-Auth-Key"))
		b.mu.Unlock()

		b.serve(c)
	}))

	t.Cleanup(b.server.Close)

	return b
}

func (b *fakeBroker) url() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http")
}

func (b *fakeBroker) write(c *websocket.Conn, f frame) {
	data, _ := json.Marshal(f)

	b.mu.Lock()
	defer b.mu.Unlock()

	_ = c.WriteMessage(websocket.TextMessage, data)
}

func (b *fakeBroker) serve(c *websocket.Conn) {
	defer c.Close()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}

		switch f.Op {
		case opSubscribe:
			b.mu.Lock()
			refused := b.refuse[f.Channel]
			if !refused {
				b.subs[f.Channel] = append(b.subs[f.Channel], c)
			}
			b.mu.Unlock()

			if refused {
				b.write(c, frame{Op: opSubscribeFail, Channel: f.Channel, Error: "refused"})
			} else {
				b.write(c, frame{Op: opSubscribeAck, Channel: f.Channel})
			}
		case opUnsubscribe:
			b.mu.Lock()
			conns := b.subs[f.Channel]
			for i, sub := range conns {
				if sub == c {
					b.subs[f.Channel] = append(conns[:i], conns[i+1:]...)
					break
				}
			}
			b.mu.Unlock()
		case opPublish:
			b.mu.Lock()
			subs := append([]*websocket.Conn(nil), b.subs[f.Channel]...)
			b.mu.Unlock()

			for _, sub := range subs {
				b.write(sub, frame{Op: opMessage, Channel: f.Channel, Data: f.Data})
			}
			b.write(c, frame{Op: opPublishAck, Channel: f.Channel})
		}
	}
}

func (b *fakeBroker) subscriberCount(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs[channel])
}

func newTestPool(t *testing.T, broker *fakeBroker, size int) *Pool {
	t.Helper()

	pool, err := NewPool(t.Context(), brokerclient.PoolConfig{
		BrokerURI: broker.url(),
		AuthKey:   "secret",
		Size:      size,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Destroy)

	return pool
}

func waitSubscribed(t *testing.T, pool *Pool, channel string) {
	t.Helper()

	require.Eventually(t, func() bool {
		return pool.IsSubscribed(channel, false)
	}, 2*time.Second, 10*time.Millisecond, "subscription to %s never confirmed", channel)
}

func TestDialFailure(t *testing.T) {
	_, err := NewPool(t.Context(), brokerclient.PoolConfig{
		BrokerURI: "ws://127.0.0.1:1",
	}, WithHandshakeTimeout(200*time.Millisecond))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial")
}

func TestAuthKeyHeader(t *testing.T) {
	broker := newFakeBroker(t)
	newTestPool(t, broker, 2)

	broker.mu.Lock()
	defer broker.mu.Unlock()

	require.Len(t, broker.authKeys, 2)
	for _, key := range broker.authKeys {
		assert.Equal(t, "secret", key)
	}
}

func TestSubscribeConfirmation(t *testing.T) {
	broker := newFakeBroker(t)
	pool := newTestPool(t, broker, 1)

	messages, err := pool.Subscribe("orders")
	require.NoError(t, err)
	require.NotNil(t, messages)

	assert.True(t, pool.IsSubscribed("orders", true), "pending immediately")

	select {
	case channel := <-pool.Events().Subscribes:
		assert.Equal(t, "orders", channel)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for subscribe confirmation")
	}

	waitSubscribed(t, pool, "orders")
	assert.Equal(t, []string{"orders"}, pool.Subscriptions(false))
}

func TestSubscribeRefused(t *testing.T) {
	broker := newFakeBroker(t)
	broker.mu.Lock()
	broker.refuse["orders"] = true
	broker.mu.Unlock()

	pool := newTestPool(t, broker, 1)

	_, err := pool.Subscribe("orders")
	require.NoError(t, err)

	select {
	case chErr := <-pool.Events().SubscribeFails:
		assert.Equal(t, "orders", chErr.Channel)
		assert.Contains(t, chErr.Err.Error(), "refused")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for subscribe failure")
	}

	assert.False(t, pool.IsSubscribed("orders", false))
}

func TestPublishRoundTrip(t *testing.T) {
	broker := newFakeBroker(t)
	pool := newTestPool(t, broker, 1)

	messages, err := pool.Subscribe("orders")
	require.NoError(t, err)
	waitSubscribed(t, pool, "orders")

	require.NoError(t, pool.Publish(context.Background(), "orders", []byte("hello")))

	select {
	case data := <-messages:
		assert.Equal(t, []byte("hello"), data)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	select {
	case channel := <-pool.Events().Publishes:
		assert.Equal(t, "orders", channel)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for publish ack")
	}
}

func TestPublishCancelledContext(t *testing.T) {
	broker := newFakeBroker(t)
	pool := newTestPool(t, broker, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pool.Publish(ctx, "orders", []byte("x"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestUnsubscribeKeepsStreamOpen(t *testing.T) {
	broker := newFakeBroker(t)
	pool := newTestPool(t, broker, 1)

	messages, err := pool.Subscribe("orders")
	require.NoError(t, err)
	waitSubscribed(t, pool, "orders")

	pool.Unsubscribe("orders")
	assert.False(t, pool.IsSubscribed("orders", true))

	require.Eventually(t, func() bool {
		return broker.subscriberCount("orders") == 0
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case data, ok := <-messages:
		require.True(t, ok, "stream must stay open after Unsubscribe")
		t.Fatalf("unexpected delivery after unsubscribe: %q", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCloseChannel(t *testing.T) {
	broker := newFakeBroker(t)
	pool := newTestPool(t, broker, 1)

	messages, err := pool.Subscribe("orders")
	require.NoError(t, err)
	waitSubscribed(t, pool, "orders")

	pool.CloseChannel("orders")

	_, ok := <-messages
	assert.False(t, ok, "stream must be closed")

	require.Eventually(t, func() bool {
		return broker.subscriberCount("orders") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDestroy(t *testing.T) {
	broker := newFakeBroker(t)
	pool, err := NewPool(t.Context(), brokerclient.PoolConfig{
		BrokerURI: broker.url(),
	})
	require.NoError(t, err)

	messages, err := pool.Subscribe("orders")
	require.NoError(t, err)

	pool.Destroy()
	pool.Destroy() // idempotent

	_, ok := <-messages
	assert.False(t, ok, "message stream closed on destroy")

	_, ok = <-pool.Events().Errors
	assert.False(t, ok, "event streams closed on destroy")

	_, err = pool.Subscribe("other")
	require.ErrorIs(t, err, types.ErrPoolDestroyed)
	require.ErrorIs(t, pool.Publish(context.Background(), "orders", nil), types.ErrPoolDestroyed)
}

func TestConnectionFailureEmitsError(t *testing.T) {
	broker := newFakeBroker(t)
	pool := newTestPool(t, broker, 1)

	_, err := pool.Subscribe("orders")
	require.NoError(t, err)
	waitSubscribed(t, pool, "orders")

	// Kill the broker side of the connection.
	broker.mu.Lock()
	for _, c := range broker.conns {
		_ = c.Close()
	}
	broker.mu.Unlock()

	select {
	case connErr := <-pool.Events().Errors:
		require.Error(t, connErr)
		assert.Contains(t, connErr.Error(), "failed")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for connection error")
	}

	assert.False(t, pool.IsSubscribed("orders", false), "confirmation dropped on failure")
	assert.True(t, pool.IsSubscribed("orders", true), "channel stays pending")
}
