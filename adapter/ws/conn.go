package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// conn is a single websocket connection to the broker.
//
// Writes are serialized with writeMu; gorilla/websocket allows at most
// one concurrent writer. A dedicated readLoop goroutine dispatches
// incoming frames back to the owning pool.
type conn struct {
	id   string
	pool *Pool
	ws   *websocket.Conn

	writeMu sync.Mutex

	mu        sync.RWMutex
	connected bool

	done      chan struct{}
	closeOnce sync.Once
}

// dialConn establishes a websocket connection to the broker.
func dialConn(ctx context.Context, pool *Pool, brokerURI, authKey string) (*conn, error) {
	header := http.Header{}
	if authKey != "" {
		header.Set("X-Auth-Key", authKey)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: pool.opts.handshakeTimeout,
	}

	wsConn, _, err := dialer.DialContext(ctx, brokerURI, header)
	if err != nil {
		return nil, fmt.Errorf("ws: dial %s: %w", brokerURI, err)
	}

	c := &conn{
		id:        uuid.NewString(),
		pool:      pool,
		ws:        wsConn,
		connected: true,
		done:      make(chan struct{}),
	}

	// Extend the read deadline on every pong from the broker.
	_ = wsConn.SetReadDeadline(time.Now().Add(pool.opts.pongTimeout))
	wsConn.SetPongHandler(func(string) error {
		return wsConn.SetReadDeadline(time.Now().Add(pool.opts.pongTimeout))
	})

	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// send marshals and writes a frame to the connection.
func (c *conn) send(f frame) error {
	c.mu.RLock()
	if !c.connected {
		c.mu.RUnlock()

		return fmt.Errorf("ws: connection %s is down", c.id)
	}
	c.mu.RUnlock()

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("ws: marshal frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(c.pool.opts.writeTimeout))

	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("ws: write frame: %w", err)
	}

	return nil
}

// close tears down the connection. Safe to call multiple times.
func (c *conn) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()

		close(c.done)

		c.writeMu.Lock()
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()

		_ = c.ws.Close()
	})
}

// readLoop reads frames from the connection and dispatches them to the
// pool until the connection closes.
func (c *conn) readLoop() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				// Expected: close() interrupted the read.
			default:
				c.pool.connFailed(c, err)
			}

			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.pool.connError(fmt.Errorf("ws: invalid frame from broker: %w", err))

			continue
		}

		c.pool.dispatch(f)
	}
}

// pingLoop sends periodic pings to keep the connection alive.
func (c *conn) pingLoop() {
	ticker := time.NewTicker(c.pool.opts.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(
				websocket.PingMessage,
				nil,
				time.Now().Add(c.pool.opts.writeTimeout),
			)
			c.writeMu.Unlock()

			if err != nil {
				return
			}
		}
	}
}
