// Package ws provides a websocket-backed pool implementation.
//
// Each pool maintains a configurable number of websocket connections to
// one broker and speaks a small JSON frame protocol: subscribe,
// unsubscribe and publish frames go out; message frames and
// acknowledgement frames come back. The auth key from the pool
// configuration is sent as the X-Auth-Key header during the handshake.
//
// Subscriptions are pinned to a connection by channel hash, publishes
// rotate round-robin, and every connection runs a keepalive ping loop.
// Connection failures surface on the pool's Errors stream; the routing
// client rebuilds pools when the topology changes, so the adapter does
// not reconnect on its own.
//
// Wire the adapter into a client with its factory:
//
//	client, err := brokerclient.New(ws.NewFactory(),
//	    brokerclient.WithAuthKey(key),
//	    brokerclient.WithPoolSize(4),
//	)
package ws
