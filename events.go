package brokerclient

import "github.com/SocketCluster/agc-broker-client/types"

// emit places an event on the unified stream without blocking. When the
// buffer is full the event is dropped so that forwarding goroutines can
// always drain their source streams to completion.
func (c *Client) emit(ev types.Event) {
	select {
	case c.events <- ev:
	default:
		c.config.Logger.Warn("event buffer full, dropping event",
			"type", string(ev.Type),
			"channel", ev.Channel,
		)
	}
}

// wirePool starts the five per-pool forwarding goroutines, one per
// pool-level event stream. Each goroutine re-emits every event on the
// unified stream and exits when the pool closes its streams on Destroy.
func (c *Client) wirePool(brokerURI string, pool Pool) {
	ev := pool.Events()

	c.wg.Add(5)

	go func() {
		defer c.wg.Done()
		for err := range ev.Errors {
			c.emit(types.Event{Type: types.EventError, Err: err})
		}
	}()

	go func() {
		defer c.wg.Done()
		for channel := range ev.Subscribes {
			c.config.Metrics.IncSubscribeTotal(brokerURI)
			c.emit(types.Event{Type: types.EventSubscribe, Channel: channel})
		}
	}()

	go func() {
		defer c.wg.Done()
		for chErr := range ev.SubscribeFails {
			c.config.Metrics.IncSubscribeError(brokerURI)
			c.emit(types.Event{Type: types.EventSubscribeFail, Channel: chErr.Channel, Err: chErr.Err})
		}
	}()

	go func() {
		defer c.wg.Done()
		for channel := range ev.Publishes {
			c.config.Metrics.IncPublishTotal(brokerURI)
			c.emit(types.Event{Type: types.EventPublish, Channel: channel})
		}
	}()

	go func() {
		defer c.wg.Done()
		for chErr := range ev.PublishFails {
			c.config.Metrics.IncPublishError(brokerURI)
			c.emit(types.Event{Type: types.EventPublishFail, Channel: chErr.Channel, Err: chErr.Err})
		}
	}()
}

// forwardMessages re-emits every payload from a channel's message stream
// as a tagged message event. It runs for the lifetime of the stream and
// exits when the pool closes it (channel closed or pool destroyed).
func (c *Client) forwardMessages(channel string, messages <-chan []byte) {
	defer c.wg.Done()

	for packet := range messages {
		c.config.Metrics.IncMessageTotal(channel)
		c.emit(types.Event{Type: types.EventMessage, Channel: channel, Packet: packet})
	}
}
