package types

import "errors"

// EventType identifies the kind of event carried on the client's
// unified event stream.
type EventType string

const (
	// EventError carries an error from a pool or from the router itself.
	EventError EventType = "error"

	// EventSubscribe signals that a channel subscription was established
	// on some pool.
	EventSubscribe EventType = "subscribe"

	// EventSubscribeFail signals that a subscription attempt failed.
	EventSubscribeFail EventType = "subscribeFail"

	// EventPublish signals that a publish was accepted by a pool.
	EventPublish EventType = "publish"

	// EventPublishFail signals that a publish attempt failed.
	EventPublishFail EventType = "publishFail"

	// EventMessage carries an incoming message for a subscribed channel.
	EventMessage EventType = "message"

	// EventUpdateBrokers signals that a topology update has been applied.
	EventUpdateBrokers EventType = "updateBrokers"
)

// Event is a single entry on the client's unified event stream.
//
// Only the fields relevant to the Type are populated:
//   - EventMessage: Channel and Packet
//   - EventSubscribe, EventPublish: Channel
//   - EventSubscribeFail, EventPublishFail: Channel and Err
//   - EventError: Err (Channel when the error is channel-scoped)
//   - EventUpdateBrokers: BrokerURIs
type Event struct {
	// Type identifies the event kind.
	Type EventType

	// Channel is the channel name the event relates to, if any.
	Channel string

	// Packet is the message payload for EventMessage events.
	Packet []byte

	// BrokerURIs is the applied broker list for EventUpdateBrokers events.
	BrokerURIs []string

	// Err is the error value for error-carrying events.
	Err error
}

// ChannelError pairs a channel name with the error that affected it.
// Pools use it on their subscribeFail and publishFail streams.
type ChannelError struct {
	// Channel is the affected channel name.
	Channel string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e ChannelError) Error() string {
	return "brokerclient: channel " + e.Channel + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e ChannelError) Unwrap() error {
	return e.Err
}

// TargetKind identifies which router operation failed to resolve a live
// pool for its channel.
type TargetKind string

const (
	// SubscribeTarget marks a failed pool resolution during Subscribe.
	SubscribeTarget TargetKind = "subscribe"

	// UnsubscribeTarget marks a failed pool resolution during Unsubscribe.
	UnsubscribeTarget TargetKind = "unsubscribe"

	// PublishTarget marks a failed pool resolution during Publish.
	PublishTarget TargetKind = "publish"
)

// Sentinel errors for common failure scenarios.
var (
	// ErrNoMatchingSubscribeTarget indicates the mapper resolved a broker
	// with no live pool during a subscribe.
	ErrNoMatchingSubscribeTarget = errors.New("brokerclient: no matching subscribe target")

	// ErrNoMatchingUnsubscribeTarget indicates the mapper resolved a broker
	// with no live pool during an unsubscribe.
	ErrNoMatchingUnsubscribeTarget = errors.New("brokerclient: no matching unsubscribe target")

	// ErrNoMatchingPublishTarget indicates the mapper resolved a broker
	// with no live pool during a publish.
	ErrNoMatchingPublishTarget = errors.New("brokerclient: no matching publish target")

	// ErrClientClosed indicates an operation was attempted on a closed client.
	ErrClientClosed = errors.New("brokerclient: client is closed")

	// ErrPoolDestroyed indicates an operation was attempted on a destroyed pool.
	ErrPoolDestroyed = errors.New("brokerclient: pool is destroyed")

	// ErrNilMapper indicates that a nil mapper was provided.
	ErrNilMapper = errors.New("brokerclient: mapper cannot be nil")

	// ErrNilPoolFactory indicates that a nil pool factory was provided.
	ErrNilPoolFactory = errors.New("brokerclient: pool factory cannot be nil")
)

// TargetError reports that the mapper resolved a channel to a broker URI
// that has no live pool. It indicates the cluster is in a degraded or
// transitional state; retrying after the next topology update usually
// succeeds.
//
// TargetError unwraps to the sentinel matching its Kind, so callers can
// use errors.Is:
//
//	if errors.Is(err, types.ErrNoMatchingSubscribeTarget) {
//	    // retry after next updateBrokers event
//	}
type TargetError struct {
	// Kind identifies the operation that failed to resolve a pool.
	Kind TargetKind

	// Channel is the channel name whose pool resolution failed.
	Channel string

	// BrokerURI is the broker the mapper resolved the channel to, when known.
	BrokerURI string
}

// Error implements the error interface.
func (e *TargetError) Error() string {
	msg := "brokerclient: no matching " + string(e.Kind) + " target for channel " + e.Channel
	if e.BrokerURI != "" {
		msg += " (mapped to " + e.BrokerURI + ")"
	}
	return msg
}

// Unwrap returns the sentinel error matching the Kind for errors.Is
// compatibility.
func (e *TargetError) Unwrap() error {
	switch e.Kind {
	case SubscribeTarget:
		return ErrNoMatchingSubscribeTarget
	case UnsubscribeTarget:
		return ErrNoMatchingUnsubscribeTarget
	case PublishTarget:
		return ErrNoMatchingPublishTarget
	}
	return nil
}

// Logger defines the logging interface used throughout the library.
//
// The interface is compatible with zap.SugaredLogger. Key-value pairs are
// appended after the message, alternating keys and values.
type Logger interface {
	// Debug logs a message at debug level.
	Debug(msg string, keysAndValues ...any)

	// Info logs a message at info level.
	Info(msg string, keysAndValues ...any)

	// Warn logs a message at warn level.
	Warn(msg string, keysAndValues ...any)

	// Error logs a message at error level.
	Error(msg string, keysAndValues ...any)
}
