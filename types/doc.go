// Package types provides shared types and error definitions for agc-broker-client.
//
// This is a leaf package with zero imports from the rest of the module to
// prevent import cycles. All packages in this module can safely import it.
//
// # Events
//
// Event is the unit on the client's unified event stream. The Type field
// identifies the variant:
//
//	const (
//	    EventError         EventType = "error"
//	    EventSubscribe     EventType = "subscribe"
//	    EventSubscribeFail EventType = "subscribeFail"
//	    EventPublish       EventType = "publish"
//	    EventPublishFail   EventType = "publishFail"
//	    EventMessage       EventType = "message"
//	    EventUpdateBrokers EventType = "updateBrokers"
//	)
//
// # Errors
//
// Sentinel errors are provided for common failure scenarios:
//
//   - ErrNoMatchingSubscribeTarget: Subscribe resolved a broker with no live pool
//   - ErrNoMatchingUnsubscribeTarget: Unsubscribe resolved a broker with no live pool
//   - ErrNoMatchingPublishTarget: Publish resolved a broker with no live pool
//   - ErrClientClosed: Operation attempted on a closed client
//   - ErrPoolDestroyed: Operation attempted on a destroyed pool
//
// TargetError carries the failing channel name and unwraps to the sentinel
// matching its Kind, so both errors.Is and errors.As work:
//
//	var targetErr *types.TargetError
//	if errors.As(err, &targetErr) {
//	    log.Printf("channel %s has no live pool", targetErr.Channel)
//	}
package types
