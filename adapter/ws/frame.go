package ws

// Frame operation codes. Client-to-broker frames carry subscribe,
// unsubscribe and publish requests; broker-to-client frames carry
// messages and the asynchronous outcomes of earlier requests.
const (
	opSubscribe   = "subscribe"
	opUnsubscribe = "unsubscribe"
	opPublish     = "publish"

	opMessage       = "message"
	opSubscribeAck  = "subscribeAck"
	opSubscribeFail = "subscribeFail"
	opPublishAck    = "publishAck"
	opPublishFail   = "publishFail"
)

// frame is the JSON wire frame exchanged with the broker.
//
// Data holds the opaque message payload; encoding/json transports it as
// base64. Error is set only on failure frames.
type frame struct {
	Op      string `json:"op"`
	Channel string `json:"channel,omitempty"`
	Data    []byte `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
