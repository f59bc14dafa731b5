package vm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dump(c *Collector) string {
	var sb strings.Builder
	c.WritePrometheus(&sb)

	return sb.String()
}

func TestCollectorCounters(t *testing.T) {
	c := New()

	c.IncSubscribeTotal("wss://b1")
	c.IncSubscribeTotal("wss://b1")
	c.IncSubscribeError("wss://b1")
	c.IncPublishTotal("wss://b2")
	c.IncPublishError("wss://b2")
	c.IncMessageTotal("orders")
	c.IncPoolCreated("wss://b1")
	c.IncPoolDestroyed("wss://b1")
	c.IncTopologyUpdate()
	c.IncTargetMiss("subscribe")

	out := dump(c)
	assert.Contains(t, out, `agc_subscribes_total{broker="wss://b1"} 2`)
	assert.Contains(t, out, `agc_subscribe_errors_total{broker="wss://b1"} 1`)
	assert.Contains(t, out, `agc_publishes_total{broker="wss://b2"} 1`)
	assert.Contains(t, out, `agc_publish_errors_total{broker="wss://b2"} 1`)
	assert.Contains(t, out, `agc_messages_total{channel="orders"} 1`)
	assert.Contains(t, out, `agc_pools_created_total{broker="wss://b1"} 1`)
	assert.Contains(t, out, `agc_pools_destroyed_total{broker="wss://b1"} 1`)
	assert.Contains(t, out, "agc_topology_updates_total 1")
	assert.Contains(t, out, `agc_target_misses_total{kind="subscribe"} 1`)
}

func TestCollectorGauges(t *testing.T) {
	c := New()

	c.SetPoolCount(3)
	c.SetChannelCount(42)

	out := dump(c)
	assert.Contains(t, out, "agc_pools 3")
	assert.Contains(t, out, "agc_channels 42")
}

func TestCollectorPrefix(t *testing.T) {
	c := New(WithPrefix("myapp"))

	c.IncTopologyUpdate()

	out := dump(c)
	assert.Contains(t, out, "myapp_topology_updates_total 1")
	assert.NotContains(t, out, "agc_")
}

func TestCollectorReconcileDuration(t *testing.T) {
	c := New()

	c.ObserveReconcileDuration(0.25)

	out := dump(c)
	require.Contains(t, out, "agc_reconcile_duration_seconds")
}
