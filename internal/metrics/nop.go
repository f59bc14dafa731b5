// Package metrics provides internal metrics utilities for agc-broker-client.
package metrics

import "github.com/SocketCluster/agc-broker-client/types"

// NopMetrics is a no-op metrics collector that discards all metrics.
//
// This is used as the default metrics collector when no collector is
// configured, avoiding nil checks throughout the codebase.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements types.MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNopMetrics creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A collector that discards all metrics
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

// ----------------------
// Subscriptions
// ----------------------

// IncSubscribeTotal discards the metric.
func (m *NopMetrics) IncSubscribeTotal(_ string) {}

// IncSubscribeError discards the metric.
func (m *NopMetrics) IncSubscribeError(_ string) {}

// ----------------------
// Publishes
// ----------------------

// IncPublishTotal discards the metric.
func (m *NopMetrics) IncPublishTotal(_ string) {}

// IncPublishError discards the metric.
func (m *NopMetrics) IncPublishError(_ string) {}

// ----------------------
// Messages
// ----------------------

// IncMessageTotal discards the metric.
func (m *NopMetrics) IncMessageTotal(_ string) {}

// ----------------------
// Pool Lifecycle
// ----------------------

// IncPoolCreated discards the metric.
func (m *NopMetrics) IncPoolCreated(_ string) {}

// IncPoolDestroyed discards the metric.
func (m *NopMetrics) IncPoolDestroyed(_ string) {}

// SetPoolCount discards the metric.
func (m *NopMetrics) SetPoolCount(_ int) {}

// ----------------------
// Reconciliation
// ----------------------

// IncTopologyUpdate discards the metric.
func (m *NopMetrics) IncTopologyUpdate() {}

// ObserveReconcileDuration discards the metric.
func (m *NopMetrics) ObserveReconcileDuration(_ float64) {}

// SetChannelCount discards the metric.
func (m *NopMetrics) SetChannelCount(_ int) {}

// ----------------------
// Routing Errors
// ----------------------

// IncTargetMiss discards the metric.
func (m *NopMetrics) IncTargetMiss(_ string) {}
