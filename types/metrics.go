package types

// MetricsCollector defines methods for collecting operational metrics.
//
// Broker-scoped methods accept the broker URI for labeling.
// Implementations should be thread-safe as methods may be called
// concurrently.
//
// Example usage with VictoriaMetrics (via contrib/metrics/vm):
//
//	import vmmetrics "github.com/SocketCluster/agc-broker-client/contrib/metrics/vm"
//
//	collector := vmmetrics.New(vmmetrics.WithPrefix("myapp"))
//	client, _ := brokerclient.New(factory,
//	    brokerclient.WithMetrics(collector),
//	)
//
//	// Expose metrics via HTTP
//	http.HandleFunc("/metrics", collector.Handler)
type MetricsCollector interface {
	// ----------------------
	// Subscriptions
	// ----------------------

	// IncSubscribeTotal increments the established-subscription counter.
	IncSubscribeTotal(brokerURI string)

	// IncSubscribeError increments the failed-subscription counter.
	IncSubscribeError(brokerURI string)

	// ----------------------
	// Publishes
	// ----------------------

	// IncPublishTotal increments the accepted-publish counter.
	IncPublishTotal(brokerURI string)

	// IncPublishError increments the failed-publish counter.
	IncPublishError(brokerURI string)

	// ----------------------
	// Messages
	// ----------------------

	// IncMessageTotal increments the delivered-message counter.
	IncMessageTotal(channel string)

	// ----------------------
	// Pool Lifecycle
	// ----------------------

	// IncPoolCreated increments the pool-creation counter.
	IncPoolCreated(brokerURI string)

	// IncPoolDestroyed increments the pool-destruction counter.
	IncPoolDestroyed(brokerURI string)

	// SetPoolCount sets the live-pool gauge.
	SetPoolCount(count int)

	// ----------------------
	// Reconciliation
	// ----------------------

	// IncTopologyUpdate increments the applied-topology-update counter.
	IncTopologyUpdate()

	// ObserveReconcileDuration records a reconciliation duration in seconds.
	ObserveReconcileDuration(seconds float64)

	// SetChannelCount sets the tracked-channel gauge after reconciliation.
	SetChannelCount(count int)

	// ----------------------
	// Routing Errors
	// ----------------------

	// IncTargetMiss increments the counter for operations that resolved a
	// broker with no live pool. The kind is one of "subscribe",
	// "unsubscribe" or "publish".
	IncTargetMiss(kind string)
}
