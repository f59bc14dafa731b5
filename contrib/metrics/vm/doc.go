// Package vm provides a VictoriaMetrics-backed metrics collector.
//
// The collector implements types.MetricsCollector and exposes counters
// for subscriptions, publishes, messages and pool lifecycle, labeled by
// broker URI, plus reconciliation gauges and a duration histogram.
//
// Usage:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//	client, _ := brokerclient.New(factory,
//	    brokerclient.WithMetrics(collector),
//	)
//	http.HandleFunc("/metrics", collector.Handler)
package vm
