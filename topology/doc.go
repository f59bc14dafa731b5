// Package topology provides broker-list watchers for the routing client.
//
// A topology watcher tells the client which brokers currently form the
// cluster. When the list changes, the client reconciles its pools and
// subscriptions against the new set.
//
// Three implementations are provided:
//
//   - Local: in-memory, programmatic control. Ideal for tests and for
//     applications that drive SetBrokers from their own control plane.
//   - NATS: watches a key in a NATS JetStream KV bucket. Operations
//     teams roll brokers in and out with a single KV write.
//   - File: polls a YAML file on disk, for ConfigMap-style deployments.
//
// Wire a watcher into the client with brokerclient.WithTopologyWatcher:
//
//	watcher, err := topology.NewNATS(kv)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer watcher.Close()
//
//	client, err := brokerclient.New(factory,
//	    brokerclient.WithTopologyWatcher(watcher),
//	)
//
// All watchers only emit when the broker list actually changes, and all
// of them keep the last known list when the source turns transiently
// invalid (deleted KV key, half-written file).
package topology
