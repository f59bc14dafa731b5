// Package brokerclient provides the client-side routing layer of a
// sharded publish/subscribe cluster.
//
// Each message channel is deterministically assigned to exactly one broker
// out of a dynamic broker set. The client tracks the current set, maps
// channels to the owning broker, maintains a live connection pool per
// broker, and on every topology change reconciles the active subscriptions
// so that channels end up subscribed on the pool that currently owns them,
// with no duplicate or orphaned subscriptions.
//
// # Key Features
//
//   - Deterministic Placement: Pluggable channel-to-broker mapping with
//     stable-hash and weighted-rendezvous engines built in
//   - Topology Reconciliation: Idempotent diff/apply of subscriptions on
//     every broker-set change
//   - Pool Lifecycle: One pool per broker, created on join, destroyed on
//     leave, never reused
//   - Unified Event Stream: Per-pool and per-channel streams fanned into a
//     single outward channel
//   - Topology Watchers: NATS JetStream KV, YAML file, or programmatic
//     broker lists via the topology package
//
// # Basic Usage
//
//	broker := mem.NewBroker()
//	client, err := brokerclient.New(mem.NewFactory(broker))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Apply the initial topology, then route by channel name.
//	client.SetBrokers([]string{"broker-1", "broker-2"})
//	client.Subscribe("orders.us")
//	client.Publish(ctx, "orders.us", []byte(`{"qty":1}`))
//
//	for ev := range client.Events() {
//	    switch ev.Type {
//	    case types.EventMessage:
//	        log.Printf("%s: %s", ev.Channel, ev.Packet)
//	    case types.EventError:
//	        log.Printf("error: %v", ev.Err)
//	    }
//	}
//
// # Error Handling
//
// Router-facade errors are both returned from the call and emitted on the
// unified stream as error events, so stream-oriented consumers observe
// them without wrapping every call site.
//
// When the mapper resolves a channel to a broker with no live pool, the
// operation fails with a types.TargetError that unwraps to one of:
//
//   - types.ErrNoMatchingSubscribeTarget
//   - types.ErrNoMatchingUnsubscribeTarget
//   - types.ErrNoMatchingPublishTarget
//
// These indicate a degraded or transitional cluster state and are
// recoverable by retrying after the next topology update.
//
// # Delivery Semantics
//
// A message published during a rebalance window may be missed by a client
// whose subscription is mid-migration. The library does not attempt to
// close this window; callers needing stronger guarantees must layer their
// own acknowledgement protocol on top.
package brokerclient
