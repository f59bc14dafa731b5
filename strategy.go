package brokerclient

import "context"

// Mapper partitions channel names across the current broker set.
//
// FindSite must be a deterministic pure function of (key, current site
// list): the same key and the same site list always yield the same broker
// URI, regardless of call order. A good mapper also minimizes relocation
// when the site list changes by one member, which keeps subscription churn
// low during rebalances.
//
// Two built-in mappers are provided by the mapper package: a stable-hash
// mapper (mapper.NewSimple) and a weighted-rendezvous mapper
// (mapper.NewRendezvous). Any caller-supplied implementation honoring this
// contract may be used via WithMapper.
//
// Implementations do NOT need to be safe for concurrent use; the client
// serializes all mapper access.
type Mapper interface {
	// SetSites replaces the working broker set.
	//
	// Parameters:
	//   - sites: The ordered broker URI list
	SetSites(sites []string)

	// FindSite returns the broker URI owning the given key under the
	// current site list, or an empty string when the site list is empty.
	//
	// Parameters:
	//   - key: The channel name to place
	//
	// Returns:
	//   - string: The owning broker URI
	FindSite(key string) string
}

// LocalBroker exposes the subscription state of the local, non-clustered
// broker. Its channels are merged into every reconciliation snapshot so
// that locally held subscriptions follow topology changes too.
type LocalBroker interface {
	// Subscriptions returns the channel names the local broker holds.
	Subscriptions() []string
}

// TopologyUpdate represents a change in cluster topology.
type TopologyUpdate struct {
	// BrokerURIs is the full broker list after the change.
	BrokerURIs []string
}

// TopologyWatcher monitors cluster topology changes.
//
// Implementations include topology.Local (in-memory), topology.NATS
// (NATS JetStream KV backed) and topology.File (YAML file backed).
type TopologyWatcher interface {
	// Watch returns a channel that receives topology updates.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//
	// Returns:
	//   - <-chan TopologyUpdate: Channel of topology changes
	Watch(ctx context.Context) <-chan TopologyUpdate
}
