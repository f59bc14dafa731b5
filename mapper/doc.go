// Package mapper provides the built-in channel-to-broker mapping engines.
//
// A mapping engine partitions channel names across the current broker set.
// Both engines guarantee determinism: for a fixed site list, the same
// channel name always maps to the same broker URI.
//
// # Simple
//
// Simple hashes the channel name and indexes into the site list:
//
//	m := mapper.NewSimple()
//	m.SetSites([]string{"wss://b1", "wss://b2"})
//	uri := m.FindSite("orders.us")
//
// Placement is cheap and uniform, but resizing the site list relocates
// most channels.
//
// # Rendezvous
//
// Rendezvous uses weighted highest-random-weight hashing. Removing a
// broker relocates only the channels it owned, which keeps subscription
// churn minimal during rebalances:
//
//	m := mapper.NewRendezvous(
//	    mapper.WithWeight("wss://big-broker", 2.0),
//	)
//
// Custom engines may replace both; any implementation of the client's
// Mapper contract is accepted via brokerclient.WithMapper.
package mapper
