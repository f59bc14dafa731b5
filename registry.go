package brokerclient

// poolRegistry owns the set of live per-broker pools, keyed by broker URI.
//
// The registry is not safe for concurrent use on its own; the client
// funnels every mutation through its reconciliation lock. Entries are
// exclusively owned here: a pool is destroyed exactly once, at the moment
// its broker leaves the topology, and never reused afterward.
type poolRegistry struct {
	pools map[string]Pool
}

func newPoolRegistry() *poolRegistry {
	return &poolRegistry{pools: make(map[string]Pool)}
}

// Get returns the pool for the broker URI, if present.
func (r *poolRegistry) Get(brokerURI string) (Pool, bool) {
	pool, ok := r.pools[brokerURI]
	return pool, ok
}

// Has reports whether a pool exists for the broker URI.
func (r *poolRegistry) Has(brokerURI string) bool {
	_, ok := r.pools[brokerURI]
	return ok
}

// Len returns the number of live pools.
func (r *poolRegistry) Len() int {
	return len(r.pools)
}

// Ensure returns the existing pool for the broker URI, constructing and
// recording one via create when absent. At most one pool is ever
// constructed per broker within a single topology update.
func (r *poolRegistry) Ensure(brokerURI string, create func(string) (Pool, error)) (pool Pool, created bool, err error) {
	if existing, ok := r.pools[brokerURI]; ok {
		return existing, false, nil
	}

	pool, err = create(brokerURI)
	if err != nil {
		return nil, false, err
	}

	r.pools[brokerURI] = pool

	return pool, true, nil
}

// RemoveUnreferenced removes and returns every pool whose broker is not in
// current. Callers must destroy the returned pools; the registry only
// disowns them. Brokers present in both the old and new list keep their
// pool untouched.
func (r *poolRegistry) RemoveUnreferenced(current []string) map[string]Pool {
	keep := make(map[string]struct{}, len(current))
	for _, uri := range current {
		keep[uri] = struct{}{}
	}

	removed := make(map[string]Pool)
	for uri, pool := range r.pools {
		if _, ok := keep[uri]; ok {
			continue
		}
		removed[uri] = pool
		delete(r.pools, uri)
	}

	return removed
}

// ForEach invokes fn for every registered pool. Iteration order is not
// significant.
func (r *poolRegistry) ForEach(fn func(brokerURI string, pool Pool)) {
	for uri, pool := range r.pools {
		fn(uri, pool)
	}
}

// ChannelSet returns the union of channel names subscribed across all
// registered pools.
func (r *poolRegistry) ChannelSet(includePending bool) map[string]struct{} {
	set := make(map[string]struct{})
	for _, pool := range r.pools {
		for _, channel := range pool.Subscriptions(includePending) {
			set[channel] = struct{}{}
		}
	}

	return set
}
