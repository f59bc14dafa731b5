package mapper

import (
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Rendezvous is a weighted rendezvous (highest-random-weight) mapper.
//
// Every (site, key) pair is hashed independently and the site with the
// highest score wins. Removing a site relocates only the channels that
// site owned; adding a site relocates roughly 1/n of all channels. Weights
// bias placement proportionally, so a broker with weight 2.0 owns about
// twice as many channels as one with weight 1.0.
type Rendezvous struct {
	mu            sync.RWMutex
	sites         []string
	weights       map[string]float64
	defaultWeight float64
}

// RendezvousOption configures a Rendezvous mapper.
type RendezvousOption func(*Rendezvous)

// WithWeight sets the placement weight for a single broker.
//
// Parameters:
//   - site: The broker URI
//   - weight: The placement weight, must be positive
//
// Returns:
//   - RendezvousOption: Configuration option
func WithWeight(site string, weight float64) RendezvousOption {
	return func(r *Rendezvous) {
		if weight > 0 {
			r.weights[site] = weight
		}
	}
}

// WithWeights sets placement weights for multiple brokers at once.
//
// Parameters:
//   - weights: Map of broker URI to positive placement weight
//
// Returns:
//   - RendezvousOption: Configuration option
func WithWeights(weights map[string]float64) RendezvousOption {
	return func(r *Rendezvous) {
		for site, weight := range weights {
			if weight > 0 {
				r.weights[site] = weight
			}
		}
	}
}

// WithDefaultWeight sets the weight used for brokers with no explicit
// weight. The default is 1.0.
//
// Parameters:
//   - weight: The fallback weight, must be positive
//
// Returns:
//   - RendezvousOption: Configuration option
func WithDefaultWeight(weight float64) RendezvousOption {
	return func(r *Rendezvous) {
		if weight > 0 {
			r.defaultWeight = weight
		}
	}
}

// NewRendezvous creates a new weighted rendezvous mapper with an empty
// site list.
//
// Parameters:
//   - opts: Optional configuration options
//
// Returns:
//   - *Rendezvous: A new mapper
func NewRendezvous(opts ...RendezvousOption) *Rendezvous {
	r := &Rendezvous{
		weights:       make(map[string]float64),
		defaultWeight: 1.0,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// SetSites replaces the working broker set.
//
// Parameters:
//   - sites: The ordered broker URI list
func (r *Rendezvous) SetSites(sites []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sites = append([]string(nil), sites...)
}

// FindSite returns the broker URI with the highest weighted score for the
// given key, or an empty string when the site list is empty.
//
// Parameters:
//   - key: The channel name to place
//
// Returns:
//   - string: The owning broker URI
func (r *Rendezvous) FindSite(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best      string
		bestScore = math.Inf(-1)
	)
	for _, site := range r.sites {
		score := r.score(site, key)
		if score > bestScore {
			best = site
			bestScore = score
		}
	}

	return best
}

// score computes the weighted rendezvous score for a (site, key) pair
// using the logarithmic method: -weight / ln(u) with u drawn uniformly
// from (0, 1) by hashing.
func (r *Rendezvous) score(site, key string) float64 {
	d := xxhash.New()
	_, _ = d.WriteString(site)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(key)
	h := d.Sum64()

	// Map the hash to (0, 1); the +1 offsets keep u strictly inside the
	// open interval so ln(u) is finite and negative.
	u := (float64(h) + 1) / (float64(math.MaxUint64) + 2)

	weight := r.defaultWeight
	if w, ok := r.weights[site]; ok {
		weight = w
	}

	return -weight / math.Log(u)
}
