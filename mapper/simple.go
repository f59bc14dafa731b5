package mapper

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Simple is a stable-hash mapper: a channel is placed on the broker at
// index hash(channel) mod len(sites) in the current site list.
//
// Placement is deterministic for a fixed site list, but changing the list
// length relocates most channels. Use Rendezvous when minimizing
// relocation on membership change matters.
type Simple struct {
	mu    sync.RWMutex
	sites []string
}

// NewSimple creates a new stable-hash mapper with an empty site list.
//
// Returns:
//   - *Simple: A new mapper
func NewSimple() *Simple {
	return &Simple{}
}

// SetSites replaces the working broker set.
//
// Parameters:
//   - sites: The ordered broker URI list
func (m *Simple) SetSites(sites []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sites = append([]string(nil), sites...)
}

// FindSite returns the broker URI owning the given key, or an empty string
// when the site list is empty.
//
// Parameters:
//   - key: The channel name to place
//
// Returns:
//   - string: The owning broker URI
func (m *Simple) FindSite(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.sites) == 0 {
		return ""
	}

	return m.sites[xxhash.Sum64String(key)%uint64(len(m.sites))]
}
