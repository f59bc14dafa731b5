package mapper_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SocketCluster/agc-broker-client/mapper"
)

func channelNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("channel-%d", i)
	}
	return names
}

func TestSimpleDeterministic(t *testing.T) {
	m := mapper.NewSimple()
	m.SetSites([]string{"wss://b1", "wss://b2", "wss://b3"})

	for _, channel := range channelNames(50) {
		first := m.FindSite(channel)
		require.NotEmpty(t, first)
		for range 5 {
			require.Equal(t, first, m.FindSite(channel))
		}
	}
}

func TestSimpleEmptySites(t *testing.T) {
	m := mapper.NewSimple()
	assert.Empty(t, m.FindSite("anything"))

	m.SetSites([]string{"wss://b1"})
	assert.Equal(t, "wss://b1", m.FindSite("anything"))

	m.SetSites(nil)
	assert.Empty(t, m.FindSite("anything"))
}

func TestSimpleSingleSiteOwnsEverything(t *testing.T) {
	m := mapper.NewSimple()
	m.SetSites([]string{"wss://only"})

	for _, channel := range channelNames(20) {
		assert.Equal(t, "wss://only", m.FindSite(channel))
	}
}

func TestSimpleDistribution(t *testing.T) {
	sites := []string{"wss://b1", "wss://b2", "wss://b3", "wss://b4"}
	m := mapper.NewSimple()
	m.SetSites(sites)

	counts := make(map[string]int)
	for _, channel := range channelNames(2000) {
		counts[m.FindSite(channel)]++
	}

	// Every site should own a reasonable share of 2000 channels.
	for _, site := range sites {
		assert.Greater(t, counts[site], 300, "site %s underloaded", site)
	}
}

func TestRendezvousDeterministic(t *testing.T) {
	m := mapper.NewRendezvous()
	m.SetSites([]string{"wss://b1", "wss://b2", "wss://b3"})

	for _, channel := range channelNames(50) {
		first := m.FindSite(channel)
		require.NotEmpty(t, first)
		for range 5 {
			require.Equal(t, first, m.FindSite(channel))
		}
	}
}

func TestRendezvousOrderIndependent(t *testing.T) {
	a := mapper.NewRendezvous()
	a.SetSites([]string{"wss://b1", "wss://b2", "wss://b3"})

	b := mapper.NewRendezvous()
	b.SetSites([]string{"wss://b3", "wss://b1", "wss://b2"})

	for _, channel := range channelNames(100) {
		assert.Equal(t, a.FindSite(channel), b.FindSite(channel))
	}
}

func TestRendezvousMinimalRelocation(t *testing.T) {
	m := mapper.NewRendezvous()
	m.SetSites([]string{"wss://b1", "wss://b2", "wss://b3"})

	channels := channelNames(500)
	before := make(map[string]string, len(channels))
	for _, channel := range channels {
		before[channel] = m.FindSite(channel)
	}

	// Remove b3: only channels owned by b3 may relocate.
	m.SetSites([]string{"wss://b1", "wss://b2"})
	for _, channel := range channels {
		after := m.FindSite(channel)
		if before[channel] != "wss://b3" {
			assert.Equal(t, before[channel], after, "channel %s relocated needlessly", channel)
		} else {
			assert.Contains(t, []string{"wss://b1", "wss://b2"}, after)
		}
	}
}

func TestRendezvousEmptySites(t *testing.T) {
	m := mapper.NewRendezvous()
	assert.Empty(t, m.FindSite("anything"))
}

func TestRendezvousWeightBias(t *testing.T) {
	m := mapper.NewRendezvous(
		mapper.WithWeight("wss://heavy", 3.0),
	)
	m.SetSites([]string{"wss://heavy", "wss://light"})

	counts := make(map[string]int)
	for _, channel := range channelNames(3000) {
		counts[m.FindSite(channel)]++
	}

	// With weight 3 vs 1 the heavy broker should own roughly 3/4 of the
	// channels; require a clear majority to keep the test stable.
	assert.Greater(t, counts["wss://heavy"], counts["wss://light"]*2)
}

func TestRendezvousWeightsOption(t *testing.T) {
	m := mapper.NewRendezvous(
		mapper.WithWeights(map[string]float64{
			"wss://b1": 2.0,
			"wss://b2": 0, // ignored: weights must be positive
		}),
		mapper.WithDefaultWeight(0.5),
	)
	m.SetSites([]string{"wss://b1", "wss://b2"})

	counts := make(map[string]int)
	for _, channel := range channelNames(2000) {
		counts[m.FindSite(channel)]++
	}

	// b1 carries weight 2.0, b2 falls back to the 0.5 default.
	assert.Greater(t, counts["wss://b1"], counts["wss://b2"])
}
