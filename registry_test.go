package brokerclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPool carries just enough state for registry tests.
type stubPool struct {
	uri      string
	channels []string
}

func (p *stubPool) Subscribe(string) (<-chan []byte, error)       { return nil, nil }
func (p *stubPool) Unsubscribe(string)                            {}
func (p *stubPool) CloseChannel(string)                           {}
func (p *stubPool) IsSubscribed(string, bool) bool                { return false }
func (p *stubPool) Subscriptions(bool) []string                   { return p.channels }
func (p *stubPool) Publish(context.Context, string, []byte) error { return nil }
func (p *stubPool) Events() PoolEvents                            { return PoolEvents{} }
func (p *stubPool) Destroy()                                      {}

func TestRegistryEnsure(t *testing.T) {
	r := newPoolRegistry()

	calls := 0
	create := func(uri string) (Pool, error) {
		calls++
		return &stubPool{uri: uri}, nil
	}

	pool, created, err := r.Ensure("wss://b1", create)
	require.NoError(t, err)
	require.NotNil(t, pool)
	assert.True(t, created)

	again, created, err := r.Ensure("wss://b1", create)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, pool, again)
	assert.Equal(t, 1, calls, "create invoked once per broker")
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.Has("wss://b1"))
}

func TestRegistryEnsureError(t *testing.T) {
	r := newPoolRegistry()

	_, created, err := r.Ensure("wss://b1", func(string) (Pool, error) {
		return nil, assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.False(t, created)
	assert.False(t, r.Has("wss://b1"), "failed creation leaves no entry")
}

func TestRegistryRemoveUnreferenced(t *testing.T) {
	r := newPoolRegistry()
	create := func(uri string) (Pool, error) { return &stubPool{uri: uri}, nil }

	for _, uri := range []string{"wss://b1", "wss://b2", "wss://b3"} {
		_, _, err := r.Ensure(uri, create)
		require.NoError(t, err)
	}

	removed := r.RemoveUnreferenced([]string{"wss://b1", "wss://b3"})

	require.Len(t, removed, 1)
	assert.Contains(t, removed, "wss://b2")
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Has("wss://b1"))
	assert.True(t, r.Has("wss://b3"))

	// Nothing left to remove on a second pass with the same list.
	assert.Empty(t, r.RemoveUnreferenced([]string{"wss://b1", "wss://b3"}))

	// A nil current list disowns everything.
	assert.Len(t, r.RemoveUnreferenced(nil), 2)
	assert.Zero(t, r.Len())
}

func TestRegistryChannelSet(t *testing.T) {
	r := newPoolRegistry()
	_, _, err := r.Ensure("wss://b1", func(uri string) (Pool, error) {
		return &stubPool{uri: uri, channels: []string{"orders", "alerts"}}, nil
	})
	require.NoError(t, err)
	_, _, err = r.Ensure("wss://b2", func(uri string) (Pool, error) {
		return &stubPool{uri: uri, channels: []string{"alerts", "audit"}}, nil
	})
	require.NoError(t, err)

	set := r.ChannelSet(true)
	assert.Len(t, set, 3)
	assert.Contains(t, set, "orders")
	assert.Contains(t, set, "alerts")
	assert.Contains(t, set, "audit")
}

func TestDedupe(t *testing.T) {
	assert.Equal(t,
		[]string{"a", "b", "c"},
		dedupe([]string{"a", "b", "a", "c", "b"}),
	)
	assert.Empty(t, dedupe(nil))
}
