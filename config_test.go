package brokerclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SocketCluster/agc-broker-client/mapper"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Nil(t, config.Mapper)
	assert.Equal(t, DefaultPoolSize, config.PoolSize)
	assert.Equal(t, DefaultEventBuffer, config.EventBuffer)
	require.NotNil(t, config.Metrics)
	require.NotNil(t, config.Logger)
}

func TestOptions(t *testing.T) {
	m := mapper.NewRendezvous()
	config := DefaultConfig()

	for _, opt := range []Option{
		WithMapper(m),
		WithAuthKey("secret"),
		WithPoolSize(4),
		WithEventBuffer(1024),
	} {
		opt(config)
	}

	assert.Same(t, m, config.Mapper)
	assert.Equal(t, "secret", config.AuthKey)
	assert.Equal(t, 4, config.PoolSize)
	assert.Equal(t, 1024, config.EventBuffer)
}

func TestOptionsRejectNonPositive(t *testing.T) {
	config := DefaultConfig()

	WithPoolSize(0)(config)
	WithPoolSize(-1)(config)
	WithEventBuffer(0)(config)

	assert.Equal(t, DefaultPoolSize, config.PoolSize)
	assert.Equal(t, DefaultEventBuffer, config.EventBuffer)
}
