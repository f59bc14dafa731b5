package types_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SocketCluster/agc-broker-client/types"
)

func TestTargetErrorUnwrap(t *testing.T) {
	cases := []struct {
		kind     types.TargetKind
		sentinel error
	}{
		{types.SubscribeTarget, types.ErrNoMatchingSubscribeTarget},
		{types.UnsubscribeTarget, types.ErrNoMatchingUnsubscribeTarget},
		{types.PublishTarget, types.ErrNoMatchingPublishTarget},
	}

	for _, tc := range cases {
		err := &types.TargetError{Kind: tc.kind, Channel: "orders", BrokerURI: "wss://b1"}
		require.ErrorIs(t, err, tc.sentinel, "kind %s", tc.kind)
		assert.Contains(t, err.Error(), "orders")
		assert.Contains(t, err.Error(), "wss://b1")
	}
}

func TestTargetErrorAs(t *testing.T) {
	var wrapped error = &types.TargetError{Kind: types.PublishTarget, Channel: "orders"}

	var targetErr *types.TargetError
	require.ErrorAs(t, wrapped, &targetErr)
	assert.Equal(t, types.PublishTarget, targetErr.Kind)
}

func TestChannelError(t *testing.T) {
	cause := errors.New("connection reset")
	err := types.ChannelError{Channel: "orders", Err: cause}

	assert.Contains(t, err.Error(), "orders")
	assert.Contains(t, err.Error(), "connection reset")
	require.ErrorIs(t, err, cause)
}
