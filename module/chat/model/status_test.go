package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextAcceptChat(t *testing.T) {
	next, changed := StatusPending.Next(EventAcceptChat)
	require.Equal(t, StatusActive, next)
	require.True(t, changed)

	// 重复接单：状态不变，不需要写库
	next, changed = StatusActive.Next(EventAcceptChat)
	require.Equal(t, StatusActive, next)
	require.False(t, changed)
}

func TestNextAdminMessageForcesActive(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusClosed} {
		next, changed := from.Next(EventAdminMessage)
		require.Equal(t, StatusActive, next, "from %s", from)
		require.True(t, changed, "from %s", from)
	}

	next, changed := StatusActive.Next(EventAdminMessage)
	require.Equal(t, StatusActive, next)
	require.False(t, changed)
}

func TestStatusValid(t *testing.T) {
	require.True(t, StatusPending.Valid())
	require.True(t, StatusActive.Valid())
	require.True(t, StatusClosed.Valid())
	require.False(t, Status("archived").Valid())
}
