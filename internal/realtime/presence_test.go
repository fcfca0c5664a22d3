package realtime

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestPresenceAddConnectionIsIdempotent(t *testing.T) {
	presence := NewPresence(zerolog.Nop())

	presence.AddConnection(1, "conn-a")
	presence.AddConnection(1, "conn-a")
	presence.AddConnection(1, "conn-b")

	require.Equal(t, []string{"conn-a", "conn-b"}, presence.Connections(1))
	require.Equal(t, StatusOnline, presence.Status(1))
}

func TestPresenceRemoveConnectionFlipsOfflineOnLast(t *testing.T) {
	presence := NewPresence(zerolog.Nop())

	presence.AddConnection(1, "conn-a")
	presence.AddConnection(1, "conn-b")

	presence.RemoveConnection("conn-a")
	require.Equal(t, StatusOnline, presence.Status(1))
	require.True(t, presence.LastSeen(1).IsZero())

	presence.RemoveConnection("conn-b")
	require.Equal(t, StatusOffline, presence.Status(1))
	require.False(t, presence.LastSeen(1).IsZero())
	require.Empty(t, presence.Connections(1))
}

func TestPresenceRemoveUserClearsEveryConnection(t *testing.T) {
	presence := NewPresence(zerolog.Nop())

	presence.AddConnection(5, "tab-1")
	presence.AddConnection(5, "tab-2")

	presence.RemoveUser(5)

	require.Empty(t, presence.Connections(5))
	require.Equal(t, StatusOffline, presence.Status(5))
	require.False(t, presence.LastSeen(5).IsZero())
}

func TestPresenceSetStatusRequiresConnection(t *testing.T) {
	presence := NewPresence(zerolog.Nop())

	presence.SetStatus(9, StatusBusy)
	require.Equal(t, StatusOffline, presence.Status(9))

	presence.AddConnection(9, "conn-a")
	presence.SetStatus(9, StatusBusy)
	require.Equal(t, StatusBusy, presence.Status(9))

	presence.SetStatus(9, StatusAway)
	require.Equal(t, StatusAway, presence.Status(9))
}

func TestPresenceConnectionsReturnsCopy(t *testing.T) {
	presence := NewPresence(zerolog.Nop())
	presence.AddConnection(2, "conn-a")

	got := presence.Connections(2)
	got[0] = "mutated"

	require.Equal(t, []string{"conn-a"}, presence.Connections(2))
	require.NotNil(t, presence.Connections(42))
	require.Empty(t, presence.Connections(42))
}

func TestPresenceListOnline(t *testing.T) {
	presence := NewPresence(zerolog.Nop())

	presence.AddConnection(1, "a")
	presence.AddConnection(2, "b")
	presence.AddConnection(3, "c")
	presence.RemoveUser(2)

	online := presence.ListOnline()
	require.Len(t, online, 2)
	require.Contains(t, online, uint(1))
	require.Contains(t, online, uint(3))
}
