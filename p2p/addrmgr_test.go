package p2p

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddrManager_AddAndPick(t *testing.T) {
	m := NewAddrManager(4)
	now := time.Now()

	m.Add(PeerAddress{IP: net.ParseIP("10.0.0.1"), Port: 8333}, now)
	m.Add(PeerAddress{IP: net.ParseIP("10.0.0.2"), Port: 8333}, now.Add(-time.Hour))
	require.Equal(t, 2, m.Len())

	_, ok := m.PickWeighted(now)
	require.True(t, ok)
	_, ok = m.PickUniform()
	require.True(t, ok)
}

func TestAddrManager_PurgesOldestWhenFull(t *testing.T) {
	m := NewAddrManager(2)
	base := time.Now()

	m.Add(PeerAddress{IP: net.ParseIP("10.0.0.1"), Port: 1}, base)
	m.Add(PeerAddress{IP: net.ParseIP("10.0.0.2"), Port: 2}, base.Add(time.Minute))
	m.Add(PeerAddress{IP: net.ParseIP("10.0.0.3"), Port: 3}, base.Add(2*time.Minute))

	require.Equal(t, 2, m.Len())
}

func TestAddrManager_PurgeExpired(t *testing.T) {
	m := NewAddrManager(8)
	now := time.Now()
	m.Add(PeerAddress{IP: net.ParseIP("10.0.0.1"), Port: 1}, now.Add(-2*time.Hour))
	m.Add(PeerAddress{IP: net.ParseIP("10.0.0.2"), Port: 2}, now)

	removed := m.PurgeExpired(now.Add(-time.Hour))
	require.Equal(t, 1, removed)
	require.Equal(t, 1, m.Len())
}
