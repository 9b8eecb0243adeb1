package p2p

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btcarch/node/internal/bchash"
)

func TestInvPayload_RoundTrip(t *testing.T) {
	vecs := []InvVector{
		{Type: InvTypeTx, Hash: bchash.Double([]byte("a"))},
		{Type: InvTypeBlock, Hash: bchash.Double([]byte("b"))},
	}
	b, err := EncodeInvPayload(vecs)
	require.NoError(t, err)

	got, err := DecodeInvPayload(b)
	require.NoError(t, err)
	require.Equal(t, vecs, got)
}

func TestAddrPayload_RoundTrip(t *testing.T) {
	addrs := []PeerAddress{
		{LastSeen: 1, Services: 1, IP: net.ParseIP("1.2.3.4"), Port: 8333},
	}
	b, err := EncodeAddrPayload(addrs)
	require.NoError(t, err)

	got, err := DecodeAddrPayload(b)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, addrs[0].Port, got[0].Port)
	require.True(t, addrs[0].IP.Equal(got[0].IP))
}
