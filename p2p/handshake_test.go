package p2p

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandshake_RoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	magic := uint32(0xd9b4bef9)
	serverDone := make(chan error, 1)
	var serverPeerVersion *VersionPayload

	go func() {
		v, err := Handshake(serverConn, magic, VersionPayload{
			ProtocolVersion: 1,
			UserAgent:       "/server:0.1/",
			StartHeight:     5,
		})
		serverPeerVersion = v
		serverDone <- err
	}()

	clientPeerVersion, err := Handshake(clientConn, magic, VersionPayload{
		ProtocolVersion: 1,
		UserAgent:       "/client:0.1/",
		StartHeight:     9,
	})
	require.NoError(t, err)
	require.NoError(t, <-serverDone)

	require.Equal(t, "/server:0.1/", clientPeerVersion.UserAgent)
	require.Equal(t, "/client:0.1/", serverPeerVersion.UserAgent)
}
