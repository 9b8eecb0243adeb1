package p2p

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadMessage_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	magic := uint32(0xd9b4bef9)

	require.NoError(t, WriteMessage(&buf, magic, CmdPing, EncodePingPayload(PingPayload{Nonce: 42})))

	msg, rerr := ReadMessage(&buf, magic)
	require.Nil(t, rerr)
	require.Equal(t, CmdPing, msg.Command)

	pp, err := DecodePingPayload(msg.Payload)
	require.NoError(t, err)
	require.Equal(t, uint64(42), pp.Nonce)
}

func TestReadMessage_MagicMismatchDisconnects(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, 0x11111111, CmdVerack, nil))

	_, rerr := ReadMessage(&buf, 0x22222222)
	require.NotNil(t, rerr)
	require.True(t, rerr.Disconnect)
}

func TestReadMessage_ChecksumMismatchDropsWithoutDisconnect(t *testing.T) {
	var buf bytes.Buffer
	magic := uint32(0xd9b4bef9)
	require.NoError(t, WriteMessage(&buf, magic, CmdPing, EncodePingPayload(PingPayload{Nonce: 1})))

	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xff // corrupt the payload, checksum now mismatches

	_, rerr := ReadMessage(bytes.NewReader(raw), magic)
	require.NotNil(t, rerr)
	require.False(t, rerr.Disconnect)
	require.Equal(t, 10, rerr.BanScoreDelta)
}
