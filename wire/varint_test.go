package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarInt_RoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 0xfc, 0xfd, 0xfe, 0xffff, 0x10000, 0xffffffff, 0x100000000, ^uint64(0)}
	for _, v := range cases {
		enc := WriteVarInt(nil, v)
		require.Len(t, enc, VarIntSize(v))

		got, n, err := ReadVarInt(enc)
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.Equal(t, len(enc), n)
	}
}

func TestVarInt_ShortestEncoding(t *testing.T) {
	require.Equal(t, []byte{0xfc}, WriteVarInt(nil, 0xfc))
	require.Equal(t, byte(0xfd), WriteVarInt(nil, 0xfd)[0])
	require.Equal(t, byte(0xfe), WriteVarInt(nil, 0x10000)[0])
	require.Equal(t, byte(0xff), WriteVarInt(nil, 0x100000000)[0])
}

func TestReadVarInt_RejectsTruncatedInput(t *testing.T) {
	_, _, err := ReadVarInt(nil)
	require.Error(t, err)

	_, _, err = ReadVarInt([]byte{0xfd, 0x01})
	require.Error(t, err)

	_, _, err = ReadVarInt([]byte{0xff, 0x01, 0x02, 0x03})
	require.Error(t, err)
}

func TestVarBytes_RoundTrip(t *testing.T) {
	payload := []byte("hello world")
	enc := WriteVarBytes(nil, payload)

	got, n, err := ReadVarBytes(enc)
	require.NoError(t, err)
	require.Equal(t, payload, got)
	require.Equal(t, len(enc), n)
}

func TestReadVarBytes_RejectsShortPayload(t *testing.T) {
	_, _, err := ReadVarBytes([]byte{0x05, 0x01, 0x02})
	require.Error(t, err)
}
