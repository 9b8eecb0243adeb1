package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeError_ErrorFormatsCodeAndMessage(t *testing.T) {
	err := decodeErr(ErrTruncated, "need %d bytes, have %d", 10, 3)
	require.Equal(t, "wire: TRUNCATED: need 10 bytes, have 3", err.Error())
}

func TestDecodeError_NilIsSafe(t *testing.T) {
	var err *DecodeError
	require.Equal(t, "<nil>", err.Error())
}

func TestDecodeError_EmptyMessageFallsBackToCode(t *testing.T) {
	err := &DecodeError{Code: ErrMalformedVarInt}
	require.Equal(t, "MALFORMED_VARINT", err.Error())
}
