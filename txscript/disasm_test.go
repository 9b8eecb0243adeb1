package txscript

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btcarch/node/wire"
)

// TestToTextParseText_RoundTrip is the "script text round-trip" scenario: a
// P2PKH pubkey script's textual disassembly, reparsed, re-encodes to the
// same bytes.
func TestToTextParseText_RoundTrip(t *testing.T) {
	pkHash, err := hex.DecodeString("17977bca1b6287a5e6559c57ef4b6525e9d7ded6")
	require.NoError(t, err)
	chunks := []wire.ScriptChunk{
		{Op: wire.OP_DUP},
		{Op: wire.OP_HASH160},
		wire.NewDataChunk(pkHash),
		{Op: wire.OP_EQUALVERIFY},
		{Op: wire.OP_CHECKSIG},
	}
	original := wire.EncodeScript(chunks)

	text := ToText(chunks)
	require.Equal(t, "OP_DUP OP_HASH160 17977bca1b6287a5e6559c57ef4b6525e9d7ded6 OP_EQUALVERIFY OP_CHECKSIG", text)

	reparsed, err := ParseText(text)
	require.NoError(t, err)
	require.Equal(t, original, wire.EncodeScript(reparsed))
}

func TestToText_SmallIntsRenderAsDecimal(t *testing.T) {
	chunks := []wire.ScriptChunk{
		{Op: wire.OP_0, IsData: true},
		{Op: wire.OP_1, IsData: true, Data: []byte{1}},
		{Op: wire.OP_16, IsData: true, Data: []byte{16}},
	}
	require.Equal(t, "0 1 16", ToText(chunks))
}

func TestParseText_SmallIntAmbiguityResolvesToOpcode(t *testing.T) {
	chunks, err := ParseText("12")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.True(t, chunks[0].Op.IsSmallInt())
}

func TestParseText_RejectsUnrecognizedToken(t *testing.T) {
	_, err := ParseText("NOT_A_REAL_OPCODE")
	require.Error(t, err)
	var se *ScriptError
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrInvalidStackOp, se.Code)
}

// TestToTextParseText_AmbiguousDataPushRoundTrips covers a direct push whose
// hex encoding would otherwise read back as a small-int token: ToText must
// escape it with a "0x" prefix so ParseText reconstructs the original push
// rather than an OP_5.
func TestToTextParseText_AmbiguousDataPushRoundTrips(t *testing.T) {
	chunks := []wire.ScriptChunk{wire.NewDataChunk([]byte{0x05})}
	original := wire.EncodeScript(chunks)

	text := ToText(chunks)
	require.Equal(t, "0x05", text)

	reparsed, err := ParseText(text)
	require.NoError(t, err)
	require.Equal(t, original, wire.EncodeScript(reparsed))
	require.False(t, reparsed[0].Op.IsSmallInt())
}

func TestParseText_HexPushRoundTrips(t *testing.T) {
	chunks, err := ParseText("deadbeef OP_DROP")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.True(t, chunks[0].IsData)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, chunks[0].Data)
}
