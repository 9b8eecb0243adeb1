package txscript

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btcarch/node/wire"
)

// TestExtractPubKeyHash_KnownAddress is the "address extraction" scenario:
// a specific P2PKH pubkey script decodes to a specific mainnet address.
func TestExtractPubKeyHash_KnownAddress(t *testing.T) {
	pkScript, err := hex.DecodeString("76a91417977bca1b6287a5e6559c57ef4b6525e9d7ded688ac")
	require.NoError(t, err)

	hash, ok := ExtractPubKeyHash(pkScript)
	require.True(t, ok)
	require.Equal(t, "17977bca1b6287a5e6559c57ef4b6525e9d7ded6", hex.EncodeToString(hash))

	addr := EncodeAddress(hash, 0x00)
	require.Equal(t, "139k1g5rtTsL4aGZbcASH3Fv3fUh9yBEdW", addr)

	decodedHash, version, err := DecodeAddress(addr)
	require.NoError(t, err)
	require.Equal(t, byte(0x00), version)
	require.Equal(t, hash, decodedHash)

	require.Equal(t, PubKeyHashTy, ClassifyScript(pkScript))
}

func TestExtractPubKeyHash_RejectsWrongTemplate(t *testing.T) {
	_, ok := ExtractPubKeyHash([]byte{byte(wire.OP_RETURN)})
	require.False(t, ok)
}

func TestExtractPubKey_RecognizesCompressedAndUncompressed(t *testing.T) {
	compressed := make([]byte, 33)
	compressed[0] = 0x02
	script := wire.EncodeScript([]wire.ScriptChunk{
		wire.NewDataChunk(compressed),
		{Op: wire.OP_CHECKSIG},
	})

	pub, ok := ExtractPubKey(script)
	require.True(t, ok)
	require.Equal(t, compressed, pub)
	require.Equal(t, PubKeyTy, ClassifyScript(script))
}

func TestExtractMultiSig_RecognizesBareTemplate(t *testing.T) {
	pub1 := make([]byte, 33)
	pub1[0] = 0x02
	pub2 := make([]byte, 33)
	pub2[0] = 0x03
	pub3 := make([]byte, 33)
	pub3[0] = 0x02
	pub3[1] = 0x01

	script := wire.EncodeScript([]wire.ScriptChunk{
		smallIntChunk(2),
		wire.NewDataChunk(pub1),
		wire.NewDataChunk(pub2),
		wire.NewDataChunk(pub3),
		smallIntChunk(3),
		{Op: wire.OP_CHECKMULTISIG},
	})

	m, keys, ok := ExtractMultiSig(script)
	require.True(t, ok)
	require.Equal(t, 2, m)
	require.Equal(t, [][]byte{pub1, pub2, pub3}, keys)
	require.Equal(t, MultiSigTy, ClassifyScript(script))
}

func TestClassifyScript_NonStandardFallback(t *testing.T) {
	require.Equal(t, NonStandardTy, ClassifyScript([]byte{byte(wire.OP_RETURN), byte(wire.OP_DROP)}))
}

func TestScriptClass_String(t *testing.T) {
	require.Equal(t, "pubkeyhash", PubKeyHashTy.String())
	require.Equal(t, "pubkey", PubKeyTy.String())
	require.Equal(t, "multisig", MultiSigTy.String())
	require.Equal(t, "nonstandard", NonStandardTy.String())
}
