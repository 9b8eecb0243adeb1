package txscript

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btcarch/node/wire"
)

// fixedChecker reports a signature valid iff it was produced by signFor for
// the given public key, modeling CheckSig without depending on real
// elliptic-curve primitives (the engine only ever calls through the
// SigChecker interface, per its own doc comment).
type fixedChecker struct{}

func signFor(pubKey []byte, hashType byte) []byte {
	sig := append([]byte(nil), pubKey...)
	return append(sig, hashType)
}

func (fixedChecker) CheckSig(pubKey, sig []byte, hashType byte) bool {
	return bytes.Equal(sig, pubKey)
}

func scriptBytes(t *testing.T, chunks ...wire.ScriptChunk) []byte {
	t.Helper()
	return wire.EncodeScript(chunks)
}

func TestEngine_P2PKHSuccess(t *testing.T) {
	pubKey := make([]byte, 33)
	pubKey[0] = 0x02
	hashType := byte(0x01)
	sig := signFor(pubKey, hashType)

	hash := hash160Of(pubKey)
	pubScript := scriptBytes(t,
		wire.ScriptChunk{Op: wire.OP_DUP},
		wire.ScriptChunk{Op: wire.OP_HASH160},
		wire.NewDataChunk(hash),
		wire.ScriptChunk{Op: wire.OP_EQUALVERIFY},
		wire.ScriptChunk{Op: wire.OP_CHECKSIG},
	)
	sigScript := scriptBytes(t, wire.NewDataChunk(sig), wire.NewDataChunk(pubKey))

	eng := NewEngine(fixedChecker{}, 0)
	ok, err := eng.Verify(sigScript, pubScript)
	require.NoError(t, err)
	require.True(t, ok)
}

func hash160Of(b []byte) []byte {
	return hash160(b)
}

func TestEngine_P2PKHWrongKeyFails(t *testing.T) {
	pubKey := make([]byte, 33)
	pubKey[0] = 0x02
	otherKey := make([]byte, 33)
	otherKey[0] = 0x03
	sig := signFor(otherKey, 0x01)

	hash := hash160Of(pubKey)
	pubScript := scriptBytes(t,
		wire.ScriptChunk{Op: wire.OP_DUP},
		wire.ScriptChunk{Op: wire.OP_HASH160},
		wire.NewDataChunk(hash),
		wire.ScriptChunk{Op: wire.OP_EQUALVERIFY},
		wire.ScriptChunk{Op: wire.OP_CHECKSIG},
	)
	// The pubkey pushed by the sigScript matches the committed hash, so
	// OP_EQUALVERIFY passes; the signature was produced for a different
	// key, so OP_CHECKSIG itself must report false.
	sigScript := scriptBytes(t, wire.NewDataChunk(sig), wire.NewDataChunk(pubKey))

	eng := NewEngine(fixedChecker{}, 0)
	ok, err := eng.Verify(sigScript, pubScript)
	require.NoError(t, err)
	require.False(t, ok)
}

// TestEngine_CheckMultiSigSuccess is the "checkmultisig success" scenario: a
// 2-of-3 bare multisig script with three generated keys and two matching
// signatures, including the historical extra-element consumption.
func TestEngine_CheckMultiSigSuccess(t *testing.T) {
	var pubKeys [][]byte
	for i := 0; i < 3; i++ {
		k := make([]byte, 33)
		k[0] = 0x02
		k[1] = byte(i + 1)
		pubKeys = append(pubKeys, k)
	}
	hashType := byte(0x01)
	sig1 := signFor(pubKeys[0], hashType)
	sig2 := signFor(pubKeys[2], hashType)

	pubScript := scriptBytes(t,
		smallIntChunk(2),
		wire.NewDataChunk(pubKeys[0]),
		wire.NewDataChunk(pubKeys[1]),
		wire.NewDataChunk(pubKeys[2]),
		smallIntChunk(3),
		wire.ScriptChunk{Op: wire.OP_CHECKMULTISIG},
	)
	sigScript := scriptBytes(t,
		wire.ScriptChunk{Op: wire.OP_0, IsData: true}, // historical dummy element
		wire.NewDataChunk(sig1),
		wire.NewDataChunk(sig2),
	)

	eng := NewEngine(fixedChecker{}, 0)
	ok, err := eng.Verify(sigScript, pubScript)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEngine_CheckMultiSigFailsWithTooFewMatches(t *testing.T) {
	var pubKeys [][]byte
	for i := 0; i < 3; i++ {
		k := make([]byte, 33)
		k[0] = 0x02
		k[1] = byte(i + 1)
		pubKeys = append(pubKeys, k)
	}
	badSig := append([]byte(nil), pubKeys[0]...)
	badSig[0] ^= 0xff
	badSig = append(badSig, 0x01)

	pubScript := scriptBytes(t,
		smallIntChunk(2),
		wire.NewDataChunk(pubKeys[0]),
		wire.NewDataChunk(pubKeys[1]),
		wire.NewDataChunk(pubKeys[2]),
		smallIntChunk(3),
		wire.ScriptChunk{Op: wire.OP_CHECKMULTISIG},
	)
	sigScript := scriptBytes(t,
		wire.ScriptChunk{Op: wire.OP_0, IsData: true},
		wire.NewDataChunk(badSig),
		wire.NewDataChunk(signFor(pubKeys[1], 0x01)),
	)

	eng := NewEngine(fixedChecker{}, 0)
	ok, err := eng.Verify(sigScript, pubScript)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEngine_CheckHashVerifyGatedByFlag(t *testing.T) {
	// The commitment value is irrelevant without the flag: OP_NOP2 must not
	// even inspect the stack.
	wrongCommitment := make([]byte, 20)
	pubScript := scriptBytes(t,
		wire.NewDataChunk(wrongCommitment),
		wire.ScriptChunk{Op: wire.OP_NOP2},
		wire.ScriptChunk{Op: wire.OP_1, IsData: true, Data: []byte{1}},
	)

	withoutFlag := NewEngine(fixedChecker{}, 0)
	ok, err := withoutFlag.Verify(nil, pubScript)
	require.NoError(t, err)
	require.True(t, ok, "without the flag, OP_NOP2 is a bare no-op")
}

func TestEngine_CheckHashVerifyEnforcesCommitmentWhenFlagged(t *testing.T) {
	wrongCommitment := make([]byte, 20)
	pubScript := scriptBytes(t,
		wire.NewDataChunk(wrongCommitment),
		wire.ScriptChunk{Op: wire.OP_NOP2},
		wire.ScriptChunk{Op: wire.OP_1, IsData: true, Data: []byte{1}},
	)

	withFlag := NewEngine(fixedChecker{}, ScriptVerifyCheckHashVerify)
	ok, err := withFlag.Verify(nil, pubScript)
	require.Error(t, err)
	require.False(t, ok)
	var se *ScriptError
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrVerifyFailed, se.Code)
}

func TestEngine_StackOverflowIsReported(t *testing.T) {
	// OP_DUP grows the stack without counting against the push-opcode limit
	// (only literal data pushes do), so repeating it is how the stack-depth
	// ceiling gets tested in isolation.
	chunks := []wire.ScriptChunk{{Op: wire.OP_1, IsData: true, Data: []byte{1}}}
	for i := 0; i < MaxStackDepth+5; i++ {
		chunks = append(chunks, wire.ScriptChunk{Op: wire.OP_DUP})
	}
	pubScript := scriptBytes(t, chunks...)

	eng := NewEngine(fixedChecker{}, 0)
	ok, err := eng.Verify(nil, pubScript)
	require.Error(t, err)
	require.False(t, ok)
	var se *ScriptError
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrStackOverflow, se.Code)
}

func TestEngine_PushLimitIsReported(t *testing.T) {
	chunks := make([]wire.ScriptChunk, 0, MaxPushOpCount+2)
	for i := 0; i < MaxPushOpCount+2; i++ {
		chunks = append(chunks, wire.ScriptChunk{Op: wire.OP_1, IsData: true, Data: []byte{1}})
	}
	pubScript := scriptBytes(t, chunks...)

	eng := NewEngine(fixedChecker{}, 0)
	ok, err := eng.Verify(nil, pubScript)
	require.Error(t, err)
	require.False(t, ok)
	var se *ScriptError
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrPushLimit, se.Code)
}

func TestEngine_EmptyFinalStackFails(t *testing.T) {
	eng := NewEngine(fixedChecker{}, 0)
	ok, err := eng.Verify(nil, nil)
	require.Error(t, err)
	require.False(t, ok)
}

func TestEngine_OversizedScriptRejected(t *testing.T) {
	huge := make([]byte, wire.MaxScriptBytes+1)
	eng := NewEngine(fixedChecker{}, 0)
	ok, err := eng.Verify(huge, nil)
	require.Error(t, err)
	require.False(t, ok)
	var se *ScriptError
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrScriptTooLarge, se.Code)
}
