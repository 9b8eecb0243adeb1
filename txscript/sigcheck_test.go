package txscript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSigCheckFunc_AdaptsPlainFunction(t *testing.T) {
	var gotPub, gotSig []byte
	var gotHashType byte
	fn := SigCheckFunc(func(pubKey, sig []byte, hashType byte) bool {
		gotPub, gotSig, gotHashType = pubKey, sig, hashType
		return true
	})

	var checker SigChecker = fn
	require.True(t, checker.CheckSig([]byte("pub"), []byte("sig"), 0x01))
	require.Equal(t, []byte("pub"), gotPub)
	require.Equal(t, []byte("sig"), gotSig)
	require.Equal(t, byte(0x01), gotHashType)
}
