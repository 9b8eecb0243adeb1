package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btcarch/node/internal/bchash"
)

func TestMerkleRoot_Empty(t *testing.T) {
	require.Equal(t, bchash.Hash{}, MerkleRoot(nil))
}

// TestMerkleRoot_SingleLeaf is the "Merkle of one" scenario applied directly
// to the tree function: a single-leaf tree's root is the leaf itself.
func TestMerkleRoot_SingleLeaf(t *testing.T) {
	leaf := bchash.Double([]byte("only leaf"))
	require.Equal(t, leaf, MerkleRoot([]bchash.Hash{leaf}))
}

func TestMerkleRoot_TwoLeavesMatchesManualPairHash(t *testing.T) {
	a := bchash.Double([]byte("a"))
	b := bchash.Double([]byte("b"))

	buf := make([]byte, 64)
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	want := bchash.Double(buf)

	require.Equal(t, want, MerkleRoot([]bchash.Hash{a, b}))
}

func TestMerkleRoot_OddCountDuplicatesLastLeaf(t *testing.T) {
	a := bchash.Double([]byte("a"))
	b := bchash.Double([]byte("b"))
	c := bchash.Double([]byte("c"))

	withThree := MerkleRoot([]bchash.Hash{a, b, c})
	withDuplicatedLast := MerkleRoot([]bchash.Hash{a, b, c, c})

	require.Equal(t, withDuplicatedLast, withThree)
}

func TestMerkleRoot_OrderSensitive(t *testing.T) {
	a := bchash.Double([]byte("a"))
	b := bchash.Double([]byte("b"))

	require.NotEqual(t, MerkleRoot([]bchash.Hash{a, b}), MerkleRoot([]bchash.Hash{b, a}))
}

func TestBlockMerkleRoot_MatchesPlainMerkleRootOverTxHashes(t *testing.T) {
	tx1 := &Tx{Version: 1, LockTime: 1}
	tx2 := &Tx{Version: 1, LockTime: 2}
	tx3 := &Tx{Version: 1, LockTime: 3}

	b := &Block{Txs: []*Tx{tx1, tx2, tx3}}
	want := MerkleRoot([]bchash.Hash{tx1.Hash(), tx2.Hash(), tx3.Hash()})

	require.Equal(t, want, BlockMerkleRoot(b))
}
