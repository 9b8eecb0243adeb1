package wire

import "github.com/btcarch/node/internal/bchash"

// MerkleRoot computes the root of the Merkle tree of leaf hashes, duplicating
// the last leaf at each level when that level has odd length (§6). It
// returns the zero hash for an empty input.
func MerkleRoot(hashes []bchash.Hash) bchash.Hash {
	if len(hashes) == 0 {
		return bchash.Hash{}
	}
	level := make([]bchash.Hash, len(hashes))
	copy(level, hashes)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]bchash.Hash, 0, len(level)/2)
		buf := make([]byte, 64)
		for i := 0; i < len(level); i += 2 {
			copy(buf[:32], level[i][:])
			copy(buf[32:], level[i+1][:])
			next = append(next, bchash.Double(buf))
		}
		level = next
	}
	return level[0]
}

// BlockMerkleRoot is a convenience wrapper computing MerkleRoot over a
// block's transaction hashes in block order.
func BlockMerkleRoot(b *Block) bchash.Hash {
	hashes := make([]bchash.Hash, len(b.Txs))
	for i, tx := range b.Txs {
		hashes[i] = tx.Hash()
	}
	return MerkleRoot(hashes)
}
