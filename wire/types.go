// Package wire implements the canonical Bitcoin wire codec: block headers,
// transactions, scripts, and the Merkle-root computation over transaction
// hashes. It is pure and stateless — every operation is a function of its
// input bytes or structs, grounded in the teacher's consensus/wire.go,
// consensus/tx_parse.go and consensus/tx_marshal.go cursor-based approach.
package wire

import "github.com/btcarch/node/internal/bchash"

const (
	// MaxScriptBytes bounds a single script's serialized length (§4.1).
	MaxScriptBytes = 10_000
	// MaxTxCount bounds the number of transactions a block may declare.
	MaxTxCount = 1_000_000
	// AuxPowVersionBit marks a header as carrying a merged-mining auxpow.
	AuxPowVersionBit = 0x100
)

// BlockHeader is the 80-byte, fixed-layout Bitcoin block header. All
// integers are little-endian on the wire; hashes are stored in the same
// byte order they appear on the wire.
type BlockHeader struct {
	Version       uint32
	PrevBlockHash bchash.Hash
	MerkleRoot    bchash.Hash
	Time          uint32
	Bits          uint32
	Nonce         uint32
}

// HasAuxPow reports whether the merged-mining bit is set in Version.
func (h BlockHeader) HasAuxPow() bool {
	return h.Version&AuxPowVersionBit != 0
}

// Hash returns the double-SHA256 of the 80-byte serialized header. It is a
// pure function of the header fields (invariant (a) of §3).
func (h BlockHeader) Hash() bchash.Hash {
	return bchash.Double(encodeHeader(h))
}

// Block is a header plus its transactions. A Block exclusively owns its
// transactions. AuxPow, when present, is retained verbatim so that
// encode(decode(b)) reproduces it byte-for-byte.
type Block struct {
	Header BlockHeader
	AuxPow []byte // raw bytes, nil unless Header.HasAuxPow()
	Txs    []*Tx
}

// Hash returns the block's identifier: the double-SHA256 of its header.
func (b *Block) Hash() bchash.Hash {
	return b.Header.Hash()
}

// OutPoint identifies the transaction output a TxIn spends.
type OutPoint struct {
	Hash  bchash.Hash
	Index uint32
}

// CoinbaseIndex is the previous-output index a coinbase input always uses.
const CoinbaseIndex = 0xffffffff

// IsCoinbasePrevOut reports whether op is the synthetic coinbase outpoint:
// the all-zeros hash at index 0xFFFFFFFF.
func (op OutPoint) IsCoinbasePrevOut() bool {
	return op.Hash.IsZero() && op.Index == CoinbaseIndex
}

// TxIn is a transaction input.
type TxIn struct {
	PrevOut         OutPoint
	SignatureScript []byte
	Sequence        uint32
}

// TxOut is a transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// Tx is a Bitcoin transaction. A Tx exclusively owns its inputs and
// outputs.
type Tx struct {
	Version  uint32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32

	hash      bchash.Hash
	hashValid bool
}

// Hash returns the double-SHA256 of the tx's canonical serialization,
// memoized on first call: a Tx is immutable once hashed (§3 Lifecycle).
func (t *Tx) Hash() bchash.Hash {
	if !t.hashValid {
		t.hash = bchash.Double(EncodeTx(t))
		t.hashValid = true
	}
	return t.hash
}

// IsCoinbase reports whether t has exactly one input whose previous
// outpoint is the all-zeros hash at index 0xFFFFFFFF.
func (t *Tx) IsCoinbase() bool {
	return len(t.TxIn) == 1 && t.TxIn[0].PrevOut.IsCoinbasePrevOut()
}
