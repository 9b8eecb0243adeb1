package txscript

import (
	"github.com/btcsuite/btcutil/base58"

	"github.com/btcarch/node/wire"
)

// ScriptClass identifies a recognized pubkey-script template (§4.2 address
// extraction / standard script templates).
type ScriptClass int

const (
	NonStandardTy ScriptClass = iota
	PubKeyHashTy
	PubKeyTy
	MultiSigTy
)

func (c ScriptClass) String() string {
	switch c {
	case PubKeyHashTy:
		return "pubkeyhash"
	case PubKeyTy:
		return "pubkey"
	case MultiSigTy:
		return "multisig"
	default:
		return "nonstandard"
	}
}

// ExtractPubKeyHash recognizes the canonical pay-to-pubkey-hash template
//
//	OP_DUP OP_HASH160 <20-byte hash> OP_EQUALVERIFY OP_CHECKSIG
//
// and returns the committed hash.
func ExtractPubKeyHash(pkScript []byte) ([]byte, bool) {
	chunks, err := wire.DecodeScript(pkScript)
	if err != nil || len(chunks) != 5 {
		return nil, false
	}
	if chunks[0].Op != wire.OP_DUP || chunks[0].IsData {
		return nil, false
	}
	if chunks[1].Op != wire.OP_HASH160 || chunks[1].IsData {
		return nil, false
	}
	if !chunks[2].IsData || len(chunks[2].Data) != 20 {
		return nil, false
	}
	if chunks[3].Op != wire.OP_EQUALVERIFY || chunks[3].IsData {
		return nil, false
	}
	if chunks[4].Op != wire.OP_CHECKSIG || chunks[4].IsData {
		return nil, false
	}
	return chunks[2].Data, true
}

// ExtractPubKey recognizes the canonical pay-to-pubkey template
//
//	<pubkey> OP_CHECKSIG
func ExtractPubKey(pkScript []byte) ([]byte, bool) {
	chunks, err := wire.DecodeScript(pkScript)
	if err != nil || len(chunks) != 2 {
		return nil, false
	}
	if !chunks[0].IsData || (len(chunks[0].Data) != 33 && len(chunks[0].Data) != 65) {
		return nil, false
	}
	if chunks[1].Op != wire.OP_CHECKSIG || chunks[1].IsData {
		return nil, false
	}
	return chunks[0].Data, true
}

// ExtractMultiSig recognizes the canonical bare-multisig template
//
//	M <pub1> ... <pubN> N OP_CHECKMULTISIG
//
// and returns the required signature count and the public keys in order.
func ExtractMultiSig(pkScript []byte) (m int, pubKeys [][]byte, ok bool) {
	chunks, err := wire.DecodeScript(pkScript)
	if err != nil || len(chunks) < 4 {
		return 0, nil, false
	}
	if chunks[len(chunks)-1].Op != wire.OP_CHECKMULTISIG || chunks[len(chunks)-1].IsData {
		return 0, nil, false
	}
	mChunk := chunks[0]
	nChunk := chunks[len(chunks)-2]
	if !mChunk.IsData || !isSmallIntChunk(mChunk) {
		return 0, nil, false
	}
	if !nChunk.IsData || !isSmallIntChunk(nChunk) {
		return 0, nil, false
	}
	mVal := smallIntOf(mChunk)
	nVal := smallIntOf(nChunk)
	keyChunks := chunks[1 : len(chunks)-2]
	if len(keyChunks) != nVal || mVal > nVal {
		return 0, nil, false
	}
	keys := make([][]byte, 0, nVal)
	for _, c := range keyChunks {
		if !c.IsData || (len(c.Data) != 33 && len(c.Data) != 65) {
			return 0, nil, false
		}
		keys = append(keys, c.Data)
	}
	return mVal, keys, true
}

func isSmallIntChunk(c wire.ScriptChunk) bool {
	return c.Op == wire.OP_0 || c.Op.IsSmallInt()
}

// ClassifyScript identifies which standard template, if any, pkScript
// matches.
func ClassifyScript(pkScript []byte) ScriptClass {
	if _, ok := ExtractPubKeyHash(pkScript); ok {
		return PubKeyHashTy
	}
	if _, ok := ExtractPubKey(pkScript); ok {
		return PubKeyTy
	}
	if _, _, ok := ExtractMultiSig(pkScript); ok {
		return MultiSigTy
	}
	return NonStandardTy
}

// EncodeAddress Base58Check-encodes a 20-byte pubkey hash with the given
// version byte, the standard Bitcoin address format.
func EncodeAddress(hash160 []byte, version byte) string {
	return base58.CheckEncode(hash160, version)
}

// DecodeAddress is the inverse of EncodeAddress.
func DecodeAddress(addr string) (hash []byte, version byte, err error) {
	return base58.CheckDecode(addr)
}
