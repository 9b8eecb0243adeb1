package p2p

import (
	"fmt"

	"github.com/btcarch/node/internal/bchash"
	"github.com/btcarch/node/wire"
)

const MaxLocatorHashes = 64

// LocatorPayload is the shared shape of getheaders and getblocks: a block
// locator (most recent hashes first, sparser toward genesis) and an
// optional stop hash.
type LocatorPayload struct {
	BlockLocator []bchash.Hash
	HashStop     bchash.Hash
}

// encodeLocatorPayload accepts an empty locator: it means "start from
// genesis", used by a node with no stored blocks yet.
func encodeLocatorPayload(p LocatorPayload) ([]byte, error) {
	if len(p.BlockLocator) > MaxLocatorHashes {
		return nil, fmt.Errorf("p2p: locator: invalid length")
	}
	out := wire.WriteVarInt(make([]byte, 0, 9+len(p.BlockLocator)*32+32), uint64(len(p.BlockLocator)))
	for _, h := range p.BlockLocator {
		out = append(out, h[:]...)
	}
	out = append(out, p.HashStop[:]...)
	return out, nil
}

func decodeLocatorPayload(b []byte) (*LocatorPayload, error) {
	count, used, err := wire.ReadVarInt(b)
	if err != nil {
		return nil, fmt.Errorf("p2p: locator: %w", err)
	}
	if count > MaxLocatorHashes {
		return nil, fmt.Errorf("p2p: locator: invalid hash_count")
	}
	need := used + int(count)*32 + 32
	if len(b) != need {
		return nil, fmt.Errorf("p2p: locator: length mismatch")
	}
	loc := make([]bchash.Hash, 0, count)
	off := used
	for i := uint64(0); i < count; i++ {
		var h bchash.Hash
		copy(h[:], b[off:off+32])
		loc = append(loc, h)
		off += 32
	}
	var stop bchash.Hash
	copy(stop[:], b[off:off+32])
	return &LocatorPayload{BlockLocator: loc, HashStop: stop}, nil
}

func EncodeGetHeadersPayload(p LocatorPayload) ([]byte, error) { return encodeLocatorPayload(p) }
func DecodeGetHeadersPayload(b []byte) (*LocatorPayload, error) { return decodeLocatorPayload(b) }
func EncodeGetBlocksPayload(p LocatorPayload) ([]byte, error)  { return encodeLocatorPayload(p) }
func DecodeGetBlocksPayload(b []byte) (*LocatorPayload, error) { return decodeLocatorPayload(b) }

const headerWireBytes = 4 + 32 + 32 + 4 + 4 + 4 // version+prev+merkle+time+bits+nonce

// EncodeHeadersPayload serializes bare 80-byte headers (plus a trailing
// zero tx-count byte, matching the wire block format's shape). Headers
// carrying an auxpow are out of scope here; block.go's DecodeBlock/
// EncodeBlock is the path for those.
func EncodeHeadersPayload(headers []wire.BlockHeader) ([]byte, error) {
	out := wire.WriteVarInt(make([]byte, 0, 9+len(headers)*headerWireBytes), uint64(len(headers)))
	for _, h := range headers {
		if h.HasAuxPow() {
			return nil, fmt.Errorf("p2p: headers: auxpow headers unsupported in headers propagation")
		}
		blk := wire.Block{Header: h}
		out = append(out, wire.EncodeBlock(&blk)[:headerWireBytes+1]...)
	}
	return out, nil
}

func DecodeHeadersPayload(b []byte) ([]wire.BlockHeader, error) {
	count, used, err := wire.ReadVarInt(b)
	if err != nil {
		return nil, fmt.Errorf("p2p: headers: %w", err)
	}
	off := used
	out := make([]wire.BlockHeader, 0, count)
	for i := uint64(0); i < count; i++ {
		if off+headerWireBytes+1 > len(b) {
			return nil, fmt.Errorf("p2p: headers: truncated")
		}
		blk, err := wire.DecodeBlock(b[off : off+headerWireBytes+1])
		if err != nil {
			return nil, fmt.Errorf("p2p: headers: %w", err)
		}
		out = append(out, blk.Header)
		off += headerWireBytes + 1
	}
	if off != len(b) {
		return nil, fmt.Errorf("p2p: headers: trailing bytes")
	}
	return out, nil
}
