package p2p

import (
	"encoding/binary"
	"fmt"

	"github.com/btcarch/node/internal/bchash"
	"github.com/btcarch/node/wire"
)

const MaxInvEntries = 50_000

const (
	InvTypeTx    uint32 = 1
	InvTypeBlock uint32 = 2
)

// InvVector identifies one announced (or requested) object, used by the
// inv, getdata, and notfound messages.
type InvVector struct {
	Type uint32
	Hash bchash.Hash
}

func EncodeInvPayload(vecs []InvVector) ([]byte, error) {
	if len(vecs) > MaxInvEntries {
		return nil, fmt.Errorf("p2p: inv: too many entries")
	}
	out := wire.WriteVarInt(make([]byte, 0, 9+len(vecs)*36), uint64(len(vecs)))
	var tmp [4]byte
	for _, v := range vecs {
		binary.LittleEndian.PutUint32(tmp[:], v.Type)
		out = append(out, tmp[:]...)
		out = append(out, v.Hash[:]...)
	}
	return out, nil
}

func DecodeInvPayload(b []byte) ([]InvVector, error) {
	count, used, err := wire.ReadVarInt(b)
	if err != nil {
		return nil, fmt.Errorf("p2p: inv: %w", err)
	}
	if count > MaxInvEntries {
		return nil, fmt.Errorf("p2p: inv: count exceeds max")
	}
	need := used + int(count)*36
	if len(b) != need {
		return nil, fmt.Errorf("p2p: inv: length mismatch")
	}
	off := used
	out := make([]InvVector, 0, count)
	for i := uint64(0); i < count; i++ {
		tp := binary.LittleEndian.Uint32(b[off : off+4])
		off += 4
		var h bchash.Hash
		copy(h[:], b[off:off+32])
		off += 32
		out = append(out, InvVector{Type: tp, Hash: h})
	}
	return out, nil
}
