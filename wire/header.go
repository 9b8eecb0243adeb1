package wire

import "encoding/binary"

const headerSize = 4 + 32 + 32 + 4 + 4 + 4

// encodeHeader serializes the 80-byte fixed header layout.
func encodeHeader(h BlockHeader) []byte {
	out := make([]byte, 0, headerSize)
	var tmp4 [4]byte

	binary.LittleEndian.PutUint32(tmp4[:], h.Version)
	out = append(out, tmp4[:]...)
	out = append(out, h.PrevBlockHash[:]...)
	out = append(out, h.MerkleRoot[:]...)
	binary.LittleEndian.PutUint32(tmp4[:], h.Time)
	out = append(out, tmp4[:]...)
	binary.LittleEndian.PutUint32(tmp4[:], h.Bits)
	out = append(out, tmp4[:]...)
	binary.LittleEndian.PutUint32(tmp4[:], h.Nonce)
	out = append(out, tmp4[:]...)
	return out
}

func decodeHeader(c *cursor) (BlockHeader, error) {
	var h BlockHeader
	v, err := c.readU32LE()
	if err != nil {
		return h, err
	}
	h.Version = v
	if h.PrevBlockHash, err = c.readHash32(); err != nil {
		return h, err
	}
	if h.MerkleRoot, err = c.readHash32(); err != nil {
		return h, err
	}
	if h.Time, err = c.readU32LE(); err != nil {
		return h, err
	}
	if h.Bits, err = c.readU32LE(); err != nil {
		return h, err
	}
	if h.Nonce, err = c.readU32LE(); err != nil {
		return h, err
	}
	return h, nil
}
