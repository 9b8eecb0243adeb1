package wire

// AuxPow is the merged-mining proof-of-work structure that follows the
// header and precedes the transaction count when Version&0x100 is set
// (§4.1). The codec treats it as an opaque-but-structured blob: it parses
// far enough to find where the structure ends (so the transaction count
// that follows can be located), and re-encodes byte-for-byte what it read.
//
// Layout (standard merged-mining AuxPow, as used by merge-mined altcoins):
//
//	parent coinbase tx        (full tx serialization)
//	parent block hash         (32 bytes)
//	coinbase branch: count, count*32-byte hashes, 4-byte side mask
//	aux branch:      count, count*32-byte hashes, 4-byte side mask
//	parent block header       (80 bytes)
type AuxPow struct {
	raw []byte // exact bytes consumed; encodeAuxPow reproduces this verbatim
}

// Bytes returns the raw bytes of the AuxPow structure as read from the wire.
func (a *AuxPow) Bytes() []byte {
	if a == nil {
		return nil
	}
	return a.raw
}

func decodeAuxPow(c *cursor) (*AuxPow, error) {
	start := c.pos

	// Parent coinbase tx.
	if _, err := decodeTxAt(c); err != nil {
		return nil, err
	}
	// Parent block hash.
	if _, err := c.readHash32(); err != nil {
		return nil, err
	}
	// Coinbase branch.
	if err := skipMerkleBranch(c); err != nil {
		return nil, err
	}
	// Aux branch.
	if err := skipMerkleBranch(c); err != nil {
		return nil, err
	}
	// Parent block header (fixed 80 bytes; no nested auxpow).
	if _, err := c.readExact(headerSize); err != nil {
		return nil, err
	}

	return &AuxPow{raw: append([]byte(nil), c.b[start:c.pos]...)}, nil
}

func skipMerkleBranch(c *cursor) error {
	n, err := c.readVarInt()
	if err != nil {
		return err
	}
	for i := uint64(0); i < n; i++ {
		if _, err := c.readHash32(); err != nil {
			return err
		}
	}
	if _, err := c.readExact(4); err != nil { // side mask
		return err
	}
	return nil
}

func encodeAuxPow(a *AuxPow) []byte {
	if a == nil {
		return nil
	}
	return a.raw
}
