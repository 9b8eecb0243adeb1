package wire

// DecodeBlock parses a full block: header, optional auxpow, and the
// var-int-prefixed transaction list.
func DecodeBlock(b []byte) (*Block, error) {
	c := newCursor(b)

	header, err := decodeHeader(c)
	if err != nil {
		return nil, err
	}

	var auxPow *AuxPow
	if header.HasAuxPow() {
		auxPow, err = decodeAuxPow(c)
		if err != nil {
			return nil, err
		}
	}

	nTx, err := c.readVarInt()
	if err != nil {
		return nil, err
	}
	if nTx > MaxTxCount {
		return nil, decodeErr(ErrTooManyTxs, "tx count %d exceeds limit %d", nTx, MaxTxCount)
	}

	txs := make([]*Tx, 0, nTx)
	for i := uint64(0); i < nTx; i++ {
		tx, err := decodeTxAt(c)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	if !c.atEnd() {
		return nil, decodeErr(ErrTruncated, "trailing bytes after block")
	}

	return &Block{Header: header, AuxPow: encodeAuxPow(auxPow), Txs: txs}, nil
}

// EncodeBlock serializes b to its canonical wire form, reproducing any
// AuxPow bytes verbatim.
func EncodeBlock(b *Block) []byte {
	out := encodeHeader(b.Header)
	if b.Header.HasAuxPow() {
		out = append(out, b.AuxPow...)
	}
	out = WriteVarInt(out, uint64(len(b.Txs)))
	for _, tx := range b.Txs {
		out = append(out, EncodeTx(tx)...)
	}
	return out
}
