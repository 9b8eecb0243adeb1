package wire

import "encoding/binary"

const maxTxInOut = 1_000_000

// DecodeTx parses a single canonical transaction from b. Trailing bytes
// after the transaction are rejected.
func DecodeTx(b []byte) (*Tx, error) {
	c := newCursor(b)
	tx, err := decodeTxAt(c)
	if err != nil {
		return nil, err
	}
	if !c.atEnd() {
		return nil, decodeErr(ErrTruncated, "trailing bytes after transaction")
	}
	return tx, nil
}

func decodeTxAt(c *cursor) (*Tx, error) {
	var tx Tx

	version, err := c.readU32LE()
	if err != nil {
		return nil, err
	}
	tx.Version = version

	nIn, err := c.readVarInt()
	if err != nil {
		return nil, err
	}
	if nIn > maxTxInOut {
		return nil, decodeErr(ErrTooManyTxs, "tx_in count %d exceeds limit", nIn)
	}
	tx.TxIn = make([]*TxIn, 0, nIn)
	for i := uint64(0); i < nIn; i++ {
		in, err := decodeTxInAt(c)
		if err != nil {
			return nil, err
		}
		tx.TxIn = append(tx.TxIn, in)
	}

	nOut, err := c.readVarInt()
	if err != nil {
		return nil, err
	}
	if nOut > maxTxInOut {
		return nil, decodeErr(ErrTooManyTxs, "tx_out count %d exceeds limit", nOut)
	}
	tx.TxOut = make([]*TxOut, 0, nOut)
	for i := uint64(0); i < nOut; i++ {
		out, err := decodeTxOutAt(c)
		if err != nil {
			return nil, err
		}
		tx.TxOut = append(tx.TxOut, out)
	}

	lockTime, err := c.readU32LE()
	if err != nil {
		return nil, err
	}
	tx.LockTime = lockTime

	return &tx, nil
}

func decodeTxInAt(c *cursor) (*TxIn, error) {
	var in TxIn
	h, err := c.readHash32()
	if err != nil {
		return nil, err
	}
	in.PrevOut.Hash = h
	idx, err := c.readU32LE()
	if err != nil {
		return nil, err
	}
	in.PrevOut.Index = idx

	script, err := c.readVarBytes(MaxScriptBytes)
	if err != nil {
		if de, ok := err.(*DecodeError); ok && de.Code == ErrScriptTooLarge {
			return nil, de
		}
		return nil, err
	}
	in.SignatureScript = append([]byte(nil), script...)

	seq, err := c.readU32LE()
	if err != nil {
		return nil, err
	}
	in.Sequence = seq
	return &in, nil
}

func decodeTxOutAt(c *cursor) (*TxOut, error) {
	var out TxOut
	v, err := c.readI64LE()
	if err != nil {
		return nil, err
	}
	out.Value = v

	script, err := c.readVarBytes(MaxScriptBytes)
	if err != nil {
		if de, ok := err.(*DecodeError); ok && de.Code == ErrScriptTooLarge {
			return nil, de
		}
		return nil, err
	}
	out.PkScript = append([]byte(nil), script...)
	return &out, nil
}

// EncodeTx serializes tx to its canonical wire form.
func EncodeTx(tx *Tx) []byte {
	out := make([]byte, 0, 64+len(tx.TxIn)*64+len(tx.TxOut)*48)
	var tmp4 [4]byte

	binary.LittleEndian.PutUint32(tmp4[:], tx.Version)
	out = append(out, tmp4[:]...)

	out = WriteVarInt(out, uint64(len(tx.TxIn)))
	for _, in := range tx.TxIn {
		out = append(out, in.PrevOut.Hash[:]...)
		binary.LittleEndian.PutUint32(tmp4[:], in.PrevOut.Index)
		out = append(out, tmp4[:]...)
		out = WriteVarBytes(out, in.SignatureScript)
		binary.LittleEndian.PutUint32(tmp4[:], in.Sequence)
		out = append(out, tmp4[:]...)
	}

	out = WriteVarInt(out, uint64(len(tx.TxOut)))
	for _, o := range tx.TxOut {
		var tmp8 [8]byte
		binary.LittleEndian.PutUint64(tmp8[:], uint64(o.Value))
		out = append(out, tmp8[:]...)
		out = WriteVarBytes(out, o.PkScript)
	}

	binary.LittleEndian.PutUint32(tmp4[:], tx.LockTime)
	out = append(out, tmp4[:]...)
	return out
}
