package wire

import "encoding/binary"

// ScriptChunk is either a bare opcode or a data push. IsData is true iff the
// chunk originated from a push opcode (OP_0, a direct push, OP_PUSHDATA1/2/4,
// or OP_1..OP_16 — the latter two carry their payload as Data so that
// unknown opcodes remain distinguishable from pushes during disassembly).
type ScriptChunk struct {
	Op     Opcode
	Data   []byte
	IsData bool
}

// DecodeScript walks raw script bytes left to right, turning push opcodes
// into data chunks and leaving everything else as a bare opcode token.
// Unknown opcodes are preserved verbatim so that round-tripping is lossless
// (§4.1 Script decoding).
func DecodeScript(b []byte) ([]ScriptChunk, error) {
	var chunks []ScriptChunk
	i := 0
	for i < len(b) {
		op := Opcode(b[i])
		switch {
		case op == OP_0:
			chunks = append(chunks, ScriptChunk{Op: op, IsData: true, Data: nil})
			i++
		case op >= 1 && op <= 75:
			n := int(op)
			if i+1+n > len(b) {
				return nil, decodeErr(ErrTruncated, "direct push of %d bytes truncated", n)
			}
			chunks = append(chunks, ScriptChunk{Op: op, IsData: true, Data: append([]byte(nil), b[i+1:i+1+n]...)})
			i += 1 + n
		case op == OP_PUSHDATA1:
			if i+2 > len(b) {
				return nil, decodeErr(ErrTruncated, "OP_PUSHDATA1 length truncated")
			}
			n := int(b[i+1])
			if i+2+n > len(b) {
				return nil, decodeErr(ErrTruncated, "OP_PUSHDATA1 payload truncated")
			}
			chunks = append(chunks, ScriptChunk{Op: op, IsData: true, Data: append([]byte(nil), b[i+2:i+2+n]...)})
			i += 2 + n
		case op == OP_PUSHDATA2:
			if i+3 > len(b) {
				return nil, decodeErr(ErrTruncated, "OP_PUSHDATA2 length truncated")
			}
			n := int(binary.LittleEndian.Uint16(b[i+1 : i+3]))
			if i+3+n > len(b) {
				return nil, decodeErr(ErrTruncated, "OP_PUSHDATA2 payload truncated")
			}
			chunks = append(chunks, ScriptChunk{Op: op, IsData: true, Data: append([]byte(nil), b[i+3:i+3+n]...)})
			i += 3 + n
		case op == OP_PUSHDATA4:
			if i+5 > len(b) {
				return nil, decodeErr(ErrTruncated, "OP_PUSHDATA4 length truncated")
			}
			n := int(binary.LittleEndian.Uint32(b[i+1 : i+5]))
			if n < 0 || i+5+n > len(b) {
				return nil, decodeErr(ErrTruncated, "OP_PUSHDATA4 payload truncated")
			}
			chunks = append(chunks, ScriptChunk{Op: op, IsData: true, Data: append([]byte(nil), b[i+5:i+5+n]...)})
			i += 5 + n
		case op.IsSmallInt():
			chunks = append(chunks, ScriptChunk{Op: op, IsData: true, Data: []byte{byte(op.SmallIntValue())}})
			i++
		default:
			chunks = append(chunks, ScriptChunk{Op: op})
			i++
		}
	}
	return chunks, nil
}

// EncodeScript is the inverse of DecodeScript, choosing the same push
// opcode each chunk was read with so that decode(encode(s)) == s.
func EncodeScript(chunks []ScriptChunk) []byte {
	var out []byte
	for _, c := range chunks {
		if !c.IsData {
			out = append(out, byte(c.Op))
			continue
		}
		switch {
		case c.Op == OP_0:
			out = append(out, byte(OP_0))
		case c.Op.IsSmallInt():
			out = append(out, byte(c.Op))
		case c.Op >= 1 && c.Op <= 75:
			out = append(out, byte(c.Op))
			out = append(out, c.Data...)
		case c.Op == OP_PUSHDATA1:
			out = append(out, byte(OP_PUSHDATA1), byte(len(c.Data)))
			out = append(out, c.Data...)
		case c.Op == OP_PUSHDATA2:
			var tmp [2]byte
			binary.LittleEndian.PutUint16(tmp[:], uint16(len(c.Data)))
			out = append(out, byte(OP_PUSHDATA2))
			out = append(out, tmp[:]...)
			out = append(out, c.Data...)
		case c.Op == OP_PUSHDATA4:
			var tmp [4]byte
			binary.LittleEndian.PutUint32(tmp[:], uint32(len(c.Data)))
			out = append(out, byte(OP_PUSHDATA4))
			out = append(out, tmp[:]...)
			out = append(out, c.Data...)
		}
	}
	return out
}

// CanonicalPushOpcode picks the shortest push opcode for a payload of the
// given length, matching what an encoder building a script from scratch
// (rather than round-tripping) should emit.
func CanonicalPushOpcode(n int) Opcode {
	switch {
	case n == 0:
		return OP_0
	case n <= 75:
		return Opcode(n)
	case n <= 0xff:
		return OP_PUSHDATA1
	case n <= 0xffff:
		return OP_PUSHDATA2
	default:
		return OP_PUSHDATA4
	}
}

// NewDataChunk builds a data-push chunk using the canonical (shortest)
// push opcode for len(data).
func NewDataChunk(data []byte) ScriptChunk {
	return ScriptChunk{Op: CanonicalPushOpcode(len(data)), IsData: true, Data: data}
}
