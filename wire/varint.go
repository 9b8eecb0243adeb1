package wire

import "encoding/binary"

// ReadVarInt decodes a Bitcoin CompactSize/VarInt from the front of b,
// returning the value and the number of bytes consumed.
//
//	b[0] < 0xfd              -> value is b[0]
//	b[0] == 0xfd             -> value is next 2 bytes, little-endian
//	b[0] == 0xfe             -> value is next 4 bytes, little-endian
//	b[0] == 0xff             -> value is next 8 bytes, little-endian
func ReadVarInt(b []byte) (uint64, int, error) {
	if len(b) < 1 {
		return 0, 0, decodeErr(ErrMalformedVarInt, "empty input")
	}
	switch tag := b[0]; {
	case tag < 0xfd:
		return uint64(tag), 1, nil
	case tag == 0xfd:
		if len(b) < 3 {
			return 0, 0, decodeErr(ErrMalformedVarInt, "truncated 0xfd prefix")
		}
		return uint64(binary.LittleEndian.Uint16(b[1:3])), 3, nil
	case tag == 0xfe:
		if len(b) < 5 {
			return 0, 0, decodeErr(ErrMalformedVarInt, "truncated 0xfe prefix")
		}
		return uint64(binary.LittleEndian.Uint32(b[1:5])), 5, nil
	default: // 0xff
		if len(b) < 9 {
			return 0, 0, decodeErr(ErrMalformedVarInt, "truncated 0xff prefix")
		}
		return binary.LittleEndian.Uint64(b[1:9]), 9, nil
	}
}

// WriteVarInt appends the shortest encoding of v to dst and returns the
// result.
func WriteVarInt(dst []byte, v uint64) []byte {
	switch {
	case v < 0xfd:
		return append(dst, byte(v))
	case v <= 0xffff:
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(v))
		return append(append(dst, 0xfd), tmp[:]...)
	case v <= 0xffffffff:
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(v))
		return append(append(dst, 0xfe), tmp[:]...)
	default:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], v)
		return append(append(dst, 0xff), tmp[:]...)
	}
}

// VarIntSize returns the number of bytes WriteVarInt would emit for v.
func VarIntSize(v uint64) int {
	switch {
	case v < 0xfd:
		return 1
	case v <= 0xffff:
		return 3
	case v <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// ReadVarBytes decodes a VarInt-prefixed byte string from the front of b.
func ReadVarBytes(b []byte) ([]byte, int, error) {
	n, used, err := ReadVarInt(b)
	if err != nil {
		return nil, 0, err
	}
	if uint64(len(b)-used) < n {
		return nil, 0, decodeErr(ErrTruncated, "var bytes: need %d, have %d", n, len(b)-used)
	}
	return b[used : used+int(n)], used + int(n), nil
}

// WriteVarBytes appends a VarInt length prefix followed by p to dst.
func WriteVarBytes(dst []byte, p []byte) []byte {
	dst = WriteVarInt(dst, uint64(len(p)))
	return append(dst, p...)
}
