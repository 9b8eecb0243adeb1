package wire

import "encoding/binary"

// cursor is a forward-only reader over a byte slice, the shape the teacher
// uses for all wire parsing (consensus.cursor in the reference module).
type cursor struct {
	b   []byte
	pos int
}

func newCursor(b []byte) *cursor {
	return &cursor{b: b}
}

func (c *cursor) remaining() int {
	if c.pos >= len(c.b) {
		return 0
	}
	return len(c.b) - c.pos
}

func (c *cursor) readExact(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, decodeErr(ErrTruncated, "need %d bytes, have %d", n, c.remaining())
	}
	start := c.pos
	c.pos += n
	return c.b[start:c.pos], nil
}

func (c *cursor) readU8() (byte, error) {
	b, err := c.readExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readU32LE() (uint32, error) {
	b, err := c.readExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) readI64LE() (int64, error) {
	b, err := c.readExact(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (c *cursor) readHash32() ([32]byte, error) {
	var h [32]byte
	b, err := c.readExact(32)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

func (c *cursor) readVarInt() (uint64, error) {
	v, n, err := ReadVarInt(c.b[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += n
	return v, nil
}

func (c *cursor) readVarBytes(max int) ([]byte, error) {
	n, err := c.readVarInt()
	if err != nil {
		return nil, err
	}
	if max > 0 && n > uint64(max) {
		return nil, decodeErr(ErrScriptTooLarge, "payload length %d exceeds %d", n, max)
	}
	return c.readExact(int(n))
}

func (c *cursor) atEnd() bool {
	return c.remaining() == 0
}
