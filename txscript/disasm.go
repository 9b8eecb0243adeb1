package txscript

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/btcarch/node/wire"
)

// ToText renders a decoded script as the space-separated textual form used
// throughout §4 and §8: small-int pushes (OP_0, OP_1..OP_16) render as plain
// decimal digits, other data pushes render as lowercase hex, and every other
// opcode renders by its mnemonic name.
//
// A data push whose hex encoding happens to look like a bare decimal token
// in [0,16] (e.g. a direct push of the single byte 0x05, or of the two
// bytes 0x00 0x11) would otherwise be indistinguishable from an actual
// small-int opcode once rendered to text; such tokens get a "0x" prefix so
// ParseText can tell them apart.
func ToText(chunks []wire.ScriptChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.IsData {
			if c.Op == wire.OP_0 || c.Op.IsSmallInt() {
				parts = append(parts, strconv.Itoa(smallIntOf(c)))
				continue
			}
			hexTok := hex.EncodeToString(c.Data)
			if _, ambiguous := parseSmallInt(hexTok); ambiguous {
				hexTok = "0x" + hexTok
			}
			parts = append(parts, hexTok)
			continue
		}
		parts = append(parts, wire.OpName(c.Op))
	}
	return strings.Join(parts, " ")
}

func smallIntOf(c wire.ScriptChunk) int {
	if c.Op == wire.OP_0 {
		return 0
	}
	if c.Op.IsSmallInt() {
		return c.Op.SmallIntValue()
	}
	return int(c.Data[0])
}

// ParseText is the inverse of ToText: it accepts a space-separated token
// stream and produces the script chunks that re-encode to the same bytes a
// human author intended. A bare decimal token in [0,16] is parsed as the
// corresponding small-int opcode; a "0x"-prefixed token is always a literal
// hex data push (how ToText escapes a data push that would otherwise read
// as a small-int token); bare hex tokens outside that range become data
// pushes too; anything else must be a recognized mnemonic.
func ParseText(s string) ([]wire.ScriptChunk, error) {
	fields := strings.Fields(s)
	chunks := make([]wire.ScriptChunk, 0, len(fields))
	for _, tok := range fields {
		if rest, ok := strings.CutPrefix(tok, "0x"); ok {
			data, err := hex.DecodeString(rest)
			if err != nil {
				return nil, scriptErr(ErrInvalidStackOp, "unrecognized token %q", tok)
			}
			chunks = append(chunks, wire.NewDataChunk(data))
			continue
		}
		if n, ok := parseSmallInt(tok); ok {
			chunks = append(chunks, smallIntChunk(n))
			continue
		}
		if op, ok := wire.OpFromName(tok); ok {
			chunks = append(chunks, wire.ScriptChunk{Op: op})
			continue
		}
		if data, err := hex.DecodeString(tok); err == nil && len(tok)%2 == 0 {
			chunks = append(chunks, wire.NewDataChunk(data))
			continue
		}
		return nil, scriptErr(ErrInvalidStackOp, "unrecognized token %q", tok)
	}
	return chunks, nil
}

func parseSmallInt(tok string) (int, bool) {
	if tok == "" {
		return 0, false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 || n > 16 {
		return 0, false
	}
	return n, true
}

func smallIntChunk(n int) wire.ScriptChunk {
	if n == 0 {
		return wire.ScriptChunk{Op: wire.OP_0, IsData: true, Data: []byte{}}
	}
	return wire.ScriptChunk{Op: wire.Opcode(int(wire.OP_1) + n - 1), IsData: true, Data: []byte{byte(n)}}
}
