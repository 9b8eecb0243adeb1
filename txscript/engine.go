package txscript

import (
	"crypto/sha1"  //nolint:gosec // consensus opcode, not a security choice
	"crypto/sha256"

	"github.com/btcarch/node/internal/bchash"
	"github.com/btcarch/node/wire"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // no stdlib replacement
)

// ScriptFlags gates behavior the wider Bitcoin ecosystem has disagreed on
// over time (§9 Open Questions). Flags are never inferred from context; the
// caller must pass the consensus rules it wants.
type ScriptFlags uint32

const (
	// ScriptVerifyCheckHashVerify enables the BIP-17 reading of OP_NOP2
	// (OP_CHECKHASHVERIFY). Without it, the opcode behaves as OP_NOP.
	ScriptVerifyCheckHashVerify ScriptFlags = 1 << iota
)

// MaxPushOpCount bounds the number of push operations a single engine run
// may execute (§4.2 Resource limits).
const MaxPushOpCount = 201

// Engine executes a signature script followed by a pubkey script against a
// shared main stack and produces a boolean verdict.
type Engine struct {
	flags   ScriptFlags
	checker SigChecker

	main stack
	alt  stack

	pushCount int

	chunks         []wire.ScriptChunk // the script currently executing
	lastSeparator  int                // index of the chunk after the last OP_CODESEPARATOR (0 if none)
}

// NewEngine constructs an engine bound to a signature-verification callback
// and a set of consensus-rule flags.
func NewEngine(checker SigChecker, flags ScriptFlags) *Engine {
	return &Engine{checker: checker, flags: flags}
}

// Verify executes sigScript then pubScript (raw wire bytes, in that order,
// main stack carried over) and returns the boolean verdict plus a
// diagnostic error when the verdict is false. It never panics on
// malformed or adversarial script content; every failure mode is reported
// through the return values (§7 ScriptError policy).
func (e *Engine) Verify(sigScript, pubScript []byte) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = scriptErr(ErrInvalidStackOp, "recovered: %v", r)
		}
	}()

	if len(sigScript) > wire.MaxScriptBytes || len(pubScript) > wire.MaxScriptBytes {
		return false, scriptErr(ErrScriptTooLarge, "script exceeds %d bytes", wire.MaxScriptBytes)
	}

	sigChunks, derr := wire.DecodeScript(sigScript)
	if derr != nil {
		return false, scriptErr(ErrInvalidStackOp, "sigScript: %v", derr)
	}
	pubChunks, derr := wire.DecodeScript(pubScript)
	if derr != nil {
		return false, scriptErr(ErrInvalidStackOp, "pubScript: %v", derr)
	}

	if err := e.run(sigChunks); err != nil {
		return false, err
	}
	if err := e.run(pubChunks); err != nil {
		return false, err
	}

	if e.main.Len() == 0 {
		return false, scriptErr(ErrInvalidStackOp, "empty final stack")
	}
	top, err := e.main.Peek(0)
	if err != nil {
		return false, err
	}
	return asBool(top), nil
}

func (e *Engine) run(chunks []wire.ScriptChunk) error {
	e.chunks = chunks
	e.lastSeparator = 0
	for i, c := range chunks {
		if err := e.step(i, c); err != nil {
			return err
		}
		if e.main.Len()+e.alt.Len() > MaxStackDepth {
			return scriptErr(ErrStackOverflow, "stack depth exceeds %d", MaxStackDepth)
		}
	}
	return nil
}

func (e *Engine) step(idx int, c wire.ScriptChunk) error {
	if c.IsData {
		if len(c.Data) > MaxScriptElementSize {
			return scriptErr(ErrElementTooLarge, "pushed element of %d bytes exceeds %d", len(c.Data), MaxScriptElementSize)
		}
		e.pushCount++
		if e.pushCount > MaxPushOpCount {
			return scriptErr(ErrPushLimit, "push opcode count exceeds %d", MaxPushOpCount)
		}
		e.main.Push(append([]byte(nil), c.Data...))
		return nil
	}

	fn, ok := opcodeTable[c.Op]
	if !ok {
		// Unknown opcode: no-op, matching "fall-through" behavior noted
		// in §9 (explicit jump table, deterministic unknown handling).
		return nil
	}
	return fn(e, idx)
}

// codeSeparatorSpan returns the serialized bytes of the current script from
// the chunk after the last OP_CODESEPARATOR up to (not including) idx.
func (e *Engine) codeSeparatorSpan(idx int) []byte {
	return wire.EncodeScript(e.chunks[e.lastSeparator:idx])
}

func sha1Sum(b []byte) []byte {
	h := sha1.Sum(b)
	return h[:]
}

func sha256Sum(b []byte) []byte {
	h := sha256.Sum256(b)
	return h[:]
}

func ripemd160Sum(b []byte) []byte {
	r := ripemd160.New()
	r.Write(b)
	return r.Sum(nil)
}

func hash160(b []byte) []byte {
	h := bchash.Hash160(b)
	return h[:]
}

func hash256(b []byte) []byte {
	h := bchash.Double(b)
	return h[:]
}
