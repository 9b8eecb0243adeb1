package txscript

import "github.com/btcarch/node/wire"

type opcodeFunc func(e *Engine, idx int) error

// opcodeTable is the explicit, byte-keyed jump table the Script Engine
// dispatches through (spec §9: replace dynamic dispatch on opcode name with
// an explicit jump table; unknown opcodes fall through deterministically in
// Engine.step).
var opcodeTable = map[wire.Opcode]opcodeFunc{
	wire.OP_NOP: opNop,

	wire.OP_VERIFY: opVerify,
	wire.OP_RETURN: opReturn,

	wire.OP_TOALTSTACK:   opToAltStack,
	wire.OP_FROMALTSTACK: opFromAltStack,
	wire.OP_DROP:         opDrop,
	wire.OP_DUP:          opDup,
	wire.OP_SWAP:         opSwap,
	wire.OP_TUCK:         opTuck,
	wire.OP_SIZE:         opSize,

	wire.OP_EQUAL:       opEqual,
	wire.OP_EQUALVERIFY: opEqualVerify,

	wire.OP_1ADD:               opUnaryNum(func(a int64) int64 { return a + 1 }),
	wire.OP_1SUB:               opUnaryNum(func(a int64) int64 { return a - 1 }),
	wire.OP_NEGATE:             opUnaryNum(func(a int64) int64 { return -a }),
	wire.OP_ABS:                opUnaryNum(absInt64),
	wire.OP_NOT:                opUnaryBool(func(a int64) bool { return a == 0 }),
	wire.OP_ADD:                opBinaryNum(func(a, b int64) int64 { return a + b }),
	wire.OP_SUB:                opBinaryNum(func(a, b int64) int64 { return a - b }),
	wire.OP_BOOLAND:            opBinaryBool(func(a, b int64) bool { return a != 0 && b != 0 }),
	wire.OP_BOOLOR:             opBinaryBool(func(a, b int64) bool { return a != 0 || b != 0 }),
	wire.OP_NUMEQUAL:           opBinaryBool(func(a, b int64) bool { return a == b }),
	wire.OP_NUMEQUALVERIFY:     opNumEqualVerify,
	wire.OP_NUMNOTEQUAL:        opBinaryBool(func(a, b int64) bool { return a != b }),
	wire.OP_LESSTHAN:           opBinaryBool(func(a, b int64) bool { return a < b }),
	wire.OP_GREATERTHAN:        opBinaryBool(func(a, b int64) bool { return a > b }),
	wire.OP_LESSTHANOREQUAL:    opBinaryBool(func(a, b int64) bool { return a <= b }),
	wire.OP_GREATERTHANOREQUAL: opBinaryBool(func(a, b int64) bool { return a >= b }),
	wire.OP_MIN:                opBinaryNum(func(a, b int64) int64 { return minInt64(a, b) }),
	wire.OP_MAX:                opBinaryNum(func(a, b int64) int64 { return maxInt64(a, b) }),
	wire.OP_WITHIN:             opWithin,

	wire.OP_RIPEMD160: opHash1(ripemd160Sum),
	wire.OP_SHA1:       opHash1(sha1Sum),
	wire.OP_SHA256:     opHash1(sha256Sum),
	wire.OP_HASH160:    opHash1(hash160),
	wire.OP_HASH256:    opHash1(hash256),

	wire.OP_CODESEPARATOR: opCodeSeparator,

	wire.OP_CHECKSIG:            opCheckSig,
	wire.OP_CHECKSIGVERIFY:      opCheckSigVerify,
	wire.OP_CHECKMULTISIG:       opCheckMultiSig,
	wire.OP_CHECKMULTISIGVERIFY: opCheckMultiSigVerify,

	wire.OP_NOP2: opCheckHashVerify,

	wire.OP_CAT:    opDisabled,
	wire.OP_SUBSTR: opDisabled,
}

func opNop(e *Engine, idx int) error { return nil }

func opDisabled(e *Engine, idx int) error {
	return scriptErr(ErrDisabledOpcode, "%s is disabled", wire.OpName(e.chunks[idx].Op))
}

func opReturn(e *Engine, idx int) error {
	return scriptErr(ErrVerifyFailed, "OP_RETURN")
}

func opVerify(e *Engine, idx int) error {
	v, err := e.main.Pop()
	if err != nil {
		return err
	}
	if !asBool(v) {
		return scriptErr(ErrVerifyFailed, "OP_VERIFY")
	}
	return nil
}

func opToAltStack(e *Engine, idx int) error {
	v, err := e.main.Pop()
	if err != nil {
		return err
	}
	e.alt.Push(v)
	return nil
}

func opFromAltStack(e *Engine, idx int) error {
	v, err := e.alt.Pop()
	if err != nil {
		return err
	}
	e.main.Push(v)
	return nil
}

func opDrop(e *Engine, idx int) error {
	_, err := e.main.Pop()
	return err
}

func opDup(e *Engine, idx int) error {
	v, err := e.main.Peek(0)
	if err != nil {
		return err
	}
	e.main.Push(append([]byte(nil), v...))
	return nil
}

// opSwap swaps the top two stack items. vals[0] is the top (popped first),
// vals[1] the one below it; pushing vals[0] back first puts it underneath
// vals[1], which is the swap.
func opSwap(e *Engine, idx int) error {
	vals, err := e.main.PopN(2)
	if err != nil {
		return err
	}
	e.main.Push(vals[0])
	e.main.Push(vals[1])
	return nil
}

func opTuck(e *Engine, idx int) error {
	vals, err := e.main.PopN(2)
	if err != nil {
		return err
	}
	e.main.Push(append([]byte(nil), vals[0]...))
	e.main.Push(vals[1])
	e.main.Push(vals[0])
	return nil
}

func opSize(e *Engine, idx int) error {
	v, err := e.main.Peek(0)
	if err != nil {
		return err
	}
	e.main.Push(encodeNum(int64(len(v))))
	return nil
}

func opEqual(e *Engine, idx int) error {
	vals, err := e.main.PopN(2)
	if err != nil {
		return err
	}
	e.main.Push(boolBytes(bytesEqual(vals[0], vals[1])))
	return nil
}

func opEqualVerify(e *Engine, idx int) error {
	if err := opEqual(e, idx); err != nil {
		return err
	}
	return opVerify(e, idx)
}

func opUnaryNum(f func(int64) int64) opcodeFunc {
	return func(e *Engine, idx int) error {
		v, err := e.main.Pop()
		if err != nil {
			return err
		}
		n, err := decodeNum(v)
		if err != nil {
			return err
		}
		e.main.Push(encodeNum(f(n)))
		return nil
	}
}

func opUnaryBool(f func(int64) bool) opcodeFunc {
	return func(e *Engine, idx int) error {
		v, err := e.main.Pop()
		if err != nil {
			return err
		}
		n, err := decodeNum(v)
		if err != nil {
			return err
		}
		e.main.Push(boolBytes(f(n)))
		return nil
	}
}

// opBinaryNum applies f(a, b) where a was pushed before b, i.e. a is the
// deeper of the two operands (vals[1]) and b is the one on top (vals[0]).
// Non-commutative ops like OP_SUB depend on getting this order right.
func opBinaryNum(f func(a, b int64) int64) opcodeFunc {
	return func(e *Engine, idx int) error {
		vals, err := e.main.PopN(2)
		if err != nil {
			return err
		}
		a, err := decodeNum(vals[1])
		if err != nil {
			return err
		}
		b, err := decodeNum(vals[0])
		if err != nil {
			return err
		}
		e.main.Push(encodeNum(f(a, b)))
		return nil
	}
}

func opBinaryBool(f func(a, b int64) bool) opcodeFunc {
	return func(e *Engine, idx int) error {
		vals, err := e.main.PopN(2)
		if err != nil {
			return err
		}
		a, err := decodeNum(vals[1])
		if err != nil {
			return err
		}
		b, err := decodeNum(vals[0])
		if err != nil {
			return err
		}
		e.main.Push(boolBytes(f(a, b)))
		return nil
	}
}

func opNumEqualVerify(e *Engine, idx int) error {
	if err := opBinaryBool(func(a, b int64) bool { return a == b })(e, idx); err != nil {
		return err
	}
	return opVerify(e, idx)
}

// opWithin consumes x, min, max pushed in that order (max on top), so
// vals[2] is x, vals[1] is min, vals[0] is max.
func opWithin(e *Engine, idx int) error {
	vals, err := e.main.PopN(3)
	if err != nil {
		return err
	}
	hi, err := decodeNum(vals[0])
	if err != nil {
		return err
	}
	lo, err := decodeNum(vals[1])
	if err != nil {
		return err
	}
	x, err := decodeNum(vals[2])
	if err != nil {
		return err
	}
	e.main.Push(boolBytes(x >= lo && x < hi))
	return nil
}

func opHash1(f func([]byte) []byte) opcodeFunc {
	return func(e *Engine, idx int) error {
		v, err := e.main.Pop()
		if err != nil {
			return err
		}
		e.main.Push(f(v))
		return nil
	}
}

func opCodeSeparator(e *Engine, idx int) error {
	e.lastSeparator = idx + 1
	return nil
}

func splitHashType(sig []byte) ([]byte, byte, error) {
	if len(sig) == 0 {
		return nil, 0, scriptErr(ErrInvalidStackOp, "empty signature")
	}
	return sig[:len(sig)-1], sig[len(sig)-1], nil
}

// opCheckSig consumes sig then pubKey, pubKey pushed last and therefore on
// top: vals[0] is pubKey, vals[1] is sig.
func opCheckSig(e *Engine, idx int) error {
	vals, err := e.main.PopN(2)
	if err != nil {
		return err
	}
	pubKey, sig := vals[0], vals[1]
	if len(sig) == 0 {
		e.main.Push(boolBytes(false))
		return nil
	}
	rawSig, hashType, err := splitHashType(sig)
	if err != nil {
		return err
	}
	ok := e.checker != nil && e.checker.CheckSig(pubKey, rawSig, hashType)
	e.main.Push(boolBytes(ok))
	return nil
}

func opCheckSigVerify(e *Engine, idx int) error {
	if err := opCheckSig(e, idx); err != nil {
		return err
	}
	return opVerify(e, idx)
}

// opCheckMultiSig implements the historical off-by-one dummy-element
// consumption and in-order signature/pubkey matching described in §4.2.
func opCheckMultiSig(e *Engine, idx int) error {
	nVal, err := e.main.Pop()
	if err != nil {
		return err
	}
	n, err := decodeNum(nVal)
	if err != nil {
		return err
	}
	if n < 0 {
		return scriptErr(ErrInvalidStackOp, "negative pubkey count")
	}
	pubKeys := make([][]byte, n)
	for i := int64(0); i < n; i++ {
		v, err := e.main.Pop()
		if err != nil {
			return err
		}
		pubKeys[n-1-i] = v // reverse pop order back to appearance order
	}

	mVal, err := e.main.Pop()
	if err != nil {
		return err
	}
	m, err := decodeNum(mVal)
	if err != nil {
		return err
	}
	if m < 0 || m > n {
		return scriptErr(ErrInvalidStackOp, "invalid signature count")
	}
	sigs := make([][]byte, m)
	for i := int64(0); i < m; i++ {
		v, err := e.main.Pop()
		if err != nil {
			return err
		}
		sigs[m-1-i] = v
	}

	// Historical off-by-one: one extra element is consumed unconditionally.
	if _, err := e.main.Pop(); err != nil {
		return err
	}

	matched := int64(0)
	pubIdx := int64(0)
	for sigIdx := int64(0); sigIdx < m; {
		if pubIdx >= n {
			break
		}
		if n-pubIdx < m-sigIdx {
			break // not enough pubkeys remain to match remaining sigs
		}
		sig := sigs[sigIdx]
		pub := pubKeys[pubIdx]
		ok := false
		if len(sig) > 0 {
			if rawSig, hashType, serr := splitHashType(sig); serr == nil {
				ok = e.checker != nil && e.checker.CheckSig(pub, rawSig, hashType)
			}
		}
		if ok {
			sigIdx++
			matched++
		}
		pubIdx++
	}

	e.main.Push(boolBytes(matched == m))
	return nil
}

func opCheckMultiSigVerify(e *Engine, idx int) error {
	if err := opCheckMultiSig(e, idx); err != nil {
		return err
	}
	return opVerify(e, idx)
}

// opCheckHashVerify implements OP_NOP2 as either OP_CHECKHASHVERIFY
// (BIP-17 hash commitment) or a bare no-op, gated by
// ScriptVerifyCheckHashVerify (§9 Open Questions).
func opCheckHashVerify(e *Engine, idx int) error {
	if e.flags&ScriptVerifyCheckHashVerify == 0 {
		return nil
	}
	v, err := e.main.Pop()
	if err != nil {
		return err
	}
	if len(v) != 20 {
		return scriptErr(ErrInvalidStackOp, "OP_CHECKHASHVERIFY: commitment must be 20 bytes")
	}
	span := e.codeSeparatorSpan(idx)
	got := hash160(span)
	if !bytesEqual(got, v) {
		return scriptErr(ErrVerifyFailed, "OP_CHECKHASHVERIFY: commitment mismatch")
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func absInt64(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
