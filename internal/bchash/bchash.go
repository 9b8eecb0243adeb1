// Package bchash provides the two hash primitives the wire format and the
// script engine build everything else on top of: double-SHA256 and
// Hash160 (RIPEMD160(SHA256(x))).
package bchash

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // no stdlib replacement exists
)

// Hash is a 32-byte double-SHA256 digest, stored in the byte order it
// appears on the wire (not reversed for display).
type Hash [32]byte

// Double returns SHA256(SHA256(b)).
func Double(b []byte) Hash {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return Hash(second)
}

// Hash160 returns RIPEMD160(SHA256(b)).
func Hash160(b []byte) [20]byte {
	sum := sha256.Sum256(b)
	r := ripemd160.New()
	r.Write(sum[:])
	var out [20]byte
	copy(out[:], r.Sum(nil))
	return out
}

// Reversed returns a copy of h with byte order reversed, the form used for
// human-readable display of block and transaction identifiers.
func (h Hash) Reversed() Hash {
	var out Hash
	for i, b := range h {
		out[len(h)-1-i] = b
	}
	return out
}

// String renders h reversed and hex-encoded, matching how block/tx hashes
// are conventionally displayed.
func (h Hash) String() string {
	r := h.Reversed()
	const hextable = "0123456789abcdef"
	out := make([]byte, len(r)*2)
	for i, b := range r {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}

// IsZero reports whether h is the all-zero hash (used for the coinbase
// previous-outpoint sentinel).
func (h Hash) IsZero() bool {
	for _, b := range h {
		if b != 0 {
			return false
		}
	}
	return true
}
