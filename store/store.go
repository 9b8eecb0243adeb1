// Package store persists the blockchain and exposes the operations a node
// needs to converge on the network's best chain. Store is an interface;
// store.Memory and store.Bolt are two implementations proven against the
// same conformance suite (conformance_test.go), matching "a file-backed
// implementation and the in-memory reference must both satisfy the same
// contract" (§4.3).
package store

import (
	"fmt"

	"github.com/btcarch/node/internal/bchash"
	"github.com/btcarch/node/wire"
)

// BlockResult reports how StoreBlock handled a block.
type BlockResult int

const (
	BlockNew BlockResult = iota
	BlockExisting
	BlockOrphan
	BlockInvalid
)

func (r BlockResult) String() string {
	switch r {
	case BlockNew:
		return "new"
	case BlockExisting:
		return "existing"
	case BlockOrphan:
		return "orphan"
	case BlockInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// TxResult reports how StoreTx handled a transaction.
type TxResult int

const (
	TxNew TxResult = iota
	TxExisting
)

func (r TxResult) String() string {
	if r == TxExisting {
		return "existing"
	}
	return "new"
}

// Kind distinguishes the two hash namespaces Has queries.
type Kind int

const (
	KindBlock Kind = iota
	KindTx
)

// Store is the blockchain persistence contract (§4.3). Implementations must
// be safe for concurrent use; StoreBlock/StoreTx are idempotent on hash.
type Store interface {
	// StoreBlock persists b, classifying it as new, a duplicate of an
	// existing entry, an orphan (prev_block unknown), or invalid.
	StoreBlock(b *wire.Block) (BlockResult, error)
	// StoreTx persists tx independent of any containing block.
	StoreTx(tx *wire.Tx) (TxResult, error)
	GetBlock(hash bchash.Hash) (*wire.Block, bool, error)
	GetTx(hash bchash.Hash) (*wire.Tx, bool, error)
	BlockAtHeight(height uint64) (*wire.Block, bool, error)
	// Head returns the highest non-orphan block stored, if any.
	Head() (*wire.Block, uint64, bool, error)
	Has(kind Kind, hash bchash.Hash) (bool, error)
	// NextBlock returns the block immediately after b in the height
	// ordering, for linear traversal from genesis.
	NextBlock(b *wire.Block) (*wire.Block, bool, error)
}

// ErrorCode identifies why a Store operation failed.
type ErrorCode string

const (
	ErrDuplicate          ErrorCode = "DUPLICATE"
	ErrOrphan             ErrorCode = "ORPHAN"
	ErrInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrBackend            ErrorCode = "BACKEND"
)

// StoreError reports a Store-layer failure. Duplicates and orphans are not
// themselves errors — StoreBlock reports them through BlockResult — this
// type is for genuine failures: invariant violations and backend faults
// (§7).
type StoreError struct {
	Code ErrorCode
	Msg  string
}

func (e *StoreError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("store: %s: %s", e.Code, e.Msg)
}

func storeErr(code ErrorCode, format string, args ...interface{}) *StoreError {
	return &StoreError{Code: code, Msg: fmt.Sprintf(format, args...)}
}
