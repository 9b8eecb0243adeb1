package store

import (
	"sync"

	"github.com/btcarch/node/internal/bchash"
	"github.com/btcarch/node/wire"
)

// Memory is the in-memory reference Store implementation (§4.3), guarded by
// a single RWMutex the way the teacher guards its in-process caches.
type Memory struct {
	mu sync.RWMutex

	blocks      map[bchash.Hash]*wire.Block
	heights     map[bchash.Hash]uint64
	byHeight    map[uint64]bchash.Hash
	txs         map[bchash.Hash]*wire.Tx
	headHeight  uint64
	headHash    bchash.Hash
	hasHead     bool
	orphans     *orphanPool
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		blocks:   make(map[bchash.Hash]*wire.Block),
		heights:  make(map[bchash.Hash]uint64),
		byHeight: make(map[uint64]bchash.Hash),
		txs:      make(map[bchash.Hash]*wire.Tx),
		orphans:  newOrphanPool(defaultOrphanCapacity),
	}
}

func (m *Memory) StoreBlock(b *wire.Block) (BlockResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeBlockLocked(b)
}

func (m *Memory) storeBlockLocked(b *wire.Block) (BlockResult, error) {
	hash := b.Hash()
	if _, ok := m.blocks[hash]; ok {
		return BlockExisting, nil
	}

	var height uint64
	if b.Header.PrevBlockHash.IsZero() {
		height = 0
	} else {
		parentHeight, ok := m.heights[b.Header.PrevBlockHash]
		if !ok {
			m.orphans.add(b)
			return BlockOrphan, nil
		}
		height = parentHeight + 1
	}

	if existing, ok := m.byHeight[height]; ok && existing != hash {
		return BlockInvalid, storeErr(ErrInvariantViolation, "height %d already occupied by a different block", height)
	}

	m.blocks[hash] = b
	m.heights[hash] = height
	m.byHeight[height] = hash
	if !m.hasHead || height > m.headHeight {
		m.headHeight = height
		m.headHash = hash
		m.hasHead = true
	}

	for _, tx := range b.Txs {
		m.txs[tx.Hash()] = tx
	}

	for _, child := range m.orphans.take(hash) {
		m.storeBlockLocked(child) //nolint:errcheck // best-effort replay
	}

	return BlockNew, nil
}

func (m *Memory) StoreTx(tx *wire.Tx) (TxResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hash := tx.Hash()
	if _, ok := m.txs[hash]; ok {
		return TxExisting, nil
	}
	m.txs[hash] = tx
	return TxNew, nil
}

func (m *Memory) GetBlock(hash bchash.Hash) (*wire.Block, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blocks[hash]
	return b, ok, nil
}

func (m *Memory) GetTx(hash bchash.Hash) (*wire.Tx, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.txs[hash]
	return tx, ok, nil
}

func (m *Memory) BlockAtHeight(height uint64) (*wire.Block, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hash, ok := m.byHeight[height]
	if !ok {
		return nil, false, nil
	}
	return m.blocks[hash], true, nil
}

func (m *Memory) Head() (*wire.Block, uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasHead {
		return nil, 0, false, nil
	}
	return m.blocks[m.headHash], m.headHeight, true, nil
}

func (m *Memory) Has(kind Kind, hash bchash.Hash) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch kind {
	case KindBlock:
		_, ok := m.blocks[hash]
		return ok, nil
	case KindTx:
		_, ok := m.txs[hash]
		return ok, nil
	default:
		return false, storeErr(ErrBackend, "unknown kind %d", kind)
	}
}

func (m *Memory) NextBlock(b *wire.Block) (*wire.Block, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	height, ok := m.heights[b.Hash()]
	if !ok {
		return nil, false, nil
	}
	hash, ok := m.byHeight[height+1]
	if !ok {
		return nil, false, nil
	}
	return m.blocks[hash], true, nil
}

var _ Store = (*Memory)(nil)
