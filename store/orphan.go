package store

import (
	"github.com/btcarch/node/internal/bchash"
	"github.com/btcarch/node/wire"
)

// defaultOrphanCapacity bounds the orphan side pool; the oldest orphan is
// evicted to make room once full (§7 Error Handling Design).
const defaultOrphanCapacity = 256

// orphanPool holds blocks whose prev_block is not yet known, keyed by the
// hash they are waiting on, replayed once that hash is stored.
type orphanPool struct {
	capacity int
	order    []bchash.Hash // insertion order, for oldest-eviction
	byHash   map[bchash.Hash]*wire.Block
}

func newOrphanPool(capacity int) *orphanPool {
	if capacity <= 0 {
		capacity = defaultOrphanCapacity
	}
	return &orphanPool{capacity: capacity, byHash: make(map[bchash.Hash]*wire.Block)}
}

func (p *orphanPool) add(b *wire.Block) {
	h := b.Hash()
	if _, exists := p.byHash[h]; exists {
		return
	}
	if len(p.order) >= p.capacity {
		oldest := p.order[0]
		p.order = p.order[1:]
		delete(p.byHash, oldest)
	}
	p.byHash[h] = b
	p.order = append(p.order, h)
}

// take removes and returns every orphan currently waiting on parent.
func (p *orphanPool) take(parent bchash.Hash) []*wire.Block {
	var ready []*wire.Block
	for _, h := range p.order {
		b := p.byHash[h]
		if b == nil {
			continue
		}
		if b.Header.PrevBlockHash == parent {
			ready = append(ready, b)
		}
	}
	if len(ready) == 0 {
		return nil
	}
	for _, b := range ready {
		h := b.Hash()
		delete(p.byHash, h)
	}
	filtered := p.order[:0]
	for _, h := range p.order {
		if _, gone := p.byHash[h]; gone {
			filtered = append(filtered, h)
		}
	}
	p.order = filtered
	return ready
}
