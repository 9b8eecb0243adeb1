package node

import (
	"sync"

	"github.com/btcarch/node/internal/bchash"
	"github.com/btcarch/node/wire"
)

// invQueueItem is a pending inventory announcement awaiting a getdata round
// trip to the peer that announced it.
type invQueueItem struct {
	Kind uint32
	Hash bchash.Hash
	Peer string
}

// objectKind distinguishes the two payload shapes carried on the object
// queue.
type objectKind int

const (
	objectKindBlock objectKind = iota
	objectKindTx
)

// objectQueueItem is a fully decoded block or transaction, ready for
// application to the Store.
type objectQueueItem struct {
	Kind  objectKind
	Block *wire.Block
	Tx    *wire.Tx
	Peer  string
}

// boundedQueue is a FIFO with a fixed capacity, used for both the inventory
// and object queues. Push fails (non-blocking) once size has reached
// capacity, giving the caller an explicit backpressure signal instead of
// blocking the peer goroutine that pushes.
type boundedQueue struct {
	mu       sync.Mutex
	capacity int
	items    []interface{}
}

func newBoundedQueue(capacity int) *boundedQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &boundedQueue{capacity: capacity}
}

// TryPush appends an item if the queue has room. Reports whether it was
// accepted.
func (q *boundedQueue) TryPush(item interface{}) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		return false
	}
	q.items = append(q.items, item)
	return true
}

// Pop removes and returns the oldest item, or nil if empty.
func (q *boundedQueue) Pop() (interface{}, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

func (q *boundedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *boundedQueue) AtCapacity() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) >= q.capacity
}
