package node

import (
	"sync"

	"github.com/btcarch/node/internal/bchash"
)

// NotificationKind distinguishes the two event shapes pushed to subscribers.
type NotificationKind int

const (
	NotifyBlock NotificationKind = iota
	NotifyTx
)

// Notification is one event pushed to the node's notification channel: a
// newly-stored block (with its chain depth) or a newly-relayed transaction.
type Notification struct {
	Kind  NotificationKind
	Hash  bchash.Hash
	Depth uint64 // valid only for NotifyBlock
}

const defaultSubscriberBuffer = 64

// notifyBus is a multi-consumer broadcast: every subscriber observes every
// published event in order. A slow subscriber never blocks the publisher —
// its buffer is bounded, and the oldest unread event is dropped to make room
// for the newest one.
type notifyBus struct {
	mu          sync.Mutex
	subscribers map[int]chan Notification
	nextID      int
	bufferSize  int
}

func newNotifyBus() *notifyBus {
	return &notifyBus{
		subscribers: make(map[int]chan Notification),
		bufferSize:  defaultSubscriberBuffer,
	}
}

// Subscribe returns a channel that receives all future notifications, and an
// unsubscribe function that must be called when the consumer is done.
func (b *notifyBus) Subscribe() (<-chan Notification, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Notification, b.bufferSize)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

// Publish delivers n to every current subscriber without blocking. If a
// subscriber's buffer is full, its oldest queued notification is dropped to
// make room.
func (b *notifyBus) Publish(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- n:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- n:
			default:
			}
		}
	}
}

func (b *notifyBus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
