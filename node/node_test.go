package node

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/btcarch/node/internal/bchash"
	"github.com/btcarch/node/store"
	"github.com/btcarch/node/wire"
)

// slowStore is a Store stub whose StoreBlock blocks for a fixed delay before
// accepting, modeling the "store blocks for 100ms per apply" scenario.
type slowStore struct {
	delay time.Duration
}

func (s *slowStore) StoreBlock(b *wire.Block) (store.BlockResult, error) {
	time.Sleep(s.delay)
	return store.BlockNew, nil
}
func (s *slowStore) StoreTx(tx *wire.Tx) (store.TxResult, error) { return store.TxNew, nil }
func (s *slowStore) GetBlock(bchash.Hash) (*wire.Block, bool, error)  { return nil, false, nil }
func (s *slowStore) GetTx(bchash.Hash) (*wire.Tx, bool, error)        { return nil, false, nil }
func (s *slowStore) BlockAtHeight(uint64) (*wire.Block, bool, error)  { return nil, false, nil }
func (s *slowStore) Head() (*wire.Block, uint64, bool, error)         { return nil, 0, false, nil }
func (s *slowStore) Has(store.Kind, bchash.Hash) (bool, error)        { return false, nil }
func (s *slowStore) NextBlock(*wire.Block) (*wire.Block, bool, error) { return nil, false, nil }

var _ store.Store = (*slowStore)(nil)

func encodeTestBlock(nonce uint32) []byte {
	blk := &wire.Block{Header: wire.BlockHeader{Version: 1, Nonce: nonce}}
	return wire.EncodeBlock(blk)
}

// TestObjectQueue_NeverExceedsCapacityUnderBackpressure is the "Backpressure"
// scenario: feeding many more blocks than max.queue into a node whose store
// is slow must never grow the object queue past its configured cap — excess
// arrivals are rejected by OnBlock rather than queued unbounded.
func TestObjectQueue_NeverExceedsCapacityUnderBackpressure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxQueue = 4

	n, err := New(cfg, &slowStore{delay: 20 * time.Millisecond}, 0xd9b4bef9, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h := n.Handler()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var maxObserved int
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if item, ok := n.objQ.Pop(); ok {
				n.applyObject(ctx, item.(objectQueueItem))
			} else {
				time.Sleep(time.Millisecond)
			}
		}
	}()

	const attempts = 10 * 4 // 10x max.queue
	var accepted, rejected int
	for i := 0; i < attempts; i++ {
		err := h.OnBlock(nil, encodeTestBlock(uint32(i)))
		if err != nil {
			rejected++
		} else {
			accepted++
		}
		if l := n.objQ.Len(); l > maxObserved {
			maxObserved = l
		}
		if n.objQ.Len() > cfg.MaxQueue {
			t.Fatalf("object queue exceeded max.queue: len=%d max=%d", n.objQ.Len(), cfg.MaxQueue)
		}
	}

	if accepted == 0 {
		t.Fatalf("expected at least some blocks to be accepted")
	}
	if rejected == 0 {
		t.Fatalf("expected backpressure to reject some blocks given a slow store and a small queue")
	}
	if maxObserved > cfg.MaxQueue {
		t.Fatalf("observed queue length %d exceeded max.queue %d", maxObserved, cfg.MaxQueue)
	}

	cancel()
	wg.Wait()
}

func TestSubmitTx_AcceptedPublishesNotification(t *testing.T) {
	cfg := DefaultConfig()
	n, err := New(cfg, &slowStore{}, 0xd9b4bef9, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ch, unsub := n.Subscribe()
	defer unsub()

	tx := &wire.Tx{Version: 1}
	if err := n.SubmitTx(context.Background(), tx); err != nil {
		t.Fatalf("SubmitTx: %v", err)
	}

	select {
	case got := <-ch:
		if got.Kind != NotifyTx {
			t.Fatalf("expected NotifyTx, got %v", got.Kind)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a notification after SubmitTx")
	}
}
