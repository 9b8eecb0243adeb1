package store

import (
	"encoding/binary"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/btcarch/node/internal/bchash"
	"github.com/btcarch/node/wire"
)

// Bucket layout grounded in the teacher's node/store/db.go: one bucket per
// concern, hash-keyed, plus a height index for BlockAtHeight/NextBlock.
var (
	bucketBlocks     = []byte("blocks_by_hash")
	bucketHeights    = []byte("height_by_hash")
	bucketByHeight   = []byte("hash_by_height")
	bucketTxs        = []byte("tx_by_hash")
	bucketMeta       = []byte("meta")
	metaKeyHeadHash  = []byte("head_hash")
	metaKeyHeadHeight = []byte("head_height")
)

// Bolt is a go.etcd.io/bbolt-backed Store. Every write is a single-writer
// bbolt transaction, which is the store's own serialization guarantee
// (§5) — callers never need an external lock around StoreBlock/StoreTx.
type Bolt struct {
	db      *bolt.DB
	mu      sync.Mutex // serializes orphan replay across StoreBlock calls
	orphans *orphanPool
}

// OpenBolt opens (creating if absent) a bbolt-backed store at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bbolt: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketBlocks, bucketHeights, bucketByHeight, bucketTxs, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Bolt{db: db, orphans: newOrphanPool(defaultOrphanCapacity)}, nil
}

func (b *Bolt) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func heightKey(h uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h)
	return buf[:]
}

func (s *Bolt) StoreBlock(blk *wire.Block) (BlockResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeBlockLocked(blk)
}

func (s *Bolt) storeBlockLocked(blk *wire.Block) (BlockResult, error) {
	hash := blk.Hash()

	var result BlockResult
	var replay []*wire.Block

	err := s.db.Update(func(tx *bolt.Tx) error {
		blocks := tx.Bucket(bucketBlocks)
		heights := tx.Bucket(bucketHeights)
		byHeight := tx.Bucket(bucketByHeight)
		txs := tx.Bucket(bucketTxs)
		meta := tx.Bucket(bucketMeta)

		if blocks.Get(hash[:]) != nil {
			result = BlockExisting
			return nil
		}

		var height uint64
		if blk.Header.PrevBlockHash.IsZero() {
			height = 0
		} else {
			hv := heights.Get(blk.Header.PrevBlockHash[:])
			if hv == nil {
				s.orphans.add(blk)
				result = BlockOrphan
				return nil
			}
			height = binary.BigEndian.Uint64(hv) + 1
		}

		if existing := byHeight.Get(heightKey(height)); existing != nil && !bytesEqual32(existing, hash[:]) {
			result = BlockInvalid
			return storeErr(ErrInvariantViolation, "height %d already occupied by a different block", height)
		}

		if err := blocks.Put(hash[:], wire.EncodeBlock(blk)); err != nil {
			return err
		}
		if err := heights.Put(hash[:], heightKey(height)[:]); err != nil {
			return err
		}
		if err := byHeight.Put(heightKey(height), hash[:]); err != nil {
			return err
		}
		for _, t := range blk.Txs {
			th := t.Hash()
			if err := txs.Put(th[:], wire.EncodeTx(t)); err != nil {
				return err
			}
		}

		curHeightRaw := meta.Get(metaKeyHeadHeight)
		if curHeightRaw == nil || binary.BigEndian.Uint64(curHeightRaw) < height {
			if err := meta.Put(metaKeyHeadHeight, heightKey(height)); err != nil {
				return err
			}
			if err := meta.Put(metaKeyHeadHash, hash[:]); err != nil {
				return err
			}
		}

		result = BlockNew
		replay = s.orphans.take(hash)
		return nil
	})
	if err != nil {
		return BlockInvalid, err
	}

	for _, child := range replay {
		s.storeBlockLocked(child) //nolint:errcheck // best-effort replay
	}
	return result, nil
}

func (s *Bolt) StoreTx(t *wire.Tx) (TxResult, error) {
	hash := t.Hash()
	result := TxNew
	err := s.db.Update(func(tx *bolt.Tx) error {
		txs := tx.Bucket(bucketTxs)
		if txs.Get(hash[:]) != nil {
			result = TxExisting
			return nil
		}
		return txs.Put(hash[:], wire.EncodeTx(t))
	})
	return result, err
}

func (s *Bolt) GetBlock(hash bchash.Hash) (*wire.Block, bool, error) {
	var blk *wire.Block
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBlocks).Get(hash[:])
		if v == nil {
			return nil
		}
		b, derr := wire.DecodeBlock(v)
		if derr != nil {
			return derr
		}
		blk = b
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return blk, blk != nil, nil
}

func (s *Bolt) GetTx(hash bchash.Hash) (*wire.Tx, bool, error) {
	var t *wire.Tx
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketTxs).Get(hash[:])
		if v == nil {
			return nil
		}
		decoded, derr := wire.DecodeTx(v)
		if derr != nil {
			return derr
		}
		t = decoded
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return t, t != nil, nil
}

func (s *Bolt) BlockAtHeight(height uint64) (*wire.Block, bool, error) {
	var hash []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		hash = tx.Bucket(bucketByHeight).Get(heightKey(height))
		return nil
	})
	if err != nil || hash == nil {
		return nil, false, err
	}
	var h bchash.Hash
	copy(h[:], hash)
	return s.GetBlock(h)
}

func (s *Bolt) Head() (*wire.Block, uint64, bool, error) {
	var height uint64
	var hash []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		hv := meta.Get(metaKeyHeadHeight)
		hh := meta.Get(metaKeyHeadHash)
		if hv == nil || hh == nil {
			return nil
		}
		height = binary.BigEndian.Uint64(hv)
		hash = append([]byte(nil), hh...)
		return nil
	})
	if err != nil || hash == nil {
		return nil, 0, false, err
	}
	var h bchash.Hash
	copy(h[:], hash)
	blk, ok, err := s.GetBlock(h)
	return blk, height, ok, err
}

func (s *Bolt) Has(kind Kind, hash bchash.Hash) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		switch kind {
		case KindBlock:
			ok = tx.Bucket(bucketBlocks).Get(hash[:]) != nil
		case KindTx:
			ok = tx.Bucket(bucketTxs).Get(hash[:]) != nil
		default:
			return storeErr(ErrBackend, "unknown kind %d", kind)
		}
		return nil
	})
	return ok, err
}

func (s *Bolt) NextBlock(blk *wire.Block) (*wire.Block, bool, error) {
	hash := blk.Hash()
	var height uint64
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		hv := tx.Bucket(bucketHeights).Get(hash[:])
		if hv == nil {
			return nil
		}
		height = binary.BigEndian.Uint64(hv)
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, false, err
	}
	return s.BlockAtHeight(height + 1)
}

func bytesEqual32(a, b []byte) bool {
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

var _ Store = (*Bolt)(nil)
