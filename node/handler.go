package node

import (
	"fmt"
	"time"

	"github.com/btcarch/node/p2p"
	"github.com/btcarch/node/wire"
)

// peerHandler adapts a Node to p2p.Handler: every callback either enqueues
// work for the two-queue pipeline or answers synchronously from the Store.
// It never mutates the cohort itself; peers are added by the accept loop and
// dial goroutines and removed by their own peer goroutine.
type peerHandler struct {
	node *Node
}

func (n *Node) Handler() p2p.Handler { return peerHandler{node: n} }

func (h peerHandler) OnInv(p *p2p.Peer, vecs []p2p.InvVector) error {
	n := h.node
	addr := peerAddrKey(p)
	for _, v := range vecs {
		key := invKey{kind: v.Type, hash: v.Hash}
		if n.invLRU.Seen(key) {
			continue
		}
		if !n.invQ.TryPush(invQueueItem{Kind: v.Type, Hash: v.Hash, Peer: addr}) {
			continue // queue full; dropped, will be re-announced later
		}
		n.invLRU.Add(key)
	}
	return nil
}

func (h peerHandler) OnGetData(p *p2p.Peer, vecs []p2p.InvVector) error {
	n := h.node
	for _, v := range vecs {
		switch v.Type {
		case p2p.InvTypeBlock:
			blk, ok, err := n.store.GetBlock(v.Hash)
			if err != nil || !ok {
				continue
			}
			if err := p.Send(p2p.CmdBlock, wire.EncodeBlock(blk)); err != nil {
				return err
			}
		case p2p.InvTypeTx:
			tx, ok, err := n.store.GetTx(v.Hash)
			if err != nil || !ok {
				continue
			}
			if err := p.Send(p2p.CmdTx, wire.EncodeTx(tx)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h peerHandler) OnNotFound(p *p2p.Peer, vecs []p2p.InvVector) error {
	return nil
}

func (h peerHandler) OnGetBlocks(p *p2p.Peer, req *p2p.LocatorPayload) error {
	return nil
}

const maxHeadersPerReply = 2000

// OnGetHeaders walks forward from the first locator hash we recognize (or
// from genesis, for an empty locator — the "sync from scratch" case) and
// replies with up to maxHeadersPerReply headers.
func (h peerHandler) OnGetHeaders(p *p2p.Peer, req *p2p.LocatorPayload) ([]wire.BlockHeader, error) {
	n := h.node

	cur, ok, err := firstBlockAfterLocator(n, req)
	if err != nil {
		return nil, err
	}

	headers := make([]wire.BlockHeader, 0, maxHeadersPerReply)
	for ok && len(headers) < maxHeadersPerReply {
		headers = append(headers, cur.Header)
		cur, ok, err = n.store.NextBlock(cur)
		if err != nil {
			return nil, err
		}
	}
	return headers, nil
}

// firstBlockAfterLocator returns the first block the requester doesn't
// already have: the successor of the first locator hash we recognize, or
// genesis itself if the locator is empty or none of its hashes are known.
func firstBlockAfterLocator(n *Node, req *p2p.LocatorPayload) (*wire.Block, bool, error) {
	for _, hash := range req.BlockLocator {
		if blk, ok, err := n.store.GetBlock(hash); err == nil && ok {
			return n.store.NextBlock(blk)
		}
	}
	return n.store.BlockAtHeight(0)
}

func (h peerHandler) OnHeaders(p *p2p.Peer, headers []wire.BlockHeader) error {
	return nil
}

func (h peerHandler) OnBlock(p *p2p.Peer, blockBytes []byte) error {
	n := h.node
	blk, err := wire.DecodeBlock(blockBytes)
	if err != nil {
		return fmt.Errorf("node: decode block: %w", err)
	}
	if !n.objQ.TryPush(objectQueueItem{Kind: objectKindBlock, Block: blk, Peer: peerAddrKey(p)}) {
		return fmt.Errorf("node: object queue full")
	}
	return nil
}

func (h peerHandler) OnTx(p *p2p.Peer, txBytes []byte) error {
	n := h.node
	tx, err := wire.DecodeTx(txBytes)
	if err != nil {
		return fmt.Errorf("node: decode tx: %w", err)
	}
	if !n.objQ.TryPush(objectQueueItem{Kind: objectKindTx, Tx: tx, Peer: peerAddrKey(p)}) {
		return fmt.Errorf("node: object queue full")
	}
	return nil
}

func (h peerHandler) OnAddr(p *p2p.Peer, addrs []p2p.PeerAddress) error {
	n := h.node
	now := time.Now()
	for _, a := range addrs {
		n.addrs.Add(a, now)
	}
	return nil
}

func (h peerHandler) OnGetAddr(p *p2p.Peer) ([]p2p.PeerAddress, error) {
	return h.node.addrs.Sample(23), nil
}

func peerAddrKey(p *p2p.Peer) string {
	if p == nil || p.Conn == nil {
		return ""
	}
	return p.Conn.RemoteAddr().String()
}
