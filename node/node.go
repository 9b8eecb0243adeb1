// Package node ties the wire codec, script engine, and store together into
// a running peer: a cohort of connections, a two-queue inventory/object
// pipeline, periodic maintenance workers, and a broadcast notification
// channel for newly-stored blocks and transactions.
package node

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/tokenized/threads"

	"github.com/btcarch/node/internal/bchash"
	"github.com/btcarch/node/p2p"
	"github.com/btcarch/node/store"
	"github.com/btcarch/node/wire"
)

// protocolVersion is the value advertised in our half of the handshake.
const protocolVersion = 70015

// dialTimeout bounds how long an outbound connect attempt may block the
// connect worker before moving on to the next candidate.
const dialTimeout = 5 * time.Second

// Logger is the minimal structured-logging surface Node depends on. Its
// methods have the call shape of github.com/tokenized/logger's package-level
// functions (Info/Warn/Error take a context plus printf-style args); Node
// accepts an interface instead of calling package functions directly so
// tests can substitute a recording stub.
type Logger interface {
	Info(ctx context.Context, format string, values ...interface{})
	Warn(ctx context.Context, format string, values ...interface{})
	Error(ctx context.Context, format string, values ...interface{})
}

// nopLogger discards everything; used when no Logger is supplied.
type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...interface{})  {}
func (nopLogger) Warn(context.Context, string, ...interface{})  {}
func (nopLogger) Error(context.Context, string, ...interface{}) {}

// Node owns the peer cohort, the inventory/object pipeline, the address
// pool, and the notification bus. All fields reachable from the periodic
// workers or the per-peer message handlers are protected individually; the
// cohort, address manager, inventory cache, and queues each carry their own
// lock, and store writes are bounded by the worker semaphore.
type Node struct {
	cfg    Config
	store  store.Store
	log    Logger
	magic  uint32
	cohort *cohort
	addrs  *p2p.AddrManager
	invLRU *invCache
	invQ   *boundedQueue
	objQ   *boundedQueue
	notify *notifyBus

	workerSem chan struct{}

	threads  threads.Threads
	listener net.Listener

	mu      sync.Mutex
	started bool
}

// New constructs a Node around the given Store. magic is the wire-protocol
// network magic exchanged in every message envelope.
func New(cfg Config, st store.Store, magic uint32, log Logger) (*Node, error) {
	if st == nil {
		return nil, fmt.Errorf("node: nil store")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("node: invalid config: %w", err)
	}
	if log == nil {
		log = nopLogger{}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &Node{
		cfg:       cfg,
		store:     st,
		log:       log,
		magic:     magic,
		cohort:    newCohort(),
		addrs:     p2p.NewAddrManager(cfg.MaxAddr),
		invLRU:    newInvCache(cfg.MaxInvCache, 128),
		invQ:      newBoundedQueue(cfg.MaxInv),
		objQ:      newBoundedQueue(cfg.MaxQueue),
		notify:    newNotifyBus(),
		workerSem: make(chan struct{}, workers),
	}, nil
}

// Subscribe registers a new consumer of the node's notification channel.
func (n *Node) Subscribe() (<-chan Notification, func()) {
	return n.notify.Subscribe()
}

// Start launches the periodic maintenance workers and the two queue
// drainers. It returns immediately; call Stop to shut everything down.
func (n *Node) Start(ctx context.Context) {
	n.mu.Lock()
	if n.started {
		n.mu.Unlock()
		return
	}
	n.started = true
	n.mu.Unlock()

	if !n.cfg.Listen.Disabled {
		if err := n.startListener(ctx); err != nil {
			n.log.Error(ctx, "node: listen on %s:%d failed: %s", n.cfg.Listen.Host, n.cfg.Listen.Port, err)
		}
	}

	n.threads = threads.Threads{
		threads.NewPeriodicTask("connect", n.intervalConnect(), n.runConnectWorker),
		threads.NewPeriodicTask("addrs", n.intervalAddrs(), n.runAddrsWorker),
		threads.NewPeriodicTask("inv-queue", n.intervalInvQueue(), n.runInvQueueWorker),
		threads.NewPeriodicTask("object-queue", n.intervalQueue(), n.runObjectQueueWorker),
		threads.NewPeriodicTask("block-download", n.intervalQueue(), n.runBlockDownloadWorker),
	}
	n.threads.Start(ctx)
}

// Stop signals every periodic worker to finish and closes all peer
// connections. It does not wait for in-flight store writes to finish beyond
// what Store itself guarantees.
func (n *Node) Stop(ctx context.Context) {
	if n.threads != nil {
		n.threads.Stop(ctx)
	}
	if n.listener != nil {
		_ = n.listener.Close()
	}
	n.cohort.CloseAll()
}

// ourVersion builds the VersionPayload advertised on every handshake,
// reflecting the chain height the store currently holds.
func (n *Node) ourVersion() p2p.VersionPayload {
	var startHeight uint32
	if _, height, ok, _ := n.store.Head(); ok {
		startHeight = uint32(height)
	}
	return p2p.VersionPayload{
		ProtocolVersion: protocolVersion,
		Services:        0,
		Timestamp:       time.Now().Unix(),
		Nonce:           rand.Uint64(),
		UserAgent:       "/btcarch:0.1.0/",
		StartHeight:     startHeight,
		Relay:           true,
	}
}

// startListener binds cfg.Listen and accepts inbound connections until ctx
// is canceled or the listener is closed by Stop.
func (n *Node) startListener(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.Listen.Host, n.cfg.Listen.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	n.listener = ln
	go n.acceptLoop(ctx, ln)
	return nil
}

func (n *Node) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			n.log.Warn(ctx, "node: accept failed: %s", err)
			return
		}
		if n.cohort.Len() >= n.cfg.MaxConnections {
			_ = conn.Close()
			continue
		}
		peer, err := p2p.NewPeer(conn, p2p.PeerRoleInbound, n.magic, n.ourVersion())
		if err != nil {
			_ = conn.Close()
			continue
		}
		addr := conn.RemoteAddr().String()
		if err := n.cohort.Add(addr, peer); err != nil {
			_ = conn.Close()
			continue
		}
		go n.runPeer(ctx, addr, peer)
	}
}

// dialPeer connects to target, completes the handshake via peer.Run, and
// runs it until the connection closes, removing it from the cohort either
// way.
func (n *Node) dialPeer(ctx context.Context, target string) {
	conn, err := net.DialTimeout("tcp", target, dialTimeout)
	if err != nil {
		n.log.Warn(ctx, "node: connect worker: dial %s failed: %s", target, err)
		return
	}
	peer, err := p2p.NewPeer(conn, p2p.PeerRoleOutbound, n.magic, n.ourVersion())
	if err != nil {
		_ = conn.Close()
		return
	}
	if err := n.cohort.Add(target, peer); err != nil {
		_ = conn.Close()
		return
	}
	n.runPeer(ctx, target, peer)
}

// runPeer drives the handshake and message loop for peer, removing it from
// the cohort once the connection ends.
func (n *Node) runPeer(ctx context.Context, addr string, peer *p2p.Peer) {
	defer n.cohort.Remove(addr)
	defer func() { _ = peer.Conn.Close() }()
	if err := peer.Run(ctx, n.Handler()); err != nil {
		n.log.Info(ctx, "node: peer %s disconnected: %s", addr, err)
	}
}

func (n *Node) intervalConnect() time.Duration {
	return time.Duration(n.cfg.IntervalConnect) * time.Second
}

func (n *Node) intervalAddrs() time.Duration {
	return time.Duration(n.cfg.IntervalAddrs) * time.Second
}

func (n *Node) intervalInvQueue() time.Duration {
	return time.Duration(n.cfg.IntervalInvQueue) * time.Second
}

func (n *Node) intervalQueue() time.Duration {
	return time.Duration(n.cfg.IntervalQueue) * time.Second
}

// runConnectWorker attempts to heal the cohort when it is below
// max.connections, preferring addresses with recent last_seen. When the
// address pool is empty it stops for this tick; no DNS seeds are resolved.
func (n *Node) runConnectWorker(ctx context.Context) error {
	if n.cohort.Len() >= n.cfg.MaxConnections {
		return nil
	}

	for _, target := range n.cfg.Connect {
		if n.cohort.Len() >= n.cfg.MaxConnections {
			return nil
		}
		if _, already := n.cohort.Get(target); already {
			continue
		}
		n.log.Info(ctx, "node: connect worker: dialing configured peer %s", target)
		go n.dialPeer(ctx, target)
	}

	attempts := 0
	for attempts < 32 && n.cohort.Len() < n.cfg.MaxConnections {
		attempts++
		addr, ok := n.addrs.PickWeighted(time.Now())
		if !ok {
			if n.cfg.DNS {
				n.log.Info(ctx, "node: connect worker: address pool empty, no DNS seeds are resolved")
			}
			break
		}
		target := fmt.Sprintf("%s:%d", addr.IP.String(), addr.Port)
		if _, already := n.cohort.Get(target); already {
			continue
		}
		n.log.Info(ctx, "node: connect worker: dialing %s", target)
		go n.dialPeer(ctx, target)
	}
	return nil
}

// runAddrsWorker purges expired addresses when the pool is full, otherwise
// requests getaddr from a random connected peer.
func (n *Node) runAddrsWorker(ctx context.Context) error {
	if n.addrs.Len() >= n.cfg.MaxAddr {
		removed := n.addrs.PurgeExpired(time.Now().Add(-24 * time.Hour))
		if removed > 0 {
			n.log.Info(ctx, "node: addrs worker: purged %d expired addresses", removed)
		}
		return nil
	}
	target, ok := n.cohort.PickUniform()
	if !ok {
		return nil
	}
	peer, ok := n.cohort.Get(target)
	if !ok {
		return nil
	}
	if err := peer.Send(p2p.CmdGetAddr, p2p.EncodeGetAddrPayload()); err != nil {
		n.log.Warn(ctx, "node: addrs worker: getaddr to %s failed: %s", target, err)
	}
	return nil
}

// runInvQueueWorker drains the inventory queue, issuing getdata for each
// item that is not already in flight. It pauses whenever the object queue is
// at capacity, providing the spec's backpressure guarantee.
func (n *Node) runInvQueueWorker(ctx context.Context) error {
	for {
		if n.objQ.AtCapacity() {
			return nil
		}
		raw, ok := n.invQ.Pop()
		if !ok {
			return nil
		}
		item := raw.(invQueueItem)

		peer, ok := n.cohort.Get(item.Peer)
		if !ok {
			continue
		}
		payload, err := p2p.EncodeInvPayload([]p2p.InvVector{{Type: item.Kind, Hash: item.Hash}})
		if err != nil {
			continue
		}
		if err := peer.Send(p2p.CmdGetData, payload); err != nil {
			n.log.Warn(ctx, "node: inv worker: getdata to %s failed: %s", item.Peer, err)
		}
	}
}

// runObjectQueueWorker drains the object queue and applies each item to the
// Store on the worker pool, serialized one at a time as the spec requires,
// while CPU-bound application work itself can run off the I/O thread.
func (n *Node) runObjectQueueWorker(ctx context.Context) error {
	for {
		raw, ok := n.objQ.Pop()
		if !ok {
			return nil
		}
		item := raw.(objectQueueItem)
		n.applyObject(ctx, item)
	}
}

func (n *Node) applyObject(ctx context.Context, item objectQueueItem) {
	n.workerSem <- struct{}{}
	defer func() { <-n.workerSem }()

	switch item.Kind {
	case objectKindBlock:
		result, err := n.store.StoreBlock(item.Block)
		if err != nil {
			n.log.Warn(ctx, "node: object worker: store block failed: %s", err)
			return
		}
		if result == store.BlockNew {
			hash := item.Block.Hash()
			_, depth, _, _ := n.store.Head()
			n.notify.Publish(Notification{Kind: NotifyBlock, Hash: hash, Depth: depth})
		}
	case objectKindTx:
		result, err := n.store.StoreTx(item.Tx)
		if err != nil {
			n.log.Warn(ctx, "node: object worker: store tx failed: %s", err)
			return
		}
		if result == store.TxNew {
			n.notify.Publish(Notification{Kind: NotifyTx, Hash: item.Tx.Hash()})
		}
	}
}

// runBlockDownloadWorker issues getblocks (or getheaders when headers-only
// is configured) to a random connected peer whenever both queues are idle.
func (n *Node) runBlockDownloadWorker(ctx context.Context) error {
	if n.invQ.Len() > 0 || n.objQ.Len() > 0 {
		return nil
	}
	target, ok := n.cohort.PickUniform()
	if !ok {
		return nil
	}
	peer, ok := n.cohort.Get(target)
	if !ok {
		return nil
	}

	headBlock, _, hasHead, _ := n.store.Head()
	locator := p2p.LocatorPayload{}
	if hasHead && headBlock != nil {
		locator.BlockLocator = []bchash.Hash{headBlock.Hash()}
	}

	if n.cfg.HeadersOnly {
		payload, err := p2p.EncodeGetHeadersPayload(locator)
		if err != nil {
			return nil
		}
		return sendOrLog(ctx, n.log, peer, p2p.CmdGetHeaders, payload, target)
	}
	payload, err := p2p.EncodeGetBlocksPayload(locator)
	if err != nil {
		return nil
	}
	return sendOrLog(ctx, n.log, peer, p2p.CmdGetBlocks, payload, target)
}

func sendOrLog(ctx context.Context, log Logger, peer *p2p.Peer, command string, payload []byte, target string) error {
	if err := peer.Send(command, payload); err != nil {
		log.Warn(ctx, "node: block-download worker: %s to %s failed: %s", command, target, err)
	}
	return nil
}

// SubmitTx stores a locally-originated transaction and relays an inv to a
// random majority of connected peers.
func (n *Node) SubmitTx(ctx context.Context, tx *wire.Tx) error {
	result, err := n.store.StoreTx(tx)
	if err != nil {
		return fmt.Errorf("node: submit tx: %w", err)
	}
	if result != store.TxNew {
		return nil
	}
	n.notify.Publish(Notification{Kind: NotifyTx, Hash: tx.Hash()})

	targets := n.cohort.PickMajority()
	payload, err := p2p.EncodeInvPayload([]p2p.InvVector{{Type: p2p.InvTypeTx, Hash: tx.Hash()}})
	if err != nil {
		return fmt.Errorf("node: submit tx: encode inv: %w", err)
	}
	for _, addr := range targets {
		peer, ok := n.cohort.Get(addr)
		if !ok {
			continue
		}
		if err := peer.Send(p2p.CmdInv, payload); err != nil {
			n.log.Warn(ctx, "node: relay tx to %s failed: %s", addr, err)
		}
	}
	return nil
}
