package node

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/btcarch/node/p2p"
)

// cohort is the set of peer connections the node currently manages. Peers
// are added by the accept loop and by outbound dial goroutines and removed
// by each peer's own goroutine when its connection ends, while the periodic
// workers read the set concurrently; the mutex guards the map for all of
// them.
type cohort struct {
	mu    sync.RWMutex
	peers map[string]*p2p.Peer
}

func newCohort() *cohort {
	return &cohort{peers: make(map[string]*p2p.Peer)}
}

func (c *cohort) Add(addr string, peer *p2p.Peer) error {
	if peer == nil {
		return errors.New("node: nil peer")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peers[addr] = peer
	return nil
}

func (c *cohort) Remove(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.peers, addr)
}

func (c *cohort) Get(addr string) (*p2p.Peer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	peer, ok := c.peers[addr]
	return peer, ok
}

// Connected returns the addresses of peers in the connected state, which is
// the only state that participates in inventory and block requests.
func (c *cohort) Connected() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.peers))
	for addr, peer := range c.peers {
		if peer.State == p2p.StateConnected {
			out = append(out, addr)
		}
	}
	return out
}

func (c *cohort) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.peers)
}

// PickUniform returns a uniformly random connected peer, used for
// opportunistic actions like getaddr and block-download polling.
func (c *cohort) PickUniform() (string, bool) {
	connected := c.Connected()
	if len(connected) == 0 {
		return "", false
	}
	return connected[rand.Intn(len(connected))], true
}

// PickMajority returns a random subset of size len(connected)/2+1, used for
// relaying locally-submitted transactions to a majority of the cohort.
func (c *cohort) PickMajority() []string {
	connected := c.Connected()
	if len(connected) == 0 {
		return nil
	}
	n := len(connected)/2 + 1
	rand.Shuffle(len(connected), func(i, j int) { connected[i], connected[j] = connected[j], connected[i] })
	if n > len(connected) {
		n = len(connected)
	}
	return connected[:n]
}

func (c *cohort) CloseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for addr, peer := range c.peers {
		peer.Conn.Close()
		delete(c.peers, addr)
	}
}
