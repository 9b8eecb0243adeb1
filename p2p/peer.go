package p2p

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/btcarch/node/wire"
)

// PeerState is a position in the connection lifecycle (§4.4 Peer state
// machine): connecting -> handshaking -> connected -> closing. closing is
// terminal; the connection is removed from the cohort.
type PeerState int

const (
	StateConnecting PeerState = iota
	StateHandshaking
	StateConnected
	StateClosing
)

func (s PeerState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

type PeerRole int

const (
	PeerRoleInbound PeerRole = iota
	PeerRoleOutbound
)

// Handler receives decoded messages from a Peer's read loop. Only
// StateConnected peers participate in inventory and block requests; the
// peer loop itself enforces that by completing the handshake first.
type Handler interface {
	OnInv(p *Peer, vecs []InvVector) error
	OnGetData(p *Peer, vecs []InvVector) error
	OnNotFound(p *Peer, vecs []InvVector) error
	OnGetBlocks(p *Peer, req *LocatorPayload) error
	OnGetHeaders(p *Peer, req *LocatorPayload) ([]wire.BlockHeader, error)
	OnHeaders(p *Peer, headers []wire.BlockHeader) error
	OnBlock(p *Peer, blockBytes []byte) error
	OnTx(p *Peer, txBytes []byte) error
	OnAddr(p *Peer, addrs []PeerAddress) error
	OnGetAddr(p *Peer) ([]PeerAddress, error)
}

// Peer is one P2P connection: its socket, handshake state, and ban score.
type Peer struct {
	Conn        net.Conn
	Role        PeerRole
	Magic       uint32
	OurVersion  VersionPayload
	IdleTimeout time.Duration

	State       PeerState
	PeerVersion VersionPayload
	Ban         BanScore
}

func NewPeer(conn net.Conn, role PeerRole, magic uint32, ourVersion VersionPayload) (*Peer, error) {
	if conn == nil {
		return nil, fmt.Errorf("p2p: peer: nil conn")
	}
	return &Peer{Conn: conn, Role: role, Magic: magic, OurVersion: ourVersion, State: StateConnecting}, nil
}

func (p *Peer) Send(command string, payload []byte) error {
	return WriteMessage(p.Conn, p.Magic, command, payload)
}

// Run drives the peer from connecting through the handshake into the
// message loop, returning when the connection closes or ctx is canceled.
func (p *Peer) Run(ctx context.Context, h Handler) error {
	if h == nil {
		return fmt.Errorf("p2p: peer: nil handler")
	}

	p.State = StateHandshaking
	peerVersion, err := Handshake(p.Conn, p.Magic, p.OurVersion)
	if err != nil {
		p.State = StateClosing
		return err
	}
	p.PeerVersion = *peerVersion
	p.State = StateConnected

	if ctx != nil {
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				_ = p.Conn.Close()
			case <-done:
			}
		}()
		defer close(done)
	}

	for {
		if ctx != nil {
			select {
			case <-ctx.Done():
				p.State = StateClosing
				return ctx.Err()
			default:
			}
		}
		if p.IdleTimeout > 0 {
			_ = p.Conn.SetReadDeadline(time.Now().Add(p.IdleTimeout))
		}

		msg, rerr := ReadMessage(p.Conn, p.Magic)
		if rerr != nil {
			now := time.Now()
			p.Ban.Add(now, rerr.BanScoreDelta)
			if p.Ban.ShouldBan(now) || rerr.Disconnect {
				p.State = StateClosing
				return rerr
			}
			continue
		}

		now := time.Now()
		if p.Ban.ShouldThrottle(now) {
			time.Sleep(ThrottleDelay)
		}

		if err := p.dispatch(h, msg, now); err != nil {
			p.State = StateClosing
			return err
		}
	}
}

func (p *Peer) dispatch(h Handler, msg *Message, now time.Time) error {
	switch msg.Command {
	case CmdPing:
		pp, err := DecodePingPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(now, 10)
			return nil
		}
		return p.Send(CmdPong, EncodePongPayload(PongPayload{Nonce: pp.Nonce}))
	case CmdPong:
		return nil
	case CmdGetBlocks:
		req, err := DecodeGetBlocksPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(now, 10)
			return nil
		}
		if err := h.OnGetBlocks(p, req); err != nil {
			return nil // local failure, not peer misbehavior
		}
		return nil
	case CmdGetHeaders:
		req, err := DecodeGetHeadersPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(now, 10)
			return nil
		}
		headers, err := h.OnGetHeaders(p, req)
		if err != nil {
			return nil
		}
		payload, err := EncodeHeadersPayload(headers)
		if err != nil {
			return nil
		}
		return p.Send(CmdHeaders, payload)
	case CmdHeaders:
		headers, err := DecodeHeadersPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(now, 10)
			return nil
		}
		if err := h.OnHeaders(p, headers); err != nil {
			p.Ban.Add(now, 10)
		}
		return nil
	case CmdInv:
		vecs, err := DecodeInvPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(now, 10)
			return nil
		}
		if err := h.OnInv(p, vecs); err != nil {
			p.Ban.Add(now, 5)
		}
		return nil
	case CmdGetData:
		vecs, err := DecodeInvPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(now, 10)
			return nil
		}
		if err := h.OnGetData(p, vecs); err != nil {
			p.Ban.Add(now, 2)
		}
		return nil
	case CmdNotFound:
		vecs, err := DecodeInvPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(now, 10)
			return nil
		}
		return h.OnNotFound(p, vecs)
	case CmdBlock:
		if err := h.OnBlock(p, msg.Payload); err != nil {
			p.Ban.Add(now, 100)
			if p.Ban.ShouldBan(now) {
				return fmt.Errorf("p2p: peer: invalid block (banned): %w", err)
			}
		}
		return nil
	case CmdTx:
		if err := h.OnTx(p, msg.Payload); err != nil {
			p.Ban.Add(now, 5)
		}
		return nil
	case CmdAddr:
		addrs, err := DecodeAddrPayload(msg.Payload)
		if err != nil {
			p.Ban.Add(now, 10)
			return nil
		}
		return h.OnAddr(p, addrs)
	case CmdGetAddr:
		if err := DecodeGetAddrPayload(msg.Payload); err != nil {
			p.Ban.Add(now, 10)
			return nil
		}
		addrs, err := h.OnGetAddr(p)
		if err != nil {
			return nil
		}
		payload, err := EncodeAddrPayload(addrs)
		if err != nil {
			return nil
		}
		return p.Send(CmdAddr, payload)
	default:
		return nil
	}
}
