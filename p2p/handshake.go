package p2p

import (
	"fmt"
	"net"
	"time"
)

const HandshakeTimeout = 10 * time.Second

// Handshake performs the version/verack exchange (§4.4 peer state machine,
// handshaking state): send our version, wait for the peer's version, send
// verack, wait for the peer's verack. The caller is responsible for closing
// conn on error.
func Handshake(conn net.Conn, magic uint32, ourVersion VersionPayload) (*VersionPayload, error) {
	if conn == nil {
		return nil, fmt.Errorf("p2p: handshake: nil conn")
	}

	payload, err := EncodeVersionPayload(ourVersion)
	if err != nil {
		return nil, err
	}
	if err := WriteMessage(conn, magic, CmdVersion, payload); err != nil {
		return nil, err
	}

	_ = conn.SetReadDeadline(time.Now().Add(HandshakeTimeout))

	var peerVersion *VersionPayload
	for peerVersion == nil {
		msg, rerr := ReadMessage(conn, magic)
		if rerr != nil {
			if !rerr.Disconnect {
				continue
			}
			return nil, rerr
		}
		switch msg.Command {
		case CmdVersion:
			v, err := DecodeVersionPayload(msg.Payload)
			if err != nil {
				return nil, err
			}
			peerVersion = v
		case CmdVerack:
			continue // early verack, ignore until we've seen their version
		default:
			continue
		}
	}

	if err := WriteMessage(conn, magic, CmdVerack, nil); err != nil {
		return nil, err
	}
	_ = conn.SetReadDeadline(time.Now().Add(HandshakeTimeout))

	for {
		msg, rerr := ReadMessage(conn, magic)
		if rerr != nil {
			if !rerr.Disconnect {
				continue
			}
			return nil, rerr
		}
		switch msg.Command {
		case CmdVerack:
			if len(msg.Payload) != 0 {
				return nil, fmt.Errorf("p2p: handshake: verack payload must be empty")
			}
			_ = conn.SetReadDeadline(time.Time{})
			return peerVersion, nil
		case CmdVersion:
			return nil, fmt.Errorf("p2p: handshake: duplicate version")
		default:
			continue
		}
	}
}
