package p2p

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/btcarch/node/wire"
)

const MaxUserAgentBytes = 256

// VersionPayload is the peer-identification payload exchanged first in the
// handshake.
type VersionPayload struct {
	ProtocolVersion uint32
	Services        uint64
	Timestamp       int64
	Nonce           uint64
	UserAgent       string
	StartHeight     uint32
	Relay           bool
}

func EncodeVersionPayload(v VersionPayload) ([]byte, error) {
	if len(v.UserAgent) > MaxUserAgentBytes {
		return nil, fmt.Errorf("p2p: version: user_agent too long")
	}
	if !utf8.ValidString(v.UserAgent) {
		return nil, fmt.Errorf("p2p: version: user_agent must be UTF-8")
	}

	out := make([]byte, 0, 4+8+8+8+9+len(v.UserAgent)+4+1)
	var tmp8 [8]byte
	var tmp4 [4]byte

	binary.LittleEndian.PutUint32(tmp4[:], v.ProtocolVersion)
	out = append(out, tmp4[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], v.Services)
	out = append(out, tmp8[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], uint64(v.Timestamp))
	out = append(out, tmp8[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], v.Nonce)
	out = append(out, tmp8[:]...)

	out = wire.WriteVarInt(out, uint64(len(v.UserAgent)))
	out = append(out, v.UserAgent...)

	binary.LittleEndian.PutUint32(tmp4[:], v.StartHeight)
	out = append(out, tmp4[:]...)

	if v.Relay {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	return out, nil
}

func DecodeVersionPayload(b []byte) (*VersionPayload, error) {
	if len(b) < 4+8+8+8+1 {
		return nil, fmt.Errorf("p2p: version: truncated")
	}
	off := 0
	proto := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	services := binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	timestamp := int64(binary.LittleEndian.Uint64(b[off : off+8]))
	off += 8
	nonce := binary.LittleEndian.Uint64(b[off : off+8])
	off += 8

	uaLen, used, err := wire.ReadVarInt(b[off:])
	if err != nil {
		return nil, fmt.Errorf("p2p: version: %w", err)
	}
	off += used
	if uaLen > MaxUserAgentBytes {
		return nil, fmt.Errorf("p2p: version: user_agent_len exceeds max")
	}
	if len(b) < off+int(uaLen)+4+1 {
		return nil, fmt.Errorf("p2p: version: truncated user_agent")
	}
	uaBytes := b[off : off+int(uaLen)]
	off += int(uaLen)
	if !utf8.Valid(uaBytes) {
		return nil, fmt.Errorf("p2p: version: user_agent must be UTF-8")
	}
	startHeight := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	relayByte := b[off]
	off++
	if relayByte != 0 && relayByte != 1 {
		return nil, fmt.Errorf("p2p: version: relay must be 0 or 1")
	}
	if off != len(b) {
		return nil, fmt.Errorf("p2p: version: trailing bytes")
	}

	return &VersionPayload{
		ProtocolVersion: proto,
		Services:        services,
		Timestamp:       timestamp,
		Nonce:           nonce,
		UserAgent:       string(uaBytes),
		StartHeight:     startHeight,
		Relay:           relayByte == 1,
	}, nil
}
