package p2p

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/btcarch/node/wire"
)

const MaxAddrEntries = 1_000

// PeerAddress is one entry of an addr message: a network address the
// sender claims to know about, with the sender's view of when it was last
// seen active.
type PeerAddress struct {
	LastSeen uint32
	Services uint64
	IP       net.IP // 16-byte form, IPv4-mapped when applicable
	Port     uint16
}

func EncodeAddrPayload(addrs []PeerAddress) ([]byte, error) {
	if len(addrs) > MaxAddrEntries {
		return nil, fmt.Errorf("p2p: addr: too many entries")
	}
	out := wire.WriteVarInt(make([]byte, 0, 9+len(addrs)*30), uint64(len(addrs)))
	for _, a := range addrs {
		var tmp4 [4]byte
		var tmp8 [8]byte
		binary.LittleEndian.PutUint32(tmp4[:], a.LastSeen)
		out = append(out, tmp4[:]...)
		binary.LittleEndian.PutUint64(tmp8[:], a.Services)
		out = append(out, tmp8[:]...)
		ip16 := a.IP.To16()
		if ip16 == nil {
			return nil, fmt.Errorf("p2p: addr: invalid IP")
		}
		out = append(out, ip16...)
		var port [2]byte
		binary.BigEndian.PutUint16(port[:], a.Port)
		out = append(out, port[:]...)
	}
	return out, nil
}

const addrEntryBytes = 4 + 8 + 16 + 2

func DecodeAddrPayload(b []byte) ([]PeerAddress, error) {
	count, used, err := wire.ReadVarInt(b)
	if err != nil {
		return nil, fmt.Errorf("p2p: addr: %w", err)
	}
	if count > MaxAddrEntries {
		return nil, fmt.Errorf("p2p: addr: count exceeds max")
	}
	need := used + int(count)*addrEntryBytes
	if len(b) != need {
		return nil, fmt.Errorf("p2p: addr: length mismatch")
	}
	off := used
	out := make([]PeerAddress, 0, count)
	for i := uint64(0); i < count; i++ {
		lastSeen := binary.LittleEndian.Uint32(b[off : off+4])
		off += 4
		services := binary.LittleEndian.Uint64(b[off : off+8])
		off += 8
		ip := make(net.IP, 16)
		copy(ip, b[off:off+16])
		off += 16
		port := binary.BigEndian.Uint16(b[off : off+2])
		off += 2
		out = append(out, PeerAddress{LastSeen: lastSeen, Services: services, IP: ip, Port: port})
	}
	return out, nil
}

// EncodeGetAddrPayload and DecodeGetAddrPayload exist for symmetry; getaddr
// carries no payload.
func EncodeGetAddrPayload() []byte { return nil }

func DecodeGetAddrPayload(b []byte) error {
	if len(b) != 0 {
		return fmt.Errorf("p2p: getaddr: payload must be empty")
	}
	return nil
}
