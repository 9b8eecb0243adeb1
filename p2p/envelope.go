// Package p2p implements the Bitcoin peer-to-peer wire envelope, the
// version/verack handshake, inventory/address/ping messages, a peer state
// machine, and ban-score policy. It is the Go-native generalization of the
// teacher's node/p2p package, keeping its envelope/handshake/peer-loop shape
// while swapping the SHA3-256 checksum for double-SHA256 and the chain-ID
// handshake for the plain version/verack exchange §6 describes.
package p2p

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode"

	"github.com/btcarch/node/internal/bchash"
)

const (
	// EnvelopeBytes is the fixed header length for every P2P message:
	// magic(4) || command(12) || length(4 LE) || checksum(4).
	EnvelopeBytes = 24
	CommandBytes  = 12

	// MaxPayloadBytes bounds a single message's payload.
	MaxPayloadBytes = 32 * 1024 * 1024
)

// Message is one decoded P2P wire message.
type Message struct {
	Magic   uint32
	Command string
	Payload []byte
}

// ReadError conveys how the caller should treat a malformed P2P message:
// some failures are merely dropped and ban-scored, others force a
// disconnect (§7 NetworkError policy).
type ReadError struct {
	Err           error
	BanScoreDelta int
	Disconnect    bool
}

func (e *ReadError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func checksum4(payload []byte) [4]byte {
	d := bchash.Double(payload)
	var out [4]byte
	copy(out[:], d[:4])
	return out
}

func encodeCommand(cmd string) ([CommandBytes]byte, error) {
	var out [CommandBytes]byte
	if cmd == "" || len(cmd) > CommandBytes {
		return out, fmt.Errorf("p2p: invalid command %q", cmd)
	}
	for i := 0; i < len(cmd); i++ {
		c := cmd[i]
		if c >= 0x80 || c == 0x00 || !unicode.IsPrint(rune(c)) {
			return out, fmt.Errorf("p2p: command contains non-printable byte")
		}
		out[i] = c
	}
	return out, nil
}

func decodeCommand(b [CommandBytes]byte) (string, error) {
	n := CommandBytes
	for i := 0; i < CommandBytes; i++ {
		if b[i] == 0x00 {
			n = i
			break
		}
	}
	for i := n; i < CommandBytes; i++ {
		if b[i] != 0x00 {
			return "", fmt.Errorf("p2p: command not NUL-padded")
		}
	}
	if n == 0 {
		return "", fmt.Errorf("p2p: empty command")
	}
	return string(b[:n]), nil
}

// WriteMessage writes one envelope-framed message to w.
func WriteMessage(w io.Writer, magic uint32, command string, payload []byte) error {
	cmd12, err := encodeCommand(command)
	if err != nil {
		return err
	}
	if len(payload) > MaxPayloadBytes {
		return fmt.Errorf("p2p: payload exceeds %d bytes", MaxPayloadBytes)
	}

	var hdr [EnvelopeBytes]byte
	binary.LittleEndian.PutUint32(hdr[0:4], magic)
	copy(hdr[4:16], cmd12[:])
	binary.LittleEndian.PutUint32(hdr[16:20], uint32(len(payload)))
	c4 := checksum4(payload)
	copy(hdr[20:24], c4[:])

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err = w.Write(payload)
	return err
}

// ReadMessage reads exactly one envelope-framed message from r.
//
// Policy: a short header, a magic mismatch and an oversize payload length
// disconnect without a ban-score penalty (they indicate a different network
// or a dead connection); a truncated payload disconnects and adds 20 to the
// ban score; a malformed command or a checksum mismatch drops the message
// and adds 10 without disconnecting.
func ReadMessage(r io.Reader, expectedMagic uint32) (*Message, *ReadError) {
	var hdr [EnvelopeBytes]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, &ReadError{Err: err, Disconnect: true}
	}

	magic := binary.LittleEndian.Uint32(hdr[0:4])
	if magic != expectedMagic {
		return nil, &ReadError{Err: fmt.Errorf("p2p: magic mismatch"), Disconnect: true}
	}

	var cmdBytes [CommandBytes]byte
	copy(cmdBytes[:], hdr[4:16])
	cmd, err := decodeCommand(cmdBytes)
	if err != nil {
		return nil, &ReadError{Err: err, BanScoreDelta: 10}
	}

	payloadLen := binary.LittleEndian.Uint32(hdr[16:20])
	if payloadLen > MaxPayloadBytes {
		return nil, &ReadError{Err: fmt.Errorf("p2p: payload_length exceeds max"), Disconnect: true}
	}

	var expectedC4 [4]byte
	copy(expectedC4[:], hdr[20:24])

	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, &ReadError{Err: err, BanScoreDelta: 20, Disconnect: true}
		}
	}

	got := checksum4(payload)
	if !bytes.Equal(expectedC4[:], got[:]) {
		return nil, &ReadError{Err: fmt.Errorf("p2p: checksum mismatch"), BanScoreDelta: 10}
	}

	return &Message{Magic: magic, Command: cmd, Payload: payload}, nil
}
