package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// KeySize is the fixed frame key width in bytes.
	KeySize = 4
	// MaxPacketSize is the USB bulk max packet size. A packet shorter
	// than this ends the logical message; a message whose length is an
	// exact multiple is terminated by an explicit zero-length packet.
	MaxPacketSize = 64
	// MaxMessageSize bounds one logical message. Both halves share one
	// working buffer of this capacity per connection.
	MaxMessageSize = 4096
)

// ErrMessageTooLarge is returned when a reassembled message would exceed
// the working buffer.
var ErrMessageTooLarge = errors.New("wire: message exceeds working buffer")

// PacketReader yields one transport packet per call, at most
// MaxPacketSize bytes. The USB transport maps this directly onto bulk IN
// transfers; stream transports synthesize packet boundaries.
type PacketReader interface {
	ReadPacket(buf []byte) (int, error)
}

// PacketWriter sends one transport packet, at most MaxPacketSize bytes.
type PacketWriter interface {
	WritePacket(p []byte) error
}

// PacketConn is a bidirectional packet transport.
type PacketConn interface {
	PacketReader
	PacketWriter
	Close() error
}

// ReadMessage reassembles one logical message into buf, consuming
// packets until a short (or zero-length) packet arrives. Returns the
// message length. If the message would not fit in buf the remainder is
// drained and ErrMessageTooLarge is returned so the connection stays
// usable.
func ReadMessage(r PacketReader, buf []byte) (int, error) {
	var pkt [MaxPacketSize]byte
	total := 0
	tooLarge := false
	for {
		n, err := r.ReadPacket(pkt[:])
		if err != nil {
			return 0, err
		}
		if !tooLarge {
			if total+n > len(buf) {
				tooLarge = true
			} else {
				copy(buf[total:], pkt[:n])
				total += n
			}
		}
		if n < MaxPacketSize {
			if tooLarge {
				return 0, ErrMessageTooLarge
			}
			return total, nil
		}
	}
}

// WriteMessage transmits msg as a sequence of MaxPacketSize packets with
// a short terminator. A message that is an exact multiple of the packet
// size is followed by a zero-length packet.
func WriteMessage(w PacketWriter, msg []byte) error {
	for len(msg) >= MaxPacketSize {
		if err := w.WritePacket(msg[:MaxPacketSize]); err != nil {
			return err
		}
		msg = msg[MaxPacketSize:]
	}
	// Final short packet; zero-length when the message filled the last
	// packet exactly (or was empty).
	return w.WritePacket(msg)
}

// AppendFrame encodes a frame header (key) followed by body into dst.
func AppendFrame(dst []byte, key uint32, body []byte) []byte {
	var hdr [KeySize]byte
	binary.LittleEndian.PutUint32(hdr[:], key)
	dst = append(dst, hdr[:]...)
	return append(dst, body...)
}

// SplitFrame separates a reassembled message into its key and body.
func SplitFrame(msg []byte) (key uint32, body []byte, err error) {
	if len(msg) < KeySize {
		return 0, nil, fmt.Errorf("wire: frame too short (%d bytes)", len(msg))
	}
	return binary.LittleEndian.Uint32(msg[:KeySize]), msg[KeySize:], nil
}

// streamConn adapts a byte stream (TCP, pipe, pty) into a PacketConn by
// prefixing each packet with its one-byte length. USB preserves packet
// boundaries on its own; byte streams do not, so the boundary has to be
// restated in-band.
type streamConn struct {
	rw io.ReadWriteCloser
}

// NewStreamConn wraps rw in the length-prefixed packet framing used by
// non-USB transports.
func NewStreamConn(rw io.ReadWriteCloser) PacketConn {
	return &streamConn{rw: rw}
}

func (s *streamConn) ReadPacket(buf []byte) (int, error) {
	var l [1]byte
	if _, err := io.ReadFull(s.rw, l[:]); err != nil {
		return 0, err
	}
	n := int(l[0])
	if n > MaxPacketSize {
		return 0, fmt.Errorf("wire: packet length %d exceeds max packet size", n)
	}
	if n > len(buf) {
		return 0, io.ErrShortBuffer
	}
	if _, err := io.ReadFull(s.rw, buf[:n]); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *streamConn) WritePacket(p []byte) error {
	if len(p) > MaxPacketSize {
		return fmt.Errorf("wire: packet length %d exceeds max packet size", len(p))
	}
	// Single write so concurrent closers cannot interleave header and body.
	out := make([]byte, 1+len(p))
	out[0] = byte(len(p))
	copy(out[1:], p)
	_, err := s.rw.Write(out)
	return err
}

func (s *streamConn) Close() error { return s.rw.Close() }
