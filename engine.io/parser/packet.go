package parser

import (
	"encoding/base64"
	"fmt"
)

// PacketType is the single-digit type prefix an Engine.IO packet is
// framed with on the wire ('0' for open, '1' for close, and so on).
type PacketType byte

const (
	PacketTypeOpen PacketType = iota
	PacketTypeClose
	PacketTypePing
	PacketTypePong
	PacketTypeMessage
	PacketTypeUpgrade
	PacketTypeNoop

	packetTypeMin = PacketTypeOpen
	packetTypeMax = PacketTypeNoop
)

// asciiDigitZero is the wire encoding of packetTypeMin: packet types
// are framed as the ASCII digit '0'+type, not the raw byte value.
const asciiDigitZero byte = '0'

// base64Prefix marks a text frame as a binary Engine.IO packet that
// was base64-encoded for a transport that can't carry raw bytes.
const base64Prefix byte = 'b'

var (
	errInvalidPacketSize = fmt.Errorf("parser: invalid packet size")
	errInvalidPacketType = fmt.Errorf("parser: invalid packet type")
)

func (p PacketType) ToChar() byte {
	return asciiDigitZero + byte(p)
}

func (p *PacketType) FromChar(c byte) error {
	if c < asciiDigitZero || c > asciiDigitZero+byte(packetTypeMax) {
		return errInvalidPacketType
	}
	*p = PacketType(c - asciiDigitZero)
	return nil
}

// Packet is one frame of the Engine.IO packet stream: a type plus an
// optional payload, which may be binary (carried raw on transports
// that support it, or base64-encoded on ones that don't).
type Packet struct {
	IsBinary bool
	Type     PacketType
	Data     []byte
}

func NewPacket(packetType PacketType, isBinary bool, data []byte) (*Packet, error) {
	// Only message packets may carry a binary payload; every other
	// packet type is control framing with no payload of its own.
	if isBinary && packetType != PacketTypeMessage {
		return nil, errInvalidPacketType
	}
	return &Packet{IsBinary: isBinary, Type: packetType, Data: data}, nil
}

// Parse decodes a single wire frame. binaryData reports whether the
// transport already delivered data as a raw binary frame (true for
// WebSocket binary frames); otherwise data is a text frame whose
// first byte is either the base64 marker or an ASCII packet-type
// digit.
func Parse(data []byte, binaryData bool) (*Packet, error) {
	if binaryData {
		return &Packet{IsBinary: true, Type: PacketTypeMessage, Data: data}, nil
	}

	if len(data) < 1 {
		return nil, errInvalidPacketSize
	}

	if data[0] == base64Prefix {
		return parseBase64Message(data[1:])
	}
	return parseTextPacket(data)
}

func parseBase64Message(encoded []byte) (*Packet, error) {
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Decode(decoded, encoded)
	if err != nil {
		return nil, err
	}
	return &Packet{IsBinary: true, Type: PacketTypeMessage, Data: decoded[:n]}, nil
}

func parseTextPacket(data []byte) (*Packet, error) {
	var t PacketType
	if err := t.FromChar(data[0]); err != nil {
		return nil, err
	}
	return &Packet{Type: t, Data: data[1:]}, nil
}

// Build renders the packet as a single wire frame. When the packet
// carries binary data but supportsBinary is false, the payload is
// base64-encoded and prefixed with base64Prefix instead of being sent
// raw.
func (p *Packet) Build(supportsBinary bool) []byte {
	if p.IsBinary {
		if supportsBinary {
			return p.Data
		}
		return buildBase64Frame(p.Data)
	}

	b := make([]byte, 1+len(p.Data))
	b[0] = p.Type.ToChar()
	copy(b[1:], p.Data)
	return b
}

func buildBase64Frame(data []byte) []byte {
	b := make([]byte, 1+base64.StdEncoding.EncodedLen(len(data)))
	b[0] = base64Prefix
	base64.StdEncoding.Encode(b[1:], data)
	return b
}
