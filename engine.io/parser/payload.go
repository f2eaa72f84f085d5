package parser

import (
	"bufio"
	"encoding/base64"
	"io"
)

const payloadDelimiter byte = 30

// EncodedPayloadsLen returns the exact number of bytes EncodePayloads would
// write for packets, so callers can set a Content-Length header or
// pre-size a buffer before encoding.
func EncodedPayloadsLen(packets ...*Packet) int {
	l := 0
	for i, packet := range packets {
		if packet.IsBinary {
			l += 1 + base64.StdEncoding.EncodedLen(len(packet.Data))
		} else {
			l += 1 + len(packet.Data)
		}
		if i != len(packets)-1 {
			l += 1
		}
	}
	return l
}

// EncodePayloads writes packets to w, separated by the Engine.IO record
// separator. Each packet is built in its non-binary-capable form (base64),
// since HTTP long-polling has no way to frame raw binary alongside text.
func EncodePayloads(w io.Writer, packets ...*Packet) error {
	for i, packet := range packets {
		built := packet.Build(false)
		if _, err := w.Write(built); err != nil {
			return err
		}
		if i != len(packets)-1 {
			if _, err := w.Write([]byte{payloadDelimiter}); err != nil {
				return err
			}
		}
	}
	return nil
}

// DecodePayloads reads a batch of record-separator-delimited packets from r.
func DecodePayloads(r io.Reader) ([]*Packet, error) {
	packets := make([]*Packet, 0, 1) // Minimum 1 packet expected

	br := bufio.NewReader(r)
	for {
		chunk, err := br.ReadBytes(payloadDelimiter)
		if err != nil && err != io.EOF {
			return nil, err
		}

		// Strip the trailing delimiter ReadBytes includes on a match.
		if len(chunk) > 0 && chunk[len(chunk)-1] == payloadDelimiter {
			chunk = chunk[:len(chunk)-1]
		}

		packet, perr := Parse(chunk, false)
		if perr != nil {
			return nil, perr
		}
		packets = append(packets, packet)

		if err == io.EOF {
			break
		}
	}

	return packets, nil
}
