package jsonparser

import (
	"github.com/kamros/sio/parser"
	"github.com/kamros/sio/parser/json/serializer"
)

// maxAttachments is the maximum number of the binary attachments to parse/send.
// If maxAttachments is 0, there will be no limit set for binary attachments.
//
// json selects the backend used to marshal/unmarshal packet payloads, e.g.
// serializer/stdjson.New(), serializer/sonic.New(...), or serializer/go-json.New(...).
func NewCreator(maxAttachments int, json serializer.JSONSerializer) parser.Creator {
	return func() parser.Parser {
		return &Parser{
			maxAttachments: maxAttachments,
			json:           json,
		}
	}
}

type Parser struct {
	r              *reconstructor
	maxAttachments int
	json           serializer.JSONSerializer
}

// Reset discards any in-progress, partially-reconstructed packet. Used when
// the underlying connection is closed or resets mid-packet.
func (p *Parser) Reset() {
	p.r = nil
}
