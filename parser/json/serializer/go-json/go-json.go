// Package gojson adapts github.com/goccy/go-json to the serializer.JSONSerializer
// interface, so the Socket.IO packet encoder can be built against go-json
// instead of encoding/json or sonic without any change to its own code.
package gojson

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/kamros/sio/parser/json/serializer"
)

type gojsonSerializer struct {
	encodeOptions []json.EncodeOptionFunc
	decodeOptions []json.DecodeOptionFunc
}

// New builds a serializer.JSONSerializer backed by go-json. Either
// option slice may be nil.
func New(encodeOptions []json.EncodeOptionFunc, decodeOptions []json.DecodeOptionFunc) serializer.JSONSerializer {
	return &gojsonSerializer{
		encodeOptions: encodeOptions,
		decodeOptions: decodeOptions,
	}
}

func (s *gojsonSerializer) Marshal(v any) ([]byte, error) {
	return json.MarshalWithOption(v, s.encodeOptions...)
}

func (s *gojsonSerializer) Unmarshal(data []byte, v any) error {
	return json.UnmarshalWithOption(data, v, s.decodeOptions...)
}

func (s *gojsonSerializer) NewEncoder(w io.Writer) serializer.JSONEncoder {
	return gojsonEncoder{enc: json.NewEncoder(w), options: s.encodeOptions}
}

func (s *gojsonSerializer) NewDecoder(r io.Reader) serializer.JSONDecoder {
	return gojsonDecoder{dec: json.NewDecoder(r), options: s.decodeOptions}
}

type gojsonEncoder struct {
	enc     *json.Encoder
	options []json.EncodeOptionFunc
}

func (e gojsonEncoder) Encode(v any) error {
	return e.enc.EncodeWithOption(v, e.options...)
}

type gojsonDecoder struct {
	dec     *json.Decoder
	options []json.DecodeOptionFunc
}

func (d gojsonDecoder) Decode(v any) error {
	return d.dec.DecodeWithOption(v, d.options...)
}
