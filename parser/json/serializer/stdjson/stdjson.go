// Package stdjson adapts the standard library's encoding/json to the
// serializer.JSONSerializer interface. This is the default backend:
// no build tags, no CGo, no external dependency required.
package stdjson

import (
	"encoding/json"
	"io"

	"github.com/kamros/sio/parser/json/serializer"
)

type stdjsonSerializer struct{}

// New builds a serializer.JSONSerializer backed by encoding/json.
func New() serializer.JSONSerializer {
	return stdjsonSerializer{}
}

func (stdjsonSerializer) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (stdjsonSerializer) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (stdjsonSerializer) NewEncoder(w io.Writer) serializer.JSONEncoder {
	return json.NewEncoder(w)
}

func (stdjsonSerializer) NewDecoder(r io.Reader) serializer.JSONDecoder {
	return json.NewDecoder(r)
}
