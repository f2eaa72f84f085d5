//go:build amd64 && (linux || windows || darwin)

// Package sonic adapts github.com/bytedance/sonic to the
// serializer.JSONSerializer interface. Sonic JIT-compiles its
// marshal/unmarshal paths, which is why it's restricted to the
// platforms its assembler targets.
package sonic

import (
	"io"

	"github.com/bytedance/sonic"

	"github.com/kamros/sio/parser/json/serializer"
)

// Config re-exports sonic.Config so callers configuring this backend
// don't need to import bytedance/sonic directly.
type Config = sonic.Config

type sonicSerializer struct {
	api sonic.API
}

// New builds a serializer.JSONSerializer backed by sonic, frozen from
// the given config.
func New(config Config) serializer.JSONSerializer {
	return &sonicSerializer{api: config.Froze()}
}

func (s *sonicSerializer) Marshal(v any) ([]byte, error) {
	return s.api.Marshal(v)
}

func (s *sonicSerializer) Unmarshal(data []byte, v any) error {
	return s.api.Unmarshal(data, v)
}

func (s *sonicSerializer) NewEncoder(w io.Writer) serializer.JSONEncoder {
	return s.api.NewEncoder(w)
}

func (s *sonicSerializer) NewDecoder(r io.Reader) serializer.JSONDecoder {
	return s.api.NewDecoder(r)
}
