//go:build sio_sonic

package json

import "github.com/bytedance/sonic"

var (
	Marshal       = sonic.Marshal
	Unmarshal     = sonic.Unmarshal
	MarshalIndent = sonic.ConfigStd.MarshalIndent
	NewDecoder    = sonic.ConfigStd.NewDecoder
	NewEncoder    = sonic.ConfigStd.NewEncoder
)
