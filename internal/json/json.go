//go:build !sio_sonic

package json

import gojson "github.com/goccy/go-json"

var (
	Marshal       = gojson.Marshal
	Unmarshal     = gojson.Unmarshal
	MarshalIndent = gojson.MarshalIndent
	NewDecoder    = gojson.NewDecoder
	NewEncoder    = gojson.NewEncoder
)
