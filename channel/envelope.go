package channel

import "github.com/kamros/sio/internal/json"

// envelope wraps a published payload with the id of the instance that
// published it, so a RedisLayer subscriber can recognize and discard the
// echo of its own publish (that traffic was already delivered to local
// sockets directly by the adapter before Publish was ever called).
type envelope struct {
	InstanceID string `json:"i"`
	Payload    []byte `json:"p"`
}

func encodeEnvelope(e envelope) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEnvelope(data []byte) (envelope, error) {
	var e envelope
	err := json.Unmarshal(data, &e)
	return e, err
}
