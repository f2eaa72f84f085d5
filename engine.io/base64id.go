package eio

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"sync/atomic"
)

const (
	Base64IDSize   = 15
	Base64IDMaxTry = 10
)

var (
	ErrBase64IDMaxTryReached = fmt.Errorf("base64 ID generation failed: max retries reached")
	errBase64IDInvalidSize   = fmt.Errorf("base64 ID generation failed: invalid size")

	// base64IDSeq is folded into the tail of every generated ID so that
	// two IDs minted in the same instant, even from concurrent
	// goroutines, never collide on the random bytes alone.
	base64IDSeq atomic.Uint32
)

// GenerateBase64ID returns a size-byte random value, URL-base64
// encoded, with a monotonically increasing 4-byte sequence number
// packed into its final bytes.
func GenerateBase64ID(size int) (string, error) {
	const seqBytes = 4
	if size <= seqBytes {
		return "", errBase64IDInvalidSize
	}

	buf := make([]byte, size)
	randomPart := size - seqBytes

	if _, err := rand.Read(buf[:randomPart+1]); err != nil {
		return "", err
	}

	seq := base64IDSeq.Add(1)
	binary.BigEndian.PutUint32(buf[randomPart:], seq)

	return base64.URLEncoding.EncodeToString(buf), nil
}

// generateSID picks a session ID that isn't already in use by the
// server's session store, retrying on collision up to Base64IDMaxTry
// times before giving up.
func (s *Server) generateSID() (string, error) {
	for attempt := 0; attempt <= Base64IDMaxTry; attempt++ {
		sid, err := GenerateBase64ID(Base64IDSize)
		if err != nil {
			return "", err
		}
		if !s.store.Exists(sid) {
			return sid, nil
		}
	}
	return "", ErrBase64IDMaxTryReached
}
