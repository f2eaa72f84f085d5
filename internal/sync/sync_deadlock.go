//go:build sio_deadlock

package sync

import (
	"sync"

	"github.com/sasha-s/go-deadlock"
)

type (
	Mutex     = deadlock.Mutex
	RWMutex   = deadlock.RWMutex
	Once      = deadlock.Once
	WaitGroup = deadlock.WaitGroup
	Locker    = deadlock.Locker
	Map       = deadlock.Map
	Cond      = deadlock.Cond
	Pool      = deadlock.Pool
)

// go-deadlock has no OnceFunc equivalent; a one-shot function call
// doesn't block on a lock, so there's nothing for it to deadlock-check.
var OnceFunc = sync.OnceFunc
