//go:build !sio_deadlock

// Package sync re-exports the standard library's sync primitives.
// Under build tag sio_deadlock (see sync_deadlock.go), the same names
// instead resolve to github.com/sasha-s/go-deadlock's drop-in
// equivalents, which panic with a stack trace the moment they detect
// a lock cycle instead of hanging. Every other package in this module
// imports this package rather than "sync" directly, so a single build
// tag turns on deadlock detection across the whole tree.
package sync

import "sync"

type (
	Mutex     = sync.Mutex
	RWMutex   = sync.RWMutex
	Once      = sync.Once
	WaitGroup = sync.WaitGroup
	Locker    = sync.Locker
	Map       = sync.Map
	Cond      = sync.Cond
	Pool      = sync.Pool
)
