package adapter

import mapset "github.com/deckarep/golang-set/v2"

type BroadcastOptions struct {
	Rooms  mapset.Set[Room]
	Except mapset.Set[Room]
	Flags  BroadcastFlags
}

type BroadcastFlags struct {
	// This flag is unused at the moment, but for compatibility with the socket.io API, it stays here.
	Compress bool

	Local bool
}

func NewBroadcastOptions() *BroadcastOptions {
	return &BroadcastOptions{
		Rooms:  mapset.NewSet[Room](),
		Except: mapset.NewSet[Room](),
	}
}

// The chainable To/In/Except/Emit broadcast builder lives one layer up, on
// the sio package's BroadcastOperator, since it
// needs to reach the parser and namespace in order to encode and route an
// emission. This package only carries the options that builder produces.
