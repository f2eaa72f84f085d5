package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLayerFanOut(t *testing.T) {
	layer := NewMemoryLayer()

	ch1, err := layer.Subscribe("sio:chat")
	require.NoError(t, err)
	ch2, err := layer.Subscribe("sio:chat")
	require.NoError(t, err)

	require.NoError(t, layer.Publish("sio:chat", []byte("hello")))

	for _, ch := range []<-chan []byte{ch1, ch2} {
		select {
		case got := <-ch:
			require.Equal(t, []byte("hello"), got)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for fan-out message")
		}
	}
}

func TestMemoryLayerUnsubscribeClosesChannel(t *testing.T) {
	layer := NewMemoryLayer()
	ch, err := layer.Subscribe("sio:presence")
	require.NoError(t, err)

	layer.Unsubscribe("sio:presence")

	_, ok := <-ch
	require.False(t, ok, "channel should be closed after Unsubscribe")
}
