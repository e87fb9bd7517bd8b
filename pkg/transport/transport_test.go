package transport_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolimst/lib-secs2-hsms-go/pkg/message"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/transport"
)

// freeAddr reserves an ephemeral TCP port long enough to learn its
// number, then releases it for the test's Passive client to rebind.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestTransmitRoundTrip(t *testing.T) {
	addr := freeAddr(t)

	passive := transport.NewClient(0)
	active := transport.NewClient(0)

	type result struct {
		recv <-chan message.Message
		err  error
	}
	passiveResult := make(chan result, 1)
	go func() {
		_, recv, err := passive.Connect(addr, transport.Passive, time.Second, 2*time.Second)
		passiveResult <- result{recv, err}
	}()

	time.Sleep(20 * time.Millisecond) // give the listener time to bind
	_, activeRecv, err := active.Connect(addr, transport.Active, time.Second, 2*time.Second)
	require.NoError(t, err)

	pr := <-passiveResult
	require.NoError(t, pr.err)

	msg := message.Message{Header: message.Header{SessionID: 0xFFFF, SessionType: 5, System: 7}}
	require.NoError(t, active.Transmit(msg))

	select {
	case got := <-pr.recv:
		assert.Equal(t, msg.Header, got.Header)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}

	require.NoError(t, active.Disconnect())
	require.NoError(t, passive.Disconnect())
}

func TestConnectFailsWhenAlreadyConnected(t *testing.T) {
	addr := freeAddr(t)
	passive := transport.NewClient(0)
	go passive.Connect(addr, transport.Passive, time.Second, time.Second)
	time.Sleep(20 * time.Millisecond)

	active := transport.NewClient(0)
	_, _, err := active.Connect(addr, transport.Active, time.Second, time.Second)
	require.NoError(t, err)

	_, _, err = active.Connect(addr, transport.Active, time.Second, time.Second)
	require.Error(t, err)
}

func TestTransmitRequiresConnected(t *testing.T) {
	c := transport.NewClient(0)
	err := c.Transmit(message.Message{})
	assert.Error(t, err)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	addr := freeAddr(t)
	passive := transport.NewClient(0)
	go passive.Connect(addr, transport.Passive, time.Second, time.Second)
	time.Sleep(20 * time.Millisecond)

	active := transport.NewClient(0)
	_, _, err := active.Connect(addr, transport.Active, time.Second, time.Second)
	require.NoError(t, err)

	require.NoError(t, active.Disconnect())
	err = active.Disconnect()
	assert.Error(t, err)
}

func TestReceiveLoopClosesChannelOnDisconnect(t *testing.T) {
	addr := freeAddr(t)
	passive := transport.NewClient(0)
	type result struct {
		recv <-chan message.Message
	}
	passiveResult := make(chan result, 1)
	go func() {
		_, recv, _ := passive.Connect(addr, transport.Passive, time.Second, time.Second)
		passiveResult <- result{recv}
	}()
	time.Sleep(20 * time.Millisecond)

	active := transport.NewClient(0)
	_, _, err := active.Connect(addr, transport.Active, time.Second, time.Second)
	require.NoError(t, err)

	pr := <-passiveResult
	require.NoError(t, active.Disconnect())

	select {
	case _, ok := <-pr.recv:
		assert.False(t, ok, "expected receive channel to close")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestFrameTooLargeIsRejected(t *testing.T) {
	addr := freeAddr(t)
	const maxFrame = 32
	passive := transport.NewClient(maxFrame)
	type result struct {
		recv <-chan message.Message
	}
	passiveResult := make(chan result, 1)
	go func() {
		_, recv, _ := passive.Connect(addr, transport.Passive, time.Second, time.Second)
		passiveResult <- result{recv}
	}()
	time.Sleep(20 * time.Millisecond)

	active := transport.NewClient(0)
	_, _, err := active.Connect(addr, transport.Active, time.Second, time.Second)
	require.NoError(t, err)

	big := message.Message{Header: message.Header{}, Text: make([]byte, maxFrame*2)}
	require.NoError(t, active.Transmit(big))

	pr := <-passiveResult
	select {
	case _, ok := <-pr.recv:
		assert.False(t, ok, "oversized frame should abort the connection, not be delivered")
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}
