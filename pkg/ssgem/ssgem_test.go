package ssgem_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolimst/lib-secs2-hsms-go/pkg/hsms"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/session"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/ssgem"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestActiveConnectAutoSelects(t *testing.T) {
	addr := freeAddr(t)

	host := ssgem.New(session.NewSettings(session.WithConnectMode(session.Active), session.WithT6(300*time.Millisecond)))
	equipment := ssgem.New(session.NewSettings(session.WithConnectMode(session.Passive), session.WithT6(300*time.Millisecond)))

	type result struct {
		err error
	}
	eqResult := make(chan result, 1)
	go func() {
		_, _, err := equipment.Connect(addr)
		eqResult <- result{err}
	}()
	time.Sleep(20 * time.Millisecond)

	_, _, err := host.Connect(addr)
	require.NoError(t, err)
	require.NoError(t, (<-eqResult).err)

	assert.True(t, host.SelectionState().IsSelected())
	assert.True(t, equipment.SelectionState().IsSelected())

	defer host.Disconnect()
	defer equipment.Disconnect()
}

func TestDataRoundTripOverSingleSession(t *testing.T) {
	addr := freeAddr(t)
	host := ssgem.New(session.NewSettings(session.WithConnectMode(session.Active), session.WithT3(300*time.Millisecond)))
	equipment := ssgem.New(session.NewSettings(session.WithConnectMode(session.Passive), session.WithT3(300*time.Millisecond)))

	type result struct {
		recv <-chan session.Primary
		err  error
	}
	eqResult := make(chan result, 1)
	go func() {
		_, recv, err := equipment.Connect(addr)
		eqResult <- result{recv, err}
	}()
	time.Sleep(20 * time.Millisecond)
	_, _, err := host.Connect(addr)
	require.NoError(t, err)
	eq := <-eqResult
	require.NoError(t, eq.err)
	defer host.Disconnect()
	defer equipment.Disconnect()

	go func() {
		p := <-eq.recv
		reply := p.Message
		reply.Function++
		reply.W = false
		equipment.Reply(p.ID, reply)
	}()

	got, err := host.Data(hsms.E5Message{Stream: 1, Function: 13, W: true})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 14, got.Function)
}
