package session_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolimst/lib-secs2-hsms-go/pkg/hsms"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/item"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/message"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/session"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

// pair establishes a Passive/Active Session pair over loopback and
// returns both, already Connected, along with their consumer channels.
func pair(t *testing.T, opts ...session.Option) (*session.Session, <-chan session.Primary, *session.Session, <-chan session.Primary) {
	t.Helper()
	addr := freeAddr(t)

	passiveSettings := session.NewSettings(append([]session.Option{session.WithConnectMode(session.Passive), session.WithT3(300 * time.Millisecond), session.WithT6(300 * time.Millisecond), session.WithT7(time.Hour)}, opts...)...)
	activeSettings := session.NewSettings(append([]session.Option{session.WithConnectMode(session.Active), session.WithT3(300 * time.Millisecond), session.WithT6(300 * time.Millisecond), session.WithT7(time.Hour)}, opts...)...)

	passive := session.New(passiveSettings)
	active := session.New(activeSettings)

	type connectResult struct {
		recv <-chan session.Primary
		err  error
	}
	passiveResult := make(chan connectResult, 1)
	go func() {
		_, recv, err := passive.Connect(addr)
		passiveResult <- connectResult{recv, err}
	}()

	time.Sleep(20 * time.Millisecond)
	_, activeRecv, err := active.Connect(addr)
	require.NoError(t, err)

	pr := <-passiveResult
	require.NoError(t, pr.err)

	return passive, pr.recv, active, activeRecv
}

// TestLinktestRoundTrip covers the Link test Scenario (spec.md §8,
// Scenario A): an Active-side Linktest resolves successfully against a
// Passive peer.
func TestLinktestRoundTrip(t *testing.T) {
	passive, _, active, _ := pair(t)
	defer passive.Disconnect()
	defer active.Disconnect()

	_, err := active.Linktest(active.NextSystem()).Wait()
	assert.NoError(t, err)
}

// TestSelectThenData covers Scenario B: select succeeds, then a primary
// data message sent by the selecting side is delivered to the peer's
// consumer and the reply comes back through Data's own wait.
func TestSelectThenData(t *testing.T) {
	passive, passiveRecv, active, _ := pair(t)
	defer passive.Disconnect()
	defer active.Disconnect()

	id := hsms.ID{Session: 42, System: active.NextSystem()}
	_, err := active.Select(id).Wait()
	require.NoError(t, err)
	assert.True(t, active.SelectionState().IsSelected())

	go func() {
		p := <-passiveRecv
		reply := p.Message
		reply.Function++
		reply.W = false
		passive.Data(p.ID, reply)
	}()

	req := hsms.E5Message{Stream: 1, Function: 13, W: true, Text: item.Ascii{Text: "hello"}}
	got, err := active.Data(hsms.ID{Session: id.Session, System: active.NextSystem()}, req).Wait()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 14, got.Function)
}

// TestDataWhileNotSelectedFailsLocally covers the precondition half of
// Scenario C: a consumer cannot even attempt to send data before
// selecting; the Data procedure fails fast with AlreadyExists rather
// than putting a frame on the wire.
func TestDataWhileNotSelectedFailsLocally(t *testing.T) {
	passive, passiveRecv, active, _ := pair(t)
	defer passive.Disconnect()
	defer active.Disconnect()

	id := hsms.ID{Session: 1, System: active.NextSystem()}
	_, err := active.Data(id, hsms.E5Message{Stream: 1, Function: 1, W: true}).Wait()
	require.Error(t, err)
	assert.True(t, session.IsKind(err, session.ErrAlreadyExists))

	select {
	case <-passiveRecv:
		t.Fatal("data should never have reached the wire")
	case <-time.After(50 * time.Millisecond):
	}
}

// TestSelectTimeoutDisconnects covers Scenario E's timeout path with a
// Select that never gets answered: Active is pointed at a raw TCP
// listener that accepts the connection but never speaks HSMS, so T6
// expires and Select fails with ConnectionAborted.
func TestSelectTimeoutDisconnects(t *testing.T) {
	addr := freeAddr(t)
	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			// accept but never speak HSMS back: select will time out.
			_ = conn
		}
	}()

	active := session.New(session.NewSettings(
		session.WithConnectMode(session.Active),
		session.WithT6(50*time.Millisecond),
	))
	_, _, err = active.Connect(addr)
	require.NoError(t, err)

	_, err = active.Select(hsms.ID{Session: 1, System: active.NextSystem()}).Wait()
	assert.Error(t, err)
	assert.True(t, session.IsKind(err, session.ErrConnectionAborted))
}

// TestUnmatchedResponseGetsTransactionNotOpenReject covers Scenario D: a
// control response that does not correlate to any open outbox entry is
// answered with a Reject.req carrying TransactionNotOpen, rather than
// being silently dropped.
func TestUnmatchedResponseGetsTransactionNotOpenReject(t *testing.T) {
	addr := freeAddr(t)
	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	defer ln.Close()

	rawConn := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			rawConn <- conn
		}
	}()

	active := session.New(session.NewSettings(session.WithConnectMode(session.Active)))
	_, _, err = active.Connect(addr)
	require.NoError(t, err)
	defer active.Disconnect()

	conn := <-rawConn
	defer conn.Close()

	spurious := hsms.ToPrimitive(hsms.LinktestResponse{Id: hsms.ID{Session: 0xFFFF, System: 999}})
	_, err = conn.Write(spurious.Encode())
	require.NoError(t, err)

	lengthBuf := make([]byte, 4)
	_, err = readFullTest(conn, lengthBuf)
	require.NoError(t, err)
	length, err := message.SplitLength(lengthBuf, 0)
	require.NoError(t, err)
	body := make([]byte, length)
	_, err = readFullTest(conn, body)
	require.NoError(t, err)

	frame, err := message.DecodeFrame(append(lengthBuf, body...))
	require.NoError(t, err)
	classified, err := hsms.Classify(frame)
	require.NoError(t, err)

	reject, ok := classified.(hsms.RejectRequest)
	require.True(t, ok, "expected a RejectRequest, got %T", classified)
	assert.Equal(t, hsms.RejectTransactionNotOpen, reject.Reason)
	assert.Equal(t, hsms.STypeLinktestRsp, reject.MessageType)
}

func readFullTest(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// TestSeparateFromPeerSelectionOnly covers Scenario F: one side's Separate
// silently drops only the peer's selection state to NotSelected. The
// connection stays up, so the peer can re-select afterward.
func TestSeparateFromPeerSelectionOnly(t *testing.T) {
	passive, _, active, _ := pair(t)
	defer passive.Disconnect()
	defer active.Disconnect()

	id := hsms.ID{Session: 7, System: active.NextSystem()}
	_, err := active.Select(id).Wait()
	require.NoError(t, err)

	_, err = active.Separate(id).Wait()
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.False(t, passive.SelectionState().IsSelected())

	// The connection stayed up: passive can still run Linktest, and
	// active can re-select the same session_id.
	_, err = passive.Linktest(passive.NextSystem()).Wait()
	require.NoError(t, err)

	_, err = active.Select(hsms.ID{Session: 7, System: active.NextSystem()}).Wait()
	require.NoError(t, err)
	assert.True(t, passive.SelectionState().IsSelected())
}
