// Package session implements the HSMS Generic Services (spec.md §4.5,
// §4.6): the selection-state machine, the outbox that correlates replies
// to outstanding primaries, and the procedures (connect, select,
// deselect, separate, linktest, data, reject) built on top of
// pkg/transport and pkg/hsms.
package session

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wolimst/lib-secs2-hsms-go/internal/xlog"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/hsms"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/metrics"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/transport"
)

// Primary is an inbound primary DataMessage delivered to the consumer
// through the channel returned by Connect, in receive order.
type Primary struct {
	ID      hsms.ID
	Message hsms.E5Message
}

// Session is one HSMS Generic Services endpoint: a transport.Client plus
// the selection-state machine and outbox layered on top of it. The zero
// value is not ready to use; construct with New.
type Session struct {
	settings Settings
	tr       *transport.Client

	sel *selectionCell
	ob  *outbox
	txMu sync.Mutex // serializes transmit+outbox-open across concurrent procedure calls

	system atomic.Uint32

	t7mu    sync.Mutex
	t7timer *time.Timer

	policy Policy
	log    *logrus.Entry
}

// New creates a Session in the NotConnected state. By default it runs
// the Generic Services' select/deselect acceptance rules; pass
// WithPolicy to override them (pkg/ssgem uses this for HSMS-SS).
func New(settings Settings, opts ...opt) *Session {
	s := &Session{
		settings: settings,
		tr:       transport.NewClient(transport.DefaultMaxFrameSize),
		sel:      newSelectionCell(),
		ob:       newOutbox(),
		log:      logrus.WithField("component", "session"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SelectionState returns the current state of the selection-state
// machine.
func (s *Session) SelectionState() SelectionState { return s.sel.load() }

// NextSystem returns the next value of this session's outbound system
// bytes counter. Callers should use it to generate unique system values
// for primaries they send through Data.
func (s *Session) NextSystem() uint32 { return s.system.Add(1) }

func (s *Session) toTransportMode() transport.Mode {
	if s.settings.ConnectMode() == Active {
		return transport.Active
	}
	return transport.Passive
}

// Connect establishes the underlying TCP connection and starts the
// session's receive loop. On success it returns the peer address and the
// channel inbound primary DataMessages are delivered on, in receive
// order. The T7 timer (time spent NotSelected while Connected) is armed
// immediately: entering NotSelected while Connected is the initial state
// after Connect.
func (s *Session) Connect(endpoint string) (net.Addr, <-chan Primary, error) {
	addr, frames, err := s.tr.Connect(endpoint, s.toTransportMode(), s.settings.T5(), s.settings.T8())
	if err != nil {
		return nil, nil, errOf(ErrConnectionAborted, "connect: %v", err)
	}
	s.sel.store(SelectionState{kind: notSelected})
	s.armT7()

	out := make(chan Primary, 16)
	go s.runReceiveLoop(frames, out)

	s.log.WithFields(xlog.Conn(endpoint)).Info("session connected")
	return addr, out, nil
}

// Disconnect tears down the transport. If Selected, the selection-state
// machine transitions to NotSelected; all open transactions in the
// outbox resolve as if timed out.
func (s *Session) Disconnect() error {
	return s.disconnectInternal("local")
}

// disconnectInternal is for callers that do not already hold sel's
// mutex (the receive loop exiting, the T7 timer firing, the public
// Disconnect). doSelect and doDeselect hold that mutex across their own
// transmitAndWait call, so their timeout paths call teardownTransport
// directly instead, after setting the selection state themselves — a
// second call into sel.Lock from the same goroutine would deadlock.
func (s *Session) disconnectInternal(trigger string) error {
	s.sel.Lock()
	s.sel.store(SelectionState{kind: notSelected})
	s.sel.Unlock()
	return s.teardownTransport(trigger)
}

// teardownTransport stops T7, drains the outbox, and closes the
// transport, without touching the selection-state mutex.
func (s *Session) teardownTransport(trigger string) error {
	s.cancelT7()
	s.ob.drain()
	if err := s.tr.Disconnect(); err != nil {
		return errOf(ErrNotConnected, "disconnect: %v", err)
	}
	metrics.SessionTransitions.WithLabelValues("not_selected").Inc()
	s.log.WithField("trigger", trigger).Info("session disconnected")
	return nil
}

func (s *Session) armT7() {
	s.t7mu.Lock()
	defer s.t7mu.Unlock()
	if s.t7timer != nil {
		s.t7timer.Stop()
	}
	s.t7timer = time.AfterFunc(s.settings.T7(), func() {
		s.log.Warn("t7 expired while not selected, disconnecting")
		s.disconnectInternal("t7_timeout")
	})
}

func (s *Session) cancelT7() {
	s.t7mu.Lock()
	defer s.t7mu.Unlock()
	if s.t7timer != nil {
		s.t7timer.Stop()
		s.t7timer = nil
	}
}

// transmitAndWait is the generic "Transmit and wait" helper of spec.md
// §4.6: transmit msg, and if replyExpected, block up to timeout for a
// correlated reply. A nil, nil result means the transaction timed out or
// the connection was torn down before a reply arrived (the two are
// indistinguishable to the caller, matching the generic procedures'
// "On timeout" handling). A non-nil error means the transmit itself
// failed, which has already torn the connection down.
func (s *Session) transmitAndWait(msg hsms.Message, replyExpected bool, timeout time.Duration, kind string) (hsms.Message, error) {
	s.txMu.Lock()
	if err := s.tr.Transmit(hsms.ToPrimitive(msg)); err != nil {
		s.txMu.Unlock()
		s.teardownTransport("write_failed")
		return nil, errOf(ErrConnectionAborted, "transmit %s: %v", kind, err)
	}
	if !replyExpected {
		s.txMu.Unlock()
		return nil, nil
	}
	nonce, reply := s.ob.open(msg.ID(), kind)
	s.txMu.Unlock()
	metrics.Transactions.WithLabelValues(kind).Inc()

	var result hsms.Message
	select {
	case m, ok := <-reply:
		if ok {
			result = m
		}
	case <-time.After(timeout):
		metrics.TransactionTimeouts.WithLabelValues(kind).Inc()
	}
	s.ob.remove(nonce)
	return result, nil
}
