package session

import (
	"github.com/wolimst/lib-secs2-hsms-go/pkg/hsms"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/metrics"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/transport"
)

// Select performs the Select procedure (spec.md §4.6): requires
// Connected and NotSelected, and asynchronously resolves once the peer's
// Select.rsp (or a timeout/reject) is known.
func (s *Session) Select(id hsms.ID) *Future[struct{}] {
	return run(func() (struct{}, error) {
		return struct{}{}, s.doSelect(id)
	})
}

func (s *Session) doSelect(id hsms.ID) error {
	if s.tr.State() != transport.Connected {
		return errOf(ErrNotConnected, "select requires Connected")
	}
	s.sel.Lock()
	defer s.sel.Unlock()
	if cur := s.sel.load(); cur.kind != notSelected {
		return errOf(ErrAlreadyExists, "select requires NotSelected, have %s", cur)
	}
	s.sel.store(SelectionState{kind: selectInitiated, sessionID: id.Session})

	reply, err := s.transmitAndWait(hsms.SelectRequest{Id: id}, true, s.settings.T6(), "select")
	if err != nil {
		s.sel.store(SelectionState{kind: notSelected})
		return err
	}
	if reply == nil {
		s.sel.store(SelectionState{kind: notSelected})
		s.teardownTransport("t6_timeout")
		return errOf(ErrConnectionAborted, "select: no reply within T6")
	}
	switch resp := reply.(type) {
	case hsms.SelectResponse:
		if resp.Status == hsms.SelectStatusSuccess {
			s.sel.store(SelectionState{kind: selected, sessionID: id.Session})
			s.cancelT7()
			metrics.SessionTransitions.WithLabelValues("selected").Inc()
			return nil
		}
		s.sel.store(SelectionState{kind: notSelected})
		return errOf(ErrPermissionDenied, "select rejected, status=%d", resp.Status)
	case hsms.RejectRequest:
		s.sel.store(SelectionState{kind: notSelected})
		return errOf(ErrPermissionDenied, "select rejected by peer: %s", resp.Reason)
	default:
		s.sel.store(SelectionState{kind: notSelected})
		return errOf(ErrInvalidData, "select: unexpected reply %T", reply)
	}
}

// Deselect performs the Deselect procedure: requires Selected.
func (s *Session) Deselect() *Future[struct{}] {
	return run(func() (struct{}, error) {
		return struct{}{}, s.doDeselect()
	})
}

func (s *Session) doDeselect() error {
	if s.tr.State() != transport.Connected {
		return errOf(ErrNotConnected, "deselect requires Connected")
	}
	s.sel.Lock()
	defer s.sel.Unlock()
	cur := s.sel.load()
	if cur.kind != selected {
		return errOf(ErrAlreadyExists, "deselect requires Selected, have %s", cur)
	}
	id := hsms.ID{Session: cur.sessionID, System: s.NextSystem()}
	s.sel.store(SelectionState{kind: deselectInitiated, sessionID: cur.sessionID})

	reply, err := s.transmitAndWait(hsms.DeselectRequest{Id: id}, true, s.settings.T6(), "deselect")
	if err != nil {
		s.sel.store(SelectionState{kind: notSelected})
		return err
	}
	if reply == nil {
		s.sel.store(SelectionState{kind: notSelected})
		s.teardownTransport("t6_timeout")
		return errOf(ErrConnectionAborted, "deselect: no reply within T6")
	}
	switch resp := reply.(type) {
	case hsms.DeselectResponse:
		if resp.Status == hsms.DeselectStatusSuccess {
			s.sel.store(SelectionState{kind: notSelected})
			s.armT7()
			metrics.SessionTransitions.WithLabelValues("not_selected").Inc()
			return nil
		}
		s.sel.store(SelectionState{kind: selected, sessionID: cur.sessionID})
		return errOf(ErrPermissionDenied, "deselect rejected, status=%d", resp.Status)
	case hsms.RejectRequest:
		s.sel.store(SelectionState{kind: selected, sessionID: cur.sessionID})
		return errOf(ErrPermissionDenied, "deselect rejected by peer: %s", resp.Reason)
	default:
		s.sel.store(SelectionState{kind: selected, sessionID: cur.sessionID})
		return errOf(ErrInvalidData, "deselect: unexpected reply %T", reply)
	}
}

// Separate performs the Separate procedure: requires Selected, sends
// Separate.req without waiting for a reply, then unconditionally
// transitions to NotSelected. A transmit failure is reported (the
// connection is already torn down by transmitAndWait) but the state
// transition still happens.
func (s *Session) Separate(id hsms.ID) *Future[struct{}] {
	return run(func() (struct{}, error) {
		return struct{}{}, s.doSeparate(id)
	})
}

func (s *Session) doSeparate(id hsms.ID) error {
	if cur := s.sel.load(); cur.kind != selected {
		return errOf(ErrAlreadyExists, "separate requires Selected, have %s", cur)
	}
	_, err := s.transmitAndWait(hsms.SeparateRequest{Id: id}, false, 0, "separate")
	s.sel.Lock()
	s.sel.store(SelectionState{kind: notSelected})
	s.sel.Unlock()
	s.armT7()
	return err
}

// Linktest performs the Linktest procedure: addressed to the reserved
// broadcast session_id 0xFFFF, available regardless of SelectionState as
// long as Connected.
func (s *Session) Linktest(system uint32) *Future[struct{}] {
	return run(func() (struct{}, error) {
		return struct{}{}, s.doLinktest(system)
	})
}

func (s *Session) doLinktest(system uint32) error {
	if s.tr.State() != transport.Connected {
		return errOf(ErrNotConnected, "linktest requires Connected")
	}
	id := hsms.ID{Session: 0xFFFF, System: system}
	reply, err := s.transmitAndWait(hsms.LinktestRequest{Id: id}, true, s.settings.T6(), "linktest")
	if err != nil {
		return err
	}
	if reply == nil {
		s.disconnectInternal("t6_timeout")
		return errOf(ErrConnectionAborted, "linktest: no reply within T6")
	}
	switch resp := reply.(type) {
	case hsms.LinktestResponse:
		return nil
	case hsms.RejectRequest:
		return errOf(ErrPermissionDenied, "linktest rejected by peer: %s", resp.Reason)
	default:
		return errOf(ErrInvalidData, "linktest: unexpected reply %T", reply)
	}
}

// Data performs the Data procedure: sends a DataMessage addressed to id.
// A reply is awaited, up to T3, only when msg is a primary (odd
// function) with W set; otherwise Data resolves immediately with a nil
// reply.
func (s *Session) Data(id hsms.ID, msg hsms.E5Message) *Future[*hsms.E5Message] {
	return run(func() (*hsms.E5Message, error) {
		return s.doData(id, msg)
	})
}

func (s *Session) doData(id hsms.ID, msg hsms.E5Message) (*hsms.E5Message, error) {
	if !s.sel.load().IsSelected() {
		return nil, errOf(ErrAlreadyExists, "data requires Selected")
	}
	replyExpected := msg.IsPrimary() && msg.W
	reply, err := s.transmitAndWait(hsms.DataMessage{Id: id, Content: msg}, replyExpected, s.settings.T3(), "data")
	if err != nil {
		return nil, err
	}
	if !replyExpected {
		return nil, nil
	}
	if reply == nil {
		s.disconnectInternal("t3_timeout")
		return nil, errOf(ErrConnectionAborted, "data: no reply within T3")
	}
	switch resp := reply.(type) {
	case hsms.DataMessage:
		content := resp.Content
		return &content, nil
	case hsms.RejectRequest:
		return nil, errOf(ErrPermissionDenied, "data rejected by peer: %s", resp.Reason)
	default:
		return nil, errOf(ErrInvalidData, "data: unexpected reply %T", reply)
	}
}

// RejectParams addresses an outbound Reject.req: the transaction it
// answers (ID), the rejected message's echoed type byte, and the reason.
type RejectParams struct {
	ID          hsms.ID
	MessageType byte
	Reason      hsms.RejectReason
}

// Reject sends a Reject.req. It never waits for a reply.
func (s *Session) Reject(p RejectParams) *Future[struct{}] {
	return run(func() (struct{}, error) {
		metrics.Rejects.WithLabelValues(p.Reason.String()).Inc()
		_, err := s.transmitAndWait(hsms.RejectRequest{Id: p.ID, MessageType: p.MessageType, Reason: p.Reason}, false, 0, "reject")
		return struct{}{}, err
	})
}
