package session

import (
	"github.com/wolimst/lib-secs2-hsms-go/pkg/hsms"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/message"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/metrics"
)

// runReceiveLoop is the Session-layer receive handler of spec.md §4.6. It
// classifies each primitive frame off the transport's channel and either
// answers it directly (control procedures, rejects), resolves a waiting
// outbox transaction, or forwards a primary DataMessage to consumer,
// blocking on that send so delivery order is preserved. It exits, closing
// consumer, when the transport channel closes.
func (s *Session) runReceiveLoop(frames <-chan message.Message, consumer chan<- Primary) {
	defer close(consumer)
	for raw := range frames {
		classified, err := hsms.Classify(raw)
		if err != nil {
			ce := err.(*hsms.ClassifyError)
			s.Reject(RejectParams{
				ID:          hsms.ID{Session: raw.Header.SessionID, System: raw.Header.System},
				MessageType: ce.MessageType,
				Reason:      ce.Reason,
			})
			continue
		}
		s.dispatch(classified, consumer)
	}
	s.disconnectInternal("transport_closed")
}

func (s *Session) dispatch(m hsms.Message, consumer chan<- Primary) {
	switch msg := m.(type) {
	case hsms.DataMessage:
		s.handleDataMessage(msg, consumer)
	case hsms.SelectRequest:
		s.handleSelectRequest(msg)
	case hsms.SelectResponse:
		if !s.ob.complete(msg.Id, msg) {
			s.answerReject(msg.Id, hsms.STypeSelectRsp, hsms.RejectTransactionNotOpen)
		}
	case hsms.DeselectRequest:
		s.handleDeselectRequest(msg)
	case hsms.DeselectResponse:
		if !s.ob.complete(msg.Id, msg) {
			s.answerReject(msg.Id, hsms.STypeDeselectRsp, hsms.RejectTransactionNotOpen)
		}
	case hsms.LinktestRequest:
		s.transmitAndWait(hsms.LinktestResponse{Id: msg.Id}, false, 0, "linktest_response")
	case hsms.LinktestResponse:
		if !s.ob.complete(msg.Id, msg) {
			s.answerReject(msg.Id, hsms.STypeLinktestRsp, hsms.RejectTransactionNotOpen)
		}
	case hsms.RejectRequest:
		s.ob.complete(msg.Id, msg)
	case hsms.SeparateRequest:
		s.handleSeparateRequest(msg)
	}
}

// handleSeparateRequest implements spec.md §4.6's Separate.req handling:
// if Selected(sid) with a matching session_id, transition to NotSelected
// silently; otherwise ignore. Unlike a local Disconnect, the transport
// stays up — Separate only tears down the selection state, per Scenario F.
func (s *Session) handleSeparateRequest(req hsms.SeparateRequest) {
	s.sel.Lock()
	defer s.sel.Unlock()
	cur := s.sel.load()
	if cur.kind != selected || cur.sessionID != req.Id.Session {
		return
	}
	s.sel.store(SelectionState{kind: notSelected})
	s.armT7()
	metrics.SessionTransitions.WithLabelValues("not_selected").Inc()
}

// answerReject transmits a Reject.req directly, bypassing the Reject
// procedure's async wrapping since this call already runs on the receive
// loop goroutine. Like Reject, it counts the reject in metrics.Rejects.
func (s *Session) answerReject(id hsms.ID, messageType byte, reason hsms.RejectReason) {
	metrics.Rejects.WithLabelValues(reason.String()).Inc()
	s.transmitAndWait(hsms.RejectRequest{Id: id, MessageType: messageType, Reason: reason}, false, 0, "reject")
}

func (s *Session) handleDataMessage(msg hsms.DataMessage, consumer chan<- Primary) {
	if !s.sel.load().IsSelected() {
		s.answerReject(msg.Id, hsms.STypeDataMessage, hsms.RejectEntityNotSelected)
		return
	}
	if msg.Content.IsPrimary() {
		consumer <- Primary{ID: msg.Id, Message: msg.Content}
		return
	}
	if !s.ob.complete(msg.Id, msg) {
		s.answerReject(msg.Id, hsms.STypeDataMessage, hsms.RejectTransactionNotOpen)
	}
}

// handleSelectRequest implements the simultaneous-select rule of spec.md
// §4.6: if no local select/deselect is in flight, this is a normal
// peer-initiated select; if one is in flight (s.sel's mutex is held by
// the local procedure goroutine), the peer's request is answered
// immediately using the in-flight session_id as the tiebreaker, without
// blocking the receive loop on the local attempt's own T6 wait.
func (s *Session) handleSelectRequest(req hsms.SelectRequest) {
	if s.sel.TryLock() {
		defer s.sel.Unlock()
		cur := s.sel.load()
		status := s.policy.selectStatus(req.Id.Session, cur.kind != notSelected)
		if status == hsms.SelectStatusSuccess {
			s.sel.store(SelectionState{kind: selected, sessionID: req.Id.Session})
			s.cancelT7()
			metrics.SessionTransitions.WithLabelValues("selected").Inc()
		}
		s.transmitAndWait(hsms.SelectResponse{Id: req.Id, Status: status}, false, 0, "select_response")
		return
	}
	cur := s.sel.load()
	status := byte(hsms.SelectStatusAlreadyActive)
	if sid, ok := cur.SessionID(); ok && sid == req.Id.Session {
		status = hsms.SelectStatusSuccess
	}
	s.transmitAndWait(hsms.SelectResponse{Id: req.Id, Status: status}, false, 0, "select_response")
}

func (s *Session) handleDeselectRequest(req hsms.DeselectRequest) {
	if s.sel.TryLock() {
		defer s.sel.Unlock()
		cur := s.sel.load()
		matches := cur.kind == selected && cur.sessionID == req.Id.Session
		status := s.policy.deselectStatus(matches)
		if status == hsms.DeselectStatusSuccess {
			s.sel.store(SelectionState{kind: notSelected})
			s.armT7()
			metrics.SessionTransitions.WithLabelValues("not_selected").Inc()
		}
		s.transmitAndWait(hsms.DeselectResponse{Id: req.Id, Status: status}, false, 0, "deselect_response")
		return
	}
	s.transmitAndWait(hsms.DeselectResponse{Id: req.Id, Status: hsms.DeselectStatusBusy}, false, 0, "deselect_response")
}
