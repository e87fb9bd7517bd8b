package hsms

import (
	"github.com/wolimst/lib-secs2-hsms-go/pkg/item"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/message"
)

// ClassifyError reports that a primitive message could not be
// classified, with the RejectReason the receive handler should answer
// with (spec.md §4.4).
type ClassifyError struct {
	MessageType byte // byte2 to echo back in the Reject.req, per NewHSMSMessageRejectReq
	Reason      RejectReason
}

func (e *ClassifyError) Error() string {
	return "hsms: classification failed: " + e.Reason.String()
}

// reject builds a *ClassifyError, mirroring the generic Reject.req
// construction rule: reason 2 (unsupported presentation) echoes the
// presentation type byte, everything else echoes the session type byte.
func reject(h message.Header, reason RejectReason) *ClassifyError {
	if reason == RejectUnsupportedPresentation {
		return &ClassifyError{MessageType: h.PresentationType, Reason: reason}
	}
	return &ClassifyError{MessageType: h.SessionType, Reason: reason}
}

const linktestSessionID = 0xFFFF

// Classify converts a primitive wire message into a typed HsmsMessage,
// per the table in spec.md §4.4. On failure it returns a *ClassifyError
// carrying the RejectReason the caller should answer the peer with.
func Classify(m message.Message) (Message, error) {
	h := m.Header
	if h.PresentationType != 0 {
		return nil, reject(h, RejectUnsupportedPresentation)
	}

	id := ID{Session: h.SessionID, System: h.System}

	switch h.SessionType {
	case STypeDataMessage:
		return classifyDataMessage(h, m.Text, id)

	case STypeSelectReq:
		if h.Byte2 != 0 || h.Byte3 != 0 || len(m.Text) != 0 {
			return nil, reject(h, RejectMalformedData)
		}
		return SelectRequest{Id: id}, nil

	case STypeSelectRsp:
		if h.Byte2 != 0 || len(m.Text) != 0 {
			return nil, reject(h, RejectMalformedData)
		}
		return SelectResponse{Id: id, Status: h.Byte3}, nil

	case STypeDeselectReq:
		if h.Byte2 != 0 || h.Byte3 != 0 || len(m.Text) != 0 {
			return nil, reject(h, RejectMalformedData)
		}
		return DeselectRequest{Id: id}, nil

	case STypeDeselectRsp:
		if h.Byte2 != 0 || len(m.Text) != 0 {
			return nil, reject(h, RejectMalformedData)
		}
		return DeselectResponse{Id: id, Status: h.Byte3}, nil

	case STypeLinktestReq:
		if h.SessionID != linktestSessionID || h.Byte2 != 0 || h.Byte3 != 0 || len(m.Text) != 0 {
			return nil, reject(h, RejectMalformedData)
		}
		return LinktestRequest{Id: id}, nil

	case STypeLinktestRsp:
		if h.SessionID != linktestSessionID || h.Byte2 != 0 || h.Byte3 != 0 || len(m.Text) != 0 {
			return nil, reject(h, RejectMalformedData)
		}
		return LinktestResponse{Id: id}, nil

	case STypeRejectReq:
		if len(m.Text) != 0 {
			return nil, reject(h, RejectMalformedData)
		}
		return RejectRequest{Id: id, MessageType: h.Byte2, Reason: RejectReason(h.Byte3)}, nil

	case STypeSeparateReq:
		if h.Byte2 != 0 || h.Byte3 != 0 || len(m.Text) != 0 {
			return nil, reject(h, RejectMalformedData)
		}
		return SeparateRequest{Id: id}, nil

	default:
		return nil, reject(h, RejectUnsupportedSessionType)
	}
}

func classifyDataMessage(h message.Header, text []byte, id ID) (Message, error) {
	stream := int(h.Byte2 & 0x7F)
	w := h.Byte2&0x80 != 0
	function := int(h.Byte3)

	var dataItem item.Item
	if len(text) > 0 {
		var err error
		dataItem, err = item.Decode(text)
		if err != nil && !item.IsEmptyText(err) {
			return nil, reject(h, RejectMalformedData)
		}
	}

	return DataMessage{Id: id, Content: E5Message{Stream: stream, Function: function, W: w, Text: dataItem}}, nil
}
