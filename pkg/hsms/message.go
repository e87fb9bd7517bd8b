// Package hsms implements the generic classifier: converting a
// primitive pkg/message.Message into a typed HsmsMessage variant per
// spec.md §4.4, and the reverse direction for transmission.
package hsms

import (
	"fmt"

	"github.com/wolimst/lib-secs2-hsms-go/pkg/item"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/message"
)

// SType values, per spec.md §6.
const (
	STypeDataMessage byte = 0
	STypeSelectReq   byte = 1
	STypeSelectRsp   byte = 2
	STypeDeselectReq byte = 3
	STypeDeselectRsp byte = 4
	STypeLinktestReq byte = 5
	STypeLinktestRsp byte = 6
	STypeRejectReq   byte = 7
	STypeSeparateReq byte = 9
)

// Select status codes, per spec.md §6.
const (
	SelectStatusSuccess      byte = 0
	SelectStatusAlreadyActive byte = 1
	SelectStatusNotReady     byte = 2
	SelectStatusExhausted    byte = 3
)

// Deselect status codes, per spec.md §6.
const (
	DeselectStatusSuccess      byte = 0
	DeselectStatusNotEstablished byte = 1
	DeselectStatusBusy         byte = 2
)

// RejectReason is a wire-level Reject.req reason code, per spec.md §6.
type RejectReason byte

const (
	RejectMalformedData            RejectReason = 0
	RejectUnsupportedSessionType   RejectReason = 1
	RejectUnsupportedPresentation  RejectReason = 2
	RejectTransactionNotOpen       RejectReason = 3
	RejectEntityNotSelected        RejectReason = 4
)

func (r RejectReason) String() string {
	switch r {
	case RejectMalformedData:
		return "malformed_data"
	case RejectUnsupportedSessionType:
		return "unsupported_session_type"
	case RejectUnsupportedPresentation:
		return "unsupported_presentation_type"
	case RejectTransactionNotOpen:
		return "transaction_not_open"
	case RejectEntityNotSelected:
		return "entity_not_selected"
	default:
		return fmt.Sprintf("reject(%d)", byte(r))
	}
}

// ID identifies a HSMS transaction: the session association plus the
// per-sender system bytes.
type ID struct {
	Session uint16
	System  uint32
}

// E5Message is the SECS-II presentation layer payload carried by a
// DataMessage, per spec.md §3.
type E5Message struct {
	Stream   int // 0..127
	Function int // 0..255
	W        bool
	Text     item.Item // nil means no text (header-only)
}

// IsPrimary reports whether this message is a primary (odd function).
func (m E5Message) IsPrimary() bool { return m.Function%2 == 1 }

// Message is the classified HSMS message tagged union described in
// spec.md §3. It is a closed set of variants, each its own struct type;
// callers switch on concrete type rather than on a discriminator field.
type Message interface {
	ID() ID
	// toPrimitive renders this variant back to wire bytes.
	toPrimitive() message.Message
}

// DataMessage is a classified SType=0 message.
type DataMessage struct {
	Id      ID
	Content E5Message
}

func (m DataMessage) ID() ID { return m.Id }

func (m DataMessage) toPrimitive() message.Message {
	byte2 := byte(m.Content.Stream)
	if m.Content.W {
		byte2 |= 0x80
	}
	var text []byte
	if m.Content.Text != nil {
		var err error
		text, err = item.Encode(m.Content.Text)
		if err != nil {
			panic(fmt.Sprintf("hsms: encoding data message text: %v", err))
		}
	}
	return message.Message{
		Header: message.Header{
			SessionID:   m.Id.Session,
			Byte2:       byte2,
			Byte3:       byte(m.Content.Function),
			SessionType: STypeDataMessage,
			System:      m.Id.System,
		},
		Text: text,
	}
}

// control message variants share the same wire shape (empty text, no
// payload beyond the header), so they embed a common helper.

type controlHeader struct {
	Id ID
}

func (c controlHeader) primitive(byte2, byte3, sType byte) message.Message {
	return message.Message{Header: message.Header{
		SessionID:   c.Id.Session,
		Byte2:       byte2,
		Byte3:       byte3,
		SessionType: sType,
		System:      c.Id.System,
	}}
}

// SelectRequest is a classified Select.req.
type SelectRequest struct{ Id ID }

func (m SelectRequest) ID() ID { return m.Id }
func (m SelectRequest) toPrimitive() message.Message {
	return controlHeader{m.Id}.primitive(0, 0, STypeSelectReq)
}

// SelectResponse is a classified Select.rsp, carrying the select status
// in Status (spec.md §6).
type SelectResponse struct {
	Id     ID
	Status byte
}

func (m SelectResponse) ID() ID { return m.Id }
func (m SelectResponse) toPrimitive() message.Message {
	return controlHeader{m.Id}.primitive(0, m.Status, STypeSelectRsp)
}

// DeselectRequest is a classified Deselect.req.
type DeselectRequest struct{ Id ID }

func (m DeselectRequest) ID() ID { return m.Id }
func (m DeselectRequest) toPrimitive() message.Message {
	return controlHeader{m.Id}.primitive(0, 0, STypeDeselectReq)
}

// DeselectResponse is a classified Deselect.rsp, carrying the deselect
// status in Status (spec.md §6).
type DeselectResponse struct {
	Id     ID
	Status byte
}

func (m DeselectResponse) ID() ID { return m.Id }
func (m DeselectResponse) toPrimitive() message.Message {
	return controlHeader{m.Id}.primitive(0, m.Status, STypeDeselectRsp)
}

// LinktestRequest is a classified Linktest.req. Classify rejects one
// whose session_id is not 0xFFFF; the Linktest procedure always builds it
// with 0xFFFF. The struct itself does not check the value.
type LinktestRequest struct{ Id ID }

func (m LinktestRequest) ID() ID { return m.Id }
func (m LinktestRequest) toPrimitive() message.Message {
	return controlHeader{m.Id}.primitive(0, 0, STypeLinktestReq)
}

// LinktestResponse is a classified Linktest.rsp.
type LinktestResponse struct{ Id ID }

func (m LinktestResponse) ID() ID { return m.Id }
func (m LinktestResponse) toPrimitive() message.Message {
	return controlHeader{m.Id}.primitive(0, 0, STypeLinktestRsp)
}

// RejectRequest is a classified Reject.req. MessageType holds the
// rejected message's presentation or session type byte (byte2, per
// spec.md's NewHSMSMessageRejectReq discipline); Reason holds the
// rejection reason (byte3).
type RejectRequest struct {
	Id          ID
	MessageType byte
	Reason      RejectReason
}

func (m RejectRequest) ID() ID { return m.Id }
func (m RejectRequest) toPrimitive() message.Message {
	return controlHeader{m.Id}.primitive(m.MessageType, byte(m.Reason), STypeRejectReq)
}

// SeparateRequest is a classified Separate.req.
type SeparateRequest struct{ Id ID }

func (m SeparateRequest) ID() ID { return m.Id }
func (m SeparateRequest) toPrimitive() message.Message {
	return controlHeader{m.Id}.primitive(0, 0, STypeSeparateReq)
}

// ToPrimitive renders a classified Message back to wire bytes ready for
// framing by pkg/transport.
func ToPrimitive(m Message) message.Message { return m.toPrimitive() }
