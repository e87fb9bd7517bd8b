package typed

import (
	"github.com/wolimst/lib-secs2-hsms-go/pkg/hsms"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/item"
)

// S1F13 is the Establish Communications Request (SEMI E5 §10.5, stream 1
// function 13), grounded on original_source/semi_e5/src/messages/s1.rs's
// HostCR/EquipmentCR pair. A host-initiated request carries no data
// (Info is None); an equipment-initiated request carries the
// equipment's (MDLN, SOFTREV).
type S1F13 struct {
	Info OptionList[modelInfo]
}

// ToGeneric renders S1F13 as the wire-level SECS-II message, reply
// required.
func (m S1F13) ToGeneric() hsms.E5Message {
	return hsms.E5Message{Stream: 1, Function: 13, W: true, Text: m.Info.ToItem(modelInfoCodecInstance)}
}

// S1F13FromGeneric decodes a classified DataMessage's content as S1F13.
func S1F13FromGeneric(msg hsms.E5Message) (S1F13, error) {
	if msg.Stream != 1 || msg.Function != 13 {
		return S1F13{}, &item.Error{Kind: item.ErrInvalidText, Msg: "not an S1F13 message"}
	}
	text := msg.Text
	if text == nil {
		text = item.List{}
	}
	info, err := OptionListFromItem(text, modelInfoCodecInstance)
	if err != nil {
		return S1F13{}, err
	}
	return S1F13{Info: info}, nil
}

// S1F14 is the Establish Communications Request Acknowledge (SEMI E5
// §10.5, stream 1 function 14), grounded on the same source's
// HostCRA/EquipmentCRA pair: an acknowledgement code plus an optional
// (MDLN, SOFTREV) pair, valid only when Ack is CommAckAccepted.
type S1F14 struct {
	Ack  CommAck
	Info OptionList[modelInfo]
}

// ToGeneric renders S1F14 as the wire-level SECS-II message, reply
// forbidden.
func (m S1F14) ToGeneric() hsms.E5Message {
	return hsms.E5Message{
		Stream:   1,
		Function: 14,
		W:        false,
		Text: item.List{Items: []item.Item{
			CommAckCodec.ToItem(m.Ack),
			m.Info.ToItem(modelInfoCodecInstance),
		}},
	}
}

// S1F14FromGeneric decodes a classified DataMessage's content as S1F14.
func S1F14FromGeneric(msg hsms.E5Message) (S1F14, error) {
	if msg.Stream != 1 || msg.Function != 14 {
		return S1F14{}, &item.Error{Kind: item.ErrInvalidText, Msg: "not an S1F14 message"}
	}
	list, ok := msg.Text.(item.List)
	if !ok || len(list.Items) != 2 {
		return S1F14{}, &item.Error{Kind: item.ErrInvalidText, Msg: "S1F14: expected a 2-element List"}
	}
	ack, err := CommAckCodec.FromItem(list.Items[0])
	if err != nil {
		return S1F14{}, err
	}
	info, err := OptionListFromItem(list.Items[1], modelInfoCodecInstance)
	if err != nil {
		return S1F14{}, err
	}
	return S1F14{Ack: ack, Info: info}, nil
}
