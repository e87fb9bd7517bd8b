package hsms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolimst/lib-secs2-hsms-go/pkg/hsms"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/item"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/message"
)

func TestClassifyRoundTrip(t *testing.T) {
	cases := []hsms.Message{
		hsms.SelectRequest{Id: hsms.ID{Session: 1, System: 2}},
		hsms.SelectResponse{Id: hsms.ID{Session: 1, System: 2}, Status: hsms.SelectStatusAlreadyActive},
		hsms.DeselectRequest{Id: hsms.ID{Session: 1, System: 3}},
		hsms.DeselectResponse{Id: hsms.ID{Session: 1, System: 3}, Status: hsms.DeselectStatusBusy},
		hsms.LinktestRequest{Id: hsms.ID{Session: 0xFFFF, System: 7}},
		hsms.LinktestResponse{Id: hsms.ID{Session: 0xFFFF, System: 7}},
		hsms.SeparateRequest{Id: hsms.ID{Session: 1, System: 1}},
		hsms.RejectRequest{Id: hsms.ID{Session: 1, System: 9}, MessageType: 0, Reason: hsms.RejectEntityNotSelected},
		hsms.DataMessage{Id: hsms.ID{Session: 0, System: 2}, Content: hsms.E5Message{Stream: 1, Function: 13, W: true}},
		hsms.DataMessage{Id: hsms.ID{Session: 0, System: 3}, Content: hsms.E5Message{Stream: 1, Function: 14, W: false, Text: item.Ascii{Text: "MDLN"}}},
	}

	for _, in := range cases {
		primitive := hsms.ToPrimitive(in)
		got, err := hsms.Classify(primitive)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}
}

func TestClassifyRejectsShortFrameAtMessageLayer(t *testing.T) {
	_, err := message.DecodeFrame([]byte{0, 0, 0, 9, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	assert.Error(t, err)
}

func TestClassifyUnsupportedPresentation(t *testing.T) {
	m := message.Message{Header: message.Header{PresentationType: 1}}
	_, err := hsms.Classify(m)
	require.Error(t, err)
	ce := err.(*hsms.ClassifyError)
	assert.Equal(t, hsms.RejectUnsupportedPresentation, ce.Reason)
	assert.Equal(t, byte(1), ce.MessageType)
}

func TestClassifyUnsupportedSessionType(t *testing.T) {
	m := message.Message{Header: message.Header{SessionType: 42}}
	_, err := hsms.Classify(m)
	require.Error(t, err)
	ce := err.(*hsms.ClassifyError)
	assert.Equal(t, hsms.RejectUnsupportedSessionType, ce.Reason)
	assert.Equal(t, byte(42), ce.MessageType)
}

func TestClassifyLinktestRequiresBroadcastSession(t *testing.T) {
	m := message.Message{Header: message.Header{SessionID: 0, SessionType: hsms.STypeLinktestReq}}
	_, err := hsms.Classify(m)
	require.Error(t, err)
	assert.Equal(t, hsms.RejectMalformedData, err.(*hsms.ClassifyError).Reason)
}

func TestClassifyDataMessageWithMalformedText(t *testing.T) {
	m := message.Message{
		Header: message.Header{SessionType: hsms.STypeDataMessage},
		Text:   []byte{0b00000000}, // length-length == 0, invalid
	}
	_, err := hsms.Classify(m)
	require.Error(t, err)
	assert.Equal(t, hsms.RejectMalformedData, err.(*hsms.ClassifyError).Reason)
}
