package typed

import "github.com/wolimst/lib-secs2-hsms-go/pkg/item"

// ModelName is SEMI E5's MDLN: the equipment model name, an ASCII item.
type ModelName string

type modelNameCodec struct{}

func (modelNameCodec) ToItem(v ModelName) item.Item { return item.Ascii{Text: string(v)} }
func (modelNameCodec) FromItem(it item.Item) (ModelName, error) {
	a, ok := it.(item.Ascii)
	if !ok {
		return "", &item.Error{Kind: item.ErrInvalidText, Msg: "MDLN: expected an Ascii item"}
	}
	return ModelName(a.Text), nil
}

// ModelNameCodec is the Codec for ModelName.
var ModelNameCodec Codec[ModelName] = modelNameCodec{}

// SoftwareRevision is SEMI E5's SOFTREV: the equipment software revision,
// an ASCII item.
type SoftwareRevision string

type softwareRevisionCodec struct{}

func (softwareRevisionCodec) ToItem(v SoftwareRevision) item.Item {
	return item.Ascii{Text: string(v)}
}
func (softwareRevisionCodec) FromItem(it item.Item) (SoftwareRevision, error) {
	a, ok := it.(item.Ascii)
	if !ok {
		return "", &item.Error{Kind: item.ErrInvalidText, Msg: "SOFTREV: expected an Ascii item"}
	}
	return SoftwareRevision(a.Text), nil
}

// SoftwareRevisionCodec is the Codec for SoftwareRevision.
var SoftwareRevisionCodec Codec[SoftwareRevision] = softwareRevisionCodec{}

// CommAck is SEMI E5's COMMACK: a single-byte acknowledgement code for
// Establish Communications Request Acknowledge.
type CommAck byte

const (
	CommAckAccepted CommAck = 0
	CommAckDenied   CommAck = 1
)

type commAckCodec struct{}

func (commAckCodec) ToItem(v CommAck) item.Item { return item.Bin{Bytes: []byte{byte(v)}} }
func (commAckCodec) FromItem(it item.Item) (CommAck, error) {
	b, ok := it.(item.Bin)
	if !ok || len(b.Bytes) != 1 {
		return 0, &item.Error{Kind: item.ErrInvalidText, Msg: "COMMACK: expected a 1-byte Binary item"}
	}
	return CommAck(b.Bytes[0]), nil
}

// CommAckCodec is the Codec for CommAck.
var CommAckCodec Codec[CommAck] = commAckCodec{}

// modelInfo is the (MDLN, SOFTREV) pair carried by both S1F13's
// equipment-initiated variant and S1F14's acknowledgement.
type modelInfo = Tuple2[ModelName, SoftwareRevision]

type modelInfoCodec struct{}

func (modelInfoCodec) ToItem(v modelInfo) item.Item {
	return item.List{Items: []item.Item{
		ModelNameCodec.ToItem(v.First),
		SoftwareRevisionCodec.ToItem(v.Second),
	}}
}

func (modelInfoCodec) FromItem(it item.Item) (modelInfo, error) {
	list, ok := it.(item.List)
	if !ok || len(list.Items) != 2 {
		return modelInfo{}, &item.Error{Kind: item.ErrInvalidText, Msg: "expected a 2-element List for (MDLN, SOFTREV)"}
	}
	model, err := ModelNameCodec.FromItem(list.Items[0])
	if err != nil {
		return modelInfo{}, err
	}
	rev, err := SoftwareRevisionCodec.FromItem(list.Items[1])
	if err != nil {
		return modelInfo{}, err
	}
	return modelInfo{First: model, Second: rev}, nil
}

var modelInfoCodecInstance Codec[modelInfo] = modelInfoCodec{}
