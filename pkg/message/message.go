// Package message implements the HSMS wire primitives: the 10-byte
// message header and the length-prefixed frame that carries it plus an
// optional SECS-II item text. It performs no semantic validation of
// header fields — that is the generic classifier's job (pkg/hsms).
package message

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed size of a HSMS message header in bytes.
const HeaderSize = 10

// Error is the message codec's error kind.
type Error struct {
	Kind string
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("message: %s: %s", e.Kind, e.Msg) }

// Error kinds.
const ErrInvalidData = "invalid_data"

func errInvalid(format string, args ...interface{}) error {
	return &Error{Kind: ErrInvalidData, Msg: fmt.Sprintf(format, args...)}
}

// Header is the 10-byte HSMS message header described in spec.md §3 and
// §6.
type Header struct {
	SessionID         uint16
	Byte2             byte
	Byte3             byte
	PresentationType  byte
	SessionType       byte
	System            uint32
}

// Encode returns the 10-byte wire representation of h.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint16(buf[0:2], h.SessionID)
	buf[2] = h.Byte2
	buf[3] = h.Byte3
	buf[4] = h.PresentationType
	buf[5] = h.SessionType
	binary.BigEndian.PutUint32(buf[6:10], h.System)
	return buf
}

// DecodeHeader parses exactly HeaderSize bytes into a Header.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) != HeaderSize {
		return Header{}, errInvalid("header must be %d bytes, got %d", HeaderSize, len(buf))
	}
	return Header{
		SessionID:        binary.BigEndian.Uint16(buf[0:2]),
		Byte2:            buf[2],
		Byte3:            buf[3],
		PresentationType: buf[4],
		SessionType:      buf[5],
		System:           binary.BigEndian.Uint32(buf[6:10]),
	}, nil
}

// Message is the primitive HSMS wire message: a header plus an opaque
// text payload (empty for control messages and header-only data
// messages).
type Message struct {
	Header Header
	Text   []byte
}

// Encode returns the full length-prefixed frame for m:
// 4-byte big-endian length (excludes itself) ‖ header ‖ text.
func (m Message) Encode() []byte {
	length := uint32(HeaderSize + len(m.Text))
	buf := make([]byte, 0, 4+length)
	buf = append(buf, byte(length>>24), byte(length>>16), byte(length>>8), byte(length))
	buf = append(buf, m.Header.Encode()...)
	buf = append(buf, m.Text...)
	return buf
}

// DecodeFrame parses a single length-prefixed frame, including its
// 4-byte length prefix, from buf. buf must contain exactly one frame.
func DecodeFrame(buf []byte) (Message, error) {
	if len(buf) < 4 {
		return Message{}, errInvalid("frame shorter than length prefix")
	}
	length := binary.BigEndian.Uint32(buf[0:4])
	if length < HeaderSize {
		return Message{}, errInvalid("frame length %d below minimum %d", length, HeaderSize)
	}
	body := buf[4:]
	if uint32(len(body)) != length {
		return Message{}, errInvalid("frame length %d does not match body length %d", length, len(body))
	}
	header, err := DecodeHeader(body[:HeaderSize])
	if err != nil {
		return Message{}, err
	}
	text := body[HeaderSize:]
	textCopy := make([]byte, len(text))
	copy(textCopy, text)
	return Message{Header: header, Text: textCopy}, nil
}

// SplitLength extracts the 4-byte big-endian frame body length from the
// first 4 bytes read off the wire, validating it against min (always
// HeaderSize) and max (a caller-supplied frame size ceiling, 0 meaning
// unbounded).
func SplitLength(prefix []byte, max uint32) (uint32, error) {
	if len(prefix) != 4 {
		return 0, errInvalid("length prefix must be 4 bytes, got %d", len(prefix))
	}
	length := binary.BigEndian.Uint32(prefix)
	if length < HeaderSize {
		return 0, errInvalid("frame length %d below minimum %d", length, HeaderSize)
	}
	if max > 0 && length > max {
		return 0, errInvalid("frame length %d exceeds configured maximum %d", length, max)
	}
	return length, nil
}
