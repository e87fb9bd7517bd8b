package session

import "github.com/wolimst/lib-secs2-hsms-go/pkg/hsms"

// Policy lets a caller override the Generic Services' default
// select/deselect acceptance rules, the hook pkg/ssgem uses to implement
// HSMS-SS's single-selected-session restrictions (only session_id
// 0xFFFF, deselect forbidden) without duplicating the receive loop.
// A nil field keeps the Generic Services default behavior.
type Policy struct {
	// Select answers an inbound Select.req: given the requested
	// session_id and whether this Session already has one Selected, it
	// returns the SelectStatus to reply with.
	Select func(sessionID uint16, alreadySelected bool) byte

	// Deselect answers an inbound Deselect.req with the DeselectStatus
	// to reply with.
	Deselect func() byte
}

type opt func(*Session)

// WithPolicy installs p, overriding the default select/deselect
// acceptance rules.
func WithPolicy(p Policy) opt { return func(s *Session) { s.policy = p } }

func (p Policy) selectStatus(sessionID uint16, alreadySelected bool) byte {
	if p.Select != nil {
		return p.Select(sessionID, alreadySelected)
	}
	if alreadySelected {
		return hsms.SelectStatusAlreadyActive
	}
	return hsms.SelectStatusSuccess
}

func (p Policy) deselectStatus(matches bool) byte {
	if p.Deselect != nil {
		return p.Deselect()
	}
	if matches {
		return hsms.DeselectStatusSuccess
	}
	return hsms.DeselectStatusNotEstablished
}
