// Package ssgem implements HSMS Single Selected-Session Mode (HSMS-SS,
// SEMI E37.1): the policy layer single.rs wraps the generic Session
// Services in. Only one session exists, permanently addressed by
// session_id 0xFFFF; the Host (Active side) is the only party allowed to
// initiate Select, and Deselect is forbidden outright.
package ssgem

import (
	"fmt"
	"net"

	"github.com/wolimst/lib-secs2-hsms-go/pkg/hsms"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/session"
)

// SessionID is HSMS-SS's single, fixed session_id.
const SessionID uint16 = 0xFFFF

// Client is a HSMS-SS endpoint: a pkg/session.Session configured with
// the single-session policy.
type Client struct {
	settings session.Settings
	s        *session.Session
}

// New creates a Client in the NotConnected state.
func New(settings session.Settings) *Client {
	policy := session.Policy{
		Select: func(sessionID uint16, alreadySelected bool) byte {
			if alreadySelected {
				return hsms.SelectStatusAlreadyActive
			}
			if sessionID != SessionID {
				return hsms.SelectStatusNotReady
			}
			if settings.ConnectMode() == session.Active {
				// Only the Host (the Active side) may initiate Select.
				return hsms.SelectStatusNotReady
			}
			return hsms.SelectStatusSuccess
		},
		Deselect: func() byte {
			return hsms.DeselectStatusBusy
		},
	}
	return &Client{settings: settings, s: session.New(settings, session.WithPolicy(policy))}
}

// Connect establishes the connection and, on the Active (Host) side,
// immediately runs the Select procedure against session_id 0xFFFF
// before returning, per single.rs's connect(): in HSMS-SS the Host
// always selects as part of establishing the link.
func (c *Client) Connect(endpoint string) (net.Addr, <-chan session.Primary, error) {
	addr, recv, err := c.s.Connect(endpoint)
	if err != nil {
		return nil, nil, err
	}
	if c.settings.ConnectMode() == session.Active {
		id := hsms.ID{Session: SessionID, System: c.s.NextSystem()}
		if _, err := c.s.Select(id).Wait(); err != nil {
			return nil, nil, fmt.Errorf("ssgem: initial select: %w", err)
		}
	}
	return addr, recv, nil
}

// Disconnect tears down the connection.
func (c *Client) Disconnect() error { return c.s.Disconnect() }

// Linktest runs the Linktest procedure.
func (c *Client) Linktest() error {
	_, err := c.s.Linktest(c.s.NextSystem()).Wait()
	return err
}

// Data sends a new primary msg over the single session, generating fresh
// system bytes and waiting for a reply only when msg has W set.
func (c *Client) Data(msg hsms.E5Message) (*hsms.E5Message, error) {
	id := hsms.ID{Session: SessionID, System: c.s.NextSystem()}
	return c.s.Data(id, msg).Wait()
}

// Reply sends msg as the answer to the primary identified by id (as
// received via the channel Connect returns): id's system bytes are
// echoed back unchanged so the peer can correlate the two.
func (c *Client) Reply(id hsms.ID, msg hsms.E5Message) error {
	_, err := c.s.Data(id, msg).Wait()
	return err
}

// Separate tears down the single session without waiting for a reply,
// per single.rs's separate callback restricting it to session_id
// 0xFFFF, which is the only session_id HSMS-SS ever uses.
func (c *Client) Separate() error {
	_, err := c.s.Separate(hsms.ID{Session: SessionID, System: c.s.NextSystem()}).Wait()
	return err
}

// SelectionState reports whether the single session is currently
// Selected.
func (c *Client) SelectionState() session.SelectionState { return c.s.SelectionState() }
