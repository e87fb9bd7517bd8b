// Package xlog holds the logrus.Fields builders shared by pkg/transport
// and pkg/session so every log line about a connection or transaction
// carries the same keys.
package xlog

import "github.com/sirupsen/logrus"

// Conn tags a log line with the endpoint a transport client is talking
// to.
func Conn(endpoint string) logrus.Fields {
	return logrus.Fields{"endpoint": endpoint}
}

// Session tags a log line with a session/system pair.
func Session(sessionID uint16, system uint32) logrus.Fields {
	return logrus.Fields{"session_id": sessionID, "system": system}
}
