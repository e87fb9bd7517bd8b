// Package metrics holds the prometheus collectors pkg/transport and
// pkg/session update as the engine runs. The core never starts an HTTP
// server itself; a host program serves the registry these collectors
// live in (by default prometheus.DefaultRegisterer's registry) on its own
// /metrics handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the prometheus registerer this package's collectors are
// registered against. The collectors below are registered with it during
// package initialization, so they always land in
// prometheus.DefaultRegisterer; assigning a different value to Registry
// afterwards does not move them.
var Registry prometheus.Registerer = prometheus.DefaultRegisterer

var (
	// FramesSent counts frames written to the wire by pkg/transport.
	FramesSent = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "hsms_frames_sent_total",
		Help: "Number of HSMS frames written to the wire.",
	})

	// FramesReceived counts frames parsed off the wire by pkg/transport.
	FramesReceived = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "hsms_frames_received_total",
		Help: "Number of HSMS frames parsed from the wire.",
	})

	// Disconnects counts transport teardowns, by trigger.
	Disconnects = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "hsms_disconnects_total",
		Help: "Number of transport disconnects, labeled by trigger.",
	}, []string{"trigger"})

	// SessionTransitions counts SelectionState transitions, by target
	// state.
	SessionTransitions = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "hsms_session_transitions_total",
		Help: "Number of SelectionState transitions, labeled by target state.",
	}, []string{"state"})

	// Rejects counts outbound Reject.req messages, by reason.
	Rejects = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "hsms_rejects_total",
		Help: "Number of outbound Reject.req messages, labeled by reason.",
	}, []string{"reason"})

	// Transactions counts outbox transactions opened, by procedure kind.
	Transactions = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "hsms_transactions_total",
		Help: "Number of outbox transactions opened, labeled by procedure kind.",
	}, []string{"kind"})

	// TransactionTimeouts counts transactions that resolved via timer
	// expiry rather than a matching reply.
	TransactionTimeouts = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "hsms_transaction_timeouts_total",
		Help: "Number of outbox transactions that timed out, labeled by procedure kind.",
	}, []string{"kind"})
)
