package session

import "time"

// ConnectMode selects which side of the TCP handshake a Session plays,
// mirroring transport.Mode at the session layer so callers of this
// package don't need to import pkg/transport directly.
type ConnectMode int

const (
	Passive ConnectMode = iota
	Active
)

// Settings is the immutable Parameter Settings attached to a Session
// (spec.md §4.7): timer/mode configuration. Build one with NewSettings
// and the With* options; the zero value is not meaningful (mirrors the
// teacher's immutable-factory-plus-checkRep discipline in pkg/ast, minus
// the panic-based validation since every field here already has a safe
// default).
type Settings struct {
	connectMode ConnectMode
	t3, t5, t6, t7, t8 time.Duration
}

// Option configures a Settings value built by NewSettings.
type Option func(*Settings)

// WithConnectMode overrides the default Passive connect mode.
func WithConnectMode(m ConnectMode) Option { return func(s *Settings) { s.connectMode = m } }

// WithT3 overrides the reply-to-primary-data-message timer.
func WithT3(d time.Duration) Option { return func(s *Settings) { s.t3 = d } }

// WithT5 overrides the Active connect attempt timer.
func WithT5(d time.Duration) Option { return func(s *Settings) { s.t5 = d } }

// WithT6 overrides the control-transaction reply timer.
func WithT6(d time.Duration) Option { return func(s *Settings) { s.t6 = d } }

// WithT7 overrides the not-selected-while-connected timer.
func WithT7(d time.Duration) Option { return func(s *Settings) { s.t7 = d } }

// WithT8 overrides the inter-character (TCP read/write) timer.
func WithT8(d time.Duration) Option { return func(s *Settings) { s.t8 = d } }

// NewSettings returns Settings with the spec.md §4.7 defaults
// (ConnectMode=Passive, T3=45s, T5=10s, T6=5s, T7=10s, T8=5s), as
// overridden by opts.
func NewSettings(opts ...Option) Settings {
	s := Settings{
		connectMode: Passive,
		t3:          45 * time.Second,
		t5:          10 * time.Second,
		t6:          5 * time.Second,
		t7:          10 * time.Second,
		t8:          5 * time.Second,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s Settings) ConnectMode() ConnectMode { return s.connectMode }
func (s Settings) T3() time.Duration        { return s.t3 }
func (s Settings) T5() time.Duration        { return s.t5 }
func (s Settings) T6() time.Duration        { return s.t6 }
func (s Settings) T7() time.Duration        { return s.t7 }
func (s Settings) T8() time.Duration        { return s.t8 }
