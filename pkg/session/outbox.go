package session

import (
	"sync"

	"github.com/wolimst/lib-secs2-hsms-go/pkg/hsms"
)

// outboxEntry is one open transaction: a nonce-keyed, one-shot wait for
// the reply to a primary message identified by key. reply is buffered(1)
// so complete() never blocks on a waiter that already gave up.
type outboxEntry struct {
	key   hsms.ID
	reply chan hsms.Message
	kind  string
}

// outbox is the mutex-protected hash map described in spec.md §4.5/§5,
// correlating outstanding primaries to their replies by (session_id,
// system_bytes). Matching is first-inserted-first-matched: order tracks
// insertion so complete() resolves the oldest open transaction for a key,
// mirroring the generic receive handler's "first matching entry" rule.
type outbox struct {
	mu        sync.Mutex
	nextNonce uint32
	entries   map[uint32]*outboxEntry
	order     []uint32
}

func newOutbox() *outbox {
	return &outbox{entries: make(map[uint32]*outboxEntry)}
}

// open registers a new transaction for key and returns its nonce and the
// channel its reply (or, on drain, a close with no value) will arrive on.
// A transaction discarded with remove never receives anything on it.
func (o *outbox) open(key hsms.ID, kind string) (uint32, <-chan hsms.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextNonce++
	nonce := o.nextNonce
	e := &outboxEntry{key: key, reply: make(chan hsms.Message, 1), kind: kind}
	o.entries[nonce] = e
	o.order = append(o.order, nonce)
	return nonce, e.reply
}

// complete resolves the oldest open transaction matching key with msg. It
// reports whether a matching transaction was found; the receive handler
// answers with Reject(TransactionNotOpen) when it is not.
func (o *outbox) complete(key hsms.ID, msg hsms.Message) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, nonce := range o.order {
		e, ok := o.entries[nonce]
		if !ok {
			continue
		}
		if e.key != key {
			continue
		}
		delete(o.entries, nonce)
		o.order = append(o.order[:i:i], o.order[i+1:]...)
		e.reply <- msg
		close(e.reply)
		return true
	}
	return false
}

// remove discards the transaction for nonce without delivering a reply.
// Idempotent: a nonce already resolved by complete, or already removed,
// is a no-op.
func (o *outbox) remove(nonce uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.entries[nonce]; !ok {
		return
	}
	delete(o.entries, nonce)
	for i, n := range o.order {
		if n == nonce {
			o.order = append(o.order[:i:i], o.order[i+1:]...)
			break
		}
	}
}

// drain resolves every open transaction with a timeout-shaped outcome (no
// value, closed channel), used when the transport disconnects out from
// under the outbox.
func (o *outbox) drain() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, nonce := range o.order {
		if e, ok := o.entries[nonce]; ok {
			close(e.reply)
		}
	}
	o.entries = make(map[uint32]*outboxEntry)
	o.order = nil
}
