package transfer

import "sync"

// PendingSlot is a client's single-item memory of the one transfer it is
// currently a party to. Every new outgoing /sendfile or incoming request
// overwrites it: last write wins, so concurrent transfer attempts involving
// the same client clobber each other. That is the documented behavior of the
// protocol, not something this type papers over.
type PendingSlot struct {
	mu  sync.Mutex
	req *Request
}

// Set stores a new pending request, replacing whatever was there.
func (p *PendingSlot) Set(req Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.req = &req
}

// Get returns a copy of the pending request, if any.
func (p *PendingSlot) Get() (Request, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.req == nil {
		return Request{}, false
	}
	return *p.req, true
}

// Matches reports whether the slot holds a request from the named sender,
// compared case-insensitively. An empty slot matches nothing.
func (p *PendingSlot) Matches(sender string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.req != nil && EqualNames(p.req.Sender, sender)
}

// Advance transitions the pending request's state in place. It is a no-op on
// an empty slot; an illegal transition leaves the state unchanged.
func (p *PendingSlot) Advance(to State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.req == nil {
		return nil
	}
	return p.req.Transition(to)
}

// Clear empties the slot so a fresh transfer can be issued.
func (p *PendingSlot) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.req = nil
}
