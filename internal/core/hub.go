// Package core implements the session registry, the broadcaster, and the
// file-transfer coordinator shared by every connection.
package core

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/anha-cs/filechat/internal/proto"
	"github.com/anha-cs/filechat/internal/store"
)

// Hub owns the registry of live sessions and routes every inbound line. One
// coarse mutex covers registration, lookup, and broadcast so no delivery ever
// observes a half-updated session set. Sends into a session outbox are
// non-blocking: a full outbox is logged and skipped without stalling delivery
// to the remaining sessions.
type Hub struct {
	mu       sync.Mutex
	sessions []*Session // registration order

	log      *zerolog.Logger
	transfer store.TransferLog // nil when the audit log is disabled
}

// NewHub constructs a hub. transferLog may be nil to disable audit records.
func NewHub(logger *zerolog.Logger, transferLog store.TransferLog) *Hub {
	return &Hub{log: logger, transfer: transferLog}
}

// Register adds an unnamed session under the given ID. The session joins the
// broadcast set immediately but is invisible to name lookup and /who until
// BindName is called.
func (h *Hub) Register(id string) *Session {
	s := newSession(id)

	h.mu.Lock()
	h.sessions = append(h.sessions, s)
	h.mu.Unlock()

	h.log.Debug().Str("session_id", id).Msg("session registered")
	return s
}

// BindName binds the display name from the connection's first line and
// announces the arrival to everyone else. Names are not unique: a duplicate is
// accepted and simply shadowed in lookups by the earlier registration.
func (h *Hub) BindName(s *Session, name string) {
	h.mu.Lock()
	if s.name == "" {
		s.name = name
	}
	h.broadcastLocked(proto.JoinNotice(name), s)
	h.mu.Unlock()

	h.log.Info().Str("session_id", s.ID).Str("username", name).Msg("user joined")
}

// Unregister removes the session and, when it was named, announces the
// departure. It is idempotent; the outbox is closed exactly once.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	found := false
	for i, cur := range h.sessions {
		if cur == s {
			h.sessions = append(h.sessions[:i], h.sessions[i+1:]...)
			found = true
			break
		}
	}
	name := s.name
	if found {
		s.closed = true
		close(s.outbox)
		if name != "" {
			h.broadcastLocked(proto.LeaveNotice(name), s)
		}
	}
	h.mu.Unlock()

	if found && name != "" {
		h.log.Info().Str("session_id", s.ID).Str("username", name).Msg("user left")
	}
}

// Usernames returns a snapshot of all bound usernames in registration order.
func (h *Hub) Usernames() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.sessions))
	for _, s := range h.sessions {
		if s.name != "" {
			names = append(names, s.name)
		}
	}
	return names
}

// FindByName resolves a bound username case-insensitively, returning the first
// match in registration order, or nil.
func (h *Hub) FindByName(name string) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.findLocked(name)
}

func (h *Hub) findLocked(name string) *Session {
	for _, s := range h.sessions {
		if s.name != "" && strings.EqualFold(s.name, name) {
			return s
		}
	}
	return nil
}

// Broadcast delivers line to every registered session except exclude. A nil
// exclude reaches everyone and is used for server-originated announcements.
func (h *Hub) Broadcast(line string, exclude *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(line, exclude)
}

func (h *Hub) broadcastLocked(line string, exclude *Session) {
	for _, s := range h.sessions {
		if s == exclude {
			continue
		}
		h.sendLocked(s, line)
	}
}

// SendTo delivers line to a single session.
func (h *Hub) SendTo(s *Session, line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendLocked(s, line)
}

func (h *Hub) sendLocked(s *Session, line string) {
	if s.closed {
		return
	}
	select {
	case s.outbox <- line:
	default:
		// Slow consumer; dropping beats stalling every other recipient.
		h.log.Warn().Str("session_id", s.ID).Str("username", s.name).Msg("outbox full, dropping line")
	}
}

// HandleLine routes one inbound line from a named session. It returns false
// when the session asked to quit and the read loop should stop.
func (h *Hub) HandleLine(ctx context.Context, s *Session, raw string) bool {
	line := proto.Parse(raw)

	switch line.Kind {
	case proto.KindQuit:
		return false
	case proto.KindWho:
		h.handleWho(s)
	case proto.KindSendFile:
		h.handleSendFile(ctx, s, line)
	case proto.KindAcceptFile:
		h.handleAccept(ctx, s, line)
	case proto.KindRejectFile:
		h.handleReject(ctx, s, line)
	case proto.KindFilePort:
		h.handleFilePort(s, line)
	case proto.KindFileComplete:
		h.handleFileComplete(ctx, s, line)
	case proto.KindMalformed:
		if line.Usage != "" {
			h.SendTo(s, "[Server] Command incomplete. "+line.Usage)
		}
	default:
		h.handleChat(s, raw)
	}
	return true
}

func (h *Hub) handleWho(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.sessions))
	for _, cur := range h.sessions {
		if cur.name != "" {
			names = append(names, cur.name)
		}
	}
	h.log.Debug().Str("username", s.name).Msg("online users list requested")
	h.sendLocked(s, proto.OnlineUsers(names))
}

func (h *Hub) handleChat(s *Session, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(proto.ChatLine(s.name, text), s)
}
