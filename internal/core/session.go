package core

// Session is the server's live record of one connected client. The username is
// bound once from the first inbound line and the outbox is drained by the
// connection's write loop. All fields besides the channel are guarded by the
// hub mutex; callers outside the hub interact with a session only through hub
// methods and the Outbox channel.
type Session struct {
	ID string

	name   string
	outbox chan string
	closed bool
}

// outboxSize bounds how many undelivered lines a slow client may queue before
// broadcasts start dropping for it.
const outboxSize = 32

func newSession(id string) *Session {
	return &Session{
		ID:     id,
		outbox: make(chan string, outboxSize),
	}
}

// Outbox exposes the session's outbound line stream. The channel is closed by
// Unregister; the write loop must treat closure as end of session.
func (s *Session) Outbox() <-chan string {
	return s.outbox
}
