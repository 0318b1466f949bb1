package core

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestHub() *Hub {
	logger := zerolog.Nop()
	return NewHub(&logger, nil)
}

// mustLine waits for the next line on a session's outbox.
func mustLine(t *testing.T, s *Session) string {
	t.Helper()

	select {
	case line, ok := <-s.Outbox():
		if !ok {
			t.Fatalf("outbox closed while waiting for line")
		}
		return line
	case <-time.After(2 * time.Second):
		t.Fatalf("expected line not received")
		return ""
	}
}

// mustNoLine asserts nothing is queued for the session.
func mustNoLine(t *testing.T, s *Session) {
	t.Helper()

	select {
	case line, ok := <-s.Outbox():
		if ok {
			t.Fatalf("unexpected line received: %q", line)
		}
	case <-time.After(50 * time.Millisecond):
	}
}
