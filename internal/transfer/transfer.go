// Package transfer holds the client side of a brokered file transfer: the
// single pending-request slot, the request state machine, and the out-of-band
// send/receive legs that move the file bytes directly between two peers.
package transfer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// State tracks where a transfer request is in the four-step handshake.
type State uint8

const (
	// StateRequested means the initiation command was sent and the recipient
	// has been prompted.
	StateRequested State = iota
	// StateAccepted means the recipient agreed and the sender may open its
	// ephemeral listener.
	StateAccepted
	// StatePortAnnounced means the sender's listening port was relayed to the
	// recipient.
	StatePortAnnounced
	// StateCompleted means the byte copy finished. Terminal.
	StateCompleted
	// StateRejected means the recipient declined. Terminal.
	StateRejected
	// StateFailed means a timeout or I/O error ended the attempt. Terminal.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRequested:
		return "requested"
	case StateAccepted:
		return "accepted"
	case StatePortAnnounced:
		return "port_announced"
	case StateCompleted:
		return "completed"
	case StateRejected:
		return "rejected"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// terminal reports whether no further transition is allowed.
func (s State) terminal() bool {
	return s == StateCompleted || s == StateRejected || s == StateFailed
}

// Request is one transfer attempt as seen by a client. The sender's client
// holds the authoritative copy used to start the outbound leg; the recipient's
// copy validates accept/reject commands. The server never stores one.
type Request struct {
	Sender    string
	Recipient string
	Filename  string
	SizeLabel string
	State     State
}

// Transition moves the request to the given state, rejecting anything the
// handshake does not allow. StateFailed is reachable from any live state.
func (r *Request) Transition(to State) error {
	if r.State.terminal() {
		return fmt.Errorf("transfer already %s", r.State)
	}
	if to == StateFailed {
		r.State = to
		return nil
	}

	ok := false
	switch r.State {
	case StateRequested:
		ok = to == StateAccepted || to == StateRejected
	case StateAccepted:
		ok = to == StatePortAnnounced
	case StatePortAnnounced:
		ok = to == StateCompleted
	}
	if !ok {
		return fmt.Errorf("cannot move transfer from %s to %s", r.State, to)
	}
	r.State = to
	return nil
}

// SizeLabel renders a byte count the way the handshake reports sizes. It is
// informational only and never used as a length prefix.
func SizeLabel(bytes int64) string {
	return fmt.Sprintf("%d KB", bytes/1024)
}

// SaveName derives the local destination file for a received transfer from the
// sender and the announced filename. Only the base name of the announced file
// is used so a remote peer cannot steer the write outside the download
// directory.
func SaveName(sender, filename string) string {
	return fmt.Sprintf("received_%s_%s", sender, filepath.Base(filename))
}

// EqualNames compares usernames the way the registry resolves them.
func EqualNames(a, b string) bool {
	return strings.EqualFold(a, b)
}
