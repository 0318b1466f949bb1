package proto

import (
	"fmt"
	"strings"
)

// Client-to-server command builders.

// SendFile builds the transfer-initiation command.
func SendFile(recipient, filename, sizeLabel string) string {
	return fmt.Sprintf("%s %s %s %s", CmdSendFile, recipient, filename, sizeLabel)
}

// AcceptFile builds the acceptance response. The filename rides along so the
// server can hand it back to the sender without keeping transfer state.
func AcceptFile(sender, filename string) string {
	return fmt.Sprintf("%s %s %s", CmdAcceptFile, sender, filename)
}

// RejectFile builds the rejection response.
func RejectFile(sender string) string {
	return fmt.Sprintf("%s %s", CmdRejectFile, sender)
}

// FilePort builds the ephemeral-port announcement.
func FilePort(recipient string, port int) string {
	return fmt.Sprintf("%s %s %d", CmdFilePort, recipient, port)
}

// FileComplete wraps the completion summary for broadcast.
func FileComplete(message string) string {
	return fmt.Sprintf("%s %s", CmdFileComplete, message)
}

// Server-to-client line builders.

// FileRequest is the private prompt delivered to the transfer recipient.
func FileRequest(sender, filename, sizeLabel string) string {
	return fmt.Sprintf("%s %s %s %s", CmdFileRequest, sender, filename, sizeLabel)
}

// FileAccepted is the private trigger delivered to the transfer sender.
func FileAccepted(recipient, filename string) string {
	return fmt.Sprintf("%s %s %s", CmdFileAccepted, recipient, filename)
}

// Human-readable notices. The bracketed forms match what clients print
// verbatim, so changing them is a wire-protocol change.

// JoinNotice announces a newly named session.
func JoinNotice(name string) string {
	return fmt.Sprintf("[%s] has joined the chat.", name)
}

// LeaveNotice announces a departed session.
func LeaveNotice(name string) string {
	return fmt.Sprintf("[%s] has left the chat.", name)
}

// ChatLine prefixes a relayed chat message with its author.
func ChatLine(name, text string) string {
	return fmt.Sprintf("[%s] %s", name, text)
}

// OnlineUsers formats the reply to /who.
func OnlineUsers(names []string) string {
	return fmt.Sprintf("[Online users: %s]", strings.Join(names, ", "))
}

// TransferInitiated is the public notice broadcast on a new handshake.
func TransferInitiated(sender, recipient, filename, sizeLabel string) string {
	return fmt.Sprintf("[File transfer initiated from %s to %s %s (%s)]", sender, recipient, filename, sizeLabel)
}

// TransferAccepted is the public notice broadcast on acceptance.
func TransferAccepted(sender, recipient string) string {
	return fmt.Sprintf("[File transfer accepted from %s to %s]", sender, recipient)
}

// TransferRejectedPrivate is sent to the sender on rejection.
func TransferRejectedPrivate(recipient string) string {
	return fmt.Sprintf("[File transfer rejected by %s]", recipient)
}

// TransferRejectedPublic is the public notice broadcast on rejection.
func TransferRejectedPublic(recipient, sender string) string {
	return fmt.Sprintf("[File transfer rejected by %s for a file from %s]", recipient, sender)
}

// TransferComplete is the completion summary the recipient submits via
// /filecomplete once the byte copy finishes.
func TransferComplete(sender, recipient, filename string, sizeKB int64) string {
	return fmt.Sprintf("[File transfer complete from %s to %s %s (%d KB)]", sender, recipient, filename, sizeKB)
}

// UserNotFound is the private reply for an unresolvable recipient name.
func UserNotFound(name string) string {
	return fmt.Sprintf("[Server] User '%s' not found.", name)
}

// UserNotFoundRelay is the private reply when a port announcement cannot be
// relayed because the recipient is gone.
func UserNotFoundRelay(name string) string {
	return fmt.Sprintf("[Server] User '%s' not found to relay file port.", name)
}

// NoPendingRequest is printed locally when an accept or reject names a sender
// with no pending transfer.
func NoPendingRequest(sender string) string {
	return fmt.Sprintf("[Server] No pending file request from %s.", sender)
}
