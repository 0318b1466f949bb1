package core

import (
	"context"
	"time"

	"github.com/anha-cs/filechat/internal/proto"
	"github.com/anha-cs/filechat/internal/store"
)

// File-transfer coordinator: the server side of the four-step handshake.
//
// The server keeps no transfer state of its own. Each step resolves the named
// counterpart, relays the private command, and emits the public notice; the
// ordering of the handshake is enforced by construction on the clients, which
// each hold a single pending-transfer slot. An unresolvable name at any step
// produces a private "user not found" reply to the session that issued the
// command and nothing else.

// handleSendFile runs step one: broadcast the public initiation notice to all
// sessions and deliver the private /filerequest prompt to the recipient.
func (h *Hub) handleSendFile(ctx context.Context, s *Session, line proto.Line) {
	h.mu.Lock()
	recipient := h.findLocked(line.Peer)
	if recipient == nil {
		h.sendLocked(s, proto.UserNotFound(line.Peer))
		h.mu.Unlock()
		return
	}
	sender := s.name
	h.broadcastLocked(proto.TransferInitiated(sender, recipient.name, line.Filename, line.SizeLabel), nil)
	h.sendLocked(recipient, proto.FileRequest(sender, line.Filename, line.SizeLabel))
	recipientName := recipient.name
	h.mu.Unlock()

	h.log.Info().
		Str("sender", sender).
		Str("recipient", recipientName).
		Str("filename", line.Filename).
		Str("size", line.SizeLabel).
		Msg("file transfer initiated")

	h.recordTransfer(ctx, store.TransferEvent{
		Type:      store.TransferInitiated,
		Sender:    sender,
		Recipient: recipientName,
		Filename:  line.Filename,
		SizeLabel: line.SizeLabel,
	})
}

// handleAccept runs step two (accept): notify the sender privately with
// /fileaccepted and broadcast the public acceptance notice.
func (h *Hub) handleAccept(ctx context.Context, s *Session, line proto.Line) {
	h.mu.Lock()
	sender := h.findLocked(line.Peer)
	if sender == nil {
		h.sendLocked(s, proto.UserNotFound(line.Peer))
		h.mu.Unlock()
		return
	}
	recipient := s.name
	h.broadcastLocked(proto.TransferAccepted(sender.name, recipient), nil)
	h.sendLocked(sender, proto.FileAccepted(recipient, line.Filename))
	senderName := sender.name
	h.mu.Unlock()

	h.log.Info().
		Str("sender", senderName).
		Str("recipient", recipient).
		Str("filename", line.Filename).
		Msg("file transfer accepted")

	h.recordTransfer(ctx, store.TransferEvent{
		Type:      store.TransferAccepted,
		Sender:    senderName,
		Recipient: recipient,
		Filename:  line.Filename,
	})
}

// handleReject runs step two (reject): the sender learns privately, everyone
// else sees the public rejection notice.
func (h *Hub) handleReject(ctx context.Context, s *Session, line proto.Line) {
	h.mu.Lock()
	sender := h.findLocked(line.Peer)
	if sender == nil {
		h.sendLocked(s, proto.UserNotFound(line.Peer))
		h.mu.Unlock()
		return
	}
	recipient := s.name
	h.sendLocked(sender, proto.TransferRejectedPrivate(recipient))
	h.broadcastLocked(proto.TransferRejectedPublic(recipient, sender.name), nil)
	senderName := sender.name
	h.mu.Unlock()

	h.log.Info().
		Str("sender", senderName).
		Str("recipient", recipient).
		Msg("file transfer rejected")

	h.recordTransfer(ctx, store.TransferEvent{
		Type:      store.TransferRejected,
		Sender:    senderName,
		Recipient: recipient,
	})
}

// handleFilePort runs step three: relay the announcement line verbatim,
// privately, to the recipient. The port value is never validated here.
func (h *Hub) handleFilePort(s *Session, line proto.Line) {
	h.mu.Lock()
	recipient := h.findLocked(line.Peer)
	if recipient == nil {
		h.sendLocked(s, proto.UserNotFoundRelay(line.Peer))
		h.mu.Unlock()
		return
	}
	h.sendLocked(recipient, line.Raw)
	senderName, recipientName := s.name, recipient.name
	h.mu.Unlock()

	h.log.Debug().
		Str("sender", senderName).
		Str("recipient", recipientName).
		Str("port", line.Port).
		Msg("file port relayed")
}

// handleFileComplete runs step four: strip the command prefix and broadcast
// the remaining summary to everyone, the original sender included.
func (h *Hub) handleFileComplete(ctx context.Context, s *Session, line proto.Line) {
	h.Broadcast(line.Text, nil)

	h.log.Info().Str("recipient", s.name).Str("summary", line.Text).Msg("file transfer complete")

	h.recordTransfer(ctx, store.TransferEvent{
		Type:      store.TransferCompleted,
		Recipient: h.nameOf(s),
		Detail:    line.Text,
	})
}

func (h *Hub) nameOf(s *Session) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return s.name
}

// recordTransfer appends an audit record when the transfer log is enabled.
// Failures are logged and never affect relaying.
func (h *Hub) recordTransfer(ctx context.Context, ev store.TransferEvent) {
	if h.transfer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if _, err := h.transfer.RecordTransferEvent(ctx, ev); err != nil {
		h.log.Warn().Err(err).Str("type", string(ev.Type)).Msg("failed to record transfer event")
	}
}
