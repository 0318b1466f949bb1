package client

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/anha-cs/filechat/internal/proto"
	"github.com/anha-cs/filechat/internal/transfer"
)

// HandleInput processes one console line. It returns false once the user has
// quit and the main loop should stop.
func (c *Client) HandleInput(line string) bool {
	switch {
	case strings.HasPrefix(line, proto.CmdSendFile+" "):
		c.handleSendFile(line)
	case strings.HasPrefix(line, proto.CmdAcceptFile+" "):
		c.handleAcceptFile(line)
	case strings.HasPrefix(line, proto.CmdRejectFile+" "):
		c.handleRejectFile(line)
	default:
		if err := c.send(line); err != nil {
			c.printf("Unable to reach server: %v", err)
			return false
		}
	}
	return line != proto.CmdQuit
}

// handleSendFile validates the local file, seeds the pending slot with this
// client as sender, and sends the initiation command carrying the size label.
func (c *Client) handleSendFile(line string) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 3 {
		c.printf("Usage: /sendfile <recipient> <filename>")
		return
	}
	recipient, filename := parts[1], parts[2]

	info, err := os.Stat(filename)
	if err != nil {
		c.printf("File not found: %s", filename)
		return
	}
	label := transfer.SizeLabel(info.Size())

	c.slot.Set(transfer.Request{
		Sender:    c.username,
		Recipient: recipient,
		Filename:  filename,
		SizeLabel: label,
		State:     transfer.StateRequested,
	})

	if err := c.send(proto.SendFile(recipient, filename, label)); err != nil {
		c.printf("Unable to reach server: %v", err)
	}
}

// handleAcceptFile forwards the acceptance only when the named sender matches
// the pending slot.
func (c *Client) handleAcceptFile(line string) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) < 2 {
		return
	}
	sender := parts[1]

	if !c.slot.Matches(sender) {
		c.printf("%s", proto.NoPendingRequest(sender))
		return
	}
	req, _ := c.slot.Get()
	c.slot.Advance(transfer.StateAccepted)

	if err := c.send(proto.AcceptFile(sender, req.Filename)); err != nil {
		c.printf("Unable to reach server: %v", err)
	}
}

// handleRejectFile forwards the rejection and clears the slot.
func (c *Client) handleRejectFile(line string) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) < 2 {
		return
	}
	sender := parts[1]

	if !c.slot.Matches(sender) {
		c.printf("%s", proto.NoPendingRequest(sender))
		return
	}
	c.slot.Advance(transfer.StateRejected)
	c.slot.Clear()

	if err := c.send(proto.RejectFile(sender)); err != nil {
		c.printf("Unable to reach server: %v", err)
	}
}

// handleServerLine processes one line from the server. Handshake commands are
// consumed silently; everything else is chat and goes to the console.
func (c *Client) handleServerLine(raw string) {
	line := proto.Parse(raw)

	switch line.Kind {
	case proto.KindFileRequest:
		// The only server line that seeds the recipient's pending slot.
		c.slot.Set(transfer.Request{
			Sender:    line.Peer,
			Recipient: c.username,
			Filename:  line.Filename,
			SizeLabel: line.SizeLabel,
			State:     transfer.StateRequested,
		})
		c.log.Debug().Str("sender", line.Peer).Str("filename", line.Filename).Msg("file request pending")
	case proto.KindFileAccepted:
		// This client is the sender: start serving the file.
		c.slot.Advance(transfer.StateAccepted)
		c.transfers.Add(1)
		go func() {
			defer c.transfers.Done()
			c.runSendLeg(line.Peer, line.Filename)
		}()
	case proto.KindFilePort:
		// This client is the recipient: the sender's listener is up.
		port, err := strconv.Atoi(line.Port)
		if err != nil {
			c.printf("[File transfer failed: bad port %q from %s]", line.Port, line.Peer)
			c.slot.Clear()
			return
		}
		c.transfers.Add(1)
		go func() {
			defer c.transfers.Done()
			c.runReceiveLeg(port)
		}()
	default:
		c.maybeClearRejected(raw)
		c.printf("%s", raw)
	}
}

// maybeClearRejected frees the sender's pending slot when the private
// rejection notice arrives. Rejection reaches the sender as plain text, not a
// command, so this is the only hook the sender has to release the slot for a
// fresh /sendfile. The public rejection broadcast carries a longer form and is
// ignored so a bystander's unrelated slot is never touched.
func (c *Client) maybeClearRejected(raw string) {
	const prefix = "[File transfer rejected by "
	if !strings.HasPrefix(raw, prefix) || !strings.HasSuffix(raw, "]") ||
		strings.Contains(raw, " for a file from ") {
		return
	}
	recipient := strings.TrimSuffix(strings.TrimPrefix(raw, prefix), "]")

	req, ok := c.slot.Get()
	if !ok || !transfer.EqualNames(req.Sender, c.username) || !transfer.EqualNames(req.Recipient, recipient) {
		return
	}
	c.slot.Advance(transfer.StateRejected)
	c.slot.Clear()
	c.log.Debug().Str("recipient", recipient).Msg("pending transfer rejected by recipient")
}

// runSendLeg is the sender's out-of-band leg: open an ephemeral listener,
// announce its port through the server, wait for the one recipient
// connection, and stream the file. All failures are console reports only; the
// slot is cleared in every outcome so a fresh /sendfile can be issued.
func (c *Client) runSendLeg(recipient, filename string) {
	defer c.slot.Clear()

	n, err := transfer.Send(filename, c.acceptTimeout, func(port int) error {
		c.slot.Advance(transfer.StatePortAnnounced)
		return c.send(proto.FilePort(recipient, port))
	})
	if err != nil {
		c.slot.Advance(transfer.StateFailed)
		if errors.Is(err, os.ErrNotExist) {
			c.printf("[File Transfer Error: File %s not found locally.]", filename)
		} else if errors.Is(err, transfer.ErrAcceptTimeout) {
			c.printf("[File transfer failed: Recipient %s timed out during connection.]", recipient)
		} else {
			c.printf("[File transfer failed: connection lost with %s]", recipient)
		}
		c.log.Warn().Err(err).Str("recipient", recipient).Str("filename", filename).Msg("send leg failed")
		return
	}

	c.slot.Advance(transfer.StateCompleted)
	c.log.Info().Str("recipient", recipient).Str("filename", filename).Int64("bytes", n).Msg("file sent")
}

// runReceiveLeg is the recipient's out-of-band leg: dial the announced port on
// the server's host, stream the bytes to the derived local name, and submit
// the completion summary for broadcast. A partial file is deleted on error;
// the slot is cleared in every outcome.
func (c *Client) runReceiveLeg(port int) {
	req, ok := c.slot.Get()
	defer c.slot.Clear()
	if !ok {
		c.printf("[File transfer failed: no pending request for announced port %d]", port)
		return
	}

	dest := transfer.SaveName(req.Sender, req.Filename)
	if c.downloadDir != "" {
		dest = filepath.Join(c.downloadDir, dest)
	}

	c.slot.Advance(transfer.StatePortAnnounced)
	n, err := transfer.Receive(c.host, port, dest)
	if err != nil {
		c.slot.Advance(transfer.StateFailed)
		c.printf("[File transfer failed: %v]", err)
		c.log.Warn().Err(err).Str("sender", req.Sender).Str("filename", req.Filename).Msg("receive leg failed")
		return
	}

	c.slot.Advance(transfer.StateCompleted)
	summary := proto.TransferComplete(req.Sender, c.username, req.Filename, n/1024)
	if err := c.send(proto.FileComplete(summary)); err != nil {
		c.printf("Unable to reach server: %v", err)
	}
	c.log.Info().Str("sender", req.Sender).Str("dest", dest).Int64("bytes", n).Msg("file received")
}
