// Package proto defines the newline-terminated text protocol spoken between
// the chat server and its clients, including the file-transfer handshake
// commands relayed between peers.
package proto

import "strings"

// Command keywords. Keywords are case-sensitive; arguments are space-separated
// and the last argument may contain spaces where noted.
const (
	CmdQuit         = "/quit"
	CmdWho          = "/who"
	CmdSendFile     = "/sendfile"
	CmdAcceptFile   = "/acceptfile"
	CmdRejectFile   = "/rejectfile"
	CmdFileRequest  = "/filerequest"
	CmdFileAccepted = "/fileaccepted"
	CmdFilePort     = "/fileport"
	CmdFileComplete = "/filecomplete"
)

// Kind classifies an inbound line.
type Kind int

const (
	// KindChat is any line that is not a recognized command; relayed verbatim.
	KindChat Kind = iota
	// KindQuit requests a graceful disconnect.
	KindQuit
	// KindWho requests the online-user list.
	KindWho
	// KindSendFile initiates a file-transfer handshake.
	KindSendFile
	// KindAcceptFile accepts a pending transfer from the named sender.
	KindAcceptFile
	// KindRejectFile rejects a pending transfer from the named sender.
	KindRejectFile
	// KindFileRequest is the private prompt delivered to a transfer recipient.
	KindFileRequest
	// KindFileAccepted is the private trigger delivered to a transfer sender.
	KindFileAccepted
	// KindFilePort announces the sender's ephemeral listening port.
	KindFilePort
	// KindFileComplete carries the completion summary for broadcast.
	KindFileComplete
	// KindMalformed is a recognized command with missing arguments.
	KindMalformed
)

// Line is one parsed protocol line. Which fields are set depends on Kind:
// Peer names the counterpart (recipient for sendfile/fileaccepted/fileport,
// sender for acceptfile/rejectfile/filerequest), Text carries chat or
// completion text, Raw always holds the original line.
type Line struct {
	Kind      Kind
	Peer      string
	Filename  string
	SizeLabel string
	Port      string
	Text      string
	Raw       string
	Usage     string
}

// Parse classifies a single inbound line. It never fails: unrecognized lines
// come back as KindChat and incomplete commands as KindMalformed with a usage
// hint to echo back to the offending client.
func Parse(raw string) Line {
	line := Line{Kind: KindChat, Text: raw, Raw: raw}

	switch {
	case raw == CmdQuit:
		line.Kind = KindQuit
	case raw == CmdWho:
		line.Kind = KindWho
	case hasCommand(raw, CmdSendFile):
		parseSendFile(&line, raw)
	case hasCommand(raw, CmdAcceptFile):
		parseResponse(&line, raw, KindAcceptFile)
	case hasCommand(raw, CmdRejectFile):
		parseResponse(&line, raw, KindRejectFile)
	case hasCommand(raw, CmdFileRequest):
		parseFileRequest(&line, raw)
	case hasCommand(raw, CmdFileAccepted):
		parseFileAccepted(&line, raw)
	case hasCommand(raw, CmdFilePort):
		parseFilePort(&line, raw)
	case hasCommand(raw, CmdFileComplete):
		line.Kind = KindFileComplete
		line.Text = strings.TrimPrefix(raw, CmdFileComplete+" ")
	}
	return line
}

func hasCommand(raw, cmd string) bool {
	return raw == cmd || strings.HasPrefix(raw, cmd+" ")
}

// parseSendFile handles `/sendfile <recipient> <filename> <sizeLabel>`.
// The size label may contain spaces ("12 KB").
func parseSendFile(line *Line, raw string) {
	parts := strings.SplitN(raw, " ", 4)
	if len(parts) < 3 {
		line.Kind = KindMalformed
		line.Usage = "Usage: /sendfile <recipient> <filename>"
		return
	}
	line.Kind = KindSendFile
	line.Peer = parts[1]
	line.Filename = parts[2]
	if len(parts) == 4 {
		line.SizeLabel = parts[3]
	} else {
		line.SizeLabel = "unknown size"
	}
}

// parseResponse handles `/acceptfile <sender> [filename]` and
// `/rejectfile <sender>`.
func parseResponse(line *Line, raw string, kind Kind) {
	parts := strings.SplitN(raw, " ", 3)
	if len(parts) < 2 {
		line.Kind = KindMalformed
		line.Usage = "Usage: /acceptfile <sendername> or /rejectfile <sendername>"
		return
	}
	line.Kind = kind
	line.Peer = parts[1]
	if len(parts) == 3 {
		line.Filename = parts[2]
	} else {
		line.Filename = "unknown_file"
	}
}

// parseFileRequest handles `/filerequest <sender> <filename> <sizeLabel>`.
func parseFileRequest(line *Line, raw string) {
	parts := strings.SplitN(raw, " ", 4)
	if len(parts) < 4 {
		line.Kind = KindMalformed
		return
	}
	line.Kind = KindFileRequest
	line.Peer = parts[1]
	line.Filename = parts[2]
	line.SizeLabel = parts[3]
}

// parseFileAccepted handles `/fileaccepted <recipient> <filename>`.
func parseFileAccepted(line *Line, raw string) {
	parts := strings.SplitN(raw, " ", 3)
	if len(parts) < 3 {
		line.Kind = KindMalformed
		return
	}
	line.Kind = KindFileAccepted
	line.Peer = parts[1]
	line.Filename = parts[2]
}

// parseFilePort handles `/fileport <recipient> <port>`. The port is kept as a
// string: the server relays the line verbatim and never validates the value.
func parseFilePort(line *Line, raw string) {
	parts := strings.SplitN(raw, " ", 3)
	if len(parts) < 3 {
		line.Kind = KindMalformed
		line.Usage = "Usage: /fileport <recipient> <port>"
		return
	}
	line.Kind = KindFilePort
	line.Peer = parts[1]
	line.Port = parts[2]
}
