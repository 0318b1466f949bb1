package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anha-cs/filechat/internal/core"
	"github.com/anha-cs/filechat/internal/transport/tcp"
)

// startTestServer runs a real server on an ephemeral port.
func startTestServer(t *testing.T) (host string, port int) {
	t.Helper()

	logger := zerolog.Nop()
	hub := core.NewHub(&logger, nil)
	srv := tcp.NewServer(hub, "127.0.0.1:0", &logger)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, lis)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})

	addr := lis.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

// startTestClient dials a full client whose stdin is a pipe the test writes
// into.
func startTestClient(t *testing.T, host string, port int, username string, opts Options) (*syncBuffer, io.Writer) {
	t.Helper()

	console := &syncBuffer{}
	logger := zerolog.Nop()

	c, err := Dial(host, port, username, console, &logger, opts)
	require.NoError(t, err)

	inR, inW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() {
		runDone <- c.Run(ctx, inR)
	}()
	t.Cleanup(func() {
		cancel()
		inW.Close()
		select {
		case <-runDone:
		case <-time.After(3 * time.Second):
			t.Error("client did not stop")
		}
	})

	return console, inW
}

func typeLine(t *testing.T, in io.Writer, line string) {
	t.Helper()
	_, err := io.WriteString(in, line+"\n")
	require.NoError(t, err)
}

func waitForConsole(t *testing.T, console *syncBuffer, substr string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(console.String(), substr)
	}, 5*time.Second, 20*time.Millisecond, "console never showed %q; got:\n%s", substr, console.String())
}

// TestFileTransferEndToEnd drives the whole handshake with two real clients:
// initiate, accept, port handoff, out-of-band byte copy, and the completion
// broadcast naming the file.
func TestFileTransferEndToEnd(t *testing.T) {
	host, port := startTestServer(t)

	downloads := t.TempDir()
	aliceConsole, aliceIn := startTestClient(t, host, port, "alice", Options{})
	bobConsole, bobIn := startTestClient(t, host, port, "bob", Options{DownloadDir: downloads})

	waitForConsole(t, aliceConsole, "[bob] has joined the chat.")

	content := []byte("the quick brown fox jumps over the lazy dog\n")
	src := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(src, content, 0o644))

	typeLine(t, aliceIn, "/sendfile bob "+src)
	waitForConsole(t, bobConsole, "[File transfer initiated from alice to bob "+src)

	typeLine(t, bobIn, "/acceptfile alice")
	waitForConsole(t, aliceConsole, "[File transfer accepted from alice to bob]")

	// Exactly one completion broadcast mentioning the file reaches everyone.
	waitForConsole(t, aliceConsole, "[File transfer complete from alice to bob "+src)
	waitForConsole(t, bobConsole, "[File transfer complete from alice to bob "+src)
	assert.Equal(t, 1, strings.Count(aliceConsole.String(), "[File transfer complete"))

	dest := filepath.Join(downloads, "received_alice_"+filepath.Base(src))
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

// TestFileTransferRejectionEndToEnd checks that a rejection produces no port
// handoff, no file, and frees the sender's pending slot for a fresh attempt.
func TestFileTransferRejectionEndToEnd(t *testing.T) {
	host, port := startTestServer(t)

	downloads := t.TempDir()
	aliceConsole, aliceIn := startTestClient(t, host, port, "alice", Options{})
	bobConsole, bobIn := startTestClient(t, host, port, "bob", Options{DownloadDir: downloads})

	waitForConsole(t, aliceConsole, "[bob] has joined the chat.")

	src := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	typeLine(t, aliceIn, "/sendfile bob "+src)
	waitForConsole(t, bobConsole, "[File transfer initiated from alice to bob "+src)

	typeLine(t, bobIn, "/rejectfile alice")
	waitForConsole(t, aliceConsole, "[File transfer rejected by bob]")

	// No transfer ever starts and no file appears.
	time.Sleep(200 * time.Millisecond)
	entries, err := os.ReadDir(downloads)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejection must not produce a file")
	assert.NotContains(t, aliceConsole.String(), "[File transfer complete")

	// The sender's slot is free again: a fresh /sendfile goes through.
	typeLine(t, aliceIn, "/sendfile bob "+src)
	require.Eventually(t, func() bool {
		return strings.Count(bobConsole.String(), "[File transfer initiated from alice to bob") == 2
	}, 5*time.Second, 20*time.Millisecond, "second initiation never reached bob")
}

// TestSenderAcceptTimeoutEndToEnd pairs a real sending client with a wire
// level recipient that accepts the transfer but never dials the announced
// port.
func TestSenderAcceptTimeoutEndToEnd(t *testing.T) {
	host, port := startTestServer(t)

	aliceConsole, aliceIn := startTestClient(t, host, port, "alice", Options{
		AcceptTimeout: 200 * time.Millisecond,
	})

	// Wire-level bob: accepts, then ignores the port announcement.
	conn, err := net.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()
	fmt.Fprintln(conn, "bob")

	src := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	waitForConsole(t, aliceConsole, "[bob] has joined the chat.")
	typeLine(t, aliceIn, "/sendfile bob "+src)

	scanner := bufio.NewScanner(conn)
	sawRequest := false
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "/filerequest ") {
			sawRequest = true
			break
		}
	}
	require.True(t, sawRequest, "wire recipient never saw the file request")

	fmt.Fprintln(conn, "/acceptfile alice "+src)

	// The sender opens its listener, announces the port, and then times out
	// because nobody connects.
	waitForConsole(t, aliceConsole, "[File transfer failed: Recipient bob timed out during connection.]")
}
