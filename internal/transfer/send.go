package transfer

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// AcceptTimeout bounds how long the sender waits for the recipient to dial
// the announced ephemeral port.
const AcceptTimeout = 15 * time.Second

// ErrAcceptTimeout is returned when no recipient connects within the wait.
var ErrAcceptTimeout = errors.New("recipient timed out during connection")

// Send serves one file over a fresh ephemeral listener. announce is called
// with the listener's port once it is bound; it is expected to relay the port
// to the recipient through the chat connection. Send then blocks for exactly
// one inbound connection, bounded by timeout, streams the whole file, and
// returns the byte count. The listener is always released.
func Send(path string, timeout time.Duration, announce func(port int) error) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	lis, err := net.ListenTCP("tcp", &net.TCPAddr{Port: 0})
	if err != nil {
		return 0, fmt.Errorf("open ephemeral listener: %w", err)
	}
	defer lis.Close()

	port := lis.Addr().(*net.TCPAddr).Port
	if err := announce(port); err != nil {
		return 0, fmt.Errorf("announce port: %w", err)
	}

	if err := lis.SetDeadline(time.Now().Add(timeout)); err != nil {
		return 0, fmt.Errorf("set accept deadline: %w", err)
	}

	conn, err := lis.Accept()
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return 0, ErrAcceptTimeout
		}
		return 0, fmt.Errorf("accept receiver: %w", err)
	}
	defer conn.Close()

	n, err := io.Copy(conn, f)
	if err != nil {
		return n, fmt.Errorf("stream file: %w", err)
	}
	return n, nil
}
