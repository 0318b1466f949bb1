package transfer

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
)

// Receive dials the sender's announced port on host and streams the entire
// connection into destPath. End-of-stream marks end-of-file; there is no
// framing. On any error the partially written file is removed so a failed
// transfer leaves nothing behind.
func Receive(host string, port int, destPath string) (int64, error) {
	conn, err := net.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return 0, fmt.Errorf("connect to sender: %w", err)
	}
	defer conn.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(dest, conn)
	closeErr := dest.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(destPath)
		return n, fmt.Errorf("receive file: %w", err)
	}
	return n, nil
}
