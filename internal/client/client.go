// Package client implements the chat client: the main connection loops, the
// console, and the two out-of-band transfer legs.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/anha-cs/filechat/internal/transfer"
)

// Client is one chat participant. It runs a reader goroutine for server lines
// and a main loop over console input; each active transfer leg runs in its own
// goroutine so it never blocks chat traffic.
type Client struct {
	host          string
	username      string
	downloadDir   string
	acceptTimeout time.Duration

	conn    net.Conn
	console io.Writer
	log     *zerolog.Logger

	sendMu sync.Mutex
	slot   transfer.PendingSlot

	transfers sync.WaitGroup
}

// Options tune optional client behavior.
type Options struct {
	// DownloadDir is where received files land. Empty means the working
	// directory.
	DownloadDir string
	// AcceptTimeout overrides how long an accepted transfer waits for the
	// recipient to connect. Zero means transfer.AcceptTimeout.
	AcceptTimeout time.Duration
}

// New wraps an established connection. host is the server's host name, reused
// to dial the sender's announced port for the out-of-band leg.
func New(conn net.Conn, host, username string, console io.Writer, logger *zerolog.Logger, opts Options) *Client {
	if opts.AcceptTimeout == 0 {
		opts.AcceptTimeout = transfer.AcceptTimeout
	}
	return &Client{
		host:          host,
		username:      username,
		downloadDir:   opts.DownloadDir,
		acceptTimeout: opts.AcceptTimeout,
		conn:          conn,
		console:       console,
		log:           logger,
	}
}

// Dial connects to the chat server and wraps the connection.
func Dial(host string, port int, username string, console io.Writer, logger *zerolog.Logger, opts Options) (*Client, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return New(conn, host, username, console, logger, opts), nil
}

// Run introduces the client to the server and serves both loops until the
// console input ends, the server connection drops, or the context is
// cancelled. In-flight transfer legs are waited for before returning.
func (c *Client) Run(ctx context.Context, input io.Reader) error {
	if err := c.send(c.username); err != nil {
		return fmt.Errorf("send username: %w", err)
	}
	c.printf("Connected to server. You can start sending messages.")

	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		errCh <- c.readLoop()
	}()
	go func() {
		errCh <- c.inputLoop(input)
	}()

	err := <-errCh
	c.conn.Close()
	c.transfers.Wait()

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// readLoop consumes server lines until end-of-stream.
func (c *Client) readLoop() error {
	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		c.handleServerLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("read server line: %w", err)
	}
	return nil
}

// inputLoop consumes console lines until EOF or /quit.
func (c *Client) inputLoop(input io.Reader) error {
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		if !c.HandleInput(scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}

// send writes one line to the server. The reader goroutine and transfer legs
// also write, so the connection is guarded by a mutex.
func (c *Client) send(line string) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	_, err := fmt.Fprintln(c.conn, line)
	return err
}

// printf reports to the local console only.
func (c *Client) printf(format string, args ...any) {
	fmt.Fprintf(c.console, format+"\n", args...)
}
