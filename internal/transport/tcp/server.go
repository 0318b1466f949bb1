// Package tcp accepts chat connections and bridges them to the core hub. The
// wire format is newline-terminated UTF-8 text; the first line of every
// connection binds the username.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/anha-cs/filechat/internal/core"
)

// Server owns the listener and one handler goroutine per accepted connection.
type Server struct {
	addr string
	hub  *core.Hub
	log  *zerolog.Logger

	wg sync.WaitGroup
}

// NewServer builds a TCP chat server listening on addr.
func NewServer(hub *core.Hub, addr string, logger *zerolog.Logger) *Server {
	return &Server{addr: addr, hub: hub, log: logger}
}

// Run listens and serves until the context is cancelled. A listen failure
// (port already bound) is returned immediately, before any serving starts.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections from an established listener until the context is
// cancelled, then waits for the per-connection handlers to finish.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	stop := context.AfterFunc(ctx, func() { lis.Close() })
	defer stop()

	s.log.Info().Str("addr", lis.Addr().String()).Msg("server listening, waiting for connections")

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

// handle bridges one connection to the hub: a write loop drains the session
// outbox to the socket while the read loop feeds inbound lines to the hub.
// Whichever loop ends first closes the connection; unregistration closes the
// outbox, which in turn ends the write loop.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	sess := s.hub.Register(uuid.NewString())
	defer s.hub.Unregister(sess)

	s.log.Info().
		Str("session_id", sess.ID).
		Str("remote", conn.RemoteAddr().String()).
		Msg("new connection")

	// Ensure a blocked read unblocks on shutdown.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		errCh <- s.writeLoop(conn, sess)
	}()
	go func() {
		errCh <- s.readLoop(ctx, conn, sess)
	}()

	err := <-errCh
	conn.Close()
	s.hub.Unregister(sess)
	<-errCh

	if err != nil && ctx.Err() == nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("connection closed with error")
	}
}

func (s *Server) readLoop(ctx context.Context, conn net.Conn, sess *core.Session) error {
	scanner := bufio.NewScanner(conn)

	// First line binds the username.
	if !scanner.Scan() {
		return scanErr(scanner)
	}
	s.hub.BindName(sess, scanner.Text())

	for scanner.Scan() {
		if !s.hub.HandleLine(ctx, sess, scanner.Text()) {
			return nil
		}
	}
	return scanErr(scanner)
}

// scanErr distinguishes graceful end-of-stream from a transport failure.
func scanErr(scanner *bufio.Scanner) error {
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("read line: %w", err)
	}
	return nil
}

func (s *Server) writeLoop(conn net.Conn, sess *core.Session) error {
	for line := range sess.Outbox() {
		if _, err := fmt.Fprintln(conn, line); err != nil {
			return fmt.Errorf("write line: %w", err)
		}
	}
	return nil
}
