// Package transport accepts connections and feeds whole text lines into
// the session engine. Two carriers speak the same protocol: plain TCP with
// newline-delimited lines, and WebSocket with one text message per line.
package transport

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"sync"

	"sushigo/internal/session"
)

// Server is the TCP listener. Each accepted connection gets its own reader
// goroutine; all dispatch funnels through the engine's lock.
type Server struct {
	logger *slog.Logger
	engine *session.Engine
	ln     net.Listener

	wg      sync.WaitGroup
	closing chan struct{}
}

// ListenTCP binds addr and starts accepting. The returned server is already
// serving when the call succeeds, which is the readiness signal callers
// log.
func ListenTCP(addr string, engine *session.Engine, logger *slog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		logger:  logger,
		engine:  engine,
		ln:      ln,
		closing: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Close stops accepting and waits for the accept loop to drain. Existing
// connections keep running until their peers hang up.
func (s *Server) Close() error {
	close(s.closing)
	err := s.ln.Close()
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.closing:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		go s.serve(conn)
	}
}

// serve runs one connection: register with the engine, then pump lines
// until the peer goes away.
func (s *Server) serve(conn net.Conn) {
	client := s.engine.Connect(&tcpConn{conn: conn})
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		s.engine.HandleLine(client, scanner.Text())
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Debug("read failed", "id", client.ID, "error", err)
	}
	s.engine.HandleClose(client)
}

// tcpConn adapts a net.Conn to the session.Conn line interface.
type tcpConn struct {
	conn net.Conn
	mu   sync.Mutex
}

func (t *tcpConn) WriteLine(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.conn.Write([]byte(line))
	return err
}

func (t *tcpConn) Close() error {
	return t.conn.Close()
}

func (t *tcpConn) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
