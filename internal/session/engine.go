package session

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"sushigo/internal/protocol"
)

// DefaultMaxRetries is the consecutive-failure budget before a forced
// disconnect.
const DefaultMaxRetries = 10

// EntryPoint supplies the greeting and handshake command table installed on
// every new session. The lobby implements it.
type EntryPoint interface {
	Greeting() protocol.Message
	HandshakeTable(c *Client) Table
}

// Engine owns every connected session and serializes all handler execution
// behind one lock. Transports deliver lines and close events; the engine
// dispatches them against the client's current command table and applies
// the resulting bundles. Lobby and game state is only ever touched from
// inside this lock.
type Engine struct {
	logger     *slog.Logger
	entry      EntryPoint
	maxRetries int

	mu      sync.Mutex
	clients map[string]*Client
}

// NewEngine creates an engine dispatching new sessions to entry.
// maxRetries <= 0 selects DefaultMaxRetries.
func NewEngine(logger *slog.Logger, entry EntryPoint, maxRetries int) *Engine {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Engine{
		logger:     logger,
		entry:      entry,
		maxRetries: maxRetries,
		clients:    make(map[string]*Client),
	}
}

// Connect registers a new connection, greets it, and installs the handshake
// table. The returned client is handed back to the transport, which feeds
// HandleLine and HandleClose.
func (e *Engine) Connect(conn Conn) *Client {
	c := NewClient(conn)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.clients[c.ID] = c
	c.table = e.entry.HandshakeTable(c)
	e.logger.Info("client connected", "id", c.ID, "addr", c.Addr())
	e.send(c, e.entry.Greeting())
	return c
}

// HandleLine dispatches one received line against the client's command
// table and applies the result.
func (e *Engine) HandleLine(c *Client, line string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c.closed {
		return
	}
	e.logger.Debug("line received", "id", c.ID, "line", line)
	e.apply(e.dispatch(c, line))
}

// HandleClose runs the client's close handler and unregisters it. Safe to
// call more than once; only the first call has any effect.
func (e *Engine) HandleClose(c *Client) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked(c)
}

// ClientCount reports the number of registered sessions.
func (e *Engine) ClientCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.clients)
}

// dispatch resolves a line to a command and invokes its handler, or builds
// the appropriate retry bundle for unknown actions, bad token counts, and
// malformed JSON.
func (e *Engine) dispatch(c *Client, line string) Bundle {
	line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
	tokens := strings.Split(line, " ")

	cmd, ok := c.table.Find(tokens[0])
	if !ok {
		return Retry(c, RetryProtocol, protocol.New(protocol.CodeCommandNotFound, c.table.Help()))
	}

	if cmd.JSON {
		blob := line
		if len(line) > len(cmd.Action) && strings.EqualFold(line[:len(cmd.Action)], cmd.Action) && line[len(cmd.Action)] == ' ' {
			blob = line[len(cmd.Action)+1:]
		}
		var raw json.RawMessage
		if err := json.Unmarshal([]byte(blob), &raw); err != nil {
			return Retry(c, RetryProtocol, protocol.New(protocol.CodeInvalidJSON, "Invalid JSON: "+blob))
		}
		return cmd.HandleJSON(c, raw)
	}

	args := tokens[1:]
	if len(args) < cmd.requiredArgs() || len(args) > len(cmd.Args) {
		return Retry(c, RetryProtocol, protocol.New(protocol.CodeInvalidCommand, "Invalid arguments, use "+cmd.String()))
	}
	return cmd.Handle(c, args)
}

// apply executes a merged bundle: for each affected client it delivers the
// messages in order, updates the retry budgets, and installs any new table
// or close handler. This is the sole path by which observable session state
// changes.
func (e *Engine) apply(b Bundle) {
	var destroyed []*Client

	for id, a := range b {
		c, ok := e.clients[id]
		if !ok {
			continue
		}
		for _, m := range a.Messages {
			e.send(c, m)
		}

		switch a.Retry {
		case RetryProtocol:
			c.retries++
			if c.retries >= e.maxRetries {
				destroyed = append(destroyed, c)
				continue
			}
		case RetryGame:
			c.gameRetries++
			if c.gameRetries >= e.maxRetries {
				destroyed = append(destroyed, c)
				continue
			}
		default:
			c.retries = 0
			c.gameRetries = 0
		}

		if a.NewTable != nil {
			c.table = a.NewTable
		}
		if a.OnClose != nil {
			c.onClose = a.OnClose
		}
	}

	for _, c := range destroyed {
		e.destroy(c, protocol.New(protocol.CodeTooManyRetries, "Too many retries"))
	}
}

// destroy force-closes a session after a final message and runs its close
// handler so shared lobby/game state is cleaned up atomically with the
// disconnect.
func (e *Engine) destroy(c *Client, m protocol.Message) {
	e.send(c, m)
	e.logger.Info("client destroyed", "id", c.ID, "addr", c.Addr(), "code", m.Code)
	e.closeLocked(c)
}

func (e *Engine) closeLocked(c *Client) {
	if _, ok := e.clients[c.ID]; !ok {
		return
	}
	delete(e.clients, c.ID)
	c.closed = true
	if err := c.conn.Close(); err != nil {
		e.logger.Debug("closing connection", "id", c.ID, "error", err)
	}
	e.logger.Info("client disconnected", "id", c.ID, "addr", c.Addr())
	if c.onClose != nil {
		handler := c.onClose
		c.onClose = nil
		e.apply(handler())
	}
}

// send encodes and writes one message, a no-op when the socket has already
// closed. Write failures are logged, never propagated: an unreachable peer
// must not disturb the event that produced the message.
func (e *Engine) send(c *Client, m protocol.Message) {
	if c.closed {
		e.logger.Debug("dropping message for closed client", "id", c.ID, "code", m.Code)
		return
	}
	line, err := m.Encode()
	if err != nil {
		e.logger.Error("encoding message", "id", c.ID, "code", m.Code, "error", err)
		return
	}
	e.logger.Debug("line sent", "id", c.ID, "line", strings.TrimSuffix(line, "\n"))
	if err := c.conn.WriteLine(line); err != nil {
		e.logger.Debug("writing to client", "id", c.ID, "error", err)
	}
}
