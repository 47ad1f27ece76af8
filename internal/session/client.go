// Package session runs the per-connection protocol engine: it resolves
// incoming lines against each client's current command table, invokes
// handlers, and applies the action bundles they return. All handler
// execution is serialized by the Engine, which is the only writer of
// session and shared lobby/game state.
package session

import (
	"github.com/google/uuid"
)

// Conn is the transport's view of one connected socket. Implementations
// deliver whole text lines in each direction; WriteLine must be safe to
// call after the peer has gone away (returning an error is fine).
type Conn interface {
	WriteLine(line string) error
	Close() error
	RemoteAddr() string
}

// CloseHandler computes the effects of this client's socket closing right
// now. It is stored as replaceable data on the client and swapped alongside
// the command table whenever the client's context changes.
type CloseHandler func() Bundle

// Client is one connected session: its identity, handshake attributes, and
// the current dispatch state. All fields other than ID are guarded by the
// Engine's lock.
type Client struct {
	// ID is the process-unique identity used to key action bundles.
	ID string
	// Name and Version are set once by the handshake command.
	Name    string
	Version string

	conn    Conn
	table   Table
	onClose CloseHandler

	// retries counts consecutive rejected protocol inputs; gameRetries
	// counts consecutive rejected card picks. The budgets are independent.
	retries     int
	gameRetries int

	closed bool
}

// NewClient wraps a transport connection in a fresh un-named session.
func NewClient(conn Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		conn: conn,
	}
}

// Table returns the client's active command table.
func (c *Client) Table() Table {
	return c.table
}

// Addr returns the remote address for logging.
func (c *Client) Addr() string {
	return c.conn.RemoteAddr()
}

// Closed reports whether the session has been torn down.
func (c *Client) Closed() bool {
	return c.closed
}
