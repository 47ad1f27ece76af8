package session

import "sushigo/internal/protocol"

// RetryKind says which retry budget a rejected input counts against.
// Protocol-syntax errors and in-game pick rejections are tracked separately
// so a fumbled pick cannot burn the connection's protocol budget.
type RetryKind int

const (
	// RetryNone marks a successful dispatch; both budgets reset.
	RetryNone RetryKind = iota
	// RetryProtocol counts against the connection's protocol budget.
	RetryProtocol
	// RetryGame counts against the player's per-round pick budget.
	RetryGame
)

// Action describes everything that should happen to one client as the
// result of a handled event: messages to deliver in order, an optional
// replacement command table, an optional replacement close handler, and
// the retry flag. Handlers return Actions instead of writing to sockets;
// the Engine's apply step is the single write path.
type Action struct {
	Messages []protocol.Message
	NewTable Table
	OnClose  CloseHandler
	Retry    RetryKind
}

// Bundle maps affected client ids to their actions. The empty bundle
// affects nobody.
type Bundle map[string]Action

// Merge combines two bundles: the union of their client ids, with message
// lists concatenated left-then-right and the right action's table, close
// handler and retry flag winning for clients present in both. The right
// bundle is "more recent".
func (b Bundle) Merge(other Bundle) Bundle {
	merged := make(Bundle, len(b)+len(other))
	for id, a := range b {
		merged[id] = a
	}
	for id, right := range other {
		left, ok := merged[id]
		if !ok {
			merged[id] = right
			continue
		}
		combined := Action{
			Messages: append(append([]protocol.Message{}, left.Messages...), right.Messages...),
			NewTable: right.NewTable,
			OnClose:  right.OnClose,
			Retry:    right.Retry,
		}
		if combined.NewTable == nil {
			combined.NewTable = left.NewTable
		}
		if combined.OnClose == nil {
			combined.OnClose = left.OnClose
		}
		merged[id] = combined
	}
	return merged
}

// Retry builds a single-client bundle rejecting that client's last input.
func Retry(c *Client, kind RetryKind, m protocol.Message) Bundle {
	return Bundle{c.ID: {Messages: []protocol.Message{m}, Retry: kind}}
}

// SetTable builds a single-client bundle installing a new command table,
// optionally preceded by messages.
func SetTable(c *Client, t Table, messages ...protocol.Message) Bundle {
	return Bundle{c.ID: {Messages: messages, NewTable: t}}
}
