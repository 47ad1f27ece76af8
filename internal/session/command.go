package session

import (
	"encoding/json"
	"strings"
)

// Arg is one named token argument of a string command.
type Arg struct {
	Name     string
	Optional bool
}

// Command declares a single action legal in some session state. Exactly one
// of Handle and HandleJSON is set: string commands receive their tokens,
// JSON commands receive the raw blob following the action keyword.
type Command struct {
	Action     string
	Args       []Arg
	JSON       bool
	Handle     func(c *Client, args []string) Bundle
	HandleJSON func(c *Client, data json.RawMessage) Bundle
}

// String renders the command in the canonical help format, e.g.
// "PICK <handIndex> <secondHandIndex?>".
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.Action)
	for _, a := range c.Args {
		b.WriteString(" <")
		b.WriteString(a.Name)
		if a.Optional {
			b.WriteString("?")
		}
		b.WriteString(">")
	}
	return b.String()
}

func (c Command) requiredArgs() int {
	n := 0
	for _, a := range c.Args {
		if !a.Optional {
			n++
		}
	}
	return n
}

// Table is the ordered set of commands legal in a session's current state.
// Tables are immutable values: transitions replace a client's table rather
// than mutating it.
type Table []Command

// Find resolves an action keyword case-insensitively.
func (t Table) Find(action string) (Command, bool) {
	for _, c := range t {
		if strings.EqualFold(c.Action, action) {
			return c, true
		}
	}
	return Command{}, false
}

// Help lists every command in the table in the canonical help format.
func (t Table) Help() []string {
	help := make([]string, len(t))
	for i, c := range t {
		help[i] = c.String()
	}
	return help
}
