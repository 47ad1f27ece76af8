// Package protocol implements the newline-delimited wire format: one
// three-digit status code per line, optionally followed by a single JSON
// payload.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Message is one protocol message as produced by a handler. Data is any
// JSON-serializable value; nil means the line carries no payload.
type Message struct {
	Code Code
	Data any
}

// New constructs a message with a payload.
func New(code Code, data any) Message {
	return Message{Code: code, Data: data}
}

var errBadLine = errors.New("protocol: malformed line")

// Encode renders the message as a wire line including the trailing newline.
// Payloads are plain JSON without HTML escaping, so command help such as
// "PICK <handIndex>" survives verbatim.
func (m Message) Encode() (string, error) {
	if m.Data == nil {
		return string(m.Code) + "\n", nil
	}
	var buf strings.Builder
	buf.WriteString(string(m.Code))
	buf.WriteString(" ")
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m.Data); err != nil {
		return "", fmt.Errorf("protocol: encoding payload for %s: %w", m.Code, err)
	}
	// Encoder already terminated the line.
	return buf.String(), nil
}

// Decode parses a server wire line back into a message. The payload is
// decoded into the generic JSON representation (map[string]any, []any,
// float64, string, bool or nil). Used by client implementations and tests.
func Decode(line string) (Message, error) {
	line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
	code, payload, hasPayload := strings.Cut(line, " ")
	if len(code) != 3 {
		return Message{}, fmt.Errorf("%w: %q", errBadLine, line)
	}
	m := Message{Code: Code(code)}
	if !hasPayload {
		return m, nil
	}
	if err := json.Unmarshal([]byte(payload), &m.Data); err != nil {
		return Message{}, fmt.Errorf("protocol: decoding payload of %q: %w", line, err)
	}
	return m, nil
}
