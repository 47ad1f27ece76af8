package lobby

import (
	"encoding/json"

	"sushigo/internal/session"
)

// MaxPlayers is the fixed player cap of every game queue.
const MaxPlayers = 5

// GameQueue is a game that has been announced but not started: it holds the
// clients waiting for the creator to start or delete it.
type GameQueue struct {
	ID         int
	Name       string
	Players    []*session.Client
	MaxPlayers int
	Creator    *session.Client
}

// parseConfig validates the NEW command's JSON argument. It returns a
// field-scoped validation payload on failure; the payload becomes the body
// of an InvalidCommand retry.
func parseConfig(data json.RawMessage) (name string, errPayload any) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return "", "Expected JSON object"
	}
	raw, ok := obj["name"]
	if !ok || json.Unmarshal(raw, &name) != nil {
		return "", map[string]string{"name": "Missing name"}
	}
	if len(name) > 20 {
		return "", map[string]string{"name": "Name must be <= 20 characters"}
	}
	if len(name) == 0 {
		return "", map[string]string{"name": "Name must be > 0 characters"}
	}
	return name, nil
}

func (q *GameQueue) hasPlayer(c *session.Client) bool {
	for _, p := range q.Players {
		if p == c {
			return true
		}
	}
	return false
}

func (q *GameQueue) removePlayer(c *session.Client) {
	for i, p := range q.Players {
		if p == c {
			q.Players = append(q.Players[:i], q.Players[i+1:]...)
			return
		}
	}
}

func (q *GameQueue) playerNames() []string {
	names := make([]string, len(q.Players))
	for i, p := range q.Players {
		names[i] = p.Name
	}
	return names
}
