// Package lobby implements the matchmaking state machine: the set of open
// game queues, the set of clients viewing the lobby, and the command
// handlers that move clients between idle, queued, creator, and playing
// states. The lobby holds the only process-lifetime shared mutable state;
// the session engine's lock serializes every access.
package lobby

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"time"

	"sushigo/internal/game"
	"sushigo/internal/protocol"
	"sushigo/internal/session"
)

const welcomeText = "Welcome to the Sushi Go server, enter your bot's name using the command HELO <name> <version>"

// Lobby is the process-lifetime matchmaking singleton.
type Lobby struct {
	logger *slog.Logger
	rng    *rand.Rand

	games   []*GameQueue
	nextID  int
	viewers map[string]*session.Client
}

// New constructs a lobby with the provided rng or a time-seeded default.
// The rng drives deck shuffling and player-order shuffling for the games
// this lobby starts.
func New(logger *slog.Logger, rng *rand.Rand) *Lobby {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Lobby{
		logger:  logger,
		rng:     rng,
		viewers: make(map[string]*session.Client),
	}
}

// Greeting is the fixed handshake prompt sent on connect.
func (l *Lobby) Greeting() protocol.Message {
	return protocol.New(protocol.CodeGiveName, welcomeText)
}

// HandshakeTable is the one-entry command table of an un-named session.
func (l *Lobby) HandshakeTable(c *session.Client) session.Table {
	return session.Table{
		{
			Action: "HELO",
			Args:   []session.Arg{{Name: "name"}, {Name: "version"}},
			Handle: func(c *session.Client, args []string) session.Bundle {
				c.Name = args[0]
				c.Version = args[1]
				l.logger.Info("client identified", "id", c.ID, "name", c.Name, "version", c.Version)
				return l.Enter(c, protocol.New(protocol.CodeJoinedServer, "Welcome to the lobby, "+c.Name))
			},
		},
	}
}

// Enter moves a client into the lobby-idle state: it becomes a lobby
// viewer, gets any carried messages followed by a fresh snapshot, and has
// the lobby command table and disconnect handler installed. Used after the
// handshake and whenever a finished or interrupted game hands players back.
func (l *Lobby) Enter(c *session.Client, messages ...protocol.Message) session.Bundle {
	l.viewers[c.ID] = c
	return session.Bundle{c.ID: {
		Messages: append(messages, l.snapshot(c)),
		NewTable: l.lobbyTable(),
		OnClose:  func() session.Bundle { return l.handleDisconnect(c) },
	}}
}

// lobbyTable is the command table of a lobby-idle client.
func (l *Lobby) lobbyTable() session.Table {
	return session.Table{
		{
			Action:     "JOIN",
			Args:       []session.Arg{{Name: "gameId"}},
			JSON:       true,
			HandleJSON: l.handleJoin,
		},
		{
			Action:     "NEW",
			Args:       []session.Arg{{Name: "gameConfig"}},
			JSON:       true,
			HandleJSON: l.handleNew,
		},
	}
}

// queueTable is the command table of a queued non-creator.
func (l *Lobby) queueTable() session.Table {
	return session.Table{
		{Action: "LEAVE", Handle: l.handleLeave},
	}
}

// creatorTable is the command table of a queue's creator.
func (l *Lobby) creatorTable() session.Table {
	return session.Table{
		{Action: "DELETE", Handle: l.handleDelete},
		{Action: "START", Handle: l.handleStart},
	}
}

func (l *Lobby) handleJoin(c *session.Client, data json.RawMessage) session.Bundle {
	var id float64
	if err := json.Unmarshal(data, &id); err != nil {
		return session.Retry(c, session.RetryProtocol, protocol.New(protocol.CodeInvalidCommand, "No game with that id"))
	}
	q := l.findGame(id)
	if q == nil {
		return session.Retry(c, session.RetryProtocol, protocol.New(protocol.CodeInvalidCommand, "No game with that id"))
	}
	if len(q.Players) == q.MaxPlayers {
		return session.Retry(c, session.RetryProtocol, protocol.New(protocol.CodeInvalidCommand, "Game is full"))
	}
	q.Players = append(q.Players, c)
	l.logger.Info("client joined game", "id", c.ID, "name", c.Name, "game", q.ID)
	return session.SetTable(c, l.queueTable()).Merge(l.broadcast())
}

func (l *Lobby) handleNew(c *session.Client, data json.RawMessage) session.Bundle {
	name, errPayload := parseConfig(data)
	if errPayload != nil {
		return session.Retry(c, session.RetryProtocol, protocol.New(protocol.CodeInvalidCommand, errPayload))
	}
	l.nextID++
	q := &GameQueue{
		ID:         l.nextID,
		Name:       name,
		Players:    []*session.Client{c},
		MaxPlayers: MaxPlayers,
		Creator:    c,
	}
	l.games = append(l.games, q)
	l.logger.Info("game created", "game", q.ID, "name", q.Name, "creator", c.Name)
	created := session.Bundle{c.ID: {
		Messages: []protocol.Message{protocol.New(protocol.CodeGameCreated, q.ID)},
		NewTable: l.creatorTable(),
	}}
	return created.Merge(l.broadcast())
}

func (l *Lobby) handleLeave(c *session.Client, args []string) session.Bundle {
	if q := l.gameOf(c); q != nil {
		q.removePlayer(c)
		l.logger.Info("client left game", "id", c.ID, "name", c.Name, "game", q.ID)
	}
	return session.SetTable(c, l.lobbyTable()).Merge(l.broadcast())
}

func (l *Lobby) handleDelete(c *session.Client, args []string) session.Bundle {
	bundle := session.SetTable(c, l.lobbyTable())
	if q := l.gameOf(c); q != nil && q.Creator == c {
		bundle = bundle.Merge(l.deleteQueue(q))
	}
	return bundle.Merge(l.broadcast())
}

// deleteQueue removes a queue and forces every queued player other than the
// creator back to the lobby table with a deletion notice.
func (l *Lobby) deleteQueue(q *GameQueue) session.Bundle {
	l.removeGame(q)
	bundle := session.Bundle{}
	for _, p := range q.Players {
		if p == q.Creator {
			continue
		}
		bundle[p.ID] = session.Action{
			Messages: []protocol.Message{protocol.New(protocol.CodeGameDeleted, "The game you were in was deleted")},
			NewTable: l.lobbyTable(),
		}
	}
	l.logger.Info("game deleted", "game", q.ID, "name", q.Name)
	return bundle
}

func (l *Lobby) handleStart(c *session.Client, args []string) session.Bundle {
	q := l.gameOf(c)
	if q == nil {
		return session.SetTable(c, l.lobbyTable()).Merge(l.broadcast())
	}
	l.removeGame(q)
	for _, p := range q.Players {
		delete(l.viewers, p.ID)
	}
	l.logger.Info("game started", "game", q.ID, "name", q.Name, "players", len(q.Players))
	return l.broadcast().Merge(game.Start(q.Name, q.Players, l, l.logger, l.rng))
}

// handleDisconnect is the lobby's close handler, covering the idle, queued,
// and creator states: a vanished creator deletes its queue, a vanished
// joiner just leaves it.
func (l *Lobby) handleDisconnect(c *session.Client) session.Bundle {
	delete(l.viewers, c.ID)
	q := l.gameOf(c)
	if q == nil {
		return session.Bundle{}
	}
	var bundle session.Bundle
	if q.Creator == c {
		bundle = l.deleteQueue(q)
	} else {
		q.removePlayer(c)
		bundle = session.Bundle{}
	}
	return bundle.Merge(l.broadcast())
}

// snapshot builds this viewer's lobby message: the open game list plus
// which game, if any, the viewer is queued in.
func (l *Lobby) snapshot(c *session.Client) protocol.Message {
	info := Info{GameList: make([]GameInfo, len(l.games))}
	for i, q := range l.games {
		info.GameList[i] = GameInfo{
			ID:         q.ID,
			Name:       q.Name,
			Players:    q.playerNames(),
			MaxPlayers: q.MaxPlayers,
			Creator:    q.Creator.Name,
		}
	}
	if q := l.gameOf(c); q != nil {
		id := q.ID
		info.QueuedForGame = &id
	}
	return protocol.New(protocol.CodeLobbyInfo, info)
}

// broadcast regenerates and queues a snapshot for every lobby viewer.
// Callers merge it after mutating lobby state so the snapshot and the
// mutation are applied atomically.
func (l *Lobby) broadcast() session.Bundle {
	bundle := make(session.Bundle, len(l.viewers))
	for id, v := range l.viewers {
		bundle[id] = session.Action{Messages: []protocol.Message{l.snapshot(v)}}
	}
	return bundle
}

func (l *Lobby) findGame(id float64) *GameQueue {
	for _, q := range l.games {
		if float64(q.ID) == id {
			return q
		}
	}
	return nil
}

func (l *Lobby) gameOf(c *session.Client) *GameQueue {
	for _, q := range l.games {
		if q.hasPlayer(c) {
			return q
		}
	}
	return nil
}

func (l *Lobby) removeGame(q *GameQueue) {
	for i, g := range l.games {
		if g == q {
			l.games = append(l.games[:i], l.games[i+1:]...)
			return
		}
	}
}
