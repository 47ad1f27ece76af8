// Command sushigo-bot is a protocol client that plays games by itself:
// it connects, handshakes, creates or joins a game, and picks cards with
// the greedy strategy until the match ends.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"sushigo/internal/bot"
	"sushigo/internal/game"
	"sushigo/internal/lobby"
	"sushigo/internal/protocol"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	addr := pflag.String("addr", "localhost:8000", "server address")
	name := pflag.String("name", "GreedyBot", "bot display name")
	create := pflag.String("create", "", "create a game with this name instead of joining one")
	startAt := pflag.Int("start-at", 2, "with --create, start once this many players are queued")
	verbose := pflag.Bool("verbose", false, "log every line")
	pflag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", *addr, err)
	}
	defer conn.Close()

	b := &runner{
		conn:     conn,
		logger:   logger,
		name:     *name,
		create:   *create,
		startAt:  *startAt,
		strategy: bot.Greedy{},
	}
	return b.play()
}

type runner struct {
	conn     net.Conn
	logger   *slog.Logger
	name     string
	create   string
	startAt  int
	strategy bot.Strategy

	gameID  int
	started bool
}

// play pumps server lines and reacts until the match finishes or the
// server hangs up.
func (r *runner) play() error {
	scanner := bufio.NewScanner(r.conn)
	for scanner.Scan() {
		line := scanner.Text()
		r.logger.Debug("received", "line", line)
		done, err := r.handle(line)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading from server: %w", err)
	}
	return fmt.Errorf("server closed the connection")
}

func (r *runner) handle(line string) (done bool, err error) {
	code, payload, _ := strings.Cut(line, " ")
	switch protocol.Code(code) {
	case protocol.CodeGiveName:
		return false, r.send("HELO " + r.name + " 1.0")

	case protocol.CodeLobbyInfo:
		if r.started {
			return false, nil
		}
		var info lobby.Info
		if err := json.Unmarshal([]byte(payload), &info); err != nil {
			return false, fmt.Errorf("bad lobby snapshot: %w", err)
		}
		return false, r.handleLobby(info)

	case protocol.CodeGameCreated:
		if err := json.Unmarshal([]byte(payload), &r.gameID); err != nil {
			return false, fmt.Errorf("bad game id: %w", err)
		}
		r.logger.Info("game created", "id", r.gameID)
		return false, nil

	case protocol.CodeGameStarted:
		r.started = true
		r.logger.Info("game started")
		return false, nil

	case protocol.CodePickCard:
		var view game.View
		if err := json.Unmarshal([]byte(payload), &view); err != nil {
			return false, fmt.Errorf("bad game view: %w", err)
		}
		index := r.strategy.ChooseCard(view.Hand, r.keptCards(view))
		return false, r.send(fmt.Sprintf("PICK %d", index))

	case protocol.CodeRoundEnd:
		r.logger.Info("round ended")
		return false, nil

	case protocol.CodeGameEnd:
		var result game.Result
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return false, fmt.Errorf("bad game result: %w", err)
		}
		fmt.Printf("winner: %s\n", result.Winner.Name)
		for _, s := range result.Scores {
			fmt.Printf("%s: %d\n", s.Player.Name, s.Score)
		}
		return true, nil

	case protocol.CodeGameInterrupted, protocol.CodeGameDeleted:
		r.logger.Info("game over early", "code", code, "payload", payload)
		return true, nil

	case protocol.CodeTooManyRetries:
		return false, fmt.Errorf("kicked by the server: %s", payload)

	case protocol.CodeInvalidCommand, protocol.CodeInvalidJSON,
		protocol.CodeCommandNotFound, protocol.CodeInvalidCardIndex:
		r.logger.Warn("rejected", "code", code, "payload", payload)
		return false, nil
	}
	return false, nil
}

// handleLobby advances the matchmaking plan: creators start their game once
// enough players queue, joiners take the first open seat they see.
func (r *runner) handleLobby(info lobby.Info) error {
	if r.create != "" {
		if r.gameID == 0 {
			cfg, _ := json.Marshal(map[string]string{"name": r.create})
			return r.send("NEW " + string(cfg))
		}
		for _, g := range info.GameList {
			if g.ID == r.gameID && len(g.Players) >= r.startAt {
				return r.send("START")
			}
		}
		return nil
	}

	if info.QueuedForGame != nil {
		return nil
	}
	for _, g := range info.GameList {
		if len(g.Players) < g.MaxPlayers {
			return r.send(fmt.Sprintf("JOIN %d", g.ID))
		}
	}
	return nil
}

// keptCards finds this bot's own kept pile in the view.
func (r *runner) keptCards(view game.View) []game.Card {
	for _, p := range view.PlayerStates {
		if p.Name == r.name {
			return p.Cards
		}
	}
	return nil
}

func (r *runner) send(line string) error {
	r.logger.Debug("sending", "line", line)
	_, err := r.conn.Write([]byte(line + "\n"))
	return err
}
