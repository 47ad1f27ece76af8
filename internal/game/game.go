// Package game owns one running Sushi Go match: dealing from the shared
// deck, simultaneous-pick resolution, hand passing around the table, and
// round and game-end scoring. Handlers return action bundles; the session
// engine applies them, so nothing here touches a socket.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"

	"sushigo/internal/protocol"
	"sushigo/internal/session"
)

// Rounds is the fixed number of deal-pick-pass-score cycles per match.
const Rounds = 3

// Lobby is the way a finished or interrupted match hands its players back.
type Lobby interface {
	Enter(c *session.Client, messages ...protocol.Message) session.Bundle
}

// Player is one seat in a running match.
type Player struct {
	client *session.Client

	kept     []Card
	hand     []Card
	scores   []int
	puddings int
	// picked holds this cycle's chosen card or cards; nil means the
	// player has not chosen yet.
	picked []Card
}

// Game is a started match. Players are arranged in a fixed ring; hands pass
// from each seat to the next, wrapping from the last back to the first.
type Game struct {
	name    string
	lobby   Lobby
	logger  *slog.Logger
	players []*Player
	deck    []Card
	round   int
}

// Start creates a match from a queue's player list and deals the first
// round. The player ring order is a fresh shuffle of the queue order.
func Start(name string, clients []*session.Client, lobby Lobby, logger *slog.Logger, rng *rand.Rand) session.Bundle {
	g := &Game{
		name:   name,
		lobby:  lobby,
		logger: logger,
		deck:   NewDeck(rng),
	}

	order := append([]*session.Client{}, clients...)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	bundle := session.Bundle{}
	for _, c := range order {
		p := &Player{
			client: c,
			kept:   []Card{},
			scores: []int{},
		}
		g.players = append(g.players, p)
		bundle[c.ID] = session.Action{
			Messages: []protocol.Message{protocol.New(protocol.CodeGameStarted, "Game started")},
			OnClose:  g.disconnectHandler(p),
		}
	}

	g.logger.Info("match started", "name", g.name, "players", len(g.players))
	return bundle.Merge(g.nextRound())
}

// nextRound deals every player a fresh hand from the shared deck and
// prompts for picks. Hand size is 12 minus the player count.
func (g *Game) nextRound() session.Bundle {
	g.round++
	size := 12 - len(g.players)
	for _, p := range g.players {
		p.hand = append([]Card{}, g.deck[:size]...)
		g.deck = g.deck[size:]
	}
	return g.pickPrompt()
}

// pickPrompt clears pending choices and sends each player its game view
// with the pick command table installed.
func (g *Game) pickPrompt() session.Bundle {
	bundle := make(session.Bundle, len(g.players))
	for _, p := range g.players {
		p.picked = nil
		bundle[p.client.ID] = session.Action{
			Messages: []protocol.Message{protocol.New(protocol.CodePickCard, g.view(p))},
			NewTable: g.pickTable(p),
		}
	}
	return bundle
}

// pickTable is the in-round command table: PICK with a hand index and an
// optional second index for chopsticks.
func (g *Game) pickTable(p *Player) session.Table {
	return session.Table{
		{
			Action: "PICK",
			Args:   []session.Arg{{Name: "handIndex"}, {Name: "secondHandIndex", Optional: true}},
			Handle: func(c *session.Client, args []string) session.Bundle {
				return g.handlePick(p, args)
			},
		},
	}
}

// handlePick validates and records one player's choice. Rejections are
// retries scoped to this player only; the other players' pending picks are
// untouched.
func (g *Game) handlePick(p *Player, args []string) session.Bundle {
	index, errBundle := g.pickIndex(p, args[0])
	if errBundle != nil {
		return errBundle
	}
	picked := []Card{p.hand[index]}

	if len(args) == 2 {
		if countCards(p.kept, CardChopsticks) == 0 {
			return g.rejectPick(p, "You don't have chopsticks to use")
		}
		second, errBundle := g.pickIndex(p, args[1])
		if errBundle != nil {
			return errBundle
		}
		if second == index {
			return g.rejectPick(p, "Cannot pick the same card twice")
		}
		picked = append(picked, p.hand[second])
	}

	p.picked = picked

	wait := session.SetTable(p.client, session.Table{}, protocol.New(protocol.CodeGotPick, "Card chosen"))
	return wait.Merge(g.resolvePicks())
}

// pickIndex parses and range-checks one hand index argument.
func (g *Game) pickIndex(p *Player, arg string) (int, session.Bundle) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return 0, g.rejectPick(p, "Invalid index")
	}
	if index < 0 || index >= len(p.hand) {
		return 0, g.rejectPick(p, fmt.Sprintf("Index must be >= 0 and <= %d", len(p.hand)-1))
	}
	return index, nil
}

func (g *Game) rejectPick(p *Player, reason string) session.Bundle {
	return session.Retry(p.client, session.RetryGame, protocol.New(protocol.CodeInvalidCardIndex, reason))
}

// resolvePicks advances the match once every player has a pending choice:
// chosen cards move to the kept piles, the remaining hands rotate one seat,
// and either the next pick cycle or round scoring begins.
func (g *Game) resolvePicks() session.Bundle {
	for _, p := range g.players {
		if p.picked == nil {
			return session.Bundle{}
		}
	}

	for _, p := range g.players {
		if err := p.keepPicked(); err != nil {
			return g.abort(err)
		}
	}
	g.passHands()

	if err := g.checkEqualHandSizes(); err != nil {
		return g.abort(err)
	}

	if len(g.players[0].hand) <= 1 {
		return g.endRound()
	}
	return g.pickPrompt()
}

// keepPicked moves this cycle's chosen cards from hand to kept. A second
// chosen card consumes a banked chopsticks, which returns to the outgoing
// hand.
func (p *Player) keepPicked() error {
	if p.picked == nil {
		return fmt.Errorf("player %s has no recorded pick", p.client.ID)
	}
	for _, card := range p.picked {
		if !removeCard(&p.hand, card) {
			return fmt.Errorf("picked card %q not in hand of player %s", card, p.client.ID)
		}
		p.kept = append(p.kept, card)
	}
	if len(p.picked) == 2 {
		if !removeCard(&p.kept, CardChopsticks) {
			return fmt.Errorf("player %s spent chopsticks it does not hold", p.client.ID)
		}
		p.hand = append(p.hand, CardChopsticks)
	}
	return nil
}

// passHands transfers each hand to the next seat in the ring, the last
// hand wrapping to the first. Ownership moves; hands are never shared.
func (g *Game) passHands() {
	last := g.players[len(g.players)-1].hand
	for i := len(g.players) - 2; i >= 0; i-- {
		g.players[i+1].hand = g.players[i].hand
	}
	g.players[0].hand = last
}

// endRound auto-keeps any final singleton cards, scores the round, and
// either deals the next round or finishes the game.
func (g *Game) endRound() session.Bundle {
	if len(g.players[0].hand) == 1 {
		for _, p := range g.players {
			p.kept = append(p.kept, p.hand[0])
			p.hand = p.hand[:0]
		}
	}

	if err := g.checkEqualKeptSizes(); err != nil {
		return g.abort(err)
	}

	makiCounts := make([]int, len(g.players))
	for i, p := range g.players {
		makiCounts[i] = MakiScore(p.kept)
	}
	groupScores := MakiRollScores(makiCounts)

	for i, p := range g.players {
		p.scores = append(p.scores, IndividualScore(p.kept)+groupScores[i])
		p.puddings += countCards(p.kept, CardPudding)
	}

	bundle := make(session.Bundle, len(g.players))
	for _, p := range g.players {
		bundle[p.client.ID] = session.Action{
			Messages: []protocol.Message{protocol.New(protocol.CodeRoundEnd, g.view(p))},
		}
	}

	for _, p := range g.players {
		p.kept = []Card{}
	}
	g.logger.Info("round ended", "name", g.name, "round", g.round)

	if g.round == Rounds {
		return bundle.Merge(g.endGame())
	}
	return bundle.Merge(g.nextRound())
}

// endGame applies the pudding adjustment, announces the winner, and hands
// every player back to the lobby.
func (g *Game) endGame() session.Bundle {
	for _, p := range g.players {
		if len(p.scores) != Rounds {
			return g.abort(fmt.Errorf("player %s finished with %d round scores", p.client.ID, len(p.scores)))
		}
	}

	puddingCounts := make([]int, len(g.players))
	for i, p := range g.players {
		puddingCounts[i] = p.puddings
	}
	puddingScores := PuddingScores(puddingCounts)

	result := Result{Scores: make([]PlayerScore, len(g.players))}
	winnerScore := 0
	for i, p := range g.players {
		total := puddingScores[i]
		for _, s := range p.scores {
			total += s
		}
		ref := PlayerRef{ID: p.client.ID, Name: p.client.Name}
		result.Scores[i] = PlayerScore{Player: ref, Score: total}
		if i == 0 || total > winnerScore {
			result.Winner = ref
			winnerScore = total
		}
	}

	g.logger.Info("match ended", "name", g.name, "winner", result.Winner.Name, "score", winnerScore)

	bundle := session.Bundle{}
	for _, p := range g.players {
		bundle = bundle.Merge(g.lobby.Enter(p.client, protocol.New(protocol.CodeGameEnd, result)))
	}
	return bundle
}

// disconnectHandler ends the match for everyone else when a player's
// socket closes mid-game. There are no replacement or pause semantics.
func (g *Game) disconnectHandler(leaving *Player) session.CloseHandler {
	return func() session.Bundle {
		g.removePlayer(leaving)
		g.logger.Info("match interrupted", "name", g.name, "left", leaving.client.ID)
		return g.returnAll(protocol.New(protocol.CodeGameInterrupted, "Other player disconnected"))
	}
}

// abort tears down a match whose internal invariants failed. The defect is
// logged for diagnosis; the players are returned to the lobby and no other
// game or session is affected.
func (g *Game) abort(err error) session.Bundle {
	g.logger.Error("match aborted", "name", g.name, "round", g.round, "error", err)
	return g.returnAll(protocol.New(protocol.CodeGameInterrupted, "Game ended due to a server error"))
}

// returnAll hands every remaining player back to the lobby with a notice.
func (g *Game) returnAll(notice protocol.Message) session.Bundle {
	players := g.players
	g.players = nil
	bundle := session.Bundle{}
	for _, p := range players {
		bundle = bundle.Merge(g.lobby.Enter(p.client, notice))
	}
	return bundle
}

func (g *Game) removePlayer(target *Player) {
	for i, p := range g.players {
		if p == target {
			g.players = append(g.players[:i], g.players[i+1:]...)
			return
		}
	}
}

func (g *Game) checkEqualHandSizes() error {
	size := len(g.players[0].hand)
	for _, p := range g.players {
		if len(p.hand) != size {
			return fmt.Errorf("unequal hand sizes: player %s holds %d, expected %d", p.client.ID, len(p.hand), size)
		}
	}
	return nil
}

func (g *Game) checkEqualKeptSizes() error {
	size := len(g.players[0].kept)
	for _, p := range g.players {
		if len(p.kept) != size {
			return fmt.Errorf("unequal kept piles: player %s holds %d, expected %d", p.client.ID, len(p.kept), size)
		}
	}
	return nil
}
