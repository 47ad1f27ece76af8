// Package bot contains card-pick strategies for autonomous clients.
package bot

import "sushigo/internal/game"

// Strategy chooses which hand index to pick given the cards already kept
// this round.
type Strategy interface {
	ChooseCard(hand, kept []game.Card) int
}

// Greedy scores every card in hand by a static desirability nudged by what
// the kept pile makes valuable right now, and picks the best. It never uses
// chopsticks.
type Greedy struct{}

// basePriority orders kinds by their average standalone value.
var basePriority = map[game.Card]int{
	game.CardSashimi:    50,
	game.CardTempura:    45,
	game.CardMaki3:      40,
	game.CardNigiri3:    38,
	game.CardPudding:    35,
	game.CardDumpling:   30,
	game.CardWasabi:     28,
	game.CardMaki2:      25,
	game.CardNigiri2:    22,
	game.CardMaki1:      15,
	game.CardNigiri1:    12,
	game.CardChopsticks: 5,
}

// ChooseCard returns the index of the highest scoring card in hand.
func (Greedy) ChooseCard(hand, kept []game.Card) int {
	best := 0
	bestScore := -1
	for i, card := range hand {
		score := basePriority[card] + completionBonus(card, kept)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best
}

// completionBonus rewards cards that finish a scoring set or cash in a
// banked wasabi.
func completionBonus(card game.Card, kept []game.Card) int {
	switch card {
	case game.CardSashimi:
		if count(kept, game.CardSashimi)%3 == 2 {
			return 60
		}
	case game.CardTempura:
		if count(kept, game.CardTempura)%2 == 1 {
			return 30
		}
	case game.CardNigiri3, game.CardNigiri2, game.CardNigiri1:
		banked := count(kept, game.CardWasabi)
		spent := 0
		for _, k := range kept {
			if k == game.CardNigiri1 || k == game.CardNigiri2 || k == game.CardNigiri3 {
				spent++
			}
		}
		if banked > spent {
			return 25
		}
	case game.CardDumpling:
		if n := count(kept, game.CardDumpling); n > 0 && n < 5 {
			return n * 4
		}
	}
	return 0
}

func count(cards []game.Card, card game.Card) int {
	n := 0
	for _, c := range cards {
		if c == card {
			n++
		}
	}
	return n
}
