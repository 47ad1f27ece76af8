package game

import "math/rand"

// Card is one of the twelve fixed card kinds. The wire representation is
// the kind name itself.
type Card string

const (
	CardTempura    Card = "tempura"
	CardSashimi    Card = "sashimi"
	CardDumpling   Card = "dumpling"
	CardMaki1      Card = "maki1"
	CardMaki2      Card = "maki2"
	CardMaki3      Card = "maki3"
	CardNigiri1    Card = "nigiri1"
	CardNigiri2    Card = "nigiri2"
	CardNigiri3    Card = "nigiri3"
	CardPudding    Card = "pudding"
	CardWasabi     Card = "wasabi"
	CardChopsticks Card = "chopsticks"
)

// DeckSize is the fixed total count of cards in a fresh deck.
const DeckSize = 108

// deckCounts fixes the per-kind composition of the deck. The counts sum to
// DeckSize.
var deckCounts = []struct {
	card  Card
	count int
}{
	{CardTempura, 14},
	{CardSashimi, 14},
	{CardDumpling, 14},
	{CardMaki2, 12},
	{CardMaki3, 8},
	{CardMaki1, 6},
	{CardNigiri2, 10},
	{CardNigiri3, 5},
	{CardNigiri1, 5},
	{CardPudding, 10},
	{CardWasabi, 6},
	{CardChopsticks, 4},
}

// NewDeck returns a freshly shuffled full deck.
func NewDeck(rng *rand.Rand) []Card {
	deck := make([]Card, 0, DeckSize)
	for _, dc := range deckCounts {
		for i := 0; i < dc.count; i++ {
			deck = append(deck, dc.card)
		}
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// removeCard removes the first occurrence of card from cards, reporting
// whether it was present.
func removeCard(cards *[]Card, card Card) bool {
	for i, c := range *cards {
		if c == card {
			*cards = append((*cards)[:i], (*cards)[i+1:]...)
			return true
		}
	}
	return false
}

func countCards(cards []Card, card Card) int {
	n := 0
	for _, c := range cards {
		if c == card {
			n++
		}
	}
	return n
}
