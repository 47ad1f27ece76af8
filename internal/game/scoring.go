package game

// Round and game-end scoring. Every function here is a pure function of
// kept-card multisets so the rules are testable without any session or
// socket machinery.

// TempuraScore awards 5 points per completed pair of tempura.
func TempuraScore(cards []Card) int {
	return countCards(cards, CardTempura) / 2 * 5
}

// SashimiScore awards 10 points per completed set of three sashimi.
func SashimiScore(cards []Card) int {
	return countCards(cards, CardSashimi) / 3 * 10
}

// DumplingScore awards 1/3/6/10/15 points for 1..5 dumplings; additional
// dumplings beyond the fifth score nothing.
func DumplingScore(cards []Card) int {
	n := min(countCards(cards, CardDumpling), 5)
	return n * (n + 1) / 2
}

// NigiriScore sums nigiri values, tripling a nigiri while a banked wasabi
// is available. Wasabi banks in the order it was kept and the oldest bank
// is consumed first; a wasabi kept after a nigiri never applies to it.
func NigiriScore(cards []Card) int {
	score := 0
	wasabis := 0
	for _, card := range cards {
		nigiri := 0
		switch card {
		case CardWasabi:
			wasabis++
		case CardNigiri1:
			nigiri = 1
		case CardNigiri2:
			nigiri = 2
		case CardNigiri3:
			nigiri = 3
		}
		if nigiri > 0 && wasabis > 0 {
			nigiri *= 3
			wasabis--
		}
		score += nigiri
	}
	return score
}

// IndividualScore is the per-player portion of round scoring: every family
// whose value does not depend on the other players.
func IndividualScore(cards []Card) int {
	return TempuraScore(cards) + SashimiScore(cards) + DumplingScore(cards) + NigiriScore(cards)
}

// MakiScore counts a player's maki roll icons.
func MakiScore(cards []Card) int {
	return countCards(cards, CardMaki1)*1 + countCards(cards, CardMaki2)*2 + countCards(cards, CardMaki3)*3
}

// MakiRollScores converts per-player maki icon counts into the round's
// group scores, index-aligned with the input. The highest count splits 6
// points among its ties; the runner-up pool of 3 points is paid only when
// the leader is unique, split among ties for second. A count of zero never
// scores.
func MakiRollScores(counts []int) []int {
	scores := make([]int, len(counts))
	first, second := topTwo(counts)
	if first == 0 {
		return scores
	}

	firstTies := 0
	secondTies := 0
	for _, c := range counts {
		switch c {
		case first:
			firstTies++
		case second:
			secondTies++
		}
	}

	firstShare := 6 / firstTies
	for i, c := range counts {
		if c == first {
			scores[i] = firstShare
		}
	}

	if firstTies == 1 && second > 0 {
		secondShare := 3 / secondTies
		for i, c := range counts {
			if c == second {
				scores[i] = secondShare
			}
		}
	}
	return scores
}

// PuddingScores converts per-player pudding counts into the end-game
// adjustment, index-aligned with the input. The most puddings split +6, the
// fewest split -6 with each share rounded up; everything is skipped when
// all counts are equal, and the penalty never applies to a two-player game.
func PuddingScores(counts []int) []int {
	scores := make([]int, len(counts))
	if len(counts) == 0 {
		return scores
	}

	most, fewest := counts[0], counts[0]
	for _, c := range counts {
		most = max(most, c)
		fewest = min(fewest, c)
	}
	if most == fewest {
		return scores
	}

	mostTies := 0
	fewestTies := 0
	for _, c := range counts {
		if c == most {
			mostTies++
		}
		if c == fewest {
			fewestTies++
		}
	}

	mostShare := 6 / mostTies
	fewestShare := ceilDiv(-6, fewestTies)
	for i, c := range counts {
		switch {
		case c == most:
			scores[i] = mostShare
		case c == fewest && len(counts) > 2:
			scores[i] = fewestShare
		}
	}
	return scores
}

// topTwo returns the highest and second-highest distinct values, with the
// second reported as 0 when every value equals the first.
func topTwo(values []int) (first, second int) {
	for _, v := range values {
		switch {
		case v > first:
			first, second = v, first
		case v < first && v > second:
			second = v
		}
	}
	return first, second
}

// ceilDiv divides rounding toward positive infinity, so -6/4 yields -1.
func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a > 0) == (b > 0) {
		q++
	}
	return q
}
