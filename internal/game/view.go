package game

// View is the game state as seen by one player: its own hand plus the
// public state of every seat. Sent with pick prompts and round-end notices.
type View struct {
	Hand         []Card       `json:"hand"`
	PlayerStates []PlayerView `json:"playerStates"`
	Round        int          `json:"round"`
}

// PlayerView is the public state of one seat.
type PlayerView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Cards    []Card `json:"cards"`
	Scores   []int  `json:"scores"`
	Puddings int    `json:"puddings"`
}

// PlayerRef identifies a player in the game-end summary.
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayerScore is one player's final total.
type PlayerScore struct {
	Player PlayerRef `json:"player"`
	Score  int       `json:"score"`
}

// Result is the game-end summary payload.
type Result struct {
	Winner PlayerRef     `json:"winner"`
	Scores []PlayerScore `json:"scores"`
}

// view builds the game state message payload for one player.
func (g *Game) view(p *Player) View {
	v := View{
		Hand:         append([]Card{}, p.hand...),
		PlayerStates: make([]PlayerView, len(g.players)),
		Round:        g.round,
	}
	for i, other := range g.players {
		v.PlayerStates[i] = PlayerView{
			ID:       other.client.ID,
			Name:     other.client.Name,
			Cards:    append([]Card{}, other.kept...),
			Scores:   append([]int{}, other.scores...),
			Puddings: other.puddings,
		}
	}
	return v
}
