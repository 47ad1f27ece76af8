package lobby

// GameInfo is the lobby snapshot's view of one open game queue.
type GameInfo struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Players    []string `json:"players"`
	MaxPlayers int      `json:"maxPlayers"`
	Creator    string   `json:"creator"`
}

// Info is the lobby snapshot sent to every lobby viewer after each
// mutation. QueuedForGame is the id of the game this viewer is queued in,
// or null.
type Info struct {
	GameList      []GameInfo `json:"gameList"`
	QueuedForGame *int       `json:"queuedForGame"`
}
