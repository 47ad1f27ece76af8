package protocol

// Code is one of the fixed three-digit status codes that prefix every line
// the server writes. The numeric grouping mirrors HTTP: 1xx prompts for
// input, 2xx acknowledges, 4xx reports a client error, 5xx reports a
// server-side event.
type Code string

const (
	// CodeGiveName prompts a freshly connected client for its handshake.
	CodeGiveName Code = "100"
	// CodePickCard prompts a player to choose a card from its hand.
	CodePickCard Code = "101"

	// CodeLobbyInfo carries a lobby snapshot.
	CodeLobbyInfo Code = "200"
	// CodeGameCreated acknowledges NEW with the new game's id.
	CodeGameCreated Code = "201"
	// CodeJoinedServer acknowledges a completed handshake.
	CodeJoinedServer Code = "202"
	// CodeGameStarted tells a queued player its match has begun.
	CodeGameStarted Code = "203"
	// CodeRoundEnd carries the game view after round scoring.
	CodeRoundEnd Code = "204"
	// CodeGameEnd carries the winner and final scores of a finished match.
	CodeGameEnd Code = "205"
	// CodeGotPick acknowledges a recorded card choice.
	CodeGotPick Code = "206"

	// CodeInvalidCommand reports a bad token count or a failed domain
	// validation such as an unknown game id.
	CodeInvalidCommand Code = "400"
	// CodeInvalidJSON reports a malformed JSON argument.
	CodeInvalidJSON Code = "401"
	// CodeCommandNotFound reports an unrecognized action; the payload
	// lists the commands legal in the current state.
	CodeCommandNotFound Code = "404"
	// CodeInvalidCardIndex reports a rejected card pick.
	CodeInvalidCardIndex Code = "422"
	// CodeTooManyRetries is the final message before a forced disconnect.
	CodeTooManyRetries Code = "499"

	// CodeGameDeleted tells queued players their game was deleted.
	CodeGameDeleted Code = "500"
	// CodeGameInterrupted tells players their match ended early because
	// another player disconnected.
	CodeGameInterrupted Code = "501"
	// CodeUnimplemented is reserved for features the server recognizes
	// but does not support.
	CodeUnimplemented Code = "504"
)
