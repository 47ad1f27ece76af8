package lobby_test

import (
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sushigo/internal/lobby"
	"sushigo/internal/protocol"
	"sushigo/internal/session"
)

type fakeConn struct {
	lines  []string
	closed bool
}

func (f *fakeConn) WriteLine(line string) error {
	f.lines = append(f.lines, strings.TrimSuffix(line, "\n"))
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func (f *fakeConn) RemoteAddr() string { return "fake:0" }

func (f *fakeConn) last() string {
	if len(f.lines) == 0 {
		return ""
	}
	return f.lines[len(f.lines)-1]
}

// withCode returns every received line carrying the given status code.
func (f *fakeConn) withCode(code protocol.Code) []string {
	var out []string
	for _, l := range f.lines {
		if strings.HasPrefix(l, string(code)+" ") || l == string(code) {
			out = append(out, l)
		}
	}
	return out
}

type fixture struct {
	engine *session.Engine
	lobby  *lobby.Lobby
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := lobby.New(logger, rand.New(rand.NewSource(1)))
	return &fixture{engine: session.NewEngine(logger, l, 0), lobby: l}
}

// login connects a client and completes the handshake.
func (f *fixture) login(name string) (*fakeConn, *session.Client) {
	conn := &fakeConn{}
	c := f.engine.Connect(conn)
	f.engine.HandleLine(c, "HELO "+name+" 1.0")
	return conn, c
}

func TestGreetingAsksForName(t *testing.T) {
	f := newFixture(t)
	conn := &fakeConn{}
	f.engine.Connect(conn)

	require.Len(t, conn.lines, 1)
	assert.True(t, strings.HasPrefix(conn.lines[0], "100 "))
	assert.Contains(t, conn.lines[0], "HELO <name> <version>")
}

func TestHandshakeEntersLobby(t *testing.T) {
	f := newFixture(t)
	conn, c := f.login("alice")

	assert.Equal(t, "alice", c.Name)
	assert.Equal(t, "1.0", c.Version)
	assert.Equal(t, `202 "Welcome to the lobby, alice"`, conn.lines[1])
	assert.Equal(t, `200 {"gameList":[],"queuedForGame":null}`, conn.lines[2])
}

func TestNewRejectsBadConfigs(t *testing.T) {
	f := newFixture(t)
	conn, c := f.login("alice")

	cases := []struct {
		line string
		want string
	}{
		{`NEW "just a string"`, `400 "Expected JSON object"`},
		{`NEW {}`, `400 {"name":"Missing name"}`},
		{`NEW {"name":42}`, `400 {"name":"Missing name"}`},
		{`NEW {"name":"this name is way too long to accept"}`, `400 {"name":"Name must be <= 20 characters"}`},
		{`NEW {"name":""}`, `400 {"name":"Name must be > 0 characters"}`},
	}
	for _, tc := range cases {
		f.engine.HandleLine(c, tc.line)
		assert.Equal(t, tc.want, conn.last(), "line %q", tc.line)
	}
}

func TestNewCreatesGameAndBroadcasts(t *testing.T) {
	f := newFixture(t)
	aliceConn, alice := f.login("alice")
	bobConn, _ := f.login("bob")

	f.engine.HandleLine(alice, `NEW {"name":"breakfast"}`)

	assert.Contains(t, aliceConn.lines, "201 1")
	want := `200 {"gameList":[{"id":1,"name":"breakfast","players":["alice"],"maxPlayers":5,"creator":"alice"}],"queuedForGame":1}`
	assert.Equal(t, want, aliceConn.last())
	// Non-creator sees the same list but is not queued.
	assert.Equal(t, strings.Replace(want, `"queuedForGame":1`, `"queuedForGame":null`, 1), bobConn.last())
}

func TestJoinValidation(t *testing.T) {
	f := newFixture(t)
	_, alice := f.login("alice")
	bobConn, bob := f.login("bob")
	f.engine.HandleLine(alice, `NEW {"name":"breakfast"}`)

	f.engine.HandleLine(bob, "JOIN 99")
	assert.Equal(t, `400 "No game with that id"`, bobConn.last())

	f.engine.HandleLine(bob, `JOIN "one"`)
	assert.Equal(t, `400 "No game with that id"`, bobConn.last())

	f.engine.HandleLine(bob, "JOIN 1")
	assert.Contains(t, bobConn.last(), `"players":["alice","bob"]`)
	assert.Contains(t, bobConn.last(), `"queuedForGame":1`)
}

func TestJoinFullGame(t *testing.T) {
	f := newFixture(t)
	_, alice := f.login("alice")
	f.engine.HandleLine(alice, `NEW {"name":"breakfast"}`)
	for _, name := range []string{"b", "c", "d", "e"} {
		_, c := f.login(name)
		f.engine.HandleLine(c, "JOIN 1")
	}

	lateConn, late := f.login("late")
	f.engine.HandleLine(late, "JOIN 1")

	assert.Equal(t, `400 "Game is full"`, lateConn.last())
}

func TestQueuedPlayerCommandTables(t *testing.T) {
	f := newFixture(t)
	aliceConn, alice := f.login("alice")
	bobConn, bob := f.login("bob")
	f.engine.HandleLine(alice, `NEW {"name":"breakfast"}`)
	f.engine.HandleLine(bob, "JOIN 1")

	// The joiner may only LEAVE, the creator may only DELETE or START.
	f.engine.HandleLine(bob, `NEW {"name":"another"}`)
	assert.Equal(t, `404 ["LEAVE"]`, bobConn.last())
	f.engine.HandleLine(alice, "LEAVE")
	assert.Equal(t, `404 ["DELETE","START"]`, aliceConn.last())
}

func TestLeaveReturnsToLobby(t *testing.T) {
	f := newFixture(t)
	_, alice := f.login("alice")
	bobConn, bob := f.login("bob")
	f.engine.HandleLine(alice, `NEW {"name":"breakfast"}`)
	f.engine.HandleLine(bob, "JOIN 1")

	f.engine.HandleLine(bob, "LEAVE")

	assert.Contains(t, bobConn.last(), `"players":["alice"]`)
	assert.Contains(t, bobConn.last(), `"queuedForGame":null`)

	// Back in the lobby, bob can create a game again.
	f.engine.HandleLine(bob, `NEW {"name":"second"}`)
	assert.Contains(t, bobConn.lines, "201 2")
}

func TestDeleteNotifiesQueuedPlayers(t *testing.T) {
	f := newFixture(t)
	aliceConn, alice := f.login("alice")
	bobConn, bob := f.login("bob")
	f.engine.HandleLine(alice, `NEW {"name":"breakfast"}`)
	f.engine.HandleLine(bob, "JOIN 1")

	f.engine.HandleLine(alice, "DELETE")

	assert.Contains(t, bobConn.lines, `500 "The game you were in was deleted"`)
	assert.Equal(t, `200 {"gameList":[],"queuedForGame":null}`, aliceConn.last())
	assert.Equal(t, `200 {"gameList":[],"queuedForGame":null}`, bobConn.last())

	// Both are back on the lobby table.
	f.engine.HandleLine(bob, `NEW {"name":"second"}`)
	assert.Contains(t, bobConn.lines, "201 2")
}

func TestCreatorDisconnectDeletesQueue(t *testing.T) {
	f := newFixture(t)
	_, alice := f.login("alice")
	bobConn, bob := f.login("bob")
	f.engine.HandleLine(alice, `NEW {"name":"breakfast"}`)
	f.engine.HandleLine(bob, "JOIN 1")

	f.engine.HandleClose(alice)

	assert.Contains(t, bobConn.lines, `500 "The game you were in was deleted"`)
	assert.Equal(t, `200 {"gameList":[],"queuedForGame":null}`, bobConn.last())
}

func TestJoinerDisconnectLeavesQueue(t *testing.T) {
	f := newFixture(t)
	aliceConn, alice := f.login("alice")
	_, bob := f.login("bob")
	f.engine.HandleLine(alice, `NEW {"name":"breakfast"}`)
	f.engine.HandleLine(bob, "JOIN 1")

	f.engine.HandleClose(bob)

	assert.Contains(t, aliceConn.last(), `"players":["alice"]`)
}

func TestStartBeginsGame(t *testing.T) {
	f := newFixture(t)
	aliceConn, alice := f.login("alice")
	bobConn, bob := f.login("bob")
	idleConn, _ := f.login("carol")
	f.engine.HandleLine(alice, `NEW {"name":"breakfast"}`)
	f.engine.HandleLine(bob, "JOIN 1")

	f.engine.HandleLine(alice, "START")

	for _, conn := range []*fakeConn{aliceConn, bobConn} {
		assert.Contains(t, conn.lines, `203 "Game started"`)
		prompts := conn.withCode(protocol.CodePickCard)
		require.Len(t, prompts, 1)
		assert.Contains(t, prompts[0], `"round":1`)
	}
	// Remaining lobby viewers see the game vanish; the players get no more
	// lobby snapshots.
	assert.Equal(t, `200 {"gameList":[],"queuedForGame":null}`, idleConn.last())
	aliceBefore := len(aliceConn.lines)
	_, dave := f.login("dave")
	f.engine.HandleLine(dave, `NEW {"name":"lunch"}`)
	assert.Len(t, aliceConn.lines, aliceBefore)
}

func TestInGameDisconnectReturnsOthersToLobby(t *testing.T) {
	f := newFixture(t)
	aliceConn, alice := f.login("alice")
	_, bob := f.login("bob")
	f.engine.HandleLine(alice, `NEW {"name":"breakfast"}`)
	f.engine.HandleLine(bob, "JOIN 1")
	f.engine.HandleLine(alice, "START")

	f.engine.HandleClose(bob)

	assert.Contains(t, aliceConn.lines, `501 "Other player disconnected"`)
	assert.Equal(t, `200 {"gameList":[],"queuedForGame":null}`, aliceConn.last())

	// Alice is back on the lobby table.
	f.engine.HandleLine(alice, `NEW {"name":"again"}`)
	assert.Contains(t, aliceConn.lines, "201 2")
}
