package transport_test

import (
	"bufio"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sushigo/internal/lobby"
	"sushigo/internal/session"
	"sushigo/internal/transport"
)

func newEngine() *session.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return session.NewEngine(logger, lobby.New(logger, rand.New(rand.NewSource(1))), 0)
}

func startServer(t *testing.T) *transport.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := transport.ListenTCP("127.0.0.1:0", newEngine(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type tcpClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dialTCP(t *testing.T, s *transport.Server) *tcpClient {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &tcpClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (c *tcpClient) send(line string) {
	c.t.Helper()
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
}

func (c *tcpClient) readLine() string {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	line, err := c.reader.ReadString('\n')
	require.NoError(c.t, err)
	return strings.TrimSuffix(line, "\n")
}

// expect reads lines until one starts with the given code, failing on
// deadline. Intervening broadcasts are skipped.
func (c *tcpClient) expect(code string) string {
	c.t.Helper()
	for {
		line := c.readLine()
		if strings.HasPrefix(line, code+" ") || line == code {
			return line
		}
	}
}

func TestTCPHandshake(t *testing.T) {
	s := startServer(t)
	c := dialTCP(t, s)

	greeting := c.readLine()
	assert.True(t, strings.HasPrefix(greeting, "100 "))

	c.send("HELO alice 1.0")
	assert.Equal(t, `202 "Welcome to the lobby, alice"`, c.readLine())
	assert.True(t, strings.HasPrefix(c.readLine(), "200 "))
}

func TestTCPMatchStartsOverLoopback(t *testing.T) {
	s := startServer(t)

	alice := dialTCP(t, s)
	alice.expect("100")
	alice.send("HELO alice 1.0")
	alice.expect("202")

	bob := dialTCP(t, s)
	bob.expect("100")
	bob.send("HELO bob 1.0")
	bob.expect("202")

	alice.send(`NEW {"name":"breakfast"}`)
	require.Equal(t, "201 1", alice.expect("201"))

	bob.send("JOIN 1")
	for !strings.Contains(bob.expect("200"), `"queuedForGame":1`) {
	}

	alice.send("START")
	for _, c := range []*tcpClient{alice, bob} {
		assert.Equal(t, `203 "Game started"`, c.expect("203"))
		prompt := c.expect("101")
		assert.Contains(t, prompt, `"round":1`)
	}
}

func TestTCPUnknownCommandGetsHelp(t *testing.T) {
	s := startServer(t)
	c := dialTCP(t, s)
	c.expect("100")

	c.send("BOGUS")
	assert.Equal(t, `404 ["HELO <name> <version>"]`, c.expect("404"))
}

func TestWebSocketSpeaksSameProtocol(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := transport.NewWSHandler(newEngine(), logger)
	srv := httptest.NewServer(http.HandlerFunc(handler.ServeHTTP))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	read := func() string {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		return string(data)
	}

	assert.True(t, strings.HasPrefix(read(), "100 "))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("HELO alice 2.0")))
	assert.Equal(t, `202 "Welcome to the lobby, alice"`, read())
	assert.True(t, strings.HasPrefix(read(), "200 "))
}
