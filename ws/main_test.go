package ws

import (
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/judgegodwins/pericon-server/game"
	"github.com/judgegodwins/pericon-server/store"
	"github.com/judgegodwins/pericon-server/tokens"
	"github.com/judgegodwins/pericon-server/util"
	"github.com/stretchr/testify/require"
)

const testKey = "YELLOW SUBMARINE, BLACK WIZARDRY"

func TestMain(m *testing.M) {
	util.InitValidator()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testEnv struct {
	server  *httptest.Server
	manager *Manager
	store   store.Store
	maker   tokens.Maker
}

func newTestEnv(t *testing.T, maxPoints int) *testEnv {
	t.Helper()

	config := &util.Config{
		MaxPoints:      maxPoints,
		TicketTTL:      time.Minute,
		AllowedOrigins: []string{"*"},
	}

	st := store.NewMemoryStore(time.Hour)
	maker, err := tokens.NewPasetoMaker(testKey)
	require.NoError(t, err)

	m := NewManager(config, game.NewService(st, maxPoints, nil), st, maker)

	router := gin.New()
	router.GET("/ws/pericon/matchmaker", m.ServeMatchmaker)
	router.GET("/ws/pericon/match/:room_name", m.ServeRoom)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, manager: m, store: st, maker: maker}
}

func (e *testEnv) url(path string) string {
	return "ws" + strings.TrimPrefix(e.server.URL, "http") + path
}

func (e *testEnv) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(e.url(path), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type received struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

func send(t *testing.T, conn *websocket.Conn, msgType string, value any) {
	t.Helper()
	b, err := json.Marshal(Message{Type: msgType, Value: value})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

func readRaw(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return data
}

// expect reads the next message, checks its type and decodes its value into v.
func expect(t *testing.T, conn *websocket.Conn, msgType string, v any) {
	t.Helper()
	var msg received
	require.NoError(t, json.Unmarshal(readRaw(t, conn), &msg))
	require.Equal(t, msgType, msg.Type, "value: %s", msg.Value)
	if v != nil {
		require.NoError(t, json.Unmarshal(msg.Value, v))
	}
}

func expectClosed(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
