package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/judgegodwins/pericon-server/game"
	"github.com/judgegodwins/pericon-server/http_utils"
	"github.com/judgegodwins/pericon-server/store"
	"github.com/judgegodwins/pericon-server/tokens"
	"github.com/judgegodwins/pericon-server/util"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testKey = "YELLOW SUBMARINE, BLACK WIZARDRY"

func TestMain(m *testing.M) {
	util.InitValidator()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, requireTicket bool, rdb *redis.Client) (*Server, tokens.Maker) {
	t.Helper()

	config := &util.Config{
		Port:           "0",
		MaxPoints:      3,
		TicketTTL:      time.Minute,
		RequireTicket:  requireTicket,
		AllowedOrigins: []string{"https://*.example.com"},
	}

	st := store.NewMemoryStore(time.Hour)
	maker, err := tokens.NewJWTMaker(testKey)
	require.NoError(t, err)

	return NewServer(config, game.NewService(st, config.MaxPoints, nil), st, maker, rdb), maker
}

func serve(s *Server, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	return w
}

func TestCheckRoom(t *testing.T) {
	s, _ := newTestServer(t, false, nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/rooms/abcdef", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	_, err := s.game.Join(context.Background(), "abcdef", "alice")
	require.NoError(t, err)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/rooms/abcdef", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		http_utils.BaseResponse
		Data roomSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, roomSummary{ID: "abcdef", Players: []string{"alice"}}, body.Data)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/rooms/abc-def", nil))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, false, nil)
	w := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	s, _ = newTestServer(t, false, rdb)
	w = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	mr.Close()
	w = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTicketMiddleware(t *testing.T) {
	s, maker := newTestServer(t, true, nil)

	ticket, _, err := maker.CreateToken("abcdef", time.Minute)
	require.NoError(t, err)
	expired, _, err := maker.CreateToken("abcdef", -time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name string
		url  string
		code int
	}{
		{"missing", "/ws/pericon/match/abcdef", http.StatusUnauthorized},
		{"garbage", "/ws/pericon/match/abcdef?ticket=garbage", http.StatusUnauthorized},
		{"expired", "/ws/pericon/match/abcdef?ticket=" + expired, http.StatusUnauthorized},
		{"other room", "/ws/pericon/match/qwerty?ticket=" + ticket, http.StatusUnauthorized},
		// a plain request passes the middleware and fails the websocket handshake
		{"valid", "/ws/pericon/match/abcdef?ticket=" + ticket, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(s, httptest.NewRequest(http.MethodGet, tc.url, nil))
			require.Equal(t, tc.code, w.Code)
		})
	}
}

func TestTicketOptional(t *testing.T) {
	s, _ := newTestServer(t, false, nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/ws/pericon/match/abcdef", nil))
	require.Equal(t, http.StatusBadRequest, w.Code, "reaches the handshake")

	w = serve(s, httptest.NewRequest(http.MethodGet, "/ws/pericon/match/abcdef?ticket=garbage", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, false, nil)

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set("Origin", "https://app.example.com")
	w := serve(s, r)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set("Origin", "https://evil.test")
	w = serve(s, r)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
