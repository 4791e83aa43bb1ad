package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/judgegodwins/pericon-server/game"
	"github.com/judgegodwins/pericon-server/matchmaker"
	"github.com/judgegodwins/pericon-server/tokens"
	"github.com/judgegodwins/pericon-server/util"
	"github.com/judgegodwins/pericon-server/ws"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
)

type Server struct {
	config     *util.Config
	wsManager  *ws.Manager
	router     *gin.Engine
	game       *game.Service
	tokenMaker tokens.Maker
	rdb        *redis.Client
	httpServer *http.Server
}

// NewServer wires the routes. rdb may be nil when rooms are kept in memory.
func NewServer(config *util.Config, svc *game.Service, registry matchmaker.Registry, maker tokens.Maker, rdb *redis.Client) *Server {
	router := gin.Default()

	server := &Server{
		config:     config,
		wsManager:  ws.NewManager(config, svc, registry, maker),
		router:     router,
		game:       svc,
		tokenMaker: maker,
		rdb:        rdb,
	}

	router.GET("/ws/pericon/matchmaker", server.wsManager.ServeMatchmaker)
	router.GET("/ws/pericon/match/:room_name", server.TicketMiddleware, server.wsManager.ServeRoom)
	router.GET("/rooms/:id", server.CheckRoom)
	router.GET("/healthz", server.Healthz)

	server.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%v", config.Port),
		Handler: server.Handler(),
	}

	return server
}

// Handler returns the router behind the CORS policy.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}).Handler(s.router)
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
