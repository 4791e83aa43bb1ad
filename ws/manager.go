package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/judgegodwins/pericon-server/game"
	"github.com/judgegodwins/pericon-server/http_utils"
	"github.com/judgegodwins/pericon-server/matchmaker"
	"github.com/judgegodwins/pericon-server/tokens"
	"github.com/judgegodwins/pericon-server/util"
)

type ClientList map[string]*Client

type roomURI struct {
	RoomName string `uri:"room_name" binding:"required,alphanum,max=32"`
}

type Manager struct {
	clients ClientList
	sync.RWMutex
	handlers map[string]EventHandler
	// Rooms maps a room id to the connections that joined its group.
	Rooms map[string][]*Client
	// roomLocks serialize operation and delivery per room, so broadcasts
	// reach every client in commit order.
	roomLocks *util.KeyedMutex

	config     *util.Config
	game       *game.Service
	matchmaker *matchmaker.Matchmaker[*Client]
	tokens     tokens.Maker
	upgrader   websocket.Upgrader
}

func NewManager(config *util.Config, svc *game.Service, registry matchmaker.Registry, maker tokens.Maker) *Manager {
	m := &Manager{
		clients:    make(ClientList),
		handlers:   make(map[string]EventHandler),
		Rooms:      make(map[string][]*Client),
		roomLocks:  util.NewKeyedMutex(),
		config:     config,
		game:       svc,
		matchmaker: matchmaker.New[*Client](registry),
		tokens:     maker,
	}

	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     m.checkOrigin,
	}

	m.setupEventHandlers()

	return m
}

func (m *Manager) setupEventHandlers() {
	m.handlers[MessageUsername] = UsernameHandler
	m.handlers[MessageUseCard] = UseCardHandler
	m.handlers[MessageMoreCards] = MoreCardsHandler
	m.handlers[MessageMiddleCard] = MiddleCardHandler
}

func (m *Manager) routeEvent(ctx context.Context, msg Inbound, c *Client) error {
	// matchmaking connections only listen
	if c.roomID == "" {
		return game.ErrUnknownMessage
	}

	handler, ok := m.handlers[msg.Type]
	if !ok {
		return game.ErrUnknownMessage
	}

	unlock := m.roomLocks.Lock(c.roomID)
	defer unlock()

	return handler(ctx, msg, c)
}

// Dispatch delivers the events of a committed operation in order, then drops
// the room group if the game ended.
func (m *Manager) Dispatch(c *Client, out *game.Outcome) {
	for _, evt := range out.Events {
		msg := Message{Type: evt.Type, Value: evt.Value}

		switch evt.To {
		case game.Sender:
			c.Send(msg)
		case game.Room:
			m.EmitToRoom(c.roomID, msg)
		}
	}

	if out.DisconnectRoom {
		m.CloseRoom(c.roomID)
	}
}

// EmitToRoom sends v to every connection in the room group.
func (m *Manager) EmitToRoom(roomID string, v any) {
	f, err := encode(v)
	if err != nil {
		log.Printf("error encoding message for room %v: %v", roomID, err)
		return
	}

	m.RLock()
	defer m.RUnlock()

	for _, client := range m.Rooms[roomID] {
		client.push(f)
	}
}

// CloseRoom disconnects every connection in the room group after its pending
// messages and forgets the group.
func (m *Manager) CloseRoom(roomID string) {
	m.Lock()
	defer m.Unlock()

	for _, client := range m.Rooms[roomID] {
		client.CloseAfterFlush()
	}
	delete(m.Rooms, roomID)
}

// RoomSize returns the number of connections in the room group.
func (m *Manager) RoomSize(roomID string) int {
	m.RLock()
	defer m.RUnlock()
	return len(m.Rooms[roomID])
}

func (m *Manager) addClient(client *Client) {
	m.Lock()
	defer m.Unlock()

	m.clients[client.ID] = client
}

func (m *Manager) removeClient(client *Client) {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		client.connection.Close()
		delete(m.clients, client.ID)
	}
}

// ServeMatchmaker queues the connection and, once paired, sends both
// connections the new room code and a ticket for it.
func (m *Manager) ServeMatchmaker(c *gin.Context) {
	conn, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("error upgrading to websocket connection: %v\n", err)
		return
	}

	client := NewClient(conn, m, "")

	m.serve(c, client, func(ctx context.Context) {
		pair, err := m.matchmaker.Enqueue(ctx, client)
		if err != nil {
			log.Println("error pairing connections:", err)
			client.ReportError(err)
			return
		}

		if pair != nil {
			m.notifyPair(pair)
		}
	}, func() {
		m.matchmaker.Remove(client)
	})
}

// ServeRoom attaches a connection to one room. The room is only touched once
// the connection sends a username. Tickets are checked by the router.
func (m *Manager) ServeRoom(c *gin.Context) {
	var uri roomURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, http_utils.ValidationResponse(err))
		return
	}

	conn, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("error upgrading to websocket connection: %v\n", err)
		return
	}

	client := NewClient(conn, m, uri.RoomName)

	m.serve(c, client, nil, client.Leave)
}

// serve runs the client's pumps until one of them fails, then tears the
// connection down.
func (m *Manager) serve(c *gin.Context, client *Client, onStart func(context.Context), onClose func()) {
	m.addClient(client)

	ctx, cancel := context.WithCancel(c.Request.Context())

	defer func() {
		cancel()
		if onClose != nil {
			onClose()
		}

		deadline := time.Now().Add(writeWait)
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
		if err := client.connection.WriteControl(websocket.CloseMessage, msg, deadline); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			log.Println("error sending close message:", err)
		}

		m.removeClient(client)
	}()

	go client.readMessages(ctx)
	go client.writeMessages(ctx)

	if onStart != nil {
		onStart(ctx)
	}

	err := <-client.Err()

	log.Printf("client %v disconnected: %v", client.ID, err)
}

func (m *Manager) notifyPair(pair *matchmaker.Pair[*Client]) {
	for _, client := range []*Client{pair.First, pair.Second} {
		ticket, _, err := m.tokens.CreateToken(pair.RoomID, m.config.TicketTTL)
		if err != nil {
			log.Println("error creating ticket:", err)
		}

		client.Send(PayloadMatch{
			RoomName: pair.RoomID,
			Ticket:   ticket,
		})
	}
}

func (m *Manager) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range m.config.AllowedOrigins {
		if matchOrigin(allowed, origin) {
			return true
		}
	}
	return false
}

// matchOrigin matches origin against a pattern holding at most one "*".
func matchOrigin(pattern, origin string) bool {
	prefix, suffix, wildcard := strings.Cut(pattern, "*")
	if !wildcard {
		return pattern == origin
	}
	return len(origin) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(origin, prefix) &&
		strings.HasSuffix(origin, suffix)
}
