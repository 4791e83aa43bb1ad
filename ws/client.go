package ws

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/judgegodwins/pericon-server/game"
	"github.com/judgegodwins/pericon-server/http_utils"
	"github.com/oklog/ulid/v2"
	"golang.org/x/exp/slices"
)

var (
	pongWait     = 10 * time.Second
	pingInterval = (pongWait * 9) / 10
	writeWait    = 5 * time.Second

	egressBuffer = 64

	errClosedByServer = errors.New("connection closed by server")
)

type Client struct {
	ID         string
	connection *websocket.Conn
	manager    *Manager
	egress     chan frame
	// roomID is empty for matchmaking connections.
	roomID string
	err    chan error

	mu   sync.Mutex
	name string
}

func NewClient(conn *websocket.Conn, manager *Manager, roomID string) *Client {
	return &Client{
		ID:         ulid.Make().String(),
		connection: conn,
		manager:    manager,
		egress:     make(chan frame, egressBuffer),
		roomID:     roomID,
		err:        make(chan error, 1),
	}
}

// Reads incoming messages from the clients websocket connection
func (c *Client) readMessages(ctx context.Context) {
	c.connection.SetReadLimit(512)

	if err := c.connection.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.handleError(err)
		return
	}

	c.connection.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, payload, err := c.connection.ReadMessage()

			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					log.Printf("error reading message: %v", err)
				}
				c.handleError(err)
				return
			}

			var msg Inbound
			if err := json.Unmarshal(payload, &msg); err != nil {
				c.ReportError(game.ErrMalformedMessage)
				continue
			}

			// handlers run inline, so one connection's messages are handled in order
			if err := c.manager.routeEvent(ctx, msg, c); err != nil {
				c.ReportError(err)
			}
		}
	}
}

// writes messages pushed to the client's egress channel
func (c *Client) writeMessages(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case f := <-c.egress:
			if err := c.connection.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("error setting write deadline: %v", err)
				c.handleError(err)
				return
			}

			if f.close {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				if err := c.connection.WriteMessage(websocket.CloseMessage, msg); err != nil {
					log.Printf("error sending close message to client %v: %v", c.ID, err)
				}
				c.handleError(errClosedByServer)
				return
			}

			if err := c.connection.WriteMessage(websocket.TextMessage, f.data); err != nil {
				c.handleError(err)
				return
			}
		case <-ticker.C:
			if err := c.connection.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("error setting write deadline: %v", err)
				c.handleError(err)
				return
			}
			if err := c.connection.WriteMessage(websocket.PingMessage, []byte("")); err != nil {
				c.handleError(err)
				return
			}
		}
	}
}

// Sets a new read deadline when a pong is received for a ping message.
func (c *Client) pongHandler(pongMsg string) error {
	return c.connection.SetReadDeadline(time.Now().Add(pongWait))
}

// Reports the first pump failure to the http handler, which then tears the
// connection down. Later failures are dropped.
func (c *Client) handleError(e error) {
	select {
	case c.err <- e:
	default:
	}
}

// Returns the error channel
func (c *Client) Err() <-chan error {
	return c.err
}

// Name returns the username claimed on this connection, or "".
func (c *Client) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *Client) setName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// Send encodes v and queues it for delivery.
func (c *Client) Send(v any) {
	f, err := encode(v)
	if err != nil {
		log.Printf("error encoding message for client %v: %v", c.ID, err)
		return
	}
	c.push(f)
}

// push never blocks: a client that can't keep up loses the frame.
func (c *Client) push(f frame) {
	select {
	case c.egress <- f:
	default:
		log.Printf("egress of client %v is full, dropping frame", c.ID)
	}
}

// CloseAfterFlush queues a close behind every frame already pushed.
func (c *Client) CloseAfterFlush() {
	c.push(frame{close: true})
}

// ReportError sends err to the client as an error message. Capacity errors
// also close the connection once the message is out.
func (c *Client) ReportError(err error) {
	msg := http_utils.ErrorMessage500

	var gerr *game.Error
	if errors.As(err, &gerr) {
		msg = gerr.Message
	} else {
		log.Printf("error handling message from client %v: %v", c.ID, err)
	}

	c.Send(Message{Type: game.EventError, Value: msg})

	if errors.Is(err, game.ErrCapacity) {
		c.CloseAfterFlush()
	}
}

// Helper method to join the client's room group
func (c *Client) Join() {
	c.manager.Lock()
	defer c.manager.Unlock()

	room := c.manager.Rooms[c.roomID]

	if !slices.Contains(room, c) {
		c.manager.Rooms[c.roomID] = append(room, c)
	}
}

// Leave removes the client from its room group
func (c *Client) Leave() {
	c.manager.Lock()
	defer c.manager.Unlock()

	room, ok := c.manager.Rooms[c.roomID]
	if !ok {
		return
	}

	if index := slices.Index(room, c); index >= 0 {
		room = slices.Delete(room, index, index+1)
	}

	if len(room) == 0 {
		delete(c.manager.Rooms, c.roomID)
		return
	}
	c.manager.Rooms[c.roomID] = room
}
