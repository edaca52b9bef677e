// Package ws pushes game events to browsers over websockets, one room per session.
package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Message 推送给前端的一条消息。
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]struct{}
	log   zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*websocket.Conn]struct{}),
		log:   log,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 本地对局，不限制来源
	},
}

// Serve upgrades the request and keeps the connection in room until the client goes
// away. hello, when not nil, is sent right after the upgrade.
func (h *Hub) Serve(c *gin.Context, room string, hello *Message) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("room", room).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	if hello != nil {
		if err := conn.WriteJSON(hello); err != nil {
			h.mu.Unlock()
			_ = conn.Close()
			return
		}
	}
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*websocket.Conn]struct{})
	}
	h.rooms[room][conn] = struct{}{}
	h.mu.Unlock()
	h.log.Debug().Str("room", room).Msg("websocket joined")

	defer h.drop(room, conn)

	// 前端只收不发；读循环只是为了发现断线
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.rooms[room]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
	_ = conn.Close()
}

// Broadcast sends one event to every client of room. Broken connections are dropped.
func (h *Hub) Broadcast(room, event string, data any) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[room]
	if !ok {
		return
	}
	msg := Message{Event: event, Data: data}
	for conn := range clients {
		if err := conn.WriteJSON(msg); err != nil {
			h.log.Debug().Err(err).Str("room", room).Msg("websocket write failed")
			_ = conn.Close()
			delete(clients, conn)
		}
	}
	if len(clients) == 0 {
		delete(h.rooms, room)
	}
}

// Clients 某个房间当前的连接数。
func (h *Hub) Clients(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}
