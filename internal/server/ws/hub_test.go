package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcast(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(zerolog.Nop())
	r := gin.New()
	r.GET("/ws/:room", func(c *gin.Context) {
		hub.Serve(c, c.Param("room"), &Message{Event: "hello", Data: c.Param("room")})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/abc"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello Message
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello.Event)
	assert.Equal(t, "abc", hello.Data)

	require.Eventually(t, func() bool { return hub.Clients("abc") == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast("other", "state", 1)
	hub.Broadcast("abc", "state", map[string]int{"turn": 3})
	var msg struct {
		Event string         `json:"event"`
		Data  map[string]int `json:"data"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "state", msg.Event)
	assert.Equal(t, 3, msg.Data["turn"])

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients("abc") == 0 }, time.Second, 10*time.Millisecond)
}

func TestNilHubBroadcast(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Broadcast("x", "y", nil) })
}
