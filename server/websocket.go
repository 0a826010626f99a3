package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/snapfeed-app/snapfeed/server/middlewares"
	. "github.com/snapfeed-app/snapfeed/utils/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The REST surface already runs behind CORS; the ws endpoint accepts the
	// same origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Subscribe upgrades the connection and streams new-snap signals to the
// client until either side goes away. The signal is a hint only, the client
// re-pulls the feed on receipt.
func (s *Server) Subscribe(c *gin.Context) {
	userID := c.GetString(middlewares.ContextUserID)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		Log.Error("fail to upgrade websocket connection: ", err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	ch, chID := s.hub.Subscribe(ctx, userID)
	Log.Info("websocket subscriber connected: ", chID)

	// Reader goroutine only exists to notice the peer closing.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		cancel()
		conn.Close()
		Log.Info("websocket subscriber disconnected: ", chID)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case signal := <-ch:
			if err := conn.WriteJSON(signal); err != nil {
				return
			}
		}
	}
}
