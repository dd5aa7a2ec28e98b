package tabsync

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/gohornet/agora/pkg/model/tabsync"
)

const (
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1 << 20
)

// Client is a middleman between the hub and one websocket connection.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// The sync origin of the peer.
	origin string

	// Buffered channel of outbound messages.
	sendChan chan *tabsync.Message
}

func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.stopped:
	}
}

// readPump publishes the messages of the peer and answers the pings sent in writePump.
//
// At most one reader per websocket connection is allowed
func (c *Client) readPump() {
	defer c.leave()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		msg := &tabsync.Message{}
		if err := c.conn.ReadJSON(msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.LogWarnf("websocket error of peer %s: %s", c.origin, err)
			}
			return
		}
		c.hub.receive(c, msg)
	}
}

// writePump pumps messages from the hub to the websocket connection.
//
// At most one writer per websocket connection is allowed
func (c *Client) writePump() {

	pingTicker := time.NewTicker(pingPeriod)

	defer func() {
		pingTicker.Stop()
		c.leave()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendChan:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if !ok {
				// the hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				c.hub.LogWarnf("websocket error of peer %s: %s", c.origin, err)
				return
			}

		case <-pingTicker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
