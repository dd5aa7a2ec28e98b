package tabsync

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gohornet/agora/pkg/model/tabsync"
	"github.com/gohornet/agora/pkg/utils"
	"github.com/iotaledger/hive.go/logger"
)

const (
	// Maximum size of queued messages that should be sent to a peer.
	sendChannelSize = 100

	// Maximum size of messages waiting for the hub.
	broadcastChannelSize = 256
)

// StateFunc returns the messages a newly connected peer starts from.
type StateFunc func() ([]*tabsync.Message, error)

// Hub bridges the sync bus and the connected websocket peers.
// Every message on the bus is sent to all peers except the one it came from,
// and every message of a peer is published on the bus.
type Hub struct {
	*utils.WrappedLogger

	bus          *tabsync.Bus
	state        StateFunc
	clock        func() time.Time
	writeTimeout time.Duration
	upgrader     *websocket.Upgrader

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *tabsync.Message

	// closed once the hub stopped.
	stopped chan struct{}
}

// NewHub creates a hub. Peers are registered once Run is called.
func NewHub(log *logger.Logger, bus *tabsync.Bus, state StateFunc, writeTimeout time.Duration) *Hub {
	return &Hub{
		WrappedLogger: utils.NewWrappedLogger(log),
		bus:           bus,
		state:         state,
		clock:         time.Now,
		writeTimeout:  writeTimeout,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// peers are browser tabs of any origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 1),
		unregister: make(chan *Client, 1),
		broadcast:  make(chan *tabsync.Message, broadcastChannelSize),
		stopped:    make(chan struct{}),
	}
}

// Run forwards bus messages to the peers until the context is done.
func (h *Hub) Run(ctx context.Context) {
	unsubscribe := h.bus.Subscribe(func(msg *tabsync.Message) {
		select {
		case h.broadcast <- msg:
		default:
			h.LogWarnf("dropping %s sync message from %s, hub is busy", msg.Key, msg.Origin)
		}
	})
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			close(h.stopped)
			for client := range h.clients {
				h.removeClient(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.sendState(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.origin == msg.Origin {
					continue
				}
				select {
				case client.sendChan <- msg:
				default:
					h.LogWarnf("peer %s is too slow, disconnecting", client.origin)
					h.removeClient(client)
				}
			}
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	if _, exists := h.clients[client]; !exists {
		return
	}
	delete(h.clients, client)
	close(client.sendChan)
}

func (h *Hub) sendState(client *Client) {
	if h.state == nil {
		return
	}

	messages, err := h.state()
	if err != nil {
		h.LogWarnf("unable to collect sync state for peer %s: %s", client.origin, err)
		return
	}

	for _, msg := range messages {
		select {
		case client.sendChan <- msg:
		default:
			return
		}
	}
}

// receive publishes a message of a peer on the bus under the origin of the peer.
// The timestamp of the peer is replaced by the receive time, peer clocks are not trusted.
func (h *Hub) receive(client *Client, msg *tabsync.Message) {
	msg.Origin = client.origin
	msg.Timestamp = h.clock()
	h.bus.Publish(msg)
}

// ServeHTTP upgrades the request to a websocket connection and registers the peer.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.LogWarnf("upgrading websocket failed: %s", err)
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		origin:   "peer-" + uuid.New().String(),
		sendChan: make(chan *tabsync.Message, sendChannelSize),
	}

	select {
	case h.register <- client:
	case <-h.stopped:
		_ = conn.Close()
		return
	}

	go client.readPump()
	go client.writePump()
}
