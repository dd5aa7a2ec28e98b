package tabsync

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/gohornet/agora/pkg/model/tabsync"
)

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) *tabsync.Message {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	msg := &tabsync.Message{}
	require.NoError(t, conn.ReadJSON(msg))
	return msg
}

func TestHubBridgesBus(t *testing.T) {
	bus := tabsync.NewBus()

	state := func() ([]*tabsync.Message, error) {
		return []*tabsync.Message{{Origin: "engine", Key: tabsync.KeyPolls, Payload: json.RawMessage(`[]`)}}, nil
	}

	h := NewHub(nil, bus, state, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	server := httptest.NewServer(h)
	defer server.Close()

	first := dial(t, server)
	require.Equal(t, tabsync.KeyPolls, readMessage(t, first).Key)

	second := dial(t, server)
	require.Equal(t, tabsync.KeyPolls, readMessage(t, second).Key)

	published := make(chan *tabsync.Message, 1)
	unsubscribe := bus.Subscribe(func(msg *tabsync.Message) {
		if msg.Key == tabsync.KeyParameters {
			published <- msg
		}
	})
	defer unsubscribe()

	// a peer message reaches the bus and the other peers under the origin of the peer,
	// stamped with the receive time instead of the clock of the peer
	sent := time.Now()
	require.NoError(t, first.WriteJSON(&tabsync.Message{
		Origin:    "engine",
		Key:       tabsync.KeyParameters,
		Payload:   json.RawMessage(`{"ui":{"colorScheme":"green"}}`),
		Timestamp: sent.Add(24 * time.Hour),
	}))

	var onBus *tabsync.Message
	select {
	case onBus = <-published:
	case <-time.After(5 * time.Second):
		t.Fatal("message did not reach the bus")
	}
	require.True(t, strings.HasPrefix(onBus.Origin, "peer-"))
	require.False(t, onBus.Timestamp.Before(sent))
	require.True(t, onBus.Timestamp.Before(sent.Add(time.Hour)))

	forwarded := readMessage(t, second)
	require.Equal(t, tabsync.KeyParameters, forwarded.Key)
	require.Equal(t, onBus.Origin, forwarded.Origin)

	// bus messages reach every peer
	bus.Publish(&tabsync.Message{Origin: "engine", Key: tabsync.KeyPolls, Payload: json.RawMessage(`[]`), Timestamp: time.Now()})
	require.Equal(t, "engine", readMessage(t, first).Origin)
	require.Equal(t, "engine", readMessage(t, second).Origin)
}
