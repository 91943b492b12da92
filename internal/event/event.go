package event

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"

	"go-fairwheel/internal/lib/logger/sl"
)

// Message is the wire shape pushed to subscribers. Seq orders messages
// within one round; delivery is at-least-once, so consumers must tolerate
// duplicates but can rely on Seq never going backwards inside a round.
type Message struct {
	Channel string                 `json:"channel"`
	Event   string                 `json:"event"`
	Seq     int64                  `json:"seq"`
	Data    map[string]interface{} `json:"data"`
}

type Broadcaster interface {
	TriggerEvent(m Message) error
}

// WSClient pushes messages over a single websocket connection to the hub.
type WSClient struct {
	log  *slog.Logger
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewWSClient(log *slog.Logger, conn *websocket.Conn) *WSClient {
	return &WSClient{
		log:  log,
		conn: conn,
	}
}

func (c *WSClient) TriggerEvent(m Message) error {
	const op = "event.ws.TriggerEvent"

	msg, err := json.Marshal(m)
	if err != nil {
		c.log.Error("failed to marshal message", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err = c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		c.log.Error("failed to trigger event", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
