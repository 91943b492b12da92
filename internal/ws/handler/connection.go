package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"

	"go-fairwheel/internal/event"
	"go-fairwheel/internal/lib/logger/sl"
)

const writeTimeout = 5 * time.Second

// command is what a subscriber sends to manage its channel set.
type command struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

type subscription struct {
	conn    *websocket.Conn
	channel string
}

// Hub fans event messages out to subscribed connections. The run loop is
// the only goroutine touching the channel maps. Publishers (the game
// process) and subscribers (browsers) use the same endpoint: any frame
// carrying an event name is treated as a publish, any frame carrying an
// action as a subscription command.
type Hub struct {
	log         *slog.Logger
	channels    map[string]map[*websocket.Conn]bool
	broadcast   chan event.Message
	subscribe   chan subscription
	unsubscribe chan subscription
	detach      chan *websocket.Conn
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:         log,
		channels:    make(map[string]map[*websocket.Conn]bool),
		broadcast:   make(chan event.Message, 64),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		detach:      make(chan *websocket.Conn),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func (hub *Hub) run() {
	for {
		select {
		case sub := <-hub.subscribe:
			if hub.channels[sub.channel] == nil {
				hub.channels[sub.channel] = make(map[*websocket.Conn]bool)
			}

			hub.channels[sub.channel][sub.conn] = true
		case sub := <-hub.unsubscribe:
			delete(hub.channels[sub.channel], sub.conn)
		case conn := <-hub.detach:
			for _, receivers := range hub.channels {
				delete(receivers, conn)
			}
		case message := <-hub.broadcast:
			hub.deliver(message)
		}
	}
}

func (hub *Hub) deliver(message event.Message) {
	receivers, ok := hub.channels[message.Channel]
	if !ok || len(receivers) == 0 {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		hub.log.Error("failed to marshal message", sl.Err(err))

		return
	}

	hub.log.Debug("broadcasting message",
		sl.String("channel", message.Channel),
		sl.String("event", message.Event),
		slog.Int64("seq", message.Seq))

	for conn := range receivers {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))

		if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
			hub.log.Error("failed to write message, dropping connection", sl.Err(err))

			delete(receivers, conn)
			_ = conn.Close()
		}
	}
}

func (hub *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Error("failed to upgrade connection", sl.Err(err))

		return
	}

	defer func() {
		hub.detach <- ws

		if err = ws.Close(); err != nil {
			hub.log.Error("failed to close connection", sl.Err(err))
		}
	}()

	for {
		_, p, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				hub.log.Error("failed to read message", sl.Err(err))
			}

			return
		}

		var message event.Message
		if err = json.Unmarshal(p, &message); err != nil {
			hub.log.Error("failed to unmarshal message", sl.Err(err))

			continue
		}

		if message.Event != "" {
			hub.broadcast <- message

			continue
		}

		var cmd command
		if err = json.Unmarshal(p, &cmd); err != nil || cmd.Channel == "" {
			continue
		}

		switch cmd.Action {
		case "subscribe":
			hub.subscribe <- subscription{conn: ws, channel: cmd.Channel}
		case "unsubscribe":
			hub.unsubscribe <- subscription{conn: ws, channel: cmd.Channel}
		}
	}
}

func (hub *Hub) RunServer() {
	go hub.run()
}
