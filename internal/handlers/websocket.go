package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"points-arcade-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	redisService *services.RedisService
	hub          *WebSocketHub
	log          *zap.Logger
}

type WebSocketHub struct {
	clients    map[int64]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *services.Event
}

type Client struct {
	UserID int64
	conn   *websocket.Conn

	// The hub and the reader goroutine both push frames; conn allows
	// only one writer at a time.
	writeMu sync.Mutex
}

func (c *Client) send(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func NewWebSocketHandler(redisService *services.RedisService, log *zap.Logger) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[int64]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *services.Event, 100),
	}

	h := &WebSocketHandler{
		redisService: redisService,
		hub:          hub,
		log:          log,
	}

	go hub.run(log)
	go h.relayEvents()

	return h
}

// relayEvents feeds the hub from the shared pub/sub channel, so events
// published by any API instance reach every connected client.
func (h *WebSocketHandler) relayEvents() {
	ctx := context.Background()
	pubsub := h.redisService.SubscribeEvents(ctx)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var event services.Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			h.log.Error("failed to decode event", zap.Error(err))
			continue
		}

		select {
		case h.hub.broadcast <- &event:
		default:
			h.log.Warn("event dropped, hub backlog full",
				zap.String("type", event.Type))
		}
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetInt64("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("failed to upgrade to websocket", zap.Error(err))
		return
	}

	client := &Client{
		UserID: userID,
		conn:   conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	h.sendBalance(c.Request.Context(), client)

	for {
		var msg services.Event
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket error", zap.Error(err))
			}
			break
		}

		if msg.Type == "PING" {
			h.sendPong(client)
		}
	}
}

func (h *WebSocketHandler) sendBalance(ctx context.Context, client *Client) {
	wallet, err := h.redisService.GetWallet(ctx, client.UserID)
	if err != nil {
		h.log.Error("failed to get wallet for websocket", zap.Error(err))
		return
	}

	client.send(services.Event{
		Type: "BALANCE_UPDATE",
		Data: map[string]interface{}{
			"balance":       wallet.Balance,
			"total_wagered": wallet.TotalWagered,
			"total_won":     wallet.TotalWon,
		},
	})
}

func (h *WebSocketHandler) sendPong(client *Client) {
	client.send(services.Event{
		Type: "PONG",
		Data: map[string]interface{}{
			"timestamp": time.Now().Unix(),
		},
	})
}

func (hub *WebSocketHub) run(log *zap.Logger) {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client.UserID] = client
			log.Info("websocket client registered", zap.Int64("user_id", client.UserID))

		case client := <-hub.unregister:
			if current, ok := hub.clients[client.UserID]; ok && current == client {
				delete(hub.clients, client.UserID)
				log.Info("websocket client unregistered", zap.Int64("user_id", client.UserID))
			}

		case event := <-hub.broadcast:
			hub.dispatch(event)
		}
	}
}

func (hub *WebSocketHub) dispatch(event *services.Event) {
	if event.UserID != 0 {
		if client, ok := hub.clients[event.UserID]; ok {
			client.send(event)
		}
		return
	}

	for _, client := range hub.clients {
		client.send(event)
	}
}
