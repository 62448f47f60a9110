package api

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stockgame/internal/game"
	"stockgame/internal/market"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Hub maintains active WebSocket connections and delivers engine events,
// either to everyone or to one participant. It implements game.Sink.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	byID    map[string]*Client
}

// Client is one WebSocket connection bound to a participant id.
type Client struct {
	hub    *Hub
	engine *game.Engine
	conn   *websocket.Conn
	id     string
	send   chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		byID:    make(map[string]*Client),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.byID[client.id] = client
	h.mu.Unlock()
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		delete(h.byID, client.id)
		close(client.send)
	}
	h.mu.Unlock()
}

// BroadcastAll sends the envelope to every connected client. A client whose
// send buffer is full is skipped rather than blocking the engine.
func (h *Hub) BroadcastAll(env game.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Client buffer full, skip
		}
	}
}

// SendTo sends the envelope to one participant's connection, if it is
// still registered.
func (h *Hub) SendTo(participantID string, env game.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}

	h.mu.RLock()
	client := h.byID[participantID]
	h.mu.RUnlock()

	if client == nil {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

// Stop disconnects every client.
func (h *Hub) Stop() {
	h.mu.Lock()
	for client := range h.clients {
		delete(h.clients, client)
		delete(h.byID, client.id)
		close(client.send)
	}
	h.mu.Unlock()
}

// inboundMessage is the client → server wire format.
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// tradeRequest is the payload of a "trade" message.
type tradeRequest struct {
	Action string `json:"action"`
	Symbol string `json:"symbol"`
}

// WritePump drains the send channel to the connection and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump decodes inbound messages and forwards them to the engine.
// Malformed messages are dropped at this boundary; they never reach the
// engine and never kill the connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.engine.Disconnect(c.id)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.handleMessage(raw)
	}
}

func (c *Client) handleMessage(raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("client %s: malformed message: %v", c.id, err)
		return
	}

	switch msg.Type {
	case "start_game":
		c.engine.RequestStart()
	case "trade":
		var req tradeRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Printf("client %s: malformed trade payload: %v", c.id, err)
			return
		}
		if req.Symbol == "" || (req.Action != "buy" && req.Action != "sell") {
			log.Printf("client %s: invalid trade request %+v", c.id, req)
			return
		}
		// Rejections are intentionally silent on the wire; the client just
		// sees no user_update.
		if err := c.engine.RequestTrade(c.id, req.Action, market.Symbol(req.Symbol), 1); err != nil {
			log.Printf("client %s: trade rejected: %v", c.id, err)
		}
	default:
		log.Printf("client %s: unknown message type %q", c.id, msg.Type)
	}
}
