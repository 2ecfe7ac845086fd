package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second // must be shorter than pongWait
)

// Events pushed to dashboard sessions.
const (
	EventMessageSent    = "message_sent"
	EventMessageFailed  = "message_failed"
	EventInboundMessage = "inbound_message"
	EventOrderUpdate    = "order_update"
	EventClientUpdate   = "client_update"
	EventNotification   = "notification"
)

// Message is the JSON frame exchanged with dashboard sessions.
type Message struct {
	Event     string      `json:"event"`
	AccountID string      `json:"account_id,omitempty"`
	Data      interface{} `json:"data"`
}

// Client is one connected dashboard session.
type Client struct {
	ID        string
	AccountID uuid.UUID
	UserID    uuid.UUID
	Conn      *websocket.Conn
	Send      chan []byte
	Hub       *Hub
}

// Hub fans events out to dashboard sessions, scoped per account so one
// tenant never sees another tenant's traffic.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[*Client]struct{}
	queue    chan *Message
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[uuid.UUID]map[*Client]struct{}),
		queue:    make(chan *Message, 256),
	}
}

// Run drains the broadcast queue. Call it once in its own goroutine.
func (h *Hub) Run() {
	for msg := range h.queue {
		h.deliver(msg)
	}
}

// Register adds a session to its account's fan-out set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.sessions[c.AccountID]
	if !ok {
		set = make(map[*Client]struct{})
		h.sessions[c.AccountID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	log.Printf("[WS Hub] Session connected: %s (account %s)", c.ID, c.AccountID)
}

// Unregister removes a session and closes its send channel. Safe to call
// more than once for the same session.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[c.AccountID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.sessions, c.AccountID)
	}
	close(c.Send)
	log.Printf("[WS Hub] Session disconnected: %s", c.ID)
}

// Broadcast queues a message. With an AccountID it reaches only that
// account's sessions, otherwise every session.
func (h *Hub) Broadcast(msg *Message) {
	select {
	case h.queue <- msg:
	default:
		log.Printf("[WS Hub] Queue full, dropping %s event", msg.Event)
	}
}

// BroadcastToAccount queues an event for a single account's sessions.
func (h *Hub) BroadcastToAccount(accountID uuid.UUID, event string, data interface{}) {
	h.Broadcast(&Message{Event: event, AccountID: accountID.String(), Data: data})
}

// BroadcastMessageSent notifies an account's dashboards of an outbound message.
func (h *Hub) BroadcastMessageSent(accountID uuid.UUID, logEntry interface{}) {
	h.BroadcastToAccount(accountID, EventMessageSent, logEntry)
}

// BroadcastOrderUpdate notifies an account's dashboards of an order status change.
func (h *Hub) BroadcastOrderUpdate(accountID, orderID uuid.UUID, status string) {
	h.BroadcastToAccount(accountID, EventOrderUpdate, map[string]interface{}{
		"order_id": orderID.String(),
		"status":   status,
	})
}

func (h *Hub) deliver(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WS Hub] Marshal error: %v", err)
		return
	}

	h.mu.RLock()
	var stale []*Client
	if msg.AccountID != "" {
		accountID, err := uuid.Parse(msg.AccountID)
		if err != nil {
			h.mu.RUnlock()
			return
		}
		stale = send(h.sessions[accountID], data)
	} else {
		for _, set := range h.sessions {
			stale = append(stale, send(set, data)...)
		}
	}
	h.mu.RUnlock()

	// A session whose buffer is full is not draining; drop it.
	for _, c := range stale {
		h.Unregister(c)
	}
}

func send(set map[*Client]struct{}, data []byte) []*Client {
	var stale []*Client
	for c := range set {
		select {
		case c.Send <- data:
		default:
			stale = append(stale, c)
		}
	}
	return stale
}

// GetClientCount returns the total number of connected sessions.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.sessions {
		n += len(set)
	}
	return n
}

// GetAccountClientCount returns the number of sessions for one account.
func (h *Hub) GetAccountClientCount(accountID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[accountID])
}

// ReadPump consumes frames from the peer until the connection drops.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				log.Printf("[WS] Read error on %s: %v", c.ID, err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[WS] Bad frame from %s: %v", c.ID, err)
			continue
		}

		switch msg.Event {
		case "ping":
			select {
			case c.Send <- []byte(`{"event":"pong"}`):
			default:
			}
		default:
			log.Printf("[WS] Unknown event from %s: %s", c.ID, msg.Event)
		}
	}
}

// WritePump flushes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
