package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/models"
)

// Message types sent to clients
const (
	MessageTypeConnected    = "connected"
	MessageTypeSubscribed   = "subscribed"
	MessageTypeUnsubscribed = "unsubscribed"
	MessageTypeSnapshot     = "snapshot"
	MessageTypeChange       = "change"
	MessageTypeError        = "error"
	MessageTypePong         = "pong"
)

// Notification represents a control message sent over WebSocket
type Notification struct {
	Type       string      `json:"type"`
	Message    string      `json:"message,omitempty"`
	Collection string      `json:"collection,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	UserID     string      `json:"userId,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID   string
	UserType string
	Conn     *websocket.Conn

	writeMu       sync.Mutex
	subscriptions map[string]bool
}

// NewClient wraps an authenticated connection
func NewClient(conn *websocket.Conn, userID, userType string) *Client {
	return &Client{
		UserID:        userID,
		UserType:      userType,
		Conn:          conn,
		subscriptions: make(map[string]bool),
	}
}

// WriteJSON serialises writes; gorilla connections allow one writer at a time.
// A client that stops reading fails the write after writeWait.
func (c *Client) WriteJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteJSON(v)
}

var subscribable = map[string]map[string]bool{
	models.UserTypeAdmin: {
		config.CollectionOrders:         true,
		config.CollectionStaffReferrals: true,
		config.CollectionCoupons:        true,
		config.CollectionExpenses:       true,
		config.CollectionAccountInfo:    true,
		config.CollectionPlans:          true,
		config.CollectionPayments:       true,
	},
	models.UserTypeStaff: {
		config.CollectionOrders:         true,
		config.CollectionStaffReferrals: true,
	},
	models.UserTypePartner: {
		config.CollectionOrders:      true,
		config.CollectionAccountInfo: true,
		config.CollectionPlans:       true,
	},
}

// ownerScoped collections only deliver a partner's own documents
var ownerScoped = map[string]bool{
	config.CollectionOrders:      true,
	config.CollectionAccountInfo: true,
	config.CollectionPayments:    true,
}

// CanSubscribe reports whether a role may watch a collection
func CanSubscribe(userType, collection string) bool {
	return subscribable[userType][collection]
}

// view returns the event as this client may see it
func (c *Client) view(ev models.ChangeEvent) (models.ChangeEvent, bool) {
	if c.UserType != models.UserTypePartner {
		return ev, true
	}
	if ownerScoped[ev.Collection] {
		return ev, ev.OwnerID == c.UserID
	}
	// partners only list active plans, so a retired plan reaches them as a removal
	if plan, ok := ev.Document.(models.Plan); ok && !plan.IsActive {
		ev.Operation = "delete"
		ev.Document = nil
	}
	return ev, true
}

// Hub maintains the set of active clients and fans change events out to subscribers
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Conn.Close()
			}
			h.mu.Unlock()
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.Conn.Close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			close(h.done)
			return
		}
	}
}

// Add registers a client with the hub
func (h *Hub) Add(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Conn.Close()
	}
}

// Remove unregisters a client and closes its connection
func (h *Hub) Remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribe adds a collection to the client's subscriptions
func (h *Hub) Subscribe(client *Client, collection string) bool {
	if !CanSubscribe(client.UserType, collection) {
		return false
	}
	h.mu.Lock()
	client.subscriptions[collection] = true
	h.mu.Unlock()
	return true
}

// Unsubscribe removes a collection from the client's subscriptions
func (h *Hub) Unsubscribe(client *Client, collection string) {
	h.mu.Lock()
	delete(client.subscriptions, collection)
	h.mu.Unlock()
}

// Broadcast delivers a change event to every client subscribed to its collection
func (h *Hub) Broadcast(ev models.ChangeEvent) {
	type delivery struct {
		client *Client
		ev     models.ChangeEvent
	}
	h.mu.RLock()
	targets := make([]delivery, 0, len(h.clients))
	for client := range h.clients {
		if !client.subscriptions[ev.Collection] {
			continue
		}
		if view, ok := client.view(ev); ok {
			targets = append(targets, delivery{client, view})
		}
	}
	h.mu.RUnlock()

	for _, d := range targets {
		if err := d.client.WriteJSON(d.ev); err != nil {
			go h.Remove(d.client)
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
