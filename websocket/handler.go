package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// writeWait bounds every write so a client that stops reading cannot hold up the hub
var writeWait = 10 * time.Second

const (
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageSize  = 4096
	snapshotTimeout = 15 * time.Second
)

// SnapshotLoader returns the current documents a subscriber may see in a collection
type SnapshotLoader interface {
	Snapshot(ctx context.Context, collection, userID, userType string) (interface{}, error)
}

// clientMessage is what subscribers send: {"action":"subscribe","collection":"orders"}
type clientMessage struct {
	Action     string `json:"action"`
	Collection string `json:"collection"`
}

// Upgrader builds the connection upgrader; an empty allow list accepts any origin
func Upgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowed) == 0 || origin == "" || allowed[origin]
		},
	}
}

// HandleWebSocket upgrades an authenticated request and serves subscriptions until the client leaves
func HandleWebSocket(c echo.Context, hub *Hub, upgrader websocket.Upgrader, loader SnapshotLoader, userID, userType string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(conn, userID, userType)
	hub.Add(client)

	client.WriteJSON(Notification{
		Type:    MessageTypeConnected,
		Message: "WebSocket connection established",
		UserID:  userID,
	})

	done := make(chan struct{})
	go keepAlive(client, done)

	go func() {
		defer func() {
			close(done)
			hub.Remove(client)
		}()

		conn.SetReadLimit(maxMessageSize)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("websocket read error for %s: %v", userID, err)
				}
				return
			}
			handleClientMessage(hub, loader, client, raw)
		}
	}()

	return nil
}

func handleClientMessage(hub *Hub, loader SnapshotLoader, client *Client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		client.WriteJSON(Notification{Type: MessageTypeError, Message: "Invalid message"})
		return
	}

	switch msg.Action {
	case "subscribe":
		if !hub.Subscribe(client, msg.Collection) {
			client.WriteJSON(Notification{
				Type:       MessageTypeError,
				Message:    "Not allowed to subscribe to this collection",
				Collection: msg.Collection,
			})
			return
		}
		client.WriteJSON(Notification{Type: MessageTypeSubscribed, Collection: msg.Collection})
		if loader == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()
		docs, err := loader.Snapshot(ctx, msg.Collection, client.UserID, client.UserType)
		if err != nil {
			log.Printf("snapshot of %s for %s failed: %v", msg.Collection, client.UserID, err)
			client.WriteJSON(Notification{Type: MessageTypeError, Message: "Failed to load snapshot", Collection: msg.Collection})
			return
		}
		client.WriteJSON(Notification{Type: MessageTypeSnapshot, Collection: msg.Collection, Data: docs})
	case "unsubscribe":
		hub.Unsubscribe(client, msg.Collection)
		client.WriteJSON(Notification{Type: MessageTypeUnsubscribed, Collection: msg.Collection})
	case "ping":
		client.WriteJSON(Notification{Type: MessageTypePong})
	default:
		client.WriteJSON(Notification{Type: MessageTypeError, Message: "Unknown action"})
	}
}

func keepAlive(client *Client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			client.writeMu.Lock()
			err := client.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			client.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
