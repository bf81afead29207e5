package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/models"
)

type stubLoader struct{}

func (stubLoader) Snapshot(_ context.Context, collection, userID, _ string) (interface{}, error) {
	if collection == config.CollectionPlans {
		return nil, errors.New("boom")
	}
	return []string{collection, userID}, nil
}

func TestCanSubscribe(t *testing.T) {
	tests := []struct {
		userType   string
		collection string
		want       bool
	}{
		{models.UserTypeAdmin, config.CollectionPayments, true},
		{models.UserTypeAdmin, config.CollectionExpenses, true},
		{models.UserTypeStaff, config.CollectionStaffReferrals, true},
		{models.UserTypeStaff, config.CollectionExpenses, false},
		{models.UserTypePartner, config.CollectionOrders, true},
		{models.UserTypePartner, config.CollectionCoupons, false},
		{models.UserTypePartner, config.CollectionUsers, false},
		{"", config.CollectionOrders, false},
	}
	for _, tt := range tests {
		t.Run(tt.userType+"/"+tt.collection, func(t *testing.T) {
			assert.Equal(t, tt.want, CanSubscribe(tt.userType, tt.collection))
		})
	}
}

func startHub(t *testing.T) (*Hub, string) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocket(c, hub, Upgrader(nil), stubLoader{}, c.QueryParam("uid"), c.QueryParam("type"))
	})
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url, uid, userType string) *gorillaws.Conn {
	conn, _, err := gorillaws.DefaultDialer.Dial(url+"?uid="+uid+"&type="+userType, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello Notification
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, MessageTypeConnected, hello.Type)
	assert.Equal(t, uid, hello.UserID)
	return conn
}

func readMessage(t *testing.T, conn *gorillaws.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func subscribe(t *testing.T, conn *gorillaws.Conn, collection string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(clientMessage{Action: "subscribe", Collection: collection}))
	assert.Equal(t, MessageTypeSubscribed, readMessage(t, conn)["type"])
	snap := readMessage(t, conn)
	assert.Equal(t, MessageTypeSnapshot, snap["type"])
	assert.Equal(t, collection, snap["collection"])
}

func TestHubRoundTrip(t *testing.T) {
	hub, url := startHub(t)

	owner := dial(t, url, "p1", models.UserTypePartner)
	other := dial(t, url, "p2", models.UserTypePartner)
	admin := dial(t, url, "a1", models.UserTypeAdmin)

	subscribe(t, owner, config.CollectionOrders)
	subscribe(t, other, config.CollectionOrders)
	subscribe(t, admin, config.CollectionOrders)

	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(models.ChangeEvent{
		Type:       MessageTypeChange,
		Collection: config.CollectionOrders,
		Operation:  "update",
		DocumentID: "o1",
		OwnerID:    "p1",
	})

	for _, conn := range []*gorillaws.Conn{owner, admin} {
		msg := readMessage(t, conn)
		assert.Equal(t, MessageTypeChange, msg["type"])
		assert.Equal(t, "o1", msg["documentId"])
		assert.NotContains(t, msg, "OwnerID")
	}

	// the other partner only gets the pong, not p1's order
	require.NoError(t, other.WriteJSON(clientMessage{Action: "ping"}))
	assert.Equal(t, MessageTypePong, readMessage(t, other)["type"])
}

func TestHubRejectsForbiddenSubscriptions(t *testing.T) {
	_, url := startHub(t)
	conn := dial(t, url, "p1", models.UserTypePartner)

	require.NoError(t, conn.WriteJSON(clientMessage{Action: "subscribe", Collection: config.CollectionCoupons}))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeError, msg["type"])
	assert.Equal(t, config.CollectionCoupons, msg["collection"])

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte("not json")))
	assert.Equal(t, "Invalid message", readMessage(t, conn)["message"])

	require.NoError(t, conn.WriteJSON(clientMessage{Action: "dance"}))
	assert.Equal(t, "Unknown action", readMessage(t, conn)["message"])
}

func TestHubSnapshotFailure(t *testing.T) {
	_, url := startHub(t)
	conn := dial(t, url, "p1", models.UserTypePartner)

	require.NoError(t, conn.WriteJSON(clientMessage{Action: "subscribe", Collection: config.CollectionPlans}))
	assert.Equal(t, MessageTypeSubscribed, readMessage(t, conn)["type"])
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeError, msg["type"])
	assert.Equal(t, "Failed to load snapshot", msg["message"])
}

func TestUpgraderCheckOrigin(t *testing.T) {
	u := Upgrader([]string{"https://dash.example"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://dash.example")
	assert.True(t, u.CheckOrigin(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, u.CheckOrigin(req))

	req.Header.Del("Origin")
	assert.True(t, u.CheckOrigin(req))
}

func TestPartnerPlanView(t *testing.T) {
	partner := &Client{UserID: "p1", UserType: models.UserTypePartner}
	admin := &Client{UserID: "a1", UserType: models.UserTypeAdmin}

	retired := models.ChangeEvent{
		Type:       MessageTypeChange,
		Collection: config.CollectionPlans,
		Operation:  "update",
		DocumentID: "plan-1",
		Document:   models.Plan{Name: "Legacy"},
	}

	got, ok := partner.view(retired)
	require.True(t, ok)
	assert.Equal(t, "delete", got.Operation)
	assert.Equal(t, "plan-1", got.DocumentID)
	assert.Nil(t, got.Document)

	got, ok = admin.view(retired)
	require.True(t, ok)
	assert.Equal(t, retired, got)

	active := retired
	active.Document = models.Plan{Name: "Gold", IsActive: true}
	got, ok = partner.view(active)
	require.True(t, ok)
	assert.Equal(t, active, got)

	_, ok = partner.view(models.ChangeEvent{Collection: config.CollectionOrders, OwnerID: "p2"})
	assert.False(t, ok)
}

func TestStalledClientDoesNotBlockBroadcast(t *testing.T) {
	defaultWait := writeWait
	writeWait = 500 * time.Millisecond
	t.Cleanup(func() { writeWait = defaultWait })

	hub, url := startHub(t)
	stalled := dial(t, url, "a1", models.UserTypeAdmin)
	subscribe(t, stalled, config.CollectionOrders)
	live := dial(t, url, "a2", models.UserTypeAdmin)
	subscribe(t, live, config.CollectionOrders)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	received := make(chan struct{})
	go func() {
		for {
			var msg map[string]interface{}
			if err := live.ReadJSON(&msg); err != nil {
				return
			}
			if msg["documentId"] == "last" {
				close(received)
				return
			}
		}
	}()

	// enough payload to fill the stalled peer's socket buffers
	big := strings.Repeat("x", 256<<10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 128; i++ {
			hub.Broadcast(models.ChangeEvent{Type: MessageTypeChange, Collection: config.CollectionOrders, Operation: "update", DocumentID: fmt.Sprint(i), Document: big})
		}
		hub.Broadcast(models.ChangeEvent{Type: MessageTypeChange, Collection: config.CollectionOrders, Operation: "update", DocumentID: "last"})
	}()

	select {
	case <-done:
	case <-time.After(15 * time.Second):
		t.Fatal("broadcast blocked on a client that stopped reading")
	}
	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("live client missed the last event")
	}
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}
