package controllers

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/resellhub_backend/middleware"
	"github.com/HSouheill/resellhub_backend/websocket"
)

type RealtimeController struct {
	hub      *websocket.Hub
	loader   websocket.SnapshotLoader
	upgrader gorillaws.Upgrader
}

func NewRealtimeController(hub *websocket.Hub, loader websocket.SnapshotLoader, allowedOrigins []string) *RealtimeController {
	return &RealtimeController{
		hub:      hub,
		loader:   loader,
		upgrader: websocket.Upgrader(allowedOrigins),
	}
}

// Connect upgrades to a websocket; the token may arrive as ?token= since browsers cannot set headers
func (rc *RealtimeController) Connect(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Authentication failed", nil)
	}
	return websocket.HandleWebSocket(c, rc.hub, rc.upgrader, rc.loader, userID, middleware.ExtractUserType(c))
}
