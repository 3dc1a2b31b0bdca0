package handlers

import (
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/freelancehub/backend/internal/realtime"
	"github.com/freelancehub/backend/internal/utils"
)

// WSHandler upgrades dashboard connections. The JWT middleware cannot run
// on a websocket upgrade, so the token travels as a query parameter.
type WSHandler struct {
	Hub       *realtime.Hub
	JWTSecret string
}

func (h *WSHandler) Events(c *websocket.Conn) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		log.Println("WebSocket: token parameter missing")
		c.Close()
		return
	}

	token, err := utils.ParseJWT(h.JWTSecret, tokenStr)
	if err != nil {
		log.Println("WebSocket: invalid token:", err)
		c.Close()
		return
	}

	claims, ok := token.Claims.(*utils.Claims)
	if !ok {
		c.Close()
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		log.Println("WebSocket: invalid user id in token:", err)
		c.Close()
		return
	}

	log.Printf("WebSocket: user %s connected", userID)
	realtime.ServeWS(h.Hub, c, userID)
	log.Printf("WebSocket: user %s disconnected", userID)
}
