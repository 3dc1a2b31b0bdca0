package realtime

import (
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWS pumps hub events to one websocket connection. Authentication
// happened before the upgrade; the caller hands us the verified user id.
func ServeWS(hub *Hub, conn *websocket.Conn, userID uuid.UUID) {
	client := &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Send:   make(chan []byte, 64),
	}
	hub.RegisterClient(client)

	// Writer: drain the send channel onto the socket.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range client.Send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("ws write to %s failed: %v", client.ID, err)
				return
			}
		}
	}()

	// Reader: we only care about close frames.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	// Unregister closes Send, which lets the writer drain and exit.
	hub.UnregisterClient(client)
	<-done
}
