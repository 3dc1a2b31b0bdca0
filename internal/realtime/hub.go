package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Event is what workflow handlers push to connected dashboards after a
// mutation commits. Like cache invalidation, delivery is best-effort and
// never blocks the mutation.
type Event struct {
	Type string      `json:"type"` // project_status / application_status / meeting_request_status / rating
	Data interface{} `json:"data"`
}

type Client struct {
	ID     string
	UserID uuid.UUID
	Send   chan []byte
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// SendToUser sends an event to every connection a user has open.
func (h *Hub) SendToUser(userID uuid.UUID, ev Event) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.UserID == userID {
			select {
			case client.Send <- payload:
			default:
				// slow consumer, skip instead of blocking
			}
		}
	}
}

// SendToParties notifies both sides of a project (client and freelancer).
func (h *Hub) SendToParties(clientID, freelancerID uuid.UUID, ev Event) {
	if h == nil {
		return
	}
	h.SendToUser(clientID, ev)
	if freelancerID != uuid.Nil && freelancerID != clientID {
		h.SendToUser(freelancerID, ev)
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("Client registered: %s (UserID: %s)", client.ID, client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if old, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(old.Send)
				log.Printf("Client unregistered: %s", client.ID)
			}
			h.mu.Unlock()
		}
	}
}
