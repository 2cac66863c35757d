package hub

import (
	"encoding/json"
	"log"
	"sync"
)

// Subscription scopes what a client receives: every event for one
// business (staff dashboards) or only events touching one entry
// (a customer watching their own place in line).
type Subscription struct {
	BusinessID string
	EntryID    string
}

type Client struct {
	ID           string
	Send         chan []byte
	Subscription Subscription
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

type SubscribeMessage struct {
	Action     string `json:"action"`
	BusinessID string `json:"business_id"`
	EntryID    string `json:"entry_id"`
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) UpdateSubscription(client *Client, sub Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.Subscription = sub
}

// Broadcast delivers payload to every client whose subscription
// matches meta. Slow clients are skipped rather than blocking the
// feed; they re-fetch on the next event anyway.
func (h *Hub) Broadcast(payload []byte, meta Subscription) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if !match(client.Subscription, meta) {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			log.Printf("hub drop message client=%s", client.ID)
		}
	}
}

func match(sub Subscription, meta Subscription) bool {
	if sub.BusinessID == "" && sub.EntryID == "" {
		return false
	}
	if sub.BusinessID != "" && meta.BusinessID != sub.BusinessID {
		return false
	}
	if sub.EntryID != "" && meta.EntryID != sub.EntryID {
		return false
	}
	return true
}

func ParseSubscribe(data []byte) (SubscribeMessage, bool) {
	var msg SubscribeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return SubscribeMessage{}, false
	}
	if msg.Action != "subscribe" && msg.Action != "unsubscribe" {
		return SubscribeMessage{}, false
	}
	return msg, true
}
