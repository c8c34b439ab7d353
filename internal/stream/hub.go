package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub delivers notification payloads to connected clients, keyed by the
// owning user. Redis pub/sub bridges delivery across API instances.
type Hub struct {
	id      string
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	UserID string
	Send   chan []byte
}

// envelope wraps a payload for redis transit. Source identifies the
// publishing hub so it can skip the echo of its own message.
type envelope struct {
	Source  string `json:"source"`
	Payload []byte `json:"payload"`
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(userID string) *Client {
	client := &Client{
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if userClients, ok := h.clients[client.UserID]; ok {
		delete(userClients, client)
		if len(userClients) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	close(client.Send)
}

func (h *Hub) Broadcast(userID string, payload []byte) {
	h.deliver(userID, payload)

	if h.redis != nil {
		body, err := json.Marshal(envelope{Source: h.id, Payload: payload})
		if err != nil {
			return
		}
		err = h.redis.Publish(context.Background(), redisChannel(userID), body).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

// deliver sends while holding the read lock, so Unregister cannot close a
// channel between the snapshot and the send.
func (h *Hub) deliver(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "notify:*:inbox")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			continue
		}
		if env.Source == h.id {
			continue
		}
		h.deliver(userIDFromChannel(msg.Channel), env.Payload)
	}
}

func redisChannel(userID string) string {
	return "notify:" + userID + ":inbox"
}

func userIDFromChannel(ch string) string {
	// notify:{user}:inbox
	const prefix = "notify:"
	const suffix = ":inbox"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
