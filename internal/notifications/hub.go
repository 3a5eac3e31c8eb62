// Package notifications provides real-time notification delivery and management.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"orgdesk/internal/models"
	"orgdesk/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// Hub is a websocket hub that maps userID -> list of Clients. Clients may also
// watch per-entity-type approval feeds to drive live list refreshes in the
// console.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	watchers   map[models.ApprovalEntityType]map[*Client]struct{}
	totalConns int
	shutdown   chan struct{}
	done       chan struct{}
	presence   *ConnectionManager
}

// NewHub creates a new Hub instance for delivering approval events.
func NewHub(redisClients ...*redis.Client) *Hub {
	var redisClient *redis.Client
	if len(redisClients) > 0 {
		redisClient = redisClients[0]
	}

	presence := NewConnectionManager(redisClient, ConnectionManagerConfig{})

	return &Hub{
		conns:    make(map[uint]map[*Client]struct{}),
		watchers: make(map[models.ApprovalEntityType]map[*Client]struct{}),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		presence: presence,
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "approval hub" }

// Register a connection for a given userID. Returns the Client or error if limits exceeded.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}

	if len(m) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	client.OnActivity = func(uid uint) {
		if h.presence != nil {
			h.presence.Touch(context.Background(), uid)
		}
	}

	m[client] = struct{}{}
	h.totalConns++
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()

	if h.presence != nil {
		h.presence.Register(context.Background(), userID)
	}

	return client, nil
}

// UnregisterClient removes a client from the hub and any feeds it watched.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removedClient := false
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			removedClient = true
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
		}
	}
	for _, watching := range h.watchers {
		delete(watching, client)
	}
	h.mu.Unlock()

	if removedClient {
		observability.WebSocketConnectionsTotal.Dec()
		if h.presence != nil {
			h.presence.Unregister(context.Background(), client.UserID)
		}
	}
}

// Watch subscribes the client to an entity type's approval feed.
func (h *Hub) Watch(client *Client, entityType models.ApprovalEntityType) error {
	if !entityType.Valid() {
		return fmt.Errorf("unknown entity type %q", entityType)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	watching, ok := h.watchers[entityType]
	if !ok {
		watching = make(map[*Client]struct{})
		h.watchers[entityType] = watching
	}
	watching[client] = struct{}{}
	return nil
}

// Unwatch removes the client from an entity type's approval feed.
func (h *Hub) Unwatch(client *Client, entityType models.ApprovalEntityType) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if watching, ok := h.watchers[entityType]; ok {
		delete(watching, client)
	}
}

// Broadcast sends message to all connections for userID
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.conns[userID]; ok {
		data := []byte(message)
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// BroadcastFeed sends message to every client watching the entity type's feed.
func (h *Hub) BroadcastFeed(entityType models.ApprovalEntityType, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if watching, ok := h.watchers[entityType]; ok {
		data := []byte(message)
		for c := range watching {
			c.TrySend(data)
		}
	}
}

// BroadcastAll sends message to every connected websocket client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// IsOnline reports whether a user currently has at least one active websocket connection.
func (h *Hub) IsOnline(userID uint) bool {
	if h.presence != nil {
		return h.presence.IsOnline(context.Background(), userID)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.conns[userID]
	return ok && len(clients) > 0
}

// OnlineUserIDs returns the set of users with at least one live connection,
// across all instances when Redis-backed presence is available.
func (h *Hub) OnlineUserIDs(ctx context.Context) []uint {
	if h.presence != nil {
		return h.presence.GetOnlineUserIDs(ctx)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]uint, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	return ids
}

// StartWiring connects the Notifier to this hub: user notifications and
// broadcasts route to user connections, approval feed events route to feed
// watchers.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	if err := n.StartPatternSubscriber(ctx, func(channel, payload string) {
		if channel == "notifications:broadcast" {
			h.BroadcastAll(payload)
			return
		}
		// channel form: notifications:user:<id>
		var userID uint
		if _, err := fmt.Sscanf(channel, "notifications:user:%d", &userID); err != nil {
			log.Printf("invalid notification channel: %s", channel)
			return
		}
		h.Broadcast(userID, payload)
	}); err != nil {
		return err
	}

	return n.StartApprovalSubscriber(ctx, func(channel, payload string) {
		entityType := models.ApprovalEntityType(strings.TrimPrefix(channel, "approvals:feed:"))
		if !entityType.Valid() {
			log.Printf("invalid approval feed channel: %s", channel)
			return
		}
		h.BroadcastFeed(entityType, payload)
	})
}

// Shutdown gracefully closes all websocket connections
func (h *Hub) Shutdown(_ context.Context) error {
	close(h.shutdown)

	if h.presence != nil {
		h.presence.Stop()
	}

	h.mu.Lock()
	for userID, userConns := range h.conns {
		for client := range userConns {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				log.Printf("failed to write close message for user %d: %v", userID, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for user %d: %v", userID, err)
			}
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.watchers = make(map[models.ApprovalEntityType]map[*Client]struct{})
	h.mu.Unlock()

	close(h.done)

	return nil
}
